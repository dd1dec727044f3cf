/*************************************************************************
 * Copyright 2024 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package props

import (
	"bytes"
	"fmt"

	"github.com/gravwell/mqwire/iostream"
	"github.com/gravwell/mqwire/mqerr"
	"github.com/gravwell/mqwire/value"
)

// Legacy codec: bit-exact reproduction of the Java serialization stream
// produced by ObjectOutputStream.writeObject(Hashtable<Object,Object>).
// Every constant below mirrors java.io.ObjectStreamConstants.

const (
	streamMagic   = 0xACED
	streamVersion = 5

	tcNull            = 0x70
	tcReference       = 0x71
	tcClassDesc       = 0x72
	tcObject          = 0x73
	tcString          = 0x74
	tcBlockData       = 0x77
	tcEndBlockData    = 0x78
	tcLongString      = 0x7C

	scWriteMethod  = 0x01
	scSerializable = 0x02

	baseWireHandle = 0x007E0000
)

const (
	uidBoolean   uint64 = 0xCD207280D59CFAEE
	uidByte      uint64 = 0x9C4E6084EE50F51C
	uidShort     uint64 = 0x684D37133460DA52
	uidInteger   uint64 = 0x12E2A0A4F7818738
	uidLong      uint64 = 0x3B8BE490CC8F23DF
	uidFloat     uint64 = 0xDAEDC9A2DB3CF0EC
	uidDouble    uint64 = 0x80B3C24A296BFB04
	uidNumber    uint64 = 0x86AC951D0B94E08B
	uidHashtable uint64 = 0x13BB0F25214AE4B8
)

// fieldDesc is one primitive field in a classDesc: a single-character Java
// field type code ('Z','B','S','I','J','F','D') and its name.
type fieldDesc struct {
	typeCode byte
	name     string
}

// classDescInfo fully describes one parsed or to-be-written class
// descriptor, including its (already resolved) superclass chain.
type classDescInfo struct {
	className string
	uid       uint64
	flags     byte
	fields    []fieldDesc
	super     *classDescInfo
}

var numberDesc = &classDescInfo{className: "java.lang.Number", uid: uidNumber, flags: scSerializable}

var scalarDescs = map[value.Tag]*classDescInfo{
	value.Bool: {className: "java.lang.Boolean", uid: uidBoolean, flags: scSerializable, fields: []fieldDesc{{'Z', "value"}}},
	value.I8:   {className: "java.lang.Byte", uid: uidByte, flags: scSerializable, fields: []fieldDesc{{'B', "value"}}, super: numberDesc},
	value.I16:  {className: "java.lang.Short", uid: uidShort, flags: scSerializable, fields: []fieldDesc{{'S', "value"}}, super: numberDesc},
	value.I32:  {className: "java.lang.Integer", uid: uidInteger, flags: scSerializable, fields: []fieldDesc{{'I', "value"}}, super: numberDesc},
	value.I64:  {className: "java.lang.Long", uid: uidLong, flags: scSerializable, fields: []fieldDesc{{'J', "value"}}, super: numberDesc},
	value.F32:  {className: "java.lang.Float", uid: uidFloat, flags: scSerializable, fields: []fieldDesc{{'F', "value"}}, super: numberDesc},
	value.F64:  {className: "java.lang.Double", uid: uidDouble, flags: scSerializable, fields: []fieldDesc{{'D', "value"}}, super: numberDesc},
}

var hashtableDesc = &classDescInfo{
	className: "java.util.Hashtable",
	uid:       uidHashtable,
	flags:     scWriteMethod | scSerializable,
	fields:    []fieldDesc{{'F', "loadFactor"}, {'I', "threshold"}},
}

// legacyWriter tracks the handle table needed to emit TC_REFERENCE for
// repeated class descriptors.
type legacyWriter struct {
	w           iostream.Writer
	nextHandle  uint32
	classHandle map[string]uint32
}

func newLegacyWriter(w iostream.Writer) *legacyWriter {
	return &legacyWriter{w: w, nextHandle: baseWireHandle, classHandle: make(map[string]uint32)}
}

func (lw *legacyWriter) allocHandle() uint32 {
	h := lw.nextHandle
	lw.nextHandle++
	return h
}

func (lw *legacyWriter) writeUTF(s string) error {
	b := []byte(s)
	if err := lw.w.WriteU16(uint16(len(b))); err != nil {
		return err
	}
	return lw.w.WriteBytes(b)
}

// writeClassDesc emits a full TC_CLASSDESC the first time className is
// seen, and a TC_REFERENCE to its handle on every subsequent call.
func (lw *legacyWriter) writeClassDesc(d *classDescInfo) error {
	if h, ok := lw.classHandle[d.className]; ok {
		if err := lw.w.WriteU8(tcReference); err != nil {
			return err
		}
		return lw.w.WriteU32(h)
	}
	if err := lw.w.WriteU8(tcClassDesc); err != nil {
		return err
	}
	if err := lw.writeUTF(d.className); err != nil {
		return err
	}
	if err := lw.w.WriteU64(d.uid); err != nil {
		return err
	}
	if err := lw.w.WriteU8(d.flags); err != nil {
		return err
	}
	if err := lw.w.WriteU16(uint16(len(d.fields))); err != nil {
		return err
	}
	for _, f := range d.fields {
		if err := lw.w.WriteU8(f.typeCode); err != nil {
			return err
		}
		if err := lw.writeUTF(f.name); err != nil {
			return err
		}
	}
	if err := lw.w.WriteU8(tcEndBlockData); err != nil { // classAnnotation, empty
		return err
	}
	lw.classHandle[d.className] = lw.allocHandle()
	if d.super == nil {
		return lw.w.WriteU8(tcNull)
	}
	return lw.writeClassDesc(d.super)
}

func (lw *legacyWriter) writeFieldValue(typeCode byte, v value.Value) error {
	switch typeCode {
	case 'Z':
		b, _ := v.AsBool()
		return lw.w.WriteBool(b)
	case 'B':
		i, _ := v.AsI8()
		return lw.w.WriteI8(i)
	case 'S':
		i, _ := v.AsI16()
		return lw.w.WriteI16(i)
	case 'I':
		i, _ := v.AsI32()
		return lw.w.WriteI32(i)
	case 'J':
		i, _ := v.AsI64()
		return lw.w.WriteI64(i)
	case 'F':
		f, _ := v.AsF32()
		return lw.w.WriteF32(f)
	case 'D':
		f, _ := v.AsF64()
		return lw.w.WriteF64(f)
	default:
		return fmt.Errorf("%w: field type %q", mqerr.ErrSerializeUnrecognizedClass, string(typeCode))
	}
}

// writeObjectValue emits one Hashtable key or value: a primitive wrapper
// object, TC_STRING, or TC_LONGSTRING.
func (lw *legacyWriter) writeObjectValue(v value.Value) error {
	if v.IsString() {
		return lw.writeJavaString(v.AsString(), v.Tag() == value.StrLong)
	}
	d, ok := scalarDescs[v.Tag()]
	if !ok {
		return fmt.Errorf("%w: %s", mqerr.ErrSerializeUnrecognizedClass, v.Tag())
	}
	if err := lw.w.WriteU8(tcObject); err != nil {
		return err
	}
	if err := lw.writeClassDesc(d); err != nil {
		return err
	}
	lw.allocHandle() // the object instance itself always gets a fresh handle
	return lw.writeFieldValue(d.fields[0].typeCode, v)
}

func (lw *legacyWriter) writeJavaString(s string, forceLong bool) error {
	b := []byte(s)
	if forceLong || len(b) >= 1<<16 {
		if err := lw.w.WriteU8(tcLongString); err != nil {
			return err
		}
		if err := lw.w.WriteU64(uint64(len(b))); err != nil {
			return err
		}
	} else {
		if err := lw.w.WriteU8(tcString); err != nil {
			return err
		}
		if err := lw.w.WriteU16(uint16(len(b))); err != nil {
			return err
		}
	}
	lw.allocHandle()
	return lw.w.WriteBytes(b)
}

// EncodeLegacy writes m as a bit-exact Java-serialized
// Hashtable<Object,Object> stream: the header, one TC_OBJECT for the
// Hashtable itself, its default fields, then a TC_BLOCKDATA section
// holding capacity/numEntries and every (key,value) pair, terminated by
// TC_ENDBLOCKDATA.
func EncodeLegacy(w iostream.Writer, m *Map) error {
	if err := w.WriteU16(streamMagic); err != nil {
		return err
	}
	if err := w.WriteU16(streamVersion); err != nil {
		return err
	}
	lw := newLegacyWriter(w)
	if err := lw.w.WriteU8(tcObject); err != nil {
		return err
	}
	if err := lw.writeClassDesc(hashtableDesc); err != nil {
		return err
	}
	lw.allocHandle() // the Hashtable instance itself

	n := m.NumKeys()
	if err := lw.w.WriteF32(1.0); err != nil { // loadFactor
		return err
	}
	if err := lw.w.WriteI32(int32(n)); err != nil { // threshold
		return err
	}
	if err := lw.w.WriteU8(tcBlockData); err != nil {
		return err
	}
	if err := lw.w.WriteU8(8); err != nil { // block length: two ints
		return err
	}
	if err := lw.w.WriteI32(int32(n)); err != nil { // capacity
		return err
	}
	if err := lw.w.WriteI32(int32(n)); err != nil { // numEntries
		return err
	}
	for _, e := range m.order {
		key, err := value.NewStrShort(e.key)
		if err != nil {
			return err
		}
		if err := lw.writeObjectValue(key); err != nil {
			return err
		}
		if err := lw.writeObjectValue(e.val); err != nil {
			return err
		}
	}
	return lw.w.WriteU8(tcEndBlockData)
}

// legacyReader mirrors legacyWriter for decode, tracking a handle table of
// previously parsed class descriptors so TC_REFERENCE can be resolved.
type legacyReader struct {
	r          iostream.Reader
	nextHandle uint32
	byHandle   map[uint32]*classDescInfo
}

func newLegacyReader(r iostream.Reader) *legacyReader {
	return &legacyReader{r: r, nextHandle: baseWireHandle, byHandle: make(map[uint32]*classDescInfo)}
}

func (lr *legacyReader) allocHandle() uint32 {
	h := lr.nextHandle
	lr.nextHandle++
	return h
}

func (lr *legacyReader) readUTF() (string, error) {
	n, err := lr.r.ReadU16()
	if err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if err := lr.r.ReadFull(buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

// readClassDescOrNull reads a TC_CLASSDESC, TC_REFERENCE, or TC_NULL tag
// and returns the resolved descriptor (nil for TC_NULL).
func (lr *legacyReader) readClassDescOrNull() (*classDescInfo, error) {
	tag, err := lr.r.ReadU8()
	if err != nil {
		return nil, err
	}
	switch tag {
	case tcNull:
		return nil, nil
	case tcReference:
		h, err := lr.r.ReadU32()
		if err != nil {
			return nil, err
		}
		d, ok := lr.byHandle[h]
		if !ok {
			return nil, fmt.Errorf("%w: handle %#x", mqerr.ErrSerializeBadHandle, h)
		}
		return d, nil
	case tcClassDesc:
		return lr.readClassDescBody()
	default:
		return nil, fmt.Errorf("%w: expected classDesc tag, got %#x", mqerr.ErrSerializeUnexpectedBytes, tag)
	}
}

func (lr *legacyReader) readClassDescBody() (*classDescInfo, error) {
	className, err := lr.readUTF()
	if err != nil {
		return nil, err
	}
	uid, err := lr.r.ReadU64()
	if err != nil {
		return nil, err
	}
	flags, err := lr.r.ReadU8()
	if err != nil {
		return nil, err
	}
	fieldCount, err := lr.r.ReadU16()
	if err != nil {
		return nil, err
	}
	fields := make([]fieldDesc, fieldCount)
	for i := range fields {
		tc, err := lr.r.ReadU8()
		if err != nil {
			return nil, err
		}
		name, err := lr.readUTF()
		if err != nil {
			return nil, err
		}
		fields[i] = fieldDesc{typeCode: tc, name: name}
	}
	end, err := lr.r.ReadU8()
	if err != nil {
		return nil, err
	}
	if end != tcEndBlockData {
		return nil, fmt.Errorf("%w: classAnnotation terminator", mqerr.ErrSerializeUnexpectedBytes)
	}
	d := &classDescInfo{className: className, uid: uid, flags: flags, fields: fields}
	lr.byHandle[lr.allocHandle()] = d
	super, err := lr.readClassDescOrNull()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", mqerr.ErrSerializeBadSuperClass, err)
	}
	d.super = super
	return d, nil
}

func expectedUID(className string) (uint64, bool) {
	switch className {
	case "java.lang.Boolean":
		return uidBoolean, true
	case "java.lang.Byte":
		return uidByte, true
	case "java.lang.Short":
		return uidShort, true
	case "java.lang.Integer":
		return uidInteger, true
	case "java.lang.Long":
		return uidLong, true
	case "java.lang.Float":
		return uidFloat, true
	case "java.lang.Double":
		return uidDouble, true
	case "java.lang.Number":
		return uidNumber, true
	case "java.util.Hashtable":
		return uidHashtable, true
	default:
		return 0, false
	}
}

func (lr *legacyReader) readFieldValue(typeCode byte) (value.Value, error) {
	switch typeCode {
	case 'Z':
		b, err := lr.r.ReadBool()
		return value.NewBool(b), err
	case 'B':
		i, err := lr.r.ReadI8()
		return value.NewI8(i), err
	case 'S':
		i, err := lr.r.ReadI16()
		return value.NewI16(i), err
	case 'I':
		i, err := lr.r.ReadI32()
		return value.NewI32(i), err
	case 'J':
		i, err := lr.r.ReadI64()
		return value.NewI64(i), err
	case 'F':
		f, err := lr.r.ReadF32()
		return value.NewF32(f), err
	case 'D':
		f, err := lr.r.ReadF64()
		return value.NewF64(f), err
	default:
		return value.Value{}, fmt.Errorf("%w: field type %q", mqerr.ErrSerializeUnrecognizedClass, string(typeCode))
	}
}

// readObjectValue reads one Hashtable key or value: TC_STRING,
// TC_LONGSTRING, or TC_OBJECT wrapping one of the known scalar classes.
func (lr *legacyReader) readObjectValue() (value.Value, error) {
	tag, err := lr.r.ReadU8()
	if err != nil {
		return value.Value{}, err
	}
	switch tag {
	case tcString:
		n, err := lr.r.ReadU16()
		if err != nil {
			return value.Value{}, err
		}
		buf, err := iostream.ReadCounted(lr.r, uint64(n))
		if err != nil {
			return value.Value{}, err
		}
		if bytes.IndexByte(buf, 0) >= 0 {
			return value.Value{}, mqerr.ErrSerializeStringContainsNull
		}
		lr.allocHandle()
		return value.NewStrShort(string(buf))
	case tcLongString:
		n, err := lr.r.ReadU64()
		if err != nil {
			return value.Value{}, err
		}
		buf, err := iostream.ReadCounted(lr.r, n)
		if err != nil {
			return value.Value{}, err
		}
		lr.allocHandle()
		return value.NewStrLong(string(buf)), nil
	case tcObject:
		d, err := lr.readClassDescOrNull()
		if err != nil {
			return value.Value{}, err
		}
		if d == nil {
			return value.Value{}, fmt.Errorf("%w: object with null class", mqerr.ErrSerializeUnrecognizedClass)
		}
		lr.allocHandle()
		if err := validateDesc(d); err != nil {
			return value.Value{}, err
		}
		if len(d.fields) != 1 {
			return value.Value{}, fmt.Errorf("%w: %s", mqerr.ErrSerializeUnrecognizedClass, d.className)
		}
		v, err := lr.readFieldValue(d.fields[0].typeCode)
		if err != nil {
			return value.Value{}, err
		}
		return retagByClassName(d.className, v), nil
	default:
		return value.Value{}, fmt.Errorf("%w: unexpected object tag %#x", mqerr.ErrSerializeUnexpectedBytes, tag)
	}
}

// retagByClassName returns v unchanged: readFieldValue already derived v's
// tag from the field's type code. A className that disagrees with that type
// code (as in a corrupted stream) is not detected here.
func retagByClassName(_ string, v value.Value) value.Value { return v }

func validateDesc(d *classDescInfo) error {
	uid, known := expectedUID(d.className)
	if !known {
		return fmt.Errorf("%w: %s", mqerr.ErrSerializeUnrecognizedClass, d.className)
	}
	if uid != d.uid {
		return fmt.Errorf("%w: %s", mqerr.ErrSerializeBadClassUID, d.className)
	}
	return nil
}

// DecodeLegacy reads m from its bit-exact Java-serialized
// Hashtable<Object,Object> wire form.
func DecodeLegacy(r iostream.Reader) (*Map, error) {
	magic, err := r.ReadU16()
	if err != nil {
		return nil, err
	}
	if magic != streamMagic {
		return nil, mqerr.ErrSerializeBadMagicNumber
	}
	version, err := r.ReadU16()
	if err != nil {
		return nil, err
	}
	if version != streamVersion {
		return nil, mqerr.ErrSerializeBadVersion
	}
	lr := newLegacyReader(r)
	tag, err := lr.r.ReadU8()
	if err != nil {
		return nil, err
	}
	if tag != tcObject {
		return nil, fmt.Errorf("%w: expected TC_OBJECT, got %#x", mqerr.ErrSerializeUnexpectedBytes, tag)
	}
	d, err := lr.readClassDescOrNull()
	if err != nil {
		return nil, err
	}
	if d == nil || d.className != "java.util.Hashtable" {
		return nil, fmt.Errorf("%w: not a Hashtable", mqerr.ErrSerializeUnrecognizedClass)
	}
	if err := validateDesc(d); err != nil {
		return nil, err
	}
	lr.allocHandle()

	for _, f := range d.fields {
		if _, err := lr.readFieldValue(f.typeCode); err != nil {
			return nil, err
		}
	}

	blockTag, err := lr.r.ReadU8()
	if err != nil {
		return nil, err
	}
	if blockTag != tcBlockData {
		return nil, fmt.Errorf("%w: expected TC_BLOCKDATA, got %#x", mqerr.ErrSerializeUnexpectedBytes, blockTag)
	}
	blockLen, err := lr.r.ReadU8()
	if err != nil {
		return nil, err
	}
	if blockLen != 8 {
		return nil, fmt.Errorf("%w: unexpected block length %d", mqerr.ErrSerializeUnexpectedBytes, blockLen)
	}
	_, err = lr.r.ReadI32() // capacity, unused
	if err != nil {
		return nil, err
	}
	numEntries, err := lr.r.ReadI32()
	if err != nil {
		return nil, err
	}
	if numEntries < 0 {
		return nil, fmt.Errorf("%w: negative entry count", mqerr.ErrInvalidPacket)
	}

	m := New()
	for i := int32(0); i < numEntries; i++ {
		key, err := lr.readObjectValue()
		if err != nil {
			return nil, err
		}
		val, err := lr.readObjectValue()
		if err != nil {
			return nil, err
		}
		if err := m.Set(key.AsString(), val); err != nil {
			return nil, err
		}
	}

	end, err := lr.r.ReadU8()
	if err != nil {
		return nil, err
	}
	if end != tcEndBlockData {
		return nil, fmt.Errorf("%w: expected TC_ENDBLOCKDATA, got %#x", mqerr.ErrSerializeUnexpectedBytes, end)
	}
	return m, nil
}
