/*************************************************************************
 * Copyright 2024 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package props

import (
	"fmt"

	"github.com/gravwell/mqwire/iostream"
	"github.com/gravwell/mqwire/mqerr"
	"github.com/gravwell/mqwire/value"
)

// lengthPrefixedVersion is the only version this codec accepts.
const lengthPrefixedVersion = 1

// typeTag is the wire encoding of each value.Tag under Encoding A. The
// single Str tag always uses the StrShort wire sub-format; a string of 2^16
// bytes or more cannot be represented and is rejected on encode.
type typeTag uint16

const (
	tagBool typeTag = 1
	tagI8   typeTag = 2
	tagI16  typeTag = 3
	tagI32  typeTag = 4
	tagI64  typeTag = 5
	tagF32  typeTag = 6
	tagF64  typeTag = 7
	tagStr  typeTag = 8
)

func toWireTag(t value.Tag) (typeTag, error) {
	switch t {
	case value.Bool:
		return tagBool, nil
	case value.I8:
		return tagI8, nil
	case value.I16:
		return tagI16, nil
	case value.I32:
		return tagI32, nil
	case value.I64:
		return tagI64, nil
	case value.F32:
		return tagF32, nil
	case value.F64:
		return tagF64, nil
	case value.StrShort, value.StrLong:
		return tagStr, nil
	default:
		return 0, fmt.Errorf("%w: tag %s", mqerr.ErrUnrecognizedPacketType, t)
	}
}

func fromWireTag(t typeTag) (value.Tag, error) {
	switch t {
	case tagBool:
		return value.Bool, nil
	case tagI8:
		return value.I8, nil
	case tagI16:
		return value.I16, nil
	case tagI32:
		return value.I32, nil
	case tagI64:
		return value.I64, nil
	case tagF32:
		return value.F32, nil
	case tagF64:
		return value.F64, nil
	case tagStr:
		return value.StrShort, nil
	default:
		return 0, fmt.Errorf("%w: type-tag %d", mqerr.ErrUnrecognizedPacketType, t)
	}
}

// EncodeLengthPrefixed writes m in the new, length-prefixed typed-list
// format: u32 version, u32 count, then count repetitions of (StrShort key,
// u16 type-tag, value bytes).
func EncodeLengthPrefixed(w iostream.Writer, m *Map) error {
	if err := w.WriteU32(lengthPrefixedVersion); err != nil {
		return err
	}
	if err := w.WriteU32(uint32(m.NumKeys())); err != nil {
		return err
	}
	for _, e := range m.order {
		key, err := value.NewStrShort(e.key)
		if err != nil {
			return err
		}
		if err := key.WriteTo(w); err != nil {
			return err
		}
		wt, err := toWireTag(e.val.Tag())
		if err != nil {
			return err
		}
		if err := w.WriteU16(uint16(wt)); err != nil {
			return err
		}
		if wt == tagStr {
			s := e.val.AsString()
			if len(s) > 0xFFFF {
				return fmt.Errorf("%w: key %q", mqerr.ErrSerializeStringTooBig, e.key)
			}
			if err := w.WriteU16(uint16(len(s))); err != nil {
				return err
			}
			if err := w.WriteBytes([]byte(s)); err != nil {
				return err
			}
			continue
		}
		if err := e.val.WriteTo(w); err != nil {
			return err
		}
	}
	return nil
}

// DecodeLengthPrefixed reads a Map from its Encoding A wire form.
func DecodeLengthPrefixed(r iostream.Reader) (*Map, error) {
	version, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	if version != lengthPrefixedVersion {
		return nil, fmt.Errorf("%w: got version %d", mqerr.ErrUnsupportedVersion, version)
	}
	count, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	m := New()
	for i := uint32(0); i < count; i++ {
		keyVal, err := value.ReadFrom(r, value.StrShort)
		if err != nil {
			return nil, err
		}
		wt, err := r.ReadU16()
		if err != nil {
			return nil, err
		}
		tag, err := fromWireTag(typeTag(wt))
		if err != nil {
			return nil, err
		}
		v, err := value.ReadFrom(r, tag)
		if err != nil {
			return nil, err
		}
		if err := m.Set(keyVal.AsString(), v); err != nil {
			return nil, err
		}
	}
	return m, nil
}
