/*************************************************************************
 * Copyright 2024 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package iostream

import (
	"encoding/binary"
	"fmt"

	"github.com/gravwell/mqwire/mqerr"
)

// ByteReader reads the wire's primitive types from an in-memory buffer, big
// endian, advancing an internal cursor. It never reallocates; EndOfStream
// reports whether the cursor has reached the end of buf.
type ByteReader struct {
	buf []byte
	pos int
}

// NewByteReader wraps buf for sequential reads starting at offset 0. The
// returned reader aliases buf; callers must not mutate it concurrently.
func NewByteReader(buf []byte) *ByteReader {
	return &ByteReader{buf: buf}
}

func (r *ByteReader) need(n int) ([]byte, error) {
	if r.pos+n > len(r.buf) {
		return nil, fmt.Errorf("%w: need %d bytes, have %d", mqerr.ErrInputStreamError, n, len(r.buf)-r.pos)
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

func (r *ByteReader) ReadU8() (uint8, error) {
	b, err := r.need(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *ByteReader) ReadU16() (uint16, error) {
	b, err := r.need(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

func (r *ByteReader) ReadU32() (uint32, error) {
	b, err := r.need(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

func (r *ByteReader) ReadU64() (uint64, error) {
	b, err := r.need(8)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b), nil
}

func (r *ByteReader) ReadBool() (bool, error) { return readBool(r) }
func (r *ByteReader) ReadI8() (int8, error)   { return readI8(r) }
func (r *ByteReader) ReadI16() (int16, error) { return readI16(r) }
func (r *ByteReader) ReadI32() (int32, error) { return readI32(r) }
func (r *ByteReader) ReadI64() (int64, error) { return readI64(r) }
func (r *ByteReader) ReadF32() (float32, error) { return readF32(r) }
func (r *ByteReader) ReadF64() (float64, error) { return readF64(r) }

func (r *ByteReader) ReadFull(buf []byte) error {
	b, err := r.need(len(buf))
	if err != nil {
		return err
	}
	copy(buf, b)
	return nil
}

func (r *ByteReader) EndOfStream() bool { return r.pos >= len(r.buf) }

// Remaining returns the number of unread bytes.
func (r *ByteReader) Remaining() int { return len(r.buf) - r.pos }

// Pos returns the current cursor offset, useful for length back-patching.
func (r *ByteReader) Pos() int { return r.pos }

// ByteWriter writes the wire's primitive types into a growable in-memory
// buffer, big endian.
type ByteWriter struct {
	buf []byte
}

// NewByteWriter returns an empty writer with capacity hint reserved up
// front to avoid repeated reallocation for typical packet-sized payloads.
func NewByteWriter(capacityHint int) *ByteWriter {
	return &ByteWriter{buf: make([]byte, 0, capacityHint)}
}

func (w *ByteWriter) WriteU8(v uint8) error {
	w.buf = append(w.buf, v)
	return nil
}

func (w *ByteWriter) WriteU16(v uint16) error {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	w.buf = append(w.buf, b[:]...)
	return nil
}

func (w *ByteWriter) WriteU32(v uint32) error {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	w.buf = append(w.buf, b[:]...)
	return nil
}

func (w *ByteWriter) WriteU64(v uint64) error {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	w.buf = append(w.buf, b[:]...)
	return nil
}

func (w *ByteWriter) WriteBool(v bool) error   { return writeBool(w, v) }
func (w *ByteWriter) WriteI8(v int8) error     { return writeI8(w, v) }
func (w *ByteWriter) WriteI16(v int16) error   { return writeI16(w, v) }
func (w *ByteWriter) WriteI32(v int32) error   { return writeI32(w, v) }
func (w *ByteWriter) WriteI64(v int64) error   { return writeI64(w, v) }
func (w *ByteWriter) WriteF32(v float32) error { return writeF32(w, v) }
func (w *ByteWriter) WriteF64(v float64) error { return writeF64(w, v) }

func (w *ByteWriter) WriteBytes(buf []byte) error {
	w.buf = append(w.buf, buf...)
	return nil
}

// Bytes returns the accumulated buffer. The slice aliases the writer's
// internal storage; callers that keep it past further writes must copy.
func (w *ByteWriter) Bytes() []byte { return w.buf }

// Len returns the number of bytes written so far.
func (w *ByteWriter) Len() int { return len(w.buf) }

// PatchU32 overwrites the 4 bytes at offset with v, used to back-patch a
// length field once the true length of a nested section is known.
func (w *ByteWriter) PatchU32(offset int, v uint32) error {
	if offset < 0 || offset+4 > len(w.buf) {
		return fmt.Errorf("%w: patch offset %d out of range", mqerr.ErrInvalidArgument, offset)
	}
	binary.BigEndian.PutUint32(w.buf[offset:offset+4], v)
	return nil
}
