/*************************************************************************
 * Copyright 2024 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

// Package iostream provides the big-endian primitive reader and writer
// interfaces that every other wire-layer package builds on: a byte-slice
// backed pair for in-memory codec work, and a transport-backed pair for
// reading and writing directly against a connection.
package iostream

import (
	"math"

	"github.com/gravwell/mqwire/mqerr"
)

// Reader is the read half of the wire's primitive type vocabulary. Every
// method reports mqerr.ErrInputStreamError (wrapped) if fewer bytes remain
// than requested or the underlying transport fails.
type Reader interface {
	ReadU8() (uint8, error)
	ReadU16() (uint16, error)
	ReadU32() (uint32, error)
	ReadU64() (uint64, error)
	ReadBool() (bool, error)
	ReadI8() (int8, error)
	ReadI16() (int16, error)
	ReadI32() (int32, error)
	ReadI64() (int64, error)
	ReadF32() (float32, error)
	ReadF64() (float64, error)
	ReadFull(buf []byte) error
	EndOfStream() bool
}

// Writer is the write half. Every method reports mqerr.ErrInputStreamError
// (wrapped) if the underlying transport fails or, for the byte-buffer
// writer, if growth fails.
type Writer interface {
	WriteU8(uint8) error
	WriteU16(uint16) error
	WriteU32(uint32) error
	WriteU64(uint64) error
	WriteBool(bool) error
	WriteI8(int8) error
	WriteI16(int16) error
	WriteI32(int32) error
	WriteI64(int64) error
	WriteF32(float32) error
	WriteF64(float64) error
	WriteBytes(buf []byte) error
}

// derived helpers shared by every Reader implementation via composition is
// not possible without generics-free duplication here, so each concrete
// reader implements the u8/u16/u32/u64 primitives directly and these free
// functions build the derived ones on top of a minimal reader/writer pair.

func readBool(r Reader) (bool, error) {
	v, err := r.ReadU8()
	if err != nil {
		return false, err
	}
	return v != 0, nil
}

func readI8(r Reader) (int8, error) {
	v, err := r.ReadU8()
	return int8(v), err
}

func readI16(r Reader) (int16, error) {
	v, err := r.ReadU16()
	return int16(v), err
}

func readI32(r Reader) (int32, error) {
	v, err := r.ReadU32()
	return int32(v), err
}

func readI64(r Reader) (int64, error) {
	v, err := r.ReadU64()
	return int64(v), err
}

func readF32(r Reader) (float32, error) {
	v, err := r.ReadU32()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

func readF64(r Reader) (float64, error) {
	v, err := r.ReadU64()
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(v), nil
}

func writeBool(w Writer, v bool) error {
	if v {
		return w.WriteU8(1)
	}
	return w.WriteU8(0)
}

func writeI8(w Writer, v int8) error  { return w.WriteU8(uint8(v)) }
func writeI16(w Writer, v int16) error { return w.WriteU16(uint16(v)) }
func writeI32(w Writer, v int32) error { return w.WriteU32(uint32(v)) }
func writeI64(w Writer, v int64) error { return w.WriteU64(uint64(v)) }
func writeF32(w Writer, v float32) error { return w.WriteU32(math.Float32bits(v)) }
func writeF64(w Writer, v float64) error { return w.WriteU64(math.Float64bits(v)) }

var _ = mqerr.ErrInputStreamError // referenced by concrete implementations

// readChunk bounds a single allocation made on behalf of an attacker- or
// corruption-controlled length prefix.
const readChunk = 1 << 16

// ReadCounted reads exactly n bytes from r and returns them. n arrives off
// the wire as a length prefix and is not otherwise trusted, so the read
// proceeds in bounded chunks instead of allocating n bytes up front: a
// corrupted or malicious length this large fails fast, on the first chunk
// that can't be satisfied, rather than attempting a multi-gigabyte
// allocation.
func ReadCounted(r Reader, n uint64) ([]byte, error) {
	out := make([]byte, 0, minInt(int(minUint64(n, readChunk)), readChunk))
	var remaining = n
	for remaining > 0 {
		step := remaining
		if step > readChunk {
			step = readChunk
		}
		buf := make([]byte, step)
		if err := r.ReadFull(buf); err != nil {
			return nil, err
		}
		out = append(out, buf...)
		remaining -= step
	}
	return out, nil
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func minUint64(a, b uint64) uint64 {
	if a < b {
		return a
	}
	return b
}
