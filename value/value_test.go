/*************************************************************************
 * Copyright 2024 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package value

import (
	"errors"
	"strings"
	"testing"

	"github.com/gravwell/mqwire/iostream"
	"github.com/gravwell/mqwire/mqerr"
)

func TestNewStrShortTooBig(t *testing.T) {
	if _, err := NewStrShort(strings.Repeat("A", maxShortStringLen+1)); !errors.Is(err, mqerr.ErrSerializeStringTooBig) {
		t.Fatalf("expected ErrSerializeStringTooBig, got %v", err)
	}
	if _, err := NewStrShort(strings.Repeat("A", maxShortStringLen)); err != nil {
		t.Fatalf("boundary length should be accepted: %v", err)
	}
}

func TestNewStrShortRejectsInteriorNull(t *testing.T) {
	if _, err := NewStrShort("abc\x00def"); !errors.Is(err, mqerr.ErrNullString) {
		t.Fatalf("expected ErrNullString, got %v", err)
	}
}

func TestReadFromStrShortRejectsInteriorNull(t *testing.T) {
	w := iostream.NewByteWriter(16)
	if err := w.WriteU16(7); err != nil {
		t.Fatal(err)
	}
	if err := w.WriteBytes([]byte("abc\x00def")); err != nil {
		t.Fatal(err)
	}
	r := iostream.NewByteReader(w.Bytes())
	if _, err := ReadFrom(r, StrShort); !errors.Is(err, mqerr.ErrNullString) {
		t.Fatalf("expected ErrNullString, got %v", err)
	}
}

func TestEquals(t *testing.T) {
	if !NewI32(7).Equals(NewI32(7)) {
		t.Fatal("equal I32 values compared unequal")
	}
	if NewI32(7).Equals(NewI64(7)) {
		t.Fatal("different tags compared equal")
	}
	a, _ := NewStrShort("hello")
	b, _ := NewStrShort("hello")
	if !a.Equals(b) {
		t.Fatal("equal strings compared unequal")
	}
}

func TestHashConsistentWithEquals(t *testing.T) {
	pairs := []Value{NewBool(true), NewI8(5), NewI16(5), NewI32(5), NewI64(5), NewF32(1.5), NewF64(1.5)}
	for _, v := range pairs {
		if v.Hash() != v.Hash() {
			t.Fatalf("hash not stable for %v", v)
		}
	}
	s1, _ := NewStrShort("abc")
	s2, _ := NewStrShort("abc")
	if s1.Hash() != s2.Hash() {
		t.Fatal("equal strings hashed differently")
	}
}

func TestConversions(t *testing.T) {
	v := NewI32(42)
	if i, err := v.AsI64(); err != nil || i != 42 {
		t.Fatalf("AsI64 widen failed: %v %v", i, err)
	}
	if f, err := v.AsF64(); err != nil || f != 42.0 {
		t.Fatalf("AsF64 widen failed: %v %v", f, err)
	}
	if _, err := NewI32(1 << 20).AsI8(); !errors.Is(err, mqerr.ErrTypeConversionOutOfBounds) {
		t.Fatalf("expected out-of-bounds conversion error, got %v", err)
	}

	s, _ := NewStrShort("123")
	if i, err := s.AsI64(); err != nil || i != 123 {
		t.Fatalf("string->int conversion failed: %v %v", i, err)
	}
	bad, _ := NewStrShort("not a number")
	if _, err := bad.AsI64(); !errors.Is(err, mqerr.ErrStringNotNumber) {
		t.Fatalf("expected ErrStringNotNumber, got %v", err)
	}
}

func TestBoolConversion(t *testing.T) {
	if b, err := NewBool(true).AsBool(); err != nil || !b {
		t.Fatalf("bool identity conversion failed: %v %v", b, err)
	}
	if _, err := NewF64(1.0).AsBool(); !errors.Is(err, mqerr.ErrInvalidTypeConversion) {
		t.Fatalf("expected ErrInvalidTypeConversion, got %v", err)
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	strShort, _ := NewStrShort("hello, broker")
	cases := []Value{
		NewBool(true),
		NewBool(false),
		NewI8(-7),
		NewI16(-1234),
		NewI32(123456789),
		NewI64(-9000000000),
		NewF32(3.25),
		NewF64(2.718281828),
		strShort,
		NewStrLong(strings.Repeat("x", 70000)),
	}
	for _, in := range cases {
		w := iostream.NewByteWriter(16)
		if err := in.WriteTo(w); err != nil {
			t.Fatalf("WriteTo(%v) failed: %v", in, err)
		}
		r := iostream.NewByteReader(w.Bytes())
		out, err := ReadFrom(r, in.Tag())
		if err != nil {
			t.Fatalf("ReadFrom(%v) failed: %v", in, err)
		}
		if !in.Equals(out) {
			t.Fatalf("round trip mismatch: in=%v out=%v", in, out)
		}
		if !r.EndOfStream() {
			t.Fatalf("reader did not consume exactly the written bytes for %v", in)
		}
	}
}

func TestReadFromTruncated(t *testing.T) {
	w := iostream.NewByteWriter(4)
	_ = NewI32(1).WriteTo(w)
	short := w.Bytes()[:2]
	r := iostream.NewByteReader(short)
	if _, err := ReadFrom(r, I32); err == nil {
		t.Fatal("expected error reading truncated I32")
	}
}

func TestTagString(t *testing.T) {
	if Bool.String() != "Bool" || StrLong.String() != "StrLong" {
		t.Fatalf("unexpected Tag.String() output")
	}
}
