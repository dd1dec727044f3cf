/*************************************************************************
 * Copyright 2024 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package props

import (
	"errors"
	"testing"

	"github.com/gravwell/mqwire/mqerr"
	"github.com/gravwell/mqwire/value"
)

func TestSetDuplicateFails(t *testing.T) {
	m := New()
	if err := m.Set("k", value.NewI32(1)); err != nil {
		t.Fatalf("first Set failed: %v", err)
	}
	if err := m.Set("k", value.NewI32(2)); !errors.Is(err, mqerr.ErrHashValueAlreadyExists) {
		t.Fatalf("expected ErrHashValueAlreadyExists, got %v", err)
	}
}

func TestReplaceOverwrites(t *testing.T) {
	m := New()
	m.Replace("k", value.NewI32(1))
	m.Replace("k", value.NewI32(2))
	v, err := m.Get("k")
	if err != nil || !v.Equals(value.NewI32(2)) {
		t.Fatalf("Replace did not overwrite: %v %v", v, err)
	}
	if m.NumKeys() != 1 {
		t.Fatalf("expected 1 key, got %d", m.NumKeys())
	}
}

func TestGetNotFound(t *testing.T) {
	m := New()
	if _, err := m.Get("missing"); !errors.Is(err, mqerr.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRemove(t *testing.T) {
	m := New()
	_ = m.Set("a", value.NewI32(1))
	_ = m.Set("b", value.NewI32(2))
	if err := m.Remove("a"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if _, err := m.Get("a"); !errors.Is(err, mqerr.ErrNotFound) {
		t.Fatal("removed key still found")
	}
	if v, err := m.Get("b"); err != nil || !v.Equals(value.NewI32(2)) {
		t.Fatalf("remaining key corrupted: %v %v", v, err)
	}
	if err := m.Remove("a"); !errors.Is(err, mqerr.ErrNotFound) {
		t.Fatal("expected ErrNotFound removing absent key twice")
	}
}

func TestIteratorInvalidatedByMutation(t *testing.T) {
	m := New()
	_ = m.Set("a", value.NewI32(1))
	_ = m.Set("b", value.NewI32(2))
	it := m.Begin()
	if !it.HasNext() {
		t.Fatal("expected first entry")
	}
	_, _, _ = it.GetNext()
	m.Replace("a", value.NewI32(9))
	if it.HasNext() {
		t.Fatal("HasNext should report false after mutation")
	}
	if _, _, err := it.GetNext(); !errors.Is(err, mqerr.ErrInvalidIterator) {
		t.Fatalf("expected ErrInvalidIterator, got %v", err)
	}
}

func TestIteratorOrder(t *testing.T) {
	m := New()
	keys := []string{"z", "a", "m"}
	for i, k := range keys {
		_ = m.Set(k, value.NewI32(int32(i)))
	}
	it := m.Begin()
	var got []string
	for it.HasNext() {
		k, _, err := it.GetNext()
		if err != nil {
			t.Fatalf("GetNext: %v", err)
		}
		got = append(got, k)
	}
	for i, k := range keys {
		if got[i] != k {
			t.Fatalf("iteration order mismatch at %d: got %q want %q", i, got[i], k)
		}
	}
}

func TestMapEqualsIgnoresOrder(t *testing.T) {
	a := New()
	_ = a.Set("x", value.NewI32(1))
	_ = a.Set("y", value.NewI32(2))
	b := New()
	_ = b.Set("y", value.NewI32(2))
	_ = b.Set("x", value.NewI32(1))
	if !a.Equals(b) {
		t.Fatal("maps with same entries in different order compared unequal")
	}
}

func TestStringLinePrefix(t *testing.T) {
	m := New()
	_ = m.Set("k", value.NewI32(7))
	got := m.String(">> ")
	want := ">> k -> 7\n"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}
