/*************************************************************************
 * Copyright 2024 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

// Package props implements the ordered string-keyed property map carried
// inside every packet, and its two on-wire codecs.
package props

import (
	"fmt"
	"strings"

	"github.com/gravwell/mqwire/mqerr"
	"github.com/gravwell/mqwire/value"
)

// entry pairs a key with its value and remembers insertion order via its
// position in Map.order.
type entry struct {
	key string
	val value.Value
}

// Map is an ordered mapping from a short string key to a value.Value.
// Insertion order is preserved for toString and iteration, but equality and
// lookup are order-independent. A Map is not safe for concurrent use.
type Map struct {
	index map[string]int // key -> index into order
	order []entry
	iterGen int // bumped on every mutation and every Begin; invalidates outstanding Iterators
}

// New returns an empty Map.
func New() *Map {
	return &Map{index: make(map[string]int)}
}

// NumKeys reports the number of entries in m.
func (m *Map) NumKeys() int { return len(m.order) }

// Set stores name -> v. Setting an already-present key reports
// mqerr.ErrHashValueAlreadyExists, matching the low-level map's contract;
// callers that want replace-on-set (the user-facing property façade) must
// Remove first.
func (m *Map) Set(name string, v value.Value) error {
	if _, ok := m.index[name]; ok {
		return fmt.Errorf("%w: %q", mqerr.ErrHashValueAlreadyExists, name)
	}
	m.index[name] = len(m.order)
	m.order = append(m.order, entry{key: name, val: v})
	m.iterGen++
	return nil
}

// Replace stores name -> v. A prior value for name is overwritten in place,
// so the key keeps its original insertion position. This is the behavior the user-facing property façade presents as "set".
func (m *Map) Replace(name string, v value.Value) {
	if i, ok := m.index[name]; ok {
		m.order[i].val = v
		m.iterGen++
		return
	}
	_ = m.Set(name, v)
}

// Get returns the value stored under name, or mqerr.ErrNotFound.
func (m *Map) Get(name string) (value.Value, error) {
	i, ok := m.index[name]
	if !ok {
		return value.Value{}, fmt.Errorf("%w: %q", mqerr.ErrNotFound, name)
	}
	return m.order[i].val, nil
}

// GetTagged returns the value stored under name, reporting
// mqerr.ErrPropertyWrongValueType if it is present but tagged differently
// than want and cannot be converted, or mqerr.ErrNotFound if absent.
func (m *Map) GetTagged(name string, want value.Tag) (value.Value, error) {
	v, err := m.Get(name)
	if err != nil {
		return value.Value{}, err
	}
	if v.Tag() == want {
		return v, nil
	}
	conv, err := convert(v, want)
	if err != nil {
		return value.Value{}, fmt.Errorf("%w: %q: %v", mqerr.ErrPropertyWrongValueType, name, err)
	}
	return conv, nil
}

func convert(v value.Value, want value.Tag) (value.Value, error) {
	switch want {
	case value.Bool:
		b, err := v.AsBool()
		if err != nil {
			return value.Value{}, err
		}
		return value.NewBool(b), nil
	case value.I8:
		i, err := v.AsI8()
		if err != nil {
			return value.Value{}, err
		}
		return value.NewI8(i), nil
	case value.I16:
		i, err := v.AsI16()
		if err != nil {
			return value.Value{}, err
		}
		return value.NewI16(i), nil
	case value.I32:
		i, err := v.AsI32()
		if err != nil {
			return value.Value{}, err
		}
		return value.NewI32(i), nil
	case value.I64:
		i, err := v.AsI64()
		if err != nil {
			return value.Value{}, err
		}
		return value.NewI64(i), nil
	case value.F32:
		f, err := v.AsF32()
		if err != nil {
			return value.Value{}, err
		}
		return value.NewF32(f), nil
	case value.F64:
		f, err := v.AsF64()
		if err != nil {
			return value.Value{}, err
		}
		return value.NewF64(f), nil
	case value.StrShort:
		return value.NewStrShort(v.AsString())
	case value.StrLong:
		return value.NewStrLong(v.AsString()), nil
	default:
		return value.Value{}, fmt.Errorf("%w: unknown tag %s", mqerr.ErrInvalidTypeConversion, want)
	}
}

// Remove deletes name, reporting mqerr.ErrNotFound if absent.
func (m *Map) Remove(name string) error {
	i, ok := m.index[name]
	if !ok {
		return fmt.Errorf("%w: %q", mqerr.ErrNotFound, name)
	}
	delete(m.index, name)
	m.order = append(m.order[:i], m.order[i+1:]...)
	for j := i; j < len(m.order); j++ {
		m.index[m.order[j].key] = j
	}
	m.iterGen++
	return nil
}

// Iterator walks a Map's entries in insertion order. It is invalidated by
// any mutation to the Map made after Begin; HasNext/GetNext report
// mqerr.ErrInvalidIterator once that happens.
type Iterator struct {
	m       *Map
	gen     int
	pos     int
}

// Begin starts a new iteration over m, invalidating any prior Iterator
// obtained from m.
func (m *Map) Begin() *Iterator {
	m.iterGen++
	return &Iterator{m: m, gen: m.iterGen}
}

// HasNext reports whether GetNext would succeed.
func (it *Iterator) HasNext() bool {
	return it.gen == it.m.iterGen && it.pos < len(it.m.order)
}

// GetNext returns the next (key, value) pair in insertion order.
func (it *Iterator) GetNext() (string, value.Value, error) {
	if it.gen != it.m.iterGen {
		return "", value.Value{}, mqerr.ErrInvalidIterator
	}
	if it.pos >= len(it.m.order) {
		return "", value.Value{}, mqerr.ErrNotFound
	}
	e := it.m.order[it.pos]
	it.pos++
	return e.key, e.val, nil
}

// Equals reports whether m and o contain the same (key, value) pairs,
// irrespective of insertion order.
func (m *Map) Equals(o *Map) bool {
	if m.NumKeys() != o.NumKeys() {
		return false
	}
	for _, e := range m.order {
		ov, err := o.Get(e.key)
		if err != nil || !e.val.Equals(ov) {
			return false
		}
	}
	return true
}

// String renders m as "prefix key -> value\n" lines in insertion order.
func (m *Map) String(linePrefix string) string {
	var sb strings.Builder
	for _, e := range m.order {
		sb.WriteString(linePrefix)
		sb.WriteString(e.key)
		sb.WriteString(" -> ")
		sb.WriteString(e.val.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Keys returns the map's keys in insertion order.
func (m *Map) Keys() []string {
	out := make([]string, len(m.order))
	for i, e := range m.order {
		out[i] = e.key
	}
	return out
}
