/*************************************************************************
 * Copyright 2024 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package seq

import (
	"sync"
	"testing"
)

func TestNextStartsAtMin(t *testing.T) {
	c := New()
	if v := c.Next(); v != Min {
		t.Fatalf("first Next() = %d, want %d", v, Min)
	}
	if v := c.Next(); v != Min+1 {
		t.Fatalf("second Next() = %d, want %d", v, Min+1)
	}
}

func TestWrapsAtMax(t *testing.T) {
	c := &Counter{}
	c.v.Store(Max)
	if v := c.Next(); v != Min {
		t.Fatalf("Next() after Max = %d, want wrap to %d", v, Min)
	}
}

func TestConcurrentNextUnique(t *testing.T) {
	c := New()
	const n = 2000
	seen := make([]uint32, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			seen[i] = c.Next()
		}(i)
	}
	wg.Wait()
	uniq := make(map[uint32]struct{}, n)
	for _, v := range seen {
		uniq[v] = struct{}{}
	}
	if len(uniq) != n {
		t.Fatalf("expected %d unique sequence values, got %d", n, len(uniq))
	}
}
