/*************************************************************************
 * Copyright 2024 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

// Package seq implements the monotonically increasing, wrapping packet
// sequence counter used to stamp outgoing SysMessageIDs. The package holds
// no shared instance: each Counter is independent, and packet.WritePacket
// draws from the Counter named in its WriteOptions.
package seq

import "sync/atomic"

// Min and Max bound the counter's range. On reaching Max the next value
// wraps back to Min rather than overflowing into negative or zero-adjacent
// territory, matching the wire's expectation of a dense, always-positive
// sequence space.
const (
	Min uint32 = 1
	Max uint32 = 0xFFFFFFFE
)

// Counter is a concurrency-safe wrapping sequence generator. The zero value
// is ready for use and behaves exactly like New(): its first Next() returns
// Min.
type Counter struct {
	v atomic.Uint32
}

// New returns a Counter whose first Next() call returns Min.
func New() *Counter {
	c := &Counter{}
	c.v.Store(Min - 1)
	return c
}

// Next returns the next sequence value, wrapping from Max back to Min.
// Safe for concurrent use by multiple goroutines.
func (c *Counter) Next() uint32 {
	for {
		cur := c.v.Load()
		next := cur + 1
		if cur == Max || next < Min || next > Max {
			next = Min
		}
		if c.v.CompareAndSwap(cur, next) {
			return next
		}
	}
}
