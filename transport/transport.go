/*************************************************************************
 * Copyright 2024 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

// Package transport implements the blocking, timeout-bounded byte
// transport the wire core moves packets across: a plain TCP variant and a
// TLS variant sharing the same Transport contract, plus an in-memory
// pipe-backed variant for tests.
//
// Every suspension point in this package is a net.Conn deadline rather
// than a platform poll-loop-and-cancel-IO primitive: a single blocking
// call per Read/Write, bounded by SetDeadline, replaces the
// thread-plus-poll-loop mix the protocol this core implements originally
// used.
package transport

import (
	"net"
	"time"

	"github.com/gravwell/mqwire/netid"
)

// NoWait and WaitForever are the two reserved timeout sentinels every
// Read/Write accepts. WaitForever (the time.Duration zero value) blocks
// with no deadline at all. NoWait makes the call non-blocking: the
// deadline is set to "already past", so the call returns immediately
// with whatever progress the connection could make without blocking,
// and mqerr.ErrTimeoutExpired if it could make none. Any positive
// duration is an ordinary bounded wait.
const (
	WaitForever time.Duration = 0
	NoWait      time.Duration = -1
)

// Transport is the blocking, timeout-bounded byte transport contract every
// concrete variant in this package implements.
type Transport interface {
	// Read blocks until len(buf) bytes have been read, timeout elapses, or
	// the connection closes. On timeout it returns the partial count and
	// mqerr.ErrTimeoutExpired; a zero-byte read reports
	// mqerr.ErrConnectionClosed.
	Read(buf []byte, timeout time.Duration) (int, error)

	// Write blocks until all of buf has been written, timeout elapses, or
	// the connection closes. Any short write reports the partial count
	// and mqerr.ErrTimeoutExpired or mqerr.ErrSocketWriteFailed.
	Write(buf []byte, timeout time.Duration) (int, error)

	// Shutdown begins an orderly close; it may be called concurrently
	// with an in-flight Read or Write, which then return
	// mqerr.ErrConnectionClosed.
	Shutdown() error

	// Close releases the underlying connection.
	Close() error

	// LocalPort reports the transport's local TCP port.
	LocalPort() uint32

	// LocalIP reports the transport's local address.
	LocalIP() netid.IPAddress

	// IsClosed reports whether Close or Shutdown has completed.
	IsClosed() bool
}

// localAddrOf extracts the local IP and port from a net.Conn's local
// address, defaulting to the unspecified IPv4 address if the address
// can't be parsed as host:port (not expected for a connected net.Conn).
func localAddrOf(c net.Conn) (netid.IPAddress, uint32) {
	addr, ok := c.LocalAddr().(*net.TCPAddr)
	if !ok {
		return netid.FromIPv4(0, 0, 0, 0), 0
	}
	return netid.FromNetIP(addr.IP), uint32(addr.Port)
}
