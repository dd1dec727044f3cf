/*************************************************************************
 * Copyright 2024 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package transport

import (
	"net"
	"sync/atomic"
	"time"

	"github.com/gravwell/mqwire/mqerr"
	"github.com/gravwell/mqwire/netid"
)

// PipeTransport is an in-memory Transport backed by net.Pipe, used by
// tests that exercise packet framing or the read/write state machines
// without a real socket.
type PipeTransport struct {
	conn   net.Conn
	ip     netid.IPAddress
	port   uint32
	closed atomic.Bool
}

// NewPipeTransport wraps one end of a net.Pipe with a synthetic local
// address, since net.Pipe connections have no real TCPAddr to report.
func NewPipeTransport(conn net.Conn, ip netid.IPAddress, port uint32) *PipeTransport {
	return &PipeTransport{conn: conn, ip: ip, port: port}
}

// NewPipe returns a connected pair of PipeTransports, analogous to a
// client and the broker's accepted peer of one TCP connection.
func NewPipe(clientIP netid.IPAddress, clientPort uint32, serverIP netid.IPAddress, serverPort uint32) (*PipeTransport, *PipeTransport) {
	a, b := net.Pipe()
	return NewPipeTransport(a, clientIP, clientPort), NewPipeTransport(b, serverIP, serverPort)
}

func (t *PipeTransport) Read(buf []byte, timeout time.Duration) (int, error) {
	if t.closed.Load() {
		return 0, mqerr.ErrConnectionClosed
	}
	if err := setDeadline(t.conn, timeout); err != nil {
		return 0, err
	}
	total := 0
	for total < len(buf) {
		n, err := t.conn.Read(buf[total:])
		total += n
		if err != nil {
			if t.closed.Load() {
				return total, mqerr.ErrConnectionClosed
			}
			if isTimeout(err) {
				return total, mqerr.ErrTimeoutExpired
			}
			if n == 0 && total == 0 {
				return 0, mqerr.ErrConnectionClosed
			}
			return total, err
		}
		if n == 0 {
			return total, mqerr.ErrConnectionClosed
		}
	}
	return total, nil
}

func (t *PipeTransport) Write(buf []byte, timeout time.Duration) (int, error) {
	if t.closed.Load() {
		return 0, mqerr.ErrConnectionClosed
	}
	if err := setDeadline(t.conn, timeout); err != nil {
		return 0, err
	}
	total := 0
	for total < len(buf) {
		n, err := t.conn.Write(buf[total:])
		total += n
		if err != nil {
			if t.closed.Load() {
				return total, mqerr.ErrConnectionClosed
			}
			if isTimeout(err) {
				return total, mqerr.ErrTimeoutExpired
			}
			return total, err
		}
	}
	return total, nil
}

func (t *PipeTransport) Shutdown() error {
	t.closed.Store(true)
	return t.conn.SetDeadline(time.Now())
}

func (t *PipeTransport) Close() error {
	t.closed.Store(true)
	return t.conn.Close()
}

func (t *PipeTransport) LocalPort() uint32       { return t.port }
func (t *PipeTransport) LocalIP() netid.IPAddress { return t.ip }
func (t *PipeTransport) IsClosed() bool           { return t.closed.Load() }
