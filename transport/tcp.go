/*************************************************************************
 * Copyright 2024 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package transport

import (
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gravwell/mqwire/mqerr"
	"github.com/gravwell/mqwire/netid"
)

// TCPTransport is a plain, unencrypted TCP Transport. TCP_NODELAY is
// enabled on connect, matching the low-latency expectations of a request
// response wire protocol that never batches small packets.
type TCPTransport struct {
	mtx    sync.Mutex
	conn   *net.TCPConn
	closed atomic.Bool
}

// DialTCP connects to host:port, preferring IPv6 resolution when useIPv6
// is set (falling back to IPv4 if the IPv6 dial fails), and returns a
// ready TCPTransport. Without useIPv6 only IPv4 is tried.
func DialTCP(host string, port uint16, useIPv6 bool, connectTimeout time.Duration) (*TCPTransport, error) {
	network := "tcp4"
	if useIPv6 {
		network = "tcp6"
	}
	d := net.Dialer{Timeout: connectTimeout}
	addr := net.JoinHostPort(host, fmt.Sprintf("%d", port))
	conn, err := d.Dial(network, addr)
	if err != nil && useIPv6 {
		conn, err = d.Dial("tcp4", addr)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", mqerr.ErrSocketConnectFailed, err)
	}
	tcpConn, ok := conn.(*net.TCPConn)
	if !ok {
		conn.Close()
		return nil, fmt.Errorf("%w: dial did not return a TCP connection", mqerr.ErrSocketConnectFailed)
	}
	if err := tcpConn.SetNoDelay(true); err != nil {
		tcpConn.Close()
		return nil, fmt.Errorf("%w: %v", mqerr.ErrSocketConnectFailed, err)
	}
	enableKeepAlive(tcpConn, 0)
	return &TCPTransport{conn: tcpConn}, nil
}

// NewTCPTransport wraps an already-connected TCP connection, for callers
// that performed their own dial (e.g. the port mapper's follow-on JMS
// connection).
func NewTCPTransport(conn *net.TCPConn) *TCPTransport {
	return &TCPTransport{conn: conn}
}

func (t *TCPTransport) Read(buf []byte, timeout time.Duration) (int, error) {
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
			return total, fmt.Errorf("%w: %v", mqerr.ErrSocketReadFailed, err)
		}
		if n == 0 {
			return total, mqerr.ErrConnectionClosed
		}
	}
	return total, nil
}

func (t *TCPTransport) Write(buf []byte, timeout time.Duration) (int, error) {
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
			return total, fmt.Errorf("%w: %v", mqerr.ErrSocketWriteFailed, err)
		}
	}
	return total, nil
}

func (t *TCPTransport) Shutdown() error {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	t.closed.Store(true)
	if err := t.conn.SetDeadline(time.Now()); err != nil {
		return fmt.Errorf("%w: %v", mqerr.ErrSocketShutdownFailed, err)
	}
	return nil
}

func (t *TCPTransport) Close() error {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	t.closed.Store(true)
	if err := t.conn.Close(); err != nil {
		return fmt.Errorf("%w: %v", mqerr.ErrSocketCloseFailed, err)
	}
	return nil
}

func (t *TCPTransport) LocalPort() uint32 {
	_, port := localAddrOf(t.conn)
	return port
}

func (t *TCPTransport) LocalIP() netid.IPAddress {
	ip, _ := localAddrOf(t.conn)
	return ip
}

func (t *TCPTransport) IsClosed() bool { return t.closed.Load() }

func setDeadline(conn net.Conn, timeout time.Duration) error {
	switch timeout {
	case WaitForever:
		return conn.SetDeadline(time.Time{})
	case NoWait:
		return conn.SetDeadline(time.Now())
	default:
		return conn.SetDeadline(time.Now().Add(timeout))
	}
}

func isTimeout(err error) bool {
	ne, ok := err.(net.Error)
	return ok && ne.Timeout()
}
