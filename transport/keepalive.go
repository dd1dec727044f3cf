/*************************************************************************
 * Copyright 2024 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package transport

import (
	"crypto/tls"
	"net"
	"time"
)

const defaultKeepAlivePeriod = 2 * time.Second

// enableKeepAlive turns on TCP keepalive for c, unwrapping a *tls.Conn
// to reach its underlying *net.TCPConn. A period <= 0 uses
// defaultKeepAlivePeriod. A broker connection is long-lived and often
// idle between packets, so a dead peer needs the keepalive probe to
// surface ConnectionClosed rather than hanging a pending Read forever.
func enableKeepAlive(c net.Conn, period time.Duration) {
	if c == nil {
		return
	}
	if period <= 0 {
		period = defaultKeepAlivePeriod
	}
	if tlsConn, ok := c.(*tls.Conn); ok {
		c = tlsConn.NetConn()
	}
	if tc, ok := c.(*net.TCPConn); ok {
		tc.SetKeepAlive(true)
		tc.SetKeepAlivePeriod(period)
	}
}
