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
	"testing"
	"time"

	"github.com/gravwell/mqwire/mqerr"
)

func listenLocal(t *testing.T) (net.Listener, uint16) {
	t.Helper()
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen failed: %v", err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	return ln, uint16(port)
}

func TestDialTCPRoundTrip(t *testing.T) {
	ln, port := listenLocal(t)
	defer ln.Close()

	serverDone := make(chan struct{})
	go func() {
		defer close(serverDone)
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		buf := make([]byte, 5)
		if _, err := conn.Read(buf); err != nil {
			return
		}
		conn.Write(buf)
	}()

	tr, err := DialTCP("127.0.0.1", port, false, time.Second)
	if err != nil {
		t.Fatalf("DialTCP failed: %v", err)
	}
	defer tr.Close()

	if _, err := tr.Write([]byte("hello"), time.Second); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	buf := make([]byte, 5)
	n, err := tr.Read(buf, time.Second)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if string(buf[:n]) != "hello" {
		t.Fatalf("unexpected echo: %q", buf[:n])
	}
	<-serverDone
}

func TestDialTCPConnectFailureWrongPort(t *testing.T) {
	ln, port := listenLocal(t)
	ln.Close() // free the port so nothing is listening on it

	if _, err := DialTCP("127.0.0.1", port, false, 200*time.Millisecond); err == nil {
		t.Fatal("expected connection to a closed port to fail")
	}
}

func TestTCPReadAfterServerCloseReportsConnectionClosed(t *testing.T) {
	ln, port := listenLocal(t)
	defer ln.Close()

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		conn.Close()
	}()

	tr, err := DialTCP("127.0.0.1", port, false, time.Second)
	if err != nil {
		t.Fatalf("DialTCP failed: %v", err)
	}
	defer tr.Close()

	buf := make([]byte, 4)
	_, err = tr.Read(buf, time.Second)
	if err != mqerr.ErrConnectionClosed {
		t.Fatalf("expected ErrConnectionClosed, got %v", err)
	}
}

func TestTCPLocalPortNonZero(t *testing.T) {
	ln, port := listenLocal(t)
	defer ln.Close()
	go func() {
		conn, err := ln.Accept()
		if err == nil {
			defer conn.Close()
			buf := make([]byte, 1)
			conn.Read(buf)
		}
	}()

	tr, err := DialTCP("127.0.0.1", port, false, time.Second)
	if err != nil {
		t.Fatalf("DialTCP failed: %v", err)
	}
	defer tr.Close()
	if tr.LocalPort() == 0 {
		t.Fatal("expected a non-zero local port")
	}
	if tr.LocalIP().String() == "" {
		t.Fatal("expected a non-empty local IP")
	}
	_, _ = tr.Write([]byte("x"), time.Second)
}
