/*************************************************************************
 * Copyright 2024 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package mqlog

import (
	"errors"
	"fmt"
	"io"
	"net"
	"runtime"
	"time"

	"github.com/crewjam/rfc5424"
	"github.com/shirou/gopsutil/v4/host"
)

// KV builds one structured-data parameter from a name and an arbitrary
// value, string-formatting anything that isn't already a string.
func KV(name string, value interface{}) (r rfc5424.SDParam) {
	r.Name = name
	if s, ok := value.(string); ok {
		r.Value = s
	} else {
		r.Value = fmt.Sprintf("%v", value)
	}
	return
}

// KVErr is a shorthand for KV("error", err).
func KVErr(err error) rfc5424.SDParam {
	return KV("error", err)
}

// PrintOSInfo writes a one-line host identification banner, useful in
// connection diagnostics when reporting a broker handshake failure.
func PrintOSInfo(wtr io.Writer) {
	if info, err := host.Info(); err == nil {
		fmt.Fprintf(wtr, "OS:\t\t%s %s [%s] (%s %s)\n", runtime.GOOS, runtime.GOARCH, info.KernelVersion, info.Platform, info.PlatformVersion)
	} else {
		fmt.Fprintf(wtr, "OS:\t\tERROR %v\n", err)
	}
}

// udpRelay forwards every logged record to a UDP syslog listener.
type udpRelay struct {
	conn net.PacketConn
	addr *net.UDPAddr
}

func (r *udpRelay) WriteLog(_ time.Time, b []byte) (err error) {
	if len(b) == 0 {
		return nil
	}
	_, err = r.conn.WriteTo(b, r.addr)
	return
}

func (r *udpRelay) Close() error {
	if r == nil || r.conn == nil {
		return errors.New("mqlog: relay not open")
	}
	return r.conn.Close()
}

// NewUdpRelay opens a UDP socket to tgt and returns a Relay suitable
// for Logger.AddRelay.
func NewUdpRelay(tgt string) (*udpRelay, error) {
	addr, err := net.ResolveUDPAddr("udp", tgt)
	if err != nil {
		return nil, err
	}
	conn, err := net.ListenPacket("udp", ":0")
	if err != nil {
		return nil, err
	}
	return &udpRelay{conn: conn, addr: addr}, nil
}

// NewUDPLogger returns a Logger whose sole sink is a UDP relay to tgt.
func NewUDPLogger(tgt string) (*Logger, error) {
	relay, err := NewUdpRelay(tgt)
	if err != nil {
		return nil, err
	}
	l := &Logger{lvl: INFO, hot: true, rls: []Relay{relay}}
	l.guessHostnameAppname()
	return l, nil
}
