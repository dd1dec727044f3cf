/*************************************************************************
 * Copyright 2024 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

// Package portmapper implements the broker's line-based text discovery
// protocol: connect to the advertised port-mapper port, read its service
// table, and look up the port for a given (protocol, service type) pair.
package portmapper

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/gravwell/mqwire/mqerr"
)

// SupportedVersion is the only port-mapper protocol version this client
// understands.
const SupportedVersion = "101"

// ReadCap bounds how many bytes the client will read from the port-mapper
// socket before giving up on finding the terminator line.
const ReadCap = 2000

// Entry is one advertised service line: name, protocol, type, and port.
// Any fields beyond the first four on a service line are an optional
// bracketed property blob this client ignores.
type Entry struct {
	ServiceName string
	Protocol    string
	ServiceType string
	Port        uint16
}

// Table is the broker's full port-mapper response: its version line plus
// every service entry.
type Table struct {
	PortMapperVersion string
	BrokerInstance    string
	PacketVersion     string
	Entries           []Entry
}

// Lookup returns the first entry matching protocol and serviceType.
func (t Table) Lookup(protocol, serviceType string) (Entry, bool) {
	for _, e := range t.Entries {
		if e.Protocol == protocol && e.ServiceType == serviceType {
			return e, true
		}
	}
	return Entry{}, false
}

// Parse reads a port-mapper response from r: a version line, zero or more
// service lines, and a "." terminator line. Parsing stops at the
// terminator; anything after it is ignored.
func Parse(r io.Reader) (Table, error) {
	scanner := bufio.NewScanner(r)
	if !scanner.Scan() {
		return Table{}, fmt.Errorf("%w: empty port mapper response", mqerr.ErrPortMapperInvalidInput)
	}
	first := strings.Fields(scanner.Text())
	if len(first) < 3 {
		return Table{}, fmt.Errorf("%w: version line has %d fields, want >= 3", mqerr.ErrPortMapperInvalidInput, len(first))
	}
	if first[0] != SupportedVersion {
		return Table{}, fmt.Errorf("%w: got %q, want %q", mqerr.ErrPortMapperWrongVersion, first[0], SupportedVersion)
	}
	t := Table{PortMapperVersion: first[0], BrokerInstance: first[1], PacketVersion: first[2]}

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "." {
			return t, nil
		}
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 4 {
			return Table{}, fmt.Errorf("%w: service line has %d fields, want >= 4", mqerr.ErrPortMapperInvalidInput, len(fields))
		}
		port, err := strconv.ParseUint(fields[3], 10, 16)
		if err != nil {
			return Table{}, fmt.Errorf("%w: bad port %q", mqerr.ErrPortMapperInvalidInput, fields[3])
		}
		t.Entries = append(t.Entries, Entry{
			ServiceName: fields[0],
			Protocol:    fields[1],
			ServiceType: fields[2],
			Port:        uint16(port),
		})
	}
	if err := scanner.Err(); err != nil {
		return Table{}, fmt.Errorf("%w: %v", mqerr.ErrPortMapperError, err)
	}
	return Table{}, fmt.Errorf("%w: missing terminator", mqerr.ErrPortMapperInvalidInput)
}

// Discover opens a TCP connection to host:port, optionally writes the
// version handshake line, reads up to ReadCap bytes within timeout, and
// parses the result. A failure to write the handshake line is tolerated:
// the broker may already have responded and closed its side.
func Discover(host string, port uint16, timeout time.Duration) (Table, error) {
	conn, err := net.DialTimeout("tcp", net.JoinHostPort(host, strconv.Itoa(int(port))), timeout)
	if err != nil {
		return Table{}, fmt.Errorf("%w: %v", mqerr.ErrSocketConnectFailed, err)
	}
	defer conn.Close()

	if err := conn.SetWriteDeadline(time.Now().Add(timeout)); err == nil {
		_, _ = conn.Write([]byte(SupportedVersion + "\n"))
	}

	if err := conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return Table{}, fmt.Errorf("%w: %v", mqerr.ErrTimeoutExpired, err)
	}
	buf := make([]byte, ReadCap)
	n, err := io.ReadFull(conn, buf)
	if err != nil && err != io.ErrUnexpectedEOF && n == 0 {
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			return Table{}, fmt.Errorf("%w: %v", mqerr.ErrTimeoutExpired, err)
		}
		if err != io.EOF {
			return Table{}, fmt.Errorf("%w: %v", mqerr.ErrSocketReadFailed, err)
		}
	}
	return Parse(bytes.NewReader(buf[:n]))
}
