/*************************************************************************
 * Copyright 2024 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package netid

import (
	"fmt"

	"github.com/gravwell/mqwire/iostream"
)

// SysMessageID globally identifies a produced packet: the producing
// transport's timestamp, local address, local port, and a process-wide
// sequence number. Two SysMessageIDs are equal iff all four fields match.
type SysMessageID struct {
	Timestamp uint64
	IP        IPAddress
	Port      uint32
	Sequence  uint32
}

// New builds a SysMessageID from its four fields.
func New(timestamp uint64, ip IPAddress, port, sequence uint32) SysMessageID {
	return SysMessageID{Timestamp: timestamp, IP: ip, Port: port, Sequence: sequence}
}

// Equals reports whether id and o share all four fields.
func (id SysMessageID) Equals(o SysMessageID) bool {
	return id.Timestamp == o.Timestamp && id.IP.Equals(o.IP) && id.Port == o.Port && id.Sequence == o.Sequence
}

// String renders the canonical "ID:{seq}-{ip}-{port}-{ts}" textual form.
func (id SysMessageID) String() string {
	return fmt.Sprintf("ID:%d-%s-%d-%d", id.Sequence, id.IP.String(), id.Port, id.Timestamp)
}

// WireSize is the fixed on-wire size of a SysMessageID: u64 + 16 bytes + u32 + u32.
const WireSize = 8 + 16 + 4 + 4

// ReadSysMessageID decodes a SysMessageID from r: u64 timestamp, 16-byte
// IP, u32 port, u32 sequence, all big-endian.
func ReadSysMessageID(r iostream.Reader) (SysMessageID, error) {
	ts, err := r.ReadU64()
	if err != nil {
		return SysMessageID{}, err
	}
	ip, err := ReadFrom(r)
	if err != nil {
		return SysMessageID{}, err
	}
	port, err := r.ReadU32()
	if err != nil {
		return SysMessageID{}, err
	}
	seq, err := r.ReadU32()
	if err != nil {
		return SysMessageID{}, err
	}
	return New(ts, ip, port, seq), nil
}

// WriteTo encodes id to w in the same layout ReadSysMessageID expects.
func (id SysMessageID) WriteTo(w iostream.Writer) error {
	if err := w.WriteU64(id.Timestamp); err != nil {
		return err
	}
	if err := id.IP.WriteTo(w); err != nil {
		return err
	}
	if err := w.WriteU32(id.Port); err != nil {
		return err
	}
	return w.WriteU32(id.Sequence)
}
