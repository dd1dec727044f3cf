/*************************************************************************
 * Copyright 2024 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

// Package packet implements the wire packet: its fixed 72-byte header, the
// sparse ordered variable-header table, the embedded property map, and the
// read/write state machines that move a packet across a transport.
package packet

import (
	"github.com/gravwell/mqwire/netid"
)

// Magic identifies a well-formed packet header. The numeric value is this
// implementation's own choice (ASCII "JMSP"); it has no meaning to a peer
// beyond matching on every packet this core emits and parses.
const Magic uint32 = 0x4A4D5350

// Version is the only wire version this core speaks.
const Version uint16 = 1

// FixedHeaderSize is the byte length of the packet's fixed header.
const FixedHeaderSize = 72

// Type is the packet's u16 type code. Its concrete values belong to the
// JMS semantic layer above this core; the core only preserves whatever
// value it reads back out unchanged.
type Type uint16

// TypeInvalid is the sentinel the core uses for a packet built without an
// explicit type assigned yet.
const TypeInvalid Type = 0

// Flag is one bit of the header's bitFlags field.
type Flag uint16

const (
	FlagIsQueue Flag = 1 << iota
	FlagRedelivered
	FlagPersistent
	FlagSelectorsProcessed
	FlagSendAck
	FlagLastMessage
	FlagFlowPaused
	FlagPartOfTransaction
	FlagConsumerFlowPaused
	FlagServerPacket
)

// Header holds every field of the packet's fixed 72-byte header plus the
// derived total size used during the read/write state machines. PacketSize
// is recomputed on Write and should not be trusted until then.
type Header struct {
	Type             Type
	PacketSize       uint32
	Expiration       uint64
	ID               netid.SysMessageID
	PropertiesOffset uint32
	PropertiesSize   uint32
	Priority         uint8
	Encryption       uint8
	BitFlags         uint16
	ConsumerID       uint64
}

// HasFlag reports whether f is set in h's BitFlags.
func (h Header) HasFlag(f Flag) bool { return h.BitFlags&uint16(f) != 0 }

// SetFlag sets or clears f in h's BitFlags.
func (h *Header) SetFlag(f Flag, v bool) {
	if v {
		h.BitFlags |= uint16(f)
	} else {
		h.BitFlags &^= uint16(f)
	}
}

// NewHeader returns a Header with Priority defaulted to 4, matching the
// wire's documented default.
func NewHeader() Header {
	return Header{Priority: 4}
}
