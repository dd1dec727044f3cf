/*************************************************************************
 * Copyright 2024 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package packet

import (
	"fmt"

	"github.com/gravwell/mqwire/iostream"
	"github.com/gravwell/mqwire/mqerr"
	"github.com/gravwell/mqwire/netid"
	"github.com/gravwell/mqwire/props"
	"github.com/gravwell/mqwire/seq"
)

// Packet is one complete unit moved across the wire: a fixed header, the
// sparse variable-header table, an embedded property map, and an opaque
// body.
type Packet struct {
	Header     Header
	VarHeaders VarHeaders
	Properties *props.Map
	Body       []byte
}

// New returns an empty Packet with a fresh, empty property map.
func New() *Packet {
	return &Packet{Header: NewHeader(), Properties: props.New()}
}

func readFixedHeader(r iostream.Reader) (Header, error) {
	var h Header
	magic, err := r.ReadU32()
	if err != nil {
		return h, err
	}
	if magic != Magic {
		return h, mqerr.ErrBadMagic
	}
	version, err := r.ReadU16()
	if err != nil {
		return h, err
	}
	if version != Version {
		return h, mqerr.ErrUnsupportedVersion
	}
	packetType, err := r.ReadU16()
	if err != nil {
		return h, err
	}
	h.Type = Type(packetType)
	if h.PacketSize, err = r.ReadU32(); err != nil {
		return h, err
	}
	if h.Expiration, err = r.ReadU64(); err != nil {
		return h, err
	}
	if h.ID, err = netid.ReadSysMessageID(r); err != nil {
		return h, err
	}
	if h.PropertiesOffset, err = r.ReadU32(); err != nil {
		return h, err
	}
	if h.PropertiesSize, err = r.ReadU32(); err != nil {
		return h, err
	}
	if h.Priority, err = r.ReadU8(); err != nil {
		return h, err
	}
	if h.Encryption, err = r.ReadU8(); err != nil {
		return h, err
	}
	bitFlags, err := r.ReadU16()
	if err != nil {
		return h, err
	}
	h.BitFlags = bitFlags
	if h.ConsumerID, err = r.ReadU64(); err != nil {
		return h, err
	}
	if h.PacketSize < FixedHeaderSize {
		return h, fmt.Errorf("%w: packetSize %d smaller than header", mqerr.ErrInvalidPacket, h.PacketSize)
	}
	if h.PropertiesOffset < FixedHeaderSize {
		return h, fmt.Errorf("%w: propertiesOffset %d smaller than header", mqerr.ErrInvalidPacket, h.PropertiesOffset)
	}
	if uint64(h.PropertiesOffset)+uint64(h.PropertiesSize) > uint64(h.PacketSize) {
		return h, fmt.Errorf("%w: properties region exceeds packet size", mqerr.ErrInvalidPacket)
	}
	return h, nil
}

func writeFixedHeader(w iostream.Writer, h Header) error {
	if err := w.WriteU32(Magic); err != nil {
		return err
	}
	if err := w.WriteU16(Version); err != nil {
		return err
	}
	if err := w.WriteU16(uint16(h.Type)); err != nil {
		return err
	}
	if err := w.WriteU32(h.PacketSize); err != nil {
		return err
	}
	if err := w.WriteU64(h.Expiration); err != nil {
		return err
	}
	if err := h.ID.WriteTo(w); err != nil {
		return err
	}
	if err := w.WriteU32(h.PropertiesOffset); err != nil {
		return err
	}
	if err := w.WriteU32(h.PropertiesSize); err != nil {
		return err
	}
	if err := w.WriteU8(h.Priority); err != nil {
		return err
	}
	if err := w.WriteU8(h.Encryption); err != nil {
		return err
	}
	if err := w.WriteU16(h.BitFlags); err != nil {
		return err
	}
	return w.WriteU64(h.ConsumerID)
}

// ReadPacket runs the packet read state machine against r: parse and
// validate the fixed header, read the remainder of the packet into one
// owned buffer, then split it into variable headers, properties, and body
// per the offsets the header declared.
func ReadPacket(r iostream.Reader) (*Packet, error) {
	h, err := readFixedHeader(r)
	if err != nil {
		return nil, err
	}
	rest, err := iostream.ReadCounted(r, uint64(h.PacketSize)-FixedHeaderSize)
	if err != nil {
		return nil, err
	}

	p := &Packet{Header: h}
	varHeaderLen := int(h.PropertiesOffset) - FixedHeaderSize
	if varHeaderLen < 0 || varHeaderLen > len(rest) {
		return nil, fmt.Errorf("%w: variable-header region out of range", mqerr.ErrInvalidPacket)
	}
	if varHeaderLen > 0 {
		vr := iostream.NewByteReader(rest[:varHeaderLen])
		vh, err := DecodeVarHeaders(vr)
		if err != nil {
			return nil, err
		}
		p.VarHeaders = vh
	}

	propsStart := varHeaderLen
	propsEnd := propsStart + int(h.PropertiesSize)
	if propsEnd > len(rest) {
		return nil, fmt.Errorf("%w: properties region out of range", mqerr.ErrInvalidPacket)
	}
	if h.PropertiesSize > 0 {
		pr := iostream.NewByteReader(rest[propsStart:propsEnd])
		m, err := props.DecodeLegacy(pr)
		if err != nil {
			return nil, err
		}
		p.Properties = m
	} else {
		p.Properties = props.New()
	}

	p.Body = rest[propsEnd:]
	return p, nil
}

// WriteOptions carries the information the write state machine needs that
// isn't part of the Packet itself: the sequence counter every produced
// packet draws its SysMessageID from, and the transport's local address.
type WriteOptions struct {
	Seq       *seq.Counter
	LocalIP   netid.IPAddress
	LocalPort uint32
	NowMillis uint64
}

// WritePacket runs the packet write state machine against w: serialize
// variable headers and properties into a scratch buffer, stamp the
// packet's SysMessageID with the next sequence number and current
// timestamp, compute packetSize and propertiesOffset/Size, then emit the
// fixed header, the scratch buffer, and the body as three successive
// writes, in that order.
func WritePacket(w iostream.Writer, p *Packet, opts WriteOptions) error {
	scratch := iostream.NewByteWriter(128)
	varLen, err := EncodeVarHeaders(scratch, p.VarHeaders)
	if err != nil {
		return fmt.Errorf("%w: %v", mqerr.ErrPacketOutputError, err)
	}
	if p.Properties == nil {
		p.Properties = props.New()
	}
	if err := props.EncodeLegacy(scratch, p.Properties); err != nil {
		return fmt.Errorf("%w: %v", mqerr.ErrPacketOutputError, err)
	}
	propertiesSize := scratch.Len() - varLen

	p.Header.ID = netid.New(opts.NowMillis, opts.LocalIP, opts.LocalPort, opts.Seq.Next())
	p.Header.PropertiesOffset = FixedHeaderSize + uint32(varLen)
	p.Header.PropertiesSize = uint32(propertiesSize)
	p.Header.PacketSize = FixedHeaderSize + uint32(scratch.Len()) + uint32(len(p.Body))

	if err := writeFixedHeader(w, p.Header); err != nil {
		return fmt.Errorf("%w: %v", mqerr.ErrPacketOutputError, err)
	}
	if err := w.WriteBytes(scratch.Bytes()); err != nil {
		return fmt.Errorf("%w: %v", mqerr.ErrPacketOutputError, err)
	}
	if err := w.WriteBytes(p.Body); err != nil {
		return fmt.Errorf("%w: %v", mqerr.ErrPacketOutputError, err)
	}
	return nil
}
