/*************************************************************************
 * Copyright 2024 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

// Package netid implements the two addressing value types the wire embeds
// in every packet: a canonical 16-byte IPAddress and the SysMessageID that
// uniquely names a produced packet.
package netid

import (
	"fmt"
	"net"

	"github.com/gravwell/mqwire/iostream"
)

// AddrTag classifies the canonical byte layout of an IPAddress.
type AddrTag uint8

const (
	Unknown AddrTag = iota
	IPv4Mapped
	IPv6
	IPv4Mac
)

// ipv4MacMarker is the 4-byte prefix that flags the IPv4Mac layout.
var ipv4MacMarker = [4]byte{0xFF, 0x00, 0x00, 0x00}

// IPAddress stores 16 bytes canonically, big-endian on the wire, and
// classifies its layout on every assignment: IPv4-mapped IPv6
// (0x00*10,0xFF,0xFF,ipv4), IPv4Mac (0xFF,0,0,0 marker + 6 MAC bytes + 4
// IPv4 bytes + 2 zero pad bytes), or plain IPv6.
type IPAddress struct {
	bytes [16]byte
	tag   AddrTag
}

func classify(b [16]byte) AddrTag {
	if b[0] == ipv4MacMarker[0] && b[1] == ipv4MacMarker[1] && b[2] == ipv4MacMarker[2] && b[3] == ipv4MacMarker[3] {
		return IPv4Mac
	}
	isV4Mapped := true
	for i := 0; i < 10; i++ {
		if b[i] != 0 {
			isV4Mapped = false
			break
		}
	}
	if isV4Mapped && b[10] == 0xFF && b[11] == 0xFF {
		return IPv4Mapped
	}
	return IPv6
}

// FromBytes builds an IPAddress from 16 raw canonical bytes, as read
// directly off the wire.
func FromBytes(b [16]byte) IPAddress {
	return IPAddress{bytes: b, tag: classify(b)}
}

// FromIPv4 builds an IPv4-mapped IPAddress from four octets.
func FromIPv4(a, b, c, d byte) IPAddress {
	var buf [16]byte
	buf[10], buf[11] = 0xFF, 0xFF
	buf[12], buf[13], buf[14], buf[15] = a, b, c, d
	return IPAddress{bytes: buf, tag: IPv4Mapped}
}

// FromIPv4Mac builds an IPv4Mac IPAddress: marker + 6-byte MAC + 4-byte
// IPv4 + 2 zero pad bytes.
func FromIPv4Mac(mac [6]byte, a, b, c, d byte) IPAddress {
	var buf [16]byte
	copy(buf[0:4], ipv4MacMarker[:])
	copy(buf[4:10], mac[:])
	buf[10], buf[11], buf[12], buf[13] = a, b, c, d
	return IPAddress{bytes: buf, tag: IPv4Mac}
}

// FromIPv6 builds a plain IPv6 IPAddress from 16 raw bytes. If the bytes
// happen to match the IPv4-mapped or IPv4Mac layout, the resulting tag
// reflects that layout rather than IPv6, since classification is purely a
// function of the byte pattern.
func FromIPv6(b [16]byte) IPAddress {
	return FromBytes(b)
}

// FromNetIP builds a canonical IPAddress from a standard library net.IP,
// classifying IPv4 addresses as IPv4Mapped.
func FromNetIP(ip net.IP) IPAddress {
	if v4 := ip.To4(); v4 != nil {
		return FromIPv4(v4[0], v4[1], v4[2], v4[3])
	}
	var buf [16]byte
	copy(buf[:], ip.To16())
	return FromBytes(buf)
}

// Tag reports the address's classified layout.
func (a IPAddress) Tag() AddrTag { return a.tag }

// Bytes returns the 16 canonical bytes, the address's wire form.
func (a IPAddress) Bytes() [16]byte { return a.bytes }

// AsV4U32 returns the address's IPv4 portion packed into a uint32, failing
// unless the tag is IPv4Mapped or IPv4Mac.
func (a IPAddress) AsV4U32() (uint32, bool) {
	switch a.tag {
	case IPv4Mapped:
		return uint32(a.bytes[12])<<24 | uint32(a.bytes[13])<<16 | uint32(a.bytes[14])<<8 | uint32(a.bytes[15]), true
	case IPv4Mac:
		return uint32(a.bytes[10])<<24 | uint32(a.bytes[11])<<16 | uint32(a.bytes[12])<<8 | uint32(a.bytes[13]), true
	default:
		return 0, false
	}
}

// RawV6Bytes returns the 16 raw bytes regardless of tag, the same slice
// Bytes returns; provided for symmetry with the source accessor names.
func (a IPAddress) RawV6Bytes() [16]byte { return a.bytes }

// Equals reports whether a and o have identical canonical bytes.
func (a IPAddress) Equals(o IPAddress) bool { return a.bytes == o.bytes }

// String renders the address's textual form per its tag: dotted-quad for
// IPv4Mapped, dotted-quad with a parenthesized MAC for IPv4Mac, and
// colon-hex groups for IPv6.
func (a IPAddress) String() string {
	switch a.tag {
	case IPv4Mapped:
		return fmt.Sprintf("%d.%d.%d.%d", a.bytes[12], a.bytes[13], a.bytes[14], a.bytes[15])
	case IPv4Mac:
		return fmt.Sprintf("%d.%d.%d.%d(%02x:%02x:%02x:%02x:%02x:%02x)",
			a.bytes[10], a.bytes[11], a.bytes[12], a.bytes[13],
			a.bytes[4], a.bytes[5], a.bytes[6], a.bytes[7], a.bytes[8], a.bytes[9])
	default:
		return fmt.Sprintf("%x:%x:%x:%x:%x:%x:%x:%x",
			uint16(a.bytes[0])<<8|uint16(a.bytes[1]),
			uint16(a.bytes[2])<<8|uint16(a.bytes[3]),
			uint16(a.bytes[4])<<8|uint16(a.bytes[5]),
			uint16(a.bytes[6])<<8|uint16(a.bytes[7]),
			uint16(a.bytes[8])<<8|uint16(a.bytes[9]),
			uint16(a.bytes[10])<<8|uint16(a.bytes[11]),
			uint16(a.bytes[12])<<8|uint16(a.bytes[13]),
			uint16(a.bytes[14])<<8|uint16(a.bytes[15]))
	}
}

// ReadFrom decodes the 16-byte wire form of an IPAddress from r.
func ReadFrom(r iostream.Reader) (IPAddress, error) {
	var buf [16]byte
	if err := r.ReadFull(buf[:]); err != nil {
		return IPAddress{}, err
	}
	return FromBytes(buf), nil
}

// WriteTo encodes a's 16-byte wire form to w.
func (a IPAddress) WriteTo(w iostream.Writer) error {
	return w.WriteBytes(a.bytes[:])
}
