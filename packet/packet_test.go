/*************************************************************************
 * Copyright 2024 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package packet

import (
	"bytes"
	"errors"
	"testing"

	"github.com/gravwell/mqwire/iostream"
	"github.com/gravwell/mqwire/mqerr"
	"github.com/gravwell/mqwire/netid"
	"github.com/gravwell/mqwire/props"
	"github.com/gravwell/mqwire/seq"
	"github.com/gravwell/mqwire/value"
)

func buildSample(t *testing.T) *Packet {
	t.Helper()
	p := New()
	p.Header.Type = Type(7)
	p.Header.SetFlag(FlagPersistent, true)
	p.Header.SetFlag(FlagIsQueue, true)
	p.VarHeaders.MessageID = "msg-1"
	p.VarHeaders.Destination = "orders.q"
	txn := uint64(42)
	p.VarHeaders.TransactionID = &txn
	if err := p.Properties.Set("retries", value.NewI32(3)); err != nil {
		t.Fatal(err)
	}
	p.Body = []byte("hello, broker")
	return p
}

func writeAndRead(t *testing.T, p *Packet) (*Packet, []byte) {
	t.Helper()
	buf := &bytes.Buffer{}
	w := iostream.NewTransportWriter(buf)
	opts := WriteOptions{
		Seq:       seq.New(),
		LocalIP:   netid.FromIPv4(127, 0, 0, 1),
		LocalPort: 7676,
		NowMillis: 1700000000000,
	}
	if err := WritePacket(w, p, opts); err != nil {
		t.Fatalf("WritePacket failed: %v", err)
	}
	r := iostream.NewTransportReader(bytes.NewReader(buf.Bytes()))
	got, err := ReadPacket(r)
	if err != nil {
		t.Fatalf("ReadPacket failed: %v", err)
	}
	return got, buf.Bytes()
}

func TestPacketRoundTrip(t *testing.T) {
	p := buildSample(t)
	got, raw := writeAndRead(t, p)

	if got.Header.Type != p.Header.Type {
		t.Fatalf("type mismatch: %v vs %v", got.Header.Type, p.Header.Type)
	}
	if !got.Header.HasFlag(FlagPersistent) || !got.Header.HasFlag(FlagIsQueue) {
		t.Fatal("flags not preserved")
	}
	if got.VarHeaders.MessageID != "msg-1" || got.VarHeaders.Destination != "orders.q" {
		t.Fatalf("variable headers not preserved: %+v", got.VarHeaders)
	}
	if got.VarHeaders.TransactionID == nil || *got.VarHeaders.TransactionID != 42 {
		t.Fatalf("transaction id not preserved: %+v", got.VarHeaders.TransactionID)
	}
	if !bytes.Equal(got.Body, p.Body) {
		t.Fatalf("body mismatch: %q vs %q", got.Body, p.Body)
	}
	v, err := got.Properties.Get("retries")
	if err != nil || !v.Equals(value.NewI32(3)) {
		t.Fatalf("property not preserved: %v %v", v, err)
	}
	if int(got.Header.PacketSize) != len(raw) {
		t.Fatalf("packetSize %d does not match actual bytes written %d", got.Header.PacketSize, len(raw))
	}
}

func TestPacketSequenceIncreasesEachWrite(t *testing.T) {
	p1 := buildSample(t)
	p2 := buildSample(t)
	counter := seq.New()
	opts := func() WriteOptions {
		return WriteOptions{Seq: counter, LocalIP: netid.FromIPv4(10, 0, 0, 1), LocalPort: 1, NowMillis: 1}
	}
	buf1 := &bytes.Buffer{}
	if err := WritePacket(iostream.NewTransportWriter(buf1), p1, opts()); err != nil {
		t.Fatal(err)
	}
	buf2 := &bytes.Buffer{}
	if err := WritePacket(iostream.NewTransportWriter(buf2), p2, opts()); err != nil {
		t.Fatal(err)
	}
	if p2.Header.ID.Sequence <= p1.Header.ID.Sequence {
		t.Fatalf("expected increasing sequence numbers, got %d then %d", p1.Header.ID.Sequence, p2.Header.ID.Sequence)
	}
}

func TestReadPacketBadMagic(t *testing.T) {
	buf := &bytes.Buffer{}
	w := iostream.NewTransportWriter(buf)
	_ = w.WriteU32(0xDEADBEEF)
	_ = w.WriteBytes(make([]byte, FixedHeaderSize-4))
	r := iostream.NewTransportReader(bytes.NewReader(buf.Bytes()))
	if _, err := ReadPacket(r); !errors.Is(err, mqerr.ErrBadMagic) {
		t.Fatalf("expected ErrBadMagic, got %v", err)
	}
}

func TestReadPacketPropertiesOutOfRange(t *testing.T) {
	p := buildSample(t)
	buf := &bytes.Buffer{}
	opts := WriteOptions{Seq: seq.New(), LocalIP: netid.FromIPv4(1, 1, 1, 1), LocalPort: 1, NowMillis: 1}
	if err := WritePacket(iostream.NewTransportWriter(buf), p, opts); err != nil {
		t.Fatal(err)
	}
	raw := buf.Bytes()
	// Corrupt propertiesSize (bytes 56..60, see header field order) to an
	// enormous value so propertiesOffset+propertiesSize exceeds packetSize.
	raw[56], raw[57], raw[58], raw[59] = 0x7F, 0xFF, 0xFF, 0xFF
	r := iostream.NewTransportReader(bytes.NewReader(raw))
	if _, err := ReadPacket(r); !errors.Is(err, mqerr.ErrInvalidPacket) {
		t.Fatalf("expected ErrInvalidPacket, got %v", err)
	}
}

func TestHeaderPropertyBridge(t *testing.T) {
	p := buildSample(t)
	m := p.GetHeaders()
	v, err := m.Get(HeaderPersistent)
	if err != nil {
		t.Fatal(err)
	}
	if b, _ := v.AsBool(); !b {
		t.Fatal("expected Persistent true in bridged map")
	}

	p2 := New()
	if err := p2.SetHeaders(m); err != nil {
		t.Fatalf("SetHeaders: %v", err)
	}
	if !p2.Header.HasFlag(FlagPersistent) {
		t.Fatal("SetHeaders did not restore Persistent flag")
	}
}

func TestSetHeadersContinuesOnTypeMismatch(t *testing.T) {
	m := props.New()
	// Persistent is typed bool on the wire; a string here should trigger a
	// wrong-value-type error without aborting later assignments.
	badPersistent, _ := value.NewStrShort("not-a-bool")
	if err := m.Set(HeaderPersistent, badPersistent); err != nil {
		t.Fatal(err)
	}
	msgID, _ := value.NewStrShort("still-applied")
	if err := m.Set(HeaderMessageID, msgID); err != nil {
		t.Fatal(err)
	}
	p := New()
	if err := p.SetHeaders(m); err == nil {
		t.Fatal("expected a PropertyWrongValueType error")
	} else if !errors.Is(err, mqerr.ErrPropertyWrongValueType) {
		t.Fatalf("expected ErrPropertyWrongValueType, got %v", err)
	}
	// MessageID, which follows Persistent in SetHeaders, must still have
	// been applied despite the earlier mismatch.
	if p.VarHeaders.MessageID != "still-applied" {
		t.Fatalf("later field was not applied after earlier mismatch: %+v", p.VarHeaders)
	}
}
