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
)

// Variable-header ids. These numeric values are internal to this
// implementation; the wire protocol this core speaks to requires a fixed,
// stable numbering, and this is the one this implementation has chosen to
// never renumber going forward.
type headerID uint16

const (
	idHeaderTerminator headerID = 0
	idMessageID        headerID = 1
	idCorrelationID    headerID = 2
	idReplyTo          headerID = 3
	idReplyToClass     headerID = 4
	idMessageType      headerID = 5
	idDestination      headerID = 6
	idDestinationClass headerID = 7
	idTransactionID    headerID = 8
	idProducerID       headerID = 9
	idDeliveryTime     headerID = 10
	idDeliveryCount    headerID = 11
)

// VarHeaders is the sparse, ordered set of optional variable-header
// fields. Empty strings and nil pointers mean "absent" and are omitted
// from the wire entirely; only populated fields are written, in the fixed
// order below.
type VarHeaders struct {
	MessageID        string
	CorrelationID    string
	ReplyTo          string
	ReplyToClass     string
	MessageType      string
	Destination      string
	DestinationClass string
	TransactionID    *uint64
	ProducerID       *uint64 // conventionally populated only when the packet carries ConsumerFlowPaused semantics
	DeliveryTime     *uint64
	DeliveryCount    *uint32
}

// every record on the wire is (u16 id, u16 length, length bytes of
// payload): for string fields the payload is the field's raw UTF-8 bytes;
// for the four typed slots it is the field's fixed-width big-endian
// encoding, with the length redundant since the id already determines it.

func writeRecord(w iostream.Writer, id headerID, payload []byte) error {
	if err := w.WriteU16(uint16(id)); err != nil {
		return err
	}
	if err := w.WriteU16(uint16(len(payload))); err != nil {
		return err
	}
	return w.WriteBytes(payload)
}

func writeStringRecord(w iostream.Writer, id headerID, s string) error {
	return writeRecord(w, id, []byte(s))
}

func writeU64Record(w iostream.Writer, id headerID, v uint64) error {
	var buf [8]byte
	for i := 0; i < 8; i++ {
		buf[i] = byte(v >> uint(56-8*i))
	}
	return writeRecord(w, id, buf[:])
}

func writeU32Record(w iostream.Writer, id headerID, v uint32) error {
	var buf [4]byte
	for i := 0; i < 4; i++ {
		buf[i] = byte(v >> uint(24-8*i))
	}
	return writeRecord(w, id, buf[:])
}

// EncodeVarHeaders writes vh's populated fields in their fixed order,
// followed by the HEADER_TERMINATOR record and zero padding out to a
// 4-byte boundary, to w. It returns the number of bytes written.
func EncodeVarHeaders(w iostream.Writer, vh VarHeaders) (int, error) {
	cw := iostream.NewByteWriter(64)
	if vh.MessageID != "" {
		if err := writeStringRecord(cw, idMessageID, vh.MessageID); err != nil {
			return 0, err
		}
	}
	if vh.CorrelationID != "" {
		if err := writeStringRecord(cw, idCorrelationID, vh.CorrelationID); err != nil {
			return 0, err
		}
	}
	if vh.ReplyTo != "" {
		if err := writeStringRecord(cw, idReplyTo, vh.ReplyTo); err != nil {
			return 0, err
		}
	}
	if vh.ReplyToClass != "" {
		if err := writeStringRecord(cw, idReplyToClass, vh.ReplyToClass); err != nil {
			return 0, err
		}
	}
	if vh.MessageType != "" {
		if err := writeStringRecord(cw, idMessageType, vh.MessageType); err != nil {
			return 0, err
		}
	}
	if vh.Destination != "" {
		if err := writeStringRecord(cw, idDestination, vh.Destination); err != nil {
			return 0, err
		}
	}
	if vh.DestinationClass != "" {
		if err := writeStringRecord(cw, idDestinationClass, vh.DestinationClass); err != nil {
			return 0, err
		}
	}
	if vh.TransactionID != nil {
		if err := writeU64Record(cw, idTransactionID, *vh.TransactionID); err != nil {
			return 0, err
		}
	}
	if vh.ProducerID != nil {
		if err := writeU64Record(cw, idProducerID, *vh.ProducerID); err != nil {
			return 0, err
		}
	}
	if vh.DeliveryTime != nil {
		if err := writeU64Record(cw, idDeliveryTime, *vh.DeliveryTime); err != nil {
			return 0, err
		}
	}
	if vh.DeliveryCount != nil {
		if err := writeU32Record(cw, idDeliveryCount, *vh.DeliveryCount); err != nil {
			return 0, err
		}
	}
	if err := cw.WriteU16(uint16(idHeaderTerminator)); err != nil {
		return 0, err
	}
	for cw.Len()%4 != 0 {
		if err := cw.WriteU8(0); err != nil {
			return 0, err
		}
	}
	if err := w.WriteBytes(cw.Bytes()); err != nil {
		return 0, err
	}
	return cw.Len(), nil
}

// DecodeVarHeaders reads records from r until the HEADER_TERMINATOR,
// consuming and ignoring any unrecognized id's payload, then consumes the
// zero padding out to a 4-byte boundary relative to the section start.
func DecodeVarHeaders(r iostream.Reader) (VarHeaders, error) {
	var vh VarHeaders
	consumed := 0
	for {
		id, err := r.ReadU16()
		if err != nil {
			return vh, err
		}
		consumed += 2
		if headerID(id) == idHeaderTerminator {
			break
		}
		length, err := r.ReadU16()
		if err != nil {
			return vh, err
		}
		consumed += 2
		payload, err := iostream.ReadCounted(r, uint64(length))
		if err != nil {
			return vh, err
		}
		consumed += int(length)
		if err := applyRecord(&vh, headerID(id), payload); err != nil {
			return vh, err
		}
	}
	for consumed%4 != 0 {
		if _, err := r.ReadU8(); err != nil {
			return vh, err
		}
		consumed++
	}
	return vh, nil
}

func applyRecord(vh *VarHeaders, id headerID, payload []byte) error {
	switch id {
	case idMessageID:
		vh.MessageID = string(payload)
	case idCorrelationID:
		vh.CorrelationID = string(payload)
	case idReplyTo:
		vh.ReplyTo = string(payload)
	case idReplyToClass:
		vh.ReplyToClass = string(payload)
	case idMessageType:
		vh.MessageType = string(payload)
	case idDestination:
		vh.Destination = string(payload)
	case idDestinationClass:
		vh.DestinationClass = string(payload)
	case idTransactionID:
		v, err := decodeU64(payload)
		if err != nil {
			return err
		}
		vh.TransactionID = &v
	case idProducerID:
		v, err := decodeU64(payload)
		if err != nil {
			return err
		}
		vh.ProducerID = &v
	case idDeliveryTime:
		v, err := decodeU64(payload)
		if err != nil {
			return err
		}
		vh.DeliveryTime = &v
	case idDeliveryCount:
		v, err := decodeU32(payload)
		if err != nil {
			return err
		}
		vh.DeliveryCount = &v
	default:
		// unrecognized id: payload already consumed, ignore it
	}
	return nil
}

func decodeU64(b []byte) (uint64, error) {
	if len(b) != 8 {
		return 0, fmt.Errorf("%w: expected 8-byte field, got %d", mqerr.ErrInvalidPacketField, len(b))
	}
	var v uint64
	for _, c := range b {
		v = v<<8 | uint64(c)
	}
	return v, nil
}

func decodeU32(b []byte) (uint32, error) {
	if len(b) != 4 {
		return 0, fmt.Errorf("%w: expected 4-byte field, got %d", mqerr.ErrInvalidPacketField, len(b))
	}
	var v uint32
	for _, c := range b {
		v = v<<8 | uint32(c)
	}
	return v, nil
}
