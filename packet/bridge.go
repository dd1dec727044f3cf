/*************************************************************************
 * Copyright 2024 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package packet

import (
	"github.com/gravwell/mqwire/mqerr"
	"github.com/gravwell/mqwire/props"
	"github.com/gravwell/mqwire/value"
)

// Fixed property names the header/property bridge uses.
const (
	HeaderPersistent     = "Persistent"
	HeaderRedelivered    = "Redelivered"
	HeaderExpiration     = "Expiration"
	HeaderDeliveryTime   = "DeliveryTime"
	HeaderPriority       = "Priority"
	HeaderTimestamp      = "Timestamp"
	HeaderMessageType    = "MessageType"
	HeaderMessageID      = "MessageID"
	HeaderCorrelationID  = "CorrelationID"
)

// GetHeaders renders p's header fields as a fresh PropertyMap, typed
// bool/long/byte/string to match the wire header's own field types.
func (p *Packet) GetHeaders() *props.Map {
	m := props.New()
	_ = m.Set(HeaderPersistent, value.NewBool(p.Header.HasFlag(FlagPersistent)))
	_ = m.Set(HeaderRedelivered, value.NewBool(p.Header.HasFlag(FlagRedelivered)))
	_ = m.Set(HeaderExpiration, value.NewI64(int64(p.Header.Expiration)))
	if p.VarHeaders.DeliveryTime != nil {
		_ = m.Set(HeaderDeliveryTime, value.NewI64(int64(*p.VarHeaders.DeliveryTime)))
	}
	_ = m.Set(HeaderPriority, value.NewI8(int8(p.Header.Priority)))
	_ = m.Set(HeaderTimestamp, value.NewI64(int64(p.Header.ID.Timestamp)))
	if p.VarHeaders.MessageType != "" {
		short, _ := value.NewStrShort(p.VarHeaders.MessageType)
		_ = m.Set(HeaderMessageType, short)
	}
	if p.VarHeaders.MessageID != "" {
		short, _ := value.NewStrShort(p.VarHeaders.MessageID)
		_ = m.Set(HeaderMessageID, short)
	}
	if p.VarHeaders.CorrelationID != "" {
		short, _ := value.NewStrShort(p.VarHeaders.CorrelationID)
		_ = m.Set(HeaderCorrelationID, short)
	}
	return m
}

// SetHeaders applies m's recognized header properties onto p's header and
// variable headers. A type mismatch on any one field is recorded but does
// not stop the remaining fields from being applied; SetHeaders returns the
// first mqerr.ErrPropertyWrongValueType it encountered, if any.
func (p *Packet) SetHeaders(m *props.Map) error {
	var firstErr error
	record := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if v, err := m.Get(HeaderPersistent); err == nil {
		if b, err := v.AsBool(); err == nil {
			p.Header.SetFlag(FlagPersistent, b)
		} else {
			record(mqerr.ErrPropertyWrongValueType)
		}
	}
	if v, err := m.Get(HeaderRedelivered); err == nil {
		if b, err := v.AsBool(); err == nil {
			p.Header.SetFlag(FlagRedelivered, b)
		} else {
			record(mqerr.ErrPropertyWrongValueType)
		}
	}
	if v, err := m.Get(HeaderExpiration); err == nil {
		if i, err := v.AsI64(); err == nil {
			p.Header.Expiration = uint64(i)
		} else {
			record(mqerr.ErrPropertyWrongValueType)
		}
	}
	if v, err := m.Get(HeaderDeliveryTime); err == nil {
		if i, err := v.AsI64(); err == nil {
			u := uint64(i)
			p.VarHeaders.DeliveryTime = &u
		} else {
			record(mqerr.ErrPropertyWrongValueType)
		}
	}
	if v, err := m.Get(HeaderPriority); err == nil {
		if i, err := v.AsI8(); err == nil {
			p.Header.Priority = uint8(i)
		} else {
			record(mqerr.ErrPropertyWrongValueType)
		}
	}
	if v, err := m.Get(HeaderMessageType); err == nil {
		p.VarHeaders.MessageType = v.AsString()
	}
	if v, err := m.Get(HeaderMessageID); err == nil {
		p.VarHeaders.MessageID = v.AsString()
	}
	if v, err := m.Get(HeaderCorrelationID); err == nil {
		p.VarHeaders.CorrelationID = v.AsString()
	}
	// Timestamp is derived from the packet's SysMessageID, stamped at
	// write time, and is not accepted as a settable property.

	return firstErr
}
