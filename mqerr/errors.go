/*************************************************************************
 * Copyright 2024 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

// Package mqerr defines the sentinel error values shared across the wire
// core. Every abstract error kind named by the protocol design gets exactly
// one sentinel here so callers can test for it with errors.Is, and so the
// same failure is never spelled two different ways in two packages.
package mqerr

import "errors"

// General.
var (
	ErrInvalidArgument = errors.New("mqwire: invalid argument")
	ErrOutOfMemory      = errors.New("mqwire: out of memory")
)

// Protocol / decode errors (packet and legacy-codec framing).
var (
	ErrBadMagic               = errors.New("mqwire: bad magic number")
	ErrUnsupportedVersion     = errors.New("mqwire: unsupported protocol version")
	ErrInvalidPacket          = errors.New("mqwire: invalid packet")
	ErrInvalidPacketField     = errors.New("mqwire: invalid packet field")
	ErrUnrecognizedPacketType = errors.New("mqwire: unrecognized packet type")

	ErrSerializeBadClassUID     = errors.New("mqwire: serialize bad class uid")
	ErrSerializeBadMagicNumber  = errors.New("mqwire: serialize bad magic number")
	ErrSerializeBadVersion      = errors.New("mqwire: serialize bad version")
	ErrSerializeUnexpectedBytes = errors.New("mqwire: serialize unexpected bytes")
	ErrSerializeUnrecognizedClass = errors.New("mqwire: serialize unrecognized class")
	ErrSerializeBadSuperClass   = errors.New("mqwire: serialize bad superclass")
	ErrSerializeBadHandle       = errors.New("mqwire: serialize bad handle")
	ErrSerializeStringTooBig    = errors.New("mqwire: serialize string too big")
	ErrSerializeStringContainsNull = errors.New("mqwire: serialize string contains null")
)

// Value-space errors.
var (
	ErrPropertyWrongValueType    = errors.New("mqwire: property has the wrong value type")
	ErrInvalidTypeConversion     = errors.New("mqwire: invalid type conversion")
	ErrTypeConversionOutOfBounds = errors.New("mqwire: type conversion out of bounds")
	ErrStringNotNumber           = errors.New("mqwire: string is not a number")
	ErrNumberNotU16              = errors.New("mqwire: number does not fit in 16 bits")
	ErrNullString                = errors.New("mqwire: unexpected null string")
)

// Map errors.
var (
	ErrNotFound             = errors.New("mqwire: not found")
	ErrHashValueAlreadyExists = errors.New("mqwire: key already exists")
	ErrInvalidIterator      = errors.New("mqwire: iterator invalidated by concurrent mutation")
)

// Transport errors.
var (
	ErrConnectionClosed    = errors.New("mqwire: connection closed")
	ErrAlreadyConnected    = errors.New("mqwire: already connected")
	ErrInvalidPort         = errors.New("mqwire: invalid port")
	ErrSocketConnectFailed = errors.New("mqwire: socket connect failed")
	ErrSocketReadFailed    = errors.New("mqwire: socket read failed")
	ErrSocketWriteFailed   = errors.New("mqwire: socket write failed")
	ErrSocketShutdownFailed = errors.New("mqwire: socket shutdown failed")
	ErrSocketCloseFailed   = errors.New("mqwire: socket close failed")
	ErrTimeoutExpired      = errors.New("mqwire: timeout expired")
	ErrPollError           = errors.New("mqwire: poll error")

	ErrInputStreamError   = errors.New("mqwire: input stream error")
	ErrUninitializedStream = errors.New("mqwire: stream not initialized")
	ErrPacketOutputError  = errors.New("mqwire: packet output error")
)

// TLS errors.
var (
	ErrSslInitError        = errors.New("mqwire: tls init error")
	ErrSslCertError        = errors.New("mqwire: tls certificate rejected")
	ErrSslAlreadyInitialised = errors.New("mqwire: tls already initialized")
	ErrSslNotInitialised   = errors.New("mqwire: tls not initialized")
)

// Port-mapper errors.
var (
	ErrPortMapperInvalidInput = errors.New("mqwire: port mapper invalid input")
	ErrPortMapperWrongVersion = errors.New("mqwire: port mapper wrong version")
	ErrPortMapperError        = errors.New("mqwire: port mapper error")
)
