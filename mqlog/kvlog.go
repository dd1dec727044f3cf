/*************************************************************************
 * Copyright 2024 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package mqlog

import "github.com/crewjam/rfc5424"

// KVLogger wraps a Logger with a fixed set of structured-data
// parameters that get attached to every record, e.g. the broker target
// address for the lifetime of one connection attempt.
type KVLogger struct {
	*Logger
	sds []rfc5424.SDParam
}

// NewLoggerWithKV wraps l, prepending sds to every subsequently logged
// record's structured data.
func NewLoggerWithKV(l *Logger, sds ...rfc5424.SDParam) *KVLogger {
	return &KVLogger{Logger: l, sds: sds}
}

func (kvl *KVLogger) Debug(msg string, sds ...rfc5424.SDParam) error {
	return kvl.outputStructured(defaultDepth+1, DEBUG, msg, append(kvl.sds, sds...)...)
}

func (kvl *KVLogger) Info(msg string, sds ...rfc5424.SDParam) error {
	return kvl.outputStructured(defaultDepth+1, INFO, msg, append(kvl.sds, sds...)...)
}

func (kvl *KVLogger) Warn(msg string, sds ...rfc5424.SDParam) error {
	return kvl.outputStructured(defaultDepth+1, WARN, msg, append(kvl.sds, sds...)...)
}

func (kvl *KVLogger) Error(msg string, sds ...rfc5424.SDParam) error {
	return kvl.outputStructured(defaultDepth+1, ERROR, msg, append(kvl.sds, sds...)...)
}

func (kvl *KVLogger) Critical(msg string, sds ...rfc5424.SDParam) error {
	return kvl.outputStructured(defaultDepth+1, CRITICAL, msg, append(kvl.sds, sds...)...)
}

// AddKV appends sds to the fixed parameter set attached to every record.
func (kvl *KVLogger) AddKV(sds ...rfc5424.SDParam) {
	kvl.sds = append(kvl.sds, sds...)
}
