/*************************************************************************
 * Copyright 2024 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package iostream

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/gravwell/mqwire/mqerr"
)

var (
	wrapSocketRead  = mqerr.ErrSocketReadFailed
	wrapSocketWrite = mqerr.ErrSocketWriteFailed
)

// TransportReader adapts an io.Reader (normally a net.Conn wrapped by the
// transport package, which applies its own read deadlines) to the Reader
// interface. It never looks ahead, so EndOfStream is only meaningful after
// a failed read has already been observed.
type TransportReader struct {
	r    io.Reader
	eof  bool
	hdr  [8]byte
}

// NewTransportReader wraps r for sequential blocking reads.
func NewTransportReader(r io.Reader) *TransportReader {
	return &TransportReader{r: r}
}

func (t *TransportReader) readN(n int) ([]byte, error) {
	buf := t.hdr[:n]
	if _, err := io.ReadFull(t.r, buf); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			t.eof = true
		}
		return nil, fmt.Errorf("%w: %w: %v", mqerr.ErrInputStreamError, wrapSocketRead, err)
	}
	return buf, nil
}

func (t *TransportReader) ReadU8() (uint8, error) {
	b, err := t.readN(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (t *TransportReader) ReadU16() (uint16, error) {
	b, err := t.readN(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

func (t *TransportReader) ReadU32() (uint32, error) {
	b, err := t.readN(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

func (t *TransportReader) ReadU64() (uint64, error) {
	b, err := t.readN(8)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b), nil
}

func (t *TransportReader) ReadBool() (bool, error)   { return readBool(t) }
func (t *TransportReader) ReadI8() (int8, error)     { return readI8(t) }
func (t *TransportReader) ReadI16() (int16, error)   { return readI16(t) }
func (t *TransportReader) ReadI32() (int32, error)   { return readI32(t) }
func (t *TransportReader) ReadI64() (int64, error)   { return readI64(t) }
func (t *TransportReader) ReadF32() (float32, error) { return readF32(t) }
func (t *TransportReader) ReadF64() (float64, error) { return readF64(t) }

func (t *TransportReader) ReadFull(buf []byte) error {
	if _, err := io.ReadFull(t.r, buf); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			t.eof = true
		}
		return fmt.Errorf("%w: %w: %v", mqerr.ErrInputStreamError, wrapSocketRead, err)
	}
	return nil
}

func (t *TransportReader) EndOfStream() bool { return t.eof }

// TransportWriter adapts an io.Writer to the Writer interface, retrying
// partial writes the way a buffered socket write loop must.
type TransportWriter struct {
	w   io.Writer
	hdr [8]byte
}

// NewTransportWriter wraps w for sequential blocking writes.
func NewTransportWriter(w io.Writer) *TransportWriter {
	return &TransportWriter{w: w}
}

// writeAll retries partial writes until n bytes are written or the
// underlying writer returns an error, mirroring the retry-on-short-write
// loop used around buffered connection writers.
func writeAll(w io.Writer, buf []byte) error {
	for len(buf) > 0 {
		n, err := w.Write(buf)
		if err != nil {
			return fmt.Errorf("%w: %w: %v", mqerr.ErrInputStreamError, wrapSocketWrite, err)
		}
		if n <= 0 {
			return fmt.Errorf("%w: %w: zero-length write", mqerr.ErrInputStreamError, wrapSocketWrite)
		}
		buf = buf[n:]
	}
	return nil
}

func (t *TransportWriter) WriteU8(v uint8) error {
	t.hdr[0] = v
	return writeAll(t.w, t.hdr[:1])
}

func (t *TransportWriter) WriteU16(v uint16) error {
	binary.BigEndian.PutUint16(t.hdr[:2], v)
	return writeAll(t.w, t.hdr[:2])
}

func (t *TransportWriter) WriteU32(v uint32) error {
	binary.BigEndian.PutUint32(t.hdr[:4], v)
	return writeAll(t.w, t.hdr[:4])
}

func (t *TransportWriter) WriteU64(v uint64) error {
	binary.BigEndian.PutUint64(t.hdr[:8], v)
	return writeAll(t.w, t.hdr[:8])
}

func (t *TransportWriter) WriteBool(v bool) error   { return writeBool(t, v) }
func (t *TransportWriter) WriteI8(v int8) error     { return writeI8(t, v) }
func (t *TransportWriter) WriteI16(v int16) error   { return writeI16(t, v) }
func (t *TransportWriter) WriteI32(v int32) error   { return writeI32(t, v) }
func (t *TransportWriter) WriteI64(v int64) error   { return writeI64(t, v) }
func (t *TransportWriter) WriteF32(v float32) error { return writeF32(t, v) }
func (t *TransportWriter) WriteF64(v float64) error { return writeF64(t, v) }

func (t *TransportWriter) WriteBytes(buf []byte) error {
	return writeAll(t.w, buf)
}
