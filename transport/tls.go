/*************************************************************************
 * Copyright 2024 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package transport

import (
	"bytes"
	"crypto/md5"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gravwell/mqwire/mqerr"
	"github.com/gravwell/mqwire/mqlog"
	"github.com/gravwell/mqwire/netid"
)

var (
	tlsInitOnce  sync.Once
	tlsInitErr   error
	tlsInitDone  atomic.Bool
)

// initTLS performs the once-per-process TLS library setup. Go's
// crypto/tls needs no certificate-database open or cipher-policy
// selection step, but the once-guard itself is preserved so a second
// concurrent caller observes the same captured outcome rather than
// racing independent setup work.
func initTLS() error {
	tlsInitOnce.Do(func() {
		tlsInitErr = nil
		tlsInitDone.Store(true)
	})
	if !tlsInitDone.Load() {
		return fmt.Errorf("%w: tls init did not complete", mqerr.ErrSslInitError)
	}
	return tlsInitErr
}

// CertMode selects how a TLS peer certificate is accepted.
type CertMode int

const (
	// CertModeTrustAny accepts any peer certificate, logging the
	// outcome. Intended only for development brokers.
	CertModeTrustAny CertMode = iota
	// CertModeFingerprint accepts a peer certificate whose MD5
	// digest of its DER encoding matches an expected, pre-configured
	// fingerprint (colon-separated uppercase hex).
	CertModeFingerprint
	// CertModeStrict rejects every peer certificate; the caller must
	// supply a trusted root pool via TLSOptions.RootCAs for the
	// handshake to succeed at all.
	CertModeStrict
)

// TLSOptions configures a TLSTransport's certificate acceptance policy.
type TLSOptions struct {
	ServerName          string
	Mode                CertMode
	ExpectedFingerprint string // required when Mode == CertModeFingerprint
	RootCAs             *x509.CertPool
	Logger              *mqlog.Logger
}

// TLSTransport wraps an established TCP connection with a client-side
// TLS session. The handshake is forced eagerly in DialTLS, never
// deferred to the first application read/write.
type TLSTransport struct {
	tcp  *TCPTransport
	conn *tls.Conn
}

// DialTLS connects a TCP transport to host:port and immediately performs
// the TLS handshake under the given certificate-acceptance policy.
func DialTLS(host string, port uint16, useIPv6 bool, connectTimeout time.Duration, opts TLSOptions) (*TLSTransport, error) {
	if err := initTLS(); err != nil {
		return nil, err
	}
	tcp, err := DialTCP(host, port, useIPv6, connectTimeout)
	if err != nil {
		return nil, err
	}
	t, err := wrapTLS(tcp, opts, connectTimeout)
	if err != nil {
		tcp.Close()
		return nil, err
	}
	return t, nil
}

func wrapTLS(tcp *TCPTransport, opts TLSOptions, handshakeTimeout time.Duration) (*TLSTransport, error) {
	cfg := &tls.Config{
		ServerName:         opts.ServerName,
		RootCAs:            opts.RootCAs,
		InsecureSkipVerify: true, // verification is always done ourselves in VerifyPeerCertificate
	}
	cfg.VerifyPeerCertificate = func(rawCerts [][]byte, _ [][]*x509.Certificate) error {
		return verifyPeerCert(rawCerts, opts)
	}

	conn := tls.Client(tcp.conn, cfg)
	if handshakeTimeout > 0 {
		if err := conn.SetDeadline(time.Now().Add(handshakeTimeout)); err != nil {
			return nil, fmt.Errorf("%w: %v", mqerr.ErrSslInitError, err)
		}
	}
	if err := conn.Handshake(); err != nil {
		logHandshakeFailure(opts, err)
		return nil, fmt.Errorf("%w: %v", mqerr.ErrSslCertError, err)
	}
	_ = conn.SetDeadline(time.Time{})
	return &TLSTransport{tcp: tcp, conn: conn}, nil
}

// logHandshakeFailure reports a TLS handshake failure to opts.Logger, if
// one is configured, attaching a host identification banner so an
// operator comparing logs across machines can tell which one failed.
func logHandshakeFailure(opts TLSOptions, err error) {
	if opts.Logger == nil {
		return
	}
	var buf bytes.Buffer
	mqlog.PrintOSInfo(&buf)
	opts.Logger.Error("TLS handshake failed",
		mqlog.KVErr(err),
		mqlog.KV("host", strings.TrimSpace(buf.String())))
}

func verifyPeerCert(rawCerts [][]byte, opts TLSOptions) error {
	switch opts.Mode {
	case CertModeTrustAny:
		if opts.Logger != nil {
			opts.Logger.Info("accepting TLS peer certificate under trust-any policy")
		}
		return nil
	case CertModeFingerprint:
		if len(rawCerts) == 0 {
			return fmt.Errorf("%w: no peer certificate presented", mqerr.ErrSslCertError)
		}
		got := Fingerprint(rawCerts[0])
		if !strings.EqualFold(got, opts.ExpectedFingerprint) {
			return fmt.Errorf("%w: fingerprint %s does not match expected %s", mqerr.ErrSslCertError, got, opts.ExpectedFingerprint)
		}
		return nil
	case CertModeStrict:
		return fmt.Errorf("%w: strict certificate mode rejects all peer certificates presented out of band", mqerr.ErrSslCertError)
	default:
		return fmt.Errorf("%w: unrecognized certificate mode %d", mqerr.ErrSslCertError, opts.Mode)
	}
}

// Fingerprint formats the MD5 digest of a DER-encoded certificate as
// colon-separated uppercase hex, matching the broker's own fingerprint
// presentation.
func Fingerprint(der []byte) string {
	sum := md5.Sum(der)
	parts := make([]string, len(sum))
	for i, b := range sum {
		parts[i] = fmt.Sprintf("%02X", b)
	}
	return strings.Join(parts, ":")
}

func (t *TLSTransport) Read(buf []byte, timeout time.Duration) (int, error) {
	if t.tcp.closed.Load() {
		return 0, mqerr.ErrConnectionClosed
	}
	if err := setDeadline(t.conn, timeout); err != nil {
		return 0, err
	}
	total := 0
	for total < len(buf) {
		n, err := t.conn.Read(buf[total:])
		total += n
		if err != nil {
			if t.tcp.closed.Load() {
				return total, mqerr.ErrConnectionClosed
			}
			if isTimeout(err) {
				return total, mqerr.ErrTimeoutExpired
			}
			if n == 0 && total == 0 {
				return 0, mqerr.ErrConnectionClosed
			}
			return total, fmt.Errorf("%w: %v", mqerr.ErrSocketReadFailed, err)
		}
		if n == 0 {
			return total, mqerr.ErrConnectionClosed
		}
	}
	return total, nil
}

func (t *TLSTransport) Write(buf []byte, timeout time.Duration) (int, error) {
	if t.tcp.closed.Load() {
		return 0, mqerr.ErrConnectionClosed
	}
	if err := setDeadline(t.conn, timeout); err != nil {
		return 0, err
	}
	total := 0
	for total < len(buf) {
		n, err := t.conn.Write(buf[total:])
		total += n
		if err != nil {
			if t.tcp.closed.Load() {
				return total, mqerr.ErrConnectionClosed
			}
			if isTimeout(err) {
				return total, mqerr.ErrTimeoutExpired
			}
			return total, fmt.Errorf("%w: %v", mqerr.ErrSocketWriteFailed, err)
		}
	}
	return total, nil
}

func (t *TLSTransport) Shutdown() error { return t.tcp.Shutdown() }
func (t *TLSTransport) Close() error {
	t.tcp.closed.Store(true)
	return t.conn.Close()
}
func (t *TLSTransport) LocalPort() uint32 {
	return t.tcp.LocalPort()
}
func (t *TLSTransport) LocalIP() netid.IPAddress { return t.tcp.LocalIP() }
func (t *TLSTransport) IsClosed() bool           { return t.tcp.IsClosed() }
