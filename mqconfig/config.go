/*************************************************************************
 * Copyright 2024 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

// Package mqconfig loads broker-connection configuration from an
// ini-style file (via gcfg), environment-variable overrides, or by hand
// through the wire-level Configuration property map, and validates the
// result before a caller attempts to connect.
package mqconfig

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gravwell/gcfg"

	"github.com/gravwell/mqwire/props"
	"github.com/gravwell/mqwire/value"
)

// ConnectionType names the transport a BrokerConfig should use.
type ConnectionType string

const (
	ConnTCP ConnectionType = "TCP"
	ConnTLS ConnectionType = "TLS"
)

const (
	defaultReadPortMapperTimeout = 180000 // ms
	defaultWriteTimeout          = 30000  // ms
	defaultServicePort           = 7676
)

var (
	ErrMissingBrokerHost      = errors.New("mqconfig: BrokerHost is required")
	ErrInvalidConnectionType  = errors.New("mqconfig: ConnectionType must be TCP or TLS")
	ErrMissingFingerprint     = errors.New("mqconfig: SslCheckBrokerFingerprint requires SslBrokerCertFingerprint")
	ErrInvalidTimeout         = errors.New("mqconfig: timeout must be >= 0")
)

// BrokerConfig mirrors the broker-connection options a caller can set
// from a config file, the environment, or a property map.
type BrokerConfig struct {
	BrokerHost                string
	BrokerPort                int32
	ServicePort               int32
	ConnectionType            string
	EnableIPv6                bool
	ReadPortMapperTimeout     int32
	WriteTimeout              int32
	SslBrokerIsTrusted        bool
	SslCheckBrokerFingerprint bool
	SslBrokerCertFingerprint  string
}

type fileConfig struct {
	Global BrokerConfig
}

// Default returns a BrokerConfig with every field at its documented
// default, ready for a caller to override selectively.
func Default() BrokerConfig {
	return BrokerConfig{
		ConnectionType:        string(ConnTCP),
		ServicePort:           defaultServicePort,
		ReadPortMapperTimeout: defaultReadPortMapperTimeout,
		WriteTimeout:          defaultWriteTimeout,
	}
}

// LoadFile parses an ini-style config file with a single [Global]
// section whose keys match BrokerConfig's field names.
func LoadFile(path string) (BrokerConfig, error) {
	cfg := Default()
	var fc fileConfig
	fc.Global = cfg
	if err := gcfg.ReadFileInto(&fc, path); err != nil {
		return BrokerConfig{}, err
	}
	return fc.Global, nil
}

// LoadBytes parses ini-style config file content already in memory.
func LoadBytes(b []byte) (BrokerConfig, error) {
	cfg := Default()
	var fc fileConfig
	fc.Global = cfg
	if err := gcfg.ReadStringInto(&fc, string(b)); err != nil {
		return BrokerConfig{}, err
	}
	return fc.Global, nil
}

// ApplyEnv overrides bc's fields from environment variables, each
// falling back to a NAME_FILE indirection (read the first line of the
// named file) when NAME itself is unset — the same secret-from-file
// convention used for the broker's ingest secret.
func (bc *BrokerConfig) ApplyEnv() error {
	if s, err := loadEnv("MQ_BROKER_HOST"); err == nil {
		bc.BrokerHost = s
	}
	if s, err := loadEnv("MQ_BROKER_PORT"); err == nil {
		v, perr := strconv.ParseInt(s, 10, 32)
		if perr != nil {
			return fmt.Errorf("mqconfig: MQ_BROKER_PORT: %w", perr)
		}
		bc.BrokerPort = int32(v)
	}
	if s, err := loadEnv("MQ_SERVICE_PORT"); err == nil {
		v, perr := strconv.ParseInt(s, 10, 32)
		if perr != nil {
			return fmt.Errorf("mqconfig: MQ_SERVICE_PORT: %w", perr)
		}
		bc.ServicePort = int32(v)
	}
	if s, err := loadEnv("MQ_CONNECTION_TYPE"); err == nil {
		bc.ConnectionType = strings.ToUpper(s)
	}
	if s, err := loadEnv("MQ_ENABLE_IPV6"); err == nil {
		v, perr := strconv.ParseBool(s)
		if perr != nil {
			return fmt.Errorf("mqconfig: MQ_ENABLE_IPV6: %w", perr)
		}
		bc.EnableIPv6 = v
	}
	if s, err := loadEnv("MQ_SSL_BROKER_IS_TRUSTED"); err == nil {
		v, perr := strconv.ParseBool(s)
		if perr != nil {
			return fmt.Errorf("mqconfig: MQ_SSL_BROKER_IS_TRUSTED: %w", perr)
		}
		bc.SslBrokerIsTrusted = v
	}
	if s, err := loadEnv("MQ_SSL_CHECK_BROKER_FINGERPRINT"); err == nil {
		v, perr := strconv.ParseBool(s)
		if perr != nil {
			return fmt.Errorf("mqconfig: MQ_SSL_CHECK_BROKER_FINGERPRINT: %w", perr)
		}
		bc.SslCheckBrokerFingerprint = v
	}
	if s, err := loadEnv("MQ_SSL_BROKER_CERT_FINGERPRINT"); err == nil {
		bc.SslBrokerCertFingerprint = s
	}
	return nil
}

// Validate checks bc for internal consistency, as a caller would do
// right after loading it and before attempting a connection.
func (bc BrokerConfig) Validate() error {
	if strings.TrimSpace(bc.BrokerHost) == "" {
		return ErrMissingBrokerHost
	}
	switch strings.ToUpper(bc.ConnectionType) {
	case string(ConnTCP), string(ConnTLS):
	default:
		return ErrInvalidConnectionType
	}
	if bc.SslCheckBrokerFingerprint && strings.TrimSpace(bc.SslBrokerCertFingerprint) == "" {
		return ErrMissingFingerprint
	}
	if bc.ReadPortMapperTimeout < 0 || bc.WriteTimeout < 0 {
		return ErrInvalidTimeout
	}
	return nil
}

// ReadPortMapperTimeoutDuration converts the millisecond field to a
// time.Duration for use with the portmapper and transport packages.
func (bc BrokerConfig) ReadPortMapperTimeoutDuration() time.Duration {
	return time.Duration(bc.ReadPortMapperTimeout) * time.Millisecond
}

// WriteTimeoutDuration converts the millisecond field to a time.Duration.
func (bc BrokerConfig) WriteTimeoutDuration() time.Duration {
	return time.Duration(bc.WriteTimeout) * time.Millisecond
}

// UseTLS reports whether ConnectionType selects the TLS transport.
func (bc BrokerConfig) UseTLS() bool {
	return strings.EqualFold(bc.ConnectionType, string(ConnTLS))
}
