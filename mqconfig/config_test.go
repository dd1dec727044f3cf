/*************************************************************************
 * Copyright 2024 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package mqconfig

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleConf = `
[Global]
BrokerHost = mq1.example.com
BrokerPort = 7676
ConnectionType = TLS
EnableIPv6 = true
SslCheckBrokerFingerprint = true
SslBrokerCertFingerprint = AA:BB:CC:DD
`

func TestLoadBytes(t *testing.T) {
	bc, err := LoadBytes([]byte(sampleConf))
	if err != nil {
		t.Fatalf("LoadBytes failed: %v", err)
	}
	if bc.BrokerHost != "mq1.example.com" || bc.BrokerPort != 7676 {
		t.Fatalf("unexpected parse: %+v", bc)
	}
	if !bc.EnableIPv6 || !bc.UseTLS() {
		t.Fatalf("expected IPv6+TLS enabled: %+v", bc)
	}
	// defaults should survive alongside the overridden fields
	if bc.ServicePort != defaultServicePort {
		t.Fatalf("expected default service port to survive, got %d", bc.ServicePort)
	}
	if err := bc.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "broker.conf")
	if err := os.WriteFile(p, []byte(sampleConf), 0600); err != nil {
		t.Fatal(err)
	}
	bc, err := LoadFile(p)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if bc.BrokerHost != "mq1.example.com" {
		t.Fatalf("unexpected parse: %+v", bc)
	}
}

func TestValidateMissingHost(t *testing.T) {
	bc := Default()
	if err := bc.Validate(); err != ErrMissingBrokerHost {
		t.Fatalf("expected ErrMissingBrokerHost, got %v", err)
	}
}

func TestValidateBadConnectionType(t *testing.T) {
	bc := Default()
	bc.BrokerHost = "mq1"
	bc.ConnectionType = "UDP"
	if err := bc.Validate(); err != ErrInvalidConnectionType {
		t.Fatalf("expected ErrInvalidConnectionType, got %v", err)
	}
}

func TestValidateFingerprintRequired(t *testing.T) {
	bc := Default()
	bc.BrokerHost = "mq1"
	bc.ConnectionType = string(ConnTLS)
	bc.SslCheckBrokerFingerprint = true
	if err := bc.Validate(); err != ErrMissingFingerprint {
		t.Fatalf("expected ErrMissingFingerprint, got %v", err)
	}
}

func TestApplyEnvOverridesHost(t *testing.T) {
	t.Setenv("MQ_BROKER_HOST", "envhost.example.com")
	t.Setenv("MQ_BROKER_PORT", "1234")
	bc := Default()
	if err := bc.ApplyEnv(); err != nil {
		t.Fatalf("ApplyEnv failed: %v", err)
	}
	if bc.BrokerHost != "envhost.example.com" || bc.BrokerPort != 1234 {
		t.Fatalf("unexpected env override: %+v", bc)
	}
}

func TestApplyEnvFileIndirection(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "host.secret")
	if err := os.WriteFile(p, []byte("filehost.example.com\n"), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("MQ_BROKER_HOST_FILE", p)
	bc := Default()
	if err := bc.ApplyEnv(); err != nil {
		t.Fatalf("ApplyEnv failed: %v", err)
	}
	if bc.BrokerHost != "filehost.example.com" {
		t.Fatalf("expected host from file indirection, got %q", bc.BrokerHost)
	}
}

func TestPropertyRoundTrip(t *testing.T) {
	bc := Default()
	bc.BrokerHost = "mq1.example.com"
	bc.ConnectionType = string(ConnTLS)
	bc.SslBrokerCertFingerprint = "AA:BB"
	m, err := bc.ToProperties()
	if err != nil {
		t.Fatalf("ToProperties failed: %v", err)
	}
	got, err := FromProperties(m)
	if err != nil {
		t.Fatalf("FromProperties failed: %v", err)
	}
	if got != bc {
		t.Fatalf("round trip mismatch: %+v vs %+v", got, bc)
	}
}

func TestDurationConversions(t *testing.T) {
	bc := Default()
	if bc.ReadPortMapperTimeoutDuration().Seconds() != 180 {
		t.Fatalf("unexpected read port mapper timeout: %v", bc.ReadPortMapperTimeoutDuration())
	}
	if bc.WriteTimeoutDuration().Seconds() != 30 {
		t.Fatalf("unexpected write timeout: %v", bc.WriteTimeoutDuration())
	}
}
