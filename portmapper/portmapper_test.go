/*************************************************************************
 * Copyright 2024 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package portmapper

import (
	"errors"
	"strings"
	"testing"

	"github.com/gravwell/mqwire/mqerr"
)

const sampleResponse = "101 broker-1 400\n" +
	"portmapper tcp PORTMAPPER 7676\n" +
	"jms tcp NORMAL 7676\n" +
	"jms tls NORMAL 7677\n" +
	".\n"

func TestParseValidResponse(t *testing.T) {
	tbl, err := Parse(strings.NewReader(sampleResponse))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if tbl.PortMapperVersion != "101" || tbl.BrokerInstance != "broker-1" || tbl.PacketVersion != "400" {
		t.Fatalf("unexpected version line parse: %+v", tbl)
	}
	if len(tbl.Entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(tbl.Entries))
	}
	e, ok := tbl.Lookup("tcp", "NORMAL")
	if !ok || e.Port != 7676 {
		t.Fatalf("lookup(tcp, NORMAL) = %+v, ok=%v", e, ok)
	}
	e, ok = tbl.Lookup("tls", "NORMAL")
	if !ok || e.Port != 7677 {
		t.Fatalf("lookup(tls, NORMAL) = %+v, ok=%v", e, ok)
	}
}

func TestParseWrongVersion(t *testing.T) {
	bad := "99 broker-1 400\n.\n"
	if _, err := Parse(strings.NewReader(bad)); !errors.Is(err, mqerr.ErrPortMapperWrongVersion) {
		t.Fatalf("expected ErrPortMapperWrongVersion, got %v", err)
	}
}

func TestParseShortVersionLine(t *testing.T) {
	bad := "101 broker-1\n.\n"
	if _, err := Parse(strings.NewReader(bad)); !errors.Is(err, mqerr.ErrPortMapperInvalidInput) {
		t.Fatalf("expected ErrPortMapperInvalidInput, got %v", err)
	}
}

func TestParseShortServiceLine(t *testing.T) {
	bad := "101 broker-1 400\njms tcp NORMAL\n.\n"
	if _, err := Parse(strings.NewReader(bad)); !errors.Is(err, mqerr.ErrPortMapperInvalidInput) {
		t.Fatalf("expected ErrPortMapperInvalidInput, got %v", err)
	}
}

func TestParseBadPort(t *testing.T) {
	bad := "101 broker-1 400\njms tcp NORMAL notaport\n.\n"
	if _, err := Parse(strings.NewReader(bad)); !errors.Is(err, mqerr.ErrPortMapperInvalidInput) {
		t.Fatalf("expected ErrPortMapperInvalidInput, got %v", err)
	}
}

func TestParseMissingTerminator(t *testing.T) {
	bad := "101 broker-1 400\njms tcp NORMAL 7676\n"
	if _, err := Parse(strings.NewReader(bad)); !errors.Is(err, mqerr.ErrPortMapperInvalidInput) {
		t.Fatalf("expected ErrPortMapperInvalidInput, got %v", err)
	}
}

func TestParseIgnoresExtraServiceLineFields(t *testing.T) {
	withExtra := "101 broker-1 400\njms tcp NORMAL 7676 [extra=property]\n.\n"
	tbl, err := Parse(strings.NewReader(withExtra))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(tbl.Entries) != 1 || tbl.Entries[0].Port != 7676 {
		t.Fatalf("unexpected parse result: %+v", tbl)
	}
}

func TestParseStopsAtTerminator(t *testing.T) {
	withTrailing := sampleResponse + "ignored tcp NORMAL 1\n"
	tbl, err := Parse(strings.NewReader(withTrailing))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(tbl.Entries) != 3 {
		t.Fatalf("expected parsing to stop at terminator, got %d entries", len(tbl.Entries))
	}
}
