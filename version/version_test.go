/*************************************************************************
 * Copyright 2024 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package version

import (
	"bytes"
	"strings"
	"testing"
)

func TestGetVersion(t *testing.T) {
	if got := GetVersion(); got != "1.0.0" {
		t.Fatalf("GetVersion() = %q, want 1.0.0", got)
	}
}

func TestPrintVersionIncludesProtocol(t *testing.T) {
	buf := &bytes.Buffer{}
	PrintVersion(buf)
	if !strings.Contains(buf.String(), "Protocol:\t1") {
		t.Fatalf("expected protocol version in banner, got %q", buf.String())
	}
}
