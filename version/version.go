/*************************************************************************
 * Copyright 2024 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

// Package version reports this library's own release version alongside
// the single wire protocol version it speaks (packet.Version).
package version

import (
	"fmt"
	"io"
	"time"

	"github.com/gravwell/mqwire/packet"
)

const (
	MajorVersion = 1
	MinorVersion = 0
	PointVersion = 0
)

var BuildDate = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

// PrintVersion writes a human-readable version banner, including the
// wire protocol version this build negotiates.
func PrintVersion(wtr io.Writer) {
	fmt.Fprintf(wtr, "Version:\t%d.%d.%d\n", MajorVersion, MinorVersion, PointVersion)
	fmt.Fprintf(wtr, "Protocol:\t%d\n", packet.Version)
	fmt.Fprintf(wtr, "BuildDate:\t%s\n", BuildDate.Format("2006-01-02 15:04:05"))
}

// GetVersion returns the library release version as "major.minor.point".
func GetVersion() string {
	return fmt.Sprintf("%d.%d.%d", MajorVersion, MinorVersion, PointVersion)
}
