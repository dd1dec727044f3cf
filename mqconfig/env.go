/*************************************************************************
 * Copyright 2024 Gravwell, Inc. All rights reserved.
 * Contact: <legal@gravwell.io>
 *
 * This software may be modified and distributed under the terms of the
 * BSD 2-clause license. See the LICENSE file for details.
 **************************************************************************/

package mqconfig

import (
	"bufio"
	"errors"
	"os"
)

var errNoEnvArg = errors.New("mqconfig: environment variable not set")

// loadEnv returns the value of the environment variable nm, or, if unset,
// the first line of the file named by nm+"_FILE" — the secret-from-file
// indirection used so a broker credential never has to sit in plaintext
// in the process environment itself.
func loadEnv(nm string) (string, error) {
	if s, ok := os.LookupEnv(nm); ok {
		return s, nil
	}
	fp, ok := os.LookupEnv(nm + "_FILE")
	if !ok {
		return "", errNoEnvArg
	}
	fin, err := os.Open(fp)
	if err != nil {
		return "", err
	}
	defer fin.Close()
	sc := bufio.NewScanner(fin)
	sc.Scan()
	if err := sc.Err(); err != nil {
		return "", err
	}
	s := sc.Text()
	if s == "" {
		return "", errors.New("mqconfig: environment secret file is empty")
	}
	return s, nil
}
