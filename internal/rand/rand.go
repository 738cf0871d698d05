// SPDX-FileCopyrightText: 2014-2022 SAP SE
//
// SPDX-License-Identifier: Apache-2.0

// Package rand generates random values for hdbwire's wire traffic: Bytes
// supplies the SCRAM client challenge (scram.go), and AlphanumString returns
// random alphanumeric strings.
package rand

import "crypto/rand"

const csAlphanum = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

var numAlphanum = byte(len(csAlphanum))

// AlphanumString returns a random string of n alphanumeric characters. It
// panics if the system CSPRNG fails, which never happens in practice on any
// supported platform.
func AlphanumString(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	for i, c := range b {
		b[i] = csAlphanum[c%numAlphanum]
	}
	return string(b)
}

// Bytes returns n cryptographically random bytes, used where the wire format
// calls for raw entropy rather than printable characters (the SCRAM client
// challenge nonce).
func Bytes(n int) []byte {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return b
}
