// SPDX-FileCopyrightText: 2014-2022 SAP SE
//
// SPDX-License-Identifier: Apache-2.0

package protocol

// Salted Challenge Response Authentication Mechanism (SCRAM), the two
// password-based methods HANA offers: SCRAMSHA256 and its PBKDF2-stretched
// variant SCRAMPBKDF2SHA256.

import (
	"crypto/hmac"
	"crypto/sha256"

	"github.com/hdbwire/hdbwire/internal/rand"
	"golang.org/x/crypto/pbkdf2"
)

const (
	clientChallengeSize = 64
	serverChallengeSize = 48
	saltSize            = 16
	clientProofSize     = 32
)

func newClientChallenge() []byte { return rand.Bytes(clientChallengeSize) }

func sha256Sum(p []byte) []byte {
	h := sha256.New()
	h.Write(p)
	return h.Sum(nil)
}

func hmacSum(key, p []byte) []byte {
	h := hmac.New(sha256.New, key)
	h.Write(p)
	return h.Sum(nil)
}

func xorBytes(a, b []byte) []byte {
	r := make([]byte, len(a))
	for i := range a {
		r[i] = a[i] ^ b[i]
	}
	return r
}

func scramProof(key, salt, serverChallenge, clientChallenge []byte) []byte {
	buf := make([]byte, 0, len(salt)+len(serverChallenge)+len(clientChallenge))
	buf = append(buf, salt...)
	buf = append(buf, serverChallenge...)
	buf = append(buf, clientChallenge...)

	sig := hmacSum(sha256Sum(key), buf)
	return xorBytes(sig, key)
}

func clientProofSCRAMSHA256(salt, serverChallenge, clientChallenge, password []byte) []byte {
	key := sha256Sum(hmacSum(password, salt))
	return scramProof(key, salt, serverChallenge, clientChallenge)
}

func clientProofSCRAMPBKDF2SHA256(salt, serverChallenge []byte, rounds uint32, clientChallenge, password []byte) []byte {
	key := sha256Sum(pbkdf2.Key(password, salt, int(rounds), clientProofSize, sha256.New))
	return scramProof(key, salt, serverChallenge, clientChallenge)
}
