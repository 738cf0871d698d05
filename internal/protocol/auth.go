// SPDX-FileCopyrightText: 2014-2022 SAP SE
//
// SPDX-License-Identifier: Apache-2.0

package protocol

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/hdbwire/hdbwire/internal/protocol/encoding"
	"github.com/hdbwire/hdbwire/internal/unicode/cesu8"
)

// Authentication method names as advertised in authInitReq and echoed back
// in authInitRep/authFinalReq.
const (
	mnSCRAMSHA256       = "SCRAMSHA256"
	mnSCRAMPBKDF2SHA256 = "SCRAMPBKDF2SHA256"
)

const uint32Size = 4

// authMethod pairs a method name with the client challenge offered for it;
// authInitReq advertises one per supported method so the server can pick.
type authMethod struct {
	method          string
	clientChallenge []byte
}

func (m *authMethod) size() int { return 1 + len(m.method) + 1 + len(m.clientChallenge) }

func (m *authMethod) encode(enc *encoding.Encoder) error {
	if err := encodeShortBytes(enc, []byte(m.method)); err != nil {
		return err
	}
	return encodeShortBytes(enc, m.clientChallenge)
}

// authInitReq is the first message of the handshake: username plus the set
// of methods the client is willing to authenticate with.
type authInitReq struct {
	username string
	methods  []*authMethod
}

func (r *authInitReq) numArg() int { return 1 }

func (r *authInitReq) size() int {
	size := 2 + 1 + cesu8.StringSize(r.username)
	for _, m := range r.methods {
		size += m.size()
	}
	return size
}

func (r *authInitReq) encode(enc *encoding.Encoder) error {
	enc.Int16(int16(1 + len(r.methods)*2))
	if err := encodeShortCESU8String(enc, r.username); err != nil {
		return err
	}
	for _, m := range r.methods {
		if err := m.encode(enc); err != nil {
			return err
		}
	}
	return enc.Error()
}

type authInitSCRAMSHA256Rep struct {
	salt, serverChallenge []byte
}

func decodeAuthInitSCRAMSHA256Rep(dec *encoding.Decoder) (*authInitSCRAMSHA256Rep, error) {
	numPrm := int(dec.Int16())
	if numPrm != 2 {
		return nil, fmt.Errorf("protocol: auth init reply expects 2 parameters, got %d", numPrm)
	}
	r := &authInitSCRAMSHA256Rep{}
	r.salt = decodeShortBytes(dec)
	r.serverChallenge = decodeShortBytes(dec)
	return r, dec.Error()
}

type authInitSCRAMPBKDF2SHA256Rep struct {
	salt, serverChallenge []byte
	rounds                uint32
}

func decodeAuthInitSCRAMPBKDF2SHA256Rep(dec *encoding.Decoder) (*authInitSCRAMPBKDF2SHA256Rep, error) {
	numPrm := int(dec.Int16())
	if numPrm != 3 {
		return nil, fmt.Errorf("protocol: auth init reply expects 3 parameters, got %d", numPrm)
	}
	r := &authInitSCRAMPBKDF2SHA256Rep{}
	r.salt = decodeShortBytes(dec)
	r.serverChallenge = decodeShortBytes(dec)
	size := dec.Byte()
	if size != uint32Size {
		return nil, fmt.Errorf("protocol: auth rounds field size %d, expected %d", size, uint32Size)
	}
	r.rounds = dec.Uint32ByteOrder(binary.BigEndian)
	return r, dec.Error()
}

// authInitRep carries the server's chosen method plus its method-specific
// parameters (salt, server challenge, and for PBKDF2 the iteration count).
type authInitRep struct {
	method string
	scram  *authInitSCRAMSHA256Rep
	pbkdf2 *authInitSCRAMPBKDF2SHA256Rep
}

func decodeAuthInitRep(dec *encoding.Decoder) (*authInitRep, error) {
	numPrm := int(dec.Int16())
	if numPrm != 2 {
		return nil, fmt.Errorf("protocol: auth init reply expects 2 parameters, got %d", numPrm)
	}
	r := &authInitRep{method: string(decodeShortBytes(dec))}
	dec.Byte() // sub-parameter length, redundant with the per-method decode

	switch r.method {
	case mnSCRAMSHA256:
		prms, err := decodeAuthInitSCRAMSHA256Rep(dec)
		if err != nil {
			return nil, err
		}
		r.scram = prms
	case mnSCRAMPBKDF2SHA256:
		prms, err := decodeAuthInitSCRAMPBKDF2SHA256Rep(dec)
		if err != nil {
			return nil, err
		}
		r.pbkdf2 = prms
	default:
		return nil, fmt.Errorf("protocol: unsupported authentication method %q", r.method)
	}
	return r, dec.Error()
}

type authClientProofReq struct {
	clientProof []byte
}

func (r *authClientProofReq) size() int { return 2 + 1 + len(r.clientProof) }

func (r *authClientProofReq) encode(enc *encoding.Encoder) error {
	enc.Int16(1)
	return encodeShortBytes(enc, r.clientProof)
}

// authFinalReq carries the computed client proof back to the server.
type authFinalReq struct {
	username, method string
	prms             *authClientProofReq
}

func (r *authFinalReq) numArg() int { return 1 }

func (r *authFinalReq) size() int {
	return 2 + 1 + cesu8.StringSize(r.username) + 1 + len(r.method) + 1 + r.prms.size()
}

func (r *authFinalReq) encode(enc *encoding.Encoder) error {
	enc.Int16(3)
	if err := encodeShortCESU8String(enc, r.username); err != nil {
		return err
	}
	if err := encodeShortBytes(enc, []byte(r.method)); err != nil {
		return err
	}
	enc.Byte(byte(r.prms.size()))
	return r.prms.encode(enc)
}

type authServerProofRep struct {
	serverProof []byte
}

// authFinalRep carries the server's proof of knowledge of the shared key,
// confirming the password without either side ever sending it in the clear.
type authFinalRep struct {
	method string
	prms   *authServerProofRep
}

func decodeAuthFinalRep(dec *encoding.Decoder) (*authFinalRep, error) {
	numPrm := int(dec.Int16())
	if numPrm != 2 {
		return nil, fmt.Errorf("protocol: auth final reply expects 2 parameters, got %d", numPrm)
	}
	r := &authFinalRep{method: string(decodeShortBytes(dec))}
	dec.Byte() // sub-parameter length
	numPrm2 := int(dec.Int16())
	if numPrm2 != 1 {
		return nil, fmt.Errorf("protocol: auth server proof expects 1 parameter, got %d", numPrm2)
	}
	r.prms = &authServerProofRep{serverProof: decodeShortBytes(dec)}
	return r, dec.Error()
}

// auth drives the 4-step SCRAM handshake used to open a session: init
// request/reply negotiate the method and exchange challenges, final
// request/reply exchange proofs. A fresh auth is needed per connection
// attempt — it is not reusable across reconnects.
type auth struct {
	step               int
	username, password string
	methods            []*authMethod
	initRep            *authInitRep
}

func newAuth(username, password string) *auth {
	return &auth{
		username: username,
		password: password,
		methods: []*authMethod{
			{method: mnSCRAMPBKDF2SHA256, clientChallenge: newClientChallenge()},
			{method: mnSCRAMSHA256, clientChallenge: newClientChallenge()},
		},
	}
}

func (a *auth) clientChallengeFor(method string) []byte {
	for _, m := range a.methods {
		if m.method == method {
			return m.clientChallenge
		}
	}
	panic("protocol: unknown auth method " + method)
}

// initRequest returns the first message of the handshake.
func (a *auth) initRequest() *authInitReq {
	return &authInitReq{username: a.username, methods: a.methods}
}

// handleInitReply consumes the server's method choice and challenge,
// returning the second message of the handshake (the client proof).
func (a *auth) handleInitReply(rep *authInitRep) (*authFinalReq, error) {
	a.initRep = rep

	var clientProof []byte
	switch rep.method {
	case mnSCRAMSHA256:
		prms := rep.scram
		if len(prms.salt) != saltSize {
			return nil, fmt.Errorf("protocol: auth salt size %d, expected %d", len(prms.salt), saltSize)
		}
		if len(prms.serverChallenge) != serverChallengeSize {
			return nil, fmt.Errorf("protocol: auth server challenge size %d, expected %d", len(prms.serverChallenge), serverChallengeSize)
		}
		clientProof = clientProofSCRAMSHA256(prms.salt, prms.serverChallenge, a.clientChallengeFor(rep.method), []byte(a.password))
	case mnSCRAMPBKDF2SHA256:
		prms := rep.pbkdf2
		if len(prms.salt) != saltSize {
			return nil, fmt.Errorf("protocol: auth salt size %d, expected %d", len(prms.salt), saltSize)
		}
		if len(prms.serverChallenge) != serverChallengeSize {
			return nil, fmt.Errorf("protocol: auth server challenge size %d, expected %d", len(prms.serverChallenge), serverChallengeSize)
		}
		clientProof = clientProofSCRAMPBKDF2SHA256(prms.salt, prms.serverChallenge, prms.rounds, a.clientChallengeFor(rep.method), []byte(a.password))
	default:
		return nil, fmt.Errorf("protocol: unsupported authentication method %q", rep.method)
	}
	if len(clientProof) != clientProofSize {
		return nil, fmt.Errorf("protocol: computed client proof size %d, expected %d", len(clientProof), clientProofSize)
	}
	return &authFinalReq{username: a.username, method: rep.method, prms: &authClientProofReq{clientProof: clientProof}}, nil
}

// verifyFinalReply checks only that the server returned a non-empty
// serverProof; the proof's value is not compared against anything the
// client derives.
func (a *auth) verifyFinalReply(rep *authFinalRep) error {
	if len(rep.prms.serverProof) == 0 {
		return fmt.Errorf("protocol: empty server proof")
	}
	return nil
}

func decodeShortCESU8String(dec *encoding.Decoder) string {
	size := dec.Byte()
	b, _ := dec.CESU8Bytes(int(size)) // decode error, if any, is latched on dec
	return string(b)
}

func encodeShortCESU8String(enc *encoding.Encoder, s string) error {
	size := cesu8.StringSize(s)
	if size > math.MaxUint8 {
		return fmt.Errorf("protocol: auth parameter too long: %d bytes", size)
	}
	enc.Byte(byte(size))
	enc.CESU8Bytes([]byte(s))
	return enc.Error()
}

func decodeShortBytes(dec *encoding.Decoder) []byte {
	size := dec.Byte()
	b := make([]byte, size)
	dec.Bytes(b)
	return b
}

func encodeShortBytes(enc *encoding.Encoder, b []byte) error {
	if len(b) > math.MaxUint8 {
		return fmt.Errorf("protocol: auth parameter too long: %d bytes", len(b))
	}
	enc.Byte(byte(len(b)))
	enc.Bytes(b)
	return enc.Error()
}
