// SPDX-FileCopyrightText: 2014-2022 SAP SE
//
// SPDX-License-Identifier: Apache-2.0

package protocol

import (
	"context"
	"io"
	"net"
	"testing"
	"time"

	"github.com/hdbwire/hdbwire/internal/protocol/encoding"
)

// fakeServer is the server half of an in-memory duplex (net.Pipe), scripted
// by a test to drive a real *Session through its wire protocol without a
// live HANA instance: read a request's message type off the wire, then
// hand back a canned reply built from raw parts.
type fakeServer struct {
	t   *testing.T
	enc *encoding.Encoder
	dec *encoding.Decoder
}

func newFakeServer(t *testing.T, conn net.Conn) *fakeServer {
	return &fakeServer{
		t:   t,
		enc: encoding.NewEncoder(conn, newCesu8Encoder),
		dec: encoding.NewDecoder(conn, newCesu8Decoder),
	}
}

// recvRequest reads one request message's headers and discards its body,
// returning enough to identify what the client asked for.
func (fs *fakeServer) recvRequest() (sessionID int64, mt MessageType) {
	fs.t.Helper()
	var mh messageHeader
	if err := mh.decode(fs.dec); err != nil {
		fs.t.Fatalf("fake server: decode message header: %v", err)
	}
	var sh segmentHeader
	if err := sh.decode(fs.dec); err != nil {
		fs.t.Fatalf("fake server: decode segment header: %v", err)
	}
	remaining := int(mh.varPartLength) - segmentHeaderSize
	if remaining > 0 {
		fs.dec.Skip(remaining)
	}
	if err := fs.dec.Error(); err != nil {
		fs.t.Fatalf("fake server: read request body: %v", err)
	}
	return mh.sessionID, sh.messageType
}

// fakePart is one part of a scripted reply, encoded ahead of time by the
// caller (fields that need CESU-8 or length-indicator framing are encoded
// through the same encoding.Encoder helpers the real codec uses).
type fakePart struct {
	kind     PartKind
	attrs    partAttributes
	argCount int32
	body     []byte
}

// sendReply writes one reply message: message header, segment header
// (segmentKind skReply, the given FunctionCode), then each part's header,
// body and padding, mirroring Writer.Write's framing for the reply side.
func (fs *fakeServer) sendReply(sessionID int64, fc FunctionCode, parts ...fakePart) {
	fs.t.Helper()
	size := int64(segmentHeaderSize + len(parts)*partHeaderSize)
	for _, p := range parts {
		size += int64(len(p.body) + padBytes(len(p.body)))
	}

	mh := messageHeader{sessionID: sessionID, varPartLength: uint32(size), varPartSize: uint32(size), noOfSegm: 1}
	if err := mh.encode(fs.enc); err != nil {
		fs.t.Fatalf("fake server: encode message header: %v", err)
	}
	sh := segmentHeader{segmentLength: int32(size), noOfParts: int16(len(parts)), segmentNo: 1, segmentKind: skReply, functionCode: fc}
	if err := sh.encode(fs.enc); err != nil {
		fs.t.Fatalf("fake server: encode segment header: %v", err)
	}

	bufferSize := size - segmentHeaderSize
	for _, p := range parts {
		s := len(p.body)
		pad := padBytes(s)
		ph := PartHeader{PartKind: p.kind, attributes: uint8(p.attrs), argCount: p.argCount, bufferLength: int32(s), bufferSize: int32(bufferSize)}
		if err := ph.encode(fs.enc); err != nil {
			fs.t.Fatalf("fake server: encode part header: %v", err)
		}
		fs.enc.Bytes(p.body)
		fs.enc.Zeroes(pad)
		bufferSize -= int64(partHeaderSize + s + pad)
	}
	if err := fs.enc.Error(); err != nil {
		fs.t.Fatalf("fake server: write reply: %v", err)
	}
}

// encodeAuthInitRep builds the body of an authInitRep part (SCRAMSHA256
// only; PBKDF2 is not exercised by these tests) with a syntactically valid
// salt/challenge: auth.handleInitReply only checks their lengths, never
// their content, and Session.authenticate never verifies the server's
// proof cryptographically (verifyFinalReply only checks it is non-empty).
func encodeAuthInitRep() []byte {
	var buf fakeEncBuf
	enc := encoding.NewEncoder(&buf, newCesu8Encoder)
	enc.Int16(2)
	_ = encodeShortBytes(enc, []byte(mnSCRAMSHA256))
	enc.Byte(0) // sub-parameter length, not checked by the decoder
	enc.Int16(2)
	_ = encodeShortBytes(enc, make([]byte, saltSize))
	_ = encodeShortBytes(enc, make([]byte, serverChallengeSize))
	return buf.b
}

// encodeAuthFinalRep builds the body of an authFinalRep part carrying a
// non-empty (but otherwise arbitrary) server proof.
func encodeAuthFinalRep() []byte {
	var buf fakeEncBuf
	enc := encoding.NewEncoder(&buf, newCesu8Encoder)
	enc.Int16(2)
	_ = encodeShortBytes(enc, []byte(mnSCRAMSHA256))
	enc.Byte(0)
	enc.Int16(1)
	_ = encodeShortBytes(enc, []byte{1, 2, 3, 4})
	return buf.b
}

// fakeEncBuf is a minimal io.Writer sink, avoiding a bytes.Buffer import
// purely for these small fixed-shape auth reply bodies.
type fakeEncBuf struct{ b []byte }

func (b *fakeEncBuf) Write(p []byte) (int, error) {
	b.b = append(b.b, p...)
	return len(p), nil
}

// newCesu8FakeEncoder builds a plain encoding.Encoder over w, for the
// fake-server helpers that hand-encode one part body at a time.
func newCesu8FakeEncoder(w io.Writer) *encoding.Encoder {
	return encoding.NewEncoder(w, newCesu8Encoder)
}

// attrsFor returns the Resultset part attributes for a chunk, setting the
// last-packet bit when last is true.
func attrsFor(last bool) partAttributes {
	if last {
		return paLastPacket
	}
	return 0
}

// encodeResultsetID builds the wire body of a ResultsetID part.
func encodeResultsetID(id uint64) []byte {
	var buf fakeEncBuf
	newCesu8FakeEncoder(&buf).Uint64(id)
	return buf.b
}

// encodeHdbError builds the wire body of a single-entry Error part (the
// fake-duplex tests never exercise a multi-error batch reply's differently
// shaped padding).
func encodeHdbError(code, pos int32, text string) []byte {
	var buf fakeEncBuf
	enc := newCesu8FakeEncoder(&buf)
	enc.Int32(code)
	enc.Int32(pos)
	enc.Int32(int32(len(text)))
	enc.Int8(int8(errorLevelError))
	enc.Bytes([]byte("HY000"))
	enc.Bytes([]byte(text))
	enc.Byte(0) // numArg==1 padding, mirrors HdbErrors.decode
	return buf.b
}

// encodeHdbErrorsBatch builds the wire body of a multi-entry Error part,
// one HdbError per text in texts, using the >1-entry padding rule
// (errorFixLength + errorTextLength, rounded to the next multiple of 8).
func encodeHdbErrorsBatch(code, pos int32, texts []string) []byte {
	var buf fakeEncBuf
	enc := newCesu8FakeEncoder(&buf)
	for _, text := range texts {
		enc.Int32(code)
		enc.Int32(pos)
		enc.Int32(int32(len(text)))
		enc.Int8(int8(errorLevelError))
		enc.Bytes([]byte("HY000"))
		enc.Bytes([]byte(text))
		enc.Zeroes(padBytes(errorFixLength + len(text)))
	}
	return buf.b
}

// encodeXAOptions builds the wire body of an XatOptions part carrying a
// single XoReturnCode entry.
func encodeXAOptions(code XAReturnCode) []byte {
	xo := newXAOptions(xaFlagNoFlags)
	xo.setInt32(XoReturnCode, int32(code))
	var buf fakeEncBuf
	if err := xo.encode(newCesu8FakeEncoder(&buf)); err != nil {
		panic(err)
	}
	return buf.b
}

// fakeSessionConfig is a minimal SessionConfig for the fake-duplex tests.
// redial, when set, is invoked on reconnect; tests that do not exercise
// reconnect leave it nil and Redial returns an error.
type fakeSessionConfig struct {
	fetchSize int32
	redial    func(ctx context.Context) (io.ReadWriteCloser, error)
}

func (c *fakeSessionConfig) Username() string             { return "tester" }
func (c *fakeSessionConfig) Password() string              { return "secret" }
func (c *fakeSessionConfig) Locale() string                { return "en_US" }
func (c *fakeSessionConfig) ApplicationName() string       { return "hdbwire-test" }
func (c *fakeSessionConfig) DatabaseName() string          { return "" }
func (c *fakeSessionConfig) LobChunkSize() int32           { return 1 << 14 }
func (c *fakeSessionConfig) Compression() CompressionMode  { return 0 }
func (c *fakeSessionConfig) Logger() *Logger               { return nil }
func (c *fakeSessionConfig) FetchSize() int32 {
	if c.fetchSize == 0 {
		return defaultFetchSize
	}
	return c.fetchSize
}
func (c *fakeSessionConfig) Redial(ctx context.Context) (io.ReadWriteCloser, error) {
	if c.redial == nil {
		return nil, io.ErrClosedPipe
	}
	return c.redial(ctx)
}

// runAuthHandshake drives the server side of NewSession's CONNECT/
// Authenticate exchange over conn, then hands the connection over to fn
// for the rest of the scripted scenario. sessionID is the id the client
// will adopt for every subsequent request.
func runAuthHandshake(t *testing.T, conn net.Conn, sessionID int64, fn func(fs *fakeServer)) {
	t.Helper()
	fs := newFakeServer(t, conn)

	if _, mt := fs.recvRequest(); mt != MtAuthenticate {
		t.Fatalf("fake server: expected Authenticate, got %s", mt)
	}
	fs.sendReply(-1, FcNil, fakePart{kind: pkAuthentication, argCount: 1, body: encodeAuthInitRep()})

	if _, mt := fs.recvRequest(); mt != MtConnect {
		t.Fatalf("fake server: expected Connect, got %s", mt)
	}
	fs.sendReply(sessionID, FcNil, fakePart{kind: pkAuthentication, argCount: 1, body: encodeAuthFinalRep()})

	if fn != nil {
		fn(fs)
	}
}

// newFakeSession dials an in-memory duplex, authenticates a real Session
// against a scripted fake server running in a background goroutine, and
// returns the Session plus a channel the test can use to wait for the
// server goroutine to finish its script (and surface any fs.t.Fatalf as a
// real test failure, since that happens on a different goroutine).
func newFakeSession(t *testing.T, sessionID int64, script func(fs *fakeServer)) (*Session, *fakeSessionConfig) {
	t.Helper()
	clientConn, serverConn := net.Pipe()
	t.Cleanup(func() { clientConn.Close(); serverConn.Close() })

	cfg := &fakeSessionConfig{}
	done := make(chan struct{})
	go func() {
		defer close(done)
		runAuthHandshake(t, serverConn, sessionID, script)
	}()

	sess, err := NewSession(clientConn, cfg)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	t.Cleanup(func() {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Error("fake server goroutine did not finish")
		}
	})
	return sess, cfg
}
