// SPDX-FileCopyrightText: 2014-2022 SAP SE
//
// SPDX-License-Identifier: Apache-2.0

package protocol

import (
	"io"

	"github.com/hdbwire/hdbwire/internal/unicode/cesu8"
	"golang.org/x/text/transform"
)

func cesu8ToUTF8(p []byte) ([]byte, error) {
	out, _, err := transform.Bytes(new(cesu8.Decoder), p)
	return out, err
}

// lobChunkSize is the amount of LOB data requested per ReadLob round trip.
const lobChunkSize = 1 << 14

// LobFetcher performs the ReadLob request/reply round trip for a single
// locator, implemented by the session (C5/C6 request dispatch).
type LobFetcher interface {
	FetchLobChunk(id LocatorID, ofs int64, length int32) (data []byte, eof bool, err error)
}

// LobReader is an io.Reader streaming a BLOB/CLOB value, fetching
// additional chunks on demand via a LobFetcher once the inline prefix
// delivered with the row is exhausted.
type LobReader struct {
	fetcher LobFetcher
	descr   *LobOutDescr

	buf []byte // unread bytes/chars of the current chunk
	ofs int64  // byte/char offset of the next chunk to fetch
	eof bool
}

// NewLobReader wraps descr for streamed reading via fetcher. If descr is
// already complete (its inline prefix holds the whole value), no further
// requests are issued.
func NewLobReader(descr *LobOutDescr, fetcher LobFetcher) *LobReader {
	return &LobReader{
		fetcher: fetcher,
		descr:   descr,
		buf:     descr.Prefix(),
		ofs:     int64(len(descr.Prefix())),
		eof:     descr.Complete(),
	}
}

// Read implements io.Reader, returning raw BLOB bytes or (for CLOB) raw
// ASCII/Latin1-compatible byte content. NCLOB/TEXT readers should wrap
// this in a CESU-8 to UTF-8 transform.Reader; see NewNCLobReader.
func (r *LobReader) Read(p []byte) (int, error) {
	for len(r.buf) == 0 {
		if r.eof {
			return 0, io.EOF
		}
		data, eof, err := r.fetcher.FetchLobChunk(r.descr.ID(), r.ofs, lobChunkSize)
		if err != nil {
			return 0, err
		}
		r.buf = data
		r.ofs += int64(len(data))
		r.eof = eof
	}
	n := copy(p, r.buf)
	r.buf = r.buf[n:]
	return n, nil
}

// ncLobReader wraps a raw CESU-8 chunk stream, buffering an incomplete
// trailing surrogate half across chunk boundaries (spec invariant: NCLob
// surrogate safety) and exposing valid UTF-8 to the caller.
type ncLobReader struct {
	src  *LobReader
	tail []byte // incomplete CESU-8 sequence carried over from the last Read
}

// NewNCLobReader wraps descr for streamed reading of an NCLOB/TEXT value,
// converting CESU-8 chunks to UTF-8 without ever splitting a surrogate
// pair across a Read boundary.
func NewNCLobReader(descr *LobOutDescr, fetcher LobFetcher) io.Reader {
	return &ncLobReader{src: NewLobReader(descr, fetcher)}
}

func (r *ncLobReader) Read(p []byte) (int, error) {
	raw := make([]byte, len(p))
	n, err := r.src.Read(raw)
	if n == 0 {
		if err == io.EOF && len(r.tail) > 0 {
			// a dangling tail at true EOF is a malformed stream; surface it
			// rather than silently dropping bytes.
			return 0, io.ErrUnexpectedEOF
		}
		return 0, err
	}

	buf := append(r.tail, raw[:n]...)
	r.tail = nil

	if tailLen := cesu8.TailLen(buf); tailLen > 0 && err == nil {
		r.tail = append(r.tail, buf[len(buf)-tailLen:]...)
		buf = buf[:len(buf)-tailLen]
	}

	dst, decErr := cesu8ToUTF8(buf)
	if decErr != nil {
		return 0, decErr
	}
	return copy(p, dst), err
}
