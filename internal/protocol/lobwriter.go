// SPDX-FileCopyrightText: 2014-2022 SAP SE
//
// SPDX-License-Identifier: Apache-2.0

package protocol

import (
	"io"

	"github.com/hdbwire/hdbwire/internal/unicode/cesu8"
	"golang.org/x/text/transform"
)

// LobInDescr wraps an application-supplied reader as an outbound LOB
// parameter: the placeholder substituted into the parameter row is a
// reservation, and the actual bytes stream out over one or more WriteLob
// round trips once the server has allocated a locator.
type LobInDescr struct {
	rd      io.Reader
	charLob bool

	eof bool
}

// NewLobInDescr wraps rd as a binary (BLOB/CLOB) outbound LOB.
func NewLobInDescr(rd io.Reader) *LobInDescr { return &LobInDescr{rd: rd} }

// NewNCLobInDescr wraps rd, encoding its UTF-8 content as CESU-8 on the
// wire, as an outbound NCLOB/TEXT parameter.
func NewNCLobInDescr(rd io.Reader) *LobInDescr {
	return &LobInDescr{rd: transform.NewReader(rd, new(cesu8.Encoder)), charLob: true}
}

// EOF reports whether the last chunk read was the final one.
func (d *LobInDescr) EOF() bool { return d.eof }

// nextChunk reads up to lobChunkSize bytes, reporting eof once the
// underlying reader is exhausted.
func (d *LobInDescr) nextChunk() ([]byte, bool, error) {
	buf := make([]byte, lobChunkSize)
	n, err := io.ReadFull(d.rd, buf)
	switch err {
	case nil:
		return buf[:n], false, nil
	case io.ErrUnexpectedEOF, io.EOF:
		d.eof = true
		return buf[:n], true, nil
	default:
		return nil, false, err
	}
}

// lobWriteSession drives the WriteLob round trips for a batch of pending
// outbound LOB placeholders, implemented by the session (C5/C6 request
// dispatch).
type lobWriteSession interface {
	WriteLobChunks(chunks []writeLobChunk) (*writeLobReply, error)
}

// WriteLobs streams every descr in descrs to completion against locators,
// issuing WriteLob requests in lobChunkSize rounds until all readers report
// eof.
func WriteLobs(sess lobWriteSession, locators []LocatorID, descrs []*LobInDescr) error {
	pending := make([]int, 0, len(descrs))
	for i, d := range descrs {
		if !d.eof {
			pending = append(pending, i)
		}
	}

	for len(pending) > 0 {
		chunks := make([]writeLobChunk, 0, len(pending))
		for _, i := range pending {
			data, eof, err := descrs[i].nextChunk()
			if err != nil {
				return err
			}
			chunks = append(chunks, writeLobChunk{id: locators[i], data: data, eof: eof})
		}
		if _, err := sess.WriteLobChunks(chunks); err != nil {
			return err
		}
		next := pending[:0]
		for _, i := range pending {
			if !descrs[i].eof {
				next = append(next, i)
			}
		}
		pending = next
	}
	return nil
}
