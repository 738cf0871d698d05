// SPDX-FileCopyrightText: 2014-2022 SAP SE
//
// SPDX-License-Identifier: Apache-2.0

package hdbwire

import (
	"io"

	"github.com/hdbwire/hdbwire/internal/protocol"
)

// Lob is a streamed large-object value read back from a result row, a
// thin io.Reader over the wire's ReadLob round trips. BLOB/CLOB content is
// raw bytes; NCLOB/TEXT content is UTF-8, decoded from the wire's CESU-8
// without ever splitting a surrogate pair across a Read call.
type Lob struct {
	io.Reader
	descr *protocol.LobOutDescr
}

func newLob(sess *protocol.Session, descr *protocol.LobOutDescr, tc protocol.TypeCode) *Lob {
	var r io.Reader
	if tc.IsNCharLob() {
		r = protocol.NewNCLobReader(descr, sess)
	} else {
		r = protocol.NewLobReader(descr, sess)
	}
	return &Lob{Reader: r, descr: descr}
}

// NumByte is the LOB's total length in bytes, as reported by the server
// with the first chunk (BLOB/CLOB; meaningless for NCLOB/TEXT, see NumChar).
func (l *Lob) NumByte() int64 { return l.descr.NumByte() }

// NumChar is the LOB's total length in characters (NCLOB/TEXT only).
func (l *Lob) NumChar() int64 { return l.descr.NumChar() }

// NewLob wraps rd as a binary (BLOB/CLOB) outbound parameter to bind to a
// Stmt.Execute/ExecuteBatch call.
func NewLob(rd io.Reader) *protocol.LobInDescr { return protocol.NewLobInDescr(rd) }

// NewNCLob wraps rd, whose content must be valid UTF-8, as an outbound
// NCLOB/TEXT parameter, transcoding to CESU-8 on the wire.
func NewNCLob(rd io.Reader) *protocol.LobInDescr { return protocol.NewNCLobInDescr(rd) }
