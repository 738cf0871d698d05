// SPDX-FileCopyrightText: 2014-2022 SAP SE
//
// SPDX-License-Identifier: Apache-2.0

package protocol

import (
	"fmt"

	"github.com/hdbwire/hdbwire/internal/protocol/encoding"
)

const locatorIDSize = 8

// writeLobRequestSize is the fixed-size prefix (locator id + options +
// offset + chunk length) of a single WriteLob request entry.
const writeLobRequestSize = 8 + 1 + 8 + 4

// LobOptions is the per-chunk bitfield carried on ReadLob/WriteLob
// request and reply entries.
type LobOptions int8

// LobOptions bits.
const (
	loNullIndicator LobOptions = 0x01
	loDataIncluded  LobOptions = 0x02
	loLastData      LobOptions = 0x04
)

func (o LobOptions) isNull() bool     { return o&loNullIndicator != 0 }
func (o LobOptions) hasData() bool    { return o&loDataIncluded != 0 }
func (o LobOptions) isLastData() bool { return o&loLastData != 0 }

// LocatorID identifies a server-side LOB locator for the lifetime of a
// transaction.
type LocatorID uint64

func (id LocatorID) String() string { return fmt.Sprintf("%d", id) }

// LobOutDescr is the result-side descriptor read inline with a row: the
// total character/byte count, the locator to fetch the remainder with, and
// whatever prefix bytes the server already included in the row.
type LobOutDescr struct {
	IsCharBased bool
	id          LocatorID
	numChar     int64
	numByte     int64
	b           []byte
	eof         bool
}

// ID returns the server-side LOB locator.
func (d *LobOutDescr) ID() LocatorID { return d.id }

// Prefix returns the bytes already delivered inline with the row.
func (d *LobOutDescr) Prefix() []byte { return d.b }

// Complete reports whether the inline prefix already contains the entire
// LOB value (no further ReadLob round trips are necessary).
func (d *LobOutDescr) Complete() bool { return d.eof }

// NumByte returns the total LOB size in bytes (BLOB/CLOB) as reported by
// the server.
func (d *LobOutDescr) NumByte() int64 { return d.numByte }

// NumChar returns the total LOB size in characters (NCLOB/TEXT).
func (d *LobOutDescr) NumChar() int64 { return d.numChar }

func decodeLobOutDescr(dec *encoding.Decoder, isCharBased bool) (*LobOutDescr, error) {
	descr := &LobOutDescr{IsCharBased: isCharBased}
	dec.Skip(1) // lob type code, redundant with the column's TypeCode
	opt := LobOptions(dec.Int8())
	if opt.isNull() {
		return nil, nil
	}
	dec.Skip(2)
	descr.numChar = dec.Int64()
	descr.numByte = dec.Int64()
	descr.id = LocatorID(dec.Uint64())
	size := int(dec.Int32())
	descr.b = make([]byte, size)
	dec.Bytes(descr.b)
	descr.eof = opt.isLastData()
	return descr, dec.Error()
}

// readLobRequest asks the server for the next chunk of a LOB locator.
type readLobRequest struct {
	id     LocatorID
	ofs    int64 // 0-based byte/char offset into the LOB value
	length int32
}

func (r *readLobRequest) numArg() int { return 1 }

func (r *readLobRequest) size() int { return 8 + 8 + 4 + 4 }

func (r *readLobRequest) encode(enc *encoding.Encoder) error {
	enc.Uint64(uint64(r.id))
	enc.Int64(r.ofs + 1) // wire offset is 1-based
	enc.Int32(r.length)
	enc.Zeroes(4)
	return enc.Error()
}

// readLobReply carries the next chunk of a previously requested LOB
// locator.
type readLobReply struct {
	id   LocatorID
	data []byte
	eof  bool
}

func decodeReadLobReply(dec *encoding.Decoder, ph *PartHeader) (*readLobReply, error) {
	if ph.numArg() != 1 {
		return nil, fmt.Errorf("protocol: read lob reply expects exactly one entry, got %d", ph.numArg())
	}
	r := &readLobReply{}
	r.id = LocatorID(dec.Uint64())
	opt := LobOptions(dec.Int8())
	chunkLen := dec.Int32()
	dec.Skip(3)
	r.data = make([]byte, chunkLen)
	dec.Bytes(r.data)
	r.eof = opt.isLastData()
	return r, dec.Error()
}

// writeLobRequest pushes one chunk per pending write-side LOB locator in a
// single request.
type writeLobRequest struct {
	chunks []writeLobChunk
}

type writeLobChunk struct {
	id   LocatorID
	data []byte
	eof  bool
}

func (r *writeLobRequest) numArg() int { return len(r.chunks) }

func (r *writeLobRequest) size() int {
	n := 0
	for _, c := range r.chunks {
		n += writeLobRequestSize + len(c.data)
	}
	return n
}

func (r *writeLobRequest) encode(enc *encoding.Encoder) error {
	for _, c := range r.chunks {
		enc.Uint64(uint64(c.id))
		opt := loDataIncluded
		if c.eof {
			opt |= loLastData
		}
		enc.Int8(int8(opt))
		enc.Int64(-1) // offset -1 == append
		enc.Int32(int32(len(c.data)))
		enc.Bytes(c.data)
	}
	return enc.Error()
}

// writeLobReply returns the locator ids the server allocated for pending
// write-side LOB parameters of an Execute request.
type writeLobReply struct {
	ids []LocatorID
}

func decodeWriteLobReply(dec *encoding.Decoder, ph *PartHeader) (*writeLobReply, error) {
	numArg := ph.numArg()
	r := &writeLobReply{ids: make([]LocatorID, numArg)}
	for i := range r.ids {
		r.ids[i] = LocatorID(dec.Uint64())
	}
	return r, dec.Error()
}
