// SPDX-FileCopyrightText: 2014-2022 SAP SE
//
// SPDX-License-Identifier: Apache-2.0

package protocol

import (
	"fmt"

	"github.com/hdbwire/hdbwire/internal/protocol/encoding"
)

// ResultsetID identifies a server-side cursor.
type ResultsetID uint64

func (id ResultsetID) String() string { return fmt.Sprintf("%d", id) }

func (id *ResultsetID) decode(dec *encoding.Decoder) error {
	*id = ResultsetID(dec.Uint64())
	return dec.Error()
}

func (id ResultsetID) encode(enc *encoding.Encoder) error {
	enc.Uint64(uint64(id))
	return enc.Error()
}

func (id ResultsetID) numArg() int { return 1 }

func (id ResultsetID) size() int { return 8 }

// rowBody decodes numArg rows of a Resultset part (pkResultset) into a flat
// row-major Value slice, given the column scales from ResultMetadata.
func decodeResultRows(dec *encoding.Decoder, fields []*ResultField, numArg int) ([]Value, error) {
	values := make([]Value, numArg*len(fields))
	for i := 0; i < numArg; i++ {
		for j, f := range fields {
			if f.TypeCode.IsLob() {
				descr, err := decodeLobOutDescr(dec, f.TypeCode.isCharBased())
				if err != nil {
					return nil, err
				}
				values[i*len(fields)+j] = Value{tc: f.TypeCode, v: descr}
				continue
			}
			v, err := decodeValue(dec, f.TypeCode, f.Scale())
			if err != nil {
				return nil, err
			}
			values[i*len(fields)+j] = v
		}
	}
	return values, nil
}

// ResultSetCursor is a bound server cursor plus the window of row values
// fetched so far, advanced by FetchNext and released on close (spec
// invariant: result-set close-on-drop when the last FetchNext reply does
// not carry the last-packet attribute, it must be explicitly closed).
type ResultSetCursor struct {
	Fields []*ResultField

	id        ResultsetID
	lastChunk bool
	closed    bool

	rows []Value
}

// LastChunk reports whether the most recently fetched chunk was the final
// one (server set the last-packet part attribute).
func (c *ResultSetCursor) LastChunk() bool { return c.lastChunk }

// Closed reports whether the server cursor has already been released,
// either explicitly or implicitly via LastChunk.
func (c *ResultSetCursor) Closed() bool { return c.closed }

// NeedsClose reports whether a CloseResultSet request must still be sent
// to release server-side cursor resources.
func (c *ResultSetCursor) NeedsClose() bool { return !c.closed && !c.lastChunk }

func (c *ResultSetCursor) applyChunk(rows []Value, attrs partAttributes) {
	c.rows = rows
	c.lastChunk = attrs.isLastPacket()
	if c.lastChunk {
		c.closed = true
	}
}

func (c *ResultSetCursor) markClosed() { c.closed = true }

// Rows returns the row-major Value slice of the currently held chunk.
func (c *ResultSetCursor) Rows() []Value { return c.rows }

// NumCols returns the column count.
func (c *ResultSetCursor) NumCols() int { return len(c.Fields) }
