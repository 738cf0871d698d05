// SPDX-FileCopyrightText: 2014-2022 SAP SE
//
// SPDX-License-Identifier: Apache-2.0

package hdbwire

import (
	"sync"

	"github.com/hdbwire/hdbwire/hdberrors"
	"github.com/hdbwire/hdbwire/internal/protocol"
)

// Value is a decoded result column or a bound LOB placeholder, re-exported
// as-is from the wire codec: nil, bool, int64, float64, []byte, string,
// *big.Rat, time.Time, or *protocol.LobOutDescr.
type Value = protocol.Value

// Field describes one result column's name, wire type and nullability.
type Field = protocol.ResultField

// Rows iterates a query's result set, paging in further chunks from the
// server as needed. It is not safe for concurrent use by multiple
// goroutines (spec invariant: result-set state lives behind its own lock,
// not shared across Conn operations run concurrently on the same Rows).
type Rows struct {
	mu   sync.Mutex
	sess *protocol.Session
	cur  *protocol.ResultSetCursor

	pos int // index of the current row within cur.Rows(), -1 before first Next
	err error
}

func newRows(sess *protocol.Session, cur *protocol.ResultSetCursor) *Rows {
	return &Rows{sess: sess, cur: cur, pos: -1}
}

// Fields describes the result columns, stable for the lifetime of Rows.
func (r *Rows) Fields() []*Field { return r.cur.Fields }

// NumCols is the number of result columns.
func (r *Rows) NumCols() int { return r.cur.NumCols() }

// Next advances to the next row, transparently issuing a FetchNext request
// when the currently held chunk is exhausted and the server has more.
// It returns false at the end of the result set or after an error; use Err
// to distinguish the two.
func (r *Rows) Next() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.err != nil {
		return false
	}
	cols := r.cur.NumCols()
	if cols == 0 {
		return false
	}

	r.pos++
	for r.pos >= len(r.cur.Rows())/cols {
		if r.cur.LastChunk() {
			return false
		}
		if err := r.sess.FetchNext(r.cur); err != nil {
			r.err = hdberrors.Classify(err)
			return false
		}
		if len(r.cur.Rows()) == 0 {
			// A non-last chunk that fetched zero rows carries no forward
			// progress; treat it as exhausted rather than looping forever.
			if r.cur.LastChunk() {
				return false
			}
			r.err = hdberrors.Newf(hdberrors.KindImpl, "hdbwire: server returned an empty non-final result-set chunk")
			return false
		}
		r.pos = 0
	}
	return true
}

// Err returns the first error encountered by Next, if any.
func (r *Rows) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// Value returns the current row's value for column col (0-based). It
// panics if called before a successful Next or with col out of range,
// the same contract database/sql's Rows.Scan-adjacent accessors follow.
func (r *Rows) Value(col int) Value {
	r.mu.Lock()
	defer r.mu.Unlock()
	cols := r.cur.NumCols()
	return r.cur.Rows()[r.pos*cols+col]
}

// Lob wraps column col's value as a streaming LOB reader. It returns an
// error if the column is not a LOB type or the value is SQL NULL.
func (r *Rows) Lob(col int) (*Lob, error) {
	v := r.Value(col)
	if v.IsNull() {
		return nil, hdberrors.Newf(hdberrors.KindUsage, "hdbwire: column %d is NULL, not a LOB", col)
	}
	descr, ok := v.Interface().(*protocol.LobOutDescr)
	if !ok {
		return nil, hdberrors.Newf(hdberrors.KindUsage, "hdbwire: column %d is not a LOB column", col)
	}
	return newLob(r.sess, descr, v.TypeCode()), nil
}

// Close releases the server-side cursor if the last fetched chunk was not
// already the final one. It is idempotent and safe to call after the
// result set has been fully consumed.
func (r *Rows) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.cur.NeedsClose() {
		return nil
	}
	return hdberrors.Classify(r.sess.CloseResultSet(r.cur))
}
