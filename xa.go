// SPDX-FileCopyrightText: 2014-2022 SAP SE
//
// SPDX-License-Identifier: Apache-2.0

package hdbwire

import (
	"github.com/hdbwire/hdbwire/hdberrors"
	"github.com/hdbwire/hdbwire/internal/protocol"
)

// XID is an opaque global transaction id, as defined by the X/Open XA
// specification and carried verbatim on the wire.
type XID = protocol.XID

// NewXID returns a fresh XID seeded from a random UUID, for a caller that
// does not already have a global transaction id from its transaction
// manager.
func NewXID() XID { return protocol.NewXID() }

// XA exposes the resource-manager verbs a distributed transaction manager
// drives a Conn through. The connection must have auto-commit off for the
// duration of the branch (SetAutoCommit(false)).
type XA struct {
	conn *Conn
}

// XA returns the resource-manager interface for c.
func (c *Conn) XA() *XA { return &XA{conn: c} }

// Start associates id with the session's subsequent work. flags is
// restricted to TMNOFLAGS|TMJOIN|TMRESUME.
func (x *XA) Start(id XID, flags int32) error {
	return hdberrors.Classify(x.conn.sess.XAStart(id, flags))
}

// End dissociates id from the session. flags is restricted to
// TMSUCCESS|TMFAIL|TMSUSPEND.
func (x *XA) End(id XID, flags int32) error {
	return hdberrors.Classify(x.conn.sess.XAEnd(id, flags))
}

// Prepare asks the resource manager to vote on committing id. readOnly is
// true when there was nothing to commit.
func (x *XA) Prepare(id XID) (readOnly bool, err error) {
	readOnly, err = x.conn.sess.XAPrepare(id)
	return readOnly, hdberrors.Classify(err)
}

// Commit commits id. onePhase skips the prepare round trip.
func (x *XA) Commit(id XID, onePhase bool) error {
	return hdberrors.Classify(x.conn.sess.XACommit(id, onePhase))
}

// Rollback rolls back id.
func (x *XA) Rollback(id XID) error {
	return hdberrors.Classify(x.conn.sess.XARollback(id))
}

// Forget releases a heuristically-completed id.
func (x *XA) Forget(id XID) error {
	return hdberrors.Classify(x.conn.sess.XAForget(id))
}

// Recover asks the resource manager for in-doubt transaction ids in a
// single round trip, passing onlyCommitted along. At most one id is
// returned.
func (x *XA) Recover(onlyCommitted bool) ([]XID, error) {
	ids, err := x.conn.sess.XARecover(onlyCommitted)
	return ids, hdberrors.Classify(err)
}
