// SPDX-FileCopyrightText: 2014-2022 SAP SE
//
// SPDX-License-Identifier: Apache-2.0

package hdbwire

import (
	"github.com/hdbwire/hdbwire/hdberrors"
	"github.com/hdbwire/hdbwire/internal/protocol"
)

// Conn is one authenticated wire conversation with a HANA instance,
// exposing the application-facing interface spec.md §6 describes: ad-hoc
// and prepared statement execution, result-set iteration, LOB streaming,
// and XA resource-manager verbs. It does not pool connections or manage
// SQL dialect (Non-goals) — a caller driving a pool holds one Conn per
// pooled connection.
type Conn struct {
	sess *protocol.Session
}

// Close sends Disconnect (best-effort) and closes the transport.
func (c *Conn) Close() error {
	return hdberrors.Classify(c.sess.Close())
}

// SetAutoCommit toggles implicit commit after ExecDirect/Execute; XA
// verbs require it off.
func (c *Conn) SetAutoCommit(v bool) { c.sess.SetAutoCommit(v) }

// InTx reports whether the connection is inside an open transaction.
func (c *Conn) InTx() bool { return c.sess.InTx() }

// SetClientInfo stores an application-facing session variable, sent with
// the next execute-family request.
func (c *Conn) SetClientInfo(k, v string) { c.sess.SetClientInfo(k, v) }

// Commit executes a database commit.
func (c *Conn) Commit() error { return hdberrors.Classify(c.sess.Commit()) }

// Rollback executes a database rollback.
func (c *Conn) Rollback() error { return hdberrors.Classify(c.sess.Rollback()) }

// ExecResult is the outcome of ExecDirect or a non-query Stmt.Execute: a
// function code, the rows affected, and (for SELECT) a Rows cursor.
type ExecResult struct {
	FunctionCode protocol.FunctionCode
	RowsAffected int64
	Rows         *Rows // nil unless FunctionCode is a select
}

// ExecDirect executes query as-is, without bind parameters.
func (c *Conn) ExecDirect(query string) (*ExecResult, error) {
	res, err := c.sess.ExecDirect(query)
	if err != nil {
		return nil, hdberrors.Classify(err)
	}
	out := &ExecResult{FunctionCode: res.FunctionCode, RowsAffected: res.RowsAffected}
	if res.Cursor != nil {
		out.Rows = newRows(c.sess, res.Cursor)
	}
	return out, nil
}

// Prepare describes query, returning a reusable Stmt.
func (c *Conn) Prepare(query string) (*Stmt, error) {
	pr, err := c.sess.Prepare(query)
	if err != nil {
		return nil, hdberrors.Classify(err)
	}
	return &Stmt{sess: c.sess, pr: pr}, nil
}
