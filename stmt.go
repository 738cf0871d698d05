// SPDX-FileCopyrightText: 2014-2022 SAP SE
//
// SPDX-License-Identifier: Apache-2.0

package hdbwire

import (
	"github.com/hdbwire/hdbwire/hdberrors"
	"github.com/hdbwire/hdbwire/internal/protocol"
)

// Stmt is a server-side prepared statement: one StatementID plus its
// bind/result column descriptors, reusable across many Execute calls.
type Stmt struct {
	sess *protocol.Session
	pr   *protocol.PrepareResult
}

// NumParams is the number of bind parameters the statement takes.
func (s *Stmt) NumParams() int { return len(s.pr.ParamFields) }

// IsQuery reports whether the statement returns a result set.
func (s *Stmt) IsQuery() bool { return s.pr.IsQuery() }

// Close drops the server-side statement handle.
func (s *Stmt) Close() error {
	return hdberrors.Classify(s.sess.DropStatementID(s.pr.StmtID))
}

// Execute binds one row of args (len(args) == NumParams()) and runs the
// statement. A *LobInDescr argument streams its content after the
// roundtrip completes, matching the wire's placeholder-then-WriteLob
// sequencing.
func (s *Stmt) Execute(args ...any) (*ExecResult, error) {
	return s.executeRows(args)
}

// ExecuteBatch binds rows (each of length NumParams()) and runs them in
// one Execute request, reporting one outcome per row via ExecResult's
// underlying RowsAffected breakdown.
func (s *Stmt) ExecuteBatch(rows [][]any) (*ExecResult, error) {
	flat := make([]any, 0, len(rows)*s.NumParams())
	for _, row := range rows {
		flat = append(flat, row...)
	}
	return s.executeRows(flat)
}

func (s *Stmt) executeRows(flatArgs []any) (*ExecResult, error) {
	res, err := s.sess.Execute(s.pr, flatArgs)
	if err != nil {
		return nil, hdberrors.Classify(err)
	}

	if len(res.LobLocators) > 0 {
		descrs := inputLobDescrs(flatArgs)
		if err := protocol.WriteLobs(s.sess, res.LobLocators, descrs); err != nil {
			return nil, hdberrors.Classify(err)
		}
	}

	out := &ExecResult{FunctionCode: res.FunctionCode, RowsAffected: res.RowsAffected.Total()}
	if res.Cursor != nil {
		out.Rows = newRows(s.sess, res.Cursor)
	}
	return out, nil
}

// inputLobDescrs collects the *protocol.LobInDescr values out of a bound
// argument list, in the order Execute's placeholder encoding emitted them
// (field order within each row, row-major), matching the order the
// server's WriteLobReply locators come back in.
func inputLobDescrs(args []any) []*protocol.LobInDescr {
	descrs := make([]*protocol.LobInDescr, 0, len(args))
	for _, v := range args {
		if d, ok := v.(*protocol.LobInDescr); ok {
			descrs = append(descrs, d)
		}
	}
	return descrs
}
