// SPDX-FileCopyrightText: 2014-2022 SAP SE
//
// SPDX-License-Identifier: Apache-2.0

package protocol

import "github.com/hdbwire/hdbwire/internal/protocol/encoding"

// StatementID identifies a server-side prepared statement handle for the
// lifetime of the session (or until DropStatementID releases it).
type StatementID uint64

func (id StatementID) numArg() int { return 1 }

func (id StatementID) size() int { return 8 }

func (id StatementID) encode(enc *encoding.Encoder) error {
	enc.Uint64(uint64(id))
	return enc.Error()
}

func decodeStatementID(dec *encoding.Decoder) (StatementID, error) {
	id := StatementID(dec.Uint64())
	return id, dec.Error()
}

// PrepareResult is the Prepare reply: the statement handle plus the bind
// and (for queries) result column descriptors needed to encode Execute
// requests and decode their replies (spec invariant: describe precedes
// every execute).
type PrepareResult struct {
	StmtID       StatementID
	FunctionCode FunctionCode
	ParamFields  []*ParameterField
	ResultFields []*ResultField
}

// IsQuery reports whether the prepared statement returns a result set,
// i.e. Execute must be dispatched as Query rather than Exec.
func (pr *PrepareResult) IsQuery() bool { return len(pr.ResultFields) > 0 }
