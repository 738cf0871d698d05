// SPDX-FileCopyrightText: 2014-2022 SAP SE
//
// SPDX-License-Identifier: Apache-2.0

package protocol

// MessageType identifies the request a message carries, driving the
// request-side "command options" bitfield and the reply-side ReplyType.
type MessageType int8

// MessageType / request-type constants.
const (
	MtNil             MessageType = 0
	MtAuthenticate    MessageType = 65
	MtConnect         MessageType = 66
	MtExecuteDirect   MessageType = 2
	MtPrepare         MessageType = 3
	MtExecute         MessageType = 13
	MtFetchNext       MessageType = 5
	MtReadLob         MessageType = 28
	MtWriteLob        MessageType = 29
	MtCloseResultset  MessageType = 26
	MtDropStatementID MessageType = 24
	MtCommit          MessageType = 7
	MtRollback        MessageType = 8
	MtDisconnect      MessageType = 77
	MtDBConnectInfo   MessageType = 82
	MtXAStart         MessageType = 83
	MtXAEnd           MessageType = 84
	MtXAPrepare       MessageType = 85
	MtXACommit        MessageType = 86
	MtXARollback      MessageType = 87
	MtXAForget        MessageType = 88
	MtXARecover       MessageType = 89
)

var messageTypeNames = map[MessageType]string{
	MtNil: "Nil", MtAuthenticate: "Authenticate", MtConnect: "Connect",
	MtExecuteDirect: "ExecuteDirect", MtPrepare: "Prepare", MtExecute: "Execute",
	MtFetchNext: "FetchNext", MtReadLob: "ReadLob", MtWriteLob: "WriteLob",
	MtCloseResultset: "CloseResultSet", MtDropStatementID: "DropStatementID",
	MtCommit: "Commit", MtRollback: "Rollback", MtDisconnect: "Disconnect",
	MtDBConnectInfo: "DBConnectInfo",
	MtXAStart: "XAStart", MtXAEnd: "XAEnd", MtXAPrepare: "XAPrepare",
	MtXACommit: "XACommit", MtXARollback: "XARollback", MtXAForget: "XAForget",
	MtXARecover: "XARecover",
}

func (t MessageType) String() string {
	if s, ok := messageTypeNames[t]; ok {
		return s
	}
	return "Unknown"
}

// ClientInfoSupported reports whether this message type may be preceded by
// a ClientInfo part when session variables were touched.
func (t MessageType) ClientInfoSupported() bool {
	switch t {
	case MtExecuteDirect, MtExecute, MtPrepare:
		return true
	default:
		return false
	}
}

// FunctionCode classifies a reply for driver.Result purposes.
type FunctionCode int16

// FunctionCode constants (subset).
const (
	FcNil FunctionCode = iota
	FcDDL
	FcInsert
	FcUpdate
	FcDelete
	FcSelect
	FcSelectForUpdate
	FcExplain
	FcDBProcedureCall
)

// SegmentKind identifies whether a segment is a request, reply or error.
type SegmentKind int8

// SegmentKind constants.
const (
	skRequest SegmentKind = 1
	skReply   SegmentKind = 2
	skError   SegmentKind = 5
)
