// SPDX-FileCopyrightText: 2014-2022 SAP SE
//
// SPDX-License-Identifier: Apache-2.0

package protocol

import "fmt"

// PartKind identifies the variant of a Part's payload.
type PartKind int8

// PartKind constants (subset of the wire protocol relevant to this core).
const (
	pkCommand             PartKind = 3
	pkResultset           PartKind = 5
	pkError               PartKind = 6
	pkStatementID         PartKind = 10
	pkTransactionFlags    PartKind = 11
	pkRowsAffected        PartKind = 12
	pkResultsetID         PartKind = 13
	pkTopologyInformation PartKind = 15
	pkTableLocation       PartKind = 16
	pkReadLobRequest      PartKind = 17
	pkReadLobReply        PartKind = 18
	pkAuthentication      PartKind = 19
	pkParameterMetadata   PartKind = 32
	pkParameters          PartKind = 33
	pkOutputParameters    PartKind = 34
	pkResultMetadata      PartKind = 30
	pkConnectOptions      PartKind = 42
	pkCommandInfo         PartKind = 27
	pkFetchSize           PartKind = 45
	pkClientContext       PartKind = 51
	pkWriteLobRequest     PartKind = 52
	pkWriteLobReply       PartKind = 53
	pkClientID            PartKind = 50
	pkStatementContext    PartKind = 56
	pkClientInfo          PartKind = 57
	pkDBConnectInfo       PartKind = 67
	pkLobFlags            PartKind = 68
	pkXatOptions          PartKind = 70
)

var partKindNames = map[PartKind]string{
	pkCommand: "Command", pkResultset: "ResultSet", pkError: "Error",
	pkStatementID: "StatementID", pkTransactionFlags: "TransactionFlags",
	pkRowsAffected: "RowsAffected", pkResultsetID: "ResultSetID",
	pkTopologyInformation: "TopologyInformation", pkTableLocation: "TableLocation",
	pkReadLobRequest: "ReadLobRequest", pkReadLobReply: "ReadLobReply",
	pkAuthentication: "Authentication", pkParameterMetadata: "ParameterMetadata",
	pkParameters: "Parameters", pkOutputParameters: "OutputParameters",
	pkResultMetadata: "ResultMetadata", pkConnectOptions: "ConnectOptions",
	pkCommandInfo: "CommandInfo", pkFetchSize: "FetchSize",
	pkClientContext: "ClientContext", pkWriteLobRequest: "WriteLobRequest",
	pkWriteLobReply: "WriteLobReply", pkClientID: "ClientID",
	pkStatementContext: "StatementContext", pkClientInfo: "ClientInfo",
	pkDBConnectInfo: "DBConnectInfo", pkLobFlags: "LobFlags",
	pkXatOptions: "XatOptions",
}

func (k PartKind) String() string {
	if s, ok := partKindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("PartKind(%d)", int8(k))
}

// isStreamingKind reports whether a part of this kind elides the trailing
// 8-byte padding when it is the last part of a reply segment (spec 4.2).
func (k PartKind) isStreamingKind() bool {
	switch k {
	case pkResultset, pkResultsetID, pkReadLobReply:
		return true
	default:
		return false
	}
}
