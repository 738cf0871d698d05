// SPDX-FileCopyrightText: 2014-2022 SAP SE
//
// SPDX-License-Identifier: Apache-2.0

package protocol

// StatementContextKey identifies an entry of the StatementContext part,
// which carries server-side execution statistics (server processing time,
// cpu time, memory/lock/wait counters) riding along with a reply.
type StatementContextKey int8

// StatementContextKey constants.
const (
	ScStatementSequenceInfo StatementContextKey = 1
	ScServerProcessingTime  StatementContextKey = 2
	ScSchemaName            StatementContextKey = 3
	ScFlagSet1               StatementContextKey = 4
	ScServerCPUTime          StatementContextKey = 5
	ScServerMemoryUsage      StatementContextKey = 6
)

// StatementContext is the StatementContext option bag (pkStatementContext).
type StatementContext = OptionPart[StatementContextKey]
