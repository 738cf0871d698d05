// SPDX-FileCopyrightText: 2014-2022 SAP SE
//
// SPDX-License-Identifier: Apache-2.0

package protocol

import (
	"fmt"
	"strings"

	"github.com/hdbwire/hdbwire/internal/protocol/encoding"
)

// errorLevel classifies a single HdbError as reported by the server.
type errorLevel int8

// errorLevel constants.
const (
	errorLevelWarning    errorLevel = 0
	errorLevelError      errorLevel = 1
	errorLevelFatalError errorLevel = 2
)

var errorLevelStrs = [...]string{"Warning", "Error", "FatalError"}

func (l errorLevel) String() string {
	if int(l) < 0 || int(l) >= len(errorLevelStrs) {
		return ""
	}
	return errorLevelStrs[l]
}

const (
	sqlStateSize = 5
	// fixed-length fields mod 8: errorCode(4) + errorPosition(4) +
	// errorTextLength(4) + errorLevel(1) + sqlState(5) = 18, 18 mod 8 = 2.
	errorFixLength = 2
)

// well-known HANA error codes (spec 4.8, a small subset relevant to
// reconnect-on-reset classification).
const (
	HdbErrAuthenticationFailed  = 10
	HdbErrConnectionClosed      = 477
	HdbErrDatabaseUnavailable   = 414
	HdbErrWhileParsingProtocol  = 1033
)

type sqlState [sqlStateSize]byte

// HdbError is a single error or warning returned by the server, decoded
// from the Error part of a reply segment.
type HdbError struct {
	errorCode       int32
	errorPosition   int32
	errorTextLength int32
	level           errorLevel
	sqlState        sqlState
	stmtNo          int
	errorText       []byte
}

func (e *HdbError) String() string {
	return fmt.Sprintf("errorCode %d errorPosition %d errorLevel %s sqlState %s stmtNo %d errorText %s",
		e.errorCode, e.errorPosition, e.level, e.sqlState, e.stmtNo, e.errorText)
}

// Error implements the error interface.
func (e *HdbError) Error() string {
	if e.stmtNo != 0 {
		return fmt.Sprintf("SQL %s %d - %s (statement no: %d)", e.level, e.errorCode, e.errorText, e.stmtNo)
	}
	return fmt.Sprintf("SQL %s %d - %s", e.level, e.errorCode, e.errorText)
}

// Code returns the server error code.
func (e *HdbError) Code() int { return int(e.errorCode) }

// Position returns the SQL text position the error refers to, or -1.
func (e *HdbError) Position() int { return int(e.errorPosition) }

// SQLState returns the five-character SQLSTATE the server reported.
func (e *HdbError) SQLState() string { return string(e.sqlState[:]) }

// StmtNo returns the index, within a batch, of the statement this error
// belongs to.
func (e *HdbError) StmtNo() int { return e.stmtNo }

// IsWarning reports whether this entry is a warning rather than an error.
func (e *HdbError) IsWarning() bool { return e.level == errorLevelWarning }

// IsFatal reports whether the server classified this as session-ending.
func (e *HdbError) IsFatal() bool { return e.level == errorLevelFatalError }

// ConnectionReset reports whether this error indicates the session is no
// longer usable and a reconnect should be attempted (spec invariant 10).
func (e *HdbError) ConnectionReset() bool {
	switch e.errorCode {
	case HdbErrConnectionClosed, HdbErrDatabaseUnavailable:
		return true
	default:
		return false
	}
}

// HdbErrors is the collection of errors/warnings a single reply may carry
// (pkError), one or more per batch statement.
type HdbErrors struct {
	errs []*HdbError
}

func (e *HdbErrors) Error() string {
	if len(e.errs) == 1 {
		return e.errs[0].Error()
	}
	strs := make([]string, len(e.errs))
	for i, err := range e.errs {
		strs[i] = err.Error()
	}
	return strings.Join(strs, " ")
}

// NumError returns the number of errors/warnings in the collection.
func (e *HdbErrors) NumError() int { return len(e.errs) }

// Unwrap supports errors.Is/As traversal over the individual HdbErrors.
func (e *HdbErrors) Unwrap() []error {
	errs := make([]error, len(e.errs))
	for i, err := range e.errs {
		errs[i] = err
	}
	return errs
}

// At returns the i-th error in the collection.
func (e *HdbErrors) At(i int) *HdbError { return e.errs[i] }

// ForEach invokes fn for every error in the collection.
func (e *HdbErrors) ForEach(fn func(*HdbError)) {
	for _, err := range e.errs {
		fn(err)
	}
}

// HasWarningsOnly reports whether every entry is a warning (the statement
// otherwise succeeded).
func (e *HdbErrors) HasWarningsOnly() bool {
	for _, err := range e.errs {
		if !err.IsWarning() {
			return false
		}
	}
	return true
}

// ConnectionReset reports whether any contained error demands a reconnect.
func (e *HdbErrors) ConnectionReset() bool {
	for _, err := range e.errs {
		if err.ConnectionReset() {
			return true
		}
	}
	return false
}

// setStmtNo assigns the statement number of the i-th error in the
// collection, used to zip batch errors against the RowsAffected entry that
// reported raExecuteFailed for it (spec invariant 7).
func (e *HdbErrors) setStmtNo(i, stmtNo int) { e.errs[i].stmtNo = stmtNo }

func (e *HdbErrors) decode(dec *encoding.Decoder, ph *PartHeader) error {
	numArg := ph.numArg()
	e.errs = make([]*HdbError, numArg)

	for i := 0; i < numArg; i++ {
		err := &HdbError{}
		e.errs[i] = err

		err.errorCode = dec.Int32()
		err.errorPosition = dec.Int32()
		err.errorTextLength = dec.Int32()
		err.level = errorLevel(dec.Int8())
		dec.Bytes(err.sqlState[:])

		err.errorText = make([]byte, int(err.errorTextLength))
		dec.Bytes(err.errorText)

		if numArg == 1 {
			// a lone error's bufferLength is one byte wider than the bytes
			// actually written; more than one error pads to the usual 8-byte
			// boundary.
			dec.Skip(1)
			break
		}
		dec.Skip(padBytes(errorFixLength + int(err.errorTextLength)))
	}
	return dec.Error()
}
