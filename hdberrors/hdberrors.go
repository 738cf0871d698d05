// SPDX-FileCopyrightText: 2014-2022 SAP SE
//
// SPDX-License-Identifier: Apache-2.0

// Package hdberrors unifies the taxonomy of errors the hdbwire client core
// surfaces into a single Kind-tagged Error, replacing the two near-duplicate
// enums spec.md's Open Questions left unresolved.
package hdberrors

import (
	"errors"
	"fmt"

	"github.com/hdbwire/hdbwire/internal/protocol"
)

// Kind classifies an Error for routing by a caller that does not want to
// switch on the wrapped cause directly.
type Kind int

// Error kinds, ordered roughly as spec.md §7 lists them.
const (
	KindConnectionParams Kind = iota // bad host/port/credentials before dial
	KindTLS                          // TLS init or handshake failure
	KindAuthentication                // SCRAM handshake failure
	KindDbError                       // server-reported HdbError/HdbErrors
	KindExecutionResults              // per-row batch outcome carries a failure
	KindSerialization                 // application value -> wire encoding
	KindDeserialization               // wire value -> application type
	KindCESU8                         // CESU-8 boundary/encoding failure
	KindDecompression                 // LZ4 frame corruption
	KindIo                            // plain transport I/O failure
	KindConnectionBroken              // Io failure that left the session unusable
	KindSessionClosing                // server marked the session dead
	KindErrorAfterReconnect           // reconnect succeeded, retry failed again
	KindUsage                         // caller violated the API contract
	KindEvaluation                    // wrong accessor for the reply shape received
	KindImpl                          // unexpected wire state / internal bug
)

func (k Kind) String() string {
	switch k {
	case KindConnectionParams:
		return "connection-params"
	case KindTLS:
		return "tls"
	case KindAuthentication:
		return "authentication"
	case KindDbError:
		return "db-error"
	case KindExecutionResults:
		return "execution-results"
	case KindSerialization:
		return "serialization"
	case KindDeserialization:
		return "deserialization"
	case KindCESU8:
		return "cesu8"
	case KindDecompression:
		return "decompression"
	case KindIo:
		return "io"
	case KindConnectionBroken:
		return "connection-broken"
	case KindSessionClosing:
		return "session-closing"
	case KindErrorAfterReconnect:
		return "error-after-reconnect"
	case KindUsage:
		return "usage"
	case KindEvaluation:
		return "evaluation"
	case KindImpl:
		return "impl"
	default:
		return "unknown"
	}
}

// Error pairs a Kind with the underlying cause. Callers that need the
// server-reported detail (code, position, SQLState) unwrap to *protocol.HdbError
// or *protocol.HdbErrors via errors.As.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string { return fmt.Sprintf("hdbwire: %s: %v", e.Kind, e.Err) }

func (e *Error) Unwrap() error { return e.Err }

// New wraps err as kind, or returns nil if err is nil.
func New(kind Kind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Err: err}
}

// Newf wraps a formatted error as kind.
func Newf(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// Classify maps a raw protocol/transport error onto the taxonomy a caller
// can switch on, without requiring every internal package to know about
// this one. A server-reported HdbError/HdbErrors classifies as
// ConnectionBroken when it is reset-class and as DbError otherwise; every
// other error, including raw transport failures, classifies as plain Io.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	var alreadyKind *Error
	if errors.As(err, &alreadyKind) {
		return err
	}

	var afterReconnect *protocol.ErrorAfterReconnect
	if errors.As(err, &afterReconnect) {
		return New(KindErrorAfterReconnect, err)
	}

	var hdbErrs *protocol.HdbErrors
	if errors.As(err, &hdbErrs) {
		if hdbErrs.ConnectionReset() {
			return New(KindConnectionBroken, err)
		}
		return New(KindDbError, err)
	}
	var hdbErr *protocol.HdbError
	if errors.As(err, &hdbErr) {
		if hdbErr.ConnectionReset() {
			return New(KindConnectionBroken, err)
		}
		return New(KindDbError, err)
	}

	return New(KindIo, err)
}

// IsKind reports whether err's classified Kind is k.
func IsKind(err error, k Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == k
}
