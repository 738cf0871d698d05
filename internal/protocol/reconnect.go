// SPDX-FileCopyrightText: 2014-2022 SAP SE
//
// SPDX-License-Identifier: Apache-2.0

package protocol

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"

	"github.com/cenkalti/backoff/v4"
)

// ErrorAfterReconnect reports that a roundtrip failed with a reset-class
// error, the session reconnected successfully, but the retried roundtrip
// also failed (spec invariant 10: at most one retry, failures beyond that
// propagate).
type ErrorAfterReconnect struct {
	// Reset is the error that triggered the reconnect.
	Reset error
	// Retry is the error from the roundtrip retried after reconnecting.
	Retry error
}

func (e *ErrorAfterReconnect) Error() string {
	return fmt.Sprintf("protocol: roundtrip failed again after reconnect: %v (reset cause: %v)", e.Retry, e.Reset)
}

func (e *ErrorAfterReconnect) Unwrap() []error { return []error{e.Reset, e.Retry} }

// isConnectionReset reports whether err indicates the transport is no
// longer usable and a reconnect should be attempted: either the server
// told us so explicitly (HdbError/HdbErrors.ConnectionReset), or the
// underlying connection itself came apart.
func isConnectionReset(err error) bool {
	var hdbErrs *HdbErrors
	if errors.As(err, &hdbErrs) {
		return hdbErrs.ConnectionReset()
	}
	var hdbErr *HdbError
	if errors.As(err, &hdbErr) {
		return hdbErr.ConnectionReset()
	}
	return errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, net.ErrClosed)
}

// reconnect redials the transport through cfg.Redial, rebuilds pw/pr, and
// re-runs the handshake. It does not hold mu; callers already do.
func (s *Session) reconnect(ctx context.Context) error {
	conn, err := s.cfg.Redial(ctx)
	if err != nil {
		return fmt.Errorf("protocol: redial after connection reset: %w", err)
	}
	_ = s.conn.Close()

	s.conn = conn
	s.pw = NewWriter(conn, newCesu8Encoder)
	s.pr = NewReader(conn, newCesu8Decoder)
	s.sessionID = defaultSessionID
	s.compression = false
	if s.clientInfo != nil {
		s.clientInfoDirty = true
	}

	return s.authenticate()
}

// dispatch runs one request/reply roundtrip through disp, and on a
// reset-class failure reconnects and retries exactly once, scheduled
// through backoff so the retry doesn't hammer a server still recovering
// from the reset. A second failure is reported as *ErrorAfterReconnect; a
// failed reconnect itself is reported as-is (the original request was
// never retried).
func (s *Session) dispatch(ctx context.Context, mt MessageType, commit bool, parts []outPart, fn func(ph *PartHeader)) error {
	var resetErr error
	reconnected := false

	op := func() error {
		err := s.disp.roundtrip(ctx, s.sessionID, mt, commit, parts, fn)
		if err == nil {
			return nil
		}
		if reconnected {
			return backoff.Permanent(&ErrorAfterReconnect{Reset: resetErr, Retry: err})
		}
		if !isConnectionReset(err) {
			return backoff.Permanent(err)
		}
		resetErr = err
		if rerr := s.reconnect(ctx); rerr != nil {
			return backoff.Permanent(rerr)
		}
		reconnected = true
		return err
	}

	return backoff.Retry(op, backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 1))
}
