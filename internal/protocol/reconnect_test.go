// SPDX-FileCopyrightText: 2014-2022 SAP SE
//
// SPDX-License-Identifier: Apache-2.0

package protocol

import (
	"errors"
	"fmt"
	"io"
	"net"
	"testing"
)

func TestIsConnectionReset(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"hdb error connection closed", &HdbError{errorCode: HdbErrConnectionClosed}, true},
		{"hdb error database unavailable", &HdbError{errorCode: HdbErrDatabaseUnavailable}, true},
		{"hdb error authentication failed", &HdbError{errorCode: HdbErrAuthenticationFailed}, false},
		{
			"hdb errors, one reset-class",
			&HdbErrors{errs: []*HdbError{
				{errorCode: HdbErrAuthenticationFailed},
				{errorCode: HdbErrConnectionClosed},
			}},
			true,
		},
		{
			"hdb errors, none reset-class",
			&HdbErrors{errs: []*HdbError{{errorCode: HdbErrAuthenticationFailed}}},
			false,
		},
		{"wrapped io.EOF", fmt.Errorf("read: %w", io.EOF), true},
		{"io.ErrUnexpectedEOF", io.ErrUnexpectedEOF, true},
		{"net.ErrClosed", net.ErrClosed, true},
		{"unrelated error", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isConnectionReset(tt.err); got != tt.want {
				t.Errorf("isConnectionReset(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestErrorAfterReconnect(t *testing.T) {
	reset := errors.New("connection reset")
	retry := errors.New("retry failed")
	err := &ErrorAfterReconnect{Reset: reset, Retry: retry}

	if !errors.Is(err, reset) {
		t.Error("expected errors.Is to match the reset cause")
	}
	if !errors.Is(err, retry) {
		t.Error("expected errors.Is to match the retry failure")
	}
	if err.Error() == "" {
		t.Error("expected a non-empty error message")
	}
}
