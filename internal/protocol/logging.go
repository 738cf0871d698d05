// SPDX-FileCopyrightText: 2014-2022 SAP SE
//
// SPDX-License-Identifier: Apache-2.0

package protocol

import (
	"io"
	"log/slog"
)

// Logger is the leveled logger the wire layer writes to. It is silent by
// default (discardLogger); callers attach a real one through SessionConfig
// or Dispatcher options, mirroring the teacher's flag-gated protocol trace.
type Logger = slog.Logger

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func loggerOrDiscard(l *Logger) *Logger {
	if l == nil {
		return discardLogger
	}
	return l
}
