// SPDX-FileCopyrightText: 2014-2022 SAP SE
//
// SPDX-License-Identifier: Apache-2.0

// Package hdbwire is a native client core for SAP HANA's SQL Command
// Network Protocol: segmented packet codec, session/auth state machine,
// result-set paging, bidirectional LOB streaming, parameter/row codec,
// prepared-statement lifecycle, and an XA resource-manager mapping.
// Connection-string parsing, SQL dialect, a reflection-based row mapper,
// and the XA transaction manager itself are not part of this package;
// it only implements the interfaces they call into.
package hdbwire

import (
	"context"
	"fmt"

	"github.com/hdbwire/hdbwire/hdberrors"
	"github.com/hdbwire/hdbwire/internal/protocol"
	"github.com/hdbwire/hdbwire/internal/transport"
)

// Connect dials cfg.Host, resolves a multi-database-container redirect if
// cfg.DatabaseName is set, and completes the SCRAM-SHA256 handshake,
// returning a ready-to-use Conn.
func Connect(ctx context.Context, cfg *Config) (*Conn, error) {
	host := cfg.Host()
	opts := cfg.transportOptions()

	tconn, err := transport.Dial(ctx, host, opts)
	if err != nil {
		return nil, hdberrors.Classify(fmt.Errorf("hdbwire: dial %s: %w", host, err))
	}
	if err := transport.InitRequest(tconn); err != nil {
		_ = tconn.Close()
		return nil, hdberrors.Classify(err)
	}
	if err := transport.InitReply(tconn); err != nil {
		_ = tconn.Close()
		return nil, hdberrors.Classify(err)
	}

	if dbName := cfg.DatabaseName(); dbName != "" {
		redirectHost, redirectPort, ok, err := protocol.ResolveDBConnectInfo(tconn, dbName)
		if err != nil {
			_ = tconn.Close()
			return nil, hdberrors.Classify(fmt.Errorf("hdbwire: resolve database %q: %w", dbName, err))
		}
		if ok {
			_ = tconn.Close()
			host = fmt.Sprintf("%s:%d", redirectHost, redirectPort)
			cfg.setResolvedHost(host)
			tconn, err = transport.Dial(ctx, host, opts)
			if err != nil {
				return nil, hdberrors.Classify(fmt.Errorf("hdbwire: dial redirected host %s: %w", host, err))
			}
			if err := transport.InitRequest(tconn); err != nil {
				_ = tconn.Close()
				return nil, hdberrors.Classify(err)
			}
			if err := transport.InitReply(tconn); err != nil {
				_ = tconn.Close()
				return nil, hdberrors.Classify(err)
			}
		}
	}

	sess, err := protocol.NewSession(tconn, cfg)
	if err != nil {
		_ = tconn.Close()
		return nil, hdberrors.Classify(err)
	}
	return &Conn{sess: sess}, nil
}
