// SPDX-FileCopyrightText: 2014-2022 SAP SE
//
// SPDX-License-Identifier: Apache-2.0

package hdbwire

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/hdbwire/hdbwire/internal/protocol"
	"github.com/hdbwire/hdbwire/internal/transport"
)

// Connect attribute defaults, matching the teacher's own connAttrs values
// where the spec doesn't name a different one.
const (
	defaultBufferSize          = 16276
	defaultTimeout             = 300 * time.Second
	defaultFetchSize           = 32
	defaultLobChunkSize        = 8192
	defaultReconnectWaitTimeout = 600 * time.Second
)

// Config holds the connect parameters and tunables a Conn needs beyond
// host:port: required user/password, and everything spec.md §6 lists as
// optional (TLS root source, locale, compression, free-form tuning). It
// does not parse connection strings or URLs (Non-goal); a caller that
// wants DSN support builds one in front of Config.
type Config struct {
	mu sync.RWMutex

	host     string
	username string
	password string

	locale          string
	applicationName string
	databaseName    string

	fetchSize    int32
	lobChunkSize int32
	compression  protocol.CompressionMode

	timeout    time.Duration
	bufferSize int
	tlsConfig  *tls.Config

	logger *protocol.Logger
}

// NewConfig returns a Config for host ("host:port") with the required
// user/password, and every other field at its default.
func NewConfig(host, username, password string) *Config {
	return &Config{
		host:         host,
		username:     username,
		password:     password,
		fetchSize:    defaultFetchSize,
		lobChunkSize: defaultLobChunkSize,
		timeout:      defaultTimeout,
		bufferSize:   defaultBufferSize,
	}
}

func (c *Config) Host() string { c.mu.RLock(); defer c.mu.RUnlock(); return c.host }

// setResolvedHost overwrites the dial target after a DBConnectInfo
// redirect, so a later Redial targets the tenant host instead of the
// systemdb host the caller originally pointed Config at.
func (c *Config) setResolvedHost(host string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.host = host
}

func (c *Config) Username() string { c.mu.RLock(); defer c.mu.RUnlock(); return c.username }

func (c *Config) Password() string { c.mu.RLock(); defer c.mu.RUnlock(); return c.password }

func (c *Config) Locale() string { c.mu.RLock(); defer c.mu.RUnlock(); return c.locale }

// SetLocale sets the client locale sent as ClientLocale; left empty, no
// ClientLocale entry is sent and the server falls back to its own default.
func (c *Config) SetLocale(locale string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.locale = locale
}

func (c *Config) ApplicationName() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.applicationName
}

// SetApplicationName sets the value reported in ClientContext's
// ClientApplicationProgram entry.
func (c *Config) SetApplicationName(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.applicationName = name
}

func (c *Config) DatabaseName() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.databaseName
}

// SetDatabaseName targets a specific tenant database on a multi-database-
// container system. Connect resolves it to a host/port via a DBConnectInfo
// request before the real handshake (spec.md §4.5).
func (c *Config) SetDatabaseName(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.databaseName = name
}

func (c *Config) FetchSize() int32 { c.mu.RLock(); defer c.mu.RUnlock(); return c.fetchSize }

// SetFetchSize bounds the number of rows the server sends per FetchNext
// round trip.
func (c *Config) SetFetchSize(n int32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fetchSize = n
}

func (c *Config) LobChunkSize() int32 { c.mu.RLock(); defer c.mu.RUnlock(); return c.lobChunkSize }

// SetLobChunkSize sets the value LobChunkSize reports. ReadLob and WriteLob
// round trips do not read it; they always use a fixed chunk size of 1<<14.
func (c *Config) SetLobChunkSize(n int32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lobChunkSize = n
}

func (c *Config) Compression() protocol.CompressionMode {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.compression
}

// SetCompression selects whether wire traffic is LZ4-compressed after
// CONNECT negotiates it.
func (c *Config) SetCompression(mode protocol.CompressionMode) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.compression = mode
}

func (c *Config) Timeout() time.Duration { c.mu.RLock(); defer c.mu.RUnlock(); return c.timeout }

// SetTimeout bounds every individual transport Read/Write.
func (c *Config) SetTimeout(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.timeout = d
}

// SetTLSConfig enables TLS using the given config (caller-provided root
// certificates; no proprietary TLS extensions per spec.md §6). Passing nil
// disables TLS.
func (c *Config) SetTLSConfig(cfg *tls.Config) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cfg == nil {
		c.tlsConfig = nil
		return
	}
	c.tlsConfig = cfg.Clone()
}

func (c *Config) tlsConfigClone() *tls.Config {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.tlsConfig == nil {
		return nil
	}
	return c.tlsConfig.Clone()
}

// SetLogger attaches a structured logger the wire layer writes trace/error
// lines to; nil (the default) is silent.
func (c *Config) SetLogger(l *protocol.Logger) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.logger = l
}

func (c *Config) Logger() *protocol.Logger { c.mu.RLock(); defer c.mu.RUnlock(); return c.logger }

func (c *Config) transportOptions() transport.Options {
	return transport.Options{
		BufferSize: c.bufferSize,
		Timeout:    c.Timeout(),
		TLSConfig:  c.tlsConfigClone(),
	}
}

// Redial implements protocol.SessionConfig, dialing a fresh transport to
// the host the Conn is actually connected to — the DBConnectInfo-resolved
// tenant host when Connect redirected, Config.Host otherwise.
func (c *Config) Redial(ctx context.Context) (io.ReadWriteCloser, error) {
	host := c.Host()
	conn, err := transport.Dial(ctx, host, c.transportOptions())
	if err != nil {
		return nil, fmt.Errorf("hdbwire: redial %s: %w", host, err)
	}
	if err := transport.InitRequest(conn); err != nil {
		_ = conn.Close()
		return nil, err
	}
	if err := transport.InitReply(conn); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return conn, nil
}
