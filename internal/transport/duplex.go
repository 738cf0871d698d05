// SPDX-FileCopyrightText: 2014-2022 SAP SE
//
// SPDX-License-Identifier: Apache-2.0

// Package transport implements the full-duplex byte stream a session is
// built on (spec component C1): a buffered TCP or TLS connection, the
// 14-byte initial-request/8-byte-ack handshake exchanged before any wire
// protocol traffic, and in-place reconnect.
package transport

import (
	"bufio"
	"context"
	"crypto/tls"
	"io"
	"net"
	"time"
)

// Duplex is a full-duplex byte stream with independent buffered read and
// write halves, as required by a session's protocol.Reader/protocol.Writer.
type Duplex interface {
	io.Reader
	io.Writer
	io.Closer
}

// Conn wraps a dialed net.Conn with buffered halves and read/write
// deadlines derived from a fixed per-I/O timeout. It implements Duplex.
type Conn struct {
	netConn net.Conn
	timeout time.Duration

	rd *bufio.Reader
	wr *bufio.Writer
}

// Options controls buffering and per-I/O timeout of a dialed Conn.
type Options struct {
	// BufferSize sizes the buffered reader/writer; 0 selects bufio's default.
	BufferSize int
	// Timeout bounds every individual Read/Write; 0 disables the deadline.
	Timeout time.Duration
	// TLSConfig, if non-nil, wraps the dialed TCP connection in TLS.
	TLSConfig *tls.Config
}

// Dial opens a TCP connection to addr, optionally upgrading to TLS per opts.
func Dial(ctx context.Context, addr string, opts Options) (*Conn, error) {
	dialer := net.Dialer{Timeout: opts.Timeout}
	netConn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	if opts.TLSConfig != nil {
		netConn = tls.Client(netConn, opts.TLSConfig)
	}
	return newConn(netConn, opts), nil
}

func newConn(netConn net.Conn, opts Options) *Conn {
	c := &Conn{netConn: netConn, timeout: opts.Timeout}
	if opts.BufferSize > 0 {
		c.rd = bufio.NewReaderSize(netConn, opts.BufferSize)
		c.wr = bufio.NewWriterSize(netConn, opts.BufferSize)
	} else {
		c.rd = bufio.NewReader(netConn)
		c.wr = bufio.NewWriter(netConn)
	}
	return c
}

// Read implements io.Reader, refreshing the read deadline on every call.
func (c *Conn) Read(p []byte) (int, error) {
	if c.timeout > 0 {
		if err := c.netConn.SetReadDeadline(time.Now().Add(c.timeout)); err != nil {
			return 0, err
		}
	}
	return c.rd.Read(p)
}

// Write implements io.Writer, refreshing the write deadline on every call.
func (c *Conn) Write(p []byte) (int, error) {
	if c.timeout > 0 {
		if err := c.netConn.SetWriteDeadline(time.Now().Add(c.timeout)); err != nil {
			return 0, err
		}
	}
	return c.wr.Write(p)
}

// Flush pushes any buffered, unwritten bytes out to the socket. A
// protocol.Writer must call this after every request message.
func (c *Conn) Flush() error { return c.wr.Flush() }

// Close closes the underlying network connection.
func (c *Conn) Close() error { return c.netConn.Close() }

// Rebuild dials a fresh Conn to addr with the same opts, for reconnect after
// a server-signalled connection reset; session-layer state (session id,
// authentication) is the caller's responsibility to re-establish on the new
// Conn, matching spec.md's transport/session split.
func Rebuild(ctx context.Context, addr string, opts Options) (*Conn, error) {
	return Dial(ctx, addr, opts)
}
