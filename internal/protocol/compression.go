// SPDX-FileCopyrightText: 2014-2022 SAP SE
//
// SPDX-License-Identifier: Apache-2.0

package protocol

import (
	"io"

	"github.com/klauspost/compress/lz4"
)

// CompressionMode selects whether hdbwire asks the server to LZ4-compress
// wire traffic after the CONNECT handshake completes.
type CompressionMode int

// CompressionMode values.
const (
	CompressionOff CompressionMode = iota
	CompressionAlways
)

// compressionAlwaysFlags requests LZ4Supported|LZ4Enabled|ForceLocal.
const compressionAlwaysFlags int32 = 0x0000_0700

// withCompressionOption adds CompressionLevelAndFlags to an outgoing
// ConnectOptions bag. CompressionOff is simply omitted, matching the
// server's "absent means off" convention.
func withCompressionOption(o *ConnectOptions, mode CompressionMode) {
	if mode == CompressionAlways {
		o.setInt32(CoCompressionLevelAndFlags, compressionAlwaysFlags)
	}
}

// negotiatedCompression reports whether the server echoed back a non-zero
// CompressionLevelAndFlags, meaning every message from here on is
// LZ4-compressed.
func negotiatedCompression(o *ConnectOptions) bool {
	v, ok := o.int32(CoCompressionLevelAndFlags)
	return ok && v != 0
}

// compressWriter LZ4-frame-compresses every byte written to dst, flushing a
// frame boundary at the end of each logical message (Writer.Write calls
// Flush exactly once per request).
type compressWriter struct {
	dst io.Writer
	zw  *lz4.Writer
}

func newCompressWriter(dst io.Writer) *compressWriter {
	return &compressWriter{dst: dst, zw: lz4.NewWriter(dst)}
}

func (c *compressWriter) Write(p []byte) (int, error) { return c.zw.Write(p) }

func (c *compressWriter) Flush() error {
	if err := c.zw.Flush(); err != nil {
		return err
	}
	if f, ok := c.dst.(interface{ Flush() error }); ok {
		return f.Flush()
	}
	return nil
}

// compressReader transparently LZ4-decompresses reads from src.
type compressReader struct {
	zr *lz4.Reader
}

func newCompressReader(src io.Reader) *compressReader {
	return &compressReader{zr: lz4.NewReader(src)}
}

func (c *compressReader) Read(p []byte) (int, error) { return c.zr.Read(p) }
