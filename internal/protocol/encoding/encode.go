// SPDX-FileCopyrightText: 2014-2022 SAP SE
//
// SPDX-License-Identifier: Apache-2.0

// Package encoding implements the low-level byte-oriented encode/decode
// primitives the HANA wire protocol is built on: little-endian scalars,
// length-indicator prefixed variable data, CESU-8 text and the decimal wire
// formats.
package encoding

import (
	"encoding/binary"
	"io"
	"math"
	"math/big"

	"golang.org/x/text/transform"
)

const writeScratchSize = 4096

// Encoder encodes hdb wire protocol datatypes on top of an io.Writer.
type Encoder struct {
	wr  io.Writer
	err error
	b   []byte // scratch buffer, must be >= CESUMax and >= decSize
	tr  transform.Transformer
}

// NewEncoder returns an Encoder writing to wr, converting UTF-8 text to
// CESU-8 via the transformer returned by newTransformer.
func NewEncoder(wr io.Writer, newTransformer func() transform.Transformer) *Encoder {
	return &Encoder{wr: wr, b: make([]byte, writeScratchSize), tr: newTransformer()}
}

// Error returns the first write error encountered, if any.
func (e *Encoder) Error() error { return e.err }

func (e *Encoder) write(p []byte) {
	if e.err != nil {
		return
	}
	if _, err := e.wr.Write(p); err != nil {
		e.err = err
	}
}

// Zeroes writes cnt zero bytes (used for part padding).
func (e *Encoder) Zeroes(cnt int) {
	if e.err != nil || cnt <= 0 {
		return
	}
	l := cnt
	if l > len(e.b) {
		l = len(e.b)
	}
	for i := 0; i < l; i++ {
		e.b[i] = 0
	}
	for i := 0; i < cnt; {
		j := cnt - i
		if j > len(e.b) {
			j = len(e.b)
		}
		e.write(e.b[:j])
		if e.err != nil {
			return
		}
		i += j
	}
}

// Bytes writes a raw byte slice.
func (e *Encoder) Bytes(p []byte) { e.write(p) }

// Byte writes a single byte.
func (e *Encoder) Byte(b byte) { e.b[0] = b; e.write(e.b[:1]) }

// Bool writes a boolean as a single byte.
func (e *Encoder) Bool(v bool) {
	if v {
		e.Byte(1)
	} else {
		e.Byte(0)
	}
}

// Int8 writes a signed byte.
func (e *Encoder) Int8(i int8) { e.Byte(byte(i)) }

// Int16 writes a little-endian int16.
func (e *Encoder) Int16(i int16) { e.Uint16(uint16(i)) }

// Uint16 writes a little-endian uint16.
func (e *Encoder) Uint16(i uint16) {
	binary.LittleEndian.PutUint16(e.b[:2], i)
	e.write(e.b[:2])
}

// Uint16ByteOrder writes a uint16 in the given byte order.
func (e *Encoder) Uint16ByteOrder(i uint16, order binary.ByteOrder) {
	order.PutUint16(e.b[:2], i)
	e.write(e.b[:2])
}

// Int32 writes a little-endian int32.
func (e *Encoder) Int32(i int32) { e.Uint32(uint32(i)) }

// Uint32 writes a little-endian uint32.
func (e *Encoder) Uint32(i uint32) {
	binary.LittleEndian.PutUint32(e.b[:4], i)
	e.write(e.b[:4])
}

// Int64 writes a little-endian int64.
func (e *Encoder) Int64(i int64) { e.Uint64(uint64(i)) }

// Uint64 writes a little-endian uint64.
func (e *Encoder) Uint64(i uint64) {
	binary.LittleEndian.PutUint64(e.b[:8], i)
	e.write(e.b[:8])
}

// Float32 writes a little-endian float32.
func (e *Encoder) Float32(f float32) { e.Uint32(math.Float32bits(f)) }

// Float64 writes a little-endian float64.
func (e *Encoder) Float64(f float64) { e.Uint64(math.Float64bits(f)) }

// String writes a raw (already-encoded) string.
func (e *Encoder) String(s string) { e.write([]byte(s)) }

// CESU8Bytes transforms an UTF-8 byte slice to CESU-8 and writes it,
// returning the number of CESU-8 bytes written.
func (e *Encoder) CESU8Bytes(p []byte) int {
	if e.err != nil {
		return 0
	}
	e.tr.Reset()
	cnt, i := 0, 0
	for i < len(p) {
		m, n, err := e.tr.Transform(e.b, p[i:], true)
		if err != nil && err != transform.ErrShortDst {
			e.err = err
			return cnt
		}
		if m == 0 {
			e.err = transform.ErrShortDst
			return cnt
		}
		e.write(e.b[:m])
		cnt += m
		i += n
	}
	return cnt
}

// CESU8String is CESU8Bytes for a string argument.
func (e *Encoder) CESU8String(s string) int { return e.CESU8Bytes([]byte(s)) }

// Length-indicator encoding (spec 4.2):
//   0-245   -> 1 byte length
//   246     -> 0xf6, then 2 byte little-endian length
//   247     -> 0xf7, then 4 byte little-endian length
//   255     -> 0xff, NULL
const (
	lenIndicator2ByteMarker byte = 246
	lenIndicator4ByteMarker byte = 247
	lenIndicatorNull        byte = 255

	maxLenIndicator1Byte = 245
	maxLenIndicator2Byte = 1<<16 - 1
)

// LIFieldSize returns the number of bytes the length-indicator header for a
// size-byte payload of the given length occupies.
func LIFieldSize(size int) int {
	switch {
	case size <= maxLenIndicator1Byte:
		return 1
	case size <= maxLenIndicator2Byte:
		return 3
	default:
		return 5
	}
}

// WriteLength writes the length-indicator header for size.
func (e *Encoder) WriteLength(size int) {
	switch {
	case size <= maxLenIndicator1Byte:
		e.Byte(byte(size))
	case size <= maxLenIndicator2Byte:
		e.Byte(lenIndicator2ByteMarker)
		e.Uint16(uint16(size))
	default:
		e.Byte(lenIndicator4ByteMarker)
		e.Uint32(uint32(size))
	}
}

// WriteNullLength writes the NULL length-indicator.
func (e *Encoder) WriteNullLength() { e.Byte(lenIndicatorNull) }

// WriteVarBytes writes a length-indicator prefixed raw byte slice.
func (e *Encoder) WriteVarBytes(p []byte) {
	e.WriteLength(len(p))
	e.Bytes(p)
}

// WriteCESU8LIString writes a length-indicator prefixed CESU-8 string. The
// length indicator is the CESU-8 byte size, not the UTF-8 size.
func (e *Encoder) WriteCESU8LIString(s string) {
	e.tr.Reset()
	size := cesu8Size(s)
	e.WriteLength(size)
	e.CESU8String(s)
}

func cesu8Size(s string) int {
	n := 0
	for _, r := range s {
		switch {
		case r < 0x10000:
			n += runeUTF8Len(r)
		default:
			n += 6
		}
	}
	return n
}

func runeUTF8Len(r rune) int {
	switch {
	case r < 0x80:
		return 1
	case r < 0x800:
		return 2
	default:
		return 3
	}
}

// Fixed writes m as a little-endian two's complement integer of size bytes
// (FIXED8/FIXED12/FIXED16), zero- or sign-extending if m's natural
// representation is shorter than size.
func (e *Encoder) Fixed(m *big.Int, size int) {
	neg := m.Sign() < 0
	bs := make([]byte, size)

	abs := new(big.Int).Abs(m)
	tmp := abs.Bytes() // big-endian
	for i, b := range tmp {
		j := len(tmp) - 1 - i
		if j < size {
			bs[j] = b
		}
	}
	if neg {
		twosComplement(bs)
	}
	e.Bytes(bs)
}

// Decimal writes the legacy fixed-width 16-byte DECIMAL encoding of
// (m, exp, neg): a 113-bit mantissa and 14-bit biased exponent (bias 6176).
func (e *Encoder) Decimal(m *big.Int, exp int, neg bool) {
	bs := make([]byte, decSize)

	abs := new(big.Int).Abs(m)
	tmp := abs.Bytes() // big-endian
	for i, b := range tmp {
		j := len(tmp) - 1 - i
		if j < decSize {
			bs[j] = b
		}
	}

	biased := uint16(exp + dec128Bias)
	bs[14] |= byte(biased<<1) & 0xfe
	bs[15] = byte(biased >> 7)
	if neg {
		bs[15] |= 0x80
	}
	e.Bytes(bs)
}

// DecimalNull writes the legacy DECIMAL NULL indicator (bits 4-6 of byte 15 set).
func (e *Encoder) DecimalNull() {
	bs := make([]byte, decSize)
	bs[15] = 0x70
	e.Bytes(bs)
}
