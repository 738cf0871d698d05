// SPDX-FileCopyrightText: 2014-2022 SAP SE
//
// SPDX-License-Identifier: Apache-2.0

package encoding

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"math/big"

	"golang.org/x/text/transform"
)

const readScratchSize = 4096

// Decoder decodes hdb wire protocol datatypes on top of an io.Reader.
type Decoder struct {
	rd io.Reader
	// err is a fatal read error; conversion errors are returned by the
	// reader function itself and never stored here.
	err error
	b   []byte // scratch buffer, must be >= CESUMax and >= decSize
	tr  transform.Transformer
	cnt int
	dfv int
}

// NewDecoder returns a Decoder reading from rd, converting CESU-8 wire text
// to UTF-8 via the transformer returned by newTransformer.
func NewDecoder(rd io.Reader, newTransformer func() transform.Transformer) *Decoder {
	return &Decoder{rd: rd, b: make([]byte, readScratchSize), tr: newTransformer()}
}

// Dfv returns the negotiated data format version.
func (d *Decoder) Dfv() int { return d.dfv }

// SetDfv sets the negotiated data format version.
func (d *Decoder) SetDfv(dfv int) { d.dfv = dfv }

// ResetCnt resets the byte-read counter.
func (d *Decoder) ResetCnt() { d.cnt = 0 }

// Cnt returns the byte-read counter.
func (d *Decoder) Cnt() int { return d.cnt }

// Error returns the decoder's fatal read error, if any.
func (d *Decoder) Error() error { return d.err }

// ResetError returns and clears the decoder's fatal read error.
func (d *Decoder) ResetError() error {
	err := d.err
	d.err = nil
	return err
}

func (d *Decoder) readFull(buf []byte) (int, error) {
	if d.err != nil {
		return 0, d.err
	}
	var n int
	n, d.err = io.ReadFull(d.rd, buf)
	d.cnt += n
	return n, d.err
}

// Skip discards cnt bytes from the reader.
func (d *Decoder) Skip(cnt int) {
	n := 0
	for n < cnt {
		to := cnt - n
		if to > readScratchSize {
			to = readScratchSize
		}
		m, err := d.readFull(d.b[:to])
		n += m
		if err != nil {
			return
		}
	}
}

// Byte reads and returns a byte.
func (d *Decoder) Byte() byte {
	if _, err := d.readFull(d.b[:1]); err != nil {
		return 0
	}
	return d.b[0]
}

// Bytes reads len(p) bytes into p.
func (d *Decoder) Bytes(p []byte) { d.readFull(p) }

// Bool reads and returns a boolean.
func (d *Decoder) Bool() bool { return d.Byte() != 0 }

// Int8 reads and returns an int8.
func (d *Decoder) Int8() int8 { return int8(d.Byte()) }

// Int16 reads and returns an int16.
func (d *Decoder) Int16() int16 { return int16(d.Uint16()) }

// Uint16 reads and returns an uint16.
func (d *Decoder) Uint16() uint16 {
	if _, err := d.readFull(d.b[:2]); err != nil {
		return 0
	}
	return binary.LittleEndian.Uint16(d.b[:2])
}

// Uint16ByteOrder reads a uint16 in the given byte order.
func (d *Decoder) Uint16ByteOrder(order binary.ByteOrder) uint16 {
	if _, err := d.readFull(d.b[:2]); err != nil {
		return 0
	}
	return order.Uint16(d.b[:2])
}

// Int32 reads and returns an int32.
func (d *Decoder) Int32() int32 { return int32(d.Uint32()) }

// Uint32 reads and returns an uint32.
func (d *Decoder) Uint32() uint32 {
	if _, err := d.readFull(d.b[:4]); err != nil {
		return 0
	}
	return binary.LittleEndian.Uint32(d.b[:4])
}

// Int64 reads and returns an int64.
func (d *Decoder) Int64() int64 { return int64(d.Uint64()) }

// Uint64 reads and returns an uint64.
func (d *Decoder) Uint64() uint64 {
	if _, err := d.readFull(d.b[:8]); err != nil {
		return 0
	}
	return binary.LittleEndian.Uint64(d.b[:8])
}

// Float32 reads and returns a float32.
func (d *Decoder) Float32() float32 {
	if _, err := d.readFull(d.b[:4]); err != nil {
		return 0
	}
	return math.Float32frombits(binary.LittleEndian.Uint32(d.b[:4]))
}

// Float64 reads and returns a float64.
func (d *Decoder) Float64() float64 {
	if _, err := d.readFull(d.b[:8]); err != nil {
		return 0
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(d.b[:8]))
}

// ReadLength reads a length-indicator header and returns (size, isNull).
func (d *Decoder) ReadLength() (int, bool) {
	b := d.Byte()
	switch {
	case b <= maxLenIndicator1Byte:
		return int(b), false
	case b == lenIndicator2ByteMarker:
		return int(d.Uint16()), false
	case b == lenIndicator4ByteMarker:
		return int(d.Uint32()), false
	case b == lenIndicatorNull:
		return 0, true
	default:
		d.err = fmt.Errorf("encoding: invalid length indicator %d", b)
		return 0, false
	}
}

// VarBytes reads a length-indicator prefixed raw byte slice; ok is false for NULL.
func (d *Decoder) VarBytes() (p []byte, ok bool) {
	size, isNull := d.ReadLength()
	if isNull {
		return nil, false
	}
	p = make([]byte, size)
	d.Bytes(p)
	return p, true
}

// CESU8Bytes reads a size-byte CESU-8 encoded sequence and returns it
// converted to UTF-8. Error is only ever a conversion error.
func (d *Decoder) CESU8Bytes(size int) ([]byte, error) {
	if d.err != nil {
		return nil, nil
	}
	var p []byte
	if size > readScratchSize {
		p = make([]byte, size)
	} else {
		p = d.b[:size]
	}
	if _, err := d.readFull(p); err != nil {
		return nil, nil
	}
	d.tr.Reset()
	r, _, err := transform.Bytes(d.tr, p)
	return r, err
}

// CESU8LIBytes reads a length-indicator prefixed CESU-8 string (the length
// indicator counts CESU-8 bytes) and returns it converted to UTF-8.
func (d *Decoder) CESU8LIBytes() (p []byte, ok bool, err error) {
	size, isNull := d.ReadLength()
	if isNull {
		return nil, false, nil
	}
	p, err = d.CESU8Bytes(size)
	return p, true, err
}

// Decimal reads and returns the legacy fixed-width 16-byte DECIMAL encoding
// as (mantissa, exponent); m is nil for a NULL value.
func (d *Decoder) Decimal() (m *big.Int, exp int, err error) {
	bs := d.b[:decSize]
	if _, err := d.readFull(bs); err != nil {
		return nil, 0, nil
	}

	if (bs[15] & 0x70) == 0x70 { // null (bits 4,5,6 set)
		return nil, 0, nil
	}
	if (bs[15] & 0x60) == 0x60 {
		return nil, 0, fmt.Errorf("encoding: decimal format (infinity, nan) not supported: %v", bs)
	}

	neg := (bs[15] & 0x80) != 0
	exp = int((((uint16(bs[15])<<8)|uint16(bs[14]))<<1)>>2) - dec128Bias

	bs[14] &= 0x01 // keep mantissa bit, clear exponent bits

	msb := 14
	for msb > 0 && bs[msb] == 0 {
		msb--
	}
	numWords := (msb / _S) + 1
	ws := make([]big.Word, numWords)
	for i, b := range bs[:msb+1] {
		ws[i/_S] |= big.Word(b) << (i % _S * 8)
	}
	m = new(big.Int).SetBits(ws)
	if neg {
		m.Neg(m)
	}
	return m, exp, nil
}

// Fixed reads and returns a size-byte little-endian two's complement integer
// (FIXED8/FIXED12/FIXED16).
func (d *Decoder) Fixed(size int) *big.Int {
	bs := make([]byte, size)
	if _, err := d.readFull(bs); err != nil {
		return nil
	}

	neg := (bs[size-1] & 0x80) != 0

	msb := size - 1
	for msb > 0 && bs[msb] == 0 {
		msb--
	}
	numWords := (msb / _S) + 1
	ws := make([]big.Word, numWords)
	for i, b := range bs[:msb+1] {
		if neg {
			b = ^b
		}
		ws[i/_S] |= big.Word(b) << (i % _S * 8)
	}
	m := new(big.Int).SetBits(ws)
	if neg {
		m.Add(m, natOne)
		m.Neg(m)
	}
	return m
}
