// SPDX-FileCopyrightText: 2014-2022 SAP SE
//
// SPDX-License-Identifier: Apache-2.0

package protocol

import (
	"bytes"
	"math/big"
	"testing"
	"time"

	"github.com/hdbwire/hdbwire/internal/protocol/encoding"
)

// encodeDecodeValue round trips v through encodeValue/decodeValue exactly
// as a bound parameter and a result column would: a type-code byte (or its
// null variant) ahead of the value body, mirroring InputParameters.encode
// and decodeResultRows.
func encodeDecodeValue(t *testing.T, tc TypeCode, scale int, v any) Value {
	t.Helper()
	var buf bytes.Buffer
	enc := encoding.NewEncoder(&buf, newCesu8Encoder)
	if v == nil && tc.supportsNullTypeCode() {
		enc.Byte(byte(tc.nullTypeCode()))
	} else {
		enc.Byte(byte(tc.encodeTypeCode()))
		if err := encodeValue(enc, tc, scale, v); err != nil {
			t.Fatalf("encodeValue(%s): %v", tc, err)
		}
	}
	if err := enc.Error(); err != nil {
		t.Fatalf("encode: %v", err)
	}

	dec := encoding.NewDecoder(bytes.NewReader(buf.Bytes()), newCesu8Decoder)
	dec.Byte() // type-code byte, already known by the caller in real use
	got, err := decodeValue(dec, tc, scale)
	if err != nil {
		t.Fatalf("decodeValue(%s): %v", tc, err)
	}
	return got
}

func TestValueCodecRoundtrip(t *testing.T) {
	now := time.Date(2026, 3, 5, 12, 30, 0, 0, time.UTC)

	tests := []struct {
		name  string
		tc    TypeCode
		scale int
		v     any
		want  any // expected Value.Interface(), compared with reflect-ish equality below
	}{
		{"tinyint", tcTinyint, 0, int64(200), int64(200)},
		{"smallint", tcSmallint, 0, int64(-1234), int64(-1234)},
		{"integer", tcInteger, 0, int64(123456), int64(123456)},
		{"bigint", tcBigint, 0, int64(-9000000000), int64(-9000000000)},
		{"real", tcReal, 0, float64(float32(3.5)), float64(float32(3.5))},
		{"double", tcDouble, 0, float64(2.71828), float64(2.71828)},
		{"boolean true", tcBoolean, 0, true, true},
		{"boolean false", tcBoolean, 0, false, false},
		{"longdate", tcLongdate, 0, now, now},
		{"varchar", tcVarchar, 0, "hello", []byte("hello")},
		{"nvarchar", tcNvarchar, 0, "hello, 世界", "hello, 世界"},
		{"fixed8", tcFixed8, 2, big.NewRat(12345, 100), big.NewRat(12345, 100)},
		{"fixed12", tcFixed12, 4, big.NewRat(123456789, 10000), big.NewRat(123456789, 10000)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := encodeDecodeValue(t, tt.tc, tt.scale, tt.v)
			if got.IsNull() {
				t.Fatalf("decoded value is NULL, want %v", tt.want)
			}
			switch want := tt.want.(type) {
			case []byte:
				gv, ok := got.Interface().([]byte)
				if !ok || !bytes.Equal(gv, want) {
					t.Errorf("got %v, want %v", got.Interface(), want)
				}
			case *big.Rat:
				gv, ok := got.Interface().(*big.Rat)
				if !ok || gv.Cmp(want) != 0 {
					t.Errorf("got %v, want %v", got.Interface(), want)
				}
			case time.Time:
				gv, ok := got.Interface().(time.Time)
				if !ok || !gv.Equal(want) {
					t.Errorf("got %v, want %v", got.Interface(), want)
				}
			default:
				if got.Interface() != tt.want {
					t.Errorf("got %v (%T), want %v (%T)", got.Interface(), got.Interface(), tt.want, tt.want)
				}
			}
		})
	}
}

func TestValueCodecRoundtripNull(t *testing.T) {
	tests := []TypeCode{tcTinyint, tcSmallint, tcInteger, tcBigint, tcReal, tcDouble, tcVarchar, tcNvarchar}
	for _, tc := range tests {
		t.Run(tc.String(), func(t *testing.T) {
			got := encodeDecodeValue(t, tc, 0, nil)
			if !got.IsNull() {
				t.Errorf("decoded value = %v, want NULL", got.Interface())
			}
		})
	}
}

// TestDecimalNormalizationInvariant asserts spec invariant 4: the legacy
// 16-byte DECIMAL encoding's mantissa is never a multiple of ten, and the
// value decodes back exactly when it fits.
func TestDecimalNormalizationInvariant(t *testing.T) {
	tests := []*big.Rat{
		big.NewRat(100, 1),
		big.NewRat(12300, 1),
		big.NewRat(-4000, 1),
		big.NewRat(1, 1),
		big.NewRat(123456789, 1000),
		big.NewRat(0, 1),
	}

	for _, want := range tests {
		t.Run(want.String(), func(t *testing.T) {
			m := new(big.Int)
			exp, _ := convertRatToDecimal(want, m, 34, -6176, 6111)

			if m.Sign() != 0 {
				r := new(big.Int).Mod(m, big.NewInt(10))
				if r.Sign() == 0 {
					t.Errorf("mantissa %s is a multiple of ten (exp %d)", m, exp)
				}
			}

			got := decimalToRat(m, exp)
			if got.Cmp(want) != 0 {
				t.Errorf("decoded %s, want %s", got, want)
			}
		})
	}
}

// TestLengthIndicatorBoundaries asserts spec invariant 3: boundary sizes
// round trip through the length-indicator header exactly, switching at the
// documented 1/2/4-byte encoding widths.
func TestLengthIndicatorBoundaries(t *testing.T) {
	sizes := []int{0, 245, 246, 65535, 65536}

	for _, size := range sizes {
		t.Run("", func(t *testing.T) {
			p := bytes.Repeat([]byte{0xAB}, size)

			var buf bytes.Buffer
			enc := encoding.NewEncoder(&buf, newCesu8Encoder)
			enc.WriteVarBytes(p)
			if err := enc.Error(); err != nil {
				t.Fatalf("encode size %d: %v", size, err)
			}

			dec := encoding.NewDecoder(bytes.NewReader(buf.Bytes()), newCesu8Decoder)
			got, ok := dec.VarBytes()
			if err := dec.Error(); err != nil {
				t.Fatalf("decode size %d: %v", size, err)
			}
			if !ok {
				t.Fatalf("decode size %d: got NULL", size)
			}
			if !bytes.Equal(got, p) {
				t.Fatalf("decode size %d: length mismatch, got %d bytes, want %d", size, len(got), len(p))
			}
		})
	}
}

// TestLengthIndicatorMaxBoundary asserts the 2^31-1 boundary from spec
// invariant 3 without allocating a 2GiB payload: WriteLength's header
// framing is a pure function of size, so only the 5-byte 4-byte-marker
// header is checked here, not a full round trip of the body.
func TestLengthIndicatorMaxBoundary(t *testing.T) {
	const maxSize = 1<<31 - 1

	var buf bytes.Buffer
	enc := encoding.NewEncoder(&buf, newCesu8Encoder)
	enc.WriteLength(maxSize)
	if err := enc.Error(); err != nil {
		t.Fatalf("encode header for size %d: %v", maxSize, err)
	}
	if got := buf.Len(); got != 5 {
		t.Fatalf("header for size %d: got %d bytes, want 5 (1-byte marker + uint32)", maxSize, got)
	}

	dec := encoding.NewDecoder(bytes.NewReader(buf.Bytes()), newCesu8Decoder)
	n, ok := dec.ReadLength()
	if err := dec.Error(); err != nil {
		t.Fatalf("decode header for size %d: %v", maxSize, err)
	}
	if !ok {
		t.Fatalf("decode header for size %d: got NULL", maxSize)
	}
	if n != maxSize {
		t.Fatalf("decode header for size %d: got %d", maxSize, n)
	}
}
