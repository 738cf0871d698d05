// SPDX-FileCopyrightText: 2014-2022 SAP SE
//
// SPDX-License-Identifier: Apache-2.0

package protocol

import (
	"fmt"
	"math/big"
	"time"

	"github.com/hdbwire/hdbwire/internal/protocol/encoding"
	"github.com/hdbwire/hdbwire/internal/unicode/cesu8"
)

// decimalWireSize is the fixed width of the legacy DECIMAL/SMALLDECIMAL
// on-wire encoding (128-bit mantissa + biased exponent + sign).
const decimalWireSize = 16

// Value is the decoded form of a single column/parameter field. Exactly one
// of the typed accessors is meaningful, selected by the originating
// TypeCode; nil represents SQL NULL for any type.
type Value struct {
	tc  TypeCode
	v   any
}

// IsNull reports whether the value is SQL NULL.
func (f Value) IsNull() bool { return f.v == nil }

// TypeCode returns the wire type this value was decoded as.
func (f Value) TypeCode() TypeCode { return f.tc }

// Interface returns the decoded value as one of: nil, bool, int64, float64,
// []byte, string, *big.Rat (DECIMAL/FIXEDn), time.Time, *LobOutDescr,
// *LobInDescr.
func (f Value) Interface() any { return f.v }

func nullValue(tc TypeCode) Value { return Value{tc: tc} }

// decodeValue decodes a single field of the given wire type. scale applies
// to the FIXEDn family only, supplied by the owning column's metadata.
func decodeValue(dec *encoding.Decoder, tc TypeCode, scale int) (Value, error) {
	switch tc {
	case tcBoolean:
		switch b := dec.Byte(); b {
		case 0:
			return Value{tc: tc, v: false}, nil
		case 1:
			return nullValue(tc), nil
		default:
			return Value{tc: tc, v: true}, nil
		}
	case tcTinyint:
		ok := dec.Bool()
		v := dec.Byte()
		if !ok {
			return nullValue(tc), nil
		}
		return Value{tc: tc, v: int64(v)}, nil
	case tcSmallint:
		ok := dec.Bool()
		v := dec.Int16()
		if !ok {
			return nullValue(tc), nil
		}
		return Value{tc: tc, v: int64(v)}, nil
	case tcInteger:
		ok := dec.Bool()
		v := dec.Int32()
		if !ok {
			return nullValue(tc), nil
		}
		return Value{tc: tc, v: int64(v)}, nil
	case tcBigint:
		ok := dec.Bool()
		v := dec.Int64()
		if !ok {
			return nullValue(tc), nil
		}
		return Value{tc: tc, v: v}, nil
	case tcReal:
		ok := dec.Bool()
		v := dec.Float32()
		if !ok {
			return nullValue(tc), nil
		}
		return Value{tc: tc, v: float64(v)}, nil
	case tcDouble:
		ok := dec.Bool()
		v := dec.Float64()
		if !ok {
			return nullValue(tc), nil
		}
		return Value{tc: tc, v: v}, nil
	case tcLongdate:
		v := dec.Int64()
		if v == longdateNull {
			return nullValue(tc), nil
		}
		return Value{tc: tc, v: longdateToTime(v)}, nil
	case tcSeconddate:
		v := dec.Int64()
		if v == seconddateNull {
			return nullValue(tc), nil
		}
		return Value{tc: tc, v: seconddateToTime(v)}, nil
	case tcDaydate:
		v := dec.Int32()
		if v == daydateNull {
			return nullValue(tc), nil
		}
		return Value{tc: tc, v: daydateToTime(int64(v))}, nil
	case tcSecondtime:
		v := dec.Int32()
		if v == secondtimeNull {
			return nullValue(tc), nil
		}
		return Value{tc: tc, v: secondtimeToTime(v)}, nil
	case tcDecimal, tcSmalldecimal:
		m, exp, err := dec.Decimal()
		if err != nil {
			return Value{}, err
		}
		if m == nil {
			return nullValue(tc), nil
		}
		return Value{tc: tc, v: decimalToRat(m, exp)}, nil
	case tcFixed8, tcFixed12, tcFixed16:
		size := fixedSize(tc)
		m := dec.Fixed(size)
		if m == nil {
			return nullValue(tc), nil
		}
		return Value{tc: tc, v: fixedToRat(m, scale)}, nil
	case tcChar, tcVarchar, tcBinary, tcVarbinary, tcBstring, tcAlphanum, tcShorttext:
		b, ok := dec.VarBytes()
		if !ok {
			return nullValue(tc), nil
		}
		return Value{tc: tc, v: b}, nil
	case tcNchar, tcNvarchar, tcNstring:
		b, ok, err := dec.CESU8LIBytes()
		if err != nil {
			return Value{}, err
		}
		if !ok {
			return nullValue(tc), nil
		}
		return Value{tc: tc, v: string(b)}, nil
	default:
		return Value{}, fmt.Errorf("protocol: unsupported field type code %s", tc)
	}
}

func fixedSize(tc TypeCode) int {
	switch tc {
	case tcFixed8:
		return 8
	case tcFixed12:
		return 12
	default:
		return 16
	}
}

func decimalToRat(m *big.Int, exp int) *big.Rat {
	r := new(big.Rat).SetInt(m)
	if exp == 0 {
		return r
	}
	if exp > 0 {
		return r.Mul(r, new(big.Rat).SetInt(pow10(exp)))
	}
	return r.Quo(r, new(big.Rat).SetInt(pow10(-exp)))
}

func fixedToRat(m *big.Int, scale int) *big.Rat {
	r := new(big.Rat).SetInt(m)
	if scale == 0 {
		return r
	}
	return r.Quo(r, new(big.Rat).SetInt(pow10(scale)))
}

// encodeValue encodes v (as produced by an application: bool, integer
// kinds, float kinds, string, []byte, *big.Rat, or time.Time) as tc's
// parameter value bytes, following the type-code byte the caller has
// already written. A SQL NULL never reaches encodeValue except for
// tcBoolean: every other type signals NULL by tagging the type-code byte
// itself (TypeCode.nullTypeCode), so the caller never encodes a value body
// for it at all.
func encodeValue(enc *encoding.Encoder, tc TypeCode, scale int, v any) error {
	if tc == tcBoolean {
		switch {
		case v == nil:
			enc.Byte(1)
		case toBool(v):
			enc.Byte(2)
		default:
			enc.Byte(0)
		}
		return enc.Error()
	}
	if v == nil {
		return fmt.Errorf("protocol: unexpected nil value for type code %s", tc)
	}
	switch tc {
	case tcTinyint:
		enc.Byte(byte(toInt64(v)))
	case tcSmallint:
		enc.Int16(int16(toInt64(v)))
	case tcInteger:
		enc.Int32(int32(toInt64(v)))
	case tcBigint:
		enc.Int64(toInt64(v))
	case tcReal:
		enc.Float32(float32(toFloat64(v)))
	case tcDouble:
		enc.Float64(toFloat64(v))
	case tcLongdate:
		enc.Int64(timeToLongdate(toTime(v)))
	case tcSeconddate:
		enc.Int64(timeToSeconddate(toTime(v)))
	case tcDaydate:
		enc.Int32(int32(timeToDaydate(toTime(v))))
	case tcSecondtime:
		enc.Int32(timeToSecondtime(toTime(v)))
	case tcDecimal, tcSmalldecimal:
		m := new(big.Int)
		exp, _ := convertRatToDecimal(toRat(v), m, 34, -6176, 6111)
		enc.Decimal(m, exp, toRat(v).Sign() < 0)
	case tcFixed8, tcFixed12, tcFixed16:
		size := fixedSize(tc)
		m := new(big.Int)
		convertRatToFixed(toRat(v), m, maxFixedDigits(size), scale)
		enc.Fixed(m, size)
	case tcChar, tcVarchar, tcBinary, tcVarbinary, tcBstring, tcAlphanum, tcShorttext:
		enc.WriteVarBytes(toBytes(v))
	case tcNchar, tcNvarchar, tcNstring:
		enc.WriteCESU8LIString(toStringVal(v))
	default:
		return fmt.Errorf("protocol: unsupported field type code %s", tc)
	}
	return enc.Error()
}

// sizeValue returns the number of bytes encodeValue would write for non-nil
// v as tc, without actually encoding it — needed up front to size the part
// header of an input-parameter row before the row itself is streamed out.
func sizeValue(tc TypeCode, v any) int {
	if tc == tcBoolean {
		return 1
	}
	switch tc {
	case tcTinyint:
		return 1
	case tcSmallint:
		return 2
	case tcInteger, tcReal:
		return 4
	case tcBigint, tcDouble:
		return 8
	case tcLongdate, tcSeconddate:
		return 8
	case tcDaydate, tcSecondtime:
		return 4
	case tcDecimal, tcSmalldecimal:
		return decimalWireSize
	case tcFixed8, tcFixed12, tcFixed16:
		return fixedSize(tc)
	case tcChar, tcVarchar, tcBinary, tcVarbinary, tcBstring, tcAlphanum, tcShorttext:
		b := toBytes(v)
		return encoding.LIFieldSize(len(b)) + len(b)
	case tcNchar, tcNvarchar, tcNstring:
		n := cesu8.StringSize(toStringVal(v))
		return encoding.LIFieldSize(n) + n
	default:
		return 0
	}
}

func maxFixedDigits(size int) int {
	switch size {
	case 8:
		return 18
	case 12:
		return 28
	default:
		return 38
	}
}

func toBool(v any) bool {
	switch v := v.(type) {
	case bool:
		return v
	default:
		return toInt64(v) != 0
	}
}

func toInt64(v any) int64 {
	switch v := v.(type) {
	case int:
		return int64(v)
	case int8:
		return int64(v)
	case int16:
		return int64(v)
	case int32:
		return int64(v)
	case int64:
		return v
	case bool:
		if v {
			return 1
		}
		return 0
	default:
		return 0
	}
}

func toFloat64(v any) float64 {
	switch v := v.(type) {
	case float32:
		return float64(v)
	case float64:
		return v
	default:
		return 0
	}
}

func toTime(v any) time.Time {
	t, _ := v.(time.Time)
	return t
}

func toRat(v any) *big.Rat {
	switch v := v.(type) {
	case *big.Rat:
		return v
	case big.Rat:
		return &v
	default:
		return new(big.Rat)
	}
}

func toBytes(v any) []byte {
	switch v := v.(type) {
	case []byte:
		return v
	case string:
		return []byte(v)
	default:
		return nil
	}
}

func toStringVal(v any) string {
	switch v := v.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return ""
	}
}
