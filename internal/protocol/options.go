// SPDX-FileCopyrightText: 2014-2022 SAP SE
//
// SPDX-License-Identifier: Apache-2.0

package protocol

import (
	"fmt"

	"github.com/hdbwire/hdbwire/internal/protocol/encoding"
)

// optType tags which value variant a plain option entry carries: bool,
// int32, bigint, double, string or bytes.
type optType int8

const (
	otBool optType = iota
	otInt32
	otBigint
	otDouble
	otString
	otBytes
)

// optValue is the discriminated value of a single key/value option entry.
type optValue struct {
	typ optType
	b   bool
	i   int64
	f   float64
	s   string
	bs  []byte
}

func boolOpt(b bool) optValue       { return optValue{typ: otBool, b: b} }
func int32Opt(i int32) optValue     { return optValue{typ: otInt32, i: int64(i)} }
func bigintOpt(i int64) optValue    { return optValue{typ: otBigint, i: i} }
func doubleOpt(f float64) optValue  { return optValue{typ: otDouble, f: f} }
func stringOpt(s string) optValue   { return optValue{typ: otString, s: s} }
func bytesOpt(b []byte) optValue    { return optValue{typ: otBytes, bs: b} }

func (v optValue) encode(enc *encoding.Encoder) error {
	enc.Int8(int8(v.typ))
	switch v.typ {
	case otBool:
		enc.Bool(v.b)
	case otInt32:
		enc.Int32(int32(v.i))
	case otBigint:
		enc.Int64(v.i)
	case otDouble:
		enc.Float64(v.f)
	case otString:
		enc.Int16(int16(len(v.s)))
		enc.String(v.s)
	case otBytes:
		enc.Int16(int16(len(v.bs)))
		enc.Bytes(v.bs)
	}
	return enc.Error()
}

func decodeOptValue(dec *encoding.Decoder) optValue {
	typ := optType(dec.Int8())
	switch typ {
	case otBool:
		return boolOpt(dec.Bool())
	case otInt32:
		return int32Opt(dec.Int32())
	case otBigint:
		return bigintOpt(dec.Int64())
	case otDouble:
		return doubleOpt(dec.Float64())
	case otString:
		n := int(dec.Int16())
		b := make([]byte, n)
		dec.Bytes(b)
		return stringOpt(string(b))
	case otBytes:
		n := int(dec.Int16())
		b := make([]byte, n)
		dec.Bytes(b)
		return bytesOpt(b)
	default:
		return optValue{}
	}
}

func (v optValue) size() int {
	switch v.typ {
	case otBool:
		return 2
	case otInt32:
		return 5
	case otBigint, otDouble:
		return 9
	case otString:
		return 3 + len(v.s)
	case otBytes:
		return 3 + len(v.bs)
	default:
		return 1
	}
}

// OptionPart is a generic keyed bag of options (connect options, statement
// context, transaction flags, topology information, XA options, DB connect
// info, client context). K is the concrete key enumeration for one kind of
// option part.
type OptionPart[K ~int8] struct {
	m map[K]optValue
}

// NewOptionPart returns an empty option part.
func NewOptionPart[K ~int8]() *OptionPart[K] {
	return &OptionPart[K]{m: make(map[K]optValue)}
}

func (p *OptionPart[K]) setBool(k K, v bool)         { p.m[k] = boolOpt(v) }
func (p *OptionPart[K]) setInt32(k K, v int32)       { p.m[k] = int32Opt(v) }
func (p *OptionPart[K]) setBigint(k K, v int64)      { p.m[k] = bigintOpt(v) }
func (p *OptionPart[K]) setDouble(k K, v float64)    { p.m[k] = doubleOpt(v) }
func (p *OptionPart[K]) setString(k K, v string)     { p.m[k] = stringOpt(v) }
func (p *OptionPart[K]) setBytes(k K, v []byte)      { p.m[k] = bytesOpt(v) }

func (p *OptionPart[K]) bool(k K) (bool, bool) {
	v, ok := p.m[k]
	return v.b, ok
}
func (p *OptionPart[K]) int32(k K) (int32, bool) {
	v, ok := p.m[k]
	return int32(v.i), ok
}
func (p *OptionPart[K]) bigint(k K) (int64, bool) {
	v, ok := p.m[k]
	return v.i, ok
}
func (p *OptionPart[K]) string(k K) (string, bool) {
	v, ok := p.m[k]
	return v.s, ok
}
func (p *OptionPart[K]) bytes(k K) ([]byte, bool) {
	v, ok := p.m[k]
	return v.bs, ok
}

func (p *OptionPart[K]) numArg() int { return len(p.m) }

func (p *OptionPart[K]) size() int {
	n := 0
	for k, v := range p.m {
		_ = k
		n += 1 + v.size() // key byte; the type byte is counted inside size()
	}
	return n
}

func (p *OptionPart[K]) encode(enc *encoding.Encoder) error {
	for k, v := range p.m {
		enc.Int8(int8(k))
		if err := v.encode(enc); err != nil {
			return err
		}
	}
	return enc.Error()
}

func (p *OptionPart[K]) decode(dec *encoding.Decoder, numArg int) error {
	p.m = make(map[K]optValue, numArg)
	for i := 0; i < numArg; i++ {
		k := K(dec.Int8())
		p.m[k] = decodeOptValue(dec)
	}
	return dec.Error()
}

func (p *OptionPart[K]) String() string {
	return fmt.Sprintf("options(%d)", len(p.m))
}

// merge copies every entry of other into p, overwriting existing keys.
func (p *OptionPart[K]) merge(other *OptionPart[K]) {
	for k, v := range other.m {
		p.m[k] = v
	}
}

// clone returns a shallow copy of p.
func (p *OptionPart[K]) clone() *OptionPart[K] {
	c := NewOptionPart[K]()
	for k, v := range p.m {
		c.m[k] = v
	}
	return c
}
