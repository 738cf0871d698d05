// SPDX-FileCopyrightText: 2014-2022 SAP SE
//
// SPDX-License-Identifier: Apache-2.0

package protocol

import (
	"fmt"

	"github.com/hdbwire/hdbwire/internal/protocol/encoding"
)

// InputParameters is the bound-parameter row array of an Execute request
// (pkParameters): args is row-major, numCols(fields) values per row. A
// *LobInDescr argument reserves its locator inline (no bytes written here)
// and is streamed separately via WriteLobs once Execute returns the
// server-assigned locator ids in a WriteLobReply.
type InputParameters struct {
	fields []*ParameterField
	args   []any
}

// NewInputParameters validates that args is a whole multiple of len(fields)
// and wraps it for encoding.
func NewInputParameters(fields []*ParameterField, args []any) (*InputParameters, error) {
	n := len(fields)
	if n == 0 {
		if len(args) != 0 {
			return nil, fmt.Errorf("protocol: statement takes no parameters, got %d values", len(args))
		}
		return &InputParameters{fields: fields}, nil
	}
	if len(args)%n != 0 {
		return nil, fmt.Errorf("protocol: %d values is not a multiple of %d bind parameters", len(args), n)
	}
	return &InputParameters{fields: fields, args: args}, nil
}

func (p *InputParameters) numArg() int {
	n := len(p.fields)
	if n == 0 {
		return 0
	}
	return len(p.args) / n
}

func (p *InputParameters) size() int {
	n := len(p.fields)
	if n == 0 {
		return 0
	}
	size := 0
	for i := 0; i < len(p.args)/n; i++ {
		for j, f := range p.fields {
			v := p.args[i*n+j]
			if descr, ok := v.(*LobInDescr); ok {
				size += 1 + lobParamPlaceholderSize(descr)
				continue
			}
			if v == nil && f.TypeCode.supportsNullTypeCode() {
				size++ // null type-code byte only, no value bytes follow
				continue
			}
			size++ // type code byte, see encode
			size += sizeValue(f.TypeCode, v)
		}
	}
	return size
}

func (p *InputParameters) encode(enc *encoding.Encoder) error {
	n := len(p.fields)
	if n == 0 {
		return nil
	}
	for i := 0; i < len(p.args)/n; i++ {
		for j, f := range p.fields {
			v := p.args[i*n+j]
			if descr, ok := v.(*LobInDescr); ok {
				enc.Byte(byte(f.TypeCode.encodeTypeCode()))
				encodeLobParamPlaceholder(enc, descr)
				continue
			}
			if v == nil && f.TypeCode.supportsNullTypeCode() {
				enc.Byte(byte(f.TypeCode.nullTypeCode()))
				continue
			}
			enc.Byte(byte(f.TypeCode.encodeTypeCode()))
			if err := encodeValue(enc, f.TypeCode, f.Scale(), v); err != nil {
				return err
			}
		}
	}
	return enc.Error()
}

// lobParamPlaceholderSize is the on-wire size of an input LOB's row
// placeholder: the server allocates a locator and the actual content
// streams out afterwards via WriteLobs, so the placeholder itself carries
// no data.
func lobParamPlaceholderSize(descr *LobInDescr) int { return 1 + 4 }

func encodeLobParamPlaceholder(enc *encoding.Encoder, descr *LobInDescr) {
	var opt LobOptions
	if descr.EOF() {
		opt = loLastData
	}
	enc.Int8(int8(opt))
	enc.Int32(0) // no inline chunk; first bytes follow via WriteLobs
}
