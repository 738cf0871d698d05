// SPDX-FileCopyrightText: 2014-2022 SAP SE
//
// SPDX-License-Identifier: Apache-2.0

package protocol

import (
	"fmt"

	"github.com/hdbwire/hdbwire/internal/protocol/encoding"
)

type columnOptions int8

const (
	coMandatory columnOptions = 0x01
	coOptional  columnOptions = 0x02
)

// ResultField describes one column of a result set, as carried in the
// ResultMetadata part preceding the first ResultSet part of a query reply.
type ResultField struct {
	TableName         string
	SchemaName        string
	ColumnName        string
	ColumnDisplayName string
	TypeCode          TypeCode
	Length            int16
	Fraction          int16
	options           columnOptions

	tableNameOffset         uint32
	schemaNameOffset        uint32
	columnNameOffset        uint32
	columnDisplayNameOffset uint32
}

func (f *ResultField) String() string {
	return fmt.Sprintf("%s %s nullable=%v", f.ColumnDisplayName, f.TypeCode, f.Nullable())
}

// Nullable reports whether the column may contain SQL NULL.
func (f *ResultField) Nullable() bool { return f.options&coOptional != 0 }

// Scale returns the decimal scale for FIXEDn columns.
func (f *ResultField) Scale() int { return int(f.Fraction) }

func (f *ResultField) decode(dec *encoding.Decoder) {
	f.options = columnOptions(dec.Int8())
	f.TypeCode = TypeCode(dec.Int8())
	f.Fraction = dec.Int16()
	f.Length = dec.Int16()
	dec.Skip(2)
	f.tableNameOffset = dec.Uint32()
	f.schemaNameOffset = dec.Uint32()
	f.columnNameOffset = dec.Uint32()
	f.columnDisplayNameOffset = dec.Uint32()
}

// ResultMetadata is the column descriptor set of a result set
// (pkResultMetadata).
type ResultMetadata struct {
	Fields []*ResultField
}

func (m *ResultMetadata) decode(dec *encoding.Decoder, ph *PartHeader) error {
	m.Fields = make([]*ResultField, ph.numArg())

	names := fieldNames{}
	for i := range m.Fields {
		f := &ResultField{}
		f.decode(dec)
		m.Fields[i] = f
		names.insert(f.tableNameOffset)
		names.insert(f.schemaNameOffset)
		names.insert(f.columnNameOffset)
		names.insert(f.columnDisplayNameOffset)
	}
	if err := names.decode(dec); err != nil {
		return err
	}
	for _, f := range m.Fields {
		f.TableName = names.name(f.tableNameOffset)
		f.SchemaName = names.name(f.schemaNameOffset)
		f.ColumnName = names.name(f.columnNameOffset)
		f.ColumnDisplayName = names.name(f.columnDisplayNameOffset)
	}
	return dec.Error()
}

type parameterOptions int8

const (
	poMandatory parameterOptions = 0x01
	poOptional  parameterOptions = 0x02
	poDefault   parameterOptions = 0x04
)

// ParameterMode identifies whether a bound parameter is input, output or
// both (for procedure calls).
type ParameterMode int8

// ParameterMode constants.
const (
	PmIn    ParameterMode = 1
	PmInout ParameterMode = 2
	PmOut   ParameterMode = 4
)

// ParameterField describes one bind position of a prepared statement, as
// carried in the ParameterMetadata part of a Prepare reply.
type ParameterField struct {
	Name     string
	TypeCode TypeCode
	Mode     ParameterMode
	Length   int16
	Fraction int16
	options  parameterOptions

	nameOffset uint32
}

func (f *ParameterField) String() string {
	return fmt.Sprintf("%s %s mode=%d nullable=%v", f.Name, f.TypeCode, f.Mode, f.Nullable())
}

// Nullable reports whether the parameter accepts SQL NULL.
func (f *ParameterField) Nullable() bool { return f.options&poOptional != 0 }

// In reports whether this position is readable as an input bind.
func (f *ParameterField) In() bool { return f.Mode == PmIn || f.Mode == PmInout }

// Out reports whether this position is written back as an output bind.
func (f *ParameterField) Out() bool { return f.Mode == PmOut || f.Mode == PmInout }

// Scale returns the decimal scale for FIXEDn parameters.
func (f *ParameterField) Scale() int { return int(f.Fraction) }

func (f *ParameterField) decode(dec *encoding.Decoder) {
	f.options = parameterOptions(dec.Int8())
	f.TypeCode = TypeCode(dec.Int8())
	f.Mode = ParameterMode(dec.Int8())
	dec.Skip(1)
	f.nameOffset = dec.Uint32()
	f.Length = dec.Int16()
	f.Fraction = dec.Int16()
	dec.Skip(4)
}

// ParameterMetadata is the bind-position descriptor set of a prepared
// statement (pkParameterMetadata).
type ParameterMetadata struct {
	Fields []*ParameterField
}

func (m *ParameterMetadata) decode(dec *encoding.Decoder, ph *PartHeader) error {
	m.Fields = make([]*ParameterField, ph.numArg())

	names := fieldNames{}
	for i := range m.Fields {
		f := &ParameterField{}
		f.decode(dec)
		m.Fields[i] = f
		names.insert(f.nameOffset)
	}
	if err := names.decode(dec); err != nil {
		return err
	}
	for _, f := range m.Fields {
		f.Name = names.name(f.nameOffset)
	}
	return dec.Error()
}
