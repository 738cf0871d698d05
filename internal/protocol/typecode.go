// SPDX-FileCopyrightText: 2014-2022 SAP SE
//
// SPDX-License-Identifier: Apache-2.0

package protocol

import "fmt"

// TypeCode identifies the wire type of a column, parameter or field value.
type TypeCode byte

// TypeCode constants, as transferred on the wire.
const (
	tcNull        TypeCode = 0x00
	tcTinyint     TypeCode = 0x01
	tcSmallint    TypeCode = 0x02
	tcInteger     TypeCode = 0x03
	tcBigint      TypeCode = 0x04
	tcDecimal     TypeCode = 0x05
	tcReal        TypeCode = 0x06
	tcDouble      TypeCode = 0x07
	tcChar        TypeCode = 0x08
	tcVarchar     TypeCode = 0x09
	tcNchar       TypeCode = 0x0A
	tcNvarchar    TypeCode = 0x0B
	tcBinary      TypeCode = 0x0C
	tcVarbinary   TypeCode = 0x0D
	tcDate        TypeCode = 0x0E
	tcTime        TypeCode = 0x0F
	tcTimestamp   TypeCode = 0x10
	tcClob        TypeCode = 0x19
	tcNclob       TypeCode = 0x1A
	tcBlob        TypeCode = 0x1B
	tcBoolean     TypeCode = 0x1C
	tcString      TypeCode = 0x1D
	tcNstring     TypeCode = 0x1E
	tcBstring     TypeCode = 0x21
	tcText        TypeCode = 0x33
	tcShorttext   TypeCode = 0x34
	tcAlphanum    TypeCode = 0x37
	tcLongdate    TypeCode = 0x3D
	tcSeconddate  TypeCode = 0x3E
	tcDaydate     TypeCode = 0x3F
	tcSecondtime  TypeCode = 0x40
	tcSmalldecimal TypeCode = 0x2F
	tcFixed16     TypeCode = 0x4C
	tcFixed8      TypeCode = 0x51
	tcFixed12     TypeCode = 0x52

	// tcBintext and tcLocator are on-wire metadata type codes that never carry
	// a distinct value encoding of their own: encodeTypeCode remaps both (and
	// tcText) to tcNclob for the byte actually written ahead of a parameter.
	tcBintext TypeCode = 0x35
	tcLocator TypeCode = 0x1F

	// tcSecondtimeNull is the fixed null type-code byte for tcSecondtime
	// parameters: HANA rejects the usual high-bit-set encoding for this type
	// (error 1033, "no such data type"), so its null form is this constant
	// instead of tcSecondtime|0x80.
	tcSecondtimeNull TypeCode = 0xb0
)

var typeCodeNames = map[TypeCode]string{
	tcNull: "NULL", tcTinyint: "TINYINT", tcSmallint: "SMALLINT", tcInteger: "INTEGER",
	tcBigint: "BIGINT", tcDecimal: "DECIMAL", tcReal: "REAL", tcDouble: "DOUBLE",
	tcChar: "CHAR", tcVarchar: "VARCHAR", tcNchar: "NCHAR", tcNvarchar: "NVARCHAR",
	tcBinary: "BINARY", tcVarbinary: "VARBINARY", tcDate: "DATE", tcTime: "TIME",
	tcTimestamp: "TIMESTAMP", tcClob: "CLOB", tcNclob: "NCLOB", tcBlob: "BLOB",
	tcBoolean: "BOOLEAN", tcString: "STRING", tcNstring: "NSTRING", tcBstring: "BSTRING",
	tcText: "TEXT", tcShorttext: "SHORTTEXT", tcAlphanum: "ALPHANUM",
	tcLongdate: "LONGDATE", tcSeconddate: "SECONDDATE", tcDaydate: "DAYDATE",
	tcSecondtime: "SECONDTIME", tcSmalldecimal: "SMALLDECIMAL",
	tcFixed16: "FIXED16", tcFixed8: "FIXED8", tcFixed12: "FIXED12",
}

func (tc TypeCode) String() string {
	if s, ok := typeCodeNames[tc]; ok {
		return s
	}
	return fmt.Sprintf("TypeCode(%#x)", byte(tc))
}

// IsLob reports whether tc represents a streamed large object type.
func (tc TypeCode) IsLob() bool {
	return tc == tcClob || tc == tcNclob || tc == tcBlob || tc == tcText || tc == tcBintext || tc == tcLocator
}

// isCharBased reports whether tc is a character (as opposed to binary) LOB.
func (tc TypeCode) isCharBased() bool { return tc == tcNclob || tc == tcText }

// IsNCharLob reports whether tc is a LOB whose wire bytes are CESU-8 and
// need the surrogate-safe NCLOB reader/writer rather than the raw one.
func (tc TypeCode) IsNCharLob() bool { return tc.isCharBased() }

// isVariableLength reports whether tc is encoded with a length-indicator.
func (tc TypeCode) isVariableLength() bool {
	switch tc {
	case tcChar, tcNchar, tcVarchar, tcNvarchar, tcBinary, tcVarbinary, tcString, tcNstring, tcBstring, tcShorttext, tcAlphanum:
		return true
	default:
		return false
	}
}

// isDecimalType reports whether tc is one of the decimal-family wire types.
func (tc TypeCode) isDecimalType() bool {
	switch tc {
	case tcDecimal, tcSmalldecimal, tcFixed8, tcFixed12, tcFixed16:
		return true
	default:
		return false
	}
}

// encodeTypeCode returns the type-code byte written ahead of an input
// parameter value: identical to tc except for tcText/tcBintext/tcLocator,
// which HANA expects tagged as tcNclob on this wire, matching the code it
// returns for the corresponding column metadata.
func (tc TypeCode) encodeTypeCode() TypeCode {
	switch tc {
	case tcText, tcBintext, tcLocator:
		return tcNclob
	default:
		return tc
	}
}

// supportsNullTypeCode reports whether tc's NULL parameter value is encoded
// by setting the high bit of its type-code byte. Boolean is the one
// exception: its three wire states (false=0, null=1, true=2) are carried in
// the value byte itself, with no high-bit tagging.
func (tc TypeCode) supportsNullTypeCode() bool { return tc != tcBoolean }

// nullTypeCode returns the type-code byte written for a NULL input
// parameter of type tc, when supportsNullTypeCode reports true.
func (tc TypeCode) nullTypeCode() TypeCode {
	if tc == tcSecondtime {
		return tcSecondtimeNull
	}
	return tc | 0x80
}
