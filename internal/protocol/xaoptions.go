// SPDX-FileCopyrightText: 2014-2022 SAP SE
//
// SPDX-License-Identifier: Apache-2.0

package protocol

// XATransactionOptionKey identifies an entry of the XatOptions part
// exchanged on XAStart/XAEnd/XAPrepare/XACommit/XARollback/XAForget/
// XARecover requests.
type XATransactionOptionKey int8

// XATransactionOptionKey constants.
const (
	XoFlags         XATransactionOptionKey = 1
	XoReturnCode    XATransactionOptionKey = 2
	XoOnlyCommitted XATransactionOptionKey = 3
	XoValue         XATransactionOptionKey = 4
)

// XAOptions is the XatOptions option bag (pkXatOptions).
type XAOptions = OptionPart[XATransactionOptionKey]

// XA flag bits carried in XoFlags, mirroring the X/Open XA specification's
// TMNOFLAGS/TMJOIN/TMRESUME/TMSUSPEND/TMSUCCESS/TMFAIL/TMONEPHASE flags.
const (
	xaFlagNoFlags     int32 = 0x00000000
	xaFlagJoin        int32 = 0x00200000
	xaFlagResume      int32 = 0x08000000
	xaFlagSuspend     int32 = 0x02000000
	xaFlagSuccess     int32 = 0x04000000
	xaFlagFail        int32 = 0x20000000
	xaFlagOnePhase    int32 = 0x40000000
	xaFlagStartRScan  int32 = 0x01000000
	xaFlagEndRScan    int32 = 0x00800000
)

func newXAOptions(flags int32) *XAOptions {
	x := NewOptionPart[XATransactionOptionKey]()
	x.setInt32(XoFlags, flags)
	return x
}

func newXAOptionsForXID(id XID, flags int32) *XAOptions {
	x := newXAOptions(flags)
	x.setBytes(XoValue, []byte(id))
	return x
}
