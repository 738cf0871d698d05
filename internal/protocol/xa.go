// SPDX-FileCopyrightText: 2014-2022 SAP SE
//
// SPDX-License-Identifier: Apache-2.0

package protocol

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// XID is an opaque global transaction identifier, carried as raw bytes in
// the XatOptions part's XoValue entry.
type XID []byte

// NewXID returns a fresh XID seeded from a random UUID, for callers that do
// not supply their own global transaction id.
func NewXID() XID {
	id := uuid.New()
	return XID(id[:])
}

// XAReturnCode is the outcome reported in an XatOptions reply's
// XoReturnCode entry, using the X/Open XA specification's taxonomy.
type XAReturnCode int32

// Standard XA return codes.
const (
	XAOK         XAReturnCode = 0
	XARBRollback XAReturnCode = 100
	XAErrAsync   XAReturnCode = -2
	XAErrRMErr   XAReturnCode = -3
	XAErrNota    XAReturnCode = -4
	XAErrInval   XAReturnCode = -5
	XAErrProto   XAReturnCode = -6
	XAErrRMFail  XAReturnCode = -7
	XAErrDupid   XAReturnCode = -8
	XAErrOutside XAReturnCode = -9
)

func (c XAReturnCode) Error() string { return fmt.Sprintf("protocol: xa return code %d", int32(c)) }

// hanaXACodeToReturnCode translates the HANA-specific 210..216 error codes
// into the standard XA return-code taxonomy.
func hanaXACodeToReturnCode(code int32) XAReturnCode {
	switch code {
	case 210:
		return XAErrRMErr
	case 211:
		return XAErrRMFail
	case 212:
		return XAErrNota
	case 213:
		return XAErrInval
	case 214:
		return XAErrProto
	case 215:
		return XAErrDupid
	case 216:
		return XAErrOutside
	default:
		return XAErrRMErr
	}
}

// SetAutoCommit toggles whether ExecDirect/Execute auto-commit when not
// already inside an explicit transaction. XA verbs require it off.
func (s *Session) SetAutoCommit(v bool) {
	s.mu.Lock()
	s.autoCommit = v
	s.mu.Unlock()
}

func (s *Session) xaRoundTrip(mt MessageType, xo *XAOptions) (*XAOptions, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.autoCommit {
		return nil, fmt.Errorf("protocol: xa verb requires autocommit off")
	}

	var reps []*XAOptions
	err := s.dispatch(context.Background(), mt, false,
		[]outPart{{pkXatOptions, xo}}, func(ph *PartHeader) {
			if ph.PartKind != pkXatOptions {
				return
			}
			o := NewOptionPart[XATransactionOptionKey]()
			if err := o.decode(s.pr.Decoder(), ph.numArg()); err != nil {
				return
			}
			reps = append(reps, o)
		})
	if err != nil {
		return nil, err
	}
	if len(reps) == 0 {
		return nil, fmt.Errorf("protocol: xa reply missing XatOptions part")
	}
	return reps[0], nil
}

func xaReturnCodeErr(o *XAOptions) error {
	code, ok := o.int32(XoReturnCode)
	if !ok || code == int32(XAOK) {
		return nil
	}
	return hanaXACodeToReturnCode(code)
}

// XAStart associates id with the session's subsequent work. flags is
// restricted to TMNOFLAGS|TMJOIN|TMRESUME.
func (s *Session) XAStart(id XID, flags int32) error {
	o, err := s.xaRoundTrip(MtXAStart, newXAOptionsForXID(id, flags))
	if err != nil {
		return err
	}
	return xaReturnCodeErr(o)
}

// XAEnd dissociates id from the session. flags is restricted to
// TMSUCCESS|TMFAIL|TMSUSPEND.
func (s *Session) XAEnd(id XID, flags int32) error {
	o, err := s.xaRoundTrip(MtXAEnd, newXAOptionsForXID(id, flags))
	if err != nil {
		return err
	}
	return xaReturnCodeErr(o)
}

// XAPrepare asks the resource manager to vote on committing id, returning
// true if the transaction was read-only (nothing to commit).
func (s *Session) XAPrepare(id XID) (readOnly bool, err error) {
	o, err := s.xaRoundTrip(MtXAPrepare, newXAOptionsForXID(id, xaFlagNoFlags))
	if err != nil {
		return false, err
	}
	code, _ := o.int32(XoReturnCode)
	if code == 3 { // XA_RDONLY: the branch did no work, nothing left to commit
		return true, nil
	}
	if err := xaReturnCodeErr(o); err != nil {
		return false, err
	}
	return false, nil
}

// XACommit commits id. onePhase skips the prepare round trip (flags
// restricted to TMNOFLAGS|TMONEPHASE).
func (s *Session) XACommit(id XID, onePhase bool) error {
	flags := xaFlagNoFlags
	if onePhase {
		flags = xaFlagOnePhase
	}
	o, err := s.xaRoundTrip(MtXACommit, newXAOptionsForXID(id, flags))
	if err != nil {
		return err
	}
	return xaReturnCodeErr(o)
}

// XARollback rolls back id.
func (s *Session) XARollback(id XID) error {
	o, err := s.xaRoundTrip(MtXARollback, newXAOptionsForXID(id, xaFlagNoFlags))
	if err != nil {
		return err
	}
	return xaReturnCodeErr(o)
}

// XAForget releases a heuristically-completed id.
func (s *Session) XAForget(id XID) error {
	o, err := s.xaRoundTrip(MtXAForget, newXAOptionsForXID(id, xaFlagNoFlags))
	if err != nil {
		return err
	}
	return xaReturnCodeErr(o)
}

// XARecover asks the resource manager for in-doubt transaction ids in a
// single round trip, with both recovery-scan flags set and onlyCommitted
// sent along. Only the reply's one XoValue entry is read, so at most one id
// is returned.
func (s *Session) XARecover(onlyCommitted bool) ([]XID, error) {
	xo := newXAOptions(xaFlagStartRScan | xaFlagEndRScan)
	xo.setBool(XoOnlyCommitted, onlyCommitted)

	o, err := s.xaRoundTrip(MtXARecover, xo)
	if err != nil {
		return nil, err
	}
	if err := xaReturnCodeErr(o); err != nil {
		return nil, err
	}
	ids := make([]XID, 0, 1)
	if v, ok := o.bytes(XoValue); ok {
		ids = append(ids, XID(v))
	}
	return ids, nil
}
