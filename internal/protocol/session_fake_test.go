// SPDX-FileCopyrightText: 2014-2022 SAP SE
//
// SPDX-License-Identifier: Apache-2.0

package protocol

import (
	"context"
	"errors"
	"io"
	"net"
	"testing"
	"time"
)

// TestCloseResultSetOnExplicitNeed asserts spec invariant 7: a chunk that
// does not carry the last-packet attribute leaves the cursor open
// (NeedsClose true), and an explicit CloseResultSet sends exactly one
// CloseResultSet request and marks the cursor closed.
func TestCloseResultSetOnExplicitNeed(t *testing.T) {
	closeRequests := 0
	sess, _ := newFakeSession(t, 910, func(fs *fakeServer) {
		sessionID, mt := fs.recvRequest()
		if mt != MtExecuteDirect {
			t.Errorf("request = %s, want ExecuteDirect", mt)
			return
		}
		fs.sendReply(sessionID, FcSelect,
			fakePart{kind: pkResultMetadata, argCount: 1, body: encodeResultFieldDescr(tcInteger)},
			fakePart{kind: pkResultsetID, argCount: 1, body: encodeResultsetID(7)},
			fakePart{kind: pkResultset, argCount: 1, attrs: attrsFor(false), body: encodeIntegerRows([]int32{1})},
		)

		sessionID, mt = fs.recvRequest()
		if mt != MtCloseResultset {
			t.Errorf("request = %s, want CloseResultSet", mt)
			return
		}
		closeRequests++
		fs.sendReply(sessionID, FcNil)
	})

	res, err := sess.ExecDirect("select N from T")
	if err != nil {
		t.Fatalf("ExecDirect: %v", err)
	}
	cur := res.Cursor
	if cur == nil {
		t.Fatal("no cursor returned")
	}
	if cur.LastChunk() {
		t.Fatal("LastChunk true, want false (non-final chunk)")
	}
	if !cur.NeedsClose() {
		t.Fatal("NeedsClose false, want true before an explicit close")
	}

	if err := sess.CloseResultSet(cur); err != nil {
		t.Fatalf("CloseResultSet: %v", err)
	}
	if !cur.Closed() {
		t.Error("cursor not marked closed after CloseResultSet")
	}
	if closeRequests != 1 {
		t.Errorf("fake server saw %d CloseResultSet requests, want exactly 1", closeRequests)
	}
}

// TestDropStatementID asserts spec invariant 8: dropping a prepared
// statement handle sends exactly one DropStatementID request carrying the
// handle's id.
func TestDropStatementID(t *testing.T) {
	const id = StatementID(0xC0FFEE)
	drops := 0
	sess, _ := newFakeSession(t, 911, func(fs *fakeServer) {
		sessionID, mt := fs.recvRequest()
		if mt != MtDropStatementID {
			t.Errorf("request = %s, want DropStatementID", mt)
			return
		}
		drops++
		fs.sendReply(sessionID, FcNil)
	})

	if err := sess.DropStatementID(id); err != nil {
		t.Fatalf("DropStatementID: %v", err)
	}
	if drops != 1 {
		t.Errorf("fake server saw %d DropStatementID requests, want exactly 1", drops)
	}
}

// TestExecuteBatchFailureZipping asserts spec invariant 9: a batch Execute
// reply whose RowsAffected entries include raExecuteFailed zips the
// accompanying per-statement errors onto the failed row indices, and the
// caller still receives the RowsAffected breakdown alongside the error
// (not a discarded nil result).
func TestExecuteBatchFailureZipping(t *testing.T) {
	sess, _ := newFakeSession(t, 912, func(fs *fakeServer) {
		sessionID, mt := fs.recvRequest()
		if mt != MtExecute {
			t.Errorf("request = %s, want Execute", mt)
			return
		}
		fs.sendReply(sessionID, FcInsert,
			fakePart{kind: pkRowsAffected, argCount: 3, body: encodeRowsAffected([]int32{1, raExecuteFailed, 1})},
			fakePart{kind: pkError, argCount: 1, body: encodeHdbError(301, -1, "unique constraint violated")},
		)
	})

	pr := &PrepareResult{
		StmtID:      StatementID(42),
		FunctionCode: FcInsert,
		ParamFields: []*ParameterField{{TypeCode: tcInteger, Mode: PmIn}},
	}

	res, err := sess.Execute(pr, []any{int64(1), int64(2), int64(3)})
	if err == nil {
		t.Fatal("Execute: want a batch-failure error, got nil")
	}
	if res == nil {
		t.Fatal("Execute: want a non-nil result alongside the batch-failure error")
	}

	want := RowsAffected{1, raExecuteFailed, 1}
	if len(res.RowsAffected) != len(want) {
		t.Fatalf("RowsAffected = %v, want %v", res.RowsAffected, want)
	}
	for i := range want {
		if res.RowsAffected[i] != want[i] {
			t.Errorf("RowsAffected[%d] = %d, want %d", i, res.RowsAffected[i], want[i])
		}
	}
	if total := res.RowsAffected.Total(); total != 2 {
		t.Errorf("Total() = %d, want 2", total)
	}
	if failed := res.RowsAffected.FailedAt(); len(failed) != 1 || failed[0] != 1 {
		t.Errorf("FailedAt() = %v, want [1]", failed)
	}

	var hdbErrs *HdbErrors
	if !errors.As(err, &hdbErrs) {
		t.Fatalf("error = %v (%T), want *HdbErrors", err, err)
	}
	if hdbErrs.NumError() != 1 {
		t.Fatalf("NumError() = %d, want 1", hdbErrs.NumError())
	}
	if got := hdbErrs.At(0).StmtNo(); got != 1 {
		t.Errorf("StmtNo() = %d, want 1 (the raExecuteFailed index)", got)
	}
}

// encodeRowsAffected builds the wire body of a RowsAffected part.
func encodeRowsAffected(vals []int32) []byte {
	var buf fakeEncBuf
	enc := newCesu8FakeEncoder(&buf)
	for _, v := range vals {
		enc.Int32(v)
	}
	return buf.b
}

// TestReconnectOnConnectionReset asserts spec invariant 10: a connection-
// reset-class error reconnects (redialing through SessionConfig.Redial and
// re-running the handshake) and retries the original roundtrip exactly
// once, succeeding transparently to the caller.
func TestReconnectOnConnectionReset(t *testing.T) {
	clientConn1, serverConn1 := net.Pipe()
	t.Cleanup(func() { clientConn1.Close(); serverConn1.Close() })

	firstDone := make(chan struct{})
	go func() {
		defer close(firstDone)
		runAuthHandshake(t, serverConn1, 100, func(fs *fakeServer) {
			sessionID, mt := fs.recvRequest()
			if mt != MtCommit {
				t.Errorf("request = %s, want Commit", mt)
				return
			}
			fs.sendReply(sessionID, FcNil,
				fakePart{kind: pkError, argCount: 1, body: encodeHdbError(HdbErrConnectionClosed, -1, "connection reset by peer")})
		})
	}()

	var clientConn2, serverConn2 net.Conn
	secondDone := make(chan struct{})
	redialCount := 0
	cfg := &fakeSessionConfig{
		redial: func(ctx context.Context) (io.ReadWriteCloser, error) {
			redialCount++
			clientConn2, serverConn2 = net.Pipe()
			go func() {
				defer close(secondDone)
				runAuthHandshake(t, serverConn2, 200, func(fs *fakeServer) {
					sessionID, mt := fs.recvRequest()
					if mt != MtCommit {
						t.Errorf("retried request = %s, want Commit", mt)
						return
					}
					fs.sendReply(sessionID, FcNil)
				})
			}()
			return clientConn2, nil
		},
	}

	sess, err := NewSession(clientConn1, cfg)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}

	if err := sess.Commit(); err != nil {
		t.Fatalf("Commit: want success after one reconnect, got: %v", err)
	}
	if redialCount != 1 {
		t.Errorf("redial count = %d, want 1", redialCount)
	}

	select {
	case <-firstDone:
	case <-time.After(2 * time.Second):
		t.Error("first fake server goroutine did not finish")
	}
	select {
	case <-secondDone:
	case <-time.After(2 * time.Second):
		t.Error("second fake server goroutine did not finish")
	}
	if clientConn2 != nil {
		clientConn2.Close()
	}
	if serverConn2 != nil {
		serverConn2.Close()
	}
}

// TestReconnectFailsAfterSecondFailure asserts invariant 10's bound: a
// second failure after a successful reconnect propagates as
// *ErrorAfterReconnect rather than retrying again.
func TestReconnectFailsAfterSecondFailure(t *testing.T) {
	clientConn1, serverConn1 := net.Pipe()
	t.Cleanup(func() { clientConn1.Close(); serverConn1.Close() })

	firstDone := make(chan struct{})
	go func() {
		defer close(firstDone)
		runAuthHandshake(t, serverConn1, 300, func(fs *fakeServer) {
			sessionID, mt := fs.recvRequest()
			if mt != MtCommit {
				t.Errorf("request = %s, want Commit", mt)
				return
			}
			fs.sendReply(sessionID, FcNil,
				fakePart{kind: pkError, argCount: 1, body: encodeHdbError(HdbErrConnectionClosed, -1, "connection reset by peer")})
		})
	}()

	var clientConn2, serverConn2 net.Conn
	secondDone := make(chan struct{})
	cfg := &fakeSessionConfig{
		redial: func(ctx context.Context) (io.ReadWriteCloser, error) {
			clientConn2, serverConn2 = net.Pipe()
			go func() {
				defer close(secondDone)
				runAuthHandshake(t, serverConn2, 400, func(fs *fakeServer) {
					sessionID, mt := fs.recvRequest()
					if mt != MtCommit {
						t.Errorf("retried request = %s, want Commit", mt)
						return
					}
					fs.sendReply(sessionID, FcNil,
						fakePart{kind: pkError, argCount: 1, body: encodeHdbError(301, -1, "still failing")})
				})
			}()
			return clientConn2, nil
		},
	}

	sess, err := NewSession(clientConn1, cfg)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}

	err = sess.Commit()
	if err == nil {
		t.Fatal("Commit: want an error after a second failure, got nil")
	}
	var afterReconnect *ErrorAfterReconnect
	if !errors.As(err, &afterReconnect) {
		t.Fatalf("error = %v (%T), want *ErrorAfterReconnect", err, err)
	}
	if afterReconnect.Reset == nil || afterReconnect.Retry == nil {
		t.Errorf("ErrorAfterReconnect = %+v, want both Reset and Retry set", afterReconnect)
	}

	select {
	case <-firstDone:
	case <-time.After(2 * time.Second):
		t.Error("first fake server goroutine did not finish")
	}
	select {
	case <-secondDone:
	case <-time.After(2 * time.Second):
		t.Error("second fake server goroutine did not finish")
	}
	if clientConn2 != nil {
		clientConn2.Close()
	}
	if serverConn2 != nil {
		serverConn2.Close()
	}
}

// TestScenarioEcho drives a parameterless ExecuteDirect SELECT to a single
// final chunk, the simplest end-to-end round trip (spec scenario S1).
func TestScenarioEcho(t *testing.T) {
	sess, _ := newFakeSession(t, 913, func(fs *fakeServer) {
		sessionID, mt := fs.recvRequest()
		if mt != MtExecuteDirect {
			t.Errorf("request = %s, want ExecuteDirect", mt)
			return
		}
		fs.sendReply(sessionID, FcSelect,
			fakePart{kind: pkResultMetadata, argCount: 1, body: encodeResultFieldDescr(tcInteger)},
			fakePart{kind: pkResultsetID, argCount: 1, body: encodeResultsetID(1)},
			fakePart{kind: pkResultset, argCount: 1, attrs: attrsFor(true), body: encodeIntegerRows([]int32{42})},
		)
	})

	res, err := sess.ExecDirect("select 42 from dummy")
	if err != nil {
		t.Fatalf("ExecDirect: %v", err)
	}
	if res.Cursor == nil || len(res.Cursor.Rows()) != 1 {
		t.Fatalf("result = %+v, want a single-row cursor", res)
	}
	if v := res.Cursor.Rows()[0].Interface().(int64); v != 42 {
		t.Errorf("row value = %d, want 42", v)
	}
	if !res.Cursor.Closed() {
		t.Error("cursor not closed after a single last-packet chunk")
	}
}

// TestScenarioBoundInsert drives an Execute against a single-parameter
// INSERT, asserting the RowsAffected count for a clean (non-batch,
// non-error) reply (spec scenario S2).
func TestScenarioBoundInsert(t *testing.T) {
	sess, _ := newFakeSession(t, 914, func(fs *fakeServer) {
		sessionID, mt := fs.recvRequest()
		if mt != MtExecute {
			t.Errorf("request = %s, want Execute", mt)
			return
		}
		fs.sendReply(sessionID, FcInsert,
			fakePart{kind: pkRowsAffected, argCount: 1, body: encodeRowsAffected([]int32{1})},
		)
	})

	pr := &PrepareResult{
		StmtID:      StatementID(7),
		FunctionCode: FcInsert,
		ParamFields: []*ParameterField{{TypeCode: tcInteger, Mode: PmIn}},
	}

	res, err := sess.Execute(pr, []any{int64(99)})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if total := res.RowsAffected.Total(); total != 1 {
		t.Errorf("RowsAffected.Total() = %d, want 1", total)
	}
	if res.Cursor != nil {
		t.Errorf("Cursor = %+v, want nil for a non-query statement", res.Cursor)
	}
}
