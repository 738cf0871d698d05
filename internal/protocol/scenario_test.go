// SPDX-FileCopyrightText: 2014-2022 SAP SE
//
// SPDX-License-Identifier: Apache-2.0

package protocol

import (
	"os"
	"testing"

	"gopkg.in/yaml.v3"
)

// cursorScenario parametrizes TestScenarioCursorPagination (S3): the number
// of rows served by each FetchNext reply, and the full row set they must
// reassemble into, in order.
type cursorScenario struct {
	Name        string  `yaml:"name"`
	Description string  `yaml:"description"`
	FetchSizes  []int   `yaml:"fetch_sizes"`
	Values      []int32 `yaml:"values"`
}

// xaScenario parametrizes TestScenarioXAMinimal (S6): the flag words for
// XAStart/XAEnd and whether XACommit runs one-phase.
type xaScenario struct {
	Name           string `yaml:"name"`
	Description    string `yaml:"description"`
	StartFlags     int32  `yaml:"start_flags"`
	EndFlags       int32  `yaml:"end_flags"`
	OnePhaseCommit bool   `yaml:"one_phase_commit"`
}

func loadScenario[T any](t *testing.T, path string) T {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read scenario %s: %v", path, err)
	}
	var v T
	if err := yaml.Unmarshal(b, &v); err != nil {
		t.Fatalf("unmarshal scenario %s: %v", path, err)
	}
	return v
}

// encodeResultFieldDescr builds the wire body of a single ResultField
// descriptor (ResultMetadata part entry) carrying no table/schema/column
// name (every offset set to noFieldName, so the trailing name pool is
// empty) — enough to drive decodeResultRows for a plain INTEGER column.
func encodeResultFieldDescr(tc TypeCode) []byte {
	var buf fakeEncBuf
	enc := newCesu8FakeEncoder(&buf)
	enc.Int8(int8(coMandatory))
	enc.Int8(int8(tc))
	enc.Int16(0) // fraction
	enc.Int16(0) // length
	enc.Zeroes(2)
	enc.Uint32(noFieldName)
	enc.Uint32(noFieldName)
	enc.Uint32(noFieldName)
	enc.Uint32(noFieldName)
	return buf.b
}

// encodeIntegerRows builds the wire body of a Resultset part carrying one
// INTEGER column, decodeResultRows-compatible (a presence bool ahead of
// each Int32).
func encodeIntegerRows(vals []int32) []byte {
	var buf fakeEncBuf
	enc := newCesu8FakeEncoder(&buf)
	for _, v := range vals {
		enc.Bool(true)
		enc.Int32(v)
	}
	return buf.b
}

// TestScenarioCursorPagination drives a single-column SELECT across an
// initial ExecuteDirect chunk and further FetchNext chunks sized per the
// cursor-pagination fixture, asserting invariant 7 (the cursor closes
// itself, without a CloseResultSet round trip, exactly when the last
// fetched chunk carries the last-packet attribute).
func TestScenarioCursorPagination(t *testing.T) {
	sc := loadScenario[cursorScenario](t, "../testdata/scenario_s3_cursor.yaml")
	total := 0
	for _, n := range sc.FetchSizes {
		total += n
	}
	if total != len(sc.Values) {
		t.Fatalf("scenario %s: fetch sizes sum to %d, want %d (len(values))", sc.Name, total, len(sc.Values))
	}

	sess, _ := newFakeSession(t, 900, func(fs *fakeServer) {
		sessionID, mt := fs.recvRequest()
		if mt != MtExecuteDirect {
			t.Errorf("scenario %s: first request = %s, want ExecuteDirect", sc.Name, mt)
			return
		}
		first := sc.FetchSizes[0]
		fs.sendReply(sessionID, FcSelect,
			fakePart{kind: pkResultMetadata, argCount: 1, body: encodeResultFieldDescr(tcInteger)},
			fakePart{kind: pkResultsetID, argCount: 1, body: encodeResultsetID(1)},
			fakePart{kind: pkResultset, argCount: int32(first), attrs: attrsFor(len(sc.FetchSizes) == 1), body: encodeIntegerRows(sc.Values[:first])},
		)

		off := first
		for i := 1; i < len(sc.FetchSizes); i++ {
			_, mt := fs.recvRequest()
			if mt != MtFetchNext {
				t.Errorf("scenario %s: request %d = %s, want FetchNext", sc.Name, i, mt)
				return
			}
			n := sc.FetchSizes[i]
			last := i == len(sc.FetchSizes)-1
			fs.sendReply(sessionID, FcSelect,
				fakePart{kind: pkResultset, argCount: int32(n), attrs: attrsFor(last), body: encodeIntegerRows(sc.Values[off : off+n])},
			)
			off += n
		}
	})

	res, err := sess.ExecDirect("select N from T")
	if err != nil {
		t.Fatalf("ExecDirect: %v", err)
	}
	if res.Cursor == nil {
		t.Fatal("ExecDirect: no cursor returned")
	}
	cur := res.Cursor

	gotRow := func(v Value) int32 { return int32(v.Interface().(int64)) }
	var got []int32
	for _, v := range cur.Rows() {
		got = append(got, gotRow(v))
	}

	for !cur.LastChunk() {
		if err := sess.FetchNext(cur); err != nil {
			t.Fatalf("FetchNext: %v", err)
		}
		for _, v := range cur.Rows() {
			got = append(got, gotRow(v))
		}
	}

	if len(got) != len(sc.Values) {
		t.Fatalf("got %d rows, want %d", len(got), len(sc.Values))
	}
	for i, v := range got {
		if v != sc.Values[i] {
			t.Errorf("row %d = %d, want %d", i, v, sc.Values[i])
		}
	}
	if !cur.Closed() {
		t.Error("cursor not closed after last chunk")
	}
	if cur.NeedsClose() {
		t.Error("NeedsClose true after last chunk, want false (invariant 7)")
	}
}

// TestScenarioXAMinimal drives Start/End/Prepare/Commit against a fake
// resource manager using the xa-minimal fixture's flag words, asserting
// each verb's XatOptions round trip, a read-only-false prepare and the
// two-phase commit that follows it (spec scenario S6).
func TestScenarioXAMinimal(t *testing.T) {
	sc := loadScenario[xaScenario](t, "../testdata/scenario_s6_xa.yaml")
	id := XID([]byte("test-xid-0123456"))

	steps := []struct {
		mt    MessageType
		flags int32
	}{
		{MtXAStart, sc.StartFlags},
		{MtXAEnd, sc.EndFlags},
	}

	sess, _ := newFakeSession(t, 901, func(fs *fakeServer) {
		for _, step := range steps {
			sessionID, mt := fs.recvRequest()
			if mt != step.mt {
				t.Errorf("request = %s, want %s", mt, step.mt)
				return
			}
			fs.sendReply(sessionID, FcNil, fakePart{kind: pkXatOptions, argCount: 1, body: encodeXAOptions(XAOK)})
		}

		sessionID, mt := fs.recvRequest()
		if mt != MtXAPrepare {
			t.Errorf("request = %s, want XAPrepare", mt)
			return
		}
		fs.sendReply(sessionID, FcNil, fakePart{kind: pkXatOptions, argCount: 1, body: encodeXAOptions(XAOK)})

		sessionID, mt = fs.recvRequest()
		wantCommit := MtXACommit
		if mt != wantCommit {
			t.Errorf("request = %s, want XACommit", mt)
			return
		}
		fs.sendReply(sessionID, FcNil, fakePart{kind: pkXatOptions, argCount: 1, body: encodeXAOptions(XAOK)})
	})

	sess.SetAutoCommit(false)

	if err := sess.XAStart(id, sc.StartFlags); err != nil {
		t.Fatalf("XAStart: %v", err)
	}
	if err := sess.XAEnd(id, sc.EndFlags); err != nil {
		t.Fatalf("XAEnd: %v", err)
	}
	readOnly, err := sess.XAPrepare(id)
	if err != nil {
		t.Fatalf("XAPrepare: %v", err)
	}
	if readOnly {
		t.Error("XAPrepare reported read-only, want false (XAOK reply)")
	}
	if err := sess.XACommit(id, sc.OnePhaseCommit); err != nil {
		t.Fatalf("XACommit: %v", err)
	}
}
