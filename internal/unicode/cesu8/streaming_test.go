// SPDX-FileCopyrightText: 2014-2022 SAP SE
//
// SPDX-License-Identifier: Apache-2.0

package cesu8

import (
	"bytes"
	"testing"

	"golang.org/x/text/transform"
)

// TestEncoderCarriesSplitRuneAcrossWrites exercises Encoder the way the
// protocol encoding package's transform.Writer pipeline does: arbitrary
// byte-offset splits of the input must not lose or corrupt the rune that
// straddles the split, since transform.Writer buffers the undecodable tail
// and re-presents it prefixed to the next Write.
func TestEncoderCarriesSplitRuneAcrossWrites(t *testing.T) {
	s := "hello, 世界" + "\U0001F600\U0001F601" + "done"

	var want bytes.Buffer
	wantW := transform.NewWriter(&want, new(Encoder))
	if _, err := wantW.Write([]byte(s)); err != nil {
		t.Fatalf("reference encode: %v", err)
	}
	if err := wantW.Close(); err != nil {
		t.Fatalf("reference encode close: %v", err)
	}

	for cut := 1; cut < len(s); cut++ {
		a, b := s[:cut], s[cut:]

		var got bytes.Buffer
		w := transform.NewWriter(&got, new(Encoder))
		if _, err := w.Write([]byte(a)); err != nil {
			t.Fatalf("cut %d: write a: %v", cut, err)
		}
		if _, err := w.Write([]byte(b)); err != nil {
			t.Fatalf("cut %d: write b: %v", cut, err)
		}
		if err := w.Close(); err != nil {
			t.Fatalf("cut %d: close: %v", cut, err)
		}

		if !bytes.Equal(got.Bytes(), want.Bytes()) {
			t.Fatalf("cut %d: split-write encode = %x, want %x", cut, got.Bytes(), want.Bytes())
		}
	}
}

// TestDecoderCarriesSplitRuneAcrossWrites is the mirror of the above for
// Decoder, feeding already-CESU-8-encoded bytes in split writes.
func TestDecoderCarriesSplitRuneAcrossWrites(t *testing.T) {
	s := "hello, 世界" + "\U0001F600\U0001F601" + "done"
	b := make([]byte, CESUMax*len(s))
	n := 0
	for _, r := range s {
		n += EncodeRune(b[n:], r)
	}
	cesu := b[:n]

	var want bytes.Buffer
	wantW := transform.NewWriter(&want, new(Decoder))
	if _, err := wantW.Write(cesu); err != nil {
		t.Fatalf("reference decode: %v", err)
	}
	if err := wantW.Close(); err != nil {
		t.Fatalf("reference decode close: %v", err)
	}
	if want.String() != s {
		t.Fatalf("reference decode = %q, want %q", want.String(), s)
	}

	for cut := 1; cut < len(cesu); cut++ {
		a, c := cesu[:cut], cesu[cut:]

		var got bytes.Buffer
		w := transform.NewWriter(&got, new(Decoder))
		if _, err := w.Write(a); err != nil {
			t.Fatalf("cut %d: write a: %v", cut, err)
		}
		if _, err := w.Write(c); err != nil {
			t.Fatalf("cut %d: write b: %v", cut, err)
		}
		if err := w.Close(); err != nil {
			t.Fatalf("cut %d: close: %v", cut, err)
		}

		if got.String() != s {
			t.Fatalf("cut %d: split-write decode = %q, want %q", cut, got.String(), s)
		}
	}
}
