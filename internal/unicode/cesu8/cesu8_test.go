// SPDX-FileCopyrightText: 2014-2022 SAP SE
//
// SPDX-License-Identifier: Apache-2.0

package cesu8

import (
	"bytes"
	"testing"
	"unicode/utf8"
)

func TestCodeLen(t *testing.T) {
	b := make([]byte, CESUMax)
	for i := rune(0); i <= utf8.MaxRune; i++ {
		if i >= 0xd800 && i <= 0xdfff {
			continue // surrogate halves are not valid code points
		}
		n := EncodeRune(b, i)
		if n != RuneLen(i) {
			t.Fatalf("rune length check error %d %d", n, RuneLen(i))
		}
	}
}

type testCP struct {
	cp    rune
	cesu8 []byte
}

// see http://en.wikipedia.org/wiki/CESU-8
var testCPData = []*testCP{
	{0x45, []byte{0x45}},
	{0x205, []byte{0xc8, 0x85}},
	{0x10400, []byte{0xed, 0xa0, 0x81, 0xed, 0xb0, 0x80}},
}

func TestCP(t *testing.T) {
	b := make([]byte, CESUMax)
	for _, d := range testCPData {
		n1 := EncodeRune(b, d.cp)
		if !bytes.Equal(b[:n1], d.cesu8) {
			t.Fatalf("encode code point %x cesu-8 %x - expected %x", d.cp, b[:n1], d.cesu8)
		}

		cp, n2 := DecodeRune(b[:n1])
		if cp != d.cp || n2 != n1 {
			t.Fatalf("decode code point %x size %d - expected %x size %d", cp, n2, d.cp, n1)
		}
	}
}

var testStrings = []string{
	"",
	"abcd",
	"hello, 世界",
	"\U0001F600\U0001F601",
}

func TestString(t *testing.T) {
	b := make([]byte, CESUMax)
	for i, s := range testStrings {
		n := 0
		for _, r := range s {
			n += EncodeRune(b, r)
		}
		if m := StringSize(s); m != n {
			t.Fatalf("%d invalid string size %d - expected %d", i, m, n)
		}
		if m := Size([]byte(s)); m != n {
			t.Fatalf("%d invalid slice size %d - expected %d", i, m, n)
		}
	}
}

func TestTailLen(t *testing.T) {
	full := make([]byte, CESUMax)
	n := EncodeRune(full, 0x10400) // non-BMP -> 6 byte cesu-8 (2 surrogate halves)

	for cut := 1; cut < n; cut++ {
		tail := TailLen(full[:n-cut])
		if tail == 0 {
			t.Fatalf("cut %d: expected a non-zero tail, got 0", cut)
		}
		// re-assembling head+removed bytes must decode to the same full sequence
		head := full[:n-cut]
		rest := full[n-cut:]
		combined := append(append([]byte{}, head...), rest...)
		r, size := DecodeRune(combined)
		if r != 0x10400 || size != n {
			t.Fatalf("cut %d: reassembly failed: got rune %x size %d", cut, r, size)
		}
	}

	// a buffer ending exactly on a rune boundary has no tail
	if tail := TailLen(full[:n]); tail != 0 {
		t.Fatalf("expected tail 0 for complete buffer, got %d", tail)
	}
}
