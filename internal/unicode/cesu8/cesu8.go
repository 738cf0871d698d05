// SPDX-FileCopyrightText: 2014-2022 SAP SE
//
// SPDX-License-Identifier: Apache-2.0

// Package cesu8 implements conversions between CESU-8 and UTF-8 encoded text.
//
// CESU-8 is the wire text encoding of the HANA SQL command network protocol:
// unlike UTF-8, code points outside the Basic Multilingual Plane are encoded
// as a pair of 3-byte sequences, one per UTF-16 surrogate half, instead of a
// single 4-byte sequence.
package cesu8

import "unicode/utf8"

// CESUMax is the maximum number of bytes a CESU-8 encoded rune can occupy.
const CESUMax = 6

const (
	surr1 = 0xd800
	surr2 = 0xdc00
	surr3 = 0xe000

	surrSelf = 0x10000
)

// RuneLen returns the number of bytes required to encode r in CESU-8.
func RuneLen(r rune) int {
	switch {
	case r < 0:
		return -1
	case r < surrSelf:
		return utf8.RuneLen(r)
	case r <= utf8.MaxRune:
		return 6 // two surrogate halves, 3 bytes each
	default:
		return -1
	}
}

// FullRune reports whether the bytes in p begin with a full CESU-8 encoding
// of a rune.
func FullRune(p []byte) bool {
	if len(p) == 0 {
		return false
	}
	if p[0] != 0xed || len(p) < 2 || p[1] < 0xa0 || p[1] > 0xaf {
		// not a high surrogate half: a plain single/double/triple byte sequence
		return utf8.FullRune(p)
	}
	// a high surrogate half (ed a0..af) is only complete together with the
	// low half that follows it: 2 surrogate 3-byte runs
	return len(p) >= 6
}

// DecodeRune unpacks the first CESU-8 encoding in p and returns the rune and
// its width in bytes.
func DecodeRune(p []byte) (rune, int) {
	if len(p) == 0 {
		return utf8.RuneError, 0
	}
	r1, n1 := utf8.DecodeRune(p)
	if r1 != utf8.RuneError || n1 != 1 {
		if !isSurrogate(r1) {
			return r1, n1
		}
	}
	// p is (potentially) a surrogate pair: two 3-byte sequences, each an ed
	// lead byte and two continuation bytes. utf8.DecodeRune rejects
	// surrogate halves, so both halves are decoded by hand.
	if len(p) < 6 || p[0] != 0xed || p[3] != 0xed ||
		p[1]&0xc0 != 0x80 || p[2]&0xc0 != 0x80 || p[4]&0xc0 != 0x80 || p[5]&0xc0 != 0x80 {
		return utf8.RuneError, 1
	}
	hi := 0xd000 | rune(p[1]&0x3f)<<6 | rune(p[2]&0x3f)
	lo := 0xd000 | rune(p[4]&0x3f)<<6 | rune(p[5]&0x3f)
	if hi < surr1 || hi >= surr2 || lo < surr2 || lo >= surr3 {
		return utf8.RuneError, 1
	}
	r := (hi-surr1)<<10 | (lo - surr2) + surrSelf
	return r, 6
}

func isSurrogate(r rune) bool { return surr1 <= r && r < surr3 }

// EncodeRune writes the CESU-8 encoding of r into p (which must be at least
// RuneLen(r) bytes long) and returns the number of bytes written.
func EncodeRune(p []byte, r rune) int {
	if r < surrSelf {
		return utf8.EncodeRune(p, r)
	}
	r -= surrSelf
	hi := surr1 + (r >> 10)
	lo := surr2 + (r & 0x3ff)
	// utf8.EncodeRune refuses surrogate halves, so each half's 3-byte
	// sequence is written by hand
	p[0], p[1], p[2] = 0xed, byte(0x80|(hi>>6)&0x3f), byte(0x80|hi&0x3f)
	p[3], p[4], p[5] = 0xed, byte(0x80|(lo>>6)&0x3f), byte(0x80|lo&0x3f)
	return 6
}

// Size returns the number of bytes the CESU-8 encoding of the UTF-8 string
// represented by p occupies.
func Size(p []byte) int {
	n := 0
	for len(p) > 0 {
		r, size := utf8.DecodeRune(p)
		n += RuneLen(r)
		p = p[size:]
	}
	return n
}

// StringSize returns the number of bytes the CESU-8 encoding of s occupies.
func StringSize(s string) int {
	n := 0
	for _, r := range s {
		n += RuneLen(r)
	}
	return n
}

// TailLen returns the number of trailing bytes of p that do not make up a
// complete CESU-8 rune encoding - i.e. the bytes that must be buffered and
// prefixed to the next chunk before conversion can continue.
func TailLen(p []byte) int {
	n := len(p)
	if n == 0 {
		return 0
	}
	// walk back from the end, at most 5 bytes (longest partial prefix of a
	// 6-byte surrogate-pair encoding is 5 bytes)
	for i := 1; i <= 5 && i <= n; i++ {
		if !utf8.RuneStart(p[n-i]) {
			continue
		}
		start := n - i
		// a low surrogate half belongs with the high half 3 bytes before it
		if start >= 3 && p[start] == 0xed && p[start-3] == 0xed && p[start-2] >= 0xa0 && p[start-2] <= 0xaf {
			start -= 3
		}
		if FullRune(p[start:]) {
			return 0 // complete rune ending exactly at the buffer boundary
		}
		return n - start // lead byte found but its encoding is cut off by the boundary
	}
	return 0
}
