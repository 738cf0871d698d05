package cesu8

import (
	"unicode/utf8"

	"golang.org/x/text/transform"
)

// Encoder is a transform.Transformer converting UTF-8 input into CESU-8
// output, for use as the wire encoder of the protocol encoding package.
type Encoder struct{ transform.NopResetter }

// Decoder is a transform.Transformer converting CESU-8 input into UTF-8
// output, for use as the wire decoder of the protocol encoding package.
type Decoder struct{ transform.NopResetter }

var (
	_ transform.Transformer = (*Encoder)(nil)
	_ transform.Transformer = (*Decoder)(nil)
)

// Transform implements transform.Transformer.
func (Encoder) Transform(dst, src []byte, atEOF bool) (nDst, nSrc int, err error) {
	for len(src) > nSrc {
		r, size := utf8.DecodeRune(src[nSrc:])
		if r == utf8.RuneError && size <= 1 {
			if !atEOF && !utf8.FullRune(src[nSrc:]) {
				return nDst, nSrc, transform.ErrShortSrc
			}
			return nDst, nSrc, err
		}
		if nDst+RuneLen(r) > len(dst) {
			return nDst, nSrc, transform.ErrShortDst
		}
		nDst += EncodeRune(dst[nDst:], r)
		nSrc += size
	}
	return nDst, nSrc, nil
}

// Transform implements transform.Transformer.
func (Decoder) Transform(dst, src []byte, atEOF bool) (nDst, nSrc int, err error) {
	for len(src) > nSrc {
		if !FullRune(src[nSrc:]) {
			if !atEOF {
				return nDst, nSrc, transform.ErrShortSrc
			}
		}
		r, size := DecodeRune(src[nSrc:])
		if r == utf8.RuneError && size <= 1 && !atEOF && !FullRune(src[nSrc:]) {
			return nDst, nSrc, transform.ErrShortSrc
		}
		if nDst+utf8.RuneLen(r) > len(dst) {
			return nDst, nSrc, transform.ErrShortDst
		}
		nDst += utf8.EncodeRune(dst[nDst:], r)
		nSrc += size
	}
	return nDst, nSrc, nil
}
