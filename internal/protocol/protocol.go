// SPDX-FileCopyrightText: 2014-2022 SAP SE
//
// SPDX-License-Identifier: Apache-2.0

package protocol

import (
	"fmt"
	"io"
	"math"

	"github.com/hdbwire/hdbwire/internal/protocol/encoding"
	"golang.org/x/text/transform"
)

// partWriter is anything that can serialize itself as a part body; the
// PartKind tag travels alongside it rather than through a method, since the
// generic OptionPart[K] family is aliased per key type and cannot carry a
// per-alias kind().
type partWriter interface {
	numArg() int
	size() int
	encode(enc *encoding.Encoder) error
}

// outPart pairs a partWriter with the wire kind it is tagged with in the
// part header.
type outPart struct {
	kind PartKind
	partWriter
}

// Writer serializes a single request message (one segment, one or more
// parts) to the wire.
type Writer struct {
	wr  io.Writer
	enc *encoding.Encoder

	mh messageHeader
	sh segmentHeader
	ph PartHeader
}

// NewWriter returns a Writer encoding onto wr, using newTransformer to build
// the CESU-8 transform applied to text fields.
func NewWriter(wr io.Writer, newTransformer func() transform.Transformer) *Writer {
	return &Writer{wr: wr, enc: encoding.NewEncoder(wr, newTransformer)}
}

// Write encodes and flushes a full request message: sessionID identifies
// the session (-1 before the session is established), messageType selects
// the request kind, commit controls the segment's auto-commit flag, and
// parts are encoded in order.
func (w *Writer) Write(sessionID int64, messageType MessageType, commit bool, parts ...outPart) error {
	numParts := len(parts)
	partSize := make([]int, numParts)
	size := int64(segmentHeaderSize + numParts*partHeaderSize)

	for i, p := range parts {
		s := p.size()
		partSize[i] = s
		size += int64(s + padBytes(s))
	}
	if size > math.MaxUint32 {
		return fmt.Errorf("protocol: message size %d exceeds maximum %d", size, uint32(math.MaxUint32))
	}

	w.mh = messageHeader{
		sessionID:     sessionID,
		varPartLength: uint32(size),
		varPartSize:   uint32(size),
		noOfSegm:      1,
	}
	if err := w.mh.encode(w.enc); err != nil {
		return err
	}

	if size > math.MaxInt32 {
		return fmt.Errorf("protocol: segment size %d exceeds maximum %d", size, math.MaxInt32)
	}
	w.sh = segmentHeader{
		segmentLength: int32(size),
		noOfParts:     int16(numParts),
		segmentNo:     1,
		segmentKind:   skRequest,
		messageType:   messageType,
		commit:        commit,
	}
	if err := w.sh.encode(w.enc); err != nil {
		return err
	}

	bufferSize := size - segmentHeaderSize
	for i, p := range parts {
		s := partSize[i]
		pad := padBytes(s)

		w.ph.PartKind = p.kind
		if err := w.ph.setNumArg(p.numArg()); err != nil {
			return err
		}
		w.ph.bufferLength = int32(s)
		w.ph.bufferSize = int32(bufferSize)
		if err := w.ph.encode(w.enc); err != nil {
			return err
		}

		if err := p.encode(w.enc); err != nil {
			return err
		}
		w.enc.Zeroes(pad)

		bufferSize -= int64(partHeaderSize + s + pad)
	}

	if f, ok := w.wr.(interface{ Flush() error }); ok {
		return f.Flush()
	}
	return nil
}

// Reader decodes reply messages: message/segment headers are consumed
// automatically, and for every part header IterateParts invokes fn unless
// the part kind is one the Reader must always track itself (errors and
// rows-affected, used by checkError and batch error/index zipping).
type Reader struct {
	dec *encoding.Decoder

	mh messageHeader
	sh segmentHeader
	ph PartHeader

	readBytes int64
	numPart   int
	cntPart   int

	lastErrors       *HdbErrors
	lastRowsAffected *RowsAffected
}

// NewReader returns a Reader decoding from rd, using newTransformer to
// build the CESU-8 transform applied to text fields.
func NewReader(rd io.Reader, newTransformer func() transform.Transformer) *Reader {
	return &Reader{dec: encoding.NewDecoder(rd, newTransformer)}
}

// SessionID returns the session id of the most recently read message.
func (r *Reader) SessionID() int64 { return r.mh.sessionID }

// FunctionCode returns the function code of the most recently read segment.
func (r *Reader) FunctionCode() FunctionCode { return r.sh.functionCode }

// Decoder exposes the underlying decoder so a part handler can decode the
// current part's body in place; it must read exactly once per part header,
// and may read fewer bytes than bufferLength (the remainder is skipped
// automatically) but never more.
func (r *Reader) Decoder() *encoding.Decoder { return r.dec }

// LastRowsAffected returns the RowsAffected part decoded during the most
// recent IterateParts call, or nil if none was present.
func (r *Reader) LastRowsAffected() *RowsAffected { return r.lastRowsAffected }

// BytesRead returns the number of message-body bytes consumed during the
// most recent IterateParts call.
func (r *Reader) BytesRead() int64 { return r.readBytes }

func (r *Reader) skipPadding() int64 {
	if r.cntPart != r.numPart {
		pad := padBytes(int(r.ph.bufferLength))
		r.dec.Skip(pad)
		return int64(pad)
	}
	pad := int64(r.mh.varPartLength) - r.readBytes
	switch {
	case pad < 0:
		panic(fmt.Errorf("protocol: read %d bytes exceeds message var part length %d", r.readBytes, r.mh.varPartLength))
	case pad > 0:
		r.dec.Skip(int(pad))
	}
	return pad
}

func (r *Reader) checkError() error {
	defer r.dec.ResetError()

	if err := r.dec.Error(); err != nil {
		return err
	}
	if r.lastErrors == nil {
		return nil
	}
	if r.lastRowsAffected != nil {
		j := 0
		for i, rows := range *r.lastRowsAffected {
			if rows == raExecuteFailed {
				r.lastErrors.setStmtNo(j, i)
				j++
			}
		}
	}
	return r.lastErrors
}

// IterateParts decodes one reply message: every segment's part headers in
// turn, dispatching to fn for every part kind except Error and RowsAffected,
// which the Reader always decodes itself to support checkError's batch
// error/index zipping. fn may leave a part undecoded (it is then skipped),
// but must not read beyond the part's bufferLength.
func (r *Reader) IterateParts(fn func(ph *PartHeader)) error {
	// cleared here, not at the end of the previous call, so LastRowsAffected
	// and the returned error both still reflect this call's reply once
	// IterateParts returns to its caller.
	r.lastErrors = nil
	r.lastRowsAffected = nil

	if err := r.mh.decode(r.dec); err != nil {
		return err
	}
	r.readBytes = 0

	for i := 0; i < int(r.mh.noOfSegm); i++ {
		if err := r.sh.decode(r.dec); err != nil {
			return err
		}
		r.readBytes += segmentHeaderSize

		r.numPart = int(r.sh.noOfParts)
		r.cntPart = 0

		for j := 0; j < r.numPart; j++ {
			if err := r.ph.decode(r.dec); err != nil {
				return err
			}
			r.readBytes += partHeaderSize
			r.cntPart++

			r.dec.ResetCnt()
			switch r.ph.PartKind {
			case pkError:
				errs := &HdbErrors{}
				if err := errs.decode(r.dec, &r.ph); err != nil {
					return err
				}
				r.lastErrors = errs
			case pkRowsAffected:
				ra := decodeRowsAffected(r.dec, r.ph.numArg())
				r.lastRowsAffected = &ra
			default:
				if fn != nil {
					fn(&r.ph)
				}
			}

			cnt := r.dec.Cnt()
			bufLen := int(r.ph.bufferLength)
			switch {
			case cnt < bufLen:
				r.dec.Skip(bufLen - cnt)
			case cnt > bufLen:
				return fmt.Errorf("protocol: part %s read %d bytes, exceeds buffer length %d", r.ph.PartKind, cnt, bufLen)
			}
			r.readBytes += int64(r.dec.Cnt())
			r.readBytes += r.skipPadding()
		}
	}
	return r.checkError()
}
