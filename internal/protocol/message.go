// SPDX-FileCopyrightText: 2014-2022 SAP SE
//
// SPDX-License-Identifier: Apache-2.0

package protocol

import (
	"fmt"
	"math"

	"github.com/hdbwire/hdbwire/internal/protocol/encoding"
)

// padding: every part body is rounded up to a multiple of 8 bytes.
const padding = 8

func padBytes(size int) int {
	if r := size % padding; r != 0 {
		return padding - r
	}
	return 0
}

const (
	messageHeaderSize = 32
	segmentHeaderSize = 24
	partHeaderSize    = 16
)

// messageHeader is the fixed 32-byte header shared by requests and replies.
type messageHeader struct {
	sessionID     int64
	packetSeq     int32 // requests only
	varPartLength uint32
	varPartSize   uint32
	noOfSegm      int16
}

func (h *messageHeader) String() string {
	return fmt.Sprintf("session id %d packet seq %d var part length %d var part size %d no of segments %d",
		h.sessionID, h.packetSeq, h.varPartLength, h.varPartSize, h.noOfSegm)
}

func (h *messageHeader) encode(enc *encoding.Encoder) error {
	enc.Int64(h.sessionID)
	enc.Int32(h.packetSeq)
	enc.Uint32(h.varPartLength)
	enc.Uint32(h.varPartSize)
	enc.Int16(h.noOfSegm)
	enc.Zeroes(10) // reserved
	return enc.Error()
}

func (h *messageHeader) decode(dec *encoding.Decoder) error {
	h.sessionID = dec.Int64()
	h.packetSeq = dec.Int32()
	h.varPartLength = dec.Uint32()
	h.varPartSize = dec.Uint32()
	h.noOfSegm = dec.Int16()
	dec.Skip(10)
	return dec.Error()
}

// segmentHeader is the 24-byte per-segment header. The protocol always
// carries exactly one segment per message.
type segmentHeader struct {
	segmentLength int32
	segmentOfs    int32
	noOfParts     int16
	segmentNo     int16
	segmentKind   SegmentKind

	// request-only
	messageType MessageType
	commit      bool

	// reply-only
	functionCode FunctionCode
}

func (h *segmentHeader) String() string {
	return fmt.Sprintf("segment length %d offset %d no of parts %d segment no %d kind %v",
		h.segmentLength, h.segmentOfs, h.noOfParts, h.segmentNo, h.segmentKind)
}

func (h *segmentHeader) encode(enc *encoding.Encoder) error {
	enc.Int32(h.segmentLength)
	enc.Int32(h.segmentOfs)
	enc.Int16(h.noOfParts)
	enc.Int16(h.segmentNo)
	enc.Int8(int8(h.segmentKind))
	switch h.segmentKind {
	case skRequest:
		enc.Int8(int8(h.messageType))
		enc.Bool(h.commit)
		enc.Int8(0) // command options
		enc.Zeroes(8)
	default:
		enc.Int16(int16(h.functionCode))
		enc.Zeroes(9)
	}
	return enc.Error()
}

func (h *segmentHeader) decode(dec *encoding.Decoder) error {
	h.segmentLength = dec.Int32()
	h.segmentOfs = dec.Int32()
	h.noOfParts = dec.Int16()
	h.segmentNo = dec.Int16()
	h.segmentKind = SegmentKind(dec.Int8())
	switch h.segmentKind {
	case skRequest:
		h.messageType = MessageType(dec.Int8())
		h.commit = dec.Bool()
		dec.Skip(9)
	default:
		h.functionCode = FunctionCode(dec.Int16())
		dec.Skip(9)
	}
	return dec.Error()
}

// PartHeader is the 16-byte header preceding every part's payload.
type PartHeader struct {
	PartKind     PartKind
	attributes   uint8
	argCount     int32
	bufferLength int32
	bufferSize   int32
}

func (h *PartHeader) String() string {
	return fmt.Sprintf("kind %s attributes %d numArg %d bufferLength %d bufferSize %d",
		h.PartKind, h.attributes, h.argCount, h.bufferLength, h.bufferSize)
}

func (h *PartHeader) numArg() int { return int(h.argCount) }

func (h *PartHeader) setNumArg(n int) error {
	if n > math.MaxInt16 {
		return fmt.Errorf("protocol: arg count %d exceeds maximum %d", n, math.MaxInt16)
	}
	h.argCount = int32(n)
	return nil
}

func (h *PartHeader) encode(enc *encoding.Encoder) error {
	enc.Int8(int8(h.PartKind))
	enc.Byte(h.attributes)
	if h.argCount > math.MaxInt16 {
		enc.Int16(-1)
		enc.Int32(h.argCount)
	} else {
		enc.Int16(int16(h.argCount))
		enc.Zeroes(4) // unused escape-width filler, keeps the header fixed at 16 bytes
	}
	enc.Int32(h.bufferLength)
	enc.Int32(h.bufferSize)
	return enc.Error()
}

func (h *PartHeader) decode(dec *encoding.Decoder) error {
	h.PartKind = PartKind(dec.Int8())
	h.attributes = uint8(dec.Byte())
	n := int32(dec.Int16())
	if n == -1 {
		n = dec.Int32()
	}
	h.argCount = n
	h.bufferLength = dec.Int32()
	h.bufferSize = dec.Int32()
	return dec.Error()
}

// partAttributes reports on the server-set bits of a reply part (e.g. the
// result-set "last packet" bit).
type partAttributes uint8

const (
	paLastPacket  partAttributes = 0x01
	paNoMoreRows  partAttributes = 0x04
	paResultClosed partAttributes = 0x10
)

func (a partAttributes) isLastPacket() bool   { return a&paLastPacket != 0 }
func (a partAttributes) isResultClosed() bool { return a&paResultClosed != 0 }
