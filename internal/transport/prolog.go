// SPDX-FileCopyrightText: 2014-2022 SAP SE
//
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"encoding/binary"
	"io"
)

// initRequestSize/initReplySize are the fixed sizes of the handshake
// exchanged once per connection, before any message/segment/part framed
// traffic: a 14-byte version/swap-kind announcement from the client, met by
// an 8-byte reply the client discards unread.
const (
	initRequestSize = 14
	initReplySize   = 8
)

const (
	majorProductVersion  = 4
	minorProductVersion  = 20
	majorProtocolVersion = 4
	minorProtocolVersion = 1

	optionIDSwapKind = 1
	swapKindLittleEndian = 1
)

// InitRequest writes the 14-byte initial request: filler, product version,
// protocol version, and one option announcing little-endian byte order for
// every multi-byte field that follows in the session.
func InitRequest(w io.Writer) error {
	var b [initRequestSize]byte
	binary.BigEndian.PutUint32(b[0:4], 0xffffffff) // filler: -1 as an int32
	b[4] = majorProductVersion
	binary.BigEndian.PutUint16(b[5:7], minorProductVersion)
	b[7] = majorProtocolVersion
	binary.BigEndian.PutUint16(b[8:10], minorProtocolVersion)
	b[10] = 0 // reserved
	b[11] = 1 // number of options
	b[12] = optionIDSwapKind
	b[13] = swapKindLittleEndian
	_, err := w.Write(b[:])
	return err
}

// InitReply reads and discards the server's 8-byte acknowledgement. Its
// content carries no information the client needs; failure to read it in
// full is fatal for the connection.
func InitReply(r io.Reader) error {
	var b [initReplySize]byte
	_, err := io.ReadFull(r, b[:])
	return err
}
