// SPDX-FileCopyrightText: 2014-2022 SAP SE
//
// SPDX-License-Identifier: Apache-2.0

package protocol

import "github.com/hdbwire/hdbwire/internal/protocol/encoding"

// command is the CESU-8 encoded SQL text carried by ExecuteDirect/Prepare
// requests (pkCommand). hdbwire treats the text opaquely; SQL dialect
// parsing is out of scope.
type command string

func (c command) numArg() int { return 1 }

func (c command) size() int { return encoding.LIFieldSize(len(c)) + len(c) }

func (c command) encode(enc *encoding.Encoder) error {
	enc.WriteCESU8LIString(string(c))
	return enc.Error()
}

func decodeCommand(dec *encoding.Decoder) (command, error) {
	b, _, err := dec.CESU8LIBytes()
	return command(b), err
}
