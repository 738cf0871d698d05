// SPDX-FileCopyrightText: 2014-2022 SAP SE
//
// SPDX-License-Identifier: Apache-2.0

package protocol

import "github.com/hdbwire/hdbwire/internal/protocol/encoding"

// ClientID is the raw client identification string sent once per
// connection (pkClientID): "<pid>@<hostname>" by convention.
type ClientID string

func (c ClientID) numArg() int { return 1 }

func (c ClientID) size() int { return len(c) }

func (c ClientID) encode(enc *encoding.Encoder) error {
	enc.String(string(c))
	return enc.Error()
}
