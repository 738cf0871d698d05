// SPDX-FileCopyrightText: 2014-2022 SAP SE
//
// SPDX-License-Identifier: Apache-2.0

package protocol

import "github.com/hdbwire/hdbwire/internal/protocol/encoding"

// defaultFetchSize is the number of rows requested per FetchNext round trip
// when the caller does not override it.
const defaultFetchSize = 32

// fetchsize is the single int32 payload of a FetchNext request
// (pkFetchSize).
type fetchsize int32

func (f fetchsize) numArg() int { return 1 }

func (f fetchsize) size() int { return 4 }

func (f fetchsize) encode(enc *encoding.Encoder) error {
	enc.Int32(int32(f))
	return enc.Error()
}

func decodeFetchsize(dec *encoding.Decoder) fetchsize {
	return fetchsize(dec.Int32())
}
