// SPDX-FileCopyrightText: 2014-2022 SAP SE
//
// SPDX-License-Identifier: Apache-2.0

package protocol

import "github.com/hdbwire/hdbwire/internal/protocol/encoding"

// Sentinel rows-affected values (spec 4.6 batch semantics).
const (
	raSuccessNoInfo int32 = -2
	raExecuteFailed int32 = -3
)

// RowsAffected is the per-statement rows-affected array of a batch reply
// (pkRowsAffected); one entry per row of a bound batch.
type RowsAffected []int32

func decodeRowsAffected(dec *encoding.Decoder, numArg int) RowsAffected {
	ra := make(RowsAffected, numArg)
	for i := range ra {
		ra[i] = dec.Int32()
	}
	return ra
}

// Total sums the non-error entries, matching database/sql's RowsAffected
// semantics for a batch result.
func (ra RowsAffected) Total() int64 {
	var total int64
	for _, n := range ra {
		if n > 0 {
			total += int64(n)
		}
	}
	return total
}

// FailedAt returns the indices of statements that failed within the batch
// (raExecuteFailed), used to zip rows-affected entries against per-row errors.
func (ra RowsAffected) FailedAt() []int {
	var idx []int
	for i, n := range ra {
		if n == raExecuteFailed {
			idx = append(idx, i)
		}
	}
	return idx
}
