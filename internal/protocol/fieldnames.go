// SPDX-FileCopyrightText: 2014-2022 SAP SE
//
// SPDX-License-Identifier: Apache-2.0

package protocol

import (
	"sort"

	"github.com/hdbwire/hdbwire/internal/protocol/encoding"
)

// noFieldName marks a column descriptor offset field as absent.
const noFieldName uint32 = 0xFFFFFFFF

type offsetName struct {
	offset uint32
	name   string
}

// fieldNames is a sorted, deduplicated pool of CESU-8 name strings, each
// keyed by its byte offset in the name block that trails a metadata part.
// Column descriptors reference names by offset so repeated table/schema
// names are only ever transmitted once.
type fieldNames []offsetName

func (fn fieldNames) search(offset uint32) int {
	return sort.Search(len(fn), func(i int) bool { return fn[i].offset >= offset })
}

func (fn *fieldNames) insert(offset uint32) {
	if offset == noFieldName {
		return
	}
	i := fn.search(offset)
	switch {
	case i >= len(*fn):
		*fn = append(*fn, offsetName{offset: offset})
	case (*fn)[i].offset == offset:
	default:
		*fn = append(*fn, offsetName{})
		copy((*fn)[i+1:], (*fn)[i:])
		(*fn)[i] = offsetName{offset: offset}
	}
}

func (fn fieldNames) name(offset uint32) string {
	if i := fn.search(offset); i < len(fn) {
		return fn[i].name
	}
	return ""
}

// decode reads the name block: entries were inserted in offset order, so a
// single forward scan recovers each name, skipping any gap since the last
// read position.
func (fn fieldNames) decode(dec *encoding.Decoder) error {
	pos := uint32(0)
	start := dec.Cnt()
	for i, on := range fn {
		if diff := int(on.offset - pos); diff > 0 {
			dec.Skip(diff)
			pos += uint32(diff)
		}
		b, _, err := dec.CESU8LIBytes()
		if err != nil {
			return err
		}
		fn[i].name = string(b)
		pos = uint32(dec.Cnt() - start)
	}
	return dec.Error()
}
