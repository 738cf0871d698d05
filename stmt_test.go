// SPDX-FileCopyrightText: 2014-2022 SAP SE
//
// SPDX-License-Identifier: Apache-2.0

package hdbwire

import (
	"strings"
	"testing"

	"github.com/hdbwire/hdbwire/internal/protocol"
)

func TestInputLobDescrsCollectsInFieldOrder(t *testing.T) {
	lob1 := protocol.NewLobInDescr(strings.NewReader("first"))
	lob2 := protocol.NewNCLobInDescr(strings.NewReader("second"))

	args := []any{42, lob1, "text", lob2, nil}
	descrs := inputLobDescrs(args)

	if len(descrs) != 2 {
		t.Fatalf("len(descrs) = %d, want 2", len(descrs))
	}
	if descrs[0] != lob1 || descrs[1] != lob2 {
		t.Error("inputLobDescrs did not preserve argument order")
	}
}

func TestInputLobDescrsEmptyWhenNoLobArgs(t *testing.T) {
	descrs := inputLobDescrs([]any{1, "a", true})
	if len(descrs) != 0 {
		t.Errorf("len(descrs) = %d, want 0", len(descrs))
	}
}
