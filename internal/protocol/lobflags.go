// SPDX-FileCopyrightText: 2014-2022 SAP SE
//
// SPDX-License-Identifier: Apache-2.0

package protocol

// LobFlagKey identifies an entry of the LobFlags part, sent alongside an
// auto-committing Execute request that carries LOBSTREAM input parameters
// so the server knows to defer its commit until the trailing WriteLob
// request completes the stream.
type LobFlagKey int8

// LobFlagKey constants.
const (
	LfImplicitLobStreaming LobFlagKey = 0
)

// LobFlags is the LobFlags option bag (pkLobFlags).
type LobFlags = OptionPart[LobFlagKey]

func newLobFlags() *LobFlags {
	f := NewOptionPart[LobFlagKey]()
	f.setBool(LfImplicitLobStreaming, true)
	return f
}
