// SPDX-FileCopyrightText: 2014-2022 SAP SE
//
// SPDX-License-Identifier: Apache-2.0

package protocol

// ConnectOptionKey identifies a single connect-option entry exchanged during
// the CONNECT handshake and usable thereafter to read negotiated server
// capabilities (data format version, large number of parameters support,
// client distribution mode...).
type ConnectOptionKey int8

// ConnectOptionKey constants (subset relevant to the wire core).
const (
	CoConnectionID               ConnectOptionKey = 1
	CoCompleteArrayExecution     ConnectOptionKey = 2
	CoClientLocale               ConnectOptionKey = 3
	CoSupportsLargeBulkOperations ConnectOptionKey = 4
	CoDistributionEnabled        ConnectOptionKey = 5
	CoDataFormatVersion2         ConnectOptionKey = 23
	CoClientDistributionMode     ConnectOptionKey = 25
	CoEngineDataFormatVersion    ConnectOptionKey = 30
	CoTableOutputParMetaData     ConnectOptionKey = 35
	CoFullVersionString          ConnectOptionKey = 32
	CoOSUser                     ConnectOptionKey = 46
	CoClientSideColumnEncryptionVersion ConnectOptionKey = 47
	CoSplitBatchCommands         ConnectOptionKey = 37
	CoUseTransactionFlagsOnly    ConnectOptionKey = 39
	CoRowSlotImageParameter      ConnectOptionKey = 41
	CoIgnoreUnknownParts         ConnectOptionKey = 42
	CoImplicitLobStreaming       ConnectOptionKey = 43
	CoCompressionLevelAndFlags   ConnectOptionKey = 26
)

// ConnectOptions is the connect-option bag exchanged in the CONNECT request
// and reply (pkConnectOptions).
type ConnectOptions = OptionPart[ConnectOptionKey]

// clientDistributionMode values for CoClientDistributionMode.
const (
	cdmOff                    int32 = 0
	cdmConnection             int32 = 1
	cdmStatement              int32 = 2
	cdmConnectionStatement    int32 = 3
)

// defaultClientConnectOptions returns the connect options hdbwire proposes
// at CONNECT time.
func defaultClientConnectOptions(locale string) *ConnectOptions {
	o := NewOptionPart[ConnectOptionKey]()
	o.setInt32(CoDataFormatVersion2, 8)
	o.setBool(CoCompleteArrayExecution, true)
	if locale != "" {
		o.setString(CoClientLocale, locale)
	}
	o.setBool(CoDistributionEnabled, false)
	o.setInt32(CoClientDistributionMode, cdmOff)
	o.setBool(CoSupportsLargeBulkOperations, true)
	o.setBool(CoRowSlotImageParameter, true)
	return o
}

// dataFormatVersion2 reads the server-negotiated data format version out of
// a reply ConnectOptions, defaulting to 1 if absent.
func dataFormatVersion2(o *ConnectOptions) int {
	if v, ok := o.int32(CoDataFormatVersion2); ok {
		return int(v)
	}
	return 1
}

// implicitLobStreaming reports whether the server advertised support for
// implicit LOB streaming (it refrains from auto-committing mid-stream when
// the client tags the request with a LobFlags part).
func implicitLobStreaming(o *ConnectOptions) bool {
	v, _ := o.bool(CoImplicitLobStreaming)
	return v
}
