// SPDX-FileCopyrightText: 2014-2022 SAP SE
//
// SPDX-License-Identifier: Apache-2.0

package protocol

import "github.com/hdbwire/hdbwire/internal/protocol/encoding"

// ClientInfo carries application-supplied session variables (APPLICATION,
// APPLICATIONUSER, ...) sent along with the first execute-family request
// after they are set, or whenever they change (pkClientInfo).
type ClientInfo struct {
	kv map[string]string
}

func newClientInfo() *ClientInfo { return &ClientInfo{kv: make(map[string]string)} }

// Set stores a key/value pair for the next send.
func (c *ClientInfo) Set(k, v string) { c.kv[k] = v }

func (c *ClientInfo) numArg() int { return len(c.kv) }

func (c *ClientInfo) size() int {
	n := 0
	for k, v := range c.kv {
		n += encoding.LIFieldSize(len(k)) + len(k) + encoding.LIFieldSize(len(v)) + len(v)
	}
	return n
}

func (c *ClientInfo) encode(enc *encoding.Encoder) error {
	for k, v := range c.kv {
		enc.WriteVarBytes([]byte(k))
		enc.WriteVarBytes([]byte(v))
	}
	return enc.Error()
}

func (c *ClientInfo) decode(dec *encoding.Decoder, numArg int) error {
	c.kv = make(map[string]string, numArg)
	for i := 0; i < numArg; i++ {
		k, _ := dec.VarBytes()
		v, _ := dec.VarBytes()
		c.kv[string(k)] = string(v)
	}
	return dec.Error()
}
