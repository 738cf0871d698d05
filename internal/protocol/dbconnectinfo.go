// SPDX-FileCopyrightText: 2014-2022 SAP SE
//
// SPDX-License-Identifier: Apache-2.0

package protocol

import "io"

// DBConnectInfoKey identifies an entry of the DBConnectInfo part, used to
// ask the name-server which host/port actually owns a given tenant
// database prior to the real CONNECT.
type DBConnectInfoKey int8

// DBConnectInfoKey constants.
const (
	DciDatabaseName DBConnectInfoKey = 1
	DciHost         DBConnectInfoKey = 2
	DciPort         DBConnectInfoKey = 3
	DciIsConnected  DBConnectInfoKey = 4
)

// DBConnectInfo is the DBConnectInfo option bag (pkDBConnectInfo).
type DBConnectInfo = OptionPart[DBConnectInfoKey]

func newDBConnectInfoRequest(databaseName string) *DBConnectInfo {
	d := NewOptionPart[DBConnectInfoKey]()
	d.setString(DciDatabaseName, databaseName)
	return d
}

// resolved reports whether the reply indicates host/port have been
// resolved, and returns them.
func (d *DBConnectInfo) resolved() (host string, port int32, ok bool) {
	connected, _ := d.bool(DciIsConnected)
	if !connected {
		return "", 0, false
	}
	host, _ = d.string(DciHost)
	port, _ = d.int32(DciPort)
	return host, port, true
}

// ResolveDBConnectInfo asks a freshly dialed, not-yet-authenticated conn
// (already past the transport init-request/ack prolog) which host/port
// actually owns databaseName, for the multi-database-container systemdb
// redirect described in spec.md §4.5. ok is false when the target system
// is not MDC-enabled and the caller should simply connect to conn's own
// address instead.
func ResolveDBConnectInfo(conn io.ReadWriteCloser, databaseName string) (host string, port int32, ok bool, err error) {
	pw := NewWriter(conn, newCesu8Encoder)
	pr := NewReader(conn, newCesu8Decoder)

	req := newDBConnectInfoRequest(databaseName)
	if err := pw.Write(defaultSessionID, MtDBConnectInfo, false, outPart{pkDBConnectInfo, req}); err != nil {
		return "", 0, false, err
	}

	var rep *DBConnectInfo
	if err := pr.IterateParts(func(ph *PartHeader) {
		if ph.PartKind != pkDBConnectInfo {
			return
		}
		o := NewOptionPart[DBConnectInfoKey]()
		if err := o.decode(pr.Decoder(), ph.numArg()); err != nil {
			return
		}
		rep = o
	}); err != nil {
		return "", 0, false, err
	}
	if rep == nil {
		return "", 0, false, nil
	}
	host, port, ok = rep.resolved()
	return host, port, ok, nil
}
