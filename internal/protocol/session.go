// SPDX-FileCopyrightText: 2014-2022 SAP SE
//
// SPDX-License-Identifier: Apache-2.0

package protocol

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/hdbwire/hdbwire/internal/unicode/cesu8"
	"golang.org/x/text/transform"
)

func newCesu8Encoder() transform.Transformer { return new(cesu8.Encoder) }
func newCesu8Decoder() transform.Transformer { return new(cesu8.Decoder) }

// SessionConfig is the set of connection parameters a Session needs, beyond
// the already-dialed transport, to complete the handshake and negotiate
// connect options.
type SessionConfig interface {
	Username() string
	Password() string
	Locale() string
	ApplicationName() string
	DatabaseName() string
	FetchSize() int32
	LobChunkSize() int32
	Compression() CompressionMode
	Logger() *Logger
	// Redial dials a fresh transport to the same target, for use after a
	// reset-class error. It returns a connection in the same state NewSession
	// expects: past any transport-level init-request/ack prolog, ready for
	// the CONNECT/Authenticate handshake.
	Redial(ctx context.Context) (io.ReadWriteCloser, error)
}

const defaultSessionID = -1

// Session is one authenticated wire conversation with a HANA instance:
// request and reply are strictly alternating, serialized by mu (spec
// invariant: one roundtrip at a time per session).
type Session struct {
	cfg  SessionConfig
	conn io.ReadWriteCloser

	pw   *Writer
	pr   *Reader
	disp *Dispatcher

	mu                   sync.Mutex
	sessionID            int64
	inTx                 bool
	autoCommit           bool
	dfv                  int
	implicitLobStreaming bool
	compression          bool

	clientInfo      map[string]string
	clientInfoDirty bool
}

// NewSession takes ownership of conn (already past the transport-level
// init-request/ack prolog) and performs the CONNECT/Authenticate handshake,
// returning a ready-to-use Session.
func NewSession(conn io.ReadWriteCloser, cfg SessionConfig) (*Session, error) {
	s := &Session{
		cfg:        cfg,
		conn:       conn,
		sessionID:  defaultSessionID,
		autoCommit: true,
		pw:         NewWriter(conn, newCesu8Encoder),
		pr:         NewReader(conn, newCesu8Decoder),
	}
	if err := s.authenticate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Close sends Disconnect (best-effort; errors are swallowed, matching the
// teacher's drop semantics) and closes the transport.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.sessionID > 0 {
		_ = s.disp.roundtrip(context.Background(), s.sessionID, MtDisconnect, false, nil, nil)
	}
	s.mu.Unlock()
	return s.conn.Close()
}

// InTx reports whether the session is inside an open transaction.
func (s *Session) InTx() bool { return s.inTx }

// SetClientInfo stores an application-facing session variable, to be sent
// with the next execute-family request (spec 4.5 client-info propagation).
func (s *Session) SetClientInfo(k, v string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.clientInfo == nil {
		s.clientInfo = make(map[string]string)
	}
	s.clientInfo[k] = v
	s.clientInfoDirty = true
}

func clientID() string {
	host, err := os.Hostname()
	if err != nil {
		host = "unknown"
	}
	return fmt.Sprintf("%d@%s", os.Getpid(), host)
}

func (s *Session) authenticate() error {
	auth := newAuth(s.cfg.Username(), s.cfg.Password())

	if err := s.pw.Write(s.sessionID, MtAuthenticate, false,
		outPart{pkClientContext, newClientContext(s.cfg.ApplicationName())},
		outPart{pkAuthentication, auth.initRequest()},
	); err != nil {
		return err
	}

	var initRep *authInitRep
	if err := s.pr.IterateParts(func(ph *PartHeader) {
		if ph.PartKind == pkAuthentication {
			var err error
			initRep, err = decodeAuthInitRep(s.pr.Decoder())
			if err != nil {
				return
			}
		}
	}); err != nil {
		return err
	}

	finalReq, err := auth.handleInitReply(initRep)
	if err != nil {
		return err
	}

	co := defaultClientConnectOptions(s.cfg.Locale())
	withCompressionOption(co, s.cfg.Compression())
	if err := s.pw.Write(defaultSessionID, MtConnect, false,
		outPart{pkAuthentication, finalReq},
		outPart{pkClientID, ClientID(clientID())},
		outPart{pkConnectOptions, co},
	); err != nil {
		return err
	}

	var finalRep *authFinalRep
	if err := s.pr.IterateParts(func(ph *PartHeader) {
		switch ph.PartKind {
		case pkAuthentication:
			var err error
			finalRep, err = decodeAuthFinalRep(s.pr.Decoder())
			if err != nil {
				return
			}
		case pkConnectOptions:
			repCo := NewOptionPart[ConnectOptionKey]()
			if err := repCo.decode(s.pr.Decoder(), ph.numArg()); err != nil {
				return
			}
			s.dfv = dataFormatVersion2(repCo)
			s.implicitLobStreaming = implicitLobStreaming(repCo)
			s.compression = negotiatedCompression(repCo)
		}
	}); err != nil {
		return err
	}

	if err := auth.verifyFinalReply(finalRep); err != nil {
		return err
	}

	if s.compression {
		s.pw = NewWriter(newCompressWriter(s.conn), newCesu8Encoder)
		s.pr = NewReader(newCompressReader(s.conn), newCesu8Decoder)
	}

	s.sessionID = s.pr.SessionID()
	if s.sessionID <= 0 {
		return fmt.Errorf("protocol: invalid session id %d", s.sessionID)
	}
	s.disp = NewDispatcher(s.pw, s.pr, s.cfg.Logger())
	return nil
}

// clientInfoPart returns (and clears) the dirty ClientInfo part for the
// request about to be sent, or nil if there is nothing new to propagate.
func (s *Session) clientInfoPart() *ClientInfo {
	if !s.clientInfoDirty {
		return nil
	}
	ci := newClientInfo()
	for k, v := range s.clientInfo {
		ci.Set(k, v)
	}
	s.clientInfoDirty = false
	return ci
}

// ExecDirectResult is the reply to a non-bound ExecuteDirect request.
type ExecDirectResult struct {
	FunctionCode FunctionCode
	RowsAffected int64
	Cursor       *ResultSetCursor // nil unless FunctionCode is a select
}

// ExecDirect executes query as-is, without bind parameters: DML/DDL report
// rows affected, SELECT returns a bound cursor ready for FetchNext.
func (s *Session) ExecDirect(query string) (*ExecDirectResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	parts := []outPart{{pkCommand, command(query)}}
	if ci := s.clientInfoPart(); ci != nil {
		parts = append([]outPart{{pkClientInfo, ci}}, parts...)
	}

	res := &ExecDirectResult{}
	var fields []*ResultField
	var rsID ResultsetID
	var haveResultset bool
	var rows []Value
	var attrs partAttributes

	err := s.dispatch(context.Background(), MtExecuteDirect, s.autoCommit, parts, func(ph *PartHeader) {
		switch ph.PartKind {
		case pkResultMetadata:
			md := &ResultMetadata{}
			if err := md.decode(s.pr.Decoder(), ph); err != nil {
				return
			}
			fields = md.Fields
		case pkResultsetID:
			if err := rsID.decode(s.pr.Decoder()); err != nil {
				return
			}
		case pkResultset:
			haveResultset = true
			var err error
			rows, err = decodeResultRows(s.pr.Decoder(), fields, ph.numArg())
			if err != nil {
				return
			}
			attrs = partAttributes(ph.attributes)
		}
	})
	if err != nil {
		return nil, err
	}

	res.FunctionCode = s.pr.FunctionCode()
	if ra := s.pr.LastRowsAffected(); ra != nil {
		res.RowsAffected = ra.Total()
	}
	if haveResultset {
		res.Cursor = &ResultSetCursor{Fields: fields, id: rsID}
		res.Cursor.applyChunk(rows, attrs)
	}
	s.applyTransactionResult()
	return res, nil
}

// Prepare describes query, returning its statement handle and bind/result
// column metadata.
func (s *Session) Prepare(query string) (*PrepareResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pr := &PrepareResult{}
	parts := []outPart{{pkCommand, command(query)}}
	err := s.dispatch(context.Background(), MtPrepare, false, parts, func(ph *PartHeader) {
		switch ph.PartKind {
		case pkStatementID:
			id, err := decodeStatementID(s.pr.Decoder())
			if err != nil {
				return
			}
			pr.StmtID = id
		case pkParameterMetadata:
			md := &ParameterMetadata{}
			if err := md.decode(s.pr.Decoder(), ph); err != nil {
				return
			}
			pr.ParamFields = md.Fields
		case pkResultMetadata:
			md := &ResultMetadata{}
			if err := md.decode(s.pr.Decoder(), ph); err != nil {
				return
			}
			pr.ResultFields = md.Fields
		}
	})
	if err != nil {
		return nil, err
	}
	pr.FunctionCode = s.pr.FunctionCode()
	return pr, nil
}

// ExecuteResult is the reply to a bound Execute request.
type ExecuteResult struct {
	FunctionCode FunctionCode
	RowsAffected RowsAffected
	Cursor       *ResultSetCursor // non-nil for pr.IsQuery()
	LobLocators  []LocatorID      // one per pending LOBSTREAM input, in field order
}

// Execute runs the statement pr describes against args (row-major,
// len(pr.ParamFields) values per row — the row API binds one row, the
// batch API the accumulated rows). If any bound value is a *LobInDescr,
// its placeholder reserves a locator here; the caller must stream its
// content via WriteLobs (using this Session as the lobWriteSession) before
// treating the statement as complete.
func (s *Session) Execute(pr *PrepareResult, args []any) (*ExecuteResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ip, err := NewInputParameters(pr.ParamFields, args)
	if err != nil {
		return nil, err
	}

	parts := []outPart{{pkStatementID, pr.StmtID}, {pkParameters, ip}}
	if ci := s.clientInfoPart(); ci != nil {
		parts = append([]outPart{{pkClientInfo, ci}}, parts...)
	}
	if s.implicitLobStreaming && s.autoCommit {
		parts = append(parts, outPart{pkLobFlags, newLobFlags()})
	}

	res := &ExecuteResult{}
	var rsID ResultsetID
	var haveResultset bool
	var rows []Value
	var attrs partAttributes

	err = s.dispatch(context.Background(), MtExecute, s.autoCommit, parts, func(ph *PartHeader) {
		switch ph.PartKind {
		case pkResultsetID:
			if err := rsID.decode(s.pr.Decoder()); err != nil {
				return
			}
		case pkResultset:
			haveResultset = true
			var err error
			rows, err = decodeResultRows(s.pr.Decoder(), pr.ResultFields, ph.numArg())
			if err != nil {
				return
			}
			attrs = partAttributes(ph.attributes)
		case pkWriteLobReply:
			reply, err := decodeWriteLobReply(s.pr.Decoder(), ph)
			if err != nil {
				return
			}
			res.LobLocators = reply.ids
		}
	})

	// Populate before the error check: a batch-partial-failure reply still
	// carries a RowsAffected breakdown (raExecuteFailed per failed row) that
	// the caller needs even though err is non-nil.
	res.FunctionCode = s.pr.FunctionCode()
	if ra := s.pr.LastRowsAffected(); ra != nil {
		res.RowsAffected = *ra
	}
	if err != nil {
		return res, err
	}

	if haveResultset || pr.IsQuery() {
		res.Cursor = &ResultSetCursor{Fields: pr.ResultFields, id: rsID}
		res.Cursor.applyChunk(rows, attrs)
	}
	s.applyTransactionResult()
	return res, nil
}

// FetchNext advances cur by one server-side chunk (spec invariant: fetch
// size bounds memory; NeedsClose/LastChunk gate further fetches/closes).
func (s *Session) FetchNext(cur *ResultSetCursor) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	parts := []outPart{
		{pkResultsetID, cur.id},
		{pkFetchSize, fetchsize(s.cfg.FetchSize())},
	}

	var rows []Value
	var attrs partAttributes
	err := s.dispatch(context.Background(), MtFetchNext, false, parts, func(ph *PartHeader) {
		if ph.PartKind == pkResultset {
			var err error
			rows, err = decodeResultRows(s.pr.Decoder(), cur.Fields, ph.numArg())
			if err != nil {
				return
			}
			attrs = partAttributes(ph.attributes)
		}
	})
	if err != nil {
		return err
	}
	cur.applyChunk(rows, attrs)
	return nil
}

// CloseResultSet releases a still-open server-side cursor.
func (s *Session) CloseResultSet(cur *ResultSetCursor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.dispatch(context.Background(), MtCloseResultset, false,
		[]outPart{{pkResultsetID, cur.id}}, nil); err != nil {
		return err
	}
	cur.markClosed()
	return nil
}

// DropStatementID releases a prepared statement handle.
func (s *Session) DropStatementID(id StatementID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dispatch(context.Background(), MtDropStatementID, false,
		[]outPart{{pkStatementID, id}}, nil)
}

// Commit executes a database commit.
func (s *Session) Commit() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.dispatch(context.Background(), MtCommit, false, nil, nil); err != nil {
		return err
	}
	s.inTx = false
	return nil
}

// Rollback executes a database rollback.
func (s *Session) Rollback() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.dispatch(context.Background(), MtRollback, false, nil, nil); err != nil {
		return err
	}
	s.inTx = false
	return nil
}

// applyTransactionResult marks the session as having an open transaction
// after a statement executes without auto-commit. TransactionFlags is not
// yet threaded through IterateParts as a tracked part kind, so this is a
// simple inference rather than a decode of the server's own bookkeeping.
func (s *Session) applyTransactionResult() {
	if !s.autoCommit {
		s.inTx = true
	}
}

// FetchLobChunk implements LobFetcher, issuing a single ReadLob round trip.
func (s *Session) FetchLobChunk(id LocatorID, ofs int64, length int32) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	req := &readLobRequest{id: id, ofs: ofs, length: length}
	var reply *readLobReply
	err := s.dispatch(context.Background(), MtReadLob, false,
		[]outPart{{pkReadLobRequest, req}}, func(ph *PartHeader) {
			if ph.PartKind == pkReadLobReply {
				var err error
				reply, err = decodeReadLobReply(s.pr.Decoder(), ph)
				if err != nil {
					return
				}
			}
		})
	if err != nil {
		return nil, false, err
	}
	if reply == nil {
		return nil, false, fmt.Errorf("protocol: read lob reply missing")
	}
	return reply.data, reply.eof, nil
}

// WriteLobChunks implements lobWriteSession, issuing one WriteLob round
// trip carrying one chunk per still-pending locator.
func (s *Session) WriteLobChunks(chunks []writeLobChunk) (*writeLobReply, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	req := &writeLobRequest{chunks: chunks}
	var reply *writeLobReply
	err := s.dispatch(context.Background(), MtWriteLob, false,
		[]outPart{{pkWriteLobRequest, req}}, func(ph *PartHeader) {
			if ph.PartKind == pkWriteLobReply {
				var err error
				reply, err = decodeWriteLobReply(s.pr.Decoder(), ph)
				if err != nil {
					return
				}
			}
		})
	if err != nil {
		return nil, err
	}
	if reply == nil {
		reply = &writeLobReply{}
	}
	return reply, nil
}
