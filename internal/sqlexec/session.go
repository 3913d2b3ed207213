// Copyright (c) 2025 Sprocket
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package sqlexec runs commands against PostgreSQL through a Session.
//
// A Session owns one connection and at most one transaction. The connection is opened on
// demand: an operation that finds it closed opens it and closes it again when done, while
// a connection that was already open (by Open or by an enclosing transaction scope) is
// left open. BeginTransaction runs a scope inside a transaction, committing when the scope
// returns nil and rolling back when it fails.
//
// Commands run through an Executor, which is either the Session or the *Tx handed to a
// transaction scope. Results are shaped by a Projector (scalar, list, dictionary, forest),
// optionally behind the reply status gate:
//
//	err := s.BeginTransaction(ctx, sqlexec.ReadCommitted, func(ctx context.Context, tx *sqlexec.Tx) error {
//		id, err := tx.ExecReturn(ctx, sqlexec.Call("app.create_user", sqlexec.Params{}.Add("p_email", email)))
//		...
//	})
//
// A Session is not safe for concurrent use; use one Session per unit of work.
package sqlexec

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	apperrors "sprocket/cli/internal/errors"
	"sprocket/cli/internal/logging"
	"sprocket/cli/internal/reply"
)

// Reader is a ResultSets that holds connection resources until closed.
type Reader interface {
	reply.ResultSets
	Close() error
}

// Querier runs commands on a live connection or transaction.
type Querier interface {
	// Exec runs sql with server-side parameters and discards any rows.
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	// QueryMulti runs sql and exposes every result set it produces.
	QueryMulti(ctx context.Context, sql string, args ...any) (Reader, error)
}

// Conn is one physical database connection.
type Conn interface {
	Querier
	Begin(ctx context.Context, iso IsolationLevel) (Txn, error)
	Close(ctx context.Context) error
	IsClosed() bool
}

// Txn is a live database transaction or savepoint.
type Txn interface {
	Querier
	Savepoint(ctx context.Context) (Txn, error)
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Connector opens connections for a Session.
type Connector interface {
	Connect(ctx context.Context) (Conn, error)
}

// IsolationLevel is a transaction isolation level. The zero value uses the server default.
type IsolationLevel string

const (
	Default         IsolationLevel = ""
	ReadUncommitted IsolationLevel = IsolationLevel(pgx.ReadUncommitted)
	ReadCommitted   IsolationLevel = IsolationLevel(pgx.ReadCommitted)
	RepeatableRead  IsolationLevel = IsolationLevel(pgx.RepeatableRead)
	Serializable    IsolationLevel = IsolationLevel(pgx.Serializable)
)

// ParseIsolationLevel accepts "read committed", "read_committed", "READ-COMMITTED", etc.
func ParseIsolationLevel(s string) (IsolationLevel, error) {
	norm := strings.Join(strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return r == ' ' || r == '_' || r == '-'
	}), " ")
	switch IsolationLevel(norm) {
	case Default, "default":
		return Default, nil
	case ReadUncommitted, ReadCommitted, RepeatableRead, Serializable:
		return IsolationLevel(norm), nil
	}
	return Default, fmt.Errorf("unknown isolation level %q", s)
}

// Options tune how commands are rendered.
type Options struct {
	// ReturnValueColumn names the INOUT procedure parameter (and result column)
	// carrying a routine's return value.
	ReturnValueColumn string
}

// Option sets Options.
type Option func(*Options)

// WithReturnValueColumn overrides the return value parameter name.
func WithReturnValueColumn(name string) Option {
	return func(o *Options) {
		if identRe.MatchString(name) && !strings.Contains(name, ".") {
			o.ReturnValueColumn = name
		}
	}
}

// DefaultReturnValueColumn is used unless WithReturnValueColumn says otherwise.
const DefaultReturnValueColumn = "return_value"

// Session owns one connection and at most one active transaction.
type Session struct {
	connector Connector
	opts      Options

	conn Conn
	tx   *Tx
}

// NewSession creates a Session; no connection is opened until needed.
func NewSession(connector Connector, options ...Option) *Session {
	s := &Session{
		connector: connector,
		opts:      Options{ReturnValueColumn: DefaultReturnValueColumn},
	}
	for _, o := range options {
		o(&s.opts)
	}
	return s
}

// Open opens the connection now. Operations will not close a connection opened here;
// the caller closes it with Close.
func (s *Session) Open(ctx context.Context) error {
	_, err := s.open(ctx)
	return err
}

// IsOpen reports whether the session currently holds an open connection.
func (s *Session) IsOpen() bool {
	return s.conn != nil && !s.conn.IsClosed()
}

// InTransaction reports whether a transaction scope is running.
func (s *Session) InTransaction() bool { return s.tx != nil }

// Close closes the connection. It refuses while a transaction scope is running.
func (s *Session) Close(ctx context.Context) error {
	if s.tx != nil {
		return apperrors.New(apperrors.TxActive, "cannot close a session inside a transaction scope")
	}
	if !s.IsOpen() {
		s.conn = nil
		return nil
	}
	return s.closeConn(ctx)
}

// open makes sure a connection is open and reports whether this call opened it.
func (s *Session) open(ctx context.Context) (bool, error) {
	if s.IsOpen() {
		return false, nil
	}
	conn, err := s.connector.Connect(ctx)
	if err != nil {
		return false, err
	}
	s.conn = conn
	logging.Debug("connection opened")
	return true, nil
}

func (s *Session) closeConn(ctx context.Context) error {
	conn := s.conn
	s.conn = nil
	if err := conn.Close(ctx); err != nil {
		return err
	}
	logging.Debug("connection closed")
	return nil
}

// BeginTransaction runs scope inside a transaction at the given isolation level.
//
// The transaction commits when scope returns nil. When scope returns an error or panics,
// the transaction is rolled back and the error (or panic) is passed on unchanged. The
// connection is closed afterwards only if it was closed before the call. Beginning a
// transaction while one is active fails with a TxActive error; use Tx.Savepoint to nest.
func (s *Session) BeginTransaction(ctx context.Context, iso IsolationLevel, scope func(ctx context.Context, tx *Tx) error) (err error) {
	if s.tx != nil {
		return apperrors.New(apperrors.TxActive, "a transaction is already active on this session")
	}
	opened, err := s.open(ctx)
	if err != nil {
		return err
	}
	if opened {
		defer func() {
			if cerr := s.closeConn(ctx); err == nil {
				err = cerr
			}
		}()
	}

	txn, err := s.conn.Begin(ctx, iso)
	if err != nil {
		return err
	}
	tx := &Tx{session: s, txn: txn, depth: 0}
	s.tx = tx
	defer func() {
		tx.done = true
		s.tx = nil
	}()
	logging.Debug("transaction begun", "isolation", isoName(iso))
	return runScope(ctx, tx, scope)
}

// runScope commits on success and rolls back on error or panic.
func runScope(ctx context.Context, tx *Tx, scope func(ctx context.Context, tx *Tx) error) error {
	defer func() {
		if r := recover(); r != nil {
			rollback(ctx, tx)
			panic(r)
		}
	}()
	if err := scope(ctx, tx); err != nil {
		rollback(ctx, tx)
		return err
	}
	if err := tx.txn.Commit(ctx); err != nil {
		return err
	}
	logging.Debug("transaction committed", "depth", tx.depth)
	return nil
}

// rollback runs even when ctx is already cancelled; its own failure is only logged so the
// scope's error reaches the caller unchanged.
func rollback(ctx context.Context, tx *Tx) {
	if err := tx.txn.Rollback(context.WithoutCancel(ctx)); err != nil {
		logging.Warn("rollback failed", "depth", tx.depth, "error", logging.Mask(err.Error()))
		return
	}
	logging.Debug("transaction rolled back", "depth", tx.depth)
}

func (s *Session) options() *Options { return &s.opts }

func (s *Session) withQuerier(ctx context.Context, fn func(Querier) error) (err error) {
	if s.tx != nil {
		return s.tx.withQuerier(ctx, fn)
	}
	opened, err := s.open(ctx)
	if err != nil {
		return err
	}
	if opened {
		defer func() {
			if cerr := s.closeConn(ctx); err == nil {
				err = cerr
			}
		}()
	}
	return fn(s.conn)
}

// Exec runs cmd and returns the number of rows affected.
func (s *Session) Exec(ctx context.Context, cmd Command) (int64, error) { return Exec(ctx, s, cmd) }

// ExecReturn runs cmd and returns its return value (0 when none was set).
func (s *Session) ExecReturn(ctx context.Context, cmd Command) (int, error) {
	return ExecReturn(ctx, s, cmd)
}

// Tx is the handle passed to a transaction scope. It is only valid inside the scope.
type Tx struct {
	session *Session
	txn     Txn
	depth   int
	done    bool
}

func (t *Tx) options() *Options { return &t.session.opts }

func (t *Tx) withQuerier(_ context.Context, fn func(Querier) error) error {
	if t.done {
		return apperrors.New(apperrors.TxDone, "transaction handle used after its scope ended")
	}
	return fn(t.txn)
}

// Exec runs cmd inside the transaction and returns the number of rows affected.
func (t *Tx) Exec(ctx context.Context, cmd Command) (int64, error) { return Exec(ctx, t, cmd) }

// ExecReturn runs cmd inside the transaction and returns its return value.
func (t *Tx) ExecReturn(ctx context.Context, cmd Command) (int, error) {
	return ExecReturn(ctx, t, cmd)
}

// Savepoint runs scope inside a savepoint of t with the same commit/rollback contract as
// BeginTransaction. While it runs, commands issued through the Session go to the savepoint.
func (t *Tx) Savepoint(ctx context.Context, scope func(ctx context.Context, tx *Tx) error) error {
	if t.done {
		return apperrors.New(apperrors.TxDone, "transaction handle used after its scope ended")
	}
	if t.session.tx != t {
		return apperrors.New(apperrors.TxActive, "a savepoint is already active on this transaction")
	}
	sp, err := t.txn.Savepoint(ctx)
	if err != nil {
		return err
	}
	inner := &Tx{session: t.session, txn: sp, depth: t.depth + 1}
	t.session.tx = inner
	defer func() {
		inner.done = true
		t.session.tx = t
	}()
	return runScope(ctx, inner, scope)
}

func isoName(iso IsolationLevel) string {
	if iso == Default {
		return "default"
	}
	return string(iso)
}
