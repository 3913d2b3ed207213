// Copyright (c) 2025 Sprocket
// Licensed under the MIT License. See LICENSE file in the project root for details.

package sqlexec

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	apperrors "sprocket/cli/internal/errors"
)

// refcursorOID is the PostgreSQL type OID of refcursor.
const refcursorOID = 1790

// PgxConnector opens pgx connections from a parsed configuration.
type PgxConnector struct {
	Config *pgx.ConnConfig
}

// NewPgxConnector parses connString once; every Connect uses a copy of the result.
func NewPgxConnector(connString string) (*PgxConnector, error) {
	cfg, err := pgx.ParseConfig(connString)
	if err != nil {
		return nil, err
	}
	return &PgxConnector{Config: cfg}, nil
}

// Connect implements Connector.
func (c *PgxConnector) Connect(ctx context.Context) (Conn, error) {
	conn, err := pgx.ConnectConfig(ctx, c.Config.Copy())
	if err != nil {
		return nil, err
	}
	return &pgxConn{conn: conn}, nil
}

type pgxConn struct {
	conn *pgx.Conn
}

func (c *pgxConn) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return c.conn.Exec(ctx, sql, args...)
}

func (c *pgxConn) QueryMulti(ctx context.Context, sql string, args ...any) (Reader, error) {
	return queryMulti(ctx, c.conn, sql, args, false)
}

func (c *pgxConn) Begin(ctx context.Context, iso IsolationLevel) (Txn, error) {
	tx, err := c.conn.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.TxIsoLevel(iso)})
	if err != nil {
		return nil, err
	}
	return &pgxTx{tx: tx}, nil
}

func (c *pgxConn) Close(ctx context.Context) error { return c.conn.Close(ctx) }

func (c *pgxConn) IsClosed() bool { return c.conn.IsClosed() }

type pgxTx struct {
	tx pgx.Tx
}

func (t *pgxTx) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return t.tx.Exec(ctx, sql, args...)
}

// QueryMulti expands refcursor results: inside a transaction a routine may return
// cursors, and each cursor is then read as its own result set.
func (t *pgxTx) QueryMulti(ctx context.Context, sql string, args ...any) (Reader, error) {
	return queryMulti(ctx, t.tx.Conn(), sql, args, true)
}

func (t *pgxTx) Savepoint(ctx context.Context) (Txn, error) {
	sp, err := t.tx.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &pgxTx{tx: sp}, nil
}

func (t *pgxTx) Commit(ctx context.Context) error { return t.tx.Commit(ctx) }

func (t *pgxTx) Rollback(ctx context.Context) error { return t.tx.Rollback(ctx) }

func queryMulti(ctx context.Context, conn *pgx.Conn, sql string, args []any, expandCursors bool) (Reader, error) {
	m := conn.TypeMap()
	if len(args) > 0 {
		if err := checkStandardStrings(conn.PgConn().ParameterStatus("standard_conforming_strings")); err != nil {
			return nil, err
		}
	}
	text, err := bindLiterals(m, sql, args)
	if err != nil {
		return nil, err
	}
	r := newMultiReader(conn.PgConn().Exec(ctx, text), m)
	if r.err != nil {
		return nil, r.err
	}
	if !expandCursors || !r.cursorsOnly() {
		return r, nil
	}
	names, err := r.drainCells()
	if err != nil {
		return nil, err
	}
	c := &cursorReader{ctx: ctx, conn: conn.PgConn(), m: m, names: names}
	c.advance()
	if c.err != nil {
		return nil, c.err
	}
	return c, nil
}

// checkStandardStrings refuses to inline literals unless backslashes in them are taken
// literally by the server.
func checkStandardStrings(setting string) error {
	if setting != "on" {
		return apperrors.New(apperrors.BindFailed, "parameters can only be inlined with standard_conforming_strings=on")
	}
	return nil
}

// multiReader adapts a pgconn.MultiResultReader to Reader.
type multiReader struct {
	mrr  *pgconn.MultiResultReader
	rr   *pgconn.ResultReader
	m    *pgtype.Map
	cols []string
	err  error
}

func newMultiReader(mrr *pgconn.MultiResultReader, m *pgtype.Map) *multiReader {
	r := &multiReader{mrr: mrr, m: m}
	if mrr.NextResult() {
		r.setResult(mrr.ResultReader())
	} else {
		r.err = mrr.Close()
	}
	return r
}

func (r *multiReader) setResult(rr *pgconn.ResultReader) {
	r.rr = rr
	r.cols = r.cols[:0]
	for _, fd := range rr.FieldDescriptions() {
		r.cols = append(r.cols, fd.Name)
	}
}

func (r *multiReader) Columns() []string { return r.cols }

func (r *multiReader) Next() bool {
	return r.rr != nil && r.err == nil && r.rr.NextRow()
}

func (r *multiReader) Values() ([]any, error) {
	if r.rr == nil {
		return nil, nil
	}
	fds := r.rr.FieldDescriptions()
	raw := r.rr.Values()
	vals := make([]any, len(raw))
	for i, b := range raw {
		v, err := decode(r.m, fds[i], b)
		if err != nil {
			return nil, err
		}
		vals[i] = v
	}
	return vals, nil
}

func (r *multiReader) NextResultSet() bool {
	if r.rr == nil || r.err != nil {
		return false
	}
	if _, err := r.rr.Close(); err != nil {
		r.err = err
		r.rr = nil
		return false
	}
	r.rr = nil
	if r.mrr.NextResult() {
		r.setResult(r.mrr.ResultReader())
		return true
	}
	r.err = r.mrr.Close()
	return false
}

func (r *multiReader) Err() error { return r.err }

func (r *multiReader) Close() error {
	if r.rr != nil {
		if _, err := r.rr.Close(); err != nil && r.err == nil {
			r.err = err
		}
		r.rr = nil
	}
	if err := r.mrr.Close(); err != nil && r.err == nil {
		r.err = err
	}
	return r.err
}

// cursorsOnly reports whether every column of the current result set is a refcursor.
func (r *multiReader) cursorsOnly() bool {
	if r.rr == nil {
		return false
	}
	fds := r.rr.FieldDescriptions()
	if len(fds) == 0 {
		return false
	}
	for _, fd := range fds {
		if fd.DataTypeOID != refcursorOID {
			return false
		}
	}
	return true
}

// drainCells reads every non-null cell of the current result set as text and closes r.
func (r *multiReader) drainCells() ([]string, error) {
	var out []string
	for r.Next() {
		for _, b := range r.rr.Values() {
			if b != nil {
				out = append(out, string(b))
			}
		}
	}
	return out, r.Close()
}

// cursorReader reads FETCH ALL of each named cursor as one result set.
type cursorReader struct {
	ctx   context.Context
	conn  *pgconn.PgConn
	m     *pgtype.Map
	names []string
	next  int
	cur   *multiReader
	err   error
}

func (c *cursorReader) advance() bool {
	if c.cur != nil {
		if err := c.cur.Close(); err != nil {
			c.err = err
		}
		c.cur = nil
	}
	if c.err != nil || c.next >= len(c.names) {
		return false
	}
	name := c.names[c.next]
	c.next++
	r := newMultiReader(c.conn.Exec(c.ctx, "FETCH ALL FROM "+pgx.Identifier{name}.Sanitize()), c.m)
	if r.err != nil {
		c.err = r.err
		return false
	}
	c.cur = r
	return true
}

func (c *cursorReader) Columns() []string {
	if c.cur == nil {
		return nil
	}
	return c.cur.Columns()
}

func (c *cursorReader) Next() bool { return c.cur != nil && c.cur.Next() }

func (c *cursorReader) Values() ([]any, error) {
	if c.cur == nil {
		return nil, nil
	}
	return c.cur.Values()
}

func (c *cursorReader) NextResultSet() bool { return c.advance() }

func (c *cursorReader) Err() error {
	if c.err != nil {
		return c.err
	}
	if c.cur != nil {
		return c.cur.Err()
	}
	return nil
}

func (c *cursorReader) Close() error {
	c.next = len(c.names)
	c.advance()
	return c.err
}

// decode turns one wire cell into a Go value with the connection's type map.
// Unknown types are returned as text.
func decode(m *pgtype.Map, fd pgconn.FieldDescription, raw []byte) (any, error) {
	if raw == nil {
		return nil, nil
	}
	raw = append([]byte(nil), raw...)
	if dt, ok := m.TypeForOID(fd.DataTypeOID); ok {
		return dt.Codec.DecodeValue(m, fd.DataTypeOID, fd.Format, raw)
	}
	if fd.Format == pgtype.TextFormatCode {
		return string(raw), nil
	}
	return raw, nil
}
