// Copyright (c) 2025 Sprocket
// Licensed under the MIT License. See LICENSE file in the project root for details.

package sqlexec

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"sprocket/cli/internal/reply/mock"
)

// fakeDB records every call made through the fake connection and its transactions.
type fakeDB struct {
	log       []string
	args      [][]any
	replies   []*mock.ResultSets
	issued    []*mock.ResultSets
	execErr   error
	queryErr  error
	commitErr error
	tag       string
}

func (db *fakeDB) record(format string, a ...any) {
	db.log = append(db.log, fmt.Sprintf(format, a...))
}

func (db *fakeDB) reply(sets ...mock.Set) {
	db.replies = append(db.replies, mock.New(sets...))
}

func (db *fakeDB) exec(target, sql string, args []any) (pgconn.CommandTag, error) {
	db.record("exec %s: %s", target, sql)
	db.args = append(db.args, args)
	if db.execErr != nil {
		return pgconn.CommandTag{}, db.execErr
	}
	tag := db.tag
	if tag == "" {
		tag = "UPDATE 1"
	}
	return pgconn.NewCommandTag(tag), nil
}

func (db *fakeDB) query(target, sql string, args []any) (Reader, error) {
	db.record("query %s: %s", target, sql)
	db.args = append(db.args, args)
	if db.queryErr != nil {
		return nil, db.queryErr
	}
	r := mock.New()
	if len(db.replies) > 0 {
		r = db.replies[0]
		db.replies = db.replies[1:]
	}
	db.issued = append(db.issued, r)
	return r, nil
}

type fakeConnector struct {
	db  *fakeDB
	err error
}

func (c *fakeConnector) Connect(context.Context) (Conn, error) {
	if c.err != nil {
		return nil, c.err
	}
	c.db.record("connect")
	return &fakeConn{db: c.db}, nil
}

type fakeConn struct {
	db     *fakeDB
	closed bool
}

func (c *fakeConn) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return c.db.exec("conn", sql, args)
}

func (c *fakeConn) QueryMulti(_ context.Context, sql string, args ...any) (Reader, error) {
	return c.db.query("conn", sql, args)
}

func (c *fakeConn) Begin(_ context.Context, iso IsolationLevel) (Txn, error) {
	c.db.record("begin %s", isoName(iso))
	return &fakeTxn{db: c.db, name: "tx"}, nil
}

func (c *fakeConn) Close(context.Context) error {
	c.db.record("close")
	c.closed = true
	return nil
}

func (c *fakeConn) IsClosed() bool { return c.closed }

type fakeTxn struct {
	db   *fakeDB
	name string
}

func (t *fakeTxn) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return t.db.exec(t.name, sql, args)
}

func (t *fakeTxn) QueryMulti(_ context.Context, sql string, args ...any) (Reader, error) {
	return t.db.query(t.name, sql, args)
}

func (t *fakeTxn) Savepoint(context.Context) (Txn, error) {
	t.db.record("savepoint %s", t.name)
	return &fakeTxn{db: t.db, name: t.name + "/sp"}, nil
}

func (t *fakeTxn) Commit(context.Context) error {
	t.db.record("commit %s", t.name)
	return t.db.commitErr
}

func (t *fakeTxn) Rollback(ctx context.Context) error {
	t.db.record("rollback %s", t.name)
	return ctx.Err()
}

func newFakeSession(options ...Option) (*Session, *fakeDB) {
	db := &fakeDB{}
	return NewSession(&fakeConnector{db: db}, options...), db
}
