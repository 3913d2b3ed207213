// Copyright (c) 2025 Sprocket
// Licensed under the MIT License. See LICENSE file in the project root for details.

package sqlexec

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"sprocket/cli/internal/reply"
	"sprocket/cli/internal/reply/mock"
)

func TestExecReturnInsideTransaction(t *testing.T) {
	s, db := newFakeSession()
	db.reply(mock.Set{Columns: []string{"return_value"}, Rows: [][]any{{int32(5)}}})
	ctx := context.Background()

	var got int
	err := s.BeginTransaction(ctx, ReadCommitted, func(ctx context.Context, tx *Tx) error {
		var err error
		got, err = tx.ExecReturn(ctx, Call("app.create_user", Params{}.Add("p_email", "a@example.com")))
		return err
	})
	require.NoError(t, err)
	require.Equal(t, 5, got)
	require.Equal(t, []string{
		"connect",
		"begin read committed",
		"query tx: CALL app.create_user(p_email => $1, return_value => NULL::integer)",
		"commit tx",
		"close",
	}, db.log)
	require.Equal(t, []any{"a@example.com"}, db.args[0])
	require.True(t, db.issued[0].Closed())
}

func TestExecReturnDefaultsToZero(t *testing.T) {
	tests := []struct {
		name string
		set  mock.Set
	}{
		{"no result set", mock.Set{}},
		{"no return column", mock.Set{Columns: []string{"other"}, Rows: [][]any{{int64(9)}}}},
		{"no row", mock.Set{Columns: []string{"return_value"}}},
		{"null", mock.Set{Columns: []string{"return_value"}, Rows: [][]any{{nil}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, db := newFakeSession()
			db.reply(tt.set)
			got, err := s.ExecReturn(context.Background(), Call("app.touch", nil))
			require.NoError(t, err)
			require.Zero(t, got)
		})
	}
}

func TestExecReturnCustomColumnAndPositionalArgs(t *testing.T) {
	s, db := newFakeSession(WithReturnValueColumn("rc"))
	db.reply(mock.Set{Columns: []string{"RC"}, Rows: [][]any{{int64(-2)}}})

	got, err := s.ExecReturn(context.Background(), Call("app.bump", Positional(1, "x")))
	require.NoError(t, err)
	require.Equal(t, -2, got)
	require.Equal(t, "query conn: CALL app.bump($1, $2, NULL::integer)", db.log[1])
}

func TestExecReturnPropagatesQueryError(t *testing.T) {
	s, db := newFakeSession()
	db.queryErr = errors.New("procedure app.missing does not exist")

	_, err := s.ExecReturn(context.Background(), Call("app.missing", nil))
	require.Same(t, db.queryErr, err)
	require.Equal(t, "close", db.log[len(db.log)-1])
}

func TestExecReturnsRowsAffected(t *testing.T) {
	s, db := newFakeSession()
	db.tag = "DELETE 7"

	n, err := s.Exec(context.Background(), SQL("DELETE FROM t WHERE id < $1", 10))
	require.NoError(t, err)
	require.EqualValues(t, 7, n)
	require.Equal(t, []any{10}, db.args[0])
}

func TestQueryRendersRoutineAsSelect(t *testing.T) {
	s, db := newFakeSession()
	db.reply(mock.Set{Columns: []string{"email"}, Rows: [][]any{{"a@x"}, {"b@x"}}})

	got, err := Query(context.Background(), s, Call("app.list_users", Params{}.Add("p_active", true)), List[string]())
	require.NoError(t, err)
	require.Equal(t, []string{"a@x", "b@x"}, got)
	require.Equal(t, "query conn: SELECT * FROM app.list_users(p_active => $1)", db.log[1])
}

func TestQueryReplySuccessReadsPayload(t *testing.T) {
	s, db := newFakeSession()
	db.reply(
		mock.Set{Columns: []string{"status"}, Rows: [][]any{{"OK"}}},
		mock.Set{Columns: []string{"id", "name"}, Rows: [][]any{{int32(1), "a"}, {int32(2), "b"}}},
	)

	got, err := QueryReply(context.Background(), s, reply.New(nil), SQL("SELECT 'OK'; SELECT id, name FROM t"), Dict[int, string]())
	require.NoError(t, err)
	require.Equal(t, map[int]string{1: "a", 2: "b"}, got)
}

func TestQueryReplyFailureCarriesMessages(t *testing.T) {
	s, db := newFakeSession()
	db.reply(
		mock.Set{Columns: []string{"status"}, Rows: [][]any{{"ERR_VALIDATION"}}},
		mock.Set{Columns: []string{"code", "text"}, Rows: [][]any{
			{"E1", "email required"},
			{"E2", "name too long"},
		}},
	)

	_, err := QueryReply(context.Background(), s, reply.New(nil), Call("app.create_user", nil), Records())
	var re *reply.Error
	require.ErrorAs(t, err, &re)
	require.Equal(t, reply.Failure, re.Status.Outcome)
	require.Len(t, re.Messages, 2)
	require.Equal(t, "E2", re.Messages[1].Code)
	require.True(t, db.issued[0].Closed())
}

func TestGatedInsideTransactionRollsBackOnFailure(t *testing.T) {
	s, db := newFakeSession()
	db.reply(mock.Set{Columns: []string{"status"}, Rows: [][]any{{"ERR_NOTFOUND"}}})

	err := s.BeginTransaction(context.Background(), Default, func(ctx context.Context, tx *Tx) error {
		_, err := Gated(ctx, tx, reply.New(nil), Call("app.delete_user", Positional(42)))
		return err
	})
	require.True(t, reply.IsStatus(err, "err_notfound"))
	require.Contains(t, db.log, "rollback tx")
}

func TestGatedSuccess(t *testing.T) {
	s, db := newFakeSession()
	db.reply(mock.Set{Columns: []string{"status"}, Rows: [][]any{{"success"}}})

	status, err := Gated(context.Background(), s, reply.New(nil), SQL("SELECT 'success'"))
	require.NoError(t, err)
	require.Equal(t, reply.Success, status.Outcome)
}

func TestCloseErrorSurfaces(t *testing.T) {
	s, db := newFakeSession()
	db.reply(mock.Set{Columns: []string{"n"}, Rows: [][]any{{int64(1)}}})
	db.replies[0].CloseErr = errors.New("conn busy")

	_, err := Query(context.Background(), s, SQL("SELECT 1"), Scalar[int64]())
	require.EqualError(t, err, "conn busy")
}
