// Copyright (c) 2025 Sprocket
// Licensed under the MIT License. See LICENSE file in the project root for details.

package sqlexec

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"sprocket/cli/internal/dsn"
	"sprocket/cli/internal/reply"
)

// liveSession connects to the database named by the first DSN variable that is set,
// and skips the test when none is.
func liveSession(t *testing.T) *Session {
	t.Helper()
	var conn string
	for _, k := range dsn.EnvVars {
		if v := os.Getenv(k); v != "" {
			conn = v
			break
		}
	}
	if conn == "" {
		t.Skip("no database configured")
	}
	connector, err := NewPgxConnector(conn)
	require.NoError(t, err)
	s := NewSession(connector)
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	return s
}

type payload struct {
	status string
	rows   []int64
}

func TestPgx_StatusThenPayload(t *testing.T) {
	s := liveSession(t)
	ctx := context.Background()

	got, err := QueryReply(ctx, s, reply.New(nil),
		SQL("SELECT 'OK'; SELECT x FROM generate_series(1, $1::int) AS x", int32(3)),
		List[int64]())
	require.NoError(t, err)
	require.Equal(t, []int64{1, 2, 3}, got)
	require.False(t, s.IsOpen())
}

func TestPgx_FailureReadsMessages(t *testing.T) {
	s := liveSession(t)

	_, err := QueryReply(context.Background(), s, reply.New(nil),
		SQL("SELECT 'ERROR'; SELECT 'E1' AS code, $1 AS text, NULL AS severity UNION ALL SELECT 'E2', 'second', 'warning'", "bad input"),
		Records())
	var re *reply.Error
	require.ErrorAs(t, err, &re)
	require.Equal(t, reply.Failure, re.Status.Outcome)
	require.Equal(t, []reply.Message{
		{Code: "E1", Text: "bad input", Severity: reply.SeverityError},
		{Code: "E2", Text: "second", Severity: reply.SeverityWarning},
	}, re.Messages)
}

func TestPgx_ErrorInLaterStatementSurfacesOnClose(t *testing.T) {
	s := liveSession(t)

	_, err := Query(context.Background(), s, SQL("SELECT 1 AS a; SELECT 1/0"), Records())
	var pgErr *pgconn.PgError
	require.ErrorAs(t, err, &pgErr)
	require.Equal(t, "22012", pgErr.Code)
}

func TestPgx_RefcursorsExpandInsideTransaction(t *testing.T) {
	s := liveSession(t)
	ctx := context.Background()

	both := func(rs reply.ResultSets) (payload, error) {
		var p payload
		nums, err := List[int64]()(rs)
		if err != nil {
			return p, err
		}
		p.rows = nums
		if !rs.NextResultSet() {
			return p, errors.New("second cursor missing")
		}
		p.status, err = Scalar[string]()(rs)
		return p, err
	}

	err := s.BeginTransaction(ctx, ReadCommitted, func(ctx context.Context, tx *Tx) error {
		_, err := tx.Exec(ctx, SQL(`CREATE FUNCTION pg_temp.two_cursors() RETURNS SETOF refcursor
LANGUAGE plpgsql AS $$
DECLARE
	a refcursor := 'sprocket_a';
	b refcursor := 'sprocket_b';
BEGIN
	OPEN a FOR SELECT 1 AS n UNION ALL SELECT 2;
	RETURN NEXT a;
	OPEN b FOR SELECT 'hello'::text AS greeting;
	RETURN NEXT b;
END $$`))
		if err != nil {
			return err
		}

		got, err := Query(ctx, tx, Call("pg_temp.two_cursors", Params{}), Projector[payload](both))
		if err != nil {
			return err
		}
		require.Equal(t, payload{status: "hello", rows: []int64{1, 2}}, got)
		return nil
	})
	require.NoError(t, err)
}

func TestPgx_ProcedureReturnValue(t *testing.T) {
	s := liveSession(t)
	ctx := context.Background()
	require.NoError(t, s.Open(ctx))

	_, err := s.Exec(ctx, SQL(`CREATE PROCEDURE pg_temp.add_one(p_n integer, INOUT return_value integer)
LANGUAGE plpgsql AS $$
BEGIN
	return_value := p_n + 1;
END $$`))
	require.NoError(t, err)

	rv, err := s.ExecReturn(ctx, Call("pg_temp.add_one", Params{}.Add("p_n", int32(41))))
	require.NoError(t, err)
	require.Equal(t, 42, rv)
	require.True(t, s.IsOpen())
}
