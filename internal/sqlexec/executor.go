// Copyright (c) 2025 Sprocket
// Licensed under the MIT License. See LICENSE file in the project root for details.

package sqlexec

import (
	"context"
	"strings"
	"time"

	"github.com/pterm/pterm"

	"sprocket/cli/internal/logging"
	"sprocket/cli/internal/reply"
)

// Executor is where a command runs: a *Session (its active transaction if any, else its
// connection) or a *Tx. The interface is sealed.
type Executor interface {
	options() *Options
	withQuerier(ctx context.Context, fn func(Querier) error) error
}

var (
	_ Executor = (*Session)(nil)
	_ Executor = (*Tx)(nil)
)

// Exec runs cmd, discarding rows, and returns the number of rows affected.
func Exec(ctx context.Context, ex Executor, cmd Command) (int64, error) {
	sql, args, err := cmd.render(renderExec, "")
	if err != nil {
		return 0, err
	}
	var n int64
	err = ex.withQuerier(ctx, func(q Querier) error {
		defer trace(cmd, sql)()
		tag, err := q.Exec(ctx, sql, args...)
		if err != nil {
			return err
		}
		n = tag.RowsAffected()
		return nil
	})
	return n, err
}

// ExecReturn runs cmd and returns the integer it reports back.
//
// A routine is called with an extra integer INOUT argument named by the return value
// column; the procedure assigns it to return a value. For text commands the value is read
// from a column of that name in the first row of the first result set. When nothing was
// returned (no such column, no row, or NULL) the result is 0.
func ExecReturn(ctx context.Context, ex Executor, cmd Command) (int, error) {
	col := ex.options().ReturnValueColumn
	sql, args, err := cmd.render(renderExec, col)
	if err != nil {
		return 0, err
	}
	var rv int
	err = ex.withQuerier(ctx, func(q Querier) error {
		defer trace(cmd, sql)()
		r, err := q.QueryMulti(ctx, sql, args...)
		if err != nil {
			return err
		}
		rv, err = readReturnValue(r, col)
		return closeReader(r, err)
	})
	return rv, err
}

// Query runs cmd and shapes its result sets with project. Routines are selected from as
// set-returning functions.
func Query[T any](ctx context.Context, ex Executor, cmd Command, project Projector[T]) (T, error) {
	return query(ctx, ex, cmd, func(rs reply.ResultSets) (T, error) {
		return project(rs)
	})
}

// QueryReply runs cmd, passes its first result set through the reply gate of p and, on
// success, shapes the payload with project. A non-success status fails with *reply.Error.
func QueryReply[T any](ctx context.Context, ex Executor, p *reply.Protocol, cmd Command, project Projector[T]) (T, error) {
	return query(ctx, ex, cmd, func(rs reply.ResultSets) (T, error) {
		var zero T
		status, gated, err := p.Gate(rs)
		if err != nil {
			return zero, err
		}
		if gated {
			logging.Debug("reply status", "code", status.Code, "outcome", status.Outcome.String())
		}
		return project(rs)
	})
}

// Gated runs cmd through the reply gate of p and drops any payload.
func Gated(ctx context.Context, ex Executor, p *reply.Protocol, cmd Command) (reply.Status, error) {
	var status reply.Status
	_, err := query(ctx, ex, cmd, func(rs reply.ResultSets) (struct{}, error) {
		var err error
		status, _, err = p.Gate(rs)
		return struct{}{}, err
	})
	return status, err
}

func query[T any](ctx context.Context, ex Executor, cmd Command, fn func(reply.ResultSets) (T, error)) (T, error) {
	var out T
	sql, args, err := cmd.render(renderQuery, "")
	if err != nil {
		return out, err
	}
	err = ex.withQuerier(ctx, func(q Querier) error {
		defer trace(cmd, sql)()
		r, err := q.QueryMulti(ctx, sql, args...)
		if err != nil {
			return err
		}
		out, err = fn(r)
		return closeReader(r, err)
	})
	return out, err
}

// closeReader closes r, keeping err when it is set.
func closeReader(r Reader, err error) error {
	cerr := r.Close()
	if err != nil {
		return err
	}
	return cerr
}

// readReturnValue reads the return value column from the first row of the current result set.
func readReturnValue(rs reply.ResultSets, col string) (int, error) {
	idx := -1
	for i, c := range rs.Columns() {
		if strings.EqualFold(c, col) {
			idx = i
			break
		}
	}
	if idx < 0 || !rs.Next() {
		return 0, rs.Err()
	}
	vals, err := rs.Values()
	if err != nil {
		return 0, err
	}
	if idx >= len(vals) || vals[idx] == nil {
		return 0, nil
	}
	n, err := convert[int64](vals[idx])
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func trace(cmd Command, sql string) func() {
	if !logging.Enabled(pterm.LogLevelDebug) {
		return func() {}
	}
	start := time.Now()
	return func() {
		logging.Debug("command",
			"kind", cmd.Kind.String(),
			"sql", logging.Mask(sql),
			"params", strings.Join(cmd.ParamNames(), ","),
			"took", time.Since(start).String())
	}
}
