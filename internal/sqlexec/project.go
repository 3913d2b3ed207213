// Copyright (c) 2025 Sprocket
// Licensed under the MIT License. See LICENSE file in the project root for details.

package sqlexec

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	apperrors "sprocket/cli/internal/errors"
	"sprocket/cli/internal/reply"
	"sprocket/cli/internal/tree"
)

// Projector shapes the current result set of rs into a value.
type Projector[T any] func(rs reply.ResultSets) (T, error)

// Record is one row together with the column names of its result set.
type Record struct {
	Columns []string
	Values  []any
}

// Get returns the value of the named column. Names match case-insensitively.
func (r Record) Get(name string) (any, bool) {
	for i, c := range r.Columns {
		if strings.EqualFold(c, name) && i < len(r.Values) {
			return r.Values[i], true
		}
	}
	return nil, false
}

// String renders the named column as text; NULL and missing columns are "".
func (r Record) String(name string) string {
	v, ok := r.Get(name)
	if !ok || v == nil {
		return ""
	}
	s, err := convert[string](v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return s
}

// Map returns the row keyed by column name.
func (r Record) Map() map[string]any {
	m := make(map[string]any, len(r.Columns))
	for i, c := range r.Columns {
		if i < len(r.Values) {
			m[c] = r.Values[i]
		}
	}
	return m
}

// Records reads every row of the current result set.
func Records() Projector[[]Record] {
	return func(rs reply.ResultSets) ([]Record, error) {
		cols := append([]string(nil), rs.Columns()...)
		var out []Record
		for rs.Next() {
			vals, err := rs.Values()
			if err != nil {
				return nil, err
			}
			out = append(out, Record{Columns: cols, Values: vals})
		}
		return out, rs.Err()
	}
}

// List reads the first column of every row.
func List[T any]() Projector[[]T] {
	return func(rs reply.ResultSets) ([]T, error) {
		var out []T
		for rs.Next() {
			vals, err := rs.Values()
			if err != nil {
				return nil, err
			}
			v, err := convert[T](first(vals))
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, rs.Err()
	}
}

// Scalar reads the first column of the first row. An empty result set yields pgx.ErrNoRows.
func Scalar[T any]() Projector[T] {
	return func(rs reply.ResultSets) (T, error) {
		var zero T
		if !rs.Next() {
			if err := rs.Err(); err != nil {
				return zero, err
			}
			return zero, pgx.ErrNoRows
		}
		vals, err := rs.Values()
		if err != nil {
			return zero, err
		}
		return convert[T](first(vals))
	}
}

// Dict reads (key, value) pairs from the first two columns. A repeated key is an error.
func Dict[K comparable, V any]() Projector[map[K]V] {
	return func(rs reply.ResultSets) (map[K]V, error) {
		if len(rs.Columns()) < 2 {
			return nil, apperrors.Newf(apperrors.ProjectFailed, "dictionary needs two columns, got %d", len(rs.Columns()))
		}
		out := make(map[K]V)
		for rs.Next() {
			vals, err := rs.Values()
			if err != nil {
				return nil, err
			}
			k, err := convert[K](vals[0])
			if err != nil {
				return nil, err
			}
			v, err := convert[V](vals[1])
			if err != nil {
				return nil, err
			}
			if _, dup := out[k]; dup {
				return nil, apperrors.Newf(apperrors.DictDuplicateKey, "duplicate key %v", k)
			}
			out[k] = v
		}
		return out, rs.Err()
	}
}

// Forest scans every row into a node and links the nodes into a forest.
// With sorted set, parents must precede their children.
func Forest[K comparable, N tree.Hierarchical[K, N]](scan func(Record) (N, error), sorted bool) Projector[[]N] {
	return func(rs reply.ResultSets) ([]N, error) {
		nodes, err := scanAll(rs, scan)
		if err != nil {
			return nil, err
		}
		return tree.Forest[K](nodes, sorted)
	}
}

// Tree is Forest for result sets that must form exactly one tree.
func Tree[K comparable, N tree.Hierarchical[K, N]](scan func(Record) (N, error), sorted bool) Projector[N] {
	return func(rs reply.ResultSets) (N, error) {
		nodes, err := scanAll(rs, scan)
		if err != nil {
			var zero N
			return zero, err
		}
		return tree.Single[K](nodes, sorted)
	}
}

// NodeScanner builds tree.Node values from the identity and parent identity columns.
// A NULL parent marks a root.
func NodeScanner[K comparable, T any](idCol, parentCol string, value func(Record) (T, error)) func(Record) (*tree.Node[K, T], error) {
	return func(r Record) (*tree.Node[K, T], error) {
		rawID, ok := r.Get(idCol)
		if !ok {
			return nil, apperrors.Newf(apperrors.ProjectFailed, "column %q not found", idCol)
		}
		id, err := convert[K](rawID)
		if err != nil {
			return nil, err
		}
		rawParent, ok := r.Get(parentCol)
		if !ok {
			return nil, apperrors.Newf(apperrors.ProjectFailed, "column %q not found", parentCol)
		}
		var parent *K
		if rawParent != nil {
			p, err := convert[K](rawParent)
			if err != nil {
				return nil, err
			}
			parent = &p
		}
		v, err := value(r)
		if err != nil {
			return nil, err
		}
		return tree.NewNode(id, parent, v), nil
	}
}

func scanAll[N any](rs reply.ResultSets, scan func(Record) (N, error)) ([]N, error) {
	recs, err := Records()(rs)
	if err != nil {
		return nil, err
	}
	nodes := make([]N, 0, len(recs))
	for _, r := range recs {
		n, err := scan(r)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

func first(vals []any) any {
	if len(vals) == 0 {
		return nil
	}
	return vals[0]
}

// convert coerces a decoded cell to T. NULL becomes the zero value.
func convert[T any](v any) (T, error) {
	var out T
	if v == nil {
		return out, nil
	}
	if t, ok := v.(T); ok {
		return t, nil
	}
	var err error
	switch p := any(&out).(type) {
	case *int64:
		*p, err = toInt64(v)
	case *int:
		var n int64
		n, err = toInt64(v)
		*p = int(n)
	case *int32:
		var n int64
		n, err = toInt64(v)
		if err == nil && (n < math.MinInt32 || n > math.MaxInt32) {
			err = fmt.Errorf("%d overflows int32", n)
		}
		*p = int32(n)
	case *float64:
		*p, err = toFloat64(v)
	case *string:
		*p = toString(v)
	case *any:
		*p = v
	default:
		err = fmt.Errorf("unsupported target type")
	}
	if err != nil {
		return out, apperrors.Wrap(apperrors.ProjectFailed, fmt.Sprintf("cannot convert %T to %T", v, out), err)
	}
	return out, nil
}

func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int8:
		return int64(n), nil
	case int16:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case uint32:
		return int64(n), nil
	case float64:
		if n != math.Trunc(n) {
			return 0, fmt.Errorf("%v is not integral", n)
		}
		return int64(n), nil
	case string:
		return strconv.ParseInt(strings.TrimSpace(n), 10, 64)
	case []byte:
		return strconv.ParseInt(strings.TrimSpace(string(n)), 10, 64)
	case interface {
		Int64Value() (pgtype.Int8, error)
	}:
		i, err := n.Int64Value()
		if err != nil {
			return 0, err
		}
		if !i.Valid {
			return 0, nil
		}
		return i.Int64, nil
	}
	return 0, fmt.Errorf("not an integer")
}

func toFloat64(v any) (float64, error) {
	switch n := v.(type) {
	case float32:
		return float64(n), nil
	case float64:
		return n, nil
	case string:
		return strconv.ParseFloat(strings.TrimSpace(n), 64)
	case interface {
		Float64Value() (pgtype.Float8, error)
	}:
		f, err := n.Float64Value()
		if err != nil {
			return 0, err
		}
		return f.Float64, nil
	}
	i, err := toInt64(v)
	return float64(i), err
}

func toString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case []byte:
		return string(s)
	case fmt.Stringer:
		return s.String()
	}
	return fmt.Sprint(v)
}
