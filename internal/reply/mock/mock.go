// Copyright (c) 2025 Sprocket
// Licensed under the MIT License. See LICENSE file in the project root for details.

package mock

// Set is one canned result set.
type Set struct {
	Columns []string
	Rows    [][]any
}

// ResultSets replays canned result sets.
type ResultSets struct {
	Sets []Set

	// Fail, when set, is reported by Err once the reader reaches FailAtSet.
	Fail      error
	FailAtSet int

	// CloseErr is returned by Close.
	CloseErr error

	set    int
	row    int
	closed bool
}

// New returns a reader positioned at the first of sets.
func New(sets ...Set) *ResultSets {
	return &ResultSets{Sets: sets, row: -1}
}

func (r *ResultSets) current() *Set {
	if r.set < 0 || r.set >= len(r.Sets) {
		return nil
	}
	return &r.Sets[r.set]
}

func (r *ResultSets) failing() bool {
	return r.Fail != nil && r.set >= r.FailAtSet
}

func (r *ResultSets) Columns() []string {
	if s := r.current(); s != nil {
		return s.Columns
	}
	return nil
}

func (r *ResultSets) Next() bool {
	s := r.current()
	if s == nil || r.closed || r.failing() {
		return false
	}
	r.row++
	return r.row < len(s.Rows)
}

func (r *ResultSets) Values() ([]any, error) {
	s := r.current()
	if s == nil || r.row < 0 || r.row >= len(s.Rows) {
		return nil, nil
	}
	return append([]any(nil), s.Rows[r.row]...), nil
}

func (r *ResultSets) NextResultSet() bool {
	if r.closed || r.set >= len(r.Sets) {
		return false
	}
	r.set++
	r.row = -1
	return r.set < len(r.Sets) && !r.failing()
}

func (r *ResultSets) Err() error {
	if r.failing() {
		return r.Fail
	}
	return nil
}

func (r *ResultSets) Close() error {
	r.closed = true
	return r.CloseErr
}

// SetIndex returns the index of the current result set.
func (r *ResultSets) SetIndex() int { return r.set }

// Closed reports whether Close was called.
func (r *ResultSets) Closed() bool { return r.closed }
