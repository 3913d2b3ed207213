// Copyright (c) 2025 Sprocket
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package reply implements the status/message reply convention used by stored routines.
//
// A routine following the convention produces, in order:
//
//  1. a result set with a single row and a single column holding a status code;
//  2. only when the status is not a success, a result set of (code, text[, severity]) rows;
//  3. on success, the caller's payload result sets.
//
// Protocol.Gate reads the status cell and either leaves the reader positioned at the
// payload or fails with an *Error carrying the status and every message in order.
// Checking the status costs a single cell; messages are only read on the failure path.
package reply

import (
	"fmt"
	"strings"
)

// ResultSets is a forward-only reader over the result sets produced by one command.
// It starts positioned at the first result set, before its first row.
type ResultSets interface {
	// Columns returns the column names of the current result set.
	Columns() []string
	// Next advances to the next row of the current result set.
	Next() bool
	// Values returns the decoded cells of the current row.
	Values() ([]any, error)
	// NextResultSet discards what is left of the current result set and advances to the
	// next one. It returns false when there are no more result sets.
	NextResultSet() bool
	// Err returns the first error met while reading.
	Err() error
}

// Protocol interprets status codes with a Codebook.
type Protocol struct {
	codes Codebook
}

// New returns a Protocol using codes; a nil Codebook means DefaultCodebook.
func New(codes Codebook) *Protocol {
	if codes == nil {
		codes = DefaultCodebook()
	}
	return &Protocol{codes: codes}
}

// Codes returns the codebook used by the protocol.
func (p *Protocol) Codes() Codebook { return p.codes }

// Gate consumes the status result set of rs and decides the call's outcome.
//
// If the status cell is missing or not in the codebook, no gate applies: the status
// result set is skipped and gated is false. On a success status, rs is advanced to the
// payload result set. On any other status, a following result set is read in full as
// messages and an *Error is returned.
//
// Read errors from rs are returned as they are.
func (p *Protocol) Gate(rs ResultSets) (status Status, gated bool, err error) {
	raw, found, err := statusCell(rs)
	if err != nil {
		return Status{}, false, err
	}
	if found {
		status, gated = p.codes.Parse(raw)
	}
	if !gated {
		rs.NextResultSet()
		return Status{Code: raw}, false, rs.Err()
	}
	if status.Outcome == Success {
		rs.NextResultSet()
		return status, true, rs.Err()
	}

	if !rs.NextResultSet() {
		if err := rs.Err(); err != nil {
			return status, true, err
		}
		return status, true, &Error{Status: status}
	}
	msgs, err := readMessages(rs)
	if err != nil {
		return status, true, err
	}
	return status, true, &Error{Status: status, Messages: msgs}
}

func statusCell(rs ResultSets) (string, bool, error) {
	if !rs.Next() {
		return "", false, rs.Err()
	}
	vals, err := rs.Values()
	if err != nil {
		return "", false, err
	}
	if len(vals) == 0 || vals[0] == nil {
		return "", false, nil
	}
	return text(vals[0]), true, nil
}

func readMessages(rs ResultSets) ([]Message, error) {
	var msgs []Message
	for rs.Next() {
		vals, err := rs.Values()
		if err != nil {
			return nil, err
		}
		m := Message{Severity: SeverityError}
		if len(vals) > 0 {
			m.Code = text(vals[0])
		}
		if len(vals) > 1 {
			m.Text = text(vals[1])
		}
		if len(vals) > 2 && vals[2] != nil {
			m.Severity = ParseSeverity(text(vals[2]))
		}
		msgs = append(msgs, m)
	}
	return msgs, rs.Err()
}

// text renders a decoded cell as a string.
func text(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	case fmt.Stringer:
		return t.String()
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}
