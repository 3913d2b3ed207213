// Copyright (c) 2025 Sprocket
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package errors defines typed errors with categories for structural and usage failures
// raised by the data-access layer itself. Errors that come from the database client
// (connection and execution failures) are never wrapped in these types: they reach the
// caller exactly as pgx returned them.
//
// Each error carries a machine-readable Kind so callers can branch on the category with
// the standard library helpers:
//
//	if errors.Is(err, apperrors.Of(apperrors.TreeDuplicateKey)) { ... }
package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind is a machine-readable error category.
type Kind string

const (
	// TreeOrderViolation indicates a row referenced a parent not yet seen in pre-sorted mode.
	TreeOrderViolation Kind = "tree_order_violation"
	// TreeDanglingParent indicates a parent identity that resolves to no row.
	TreeDanglingParent Kind = "tree_dangling_parent"
	// TreeDuplicateKey indicates two rows sharing the same identity.
	TreeDuplicateKey Kind = "tree_duplicate_key"
	// TreeRootCount indicates the single-tree entry point found zero or several roots.
	TreeRootCount Kind = "tree_root_count"
	// TreeCycle indicates rows whose parent links form a cycle.
	TreeCycle Kind = "tree_cycle"

	// TxActive indicates a transaction was begun while another one is live on the session.
	TxActive Kind = "tx_active"
	// TxDone indicates a transaction handle was used after its scope ended.
	TxDone Kind = "tx_done"

	// BindFailed indicates command parameters could not be rendered for execution.
	BindFailed Kind = "bind_failed"
	// ProjectFailed indicates a payload row did not fit the requested projection.
	ProjectFailed Kind = "project_failed"
	// DictDuplicateKey indicates the dictionary projector saw the same key twice.
	DictDuplicateKey Kind = "dict_duplicate_key"
)

// E wraps an error with kind and human-friendly message.
type E struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *E) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the underlying cause, if any.
func (e *E) Unwrap() error { return e.Err }

// Is reports whether target is a kind marker (see Of) for the same kind,
// or an identical *E.
func (e *E) Is(target error) bool {
	t, ok := target.(*E)
	if !ok {
		return false
	}
	if t.Message == "" && t.Err == nil {
		return t.Kind == e.Kind
	}
	return t == e
}

func Wrap(kind Kind, msg string, err error) *E { return &E{Kind: kind, Message: msg, Err: err} }
func New(kind Kind, msg string) *E             { return &E{Kind: kind, Message: msg} }

// Newf is New with a formatted message.
func Newf(kind Kind, format string, args ...any) *E {
	return &E{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Of returns a marker matching any *E of the given kind under errors.Is.
func Of(kind Kind) error { return &E{Kind: kind} }

// IsKind reports whether any error in err's chain is an *E of the given kind.
func IsKind(err error, kind Kind) bool {
	return stderrors.Is(err, Of(kind))
}

// KindOf returns the kind of the first *E in err's chain, or "" if there is none.
func KindOf(err error) Kind {
	var e *E
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return ""
}
