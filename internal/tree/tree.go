// Copyright (c) 2025 Sprocket
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package tree reconstructs parent/child object graphs from flat, ordered rows.
// Each row carries an identity and an optional parent identity; rows without a parent
// identity are roots. Two reconstruction modes are provided:
//
//   - sorted: the row order guarantees every parent precedes its children
//     (for example a recursive CTE ordered by path). One forward pass; a parent that has
//     not been seen yet is an ordering violation and fails immediately.
//   - unsorted: any row order. An identity index is built first, then every row is linked
//     to its parent through the index.
//
// Both modes reject duplicate identities and keep children in input order, so the same
// rows produce the same forest in either mode whenever both preconditions hold.
//
// Node types implementing ResetLinks may be materialized again, for example from the
// output of Flatten. On failure the input nodes may be partially linked and should be
// discarded.
package tree

import (
	apperrors "sprocket/cli/internal/errors"
)

// Hierarchical is the capability a row type needs to be materialized.
// N is the concrete node type itself (usually a pointer), so children are stored
// without any type assertion.
type Hierarchical[K comparable, N any] interface {
	// Key returns the row identity.
	Key() K
	// ParentKey returns the parent identity, or false for a root.
	ParentKey() (K, bool)
	// AppendChild attaches child as the next child of the receiver.
	AppendChild(child N)
}

// parentLinker is implemented by node types that keep a back-reference to their parent.
type parentLinker[N any] interface {
	SetParent(parent N)
}

// linkResetter is implemented by node types that can drop links from an earlier build,
// so already materialized nodes can be fed back in.
type linkResetter interface {
	ResetLinks()
}

// Forest materializes rows into a list of roots. Zero or many roots are allowed.
func Forest[K comparable, N Hierarchical[K, N]](rows []N, sorted bool) ([]N, error) {
	if sorted {
		return buildSorted[K](rows)
	}
	return buildUnsorted[K](rows)
}

// Single materializes rows into exactly one tree and returns its root.
// A forest with zero or more than one root is a TreeRootCount error.
func Single[K comparable, N Hierarchical[K, N]](rows []N, sorted bool) (N, error) {
	var zero N
	roots, err := Forest[K](rows, sorted)
	if err != nil {
		return zero, err
	}
	if len(roots) != 1 {
		return zero, apperrors.Newf(apperrors.TreeRootCount, "expected exactly one root, found %d", len(roots))
	}
	return roots[0], nil
}

func buildSorted[K comparable, N Hierarchical[K, N]](rows []N) ([]N, error) {
	seen := make(map[K]N, len(rows))
	roots := make([]N, 0)
	for i, n := range rows {
		key := n.Key()
		if _, dup := seen[key]; dup {
			return nil, duplicateKey(key, i)
		}
		resetLinks(n)
		if pk, ok := n.ParentKey(); ok {
			// The row itself is registered after the lookup: a self-parent is never "seen".
			parent, found := seen[pk]
			if !found {
				return nil, apperrors.Newf(apperrors.TreeOrderViolation,
					"row %d (%v) references parent %v which has not been seen yet", i, key, pk)
			}
			link[K](parent, n)
		} else {
			roots = append(roots, n)
		}
		seen[key] = n
	}
	return roots, nil
}

func buildUnsorted[K comparable, N Hierarchical[K, N]](rows []N) ([]N, error) {
	index := make(map[K]N, len(rows))
	for i, n := range rows {
		key := n.Key()
		if _, dup := index[key]; dup {
			return nil, duplicateKey(key, i)
		}
		index[key] = n
	}
	for _, n := range rows {
		resetLinks(n)
	}

	for i, n := range rows {
		if pk, ok := n.ParentKey(); ok {
			if _, found := index[pk]; !found {
				return nil, apperrors.Newf(apperrors.TreeDanglingParent,
					"row %d (%v) references parent %v which does not exist", i, n.Key(), pk)
			}
		}
	}
	if err := detectCycle[K](rows, index); err != nil {
		return nil, err
	}

	roots := make([]N, 0)
	for _, n := range rows {
		pk, ok := n.ParentKey()
		if !ok {
			roots = append(roots, n)
			continue
		}
		link[K](index[pk], n)
	}
	return roots, nil
}

// detectCycle walks every row up to its root. Every parent key is known to resolve.
func detectCycle[K comparable, N Hierarchical[K, N]](rows []N, index map[K]N) error {
	const (
		visiting = 1
		done     = 2
	)
	state := make(map[K]uint8, len(index))
	var path []K
	for _, n := range rows {
		path = path[:0]
		key := n.Key()
	walk:
		for {
			switch state[key] {
			case done:
				break walk
			case visiting:
				return apperrors.Newf(apperrors.TreeCycle, "parent links of %v form a cycle", key)
			}
			state[key] = visiting
			path = append(path, key)
			pk, ok := index[key].ParentKey()
			if !ok {
				break walk
			}
			key = pk
		}
		for _, k := range path {
			state[k] = done
		}
	}
	return nil
}

func link[K comparable, N Hierarchical[K, N]](parent, child N) {
	parent.AppendChild(child)
	if l, ok := any(child).(parentLinker[N]); ok {
		l.SetParent(parent)
	}
}

func resetLinks(n any) {
	if r, ok := n.(linkResetter); ok {
		r.ResetLinks()
	}
}

func duplicateKey[K comparable](key K, row int) error {
	return apperrors.Newf(apperrors.TreeDuplicateKey, "row %d repeats identity %v", row, key)
}
