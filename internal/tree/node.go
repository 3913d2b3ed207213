// Copyright (c) 2025 Sprocket
// Licensed under the MIT License. See LICENSE file in the project root for details.

package tree

// Node is a ready-made Hierarchical node carrying an arbitrary payload.
// The parent owns its children; the parent pointer is a back-reference for traversal only.
type Node[K comparable, T any] struct {
	ID       K
	ParentID *K
	Value    T

	parent   *Node[K, T]
	children []*Node[K, T]
}

// NewNode creates a detached node. A nil parentID marks a root.
func NewNode[K comparable, T any](id K, parentID *K, value T) *Node[K, T] {
	return &Node[K, T]{ID: id, ParentID: parentID, Value: value}
}

func (n *Node[K, T]) Key() K { return n.ID }

func (n *Node[K, T]) ParentKey() (K, bool) {
	if n.ParentID == nil {
		var zero K
		return zero, false
	}
	return *n.ParentID, true
}

func (n *Node[K, T]) AppendChild(child *Node[K, T]) { n.children = append(n.children, child) }

func (n *Node[K, T]) SetParent(parent *Node[K, T]) { n.parent = parent }

// ResetLinks detaches the node from its parent and children.
func (n *Node[K, T]) ResetLinks() {
	n.parent = nil
	n.children = nil
}

// Parent returns the node's parent, or nil for a root or a detached node.
func (n *Node[K, T]) Parent() *Node[K, T] { return n.parent }

// Children returns the node's children in materialization order.
func (n *Node[K, T]) Children() []*Node[K, T] { return n.children }

// IsRoot reports whether the node has no parent identity.
func (n *Node[K, T]) IsRoot() bool { return n.ParentID == nil }

// Depth counts parent hops up to the root.
func (n *Node[K, T]) Depth() int {
	d := 0
	for p := n.parent; p != nil; p = p.parent {
		d++
	}
	return d
}
