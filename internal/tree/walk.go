// Copyright (c) 2025 Sprocket
// Licensed under the MIT License. See LICENSE file in the project root for details.

package tree

// Branch is implemented by node types that expose their children.
type Branch[N any] interface {
	Children() []N
}

// Walk visits every node depth-first, parents before children, siblings in order.
// Returning a non-nil error from fn stops the walk and returns that error.
func Walk[N Branch[N]](roots []N, fn func(n N, depth int) error) error {
	type frame struct {
		node  N
		depth int
	}
	stack := make([]frame, 0, len(roots))
	for i := len(roots) - 1; i >= 0; i-- {
		stack = append(stack, frame{roots[i], 0})
	}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if err := fn(top.node, top.depth); err != nil {
			return err
		}
		children := top.node.Children()
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, frame{children[i], top.depth + 1})
		}
	}
	return nil
}

// Flatten lists every node in parent-before-child order.
// For node types implementing ResetLinks, such as Node, feeding the result back into
// Forest in sorted mode reproduces the same edges.
func Flatten[N Branch[N]](roots []N) []N {
	var out []N
	_ = Walk(roots, func(n N, _ int) error {
		out = append(out, n)
		return nil
	})
	return out
}
