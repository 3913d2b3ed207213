// Copyright (c) 2025 Sprocket
// Licensed under the MIT License. See LICENSE file in the project root for details.

package sqlexec

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Pending is the handle of an operation started by Background.
type Pending[T any] struct {
	g     errgroup.Group
	value T
}

// Background runs fn on its own goroutine and returns immediately.
//
// fn receives a context that keeps ctx's values but is never cancelled, so a started
// operation always runs to completion; it cannot be interrupted through ctx. Each call
// occupies one goroutine until fn returns. A Session must not be used by the caller while
// a background operation holds it.
func Background[T any](ctx context.Context, fn func(ctx context.Context) (T, error)) *Pending[T] {
	p := &Pending[T]{}
	detached := context.WithoutCancel(ctx)
	p.g.Go(func() error {
		v, err := fn(detached)
		p.value = v
		return err
	})
	return p
}

// Wait blocks until the operation finishes and returns its result.
func (p *Pending[T]) Wait() (T, error) {
	err := p.g.Wait()
	return p.value, err
}
