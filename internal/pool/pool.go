// Package pool runs short-lived batches of work on a bounded set of goroutines.
package pool

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Run calls fn for every item with at most size calls in flight, waits for
// all of them and returns the results in input order.
func Run[T, R any](ctx context.Context, size int, items []T, fn func(ctx context.Context, item T) R) []R {
	out := make([]R, len(items))
	if len(items) == 0 {
		return out
	}
	if size < 1 {
		size = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(size)
	for i, item := range items {
		g.Go(func() error {
			out[i] = fn(gctx, item)
			return nil
		})
	}
	_ = g.Wait()

	return out
}

// Scaled sizes a pool at one worker per five items, clamped to [lo, hi].
func Scaled(n, lo, hi int) int {
	size := n / 5
	if size < lo {
		size = lo
	}
	if size > hi {
		size = hi
	}
	return size
}
