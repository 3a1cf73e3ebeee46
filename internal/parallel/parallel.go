// Package parallel provides barrier-synchronized data-parallel loops.
//
// Every helper returns only after all of its tasks have finished, so callers
// can treat a call as one phase: tasks of the next phase observe every write
// of the previous one.
package parallel

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Workers returns n if positive, otherwise GOMAXPROCS.
func Workers(n int) int {
	if n > 0 {
		return n
	}
	return runtime.GOMAXPROCS(0)
}

// For splits [0, n) into contiguous ranges and calls fn(lo, hi) for each range
// on up to workers goroutines. Ranges are disjoint, so fn may write to slot i
// of a shared slice for every i in [lo, hi) without locking.
//
// The first error cancels the context passed to the remaining ranges and is
// returned once all ranges have finished.
func For(ctx context.Context, n, workers int, fn func(ctx context.Context, lo, hi int) error) error {
	if n <= 0 {
		return ctx.Err()
	}
	workers = min(Workers(workers), n)

	if workers == 1 {
		if err := ctx.Err(); err != nil {
			return err
		}
		return fn(ctx, 0, n)
	}

	g, gctx := errgroup.WithContext(ctx)
	chunk := (n + workers - 1) / workers
	for lo := 0; lo < n; lo += chunk {
		hi := min(lo+chunk, n)
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return fn(gctx, lo, hi)
		})
	}
	return g.Wait()
}

// Each calls fn(i) for every i in [0, n) with at most workers calls running at
// once. It is meant for coarse tasks such as one task per cluster.
func Each(ctx context.Context, n, workers int, fn func(ctx context.Context, i int) error) error {
	if n <= 0 {
		return ctx.Err()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(Workers(workers), n))
	for i := 0; i < n; i++ {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return fn(gctx, i)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}
