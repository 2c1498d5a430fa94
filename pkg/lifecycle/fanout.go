package lifecycle

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// fanOut calls fn for i in [0, n) with at most limit calls running at once
// and waits for all of them. The first error cancels the context handed to
// calls that have not started yet and is returned once everything settles.
func fanOut(ctx context.Context, limit, n int, fn func(ctx context.Context, i int) error) error {
	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}

	for i := 0; i < n; i++ {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return fn(gctx, i)
		})
	}

	return g.Wait()
}
