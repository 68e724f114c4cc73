package vocconv

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// orderedResult is the outcome of processing one index.
type orderedResult[T any] struct {
	err error
	v   T
}

// forEachOrdered calls process for the indices 0 to n-1 and passes each result to emit, in index
// order. With workers > 1, at most workers items are processed concurrently or wait for emit.
//
// The first error returned by process or emit is returned. All results before the failing index
// are emitted first, regardless of workers, and the remaining work is canceled.
func forEachOrdered[T any](ctx context.Context, n, workers int,
	process func(ctx context.Context, i int) (T, error), emit func(i int, v T) error) error {

	if workers <= 1 {
		for i := 0; i < n; i++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			v, err := process(ctx, i)
			if err != nil {
				return err
			}
			if err := emit(i, v); err != nil {
				return err
			}
		}
		return nil
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	g, ctx := errgroup.WithContext(ctx)

	// Each in-flight index has a result channel. The channels are queued in index order. The queue
	// holds workers-1 channels and the emitter holds one, which limits the items in flight.
	pending := make(chan chan orderedResult[T], workers-1)

	// Feed the work. Process errors travel with the results so that only the emitter cancels ctx,
	// after it has emitted everything before the failed index.
	g.Go(func() error {
		defer close(pending)
		for i := 0; i < n; i++ {
			result := make(chan orderedResult[T], 1)
			select {
			case pending <- result:
			case <-ctx.Done():
				return ctx.Err()
			}

			i := i
			g.Go(func() error {
				v, err := process(ctx, i)
				result <- orderedResult[T]{err: err, v: v}
				return nil
			})
		}
		return nil
	})

	// Emit the results in order.
	g.Go(func() error {
		i := 0
		for result := range pending {
			select {
			case r := <-result:
				if r.err != nil {
					return r.err
				}
				if err := emit(i, r.v); err != nil {
					return err
				}
			case <-ctx.Done():
				return ctx.Err()
			}
			i++
		}
		return nil
	})

	return g.Wait()
}
