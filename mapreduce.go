// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package parexec

import (
	"context"
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"
)

// ParallelMap applies f to every element of items using one goroutine per
// non-empty partition and returns the results in input order: out[i] is
// f(items[i]) regardless of the order in which workers finish.
//
// The worker count is taken from [WithWorkers] and otherwise defaults to
// [DefaultParallelism]. f must be safe to call concurrently from multiple
// goroutines.
//
// Any failure is fatal to the whole batch and no partial results are
// returned: a panic in f yields an error wrapping [ErrWorkerPanicked], a
// canceled context yields the context's error, and a result stream that ends
// early for any other reason yields [ErrChannelClosed]. Every goroutine
// spawned by ParallelMap has terminated by the time it returns.
func ParallelMap[I, O any](
	ctx context.Context,
	items []I,
	f func(I) O,
	opts ...Option,
) ([]O, error) {
	if f == nil {
		return nil, fmt.Errorf("%w: map function must be non-nil", ErrInvalidArgument)
	}
	cfg := newConfig(opts)
	workers, err := cfg.resolveWorkers()
	if err != nil {
		return nil, err
	}
	return parallelMap(ctx, cfg, "ParallelMap", items, workers, f)
}

func parallelMap[I, O any](
	ctx context.Context,
	cfg *config,
	operation string,
	items []I,
	workers int,
	f func(I) O,
) ([]O, error) {
	parts, err := Partitions(len(items), workers)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ctx, batch := cfg.instruments().StartBatch(ctx, operation, len(items), workers)

	// Buffered to the full result count so that workers never block on send,
	// even if the coordinator stops receiving.
	results := make(chan taggedResult[O], len(items))

	var g errgroup.Group
	for _, p := range parts {
		if p.Empty() {
			continue
		}
		g.Go(func() error {
			err := contain(func() {
				for offset, item := range items[p.Start:p.End] {
					if ctx.Err() != nil {
						return
					}
					results <- taggedResult[O]{
						Key:   resultKey{Partition: p.Index, Offset: offset},
						Value: f(item),
					}
				}
			})
			if err != nil {
				batch.WorkerPanicked(p.Index, err)
			}
			return err
		})
	}

	// Close the result channel once every worker has been joined so that the
	// receive loop below terminates even if some results never arrive. The
	// closes are deferred because Wait re-raises a worker's runtime.Goexit.
	var joinErr error
	joined := make(chan struct{})
	go func() {
		defer close(joined)
		defer close(results)
		joinErr = g.Wait()
	}()

	var buf reorderBuffer[O]
	for r := range results {
		buf.Push(r)
	}
	<-joined
	if joinErr != nil {
		return nil, batch.End(joinErr)
	}
	if err := ctx.Err(); err != nil {
		return nil, batch.End(err)
	}
	if buf.Len() != len(items) {
		return nil, batch.End(fmt.Errorf("%w: received %d of %d results", ErrChannelClosed, buf.Len(), len(items)))
	}
	return buf.Drain(), batch.End(nil)
}

// ParallelSquares returns the square of every element of numbers, in input
// order, computed as by [ParallelMap]. Inputs whose magnitude exceeds
// [MaxSquareInput] are rejected with [ErrInvalidArgument] before any work
// starts.
func ParallelSquares(ctx context.Context, numbers []int64, opts ...Option) ([]int64, error) {
	if err := checkSquareInputs(numbers); err != nil {
		return nil, err
	}
	cfg := newConfig(opts)
	workers, err := cfg.resolveWorkers()
	if err != nil {
		return nil, err
	}
	return parallelMap(ctx, cfg, "ParallelSquares", numbers, workers, Square)
}

// MaxFactorialInput is the largest n whose factorial fits in a uint64.
const MaxFactorialInput = 20

// ParallelFactorials returns n! for every element of numbers, in input order,
// computed as by [ParallelMap]. Inputs greater than [MaxFactorialInput] are
// rejected with [ErrInvalidArgument] before any work starts.
func ParallelFactorials(ctx context.Context, numbers []uint32, opts ...Option) ([]uint64, error) {
	for i, n := range numbers {
		if n > MaxFactorialInput {
			return nil, fmt.Errorf("%w: numbers[%d] = %d overflows uint64 factorial", ErrInvalidArgument, i, n)
		}
	}
	cfg := newConfig(opts)
	workers, err := cfg.resolveWorkers()
	if err != nil {
		return nil, err
	}
	return parallelMap(ctx, cfg, "ParallelFactorials", numbers, workers, Factorial)
}

// MaxSquareInput is the largest magnitude whose square fits in an int64.
const MaxSquareInput = 3037000499

// Square returns n*n. The product wraps for inputs whose magnitude exceeds
// [MaxSquareInput]; [ParallelSquares] and [RunSquareQueue] reject those.
func Square(n int64) int64 {
	return n * n
}

func checkSquareInputs(numbers []int64) error {
	for i, n := range numbers {
		if n > MaxSquareInput || n < -MaxSquareInput {
			return fmt.Errorf("%w: numbers[%d] = %d overflows int64 square", ErrInvalidArgument, i, n)
		}
	}
	return nil
}

// Factorial returns n!, or [math.MaxUint64] if the result does not fit.
func Factorial(n uint32) uint64 {
	if n > MaxFactorialInput {
		return math.MaxUint64
	}
	result := uint64(1)
	for i := uint64(2); i <= uint64(n); i++ {
		result *= i
	}
	return result
}
