// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package parexec

import (
	"context"
	"math"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// PrimeResult reports whether Number is prime.
type PrimeResult struct {
	Number uint64
	Prime  bool
}

// IsPrime reports whether n is prime using sequential trial division. It is
// the reference against which the parallel search is checked.
func IsPrime(n uint64) bool {
	if n < 2 {
		return false
	}
	limit := isqrt(n)
	for d := uint64(2); d <= limit; d++ {
		if n%d == 0 {
			return false
		}
	}
	return true
}

// isqrt returns floor(sqrt(n)) exactly. The float estimate can be off by one
// for large n, so it is corrected in both directions.
func isqrt(n uint64) uint64 {
	r := uint64(math.Sqrt(float64(n)))
	for r*r > n || r > math.MaxUint32 {
		r--
	}
	for r < math.MaxUint32 && (r+1)*(r+1) <= n {
		r++
	}
	return r
}

// IsPrimeParallel decides whether n is prime by splitting the candidate
// divisors [2, floor(sqrt(n))] across workers goroutines. The goroutines
// share one flag that any of them may clear on finding a divisor; it is read
// only after all of them have been joined.
func IsPrimeParallel(ctx context.Context, n uint64, workers int, opts ...Option) (bool, error) {
	if err := checkWorkers(workers); err != nil {
		return false, err
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}
	ctx, batch := newConfig(opts).instruments().StartBatch(ctx, "IsPrimeParallel", 1, workers)
	prime, err := searchDivisors(ctx, batch.WorkerPanicked, n, workers)
	return prime, batch.End(err)
}

// ParallelPrimeCheck reports the primality of every element of numbers, in
// input order. Each number's divisor range is split across workers
// goroutines as by [IsPrimeParallel]. 0 and 1 are not prime.
func ParallelPrimeCheck(ctx context.Context, numbers []uint64, workers int, opts ...Option) ([]PrimeResult, error) {
	if err := checkWorkers(workers); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ctx, batch := newConfig(opts).instruments().StartBatch(ctx, "ParallelPrimeCheck", len(numbers), workers)

	results := make([]PrimeResult, 0, len(numbers))
	for _, n := range numbers {
		prime, err := searchDivisors(ctx, batch.WorkerPanicked, n, workers)
		if err != nil {
			return nil, batch.End(err)
		}
		results = append(results, PrimeResult{Number: n, Prime: prime})
	}
	return results, batch.End(nil)
}

func searchDivisors(
	ctx context.Context,
	onPanic func(worker int, err error),
	n uint64,
	workers int,
) (bool, error) {
	if n < 2 {
		return false, nil
	}
	limit := isqrt(n)
	if limit < 2 {
		// 2 and 3 have no candidate divisors.
		return true, nil
	}

	if err := checkWorkers(workers); err != nil {
		return false, err
	}

	// The flag only ever moves from true to false, so concurrent stores need
	// no coordination beyond atomicity.
	var prime atomic.Bool
	prime.Store(true)

	var g errgroup.Group
	for _, r := range divisorRanges(limit, workers) {
		g.Go(func() error {
			err := contain(func() {
				for d := r.first; d <= r.last; d++ {
					if !prime.Load() || ctx.Err() != nil {
						return
					}
					if n%d == 0 {
						prime.Store(false)
						return
					}
				}
			})
			if err != nil {
				onPanic(r.worker, err)
			}
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return false, err
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return prime.Load(), nil
}

// divisorRange is an inclusive run of candidate divisors assigned to one
// worker.
type divisorRange struct {
	worker      int
	first, last uint64
}

// divisorRanges splits the candidates 2..limit into at most workers
// contiguous runs whose lengths differ by at most one, in the manner of
// [Partitions]. The arithmetic stays in uint64 so that limits beyond the
// range of int are split correctly.
func divisorRanges(limit uint64, workers int) []divisorRange {
	if limit < 2 || workers < 1 {
		return nil
	}
	count := limit - 1
	base, extra := count/uint64(workers), count%uint64(workers)
	ranges := make([]divisorRange, 0, min(uint64(workers), count))
	next := uint64(2)
	for i := range workers {
		size := base
		if uint64(i) < extra {
			size++
		}
		if size == 0 {
			break
		}
		ranges = append(ranges, divisorRange{worker: i, first: next, last: next + size - 1})
		next += size
	}
	return ranges
}
