// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package parexec

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/petenewcomb/parexec-go/internal/chanq"
	"github.com/petenewcomb/parexec-go/internal/telemetry"
	"go.uber.org/zap"
)

// WorkerResult pairs a value computed by [RunWorkQueue] with the identifier
// of the worker that computed it. Worker identifiers run from zero to one
// less than the worker count.
type WorkerResult[R any] struct {
	Worker int
	Value  R
}

// RunWorkQueue starts workers long-lived goroutines that pull tasks from a
// shared queue, apply f to each and push the outcome onto a result queue.
// The caller's goroutine acts as coordinator: it enqueues every task, closes
// the task queue and collects exactly len(tasks) results.
//
// Results are returned in completion order, not input order. Each task is
// processed by exactly one worker. Every worker has exited by the time
// RunWorkQueue returns.
//
// If the result stream ends before every task has produced a result, the
// returned error wraps [ErrWorkerPanicked] when a worker panicked and
// [ErrChannelClosed] otherwise. No partial results are returned.
func RunWorkQueue[T, R any](
	ctx context.Context,
	tasks []T,
	workers int,
	f func(T) R,
	opts ...Option,
) ([]WorkerResult[R], error) {
	if err := checkWorkers(workers); err != nil {
		return nil, err
	}
	if f == nil {
		return nil, fmt.Errorf("%w: task function must be non-nil", ErrInvalidArgument)
	}
	return runWorkQueue(ctx, newConfig(opts), "RunWorkQueue", tasks, workers, f)
}

// RunSquareQueue runs [RunWorkQueue] with [Square] as the task function.
// Tasks whose magnitude exceeds [MaxSquareInput] are rejected with
// [ErrInvalidArgument] before any worker starts.
func RunSquareQueue(ctx context.Context, tasks []int64, workers int, opts ...Option) ([]WorkerResult[int64], error) {
	if err := checkWorkers(workers); err != nil {
		return nil, err
	}
	if err := checkSquareInputs(tasks); err != nil {
		return nil, err
	}
	return runWorkQueue(ctx, newConfig(opts), "RunSquareQueue", tasks, workers, Square)
}

func runWorkQueue[T, R any](
	ctx context.Context,
	cfg *config,
	operation string,
	tasks []T,
	workers int,
	f func(T) R,
) ([]WorkerResult[R], error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ctx, batch := cfg.instruments().StartBatch(ctx, operation, len(tasks), workers)

	taskQueue := chanq.New[T]()
	resultQueue := chanq.New[WorkerResult[R]]()

	var (
		wg       sync.WaitGroup
		panicMu  sync.Mutex
		panicErr error
	)
	wg.Add(workers)
	for id := range workers {
		go func() {
			defer wg.Done()
			err := contain(func() {
				runWorker(ctx, batch, id, taskQueue, resultQueue, f)
			})
			if err != nil {
				batch.WorkerPanicked(id, err)
				panicMu.Lock()
				if panicErr == nil {
					panicErr = err
				}
				panicMu.Unlock()
			}
		}()
	}

	// The result queue closes only after every worker has exited, so a
	// receive that observes closure before all results have arrived means
	// some task's result was lost.
	done := make(chan struct{})
	go func() {
		wg.Wait()
		resultQueue.Close()
		close(done)
	}()

	collect := func() ([]WorkerResult[R], error) {
		// Always stop the workers and join them before returning, whatever
		// the outcome.
		defer func() {
			taskQueue.Close()
			<-done
		}()

		for _, task := range tasks {
			if err := taskQueue.Send(task); err != nil {
				return nil, fmt.Errorf("%w: sending task: %w", ErrChannelClosed, err)
			}
		}
		taskQueue.Close()

		results := make([]WorkerResult[R], 0, len(tasks))
		for len(results) < len(tasks) {
			r, err := resultQueue.Recv(ctx)
			if err != nil {
				if !errors.Is(err, chanq.ErrClosed) {
					return nil, err
				}
				// Wait for the final worker to record its panic, if any,
				// before classifying the failure.
				<-done
				panicMu.Lock()
				defer panicMu.Unlock()
				if panicErr != nil {
					return nil, panicErr
				}
				if err := ctx.Err(); err != nil {
					return nil, err
				}
				return nil, fmt.Errorf("%w: received %d of %d results, %d tasks never started",
					ErrChannelClosed, len(results), len(tasks), taskQueue.Len())
			}
			results = append(results, r)
		}
		return results, nil
	}

	results, err := collect()
	return results, batch.End(err)
}

// runWorker is the receive loop of a single worker. Closure of the task
// queue is the normal termination signal.
func runWorker[T, R any](
	ctx context.Context,
	batch *telemetry.Batch,
	id int,
	tasks *chanq.Queue[T],
	results *chanq.Queue[WorkerResult[R]],
	f func(T) R,
) {
	logger := batch.Logger().With(zap.Int("worker", id))
	logger.Debug("Worker started")
	processed := 0
	defer func() {
		logger.Debug("Worker exiting", zap.Int("processed", processed))
	}()

	for {
		task, err := tasks.Recv(ctx)
		if err != nil {
			// Either the queue is closed and drained or the batch was
			// canceled; both end the loop.
			return
		}
		if err := results.Send(WorkerResult[R]{Worker: id, Value: f(task)}); err != nil {
			// The result queue closes only after all workers exit, so this
			// cannot happen while the worker is running.
			panic("result queue closed while worker running")
		}
		processed++
	}
}
