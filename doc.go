// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

// Package parexec runs pure computations in parallel across a fixed number
// of goroutines and gives deterministic results back to a single caller.
//
// Four shapes of parallel work are supported:
//
//   - [ParallelMap] splits a slice into contiguous partitions (see
//     [Partitions]), maps each partition in its own goroutine and restores
//     input order when reassembling the results, no matter in which order
//     workers report them.
//   - [RunWorkQueue] starts a fixed pool of long-lived workers that consume a
//     shared task queue and report (worker, result) pairs in completion
//     order.
//   - [IsPrimeParallel] decomposes a single unit of work, a primality test,
//     by dividing its candidate divisors among goroutines that share one
//     atomic flag.
//   - [Counter] and [Ledger] are handles on a [SharedCell], a value that many
//     goroutines mutate under one exclusive lock.
//
// Every batch entry point validates its arguments before spawning anything,
// joins every goroutine it spawns before returning and treats any failure as
// fatal to the whole batch: no partial results are ever returned. Panics in
// caller-supplied functions are recovered and reported as [*PanicError]
// values wrapping [ErrWorkerPanicked].
//
// Entry points log through [go.uber.org/zap] and emit OpenTelemetry spans and
// counters; see [WithLogger], [WithTracerProvider] and [WithMeterProvider].
package parexec
