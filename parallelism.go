// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package parexec

import "runtime"

// FallbackParallelism is the worker count used when the host does not report
// a usable degree of hardware parallelism.
const FallbackParallelism = 4

// DefaultParallelism reports the number of goroutines that can execute
// simultaneously on this host, or [FallbackParallelism] if that cannot be
// determined. It is queried on every call and never cached.
func DefaultParallelism() int {
	return parallelismOrFallback(runtime.GOMAXPROCS(0))
}

func parallelismOrFallback(n int) int {
	if n < 1 {
		return FallbackParallelism
	}
	return n
}
