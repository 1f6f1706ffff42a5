// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package parexec

import "fmt"

// A Partition is the half-open index range [Start, End) of an input sequence
// assigned to a single worker. Index is the partition's position among its
// siblings and serves as the primary key when results are put back in order.
type Partition struct {
	Index int
	Start int
	End   int
}

// Len returns the number of items in the partition.
func (p Partition) Len() int {
	return p.End - p.Start
}

// Empty reports whether the partition covers no items. Empty partitions are
// valid and are skipped without spawning a worker.
func (p Partition) Empty() bool {
	return p.End <= p.Start
}

// Partitions splits [0, n) into exactly workers contiguous, non-overlapping
// ranges in index order. Sizes differ by at most one, with the larger
// partitions first, so a partition is empty only when workers > n. The
// result depends only on n and workers.
func Partitions(n, workers int) ([]Partition, error) {
	if err := checkWorkers(workers); err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, fmt.Errorf("%w: input length %d is negative", ErrInvalidArgument, n)
	}

	base, extra := n/workers, n%workers
	parts := make([]Partition, workers)
	start := 0
	for i := range parts {
		size := base
		if i < extra {
			size++
		}
		parts[i] = Partition{
			Index: i,
			Start: start,
			End:   start + size,
		}
		start += size
	}
	return parts, nil
}
