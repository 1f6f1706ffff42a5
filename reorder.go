// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package parexec

import (
	"cmp"

	"github.com/addrummond/heap"
)

// resultKey locates a result in the original input: the partition that
// produced it and its offset within that partition. Since partitions are
// contiguous and numbered in index order, ordering by (Partition, Offset)
// reproduces input order.
type resultKey struct {
	Partition int
	Offset    int
}

type taggedResult[O any] struct {
	Key   resultKey
	Value O
}

func (a *taggedResult[O]) Cmp(b *taggedResult[O]) int {
	if c := cmp.Compare(a.Key.Partition, b.Key.Partition); c != 0 {
		return c
	}
	return cmp.Compare(a.Key.Offset, b.Key.Offset)
}

// reorderBuffer accepts tagged results in arrival order and releases their
// values in key order.
type reorderBuffer[O any] struct {
	pending heap.Heap[taggedResult[O], heap.Min]
	count   int
}

func (b *reorderBuffer[O]) Push(r taggedResult[O]) {
	heap.PushOrderable(&b.pending, r)
	b.count++
}

func (b *reorderBuffer[O]) Len() int {
	return b.count
}

// Drain empties the buffer, returning the buffered values in key order.
func (b *reorderBuffer[O]) Drain() []O {
	out := make([]O, 0, b.count)
	for {
		r, ok := heap.PopOrderable(&b.pending)
		if !ok {
			break
		}
		out = append(out, r.Value)
	}
	b.count = 0
	return out
}
