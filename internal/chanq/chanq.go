// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

// Package chanq provides an unbounded, closable FIFO queue that any number of
// goroutines may send to and receive from concurrently. It plays the role of
// a channel whose sends never block.
package chanq

import (
	"context"
	"sync"

	"github.com/gammazero/deque"
)

type constError string

func (e constError) Error() string {
	return string(e)
}

// ErrClosed is returned by [Queue.Send] after [Queue.Close], and by
// [Queue.Recv] once the queue is both closed and drained.
const ErrClosed = constError("queue closed")

// Queue is a thread-safe FIFO queue. Each item sent is received by exactly
// one receiver, and items from a single sender are received in the order
// they were sent. The zero value is ready to use.
type Queue[T any] struct {
	mu     sync.Mutex
	cond   *sync.Cond
	items  deque.Deque[T]
	closed bool
}

// New returns an empty queue.
func New[T any]() *Queue[T] {
	return &Queue[T]{}
}

// lock acquires the mutex and lazily binds the condition variable to it so
// that the zero value of Queue is usable.
func (q *Queue[T]) lock() {
	q.mu.Lock()
	if q.cond == nil {
		q.cond = sync.NewCond(&q.mu)
	}
}

// Send appends item to the back of the queue. It never blocks on receivers.
func (q *Queue[T]) Send(item T) error {
	q.lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrClosed
	}
	q.items.PushBack(item)
	// Wake every waiter: one woken by Signal alone might be returning a
	// context error and would swallow the wakeup.
	q.cond.Broadcast()
	return nil
}

// Close prevents further sends. Items already in the queue remain available
// to receivers. Calling Close more than once has no additional effect.
func (q *Queue[T]) Close() {
	q.lock()
	defer q.mu.Unlock()
	if !q.closed {
		q.closed = true
		q.cond.Broadcast()
	}
}

// Recv removes and returns the item at the front of the queue, blocking while
// the queue is empty and open. It returns [ErrClosed] once the queue is
// closed and empty. A canceled context takes precedence over waiting items,
// so a receiver stops consuming as soon as its context is done.
func (q *Queue[T]) Recv(ctx context.Context) (T, error) {
	var zero T

	// Wake this receiver if the context is canceled while it waits. Taking
	// the lock before broadcasting guarantees the wakeup cannot slip in
	// between the context check and cond.Wait below.
	stop := context.AfterFunc(ctx, func() {
		q.lock()
		defer q.mu.Unlock()
		q.cond.Broadcast()
	})
	defer stop()

	q.lock()
	defer q.mu.Unlock()
	for {
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		if q.items.Len() > 0 {
			return q.items.PopFront(), nil
		}
		if q.closed {
			return zero, ErrClosed
		}
		q.cond.Wait()
	}
}

// Len returns the number of items waiting in the queue.
func (q *Queue[T]) Len() int {
	q.lock()
	defer q.mu.Unlock()
	return q.items.Len()
}
