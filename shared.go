// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package parexec

import "sync"

// A SharedCell holds a single value that may be read and modified by many
// goroutines. Every operation is serialized by one exclusive lock, so no
// goroutine ever observes a partially applied update.
//
// If an update function panics, the cell is marked poisoned before its lock
// is released and the panic continues to unwind into the caller. All later
// operations fail with [ErrLockPoisoned] rather than expose a value that may
// be inconsistent.
//
// A SharedCell must not be copied after first use. Share it by pointer.
type SharedCell[T any] struct {
	mu       sync.Mutex
	value    T
	poisoned bool
}

// NewSharedCell returns a cell holding v.
func NewSharedCell[T any](v T) *SharedCell[T] {
	return &SharedCell[T]{value: v}
}

// Load returns the current value.
func (c *SharedCell[T]) Load() (T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.poisoned {
		var zero T
		return zero, ErrLockPoisoned
	}
	return c.value, nil
}

// Update calls fn with a pointer to the value while holding the lock. The
// read and the write performed by fn form one atomic step with respect to
// every other operation on the cell. fn must not retain the pointer or call
// back into the cell.
func (c *SharedCell[T]) Update(fn func(*T)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.poisoned {
		return ErrLockPoisoned
	}

	// Deferred functions run in reverse order, so the poisoned flag is set
	// before the lock is released.
	completed := false
	defer func() {
		if !completed {
			c.poisoned = true
		}
	}()
	fn(&c.value)
	completed = true
	return nil
}

// Poisoned reports whether an update has panicked while holding the lock.
func (c *SharedCell[T]) Poisoned() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.poisoned
}
