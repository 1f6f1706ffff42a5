// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package parexec

// Counter is a thread-safe integer counter. Copies of a Counter share the
// same underlying value, so a Counter may be passed by value to any number of
// goroutines. The zero value is not usable; create counters with
// [NewCounter].
type Counter struct {
	cell *SharedCell[int64]
}

// NewCounter returns a counter starting at initial.
func NewCounter(initial int64) Counter {
	return Counter{cell: NewSharedCell(initial)}
}

// Increment atomically adds one to the counter.
func (c Counter) Increment() error {
	return c.Add(1)
}

// Add atomically adds delta to the counter.
func (c Counter) Add(delta int64) error {
	return c.cell.Update(func(v *int64) {
		*v += delta
	})
}

// Get returns the current count.
func (c Counter) Get() (int64, error) {
	return c.cell.Load()
}
