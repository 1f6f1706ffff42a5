// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package parexec

import (
	"fmt"
	"runtime"
)

// PanicError wraps a value recovered from a panicking worker together with
// the stack trace captured at the point of the panic. It unwraps to
// [ErrWorkerPanicked].
type PanicError struct {
	// Value is the original value passed to panic().
	Value any

	// Stack is the goroutine stack trace at the point of panic.
	Stack string
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("%s: %v\n\n%s", ErrWorkerPanicked, e.Value, e.Stack)
}

func (e *PanicError) Unwrap() error {
	return ErrWorkerPanicked
}

func newPanicError(v any) *PanicError {
	// runtime.Stack truncates if the buffer is too small, which is fine for
	// diagnostics.
	buf := make([]byte, 8192)
	n := runtime.Stack(buf, false)
	return &PanicError{
		Value: v,
		Stack: string(buf[:n]),
	}
}

// contain runs fn and converts a panic into a *PanicError. Since every worker
// runs as the top-level function of its own goroutine, an unrecovered panic
// would otherwise terminate the whole program.
func contain(fn func()) (err error) {
	defer func() {
		if v := recover(); v != nil {
			err = newPanicError(v)
		}
	}()
	fn()
	return nil
}
