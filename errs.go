// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package parexec

type constError string

func (e constError) Error() string {
	return string(e)
}

// ErrInvalidArgument reports a caller-supplied precondition violation, such
// as a worker count below one. It is always returned before any goroutine is
// spawned.
const ErrInvalidArgument = constError("invalid argument")

// ErrWorkerPanicked reports that a worker goroutine terminated abnormally.
// The batch it belonged to is abandoned and no partial results are returned.
// Errors wrapping it are usually a [*PanicError].
const ErrWorkerPanicked = constError("worker panicked")

// ErrChannelClosed reports that a result stream ended before every expected
// result was delivered.
const ErrChannelClosed = constError("channel closed unexpectedly")

// ErrLockPoisoned reports that a [SharedCell] was left in an inconsistent
// state by an update that panicked while holding its lock.
const ErrLockPoisoned = constError("lock poisoned")
