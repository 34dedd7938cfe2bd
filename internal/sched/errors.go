// internal/sched/errors.go

package sched

import (
	"errors"
	"fmt"
)

// Sentinel errors forming the taxonomy from the design's error section.
// They are meant to be matched with errors.Is against whatever a task,
// retry, or the watchdog wraps them in.
var (
	// ErrInvalidArgument means the caller gave the scheduler a nonsensical
	// input: a negative pacing limit, a spawn argument that isn't a task
	// or task factory, a non-positive retry count, and so on.
	ErrInvalidArgument = errors.New("sched: invalid argument")

	// ErrTimeout means a task's registered deadline expired before it
	// reached a terminal state.
	ErrTimeout = errors.New("sched: timeout")

	// ErrRuntime wraps any other task failure, including panics recovered
	// from a task body and the final error raised by an exhausted retry.
	ErrRuntime = errors.New("sched: runtime error")

	// ErrResourceExhausted means the memory watchdog tripped.
	ErrResourceExhausted = errors.New("sched: resource exhausted")
)

// invalidArgf builds an ErrInvalidArgument-wrapping error with a formatted
// message, the shape every other constructor in this package uses for its
// sentinel wraps.
func invalidArgf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

func timeoutf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrTimeout, fmt.Sprintf(format, args...))
}

func runtimef(cause error, format string, args ...any) error {
	if cause == nil {
		return fmt.Errorf("%w: %s", ErrRuntime, fmt.Sprintf(format, args...))
	}
	// Go 1.20+ allows more than one %w verb, chaining both ErrRuntime and
	// the underlying cause into the same errors.Is/As-walkable tree.
	return fmt.Errorf("%w: %s: %w", ErrRuntime, fmt.Sprintf(format, args...), cause)
}

func resourceExhaustedf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrResourceExhausted, fmt.Sprintf(format, args...))
}
