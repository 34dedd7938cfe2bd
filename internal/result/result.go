// internal/result/result.go

package result

import "fmt"

// WaitFunc drives whatever a Result is pending on to completion and
// returns its outcome. A Result built with Pending calls this at most
// once, the first time any of its accessor methods is used — the "lazy
// driver" the collaborator contract in spec §6 calls for.
type WaitFunc func() (any, error)

// Result adapts a completed (or not-yet-driven) task's return value and
// error into the unwrap/unwrap-or/expect surface §6 and §7 describe for
// ResultHandle (C9). It is a thin collaborator: the scheduler constructs
// one around a task's id and either its already-known outcome or a
// WaitFunc that will produce one.
type Result struct {
	wait WaitFunc

	resolved bool
	value    any
	err      error
}

// New wraps an already-resolved value/error pair — used once the
// scheduler has already driven the underlying task to completion.
func New(value any, err error) *Result {
	return &Result{resolved: true, value: value, err: err}
}

// Pending wraps a WaitFunc that will be called exactly once, the first
// time this Result's outcome is actually needed.
func Pending(wait WaitFunc) *Result {
	return &Result{wait: wait}
}

func (r *Result) resolve() {
	if r.resolved {
		return
	}
	r.value, r.err = r.wait()
	r.resolved = true
}

// Unwrap returns the underlying value and error, driving the wait function
// if this Result hasn't resolved yet. A caller observes the original
// error exactly as the task raised it (§7: "A caller who uses
// await(...).unwrap() on a failed task observes the original error").
func (r *Result) Unwrap() (any, error) {
	r.resolve()
	return r.value, r.err
}

// UnwrapOr returns the value, or def if the task failed (§7).
func (r *Result) UnwrapOr(def any) any {
	r.resolve()
	if r.err != nil {
		return def
	}
	return r.value
}

// Expect returns the value, or panics with an error whose message carries
// msg and which wraps the original cause if the task failed. The panic
// value does not wrap sched.ErrRuntime: errors.Is against ErrRuntime holds
// only when the cause itself wraps it. Panicking (rather than returning
// the error) is an explicit choice recorded in DESIGN.md: it matches the ergonomic
// "unwrap-or-die" shape that "expect" has in every ecosystem that offers
// it, and keeps call sites that have already decided a failure here is
// unrecoverable from having to re-check an error they know is fatal.
func (r *Result) Expect(msg string) any {
	r.resolve()
	if r.err != nil {
		panic(fmt.Errorf("result: %s: %w", msg, r.err))
	}
	return r.value
}

// MustUnwrap returns the value, panicking if the task failed. A Go-idiomatic
// convenience for callers that have already checked Unwrap's error is nil
// on some earlier code path (mirrors the "must"-prefixed panic-on-error
// helpers common in the pack, e.g. go-sup's panic("todo")/panic("usage")
// fail-fast style).
func (r *Result) MustUnwrap() any {
	r.resolve()
	if r.err != nil {
		panic(r.err)
	}
	return r.value
}

// Done reports whether this Result has been resolved yet, without forcing
// resolution.
func (r *Result) Done() bool { return r.resolved }
