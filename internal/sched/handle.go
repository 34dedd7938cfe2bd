// internal/sched/handle.go

package sched

import (
	"context"
	"time"
)

// H is the handle a running task's body receives. Every method that can
// suspend the task is a method on H; calling one is a suspension point in
// the sense of §5 ("anywhere a task yields").
//
// H holds a reference to the *Scheduler its task runs on, which Await,
// Spawn and Scheduler use; task bodies reach that scheduler through it.
type H struct {
	task  *Task
	ctx   context.Context
	sched *Scheduler
}

// Context returns the cancellation token tied to this task's lifetime. It
// is cancelled the instant the task terminates, and also if someone calls
// (*Task).Cancel on it from the outside (the §9 redesign addition for
// Select losers that want to opt in to cancellation).
func (h *H) Context() context.Context { return h.ctx }

// TaskID returns the identity of the task this handle belongs to.
func (h *H) TaskID() uint64 { return h.task.id }

// Yield suspends the task until the scheduler next resumes it. v is the
// yield value: a *Timeout, a *Defer, or anything else (treated as an
// opaque Signal — §3, "yield value").
func (h *H) Yield(v any) {
	h.task.fromTask <- stepResult{yield: v}
	<-h.task.toTask
}

// Sleep yields control repeatedly until at least seconds have elapsed
// since the call began. A non-positive duration returns immediately
// (§4.1: "sleep(s): ... a non-positive argument returns immediately").
func (h *H) Sleep(seconds float64) {
	if seconds <= 0 {
		return
	}
	deadline := time.Now().Add(time.Duration(seconds * float64(time.Second)))
	println("DEBUG Sleep enter task", h.task.id, seconds, "deadline", deadline.UnixNano())
	n := 0
	for time.Now().Before(deadline) {
		if n < 3 || n%200 == 0 {
			println("DEBUG Sleep loop task", h.task.id, "now", time.Now().UnixNano(), "n", n)
		}
		n++
		h.Yield(Signal{})
	}
	println("DEBUG Sleep exit task", h.task.id, "iterations", n)
}

// Timeout yields a fresh *Timeout built from seconds and returns it, so
// callers can both register a deadline and keep a reference to inspect it
// later (§4.1: "timeout(seconds) -> Timeout — value to yield").
func (h *H) Timeout(seconds float64) *Timeout {
	t := NewTimeout(seconds)
	h.Yield(t)
	return t
}

// Defer yields a *Defer wrapping fn and args, registering it as this
// task's cleanup action, and returns it (§4.1: "defer(closure, args...) ->
// Defer — value to yield").
func (h *H) Defer(fn DeferFunc, args ...any) *Defer {
	d := &Defer{fn: fn, args: args}
	h.Yield(d)
	return d
}

// Await suspends the calling task, yielding repeatedly, until child has
// reached a terminal state, then returns its value or its error exactly as
// the ResultHandle contract in §6 describes. The caller is responsible for
// having gotten child onto a queue first (normally via Spawn).
func (h *H) Await(child *Task) (any, error) {
	child.await = true
	for !child.terminal {
		h.Yield(Signal{})
	}
	return h.sched.collect(child)
}

// Spawn enqueues fn as a fresh fire-and-forget task on the same scheduler
// this handle belongs to, and returns its record.
func (h *H) Spawn(fn Func) *Task {
	return h.sched.Spawn(fn)
}

// Scheduler returns the scheduler this handle's task is running on.
func (h *H) Scheduler() *Scheduler { return h.sched }
