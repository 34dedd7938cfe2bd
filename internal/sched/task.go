// internal/sched/task.go

package sched

import (
	"context"
	"math"
	"sync/atomic"
	"time"
)

// Func is the body of a task: a resumable computation that suspends every
// time it calls a method on the *H handed to it, and eventually returns a
// value or an error. It is the Go-native stand-in for the generator-style
// coroutines the source expresses tasks as (see the design notes on
// resumable computations).
type Func func(h *H) (any, error)

// Signal is the "I'm alive, resume me later" yield value — anything a task
// yields that isn't a *Timeout or a *Defer is treated as one of these.
// It carries an optional opaque payload for task-author bookkeeping; the
// scheduler itself never inspects it.
type Signal struct {
	Value any
}

// nextID is the process-wide monotonic task-identity counter. It wraps at
// the platform maximum back to zero (§3: "Identity is assigned from a
// monotonic counter that wraps at the platform maximum back to zero").
var nextID uint64

func allocID() uint64 {
	id := atomic.AddUint64(&nextID, 1)
	if id == math.MaxUint64 {
		atomic.StoreUint64(&nextID, 0)
	}
	return id
}

// Task is a resumable computation registered with a Scheduler: an identity,
// a step function, and the per-step flags the run loop needs (C1).
type Task struct {
	id    uint64
	fn    Func
	birth time.Time

	await   bool // true if an outer task is awaiting this one
	running bool // true only during the instant its step is executing

	started  bool
	terminal bool
	value    any
	err      error

	toTask   chan struct{}
	fromTask chan stepResult

	cancel context.CancelFunc
}

// stepResult is what a task's goroutine hands back to the scheduler at
// every suspension or at termination.
type stepResult struct {
	terminal bool
	yield    any
	value    any
	err      error
}

// newTask allocates a task record around fn, ready to be enqueued.
func newTask(fn Func) *Task {
	return &Task{
		id:    allocID(),
		fn:    fn,
		birth: time.Now(),
	}
}

// ID returns the task's identity. Unique among live tasks (§3, invariant 4).
func (t *Task) ID() uint64 { return t.id }

// Terminal reports whether the task has reached a terminal state (returned,
// failed, or timed out).
func (t *Task) Terminal() bool { return t.terminal }

// Value returns the task's return value. Only meaningful once Terminal is
// true and Err is nil.
func (t *Task) Value() any { return t.value }

// Err returns the task's terminal error, if any.
func (t *Task) Err() error { return t.err }

// Birth returns the instant the task record was created.
func (t *Task) Birth() time.Time { return t.birth }

// Cancel asks the task's cancellation context to fire. The task will not
// actually stop until it next checks h.Context().Err() or is otherwise
// stepped to completion — there is no preemption (§1 non-goals). This is
// the opt-in mechanism the redesign note in §9 asks for: plain Select does
// not call this on its own for losing tasks.
func (t *Task) Cancel() {
	if t.cancel != nil {
		t.cancel()
	}
}

// start launches the task's goroutine. It must be called at most once per
// task, the first time it is stepped.
func (t *Task) start(ctx context.Context, s *Scheduler) {
	t.toTask = make(chan struct{})
	t.fromTask = make(chan stepResult)
	h := &H{task: t, ctx: ctx, sched: s}
	t.started = true
	go func() {
		defer func() {
			if r := recover(); r != nil {
				t.fromTask <- stepResult{terminal: true, err: runtimef(nil, "task %d panicked: %v", t.id, r)}
			}
		}()
		value, err := t.fn(h)
		t.fromTask <- stepResult{terminal: true, value: value, err: err}
	}()
}

// resume hands control back to a started, suspended task and blocks until
// it yields or terminates again. It is the second and subsequent half of a
// "step" (the first half is start).
func (t *Task) resume() stepResult {
	t.toTask <- struct{}{}
	return <-t.fromTask
}
