// internal/sched/scheduler.go

package sched

import (
	"context"
	"time"

	"github.com/weftrun/weft/internal/result"
)

// Scheduler is the run loop: spawn/join/select/await/repeat, pacing, and
// cleanup (C8). Adapted from the teacher's mini-CFS Scheduler — same
// shape (a struct owning a queue of task records, a run loop method, a
// status-event stream, pacing fields) — but the dispatch discipline is
// strict FIFO instead of vruntime-ordered, and "running" a task means one
// cooperative step instead of a whole OS-thread time slice.
//
// Per §5, Q, the running set, and the side-tables are single-threaded:
// exactly one goroutine is ever "logically active" at a time (either the
// scheduler's own call stack, or the body of the task currently being
// stepped, handed off via an unbuffered channel pair) — so, like the
// spec's source, no locking is needed here.
type Scheduler struct {
	cfg Config

	queue *taskQueue
	regs  *registries

	running []*Task // the current tick's running set, size <= cfg.MaxConcurrentTasks

	watchdog *Watchdog
	tracer   Tracer

	rootCtx context.Context

	stepsThisRun int
}

// New builds a Scheduler from cfg.
func New(cfg Config) *Scheduler {
	s := &Scheduler{
		cfg:     cfg,
		queue:   newTaskQueue(),
		regs:    newRegistries(),
		rootCtx: context.Background(),
	}
	if cfg.SoftMemoryLimitMB > 0 {
		s.watchdog = NewWatchdog(cfg.SoftMemoryLimitMB, cfg.MemoryCheckInterval)
		s.watchdog.Init()
	}
	if cfg.EnableLogging {
		s.tracer = NewLogTracer()
	} else {
		s.tracer = NopTracer{}
	}
	return s
}

// SetTracer overrides the default tracer (a NopTracer or LogTracer chosen
// from Config.EnableLogging at construction time).
func (s *Scheduler) SetTracer(t Tracer) {
	if t == nil {
		t = NopTracer{}
	}
	s.tracer = t
}

func (s *Scheduler) trace(kind EventKind, id uint64, detail string) {
	s.tracer.Trace(Event{Time: time.Now(), Kind: kind, TaskID: id, Detail: detail})
}

// --- pacing setters (§6) ---

// SetMaximumPeriod sets M, the number of steps a single Run/Join/Select
// call executes before returning when the maximum-period pacing limit is
// enabled.
func (s *Scheduler) SetMaximumPeriod(n int) error {
	if n <= 0 {
		return invalidArgf("maximum period must be positive, got %d", n)
	}
	s.cfg.MaximumPeriod = n
	return nil
}

// SetEnableMaximumPeriod turns the maximum-period pacing limit on or off.
func (s *Scheduler) SetEnableMaximumPeriod(b bool) { s.cfg.EnableMaximumPeriod = b }

// SetMaxConcurrentTasks sets K, the running-set size cap.
func (s *Scheduler) SetMaxConcurrentTasks(n int) error {
	if n <= 0 {
		return invalidArgf("max concurrent tasks must be positive, got %d", n)
	}
	s.cfg.MaxConcurrentTasks = n
	return nil
}

// SetEnableLogging turns event tracing on (a *LogTracer) or off (a
// NopTracer). Call SetTracer instead if you want a specific sink (e.g. a
// *CSVTracer) regardless of this flag.
func (s *Scheduler) SetEnableLogging(b bool) {
	s.cfg.EnableLogging = b
	if b {
		s.tracer = NewLogTracer()
	} else {
		s.tracer = NopTracer{}
	}
}

// SetWatchdog installs w as the memory watchdog consulted before every
// outer run-loop iteration. Pass nil to disable watchdog checks entirely.
func (s *Scheduler) SetWatchdog(w *Watchdog) { s.watchdog = w }

// --- spawn / coercion ---

// Spawnable is anything Spawn will accept: a ready-to-run Func, an
// already-built *Task, or a zero-argument factory that produces a Func —
// the Go-native reading of §4.1's "coerce x to a task (if it is a closure,
// invoke it and require the returned value be a resumable computation)".
type Spawnable any

// Spawn coerces x into a *Task and enqueues it (§4.1, §6). Accepted shapes:
// a Func, an already-built *Task (enqueued only if it is not already queued,
// started, or terminal), or a func() Func factory (invoked once,
// immediately, and the Func it returns is what actually runs).
func (s *Scheduler) Spawn(x Spawnable) *Task {
	t, err := s.coerce(x)
	if err != nil {
		// A construction-time error has nowhere else to go from a
		// fire-and-forget Spawn; manifest it as an already-terminal,
		// already-failed task so callers inspecting the result still see it.
		t = newTask(nil)
		t.terminal = true
		t.err = err
		return t
	}
	if _, ok := x.(*Task); ok {
		s.enqueueIfNew(t)
		return t
	}
	s.enqueueNew(t)
	return t
}

func (s *Scheduler) coerce(x Spawnable) (*Task, error) {
	switch v := x.(type) {
	case *Task:
		return v, nil
	case Func:
		return newTask(v), nil
	case func(*H) (any, error):
		return newTask(Func(v)), nil
	case func() Func:
		fn := v()
		if fn == nil {
			return nil, invalidArgf("spawn factory returned a nil resumable computation")
		}
		return newTask(fn), nil
	default:
		return nil, invalidArgf("spawn requires a Func, *Task, or func() Func, got %T", x)
	}
}

func (s *Scheduler) enqueueNew(t *Task) {
	s.queue.enqueue(t)
	s.trace(EventSpawn, t.id, "")
}

// enqueueIfNew enqueues t only if it hasn't started yet and is not already
// in Q or the running set, so Join/Select can be handed tasks that a caller
// already Spawned without double-queuing them.
func (s *Scheduler) enqueueIfNew(t *Task) {
	if t.started || t.terminal {
		return
	}
	for _, r := range s.running {
		if r == t {
			return
		}
	}
	for _, v := range s.queue.q.Values() {
		if v.(*Task) == t {
			return
		}
	}
	s.queue.enqueue(t)
}

// --- stepping ---

// step performs one step of t, per §4.1's "step semantics": start or
// resume it, interpret what it yields, register a timeout/defer if that's
// what it yielded, check for an already-expired timeout, and either
// re-enqueue t or run its cleanup.
func (s *Scheduler) step(t *Task) {
	println("DEBUG step task", t.id, "started", t.started)
	t.running = true

	var res stepResult
	if !t.started {
		ctx, cancel := context.WithCancel(s.rootCtx)
		t.cancel = cancel
		t.start(ctx, s)
		res = <-t.fromTask
	} else {
		res = t.resume()
	}

	t.running = false
	s.trace(EventStep, t.id, "")

	if res.terminal {
		s.terminate(t, res.value, res.err)
		return
	}

	switch y := res.yield.(type) {
	case *Timeout:
		s.regs.setTimeout(t.id, y)
	case *Defer:
		s.regs.setDefer(t.id, y)
	default:
		// opaque alive signal, ignored
	}

	if to, ok := s.regs.getTimeout(t.id); ok && to.Expired() {
		s.trace(EventTimeout, t.id, "")
		s.terminate(t, nil, timeoutf("task %d exceeded its deadline", t.id))
		return
	}

	s.queue.enqueue(t)
}

// terminate runs the cleanup protocol for t (§4.1) and records its
// terminal value/error.
func (s *Scheduler) terminate(t *Task, value any, err error) {
	println("DEBUG terminate task", t.id)
	if t.cancel != nil {
		t.cancel()
	}

	if d, ok := s.regs.getDefer(t.id); ok {
		s.trace(EventDeferRun, t.id, "")
		if _, derr := d.run(s); derr != nil && err == nil {
			// A defer that fails during a clean return surfaces its own
			// error, since the task's own outcome was otherwise fine.
			err = runtimef(derr, "deferred action for task %d failed", t.id)
		}
		s.regs.clearDefer(t.id)
	}
	s.regs.clearTimeout(t.id)

	t.terminal = true
	t.value, t.err = value, err

	if err != nil {
		if t.await {
			s.regs.setError(t.id, err)
		} else if s.cfg.EnableLogging {
			s.trace(EventCleanup, t.id, fmtDetail("dropped unawaited error: %v", err))
		}
	}
	s.trace(EventCleanup, t.id, "")
}

// driveSync runs fn to completion on the current goroutine's behalf,
// ignoring every yield it produces along the way (§4.4: a deferred
// action's own sub-yields "may not delay other tasks" and are driven
// "synchronously to completion"). It does this by stepping a throwaway
// task as fast as the channel handoff allows, never putting it on Q.
func (s *Scheduler) driveSync(fn Func) (any, error) {
	t := newTask(fn)
	ctx, cancel := context.WithCancel(s.rootCtx)
	defer cancel()
	t.cancel = cancel
	t.start(ctx, s)
	res := <-t.fromTask
	for !res.terminal {
		res = t.resume()
	}
	return res.value, res.err
}

// collect reads a terminated task's outcome, consuming its registry error
// entry exactly once (§3, invariant 2; §6, ResultHandle contract).
func (s *Scheduler) collect(t *Task) (any, error) {
	if err, ok := s.regs.takeError(t.id); ok {
		return nil, err
	}
	return t.value, t.err
}

// --- run loop ---

// runUntil drives the shared queue and running set until stop reports
// true, the watchdog trips, or (if enabled) the maximum-period pacing
// limit is reached. It is re-entrant: a nested call (e.g. from inside a
// deferred action) gets its own step budget and restores the outer call's
// budget on return.
func (s *Scheduler) runUntil(stop func() bool) {
	savedSteps := s.stepsThisRun
	s.stepsThisRun = 0
	defer func() { s.stepsThisRun = savedSteps }()

	idle := s.cfg.idlePollInterval()

	for {
		if stop() {
			return
		}
		if s.watchdog != nil && !s.watchdog.CheckMemoryUsage() {
			s.trace(EventWatchdogTrip, 0, "")
			return
		}

		// Fill the running set first, draining Q until full or empty.
		for len(s.running) < s.cfg.MaxConcurrentTasks {
			t, ok := s.queue.dequeue()
			if !ok {
				break
			}
			s.running = append(s.running, t)
		}
		if len(s.running) == 0 {
			// Q and the running set are both empty but stop has not
			// fired: the tasks stop is waiting on are not on this
			// scheduler's queue (for example, an outer re-entrant call is
			// holding them). Back off briefly instead of busy-spinning the
			// scheduler goroutine.
			if idle > 0 {
				time.Sleep(idle)
			}
			continue
		}

		// Step each member of the running set once, in insertion order.
		// Each task is popped from the head just before its step, so the
		// members that haven't had their turn yet stay in s.running: stop
		// sees them, and an early return leaves them for the next call
		// instead of dropping them or re-dequeuing them out of order.
		for n := len(s.running); n > 0 && len(s.running) > 0; n-- {
			t := s.running[0]
			s.running = s.running[1:]
			s.step(t)
			s.stepsThisRun++
			if s.watchdog != nil {
				s.watchdog.CollectGarbage()
			}
			if stop() {
				return
			}
			if s.cfg.EnableMaximumPeriod && s.stepsThisRun >= s.cfg.MaximumPeriod {
				return
			}
		}
	}
}

// Run drives the loop until Q and the running set are both empty, or
// pacing/the watchdog cuts it short (§4.1, "run until queue empty").
func (s *Scheduler) Run() {
	s.runUntil(func() bool { return s.queue.size() == 0 && len(s.running) == 0 })
}

// Join enqueues every task not already started, then runs until all of
// them are terminal (§4.1, §6). Tasks any of them spawn along the way are
// driven by the same shared queue, so they're awaited too.
func (s *Scheduler) Join(tasks ...*Task) {
	for _, t := range tasks {
		s.enqueueIfNew(t)
	}
	s.runUntil(func() bool {
		for _, t := range tasks {
			if !t.terminal {
				return false
			}
		}
		return true
	})
}

// Select enqueues every task not already started, then runs until the
// first of them terminates, and returns it. The rest are left exactly as
// they were — still on Q, still runnable by a later Run/Join/Select call —
// because this design's core does not cancel Select's losers (§5); callers
// that want that must call (*Task).Cancel on them explicitly.
func (s *Scheduler) Select(tasks ...*Task) *Task {
	for _, t := range tasks {
		s.enqueueIfNew(t)
	}
	var winner *Task
	s.runUntil(func() bool {
		for _, t := range tasks {
			if t.terminal {
				winner = t
				return true
			}
		}
		return false
	})
	if winner != nil {
		s.trace(EventSelectWinner, winner.id, "")
	}
	return winner
}

// Repeat enqueues a repeater record (§3, §4.5): a task-factory and an
// interval. Internally, the repeater is itself a never-terminating task
// that checks Fireable on every step of its own body and, when due, spawns
// a fresh task from factory and resets its clock — this reuses the
// ordinary queue/step machinery instead of special-casing repeaters inside
// the run loop, while producing the exact externally observable behavior
// §4.1 describes.
func (s *Scheduler) Repeat(factory func() Func, interval time.Duration) *Repeater {
	r := &Repeater{factory: factory, interval: interval, lastFire: time.Now()}
	r.task = s.Spawn(Func(func(h *H) (any, error) {
		for {
			select {
			case <-h.Context().Done():
				return nil, nil
			default:
			}
			if r.Fireable() {
				s.trace(EventRepeaterFire, r.task.id, "")
				s.Spawn(r.factory())
				r.ResetTime()
			}
			h.Yield(Signal{})
		}
	}))
	return r
}

// Await coerces x (a Func, a *Task, or a func() Func factory) into a task,
// marks it awaited, and returns a *result.Result (§6's ResultHandle) that
// will drive it to completion the first time its value is actually asked
// for (§6: "Constructed from a task id and a lazy driver").
//
// This is the top-level flavor, for use outside any task body. From
// inside a task body, prefer (*H).Await, which suspends the calling task
// cooperatively instead of driving a nested run loop.
func (s *Scheduler) Await(x Spawnable) *result.Result {
	return s.AwaitTask(s.Spawn(x))
}

// AwaitTask wraps an existing task (already spawned or not) in a
// *result.Result that joins it on first use.
func (s *Scheduler) AwaitTask(t *Task) *result.Result {
	t.await = true
	s.enqueueIfNew(t)
	return result.Pending(func() (any, error) {
		s.Join(t)
		return s.collect(t)
	})
}

// Timeout builds a Timeout value to yield (§4.1, §6). It does not register
// anything by itself — registration happens when the value returned here
// is actually yielded from a task body.
func (s *Scheduler) Timeout(seconds float64) *Timeout { return NewTimeout(seconds) }

// Defer builds a Defer value to yield (§4.1, §6); same non-side-effecting
// contract as Timeout.
func (s *Scheduler) Defer(fn DeferFunc, args ...any) *Defer {
	return &Defer{fn: fn, args: args}
}

// Cleanup empties Q and the side-tables and forces a GC cycle (§6, L1).
// Idempotent: calling it twice in a row is indistinguishable from calling
// it once, since there's nothing left to clear the second time.
func (s *Scheduler) Cleanup() {
	s.queue.clear()
	s.regs.clear()
	s.running = nil
	if s.watchdog != nil {
		s.watchdog.ForceGarbageCollection()
	} else {
		NewWatchdog(0, 1).ForceGarbageCollection()
	}
}
