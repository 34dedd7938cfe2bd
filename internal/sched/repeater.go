// internal/sched/repeater.go

package sched

import "time"

// Repeater holds a task factory, a firing interval, and the last time it
// fired (§3, §4.5). Fireable and ResetTime are exposed as pure bookkeeping
// so that tests and callers can reason about a repeater without reaching
// into the scheduler; the actual firing is driven by the scheduler-owned
// task returned from (*Scheduler).Repeat, which polls Fireable on every
// step of its own body.
type Repeater struct {
	factory  func() Func
	interval time.Duration
	lastFire time.Time

	task *Task // the never-terminating task that drives this repeater
}

// Fireable reports whether the repeater is due: interval > 0 and at least
// interval has elapsed since the last fire (§4.5).
func (r *Repeater) Fireable() bool {
	if r.interval <= 0 {
		return false
	}
	return time.Since(r.lastFire) >= r.interval
}

// ResetTime sets last-fire to now.
func (r *Repeater) ResetTime() {
	r.lastFire = time.Now()
}

// Stop cancels the repeater's driving task, so it stops spawning new work.
// Already-spawned tasks are unaffected.
func (r *Repeater) Stop() {
	r.task.Cancel()
}
