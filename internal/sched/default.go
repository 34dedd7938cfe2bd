// internal/sched/default.go

package sched

import (
	"time"

	"github.com/weftrun/weft/internal/result"
)

// defaultScheduler is the process-wide convenience instance the §9 design
// note recommends: "(a) a single Scheduler value whose methods are the
// public API, with a process-wide default instance provided for
// convenience... is the closer semantic match and preserves call-site
// ergonomics." Every package-level function below just delegates to it.
var defaultScheduler = New(defaultConfig())

// Default returns the process-wide default Scheduler.
func Default() *Scheduler { return defaultScheduler }

// Spawn enqueues x on the default scheduler.
func Spawn(x Spawnable) *Task { return defaultScheduler.Spawn(x) }

// Join runs the default scheduler until every given task is terminal.
func Join(tasks ...*Task) { defaultScheduler.Join(tasks...) }

// Select runs the default scheduler until the first given task terminates.
func Select(tasks ...*Task) *Task { return defaultScheduler.Select(tasks...) }

// Run drains the default scheduler's queue.
func Run() { defaultScheduler.Run() }

// Repeat schedules factory on the default scheduler.
func Repeat(factory func() Func, interval time.Duration) *Repeater {
	return defaultScheduler.Repeat(factory, interval)
}

// Cleanup tears down the default scheduler.
func Cleanup() { defaultScheduler.Cleanup() }

// Await wraps x in a *result.Result on the default scheduler. This is the
// top-level ("not inside a task body") flavor of await; from inside a task
// body, use (*H).Await on a task obtained from Spawn.
func Await(x Spawnable) *result.Result { return defaultScheduler.Await(x) }
