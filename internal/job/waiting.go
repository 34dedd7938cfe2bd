// internal/job/waiting.go

package job

import (
	"fmt"

	"github.com/weftrun/weft/internal/sched"
)

// SleepWork returns a task body that cooperatively sleeps for seconds and
// then returns result. Adapted from the teacher's SleepWork: same "demo
// work that just waits" role, but expressed as a sched.Func driven by
// h.Sleep instead of a context.Context-cancellable time.After select.
func SleepWork(seconds float64, result any) sched.Func {
	return func(h *sched.H) (any, error) {
		h.Sleep(seconds)
		return result, nil
	}
}

// SleepAndPrint sleeps for seconds, printing start/done lines tagged with
// name, and registers a deferred action that prints "Deferred <name>" when
// the task ends — the shape S2 in the design's scenario list exercises (two
// sleepers interleaving their start/done prints, each with its own
// deferred cleanup).
func SleepAndPrint(name string, seconds float64) sched.Func {
	return func(h *sched.H) (any, error) {
		h.Defer(func(args ...any) (any, error) {
			fmt.Printf("Deferred %s\n", args[0])
			return nil, nil
		}, name)
		fmt.Printf("Start %s\n", name)
		h.Sleep(seconds)
		fmt.Printf("Task %s done\n", name)
		return nil, nil
	}
}

// FailingWork returns a task body that always fails with err, useful for
// exercising retry/timeout/cleanup paths in tests and demos.
func FailingWork(err error) sched.Func {
	return func(h *sched.H) (any, error) {
		return nil, err
	}
}
