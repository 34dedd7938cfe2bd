// cmd/weftdemo/main.go

package main

import (
	"fmt"

	"github.com/weftrun/weft/internal/job"
	"github.com/weftrun/weft/internal/sched"
)

func main() {
	cfg := sched.LoadConfig("config.yml")
	fmt.Printf("Loaded config: %+v\n", cfg)

	s := sched.New(cfg)

	// S1 — await returns a value.
	main1 := s.Spawn(func(h *sched.H) (any, error) {
		work := h.Spawn(job.SleepWork(0.2, "Work result"))
		value, err := h.Await(work)
		if err != nil {
			return nil, err
		}
		fmt.Println("main saw:", value)
		return nil, nil
	})
	s.Join(main1)

	// S2 — join interleaves two sleepers, each with its own deferred cleanup.
	taskA := s.Spawn(job.SleepAndPrint("A", 0.1))
	taskB := s.Spawn(job.SleepAndPrint("B", 0.1))
	s.Join(taskA, taskB)

	// S4 — a timeout fires before the sleep it guards finishes.
	guarded := s.Spawn(func(h *sched.H) (any, error) {
		h.Defer(func(args ...any) (any, error) {
			fmt.Println("Deferred cleanup ran before timeout teardown")
			return nil, nil
		})
		h.Timeout(0.05)
		h.Sleep(1)
		return "too slow", nil
	})
	s.Join(guarded)
	fmt.Printf("guarded task terminal=%v err=%v\n", guarded.Terminal(), guarded.Err())
}
