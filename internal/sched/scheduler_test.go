// internal/sched/scheduler_test.go

package sched

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAwaitReturnsValue(t *testing.T) {
	s := New(defaultConfig())

	main := s.Spawn(Func(func(h *H) (any, error) {
		work := h.Spawn(func(h *H) (any, error) {
			h.Sleep(0.05)
			return "Work result", nil
		})
		return h.Await(work)
	}))
	s.Join(main)

	require.True(t, main.Terminal())
	require.NoError(t, main.Err())
	assert.Equal(t, "Work result", main.Value())
}

func TestJoinInterleavesTwoSleepers(t *testing.T) {
	s := New(defaultConfig())

	var mu sync.Mutex
	var events []string
	record := func(line string) {
		mu.Lock()
		events = append(events, line)
		mu.Unlock()
	}

	makeSleeper := func(name string, seconds float64) Func {
		return func(h *H) (any, error) {
			h.Defer(func(args ...any) (any, error) {
				record("deferred " + name)
				return nil, nil
			})
			record("start " + name)
			h.Sleep(seconds)
			record("done " + name)
			return nil, nil
		}
	}

	start := time.Now()
	a := s.Spawn(makeSleeper("A", 0.05))
	b := s.Spawn(makeSleeper("B", 0.05))
	s.Join(a, b)
	elapsed := time.Since(start)

	require.Len(t, events, 6)
	startIdx := map[string]int{}
	doneIdx := map[string]int{}
	deferIdx := map[string]int{}
	for i, e := range events {
		switch e {
		case "start A", "start B":
			startIdx[e] = i
		case "done A", "done B":
			doneIdx[e] = i
		case "deferred A", "deferred B":
			deferIdx[e] = i
		}
	}
	// Both starts happen before either done.
	assert.Less(t, startIdx["start A"], doneIdx["done A"])
	assert.Less(t, startIdx["start A"], doneIdx["done B"])
	assert.Less(t, startIdx["start B"], doneIdx["done A"])
	assert.Less(t, startIdx["start B"], doneIdx["done B"])
	maxDone := doneIdx["done A"]
	if doneIdx["done B"] > maxDone {
		maxDone = doneIdx["done B"]
	}
	assert.Greater(t, deferIdx["deferred A"], maxDone-1)
	assert.Greater(t, deferIdx["deferred B"], maxDone-1)

	// Roughly 0.05s elapsed, not 0.10s: the two sleepers overlapped.
	assert.Less(t, elapsed, 150*time.Millisecond)
}

func TestSelectReturnsOnFirst(t *testing.T) {
	s := New(defaultConfig())

	fast := s.Spawn(Func(func(h *H) (any, error) {
		h.Sleep(0.02)
		return "fast", nil
	}))
	slow := s.Spawn(Func(func(h *H) (any, error) {
		h.Sleep(0.2)
		return "slow", nil
	}))

	winner := s.Select(fast, slow)
	require.Equal(t, fast, winner)
	assert.False(t, slow.Terminal(), "the loser must remain queued, not cancelled")

	// A follow-up Join drains the remaining task.
	s.Join(slow)
	assert.True(t, slow.Terminal())
	assert.Equal(t, "slow", slow.Value())
}

func TestTimeoutFires(t *testing.T) {
	s := New(defaultConfig())

	var deferRan bool
	task := s.Spawn(Func(func(h *H) (any, error) {
		h.Defer(func(args ...any) (any, error) {
			deferRan = true
			return nil, nil
		})
		h.Timeout(0.02)
		h.Sleep(5)
		return "never", nil
	}))
	start := time.Now()
	s.Join(task)
	elapsed := time.Since(start)

	require.True(t, task.Terminal())
	require.Error(t, task.Err())
	assert.ErrorIs(t, task.Err(), ErrTimeout)
	assert.True(t, deferRan)
	assert.Less(t, elapsed, 500*time.Millisecond)
}

// countingTracer counts EventStep occurrences, giving the test a way to
// observe the run loop's pacing through the traced-event stream instead of
// the scheduler's internal step counter (which runUntil restores on return).
type countingTracer struct {
	mu    sync.Mutex
	steps int
}

func (c *countingTracer) Trace(e Event) {
	if e.Kind != EventStep {
		return
	}
	c.mu.Lock()
	c.steps++
	c.mu.Unlock()
}

func TestMaximumPeriodCapsWork(t *testing.T) {
	cfg := defaultConfig()
	cfg.EnableMaximumPeriod = true
	cfg.MaximumPeriod = 10
	cfg.MaxConcurrentTasks = 100
	s := New(cfg)
	tr := &countingTracer{}
	s.SetTracer(tr)

	for i := 0; i < 100; i++ {
		s.Spawn(Func(func(h *H) (any, error) {
			h.Sleep(1)
			return nil, nil
		}))
	}

	s.Run()

	tr.mu.Lock()
	steps := tr.steps
	tr.mu.Unlock()
	assert.LessOrEqual(t, steps, 10)

	remaining := s.queue.size() + len(s.running)
	assert.Greater(t, remaining, 0, "remaining tasks should still be tracked, not dropped")
}

func TestRetryExhaustsWithBackoff(t *testing.T) {
	s := New(defaultConfig())

	attempts := 0
	causeErr := fmt.Errorf("boom")

	task := s.Spawn(Func(func(h *H) (any, error) {
		return h.Retry(func(h *H) (any, error) {
			attempts++
			return nil, causeErr
		}, 3, 0.03, 2, nil)
	}))

	start := time.Now()
	s.Join(task)
	elapsed := time.Since(start)

	assert.Equal(t, 3, attempts)
	require.Error(t, task.Err())
	assert.ErrorIs(t, task.Err(), ErrRuntime)
	assert.ErrorIs(t, task.Err(), causeErr)
	// Delays are 0.03 and 0.06 seconds: total >= 0.09s.
	assert.GreaterOrEqual(t, elapsed, 85*time.Millisecond)
}

func TestIdentityNeverCollidesAmongLiveTasks(t *testing.T) {
	s := New(defaultConfig())
	seen := map[uint64]bool{}
	var tasks []*Task
	for i := 0; i < 50; i++ {
		tk := s.Spawn(Func(func(h *H) (any, error) {
			h.Sleep(0.01)
			return nil, nil
		}))
		require.False(t, seen[tk.ID()])
		seen[tk.ID()] = true
		tasks = append(tasks, tk)
	}
	s.Join(tasks...)
}

func TestCleanupIsIdempotent(t *testing.T) {
	s := New(defaultConfig())
	s.Spawn(Func(func(h *H) (any, error) {
		h.Sleep(10)
		return nil, nil
	}))
	require.Equal(t, 1, s.queue.size())

	s.Cleanup()
	assert.Equal(t, 0, s.queue.size())
	assert.Empty(t, s.regs.timeouts)
	assert.Empty(t, s.regs.defers)
	assert.Empty(t, s.regs.errors)

	s.Cleanup() // second call observes the same empty state
	assert.Equal(t, 0, s.queue.size())
}

func TestSleepIsMonotonic(t *testing.T) {
	s := New(defaultConfig())
	start := time.Now()
	task := s.Spawn(Func(func(h *H) (any, error) {
		h.Sleep(0.03)
		h.Sleep(0.04)
		return nil, nil
	}))
	s.Join(task)
	elapsed := time.Since(start)
	assert.GreaterOrEqual(t, elapsed, 65*time.Millisecond)
}

func TestDeferRunsOnThrow(t *testing.T) {
	s := New(defaultConfig())

	var deferRan bool
	task := s.Spawn(Func(func(h *H) (any, error) {
		h.Defer(func(args ...any) (any, error) {
			deferRan = true
			return nil, nil
		})
		return nil, fmt.Errorf("deliberate failure")
	}))
	s.Join(task)

	assert.True(t, deferRan)
	require.Error(t, task.Err())
}

func TestLatestTimeoutAndDeferReplaceEarlierOnes(t *testing.T) {
	s := New(defaultConfig())

	var ranFirst, ranSecond bool
	task := s.Spawn(Func(func(h *H) (any, error) {
		h.Timeout(0.01)
		h.Timeout(0) // a never-expiring timeout replaces the 10ms one
		h.Defer(func(args ...any) (any, error) { ranFirst = true; return nil, nil })
		h.Defer(func(args ...any) (any, error) { ranSecond = true; return nil, nil })
		h.Sleep(0.03)
		return nil, nil
	}))
	s.Join(task)

	require.NoError(t, task.Err(), "the earlier Timeout should have been replaced, not accumulated")
	assert.False(t, ranFirst, "the earlier Defer should have been replaced, not accumulated")
	assert.True(t, ranSecond)
}

func TestAwaitSurfacesChildError(t *testing.T) {
	s := New(defaultConfig())
	causeErr := fmt.Errorf("child failed")

	main := s.Spawn(Func(func(h *H) (any, error) {
		child := h.Spawn(func(h *H) (any, error) {
			return nil, causeErr
		})
		return h.Await(child)
	}))
	s.Join(main)

	require.Error(t, main.Err())
	assert.ErrorIs(t, main.Err(), causeErr)
}

func TestSpawnRejectsUnsupportedValue(t *testing.T) {
	s := New(defaultConfig())
	task := s.Spawn(42)
	assert.True(t, task.Terminal())
	assert.ErrorIs(t, task.Err(), ErrInvalidArgument)
}

func TestRepeaterFiresRepeatedly(t *testing.T) {
	cfg := defaultConfig()
	cfg.EnableMaximumPeriod = true
	cfg.MaximumPeriod = 20
	s := New(cfg)

	var mu sync.Mutex
	fireCount := 0
	r := s.Repeat(func() Func {
		return func(h *H) (any, error) {
			mu.Lock()
			fireCount++
			mu.Unlock()
			return nil, nil
		}
	}, 20*time.Millisecond)

	deadline := time.Now().Add(300 * time.Millisecond)
	for time.Now().Before(deadline) {
		s.Run() // bounded by MaximumPeriod, so this always returns
		mu.Lock()
		got := fireCount
		mu.Unlock()
		if got >= 3 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	r.Stop()

	mu.Lock()
	got := fireCount
	mu.Unlock()
	assert.GreaterOrEqual(t, got, 3)
}
