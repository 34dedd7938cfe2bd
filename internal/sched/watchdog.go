// internal/sched/watchdog.go

package sched

import (
	"runtime"
	"runtime/debug"
	"time"

	"golang.org/x/time/rate"
)

// Watchdog caps Go heap usage and advises the run loop to stop or GC
// (§4.2, C5). It measures runtime.MemStats.HeapInuse; process RSS is not
// read. It is best-effort backpressure: it never cancels individual tasks,
// only tells the scheduler "stop admitting more work this call".
//
// The teacher has no equivalent; the advisory-GC pacing here combines a
// call counter (every gcEvery calls) with golang.org/x/time/rate as a
// token bucket, so a GC happens only when both allow it, matching the rest
// of the pack's preference for mature golang.org/x infrastructure over
// bespoke pacing code (see DESIGN.md).
type Watchdog struct {
	softLimitMB   uint64
	checkInterval int // sample once every N calls, to reduce overhead

	calls    int
	limiter  *rate.Limiter // paces CollectGarbage's advisory GC cycles
	gcEvery  int
	gcCalls  int
	lastStat runtime.MemStats
}

// NewWatchdog builds a Watchdog with the given soft limit, in megabytes,
// and sampling interval. softLimitMB of 0 disables the watchdog (checks
// always pass).
func NewWatchdog(softLimitMB uint64, checkInterval int) *Watchdog {
	if checkInterval <= 0 {
		checkInterval = 1
	}
	return &Watchdog{
		softLimitMB:   softLimitMB,
		checkInterval: checkInterval,
		gcEvery:       32,
		limiter:       rate.NewLimiter(rate.Every(200*time.Millisecond), 1),
	}
}

// Init resets the watchdog's internal counters. Safe to call repeatedly.
func (w *Watchdog) Init() {
	w.calls = 0
	w.gcCalls = 0
}

// CheckMemoryUsage samples heap-in-use bytes periodically (once per
// checkInterval calls; process RSS is not read) and forces a GC cycle once
// usage crosses 80% of the soft limit. It
// returns false — "stop" — once usage is still over the limit after that
// forced GC (§4.2).
func (w *Watchdog) CheckMemoryUsage() bool {
	if w.softLimitMB == 0 {
		return true
	}
	w.calls++
	if w.calls%w.checkInterval != 0 {
		return true
	}
	runtime.ReadMemStats(&w.lastStat)
	usedMB := w.lastStat.HeapInuse / (1024 * 1024)
	if usedMB > (w.softLimitMB*8)/10 {
		w.ForceGarbageCollection()
		runtime.ReadMemStats(&w.lastStat)
		usedMB = w.lastStat.HeapInuse / (1024 * 1024)
	}
	return usedMB <= w.softLimitMB
}

// CollectGarbage advisably GCs after every gcEvery calls, rate-limited so a
// hot loop of small tasks can't force back-to-back full GCs.
func (w *Watchdog) CollectGarbage() {
	w.gcCalls++
	if w.gcCalls%w.gcEvery != 0 {
		return
	}
	if w.limiter.Allow() {
		runtime.GC()
	}
}

// ForceGarbageCollection runs a GC cycle and returns freed memory to the OS,
// ignoring the rate limiter — used when the soft limit is already being
// approached and we need a cycle now, not on the next allowed tick.
func (w *Watchdog) ForceGarbageCollection() {
	runtime.GC()
	debug.FreeOSMemory()
}
