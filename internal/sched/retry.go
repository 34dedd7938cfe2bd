// internal/sched/retry.go

package sched

import "math"

// ShouldRetryFunc decides, given the error from a failed attempt, whether
// retrying is worthwhile at all. A nil ShouldRetryFunc means "always retry
// until the attempt budget is exhausted" (§4.1: "if pred is absent or
// pred(err) is true").
type ShouldRetryFunc func(err error) bool

// Retry drives factory as a sub-computation of the calling task (no new
// goroutine — factory runs inline, on the same coroutine, so it can itself
// call h.Sleep/h.Yield/h.Timeout without any special plumbing). On failure,
// if shouldRetry is nil or returns true, it sleeps baseDelay*backoff^(k-1)
// seconds (k being the attempt that just failed, 1-indexed) and tries
// again; after maxRetries failures it raises a Runtime error wrapping the
// last cause (§4.1, L3).
func (h *H) Retry(factory Func, maxRetries int, baseDelay float64, backoff float64, shouldRetry ShouldRetryFunc) (any, error) {
	if maxRetries <= 0 {
		return nil, invalidArgf("retry requires a positive maxRetries, got %d", maxRetries)
	}

	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		value, err := factory(h)
		if err == nil {
			return value, nil
		}
		lastErr = err

		if shouldRetry != nil && !shouldRetry(err) {
			return nil, runtimef(err, "retry predicate declined further attempts for task %d after attempt %d", h.task.id, attempt)
		}
		if attempt == maxRetries {
			break
		}
		delaySeconds := baseDelay * math.Pow(backoff, float64(attempt-1))
		h.Sleep(delaySeconds)
	}
	return nil, runtimef(lastErr, "retry exhausted after %d attempts", maxRetries)
}
