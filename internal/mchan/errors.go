// internal/mchan/errors.go

package mchan

import (
	"errors"
	"fmt"

	"github.com/weftrun/weft/internal/sched"
)

// ErrEmpty is what Receive fails with when nothing is queued and its
// context is done. The returned error also wraps sched.ErrRuntime.
var ErrEmpty = errors.New("mchan: channel is empty")

func errClosed(id string) error {
	return fmt.Errorf("mchan: channel %s is closed: %w", id, sched.ErrRuntime)
}

func errEmpty(id string) error {
	return fmt.Errorf("%w: channel %s: %w", ErrEmpty, id, sched.ErrRuntime)
}
