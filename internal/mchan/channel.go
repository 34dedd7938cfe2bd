// internal/mchan/channel.go

package mchan

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/weftrun/weft/internal/sched"
)

// Channel is the bounded in-memory channel collaborator from spec §6: a
// process-wide mapping from an id to an ordered sequence, with
// send/receive/close. Because the scheduler that drives its waiters is
// single-threaded (§5: "the channel collaborator uses process-wide
// in-memory queues keyed by channel id; because the scheduler is
// single-threaded, access is implicitly serialized"), Channel itself still
// takes a mutex: nothing stops a Channel from being shared across more
// than one *sched.Scheduler in the same process, and the registry below is
// genuinely process-wide.
type Channel struct {
	id       string
	capacity int

	mu     sync.Mutex
	items  []any
	closed bool
}

var (
	registryMu sync.Mutex
	registry   = map[string]*Channel{}
)

// Open creates a new Channel with the given capacity (<= 0 means
// unbounded) and registers it under a fresh id.
func Open(capacity int) *Channel {
	c := &Channel{id: uuid.NewString(), capacity: capacity}
	registryMu.Lock()
	registry[c.id] = c
	registryMu.Unlock()
	return c
}

// Lookup finds a previously Open'd channel by id.
func Lookup(id string) (*Channel, bool) {
	registryMu.Lock()
	defer registryMu.Unlock()
	c, ok := registry[id]
	return c, ok
}

// ID returns the channel's registry id.
func (c *Channel) ID() string { return c.id }

// Send appends data to the channel, cooperatively yielding (via h.Sleep)
// while the channel is at capacity, until ctx is cancelled or room opens
// up.
func (c *Channel) Send(h *sched.H, ctx context.Context, data any) error {
	for {
		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			return errClosed(c.id)
		}
		if c.capacity <= 0 || len(c.items) < c.capacity {
			c.items = append(c.items, data)
			fmt.Println("DEBUG send succeeded, items len", len(c.items))
			c.mu.Unlock()
			return nil
		}
		c.mu.Unlock()
		fmt.Println("DEBUG send blocked, items len", len(c.items))

		if err := ctx.Err(); err != nil {
			return err
		}
		h.Sleep(0.001)
	}
}

// Receive removes and returns the head item. While nothing is queued it
// cooperatively polls (via h.Sleep) until something arrives, the channel is
// closed, or ctx is done; in the last case it fails with ErrEmpty (which
// also wraps sched.ErrRuntime).
func (c *Channel) Receive(h *sched.H, ctx context.Context) (any, error) {
	for {
		c.mu.Lock()
		if len(c.items) > 0 {
			v := c.items[0]
			c.items = c.items[1:]
			fmt.Println("DEBUG receive succeeded, got", v, "items len now", len(c.items))
			c.mu.Unlock()
			return v, nil
		}
		closed := c.closed
		c.mu.Unlock()
		if closed {
			return nil, errClosed(c.id)
		}
		if err := ctx.Err(); err != nil {
			return nil, errEmpty(c.id)
		}
		fmt.Println("DEBUG receive polling")
		h.Sleep(0.001)
	}
}

// Close removes the channel from the registry; any further Send/Receive
// observes it as closed.
func (c *Channel) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	registryMu.Lock()
	delete(registry, c.id)
	registryMu.Unlock()
}
