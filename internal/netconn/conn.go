// internal/netconn/conn.go

package netconn

import (
	"fmt"
	"net"
	"time"

	"github.com/google/uuid"

	"github.com/weftrun/weft/internal/sched"
)

// Conn is the TCP/UDP client wrapper with reconnect from spec §6 ("Socket.
// Uses sleep for non-blocking polling"). It keeps the underlying
// net.Conn's deadlines short and loops h.Sleep between non-blocking
// attempts instead of blocking the one logical thread on a syscall.
type Conn struct {
	id      string
	network string
	addr    string
	nc      net.Conn

	maxRetries int
	baseDelay  time.Duration
	backoff    float64
}

// Option configures a Conn at Dial time.
type Option func(*Conn)

// WithReconnectPolicy overrides the reconnect backoff schedule Dial
// otherwise uses (5 retries, 0.1s base delay, backoff factor 2).
func WithReconnectPolicy(maxRetries int, baseDelay time.Duration, backoff float64) Option {
	return func(c *Conn) {
		c.maxRetries = maxRetries
		c.baseDelay = baseDelay
		c.backoff = backoff
	}
}

// Dial establishes network/addr, retrying through h's scheduler with
// exponential backoff instead of a bespoke reconnect loop — this
// collaborator is a consumer of §4.1's Retry, not a reimplementation of it.
func Dial(h *sched.H, network, addr string, opts ...Option) (*Conn, error) {
	c := &Conn{id: uuid.NewString(), network: network, addr: addr, maxRetries: 5, baseDelay: time.Duration(0.1 * float64(time.Second)), backoff: 2}
	for _, opt := range opts {
		opt(c)
	}

	value, err := h.Retry(func(h *sched.H) (any, error) {
		nc, dialErr := net.DialTimeout(c.network, c.addr, 2*time.Second)
		if dialErr != nil {
			return nil, fmt.Errorf("netconn: dial %s %s: %w", c.network, c.addr, dialErr)
		}
		return nc, nil
	}, c.maxRetries, c.baseDelay.Seconds(), c.backoff, nil)
	if err != nil {
		return nil, err
	}
	c.nc = value.(net.Conn)
	return c, nil
}

// ID returns this connection's correlation id.
func (c *Conn) ID() string { return c.id }

// Read performs a short, non-blocking-style read: it sets a brief
// deadline on the underlying connection and, on a plain timeout, yields
// via h.Sleep and tries again, so a task reading from a slow peer still
// gives other tasks a turn (§5: "non-blocking sockets, short reads with a
// cooperative wait-loop").
func (c *Conn) Read(h *sched.H, buf []byte) (int, error) {
	for {
		_ = c.nc.SetReadDeadline(time.Now().Add(20 * time.Millisecond))
		n, err := c.nc.Read(buf)
		if n > 0 || (err == nil) {
			return n, err
		}
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			h.Sleep(0.005)
			continue
		}
		return n, err
	}
}

// Write writes to the underlying connection.
func (c *Conn) Write(buf []byte) (int, error) {
	return c.nc.Write(buf)
}

// Close closes the underlying connection.
func (c *Conn) Close() error {
	return c.nc.Close()
}
