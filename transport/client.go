package transport

import (
	"errors"
	"net"
	"sync/atomic"
	"time"

	"github.com/indigo-web/lattice/internal/timer"
)

// ErrStopped is returned by reads of an idle client after the transport was stopped. A
// client that hasn't received anything yet is let to read its first request.
var ErrStopped = errors.New("transport is stopped")

// unservedGrace limits the first read of a connection that was accepted, but not yet
// served when the transport stopped.
const unservedGrace = time.Second

type Client interface {
	Read(b []byte) (int, error)
	Write(b []byte) (int, error)
	// Idle marks the client as waiting for a new request. Idle clients are interrupted
	// when the transport stops, while busy ones are let to finish their exchange.
	Idle(flag bool)
	Conn() net.Conn
	Remote() net.Addr
	Close() error
}

type client struct {
	conn    net.Conn
	timeout time.Duration
	idle    atomic.Bool
	// received is set once any data came from the peer
	received atomic.Bool
	stopped  *atomic.Bool
}

// NewClient wraps the connection. The stopped flag is shared across all the clients of a
// transport and may be nil for standalone clients.
func NewClient(conn net.Conn, timeout time.Duration, stopped *atomic.Bool) Client {
	if stopped == nil {
		stopped = new(atomic.Bool)
	}

	return newClient(conn, timeout, stopped)
}

func newClient(conn net.Conn, timeout time.Duration, stopped *atomic.Bool) *client {
	return &client{
		conn:    conn,
		timeout: timeout,
		stopped: stopped,
	}
}

// Read reads data into b. Timeouts are handled automatically: every read is limited by
// the configured timeout.
func (c *client) Read(b []byte) (int, error) {
	if err := c.conn.SetReadDeadline(timer.Now().Add(c.timeout)); err != nil {
		return 0, err
	}

	// the flag must be checked after the deadline is set. Otherwise, an interruption
	// might happen in between and be overridden by the fresh deadline.
	if c.idle.Load() && c.stopped.Load() {
		if c.received.Load() {
			return 0, ErrStopped
		}

		// the connection waited in the queue while the transport was stopping. Its
		// first request is most likely already sent, so it's served anyway.
		if err := c.conn.SetReadDeadline(timer.Now().Add(min(c.timeout, unservedGrace))); err != nil {
			return 0, err
		}
	}

	n, err := c.conn.Read(b)
	if n > 0 {
		c.received.Store(true)
	}

	return n, err
}

func (c *client) Idle(flag bool) {
	c.idle.Store(flag)
}

// interrupt unblocks a pending read if the client is idle. Clients that didn't receive
// anything yet are given a short grace period for their first request instead.
func (c *client) interrupt() {
	if !c.idle.Load() {
		return
	}

	deadline := time.Now()
	if !c.received.Load() {
		deadline = deadline.Add(min(c.timeout, unservedGrace))
	}

	_ = c.conn.SetReadDeadline(deadline)
}

// Conn unwraps the underlying net.Conn.
func (c *client) Conn() net.Conn {
	return c.conn
}

// Write writes data into the underlying connection.
func (c *client) Write(b []byte) (int, error) {
	return c.conn.Write(b)
}

// Remote returns the remote address of the connection.
func (c *client) Remote() net.Addr {
	return c.conn.RemoteAddr()
}

// Close closes the connection.
func (c *client) Close() error {
	return c.conn.Close()
}
