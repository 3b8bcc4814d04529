package dummy

import (
	"io"
	"net"

	"github.com/indigo-web/lattice/transport"
)

var _ transport.Client = new(Client)

// Client is an in-memory transport client. Every read returns (a part of) the next piece of
// data it was initialised with. Once the pieces are exhausted, io.EOF is returned, unless
// the client is looped. Everything written is appended to the journal.
type Client struct {
	data    [][]byte
	pending []byte
	pointer int
	loop    bool
	closed  bool
	idle    bool
	journal []byte
}

func NewClient(data ...[]byte) *Client {
	return &Client{data: data}
}

// LoopReads makes the client start over again once all the pieces were read.
func (c *Client) LoopReads() *Client {
	c.loop = true
	return c
}

func (c *Client) Read(b []byte) (n int, err error) {
	if c.closed {
		return 0, io.EOF
	}

	if len(c.pending) == 0 {
		if c.pointer >= len(c.data) {
			if !c.loop || len(c.data) == 0 {
				return 0, io.EOF
			}

			c.pointer = 0
		}

		c.pending = c.data[c.pointer]
		c.pointer++
	}

	n = copy(b, c.pending)
	c.pending = c.pending[n:]

	return n, nil
}

func (c *Client) Write(b []byte) (int, error) {
	if c.closed {
		return 0, net.ErrClosed
	}

	c.journal = append(c.journal, b...)
	return len(b), nil
}

func (c *Client) Idle(flag bool) {
	c.idle = flag
}

// IsIdle reports the last value passed to Idle.
func (c *Client) IsIdle() bool {
	return c.idle
}

// Written returns everything written so far.
func (c *Client) Written() string {
	return string(c.journal)
}

// Reset clears the journal.
func (c *Client) Reset() {
	c.journal = c.journal[:0]
}

func (c *Client) Conn() net.Conn {
	return nil
}

func (*Client) Remote() net.Addr {
	return nil
}

func (c *Client) Close() error {
	c.closed = true
	return nil
}

// Closed reports whether Close was called.
func (c *Client) Closed() bool {
	return c.closed
}

// NewNopClient returns a client that is always at EOF.
func NewNopClient() *Client {
	return NewClient()
}
