package transport

import (
	"errors"
	"net"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/indigo-web/lattice/config"
	"github.com/indigo-web/lattice/internal/timer"
	"golang.org/x/sync/errgroup"
)

type listener interface {
	net.Listener
	SetDeadline(t time.Time) error
}

// TCP accepts connections and hands them over to a fixed pool of workers. The pool is
// created once Listen is called and lives until the transport stops.
type TCP struct {
	l       listener
	stopped *atomic.Bool
	mu      sync.Mutex
	clients map[*client]struct{}
}

func NewTCP() *TCP {
	return &TCP{
		stopped: new(atomic.Bool),
		clients: make(map[*client]struct{}),
	}
}

func bindTCP(addr string) (*net.TCPListener, error) {
	tcpaddr, err := net.ResolveTCPAddr("tcp", addr)
	if err != nil {
		return nil, err
	}

	return net.ListenTCP("tcp", tcpaddr)
}

func (t *TCP) Bind(addr string) (err error) {
	l, err := bindTCP(addr)
	if err != nil {
		return err
	}

	t.l = l
	return nil
}

// Addr returns the address the transport is bound to.
func (t *TCP) Addr() net.Addr {
	return t.l.Addr()
}

// Listen runs the accept loop and blocks until the transport is stopped or the listener
// fails. Before returning, it waits for all the workers to finish their connections.
func (t *TCP) Listen(cfg config.NET, cb func(Client)) error {
	var (
		workers = max(cfg.Workers, 1)
		queue   = make(chan net.Conn, workers)
		pool    errgroup.Group
	)

	for range workers {
		pool.Go(func() error {
			for conn := range queue {
				t.serve(conn, cfg.ReadTimeout, cb)
			}

			return nil
		})
	}

	err := t.accept(cfg, queue)
	if err != nil {
		// the listener is dead, so nothing is going to be accepted anymore. Release
		// everybody idling.
		t.Stop()
	}

	close(queue)
	_ = pool.Wait()

	return err
}

func (t *TCP) accept(cfg config.NET, queue chan<- net.Conn) error {
	for !t.stopped.Load() {
		err := t.l.SetDeadline(timer.Now().Add(cfg.AcceptLoopInterruptPeriod))
		if err != nil {
			return err
		}

		// Stop might have poked the listener right before the deadline was overridden
		if t.stopped.Load() {
			break
		}

		conn, err := t.l.Accept()
		if err != nil {
			if errors.Is(err, os.ErrDeadlineExceeded) {
				continue
			}

			return err
		}

		queue <- conn
	}

	return nil
}

func (t *TCP) serve(conn net.Conn, timeout time.Duration, cb func(Client)) {
	c := newClient(conn, timeout, t.stopped)
	t.mu.Lock()
	t.clients[c] = struct{}{}
	t.mu.Unlock()

	cb(c)
	_ = conn.Close()

	t.mu.Lock()
	delete(t.clients, c)
	t.mu.Unlock()
}

// Stop stops accepting new connections and interrupts those idling in between the
// requests. Connections in the middle of an exchange are let to finish it.
func (t *TCP) Stop() {
	t.stopped.Store(true)
	if t.l != nil {
		_ = t.l.SetDeadline(time.Now())
	}

	t.mu.Lock()
	for c := range t.clients {
		c.interrupt()
	}
	t.mu.Unlock()
}

// Stopped reports whether Stop was called.
func (t *TCP) Stopped() bool {
	return t.stopped.Load()
}

// Close closes the listener.
func (t *TCP) Close() {
	if t.l != nil {
		_ = t.l.Close()
	}
}
