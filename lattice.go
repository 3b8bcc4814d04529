package lattice

import (
	"fmt"
	"sync"

	"github.com/indigo-web/lattice/config"
	"github.com/indigo-web/lattice/http"
	"github.com/indigo-web/lattice/internal/address"
	"github.com/indigo-web/lattice/internal/protocol/http1"
	"github.com/indigo-web/lattice/transport"
)

type hooks struct {
	OnStart, OnStop func()
}

// App is the server builder. Nothing is bound until Start is called.
type App struct {
	handler http.Handler
	cfg     *config.Config
	hooks   hooks
}

// New returns a new App instance serving requests with the handler.
func New(handler http.Handler) *App {
	return &App{
		handler: handler,
		cfg:     config.Default(),
	}
}

// Tune replaces the default config. Zero fields are filled with defaults.
func (a *App) Tune(cfg *config.Config) *App {
	a.cfg = config.Fill(cfg)
	return a
}

// NotifyOnStart calls the callback as soon as the server starts accepting connections.
func (a *App) NotifyOnStart(cb func()) *App {
	a.hooks.OnStart = cb
	return a
}

// NotifyOnStop calls the callback once the server is down. At that moment no connections
// are accepted and all the clients are already disconnected.
func (a *App) NotifyOnStop(cb func()) *App {
	a.hooks.OnStop = cb
	return a
}

// Start binds the address and starts serving in the background. The host may be omitted,
// in which case all the interfaces are listened on.
func (a *App) Start(addr string) (*Instance, error) {
	addr, err := address.Normalize(addr)
	if err != nil {
		return nil, fmt.Errorf("lattice: bad address: %w", err)
	}

	tcp := transport.NewTCP()
	if err = tcp.Bind(addr); err != nil {
		return nil, err
	}

	inst := &Instance{
		tcp:  tcp,
		done: make(chan struct{}),
	}

	if a.hooks.OnStart != nil {
		a.hooks.OnStart()
	}

	go func() {
		inst.err = tcp.Listen(a.cfg.NET, func(client transport.Client) {
			http1.New(a.cfg, a.handler, client, tcp.Stopped).Serve()
		})
		tcp.Close()

		if a.hooks.OnStop != nil {
			a.hooks.OnStop()
		}

		close(inst.done)
	}()

	return inst, nil
}

// Instance is a running server.
type Instance struct {
	tcp      *transport.TCP
	stopOnce sync.Once
	done     chan struct{}
	err      error
}

// Addr returns the address the server is bound to.
func (i *Instance) Addr() string {
	return i.tcp.Addr().String()
}

// Wait blocks until the server is down. The returned error is nil if it was stopped
// gracefully.
func (i *Instance) Wait() error {
	<-i.done
	return i.err
}

// Stop stops accepting new connections and closes those idling in between requests.
// Requests in progress are let to complete. Stop waits until the server is down.
func (i *Instance) Stop() {
	i.stopOnce.Do(i.tcp.Stop)
	<-i.done
}
