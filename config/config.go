package config

import (
	"time"
)

type (
	NETReadBufferSize struct {
		Default, Maximal int
	}

	NETWriteBufferSize struct {
		Default, Maximal int
	}
)

type (
	Headers struct {
		// MaxNumber is the maximal number of header fields a request may carry. Requests
		// exceeding it are rejected with 431 Request Header Fields Too Large, which bounds
		// the memory spent on a single request head.
		MaxNumber int
		// Default headers are headers to be included into every response implicitly, unless
		// explicitly overridden.
		Default map[string]string `test:"nullable"`
	}

	Body struct {
		// MaxSize describes the maximal size of a body that can be processed. Bodies
		// declaring or delivering more are rejected with status.ErrBodyTooLarge. In order to
		// disable the setting, use the math.MaxUint64 value.
		MaxSize uint64
	}

	NET struct {
		// ReadBufferSize is the accumulation buffer of a connection. The whole request
		// head (request line and all the header fields) must fit into it, so the maximal
		// value effectively limits the head size. The buffer starts at the default size and
		// grows on demand.
		ReadBufferSize NETReadBufferSize
		// ReadTimeout is set as a deadline for every read from the socket. It limits both
		// the lifetime of idle keep-alive connections and stuck body reads.
		ReadTimeout time.Duration
		// AcceptLoopInterruptPeriod controls how often will the Accept() call be interrupted
		// in order to check whether it's time to stop. Defaults to 5 seconds.
		AcceptLoopInterruptPeriod time.Duration
		// WriteBufferSize stores the HTTP response, which is going to be transmitted. Default
		// is the initial buffer capacity. A buffered response body outgrowing the maximal
		// size makes the response being committed and streamed instead.
		WriteBufferSize NETWriteBufferSize
		// Workers is the size of the fixed pool of goroutines serving connections. Every
		// worker serves a single connection at a time, so it is also the maximal number
		// of connections served simultaneously. Accepted connections over it are queued.
		Workers int
	}
)

// Config holds settings used across the server, mainly restrictions, limitations and
// pre-allocations.
//
// You must ALWAYS modify defaults (returned via Default()) and NEVER try to initialize the
// config manually, because most likely this will result in ambiguous errors. Fill repairs
// a partially initialized config.
type Config struct {
	Headers Headers
	Body    Body
	NET     NET
}

// Default returns default config. Those are initially well-balanced, however maximal defaults
// are pretty permitting.
func Default() *Config {
	return &Config{
		Headers: Headers{
			MaxNumber: 64,
			Default:   make(map[string]string),
		},
		Body: Body{
			MaxSize: 512 * 1024 * 1024, // 512 megabytes
		},
		NET: NET{
			ReadBufferSize: NETReadBufferSize{
				Default: 4 * 1024,
				// most web-entities limit the request head to 8-16kb. We're a bit more
				// tolerant, as there might be extremely long cookies.
				Maximal: 64 * 1024,
			},
			ReadTimeout:               90 * time.Second,
			AcceptLoopInterruptPeriod: 5 * time.Second,
			WriteBufferSize: NETWriteBufferSize{
				Default: 2 * 1024,
				Maximal: 64 * 1024,
			},
			Workers: 1024,
		},
	}
}

// Fill replaces zero values of the config by the defaults.
func Fill(src *Config) *Config {
	if src == nil {
		return Default()
	}

	defaults := Default()
	cfg := *src

	cfg.Headers.MaxNumber = either(cfg.Headers.MaxNumber, defaults.Headers.MaxNumber)
	if cfg.Headers.Default == nil {
		cfg.Headers.Default = defaults.Headers.Default
	}

	cfg.Body.MaxSize = either(cfg.Body.MaxSize, defaults.Body.MaxSize)

	net := &cfg.NET
	net.ReadBufferSize.Default = either(net.ReadBufferSize.Default, defaults.NET.ReadBufferSize.Default)
	net.ReadBufferSize.Maximal = either(net.ReadBufferSize.Maximal, defaults.NET.ReadBufferSize.Maximal)
	net.ReadBufferSize.Maximal = max(net.ReadBufferSize.Maximal, net.ReadBufferSize.Default)
	net.ReadTimeout = either(net.ReadTimeout, defaults.NET.ReadTimeout)
	net.AcceptLoopInterruptPeriod = either(net.AcceptLoopInterruptPeriod, defaults.NET.AcceptLoopInterruptPeriod)
	net.WriteBufferSize.Default = either(net.WriteBufferSize.Default, defaults.NET.WriteBufferSize.Default)
	net.WriteBufferSize.Maximal = either(net.WriteBufferSize.Maximal, defaults.NET.WriteBufferSize.Maximal)
	net.WriteBufferSize.Maximal = max(net.WriteBufferSize.Maximal, net.WriteBufferSize.Default)
	net.Workers = either(net.Workers, defaults.NET.Workers)

	return &cfg
}

func either[T comparable](value, otherwise T) T {
	var zero T
	if value == zero {
		return otherwise
	}

	return value
}
