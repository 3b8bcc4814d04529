package http1

import (
	"errors"
	"log"

	"github.com/indigo-web/lattice/config"
	"github.com/indigo-web/lattice/http"
	"github.com/indigo-web/lattice/http/method"
	"github.com/indigo-web/lattice/http/proto"
	"github.com/indigo-web/lattice/http/status"
	"github.com/indigo-web/lattice/internal/protocol"
	"github.com/indigo-web/lattice/transport"
)

// Suit drives a single connection: it decodes requests one by one, dispatches them to the
// handler and transmits the responses. It's owned by exactly one goroutine.
type Suit struct {
	handler    http.Handler
	client     transport.Client
	stopping   func() bool
	in         *inbound
	decoder    *Decoder
	body       *body
	serializer *serializer
	writer     *http.ResponseWriter
}

// New returns a suit serving the client. The stopping function reports whether the server
// is shutting down, in which case no connection is kept alive. It may be nil.
func New(cfg *config.Config, handler http.Handler, client transport.Client, stopping func() bool) *Suit {
	if stopping == nil {
		stopping = func() bool { return false }
	}

	in := newInbound(cfg.NET.ReadBufferSize.Default, cfg.NET.ReadBufferSize.Maximal)
	b := newBody(client, in, cfg.Body)
	s := newSerializer(cfg, client)

	return &Suit{
		handler:    handler,
		client:     client,
		stopping:   stopping,
		in:         in,
		decoder:    NewDecoder(cfg, in.generation(), b),
		body:       b,
		serializer: s,
		writer:     http.NewResponseWriter(s, cfg.NET.WriteBufferSize.Default, cfg.NET.WriteBufferSize.Maximal),
	}
}

// Serve serves requests until the connection must be closed.
func (s *Suit) Serve() {
	for s.ServeOnce() {
	}
}

// ServeOnce serves a single request. False is returned if the connection must be closed.
func (s *Suit) ServeOnce() bool {
	s.in.compact()
	s.writer.Reset()

	decoded, ok := s.await()
	if !ok {
		return false
	}

	request := decoded.Request
	s.body.reset(decoded.Framing, decoded.Length)
	s.serializer.prepare(
		request.Proto(),
		request.Method() == method.HEAD,
		keepAlive(request) && !s.stopping(),
	)

	if expectsContinue(request) {
		if err := s.serializer.Continue(); err != nil {
			return false
		}
	}

	if !s.dispatch(request) {
		return false
	}

	if err := s.body.Discard(); err != nil {
		if isHTTPError(err) && !s.writer.Committed() {
			s.fail(err)
		}

		return false
	}

	if err := s.writer.End(); err != nil {
		return false
	}

	return !s.serializer.closing()
}

// await reads until a complete request head is received. The client is reported as idle
// as long as not a single byte of the request was received.
func (s *Suit) await() (Decoded, bool) {
	for {
		if !s.in.empty() {
			state, decoded, err := s.decoder.Decode(s.in.window())
			switch state {
			case protocol.HeadersCompleted:
				s.client.Idle(false)
				s.in.pin(decoded.Consumed)
				return decoded, true
			case protocol.Error:
				s.client.Idle(false)
				s.reject(decoded.Proto, err)
				return Decoded{}, false
			}
		}

		s.client.Idle(s.in.empty())

		switch err := s.in.fillHead(s.client); err {
		case nil:
		case errHeadTooLarge:
			s.client.Idle(false)
			s.reject(proto.Unknown, status.ErrHeaderFieldsTooLarge)
			return Decoded{}, false
		default:
			// the peer left, the read timed out or the server is shutting down. There's
			// nobody to respond to in all these cases.
			return Decoded{}, false
		}
	}
}

func (s *Suit) dispatch(request *http.Request) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("lattice: recovered handler panic: %v", r)
			if !s.writer.Committed() {
				s.fail(status.ErrInternalServerError)
			}

			ok = false
		}
	}()

	s.handler.Handle(request, s.writer)
	return true
}

// reject responds to a request that never reached the handler. The protocol is Unknown
// if even the request line couldn't be decoded.
func (s *Suit) reject(protocol proto.Proto, err error) {
	s.serializer.prepare(protocol, false, false)
	s.fail(err)
}

// fail responds with the error and marks the connection to be closed. Errors other than
// status.HTTPError are treated as bad requests.
func (s *Suit) fail(err error) {
	var httpErr status.HTTPError
	if !errors.As(err, &httpErr) {
		httpErr = status.ErrBadRequest.(status.HTTPError)
	}

	s.serializer.close = true

	s.writer.Reset()
	_ = s.writer.Code(httpErr.Code)
	_ = s.writer.Header("Content-Type", "text/plain")
	_ = s.writer.String(httpErr.Message)
	_ = s.writer.End()
}

func isHTTPError(err error) bool {
	var httpErr status.HTTPError
	return errors.As(err, &httpErr)
}

// keepAlive reports whether the request allows the connection to persist.
func keepAlive(request *http.Request) bool {
	if request.Proto() != proto.HTTP11 {
		return false
	}

	for value := range request.Headers().Values("Connection") {
		if hasToken(value, "close") {
			return false
		}
	}

	return true
}

// expectsContinue reports whether the peer waits for an interim response before sending
// the body.
func expectsContinue(request *http.Request) bool {
	if request.Proto() != proto.HTTP11 {
		return false
	}

	value, found := request.Headers().Get("Expect")
	return found && value == "100-continue"
}
