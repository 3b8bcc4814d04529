package http1

import (
	"io"

	"github.com/indigo-web/chunkedbody"
	"github.com/indigo-web/lattice/config"
	"github.com/indigo-web/lattice/http"
	"github.com/indigo-web/lattice/http/status"
	"github.com/indigo-web/lattice/internal/hexconv"
	"github.com/indigo-web/utils/uf"
)

var _ http.Body = new(body)

// body reads the message body of the current request. Bytes come from the accumulation
// buffer first, then from the client. It never consumes data past the body boundary, so
// pipelined requests stay in the buffer.
type body struct {
	client    io.Reader
	in        *inbound
	maxSize   uint64
	framing   Framing
	remaining int
	chunked   *chunkedbody.Parser
	framer    framer
	received  uint64
	pending   []byte
	buff      []byte
	err       error
}

func newBody(client io.Reader, in *inbound, s config.Body) *body {
	return &body{
		client:  client,
		in:      in,
		maxSize: s.MaxSize,
		chunked: chunkedbody.NewParser(chunkedbody.DefaultSettings()),
		err:     io.EOF,
	}
}

// reset prepares the body for the next request.
func (b *body) reset(framing Framing, length int) {
	b.framing = framing
	b.remaining = length
	b.framer = framer{}
	b.received = 0
	b.pending = nil
	b.buff = b.buff[:0]
	b.err = nil

	if framing == FramingEmpty {
		b.err = io.EOF
	}
}

func (b *body) retrieve() ([]byte, error) {
	switch b.framing {
	case FramingFixed:
		return b.fixed()
	case FramingChunked:
		return b.chunk()
	default:
		return nil, io.EOF
	}
}

func (b *body) fixed() ([]byte, error) {
	if b.remaining == 0 {
		return nil, io.EOF
	}

	if b.in.empty() {
		if err := b.fill(); err != nil {
			return nil, err
		}
	}

	data := b.in.take(b.remaining)
	if b.remaining -= len(data); b.remaining == 0 {
		return data, io.EOF
	}

	return data, nil
}

func (b *body) chunk() ([]byte, error) {
	for {
		if b.in.empty() {
			if err := b.fill(); err != nil {
				return nil, err
			}
		}

		window := b.in.window()
		chunk, extra, err := b.chunked.Parse(window, true)
		consumed := len(window) - len(extra)
		b.in.consume(consumed)

		switch err {
		case nil, io.EOF:
		default:
			return nil, status.ErrBadChunk
		}

		// the parser stops right after the chunk data, so everything consumed
		// before it is framing
		if !b.framer.feed(window[:consumed-len(chunk)]) {
			return nil, status.ErrBadChunk
		}

		if len(chunk) > 0 {
			b.framer.step = expectCR
		}

		if b.received += uint64(len(chunk)); b.received > b.maxSize {
			return nil, status.ErrBodyTooLarge
		}

		if err == io.EOF || len(chunk) > 0 {
			return chunk, err
		}
	}
}

const (
	expectSize uint8 = iota
	expectCR
	expectLF
	framed
)

// framer checks the framing bytes between chunks: the data must be followed by exactly
// CRLF, and every size line must begin with a hex digit.
type framer struct {
	step uint8
}

func (f *framer) feed(framing []byte) bool {
	for _, char := range framing {
		switch f.step {
		case expectCR:
			if char != '\r' {
				return false
			}

			f.step = expectLF
		case expectLF:
			if char != '\n' {
				return false
			}

			f.step = expectSize
		case expectSize:
			if hexconv.Halfbyte[char] == hexconv.Invalid {
				return false
			}

			f.step = framed
		default:
			return true
		}
	}

	return true
}

func (b *body) fill() error {
	err := b.in.fillBody(b.client)
	if err == io.EOF {
		// the peer has gone before the body was complete
		err = io.ErrUnexpectedEOF
	}

	return err
}

// Read implements the io.Reader interface.
func (b *body) Read(into []byte) (n int, err error) {
	if len(b.pending) == 0 && b.err == nil {
		b.pending, b.err = b.retrieve()
	}

	n = copy(into, b.pending)
	b.pending = b.pending[n:]

	if len(b.pending) == 0 && b.err != nil {
		err = b.err
	}

	return n, err
}

// Bytes returns the rest of the body at once. Consequent calls return the same data.
func (b *body) Bytes() ([]byte, error) {
	for {
		if len(b.pending) > 0 {
			b.buff = append(b.buff, b.pending...)
			b.pending = nil
		}

		switch b.err {
		case nil:
		case io.EOF:
			return b.buff, nil
		default:
			return nil, b.err
		}

		b.pending, b.err = b.retrieve()
	}
}

// String returns the rest of the body as a string. The string refers to the internal
// buffer and is valid until the handler returns.
func (b *body) String() (string, error) {
	data, err := b.Bytes()
	return uf.B2S(data), err
}

// Discard drops the rest of the body.
func (b *body) Discard() error {
	b.pending = nil
	for b.err == nil {
		_, b.err = b.retrieve()
	}

	if b.err == io.EOF {
		return nil
	}

	return b.err
}
