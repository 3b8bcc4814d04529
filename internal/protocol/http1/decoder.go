package http1

import (
	"math"
	"slices"
	"strings"

	"github.com/indigo-web/lattice/config"
	"github.com/indigo-web/lattice/http"
	"github.com/indigo-web/lattice/http/method"
	"github.com/indigo-web/lattice/http/proto"
	"github.com/indigo-web/lattice/http/status"
	"github.com/indigo-web/lattice/internal/protocol"
	"github.com/indigo-web/utils/strcomp"
	"github.com/indigo-web/utils/uf"
)

// Framing is the way the message body is delimited.
type Framing uint8

const (
	// FramingEmpty means there's no body at all.
	FramingEmpty Framing = iota
	// FramingFixed means the body is exactly Content-Length bytes long.
	FramingFixed
	// FramingChunked means the body is transferred in chunks.
	FramingChunked
)

// Decoded is a successfully decoded request head.
type Decoded struct {
	Request *http.Request
	// Proto is the protocol of the request. It's also set if the request line was
	// fine, but the head as a whole was rejected.
	Proto proto.Proto
	// Consumed is the length of the request head. The body, if any, starts right after.
	Consumed int
	Framing  Framing
	// Length is the body length for FramingFixed.
	Length int
}

// Decoder maps a request head onto a request view. It's stateless across calls: Pending
// simply asks the caller to retry with more data in the same buffer.
type Decoder struct {
	cfg    *config.Config
	live   *http.Generation
	body   http.Body
	fields []http.Field
}

// NewDecoder returns a new decoder. Requests are bound to the live generation and get the
// passed body attached, unless they don't have any.
func NewDecoder(cfg *config.Config, live *http.Generation, body http.Body) *Decoder {
	return &Decoder{
		cfg:    cfg,
		live:   live,
		body:   body,
		fields: make([]http.Field, cfg.Headers.MaxNumber),
	}
}

func (d *Decoder) Decode(buf []byte) (protocol.RequestState, Decoded, error) {
	h, err := scan(buf, d.fields)
	if err != nil {
		return protocol.Error, Decoded{}, err
	}

	if h.n == 0 {
		return protocol.Pending, Decoded{}, nil
	}

	buf = buf[:h.n:h.n]
	fields := d.fields[:h.fields]
	framing, length, err := d.framing(buf, h.method, fields)
	if err != nil {
		return protocol.Error, Decoded{Proto: h.proto}, err
	}

	body := http.NoBody
	if framing != FramingEmpty && d.body != nil {
		body = d.body
	}

	request := http.NewRequest(buf, d.live, h.method, h.target, h.proto, slices.Clone(fields), body)

	return protocol.HeadersCompleted, Decoded{
		Request:  request,
		Proto:    h.proto,
		Consumed: h.n,
		Framing:  framing,
		Length:   length,
	}, nil
}

// framing picks the body framing out of the request header fields.
func (d *Decoder) framing(buf []byte, rawMethod http.Range, fields []http.Field) (Framing, int, error) {
	switch method.Parse(str(buf, rawMethod)) {
	case method.GET, method.HEAD:
		return FramingEmpty, 0, nil
	}

	var (
		hasLength, hasEncoding bool
		chunked, unsupported   bool
		codings                int
		length                 = -1
	)

	for _, field := range fields {
		switch name, value := str(buf, field.Name), str(buf, field.Value); {
		case strcomp.EqualFold(name, "content-length"):
			hasLength = true
			if len(value) == 0 {
				return 0, 0, status.ErrBadContentLength
			}

			for len(value) > 0 {
				var token string
				token, value = nextToken(value)
				n, ok := parseContentLength(token)
				if !ok || (length != -1 && n != length) {
					return 0, 0, status.ErrBadContentLength
				}

				length = n
			}
		case strcomp.EqualFold(name, "transfer-encoding"):
			hasEncoding = true
			for len(value) > 0 {
				var token string
				if token, value = nextToken(value); len(token) == 0 {
					continue
				}

				codings++
				if strcomp.EqualFold(token, "chunked") {
					chunked = true
				} else {
					unsupported = true
				}
			}
		}
	}

	switch {
	case hasLength && hasEncoding:
		return 0, 0, status.ErrAmbiguousFraming
	case hasEncoding:
		if codings == 0 {
			return 0, 0, status.ErrBadRequest
		}

		if unsupported || !chunked || codings > 1 {
			return 0, 0, status.ErrUnsupportedEncoding
		}

		return FramingChunked, 0, nil
	case hasLength:
		if uint64(length) > d.cfg.Body.MaxSize {
			return 0, 0, status.ErrBodyTooLarge
		}

		if length == 0 {
			return FramingEmpty, 0, nil
		}

		return FramingFixed, length, nil
	default:
		return FramingEmpty, 0, nil
	}
}

// nextToken cuts the first element of a comma-separated list, trimming it.
func nextToken(list string) (token, rest string) {
	token, rest, _ = strings.Cut(list, ",")
	return strings.Trim(token, " \t"), rest
}

func str(buf []byte, rng http.Range) string {
	return uf.B2S(buf[rng.Start:rng.End])
}

// parseContentLength parses a non-negative decimal. Signs, whitespaces and other
// characters aren't allowed.
func parseContentLength(raw string) (n int, ok bool) {
	if len(raw) == 0 {
		return 0, false
	}

	for i := 0; i < len(raw); i++ {
		char := raw[i] - '0'
		if char > 9 {
			return 0, false
		}

		if n > (math.MaxInt-int(char))/10 {
			return 0, false
		}

		n = n*10 + int(char)
	}

	return n, true
}
