package http

import (
	"github.com/indigo-web/lattice/http/method"
	"github.com/indigo-web/lattice/http/proto"
	"github.com/indigo-web/utils/uf"
)

// Range is a half-open interval [Start, End) of offsets into the buffer a request was
// decoded from.
type Range struct {
	Start, End int
}

func (r Range) Len() int {
	return r.End - r.Start
}

// Field is a single header field line. The name is stored verbatim, exactly as the peer
// sent it.
type Field struct {
	Name, Value Range
}

// Generation identifies the contents of a reusable buffer. Every time the buffer is
// compacted, its generation is incremented and everything decoded from it before turns
// stale.
type Generation uint64

// Request is a read-only view of a decoded request head. It stores no strings on its own,
// only offsets into the connection buffer, so the request, all the strings it returns and
// everything obtained from its Headers are valid only until the handler returns. Once the
// connection moves on to the next request, every accessor panics with ErrStaleRequest.
// Copy the values (e.g. via strings.Clone) in order to retain them.
type Request struct {
	buf       []byte
	gen       Generation
	live      *Generation
	method    method.Method
	rawMethod Range
	path      Range
	proto     proto.Proto
	fields    []Field
	body      Body
}

// NewRequest builds a view over buf. The view stays valid as long as *live equals
// the generation it had at the moment of the call.
func NewRequest(
	buf []byte, live *Generation, rawMethod, path Range, p proto.Proto, fields []Field, body Body,
) *Request {
	return &Request{
		buf:       buf,
		gen:       *live,
		live:      live,
		method:    method.Parse(uf.B2S(buf[rawMethod.Start:rawMethod.End])),
		rawMethod: rawMethod,
		path:      path,
		proto:     p,
		fields:    fields,
		body:      body,
	}
}

func (r *Request) check() {
	if r.gen != *r.live {
		panic(ErrStaleRequest)
	}
}

// Valid reports whether the request still refers to the current buffer contents. Unlike
// every other accessor, it never panics.
func (r *Request) Valid() bool {
	return r.gen == *r.live
}

// Generation returns the buffer generation the request was decoded at.
func (r *Request) Generation() Generation {
	return r.gen
}

// Method returns the request method. Extension methods result in method.Unknown, their
// actual token is available via RawMethod.
func (r *Request) Method() method.Method {
	r.check()
	return r.method
}

func (r *Request) RawMethod() string {
	return r.String(r.rawMethod)
}

// Path returns the request target as is, without any percent-decoding.
func (r *Request) Path() string {
	return r.String(r.path)
}

func (r *Request) Proto() proto.Proto {
	r.check()
	return r.proto
}

func (r *Request) Headers() Headers {
	r.check()
	return Headers{r: r}
}

// Body returns the message body. Requests without body return an always empty one.
func (r *Request) Body() Body {
	r.check()
	return r.body
}

// Bytes returns the bytes rng refers to, without copying.
func (r *Request) Bytes(rng Range) []byte {
	r.check()
	return r.buf[rng.Start:rng.End]
}

// String is the same as Bytes, but returns a string instead.
func (r *Request) String(rng Range) string {
	return uf.B2S(r.Bytes(rng))
}
