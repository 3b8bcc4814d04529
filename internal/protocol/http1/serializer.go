package http1

import (
	"maps"
	"slices"
	"strconv"

	"github.com/indigo-web/lattice/config"
	"github.com/indigo-web/lattice/http"
	"github.com/indigo-web/lattice/http/proto"
	"github.com/indigo-web/lattice/http/status"
	"github.com/indigo-web/lattice/kv"
	"github.com/indigo-web/lattice/transport"
	"github.com/indigo-web/utils/strcomp"
)

var _ http.Serializer = new(serializer)

type bodyMode uint8

const (
	bodyNone bodyMode = iota
	bodyIdentity
	bodyChunked
)

const (
	crlf             = "\r\n"
	continueResponse = "HTTP/1.1 100 Continue\r\n\r\n"
	chunkZeroTrailer = "0\r\n\r\n"
)

// serializer encodes responses in HTTP/1.x wire format. The response head and small bodies
// are accumulated in a single buffer, so they are usually transmitted by a single write.
type serializer struct {
	cfg            *config.Config
	client         transport.Client
	buff           []byte
	defaultHeaders defaultHeaders
	protocol       proto.Proto
	// head means the request method is HEAD, so no body bytes are transmitted
	head bool
	// close means the connection is going to be closed after the response is sent
	close bool
	mode  bodyMode
	// connection holds the Connection headers set by the handler until it's known
	// whether the connection stays alive
	connection []kv.Pair
}

func newSerializer(cfg *config.Config, client transport.Client) *serializer {
	return &serializer{
		cfg:            cfg,
		client:         client,
		buff:           make([]byte, 0, cfg.NET.WriteBufferSize.Default),
		defaultHeaders: preprocessDefaultHeaders(cfg.Headers.Default),
	}
}

// prepare sets up the serializer for the response to a request.
func (s *serializer) prepare(protocol proto.Proto, head, keepAlive bool) {
	s.protocol = protocol
	s.head = head
	s.close = !keepAlive
	s.mode = bodyNone
}

// closing reports whether the connection must be closed after the response.
func (s *serializer) closing() bool {
	return s.close
}

// Continue transmits the interim 100 Continue response.
func (s *serializer) Continue() error {
	_, err := s.client.Write([]byte(continueResponse))
	return err
}

func (s *serializer) Head(code status.Code, headers *kv.Storage, length int) error {
	s.appendProtocol()
	s.appendStatus(code)

	s.connection = s.connection[:0]

	for _, header := range headers.Expose() {
		switch {
		case strcomp.EqualFold(header.Key, "content-length"),
			strcomp.EqualFold(header.Key, "transfer-encoding"):
			// framing is up to the serializer
			continue
		case strcomp.EqualFold(header.Key, "connection"):
			if hasToken(header.Value, "close") {
				s.close = true
			}

			s.defaultHeaders.Exclude(header.Key)
			s.connection = append(s.connection, header)
			continue
		}

		s.defaultHeaders.Exclude(header.Key)
		s.appendHeader(header)
	}

	for _, header := range s.defaultHeaders {
		if !header.Excluded {
			s.buff = append(s.buff, header.Full...)
		}
	}

	s.defaultHeaders.Reset()

	switch {
	case code.Bodyless():
		s.mode = bodyNone
	case length >= 0:
		s.mode = bodyIdentity
		s.appendContentLength(length)
		if !s.head {
			s.growToContain(length + len(crlf))
		}
	case s.protocol == proto.HTTP10:
		// HTTP/1.0 has no chunked encoding, so the end of the body is signalled by
		// closing the connection
		s.mode = bodyIdentity
		s.close = true
	default:
		s.mode = bodyChunked
		s.appendKnownHeader("Transfer-Encoding: ", "chunked")
	}

	switch {
	case !s.close:
		for _, header := range s.connection {
			s.appendHeader(header)
		}
	case s.protocol != proto.HTTP10:
		// whatever the handler asked for, the connection is going to be closed
		s.appendKnownHeader("Connection: ", "close")
	}

	s.crlf()

	return nil
}

func (s *serializer) Body(p []byte) error {
	if s.head || len(p) == 0 {
		return nil
	}

	switch s.mode {
	case bodyIdentity:
		return s.safeAppend(p)
	case bodyChunked:
		s.buff = strconv.AppendUint(s.buff, uint64(len(p)), 16)
		s.crlf()
		if err := s.safeAppend(p); err != nil {
			return err
		}

		s.crlf()
		return nil
	default:
		return nil
	}
}

func (s *serializer) Flush() error {
	if len(s.buff) > 0 {
		_, err := s.client.Write(s.buff)
		s.buff = s.buff[:0]
		return err
	}

	return nil
}

func (s *serializer) End() error {
	if s.mode == bodyChunked && !s.head {
		s.buff = append(s.buff, chunkZeroTrailer...)
	}

	return s.Flush()
}

// safeAppend appends data into the limited capacity buffer. Whenever the buffer is full,
// it's flushed, freeing thereby space for the rest.
func (s *serializer) safeAppend(data []byte) error {
	for len(data) > 0 {
		freeSpace := cap(s.buff) - len(s.buff)

		if len(data) <= freeSpace {
			s.buff = append(s.buff, data...)
			return nil
		}

		s.buff = append(s.buff, data[:freeSpace]...)
		if err := s.Flush(); err != nil {
			return err
		}

		data = data[freeSpace:]
	}

	return nil
}

func (s *serializer) growToContain(n int) {
	extra := min(s.cfg.NET.WriteBufferSize.Maximal-len(s.buff), n)
	if extra <= cap(s.buff)-len(s.buff) {
		return
	}

	s.buff = slices.Grow(s.buff, extra)
}

func (s *serializer) appendProtocol() {
	protocol := s.protocol
	if protocol == proto.Unknown {
		// in case the request line was malformed, the decoder had no chance of reaching
		// the protocol and thereby resulting in the unknown one.
		protocol = proto.HTTP11
	}

	s.buff = append(s.buff, protocol.String()...)
}

func (s *serializer) appendStatus(code status.Code) {
	s.buff = strconv.AppendUint(s.buff, uint64(code), 10)
	s.buff = append(s.buff, ' ')
	s.buff = append(s.buff, status.Text(code)...)
	s.crlf()
}

// appendHeader writes a complete header field line.
func (s *serializer) appendHeader(header kv.Pair) {
	s.buff = append(s.buff, header.Key...)
	s.buff = append(s.buff, ':', ' ')
	s.buff = append(s.buff, header.Value...)
	s.crlf()
}

// appendKnownHeader differs from appendHeader only by the fact that the key is known to already
// have a colon and a space included.
func (s *serializer) appendKnownHeader(key, value string) {
	s.buff = append(s.buff, key...)
	s.buff = append(s.buff, value...)
	s.crlf()
}

func (s *serializer) appendContentLength(value int) {
	s.buff = append(s.buff, "Content-Length: "...)
	s.buff = strconv.AppendUint(s.buff, uint64(value), 10)
	s.crlf()
}

func (s *serializer) crlf() {
	s.buff = append(s.buff, crlf...)
}

func preprocessDefaultHeaders(headers map[string]string) defaultHeaders {
	processed := make(defaultHeaders, 0, len(headers))

	for _, key := range slices.Sorted(maps.Keys(headers)) {
		serialized := key + ": " + headers[key] + crlf
		processed = append(processed, defaultHeader{
			// we let the GC release all the values of the map, as here we're using only
			// the brand-new line without keeping the original string
			Key:  serialized[:len(key)],
			Full: serialized,
		})
	}

	return processed
}

type defaultHeader struct {
	Excluded bool
	Key      string
	Full     string
}

type defaultHeaders []defaultHeader

func (d defaultHeaders) Exclude(key string) {
	for i, header := range d {
		if strcomp.EqualFold(header.Key, key) {
			header.Excluded = true
			d[i] = header
			return
		}
	}
}

func (d defaultHeaders) Reset() {
	for i := range d {
		d[i].Excluded = false
	}
}

// hasToken reports whether the comma-separated list contains the token, compared
// case-insensitively.
func hasToken(list, token string) bool {
	for len(list) > 0 {
		var elem string
		if elem, list = nextToken(list); strcomp.EqualFold(elem, token) {
			return true
		}
	}

	return false
}
