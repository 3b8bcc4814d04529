package http1

import (
	"bytes"

	"github.com/indigo-web/lattice/http"
	"github.com/indigo-web/lattice/http/method"
	"github.com/indigo-web/lattice/http/proto"
	"github.com/indigo-web/lattice/http/status"
)

// head describes the boundaries of a request head found by scan. All the ranges are
// relative to the scanned buffer.
type head struct {
	// n is the length of the head including the terminating empty line. Zero means the
	// head isn't complete yet.
	n      int
	method http.Range
	target http.Range
	proto  proto.Proto
	// fields is the number of header fields written into the passed slice.
	fields int
}

// maxVersionLine is the longest line a well-formed version token might occupy.
const maxVersionLine = len("HTTP/x.x\r\n")

// scan finds the boundaries of the request line and every header field line. It stores
// no state across calls: an incomplete head results in a zero-length head and must be
// re-scanned from the beginning, once more data is available. The capacity of the fields
// slice is the maximal number of header fields allowed.
func scan(buf []byte, fields []http.Field) (h head, err error) {
	i := 0

	// RFC 9112, 2.2: at least one empty line received prior to the request-line
	// should be ignored
	for ; ; i++ {
		if i >= len(buf) {
			return head{}, nil
		}

		switch buf[i] {
		case '\n':
			continue
		case '\r':
			if i+1 >= len(buf) {
				return head{}, nil
			}

			if buf[i+1] != '\n' {
				return head{}, status.ErrBadRequest
			}

			i++
			continue
		}

		break
	}

	sp := bytes.IndexByte(buf[i:], ' ')
	if sp == -1 {
		if !method.IsToken(buf[i:]) {
			return head{}, status.ErrBadMethod
		}

		return head{}, nil
	}

	if !method.IsToken(buf[i : i+sp]) {
		return head{}, status.ErrBadMethod
	}

	h.method = http.Range{Start: i, End: i + sp}
	i += sp + 1

	sp = bytes.IndexByte(buf[i:], ' ')
	if sp == -1 {
		if !isTarget(buf[i:]) {
			return head{}, status.ErrBadTarget
		}

		return head{}, nil
	}

	if sp == 0 || !isTarget(buf[i:i+sp]) {
		return head{}, status.ErrBadTarget
	}

	h.target = http.Range{Start: i, End: i + sp}
	i += sp + 1

	lf := bytes.IndexByte(buf[i:], '\n')
	if lf == -1 {
		if len(buf)-i >= maxVersionLine {
			return head{}, status.ErrBadVersion
		}

		return head{}, nil
	}

	version := trimCR(buf[i : i+lf])
	if !proto.Valid(version) {
		return head{}, status.ErrBadVersion
	}

	if h.proto = proto.FromBytes(version); h.proto == proto.Unknown {
		return head{}, status.ErrHTTPVersionNotSupported
	}

	i += lf + 1

	for {
		if i >= len(buf) {
			return head{}, nil
		}

		switch buf[i] {
		case '\n':
			h.n = i + 1
			return h, nil
		case '\r':
			if i+1 >= len(buf) {
				return head{}, nil
			}

			if buf[i+1] != '\n' {
				return head{}, status.ErrBadHeader
			}

			h.n = i + 2
			return h, nil
		case ' ', '\t':
			if h.fields == 0 {
				// whitespace in between the request line and the first header field
				return head{}, status.ErrBadHeader
			}

			return head{}, status.ErrObsoleteFolding
		}

		colon := i
		for ; colon < len(buf) && buf[colon] != ':'; colon++ {
			if !method.IsTokenChar(buf[colon]) {
				return head{}, status.ErrBadHeader
			}
		}

		if colon >= len(buf) {
			return head{}, nil
		}

		if colon == i {
			return head{}, status.ErrBadHeader
		}

		lf = bytes.IndexByte(buf[colon+1:], '\n')
		if lf == -1 {
			if !isFieldValue(trimCR(buf[colon+1:])) {
				return head{}, status.ErrBadHeader
			}

			return head{}, nil
		}

		next := colon + 1 + lf + 1
		value := http.Range{Start: colon + 1, End: colon + 1 + lf}
		if value.End > value.Start && buf[value.End-1] == '\r' {
			value.End--
		}

		if !isFieldValue(buf[value.Start:value.End]) {
			return head{}, status.ErrBadHeader
		}

		for value.Start < value.End && isOWS(buf[value.Start]) {
			value.Start++
		}

		for value.End > value.Start && isOWS(buf[value.End-1]) {
			value.End--
		}

		if h.fields >= len(fields) {
			return head{}, status.ErrTooManyHeaders
		}

		fields[h.fields] = http.Field{
			Name:  http.Range{Start: i, End: colon},
			Value: value,
		}
		h.fields++
		i = next
	}
}

func trimCR(b []byte) []byte {
	if len(b) > 0 && b[len(b)-1] == '\r' {
		return b[:len(b)-1]
	}

	return b
}

func isOWS(c byte) bool {
	return c == ' ' || c == '\t'
}

// isTarget reports whether b consists of visible US-ASCII characters only. The target is
// kept verbatim, so no further validation is done.
func isTarget(b []byte) bool {
	for _, c := range b {
		if c <= ' ' || c >= 0x7f {
			return false
		}
	}

	return true
}

// isFieldValue reports whether b contains no control characters except HTAB. obs-text is
// allowed.
func isFieldValue(b []byte) bool {
	for _, c := range b {
		if (c < ' ' && c != '\t') || c == 0x7f {
			return false
		}
	}

	return true
}
