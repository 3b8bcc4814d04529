package proto

import "github.com/indigo-web/utils/uf"

type Proto uint8

const (
	Unknown Proto = 0
	HTTP10  Proto = 1 << iota
	HTTP11

	HTTP1 = HTTP10 | HTTP11
)

// String returns protocol as a string WITH A TRAILING SPACE, so it can be used as a
// status line prefix as is.
func (p Proto) String() string {
	lut := [...]string{HTTP10: "HTTP/1.0 ", HTTP11: "HTTP/1.1 "}
	if int(p) >= len(lut) {
		return ""
	}

	return lut[p]
}

const (
	protoTokenLength   = len("HTTP/x.x")
	majorVersionOffset = len("HTTP/x") - 1
	minorVersionOffset = len("HTTP/x.x") - 1
	httpScheme         = "HTTP/"
)

// FromBytes parses the protocol token. Well-formed but unsupported versions (e.g. HTTP/2.0
// or HTTP/1.2) result in Unknown, as well as malformed ones. Use Valid to tell them apart.
func FromBytes(raw []byte) Proto {
	if !Valid(raw) {
		return Unknown
	}

	return Parse(raw[majorVersionOffset]-'0', raw[minorVersionOffset]-'0')
}

// Valid reports whether the token is syntactically a HTTP-version.
func Valid(raw []byte) bool {
	if len(raw) != protoTokenLength || uf.B2S(raw[:majorVersionOffset]) != httpScheme {
		return false
	}

	return isDigit(raw[majorVersionOffset]) && raw[majorVersionOffset+1] == '.' && isDigit(raw[minorVersionOffset])
}

func Parse(major, minor uint8) Proto {
	if major != 1 {
		return Unknown
	}

	switch minor {
	case 0:
		return HTTP10
	case 1:
		return HTTP11
	default:
		return Unknown
	}
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
