package method

type Method uint8

const (
	// Unknown stands for an extension method: a syntactically valid token nobody has
	// registered a constant for. Its raw form is available from the request.
	Unknown Method = iota
	GET
	HEAD
	POST
	PUT
	DELETE
	CONNECT
	OPTIONS
	TRACE
	PATCH
)

// List contains all the known HTTP methods, sorted by their integer value.
var List = []Method{GET, HEAD, POST, PUT, DELETE, CONNECT, OPTIONS, TRACE, PATCH}

func (m Method) String() string {
	lut := [...]string{
		Unknown: "UNKNOWN", GET: "GET", HEAD: "HEAD", POST: "POST", PUT: "PUT",
		DELETE: "DELETE", CONNECT: "CONNECT", OPTIONS: "OPTIONS", TRACE: "TRACE", PATCH: "PATCH",
	}
	if int(m) >= len(lut) {
		return ""
	}

	return lut[m]
}

// Parse maps a method token onto a known method. Methods are case-sensitive, therefore
// "get" results in Unknown.
func Parse(str string) Method {
	switch len(str) {
	case 3:
		if str == "GET" {
			return GET
		} else if str == "PUT" {
			return PUT
		}
	case 4:
		if str == "POST" {
			return POST
		} else if str == "HEAD" {
			return HEAD
		}
	case 5:
		if str == "PATCH" {
			return PATCH
		} else if str == "TRACE" {
			return TRACE
		}
	case 6:
		if str == "DELETE" {
			return DELETE
		}
	case 7:
		if str == "CONNECT" {
			return CONNECT
		} else if str == "OPTIONS" {
			return OPTIONS
		}
	}

	return Unknown
}

// IsToken reports whether b is a valid method token (RFC 9110, 5.6.2). Any such token is
// an acceptable method, whether known or an extension one.
func IsToken(b []byte) bool {
	if len(b) == 0 {
		return false
	}

	for _, c := range b {
		if !IsTokenChar(c) {
			return false
		}
	}

	return true
}

// IsTokenChar reports whether c is a tchar.
func IsTokenChar(c byte) bool {
	return tchars[c]
}

var tchars = func() (lut [256]bool) {
	for c := '0'; c <= '9'; c++ {
		lut[c] = true
	}
	for c := 'a'; c <= 'z'; c++ {
		lut[c] = true
	}
	for c := 'A'; c <= 'Z'; c++ {
		lut[c] = true
	}
	for _, c := range "!#$%&'*+-.^_`|~" {
		lut[c] = true
	}

	return lut
}()
