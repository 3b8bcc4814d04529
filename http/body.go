package http

import (
	"errors"
	"io"
)

// ErrStaleRequest is the panic value of accessors of a request outliving the buffer
// contents it was decoded from.
var ErrStaleRequest = errors.New("request is used after its buffer was reused")

// Body is the message body stream. It never yields bytes past the framing boundary of
// its own message. Any error except io.EOF is sticky: once returned, it is returned
// from every subsequent call.
type Body interface {
	io.Reader
	// Bytes reads the rest of the body and returns it at once. The returned slice is owned
	// by the connection and is valid until the handler returns.
	Bytes() ([]byte, error)
	// String is the same as Bytes, but returns a string instead.
	String() (string, error)
	// Discard reads and drops the rest of the body. Nil is returned if the body was read
	// till its end.
	Discard() error
}

// NoBody is the body of messages without one.
var NoBody Body = noBody{}

type noBody struct{}

func (noBody) Read([]byte) (int, error) {
	return 0, io.EOF
}

func (noBody) Bytes() ([]byte, error) {
	return nil, nil
}

func (noBody) String() (string, error) {
	return "", nil
}

func (noBody) Discard() error {
	return nil
}
