package http

import (
	"github.com/indigo-web/lattice/http/status"
	"github.com/indigo-web/lattice/kv"
	"github.com/indigo-web/utils/uf"
	json "github.com/json-iterator/go"
)

// Serializer encodes a response onto the wire.
type Serializer interface {
	// Head writes the status line and the header fields. Negative length means the length
	// isn't known in advance and the body is going to be streamed.
	Head(code status.Code, headers *kv.Storage, length int) error
	// Body writes a piece of the message body.
	Body(p []byte) error
	// Flush transmits everything buffered so far.
	Flush() error
	// End finishes the message and transmits it.
	End() error
}

// WriterState is the progress of a response transmission.
type WriterState uint8

const (
	NotStarted WriterState = iota
	HeadersSent
	Streaming
	Finished
)

// preallocRespHeaders is the initial capacity of the response header list.
const preallocRespHeaders = 8

// ResponseWriter builds the response. The body is buffered by default and is sent with a
// known length once the handler returns. Flushing, as well as outgrowing the buffer, commits
// the status line and the headers. After that the rest of the body is streamed.
type ResponseWriter struct {
	serializer Serializer
	code       status.Code
	headers    *kv.Storage
	buff       []byte
	maxBuff    int
	state      WriterState
}

func NewResponseWriter(serializer Serializer, buffSize, maxBuffSize int) *ResponseWriter {
	return &ResponseWriter{
		serializer: serializer,
		code:       status.OK,
		headers:    kv.NewPrealloc(preallocRespHeaders),
		buff:       make([]byte, 0, buffSize),
		maxBuff:    maxBuffSize,
	}
}

// Code sets the response status code.
func (w *ResponseWriter) Code(code status.Code) error {
	if w.state != NotStarted {
		return status.ErrHeadersSent
	}

	w.code = code
	return nil
}

// Header adds a header field. Previously added fields with the same name are kept.
func (w *ResponseWriter) Header(key, value string) error {
	if w.state != NotStarted {
		return status.ErrHeadersSent
	}

	w.headers.Add(key, value)
	return nil
}

// Headers returns the header fields added so far. They must not be modified directly.
func (w *ResponseWriter) Headers() *kv.Storage {
	return w.headers
}

// StatusCode returns the current status code.
func (w *ResponseWriter) StatusCode() status.Code {
	return w.code
}

// Write implements io.Writer.
func (w *ResponseWriter) Write(p []byte) (int, error) {
	switch w.state {
	case NotStarted:
		if len(w.buff)+len(p) <= w.maxBuff {
			w.buff = append(w.buff, p...)
			return len(p), nil
		}

		if err := w.commit(); err != nil {
			return 0, err
		}
	case Finished:
		return 0, status.ErrResponseFinished
	}

	if len(p) == 0 {
		return 0, nil
	}

	w.state = Streaming
	if err := w.serializer.Body(p); err != nil {
		return 0, err
	}

	return len(p), nil
}

// String writes the string into the body.
func (w *ResponseWriter) String(s string) error {
	_, err := w.Write(uf.S2B(s))
	return err
}

// JSON encodes the model into the body. Content-Type is set to application/json unless
// it was already set.
func (w *ResponseWriter) JSON(model any) error {
	if w.state == NotStarted && !w.headers.Has("Content-Type") {
		w.headers.Add("Content-Type", "application/json")
	}

	stream := json.ConfigDefault.BorrowStream(w)
	stream.WriteVal(model)
	err := stream.Error
	if err == nil {
		err = stream.Flush()
	}
	json.ConfigDefault.ReturnStream(stream)

	return err
}

// Flush commits the headers, if they weren't yet, and transmits everything written so
// far. The body is streamed from now on.
func (w *ResponseWriter) Flush() error {
	switch w.state {
	case NotStarted:
		if err := w.commit(); err != nil {
			return err
		}
	case Finished:
		return status.ErrResponseFinished
	}

	return w.serializer.Flush()
}

// End finishes the response. Consequent writes fail with status.ErrResponseFinished.
// The server ends the response implicitly once the handler returns.
func (w *ResponseWriter) End() error {
	switch w.state {
	case NotStarted:
		w.state = Finished
		if err := w.serializer.Head(w.code, w.headers, len(w.buff)); err != nil {
			return err
		}

		if len(w.buff) > 0 {
			if err := w.serializer.Body(w.buff); err != nil {
				return err
			}
		}
	case Finished:
		return nil
	}

	w.state = Finished
	return w.serializer.End()
}

func (w *ResponseWriter) State() WriterState {
	return w.state
}

// Committed reports whether anything of the response was already handed over for
// transmission.
func (w *ResponseWriter) Committed() bool {
	return w.state != NotStarted
}

// Finished reports whether the response was completed.
func (w *ResponseWriter) Finished() bool {
	return w.state == Finished
}

// Discard drops everything buffered so far, including the code and headers. It has no
// effect on committed responses.
func (w *ResponseWriter) Discard() {
	if w.state != NotStarted {
		return
	}

	w.code = status.OK
	w.headers.Clear()
	w.buff = w.buff[:0]
}

// Reset prepares the writer for the next response.
func (w *ResponseWriter) Reset() {
	w.state = NotStarted
	w.Discard()
}

func (w *ResponseWriter) commit() error {
	w.state = HeadersSent
	if err := w.serializer.Head(w.code, w.headers, -1); err != nil {
		return err
	}

	if len(w.buff) > 0 {
		w.state = Streaming
		err := w.serializer.Body(w.buff)
		w.buff = w.buff[:0]
		return err
	}

	return nil
}
