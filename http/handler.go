package http

// Handler serves a single request. It is called exactly once per decoded request, and
// calls within a single connection never overlap. Neither the request nor anything
// obtained from it may be retained after the call returns.
//
// A panic inside the handler is recovered by the server: unless anything was already
// transmitted, the peer gets 500 Internal Server Error. The connection is closed in
// either case.
type Handler interface {
	Handle(r *Request, w *ResponseWriter)
}

// HandlerFunc adapts an ordinary function to the Handler interface.
type HandlerFunc func(r *Request, w *ResponseWriter)

func (f HandlerFunc) Handle(r *Request, w *ResponseWriter) {
	f(r, w)
}
