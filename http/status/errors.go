package status

// HTTPError is an error that can be turned into a response on its own: the code goes into
// the status line, the message into the body.
type HTTPError struct {
	Message string
	Code    Code
}

func NewError(code Code, message string) error {
	return HTTPError{
		Code:    code,
		Message: message,
	}
}

func (h HTTPError) Error() string {
	return h.Message
}

var (
	ErrBadRequest              = NewError(BadRequest, "bad request")
	ErrBadMethod               = NewError(BadRequest, "malformed request method")
	ErrBadTarget               = NewError(BadRequest, "malformed request target")
	ErrBadVersion              = NewError(BadRequest, "malformed protocol version")
	ErrBadHeader               = NewError(BadRequest, "malformed header field")
	ErrObsoleteFolding         = NewError(BadRequest, "obsolete line folding is not allowed")
	ErrBadContentLength        = NewError(BadRequest, "invalid Content-Length value")
	ErrAmbiguousFraming        = NewError(BadRequest, "both Content-Length and Transfer-Encoding are set")
	ErrBadChunk                = NewError(BadRequest, "malformed chunk-encoded data")
	ErrBodyTooLarge            = NewError(RequestEntityTooLarge, "request body is too large")
	ErrTooManyHeaders          = NewError(RequestHeaderFieldsTooLarge, "too many headers")
	ErrHeaderFieldsTooLarge    = NewError(RequestHeaderFieldsTooLarge, "too large headers section")
	ErrInternalServerError     = NewError(InternalServerError, "internal server error")
	ErrNotImplemented          = NewError(NotImplemented, "not implemented")
	ErrUnsupportedEncoding     = NewError(NotImplemented, "transfer coding is not supported")
	ErrHTTPVersionNotSupported = NewError(HTTPVersionNotSupported, "HTTP version not supported")

	// ErrHeadersSent is returned by the response writer on an attempt to change the status
	// line or header fields after they were already transmitted.
	ErrHeadersSent = NewError(InternalServerError, "headers are already sent")
	// ErrResponseFinished is returned on writes after the response was completed.
	ErrResponseFinished = NewError(InternalServerError, "response is already finished")
)
