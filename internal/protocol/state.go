package protocol

// RequestState represents the state of the request's decoding
type RequestState uint8

const (
	// Pending means the request head isn't complete yet and more data is required.
	Pending RequestState = iota + 1
	// HeadersCompleted means the request head is fully decoded.
	HeadersCompleted
	// Error means the request head is malformed. The connection can't be recovered.
	Error
)
