package http1

import (
	"errors"
	"io"

	"github.com/indigo-web/lattice/http"
)

var errHeadTooLarge = errors.New("request head exceeds the read buffer")

// inbound is the accumulation buffer of a connection. The head of the current request
// is pinned at the beginning of the buffer, everything after it is the window of
// received but not yet consumed data. Body reads reuse the space after the head, so the
// head stays intact until the next request starts.
type inbound struct {
	memory []byte
	// head is the length of the pinned request head
	head     int
	pos, end int
	gen      http.Generation
	step     int
	maxSize  int
}

func newInbound(initialSize, maxSize int) *inbound {
	return &inbound{
		memory:  make([]byte, initialSize),
		step:    initialSize,
		maxSize: max(initialSize, maxSize),
	}
}

// compact releases the pinned head and moves the window to the beginning of the buffer.
// Everything decoded from the buffer before is invalidated.
func (i *inbound) compact() {
	n := copy(i.memory, i.memory[i.pos:i.end])
	i.head, i.pos, i.end = 0, 0, n
	i.gen++
}

// Generation returns the pointer to the live generation counter.
func (i *inbound) generation() *http.Generation {
	return &i.gen
}

func (i *inbound) window() []byte {
	return i.memory[i.pos:i.end]
}

func (i *inbound) empty() bool {
	return i.pos == i.end
}

// pin marks the first n bytes of the window as the request head.
func (i *inbound) pin(n int) {
	i.pos += n
	i.head = i.pos
}

// consume marks n bytes of the window as processed.
func (i *inbound) consume(n int) {
	i.pos += n
}

// take consumes at most n bytes of the window and returns them.
func (i *inbound) take(n int) []byte {
	data := i.memory[i.pos:i.end]
	if len(data) > n {
		data = data[:n]
	}

	i.pos += len(data)
	return data
}

// fillHead reads more data while the request head isn't complete yet. The buffer grows
// up to its maximal size, after which errHeadTooLarge is returned.
func (i *inbound) fillHead(r io.Reader) error {
	if i.end == len(i.memory) && !i.grow(false) {
		return errHeadTooLarge
	}

	return i.read(r)
}

// fillBody reads more data into the space after the head. The window must be fully
// consumed at this point.
func (i *inbound) fillBody(r io.Reader) error {
	i.pos, i.end = i.head, i.head
	if len(i.memory)-i.head < i.step/2 {
		// the head took up almost the whole buffer. The body still needs some space to
		// be read into, so extend the buffer even past the limit.
		i.grow(true)
	}

	return i.read(r)
}

func (i *inbound) read(r io.Reader) error {
	n, err := r.Read(i.memory[i.end:])
	i.end += n
	if n > 0 {
		return nil
	}

	if err == nil {
		err = io.ErrNoProgress
	}

	return err
}

// grow reallocates the buffer. The pinned head is copied as well, so views built over
// the old memory remain intact.
func (i *inbound) grow(force bool) bool {
	size := min(len(i.memory)*2, i.maxSize)
	if force {
		size = len(i.memory) + i.step
	}

	if size <= len(i.memory) {
		return false
	}

	memory := make([]byte, size)
	copy(memory, i.memory[:i.end])
	i.memory = memory

	return true
}
