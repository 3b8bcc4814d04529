package http

import (
	"iter"

	"github.com/indigo-web/utils/strcomp"
	"github.com/indigo-web/utils/uf"
)

// Headers provides access to the request header fields. Names are compared
// case-insensitively, values are never altered. Duplicates are preserved in their
// arrival order.
type Headers struct {
	r *Request
}

func (h Headers) lookup(name string) (Field, bool) {
	h.r.check()

	for _, field := range h.r.fields {
		if strcomp.EqualFold(h.r.str(field.Name), name) {
			return field, true
		}
	}

	return Field{}, false
}

// Get returns the value of the first field matching the name.
func (h Headers) Get(name string) (value string, found bool) {
	field, found := h.lookup(name)
	if !found {
		return "", false
	}

	return h.r.str(field.Value), true
}

// Value is the same as Get, but returns an empty string if nothing was found.
func (h Headers) Value(name string) string {
	value, _ := h.Get(name)
	return value
}

func (h Headers) Has(name string) bool {
	_, found := h.lookup(name)
	return found
}

// Values iterates over the values of all the fields matching the name.
func (h Headers) Values(name string) iter.Seq[string] {
	h.r.check()

	return func(yield func(string) bool) {
		for _, field := range h.r.fields {
			h.r.check()
			if strcomp.EqualFold(h.r.str(field.Name), name) && !yield(h.r.str(field.Value)) {
				return
			}
		}
	}
}

// Iter iterates over all the fields in their arrival order.
func (h Headers) Iter() iter.Seq2[string, string] {
	h.r.check()

	return func(yield func(string, string) bool) {
		for _, field := range h.r.fields {
			h.r.check()
			if !yield(h.r.str(field.Name), h.r.str(field.Value)) {
				return
			}
		}
	}
}

// Fields exposes the raw ranges. The returned slice must not be modified.
func (h Headers) Fields() []Field {
	h.r.check()
	return h.r.fields
}

func (h Headers) Len() int {
	h.r.check()
	return len(h.r.fields)
}

// str is an unchecked version of String, used after the check was already done.
func (r *Request) str(rng Range) string {
	return uf.B2S(r.buf[rng.Start:rng.End])
}
