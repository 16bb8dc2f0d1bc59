package filter

import (
	"crosstown.dev/pkg/encoders/event"
	"lol.mleku.dev/errorf"
)

// S is the list of filters attached to a subscription; an event matching
// any element matches the subscription.
type S []*F

// Match checks if a set of filters matches on an event.E.
func (s *S) Match(ev *event.E) bool {
	for _, f := range *s {
		if f.Matches(ev) {
			return true
		}
	}
	return false
}

// Marshal encodes a slice of filters as a JSON array of objects. It appends
// the result to dst and returns the resulting slice.
func (s S) Marshal(dst []byte) (b []byte) {
	b = dst
	b = append(b, '[')
	first := false
	for _, f := range s {
		if f == nil {
			continue
		}
		if first {
			b = append(b, ',')
		} else {
			first = true
		}
		b = f.Marshal(b)
	}
	b = append(b, ']')
	return
}

// Unmarshal decodes one or more filters from a JSON array.
func (s *S) Unmarshal(b []byte) (r []byte, err error) {
	r = b
	if len(r) == 0 {
		return
	}
	if r[0] == '[' {
		r = r[1:]
	}
	// handle empty array
	if len(r) > 0 && r[0] == ']' {
		r = r[1:]
		return
	}
	for {
		if len(r) == 0 {
			return
		}
		f := New()
		var rem []byte
		if rem, err = f.Unmarshal(r); err != nil {
			return
		}
		*s = append(*s, f)
		r = rem
		if len(r) == 0 {
			return
		}
		if r[0] == ',' {
			r = r[1:]
			continue
		}
		if r[0] == ']' {
			r = r[1:]
			return
		}
		err = errorf.E(
			"filters: expected ',' or ']' after filter, got: %q", r[0],
		)
		return
	}
}
