// Package envelopes provides the shared framing of the relay wire protocol:
// every message is a JSON array whose first element is a label string.
package envelopes

import (
	"lol.mleku.dev/chk"
	"lol.mleku.dev/errorf"

	"crosstown.dev/pkg/encoders/text"
)

// Marshal opens the envelope array, writes the quoted label and a comma,
// lets the callback render the payload elements, and closes the array.
func Marshal(
	dst []byte, label string, fn func([]byte) []byte,
) (b []byte) {
	b = dst
	b = append(b, '[', '"')
	b = append(b, label...)
	b = append(b, '"', ',')
	b = fn(b)
	b = append(b, ']')
	return
}

// Identify reads the label off the front of an envelope and returns it with
// the remainder, positioned after the comma (or at the closing bracket for
// a bare label).
func Identify(b []byte) (t string, rem []byte, err error) {
	rem = b
	for len(rem) > 0 && rem[0] != '[' {
		rem = rem[1:]
	}
	if len(rem) == 0 {
		err = errorf.E("envelopes: not an array")
		return
	}
	rem = rem[1:]
	var label []byte
	if label, rem, err = text.UnmarshalQuoted(rem); chk.E(err) {
		return
	}
	t = string(label)
	for len(rem) > 0 && (rem[0] == ' ' || rem[0] == '\t') {
		rem = rem[1:]
	}
	if len(rem) > 0 && rem[0] == ',' {
		rem = rem[1:]
	}
	return
}

// SkipToTheEnd consumes whitespace and the closing bracket of an envelope,
// tolerating input where an inner decoder already consumed it.
func SkipToTheEnd(b []byte) (r []byte, err error) {
	r = b
	for len(r) > 0 && (r[0] == ' ' || r[0] == '\t' || r[0] == '\n' ||
		r[0] == '\r') {
		r = r[1:]
	}
	if len(r) > 0 && r[0] == ']' {
		r = r[1:]
	}
	return
}
