// Package eoseenvelope provides the EOSE message marking the boundary
// between a subscription's stored results and its live stream.
package eoseenvelope

import (
	"io"

	"lol.mleku.dev/chk"

	"crosstown.dev/pkg/encoders/envelopes"
	"crosstown.dev/pkg/encoders/text"
	"crosstown.dev/pkg/interfaces/codec"
)

// L is the label associated with this type of codec.Envelope.
const L = "EOSE"

// T is an EOSE envelope: all stored events for the subscription have been
// sent; what follows is live.
type T struct {
	Subscription []byte
}

var _ codec.Envelope = (*T)(nil)

// New creates an empty eoseenvelope.T.
func New() *T { return new(T) }

// NewFrom creates an eoseenvelope.T for a subscription id.
func NewFrom[V string | []byte](id V) *T { return &T{Subscription: []byte(id)} }

// Label returns the label of an eoseenvelope.T.
func (en *T) Label() string { return L }

// Write the eoseenvelope.T to a provided io.Writer.
func (en *T) Write(w io.Writer) (err error) {
	_, err = w.Write(en.Marshal(nil))
	return
}

// Marshal an eoseenvelope.T in minified JSON, appending to dst.
func (en *T) Marshal(dst []byte) (b []byte) {
	b = dst
	b = envelopes.Marshal(
		b, L,
		func(bst []byte) (o []byte) {
			o = bst
			o = text.AppendQuote(o, en.Subscription, text.NostrEscape)
			return
		},
	)
	return
}

// Unmarshal an eoseenvelope.T from minified JSON, returning the remainder
// after the end of the envelope.
func (en *T) Unmarshal(b []byte) (r []byte, err error) {
	r = b
	if en.Subscription, r, err = text.UnmarshalQuoted(r); chk.E(err) {
		return
	}
	if r, err = envelopes.SkipToTheEnd(r); chk.E(err) {
		return
	}
	return
}
