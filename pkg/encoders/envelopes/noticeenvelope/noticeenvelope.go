// Package noticeenvelope provides the NOTICE message a relay uses to send
// advisory, human readable information to a client.
package noticeenvelope

import (
	"io"

	"lol.mleku.dev/chk"

	"crosstown.dev/pkg/encoders/envelopes"
	"crosstown.dev/pkg/encoders/text"
	"crosstown.dev/pkg/interfaces/codec"
)

// L is the label associated with this type of codec.Envelope.
const L = "NOTICE"

// T is a NOTICE envelope carrying an advisory message.
type T struct {
	Message []byte
}

var _ codec.Envelope = (*T)(nil)

// New creates an empty noticeenvelope.T.
func New() *T { return new(T) }

// NewFrom creates a noticeenvelope.T with a message.
func NewFrom[V string | []byte](msg V) *T { return &T{Message: []byte(msg)} }

// Label returns the label of a noticeenvelope.T.
func (en *T) Label() string { return L }

// Write the noticeenvelope.T to a provided io.Writer.
func (en *T) Write(w io.Writer) (err error) {
	_, err = w.Write(en.Marshal(nil))
	return
}

// Marshal a noticeenvelope.T in minified JSON, appending to dst.
func (en *T) Marshal(dst []byte) (b []byte) {
	b = dst
	b = envelopes.Marshal(
		b, L,
		func(bst []byte) (o []byte) {
			o = bst
			o = text.AppendQuote(o, en.Message, text.NostrEscape)
			return
		},
	)
	return
}

// Unmarshal a noticeenvelope.T from minified JSON, returning the remainder
// after the end of the envelope.
func (en *T) Unmarshal(b []byte) (r []byte, err error) {
	r = b
	if en.Message, r, err = text.UnmarshalQuoted(r); chk.E(err) {
		return
	}
	if r, err = envelopes.SkipToTheEnd(r); chk.E(err) {
		return
	}
	return
}
