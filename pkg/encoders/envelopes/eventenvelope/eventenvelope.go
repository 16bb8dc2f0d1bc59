// Package eventenvelope provides the EVENT message a relay sends to a
// subscriber. The event body travels as the base64 of its binary encoding
// rather than the JSON object form of canonical nostr; the binary form is
// also the one the payment was priced on, so clients can verify what they
// paid for byte by byte.
package eventenvelope

import (
	"encoding/base64"
	"io"

	"lol.mleku.dev/chk"
	"lol.mleku.dev/errorf"

	"crosstown.dev/pkg/encoders/envelopes"
	"crosstown.dev/pkg/encoders/event"
	"crosstown.dev/pkg/encoders/text"
	"crosstown.dev/pkg/encoders/toon"
	"crosstown.dev/pkg/interfaces/codec"
)

// L is the label associated with this type of codec.Envelope.
const L = "EVENT"

// Result is an EVENT message as sent from relay to subscriber: the
// subscription id and the event.
type Result struct {
	Subscription []byte
	E            *event.E
}

var _ codec.Envelope = (*Result)(nil)

// NewResult creates an empty Result.
func NewResult() *Result { return new(Result) }

// NewResultWith creates a Result carrying an event under a subscription id.
func NewResultWith[V string | []byte](id V, ev *event.E) (res *Result, err error) {
	if ev == nil {
		err = errorf.E("eventenvelope: nil event")
		return
	}
	res = &Result{Subscription: []byte(id), E: ev}
	return
}

// Label returns the label of an eventenvelope.Result.
func (en *Result) Label() string { return L }

// Write the Result to a provided io.Writer. An event that fails to encode
// writes nothing: a partial frame is worse than a dropped event.
func (en *Result) Write(w io.Writer) (err error) {
	var b []byte
	if b, err = en.MarshalChecked(nil); err != nil {
		return
	}
	_, err = w.Write(b)
	return
}

// MarshalChecked renders the envelope, surfacing codec errors instead of
// panicking on a malformed event.
func (en *Result) MarshalChecked(dst []byte) (b []byte, err error) {
	b = dst
	var enc []byte
	if enc, err = toon.Encode(en.E); err != nil {
		return
	}
	b = envelopes.Marshal(
		dst, L,
		func(bst []byte) (o []byte) {
			o = bst
			o = text.AppendQuote(o, en.Subscription, text.NostrEscape)
			o = append(o, ',', '"')
			o = base64.StdEncoding.AppendEncode(o, enc)
			o = append(o, '"')
			return
		},
	)
	return
}

// Marshal renders the envelope; on codec failure nothing is appended and dst
// is returned unchanged.
func (en *Result) Marshal(dst []byte) (b []byte) {
	b, _ = en.MarshalChecked(dst)
	return
}

// Unmarshal a Result from minified JSON, returning the remainder after the
// end of the envelope.
func (en *Result) Unmarshal(b []byte) (r []byte, err error) {
	r = b
	if en.Subscription, r, err = text.UnmarshalQuoted(r); chk.E(err) {
		return
	}
	if r, err = text.Comma(r); chk.E(err) {
		return
	}
	var payload []byte
	if payload, r, err = text.UnmarshalQuoted(r); chk.E(err) {
		return
	}
	var raw []byte
	if raw, err = base64.StdEncoding.AppendDecode(
		nil, payload,
	); chk.E(err) {
		return
	}
	if en.E, err = toon.Decode(raw); chk.E(err) {
		return
	}
	if r, err = envelopes.SkipToTheEnd(r); chk.E(err) {
		return
	}
	return
}

// Parse reads an EVENT envelope from minified JSON into a newly allocated
// Result.
func Parse(b []byte) (t *Result, rem []byte, err error) {
	t = NewResult()
	if rem, err = t.Unmarshal(b); chk.E(err) {
		return
	}
	return
}
