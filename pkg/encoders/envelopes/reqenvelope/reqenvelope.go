// Package reqenvelope is a message from a client to a relay containing a
// subscription identifier and an array of filters to search for events.
package reqenvelope

import (
	"io"

	"lol.mleku.dev/chk"

	"crosstown.dev/pkg/encoders/envelopes"
	"crosstown.dev/pkg/encoders/filter"
	"crosstown.dev/pkg/encoders/text"
	"crosstown.dev/pkg/interfaces/codec"
)

// L is the label associated with this type of codec.Envelope.
const L = "REQ"

// T is a filter/subscription request envelope that can contain multiple
// filters. These prompt the relay to search its event store and return all
// events, then continue to return newly received events after it returns an
// eoseenvelope.T.
type T struct {
	Subscription []byte
	Filters      filter.S
}

var _ codec.Envelope = (*T)(nil)

// New creates a new empty reqenvelope.T.
func New() *T { return new(T) }

// NewFrom creates a new reqenvelope.T with a provided subscription id and
// filter list.
func NewFrom[V string | []byte](id V, ff filter.S) *T {
	return &T{
		Subscription: []byte(id),
		Filters:      ff,
	}
}

// Label returns the label of a reqenvelope.T.
func (en *T) Label() string { return L }

// Write the REQ T to a provided io.Writer.
func (en *T) Write(w io.Writer) (err error) {
	_, err = w.Write(en.Marshal(nil))
	return
}

// Marshal a reqenvelope.T envelope into minified JSON, appending to a
// provided destination slice.
func (en *T) Marshal(dst []byte) (b []byte) {
	b = dst
	b = envelopes.Marshal(
		b, L,
		func(bst []byte) (o []byte) {
			o = bst
			o = text.AppendQuote(o, en.Subscription, text.NostrEscape)
			for _, f := range en.Filters {
				o = append(o, ',')
				o = f.Marshal(o)
			}
			return
		},
	)
	return
}

// Unmarshal into a reqenvelope.T from minified JSON, returning the
// remainder after the end of the envelope.
func (en *T) Unmarshal(b []byte) (r []byte, err error) {
	r = b
	if en.Subscription, r, err = text.UnmarshalQuoted(r); chk.E(err) {
		return
	}
	if len(r) > 0 && r[0] == ']' {
		// no filters at all
		return envelopes.SkipToTheEnd(r)
	}
	if r, err = text.Comma(r); chk.E(err) {
		return
	}
	if r, err = en.Filters.Unmarshal(r); chk.E(err) {
		return
	}
	if r, err = envelopes.SkipToTheEnd(r); chk.E(err) {
		return
	}
	return
}

// Parse reads a REQ envelope from minified JSON into a newly allocated
// reqenvelope.T.
func Parse(b []byte) (t *T, rem []byte, err error) {
	t = New()
	if rem, err = t.Unmarshal(b); chk.E(err) {
		return
	}
	return
}
