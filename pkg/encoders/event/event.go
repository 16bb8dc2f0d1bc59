// Package event provides the primary datatype of nostr, the event, in the
// runtime form used across the relay: binary id/pubkey/sig fields and byte
// slice content, with codecs for the canonical JSON form.
package event

import (
	"crosstown.dev/pkg/encoders/tag"
)

// E is the primary datatype of nostr.
type E struct {

	// ID is the SHA256 hash of the canonical encoding of the event in binary
	// format
	ID []byte

	// Pubkey is the public key of the event creator in binary format
	Pubkey []byte

	// CreatedAt is the UNIX timestamp of the event according to the event
	// creator (never trust a timestamp!)
	CreatedAt int64

	// Kind is the nostr protocol code for the type of event. See kind.K
	Kind uint16

	// Tags are a list of tags, which are a list of strings usually
	// structured as a 3-layer scheme indicating specific features of an
	// event.
	Tags *tag.S

	// Content is an arbitrary string that can contain anything, but usually
	// conforming to a specification relating to the Kind and the Tags.
	Content []byte

	// Sig is the signature on the ID hash that validates as coming from the
	// Pubkey in binary format.
	Sig []byte
}

// New creates a new event with an empty tag list.
func New() (ev *E) { return &E{Tags: tag.NewS()} }

// Clone returns a deep copy of the event.
func (ev *E) Clone() (c *E) {
	c = &E{
		ID:        append([]byte(nil), ev.ID...),
		Pubkey:    append([]byte(nil), ev.Pubkey...),
		CreatedAt: ev.CreatedAt,
		Kind:      ev.Kind,
		Content:   append([]byte(nil), ev.Content...),
		Sig:       append([]byte(nil), ev.Sig...),
		Tags:      tag.NewS(),
	}
	if ev.Tags != nil {
		for _, t := range *ev.Tags {
			var elems [][]byte
			for _, e := range t.T {
				elems = append(elems, append([]byte(nil), e...))
			}
			c.Tags.Append(tag.NewFromBytesSlice(elems...))
		}
	}
	return
}

// S is an array of event.E that sorts in reverse chronological order.
type S []*E

// Len returns the length of the event.S.
func (ev S) Len() int { return len(ev) }

// Less returns whether the first is newer than the second (larger unix
// timestamp), with ties broken by ascending id.
func (ev S) Less(i, j int) bool {
	if ev[i].CreatedAt != ev[j].CreatedAt {
		return ev[i].CreatedAt > ev[j].CreatedAt
	}
	return lexLess(ev[i].ID, ev[j].ID)
}

// Swap two indexes of the event.S with each other.
func (ev S) Swap(i, j int) { ev[i], ev[j] = ev[j], ev[i] }

func lexLess(a, b []byte) bool {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}

// C is a channel that carries event.E.
type C chan *E
