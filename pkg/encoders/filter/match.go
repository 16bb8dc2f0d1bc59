package filter

import (
	"bytes"

	"crosstown.dev/pkg/encoders/event"
	"crosstown.dev/pkg/encoders/hex"
	"crosstown.dev/pkg/encoders/tag"
	"crosstown.dev/pkg/utils"
)

// Matches reports whether an event satisfies every constraint present on
// the filter. An empty filter matches everything.
func (f *F) Matches(ev *event.E) bool {
	if ev == nil {
		return false
	}
	if f.Ids != nil && f.Ids.Len() > 0 {
		if !matchesPrefix(f.Ids.T, ev.ID) {
			return false
		}
	}
	if f.Kinds.Len() > 0 && !f.Kinds.Contains(ev.Kind) {
		return false
	}
	if f.Authors != nil && f.Authors.Len() > 0 {
		if !matchesPrefix(f.Authors.T, ev.Pubkey) {
			return false
		}
	}
	if f.Since != nil && f.Since.V > 0 && ev.CreatedAt < f.Since.V {
		return false
	}
	if f.Until != nil && f.Until.V > 0 && ev.CreatedAt > f.Until.V {
		return false
	}
	if f.Tags != nil {
		for _, tf := range *f.Tags {
			if tf == nil || tf.Len() < 2 {
				continue
			}
			if !matchesTag(tf, ev) {
				return false
			}
		}
	}
	return true
}

// matchesPrefix hex encodes the binary field once and tests each ASCII hex
// prefix against it.
func matchesPrefix(prefixes [][]byte, field []byte) bool {
	h := hex.EncBytes(field)
	for _, p := range prefixes {
		if bytes.HasPrefix(h, p) {
			return true
		}
	}
	return false
}

// matchesTag requires the event to have at least one tag whose key is the
// filter letter and whose value is in the filter's accepted set.
func matchesTag(tf *tag.T, ev *event.E) bool {
	if ev.Tags == nil {
		return false
	}
	letter := tf.T[0]
	for _, et := range *ev.Tags {
		if et.Len() < 2 || !utils.FastEqual(et.Key(), letter) {
			continue
		}
		for _, v := range tf.T[1:] {
			if utils.FastEqual(et.Value(), v) {
				return true
			}
		}
	}
	return false
}
