package spider

import (
	"lol.mleku.dev/chk"

	"github.com/nbd-wtf/go-nostr"

	"crosstown.dev/pkg/crypto/p256k"
	"crosstown.dev/pkg/crypto/sha256"
	"crosstown.dev/pkg/encoders/event"
	"crosstown.dev/pkg/encoders/hex"
	"crosstown.dev/pkg/encoders/tag"
	"lol.mleku.dev/errorf"
)

// FromGoNostr converts a go-nostr client event into the runtime event
// form, decoding the hex fields to binary.
func FromGoNostr(nev *nostr.Event) (ev *event.E, err error) {
	if nev == nil {
		err = errorf.E("spider: nil event")
		return
	}
	var id, pk, sig []byte
	if id, err = hex.Dec(nev.ID); chk.E(err) {
		return
	}
	if len(id) != sha256.Size {
		err = errorf.E("spider: id is %d bytes", len(id))
		return
	}
	if pk, err = hex.Dec(nev.PubKey); chk.E(err) {
		return
	}
	if len(pk) != p256k.PubKeyLen {
		err = errorf.E("spider: pubkey is %d bytes", len(pk))
		return
	}
	if sig, err = hex.Dec(nev.Sig); chk.E(err) {
		return
	}
	if len(sig) != p256k.SigLen {
		err = errorf.E("spider: sig is %d bytes", len(sig))
		return
	}
	ts := tag.NewS()
	for _, nt := range nev.Tags {
		var elems [][]byte
		for _, e := range nt {
			elems = append(elems, []byte(e))
		}
		ts.Append(tag.NewFromBytesSlice(elems...))
	}
	ev = &event.E{
		ID:        id,
		Pubkey:    pk,
		CreatedAt: int64(nev.CreatedAt),
		Kind:      uint16(nev.Kind),
		Tags:      ts,
		Content:   []byte(nev.Content),
		Sig:       sig,
	}
	return
}

// ToGoNostr converts a runtime event to the go-nostr client form.
func ToGoNostr(ev *event.E) (nev *nostr.Event) {
	nev = &nostr.Event{
		ID:        hex.Enc(ev.ID),
		PubKey:    hex.Enc(ev.Pubkey),
		CreatedAt: nostr.Timestamp(ev.CreatedAt),
		Kind:      int(ev.Kind),
		Content:   string(ev.Content),
		Sig:       hex.Enc(ev.Sig),
	}
	for _, t := range ev.Tags.ToSliceOfSliceOfStrings() {
		nev.Tags = append(nev.Tags, nostr.Tag(t))
	}
	return
}
