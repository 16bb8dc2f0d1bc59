package event

import (
	"lol.mleku.dev/chk"
	"lol.mleku.dev/errorf"

	"crosstown.dev/pkg/crypto/p256k"
	"crosstown.dev/pkg/crypto/sha256"
	"crosstown.dev/pkg/encoders/hex"
	"crosstown.dev/pkg/encoders/ints"
	"crosstown.dev/pkg/encoders/tag"
	"crosstown.dev/pkg/encoders/text"
)

// the JSON object keys of the event form
var (
	jId        = []byte("id")
	jPubkey    = []byte("pubkey")
	jCreatedAt = []byte("created_at")
	jKind      = []byte("kind")
	jTags      = []byte("tags")
	jContent   = []byte("content")
	jSig       = []byte("sig")
)

// Marshal renders the event as minified JSON in the standard nostr field
// order, appended to dst.
func (ev *E) Marshal(dst []byte) (b []byte) {
	b = dst
	b = append(b, '{')
	b = text.JSONKey(b, jId)
	b = append(b, '"')
	b = hex.EncAppend(b, ev.ID)
	b = append(b, '"', ',')
	b = text.JSONKey(b, jPubkey)
	b = append(b, '"')
	b = hex.EncAppend(b, ev.Pubkey)
	b = append(b, '"', ',')
	b = text.JSONKey(b, jCreatedAt)
	b = ints.New(ev.CreatedAt).Marshal(b)
	b = append(b, ',')
	b = text.JSONKey(b, jKind)
	b = ints.New(ev.Kind).Marshal(b)
	b = append(b, ',')
	b = text.JSONKey(b, jTags)
	b = ev.Tags.Marshal(b)
	b = append(b, ',')
	b = text.JSONKey(b, jContent)
	b = text.AppendQuote(b, ev.Content, text.NostrEscape)
	b = append(b, ',')
	b = text.JSONKey(b, jSig)
	b = append(b, '"')
	b = hex.EncAppend(b, ev.Sig)
	b = append(b, '"', '}')
	return
}

// Serialize returns the minified JSON form of the event.
func (ev *E) Serialize() (b []byte) { return ev.Marshal(nil) }

// Unmarshal decodes an event from minified JSON, tolerating any key order,
// and returns the remainder after the closing brace.
func (ev *E) Unmarshal(b []byte) (r []byte, err error) {
	r = b
	for len(r) > 0 && r[0] != '{' {
		r = r[1:]
	}
	if len(r) == 0 {
		err = errorf.E("event: no object found")
		return
	}
	r = r[1:]
	if ev.Tags == nil {
		ev.Tags = tag.NewS()
	}
	for {
		for len(r) > 0 && (r[0] == ' ' || r[0] == ',' || r[0] == '\t' ||
			r[0] == '\n' || r[0] == '\r') {
			r = r[1:]
		}
		if len(r) == 0 {
			err = errorf.E("event: unterminated object")
			return
		}
		if r[0] == '}' {
			r = r[1:]
			return
		}
		var key []byte
		if key, r, err = text.UnmarshalQuoted(r); chk.E(err) {
			return
		}
		for len(r) > 0 && r[0] != ':' {
			r = r[1:]
		}
		if len(r) == 0 {
			err = errorf.E("event: missing value for key %s", key)
			return
		}
		r = r[1:]
		switch string(key) {
		case string(jId):
			var v []byte
			if v, r, err = text.UnmarshalQuoted(r); chk.E(err) {
				return
			}
			if ev.ID, err = hex.Dec(string(v)); chk.E(err) {
				return
			}
			if len(ev.ID) != sha256.Size {
				err = errorf.E("event: id is %d bytes, need %d",
					len(ev.ID), sha256.Size)
				return
			}
		case string(jPubkey):
			var v []byte
			if v, r, err = text.UnmarshalQuoted(r); chk.E(err) {
				return
			}
			if ev.Pubkey, err = hex.Dec(string(v)); chk.E(err) {
				return
			}
			if len(ev.Pubkey) != p256k.PubKeyLen {
				err = errorf.E("event: pubkey is %d bytes, need %d",
					len(ev.Pubkey), p256k.PubKeyLen)
				return
			}
		case string(jCreatedAt):
			n := ints.New(0)
			if r, err = n.Unmarshal(r); chk.E(err) {
				return
			}
			ev.CreatedAt = n.Int64()
		case string(jKind):
			n := ints.New(0)
			if r, err = n.Unmarshal(r); chk.E(err) {
				return
			}
			ev.Kind = n.Uint16()
		case string(jTags):
			ev.Tags = tag.NewS()
			if r, err = ev.Tags.Unmarshal(r); chk.E(err) {
				return
			}
		case string(jContent):
			if ev.Content, r, err = text.UnmarshalQuoted(r); chk.E(err) {
				return
			}
		case string(jSig):
			var v []byte
			if v, r, err = text.UnmarshalQuoted(r); chk.E(err) {
				return
			}
			if ev.Sig, err = hex.Dec(string(v)); chk.E(err) {
				return
			}
			if len(ev.Sig) != p256k.SigLen {
				err = errorf.E("event: sig is %d bytes, need %d",
					len(ev.Sig), p256k.SigLen)
				return
			}
		default:
			err = errorf.E("event: unknown key %s", key)
			return
		}
	}
}
