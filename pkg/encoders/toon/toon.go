// Package toon implements the deterministic binary event encoding used as
// the payload of paid packets, the wire form of relay EVENT messages, and
// the form whose byte length prices a write.
//
// The layout is a fixed header and trailer with uvarint length prefixes in
// between:
//
//	id[32] pubkey[32] created_at:uvarint kind:uvarint
//	ntags:uvarint { nelems:uvarint { len:uvarint bytes } ... } ...
//	content: len:uvarint bytes
//	sig[64]
//
// The encoder is canonical by construction: field order is fixed, uvarints
// are minimal, tag order is preserved, so structurally equal events encode
// to identical bytes. The decoder is strict: truncated input, non-minimal
// or oversized lengths and trailing bytes are all rejected.
package toon

import (
	"encoding/binary"
	"math"

	"crosstown.dev/pkg/encoders/event"
	"crosstown.dev/pkg/encoders/tag"
	"crosstown.dev/pkg/utils/units"
)

const (
	// IdLen is the length of the event id field.
	IdLen = 32
	// PubKeyLen is the length of the author pubkey field.
	PubKeyLen = 32
	// SigLen is the length of the signature field.
	SigLen = 64
	// MaxFieldLen bounds a single tag element or the content field.
	MaxFieldLen = 512 * units.Kb
	// MaxListLen bounds the tag count and per-tag element count.
	MaxListLen = 64 * units.Kb
)

// MinLen is the smallest possible encoding: fixed fields plus one byte each
// for created_at, kind, tag count and content length.
const MinLen = IdLen + PubKeyLen + 1 + 1 + 1 + 1 + SigLen

// Encode renders an event into its canonical binary form.
func Encode(ev *event.E) (b []byte, err error) {
	if err = check(ev); err != nil {
		return
	}
	b = Append(make([]byte, 0, EncodedLen(ev)), ev)
	return
}

// EncodedLen computes the size of the encoding of an event without
// producing it.
func EncodedLen(ev *event.E) (n int) {
	n = IdLen + PubKeyLen + SigLen
	n += uvarintLen(uint64(ev.CreatedAt))
	n += uvarintLen(uint64(ev.Kind))
	var ntags int
	if ev.Tags != nil {
		ntags = ev.Tags.Len()
	}
	n += uvarintLen(uint64(ntags))
	if ev.Tags != nil {
		for _, t := range *ev.Tags {
			n += uvarintLen(uint64(len(t.T)))
			for _, e := range t.T {
				n += uvarintLen(uint64(len(e))) + len(e)
			}
		}
	}
	n += uvarintLen(uint64(len(ev.Content))) + len(ev.Content)
	return
}

// Append appends the canonical binary form of a checked event to dst. Use
// Encode unless the event is already known to be well formed.
func Append(dst []byte, ev *event.E) (b []byte) {
	b = dst
	b = append(b, ev.ID...)
	b = append(b, ev.Pubkey...)
	b = binary.AppendUvarint(b, uint64(ev.CreatedAt))
	b = binary.AppendUvarint(b, uint64(ev.Kind))
	if ev.Tags == nil {
		b = binary.AppendUvarint(b, 0)
	} else {
		b = binary.AppendUvarint(b, uint64(ev.Tags.Len()))
		for _, t := range *ev.Tags {
			b = binary.AppendUvarint(b, uint64(len(t.T)))
			for _, e := range t.T {
				b = binary.AppendUvarint(b, uint64(len(e)))
				b = append(b, e...)
			}
		}
	}
	b = binary.AppendUvarint(b, uint64(len(ev.Content)))
	b = append(b, ev.Content...)
	b = append(b, ev.Sig...)
	return
}

// Decode parses a canonical binary event, requiring the whole buffer to be
// consumed.
func Decode(b []byte) (ev *event.E, err error) {
	var n int
	if ev, n, err = decodeOne(b); err != nil {
		return
	}
	if n != len(b) {
		ev = nil
		err = decodeErrf("%d trailing bytes after event", len(b)-n)
	}
	return
}

// Measure walks the length prefixes of an encoding and returns the total
// size of the event frame at the front of b, without materializing the
// event.
func Measure(b []byte) (n int, err error) {
	r := reader{b: b}
	if err = r.skip(IdLen + PubKeyLen); err != nil {
		return
	}
	if _, err = r.uvarint(); err != nil { // created_at
		return
	}
	if _, err = r.uvarint(); err != nil { // kind
		return
	}
	var ntags uint64
	if ntags, err = r.list(); err != nil {
		return
	}
	for i := uint64(0); i < ntags; i++ {
		var nelems uint64
		if nelems, err = r.list(); err != nil {
			return
		}
		for j := uint64(0); j < nelems; j++ {
			var l uint64
			if l, err = r.field(); err != nil {
				return
			}
			if err = r.skip(int(l)); err != nil {
				return
			}
		}
	}
	var cl uint64
	if cl, err = r.field(); err != nil {
		return
	}
	if err = r.skip(int(cl) + SigLen); err != nil {
		return
	}
	n = r.off
	return
}

func decodeOne(b []byte) (ev *event.E, n int, err error) {
	r := reader{b: b}
	ev = &event.E{}
	if ev.ID, err = r.take(IdLen); err != nil {
		return
	}
	if ev.Pubkey, err = r.take(PubKeyLen); err != nil {
		return
	}
	var v uint64
	if v, err = r.uvarint(); err != nil {
		return
	}
	if v > math.MaxInt64 {
		err = schemaErrf("created_at out of range: %d", v)
		return
	}
	ev.CreatedAt = int64(v)
	if v, err = r.uvarint(); err != nil {
		return
	}
	if v > math.MaxUint16 {
		err = schemaErrf("kind out of range: %d", v)
		return
	}
	ev.Kind = uint16(v)
	var ntags uint64
	if ntags, err = r.list(); err != nil {
		return
	}
	ev.Tags = tag.NewSWithCap(int(ntags))
	for i := uint64(0); i < ntags; i++ {
		var nelems uint64
		if nelems, err = r.list(); err != nil {
			return
		}
		if nelems == 0 {
			err = schemaErrf("tag %d has no elements", i)
			return
		}
		elems := make([][]byte, 0, nelems)
		for j := uint64(0); j < nelems; j++ {
			var l uint64
			if l, err = r.field(); err != nil {
				return
			}
			var e []byte
			if e, err = r.take(int(l)); err != nil {
				return
			}
			elems = append(elems, e)
		}
		ev.Tags.Append(tag.NewFromBytesSlice(elems...))
	}
	var cl uint64
	if cl, err = r.field(); err != nil {
		return
	}
	if ev.Content, err = r.take(int(cl)); err != nil {
		return
	}
	if ev.Sig, err = r.take(SigLen); err != nil {
		return
	}
	n = r.off
	return
}

func check(ev *event.E) (err error) {
	if ev == nil {
		return encodeErrf("nil event")
	}
	if len(ev.ID) != IdLen {
		return encodeErrf("id is %d bytes, need %d", len(ev.ID), IdLen)
	}
	if len(ev.Pubkey) != PubKeyLen {
		return encodeErrf("pubkey is %d bytes, need %d",
			len(ev.Pubkey), PubKeyLen)
	}
	if len(ev.Sig) != SigLen {
		return encodeErrf("sig is %d bytes, need %d", len(ev.Sig), SigLen)
	}
	if ev.CreatedAt < 0 {
		return encodeErrf("created_at is negative: %d", ev.CreatedAt)
	}
	if len(ev.Content) > MaxFieldLen {
		return encodeErrf("content is %d bytes, max %d",
			len(ev.Content), MaxFieldLen)
	}
	if ev.Tags != nil {
		if ev.Tags.Len() > MaxListLen {
			return encodeErrf("%d tags, max %d", ev.Tags.Len(), MaxListLen)
		}
		for i, t := range *ev.Tags {
			if len(t.T) == 0 {
				return encodeErrf("tag %d has no elements", i)
			}
			if len(t.T) > MaxListLen {
				return encodeErrf("tag %d has %d elements, max %d",
					i, len(t.T), MaxListLen)
			}
			for _, e := range t.T {
				if len(e) > MaxFieldLen {
					return encodeErrf("tag %d element is %d bytes, max %d",
						i, len(e), MaxFieldLen)
				}
			}
		}
	}
	return
}

// reader is a bounds-checked cursor over an encoding.
type reader struct {
	b   []byte
	off int
}

func (r *reader) take(n int) (b []byte, err error) {
	if n < 0 || r.off+n > len(r.b) {
		err = decodeErrf("truncated at offset %d, need %d more bytes",
			r.off, n-(len(r.b)-r.off))
		return
	}
	b = r.b[r.off : r.off+n : r.off+n]
	r.off += n
	return
}

func (r *reader) skip(n int) (err error) {
	_, err = r.take(n)
	return
}

func (r *reader) uvarint() (v uint64, err error) {
	v, n := binary.Uvarint(r.b[r.off:])
	if n <= 0 {
		err = decodeErrf("bad uvarint at offset %d", r.off)
		return
	}
	if n > 1 && r.b[r.off+n-1] == 0 {
		err = decodeErrf("non-minimal uvarint at offset %d", r.off)
		return
	}
	r.off += n
	return
}

func (r *reader) list() (v uint64, err error) {
	if v, err = r.uvarint(); err != nil {
		return
	}
	if v > MaxListLen {
		err = schemaErrf("list length %d exceeds max %d", v, MaxListLen)
	}
	return
}

func (r *reader) field() (v uint64, err error) {
	if v, err = r.uvarint(); err != nil {
		return
	}
	if v > MaxFieldLen {
		err = schemaErrf("field length %d exceeds max %d", v, MaxFieldLen)
	}
	return
}

func uvarintLen(v uint64) (n int) {
	n = 1
	for v >= 0x80 {
		v >>= 7
		n++
	}
	return
}
