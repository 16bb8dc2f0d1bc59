// Package indexes defines the key layout of the event store. Every index
// row is key-only: a single prefix byte, the fixed width fields of the
// index, and the event serial at the end, so a prefix scan yields serials
// without touching values.
package indexes

import (
	"encoding/binary"

	"crosstown.dev/pkg/crypto/sha256"
	"crosstown.dev/pkg/database/types"
	"crosstown.dev/pkg/encoders/event"
)

// The index prefixes. The event record under Event is the only keyed value;
// everything else is key-only.
const (
	// Event: prefix | serial -> binary event
	Event = byte(iota + 1)
	// Id: prefix | id[32] | serial
	Id
	// Pubkey: prefix | pubkey[32] | createdAt[8] | serial
	Pubkey
	// Kind: prefix | kind[2] | createdAt[8] | serial
	Kind
	// PubkeyKind: prefix | pubkey[32] | kind[2] | createdAt[8] | serial
	PubkeyKind
	// TagValue: prefix | letter[1] | valueHash[8] | createdAt[8] | serial
	TagValue
	// CreatedAt: prefix | createdAt[8] | serial
	CreatedAt
	// Marker: prefix | name -> value; operational state, not event data
	Marker
)

// EventKey returns the key the binary event is stored under.
func EventKey(ser *types.Uint40) (b []byte) {
	b = make([]byte, 0, 1+types.Uint40Len)
	b = append(b, Event)
	b = append(b, ser.Bytes()...)
	return
}

// IdKey returns the id index row for an event.
func IdKey(id []byte, ser *types.Uint40) (b []byte) {
	b = make([]byte, 0, 1+len(id)+types.Uint40Len)
	b = append(b, Id)
	b = append(b, id...)
	b = append(b, ser.Bytes()...)
	return
}

// IdPrefix returns the scan prefix for an id or binary id prefix.
func IdPrefix(id []byte) (b []byte) {
	b = make([]byte, 0, 1+len(id))
	b = append(b, Id)
	b = append(b, id...)
	return
}

// PubkeyKey returns the author index row for an event.
func PubkeyKey(ev *event.E, ser *types.Uint40) (b []byte) {
	b = make([]byte, 0, 1+32+8+types.Uint40Len)
	b = append(b, Pubkey)
	b = append(b, ev.Pubkey...)
	b = appendCreatedAt(b, ev.CreatedAt)
	b = append(b, ser.Bytes()...)
	return
}

// PubkeyPrefix returns the scan prefix for an author or author prefix.
func PubkeyPrefix(pubkey []byte) (b []byte) {
	b = make([]byte, 0, 1+len(pubkey))
	b = append(b, Pubkey)
	b = append(b, pubkey...)
	return
}

// KindKey returns the kind index row for an event.
func KindKey(ev *event.E, ser *types.Uint40) (b []byte) {
	b = make([]byte, 0, 1+2+8+types.Uint40Len)
	b = append(b, Kind)
	b = binary.BigEndian.AppendUint16(b, ev.Kind)
	b = appendCreatedAt(b, ev.CreatedAt)
	b = append(b, ser.Bytes()...)
	return
}

// KindPrefix returns the scan prefix for a kind.
func KindPrefix(k uint16) (b []byte) {
	b = make([]byte, 0, 3)
	b = append(b, Kind)
	b = binary.BigEndian.AppendUint16(b, k)
	return
}

// PubkeyKindKey returns the composite author/kind index row for an event.
func PubkeyKindKey(ev *event.E, ser *types.Uint40) (b []byte) {
	b = make([]byte, 0, 1+32+2+8+types.Uint40Len)
	b = append(b, PubkeyKind)
	b = append(b, ev.Pubkey...)
	b = binary.BigEndian.AppendUint16(b, ev.Kind)
	b = appendCreatedAt(b, ev.CreatedAt)
	b = append(b, ser.Bytes()...)
	return
}

// PubkeyKindPrefix returns the scan prefix for a full author and kind.
func PubkeyKindPrefix(pubkey []byte, k uint16) (b []byte) {
	b = make([]byte, 0, 1+len(pubkey)+2)
	b = append(b, PubkeyKind)
	b = append(b, pubkey...)
	b = binary.BigEndian.AppendUint16(b, k)
	return
}

// TagValueKey returns a tag index row for one indexable tag of an event.
func TagValueKey(
	letter byte, value []byte, createdAt int64, ser *types.Uint40,
) (b []byte) {
	b = make([]byte, 0, 1+1+8+8+types.Uint40Len)
	b = append(b, TagValue)
	b = append(b, letter)
	b = append(b, valueHash(value)...)
	b = appendCreatedAt(b, createdAt)
	b = append(b, ser.Bytes()...)
	return
}

// TagValuePrefix returns the scan prefix for a tag letter and value.
func TagValuePrefix(letter byte, value []byte) (b []byte) {
	b = make([]byte, 0, 10)
	b = append(b, TagValue)
	b = append(b, letter)
	b = append(b, valueHash(value)...)
	return
}

// CreatedAtKey returns the global time index row for an event.
func CreatedAtKey(ev *event.E, ser *types.Uint40) (b []byte) {
	b = make([]byte, 0, 1+8+types.Uint40Len)
	b = append(b, CreatedAt)
	b = appendCreatedAt(b, ev.CreatedAt)
	b = append(b, ser.Bytes()...)
	return
}

// CreatedAtPrefix returns the scan prefix of the global time index.
func CreatedAtPrefix() []byte { return []byte{CreatedAt} }

// MarkerKey returns the key an operational marker is stored under.
func MarkerKey(name string) (b []byte) {
	b = make([]byte, 0, 1+len(name))
	b = append(b, Marker)
	b = append(b, name...)
	return
}

// ForEvent generates every index row for an event at a serial, not
// including the event record itself.
func ForEvent(ev *event.E, ser *types.Uint40) (idxs [][]byte) {
	idxs = append(idxs, IdKey(ev.ID, ser))
	idxs = append(idxs, PubkeyKey(ev, ser))
	idxs = append(idxs, KindKey(ev, ser))
	idxs = append(idxs, PubkeyKindKey(ev, ser))
	idxs = append(idxs, CreatedAtKey(ev, ser))
	if ev.Tags != nil {
		for _, t := range *ev.Tags {
			if t.Len() < 2 || len(t.Key()) != 1 {
				continue
			}
			idxs = append(
				idxs,
				TagValueKey(t.Key()[0], t.Value(), ev.CreatedAt, ser),
			)
		}
	}
	return
}

// CreatedAtFromKey parses the created_at field out of an index key whose
// trailing layout is createdAt[8] | serial[5].
func CreatedAtFromKey(key []byte) (createdAt int64) {
	if len(key) < 8+types.Uint40Len {
		return
	}
	off := len(key) - types.Uint40Len - 8
	return int64(binary.BigEndian.Uint64(key[off : off+8]))
}

func appendCreatedAt(b []byte, createdAt int64) []byte {
	return binary.BigEndian.AppendUint64(b, uint64(createdAt))
}

// valueHash is the first 8 bytes of the SHA256 of a tag value, keeping tag
// rows fixed width no matter how large the value is.
func valueHash(value []byte) []byte {
	h := sha256.Sum256(value)
	return h[:8]
}
