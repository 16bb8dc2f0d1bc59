// Package kind includes a type for convenient handling of event kinds, the
// retention class predicates that drive replacement in the event store, and
// the catalog of kinds the relay's payment policy refers to.
package kind

import (
	"golang.org/x/exp/constraints"
	"lol.mleku.dev/chk"

	"crosstown.dev/pkg/encoders/ints"
)

// K is the event type in the nostr protocol, the use of the capital K
// signifying type, consistent with Go idiom, the Go standard library, and
// much, conformant, existing code.
type K struct {
	K uint16
}

// New creates a new kind.K with a provided integer value. Note that anything
// larger than 2^16 will be truncated.
func New[V constraints.Integer](k V) (ki *K) { return &K{uint16(k)} }

// ToInt returns the value of the kind.K as an int.
func (k *K) ToInt() int {
	if k == nil {
		return 0
	}
	return int(k.K)
}

// ToU16 returns the value of the kind.K as an uint16 (the native form).
func (k *K) ToU16() uint16 {
	if k == nil {
		return 0
	}
	return k.K
}

// Name returns the human readable string describing the semantics of the
// kind.K, or empty for kinds not in the catalog.
func (k *K) Name() string { return Map[k.ToU16()] }

// Equal checks if the kind matches a raw kind number.
func (k *K) Equal(k2 uint16) bool {
	if k == nil {
		return false
	}
	return k.K == k2
}

// Marshal renders the kind.K into bytes containing the ASCII string form of
// the kind number.
func (k *K) Marshal(dst []byte) (b []byte) {
	return ints.New(k.ToU16()).Marshal(dst)
}

// Unmarshal decodes a byte string into a kind.K.
func (k *K) Unmarshal(b []byte) (r []byte, err error) {
	n := ints.New(0)
	if r, err = n.Unmarshal(b); chk.T(err) {
		return
	}
	k.K = n.Uint16()
	return
}

// IsEphemeral returns true if the event kind is an ephemeral event: relayed
// to live subscribers but never stored.
func IsEphemeral(k uint16) bool {
	return k >= EphemeralStart.K && k < EphemeralEnd.K
}

// IsReplaceable returns true if the event kind is a replaceable kind - that
// is, if the newest version per (pubkey, kind) is the one that is in force
// (eg profile metadata, follow lists, ILP peer info).
func IsReplaceable(k uint16) bool {
	return k == ProfileMetadata.K || k == FollowList.K ||
		(k >= ReplaceableStart.K && k < ReplaceableEnd.K)
}

// IsParameterizedReplaceable is a kind of event that is one of a group of
// events that replaces based on the (pubkey, kind, d tag) key.
func IsParameterizedReplaceable(k uint16) bool {
	return k >= ParameterizedReplaceableStart.K &&
		k < ParameterizedReplaceableEnd.K
}

var (
	// ProfileMetadata is an event type that stores user profile data, pet
	// names, bio, lightning address, etc.
	ProfileMetadata = &K{0}
	// TextNote is a standard short text note of plain text a la twitter
	TextNote = &K{1}
	// FollowList an event containing a list of pubkeys of users that should
	// be shown as follows in a timeline.
	FollowList = &K{3}
	// Deletion is a request that referenced events be removed.
	Deletion = &K{5}
	// Repost is an event that rebroadcasts another event.
	Repost = &K{6}
	// Reaction is a response emoji or +/- to another event.
	Reaction = &K{7}
	// GiftWrap is a NIP-59 wrapped, sealed event.
	GiftWrap = &K{1059}
	// ReplaceableStart is the beginning of the replaceable range.
	ReplaceableStart = &K{10000}
	// RelayListMetadata is the NIP-65 relay list.
	RelayListMetadata = &K{10002}
	// ILPPeerInfo carries a peer's interledger addressing and settlement
	// details; replaceable so only the current info is in force.
	ILPPeerInfo = &K{10032}
	// ReplaceableEnd is the end of the replaceable range.
	ReplaceableEnd = &K{20000}
	// EphemeralStart is the beginning of the ephemeral range.
	EphemeralStart = &K{20000}
	// SPSPRequest is a payment setup handshake request; ephemeral, and the
	// pricing config can clamp its price to allow zero-amount handshakes.
	SPSPRequest = &K{23194}
	// SPSPResponse is the matching handshake response, also ephemeral.
	SPSPResponse = &K{23195}
	// EphemeralEnd is the end of the ephemeral range.
	EphemeralEnd = &K{30000}
	// ParameterizedReplaceableStart is the beginning of the parameterized
	// replaceable range.
	ParameterizedReplaceableStart = &K{30000}
	// LongFormContent is a NIP-23 article.
	LongFormContent = &K{30023}
	// ParameterizedReplaceableEnd is the end of the parameterized
	// replaceable range.
	ParameterizedReplaceableEnd = &K{40000}
)

// Map is the reverse lookup from kind number to a human readable name.
var Map = map[uint16]string{
	ProfileMetadata.K:   "ProfileMetadata",
	TextNote.K:          "TextNote",
	FollowList.K:        "FollowList",
	Deletion.K:          "Deletion",
	Repost.K:            "Repost",
	Reaction.K:          "Reaction",
	GiftWrap.K:          "GiftWrap",
	RelayListMetadata.K: "RelayListMetadata",
	ILPPeerInfo.K:       "ILPPeerInfo",
	SPSPRequest.K:       "SPSPRequest",
	SPSPResponse.K:      "SPSPResponse",
	LongFormContent.K:   "LongFormContent",
}
