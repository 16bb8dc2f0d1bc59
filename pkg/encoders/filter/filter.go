// Package filter implements the query form for requesting events from a
// nostr relay: id and author prefixes, kinds, indexed tag values and a
// created_at window, with the hand-rolled JSON codec the wire envelopes use.
package filter

import (
	"sort"

	"lol.mleku.dev/chk"
	"lol.mleku.dev/errorf"

	"crosstown.dev/pkg/encoders/ints"
	"crosstown.dev/pkg/encoders/kind"
	"crosstown.dev/pkg/encoders/tag"
	"crosstown.dev/pkg/encoders/text"
	"crosstown.dev/pkg/encoders/timestamp"
	"crosstown.dev/pkg/utils/pointers"
)

// F is the primary query form for requesting events from a nostr relay.
//
// Ids and Authors hold lowercase hex prefixes as ASCII bytes: a full 64
// character id matches exactly, anything shorter matches by prefix. Tags
// hold one tag.T per indexed letter, the bare letter first and the accepted
// values after it.
type F struct {
	Ids     *tag.T
	Kinds   *kind.S
	Authors *tag.T
	Tags    *tag.S
	Since   *timestamp.T
	Until   *timestamp.T
	Limit   *uint
}

// New creates a new, reasonably initialized filter that will be ready for
// most uses without further allocations.
func New() (f *F) {
	return &F{
		Ids:     tag.NewWithCap(10),
		Kinds:   kind.NewWithCap(10),
		Authors: tag.NewWithCap(10),
		Tags:    tag.NewSWithCap(10),
	}
}

var (
	// IDs is the JSON object key for IDs.
	IDs = []byte("ids")
	// Kinds is the JSON object key for Kinds.
	Kinds = []byte("kinds")
	// Authors is the JSON object key for Authors.
	Authors = []byte("authors")
	// Since is the JSON object key for Since.
	Since = []byte("since")
	// Until is the JSON object key for Until.
	Until = []byte("until")
	// Limit is the JSON object key for Limit.
	Limit = []byte("limit")
)

// Sort the fields of a filter so the same set of constraints always
// marshals identically.
func (f *F) Sort() {
	if f.Ids != nil {
		sort.Sort(f.Ids)
	}
	if f.Kinds != nil {
		sort.Sort(f.Kinds)
	}
	if f.Authors != nil {
		sort.Sort(f.Authors)
	}
	if f.Tags != nil {
		for _, v := range *f.Tags {
			if len(v.T) > 2 {
				vv := v.T[1:]
				sort.Slice(vv, func(i, j int) bool {
					return string(vv[i]) < string(vv[j])
				})
			}
		}
		sort.Sort(f.Tags)
	}
}

// Marshal a filter into raw JSON bytes, minified. The field ordering and
// sort of fields is canonicalized so that a hash can identify the same
// filter.
func (f *F) Marshal(dst []byte) (b []byte) {
	var first bool
	f.Sort()
	dst = append(dst, '{')
	if f.Ids != nil && f.Ids.Len() > 0 {
		first = true
		dst = text.JSONKey(dst, IDs)
		dst = marshalStringArray(dst, f.Ids.T)
	}
	if f.Kinds.Len() > 0 {
		if first {
			dst = append(dst, ',')
		} else {
			first = true
		}
		dst = text.JSONKey(dst, Kinds)
		dst = f.Kinds.Marshal(dst)
	}
	if f.Authors != nil && f.Authors.Len() > 0 {
		if first {
			dst = append(dst, ',')
		} else {
			first = true
		}
		dst = text.JSONKey(dst, Authors)
		dst = marshalStringArray(dst, f.Authors.T)
	}
	if f.Tags.Len() > 0 {
		// tags are stored with the initial element the bare letter and the
		// rest the accepted values, eg:
		//
		//     [["p","<pubkey1>","<pubkey2>"],["t","hashtag"]]
		//
		for _, tg := range *f.Tags {
			if tg == nil || tg.Len() < 2 {
				// must have at least key and one value
				continue
			}
			tKey := tg.T[0]
			if len(tKey) != 1 || !isAlpha(tKey[0]) {
				// key must be single alpha character
				continue
			}
			if first {
				dst = append(dst, ',')
			} else {
				first = true
			}
			dst = append(dst, '"', '#', tKey[0], '"', ':')
			dst = marshalStringArray(dst, tg.T[1:])
		}
	}
	if f.Since != nil && f.Since.U64() > 0 {
		if first {
			dst = append(dst, ',')
		} else {
			first = true
		}
		dst = text.JSONKey(dst, Since)
		dst = f.Since.Marshal(dst)
	}
	if f.Until != nil && f.Until.U64() > 0 {
		if first {
			dst = append(dst, ',')
		} else {
			first = true
		}
		dst = text.JSONKey(dst, Until)
		dst = f.Until.Marshal(dst)
	}
	if pointers.Present(f.Limit) {
		if first {
			dst = append(dst, ',')
		}
		dst = text.JSONKey(dst, Limit)
		dst = ints.New(*f.Limit).Marshal(dst)
	}
	dst = append(dst, '}')
	b = dst
	return
}

// Serialize a filter.F into raw minified JSON bytes.
func (f *F) Serialize() (b []byte) { return f.Marshal(nil) }

// Unmarshal a filter from raw minified JSON bytes into the runtime format,
// returning the remainder after the closing brace.
func (f *F) Unmarshal(b []byte) (r []byte, err error) {
	r = b
	for len(r) > 0 && r[0] != '{' {
		r = r[1:]
	}
	if len(r) == 0 {
		err = errorf.E("filter: no object found")
		return
	}
	r = r[1:]
	for {
		for len(r) > 0 && (r[0] == ' ' || r[0] == ',' || r[0] == '\t' ||
			r[0] == '\n' || r[0] == '\r') {
			r = r[1:]
		}
		if len(r) == 0 {
			err = errorf.E("filter: unterminated object")
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
			err = errorf.E("filter: missing value for key %s", key)
			return
		}
		r = r[1:]
		switch {
		case len(key) == 2 && key[0] == '#' && isAlpha(key[1]):
			var ff [][]byte
			if ff, r, err = text.UnmarshalStringArray(r); chk.E(err) {
				return
			}
			ff = append([][]byte{{key[1]}}, ff...)
			f.Tags.Append(tag.NewFromBytesSlice(ff...))
		case string(key) == string(IDs):
			var ff [][]byte
			if ff, r, err = text.UnmarshalStringArray(r); chk.E(err) {
				return
			}
			for _, p := range ff {
				if err = checkHexPrefix(p, 64); chk.E(err) {
					return
				}
			}
			f.Ids = tag.NewFromBytesSlice(ff...)
		case string(key) == string(Kinds):
			f.Kinds = kind.NewWithCap(0)
			if r, err = f.Kinds.Unmarshal(r); chk.E(err) {
				return
			}
		case string(key) == string(Authors):
			var ff [][]byte
			if ff, r, err = text.UnmarshalStringArray(r); chk.E(err) {
				return
			}
			for _, p := range ff {
				if err = checkHexPrefix(p, 64); chk.E(err) {
					return
				}
			}
			f.Authors = tag.NewFromBytesSlice(ff...)
		case string(key) == string(Since):
			s := ints.New(0)
			if r, err = s.Unmarshal(r); chk.E(err) {
				return
			}
			f.Since = timestamp.FromUnix(s.Int64())
		case string(key) == string(Until):
			u := ints.New(0)
			if r, err = u.Unmarshal(r); chk.E(err) {
				return
			}
			f.Until = timestamp.FromUnix(u.Int64())
		case string(key) == string(Limit):
			l := ints.New(0)
			if r, err = l.Unmarshal(r); chk.E(err) {
				return
			}
			u := uint(l.Uint64())
			f.Limit = &u
		default:
			err = errorf.E("filter: unknown key %q", key)
			return
		}
	}
}

func marshalStringArray(dst []byte, src [][]byte) []byte {
	dst = append(dst, '[')
	for i, s := range src {
		dst = text.AppendQuote(dst, s, text.NostrEscape)
		if i < len(src)-1 {
			dst = append(dst, ',')
		}
	}
	dst = append(dst, ']')
	return dst
}

func isAlpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func checkHexPrefix(p []byte, max int) (err error) {
	if len(p) == 0 || len(p) > max {
		return errorf.E("filter: prefix length %d out of range", len(p))
	}
	for _, c := range p {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return errorf.E("filter: prefix is not lowercase hex: %q", p)
		}
	}
	return
}
