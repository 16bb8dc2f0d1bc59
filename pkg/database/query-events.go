package database

import (
	"context"
	"sort"

	"github.com/dgraph-io/badger/v4"
	"lol.mleku.dev/chk"

	"crosstown.dev/pkg/database/indexes"
	"crosstown.dev/pkg/database/types"
	"crosstown.dev/pkg/encoders/event"
	"crosstown.dev/pkg/encoders/filter"
	"crosstown.dev/pkg/encoders/hex"
	"crosstown.dev/pkg/utils/pointers"
)

// QueryEvents evaluates a single filter: candidate serials come from the
// most selective index the filter touches, then every decoded candidate is
// verified against the full filter, so prefix and conjunction semantics
// hold regardless of which index pre-selected it. Results are in reverse
// chronological order, ties by ascending id, capped by the filter's limit.
func (d *D) QueryEvents(c context.Context, f *filter.F) (
	evs event.S, err error,
) {
	var sers types.Uint40s
	if sers, err = d.candidateSerials(f); chk.E(err) {
		return
	}
	seen := make(map[uint64]struct{}, len(sers))
	for _, ser := range sers {
		select {
		case <-c.Done():
			return
		default:
		}
		if _, ok := seen[ser.N]; ok {
			continue
		}
		seen[ser.N] = struct{}{}
		var ev *event.E
		if ev, err = d.FetchEventBySerial(ser); err != nil {
			// stale index row; skip
			err = nil
			continue
		}
		if f.Matches(ev) {
			evs = append(evs, ev)
		}
	}
	sort.Sort(evs)
	if pointers.Present(f.Limit) && uint(len(evs)) > *f.Limit {
		evs = evs[:*f.Limit]
	}
	return
}

// QueryForFilters evaluates a set of filters as a disjunction: an event
// matching any filter is included once. Ordering is reverse chronological
// with ties by ascending id; when any filter names a limit, the smallest
// named limit caps the merged result.
func (d *D) QueryForFilters(c context.Context, ff filter.S) (
	evs event.S, err error,
) {
	seen := make(map[string]struct{})
	var limit *uint
	for _, f := range ff {
		if f == nil {
			continue
		}
		if pointers.Present(f.Limit) {
			if limit == nil || *f.Limit < *limit {
				l := *f.Limit
				limit = &l
			}
		}
		var es event.S
		if es, err = d.QueryEvents(c, f); chk.E(err) {
			return
		}
		for _, ev := range es {
			if _, ok := seen[string(ev.ID)]; ok {
				continue
			}
			seen[string(ev.ID)] = struct{}{}
			evs = append(evs, ev)
		}
	}
	sort.Sort(evs)
	if limit != nil && uint(len(evs)) > *limit {
		evs = evs[:*limit]
	}
	return
}

// candidateSerials picks the index to scan for a filter. Any present
// constraint avoids a full event scan; a bare filter walks the time index.
func (d *D) candidateSerials(f *filter.F) (sers types.Uint40s, err error) {
	since, until := timeBounds(f)
	switch {
	case f.Ids != nil && f.Ids.Len() > 0:
		for _, p := range f.Ids.T {
			// an odd length hex prefix scans on the even floor of the
			// prefix; the match pass settles the last nibble
			var bin []byte
			if bin, err = hex.Dec(string(p[:len(p)&^1])); chk.E(err) {
				return
			}
			var s types.Uint40s
			if s, err = d.scanPrefix(
				indexes.IdPrefix(bin), 0, 0,
			); chk.E(err) {
				return
			}
			sers = append(sers, s...)
		}
	case f.Authors != nil && f.Authors.Len() > 0 &&
		f.Kinds.Len() > 0 && allFull(f.Authors.T):
		for _, a := range f.Authors.T {
			var pk []byte
			if pk, err = hex.Dec(string(a)); chk.E(err) {
				return
			}
			for _, k := range f.Kinds.K {
				var s types.Uint40s
				if s, err = d.scanPrefix(
					indexes.PubkeyKindPrefix(pk, k.ToU16()), since, until,
				); chk.E(err) {
					return
				}
				sers = append(sers, s...)
			}
		}
	case f.Authors != nil && f.Authors.Len() > 0:
		for _, a := range f.Authors.T {
			var bin []byte
			if bin, err = hex.Dec(string(a[:len(a)&^1])); chk.E(err) {
				return
			}
			var s types.Uint40s
			if s, err = d.scanPrefix(
				indexes.PubkeyPrefix(bin), since, until,
			); chk.E(err) {
				return
			}
			sers = append(sers, s...)
		}
	case f.Tags.Len() > 0:
		for _, t := range *f.Tags {
			if t.Len() < 2 || len(t.Key()) != 1 {
				continue
			}
			for _, v := range t.T[1:] {
				var s types.Uint40s
				if s, err = d.scanPrefix(
					indexes.TagValuePrefix(t.Key()[0], v), since, until,
				); chk.E(err) {
					return
				}
				sers = append(sers, s...)
			}
		}
	case f.Kinds.Len() > 0:
		for _, k := range f.Kinds.K {
			var s types.Uint40s
			if s, err = d.scanPrefix(
				indexes.KindPrefix(k.ToU16()), since, until,
			); chk.E(err) {
				return
			}
			sers = append(sers, s...)
		}
	default:
		if sers, err = d.scanPrefix(
			indexes.CreatedAtPrefix(), since, until,
		); chk.E(err) {
			return
		}
	}
	return
}

// scanPrefix walks an index prefix collecting serials, narrowing by the
// created_at trailer when bounds are given (time-carrying indexes only).
func (d *D) scanPrefix(prefix []byte, since, until int64) (
	sers types.Uint40s, err error,
) {
	err = d.View(
		func(txn *badger.Txn) (err error) {
			it := txn.NewIterator(badger.IteratorOptions{Prefix: prefix})
			defer it.Close()
			for it.Rewind(); it.ValidForPrefix(prefix); it.Next() {
				key := it.Item().Key()
				if since > 0 || until > 0 {
					ts := indexes.CreatedAtFromKey(key)
					if since > 0 && ts < since {
						continue
					}
					if until > 0 && ts > until {
						continue
					}
				}
				var ser *types.Uint40
				if ser, err = types.FromBytes(key); chk.E(err) {
					return
				}
				sers = append(sers, ser)
			}
			return
		},
	)
	return
}

func timeBounds(f *filter.F) (since, until int64) {
	if f.Since != nil {
		since = f.Since.V
	}
	if f.Until != nil {
		until = f.Until.V
	}
	return
}

func allFull(prefixes [][]byte) bool {
	for _, p := range prefixes {
		if len(p) != 64 {
			return false
		}
	}
	return true
}
