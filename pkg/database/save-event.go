package database

import (
	"context"

	"github.com/dgraph-io/badger/v4"
	"lol.mleku.dev/chk"
	"lol.mleku.dev/errorf"
	"lol.mleku.dev/log"

	"crosstown.dev/pkg/database/indexes"
	"crosstown.dev/pkg/database/types"
	"crosstown.dev/pkg/encoders/event"
	"crosstown.dev/pkg/encoders/hex"
	"crosstown.dev/pkg/encoders/kind"
	"crosstown.dev/pkg/encoders/toon"
)

// SaveEvent saves an event to the database, generating all the necessary
// indexes and applying the retention class rules.
//
// The admitted result distinguishes the silent non-error outcomes: a
// duplicate id and a replaceable event older than the current holder both
// return (false, nil), because the store already reflects the authoritative
// state. Ephemeral kinds are accepted (true, nil) without being persisted.
// An error means the write failed and the caller cannot know the outcome.
func (d *D) SaveEvent(c context.Context, ev *event.E) (
	admitted bool, err error,
) {
	if ev == nil {
		err = errorf.E("nil event")
		return
	}
	if kind.IsEphemeral(ev.Kind) {
		// relayed, never stored
		admitted = true
		return
	}
	// serialize writers: replacement is a read-modify-write over the
	// replacement key and concurrent arrivals must observe each other.
	d.replaceMx.Lock()
	defer d.replaceMx.Unlock()
	// a second store of the same id is a no-op
	var existing *types.Uint40
	if existing, err = d.GetSerialById(ev.ID); chk.E(err) {
		return
	}
	if existing != nil {
		log.T.F("SaveEvent: duplicate event %s", hex.Enc(ev.ID))
		return
	}
	var displaced types.Uint40s
	if kind.IsReplaceable(ev.Kind) || kind.IsParameterizedReplaceable(ev.Kind) {
		var wins bool
		if displaced, wins, err = d.findReplaced(ev); chk.E(err) {
			return
		}
		if !wins {
			log.D.F(
				"SaveEvent: not admitting %s (created_at=%d): older than current holder of its replacement key",
				hex.Enc(ev.ID), ev.CreatedAt,
			)
			return
		}
	}
	var enc []byte
	if enc, err = toon.Encode(ev); chk.E(err) {
		return
	}
	var serial uint64
	if serial, err = d.seq.Next(); chk.E(err) {
		return
	}
	ser := new(types.Uint40)
	if err = ser.Set(serial); chk.E(err) {
		return
	}
	idxs := indexes.ForEvent(ev, ser)
	err = d.Update(
		func(txn *badger.Txn) (err error) {
			for _, old := range displaced {
				if err = d.deleteEventInTxn(txn, old); chk.E(err) {
					return
				}
			}
			for _, key := range idxs {
				if err = txn.Set(key, nil); chk.E(err) {
					return
				}
			}
			if err = txn.Set(indexes.EventKey(ser), enc); chk.E(err) {
				return
			}
			return
		},
	)
	if err != nil {
		return
	}
	admitted = true
	log.T.F(
		"SaveEvent: stored %s kind=%d created_at=%d (%d bytes)",
		hex.Enc(ev.ID), ev.Kind, ev.CreatedAt, len(enc),
	)
	return
}

// findReplaced locates the current holders of the event's replacement key
// and decides whether the candidate wins: newer created_at wins, and on a
// tie the lexicographically smaller id wins.
func (d *D) findReplaced(ev *event.E) (
	displaced types.Uint40s, wins bool, err error,
) {
	var dTag []byte
	param := kind.IsParameterizedReplaceable(ev.Kind)
	if param {
		// a missing d tag replaces as d=""
		if t := ev.Tags.GetFirst([]byte("d")); t != nil {
			dTag = t.Value()
		}
	}
	var sers types.Uint40s
	if sers, err = d.scanPrefix(
		indexes.PubkeyKindPrefix(ev.Pubkey, ev.Kind), 0, 0,
	); chk.E(err) {
		return
	}
	wins = true
	for _, s := range sers {
		var old *event.E
		if old, err = d.FetchEventBySerial(s); err != nil {
			// an index row with no record is stale; ignore it
			err = nil
			continue
		}
		if param {
			var oldD []byte
			if t := old.Tags.GetFirst([]byte("d")); t != nil {
				oldD = t.Value()
			}
			if string(oldD) != string(dTag) {
				continue
			}
		}
		if old.CreatedAt > ev.CreatedAt ||
			(old.CreatedAt == ev.CreatedAt &&
				string(old.ID) < string(ev.ID)) {
			wins = false
			displaced = nil
			return
		}
		displaced = append(displaced, s)
	}
	return
}

// deleteEventInTxn removes an event record and all its index rows.
func (d *D) deleteEventInTxn(txn *badger.Txn, ser *types.Uint40) (err error) {
	var old *event.E
	if old, err = d.fetchEventInTxn(txn, ser); err != nil {
		return
	}
	for _, key := range indexes.ForEvent(old, ser) {
		if err = txn.Delete(key); chk.E(err) {
			return
		}
	}
	if err = txn.Delete(indexes.EventKey(ser)); chk.E(err) {
		return
	}
	log.D.F("SaveEvent: displaced %s (created_at=%d)",
		hex.Enc(old.ID), old.CreatedAt)
	return
}
