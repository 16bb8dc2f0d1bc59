package database

import (
	"github.com/dgraph-io/badger/v4"
	"lol.mleku.dev/chk"

	"crosstown.dev/pkg/database/indexes"
	"crosstown.dev/pkg/database/types"
	"crosstown.dev/pkg/encoders/event"
	"crosstown.dev/pkg/encoders/toon"
)

// FetchEventBySerial loads and decodes the event stored under a serial.
func (d *D) FetchEventBySerial(ser *types.Uint40) (ev *event.E, err error) {
	err = d.View(
		func(txn *badger.Txn) (err error) {
			ev, err = d.fetchEventInTxn(txn, ser)
			return
		},
	)
	return
}

func (d *D) fetchEventInTxn(txn *badger.Txn, ser *types.Uint40) (
	ev *event.E, err error,
) {
	var item *badger.Item
	if item, err = txn.Get(indexes.EventKey(ser)); err != nil {
		return
	}
	var v []byte
	if v, err = item.ValueCopy(nil); chk.E(err) {
		return
	}
	if ev, err = toon.Decode(v); chk.E(err) {
		return
	}
	return
}

// GetSerialById returns the serial an event id is stored under, or nil when
// the id is not present.
func (d *D) GetSerialById(id []byte) (ser *types.Uint40, err error) {
	prefix := indexes.IdPrefix(id)
	err = d.View(
		func(txn *badger.Txn) (err error) {
			it := txn.NewIterator(badger.IteratorOptions{Prefix: prefix})
			defer it.Close()
			it.Rewind()
			if it.ValidForPrefix(prefix) {
				key := it.Item().Key()
				if ser, err = types.FromBytes(key); chk.E(err) {
					return
				}
			}
			return
		},
	)
	return
}

// GetEventById does a point lookup of an event, returning nil when it is
// not stored.
func (d *D) GetEventById(id []byte) (ev *event.E, err error) {
	var ser *types.Uint40
	if ser, err = d.GetSerialById(id); chk.E(err) {
		return
	}
	if ser == nil {
		return
	}
	return d.FetchEventBySerial(ser)
}
