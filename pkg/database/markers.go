package database

import (
	"github.com/dgraph-io/badger/v4"
	"lol.mleku.dev/chk"

	"crosstown.dev/pkg/database/indexes"
)

// SetMarker stores a named operational marker, such as the mirror's
// one-time backfill state.
func (d *D) SetMarker(name string, value []byte) (err error) {
	err = d.Update(
		func(txn *badger.Txn) (err error) {
			return txn.Set(indexes.MarkerKey(name), value)
		},
	)
	return
}

// GetMarker returns a marker's value, or nil when it was never set.
func (d *D) GetMarker(name string) (value []byte, err error) {
	err = d.View(
		func(txn *badger.Txn) (err error) {
			item, err := txn.Get(indexes.MarkerKey(name))
			if err == badger.ErrKeyNotFound {
				return nil
			}
			if chk.E(err) {
				return
			}
			value, err = item.ValueCopy(nil)
			return
		},
	)
	return
}

// HasMarker reports whether a marker has been set.
func (d *D) HasMarker(name string) bool {
	v, err := d.GetMarker(name)
	return err == nil && v != nil
}
