package database

import (
	"bufio"
	"context"
	"io"

	"github.com/dgraph-io/badger/v4"
	"lol.mleku.dev/chk"
	"lol.mleku.dev/log"

	"crosstown.dev/pkg/database/indexes"
	"crosstown.dev/pkg/encoders/event"
	"crosstown.dev/pkg/encoders/hex"
	"crosstown.dev/pkg/encoders/toon"
	"crosstown.dev/pkg/utils/units"
)

// Export streams every stored event to w as JSONL, one canonical JSON event
// per line, in serial (arrival) order.
func (d *D) Export(c context.Context, w io.Writer) (err error) {
	prefix := []byte{indexes.Event}
	err = d.View(
		func(txn *badger.Txn) (err error) {
			it := txn.NewIterator(badger.IteratorOptions{
				Prefix:         prefix,
				PrefetchValues: true,
				PrefetchSize:   100,
			})
			defer it.Close()
			for it.Rewind(); it.ValidForPrefix(prefix); it.Next() {
				select {
				case <-c.Done():
					return
				default:
				}
				var v []byte
				if v, err = it.Item().ValueCopy(nil); chk.E(err) {
					return
				}
				var ev *event.E
				if ev, err = toon.Decode(v); err != nil {
					log.W.F("export: undecodable record skipped: %v", err)
					err = nil
					continue
				}
				b := ev.Marshal(nil)
				b = append(b, '\n')
				if _, err = w.Write(b); err != nil {
					return
				}
			}
			return
		},
	)
	return
}

// Import reads JSONL events from r, verifies each id and signature, and
// stores the valid ones. Invalid lines are logged and skipped; the count of
// stored events is returned.
func (d *D) Import(c context.Context, r io.Reader) (n int, err error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, units.Mb), 8*units.Mb)
	for scanner.Scan() {
		select {
		case <-c.Done():
			return
		default:
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		ev := event.New()
		if _, err = ev.Unmarshal(line); err != nil {
			log.W.F("import: bad line skipped: %v", err)
			err = nil
			continue
		}
		var ok bool
		if ok, err = ev.Verify(); err != nil || !ok {
			log.W.F("import: invalid signature on %s, skipped",
				hex.Enc(ev.ID))
			err = nil
			continue
		}
		var admitted bool
		if admitted, err = d.SaveEvent(c, ev); err != nil {
			return
		}
		if admitted {
			n++
		}
	}
	err = scanner.Err()
	return
}
