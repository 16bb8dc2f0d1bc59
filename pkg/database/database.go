// Package database is the event store: badger-backed, one serial per stored
// event, key-only index rows for every filterable dimension, and the
// replacement semantics of the nostr retention classes enforced inside a
// single writer lock.
package database

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"lol.mleku.dev/chk"
	"lol.mleku.dev/log"

	"crosstown.dev/pkg/utils/apputil"
	"crosstown.dev/pkg/utils/units"
)

// D is the event store handle.
type D struct {
	ctx     context.Context
	dataDir string
	Logger  *logger
	*badger.DB
	seq *badger.Sequence

	// replaceMx serializes writes so concurrent stores for the same
	// replacement key cannot interleave their read-modify-write.
	replaceMx sync.Mutex
}

// New opens the event store. An empty dataDir, or one that cannot be
// created or written, falls back to a volatile in-memory store with a
// warning: the relay stays serviceable, it just forgets on restart.
func New(ctx context.Context, dataDir, logLevel string) (d *D, err error) {
	d = &D{
		ctx:     ctx,
		dataDir: dataDir,
		Logger:  NewLogger(logLevel),
	}
	var opts badger.Options
	if dataDir == "" {
		log.W.F("no data directory configured; using volatile in-memory event store")
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else if err = usableDir(dataDir); err != nil {
		log.W.F(
			"data directory %s unusable (%v); using volatile in-memory event store",
			dataDir, err,
		)
		err = nil
		d.dataDir = ""
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(dataDir)
	}
	// keep table and cache sizes moderate; the default block size is right,
	// oversized buffers cause large startup allocations.
	opts.BlockCacheSize = int64(256 * units.Mb)
	opts.BlockSize = 4 * units.Kb
	opts.BaseTableSize = 64 * units.Mb
	opts.MemTableSize = 64 * units.Mb
	opts.ValueLogFileSize = 256 * units.Mb
	opts.CompactL0OnClose = true
	opts.Compression = options.None
	opts.Logger = d.Logger
	if d.DB, err = badger.Open(opts); chk.E(err) {
		return
	}
	log.T.Ln("getting event sequence lease", d.dataDir)
	if d.seq, err = d.DB.GetSequence([]byte("EVENTS"), 1000); chk.E(err) {
		return
	}
	return
}

// usableDir ensures the directory exists and is writable.
func usableDir(dataDir string) (err error) {
	if err = os.MkdirAll(dataDir, 0755); err != nil {
		return
	}
	probe := filepath.Join(dataDir, ".probe")
	if err = apputil.EnsureDir(probe); err != nil {
		return
	}
	var f *os.File
	if f, err = os.Create(probe); err != nil {
		return
	}
	f.Close()
	os.Remove(probe)
	return
}

// Path returns the path where the database files are stored, empty for the
// in-memory store.
func (d *D) Path() string { return d.dataDir }

// InMemory reports whether the store is volatile.
func (d *D) InMemory() bool { return d.dataDir == "" }

// SetLogLevel adjusts the badger logger level by name.
func (d *D) SetLogLevel(level string) { d.Logger.SetLogLevel(level) }

// Sync flushes the database buffers to disk.
func (d *D) Sync() (err error) {
	if d.InMemory() {
		return
	}
	d.DB.RunValueLogGC(0.5)
	return d.DB.Sync()
}

// Close releases the sequence lease and closes the database.
func (d *D) Close() (err error) {
	log.D.F("%s: closing database", d.dataDir)
	if d.seq != nil {
		if err = d.seq.Release(); chk.E(err) {
			return
		}
	}
	if d.DB != nil {
		if err = d.DB.Close(); chk.E(err) {
			return
		}
	}
	log.I.F("%s: database closed", d.dataDir)
	return
}
