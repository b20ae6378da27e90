package pebblestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cockroachdb/pebble"
)

// FsyncMode selects when committed writes force a WAL sync.
type FsyncMode int

const (
	FsyncModeUnspecified FsyncMode = iota
	// FsyncModeAlways syncs the WAL on every commit.
	FsyncModeAlways
	// FsyncModeInterval lets Pebble coalesce WAL syncs for commits inside
	// FsyncInterval, trading a bounded durability window for throughput.
	FsyncModeInterval
	// FsyncModeNever issues no application-driven syncs. Pebble still
	// syncs on its own schedule.
	FsyncModeNever
)

// ParseFsyncMode maps a config string to a mode. Empty selects interval.
func ParseFsyncMode(s string) (FsyncMode, error) {
	switch s {
	case "", "interval":
		return FsyncModeInterval, nil
	case "always":
		return FsyncModeAlways, nil
	case "never":
		return FsyncModeNever, nil
	default:
		return FsyncModeUnspecified, fmt.Errorf("pebble: unknown fsync mode %q", s)
	}
}

// Options configures the store.
type Options struct {
	// DataDir is the database directory.
	DataDir string
	// Fsync selects the WAL sync policy. Zero behaves like interval.
	Fsync FsyncMode
	// FsyncInterval bounds group-commit latency under FsyncModeInterval.
	// Zero selects 5ms.
	FsyncInterval time.Duration
	// PebbleOptions tunes the underlying store. Nil gets defaults.
	PebbleOptions *pebble.Options
}

// DB owns one Pebble database and applies the configured sync policy to
// every commit.
type DB struct {
	inner     *pebble.DB
	writeSync bool
}

// Open creates or opens the database under opts.DataDir.
func Open(opts Options) (*DB, error) {
	if opts.DataDir == "" {
		return nil, errors.New("pebble: Options.DataDir is required")
	}

	po := opts.PebbleOptions
	if po == nil {
		po = &pebble.Options{}
	}
	switch opts.Fsync {
	case FsyncModeAlways, FsyncModeNever:
		// always syncs per commit, never not at all; neither wants a WAL
		// sync interval
	default:
		interval := opts.FsyncInterval
		if interval <= 0 {
			interval = 5 * time.Millisecond
		}
		po.WALMinSyncInterval = func() time.Duration { return interval }
	}

	inner, err := pebble.Open(opts.DataDir, po)
	if err != nil {
		return nil, err
	}
	return &DB{inner: inner, writeSync: opts.Fsync == FsyncModeAlways}, nil
}

// Close closes the database.
func (db *DB) Close() error {
	if db == nil || db.inner == nil {
		return nil
	}
	return db.inner.Close()
}

// NewSnapshot returns a consistent read view. The caller closes it.
func (db *DB) NewSnapshot() *pebble.Snapshot {
	return db.inner.NewSnapshot()
}

// NewBatch starts a batch of atomic updates.
func (db *DB) NewBatch() *pebble.Batch {
	return db.inner.NewBatch()
}

// CommitBatch commits b under the configured sync policy.
func (db *DB) CommitBatch(ctx context.Context, b *pebble.Batch) error {
	if b == nil {
		return errors.New("pebble: nil batch")
	}
	if db.writeSync {
		return b.Commit(pebble.Sync)
	}
	return b.Commit(pebble.NoSync)
}

// NewIter returns a raw iterator over the store.
func (db *DB) NewIter(opts *pebble.IterOptions) (*pebble.Iterator, error) {
	return db.inner.NewIter(opts)
}

// CompactRange compacts the key range [start, end), reclaiming space
// after bulk deletes.
func (db *DB) CompactRange(start, end []byte) error {
	return db.inner.Compact(start, end, true)
}
