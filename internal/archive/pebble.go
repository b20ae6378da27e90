package archive

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/cockroachdb/pebble"

	pebblestore "github.com/rzbill/dispatchq/internal/storage/pebble"
	"github.com/rzbill/dispatchq/pkg/id"
	"github.com/rzbill/dispatchq/pkg/log"
)

// Keyspace: cmp/{id_be16}. IDs embed the append timestamp, so the key
// order is completion order and age-based trims are range deletes.
var cmpPrefix = []byte("cmp/")

func keyFor(eid id.ID) []byte {
	k := make([]byte, 0, len(cmpPrefix)+id.Size)
	k = append(k, cmpPrefix...)
	k = append(k, eid.Bytes()...)
	return k
}

func keyBounds() (lo, hi []byte) {
	var maxID id.ID
	for i := range maxID {
		maxID[i] = 0xFF
	}
	return keyFor(id.ID{}), append(keyFor(maxID), 0x00)
}

// PebbleOptions configures the embedded archive backend.
type PebbleOptions struct {
	// DataDir is the directory for the archive's Pebble database.
	DataDir string
	// Fsync selects the WAL sync policy. Zero selects group-commit.
	Fsync pebblestore.FsyncMode
	// FsyncInterval controls group-commit when Fsync is interval mode.
	FsyncInterval time.Duration
	Logger        log.Logger
}

// PebbleArchive is the embedded backend. It owns its database.
type PebbleArchive struct {
	db     *pebblestore.DB
	gen    *id.Generator
	logger log.Logger
}

const trimBatchLimit = 512

// OpenPebble creates or opens the archive database under opts.DataDir.
func OpenPebble(opts PebbleOptions) (*PebbleArchive, error) {
	if opts.DataDir == "" {
		return nil, errors.New("archive: PebbleOptions.DataDir is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.NewNopLogger()
	}
	db, err := pebblestore.Open(pebblestore.Options{
		DataDir:       opts.DataDir,
		Fsync:         opts.Fsync,
		FsyncInterval: opts.FsyncInterval,
	})
	if err != nil {
		return nil, err
	}
	return &PebbleArchive{
		db:     db,
		gen:    id.NewGenerator(),
		logger: logger.WithComponent("archive"),
	}, nil
}

// Append records one completion under a freshly minted ID.
func (a *PebbleArchive) Append(ctx context.Context, e Entry) error {
	eid := a.gen.Next()
	e.ID = eid.String()
	if e.CompletedAt.IsZero() {
		e.CompletedAt = eid.Time()
	}
	val, err := json.Marshal(e)
	if err != nil {
		return err
	}
	b := a.db.NewBatch()
	defer b.Close()
	if err := b.Set(keyFor(eid), val, nil); err != nil {
		return err
	}
	return a.db.CommitBatch(ctx, b)
}

// Recent returns up to limit entries, newest first, from a consistent
// snapshot so concurrent appends do not tear the scan.
func (a *PebbleArchive) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	lo, hi := keyBounds()
	snap := a.db.NewSnapshot()
	defer snap.Close()
	iter, err := snap.NewIter(&pebble.IterOptions{LowerBound: lo, UpperBound: hi})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	out := make([]Entry, 0, limit)
	for ok := iter.Last(); ok && len(out) < limit; ok = iter.Prev() {
		var e Entry
		if err := json.Unmarshal(iter.Value(), &e); err != nil {
			a.logger.Warn("skipping undecodable archive entry", log.Err(err))
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

// TrimBefore deletes entries minted before cutoff in batches, then asks
// the store to compact the vacated range.
func (a *PebbleArchive) TrimBefore(ctx context.Context, cutoff time.Time) (int, error) {
	lo, _ := keyBounds()
	bound := keyFor(id.FromTime(cutoff))

	deleted := 0
	for {
		iter, err := a.db.NewIter(&pebble.IterOptions{LowerBound: lo, UpperBound: bound})
		if err != nil {
			return deleted, err
		}
		b := a.db.NewBatch()
		n := 0
		for ok := iter.First(); ok && n < trimBatchLimit; ok = iter.Next() {
			if err := b.Delete(iter.Key(), nil); err != nil {
				b.Close()
				iter.Close()
				return deleted, err
			}
			n++
		}
		iter.Close()
		if n == 0 {
			b.Close()
			break
		}
		if err := a.db.CommitBatch(ctx, b); err != nil {
			b.Close()
			return deleted, err
		}
		b.Close()
		deleted += n
		if n < trimBatchLimit {
			break
		}
	}
	if deleted > 0 {
		if err := a.db.CompactRange(lo, bound); err != nil {
			a.logger.Warn("archive compaction failed", log.Err(err))
		}
	}
	return deleted, nil
}

// Stats scans the keyspace. Retention trims keep it small enough for that.
func (a *PebbleArchive) Stats(ctx context.Context) (Stats, error) {
	lo, hi := keyBounds()
	iter, err := a.db.NewIter(&pebble.IterOptions{LowerBound: lo, UpperBound: hi})
	if err != nil {
		return Stats{}, err
	}
	defer iter.Close()

	var st Stats
	for ok := iter.First(); ok; ok = iter.Next() {
		if st.Entries == 0 {
			if eid, err := id.FromBytes(iter.Key()[len(cmpPrefix):]); err == nil {
				st.Oldest = eid.Time()
			}
		}
		st.Entries++
	}
	return st, nil
}

// Close closes the underlying database.
func (a *PebbleArchive) Close() error {
	return a.db.Close()
}
