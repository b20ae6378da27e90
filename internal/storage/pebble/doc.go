// Package pebblestore provides a thin wrapper around Pebble with fsync policy,
// snapshots, and batches. The completion archive uses it as its durable store.
//
// Usage:
//
//	db, err := pebblestore.Open(pebblestore.Options{
//	    DataDir: "./data",
//	    Fsync:   pebblestore.FsyncModeInterval,
//	})
//	if err != nil { /* handle */ }
//	defer db.Close()
//
//	// Atomic updates with batches
//	b := db.NewBatch()
//	_ = b.Set([]byte("k"), []byte("v"), nil)
//	_ = db.CommitBatch(context.Background(), b)
//	b.Close()
//
// Reads go through snapshots or iterators; the archive scans its keyspace
// rather than doing point lookups.
package pebblestore
