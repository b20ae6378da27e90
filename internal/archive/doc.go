// Package archive records dispatch completions durably so operators can
// inspect recent outcomes after the fact. Two backends are provided: an
// embedded Pebble store keyed by sortable IDs, and a Postgres table for
// deployments that already run a database.
//
// Entries are append-only. A retention trim deletes entries older than a
// cutoff; the runtime schedules it periodically.
//
// Usage:
//
//	a, err := archive.OpenPebble(archive.PebbleOptions{DataDir: "./data/archive"})
//	if err != nil { /* handle */ }
//	defer a.Close()
//
//	_ = a.Append(ctx, archive.Entry{MessageID: "m-1", Outcome: "success", CompletedAt: time.Now()})
//	recent, _ := a.Recent(ctx, 50)
package archive
