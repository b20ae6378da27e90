package archive

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/rzbill/dispatchq/pkg/id"
	"github.com/rzbill/dispatchq/pkg/log"
)

// PostgresArchive stores completions in a completions table. IDs are the
// same sortable hex IDs the embedded backend uses, so ORDER BY id is
// completion order.
type PostgresArchive struct {
	db     *sql.DB
	gen    *id.Generator
	logger log.Logger
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS completions (
		id TEXT PRIMARY KEY,
		message_id TEXT NOT NULL,
		topic TEXT NOT NULL DEFAULT '',
		outcome TEXT NOT NULL,
		reason TEXT NOT NULL DEFAULT '',
		attempt INT NOT NULL DEFAULT 1,
		completed_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS completions_completed_at_idx ON completions (completed_at)`,
}

// OpenPostgres connects, verifies the connection and ensures the schema.
func OpenPostgres(dsn string, logger log.Logger) (*PostgresArchive, error) {
	if dsn == "" {
		return nil, errors.New("archive: postgres DSN is required")
	}
	if logger == nil {
		logger = log.NewNopLogger()
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("archive: open postgres: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("archive: connect postgres: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)

	for _, stmt := range postgresSchema {
		if _, err := db.Exec(stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("archive: ensure schema: %w", err)
		}
	}
	a := &PostgresArchive{
		db:     db,
		gen:    id.NewGenerator(),
		logger: logger.WithComponent("archive"),
	}
	a.logger.Debug("Postgres archive ready")
	return a, nil
}

// Append records one completion under a freshly minted ID. Replays of the
// same ID are ignored.
func (a *PostgresArchive) Append(ctx context.Context, e Entry) error {
	eid := a.gen.Next()
	e.ID = eid.String()
	if e.CompletedAt.IsZero() {
		e.CompletedAt = eid.Time()
	}
	const q = `
	INSERT INTO completions (id, message_id, topic, outcome, reason, attempt, completed_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	ON CONFLICT (id) DO NOTHING`
	_, err := a.db.ExecContext(ctx, q, e.ID, e.MessageID, e.Topic, e.Outcome, e.Reason, e.Attempt, e.CompletedAt)
	if err != nil {
		return fmt.Errorf("archive: append: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (a *PostgresArchive) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	const q = `
	SELECT id, message_id, topic, outcome, reason, attempt, completed_at
	FROM completions ORDER BY id DESC LIMIT $1`
	rows, err := a.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("archive: recent: %w", err)
	}
	defer rows.Close()

	out := make([]Entry, 0, limit)
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.MessageID, &e.Topic, &e.Outcome, &e.Reason, &e.Attempt, &e.CompletedAt); err != nil {
			return nil, fmt.Errorf("archive: scan: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// TrimBefore deletes entries completed before cutoff.
func (a *PostgresArchive) TrimBefore(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := a.db.ExecContext(ctx, `DELETE FROM completions WHERE completed_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("archive: trim: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// Stats reports entry count and the oldest completion time.
func (a *PostgresArchive) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	var oldest sql.NullTime
	row := a.db.QueryRowContext(ctx, `SELECT COUNT(*), MIN(completed_at) FROM completions`)
	if err := row.Scan(&st.Entries, &oldest); err != nil {
		return Stats{}, fmt.Errorf("archive: stats: %w", err)
	}
	if oldest.Valid {
		st.Oldest = oldest.Time
	}
	return st, nil
}

// Close closes the connection pool.
func (a *PostgresArchive) Close() error {
	return a.db.Close()
}
