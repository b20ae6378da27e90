package archive

import (
	"context"
	"time"
)

// Entry is one archived completion record.
type Entry struct {
	ID          string    `json:"id"`
	MessageID   string    `json:"messageId"`
	Topic       string    `json:"topic,omitempty"`
	Outcome     string    `json:"outcome"`
	Reason      string    `json:"reason,omitempty"`
	Attempt     int       `json:"attempt"`
	CompletedAt time.Time `json:"completedAt"`
}

// Stats summarizes the archive contents.
type Stats struct {
	Entries int64     `json:"entries"`
	Oldest  time.Time `json:"oldest,omitempty"`
}

// Archive stores completion records. Implementations assign Entry.ID on
// Append; callers leave it empty.
type Archive interface {
	// Append records one completion. The entry's ID is assigned here.
	Append(ctx context.Context, e Entry) error
	// Recent returns up to limit entries, newest first.
	Recent(ctx context.Context, limit int) ([]Entry, error)
	// TrimBefore deletes entries completed before cutoff. Returns the
	// number deleted.
	TrimBefore(ctx context.Context, cutoff time.Time) (int, error)
	// Stats reports entry count and the oldest completion time.
	Stats(ctx context.Context) (Stats, error)
	Close() error
}

const defaultRecentLimit = 50
