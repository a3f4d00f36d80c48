// Package repository holds the derived state of the service: the impact
// leaderboard and the per-zoom-band cluster cache. Every write carries the
// snapshot version it was computed for and older versions are rejected.
package repository

import (
	"context"

	"github.com/okian/eventmap/internal/domain/types"
)

// Record is one event's impact result to be ranked.
type Record struct {
	EventID  string
	Score    float64
	Band     string
	Category string
	Title    string
}

// Store provides read/write access to the impact leaderboard.
type Store interface {
	// Replace swaps the whole leaderboard for the records of one snapshot
	// version. It returns ErrStaleVersion if a newer version is stored.
	Replace(ctx context.Context, version uint64, records []Record) error

	// Rank returns the current rank and score of an event.
	// Returns ErrNotFound if the event is not ranked.
	Rank(ctx context.Context, eventID string) (types.Entry, error)

	// TopN returns the top-N entries ordered by score desc, event id asc.
	TopN(ctx context.Context, n int) ([]types.Entry, error)

	// Count returns the number of ranked events.
	Count(ctx context.Context) int

	// Version returns the snapshot version of the stored leaderboard.
	Version() uint64
}
