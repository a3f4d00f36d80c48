// Package types contains value types shared by the service and its adapters.
package types

import (
	"github.com/okian/eventmap/internal/domain/cluster"
	"github.com/okian/eventmap/internal/domain/model"
	"github.com/okian/eventmap/internal/domain/validate"
)

// Entry is one row of the impact leaderboard.
type Entry struct {
	Rank     int     `json:"rank"`
	EventID  string  `json:"event_id"`
	Score    float64 `json:"score"`
	Band     string  `json:"band"`
	Category string  `json:"category,omitempty"`
	Title    string  `json:"title,omitempty"`
}

// Stats is the operational summary served by GET /stats.
type Stats struct {
	SnapshotVersion  uint64 `json:"snapshot_version"`
	SnapshotEvents   int    `json:"snapshot_events"`
	Dropped          int    `json:"dropped"`
	ComputedVersion  uint64 `json:"computed_version"`
	CachedBands      int    `json:"cached_bands"`
	LeaderboardSize  int    `json:"leaderboard_size"`
	QueueLength      int    `json:"queue_length"`
	QueueCapacity    int    `json:"queue_capacity"`
	WorkerCount      int    `json:"worker_count"`
	JobsProcessed    int64  `json:"jobs_processed"`
	JobsStale        int64  `json:"jobs_stale"`
	DuplicateUploads int64  `json:"duplicate_uploads"`
	VariationEnabled bool   `json:"variation_enabled"`
}

// Upload describes the outcome of replacing the event set.
type Upload struct {
	Version  uint64 `json:"version"`
	Accepted int    `json:"accepted"`
	Dropped  int    `json:"dropped"`
	// Duplicate is set when the sanitized events equal the current snapshot;
	// no new version is created.
	Duplicate bool `json:"duplicate"`
	// Replayed is set when the idempotency key was already used.
	Replayed    bool                 `json:"replayed"`
	JobID       string               `json:"job_id,omitempty"`
	Scheduled   bool                 `json:"scheduled"`
	Diagnostics validate.Diagnostics `json:"diagnostics,omitempty"`
}

// EventSet is the current snapshot as served by GET /events.
type EventSet struct {
	Version uint64        `json:"version"`
	Events  []model.Event `json:"events"`
}

// ClusterView is the clustering of one snapshot at one zoom band.
type ClusterView struct {
	Version uint64
	Zoom    float64
	Band    cluster.Band
	Cached  bool
	Result  cluster.Result
}

// RecommendQuery selects what gets ranked for a profile.
type RecommendQuery struct {
	Profile model.UserProfile
	// TopN falls back to the configured default when zero.
	TopN int
	// Threshold falls back to the configured default when nil.
	Threshold *float64
	// Events are ranked instead of the snapshot when non-empty. Snapshot
	// events still resolve the profile's past events.
	Events []model.Event
}
