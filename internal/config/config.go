// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load layers a YAML file and environment variables on top of New().
// - Failures wrap this package's sentinel errors.
package config

import (
	"runtime"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects json or console output.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// QueueSize bounds the recompute job queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of recompute workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize bounds how many upload idempotency keys are remembered.
	DedupeSize int `koanf:"dedupe_size"`

	// Seed drives the random sources when Variation is on. Zero picks a
	// time-based seed.
	Seed uint64 `koanf:"seed"`

	// Variation reintroduces visible run-to-run variation: impact jitter and
	// serendipity recommendations. Off keeps every output reproducible.
	Variation bool `koanf:"variation"`

	// RecommendTopN and RecommendThreshold are the recommendation defaults.
	RecommendTopN      int     `koanf:"recommend_top_n"`
	RecommendThreshold float64 `koanf:"recommend_threshold"`

	// SimilarityThreshold is the Jaccard similarity that counts as "similar".
	SimilarityThreshold float64 `koanf:"similarity_threshold"`

	// GridThreshold is the event count from which clustering uses the grid index.
	GridThreshold int `koanf:"grid_threshold"`

	// ImpactBoardLimit caps GET /impact/leaderboard?limit.
	ImpactBoardLimit int `koanf:"impact_board_limit"`

	// MaxEvents caps the size of one event snapshot.
	MaxEvents int `koanf:"max_events"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		LogFormat:           "json",
		Addr:                ":9080",
		QueueSize:           1024,
		WorkerCount:         runtime.NumCPU(),
		DedupeSize:          64,
		RecommendTopN:       6,
		RecommendThreshold:  30,
		SimilarityThreshold: 0.3,
		GridThreshold:       256,
		ImpactBoardLimit:    100,
		MaxEvents:           50_000,
	}
}

// Validate checks values that have no safe fallback.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return invalid("addr must not be empty")
	case c.RecommendTopN < 1:
		return invalid("recommend_top_n must be at least 1")
	case c.GridThreshold < 0:
		return invalid("grid_threshold must not be negative")
	case c.SimilarityThreshold <= 0 || c.SimilarityThreshold > 1:
		return invalid("similarity_threshold must be in (0, 1]")
	case c.QueueSize < 1:
		return invalid("queue_size must be at least 1")
	case c.WorkerCount < 1:
		return invalid("worker_count must be at least 1")
	case c.ImpactBoardLimit < 1:
		return invalid("impact_board_limit must be at least 1")
	case c.MaxEvents < 1:
		return invalid("max_events must be at least 1")
	}
	return nil
}
