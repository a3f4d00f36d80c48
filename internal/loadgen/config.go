// Package loadgen generates synthetic community events and drives a running
// event map server through its HTTP API: upload, clustering at every zoom
// band, recommendations and the impact leaderboard. Each step verifies the
// responses against the uploaded data.
package loadgen

import (
	"time"

	"github.com/okian/eventmap/internal/domain/model"
)

// Config holds configuration for one load run.
type Config struct {
	BaseURL   string           // Base URL of the service
	NumEvents int              // Number of events to generate
	Center    model.Coordinate // Center of the generated area
	SpreadKm  float64          // Radius of the generated area
	HotSpots  int              // Dense areas events gather around
	Seed      uint64           // Generator seed; zero picks a time-based one
	TopN      int              // Leaderboard entries and recommendations to fetch
	Workers   int              // Concurrent rank lookups
	RankCheck int              // Events whose leaderboard rank is looked up
	Timeout   time.Duration    // HTTP request timeout
	Wait      time.Duration    // How long to wait for background recompute
	Output    string           // Optional file the generated events are written to
}

// DefaultConfig returns the settings used by cmd/loadgen.
func DefaultConfig() Config {
	return Config{
		BaseURL:   "http://localhost:9080",
		NumEvents: 5000,
		Center:    model.Coordinate{Lat: 52.52, Lng: 13.405},
		SpreadKm:  25,
		HotSpots:  12,
		TopN:      10,
		Workers:   8,
		RankCheck: 200,
		Timeout:   30 * time.Second,
		Wait:      2 * time.Minute,
	}
}

// Stats summarizes a load run.
type Stats struct {
	EventsGenerated int
	EventsAccepted  int
	EventsDropped   int
	Version         uint64
	Bands           map[string]BandStats
	Recommended     int
	RanksChecked    int
	RankFailures    int
	LeaderboardSize int
	StartTime       time.Time
	Duration        time.Duration
}

// BandStats is what one zoom band clustered the upload into.
type BandStats struct {
	Zoom        float64
	Clusters    int
	Clustered   int
	Unclustered int
	Cached      bool
}
