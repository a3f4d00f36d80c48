package loadgen

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/okian/eventmap/internal/domain/model"
	"github.com/okian/eventmap/pkg/logger"
)

// Zoom levels probed, one per clustering band.
var bandZooms = []float64{14, 11, 9, 5}

const (
	pollInterval        = 100 * time.Millisecond
	recommendThreshold  = 30.0
	profileMaxDistance  = 15.0
	directoryPermission = 0o750
	scoreTolerance      = 1e-9
)

// Run executes the complete load run against cfg.BaseURL.
func Run(ctx context.Context, cfg Config) (*Stats, error) {
	log := logger.Get().Named("loadgen")
	stats := &Stats{StartTime: time.Now(), Bands: map[string]BandStats{}}
	client := NewClient(cfg.BaseURL, cfg.Timeout)

	log.Info(ctx, "starting load run",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("events", cfg.NumEvents),
		logger.Int("hotSpots", cfg.HotSpots),
		logger.Uint64("seed", cfg.Seed))

	if err := client.Health(ctx); err != nil {
		return stats, fmt.Errorf("health check: %w", err)
	}

	events, err := NewGenerator(cfg).Generate(cfg.NumEvents)
	if err != nil {
		return stats, fmt.Errorf("generate: %w", err)
	}
	stats.EventsGenerated = len(events)

	if cfg.Output != "" {
		if err := saveEvents(cfg.Output, events); err != nil {
			log.Warn(ctx, "failed to save events", logger.String("file", cfg.Output), logger.Error(err))
		}
	}

	up, err := client.PutEvents(ctx, uuid.NewString(), events)
	if err != nil {
		return stats, fmt.Errorf("upload: %w", err)
	}
	stats.EventsAccepted = up.Accepted
	stats.EventsDropped = up.Dropped
	stats.Version = up.Version
	log.Info(ctx, "snapshot uploaded",
		logger.Uint64("version", up.Version),
		logger.Int("accepted", up.Accepted),
		logger.Int("dropped", up.Dropped),
		logger.Bool("duplicate", up.Duplicate))

	if err := waitComputed(ctx, client, up.Version, cfg.Wait); err != nil {
		return stats, err
	}

	known := make(map[string]struct{}, len(events))
	for _, ev := range events {
		known[ev.ID] = struct{}{}
	}
	for _, zoom := range bandZooms {
		v, err := client.Clusters(ctx, zoom)
		if err != nil {
			return stats, fmt.Errorf("clusters at zoom %v: %w", zoom, err)
		}
		if err := verifyPartition(known, up.Accepted, v); err != nil {
			return stats, err
		}
		clustered := 0
		for _, c := range v.Clusters {
			clustered += len(c.MemberIDs)
		}
		stats.Bands[v.Band] = BandStats{
			Zoom:        zoom,
			Clusters:    len(v.Clusters),
			Clustered:   clustered,
			Unclustered: len(v.Unclustered),
			Cached:      v.Cached,
		}
		log.Info(ctx, "clusters verified",
			logger.String("band", v.Band),
			logger.Int("clusters", len(v.Clusters)),
			logger.Int("unclustered", len(v.Unclustered)),
			logger.Bool("cached", v.Cached))
	}

	threshold := recommendThreshold
	res, err := client.Recommend(ctx, RecommendRequest{
		Profile:   syntheticProfile(cfg.Center),
		TopN:      cfg.TopN,
		Threshold: &threshold,
	})
	if err != nil {
		return stats, fmt.Errorf("recommend: %w", err)
	}
	if err := verifyRecommendations(res, cfg.TopN, threshold); err != nil {
		return stats, err
	}
	stats.Recommended = len(res.Items)

	board, err := client.Leaderboard(ctx, cfg.TopN)
	if err != nil {
		return stats, fmt.Errorf("leaderboard: %w", err)
	}
	if err := verifyLeaderboard(board); err != nil {
		return stats, err
	}
	stats.LeaderboardSize = len(board)
	if len(board) > 0 {
		top, err := client.Impact(ctx, board[0].EventID)
		if err != nil {
			return stats, fmt.Errorf("impact of leader: %w", err)
		}
		if top.Rank != 1 || math.Abs(top.OverallScore-board[0].Score) > scoreTolerance {
			return stats, fmt.Errorf("%w: leader %s has rank %d score %.3f, board says %.3f",
				ErrVerification, top.EventID, top.Rank, top.OverallScore, board[0].Score)
		}
	}

	checked, failed := checkRanks(ctx, client, events, cfg, up.Accepted)
	stats.RanksChecked = checked
	stats.RankFailures = failed

	stats.Duration = time.Since(stats.StartTime)
	log.Info(ctx, "load run completed",
		logger.Int("eventsGenerated", stats.EventsGenerated),
		logger.Int("eventsAccepted", stats.EventsAccepted),
		logger.Int("recommended", stats.Recommended),
		logger.Int("leaderboardEntries", stats.LeaderboardSize),
		logger.Int("ranksChecked", stats.RanksChecked),
		logger.Int("rankFailures", stats.RankFailures),
		logger.Duration("duration", stats.Duration))

	if failed > 0 {
		return stats, fmt.Errorf("%w: %d of %d rank lookups failed", ErrVerification, failed, checked)
	}
	return stats, nil
}

// waitComputed polls /stats until background recompute reaches version.
func waitComputed(ctx context.Context, c *Client, version uint64, limit time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, limit)
	defer cancel()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		st, err := c.Stats(ctx)
		if err == nil && st.ComputedVersion >= version {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: version %d", ErrNotComputed, version)
		case <-ticker.C:
		}
	}
}

// checkRanks looks up the leaderboard rank of up to cfg.RankCheck events
// with a pool of cfg.Workers goroutines.
func checkRanks(ctx context.Context, c *Client, events []model.Event, cfg Config, accepted int) (int, int) {
	n := min(cfg.RankCheck, len(events))
	if n <= 0 {
		return 0, 0
	}

	var (
		checked atomic.Int64
		failed  atomic.Int64
		wg      sync.WaitGroup
	)
	ids := make(chan string, max(cfg.Workers, 1)*2)
	for range max(cfg.Workers, 1) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range ids {
				checked.Add(1)
				ri, err := c.Impact(ctx, id)
				if err != nil || ri.Rank < 1 || ri.Rank > accepted {
					failed.Add(1)
				}
			}
		}()
	}

	go func() {
		defer close(ids)
		for _, ev := range events[:n] {
			select {
			case <-ctx.Done():
				return
			case ids <- ev.ID:
			}
		}
	}()
	wg.Wait()
	return int(checked.Load()), int(failed.Load())
}

// syntheticProfile is a nearby user who likes outdoor activities.
func syntheticProfile(center model.Coordinate) model.UserProfile {
	return model.UserProfile{
		Location:            center,
		MaxDistanceKm:       profileMaxDistance,
		PreferredCategories: []model.Category{model.CategoryEnvironment, model.CategoryCommunity},
		PreferredTimesOfDay: []model.TimeOfDay{model.Morning, model.Afternoon},
		DifficultyTolerance: []model.Difficulty{model.DifficultyEasy, model.DifficultyModerate},
		ImpactScore:         60,
	}
}

// saveEvents writes the generated events as a JSON array.
func saveEvents(path string, events []model.Event) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("create directory: %w", err)
		}
	}
	b, err := json.MarshalIndent(events, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o600)
}
