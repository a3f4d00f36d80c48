package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/okian/eventmap/internal/adapters/repository"
	"github.com/okian/eventmap/internal/domain/cluster"
	"github.com/okian/eventmap/internal/domain/impact"
	"github.com/okian/eventmap/internal/domain/model"
	"github.com/okian/eventmap/internal/domain/recommend"
	"github.com/okian/eventmap/internal/domain/types"
	"github.com/okian/eventmap/internal/domain/validate"
	"github.com/okian/eventmap/pkg/logger"
	"github.com/okian/eventmap/pkg/metrics"
)

// Clusters returns the clustering of the current snapshot for zoom. A
// cached result is used when the background job already produced it.
func (s *Service) Clusters(ctx context.Context, zoom float64) (types.ClusterView, error) {
	if err := s.ready(); err != nil {
		return types.ClusterView{}, err
	}
	if math.IsNaN(zoom) || math.IsInf(zoom, 0) || zoom < 0 {
		return types.ClusterView{}, fmt.Errorf("%w: %v", ErrInvalidZoom, zoom)
	}

	snap := s.current.Load()
	band := cluster.ZoomBand(zoom)
	res, hit := s.clusters.Get(snap.version, band)
	metrics.RecordClusterCache(hit)
	if !hit {
		var err error
		if res, err = s.computeBand(snap, band); err != nil {
			return types.ClusterView{}, err
		}
		s.cacheBand(ctx, snap.version, band, res)
	}
	return types.ClusterView{Version: snap.version, Zoom: zoom, Band: band, Cached: hit, Result: res}, nil
}

// cacheBand stores a result computed on the request path. A stale put means a
// newer snapshot landed meanwhile and is not worth reporting.
func (s *Service) cacheBand(ctx context.Context, version uint64, band cluster.Band, res cluster.Result) {
	err := s.clusters.Put(version, band, res)
	if err == nil || errors.Is(err, repository.ErrStaleVersion) {
		return
	}
	s.logger.Warn(ctx, "cluster result not cached",
		logger.Uint64("version", version),
		logger.String("band", string(band)),
		logger.Error(err),
	)
}

// ClusterAdhoc clusters caller-supplied events without touching the snapshot.
func (s *Service) ClusterAdhoc(_ context.Context, events []model.Event, p cluster.Params) (cluster.Result, error) {
	if err := s.ready(); err != nil {
		return cluster.Result{}, err
	}
	if len(events) > s.maxEvents {
		return cluster.Result{}, fmt.Errorf("%w: %d exceeds %d", ErrTooManyEvents, len(events), s.maxEvents)
	}
	start := time.Now()
	res, err := cluster.Events(events, p, s.clusterOptions()...)
	if err != nil {
		return cluster.Result{}, err
	}
	metrics.RecordClustering("adhoc", s.indexName(len(events)), len(res.Clusters), elapsedMs(start))
	return res, nil
}

// Recommend ranks events for a user profile.
func (s *Service) Recommend(_ context.Context, q types.RecommendQuery) (recommend.Result, error) {
	if err := s.ready(); err != nil {
		return recommend.Result{}, err
	}
	topN := q.TopN
	if topN == 0 {
		topN = s.topN
	}
	threshold := s.threshold
	if q.Threshold != nil {
		threshold = *q.Threshold
	}

	snap := s.current.Load()
	candidates := snap.events
	if len(q.Events) > 0 {
		candidates = q.Events
	}

	start := time.Now()
	res, err := snap.engine.Recommend(candidates, &q.Profile, topN, threshold)
	if err != nil {
		return recommend.Result{}, err
	}
	metrics.RecordRecommendation(len(res.Items), elapsedMs(start))
	return res, nil
}

// EstimateImpact estimates the impact of a caller-supplied event.
func (s *Service) EstimateImpact(_ context.Context, ev model.Event) (impact.Metrics, error) {
	if err := s.ready(); err != nil {
		return impact.Metrics{}, err
	}
	if err := validate.Struct(&ev); err != nil {
		return impact.Metrics{}, fmt.Errorf("%w: %w", ErrInvalidEvent, err)
	}
	start := time.Now()
	m := s.estimator.Estimate(&ev)
	metrics.RecordImpactEstimates(1, elapsedMs(start))
	return m, nil
}

// Impact returns the impact metrics of a snapshot event.
func (s *Service) Impact(_ context.Context, eventID string) (impact.Metrics, error) {
	if err := s.ready(); err != nil {
		return impact.Metrics{}, err
	}
	ev, ok := s.current.Load().event(eventID)
	if !ok {
		return impact.Metrics{}, fmt.Errorf("%w: %s", ErrEventNotFound, eventID)
	}
	return s.estimator.Estimate(ev), nil
}

// ImpactTop returns the n highest impact scores of the current snapshot.
// n is capped at the configured board limit.
func (s *Service) ImpactTop(ctx context.Context, n int) ([]types.Entry, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if n < 1 {
		return nil, fmt.Errorf("%w: got %d", repository.ErrInvalidLimit, n)
	}
	if err := s.ensureBoard(ctx); err != nil {
		return nil, err
	}
	return s.board.TopN(ctx, min(n, s.boardLimit))
}

// ImpactRank returns the leaderboard row of a snapshot event.
func (s *Service) ImpactRank(ctx context.Context, eventID string) (types.Entry, error) {
	if err := s.ready(); err != nil {
		return types.Entry{}, err
	}
	if err := s.ensureBoard(ctx); err != nil {
		return types.Entry{}, err
	}
	e, err := s.board.Rank(ctx, eventID)
	if errors.Is(err, repository.ErrNotFound) {
		return types.Entry{}, fmt.Errorf("%w: %s", ErrEventNotFound, eventID)
	}
	return e, err
}

// ImpactSummary totals the impact of every snapshot event.
func (s *Service) ImpactSummary(_ context.Context) (impact.Summary, error) {
	if err := s.ready(); err != nil {
		return impact.Summary{}, err
	}
	snap := s.current.Load()
	ms, _ := s.estimator.EstimateAll(snap.events)
	return impact.Summarize(ms), nil
}

// ensureBoard rebuilds the leaderboard synchronously when the background job
// has not caught up with the current snapshot yet.
func (s *Service) ensureBoard(ctx context.Context) error {
	snap := s.current.Load()
	if s.board.Version() >= snap.version {
		return nil
	}
	if err := s.rebuildBoard(ctx, snap); err != nil && !errors.Is(err, repository.ErrStaleVersion) {
		return err
	}
	return nil
}
