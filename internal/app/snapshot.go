package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/okian/eventmap/internal/adapters/mq/worker"
	"github.com/okian/eventmap/internal/adapters/repository"
	"github.com/okian/eventmap/internal/domain/cluster"
	"github.com/okian/eventmap/internal/domain/dedupe"
	"github.com/okian/eventmap/internal/domain/model"
	"github.com/okian/eventmap/internal/domain/types"
	"github.com/okian/eventmap/internal/domain/validate"
	"github.com/okian/eventmap/pkg/logger"
	"github.com/okian/eventmap/pkg/metrics"
)

// ReplaceEvents swaps the event set for events. Invalid events are dropped
// and reported. Unless the result equals the current snapshot a new version
// is stored and a recompute job is queued.
func (s *Service) ReplaceEvents(ctx context.Context, events []model.Event) (types.Upload, error) {
	return s.ReplaceEventsWithKey(ctx, "", events)
}

// ReplaceEventsWithKey is ReplaceEvents with an idempotency key. A key seen
// recently returns the current snapshot without touching it.
func (s *Service) ReplaceEventsWithKey(ctx context.Context, key string, events []model.Event) (types.Upload, error) {
	if err := s.ready(); err != nil {
		return types.Upload{}, err
	}
	if len(events) > s.maxEvents {
		return types.Upload{}, fmt.Errorf("%w: %d exceeds %d", ErrTooManyEvents, len(events), s.maxEvents)
	}

	if key != "" && s.deduper.SeenAndRecord(ctx, key) {
		cur := s.current.Load()
		s.duplicates.Add(1)
		metrics.RecordSnapshotDuplicate()
		s.logger.Debug(ctx, "upload replayed", logger.String("key", key), logger.Uint64("version", cur.version))
		return types.Upload{
			Version:  cur.version,
			Accepted: len(cur.events),
			Dropped:  cur.dropped,
			Replayed: true,
		}, nil
	}

	up, err := s.replace(ctx, events)
	if err != nil && key != "" {
		s.deduper.Unrecord(ctx, key)
	}
	return up, err
}

func (s *Service) replace(ctx context.Context, events []model.Event) (types.Upload, error) {
	valid, diags := validate.Events(events)
	fp, err := dedupe.Fingerprint(valid)
	if err != nil {
		return types.Upload{}, fmt.Errorf("fingerprint snapshot: %w", err)
	}

	up := types.Upload{Accepted: len(valid), Dropped: len(diags), Diagnostics: diags}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	cur := s.current.Load()
	if fp == cur.fingerprint {
		s.duplicates.Add(1)
		metrics.RecordSnapshotDuplicate()
		up.Version = cur.version
		up.Duplicate = true
		return up, nil
	}

	next := s.newSnapshot(cur.version+1, fp, valid, len(diags))
	s.current.Store(next)
	up.Version = next.version

	for _, kind := range []validate.Kind{
		validate.KindInvalidCoordinate,
		validate.KindMissingID,
		validate.KindDuplicateID,
		validate.KindInvalidField,
	} {
		if n := diags.Count(kind); n > 0 {
			metrics.RecordEventsDropped(string(kind), n)
		}
	}
	metrics.RecordSnapshotReplaced(next.version, len(valid))

	job := model.Job{ID: uuid.NewString(), Kind: model.JobRecompute, Version: next.version}
	if err := s.jobs.Enqueue(ctx, job); err != nil {
		// reads fall back to synchronous computation
		s.logger.Warn(ctx, "recompute not scheduled",
			logger.Uint64("version", next.version),
			logger.Error(err),
		)
	} else {
		up.JobID = job.ID
		up.Scheduled = true
	}

	s.logger.Info(ctx, "snapshot replaced",
		logger.Uint64("version", next.version),
		logger.Int("events", len(valid)),
		logger.Int("dropped", len(diags)),
	)
	return up, nil
}

// Events returns the current snapshot.
func (s *Service) Events(_ context.Context) (types.EventSet, error) {
	if err := s.ready(); err != nil {
		return types.EventSet{}, err
	}
	snap := s.current.Load()
	return types.EventSet{Version: snap.version, Events: snap.events}, nil
}

// recompute precomputes every zoom band and the impact leaderboard of the
// job's snapshot. Jobs for a superseded snapshot are skipped.
func (s *Service) recompute(ctx context.Context, j worker.Job) error {
	if j.Kind != model.JobRecompute {
		return fmt.Errorf("unsupported job kind %q", j.Kind)
	}
	snap := s.current.Load()
	if j.Version != snap.version {
		return fmt.Errorf("%w: version %d superseded by %d", worker.ErrSkipped, j.Version, snap.version)
	}

	for _, band := range cluster.Bands() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, ok := s.clusters.Get(snap.version, band); ok {
			continue
		}
		res, err := s.computeBand(snap, band)
		if err != nil {
			return err
		}
		if err := s.clusters.Put(snap.version, band, res); err != nil {
			return skipIfStale(j, err)
		}
	}
	if err := s.rebuildBoard(ctx, snap); err != nil {
		return skipIfStale(j, err)
	}

	for {
		done := s.computed.Load()
		if done >= snap.version || s.computed.CompareAndSwap(done, snap.version) {
			break
		}
	}
	s.logger.Debug(ctx, "snapshot recomputed", logger.Uint64("version", snap.version))
	return nil
}

func skipIfStale(j worker.Job, err error) error {
	if errors.Is(err, repository.ErrStaleVersion) {
		return fmt.Errorf("%w: version %d: %w", worker.ErrSkipped, j.Version, err)
	}
	return err
}

func (s *Service) computeBand(snap *snapshot, band cluster.Band) (cluster.Result, error) {
	params, ok := cluster.BandParams(band)
	if !ok {
		return cluster.Result{}, fmt.Errorf("unknown zoom band %q", band)
	}
	start := time.Now()
	res, err := cluster.Events(snap.events, params, s.clusterOptions()...)
	if err != nil {
		return cluster.Result{}, err
	}
	metrics.RecordClustering(string(band), s.indexName(len(snap.events)), len(res.Clusters), elapsedMs(start))
	return res, nil
}

func (s *Service) rebuildBoard(ctx context.Context, snap *snapshot) error {
	start := time.Now()
	records := make([]repository.Record, len(snap.events))
	for i := range snap.events {
		ev := &snap.events[i]
		m := s.estimator.Estimate(ev)
		records[i] = repository.Record{
			EventID:  ev.ID,
			Score:    m.OverallScore,
			Band:     m.Band,
			Category: string(ev.Category),
			Title:    ev.Title,
		}
	}
	metrics.RecordImpactEstimates(len(records), elapsedMs(start))
	return s.board.Replace(ctx, snap.version, records)
}

func elapsedMs(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000
}
