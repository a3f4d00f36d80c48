// Package service wires the event engines, the derived-state stores and the
// background recompute workers behind the operations served by the HTTP API.
package service

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/okian/eventmap/internal/adapters/mq/queue"
	"github.com/okian/eventmap/internal/adapters/mq/worker"
	"github.com/okian/eventmap/internal/adapters/repository"
	"github.com/okian/eventmap/internal/domain/cluster"
	"github.com/okian/eventmap/internal/domain/dedupe"
	"github.com/okian/eventmap/internal/domain/impact"
	"github.com/okian/eventmap/internal/domain/model"
	"github.com/okian/eventmap/internal/domain/recommend"
	"github.com/okian/eventmap/internal/domain/rng"
	"github.com/okian/eventmap/internal/domain/types"
	"github.com/okian/eventmap/pkg/logger"
)

// Defaults used when no option overrides them.
const (
	defaultQueueSize  = 1024
	defaultDedupeSize = 64
	defaultBoardLimit = 100
	defaultMaxEvents  = 50_000
)

// snapshot is one immutable generation of the event set. Everything derived
// from it is tagged with its version.
type snapshot struct {
	version     uint64
	fingerprint string
	events      []model.Event
	byID        map[string]int
	dropped     int
	engine      *recommend.Engine
}

func (s *snapshot) event(id string) (*model.Event, bool) {
	i, ok := s.byID[id]
	if !ok {
		return nil, false
	}
	return &s.events[i], true
}

// bandCache holds clustering results per zoom band for one snapshot version.
type bandCache interface {
	Get(version uint64, band cluster.Band) (cluster.Result, bool)
	Put(version uint64, band cluster.Band, res cluster.Result) error
	Version() uint64
	Len() int
}

// Service implements the API dependencies of the event intelligence server.
type Service struct {
	mu      sync.RWMutex
	writeMu sync.Mutex

	board     *repository.TreapStore
	clusters  bandCache
	deduper   dedupe.Deduper
	jobs      *queue.InMemoryQueue
	pool      *worker.Pool
	estimator *impact.Estimator
	provider  rng.Provider

	current    atomic.Pointer[snapshot]
	computed   atomic.Uint64
	duplicates atomic.Int64

	workerCount   int
	queueSize     int
	dedupeSize    int
	variation     bool
	seed          uint64
	topN          int
	threshold     float64
	similarity    float64
	gridThreshold int
	boardLimit    int
	maxEvents     int

	started bool
	logger  logger.Logger
}

// New constructs a Service with default configuration. Call Start before use.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:   runtime.NumCPU(),
		queueSize:     defaultQueueSize,
		dedupeSize:    defaultDedupeSize,
		topN:          recommend.DefaultTopN,
		threshold:     recommend.DefaultThreshold,
		similarity:    recommend.DefaultSimilarityThreshold,
		gridThreshold: cluster.DefaultGridThreshold,
		boardLimit:    defaultBoardLimit,
		maxEvents:     defaultMaxEvents,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start builds the stores and starts the worker pool. Workers stop when ctx
// is cancelled or Stop is called.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	empty, err := dedupe.Fingerprint([]model.Event{})
	if err != nil {
		return fmt.Errorf("fingerprint empty snapshot: %w", err)
	}

	s.provider = rng.FromConfig(s.variation, s.seed)
	s.estimator = impact.New(impact.WithProvider(s.provider))
	s.board = repository.NewTreapStore(ctx, repository.WithTopCacheSize(s.boardLimit))
	s.clusters = repository.NewClusterCache()
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.jobs = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.current.Store(s.newSnapshot(0, empty, []model.Event{}, 0))

	s.pool = worker.NewPool(s.workerCount, s.jobs, worker.ProcessorFunc(s.recompute), worker.WithLogger(s.logger.Named("worker")))
	s.pool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "event service started",
		logger.Int("workers", s.pool.Size()),
		logger.Int("queue_size", s.queueSize),
		logger.Bool("variation", s.variation),
	)
	return nil
}

// Stop drains the recompute queue and releases background goroutines.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	ctx := context.Background()
	s.logger.Info(ctx, "stopping event service...")

	if err := s.pool.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "worker pool shutdown incomplete", logger.Error(err))
	}
	_ = s.board.Close()

	s.started = false
	s.logger.Info(ctx, "event service stopped")
}

func (s *Service) ready() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return ErrNotStarted
	}
	return nil
}

func (s *Service) newSnapshot(version uint64, fp string, events []model.Event, dropped int) *snapshot {
	byID := make(map[string]int, len(events))
	for i := range events {
		byID[events[i].ID] = i
	}
	return &snapshot{
		version:     version,
		fingerprint: fp,
		events:      events,
		byID:        byID,
		dropped:     dropped,
		engine: recommend.New(
			recommend.WithHistory(events),
			recommend.WithSimilarityThreshold(s.similarity),
			recommend.WithProvider(s.provider),
			recommend.WithVariation(s.variation),
		),
	}
}

func (s *Service) clusterOptions() []cluster.Option {
	return []cluster.Option{cluster.WithGridThreshold(s.gridThreshold)}
}

func (s *Service) indexName(n int) string {
	if n >= s.gridThreshold {
		return "grid"
	}
	return "brute_force"
}

// Stats returns the operational summary served by GET /stats.
func (s *Service) Stats() types.Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := types.Stats{
		WorkerCount:      s.workerCount,
		QueueCapacity:    s.queueSize,
		VariationEnabled: s.variation,
		DuplicateUploads: s.duplicates.Load(),
		ComputedVersion:  s.computed.Load(),
	}
	if !s.started {
		return st
	}

	snap := s.current.Load()
	st.SnapshotVersion = snap.version
	st.SnapshotEvents = len(snap.events)
	st.Dropped = snap.dropped
	if s.clusters.Version() == snap.version {
		st.CachedBands = s.clusters.Len()
	}
	st.LeaderboardSize = s.board.Count(context.Background())
	st.QueueLength = s.jobs.Len()
	st.QueueCapacity = s.jobs.Cap()
	st.WorkerCount = s.pool.Size()
	st.JobsProcessed = s.pool.Processed()
	st.JobsStale = s.pool.Skipped()
	return st
}
