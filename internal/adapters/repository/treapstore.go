package repository

import (
	"context"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/okian/eventmap/internal/domain/types"
	"github.com/okian/eventmap/pkg/metrics"
)

// Treap-based, in-memory Store implementation.
//
// Ordering: score DESC, then eventID ASC (deterministic). "less" means ranks
// earlier, so an in-order traversal yields the leaderboard from best to
// worst. Node priorities are a hash of the event id, which keeps the tree
// balanced in expectation and independent of insertion order.

// scoreScale fixes scores to 9 decimal places so that equal scores compare
// equal regardless of float noise.
const scoreScale = 1e9

type scoreFP int64

func toFixedPoint(x float64) scoreFP {
	switch {
	case math.IsNaN(x):
		return 0
	case x*scoreScale >= math.MaxInt64:
		return scoreFP(math.MaxInt64)
	case x*scoreScale <= math.MinInt64:
		return scoreFP(math.MinInt64)
	}
	return scoreFP(math.Round(x * scoreScale))
}

func toFloat(x scoreFP) float64 { return float64(x) / scoreScale }

// record stores the fixed-point score plus metadata of one event.
type record struct {
	score    scoreFP
	band     string
	category string
	title    string
}

// Snapshot is an immutable view of the leaderboard head.
type Snapshot struct {
	Version uint64
	Total   int
	Top     []types.Entry
}

type node struct {
	id    string
	score scoreFP
	prio  uint64
	left  *node
	right *node
	size  int
}

func nsize(n *node) int {
	if n == nil {
		return 0
	}
	return n.size
}

func fix(n *node) {
	if n != nil {
		n.size = 1 + nsize(n.left) + nsize(n.right)
	}
}

// less returns true if (aScore, aID) should appear before (bScore, bID).
func less(aScore scoreFP, aID string, bScore scoreFP, bID string) bool {
	if aScore != bScore {
		return aScore > bScore
	}
	return aID < bID
}

func rotateRight(y *node) *node {
	x := y.left
	y.left = x.right
	x.right = y
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	x.right = y.left
	y.left = x
	fix(x)
	fix(y)
	return y
}

func insert(n *node, id string, score scoreFP) *node {
	if n == nil {
		return &node{id: id, score: score, prio: xxhash.Sum64String(id), size: 1}
	}
	if less(score, id, n.score, n.id) {
		n.left = insert(n.left, id, score)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, id, score)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

// countHigher returns how many entries have a strictly higher score.
func countHigher(n *node, score scoreFP) int {
	count := 0
	for n != nil {
		if n.score > score {
			count += 1 + nsize(n.left)
			n = n.right
		} else {
			n = n.left
		}
	}
	return count
}

// collectTopN appends up to limit entries in rank order.
func collectTopN(n *node, limit int, records map[string]record, out *[]types.Entry) {
	if n == nil || len(*out) >= limit {
		return
	}
	collectTopN(n.left, limit, records, out)
	if len(*out) < limit {
		rec := records[n.id]
		*out = append(*out, types.Entry{
			EventID:  n.id,
			Score:    toFloat(rec.score),
			Band:     rec.band,
			Category: rec.category,
			Title:    rec.title,
		})
	}
	if len(*out) < limit {
		collectTopN(n.right, limit, records, out)
	}
}

// assignRanks gives tied scores the same rank and skips the positions they
// occupy (1, 1, 3). entries must start at the top of the leaderboard.
func assignRanks(entries []types.Entry) {
	for i := range entries {
		if i > 0 && entries[i].Score == entries[i-1].Score {
			entries[i].Rank = entries[i-1].Rank
			continue
		}
		entries[i].Rank = i + 1
	}
}

// TreapStore is the in-memory impact leaderboard.
type TreapStore struct {
	mu           sync.RWMutex
	root         *node
	byID         map[string]record
	version      uint64
	topCacheSize int

	snapshot atomic.Pointer[Snapshot]

	metricsUpdateInterval time.Duration
	wg                    sync.WaitGroup
	stopChan              chan struct{}
	closeOnce             sync.Once
}

var _ Store = (*TreapStore)(nil)

// NewTreapStore constructs a treap store. A background goroutine refreshes
// gauges until ctx is done or Close is called.
func NewTreapStore(ctx context.Context, opts ...Option) *TreapStore {
	s := &TreapStore{
		byID:                  make(map[string]record),
		topCacheSize:          100,
		metricsUpdateInterval: 5 * time.Second,
		stopChan:              make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.snapshot.Store(&Snapshot{Top: []types.Entry{}})
	s.startMetricsUpdater(ctx)
	return s
}

// Close stops the background goroutine.
func (s *TreapStore) Close() error {
	s.closeOnce.Do(func() { close(s.stopChan) })
	s.wg.Wait()
	return nil
}

// Replace rebuilds the leaderboard in O(n log n). Records with an empty id
// are skipped; a repeated id keeps its last record.
func (s *TreapStore) Replace(ctx context.Context, version uint64, records []Record) error {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryUpdateLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()
	if err := ctx.Err(); err != nil {
		return err
	}

	byID := make(map[string]record, len(records))
	for _, r := range records {
		if r.EventID == "" {
			continue
		}
		byID[r.EventID] = record{score: toFixedPoint(r.Score), band: r.Band, category: r.Category, title: r.Title}
	}
	var root *node
	for id, rec := range byID {
		root = insert(root, id, rec.score)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if version < s.version {
		metrics.RecordRepositoryStaleWrite()
		return ErrStaleVersion
	}
	s.root, s.byID, s.version = root, byID, version
	s.publishSnapshotLocked()

	metrics.RecordLeaderboardRebuild()
	metrics.UpdateLeaderboardEntries(len(byID))
	return nil
}

// Rank returns the current rank and score of an event in O(log n).
func (s *TreapStore) Rank(_ context.Context, eventID string) (types.Entry, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryQueryLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.byID[eventID]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return types.Entry{}, ErrNotFound
	}
	return types.Entry{
		Rank:     countHigher(s.root, rec.score) + 1,
		EventID:  eventID,
		Score:    toFloat(rec.score),
		Band:     rec.band,
		Category: rec.category,
		Title:    rec.title,
	}, nil
}

// TopN returns the top n entries. Requests covered by the published snapshot
// are served without taking the lock.
func (s *TreapStore) TopN(_ context.Context, n int) ([]types.Entry, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryQueryLatency(float64(time.Since(start).Microseconds()) / 1000)
	}()

	if n < 1 {
		metrics.RecordErrorByComponent("repository", "invalid_limit")
		return nil, ErrInvalidLimit
	}

	if snap := s.snapshot.Load(); n <= len(snap.Top) || len(snap.Top) == snap.Total {
		k := min(n, len(snap.Top))
		out := make([]types.Entry, k)
		copy(out, snap.Top[:k])
		return out, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.Entry, 0, min(n, len(s.byID)))
	collectTopN(s.root, n, s.byID, &out)
	assignRanks(out)
	return out, nil
}

// Count returns the number of ranked events.
func (s *TreapStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

// Version returns the snapshot version of the stored leaderboard.
func (s *TreapStore) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Snapshot returns the last published snapshot.
func (s *TreapStore) Snapshot() *Snapshot {
	return s.snapshot.Load()
}

// publishSnapshotLocked rebuilds the Top cache. Caller holds s.mu.
func (s *TreapStore) publishSnapshotLocked() {
	top := make([]types.Entry, 0, min(s.topCacheSize, len(s.byID)))
	collectTopN(s.root, s.topCacheSize, s.byID, &top)
	assignRanks(top)
	s.snapshot.Store(&Snapshot{Version: s.version, Total: len(s.byID), Top: top})
}

func (s *TreapStore) startMetricsUpdater(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.metricsUpdateInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				metrics.UpdateLeaderboardEntries(s.Count(ctx))
			}
		}
	}()
}
