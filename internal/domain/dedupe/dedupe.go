// Package dedupe fingerprints event snapshots and remembers recently seen
// upload keys, so retried or identical uploads do not trigger another
// recompute.
package dedupe

import (
	"context"
	"strconv"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/goccy/go-json"

	"github.com/okian/eventmap/internal/domain/model"
)

const defaultMaxSize = 64

// Deduper records seen keys to ensure at-most-once processing.
type Deduper interface {
	// SeenAndRecord atomically checks if key was seen and records it if not.
	// Returns true if key was already seen, false if it was newly recorded.
	SeenAndRecord(ctx context.Context, key string) bool

	// Unrecord forgets key so that it can be processed again, e.g. after
	// the upload it guarded was rejected.
	Unrecord(ctx context.Context, key string)

	Size() int
}

// inMemoryDeduper keeps the most recent maxSize keys in a ring and evicts the
// oldest one first. maxSize <= 0 means unbounded.
type inMemoryDeduper struct {
	mu      sync.Mutex
	seen    map[string]int // key -> slot in ring, -1 when unbounded
	ring    []string
	next    int
	maxSize int
}

// NewInMemoryDeduper creates a new in-memory deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{maxSize: defaultMaxSize}
	for _, opt := range opts {
		opt(d)
	}
	d.seen = make(map[string]int)
	if d.maxSize > 0 {
		d.ring = make([]string, d.maxSize)
	}
	return d
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[key]; ok {
		return true
	}
	if d.maxSize <= 0 {
		d.seen[key] = -1
		return false
	}
	if old := d.ring[d.next]; old != "" {
		delete(d.seen, old)
	}
	d.ring[d.next] = key
	d.seen[key] = d.next
	d.next = (d.next + 1) % d.maxSize
	return false
}

func (d *inMemoryDeduper) Unrecord(_ context.Context, key string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	slot, ok := d.seen[key]
	if !ok {
		return
	}
	delete(d.seen, key)
	if slot >= 0 {
		d.ring[slot] = ""
	}
}

func (d *inMemoryDeduper) Size() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.seen)
}

// Fingerprint hashes the canonical JSON encoding of events. Order matters:
// border points are assigned in input order, so a permuted snapshot may
// cluster differently and must be recomputed.
func Fingerprint(events []model.Event) (string, error) {
	h := xxhash.New()
	enc := json.NewEncoder(h)
	for i := range events {
		if err := enc.Encode(&events[i]); err != nil {
			return "", err
		}
	}
	return strconv.FormatUint(h.Sum64(), 16) + "-" + strconv.Itoa(len(events)), nil
}
