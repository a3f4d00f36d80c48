package repository

import (
	"sync"

	"github.com/okian/eventmap/internal/domain/cluster"
)

// ClusterCache keeps one clustering result per zoom band for the newest
// snapshot version only. Results are shared read-only with callers.
type ClusterCache struct {
	mu      sync.RWMutex
	version uint64
	byBand  map[cluster.Band]cluster.Result
}

// NewClusterCache returns an empty cache.
func NewClusterCache() *ClusterCache {
	return &ClusterCache{byBand: make(map[cluster.Band]cluster.Result)}
}

// Put stores res for band. A newer version drops every entry of the older
// one; an older version is rejected with ErrStaleVersion.
func (c *ClusterCache) Put(version uint64, band cluster.Band, res cluster.Result) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case version < c.version:
		return ErrStaleVersion
	case version > c.version:
		c.version = version
		c.byBand = make(map[cluster.Band]cluster.Result, len(cluster.Bands()))
	}
	c.byBand[band] = res
	return nil
}

// Get returns the result for band if it was computed for version.
func (c *ClusterCache) Get(version uint64, band cluster.Band) (cluster.Result, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if version != c.version {
		return cluster.Result{}, false
	}
	res, ok := c.byBand[band]
	return res, ok
}

// Version returns the snapshot version the cache holds.
func (c *ClusterCache) Version() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.version
}

// Len returns the number of cached bands.
func (c *ClusterCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.byBand)
}
