package cache

import (
	"strings"
	"sync"

	"brontes-lvr/internal/domain"
)

// MedianCache is a concurrency-safe mapping from pool address to its
// trailing-window median LVR as of the last refresh. Keys are lower-cased
// so mixed-case upstream rows merge into one entry. Pools absent from the
// latest window keep their previous value; nothing is ever deleted.
type MedianCache struct {
	mu        sync.RWMutex
	data      map[string]float64
	watermark uint64
}

// NewMedianCache creates an empty cache with the watermark at genesis.
func NewMedianCache(genesis uint64) *MedianCache {
	return &MedianCache{
		data:      make(map[string]float64),
		watermark: genesis,
	}
}

// Watermark returns the highest block number observed by any merged window.
func (c *MedianCache) Watermark() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.watermark
}

// Merge overwrites each pool's median and advances the watermark to the
// highest observed block of the result set, in one critical section.
// Empty input changes nothing.
func (c *MedianCache) Merge(rows []domain.PoolMedian) {
	if len(rows) == 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, r := range rows {
		c.data[strings.ToLower(r.PoolAddress)] = r.MedianLVR
		if r.MaxBlock > c.watermark {
			c.watermark = r.MaxBlock
		}
	}
}

// Snapshot returns a point-in-time copy of the per-pool medians.
func (c *MedianCache) Snapshot() map[string]float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	snapshot := make(map[string]float64, len(c.data))
	for pool, median := range c.data {
		snapshot[pool] = median
	}
	return snapshot
}

// Len returns the number of cached pools.
func (c *MedianCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}
