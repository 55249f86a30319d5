// Package cache holds the in-memory LVR caches and the staleness-gated
// refresh machinery shared by the request path and the background loops.
package cache

import (
	"sync"

	"brontes-lvr/internal/domain"
)

// MetricCache is a concurrency-safe mapping from block number to the LVR
// extracted in that block, together with the watermark of the highest block
// already incorporated. Entries live for the process lifetime; there is no
// eviction.
type MetricCache struct {
	mu        sync.RWMutex
	data      map[uint64]float64
	watermark uint64
}

// NewMetricCache creates an empty cache with the watermark at genesis.
func NewMetricCache(genesis uint64) *MetricCache {
	return &MetricCache{
		data:      make(map[uint64]float64),
		watermark: genesis,
	}
}

// Watermark returns the highest block number already incorporated.
func (c *MetricCache) Watermark() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.watermark
}

// Merge incorporates a refresh result and advances the watermark to the
// highest block seen, in one critical section: readers never observe an
// advanced watermark without its rows. A block already present is
// overwritten, not summed — the upstream aggregation sums within the block.
// Empty input changes nothing.
func (c *MetricCache) Merge(rows []domain.BlockLVR) {
	if len(rows) == 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, r := range rows {
		c.data[r.BlockNumber] = r.TotalLVR
		if r.BlockNumber > c.watermark {
			c.watermark = r.BlockNumber
		}
	}
}

// Snapshot returns a point-in-time copy of the data and the watermark.
// Callers derive views from the copy without holding the lock.
func (c *MetricCache) Snapshot() (map[uint64]float64, uint64) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	snapshot := make(map[uint64]float64, len(c.data))
	for block, lvr := range c.data {
		snapshot[block] = lvr
	}
	return snapshot, c.watermark
}

// Len returns the number of cached blocks.
func (c *MetricCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}
