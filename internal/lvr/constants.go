// Package lvr ties the upstream source, the per-domain caches, and the
// read views together into the service the HTTP layer is built on.
package lvr

import "time"

const (
	// MergeBlock is the genesis watermark. LVR extraction is only
	// meaningful after the merge; no cached block is ever at or below it.
	MergeBlock uint64 = 15537393

	// BucketSize is the block interval at which running-total points are
	// sampled. Downstream charts rely on this spacing being regular.
	BucketSize uint64 = 100000

	// PageSize is the number of rows per table page.
	PageSize = 100

	// DefaultMetricInterval is the staleness window of the per-block cache.
	DefaultMetricInterval = 60 * time.Second

	// DefaultMedianInterval is the staleness window of the median cache.
	// Wider than the metric interval: the trailing-window query is the
	// expensive one.
	DefaultMedianInterval = 5 * time.Minute
)
