package storage

import (
	"context"

	"brontes-lvr/internal/domain"
)

// LVRSource issues the parameterized read queries against the upstream
// analytical store. Implementations own query construction, result
// ordering, and the retry policy; callers only see rows or an error.
type LVRSource interface {
	// FetchBlockLVRSince returns per-block summed LVR for blocks strictly
	// greater than since, ordered ascending by block number, restricted to
	// the configured pool allow-list.
	FetchBlockLVRSince(ctx context.Context, since uint64) ([]domain.BlockLVR, error)

	// FetchMedianLVRSince returns each pool's trailing-window median over
	// blocks greater than or equal to since. The lower bound is inclusive:
	// the trailing window is re-derived and may overlap the previous one.
	FetchMedianLVRSince(ctx context.Context, since uint64) ([]domain.PoolMedian, error)

	// TotalLVRByPool returns lifetime LVR totals per pool, ordered
	// descending by total. Used by the CSV export, not by the cache.
	TotalLVRByPool(ctx context.Context) ([]domain.PoolTotal, error)
}
