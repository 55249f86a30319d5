// Package stub provides an in-memory LVRSource for testing.
package stub

import (
	"context"
	"sync"

	"brontes-lvr/internal/domain"
	"brontes-lvr/internal/storage"
)

// Source serves fixed in-memory rows, honoring the same watermark bounds
// as the real gateway (strict for block LVR, inclusive for medians).
// Errors can be injected per call to exercise the degradation path.
// Implements storage.LVRSource.
type Source struct {
	mu      sync.Mutex
	blocks  []domain.BlockLVR
	medians []domain.PoolMedian
	totals  []domain.PoolTotal

	// Err, when set, is returned by every fetch until cleared.
	Err error

	blockCalls  int
	medianCalls int
}

// NewSource creates a stub source with the given rows.
func NewSource(blocks []domain.BlockLVR, medians []domain.PoolMedian) *Source {
	return &Source{blocks: blocks, medians: medians}
}

// Compile-time interface check.
var _ storage.LVRSource = (*Source)(nil)

// SetRows replaces the served rows, simulating new upstream data.
func (s *Source) SetRows(blocks []domain.BlockLVR, medians []domain.PoolMedian) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blocks = blocks
	s.medians = medians
}

// SetErr injects (or clears) a fetch error.
func (s *Source) SetErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Err = err
}

// BlockCalls returns how many block fetches were issued.
func (s *Source) BlockCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.blockCalls
}

// MedianCalls returns how many median fetches were issued.
func (s *Source) MedianCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.medianCalls
}

// FetchBlockLVRSince returns rows with block number strictly above since.
func (s *Source) FetchBlockLVRSince(_ context.Context, since uint64) ([]domain.BlockLVR, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.blockCalls++
	if s.Err != nil {
		return nil, s.Err
	}

	var result []domain.BlockLVR
	for _, r := range s.blocks {
		if r.BlockNumber > since {
			result = append(result, r)
		}
	}
	return result, nil
}

// FetchMedianLVRSince returns medians whose window reaches since or later.
func (s *Source) FetchMedianLVRSince(_ context.Context, since uint64) ([]domain.PoolMedian, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.medianCalls++
	if s.Err != nil {
		return nil, s.Err
	}

	var result []domain.PoolMedian
	for _, r := range s.medians {
		if r.MaxBlock >= since {
			result = append(result, r)
		}
	}
	return result, nil
}

// TotalLVRByPool returns the configured totals.
func (s *Source) TotalLVRByPool(_ context.Context) ([]domain.PoolTotal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Err != nil {
		return nil, s.Err
	}
	return append([]domain.PoolTotal(nil), s.totals...), nil
}

// SetTotals replaces the rows served by TotalLVRByPool.
func (s *Source) SetTotals(totals []domain.PoolTotal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.totals = totals
}
