package lvr

import (
	"errors"
	"fmt"
	"sort"

	"brontes-lvr/internal/domain"
)

// View errors surfaced to the HTTP layer.
var (
	// ErrInvalidPage is returned for a page outside [1, total_pages].
	ErrInvalidPage = errors.New("invalid page number")

	// ErrNoData is returned when the median cache is empty after a
	// refresh attempt. Only possible before the first successful refresh.
	ErrNoData = errors.New("no median lvr data available")
)

// TablePage is one page of the per-block LVR table, descending by block.
type TablePage struct {
	Rows             []domain.BlockLVR
	TotalPages       int
	CurrentPage      int
	LastQueriedBlock uint64
}

// Paginate sorts the snapshot descending by block number and slices out the
// requested 1-based page. An empty cache still has one empty page; Go's
// truncating division makes (0-1)/pageSize+1 come out to 1.
func Paginate(snapshot map[uint64]float64, watermark uint64, page, pageSize int) (*TablePage, error) {
	count := len(snapshot)
	totalPages := (count-1)/pageSize + 1

	if page < 1 || page > totalPages {
		return nil, fmt.Errorf("%w: page %d of %d", ErrInvalidPage, page, totalPages)
	}

	blocks := make([]uint64, 0, count)
	for block := range snapshot {
		blocks = append(blocks, block)
	}
	sort.Slice(blocks, func(i, j int) bool { return blocks[i] > blocks[j] })

	start := (page - 1) * pageSize
	end := start + pageSize
	if end > count {
		end = count
	}

	rows := make([]domain.BlockLVR, 0, end-start)
	for _, block := range blocks[start:end] {
		rows = append(rows, domain.BlockLVR{BlockNumber: block, TotalLVR: snapshot[block]})
	}

	return &TablePage{
		Rows:             rows,
		TotalPages:       totalPages,
		CurrentPage:      page,
		LastQueriedBlock: watermark,
	}, nil
}
