package lvr

import (
	"errors"
	"testing"
)

func makeSnapshot(n int) map[uint64]float64 {
	snapshot := make(map[uint64]float64, n)
	for i := 0; i < n; i++ {
		block := uint64(1000 + i)
		snapshot[block] = float64(i)
	}
	return snapshot
}

func TestPaginate_PageCountAndBounds(t *testing.T) {
	snapshot := makeSnapshot(250)

	page, err := Paginate(snapshot, 1249, 1, 100)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if page.TotalPages != 3 {
		t.Errorf("expected 3 pages for 250 rows at page size 100, got %d", page.TotalPages)
	}
	if len(page.Rows) != 100 {
		t.Errorf("expected 100 rows on page 1, got %d", len(page.Rows))
	}
	if page.CurrentPage != 1 {
		t.Errorf("expected current page 1, got %d", page.CurrentPage)
	}
	if page.LastQueriedBlock != 1249 {
		t.Errorf("expected last queried block 1249, got %d", page.LastQueriedBlock)
	}
}

func TestPaginate_DescendingOrder(t *testing.T) {
	snapshot := makeSnapshot(250)

	page, err := Paginate(snapshot, 1249, 1, 100)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if page.Rows[0].BlockNumber != 1249 {
		t.Errorf("expected first row to be block 1249, got %d", page.Rows[0].BlockNumber)
	}
	for i := 1; i < len(page.Rows); i++ {
		if page.Rows[i].BlockNumber >= page.Rows[i-1].BlockNumber {
			t.Fatalf("rows not strictly descending at index %d: %d then %d",
				i, page.Rows[i-1].BlockNumber, page.Rows[i].BlockNumber)
		}
	}
}

func TestPaginate_LastPageIsShort(t *testing.T) {
	snapshot := makeSnapshot(250)

	page, err := Paginate(snapshot, 1249, 3, 100)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if len(page.Rows) != 50 {
		t.Errorf("expected 50 rows on page 3, got %d", len(page.Rows))
	}
	// Last row of the last page is the lowest cached block.
	if page.Rows[len(page.Rows)-1].BlockNumber != 1000 {
		t.Errorf("expected final row to be block 1000, got %d", page.Rows[len(page.Rows)-1].BlockNumber)
	}
}

func TestPaginate_OutOfRangePage(t *testing.T) {
	snapshot := makeSnapshot(250)

	for _, page := range []int{0, -1, 4} {
		_, err := Paginate(snapshot, 1249, page, 100)
		if !errors.Is(err, ErrInvalidPage) {
			t.Errorf("page %d: expected ErrInvalidPage, got: %v", page, err)
		}
	}
}

func TestPaginate_EmptyCacheHasOnePage(t *testing.T) {
	page, err := Paginate(map[uint64]float64{}, MergeBlock, 1, 100)
	if err != nil {
		t.Fatalf("expected no error for page 1 of empty cache, got: %v", err)
	}

	if page.TotalPages != 1 {
		t.Errorf("expected 1 page, got %d", page.TotalPages)
	}
	if len(page.Rows) != 0 {
		t.Errorf("expected 0 rows, got %d", len(page.Rows))
	}
	if page.LastQueriedBlock != MergeBlock {
		t.Errorf("expected watermark %d, got %d", uint64(MergeBlock), page.LastQueriedBlock)
	}

	_, err = Paginate(map[uint64]float64{}, MergeBlock, 2, 100)
	if !errors.Is(err, ErrInvalidPage) {
		t.Errorf("expected ErrInvalidPage for page 2 of empty cache, got: %v", err)
	}
}

func TestPaginate_ExactMultiple(t *testing.T) {
	snapshot := makeSnapshot(200)

	page, err := Paginate(snapshot, 1199, 2, 100)
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if page.TotalPages != 2 {
		t.Errorf("expected 2 pages for 200 rows, got %d", page.TotalPages)
	}
	if len(page.Rows) != 100 {
		t.Errorf("expected 100 rows on page 2, got %d", len(page.Rows))
	}
}
