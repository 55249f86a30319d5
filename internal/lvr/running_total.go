package lvr

import "brontes-lvr/internal/domain"

// ComputeRunningTotal derives the bucketed cumulative LVR series from a
// metric cache snapshot. It walks every block from the lowest to the
// highest cached block — O(range), not O(entries) — so bucket boundaries
// land at regular positions regardless of how sparse the data is. Blocks
// without an entry contribute zero; they are gaps, not missing data.
//
// A point is emitted at every block where (block-genesis)%bucket == 0, and
// always at the final block so the series reaches the latest known data
// even off a boundary. An empty snapshot yields a single zero point at
// genesis.
func ComputeRunningTotal(snapshot map[uint64]float64, genesis, bucket uint64) []domain.RunningTotalPoint {
	first, last := genesis, genesis
	if len(snapshot) > 0 {
		started := false
		for block := range snapshot {
			if !started {
				first, last = block, block
				started = true
				continue
			}
			if block < first {
				first = block
			}
			if block > last {
				last = block
			}
		}
	}

	points := make([]domain.RunningTotalPoint, 0, (last-first)/bucket+2)
	runningTotal := 0.0

	for block := first; ; block++ {
		if lvr, ok := snapshot[block]; ok {
			runningTotal += lvr
		}

		if (block-genesis)%bucket == 0 || block == last {
			points = append(points, domain.RunningTotalPoint{
				BlockNumber:  block,
				RunningTotal: runningTotal,
			})
		}

		if block == last {
			return points
		}
	}
}
