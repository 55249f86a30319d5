package domain

// BlockLVR is the LVR extracted in a single block, summed across all
// arbed pools in the allow-list.
// Corresponds to one row of the per-block aggregation over
// brontes.block_analysis.
type BlockLVR struct {
	BlockNumber uint64  // Ethereum block number
	TotalLVR    float64 // profit_amt + revenue_amt summed over the block
}

// PoolMedian is the trailing-window median LVR for one pool.
type PoolMedian struct {
	PoolAddress string  // pool contract address, lower-cased hex
	MedianLVR   float64 // exact median over the pool's trailing window
	MaxBlock    uint64  // highest block number observed in the window
}

// PoolTotal is the lifetime LVR extracted from one pool.
// Used by the one-shot CSV export, not cached.
type PoolTotal struct {
	PoolAddress  string
	LVRExtracted float64
}

// RunningTotalPoint is one sample of the bucketed cumulative LVR series.
// Derived per read from a metric cache snapshot, never stored.
type RunningTotalPoint struct {
	BlockNumber  uint64  `json:"block_number"`
	RunningTotal float64 `json:"running_total"`
}
