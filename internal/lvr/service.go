package lvr

import (
	"context"
	"log"
	"time"

	"brontes-lvr/internal/cache"
	"brontes-lvr/internal/domain"
	"brontes-lvr/internal/observability"
	"brontes-lvr/internal/storage"
)

// Service owns the two cache domains and their refresh policies. Request
// handlers and the background loops share one instance; every read view
// first gives the relevant domain a chance to refresh, then derives its
// response from a snapshot. Refresh failures degrade to the cached data
// and never reach the caller.
type Service struct {
	source storage.LVRSource
	logger *log.Logger

	genesis  uint64
	bucket   uint64
	pageSize int

	metrics         *cache.MetricCache
	medians         *cache.MedianCache
	metricRefresher *cache.Refresher
	medianRefresher *cache.Refresher

	metricInterval time.Duration
	medianInterval time.Duration
}

// Options contains configuration for creating a Service.
type Options struct {
	// Source is the upstream query gateway. Required.
	Source storage.LVRSource

	// Genesis is the starting watermark (default MergeBlock).
	Genesis uint64

	// BucketSize is the running-total sampling interval (default BucketSize).
	BucketSize uint64

	// PageSize is rows per table page (default PageSize).
	PageSize int

	// MetricInterval is the per-block cache staleness window (default 60s).
	MetricInterval time.Duration

	// MedianInterval is the median cache staleness window (default 5m).
	MedianInterval time.Duration

	Logger *log.Logger
}

// NewService creates a Service with empty caches at the genesis watermark.
func NewService(opts Options) *Service {
	genesis := opts.Genesis
	if genesis == 0 {
		genesis = MergeBlock
	}

	bucket := opts.BucketSize
	if bucket == 0 {
		bucket = BucketSize
	}

	pageSize := opts.PageSize
	if pageSize == 0 {
		pageSize = PageSize
	}

	metricInterval := opts.MetricInterval
	if metricInterval == 0 {
		metricInterval = DefaultMetricInterval
	}

	medianInterval := opts.MedianInterval
	if medianInterval == 0 {
		medianInterval = DefaultMedianInterval
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	s := &Service{
		source:         opts.Source,
		logger:         logger,
		genesis:        genesis,
		bucket:         bucket,
		pageSize:       pageSize,
		metrics:        cache.NewMetricCache(genesis),
		medians:        cache.NewMedianCache(genesis),
		metricInterval: metricInterval,
		medianInterval: medianInterval,
	}

	s.metricRefresher = cache.NewRefresher(cache.RefresherOptions{
		Name:     "metric",
		Interval: metricInterval,
		Run:      s.refreshMetrics,
		Logger:   logger,
	})
	s.medianRefresher = cache.NewRefresher(cache.RefresherOptions{
		Name:     "median",
		Interval: medianInterval,
		Run:      s.refreshMedians,
		Logger:   logger,
	})

	return s
}

// refreshMetrics runs one fetch-merge-advance cycle for the per-block
// cache. The watermark is read before the call and the bound is strict, so
// each block's rows are queried exactly once.
func (s *Service) refreshMetrics(ctx context.Context) error {
	since := s.metrics.Watermark()

	start := time.Now()
	rows, err := s.source.FetchBlockLVRSince(ctx, since)
	observability.RecordUpstreamQuery("block_lvr", time.Since(start).Seconds(), err)
	if err != nil {
		return err
	}

	s.metrics.Merge(rows)
	observability.UpdateCache("metric", s.metrics.Len(), s.metrics.Watermark())

	if len(rows) > 0 {
		s.logger.Printf("metric cache merged %d blocks, watermark now %d", len(rows), s.metrics.Watermark())
	}
	return nil
}

// refreshMedians re-derives each pool's trailing window. The bound is
// inclusive so the new window may overlap the previous one.
func (s *Service) refreshMedians(ctx context.Context) error {
	since := s.medians.Watermark()

	start := time.Now()
	rows, err := s.source.FetchMedianLVRSince(ctx, since)
	observability.RecordUpstreamQuery("median_lvr", time.Since(start).Seconds(), err)
	if err != nil {
		return err
	}

	s.medians.Merge(rows)
	observability.UpdateCache("median", s.medians.Len(), s.medians.Watermark())

	if len(rows) > 0 {
		s.logger.Printf("median cache merged %d pools, watermark now %d", len(rows), s.medians.Watermark())
	}
	return nil
}

// InitialRefresh populates both domains before the service starts taking
// read traffic. Failures are logged and tolerated: the caches simply start
// empty and the background loops keep trying.
func (s *Service) InitialRefresh(ctx context.Context) {
	s.logger.Println("initializing caches...")
	s.metricRefresher.Refresh(ctx)
	s.medianRefresher.Refresh(ctx)
	s.logger.Printf("caches initialized: %d blocks (watermark %d), %d pools (watermark %d)",
		s.metrics.Len(), s.metrics.Watermark(), s.medians.Len(), s.medians.Watermark())
}

// Run drives the periodic refresh of both domains until ctx is cancelled.
func (s *Service) Run(ctx context.Context) error {
	metricTicker := time.NewTicker(s.metricInterval)
	defer metricTicker.Stop()

	medianTicker := time.NewTicker(s.medianInterval)
	defer medianTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-metricTicker.C:
			s.metricRefresher.MaybeRefresh(ctx)
		case <-medianTicker.C:
			s.medianRefresher.MaybeRefresh(ctx)
		}
	}
}

// TablePage refreshes the per-block domain if stale and returns the
// requested page of the descending table.
func (s *Service) TablePage(ctx context.Context, page int) (*TablePage, error) {
	s.metricRefresher.MaybeRefresh(ctx)

	snapshot, watermark := s.metrics.Snapshot()
	return Paginate(snapshot, watermark, page, s.pageSize)
}

// RunningTotal refreshes the per-block domain if stale and derives the
// bucketed cumulative series.
func (s *Service) RunningTotal(ctx context.Context) []domain.RunningTotalPoint {
	s.metricRefresher.MaybeRefresh(ctx)

	snapshot, _ := s.metrics.Snapshot()
	return ComputeRunningTotal(snapshot, s.genesis, s.bucket)
}

// Medians refreshes the median domain if stale and returns the per-pool
// medians. ErrNoData is only possible while no refresh has ever succeeded.
func (s *Service) Medians(ctx context.Context) (map[string]float64, error) {
	s.medianRefresher.MaybeRefresh(ctx)

	snapshot := s.medians.Snapshot()
	if len(snapshot) == 0 {
		return nil, ErrNoData
	}
	return snapshot, nil
}

// Status describes the service state for the /status endpoint.
type Status struct {
	MetricWatermark   uint64    `json:"metric_watermark"`
	MetricBlocks      int       `json:"metric_blocks"`
	MetricLastRefresh time.Time `json:"metric_last_refresh,omitempty"`
	MedianWatermark   uint64    `json:"median_watermark"`
	MedianPools       int       `json:"median_pools"`
	MedianLastRefresh time.Time `json:"median_last_refresh,omitempty"`
}

// Status reports current watermarks, cache sizes and refresh times.
func (s *Service) Status() Status {
	return Status{
		MetricWatermark:   s.metrics.Watermark(),
		MetricBlocks:      s.metrics.Len(),
		MetricLastRefresh: s.metricRefresher.LastRefresh(),
		MedianWatermark:   s.medians.Watermark(),
		MedianPools:       s.medians.Len(),
		MedianLastRefresh: s.medianRefresher.LastRefresh(),
	}
}
