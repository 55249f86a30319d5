package cache

import (
	"context"
	"log"
	"sync"
	"time"

	"brontes-lvr/internal/observability"
)

// RefreshOutcome reports what a refresh call did.
type RefreshOutcome int

const (
	// OutcomeRefreshed means a refresh cycle ran and succeeded.
	OutcomeRefreshed RefreshOutcome = iota

	// OutcomeSkipped means the cache was still fresh; nothing ran.
	OutcomeSkipped

	// OutcomeInFlight means another caller is mid-refresh; the caller
	// proceeds on the pre-refresh snapshot.
	OutcomeInFlight

	// OutcomeFailed means the cycle ran and failed after exhausting
	// retries; cache and watermark are unchanged, the staleness timer is
	// advanced so the upstream is not hammered under persistent failure.
	OutcomeFailed
)

// String returns the outcome label used in logs and metrics.
func (o RefreshOutcome) String() string {
	switch o {
	case OutcomeRefreshed:
		return "refreshed"
	case OutcomeSkipped:
		return "skipped"
	case OutcomeInFlight:
		return "in_flight"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Refresher gates a fetch-merge-advance cycle behind a staleness check and
// a single-flight guard. Both the background ticker and inbound read
// requests call MaybeRefresh; only one cycle runs at a time, and the run
// function executes outside any lock so readers are never blocked for the
// duration of the upstream call.
type Refresher struct {
	name     string
	interval time.Duration
	run      func(ctx context.Context) error
	logger   *log.Logger

	mu          sync.Mutex
	refreshing  bool
	lastRefresh time.Time
}

// RefresherOptions contains configuration for creating a Refresher.
type RefresherOptions struct {
	// Name labels the cache domain in logs and metrics.
	Name string

	// Interval is the staleness window between refresh cycles.
	Interval time.Duration

	// Run performs one fetch-merge-advance cycle. It must do its own
	// locking for the merge step only, never around the upstream call.
	Run func(ctx context.Context) error

	Logger *log.Logger
}

// NewRefresher creates a new Refresher.
func NewRefresher(opts RefresherOptions) *Refresher {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	return &Refresher{
		name:     opts.Name,
		interval: opts.Interval,
		run:      opts.Run,
		logger:   logger,
	}
}

// MaybeRefresh runs a refresh cycle if the cache is stale and no cycle is
// already in flight. Safe for concurrent use from any number of callers.
func (r *Refresher) MaybeRefresh(ctx context.Context) RefreshOutcome {
	r.mu.Lock()
	if r.refreshing {
		r.mu.Unlock()
		return OutcomeInFlight
	}
	if !r.lastRefresh.IsZero() && time.Since(r.lastRefresh) <= r.interval {
		r.mu.Unlock()
		return OutcomeSkipped
	}
	r.refreshing = true
	r.mu.Unlock()

	return r.finish(ctx)
}

// Refresh runs a cycle regardless of staleness, still single-flight.
// Used for the blocking initial refresh at startup.
func (r *Refresher) Refresh(ctx context.Context) RefreshOutcome {
	r.mu.Lock()
	if r.refreshing {
		r.mu.Unlock()
		return OutcomeInFlight
	}
	r.refreshing = true
	r.mu.Unlock()

	return r.finish(ctx)
}

// finish executes the cycle and releases the guard. lastRefresh advances
// on failure too: the interval doubles as a rate limit on the upstream.
func (r *Refresher) finish(ctx context.Context) RefreshOutcome {
	start := time.Now()
	err := r.run(ctx)

	r.mu.Lock()
	r.refreshing = false
	r.lastRefresh = time.Now()
	r.mu.Unlock()

	if err != nil {
		r.logger.Printf("%s refresh failed after %v: %v", r.name, time.Since(start), err)
		observability.RecordRefresh(r.name, "error", time.Since(start).Seconds())
		return OutcomeFailed
	}

	observability.RecordRefresh(r.name, "success", time.Since(start).Seconds())
	return OutcomeRefreshed
}

// LastRefresh returns the time the last cycle finished, successful or not.
func (r *Refresher) LastRefresh() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastRefresh
}
