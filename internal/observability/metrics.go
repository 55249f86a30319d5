// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Refresh metrics
	RefreshRunsTotal *prometheus.CounterVec
	RefreshDuration  *prometheus.HistogramVec

	// Cache metrics
	CacheEntries *prometheus.GaugeVec
	Watermark    *prometheus.GaugeVec

	// Upstream metrics
	UpstreamQueryDuration *prometheus.HistogramVec
	UpstreamQueryErrors   *prometheus.CounterVec

	// HTTP metrics
	HTTPRequestsTotal *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "brontes_lvr"
	}

	return &Metrics{
		RefreshRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "refresh",
			Name:      "runs_total",
			Help:      "Total number of refresh cycles by cache domain and status",
		}, []string{"domain", "status"}),
		RefreshDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "refresh",
			Name:      "duration_seconds",
			Help:      "Refresh cycle duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 60, 300, 1200},
		}, []string{"domain"}),

		CacheEntries: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "entries",
			Help:      "Number of entries held by each cache domain",
		}, []string{"domain"}),
		Watermark: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "watermark_block",
			Help:      "Highest block number incorporated into each cache domain",
		}, []string{"domain"}),

		UpstreamQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "query_duration_seconds",
			Help:      "Upstream ClickHouse query duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 60, 300, 1200},
		}, []string{"query"}),
		UpstreamQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "query_errors_total",
			Help:      "Total number of upstream query failures",
		}, []string{"query"}),

		HTTPRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by path and status code",
		}, []string{"path", "code"}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordRefresh records one refresh cycle.
func RecordRefresh(domain, status string, durationSeconds float64) {
	DefaultMetrics.RefreshRunsTotal.WithLabelValues(domain, status).Inc()
	DefaultMetrics.RefreshDuration.WithLabelValues(domain).Observe(durationSeconds)
}

// UpdateCache updates the entry-count and watermark gauges for a domain.
func UpdateCache(domain string, entries int, watermark uint64) {
	DefaultMetrics.CacheEntries.WithLabelValues(domain).Set(float64(entries))
	DefaultMetrics.Watermark.WithLabelValues(domain).Set(float64(watermark))
}

// RecordUpstreamQuery records an upstream query's duration and outcome.
func RecordUpstreamQuery(query string, durationSeconds float64, err error) {
	DefaultMetrics.UpstreamQueryDuration.WithLabelValues(query).Observe(durationSeconds)
	if err != nil {
		DefaultMetrics.UpstreamQueryErrors.WithLabelValues(query).Inc()
	}
}

// RecordHTTPRequest records one served request.
func RecordHTTPRequest(path string, code int) {
	DefaultMetrics.HTTPRequestsTotal.WithLabelValues(path, strconv.Itoa(code)).Inc()
}
