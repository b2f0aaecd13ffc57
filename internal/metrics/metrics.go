// Package metrics provides Prometheus metrics for the citation service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the citation service.
type Metrics struct {
	// HTTP request metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Parse metrics
	ParsesTotal        *prometheus.CounterVec
	ParseFailuresTotal *prometheus.CounterVec
	CacheHitsTotal     prometheus.Counter
	CacheMissesTotal   prometheus.Counter

	// Scan metrics
	ScansTotal         prometheus.Counter
	ScanCitationsTotal prometheus.Counter

	// Catalog metrics
	CatalogTextsTotal prometheus.Gauge
	CatalogRebuilds   prometheus.Counter

	// WebSocket metrics
	WebSocketClients prometheus.Gauge

	ServerStartTime time.Time
}

// New creates and registers all metrics on reg. Passing nil registers on
// the default registry.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	m := &Metrics{ServerStartTime: time.Now()}

	m.HTTPRequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mareh_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"path", "status"},
	)
	m.HTTPRequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mareh_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path"},
	)

	m.ParsesTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mareh_parses_total",
			Help: "Total number of citation parse attempts",
		},
		[]string{"lang"},
	)
	m.ParseFailuresTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mareh_parse_failures_total",
			Help: "Total number of failed citation parses by failure kind",
		},
		[]string{"kind"},
	)
	m.CacheHitsTotal = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "mareh_ref_cache_hits_total",
			Help: "Total number of identity cache hits",
		},
	)
	m.CacheMissesTotal = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "mareh_ref_cache_misses_total",
			Help: "Total number of identity cache misses",
		},
	)

	m.ScansTotal = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "mareh_scans_total",
			Help: "Total number of free-text scans",
		},
	)
	m.ScanCitationsTotal = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "mareh_scan_citations_total",
			Help: "Total number of citations recognized in scanned text",
		},
	)

	m.CatalogTextsTotal = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "mareh_catalog_texts_total",
			Help: "Number of texts currently loaded in the library",
		},
	)
	m.CatalogRebuilds = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "mareh_catalog_rebuilds_total",
			Help: "Total number of library title-table rebuilds",
		},
	)

	m.WebSocketClients = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "mareh_websocket_clients",
			Help: "Number of connected catalog-event subscribers",
		},
	)

	return m
}

// Uptime returns the time elapsed since the metrics were created.
func (m *Metrics) Uptime() time.Duration {
	return time.Since(m.ServerStartTime)
}
