// Package metrics owns the Prometheus collectors for the ledger, the
// catalog cache and the HTTP layer, registered on a private registry.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "puntos"

type Metrics struct {
	Registry *prometheus.Registry

	ActivitiesLogged   *prometheus.CounterVec
	RewardsRedeemed    *prometheus.CounterVec
	PointsAwarded      *prometheus.CounterVec
	PointsSpent        *prometheus.CounterVec
	LedgerReadFailures *prometheus.CounterVec
	LedgerWriteErrors  *prometheus.CounterVec
	EventPublishErrors prometheus.Counter
	CatalogCacheHits   prometheus.Counter
	CatalogCacheMisses prometheus.Counter
	CatalogReloads     prometheus.Counter
	HTTPRequests       *prometheus.CounterVec
	HTTPDuration       *prometheus.HistogramVec
	SecurityEvents     *prometheus.CounterVec
}

// New registers every collector on a fresh registry, plus Go and process
// collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		ActivitiesLogged: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "activities_logged_total",
			Help:      "Activity records appended to the ledger.",
		}, []string{"person"}),
		RewardsRedeemed: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rewards_redeemed_total",
			Help:      "Redemption records appended to the ledger.",
		}, []string{"person"}),
		PointsAwarded: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "points_awarded_total",
			Help:      "Points earned through logged activities.",
		}, []string{"person"}),
		PointsSpent: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "points_spent_total",
			Help:      "Points spent on redeemed rewards.",
		}, []string{"person"}),
		LedgerReadFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ledger_read_failures_total",
			Help:      "Ledger reads that failed and were served as empty.",
		}, []string{"stream"}),
		LedgerWriteErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ledger_write_errors_total",
			Help:      "Ledger appends that failed to persist.",
		}, []string{"stream"}),
		EventPublishErrors: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "event_publish_errors_total",
			Help:      "Ledger events that could not be published.",
		}),
		CatalogCacheHits: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_cache_hits_total",
			Help:      "Catalog reads served from cache.",
		}),
		CatalogCacheMisses: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_cache_misses_total",
			Help:      "Catalog reads that went to the source.",
		}),
		CatalogReloads: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_reloads_total",
			Help:      "Explicit catalog reloads.",
		}),
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route pattern, method and status.",
		}, []string{"route", "method", "status"}),
		HTTPDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		SecurityEvents: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "security_events_total",
			Help:      "Rate-limited and suspicious requests.",
		}, []string{"kind"}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}

// ObserveHTTP records one finished request.
func (m *Metrics) ObserveHTTP(route, method string, status int, elapsed time.Duration) {
	m.HTTPRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(route, method).Observe(elapsed.Seconds())
}
