// internal/app/system/metrics/metrics.go
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "cwcconnect"

// Chat query outcomes.
const (
	ChatMatch       = "match"
	ChatNoMatch     = "no_match"
	ChatUnavailable = "unavailable"
	ChatAugmented   = "augmented"
)

// Metrics holds the service collectors. All methods are safe on a nil
// receiver so components can run without instrumentation.
type Metrics struct {
	syncRuns       *prometheus.CounterVec
	syncRecords    *prometheus.CounterVec
	syncDuration   prometheus.Histogram
	chatQueries    *prometheus.CounterVec
	storeAvailable prometheus.Gauge
	gatherer       prometheus.Gatherer
}

// New registers the collectors on reg. A nil reg uses a fresh registry.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &Metrics{
		syncRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_runs_total",
			Help:      "Sync cycles by data source and outcome.",
		}, []string{"source", "outcome"}),
		syncRecords: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_records_total",
			Help:      "Employee records written by sync, by result.",
		}, []string{"result"}),
		syncDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sync_duration_seconds",
			Help:      "Wall time of completed sync cycles.",
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 60, 300},
		}),
		chatQueries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_queries_total",
			Help:      "Chat search queries by outcome.",
		}, []string{"outcome"}),
		storeAvailable: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "store_available",
			Help:      "1 when the employee store answered its last ping.",
		}),
		gatherer: reg,
	}
	reg.MustRegister(m.syncRuns, m.syncRecords, m.syncDuration, m.chatQueries, m.storeAvailable)
	return m
}

// SyncSucceeded records a completed cycle.
func (m *Metrics) SyncSucceeded(source string, inserted, modified, failed int, took time.Duration) {
	if m == nil {
		return
	}
	m.syncRuns.WithLabelValues(source, "success").Inc()
	m.syncRecords.WithLabelValues("inserted").Add(float64(inserted))
	m.syncRecords.WithLabelValues("modified").Add(float64(modified))
	m.syncRecords.WithLabelValues("failed").Add(float64(failed))
	m.syncDuration.Observe(took.Seconds())
}

// SyncFailed records a cycle that ended in error. source may be empty when
// no source was selected.
func (m *Metrics) SyncFailed(source string) {
	if m == nil {
		return
	}
	if source == "" {
		source = "none"
	}
	m.syncRuns.WithLabelValues(source, "failure").Inc()
}

// ChatQuery counts one chat query by outcome.
func (m *Metrics) ChatQuery(outcome string) {
	if m == nil {
		return
	}
	m.chatQueries.WithLabelValues(outcome).Inc()
}

// SetStoreAvailable mirrors the connection flag.
func (m *Metrics) SetStoreAvailable(up bool) {
	if m == nil {
		return
	}
	if up {
		m.storeAvailable.Set(1)
		return
	}
	m.storeAvailable.Set(0)
}

// Handler serves the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
