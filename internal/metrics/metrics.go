// Package metrics provides Prometheus metrics for the rinkside service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Manager owns the service metrics and the registry they live on.
type Manager struct {
	namespace string
	registry  *prometheus.Registry

	rowsWritten   *prometheus.CounterVec
	rowsSkipped   *prometheus.CounterVec
	gamesFailed   prometheus.Counter
	queryDuration *prometheus.HistogramVec
	httpRequests  *prometheus.CounterVec
}

// Option configures a Manager.
type Option func(*Manager)

// WithNamespace sets the metric namespace.
func WithNamespace(namespace string) Option {
	return func(m *Manager) {
		if namespace != "" {
			m.namespace = namespace
		}
	}
}

// WithRegistry registers the metrics on r instead of a fresh registry.
func WithRegistry(r *prometheus.Registry) Option {
	return func(m *Manager) {
		if r != nil {
			m.registry = r
		}
	}
}

// NewManager creates the metrics on a private registry.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace: "rinkside",
		registry:  prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(m)
	}

	auto := promauto.With(m.registry)
	m.rowsWritten = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "rebuild",
		Name:      "rows_written_total",
		Help:      "Advanced-stat rows upserted, by slice",
	}, []string{"slice"})
	m.rowsSkipped = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "rebuild",
		Name:      "rows_skipped_total",
		Help:      "Advanced-stat rows that failed to compute or write, by slice",
	}, []string{"slice"})
	m.gamesFailed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "rebuild",
		Name:      "games_failed_total",
		Help:      "Games whose rebuild aborted",
	})
	m.queryDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "engine",
		Name:      "query_duration_seconds",
		Help:      "Duration of engine operations",
		Buckets:   prometheus.DefBuckets,
	}, []string{"op"})
	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by route template and status code",
	}, []string{"route", "code"})

	return m
}

// Registry exposes the underlying registry.
func (m *Manager) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RowsWritten counts n upserted rows of slice. A nil Manager is a no-op, as
// are the other recorders.
func (m *Manager) RowsWritten(slice string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.rowsWritten.WithLabelValues(slice).Add(float64(n))
}

// RowsSkipped counts n skipped rows of slice.
func (m *Manager) RowsSkipped(slice string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.rowsSkipped.WithLabelValues(slice).Add(float64(n))
}

// GameFailed counts one aborted game.
func (m *Manager) GameFailed() {
	if m == nil {
		return
	}
	m.gamesFailed.Inc()
}

// ObserveQuery records how long op took since start.
func (m *Manager) ObserveQuery(op string, start time.Time) {
	if m == nil {
		return
	}
	m.queryDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

// HTTPRequest counts one served request.
func (m *Manager) HTTPRequest(route string, code int) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
}
