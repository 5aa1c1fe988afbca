package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors for the application. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	mutations   *prometheus.CounterVec
	completions *prometheus.CounterVec
	sessions    *prometheus.CounterVec
	cacheLookup *prometheus.CounterVec
}

// New creates and registers all collectors on a private registry
func New(namespace string) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		mutations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "entity_mutations_total",
				Help:      "Project and task mutations by entity and operation",
			},
			[]string{"entity", "operation"},
		),
		completions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "task_completion_transitions_total",
				Help:      "completed_at changes applied by task updates",
			},
			[]string{"action"},
		),
		sessions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "session_resolutions_total",
				Help:      "Session resolution outcomes",
			},
			[]string{"result"},
		),
		cacheLookup: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "view_cache_lookups_total",
				Help:      "View cache lookups by view and result",
			},
			[]string{"view", "result"},
		),
	}

	m.registry.MustRegister(
		m.RequestsTotal,
		m.RequestDuration,
		m.mutations,
		m.completions,
		m.sessions,
		m.cacheLookup,
		prometheus.NewGoCollector(),
	)
	return m
}

// Handler exposes the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Mutation(entity, operation string) {
	if m == nil {
		return
	}
	m.mutations.WithLabelValues(entity, operation).Inc()
}

func (m *Metrics) CompletionTransition(action string) {
	if m == nil {
		return
	}
	m.completions.WithLabelValues(action).Inc()
}

func (m *Metrics) SessionResolution(result string) {
	if m == nil {
		return
	}
	m.sessions.WithLabelValues(result).Inc()
}

func (m *Metrics) CacheLookup(view string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookup.WithLabelValues(view, result).Inc()
}
