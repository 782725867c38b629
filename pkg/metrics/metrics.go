// Package metrics holds the Prometheus collectors exported on /metrics.
// All recording methods are safe to call on a nil *Metrics.
package metrics

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "zi"

// Resolver outcomes.
const (
	ResolverResolved = "resolved"
	ResolverEmpty    = "empty"
	ResolverFailed   = "failed"
)

// Metrics contains every collector the engine records to.
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	resolverOutcomes *prometheus.CounterVec
	analyticsCache   *prometheus.CounterVec
	responsesSaved   *prometheus.CounterVec

	reportGenerations *prometheus.CounterVec
	reportDuration    *prometheus.HistogramVec
}

// New creates a registry with the Go runtime and process collectors plus the
// engine's own metrics.
func New() (*Metrics, error) {
	registry := prometheus.NewRegistry()

	if err := registry.Register(collectors.NewGoCollector()); err != nil {
		return nil, fmt.Errorf("failed to register go collector: %w", err)
	}
	if err := registry.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})); err != nil {
		return nil, fmt.Errorf("failed to register process collector: %w", err)
	}

	m := &Metrics{registry: registry}
	m.initMetrics()

	for _, c := range []prometheus.Collector{
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.resolverOutcomes,
		m.analyticsCache,
		m.responsesSaved,
		m.reportGenerations,
		m.reportDuration,
	} {
		if err := registry.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register metric: %w", err)
		}
	}

	return m, nil
}

func (m *Metrics) initMetrics() {
	m.httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status_code"}, // route is the mux pattern, not the raw path
	)

	m.httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Time taken for HTTP requests",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	m.resolverOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "assigned_experts_resolutions_total",
			Help:      "Assigned-expert resolutions by outcome",
		},
		[]string{"outcome"}, // resolved, empty, failed
	)

	m.analyticsCache = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analytics_cache_requests_total",
			Help:      "Analytics view lookups by cache result",
		},
		[]string{"view", "result"}, // result: hit, miss
	)

	m.responsesSaved = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "responses_saved_total",
			Help:      "Questionnaire responses saved, by resulting status",
		},
		[]string{"status"},
	)

	m.reportGenerations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "report_generations_total",
			Help:      "Report generation attempts by provider and status",
		},
		[]string{"provider", "status"}, // status: success, error
	)

	m.reportDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "report_generation_duration_seconds",
			Help:      "Time taken to generate a report, including retries",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 8), // 0.5s to ~64s
		},
		[]string{"provider"},
	)
}

// RegisterPoolGauges exports database pool usage, sampled on every scrape.
func (m *Metrics) RegisterPoolGauges(stats func() (total, idle, acquired int32)) error {
	gauge := func(name, help string, pick func(total, idle, acquired int32) int32) prometheus.Collector {
		return prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "db_pool",
			Name:      name,
			Help:      help,
		}, func() float64 {
			return float64(pick(stats()))
		})
	}

	for _, c := range []prometheus.Collector{
		gauge("connections", "Open connections in the pool",
			func(total, _, _ int32) int32 { return total }),
		gauge("idle_connections", "Idle connections in the pool",
			func(_, idle, _ int32) int32 { return idle }),
		gauge("acquired_connections", "Connections currently held by requests",
			func(_, _, acquired int32) int32 { return acquired }),
	} {
		if err := m.registry.Register(c); err != nil {
			return fmt.Errorf("failed to register pool gauge: %w", err)
		}
	}
	return nil
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveHTTPRequest records one completed request.
func (m *Metrics) ObserveHTTPRequest(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// RecordResolverOutcome counts one assigned-expert resolution.
func (m *Metrics) RecordResolverOutcome(outcome string) {
	if m == nil {
		return
	}
	m.resolverOutcomes.WithLabelValues(outcome).Inc()
}

// RecordCacheLookup counts one analytics cache lookup.
func (m *Metrics) RecordCacheLookup(view string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.analyticsCache.WithLabelValues(view, result).Inc()
}

// RecordResponseSaved counts one saved response.
func (m *Metrics) RecordResponseSaved(status string) {
	if m == nil {
		return
	}
	m.responsesSaved.WithLabelValues(status).Inc()
}

// ObserveReportGeneration records a report generation attempt.
func (m *Metrics) ObserveReportGeneration(provider string, err error, d time.Duration) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.reportGenerations.WithLabelValues(provider, status).Inc()
	m.reportDuration.WithLabelValues(provider).Observe(d.Seconds())
}
