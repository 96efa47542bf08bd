// Package metrics holds the Prometheus collectors for the site.
//
// A nil *Metrics is valid and records nothing, so components can be built
// without a registry in tests and CLI commands.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "portfolio"

// Metrics groups every collector the site exports
type Metrics struct {
	registry *prometheus.Registry

	projectsRejected *prometheus.CounterVec
	fieldCorrections *prometheus.CounterVec
	projectsLoaded   prometheus.Gauge
	reloads          *prometheus.CounterVec
	imageAttempts    *prometheus.CounterVec
	imageOutcomes    *prometheus.CounterVec
	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
}

// New creates the collectors on a fresh registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		projectsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "projects_rejected_total",
			Help:      "Project records dropped during validation, by offending field.",
		}, []string{"field"}),
		fieldCorrections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "field_corrections_total",
			Help:      "Fields replaced by a default or removed during validation.",
		}, []string{"field"}),
		projectsLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "projects_loaded",
			Help:      "Projects in the current content snapshot.",
		}),
		reloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "content_reloads_total",
			Help:      "Content reloads, by result.",
		}, []string{"result"}),
		imageAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "image_attempts_total",
			Help:      "Image load attempts, by source kind and result.",
		}, []string{"source", "result"}),
		imageOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "image_outcomes_total",
			Help:      "Settled image loaders, by final phase.",
		}, []string{"phase"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests, by method and status code.",
		}, []string{"method", "code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.projectsRejected,
		m.fieldCorrections,
		m.projectsLoaded,
		m.reloads,
		m.imageAttempts,
		m.imageOutcomes,
		m.httpRequests,
		m.httpDuration,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for tests
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) ProjectRejected(field string) {
	if m == nil {
		return
	}
	m.projectsRejected.WithLabelValues(field).Inc()
}

func (m *Metrics) FieldCorrected(field string) {
	if m == nil {
		return
	}
	m.fieldCorrections.WithLabelValues(field).Inc()
}

func (m *Metrics) ProjectsLoaded(n int) {
	if m == nil {
		return
	}
	m.projectsLoaded.Set(float64(n))
}

func (m *Metrics) Reloaded(ok bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "error"
	}
	m.reloads.WithLabelValues(result).Inc()
}

// ImageAttempt records one load attempt. source is "primary" or "fallback".
func (m *Metrics) ImageAttempt(source string, ok bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "error"
	}
	m.imageAttempts.WithLabelValues(source, result).Inc()
}

func (m *Metrics) ImageSettled(phase string) {
	if m == nil {
		return
	}
	m.imageOutcomes.WithLabelValues(phase).Inc()
}

// ObserveRequest records a finished HTTP request
func (m *Metrics) ObserveRequest(method string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method).Observe(elapsed.Seconds())
}

// Totals sums the counter family name by the value of label. The CLI uses
// it to summarize a validation run.
func (m *Metrics) Totals(name, label string) (map[string]float64, error) {
	totals := make(map[string]float64)
	if m == nil {
		return totals, nil
	}
	families, err := m.registry.Gather()
	if err != nil {
		return nil, err
	}
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, metric := range mf.GetMetric() {
			key := ""
			for _, lp := range metric.GetLabel() {
				if lp.GetName() == label {
					key = lp.GetValue()
				}
			}
			totals[key] += metric.GetCounter().GetValue()
		}
	}
	return totals, nil
}
