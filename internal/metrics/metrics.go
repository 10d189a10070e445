// Package metrics exposes the service's Prometheus collectors.
//
// Metrics:
//   - ga4rt_refresh_total{job, result} (Counter): refresh ticks by outcome
//     (success, rate_limited, network, auth, upstream, empty)
//   - ga4rt_refresh_duration_seconds{job} (Histogram): upstream call duration
//   - ga4rt_last_success_timestamp_seconds{job} (Gauge): unix time of the last publish
//   - ga4rt_quota_tokens_remaining{window} (Gauge): property quota left (hour, day)
//   - ga4rt_http_requests_total{code} (Counter): read endpoint responses by status
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

const namespace = "ga4rt"

// Metrics owns a private registry. All methods are safe on a nil receiver,
// which lets tests and tools run without collecting anything.
type Metrics struct {
	registry *prometheus.Registry

	refreshTotal    *prometheus.CounterVec
	refreshDuration *prometheus.HistogramVec
	lastSuccess     *prometheus.GaugeVec
	quotaRemaining  *prometheus.GaugeVec
	httpRequests    *prometheus.CounterVec
}

// New registers every collector, plus the Go runtime and process collectors,
// on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		refreshTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refresh_total",
			Help:      "Refresh ticks by job and outcome.",
		}, []string{"job", "result"}),
		refreshDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "refresh_duration_seconds",
			Help:      "Duration of upstream report calls.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}, []string{"job"}),
		lastSuccess: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful publish.",
		}, []string{"job"}),
		quotaRemaining: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "quota_tokens_remaining",
			Help:      "Property quota tokens remaining as reported by the provider.",
		}, []string{"window"}),
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP responses by status code.",
		}, []string{"code"}),
	}
}

// ObserveRefresh records the outcome of one refresh tick.
func (m *Metrics) ObserveRefresh(job, result string, took time.Duration, at time.Time) {
	if m == nil {
		return
	}
	m.refreshTotal.WithLabelValues(job, result).Inc()
	m.refreshDuration.WithLabelValues(job).Observe(took.Seconds())
	if result == "success" {
		m.lastSuccess.WithLabelValues(job).Set(float64(at.Unix()))
	}
}

// ObserveQuota records remaining quota. Negative values mean the provider
// did not report that window and are skipped.
func (m *Metrics) ObserveQuota(perHour, perDay int64) {
	if m == nil {
		return
	}
	if perHour >= 0 {
		m.quotaRemaining.WithLabelValues("hour").Set(float64(perHour))
	}
	if perDay >= 0 {
		m.quotaRemaining.WithLabelValues("day").Set(float64(perDay))
	}
}

// ObserveRequest counts one HTTP response.
func (m *Metrics) ObserveRequest(status int) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(strconv.Itoa(status)).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
