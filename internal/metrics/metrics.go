package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the forecast service collectors. Each instance owns its
// registry so tests and multiple servers do not collide.
type Metrics struct {
	registry *prometheus.Registry

	Requests *prometheus.CounterVec
	Duration *prometheus.HistogramVec
}

// New creates and registers all metrics
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nestnav_forecast_requests_total",
				Help: "Number of forecast requests by metric, source and status",
			},
			[]string{"metric", "source", "status"},
		),
		Duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "nestnav_forecast_duration_seconds",
				Help:    "Time spent producing a forecast",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"metric"},
		),
	}
	m.registry.MustRegister(m.Requests, m.Duration)
	return m
}

// Observe records one finished forecast request. Source is empty when the
// request failed before a generator was chosen.
func (m *Metrics) Observe(metric, source string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	if source == "" {
		source = "none"
	}
	m.Requests.WithLabelValues(metric, source, strconv.Itoa(status)).Inc()
	m.Duration.WithLabelValues(metric).Observe(elapsed.Seconds())
}

// Handler serves the registry in the exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
