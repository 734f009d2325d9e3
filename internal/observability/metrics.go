package observability

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics stores Prometheus collectors used by API and run flows.
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	runsStartedTotal    prometheus.Counter
	runsFinishedTotal   *prometheus.CounterVec
	itemsProcessedTotal *prometheus.CounterVec
	runInFlight         prometheus.Gauge
	portalStepDuration  *prometheus.HistogramVec
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "listing_engine",
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests processed by method, path, and status.",
			},
			[]string{"method", "path", "status"},
		),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "listing_engine",
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds by method and path.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		runsStartedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "listing_engine",
				Name:      "runs_started_total",
				Help:      "Total number of batch runs started.",
			},
		),
		runsFinishedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "listing_engine",
				Name:      "runs_finished_total",
				Help:      "Total number of batch runs finished grouped by terminal status.",
			},
			[]string{"status"},
		),
		itemsProcessedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "listing_engine",
				Name:      "items_processed_total",
				Help:      "Total number of catalog items processed grouped by outcome.",
			},
			[]string{"outcome"},
		),
		runInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "listing_engine",
				Name:      "run_in_flight",
				Help:      "Whether a batch run is currently executing.",
			},
		),
		portalStepDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "listing_engine",
				Name:      "portal_step_duration_seconds",
				Help:      "Portal step duration in seconds grouped by step.",
				Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
			},
			[]string{"step"},
		),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.runsStartedTotal,
		m.runsFinishedTotal,
		m.itemsProcessedTotal,
		m.runInFlight,
		m.portalStepDuration,
	)

	return m
}

func (m *Metrics) Handler() http.Handler {
	if m == nil || m.registry == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) HTTPMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		path := routePath(c)
		// Avoid self-scrape noise for request counters.
		if path == "/metrics" {
			return err
		}

		m.recordHTTPRequest(c.Method(), path, statusFromResult(c, err), time.Since(start))
		return err
	}
}

func (m *Metrics) IncRunStarted() {
	if m == nil {
		return
	}
	m.runsStartedTotal.Inc()
}

func (m *Metrics) IncRunFinished(status string) {
	if m == nil {
		return
	}
	m.runsFinishedTotal.WithLabelValues(normalizeLabel(status)).Inc()
}

func (m *Metrics) IncItemProcessed(outcome string) {
	if m == nil {
		return
	}
	m.itemsProcessedTotal.WithLabelValues(normalizeLabel(outcome)).Inc()
}

func (m *Metrics) IncRunInFlight() {
	if m == nil {
		return
	}
	m.runInFlight.Inc()
}

func (m *Metrics) DecRunInFlight() {
	if m == nil {
		return
	}
	m.runInFlight.Dec()
}

func (m *Metrics) ObservePortalStepDuration(step string, duration time.Duration) {
	if m == nil {
		return
	}
	seconds := duration.Seconds()
	if seconds < 0 {
		seconds = 0
	}
	m.portalStepDuration.WithLabelValues(normalizeLabel(step)).Observe(seconds)
}

func (m *Metrics) recordHTTPRequest(method string, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}

	methodLabel := strings.ToUpper(strings.TrimSpace(method))
	if methodLabel == "" {
		methodLabel = "UNKNOWN"
	}
	pathLabel := strings.TrimSpace(path)
	if pathLabel == "" {
		pathLabel = "unmatched"
	}

	m.httpRequestsTotal.WithLabelValues(methodLabel, pathLabel, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(methodLabel, pathLabel).Observe(duration.Seconds())
}

func routePath(c *fiber.Ctx) string {
	if c == nil {
		return "unmatched"
	}

	if route := c.Route(); route != nil {
		if path := strings.TrimSpace(route.Path); path != "" {
			return path
		}
	}
	return "unmatched"
}

func statusFromResult(c *fiber.Ctx, err error) int {
	if err != nil {
		if fiberErr, ok := err.(*fiber.Error); ok {
			return fiberErr.Code
		}
		return fiber.StatusInternalServerError
	}

	if c == nil {
		return fiber.StatusOK
	}

	status := c.Response().StatusCode()
	if status == 0 {
		return fiber.StatusOK
	}
	return status
}

func normalizeLabel(value string) string {
	normalized := strings.ToLower(strings.TrimSpace(value))
	if normalized == "" {
		return "unknown"
	}
	return normalized
}
