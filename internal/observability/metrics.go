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

// Metrics stores Prometheus collectors used by the API, worker and function entry points.
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDuration        *prometheus.HistogramVec
	notificationsSentTotal     *prometheus.CounterVec
	notificationsFailedTotal   *prometheus.CounterVec
	notificationSendDuration   *prometheus.HistogramVec
	recordStoreRequestsTotal   *prometheus.CounterVec
	bookkeepingFailuresTotal   *prometheus.CounterVec
	photoOverrideRequestsTotal prometheus.Counter
	workerInflight             *prometheus.GaugeVec
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "photo_dispatch",
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests processed by method, path, and status.",
			},
			[]string{"method", "path", "status"},
		),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "photo_dispatch",
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds by method and path.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		notificationsSentTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "photo_dispatch",
				Name:      "notifications_sent_total",
				Help:      "Total number of photo emails accepted by the notifier.",
			},
			[]string{"provider"},
		),
		notificationsFailedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "photo_dispatch",
				Name:      "notifications_failed_total",
				Help:      "Total number of requests that ended in a failure result, by category.",
			},
			[]string{"category"},
		),
		notificationSendDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "photo_dispatch",
				Name:      "notification_send_duration_seconds",
				Help:      "Notifier send duration in seconds grouped by provider.",
				Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
			},
			[]string{"provider"},
		),
		recordStoreRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "photo_dispatch",
				Name:      "record_store_requests_total",
				Help:      "Record store calls by operation and outcome.",
			},
			[]string{"operation", "outcome"},
		),
		bookkeepingFailuresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "photo_dispatch",
				Name:      "bookkeeping_failures_total",
				Help:      "Session status updates that failed after a successful send, by category.",
			},
			[]string{"category"},
		),
		photoOverrideRequestsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "photo_dispatch",
				Name:      "photo_override_requests_total",
				Help:      "Requests that carried their own photo list and skipped the record store read.",
			},
		),
		workerInflight: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "photo_dispatch",
				Name:      "worker_inflight",
				Help:      "Current number of in-flight worker messages grouped by queue.",
			},
			[]string{"queue"},
		),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.notificationsSentTotal,
		m.notificationsFailedTotal,
		m.notificationSendDuration,
		m.recordStoreRequestsTotal,
		m.bookkeepingFailuresTotal,
		m.photoOverrideRequestsTotal,
		m.workerInflight,
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

func (m *Metrics) IncNotificationSent(provider string) {
	if m == nil {
		return
	}
	m.notificationsSentTotal.WithLabelValues(normalizeLabel(provider)).Inc()
}

func (m *Metrics) IncNotificationFailed(category string) {
	if m == nil {
		return
	}
	m.notificationsFailedTotal.WithLabelValues(normalizeLabel(category)).Inc()
}

func (m *Metrics) ObserveNotificationSendDuration(provider string, duration time.Duration) {
	if m == nil {
		return
	}
	seconds := duration.Seconds()
	if seconds < 0 {
		seconds = 0
	}
	m.notificationSendDuration.WithLabelValues(normalizeLabel(provider)).Observe(seconds)
}

func (m *Metrics) IncRecordStoreRequest(operation string, outcome string) {
	if m == nil {
		return
	}
	m.recordStoreRequestsTotal.WithLabelValues(normalizeLabel(operation), normalizeLabel(outcome)).Inc()
}

func (m *Metrics) IncBookkeepingFailure(category string) {
	if m == nil {
		return
	}
	m.bookkeepingFailuresTotal.WithLabelValues(normalizeLabel(category)).Inc()
}

func (m *Metrics) IncPhotoOverride() {
	if m == nil {
		return
	}
	m.photoOverrideRequestsTotal.Inc()
}

func (m *Metrics) IncWorkerInFlight(queue string) {
	if m == nil {
		return
	}
	m.workerInflight.WithLabelValues(normalizeLabel(queue)).Inc()
}

func (m *Metrics) DecWorkerInFlight(queue string) {
	if m == nil {
		return
	}
	m.workerInflight.WithLabelValues(normalizeLabel(queue)).Dec()
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
