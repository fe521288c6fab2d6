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

// Metrics stores Prometheus collectors used by API and notifier flows.
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal       *prometheus.CounterVec
	httpRequestDuration     *prometheus.HistogramVec
	batchesReopenedTotal    *prometheus.CounterVec
	reviewSubmissionsTotal  *prometheus.CounterVec
	candidateDecisionsTotal *prometheus.CounterVec
	reviewSubmitDuration    prometheus.Histogram
	webhookDeliveriesTotal  *prometheus.CounterVec
	webhookDeliveryDuration prometheus.Histogram
	notifierInflight        prometheus.Gauge
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "recruit_review",
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests processed by method, path, and status.",
			},
			[]string{"method", "path", "status"},
		),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "recruit_review",
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds by method and path.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		batchesReopenedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "recruit_review",
				Name:      "batches_reopened_total",
				Help:      "Total number of sealed batches reopened, grouped by triggering mutation.",
			},
			[]string{"trigger"},
		),
		reviewSubmissionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "recruit_review",
				Name:      "review_submissions_total",
				Help:      "Total number of review submissions grouped by outcome.",
			},
			[]string{"outcome"},
		),
		candidateDecisionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "recruit_review",
				Name:      "candidate_decisions_total",
				Help:      "Total number of committed candidate decisions grouped by decision.",
			},
			[]string{"decision"},
		),
		reviewSubmitDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "recruit_review",
				Name:      "review_submit_duration_seconds",
				Help:      "End-to-end review submission duration in seconds.",
				Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
			},
		),
		webhookDeliveriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "recruit_review",
				Name:      "webhook_deliveries_total",
				Help:      "Total number of webhook relay attempts grouped by event kind and outcome.",
			},
			[]string{"kind", "outcome"},
		),
		webhookDeliveryDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "recruit_review",
				Name:      "webhook_delivery_duration_seconds",
				Help:      "Webhook relay call duration in seconds.",
				Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
			},
		),
		notifierInflight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "recruit_review",
				Name:      "notifier_inflight",
				Help:      "Current number of in-flight notifier deliveries.",
			},
		),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.batchesReopenedTotal,
		m.reviewSubmissionsTotal,
		m.candidateDecisionsTotal,
		m.reviewSubmitDuration,
		m.webhookDeliveriesTotal,
		m.webhookDeliveryDuration,
		m.notifierInflight,
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

func (m *Metrics) IncBatchReopened(trigger string) {
	if m == nil {
		return
	}
	label := strings.TrimSpace(strings.ToLower(trigger))
	if label == "" {
		label = "unknown"
	}
	m.batchesReopenedTotal.WithLabelValues(label).Inc()
}

func (m *Metrics) IncReviewSubmission(outcome string) {
	if m == nil {
		return
	}
	label := strings.TrimSpace(strings.ToLower(outcome))
	if label == "" {
		label = "unknown"
	}
	m.reviewSubmissionsTotal.WithLabelValues(label).Inc()
}

func (m *Metrics) IncCandidateDecision(decision string) {
	if m == nil {
		return
	}
	label := strings.TrimSpace(strings.ToLower(decision))
	if label == "" {
		label = "unknown"
	}
	m.candidateDecisionsTotal.WithLabelValues(label).Inc()
}

func (m *Metrics) ObserveReviewSubmitDuration(duration time.Duration) {
	if m == nil {
		return
	}
	seconds := duration.Seconds()
	if seconds < 0 {
		seconds = 0
	}
	m.reviewSubmitDuration.Observe(seconds)
}

func (m *Metrics) IncWebhookDelivery(kind string, outcome string) {
	if m == nil {
		return
	}
	kindLabel := strings.TrimSpace(strings.ToLower(kind))
	if kindLabel == "" {
		kindLabel = "unknown"
	}
	outcomeLabel := strings.TrimSpace(strings.ToLower(outcome))
	if outcomeLabel == "" {
		outcomeLabel = "unknown"
	}
	m.webhookDeliveriesTotal.WithLabelValues(kindLabel, outcomeLabel).Inc()
}

func (m *Metrics) ObserveWebhookDeliveryDuration(duration time.Duration) {
	if m == nil {
		return
	}
	seconds := duration.Seconds()
	if seconds < 0 {
		seconds = 0
	}
	m.webhookDeliveryDuration.Observe(seconds)
}

func (m *Metrics) IncNotifierInFlight() {
	if m == nil {
		return
	}
	m.notifierInflight.Inc()
}

func (m *Metrics) DecNotifierInFlight() {
	if m == nil {
		return
	}
	m.notifierInflight.Dec()
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
