package metrics

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the settlement-facing counters.
type Metrics struct {
	webhookEvents *prometheus.CounterVec
	settlements   *prometheus.CounterVec
	transfers     *prometheus.CounterVec
}

func New() *Metrics {
	return &Metrics{
		webhookEvents: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "grannhjalp_webhook_events_total",
			Help: "Processor webhook events by type and result.",
		}, []string{"event_type", "result"}),
		settlements: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "grannhjalp_settlements_total",
			Help: "Commission settlements by resulting status.",
		}, []string{"status"}),
		transfers: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "grannhjalp_transfers_total",
			Help: "Helper payout transfer attempts by result.",
		}, []string{"result"}),
	}
}

func (m *Metrics) RecordWebhookEvent(eventType, result string) {
	if m == nil {
		return
	}
	m.webhookEvents.WithLabelValues(normalize(eventType), normalize(result)).Inc()
}

func (m *Metrics) RecordSettlement(status string) {
	if m == nil {
		return
	}
	m.settlements.WithLabelValues(normalize(status)).Inc()
}

func (m *Metrics) RecordTransfer(result string) {
	if m == nil {
		return
	}
	m.transfers.WithLabelValues(normalize(result)).Inc()
}

func normalize(value string) string {
	value = strings.TrimSpace(strings.ToLower(value))
	if value == "" {
		return "unknown"
	}
	return value
}

// HTTPMetrics instruments the gin surface.
type HTTPMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func NewHTTPMetrics() *HTTPMetrics {
	return &HTTPMetrics{
		requests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "grannhjalp_http_requests_total",
			Help: "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		duration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "grannhjalp_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
	}
}

func GinMiddleware(m *HTTPMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		route := c.FullPath()
		if strings.TrimSpace(route) == "" {
			route = "unknown"
		}
		method := c.Request.Method
		status := strconv.Itoa(c.Writer.Status())

		m.requests.WithLabelValues(route, method, status).Inc()
		m.duration.WithLabelValues(route, method).Observe(time.Since(start).Seconds())
	}
}
