package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"code", "method", "path"},
	)
	httpRequestsDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
	httpRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Current number of HTTP requests being processed.",
		},
	)

	// StockRequestsDecided counts committed approvals and rejections.
	StockRequestsDecided = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stock_requests_decided_total",
			Help: "Stock requests moved out of pending, by outcome.",
		},
		[]string{"status"},
	)

	// StockMovements counts committed stock transactions by type and origin.
	StockMovements = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stock_movements_total",
			Help: "Stock transactions written, by type and source.",
		},
		[]string{"type", "source"},
	)
)

// Movement sources
const (
	SourceManual     = "manual"
	SourceAdjustment = "adjustment"
	SourceRequest    = "stock_request"
)

// Middleware records count, latency and in-flight gauge per route pattern.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		httpRequestsInFlight.Inc()
		defer httpRequestsInFlight.Dec()

		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}

		path := c.Route().Path
		httpRequestsTotal.WithLabelValues(strconv.Itoa(status), c.Method(), path).Inc()
		httpRequestsDuration.WithLabelValues(c.Method(), path).Observe(time.Since(start).Seconds())

		return err
	}
}

// Handler serves the Prometheus /metrics endpoint
func Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
