package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests processed, by method, route and status code.",
		},
		[]string{"method", "route", "status"},
	)

	requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds, by method and route.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	simulatedReplies = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_replies_total",
			Help: "Total number of simulated bot replies, by outcome.",
		},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(requestsTotal, requestDuration, simulatedReplies)
}

// Middleware returns a Gin middleware that records request metrics
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		requestsTotal.WithLabelValues(
			c.Request.Method,
			route,
			strconv.Itoa(c.Writer.Status()),
		).Inc()
		requestDuration.WithLabelValues(c.Request.Method, route).
			Observe(time.Since(start).Seconds())
	}
}

// Handler returns the Prometheus exposition endpoint as a Gin handler
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// ObserveReply records the outcome of a simulated bot reply
func ObserveReply(outcome string) {
	simulatedReplies.WithLabelValues(outcome).Inc()
}
