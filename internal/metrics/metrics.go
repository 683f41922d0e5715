package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

var (
	LoginTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_login_total",
		Help: "Login attempts by result.",
	}, []string{"result"})

	ValidationTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_validation_total",
		Help: "Session token validations by result.",
	}, []string{"result"})

	ChannelAuthTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "realtime_channel_auth_total",
		Help: "Realtime channel authentication attempts by result.",
	}, []string{"result"})

	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)

// Result maps a boolean outcome to a label value
func Result(ok bool) string {
	if ok {
		return ResultSuccess
	}
	return ResultFailure
}

// PrometheusMiddleware records request latency per matched route
func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		RequestDuration.
			WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}
