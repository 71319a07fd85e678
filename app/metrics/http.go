package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(apiRequestDuration, apiRequestErrorsTotal)
}

var (
	apiRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "portal_api_request_duration_seconds",
			Help:    "Backend API request latency by method, route and status code.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "code"},
	)

	apiRequestErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_api_request_errors_total",
			Help: "Backend API request failures by error kind.",
		},
		[]string{"kind"},
	)
)

// ObserveAPIRequest records a finished request. code 0 means no response.
func ObserveAPIRequest(method, route string, code int, elapsed time.Duration) {
	apiRequestDuration.WithLabelValues(method, route, strconv.Itoa(code)).Observe(elapsed.Seconds())
}

func IncAPIError(kind string) {
	apiRequestErrorsTotal.WithLabelValues(norm(kind)).Inc()
}
