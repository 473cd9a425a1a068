package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// unmatchedRoute labels requests that matched no route.
const unmatchedRoute = "unmatched"

var (
	opsRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "keywordanalyzer",
			Subsystem: "ops",
			Name:      "requests_total",
			Help:      "Requests served by the ops endpoint, by route pattern and status code",
		},
		[]string{"route", "code"},
	)

	opsRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "keywordanalyzer",
			Subsystem: "ops",
			Name:      "request_duration_seconds",
			Help:      "Latency of ops endpoint requests",
			Buckets:   []float64{.001, .005, .01, .05, .1, .5, 1},
		},
		[]string{"route"},
	)

	opsInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "keywordanalyzer",
		Subsystem: "ops",
		Name:      "requests_in_flight",
		Help:      "Ops endpoint requests currently being served",
	})
)

func init() {
	prometheus.MustRegister(opsRequestsTotal, opsRequestDuration, opsInFlight)
}

// Metrics must wrap the ServeMux directly: the route label is the pattern the mux
// matched, read back from the request once it has been served.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		opsInFlight.Inc()
		defer opsInFlight.Dec()

		start := time.Now()
		sr := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(sr, r)

		route := r.Pattern
		if route == "" {
			route = unmatchedRoute
		}
		opsRequestsTotal.WithLabelValues(route, strconv.Itoa(sr.statusCode)).Inc()
		opsRequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}
