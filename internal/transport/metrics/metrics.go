package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus collectors for the request gateway.
type Metrics struct {
	Requests        *prometheus.CounterVec
	RetriesAfter401 prometheus.Counter
	Failures        *prometheus.CounterVec
	DurationMs      prometheus.Histogram
}

// New registers and returns gateway metrics collectors. Pass nil to use the
// default registry; tests pass a fresh one.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		Requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "housepass_api_requests_total",
			Help: "Total API requests by method and status",
		}, []string{"method", "status"}),
		RetriesAfter401: factory.NewCounter(prometheus.CounterOpts{
			Name: "housepass_api_retries_after_refresh_total",
			Help: "Total requests retried once after a token refresh",
		}),
		Failures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "housepass_api_failures_total",
			Help: "Total failed API calls by error code",
		}, []string{"code"}),
		DurationMs: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "housepass_api_request_duration_ms",
			Help:    "Duration of logical API calls in milliseconds",
			Buckets: []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		}),
	}
}

func (m *Metrics) ObserveRequest(method string, status int) {
	m.Requests.WithLabelValues(method, strconv.Itoa(status)).Inc()
}

func (m *Metrics) IncrementRetries() {
	m.RetriesAfter401.Inc()
}

func (m *Metrics) IncrementFailures(code string) {
	m.Failures.WithLabelValues(code).Inc()
}

func (m *Metrics) ObserveDuration(durationMs float64) {
	m.DurationMs.Observe(durationMs)
}
