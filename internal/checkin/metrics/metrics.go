package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus collectors for door check-in activity.
type Metrics struct {
	Verifications   prometheus.Counter
	VerifyFailures  prometheus.Counter
	Checkins        prometheus.Counter
	ProcessFailures prometheus.Counter
}

// New registers and returns check-in metrics collectors. Pass nil to use
// the default registry; tests pass a fresh one.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		Verifications: factory.NewCounter(prometheus.CounterOpts{
			Name: "housepass_checkin_verifications_total",
			Help: "Total successful order verifications",
		}),
		VerifyFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "housepass_checkin_verify_failures_total",
			Help: "Total failed order verifications",
		}),
		Checkins: factory.NewCounter(prometheus.CounterOpts{
			Name: "housepass_checkin_processed_total",
			Help: "Total orders checked in at the door",
		}),
		ProcessFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "housepass_checkin_process_failures_total",
			Help: "Total failed check-in attempts",
		}),
	}
}

func (m *Metrics) IncrementVerifications()   { m.Verifications.Inc() }
func (m *Metrics) IncrementVerifyFailures()  { m.VerifyFailures.Inc() }
func (m *Metrics) IncrementCheckins()        { m.Checkins.Inc() }
func (m *Metrics) IncrementProcessFailures() { m.ProcessFailures.Inc() }
