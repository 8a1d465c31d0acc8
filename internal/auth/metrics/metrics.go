package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus collectors for session operations.
type Metrics struct {
	Logins           prometheus.Counter
	LoginFailures    prometheus.Counter
	Refreshes        prometheus.Counter
	RefreshFailures  prometheus.Counter
	SessionsRestored prometheus.Counter
	Logouts          prometheus.Counter
}

// New registers and returns session metrics collectors. Pass nil to use the
// default registry; tests pass a fresh one.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		Logins: factory.NewCounter(prometheus.CounterOpts{
			Name: "housepass_logins_total",
			Help: "Total number of successful staff logins",
		}),
		LoginFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "housepass_login_failures_total",
			Help: "Total number of rejected login attempts",
		}),
		Refreshes: factory.NewCounter(prometheus.CounterOpts{
			Name: "housepass_token_refreshes_total",
			Help: "Total number of successful access token refreshes",
		}),
		RefreshFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "housepass_token_refresh_failures_total",
			Help: "Total number of refresh failures that ended the session",
		}),
		SessionsRestored: factory.NewCounter(prometheus.CounterOpts{
			Name: "housepass_sessions_restored_total",
			Help: "Total number of sessions restored from a stored credential",
		}),
		Logouts: factory.NewCounter(prometheus.CounterOpts{
			Name: "housepass_logouts_total",
			Help: "Total number of logouts",
		}),
	}
}

func (m *Metrics) IncrementLogins() {
	m.Logins.Inc()
}

func (m *Metrics) IncrementLoginFailures() {
	m.LoginFailures.Inc()
}

func (m *Metrics) IncrementRefreshes() {
	m.Refreshes.Inc()
}

func (m *Metrics) IncrementRefreshFailures() {
	m.RefreshFailures.Inc()
}

func (m *Metrics) IncrementSessionsRestored() {
	m.SessionsRestored.Inc()
}

func (m *Metrics) IncrementLogouts() {
	m.Logouts.Inc()
}
