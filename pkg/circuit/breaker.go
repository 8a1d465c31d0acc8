// Package circuit provides a small two-state circuit breaker used by the
// request gateway on unreliable venue networks.
package circuit

import (
	"sync"
	"time"
)

// State represents the breaker state.
type State int

const (
	// StateClosed means the backend is considered healthy and calls flow.
	StateClosed State = iota
	// StateOpen means the breaker tripped; calls fail fast until the
	// cooldown elapses and a probe succeeds.
	StateOpen
)

// Breaker counts consecutive failures on the door-station link. After
// Threshold consecutive failures the breaker opens; while open, Allow
// reports false until Cooldown has elapsed since the trip, at which point a
// single probe call is let through. A successful call closes the breaker.
type Breaker struct {
	mu        sync.Mutex
	state     State
	failures  int
	threshold int
	cooldown  time.Duration
	openedAt  time.Time
	now       func() time.Time
}

// Option configures a Breaker.
type Option func(*Breaker)

// WithThreshold sets the consecutive-failure count that opens the breaker.
// Default is 5.
func WithThreshold(n int) Option {
	return func(b *Breaker) {
		if n > 0 {
			b.threshold = n
		}
	}
}

// WithCooldown sets how long the breaker stays open before allowing a probe.
// Default is 30 seconds.
func WithCooldown(d time.Duration) Option {
	return func(b *Breaker) {
		if d > 0 {
			b.cooldown = d
		}
	}
}

// WithClock injects a time source for tests.
func WithClock(now func() time.Time) Option {
	return func(b *Breaker) {
		if now != nil {
			b.now = now
		}
	}
}

// New creates a closed breaker.
func New(opts ...Option) *Breaker {
	b := &Breaker{
		threshold: 5,
		cooldown:  30 * time.Second,
		now:       time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b
}

// Allow reports whether a call may proceed. While open it returns false
// until the cooldown has elapsed, then lets one probe through by resetting
// the trip time.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateClosed {
		return true
	}
	if b.now().Sub(b.openedAt) < b.cooldown {
		return false
	}
	// Probe window: push the trip time forward so concurrent callers do not
	// all rush the backend at once.
	b.openedAt = b.now()
	return true
}

// RecordSuccess closes the breaker and clears the failure count.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = StateClosed
	b.failures = 0
}

// RecordFailure notes a failed call and returns true if the breaker just
// opened.
func (b *Breaker) RecordFailure() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures++
	if b.state == StateOpen {
		b.openedAt = b.now()
		return false
	}
	if b.failures >= b.threshold {
		b.state = StateOpen
		b.openedAt = b.now()
		return true
	}
	return false
}

// State returns the current breaker state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}
