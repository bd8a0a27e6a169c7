// Package resilience guards calls to the historical data endpoint. A run of
// failures opens the breaker so playback-critical requests short-circuit to
// the local demo generator instead of waiting out timeouts on a dead
// upstream.
package resilience

import (
	"context"
	"errors"
	"sync"
	"time"
)

// State is the breaker state.
type State string

const (
	// StateClosed passes requests through.
	StateClosed State = "closed"
	// StateOpen rejects requests until the cooldown elapses.
	StateOpen State = "open"
	// StateHalfOpen lets probe requests through after the cooldown.
	StateHalfOpen State = "half-open"
)

// ErrOpen is returned while the breaker is rejecting requests.
var ErrOpen = errors.New("endpoint breaker is open")

// Config tunes the breaker thresholds.
type Config struct {
	// FailureThreshold is the consecutive-failure count that opens the breaker.
	FailureThreshold int
	// SuccessThreshold is the probe-success count that closes it again.
	SuccessThreshold int
	// Cooldown is how long the breaker stays open before probing.
	Cooldown time.Duration
}

// DefaultConfig returns thresholds suited to the data endpoint: three strikes
// out, one clean probe back in.
func DefaultConfig() Config {
	return Config{
		FailureThreshold: 3,
		SuccessThreshold: 1,
		Cooldown:         30 * time.Second,
	}
}

// Breaker is a consecutive-failure circuit breaker.
type Breaker struct {
	cfg Config

	mu          sync.Mutex
	state       State
	failures    int
	successes   int
	lastFailure time.Time

	requests  int64
	rejected  int64
	tripCount int64
}

// NewBreaker creates a closed breaker.
func NewBreaker(cfg Config) *Breaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = DefaultConfig().FailureThreshold
	}
	if cfg.SuccessThreshold <= 0 {
		cfg.SuccessThreshold = DefaultConfig().SuccessThreshold
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = DefaultConfig().Cooldown
	}
	return &Breaker{cfg: cfg, state: StateClosed}
}

// Do runs fn under the breaker. While open it fails fast with ErrOpen; the
// caller is expected to degrade locally. A context error counts as a failure.
func Do[T any](b *Breaker, ctx context.Context, fn func() (T, error)) (T, error) {
	var zero T
	if err := b.admit(); err != nil {
		return zero, err
	}

	result, err := fn()
	if err != nil {
		b.recordFailure()
		return zero, err
	}
	if ctx.Err() != nil {
		b.recordFailure()
		return zero, ctx.Err()
	}
	b.recordSuccess()
	return result, nil
}

func (b *Breaker) admit() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.requests++
	switch b.state {
	case StateOpen:
		if time.Since(b.lastFailure) < b.cfg.Cooldown {
			b.rejected++
			return ErrOpen
		}
		b.state = StateHalfOpen
		b.successes = 0
	}
	return nil
}

func (b *Breaker) recordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateHalfOpen:
		b.successes++
		if b.successes >= b.cfg.SuccessThreshold {
			b.state = StateClosed
			b.failures = 0
		}
	case StateClosed:
		b.failures = 0
	}
}

func (b *Breaker) recordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.lastFailure = time.Now()
	switch b.state {
	case StateClosed:
		b.failures++
		if b.failures >= b.cfg.FailureThreshold {
			b.state = StateOpen
			b.tripCount++
		}
	case StateHalfOpen:
		// A failed probe goes straight back to open.
		b.state = StateOpen
		b.tripCount++
	}
}

// State returns the current breaker state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Stats is a point-in-time breaker summary.
type Stats struct {
	State    State
	Requests int64
	Rejected int64
	Trips    int64
}

// Stats returns request and trip counters.
func (b *Breaker) Stats() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Stats{State: b.state, Requests: b.requests, Rejected: b.rejected, Trips: b.tripCount}
}
