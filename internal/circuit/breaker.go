// Package circuit implements a circuit breaker guarding calls to the ministry API.
package circuit

import (
	"sync"
	"time"
)

// State represents the breaker state.
type State string

const (
	// StateClosed allows all calls.
	StateClosed State = "closed"
	// StateOpen rejects calls until the recovery timeout elapses.
	StateOpen State = "open"
	// StateHalfOpen allows a trial call after the recovery timeout.
	StateHalfOpen State = "half_open"
)

// Breaker is a CLOSED -> OPEN -> HALF_OPEN circuit breaker with consecutive
// failure counting. It is safe for use by concurrent worker goroutines.
type Breaker struct {
	mu               sync.Mutex
	state            State
	failureCount     int
	failureThreshold int
	recoveryTimeout  time.Duration
	lastFailureTime  time.Time
	now              func() time.Time
}

// Option configures a Breaker.
type Option func(*Breaker)

// WithFailureThreshold sets the number of consecutive failures that opens the breaker.
func WithFailureThreshold(n int) Option {
	return func(b *Breaker) {
		if n > 0 {
			b.failureThreshold = n
		}
	}
}

// WithRecoveryTimeout sets how long the breaker stays open before allowing a trial call.
func WithRecoveryTimeout(d time.Duration) Option {
	return func(b *Breaker) {
		if d > 0 {
			b.recoveryTimeout = d
		}
	}
}

// WithClock overrides the time source, used by tests.
func WithClock(now func() time.Time) Option {
	return func(b *Breaker) {
		if now != nil {
			b.now = now
		}
	}
}

// New creates a Breaker with the default threshold (5) and recovery timeout (60s).
func New(opts ...Option) *Breaker {
	b := &Breaker{
		state:            StateClosed,
		failureThreshold: 5,
		recoveryTimeout:  60 * time.Second,
		now:              time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// CanExecute reports whether a call may proceed. When the breaker is open and
// the recovery timeout has elapsed, it transitions to half-open and allows a
// single trial call.
func (b *Breaker) CanExecute() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		return true
	case StateOpen:
		if b.now().Sub(b.lastFailureTime) >= b.recoveryTimeout {
			b.state = StateHalfOpen
			return true
		}
		return false
	case StateHalfOpen:
		return true
	}
	return false
}

// OnSuccess resets the failure count and closes the breaker.
func (b *Breaker) OnSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failureCount = 0
	b.state = StateClosed
}

// OnFailure increments the failure count and opens the breaker once the
// threshold is reached. A failed trial call in half-open reopens immediately.
func (b *Breaker) OnFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failureCount++
	b.lastFailureTime = b.now()

	if b.state == StateHalfOpen || b.failureCount >= b.failureThreshold {
		b.state = StateOpen
	}
}

// State returns the current breaker state without side effects.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// FailureCount returns the current consecutive failure count.
func (b *Breaker) FailureCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failureCount
}

// Reset forces the breaker back to closed, clearing all counters.
// Exposed for operator maintenance.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.state = StateClosed
	b.failureCount = 0
}
