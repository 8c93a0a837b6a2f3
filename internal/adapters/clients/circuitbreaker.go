package clients

import (
	"sync"
	"time"

	"github.com/jsamuelsen/quotekeeper/internal/platform/config"
)

// State is the circuit breaker state.
type State int

const (
	// StateClosed lets every request through.
	StateClosed State = iota

	// StateOpen blocks requests until the open timeout passes.
	StateOpen

	// StateHalfOpen lets a limited number of probe requests through.
	StateHalfOpen
)

// String returns the state name used in logs.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreaker stops calls to a failing downstream.
//
//   - closed to open after MaxFailures consecutive failures
//   - open to half-open once Timeout has passed since the last failure
//   - half-open to closed after HalfOpenLimit consecutive successes
//   - half-open to open on any failure
type CircuitBreaker struct {
	mu        sync.Mutex
	cfg       config.CircuitBreakerConfig
	state     State
	failures  int
	successes int
	inFlight  int // probes admitted while half-open
	openedAt  time.Time

	onChange func(from, to State)
	now      func() time.Time
}

// NewCircuitBreaker creates a closed breaker.
func NewCircuitBreaker(cfg config.CircuitBreakerConfig) *CircuitBreaker {
	return &CircuitBreaker{cfg: cfg, now: time.Now}
}

// OnStateChange registers fn to run after every transition. It runs on the
// caller's goroutine once the breaker's lock is released.
func (cb *CircuitBreaker) OnStateChange(fn func(from, to State)) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.onChange = fn
}

// Allow reports whether a request may proceed. Every allowed request must be
// followed by RecordSuccess or RecordFailure.
func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()
	allowed, from, to := cb.allow()
	notify := cb.onChange
	cb.mu.Unlock()

	if from != to && notify != nil {
		notify(from, to)
	}

	return allowed
}

func (cb *CircuitBreaker) allow() (allowed bool, from, to State) {
	from = cb.state

	switch cb.state {
	case StateClosed:
		return true, from, from
	case StateOpen:
		if cb.now().Sub(cb.openedAt) < cb.cfg.Timeout {
			return false, from, from
		}

		cb.transition(StateHalfOpen)
		cb.inFlight = 1

		return true, from, StateHalfOpen
	case StateHalfOpen:
		if cb.inFlight >= cb.cfg.HalfOpenLimit {
			return false, from, from
		}

		cb.inFlight++

		return true, from, from
	default:
		return false, from, from
	}
}

// RecordSuccess records a completed request.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.record(func() {
		switch cb.state {
		case StateClosed:
			cb.failures = 0
		case StateHalfOpen:
			cb.inFlight--
			cb.successes++

			if cb.successes >= cb.cfg.HalfOpenLimit {
				cb.transition(StateClosed)
			}
		case StateOpen:
		}
	})
}

// RecordFailure records a failed request.
func (cb *CircuitBreaker) RecordFailure() {
	cb.record(func() {
		switch cb.state {
		case StateClosed:
			cb.failures++

			if cb.failures >= cb.cfg.MaxFailures {
				cb.transition(StateOpen)
			}
		case StateHalfOpen:
			cb.inFlight--
			cb.transition(StateOpen)
		case StateOpen:
			cb.openedAt = cb.now()
		}
	})
}

func (cb *CircuitBreaker) record(update func()) {
	cb.mu.Lock()
	from := cb.state
	update()
	to := cb.state
	notify := cb.onChange
	cb.mu.Unlock()

	if from != to && notify != nil {
		notify(from, to)
	}
}

// State returns the current state.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	return cb.state
}

// transition must be called with the lock held.
func (cb *CircuitBreaker) transition(to State) {
	cb.state = to
	cb.failures = 0
	cb.successes = 0

	if to == StateOpen {
		cb.openedAt = cb.now()
		cb.inFlight = 0
	}
}
