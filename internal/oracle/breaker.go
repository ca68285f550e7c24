package oracle

import (
	"sync"
	"time"
)

// CircuitState represents the current state of a circuit breaker.
type CircuitState int

const (
	CircuitClosed   CircuitState = iota // Healthy, allowing calls
	CircuitOpen                         // Tripped, rejecting calls
	CircuitHalfOpen                     // Allowing a single probe call
)

func (s CircuitState) String() string {
	switch s {
	case CircuitClosed:
		return "closed"
	case CircuitOpen:
		return "open"
	case CircuitHalfOpen:
		return "half-open"
	}
	return "unknown"
}

// BreakerConfig holds circuit breaker settings.
type BreakerConfig struct {
	FailThreshold int           // Consecutive failures before opening
	OpenDuration  time.Duration // How long to stay open before a half-open probe
}

type circuitEntry struct {
	state    CircuitState
	failures int
	openedAt time.Time
}

// CircuitBreaker tracks circuit state per oracle label ("embedding",
// "strength"), so one failing model does not block the other.
type CircuitBreaker struct {
	mu      sync.Mutex
	cfg     BreakerConfig
	entries map[string]*circuitEntry
	now     func() time.Time
}

// NewCircuitBreaker creates a circuit breaker. Zero config values fall back
// to 5 failures and 30 seconds.
func NewCircuitBreaker(cfg BreakerConfig) *CircuitBreaker {
	if cfg.FailThreshold <= 0 {
		cfg.FailThreshold = 5
	}
	if cfg.OpenDuration <= 0 {
		cfg.OpenDuration = 30 * time.Second
	}
	return &CircuitBreaker{
		cfg:     cfg,
		entries: make(map[string]*circuitEntry),
		now:     time.Now,
	}
}

// Allow returns true if the label's circuit permits a call.
func (cb *CircuitBreaker) Allow(label string) bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	e := cb.getOrCreate(label)

	switch e.state {
	case CircuitClosed:
		return true
	case CircuitOpen:
		if cb.now().Sub(e.openedAt) >= cb.cfg.OpenDuration {
			e.state = CircuitHalfOpen
			return true
		}
		return false
	}
	// Half-open: the probe is already in flight.
	return false
}

// RecordSuccess closes the circuit.
func (cb *CircuitBreaker) RecordSuccess(label string) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	e := cb.getOrCreate(label)
	e.failures = 0
	e.state = CircuitClosed
}

// RecordFailure counts a failure and may open the circuit. A failed
// half-open probe reopens it immediately.
func (cb *CircuitBreaker) RecordFailure(label string) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	e := cb.getOrCreate(label)
	e.failures++

	if e.state == CircuitHalfOpen || e.failures >= cb.cfg.FailThreshold {
		e.state = CircuitOpen
		e.openedAt = cb.now()
	}
}

// Abandon releases a half-open probe whose outcome is unknown, returning the
// circuit to open with its original openedAt so the next call may probe again.
func (cb *CircuitBreaker) Abandon(label string) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	e := cb.getOrCreate(label)
	if e.state == CircuitHalfOpen {
		e.state = CircuitOpen
	}
}

// State returns the current circuit state for a label.
func (cb *CircuitBreaker) State(label string) CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	e, ok := cb.entries[label]
	if !ok {
		return CircuitClosed
	}
	return e.state
}

func (cb *CircuitBreaker) getOrCreate(label string) *circuitEntry {
	e, ok := cb.entries[label]
	if !ok {
		e = &circuitEntry{state: CircuitClosed}
		cb.entries[label] = e
	}
	return e
}
