package llm

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrCircuitOpen is returned while the breaker is rejecting generation requests.
var ErrCircuitOpen = errors.New("llm provider unavailable")

// CircuitState represents the current state of the circuit breaker.
type CircuitState int

const (
	CircuitClosed CircuitState = iota
	CircuitOpen
	CircuitHalfOpen
)

// String returns a human-readable string for the circuit state.
func (s CircuitState) String() string {
	switch s {
	case CircuitClosed:
		return "closed"
	case CircuitOpen:
		return "open"
	case CircuitHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreakerConfig holds configuration for the circuit breaker.
type CircuitBreakerConfig struct {
	// Threshold is the number of consecutive retryable failures before the circuit trips.
	Threshold int
	// ResetAfter is how long the circuit stays open before one probe request is let through.
	ResetAfter time.Duration
}

// DefaultCircuitBreakerConfig returns the breaker defaults used by main.
func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Threshold:  5,
		ResetAfter: 30 * time.Second,
	}
}

// CircuitBreaker wraps a Generator and stops calling a provider that keeps failing.
// Only retryable provider errors count as failures; auth or model errors do not
// indicate an outage.
type CircuitBreaker struct {
	Generator

	mu          sync.Mutex
	threshold   int
	resetAfter  time.Duration
	now         func() time.Time
	failures    int
	lastFailure time.Time
	state       CircuitState
}

// NewCircuitBreaker wraps gen with a breaker.
func NewCircuitBreaker(gen Generator, cfg CircuitBreakerConfig) *CircuitBreaker {
	if cfg.Threshold <= 0 {
		cfg.Threshold = DefaultCircuitBreakerConfig().Threshold
	}
	return &CircuitBreaker{
		Generator:  gen,
		threshold:  cfg.Threshold,
		resetAfter: cfg.ResetAfter,
		now:        time.Now,
		state:      CircuitClosed,
	}
}

// Generate forwards to the wrapped generator unless the circuit is open.
func (cb *CircuitBreaker) Generate(ctx context.Context, req *GenerateRequest) (*GenerateResult, error) {
	if err := cb.allow(); err != nil {
		return nil, err
	}

	result, err := cb.Generator.Generate(ctx, req)
	switch {
	case err == nil:
		cb.recordSuccess()
	case IsRetryable(err):
		cb.recordFailure()
	default:
		cb.release()
	}
	return result, err
}

func (cb *CircuitBreaker) allow() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case CircuitOpen:
		since := cb.now().Sub(cb.lastFailure)
		if since > cb.resetAfter {
			cb.state = CircuitHalfOpen
			return nil
		}
		return fmt.Errorf("%w: circuit open after %d failures, last %v ago",
			ErrCircuitOpen, cb.failures, since.Round(time.Second))
	case CircuitHalfOpen:
		return fmt.Errorf("%w: probing provider recovery", ErrCircuitOpen)
	default:
		return nil
	}
}

func (cb *CircuitBreaker) recordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures = 0
	cb.state = CircuitClosed
}

func (cb *CircuitBreaker) recordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures++
	cb.lastFailure = cb.now()
	if cb.state == CircuitHalfOpen || cb.failures >= cb.threshold {
		cb.state = CircuitOpen
	}
}

// release closes a half-open probe that ended with a non-outage error.
func (cb *CircuitBreaker) release() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == CircuitHalfOpen {
		cb.state = CircuitClosed
		cb.failures = 0
	}
}

// State returns the current state of the circuit breaker.
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}
