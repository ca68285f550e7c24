package oracle

import (
	"context"
	"fmt"
	"time"

	"github.com/agent-smit/passguard/internal/breach"
)

// Oracle labels used for circuit state.
const (
	LabelEmbedding = "embedding"
	LabelStrength  = "strength"
)

// Guard bounds every oracle call with a timeout and a circuit breaker. All
// failures it returns wrap breach.ErrOracleUnavailable.
type Guard struct {
	breaker *CircuitBreaker
	timeout time.Duration
}

// NewGuard creates a guard. A zero timeout leaves calls bounded only by the
// caller's context.
func NewGuard(breaker *CircuitBreaker, timeout time.Duration) *Guard {
	if breaker == nil {
		breaker = NewCircuitBreaker(BreakerConfig{})
	}
	return &Guard{breaker: breaker, timeout: timeout}
}

// Breaker exposes the underlying circuit breaker, mainly for readiness checks.
func (g *Guard) Breaker() *CircuitBreaker { return g.breaker }

func (g *Guard) call(ctx context.Context, label string, fn func(context.Context) error) error {
	if !g.breaker.Allow(label) {
		return fmt.Errorf("%w: %s circuit open", breach.ErrOracleUnavailable, label)
	}

	callCtx := ctx
	if g.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	err := fn(callCtx)
	switch {
	case err == nil:
		g.breaker.RecordSuccess(label)
		return nil
	case ctx.Err() != nil:
		// The caller gave up; that says nothing about the oracle's health.
		g.breaker.Abandon(label)
		return fmt.Errorf("%w: %s: %w", breach.ErrOracleUnavailable, label, ctx.Err())
	default:
		g.breaker.RecordFailure(label)
		return fmt.Errorf("%w: %s: %w", breach.ErrOracleUnavailable, label, err)
	}
}

// Embedder wraps next so its calls go through the guard.
func (g *Guard) Embedder(next breach.Embedder) breach.Embedder {
	return &guardedEmbedder{next: next, guard: g}
}

// Strength wraps next so its calls go through the guard.
func (g *Guard) Strength(next breach.StrengthClassifier) breach.StrengthClassifier {
	return &guardedStrength{next: next, guard: g}
}

type guardedEmbedder struct {
	next  breach.Embedder
	guard *Guard
}

func (e *guardedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	var vec []float32
	err := e.guard.call(ctx, LabelEmbedding, func(ctx context.Context) error {
		var err error
		vec, err = e.next.Embed(ctx, text)
		return err
	})
	return vec, err
}

type guardedStrength struct {
	next  breach.StrengthClassifier
	guard *Guard
}

func (s *guardedStrength) Classify(ctx context.Context, text string) (breach.Strength, error) {
	var out breach.Strength
	err := s.guard.call(ctx, LabelStrength, func(ctx context.Context) error {
		var err error
		out, err = s.next.Classify(ctx, text)
		return err
	})
	return out, err
}
