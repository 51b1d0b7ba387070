package resolver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"github.com/soundprediction/chronicle/pkg/types"
)

// BreakerConfig tunes the circuit breaker around a remote resolver.
type BreakerConfig struct {
	// MaxRequests allowed through while half-open.
	MaxRequests uint32
	// Interval over which failure counts are accumulated while closed.
	Interval time.Duration
	// Timeout before an open breaker transitions to half-open.
	Timeout time.Duration
	// FailureRatio at which the breaker trips (with at least 3 requests).
	FailureRatio float64
}

// DefaultBreakerConfig returns conservative breaker settings.
func DefaultBreakerConfig() *BreakerConfig {
	return &BreakerConfig{
		MaxRequests:  3,
		Interval:     60 * time.Second,
		Timeout:      30 * time.Second,
		FailureRatio: 0.6,
	}
}

// Breaker wraps a Resolver with a circuit breaker so a failing upstream
// degrades to fast errors instead of stalling every render. NotFound is a
// normal answer, not a failure, and never trips the breaker.
type Breaker struct {
	next Resolver
	cb   *gobreaker.CircuitBreaker
}

// NewBreaker wraps next with a circuit breaker. A nil config uses
// DefaultBreakerConfig.
func NewBreaker(next Resolver, config *BreakerConfig) *Breaker {
	if config == nil {
		config = DefaultBreakerConfig()
	}

	settings := gobreaker.Settings{
		Name:        "entity-resolver",
		MaxRequests: config.MaxRequests,
		Interval:    config.Interval,
		Timeout:     config.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && ratio >= config.FailureRatio
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, types.ErrNotFound)
		},
	}

	return &Breaker{next: next, cb: gobreaker.NewCircuitBreaker(settings)}
}

// Resolve implements Resolver.
func (b *Breaker) Resolve(ctx context.Context, ref types.OwnerRef) (*Entity, error) {
	out, err := b.cb.Execute(func() (interface{}, error) {
		return b.next.Resolve(ctx, ref)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("resolver unavailable for %s: %w", ref, err)
		}
		return nil, err
	}
	return out.(*Entity), nil
}
