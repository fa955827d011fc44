// Package resilient wraps model provider adapters with retries and a
// circuit breaker.
//
// Only transient failures (throttling, 5xx, network errors) are retried.
// Anything else is returned on the first attempt. A breaker that has
// opened fails calls immediately with ErrCircuitOpen until its cooldown
// elapses.
package resilient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/sony/gobreaker"

	"github.com/custodia-labs/groundwork/internal/core/domain"
	"github.com/custodia-labs/groundwork/internal/logger"
)

// ErrCircuitOpen is returned while the breaker rejects calls.
var ErrCircuitOpen = errors.New("circuit open")

// Policy combines a retry schedule with one circuit breaker. A Policy is
// safe for concurrent use and is shared by every call through a decorator.
type Policy struct {
	name     string
	settings domain.RetrySettings
	breaker  *gobreaker.CircuitBreaker
}

// NewPolicy creates a policy for the named provider. Zero fields in
// settings fall back to domain.DefaultAppSettings.
func NewPolicy(name string, settings domain.RetrySettings) *Policy {
	settings = withDefaults(settings)

	failures := uint32(settings.BreakerFailures) //nolint:gosec // positive after withDefaults
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     settings.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		IsSuccessful: func(err error) bool {
			// Caller mistakes and permanent rejections say nothing about
			// provider health.
			return err == nil || !domain.IsTransient(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("%s circuit breaker: %s -> %s", name, from, to)
		},
	})

	return &Policy{name: name, settings: settings, breaker: breaker}
}

func withDefaults(s domain.RetrySettings) domain.RetrySettings {
	d := domain.DefaultAppSettings().Retry
	if s.MaxAttempts <= 0 {
		s.MaxAttempts = d.MaxAttempts
	}
	if s.InitialInterval <= 0 {
		s.InitialInterval = d.InitialInterval
	}
	if s.MaxInterval <= 0 {
		s.MaxInterval = d.MaxInterval
	}
	if s.BreakerFailures <= 0 {
		s.BreakerFailures = d.BreakerFailures
	}
	if s.BreakerCooldown <= 0 {
		s.BreakerCooldown = d.BreakerCooldown
	}
	return s
}

// Name returns the provider name the policy guards.
func (p *Policy) Name() string {
	return p.name
}

// State reports the breaker state: "closed", "half-open" or "open".
func (p *Policy) State() string {
	return p.breaker.State().String()
}

func (p *Policy) backOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.settings.InitialInterval
	b.MaxInterval = p.settings.MaxInterval
	return b
}

// do runs op under the policy. It is a package function because methods
// cannot take type parameters.
func do[T any](ctx context.Context, p *Policy, op func(context.Context) (T, error)) (T, error) {
	attempt := 0
	operation := func() (T, error) {
		attempt++
		out, err := p.breaker.Execute(func() (any, error) {
			return op(ctx)
		})
		if err != nil {
			var zero T
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				return zero, backoff.Permanent(fmt.Errorf("%s: %w", p.name, ErrCircuitOpen))
			}
			if ctx.Err() != nil || !domain.IsTransient(err) {
				return zero, backoff.Permanent(err)
			}
			return zero, err
		}
		return out.(T), nil
	}

	return backoff.Retry(ctx, operation,
		backoff.WithBackOff(p.backOff()),
		backoff.WithMaxTries(uint(p.settings.MaxAttempts)), //nolint:gosec // positive after withDefaults
		backoff.WithNotify(func(err error, wait time.Duration) {
			logger.Warn("%s attempt %d failed, retrying in %s: %v", p.name, attempt, wait.Round(time.Millisecond), err)
		}),
	)
}
