// Package resilience wraps calls to remote dependencies in circuit breakers.
package resilience

import (
	"errors"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	pkgerrors "ontology-backend/pkg/errors"
)

// BreakerConfig holds configuration for a circuit breaker
type BreakerConfig struct {
	Name        string
	MaxRequests uint32
	Interval    time.Duration
	Timeout     time.Duration
	// FailureThreshold is the failure ratio that trips the breaker once
	// MinRequests have been seen in the current interval.
	FailureThreshold float64
	MinRequests      uint32
}

// DefaultBreakerConfig returns the default configuration for name.
func DefaultBreakerConfig(name string) BreakerConfig {
	return BreakerConfig{
		Name:             name,
		MaxRequests:      5,
		Interval:         30 * time.Second,
		Timeout:          60 * time.Second,
		FailureThreshold: 0.6,
		MinRequests:      5,
	}
}

// IsDependencyFailure reports whether err says the dependency is unhealthy.
// Domain outcomes such as NODE_NOT_FOUND or a validation error do not count.
func IsDependencyFailure(err error) bool {
	if err == nil {
		return false
	}
	appErr := pkgerrors.GetAppError(err)
	if appErr == nil {
		return true
	}
	switch appErr.Type {
	case pkgerrors.ErrorTypeDatabase, pkgerrors.ErrorTypeExternal,
		pkgerrors.ErrorTypeUnavailable, pkgerrors.ErrorTypeRateLimit, pkgerrors.ErrorTypeTimeout:
		return true
	}
	return false
}

// NewBreaker builds a gobreaker circuit breaker that logs state changes.
func NewBreaker(cfg BreakerConfig, logger *zap.Logger) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
		IsSuccessful: func(err error) bool {
			return !IsDependencyFailure(err)
		},
	})
}

// Translate maps breaker rejections to a 503 for service.
func Translate(service string, err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return pkgerrors.NewUnavailableError(service).WithCause(err)
	}
	return err
}

// Call runs fn through cb and returns its typed result.
func Call[T any](cb *gobreaker.CircuitBreaker, service string, fn func() (T, error)) (T, error) {
	out, err := cb.Execute(func() (interface{}, error) {
		return fn()
	})
	if err != nil {
		var zero T
		return zero, Translate(service, err)
	}
	return out.(T), nil
}
