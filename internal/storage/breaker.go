package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker/v2"
)

// BreakerSettings tunes the circuit breaker placed in front of a remote backend.
type BreakerSettings struct {
	Name             string
	FailureThreshold uint32
	OpenTimeout      time.Duration
}

// Breaker stops calling a failing backend for a while so cart operations fail
// fast with ErrUnavailable instead of piling up on timeouts.
type Breaker struct {
	next Storage
	cb   *gobreaker.CircuitBreaker[string]
}

func NewBreaker(next Storage, s BreakerSettings) *Breaker {
	threshold := s.FailureThreshold
	if threshold == 0 {
		threshold = 5
	}
	timeout := s.OpenTimeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	cb := gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:    s.Name,
		Timeout: timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		// A missing key or a full quota is an answer, not an outage.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNotFound) || errors.Is(err, ErrQuotaExceeded)
		},
	})
	return &Breaker{next: next, cb: cb}
}

func (b *Breaker) Get(ctx context.Context, key string) (string, error) {
	return b.execute(func() (string, error) {
		return b.next.Get(ctx, key)
	})
}

func (b *Breaker) Set(ctx context.Context, key, value string) error {
	_, err := b.execute(func() (string, error) {
		return "", b.next.Set(ctx, key, value)
	})
	return err
}

func (b *Breaker) Delete(ctx context.Context, key string) error {
	_, err := b.execute(func() (string, error) {
		return "", b.next.Delete(ctx, key)
	})
	return err
}

// State reports the breaker state ("closed", "half-open", "open").
func (b *Breaker) State() string {
	return b.cb.State().String()
}

func (b *Breaker) execute(fn func() (string, error)) (string, error) {
	v, err := b.cb.Execute(fn)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return v, err
}
