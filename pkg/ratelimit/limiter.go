package ratelimit

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Limiter gates outgoing requests
type Limiter interface {
	// Wait blocks until a request may proceed or ctx is done
	Wait(ctx context.Context) error
}

// TokenBucket is a Limiter backed by golang.org/x/time/rate
type TokenBucket struct {
	limiter *rate.Limiter
}

// NewTokenBucket allows requestsPerMinute on average with bursts of up to burst requests
func NewTokenBucket(requestsPerMinute, burst int) *TokenBucket {
	if burst <= 0 {
		burst = 1
	}
	every := time.Minute / time.Duration(max(requestsPerMinute, 1))
	return &TokenBucket{limiter: rate.NewLimiter(rate.Every(every), burst)}
}

// Unlimited returns a TokenBucket that never blocks
func Unlimited() *TokenBucket {
	return &TokenBucket{limiter: rate.NewLimiter(rate.Inf, 1)}
}

// Wait blocks until a token is available
func (tb *TokenBucket) Wait(ctx context.Context) error {
	return tb.limiter.Wait(ctx)
}

// Pacer enforces a pause between consecutive actions
type Pacer interface {
	Pause(ctx context.Context) error
}

// IntervalPacer sleeps a fixed interval on every Pause
type IntervalPacer struct {
	Interval time.Duration
}

// NewIntervalPacer creates a pacer sleeping d between actions
func NewIntervalPacer(d time.Duration) *IntervalPacer {
	return &IntervalPacer{Interval: d}
}

// Pause sleeps for the interval or until ctx is cancelled
func (p *IntervalPacer) Pause(ctx context.Context) error {
	if p.Interval <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(p.Interval)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
