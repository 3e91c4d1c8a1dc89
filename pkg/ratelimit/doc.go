// Package ratelimit keeps xpurge under the API's abuse thresholds.
//
// Two mechanisms are provided:
//
// TokenBucket (Limiter):
//   - wraps golang.org/x/time/rate
//   - gates every HTTP request the API client sends
//   - configured in requests per minute with a burst size
//
// IntervalPacer (Pacer):
//   - a fixed sleep between consecutive delete/unlike actions
//   - 500ms by default, cancellable through the context
//
// Usage:
//
//	limiter := ratelimit.NewTokenBucket(60, 5)
//	if err := limiter.Wait(ctx); err != nil {
//	    return err
//	}
//
//	pacer := ratelimit.NewIntervalPacer(500 * time.Millisecond)
//	_ = pacer.Pause(ctx)
package ratelimit
