// Package retry provides backoff and retry logic for transient API failures.
//
// xpurge keeps retry off by default: a failed fetch simply ends a run. When
// enabled in config, the API client wraps each request in Do so that network
// errors, HTTP 429 and 5xx responses are retried. A Retry-After hint carried
// by the error takes precedence over the backoff strategy.
//
//	cfg := &retry.Config{
//		MaxAttempts: 3,
//		Backoff:     retry.DefaultExponentialBackoff(),
//		RetryIf:     retry.DefaultRetryIf,
//		Logger:      logger.GetLogger(),
//	}
//	err := retry.Do(ctx, func(ctx context.Context) error {
//		return client.DeleteTweet(ctx, id)
//	}, cfg)
//
// Auth, not-found, parsing and credential errors are never retried.
package retry
