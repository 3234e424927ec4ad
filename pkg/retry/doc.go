// Package retry provides exponential backoff and retry logic for handling
// transient failures in network operations, particularly media downloads.
//
// Features:
//   - Exponential and constant backoff strategies
//   - Jitter to avoid thundering herd problems
//   - Context support for cancellation
//   - Configurable retry predicates
//   - Integration with the Xiaohongshu client error types
//
// Basic usage:
//
//	// Simple retry with defaults
//	err := retry.Do(func() error {
//		return fetchSomething()
//	}, nil)
//
//	// Custom configuration
//	cfg := &retry.Config{
//		MaxAttempts: 5,
//		Backoff: &retry.ExponentialBackoff{
//			BaseDelay:    2 * time.Second,
//			MaxDelay:     30 * time.Second,
//			Multiplier:   2.0,
//			JitterFactor: 0.1,
//		},
//		RetryIf: retry.DefaultRetryIf,
//		Logger:  logger.GetLogger(),
//	}
//	data, err := retry.DoWithResult(func() ([]byte, error) {
//		return client.DownloadMedia(ctx, url)
//	}, cfg)
//
// Error Type Handling:
//
// The default predicate retries network, rate limit and server errors and
// gives up immediately on auth, parsing and not-found errors. Cancelled
// contexts are never retried.
package retry
