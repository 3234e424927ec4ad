// Package ratelimit provides request pacing for the collector.
//
// Two mechanisms cover the two traffic shapes the collector produces:
//
// Gate:
//   - Blocks for a duration sampled uniformly from an inclusive range
//   - Applied between items, search pages, keywords, categories and users
//   - Keeps the sequential request stream irregular instead of metronomic
//
// Token Bucket:
//   - Fixed capacity bucket that refills after a specified period
//   - Shared by the concurrent media download workers
//
// Both blocking calls take a context and return early when it is cancelled.
//
// Usage:
//
//	gate := ratelimit.NewGate()
//
//	// Pause 3-8 seconds between keywords
//	err := gate.Wait(ctx, ratelimit.Range{Min: 3 * time.Second, Max: 8 * time.Second})
//
//	// Token bucket: 60 requests per minute across download workers
//	limiter := ratelimit.NewTokenBucket(60, time.Minute)
//	if err := limiter.Wait(ctx); err != nil {
//	    return err
//	}
package ratelimit
