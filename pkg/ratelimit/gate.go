package ratelimit

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// Range is an inclusive delay interval.
type Range struct {
	Min time.Duration
	Max time.Duration
}

// Gate paces requests by blocking for a duration sampled uniformly from a
// Range. Randomized delays keep the request pattern irregular, which is what
// the remote service tolerates best. A Gate serializes nothing on its own;
// callers that need ordering already run sequentially.
type Gate struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewGate creates a Gate seeded from the current time.
func NewGate() *Gate {
	return NewGateWithSeed(time.Now().UnixNano())
}

// NewGateWithSeed creates a Gate with a fixed seed, for reproducible tests.
func NewGateWithSeed(seed int64) *Gate {
	return &Gate{
		rng: rand.New(rand.NewSource(seed)),
	}
}

// Wait blocks for a duration sampled uniformly from r, or until the context
// is cancelled, in which case it returns the context error immediately.
func (g *Gate) Wait(ctx context.Context, r Range) error {
	d := g.delay(r)
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// delay samples a duration in [r.Min, r.Max]. Degenerate ranges collapse to
// their minimum.
func (g *Gate) delay(r Range) time.Duration {
	if r.Min < 0 {
		r.Min = 0
	}
	if r.Max <= r.Min {
		return r.Min
	}

	g.mu.Lock()
	n := g.rng.Int63n(int64(r.Max-r.Min) + 1)
	g.mu.Unlock()

	return r.Min + time.Duration(n)
}
