package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestGateDelayWithinBounds(t *testing.T) {
	gate := NewGateWithSeed(42)
	r := Range{Min: 10 * time.Millisecond, Max: 30 * time.Millisecond}

	for i := 0; i < 1000; i++ {
		d := gate.delay(r)
		if d < r.Min || d > r.Max {
			t.Fatalf("sample %d: delay %v outside [%v, %v]", i, d, r.Min, r.Max)
		}
	}
}

func TestGateDelayDegenerateRanges(t *testing.T) {
	gate := NewGateWithSeed(1)

	// Min == Max collapses to a fixed delay.
	fixed := Range{Min: 5 * time.Millisecond, Max: 5 * time.Millisecond}
	if d := gate.delay(fixed); d != 5*time.Millisecond {
		t.Errorf("fixed range delay = %v, want 5ms", d)
	}

	// Max below Min collapses to Min.
	inverted := Range{Min: 7 * time.Millisecond, Max: 2 * time.Millisecond}
	if d := gate.delay(inverted); d != 7*time.Millisecond {
		t.Errorf("inverted range delay = %v, want 7ms", d)
	}

	// Negative Min is clamped to zero.
	negative := Range{Min: -time.Second, Max: -time.Second}
	if d := gate.delay(negative); d != 0 {
		t.Errorf("negative range delay = %v, want 0", d)
	}
}

func TestGateWaitBlocks(t *testing.T) {
	gate := NewGateWithSeed(7)
	r := Range{Min: 50 * time.Millisecond, Max: 80 * time.Millisecond}

	start := time.Now()
	if err := gate.Wait(context.Background(), r); err != nil {
		t.Fatalf("Wait failed: %v", err)
	}
	elapsed := time.Since(start)

	if elapsed < r.Min {
		t.Errorf("Wait returned after %v, before the %v minimum", elapsed, r.Min)
	}
	// Generous upper bound to absorb scheduler jitter.
	if elapsed > r.Max+200*time.Millisecond {
		t.Errorf("Wait returned after %v, well past the %v maximum", elapsed, r.Max)
	}
}

func TestGateWaitCancelled(t *testing.T) {
	gate := NewGateWithSeed(7)
	r := Range{Min: time.Hour, Max: 2 * time.Hour}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	err := gate.Wait(ctx, r)
	if err != context.Canceled {
		t.Errorf("Wait error = %v, want context.Canceled", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("cancelled Wait took %v, expected prompt return", elapsed)
	}
}

func TestGateZeroRangeReturnsImmediately(t *testing.T) {
	gate := NewGateWithSeed(3)

	start := time.Now()
	if err := gate.Wait(context.Background(), Range{}); err != nil {
		t.Fatalf("Wait failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 50*time.Millisecond {
		t.Errorf("zero range Wait took %v, expected immediate return", elapsed)
	}
}
