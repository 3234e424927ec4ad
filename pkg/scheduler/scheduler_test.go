package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"xhscollect/pkg/logger"
)

// fakeClock serves a controllable wall-clock time to the scheduler.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(value string) *fakeClock {
	t, err := time.Parse("2006-01-02 15:04", value)
	if err != nil {
		panic(err)
	}
	return &fakeClock{now: t}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(value string) {
	t, err := time.Parse("2006-01-02 15:04", value)
	if err != nil {
		panic(err)
	}
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

// startScheduler runs s in the background and returns a channel that closes
// when Run returns.
func startScheduler(t *testing.T, s *Scheduler, ctx context.Context) chan struct{} {
	t.Helper()
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := s.Run(ctx); err != nil {
			t.Errorf("scheduler run returned error: %v", err)
		}
	}()
	return done
}

func waitStopped(t *testing.T, done chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop in time")
	}
}

func TestSchedulerRejectsInvalidTime(t *testing.T) {
	job := func(context.Context) {}
	for _, at := range []string{"", "0300", "25:00", "12:61", "noon"} {
		if _, err := New(at, time.Minute, job, logger.NewNopLogger()); err == nil {
			t.Errorf("expected error for schedule time %q", at)
		}
	}
	if _, err := New("03:00", time.Minute, nil, logger.NewNopLogger()); err == nil {
		t.Error("expected error for nil job")
	}
}

func TestSchedulerNeverFiresOutsideTriggerMinute(t *testing.T) {
	clock := newFakeClock("2025-06-01 10:30")

	var fires int32
	s, err := New("03:00", time.Millisecond, func(context.Context) {
		atomic.AddInt32(&fires, 1)
	}, logger.NewNopLogger())
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}
	s.nowFn = clock.Now

	ctx, cancel := context.WithCancel(context.Background())
	done := startScheduler(t, s, ctx)

	time.Sleep(50 * time.Millisecond)
	cancel()
	waitStopped(t, done)

	if got := atomic.LoadInt32(&fires); got != 0 {
		t.Errorf("job fired %d times outside the trigger minute", got)
	}
}

func TestSchedulerFiresOncePerDay(t *testing.T) {
	clock := newFakeClock("2025-06-01 03:00")

	var fires int32
	s, err := New("03:00", time.Millisecond, func(context.Context) {
		atomic.AddInt32(&fires, 1)
	}, logger.NewNopLogger())
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}
	s.nowFn = clock.Now

	ctx, cancel := context.WithCancel(context.Background())
	done := startScheduler(t, s, ctx)

	// Many polls land inside the same trigger minute; only one may fire.
	time.Sleep(50 * time.Millisecond)
	if got := atomic.LoadInt32(&fires); got != 1 {
		t.Errorf("job fired %d times within one day, want 1", got)
	}

	// The next day's trigger fires again.
	clock.Set("2025-06-02 03:00")
	time.Sleep(50 * time.Millisecond)
	if got := atomic.LoadInt32(&fires); got != 2 {
		t.Errorf("job fired %d times across two days, want 2", got)
	}

	cancel()
	waitStopped(t, done)
}

func TestSchedulerDropsOverlappingTrigger(t *testing.T) {
	clock := newFakeClock("2025-06-01 03:00")

	started := make(chan struct{}, 2)
	release := make(chan struct{})
	var fires int32
	job := func(context.Context) {
		atomic.AddInt32(&fires, 1)
		started <- struct{}{}
		<-release
	}

	s, err := New("03:00", time.Millisecond, job, logger.NewNopLogger())
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}
	s.nowFn = clock.Now

	ctx, cancel := context.WithCancel(context.Background())
	done := startScheduler(t, s, ctx)

	// Day one fires and blocks.
	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("first trigger never fired")
	}

	// Day two's trigger arrives while the job is still running: dropped.
	clock.Set("2025-06-02 03:00")
	time.Sleep(50 * time.Millisecond)
	if got := atomic.LoadInt32(&fires); got != 1 {
		t.Fatalf("job fired %d times while still running, want 1", got)
	}

	// Once the job finishes, the still-matching trigger fires.
	close(release)
	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("trigger did not fire after the job finished")
	}
	if got := atomic.LoadInt32(&fires); got != 2 {
		t.Errorf("job fired %d times in total, want 2", got)
	}

	cancel()
	waitStopped(t, done)
}

func TestSchedulerContainsJobPanic(t *testing.T) {
	clock := newFakeClock("2025-06-01 03:00")

	var fires int32
	s, err := New("03:00", time.Millisecond, func(context.Context) {
		atomic.AddInt32(&fires, 1)
		panic("campaign exploded")
	}, logger.NewNopLogger())
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}
	s.nowFn = clock.Now

	ctx, cancel := context.WithCancel(context.Background())
	done := startScheduler(t, s, ctx)

	time.Sleep(50 * time.Millisecond)
	clock.Set("2025-06-02 03:00")
	time.Sleep(50 * time.Millisecond)

	// The panic is contained and the scheduler keeps triggering.
	if got := atomic.LoadInt32(&fires); got != 2 {
		t.Errorf("job fired %d times, want 2", got)
	}

	cancel()
	waitStopped(t, done)
}

func TestSchedulerStop(t *testing.T) {
	clock := newFakeClock("2025-06-01 10:00")

	s, err := New("03:00", time.Millisecond, func(context.Context) {}, logger.NewNopLogger())
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}
	s.nowFn = clock.Now

	done := startScheduler(t, s, context.Background())

	s.Stop()
	s.Stop() // idempotent
	waitStopped(t, done)
}

func TestSchedulerWaitsForJobOnShutdown(t *testing.T) {
	clock := newFakeClock("2025-06-01 03:00")

	finished := make(chan struct{})
	s, err := New("03:00", time.Millisecond, func(context.Context) {
		time.Sleep(30 * time.Millisecond)
		close(finished)
	}, logger.NewNopLogger())
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}
	s.nowFn = clock.Now

	ctx, cancel := context.WithCancel(context.Background())
	done := startScheduler(t, s, ctx)

	time.Sleep(10 * time.Millisecond) // job is now running
	cancel()
	waitStopped(t, done)

	// By the time Run returns the job must already have completed.
	select {
	case <-finished:
	default:
		t.Error("run returned before the job finished")
	}
}
