// Package scheduler triggers a job at a configured daily wall-clock time.
//
// The trigger is polled on a fixed interval rather than computed: once per
// poll the scheduler compares the current HH:MM against the configured
// time and fires at most once per calendar day. Trigger latency is bounded
// by the poll interval. A trigger that matches while the previous job is
// still running is dropped with a warning; jobs never overlap.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"xhscollect/pkg/logger"
)

// Job is a scheduled job body. It must honor the context and must not
// assume it runs more than once per day.
type Job func(ctx context.Context)

// Scheduler fires a Job once per day at a fixed HH:MM time.
type Scheduler struct {
	at   string
	poll time.Duration
	job  Job
	log  logger.Logger

	// nowFn is replaceable in tests.
	nowFn func() time.Time

	running  int32
	lastDay  string
	wg       sync.WaitGroup
	stop     chan struct{}
	stopOnce sync.Once
}

// New creates a scheduler that fires job every day at the given HH:MM time.
// poll bounds how often the clock is checked; values below one second are
// allowed for tests.
func New(at string, poll time.Duration, job Job, log logger.Logger) (*Scheduler, error) {
	if _, err := time.Parse("15:04", at); err != nil {
		return nil, fmt.Errorf("invalid schedule time %q: expected HH:MM", at)
	}
	if job == nil {
		return nil, fmt.Errorf("scheduled job must not be nil")
	}
	if poll <= 0 {
		poll = time.Minute
	}
	if log == nil {
		log = logger.GetLogger()
	}

	return &Scheduler{
		at:    at,
		poll:  poll,
		job:   job,
		log:   log,
		nowFn: time.Now,
		stop:  make(chan struct{}),
	}, nil
}

// Run polls the clock until the context is cancelled or Stop is called. It
// blocks, and only returns after any in-flight job has completed.
func (s *Scheduler) Run(ctx context.Context) error {
	s.log.InfoWithFields("Scheduler started", map[string]interface{}{
		"at":            s.at,
		"poll_interval": s.poll.String(),
	})

	ticker := time.NewTicker(s.poll)
	defer ticker.Stop()

	s.maybeFire(ctx)

	for {
		select {
		case <-ctx.Done():
			s.log.Info("Scheduler shutting down, waiting for running job")
			s.wg.Wait()
			return nil
		case <-s.stop:
			s.log.Info("Scheduler stopped, waiting for running job")
			s.wg.Wait()
			return nil
		case <-ticker.C:
			s.maybeFire(ctx)
		}
	}
}

// Stop asks Run to return. Safe to call more than once.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
}

// maybeFire launches the job when the current minute matches the trigger
// and the job has not already fired today. Only Run's goroutine calls this,
// so lastDay needs no locking; the running flag is shared with the job
// goroutine and is CAS-guarded.
func (s *Scheduler) maybeFire(ctx context.Context) {
	now := s.nowFn()
	if now.Format("15:04") != s.at {
		return
	}

	day := now.Format("2006-01-02")
	if day == s.lastDay {
		return
	}

	if !atomic.CompareAndSwapInt32(&s.running, 0, 1) {
		// Previous job overran into the next trigger. Drop this one;
		// lastDay stays unset so the trigger can still fire later
		// today once the job finishes.
		s.log.WarnWithFields("Trigger skipped, previous job still running", map[string]interface{}{
			"at":  s.at,
			"day": day,
		})
		return
	}

	s.lastDay = day
	s.log.InfoWithFields("Trigger fired", map[string]interface{}{
		"at":  s.at,
		"day": day,
	})

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer atomic.StoreInt32(&s.running, 0)
		defer func() {
			if r := recover(); r != nil {
				s.log.ErrorWithFields("Scheduled job panicked", map[string]interface{}{
					"panic": fmt.Sprintf("%v", r),
				})
			}
		}()

		start := s.nowFn()
		s.job(ctx)
		s.log.InfoWithFields("Scheduled job finished", map[string]interface{}{
			"duration": s.nowFn().Sub(start).String(),
		})
	}()
}
