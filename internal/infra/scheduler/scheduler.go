package scheduler

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Job is one poll iteration. Its error has already been handled by the job itself.
type Job interface {
	RunIteration(ctx context.Context) error
}

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ParseSchedule accepts a standard 5-field cron spec or a descriptor such as "@every 10m".
func ParseSchedule(spec string) (cron.Schedule, error) {
	sched, err := parser.Parse(spec)
	if err != nil {
		return nil, fmt.Errorf("invalid poll schedule %q: %w", spec, err)
	}
	return sched, nil
}

// PollScheduler runs the job, then waits for the next tick of the schedule, forever.
// The wait is the deferred last step of every iteration, so it happens after failures too.
type PollScheduler struct {
	job      Job
	schedule cron.Schedule
	logger   *logrus.Entry
	now      func() time.Time

	cancel context.CancelFunc
	done   chan struct{}
	mu     sync.Mutex
}

func NewPollScheduler(job Job, schedule cron.Schedule, logger *logrus.Entry) *PollScheduler {
	return &PollScheduler{
		job:      job,
		schedule: schedule,
		logger:   logger,
		now:      time.Now,
	}
}

// Start launches the loop in its own goroutine. The first iteration runs immediately.
func (s *PollScheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.logger.Warn("Poll scheduler already started")
		return
	}

	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})

	s.logger.Info("Starting poll scheduler...")
	go func() {
		defer close(s.done)
		for ctx.Err() == nil && s.tick(ctx) {
		}
		s.logger.Info("Poll loop exited")
	}()
}

// tick runs one iteration and reports whether the loop should continue.
// The job escalates its own panics; the recover here only keeps the loop alive if one slips through.
func (s *PollScheduler) tick(ctx context.Context) (more bool) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.WithField("panic", r).Errorf("Poll iteration panicked\n%s", debug.Stack())
		}
		more = s.wait(ctx)
	}()

	_ = s.job.RunIteration(ctx)
	return
}

// wait blocks until the next scheduled run. It returns false when ctx is done.
func (s *PollScheduler) wait(ctx context.Context) bool {
	if ctx.Err() != nil {
		return false
	}
	now := s.now()
	next := s.schedule.Next(now)
	delay := next.Sub(now)
	if delay < 0 {
		delay = 0
	}
	s.logger.WithField("next_run", next.Format(time.RFC3339)).Debugf("Sleeping for %s", delay)

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return ctx.Err() == nil
	}
}

// Stop cancels the loop and waits for the running iteration to finish.
func (s *PollScheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.mu.Unlock()
	if cancel == nil {
		return
	}

	s.logger.Info("Stopping poll scheduler...")
	cancel()
	<-done
	s.logger.Info("Poll scheduler gracefully stopped.")
}
