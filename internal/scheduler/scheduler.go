// Package scheduler runs the periodic jobs of the pipeline: draining the
// event ledger, translating events into work items, and the daily ranking
// snapshot. Jobs are explicit named components with injected dependencies;
// the Scheduler owns one ticker per job.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"climbx.app/pipeline/common/logger"
)

// Job is one periodic unit of work. RunOnce must never panic the scheduler
// loop; errors are logged and the next tick proceeds.
type Job interface {
	Name() string
	Interval() time.Duration
	RunOnce(ctx context.Context) error
}

// Scheduler runs each registered job on its own ticker goroutine.
type Scheduler struct {
	jobs   []Job
	logger *slog.Logger

	stopCh    chan struct{}
	stoppedCh chan struct{}
}

func New(logger *slog.Logger, jobs ...Job) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		jobs:      jobs,
		logger:    logger,
		stopCh:    make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
}

// Run starts all job loops and blocks until Stop is called or the context
// is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	defer close(s.stoppedCh)

	doneCh := make(chan struct{})
	for _, job := range s.jobs {
		go s.runJob(ctx, job, doneCh)
	}

	s.logger.InfoContext(ctx, "scheduler started", "jobs", len(s.jobs))

	select {
	case <-ctx.Done():
	case <-s.stopCh:
	}

	for range s.jobs {
		<-doneCh
	}
	s.logger.InfoContext(ctx, "scheduler stopped")
}

// Stop signals the scheduler to stop and waits for all job loops to exit.
func (s *Scheduler) Stop() {
	close(s.stopCh)
	<-s.stoppedCh
}

// TriggerNow runs the named job once, outside its ticker. Used by the admin
// endpoints.
func (s *Scheduler) TriggerNow(ctx context.Context, name string) (bool, error) {
	for _, job := range s.jobs {
		if job.Name() == name {
			return true, s.runOnceSafe(ctx, job)
		}
	}
	return false, nil
}

func (s *Scheduler) runJob(ctx context.Context, job Job, doneCh chan<- struct{}) {
	defer func() { doneCh <- struct{}{} }()

	ctx = logger.WithLogFields(ctx, logger.LogFields{Job: job.Name()})

	ticker := time.NewTicker(job.Interval())
	defer ticker.Stop()

	s.logger.InfoContext(ctx, "job scheduled", "interval", job.Interval())

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
			if err := s.runOnceSafe(ctx, job); err != nil {
				s.logger.ErrorContext(ctx, "job run failed", "error", err)
			}
		}
	}
}

func (s *Scheduler) runOnceSafe(ctx context.Context, job Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	start := time.Now()
	err = job.RunOnce(ctx)
	s.logger.InfoContext(ctx, "job run finished", "duration", time.Since(start))
	return err
}
