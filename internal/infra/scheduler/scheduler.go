package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"ai-document-translator/internal/domain/ports/adapter"
)

// Task is one periodic unit of work.
type Task func(ctx context.Context) error

const (
	defaultInterval = time.Minute
	defaultTimeout  = 5 * time.Minute
)

// Options tunes a Scheduler. A nil Locker runs the task on every replica.
type Options struct {
	Interval   time.Duration
	RetryDelay time.Duration
	Timeout    time.Duration
	Locker     adapter.Locker
	LockTTL    time.Duration
	// RunAtStart fires the task once right after Start.
	RunAtStart bool
}

// Scheduler periodically runs a Task. After a failed run the next attempt
// comes after RetryDelay instead of Interval. Errors never stop the loop.
type Scheduler struct {
	name string
	task Task
	opts Options
	log  zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// NewScheduler constructs a scheduler named name. If interval <= 0 it
// defaults to 1 minute; a zero RetryDelay reuses the interval.
func NewScheduler(name string, task Task, opts Options, logger *zerolog.Logger) *Scheduler {
	if opts.Interval <= 0 {
		opts.Interval = defaultInterval
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = opts.Interval
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.LockTTL <= 0 {
		opts.LockTTL = opts.Timeout
	}
	return &Scheduler{
		name: name,
		task: task,
		opts: opts,
		log:  logger.With().Str("component", "Scheduler").Str("task", name).Logger(),
		done: make(chan struct{}),
	}
}

// Start begins the scheduler loop in a background goroutine.
// Calling Start multiple times has no effect.
func (s *Scheduler) Start(parentCtx context.Context) {
	if s.ctx != nil {
		return
	}
	ctx, cancel := context.WithCancel(parentCtx)
	s.ctx = ctx
	s.cancel = cancel

	go s.loop()
}

func (s *Scheduler) loop() {
	first := s.opts.Interval
	if s.opts.RunAtStart {
		first = 0
	}
	timer := time.NewTimer(first)
	defer func() {
		timer.Stop()
		close(s.done)
	}()

	s.log.Info().Dur("interval", s.opts.Interval).Msg("scheduler started")
	for {
		select {
		case <-s.ctx.Done():
			s.log.Info().Msg("scheduler stopping")
			return
		case <-timer.C:
			next := s.opts.Interval
			if err := s.RunOnce(s.ctx); err != nil {
				s.log.Error().Err(err).Dur("retry_in", s.opts.RetryDelay).Msg("scheduled task failed")
				next = s.opts.RetryDelay
			}
			timer.Reset(next)
		}
	}
}

// RunOnce runs the task under the lock and timeout. A lock held elsewhere is
// not an error.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	runCtx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	if s.opts.Locker != nil {
		key := "sched:" + s.name
		token, err := s.opts.Locker.TryLock(runCtx, key, s.opts.LockTTL)
		if errors.Is(err, adapter.ErrLockHeld) {
			s.log.Debug().Msg("another replica holds the lock; skipping")
			return nil
		}
		if err != nil {
			return err
		}
		defer func() {
			// runCtx may be done by now; release on a fresh context.
			uctx, ucancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer ucancel()
			if uerr := s.opts.Locker.Unlock(uctx, key, token); uerr != nil {
				s.log.Warn().Err(uerr).Msg("unlock failed")
			}
		}()
	}
	return s.task(runCtx)
}

// Stop cancels the scheduler and waits for the loop to finish. It is idempotent.
func (s *Scheduler) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	s.ctx = nil
	s.cancel = nil
	s.done = make(chan struct{})
	s.log.Info().Msg("scheduler stopped")
}
