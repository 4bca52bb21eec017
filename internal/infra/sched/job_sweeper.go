package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"ai-document-translator/internal/domain/ports/adapter"
	"ai-document-translator/internal/infra/scheduler"
	"ai-document-translator/internal/usecase"
)

// JobCleaner is the slice of the job use case the sweeper needs.
type JobCleaner interface {
	CleanupOldJobs(ctx context.Context) (int64, error)
}

var _ JobCleaner = (usecase.JobUseCase)(nil)

// JobSweeper removes expired jobs, whatever their status.
type JobSweeper struct {
	jobs JobCleaner
	log  zerolog.Logger
}

func NewJobSweeper(jobs JobCleaner, logger *zerolog.Logger) *JobSweeper {
	return &JobSweeper{
		jobs: jobs,
		log:  logger.With().Str("component", "JobSweeper").Logger(),
	}
}

func (w *JobSweeper) Sweep(ctx context.Context) error {
	n, err := w.jobs.CleanupOldJobs(ctx)
	if err != nil {
		return err
	}
	w.log.Debug().Int64("deleted", n).Msg("job sweep done")
	return nil
}

// Schedule wraps the sweeper in a scheduler that holds locker for each run.
func (w *JobSweeper) Schedule(interval, retryDelay time.Duration, locker adapter.Locker, logger *zerolog.Logger) *scheduler.Scheduler {
	return scheduler.NewScheduler("job-sweeper", w.Sweep, scheduler.Options{
		Interval:   interval,
		RetryDelay: retryDelay,
		Locker:     locker,
		RunAtStart: true,
	}, logger)
}
