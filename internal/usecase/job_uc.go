package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"ai-document-translator/internal/domain"
	"ai-document-translator/internal/domain/model"
	"ai-document-translator/internal/domain/ports/repository"
	"ai-document-translator/internal/infra/metrics"
)

var _ JobUseCase = (*jobUC)(nil)

// JobUseCase owns the Processing -> Completed | Failed lifecycle of
// translation jobs. Only it writes job state.
type JobUseCase interface {
	CreateJob(ctx context.Context, userID, fileType string, fileSizeBytes int64, m model.AIModel) (*model.TranslationJob, error)
	UpdateProgress(ctx context.Context, jobID string, progress int) error
	CompleteJob(ctx context.Context, jobID string, data []byte, fileName, contentType string, suggestions []model.TranslationSuggestion) error
	FailJob(ctx context.Context, jobID, message string) error
	// AttachChat links the job to the chat that reports on it.
	AttachChat(ctx context.Context, jobID, chatID string) error
	// GetJob reports found=false for unknown and expired jobs.
	GetJob(ctx context.Context, jobID string) (*model.TranslationJob, bool, error)
	CleanupOldJobs(ctx context.Context) (int64, error)
	UpdateReturnedSuggestionIDs(ctx context.Context, jobID string, ids []string) error
	GetUnreturnedSuggestions(ctx context.Context, jobID string) ([]model.TranslationSuggestion, error)
}

type jobUC struct {
	jobs repository.TranslationJobRepository
	tm   repository.TransactionManager
	ttl  time.Duration
	now  func() time.Time
	log  zerolog.Logger
}

func NewJobUseCase(jobs repository.TranslationJobRepository, tm repository.TransactionManager, ttl time.Duration, logger *zerolog.Logger) *jobUC {
	if ttl <= 0 {
		ttl = model.DefaultJobTTL
	}
	return &jobUC{
		jobs: jobs,
		tm:   tm,
		ttl:  ttl,
		now:  func() time.Time { return time.Now().UTC() },
		log:  logger.With().Str("component", "JobUC").Logger(),
	}
}

func (j *jobUC) CreateJob(ctx context.Context, userID, fileType string, fileSizeBytes int64, m model.AIModel) (*model.TranslationJob, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("create job: %w: user id is required", domain.ErrInvalidArgument)
	}
	job, err := model.NewTranslationJob(userID, fileType, fileSizeBytes, m, j.ttl)
	if err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}
	if err := j.jobs.Save(ctx, nil, job); err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}
	metrics.IncTranslationJob("created")
	j.log.Debug().Str("job_id", job.JobID).Str("file_type", fileType).Msg("job created")
	return job, nil
}

// UpdateProgress is a no-op for terminal jobs and for values below the
// stored progress; the storage statement enforces both.
func (j *jobUC) UpdateProgress(ctx context.Context, jobID string, progress int) error {
	err := j.jobs.UpdateProgress(ctx, nil, jobID, model.ClampProgress(progress))
	if errors.Is(err, domain.ErrJobTerminal) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("update progress: %w", err)
	}
	return nil
}

func (j *jobUC) CompleteJob(ctx context.Context, jobID string, data []byte, fileName, contentType string, suggestions []model.TranslationSuggestion) error {
	if suggestions == nil {
		suggestions = []model.TranslationSuggestion{}
	}
	done := j.now()
	err := j.jobs.Complete(ctx, nil, &model.TranslationJob{
		JobID:       jobID,
		Progress:    100,
		CompletedAt: &done,
		ResultData:  data,
		FileName:    fileName,
		ContentType: contentType,
		Suggestions: suggestions,
	})
	if err != nil {
		return fmt.Errorf("complete job: %w", err)
	}
	metrics.IncTranslationJob("completed")
	return nil
}

func (j *jobUC) FailJob(ctx context.Context, jobID, message string) error {
	if err := j.jobs.Fail(ctx, nil, jobID, model.TruncateJobError(message)); err != nil {
		return fmt.Errorf("fail job: %w", err)
	}
	status := "failed"
	if message == msgTranslationCancelled {
		status = "cancelled"
	}
	metrics.IncTranslationJob(status)
	return nil
}

func (j *jobUC) AttachChat(ctx context.Context, jobID, chatID string) error {
	if err := j.jobs.AttachChat(ctx, nil, jobID, chatID); err != nil {
		return fmt.Errorf("attach chat: %w", err)
	}
	return nil
}

func (j *jobUC) GetJob(ctx context.Context, jobID string) (*model.TranslationJob, bool, error) {
	job, err := j.jobs.FindByJobID(ctx, nil, jobID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get job: %w", err)
	}
	if job.IsExpired(j.now()) {
		return nil, false, nil
	}
	return job, true, nil
}

func (j *jobUC) CleanupOldJobs(ctx context.Context) (int64, error) {
	n, err := j.jobs.DeleteExpired(ctx, nil, j.now())
	if err != nil {
		return 0, fmt.Errorf("cleanup jobs: %w", err)
	}
	if n > 0 {
		metrics.AddJobsSwept(n)
		j.log.Info().Int64("deleted", n).Msg("expired jobs removed")
	}
	return n, nil
}

func (j *jobUC) UpdateReturnedSuggestionIDs(ctx context.Context, jobID string, ids []string) error {
	err := j.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		job, err := j.jobs.FindByJobID(ctx, tx, jobID)
		if err != nil {
			return err
		}
		return j.jobs.UpdateReturnedSuggestionIDs(ctx, tx, jobID, model.MergeIDs(job.ReturnedSuggestionIDs, ids))
	})
	if err != nil {
		return fmt.Errorf("update returned suggestions: %w", err)
	}
	return nil
}

func (j *jobUC) GetUnreturnedSuggestions(ctx context.Context, jobID string) ([]model.TranslationSuggestion, error) {
	job, found, err := j.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, domain.ErrNotFound
	}
	return job.UnreturnedSuggestions(), nil
}
