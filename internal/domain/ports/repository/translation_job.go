package repository

import (
	"context"
	"time"

	"ai-document-translator/internal/domain/model"
)

// TranslationJobRepository persists jobs. UpdateProgress, Complete and Fail
// only touch rows still in processing and report domain.ErrJobTerminal
// otherwise.
type TranslationJobRepository interface {
	Save(ctx context.Context, qx any, job *model.TranslationJob) error
	FindByJobID(ctx context.Context, qx any, jobID string) (*model.TranslationJob, error)
	UpdateProgress(ctx context.Context, qx any, jobID string, progress int) error
	Complete(ctx context.Context, qx any, job *model.TranslationJob) error
	Fail(ctx context.Context, qx any, jobID, message string) error
	AttachChat(ctx context.Context, qx any, jobID, chatID string) error
	UpdateReturnedSuggestionIDs(ctx context.Context, qx any, jobID string, ids []string) error
	DeleteExpired(ctx context.Context, qx any, now time.Time) (int64, error)
}
