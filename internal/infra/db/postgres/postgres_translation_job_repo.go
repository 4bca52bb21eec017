package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"ai-document-translator/internal/domain"
	"ai-document-translator/internal/domain/model"
	"ai-document-translator/internal/domain/ports/repository"
)

var _ repository.TranslationJobRepository = (*PostgresTranslationJobRepo)(nil)

type PostgresTranslationJobRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresTranslationJobRepo(pool *pgxpool.Pool) *PostgresTranslationJobRepo {
	return &PostgresTranslationJobRepo{pool: pool}
}

const jobColumns = `
id, job_id, user_id, status, progress, start_time, completed_at, expires_at,
result_data, file_name, content_type, error_message, file_type, file_size_kb,
estimated_time_minutes, ai_model, suggestions, returned_suggestion_ids,
created_at, updated_at, chat_id`

func (r *PostgresTranslationJobRepo) Save(ctx context.Context, qx any, j *model.TranslationJob) error {
	suggestions, err := json.Marshal(nonNilSuggestions(j.Suggestions))
	if err != nil {
		return fmt.Errorf("marshal suggestions: %w", err)
	}
	returned, err := json.Marshal(nonNilStrings(j.ReturnedSuggestionIDs))
	if err != nil {
		return fmt.Errorf("marshal returned ids: %w", err)
	}

	const q = `
INSERT INTO translation_jobs (
  job_id, user_id, status, progress, start_time, completed_at, expires_at,
  result_data, file_name, content_type, error_message, file_type, file_size_kb,
  estimated_time_minutes, ai_model, suggestions, returned_suggestion_ids,
  created_at, updated_at, chat_id
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20)
ON CONFLICT (job_id) DO UPDATE SET
  status=$3, progress=$4, completed_at=$6, result_data=$8, file_name=$9,
  content_type=$10, error_message=$11, suggestions=$16,
  returned_suggestion_ids=$17, updated_at=$19, chat_id=$20
RETURNING id;
`
	row := pickRow(ctx, r.pool, qx, q,
		j.JobID, j.UserID, j.Status, j.Progress, j.StartTime, j.CompletedAt, j.ExpiresAt,
		j.ResultData, j.FileName, j.ContentType, j.ErrorMessage, j.FileType, j.FileSizeKB,
		j.EstimatedTimeMinutes, j.AIModel, suggestions, returned,
		j.CreatedAt, j.UpdatedAt, j.ChatID,
	)
	if err := row.Scan(&j.ID); err != nil {
		return fmt.Errorf("save job: %w", err)
	}
	return nil
}

// FindByJobID locks the row when called inside a transaction.
func (r *PostgresTranslationJobRepo) FindByJobID(ctx context.Context, qx any, jobID string) (*model.TranslationJob, error) {
	q := `SELECT ` + jobColumns + ` FROM translation_jobs WHERE job_id=$1`
	if _, ok := qx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	row := pickRow(ctx, r.pool, qx, q, jobID)

	var (
		j           model.TranslationJob
		suggestions []byte
		returned    []byte
	)
	if err := row.Scan(
		&j.ID, &j.JobID, &j.UserID, &j.Status, &j.Progress, &j.StartTime, &j.CompletedAt, &j.ExpiresAt,
		&j.ResultData, &j.FileName, &j.ContentType, &j.ErrorMessage, &j.FileType, &j.FileSizeKB,
		&j.EstimatedTimeMinutes, &j.AIModel, &suggestions, &returned,
		&j.CreatedAt, &j.UpdatedAt, &j.ChatID,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("find job: %w", err)
	}
	if err := unmarshalJSONB(suggestions, &j.Suggestions); err != nil {
		return nil, fmt.Errorf("%w: suggestions: %v", domain.ErrReadDatabaseRow, err)
	}
	if err := unmarshalJSONB(returned, &j.ReturnedSuggestionIDs); err != nil {
		return nil, fmt.Errorf("%w: returned ids: %v", domain.ErrReadDatabaseRow, err)
	}
	j.Suggestions = nonNilSuggestions(j.Suggestions)
	j.ReturnedSuggestionIDs = nonNilStrings(j.ReturnedSuggestionIDs)
	return &j, nil
}

// UpdateProgress never moves progress backwards.
func (r *PostgresTranslationJobRepo) UpdateProgress(ctx context.Context, qx any, jobID string, progress int) error {
	const q = `
UPDATE translation_jobs
   SET progress = GREATEST(progress, $2), updated_at = NOW()
 WHERE job_id = $1 AND status = 'processing';
`
	ct, err := execSQL(ctx, r.pool, qx, q, jobID, model.ClampProgress(progress))
	if err != nil {
		return fmt.Errorf("update job progress: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return r.missOrTerminal(ctx, qx, jobID)
	}
	return nil
}

func (r *PostgresTranslationJobRepo) Complete(ctx context.Context, qx any, j *model.TranslationJob) error {
	suggestions, err := json.Marshal(nonNilSuggestions(j.Suggestions))
	if err != nil {
		return fmt.Errorf("marshal suggestions: %w", err)
	}
	const q = `
UPDATE translation_jobs
   SET status = 'completed', progress = 100, completed_at = $2,
       result_data = $3, file_name = $4, content_type = $5,
       suggestions = $6, updated_at = NOW()
 WHERE job_id = $1 AND status = 'processing';
`
	completedAt := time.Now().UTC()
	if j.CompletedAt != nil {
		completedAt = *j.CompletedAt
	}
	ct, err := execSQL(ctx, r.pool, qx, q, j.JobID, completedAt, j.ResultData, j.FileName, j.ContentType, suggestions)
	if err != nil {
		return fmt.Errorf("complete job: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return r.missOrTerminal(ctx, qx, j.JobID)
	}
	return nil
}

func (r *PostgresTranslationJobRepo) Fail(ctx context.Context, qx any, jobID, message string) error {
	const q = `
UPDATE translation_jobs
   SET status = 'failed', error_message = $2, updated_at = NOW()
 WHERE job_id = $1 AND status = 'processing';
`
	ct, err := execSQL(ctx, r.pool, qx, q, jobID, model.TruncateJobError(message))
	if err != nil {
		return fmt.Errorf("fail job: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return r.missOrTerminal(ctx, qx, jobID)
	}
	return nil
}

func (r *PostgresTranslationJobRepo) AttachChat(ctx context.Context, qx any, jobID, chatID string) error {
	ct, err := execSQL(ctx, r.pool, qx,
		`UPDATE translation_jobs SET chat_id=$2, updated_at=NOW() WHERE job_id=$1;`,
		jobID, chatID)
	if err != nil {
		return fmt.Errorf("attach chat: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *PostgresTranslationJobRepo) UpdateReturnedSuggestionIDs(ctx context.Context, qx any, jobID string, ids []string) error {
	b, err := json.Marshal(nonNilStrings(ids))
	if err != nil {
		return fmt.Errorf("marshal returned ids: %w", err)
	}
	ct, err := execSQL(ctx, r.pool, qx,
		`UPDATE translation_jobs SET returned_suggestion_ids=$2, updated_at=NOW() WHERE job_id=$1;`,
		jobID, b)
	if err != nil {
		return fmt.Errorf("update returned ids: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *PostgresTranslationJobRepo) DeleteExpired(ctx context.Context, qx any, now time.Time) (int64, error) {
	ct, err := execSQL(ctx, r.pool, qx, `DELETE FROM translation_jobs WHERE expires_at < $1;`, now)
	if err != nil {
		return 0, fmt.Errorf("delete expired jobs: %w", err)
	}
	return ct.RowsAffected(), nil
}

// missOrTerminal explains a guarded update that matched nothing.
func (r *PostgresTranslationJobRepo) missOrTerminal(ctx context.Context, qx any, jobID string) error {
	var status model.JobStatus
	err := pickRow(ctx, r.pool, qx, `SELECT status FROM translation_jobs WHERE job_id=$1;`, jobID).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("read job status: %w", err)
	}
	return domain.ErrJobTerminal
}

func unmarshalJSONB(b []byte, dest any) error {
	if len(b) == 0 {
		return nil
	}
	return json.Unmarshal(b, dest)
}

func nonNilSuggestions(s []model.TranslationSuggestion) []model.TranslationSuggestion {
	if s == nil {
		return []model.TranslationSuggestion{}
	}
	return s
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
