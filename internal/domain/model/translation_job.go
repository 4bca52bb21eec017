package model

import (
	"time"

	"ai-document-translator/internal/domain"

	"github.com/google/uuid"
)

type JobStatus string

const (
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// DefaultJobTTL is how long a job row lives after creation, whatever its status.
const DefaultJobTTL = 2 * time.Hour

// MaxJobErrorLength bounds the stored failure message.
const MaxJobErrorLength = 500

func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// TranslationJob is one short-lived pipeline run. JobID is the external handle;
// ID is the storage key and never leaves the persistence layer.
type TranslationJob struct {
	ID                    int64
	JobID                 string
	UserID                string
	ChatID                string // set once the chat for this run exists
	Status                JobStatus
	Progress              int
	StartTime             time.Time
	CompletedAt           *time.Time
	ExpiresAt             time.Time
	ResultData            []byte
	FileName              string
	ContentType           string
	ErrorMessage          string
	FileType              string
	FileSizeKB            int64
	EstimatedTimeMinutes  int
	AIModel               AIModel
	Suggestions           []TranslationSuggestion
	ReturnedSuggestionIDs []string
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// NewTranslationJob builds a job that is already processing.
func NewTranslationJob(userID, fileType string, fileSizeBytes int64, model AIModel, ttl time.Duration) (*TranslationJob, error) {
	if fileType == "" {
		return nil, domain.ErrInvalidArgument
	}
	if fileSizeBytes < 0 {
		return nil, domain.ErrInvalidArgument
	}
	if ttl <= 0 {
		ttl = DefaultJobTTL
	}
	now := time.Now().UTC()
	sizeKB := fileSizeBytes / 1024
	return &TranslationJob{
		JobID:                 uuid.NewString(),
		UserID:                userID,
		Status:                JobStatusProcessing,
		Progress:              0,
		StartTime:             now,
		ExpiresAt:             now.Add(ttl),
		FileType:              fileType,
		FileSizeKB:            sizeKB,
		EstimatedTimeMinutes:  EstimateMinutes(sizeKB),
		AIModel:               model,
		Suggestions:           []TranslationSuggestion{},
		ReturnedSuggestionIDs: []string{},
		CreatedAt:             now,
		UpdatedAt:             now,
	}, nil
}

// EstimateMinutes gives a rough UI estimate: one minute per 100KB, at least one.
func EstimateMinutes(sizeKB int64) int {
	m := int(sizeKB/100) + 1
	if m > 60 {
		return 60
	}
	return m
}

// ClampProgress bounds a progress value to [0,100].
func ClampProgress(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// TruncateJobError shortens a failure message to MaxJobErrorLength.
func TruncateJobError(msg string) string {
	r := []rune(msg)
	if len(r) <= MaxJobErrorLength {
		return msg
	}
	return string(r[:MaxJobErrorLength-3]) + "..."
}

// IsExpired reports whether the job's expiry lies strictly before now.
func (j *TranslationJob) IsExpired(now time.Time) bool {
	return j.ExpiresAt.Before(now)
}

// UnreturnedSuggestions keeps generation order.
func (j *TranslationJob) UnreturnedSuggestions() []TranslationSuggestion {
	seen := make(map[string]struct{}, len(j.ReturnedSuggestionIDs))
	for _, id := range j.ReturnedSuggestionIDs {
		seen[id] = struct{}{}
	}
	out := make([]TranslationSuggestion, 0, len(j.Suggestions))
	for _, s := range j.Suggestions {
		if _, ok := seen[s.ID]; !ok {
			out = append(out, s)
		}
	}
	return out
}

// MergeIDs appends ids not already present, preserving order.
func MergeIDs(existing, add []string) []string {
	seen := make(map[string]struct{}, len(existing)+len(add))
	out := make([]string, 0, len(existing)+len(add))
	for _, id := range existing {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	for _, id := range add {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// JobView is what polling clients see.
type JobView struct {
	JobID                string     `json:"job_id"`
	Status               JobStatus  `json:"status"`
	Progress             int        `json:"progress"`
	StartTime            time.Time  `json:"start_time"`
	CompletedAt          *time.Time `json:"completed_at,omitempty"`
	ExpiresAt            time.Time  `json:"expires_at"`
	FileName             string     `json:"file_name,omitempty"`
	ContentType          string     `json:"content_type,omitempty"`
	ErrorMessage         string     `json:"error_message,omitempty"`
	FileType             string     `json:"file_type"`
	FileSizeKB           int64      `json:"file_size_kb"`
	EstimatedTimeMinutes int        `json:"estimated_time_minutes"`
	AIModel              AIModel    `json:"ai_model"`
	HasResult            bool       `json:"has_result"`
	SuggestionCount      int        `json:"suggestion_count"`
}

func (j *TranslationJob) View() JobView {
	return JobView{
		JobID:                j.JobID,
		Status:               j.Status,
		Progress:             j.Progress,
		StartTime:            j.StartTime,
		CompletedAt:          j.CompletedAt,
		ExpiresAt:            j.ExpiresAt,
		FileName:             j.FileName,
		ContentType:          j.ContentType,
		ErrorMessage:         j.ErrorMessage,
		FileType:             j.FileType,
		FileSizeKB:           j.FileSizeKB,
		EstimatedTimeMinutes: j.EstimatedTimeMinutes,
		AIModel:              j.AIModel,
		HasResult:            len(j.ResultData) > 0,
		SuggestionCount:      len(j.Suggestions),
	}
}
