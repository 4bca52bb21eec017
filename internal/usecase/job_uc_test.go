//go:build !integration

package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"ai-document-translator/internal/domain"
	"ai-document-translator/internal/domain/model"
)

func newJobs(t *testing.T) (*jobUC, *memJobRepo) {
	t.Helper()
	repo := newMemJobRepo()
	return NewJobUseCase(repo, &fakeTxManager{}, time.Hour, nopLogger()), repo
}

func TestJobUseCase_CreateJob(t *testing.T) {
	ctx := context.Background()

	t.Run("should create a processing job", func(t *testing.T) {
		uc, repo := newJobs(t)
		job, err := uc.CreateJob(ctx, "user-1", ".pdf", 250*1024, model.ModelGPT4o)
		if err != nil {
			t.Fatalf("CreateJob: %v", err)
		}
		stored := repo.get(job.JobID)
		if stored.Status != model.JobStatusProcessing || stored.Progress != 0 {
			t.Fatalf("unexpected stored job: %+v", stored)
		}
		if stored.FileSizeKB != 250 || stored.EstimatedTimeMinutes != 3 {
			t.Errorf("size %d KB, estimate %d", stored.FileSizeKB, stored.EstimatedTimeMinutes)
		}
		if d := stored.ExpiresAt.Sub(stored.StartTime); d != time.Hour {
			t.Errorf("ttl = %v", d)
		}
	})

	t.Run("should require a user id", func(t *testing.T) {
		uc, _ := newJobs(t)
		if _, err := uc.CreateJob(ctx, " ", ".pdf", 10, model.ModelGPT4o); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Fatalf("expected ErrInvalidArgument, got %v", err)
		}
	})
}

func TestJobUseCase_UpdateProgress(t *testing.T) {
	ctx := context.Background()
	uc, repo := newJobs(t)
	job, _ := uc.CreateJob(ctx, "user-1", ".txt", 10, model.ModelGPT4o)

	t.Run("should clamp values into range", func(t *testing.T) {
		if err := uc.UpdateProgress(ctx, job.JobID, 150); err != nil {
			t.Fatal(err)
		}
		if p := repo.get(job.JobID).Progress; p != 100 {
			t.Fatalf("progress = %d, want 100", p)
		}
	})

	t.Run("should never move backwards", func(t *testing.T) {
		other, _ := uc.CreateJob(ctx, "user-1", ".txt", 10, model.ModelGPT4o)
		_ = uc.UpdateProgress(ctx, other.JobID, 40)
		_ = uc.UpdateProgress(ctx, other.JobID, 20)
		_ = uc.UpdateProgress(ctx, other.JobID, -5)
		if p := repo.get(other.JobID).Progress; p != 40 {
			t.Fatalf("progress = %d, want 40", p)
		}
	})

	t.Run("should ignore updates to terminal jobs", func(t *testing.T) {
		done, _ := uc.CreateJob(ctx, "user-1", ".txt", 10, model.ModelGPT4o)
		if err := uc.FailJob(ctx, done.JobID, "boom"); err != nil {
			t.Fatal(err)
		}
		if err := uc.UpdateProgress(ctx, done.JobID, 50); err != nil {
			t.Fatalf("expected nil for terminal job, got %v", err)
		}
		if got := repo.get(done.JobID); got.Status != model.JobStatusFailed || got.Progress != 0 {
			t.Fatalf("terminal job changed: %+v", got)
		}
	})
}

func TestJobUseCase_Terminal(t *testing.T) {
	ctx := context.Background()

	t.Run("should complete with result and suggestions", func(t *testing.T) {
		uc, repo := newJobs(t)
		job, _ := uc.CreateJob(ctx, "user-1", ".txt", 10, model.ModelGPT4o)
		sugg := []model.TranslationSuggestion{{ID: "s1"}}
		if err := uc.CompleteJob(ctx, job.JobID, []byte("data"), "out.md", "text/markdown", sugg); err != nil {
			t.Fatal(err)
		}
		got := repo.get(job.JobID)
		if got.Status != model.JobStatusCompleted || got.Progress != 100 || got.CompletedAt == nil {
			t.Fatalf("unexpected job: %+v", got)
		}
		if string(got.ResultData) != "data" || got.FileName != "out.md" || len(got.Suggestions) != 1 {
			t.Fatalf("result not stored: %+v", got)
		}
	})

	t.Run("should reject completing a failed job", func(t *testing.T) {
		uc, _ := newJobs(t)
		job, _ := uc.CreateJob(ctx, "user-1", ".txt", 10, model.ModelGPT4o)
		_ = uc.FailJob(ctx, job.JobID, "boom")
		if err := uc.CompleteJob(ctx, job.JobID, nil, "", "", nil); !errors.Is(err, domain.ErrJobTerminal) {
			t.Fatalf("expected ErrJobTerminal, got %v", err)
		}
	})

	t.Run("should leave the completion time unset on failure", func(t *testing.T) {
		uc, repo := newJobs(t)
		job, _ := uc.CreateJob(ctx, "user-1", ".txt", 10, model.ModelGPT4o)
		if err := uc.FailJob(ctx, job.JobID, "boom"); err != nil {
			t.Fatal(err)
		}
		got := repo.get(job.JobID)
		if got.Status != model.JobStatusFailed || got.CompletedAt != nil {
			t.Fatalf("unexpected job: %+v", got)
		}
		if v := got.View(); v.CompletedAt != nil {
			t.Fatalf("view leaks a completion time: %+v", v)
		}
	})

	t.Run("should truncate long failure messages", func(t *testing.T) {
		uc, repo := newJobs(t)
		job, _ := uc.CreateJob(ctx, "user-1", ".txt", 10, model.ModelGPT4o)
		_ = uc.FailJob(ctx, job.JobID, strings.Repeat("x", 800))
		if n := len([]rune(repo.get(job.JobID).ErrorMessage)); n != model.MaxJobErrorLength {
			t.Fatalf("message length = %d", n)
		}
	})
}

func TestJobUseCase_GetJob(t *testing.T) {
	ctx := context.Background()
	uc, _ := newJobs(t)
	job, _ := uc.CreateJob(ctx, "user-1", ".txt", 10, model.ModelGPT4o)

	t.Run("should find a live job", func(t *testing.T) {
		got, found, err := uc.GetJob(ctx, job.JobID)
		if err != nil || !found || got.JobID != job.JobID {
			t.Fatalf("got %v %v %v", got, found, err)
		}
	})

	t.Run("should report unknown ids as not found", func(t *testing.T) {
		_, found, err := uc.GetJob(ctx, "missing")
		if err != nil || found {
			t.Fatalf("found=%v err=%v", found, err)
		}
	})

	t.Run("should keep a job visible at its exact expiry instant", func(t *testing.T) {
		stored, _ := uc.jobs.FindByJobID(ctx, nil, job.JobID)
		uc.now = func() time.Time { return stored.ExpiresAt }
		defer func() { uc.now = func() time.Time { return time.Now().UTC() } }()
		if _, found, err := uc.GetJob(ctx, job.JobID); err != nil || !found {
			t.Fatalf("found=%v err=%v", found, err)
		}
	})

	t.Run("should hide expired jobs", func(t *testing.T) {
		uc.now = func() time.Time { return time.Now().UTC().Add(2 * time.Hour) }
		defer func() { uc.now = func() time.Time { return time.Now().UTC() } }()
		_, found, err := uc.GetJob(ctx, job.JobID)
		if err != nil || found {
			t.Fatalf("found=%v err=%v", found, err)
		}
	})
}

func TestJobUseCase_CleanupOldJobs(t *testing.T) {
	ctx := context.Background()
	uc, repo := newJobs(t)
	fresh, _ := uc.CreateJob(ctx, "user-1", ".txt", 10, model.ModelGPT4o)
	stale, _ := uc.CreateJob(ctx, "user-1", ".txt", 10, model.ModelGPT4o)
	completedStale, _ := uc.CreateJob(ctx, "user-1", ".txt", 10, model.ModelGPT4o)
	_ = uc.CompleteJob(ctx, completedStale.JobID, []byte("x"), "a.md", "text/markdown", nil)

	for _, id := range []string{stale.JobID, completedStale.JobID} {
		repo.mu.Lock()
		repo.jobs[id].ExpiresAt = time.Now().UTC().Add(-time.Minute)
		repo.mu.Unlock()
	}

	t.Run("should delete only expired jobs whatever their status", func(t *testing.T) {
		n, err := uc.CleanupOldJobs(ctx)
		if err != nil || n != 2 {
			t.Fatalf("n=%d err=%v", n, err)
		}
		if _, found, _ := uc.GetJob(ctx, fresh.JobID); !found {
			t.Fatal("fresh job was removed")
		}
	})

	t.Run("should be idempotent", func(t *testing.T) {
		n, err := uc.CleanupOldJobs(ctx)
		if err != nil || n != 0 {
			t.Fatalf("n=%d err=%v", n, err)
		}
	})
}

func TestJobUseCase_Suggestions(t *testing.T) {
	ctx := context.Background()
	uc, _ := newJobs(t)
	job, _ := uc.CreateJob(ctx, "user-1", ".txt", 10, model.ModelGPT4o)
	sugg := []model.TranslationSuggestion{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	_ = uc.CompleteJob(ctx, job.JobID, []byte("x"), "a.md", "text/markdown", sugg)

	t.Run("should return suggestions not yet handed out", func(t *testing.T) {
		if err := uc.UpdateReturnedSuggestionIDs(ctx, job.JobID, []string{"a"}); err != nil {
			t.Fatal(err)
		}
		if err := uc.UpdateReturnedSuggestionIDs(ctx, job.JobID, []string{"c", "a"}); err != nil {
			t.Fatal(err)
		}
		got, err := uc.GetUnreturnedSuggestions(ctx, job.JobID)
		if err != nil || len(got) != 1 || got[0].ID != "b" {
			t.Fatalf("got %+v err %v", got, err)
		}
	})

	t.Run("should report unknown jobs", func(t *testing.T) {
		if _, err := uc.GetUnreturnedSuggestions(ctx, "missing"); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}
