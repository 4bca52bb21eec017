//go:build integration

package postgres

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v4"

	"ai-document-translator/internal/domain"
	"ai-document-translator/internal/domain/model"
	"ai-document-translator/internal/domain/ports/repository"
)

func TestTranslationJobRepo_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode.")
	}

	repo := NewPostgresTranslationJobRepo(testPool)
	ctx := context.Background()

	newJob := func(t *testing.T, ttl time.Duration) *model.TranslationJob {
		t.Helper()
		j, err := model.NewTranslationJob("user-1", ".pdf", 300*1024, model.ModelGPT4o, ttl)
		if err != nil {
			t.Fatalf("NewTranslationJob: %v", err)
		}
		if err := repo.Save(ctx, nil, j); err != nil {
			t.Fatalf("Save: %v", err)
		}
		return j
	}

	t.Run("should save and read back a job", func(t *testing.T) {
		cleanup(t)
		j := newJob(t, time.Hour)
		if j.ID == 0 {
			t.Fatal("expected storage id to be set")
		}
		got, err := repo.FindByJobID(ctx, nil, j.JobID)
		if err != nil {
			t.Fatalf("FindByJobID: %v", err)
		}
		if got.Status != model.JobStatusProcessing || got.FileType != ".pdf" || got.FileSizeKB != 300 {
			t.Errorf("unexpected job: %+v", got)
		}
		if got.Suggestions == nil || got.ReturnedSuggestionIDs == nil {
			t.Error("JSONB columns should decode to empty slices")
		}
		if _, err := repo.FindByJobID(ctx, nil, "missing"); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("should only move progress forward", func(t *testing.T) {
		cleanup(t)
		j := newJob(t, time.Hour)
		_ = repo.UpdateProgress(ctx, nil, j.JobID, 40)
		_ = repo.UpdateProgress(ctx, nil, j.JobID, 20)
		got, _ := repo.FindByJobID(ctx, nil, j.JobID)
		if got.Progress != 40 {
			t.Errorf("progress = %d, want 40", got.Progress)
		}
	})

	t.Run("should complete once and refuse later transitions", func(t *testing.T) {
		cleanup(t)
		j := newJob(t, time.Hour)
		j.ResultData = []byte("hola")
		j.FileName = "report_translated.md"
		j.ContentType = "text/markdown"
		j.Suggestions = []model.TranslationSuggestion{{ID: "s1", Title: "Tone"}}
		if err := repo.Complete(ctx, nil, j); err != nil {
			t.Fatalf("Complete: %v", err)
		}
		got, _ := repo.FindByJobID(ctx, nil, j.JobID)
		if got.Status != model.JobStatusCompleted || got.Progress != 100 || string(got.ResultData) != "hola" {
			t.Errorf("unexpected job: %+v", got)
		}
		if len(got.Suggestions) != 1 || got.Suggestions[0].ID != "s1" {
			t.Errorf("suggestions = %+v", got.Suggestions)
		}
		if err := repo.Fail(ctx, nil, j.JobID, "late"); !errors.Is(err, domain.ErrJobTerminal) {
			t.Errorf("expected ErrJobTerminal, got %v", err)
		}
		if err := repo.UpdateProgress(ctx, nil, j.JobID, 50); !errors.Is(err, domain.ErrJobTerminal) {
			t.Errorf("expected ErrJobTerminal, got %v", err)
		}
		if err := repo.Fail(ctx, nil, "missing", "x"); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("should fail without a completion time", func(t *testing.T) {
		cleanup(t)
		j := newJob(t, time.Hour)
		if err := repo.Fail(ctx, nil, j.JobID, "provider unavailable"); err != nil {
			t.Fatalf("Fail: %v", err)
		}
		got, _ := repo.FindByJobID(ctx, nil, j.JobID)
		if got.Status != model.JobStatusFailed || got.ErrorMessage != "provider unavailable" {
			t.Errorf("unexpected job: %+v", got)
		}
		if got.CompletedAt != nil {
			t.Errorf("completed_at = %v, want NULL", got.CompletedAt)
		}
	})

	t.Run("should serialize concurrent appends to returned ids", func(t *testing.T) {
		cleanup(t)
		j := newJob(t, time.Hour)
		tm := NewTxManager(testPool)

		const writers = 8
		var wg sync.WaitGroup
		errs := make(chan error, writers)
		for i := 0; i < writers; i++ {
			wg.Add(1)
			go func(id string) {
				defer wg.Done()
				errs <- tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
					cur, err := repo.FindByJobID(ctx, tx, j.JobID)
					if err != nil {
						return err
					}
					return repo.UpdateReturnedSuggestionIDs(ctx, tx, j.JobID, model.MergeIDs(cur.ReturnedSuggestionIDs, []string{id}))
				})
			}(fmt.Sprintf("s%d", i))
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			if err != nil {
				t.Fatalf("WithTx: %v", err)
			}
		}
		got, _ := repo.FindByJobID(ctx, nil, j.JobID)
		if len(got.ReturnedSuggestionIDs) != writers {
			t.Errorf("returned ids = %v, want %d entries", got.ReturnedSuggestionIDs, writers)
		}
	})

	t.Run("should record returned suggestion ids", func(t *testing.T) {
		cleanup(t)
		j := newJob(t, time.Hour)
		if err := repo.UpdateReturnedSuggestionIDs(ctx, nil, j.JobID, []string{"a", "b"}); err != nil {
			t.Fatal(err)
		}
		got, _ := repo.FindByJobID(ctx, nil, j.JobID)
		if len(got.ReturnedSuggestionIDs) != 2 || got.ReturnedSuggestionIDs[1] != "b" {
			t.Errorf("returned ids = %v", got.ReturnedSuggestionIDs)
		}
	})

	t.Run("should delete expired jobs only", func(t *testing.T) {
		cleanup(t)
		live := newJob(t, time.Hour)
		expired := newJob(t, time.Minute)

		n, err := repo.DeleteExpired(ctx, nil, time.Now().Add(10*time.Minute))
		if err != nil || n != 1 {
			t.Fatalf("n=%d err=%v", n, err)
		}
		if _, err := repo.FindByJobID(ctx, nil, expired.JobID); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("expired job still present: %v", err)
		}
		if _, err := repo.FindByJobID(ctx, nil, live.JobID); err != nil {
			t.Errorf("live job deleted: %v", err)
		}
	})

	t.Run("should keep a job whose expiry equals now", func(t *testing.T) {
		cleanup(t)
		j := newJob(t, time.Hour)
		stored, _ := repo.FindByJobID(ctx, nil, j.JobID)

		n, err := repo.DeleteExpired(ctx, nil, stored.ExpiresAt)
		if err != nil || n != 0 {
			t.Fatalf("n=%d err=%v", n, err)
		}
		n, err = repo.DeleteExpired(ctx, nil, stored.ExpiresAt.Add(time.Millisecond))
		if err != nil || n != 1 {
			t.Fatalf("n=%d err=%v", n, err)
		}
	})
}
