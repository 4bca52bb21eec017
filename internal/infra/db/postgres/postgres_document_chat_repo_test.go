//go:build integration

package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v4"

	"ai-document-translator/internal/domain"
	"ai-document-translator/internal/domain/model"
	"ai-document-translator/internal/domain/ports/repository"
)

func TestDocumentChatRepo_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode.")
	}

	repo := NewPostgresDocumentChatRepo(testPool)
	ctx := context.Background()
	file := &model.SourceFile{Name: "report.md", ContentType: "text/markdown", Data: []byte("# Report")}

	newChat := func(t *testing.T, user string) *model.DocumentTranslationChat {
		t.Helper()
		c, err := model.NewDocumentTranslationChat(user, file, 1, "Spanish")
		if err != nil {
			t.Fatalf("NewDocumentTranslationChat: %v", err)
		}
		if err := repo.Save(ctx, nil, c); err != nil {
			t.Fatalf("Save: %v", err)
		}
		return c
	}

	t.Run("should round-trip a chat with its result and messages", func(t *testing.T) {
		cleanup(t)
		c := newChat(t, "user-1")
		msg := model.NewChatMessage(c.ChatID, model.MessageUserRequest, "Translate report.md to Spanish")
		if err := repo.AddMessage(ctx, nil, &msg); err != nil {
			t.Fatalf("AddMessage: %v", err)
		}

		c.Status = model.JobStatusCompleted
		c.TranslationResult = &model.DocumentTranslationResult{Success: true, TranslatedContent: "# Informe"}
		c.Touch()
		if err := repo.Save(ctx, nil, c); err != nil {
			t.Fatalf("Save update: %v", err)
		}

		got, err := repo.FindByChatID(ctx, nil, c.ChatID)
		if err != nil {
			t.Fatalf("FindByChatID: %v", err)
		}
		if got.Status != model.JobStatusCompleted || got.TranslationResult == nil || got.TranslationResult.TranslatedContent != "# Informe" {
			t.Errorf("unexpected chat: %+v", got)
		}
		if len(got.Messages) != 1 || got.Messages[0].MessageType != model.MessageUserRequest {
			t.Errorf("messages = %+v", got.Messages)
		}
	})

	t.Run("should hide a message", func(t *testing.T) {
		cleanup(t)
		c := newChat(t, "user-1")
		msg := model.NewChatMessage(c.ChatID, model.MessageStatusUpdate, "updated")
		_ = repo.AddMessage(ctx, nil, &msg)
		if err := repo.SetMessageVisibility(ctx, nil, c.ChatID, msg.MessageID, false); err != nil {
			t.Fatal(err)
		}
		msgs, _ := repo.ListMessages(ctx, nil, c.ChatID)
		if len(msgs) != 1 || msgs[0].IsVisible {
			t.Errorf("messages = %+v", msgs)
		}
		if err := repo.SetMessageVisibility(ctx, nil, c.ChatID, "missing", false); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("should reject messages for unknown chats", func(t *testing.T) {
		cleanup(t)
		msg := model.NewChatMessage("missing", model.MessageErrorMessage, "x")
		if err := repo.AddMessage(ctx, nil, &msg); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("should filter, sort and page a user's chats", func(t *testing.T) {
		cleanup(t)
		for i := 0; i < 3; i++ {
			newChat(t, "user-1")
		}
		newChat(t, "user-2")

		list, total, err := repo.ListByUser(ctx, nil, model.ChatFilter{UserID: "user-1", PageSize: 2})
		if err != nil {
			t.Fatalf("ListByUser: %v", err)
		}
		if total != 3 || len(list) != 2 {
			t.Errorf("total=%d len=%d", total, len(list))
		}
		_, total, _ = repo.ListByUser(ctx, nil, model.ChatFilter{UserID: "user-1", FileType: "pdf"})
		if total != 0 {
			t.Errorf("file type filter total=%d", total)
		}
		list, _, _ = repo.ListByUser(ctx, nil, model.ChatFilter{UserID: "user-1", SortBy: "title; DROP TABLE languages", SortDirection: model.SortAsc})
		if len(list) != 3 {
			t.Errorf("unknown sort should fall back, got %d rows", len(list))
		}
	})

	t.Run("should delete chats with their messages", func(t *testing.T) {
		cleanup(t)
		c := newChat(t, "user-1")
		msg := model.NewChatMessage(c.ChatID, model.MessageUserRequest, "hi")
		_ = repo.AddMessage(ctx, nil, &msg)

		if err := repo.Delete(ctx, nil, c.ChatID); err != nil {
			t.Fatal(err)
		}
		if err := repo.Delete(ctx, nil, c.ChatID); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
		msgs, _ := repo.ListMessages(ctx, nil, c.ChatID)
		if len(msgs) != 0 {
			t.Errorf("messages not cascaded: %d", len(msgs))
		}
	})

	t.Run("should delete chats created before a cutoff", func(t *testing.T) {
		cleanup(t)
		old := newChat(t, "user-1")
		old.CreatedAt = time.Now().UTC().AddDate(0, 0, -100)
		if _, err := testPool.Exec(ctx, `UPDATE document_chats SET created_at=$2 WHERE chat_id=$1`, old.ChatID, old.CreatedAt); err != nil {
			t.Fatal(err)
		}
		newChat(t, "user-1")

		n, err := repo.DeleteCreatedBefore(ctx, nil, time.Now().UTC().AddDate(0, 0, -90))
		if err != nil || n != 1 {
			t.Fatalf("n=%d err=%v", n, err)
		}
	})

	t.Run("should work inside a transaction", func(t *testing.T) {
		cleanup(t)
		tm := NewTxManager(testPool)
		var id string
		err := tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
			c, _ := model.NewDocumentTranslationChat("user-1", file, 1, "Spanish")
			if err := repo.Save(ctx, tx, c); err != nil {
				return err
			}
			id = c.ChatID
			msg := model.NewChatMessage(c.ChatID, model.MessageUserRequest, "hi")
			return repo.AddMessage(ctx, tx, &msg)
		})
		if err != nil {
			t.Fatalf("WithTx: %v", err)
		}
		got, err := repo.FindByChatID(ctx, nil, id)
		if err != nil || len(got.Messages) != 1 {
			t.Fatalf("chat=%+v err=%v", got, err)
		}
	})
}
