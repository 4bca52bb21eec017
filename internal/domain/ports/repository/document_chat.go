package repository

import (
	"context"
	"time"

	"ai-document-translator/internal/domain/model"
)

type DocumentChatRepository interface {
	Save(ctx context.Context, qx any, chat *model.DocumentTranslationChat) error
	FindByChatID(ctx context.Context, qx any, chatID string) (*model.DocumentTranslationChat, error)
	ListByUser(ctx context.Context, qx any, filter model.ChatFilter) ([]model.ChatSummary, int, error)
	Delete(ctx context.Context, qx any, chatID string) error
	DeleteCreatedBefore(ctx context.Context, qx any, cutoff time.Time) (int64, error)

	AddMessage(ctx context.Context, qx any, msg *model.ChatMessage) error
	ListMessages(ctx context.Context, qx any, chatID string) ([]model.ChatMessage, error)
	SetMessageVisibility(ctx context.Context, qx any, chatID, messageID string, visible bool) error
}
