package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"ai-document-translator/internal/domain/ports/adapter"
	"ai-document-translator/internal/infra/scheduler"
	"ai-document-translator/internal/usecase"
)

type ChatCleaner interface {
	CleanupOldChats(ctx context.Context, daysOld int) (int64, error)
}

var _ ChatCleaner = (usecase.DocumentChatUseCase)(nil)

// ChatRetention deletes chats older than the retention window.
type ChatRetention struct {
	chats ChatCleaner
	days  int
	log   zerolog.Logger
}

func NewChatRetention(chats ChatCleaner, retentionDays int, logger *zerolog.Logger) *ChatRetention {
	return &ChatRetention{
		chats: chats,
		days:  retentionDays,
		log:   logger.With().Str("component", "ChatRetention").Logger(),
	}
}

func (w *ChatRetention) Sweep(ctx context.Context) error {
	n, err := w.chats.CleanupOldChats(ctx, w.days)
	if err != nil {
		return err
	}
	w.log.Debug().Int64("deleted", n).Msg("chat retention sweep done")
	return nil
}

func (w *ChatRetention) Schedule(interval time.Duration, locker adapter.Locker, logger *zerolog.Logger) *scheduler.Scheduler {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	return scheduler.NewScheduler("chat-retention", w.Sweep, scheduler.Options{
		Interval: interval,
		Locker:   locker,
	}, logger)
}
