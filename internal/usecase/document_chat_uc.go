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
	"ai-document-translator/internal/domain/ports/adapter"
	"ai-document-translator/internal/domain/ports/repository"
	"ai-document-translator/internal/infra/metrics"
)

var _ DocumentChatUseCase = (*documentChatUC)(nil)

// DocumentChatUseCase keeps the long-lived session around one uploaded
// document: its messages, current result and suggestion history.
type DocumentChatUseCase interface {
	StartChat(ctx context.Context, userID string, file *model.SourceFile, languageID int, languageName, initialMessage string) (*model.DocumentTranslationChat, error)
	AddTranslationResult(ctx context.Context, chatID, jobID string, result *model.DocumentTranslationResult) error
	AddErrorMessage(ctx context.Context, chatID, message string) error
	GetChat(ctx context.Context, chatID string) (*model.DocumentTranslationChat, error)
	GetUserChats(ctx context.Context, filter model.ChatFilter) (*model.ChatPage, error)
	DeleteChat(ctx context.Context, chatID string) error
	CleanupOldChats(ctx context.Context, daysOld int) (int64, error)
	GetChatFile(ctx context.Context, chatID string, format model.OutputFormat) (*model.ChatFile, error)
	UpdateChatContent(ctx context.Context, chatID, content string) error
	HideMessage(ctx context.Context, chatID, messageID string) error

	// ReplaceSuggestions stores a fresh suggestion round on the result.
	ReplaceSuggestions(ctx context.Context, chatID string, suggestions []model.TranslationSuggestion) error
	// RecordAppliedSuggestion updates the content, moves s into the applied
	// history and appends a SuggestionApplied message.
	RecordAppliedSuggestion(ctx context.Context, chatID string, s model.TranslationSuggestion, updated, description string, next []model.TranslationSuggestion) error
}

const DefaultChatRetentionDays = 90

type documentChatUC struct {
	chats  repository.DocumentChatRepository
	tm     repository.TransactionManager
	render adapter.ProcessorFactory
	now    func() time.Time
	log    zerolog.Logger
}

func NewDocumentChatUseCase(chats repository.DocumentChatRepository, tm repository.TransactionManager, render adapter.ProcessorFactory, logger *zerolog.Logger) *documentChatUC {
	return &documentChatUC{
		chats:  chats,
		tm:     tm,
		render: render,
		now:    func() time.Time { return time.Now().UTC() },
		log:    logger.With().Str("component", "DocumentChatUC").Logger(),
	}
}

// GenerateChatTitle names a chat after its document and target language.
func GenerateChatTitle(fileName, languageName string) string {
	if strings.TrimSpace(languageName) == "" {
		languageName = model.UnknownLanguageName
	}
	src := &model.SourceFile{Name: strings.TrimSpace(fileName)}
	base := strings.TrimSpace(src.BaseName())
	if base == "" || base == "." {
		return "Document Translation to " + languageName
	}
	return fmt.Sprintf("Translate %s to %s", base, languageName)
}

func (c *documentChatUC) StartChat(ctx context.Context, userID string, file *model.SourceFile, languageID int, languageName, initialMessage string) (*model.DocumentTranslationChat, error) {
	chat, err := model.NewDocumentTranslationChat(userID, file, languageID, languageName)
	if err != nil {
		return nil, fmt.Errorf("start chat: %w", err)
	}
	chat.Title = GenerateChatTitle(file.Name, chat.TargetLanguageName)

	err = c.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		if err := c.chats.Save(ctx, tx, chat); err != nil {
			return err
		}
		if strings.TrimSpace(initialMessage) == "" {
			return nil
		}
		msg := model.NewChatMessage(chat.ChatID, model.MessageUserRequest, initialMessage)
		if err := c.chats.AddMessage(ctx, tx, &msg); err != nil {
			return err
		}
		chat.Messages = append(chat.Messages, msg)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("start chat: %w", err)
	}
	return chat, nil
}

func (c *documentChatUC) AddTranslationResult(ctx context.Context, chatID, jobID string, result *model.DocumentTranslationResult) error {
	if result == nil {
		return fmt.Errorf("add translation result: %w", domain.ErrInvalidArgument)
	}
	return c.mutate(ctx, "add translation result", chatID, func(chat *model.DocumentTranslationChat) (*model.ChatMessage, error) {
		chat.Status = model.JobStatusCompleted
		chat.ErrorMessage = ""
		chat.TranslationResult = result

		msg := model.NewChatMessage(chat.ChatID, model.MessageTranslationResult, resultSummary(result))
		msg.TranslationJobID = jobID
		msg.AIModel = result.AIModel
		msg.ProcessingCost = result.Cost
		msg.ProcessingTimeSeconds = result.ProcessingTime.Seconds()
		msg.Metadata = &model.MessageMetadata{
			TranslatedContent: result.TranslatedContent,
			Suggestions:       result.Suggestions,
			FileInfo: &model.FileProcessingInfo{
				Method:           result.Method,
				PageCount:        result.PageCount,
				OutputFormat:     result.OutputFormat,
				ProcessingTimeMs: result.ProcessingTime.Milliseconds(),
				QualityScore:     result.TranslationQualityScore,
			},
			Stats: &model.TranslationStats{
				WordCount:       result.WordCount,
				ChunkCount:      result.ChunkCount,
				SuggestionCount: len(result.Suggestions),
			},
		}
		return &msg, nil
	})
}

func resultSummary(r *model.DocumentTranslationResult) string {
	s := fmt.Sprintf("Translation completed: %d words in %d chunks, quality %.2f.", r.WordCount, r.ChunkCount, r.TranslationQualityScore)
	if len(r.QualityWarnings) > 0 {
		s += " " + strings.Join(r.QualityWarnings, " ")
	}
	return s
}

func (c *documentChatUC) AddErrorMessage(ctx context.Context, chatID, message string) error {
	return c.mutate(ctx, "add error message", chatID, func(chat *model.DocumentTranslationChat) (*model.ChatMessage, error) {
		chat.Status = model.JobStatusFailed
		chat.ErrorMessage = model.TruncateJobError(message)
		msg := model.NewChatMessage(chat.ChatID, model.MessageErrorMessage, message)
		msg.Metadata = &model.MessageMetadata{ErrorDetails: message}
		return &msg, nil
	})
}

func (c *documentChatUC) GetChat(ctx context.Context, chatID string) (*model.DocumentTranslationChat, error) {
	chat, err := c.chats.FindByChatID(ctx, nil, chatID)
	if err != nil {
		return nil, fmt.Errorf("get chat: %w", err)
	}
	msgs, err := c.chats.ListMessages(ctx, nil, chatID)
	if err != nil {
		return nil, fmt.Errorf("get chat messages: %w", err)
	}
	chat.Messages = msgs
	chat.Messages = chat.VisibleMessages()
	return chat, nil
}

func (c *documentChatUC) GetUserChats(ctx context.Context, filter model.ChatFilter) (*model.ChatPage, error) {
	if strings.TrimSpace(filter.UserID) == "" {
		return nil, fmt.Errorf("list chats: %w: user id is required", domain.ErrInvalidArgument)
	}
	filter.Normalize()
	items, total, err := c.chats.ListByUser(ctx, nil, filter)
	if err != nil {
		return nil, fmt.Errorf("list chats: %w", err)
	}
	if items == nil {
		items = []model.ChatSummary{}
	}
	return &model.ChatPage{
		Chats:       items,
		TotalCount:  total,
		Page:        filter.Page,
		PageSize:    filter.PageSize,
		HasNextPage: filter.Page*filter.PageSize < total,
	}, nil
}

func (c *documentChatUC) DeleteChat(ctx context.Context, chatID string) error {
	if err := c.chats.Delete(ctx, nil, chatID); err != nil {
		return fmt.Errorf("delete chat: %w", err)
	}
	return nil
}

func (c *documentChatUC) CleanupOldChats(ctx context.Context, daysOld int) (int64, error) {
	if daysOld <= 0 {
		daysOld = DefaultChatRetentionDays
	}
	cutoff := c.now().AddDate(0, 0, -daysOld)
	n, err := c.chats.DeleteCreatedBefore(ctx, nil, cutoff)
	if err != nil {
		return 0, fmt.Errorf("cleanup chats: %w", err)
	}
	if n > 0 {
		metrics.AddChatsSwept(n)
		c.log.Info().Int64("deleted", n).Int("days_old", daysOld).Msg("old chats removed")
	}
	return n, nil
}

// GetChatFile renders the current result. An empty format keeps the format
// the translation was requested in.
func (c *documentChatUC) GetChatFile(ctx context.Context, chatID string, format model.OutputFormat) (*model.ChatFile, error) {
	chat, err := c.chats.FindByChatID(ctx, nil, chatID)
	if err != nil {
		return nil, fmt.Errorf("get chat file: %w", err)
	}
	r := chat.TranslationResult
	if r == nil || !r.Success || r.TranslatedContent == "" {
		return nil, domain.ErrNoResult
	}
	if format == "" {
		format = r.OutputFormat
	}
	f, err := c.render.Render(r.TranslatedContent, format, &model.SourceFile{Name: chat.OriginalFileName})
	if err != nil {
		return nil, fmt.Errorf("get chat file: %w", err)
	}
	return f, nil
}

func (c *documentChatUC) UpdateChatContent(ctx context.Context, chatID, content string) error {
	if strings.TrimSpace(content) == "" {
		return fmt.Errorf("update chat content: %w: content is empty", domain.ErrInvalidArgument)
	}
	return c.mutate(ctx, "update chat content", chatID, func(chat *model.DocumentTranslationChat) (*model.ChatMessage, error) {
		if chat.TranslationResult == nil || !chat.TranslationResult.Success {
			return nil, domain.ErrNoResult
		}
		chat.TranslationResult.TranslatedContent = content
		chat.TranslationResult.WordCount = len(strings.Fields(content))
		msg := model.NewChatMessage(chat.ChatID, model.MessageStatusUpdate, "Translation content updated by user")
		msg.Metadata = &model.MessageMetadata{TranslatedContent: content}
		return &msg, nil
	})
}

func (c *documentChatUC) HideMessage(ctx context.Context, chatID, messageID string) error {
	if err := c.chats.SetMessageVisibility(ctx, nil, chatID, messageID, false); err != nil {
		return fmt.Errorf("hide message: %w", err)
	}
	return nil
}

func (c *documentChatUC) ReplaceSuggestions(ctx context.Context, chatID string, suggestions []model.TranslationSuggestion) error {
	return c.mutate(ctx, "replace suggestions", chatID, func(chat *model.DocumentTranslationChat) (*model.ChatMessage, error) {
		if chat.TranslationResult == nil || !chat.TranslationResult.Success {
			return nil, domain.ErrNoResult
		}
		chat.TranslationResult.Suggestions = suggestions
		return nil, nil
	})
}

func (c *documentChatUC) RecordAppliedSuggestion(ctx context.Context, chatID string, s model.TranslationSuggestion, updated, description string, next []model.TranslationSuggestion) error {
	return c.mutate(ctx, "record applied suggestion", chatID, func(chat *model.DocumentTranslationChat) (*model.ChatMessage, error) {
		r := chat.TranslationResult
		if r == nil || !r.Success {
			return nil, domain.ErrNoResult
		}
		r.TranslatedContent = updated
		r.WordCount = len(strings.Fields(updated))
		r.AppliedSuggestions = append(r.AppliedSuggestions, s)
		r.Suggestions = next

		msg := model.NewChatMessage(chat.ChatID, model.MessageSuggestionApplied, description)
		applied := s
		msg.Metadata = &model.MessageMetadata{
			TranslatedContent: updated,
			AppliedSuggestion: &applied,
			Suggestions:       next,
		}
		return &msg, nil
	})
}

// mutate loads the chat inside a transaction, applies fn, saves the chat and
// appends the message fn returns, if any.
func (c *documentChatUC) mutate(ctx context.Context, op, chatID string, fn func(chat *model.DocumentTranslationChat) (*model.ChatMessage, error)) error {
	err := c.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		chat, err := c.chats.FindByChatID(ctx, tx, chatID)
		if err != nil {
			return err
		}
		msg, err := fn(chat)
		if err != nil {
			return err
		}
		chat.Touch()
		if err := c.chats.Save(ctx, tx, chat); err != nil {
			return err
		}
		if msg != nil {
			return c.chats.AddMessage(ctx, tx, msg)
		}
		return nil
	})
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) && !errors.Is(err, domain.ErrNoResult) {
			c.log.Error().Err(err).Str("chat_id", chatID).Msg(op + " failed")
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
