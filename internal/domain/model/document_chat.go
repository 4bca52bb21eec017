package model

import (
	"strings"
	"time"

	"ai-document-translator/internal/domain"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// ChatStatus mirrors the job vocabulary.
type ChatStatus = JobStatus

type MessageType int

const (
	MessageUserRequest MessageType = iota + 1
	MessageSystemResponse
	MessageTranslationResult
	MessageSuggestionApplied
	MessageErrorMessage
	MessageStatusUpdate
)

func (t MessageType) String() string {
	switch t {
	case MessageUserRequest:
		return "UserRequest"
	case MessageSystemResponse:
		return "SystemResponse"
	case MessageTranslationResult:
		return "TranslationResult"
	case MessageSuggestionApplied:
		return "SuggestionApplied"
	case MessageErrorMessage:
		return "ErrorMessage"
	case MessageStatusUpdate:
		return "StatusUpdate"
	}
	return "Unknown"
}

const (
	DefaultChatTitle    = "Document Translation"
	UnknownLanguageName = "Unknown"
)

// DocumentTranslationChat is a long-lived session around one uploaded document.
type DocumentTranslationChat struct {
	ID                 int64
	ChatID             string
	UserID             string
	OriginalFileName   string
	ContentType        string
	FileSizeBytes      int64
	FileType           string
	TargetLanguageID   int
	TargetLanguageName string
	Status             ChatStatus
	Title              string
	TranslationResult  *DocumentTranslationResult
	ErrorMessage       string
	CreatedAt          time.Time
	UpdatedAt          time.Time
	LastActivityAt     time.Time
	Messages           []ChatMessage
}

func NewDocumentTranslationChat(userID string, file *SourceFile, languageID int, languageName string) (*DocumentTranslationChat, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, domain.ErrInvalidArgument
	}
	if file == nil || file.Name == "" {
		return nil, domain.ErrInvalidArgument
	}
	if languageName == "" {
		languageName = UnknownLanguageName
	}
	now := time.Now().UTC()
	return &DocumentTranslationChat{
		ChatID:             uuid.NewString(),
		UserID:             userID,
		OriginalFileName:   file.Name,
		ContentType:        file.ContentType,
		FileSizeBytes:      file.Size(),
		FileType:           file.Extension(),
		TargetLanguageID:   languageID,
		TargetLanguageName: languageName,
		Status:             JobStatusProcessing,
		Title:              DefaultChatTitle,
		CreatedAt:          now,
		UpdatedAt:          now,
		LastActivityAt:     now,
		Messages:           make([]ChatMessage, 0, 4),
	}, nil
}

// Touch bumps activity timestamps; every mutation calls it.
func (c *DocumentTranslationChat) Touch() {
	now := time.Now().UTC()
	c.UpdatedAt = now
	c.LastActivityAt = now
}

func (c *DocumentTranslationChat) VisibleMessages() []ChatMessage {
	out := make([]ChatMessage, 0, len(c.Messages))
	for _, m := range c.Messages {
		if m.IsVisible {
			out = append(out, m)
		}
	}
	return out
}

type ChatMessage struct {
	ID                    int64
	MessageID             string
	ChatID                string
	MessageType           MessageType
	Content               string
	Metadata              *MessageMetadata
	TranslationJobID      string
	AIModel               AIModel
	ProcessingCost        float64
	ProcessingTimeSeconds float64
	IsVisible             bool
	CreatedAt             time.Time
}

func NewChatMessage(chatID string, t MessageType, content string) ChatMessage {
	return ChatMessage{
		MessageID:   ulid.Make().String(),
		ChatID:      chatID,
		MessageType: t,
		Content:     content,
		IsVisible:   true,
		CreatedAt:   time.Now().UTC(),
	}
}

type MessageMetadata struct {
	OriginalContent   string                  `json:"original_content,omitempty"`
	TranslatedContent string                  `json:"translated_content,omitempty"`
	Suggestions       []TranslationSuggestion `json:"suggestions,omitempty"`
	AppliedSuggestion *TranslationSuggestion  `json:"applied_suggestion,omitempty"`
	ErrorDetails      string                  `json:"error_details,omitempty"`
	FileInfo          *FileProcessingInfo     `json:"file_info,omitempty"`
	Stats             *TranslationStats       `json:"stats,omitempty"`
}

type FileProcessingInfo struct {
	Method           string       `json:"method,omitempty"`
	PageCount        int          `json:"page_count,omitempty"`
	OutputFormat     OutputFormat `json:"output_format,omitempty"`
	ProcessingTimeMs int64        `json:"processing_time_ms"`
	QualityScore     float64      `json:"quality_score"`
}

type TranslationStats struct {
	WordCount       int `json:"word_count"`
	ChunkCount      int `json:"chunk_count"`
	SuggestionCount int `json:"suggestion_count"`
}

type SortDirection string

const (
	SortAsc  SortDirection = "ASC"
	SortDesc SortDirection = "DESC"
)

const (
	SortByLastActivity = "last_activity_at"
	SortByCreatedAt    = "created_at"
	SortByTitle        = "title"
	SortByStatus       = "status"

	DefaultPageSize = 20
	MaxPageSize     = 100
)

// ChatFilter selects a user's chats. Zero values mean "no filter".
type ChatFilter struct {
	UserID           string
	FileType         string
	TargetLanguageID int
	FromDate         *time.Time
	ToDate           *time.Time
	Page             int
	PageSize         int
	SortBy           string
	SortDirection    SortDirection
}

// Normalize applies paging and sort defaults.
func (f *ChatFilter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize <= 0 {
		f.PageSize = DefaultPageSize
	}
	if f.PageSize > MaxPageSize {
		f.PageSize = MaxPageSize
	}
	switch strings.ToLower(strings.TrimSpace(f.SortBy)) {
	case "createdat", SortByCreatedAt:
		f.SortBy = SortByCreatedAt
	case SortByTitle:
		f.SortBy = SortByTitle
	case SortByStatus:
		f.SortBy = SortByStatus
	default:
		f.SortBy = SortByLastActivity
	}
	if strings.EqualFold(string(f.SortDirection), string(SortAsc)) {
		f.SortDirection = SortAsc
	} else {
		f.SortDirection = SortDesc
	}
	if f.FileType != "" {
		f.FileType = NormalizeExtension(f.FileType)
	}
}

func (f ChatFilter) Offset() int { return (f.Page - 1) * f.PageSize }

type ChatSummary struct {
	ChatID             string     `json:"chat_id"`
	Title              string     `json:"title"`
	OriginalFileName   string     `json:"original_file_name"`
	FileType           string     `json:"file_type"`
	TargetLanguageID   int        `json:"target_language_id"`
	TargetLanguageName string     `json:"target_language_name"`
	Status             ChatStatus `json:"status"`
	HasResult          bool       `json:"has_result"`
	HasError           bool       `json:"has_error"`
	MessageCount       int        `json:"message_count"`
	CreatedAt          time.Time  `json:"created_at"`
	LastActivityAt     time.Time  `json:"last_activity_at"`
}

type ChatPage struct {
	Chats       []ChatSummary `json:"chats"`
	TotalCount  int           `json:"total_count"`
	Page        int           `json:"page"`
	PageSize    int           `json:"page_size"`
	HasNextPage bool          `json:"has_next_page"`
}

// ChatFile is a downloadable rendering of a chat's current result.
type ChatFile struct {
	FileName    string
	ContentType string
	Data        []byte
}
