package apiv1

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"ai-document-translator/internal/domain"
	"ai-document-translator/internal/domain/model"
	"ai-document-translator/internal/infra/logging"
)

type chatMessageResponse struct {
	MessageID             string                 `json:"message_id"`
	MessageType           string                 `json:"message_type"`
	Content               string                 `json:"content"`
	Metadata              *model.MessageMetadata `json:"metadata,omitempty"`
	TranslationJobID      string                 `json:"translation_job_id,omitempty"`
	AIModel               model.AIModel          `json:"ai_model,omitempty"`
	ProcessingCost        float64                `json:"processing_cost,omitempty"`
	ProcessingTimeSeconds float64                `json:"processing_time_seconds,omitempty"`
	CreatedAt             time.Time              `json:"created_at"`
}

type chatResponse struct {
	ChatID             string                           `json:"chat_id"`
	Title              string                           `json:"title"`
	OriginalFileName   string                           `json:"original_file_name"`
	ContentType        string                           `json:"content_type,omitempty"`
	FileSizeBytes      int64                            `json:"file_size_bytes"`
	FileType           string                           `json:"file_type"`
	TargetLanguageID   int                              `json:"target_language_id"`
	TargetLanguageName string                           `json:"target_language_name"`
	Status             model.ChatStatus                 `json:"status"`
	TranslationResult  *model.DocumentTranslationResult `json:"translation_result,omitempty"`
	ErrorMessage       string                           `json:"error_message,omitempty"`
	CreatedAt          time.Time                        `json:"created_at"`
	UpdatedAt          time.Time                        `json:"updated_at"`
	LastActivityAt     time.Time                        `json:"last_activity_at"`
	Messages           []chatMessageResponse            `json:"messages"`
}

func toChatResponse(c *model.DocumentTranslationChat) chatResponse {
	msgs := make([]chatMessageResponse, 0, len(c.Messages))
	for _, m := range c.Messages {
		msgs = append(msgs, chatMessageResponse{
			MessageID:             m.MessageID,
			MessageType:           m.MessageType.String(),
			Content:               m.Content,
			Metadata:              m.Metadata,
			TranslationJobID:      m.TranslationJobID,
			AIModel:               m.AIModel,
			ProcessingCost:        m.ProcessingCost,
			ProcessingTimeSeconds: m.ProcessingTimeSeconds,
			CreatedAt:             m.CreatedAt,
		})
	}
	return chatResponse{
		ChatID:             c.ChatID,
		Title:              c.Title,
		OriginalFileName:   c.OriginalFileName,
		ContentType:        c.ContentType,
		FileSizeBytes:      c.FileSizeBytes,
		FileType:           c.FileType,
		TargetLanguageID:   c.TargetLanguageID,
		TargetLanguageName: c.TargetLanguageName,
		Status:             c.Status,
		TranslationResult:  c.TranslationResult,
		ErrorMessage:       c.ErrorMessage,
		CreatedAt:          c.CreatedAt,
		UpdatedAt:          c.UpdatedAt,
		LastActivityAt:     c.LastActivityAt,
		Messages:           msgs,
	}
}

// ownChat loads a chat that belongs to the caller; others are reported as 404.
func (s *Server) ownChat(r *http.Request) (*model.DocumentTranslationChat, error) {
	var chatID string
	if err := pathParam(r, "chatId", &chatID); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidArgument, err)
	}
	chat, err := s.Chats.GetChat(r.Context(), chatID)
	if err != nil {
		return nil, err
	}
	if chat.UserID != logging.UserID(r.Context()) {
		return nil, domain.ErrNotFound
	}
	return chat, nil
}

type listChatsParams struct {
	FileType         *string    `json:"file_type"`
	TargetLanguageID *int       `json:"target_language_id"`
	From             *time.Time `json:"from"`
	To               *time.Time `json:"to"`
	Page             *int       `json:"page"`
	PageSize         *int       `json:"page_size"`
	SortBy           *string    `json:"sort_by"`
	SortDirection    *string    `json:"sort_direction"`
}

func (p *listChatsParams) bind(r *http.Request) error {
	binds := []struct {
		name string
		dest any
	}{
		{"file_type", &p.FileType},
		{"target_language_id", &p.TargetLanguageID},
		{"from", &p.From},
		{"to", &p.To},
		{"page", &p.Page},
		{"page_size", &p.PageSize},
		{"sort_by", &p.SortBy},
		{"sort_direction", &p.SortDirection},
	}
	for _, b := range binds {
		if err := queryParam(r, b.name, b.dest); err != nil {
			return fmt.Errorf("invalid %s: %w", b.name, err)
		}
	}
	return nil
}

func (p listChatsParams) filter(userID string) model.ChatFilter {
	f := model.ChatFilter{UserID: userID, FromDate: p.From, ToDate: p.To}
	if p.FileType != nil {
		f.FileType = *p.FileType
	}
	if p.TargetLanguageID != nil {
		f.TargetLanguageID = *p.TargetLanguageID
	}
	if p.Page != nil {
		f.Page = *p.Page
	}
	if p.PageSize != nil {
		f.PageSize = *p.PageSize
	}
	if p.SortBy != nil {
		f.SortBy = *p.SortBy
	}
	if p.SortDirection != nil {
		f.SortDirection = model.SortDirection(*p.SortDirection)
	}
	return f
}

func (s *Server) listChats(w http.ResponseWriter, r *http.Request) {
	var params listChatsParams
	if err := params.bind(r); err != nil {
		badRequest(w, err.Error())
		return
	}
	page, err := s.Chats.GetUserChats(r.Context(), params.filter(logging.UserID(r.Context())))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) getChat(w http.ResponseWriter, r *http.Request) {
	chat, err := s.ownChat(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toChatResponse(chat))
}

func (s *Server) deleteChat(w http.ResponseWriter, r *http.Request) {
	chat, err := s.ownChat(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.Chats.DeleteChat(r.Context(), chat.ChatID); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) getChatFile(w http.ResponseWriter, r *http.Request) {
	chat, err := s.ownChat(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var raw *string
	if err := queryParam(r, "format", &raw); err != nil {
		badRequest(w, "invalid format")
		return
	}
	var format model.OutputFormat
	if raw != nil && *raw != "" {
		f, ok := model.ParseOutputFormat(*raw)
		if !ok {
			badRequest(w, "unknown format")
			return
		}
		format = f
	}
	file, err := s.Chats.GetChatFile(r.Context(), chat.ChatID, format)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeFile(w, file.FileName, file.ContentType, file.Data)
}

type updateContentRequest struct {
	Content string `json:"content"`
}

func (s *Server) updateChatContent(w http.ResponseWriter, r *http.Request) {
	chat, err := s.ownChat(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req updateContentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	if err := s.Chats.UpdateChatContent(r.Context(), chat.ChatID, req.Content); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) generateChatSuggestions(w http.ResponseWriter, r *http.Request) {
	chat, err := s.ownChat(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	list, err := s.Suggestions.ChatSuggestions(r.Context(), chat.ChatID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"suggestions": list})
}

// applyChatSuggestion accepts an empty body as "apply unchanged".
func (s *Server) applyChatSuggestion(w http.ResponseWriter, r *http.Request) {
	chat, err := s.ownChat(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var suggestionID string
	if err := pathParam(r, "suggestionId", &suggestionID); err != nil {
		badRequest(w, err.Error())
		return
	}
	var edits model.SuggestionEdits
	if r.Body != nil {
		if err := json.NewDecoder(r.Body).Decode(&edits); err != nil && !errors.Is(err, io.EOF) {
			badRequest(w, "invalid JSON body")
			return
		}
	}
	resp, err := s.Suggestions.ApplyChatSuggestion(r.Context(), chat.ChatID, suggestionID, edits)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) hideMessage(w http.ResponseWriter, r *http.Request) {
	chat, err := s.ownChat(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var messageID string
	if err := pathParam(r, "messageId", &messageID); err != nil {
		badRequest(w, err.Error())
		return
	}
	if err := s.Chats.HideMessage(r.Context(), chat.ChatID, messageID); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
