package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"ai-document-translator/internal/domain"
	"ai-document-translator/internal/domain/model"
	"ai-document-translator/internal/domain/ports/adapter"
	"ai-document-translator/internal/infra/prompts"
)

var _ SuggestionUseCase = (*suggestionUC)(nil)

// SuggestionUseCase proposes span-level edits for a translation and applies
// them one at a time.
type SuggestionUseCase interface {
	GenerateSuggestions(ctx context.Context, original, translated string, targetLanguageID int, previous []model.TranslationSuggestion, m model.AIModel) ([]model.TranslationSuggestion, error)
	ApplySuggestion(ctx context.Context, req model.ApplySuggestionRequest) model.ApplySuggestionResponse

	ChatSuggestions(ctx context.Context, chatID string) ([]model.TranslationSuggestion, error)
	ApplyChatSuggestion(ctx context.Context, chatID, suggestionID string, edits model.SuggestionEdits) (*model.ApplySuggestionResponse, error)
}

const (
	languageLookupTimeout = 30 * time.Second
	suggestionCallTimeout = 2 * time.Minute

	defaultSuggestionTitle       = "Improvement Suggestion"
	defaultSuggestionDescription = "Consider this improvement"

	msgLanguageUnavailable = "Target language not found or could not be fetched"
	msgSpanNotFound        = "Failed to apply suggestion: original text not found in content"
)

type suggestionUC struct {
	ai       adapter.AIService
	prompts  *prompts.Catalog
	langs    LanguageUseCase
	chats    DocumentChatUseCase
	defModel model.AIModel
	log      zerolog.Logger
}

func NewSuggestionUseCase(ai adapter.AIService, p *prompts.Catalog, langs LanguageUseCase, chats DocumentChatUseCase, defaultModel model.AIModel, logger *zerolog.Logger) *suggestionUC {
	if defaultModel == "" {
		defaultModel = model.DefaultSuggestModel
	}
	return &suggestionUC{
		ai:       ai,
		prompts:  p,
		langs:    langs,
		chats:    chats,
		defModel: defaultModel,
		log:      logger.With().Str("component", "SuggestionUC").Logger(),
	}
}

func (s *suggestionUC) languageName(ctx context.Context, id int) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, languageLookupTimeout)
	defer cancel()
	lang, err := s.langs.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return lang.Name, nil
}

// GenerateSuggestions asks the model for ten edits. Transport failures are
// returned; an unusable reply yields the single fallback suggestion.
func (s *suggestionUC) GenerateSuggestions(ctx context.Context, original, translated string, targetLanguageID int, previous []model.TranslationSuggestion, m model.AIModel) ([]model.TranslationSuggestion, error) {
	langName, err := s.languageName(ctx, targetLanguageID)
	if err != nil {
		return nil, fmt.Errorf("generate suggestions: %w", err)
	}
	if m.IsBasic() {
		m = s.defModel
	}

	ctx, cancel := context.WithTimeout(ctx, suggestionCallTimeout)
	defer cancel()
	resp := s.ai.SendTextRequest(ctx, adapter.AIRequest{
		Model:        m,
		SystemPrompt: s.prompts.T(prompts.SuggestSystem),
		Prompt:       s.prompts.T(prompts.SuggestReview, langName, original, translated, s.previousBlock(previous)),
	})
	if !resp.Success {
		return nil, fmt.Errorf("generate suggestions: %s: %s", resp.Failure, resp.ErrorMessage)
	}

	out := FilterSuggestions(ParseSuggestions(resp.Content), translated, previous)
	if len(out) == 0 {
		s.log.Debug().Msg("no usable suggestions in reply, returning fallback")
		return []model.TranslationSuggestion{model.FallbackSuggestion()}, nil
	}
	return out, nil
}

func (s *suggestionUC) previousBlock(previous []model.TranslationSuggestion) string {
	if len(previous) == 0 {
		return ""
	}
	items := make([]string, 0, len(previous))
	for _, p := range previous {
		items = append(items, s.prompts.T(prompts.SuggestPreviousItem, p.Title, p.OriginalText, p.SuggestedText, p.Type.String()))
	}
	return s.prompts.T(prompts.SuggestPrevious, strings.Join(items, "\n"))
}

type rawSuggestion struct {
	Title         string          `json:"title"`
	Description   string          `json:"description"`
	Type          string          `json:"type"`
	OriginalText  string          `json:"originalText"`
	SuggestedText string          `json:"suggestedText"`
	Priority      json.RawMessage `json:"priority"`
}

// ParseSuggestions reads the JSON array between the first '[' and the last
// ']' of reply and applies field defaults. Nil means nothing parseable.
func ParseSuggestions(reply string) []model.TranslationSuggestion {
	start, end := strings.Index(reply, "["), strings.LastIndex(reply, "]")
	if start < 0 || end <= start {
		return nil
	}
	var raw []rawSuggestion
	if err := json.Unmarshal([]byte(reply[start:end+1]), &raw); err != nil {
		return nil
	}
	out := make([]model.TranslationSuggestion, 0, len(raw))
	for _, r := range raw {
		sg := model.TranslationSuggestion{
			ID:            model.NewSuggestionID(),
			Type:          model.ParseSuggestionType(r.Type),
			Priority:      model.ClampPriority(parsePriority(r.Priority)),
			Title:         strings.TrimSpace(r.Title),
			Description:   strings.TrimSpace(r.Description),
			OriginalText:  r.OriginalText,
			SuggestedText: r.SuggestedText,
		}
		if sg.Title == "" {
			sg.Title = defaultSuggestionTitle
		}
		if sg.Description == "" {
			sg.Description = defaultSuggestionDescription
		}
		out = append(out, sg)
	}
	return out
}

func parsePriority(raw json.RawMessage) int {
	s := strings.Trim(strings.TrimSpace(string(raw)), `"`)
	n, err := strconv.Atoi(s)
	if err != nil {
		return int(model.PriorityMedium)
	}
	return n
}

// FilterSuggestions drops items whose span is absent from translated or that
// change nothing. Items resembling a previous suggestion go too; within the
// batch only items targeting the same span are collapsed.
func FilterSuggestions(items []model.TranslationSuggestion, translated string, previous []model.TranslationSuggestion) []model.TranslationSuggestion {
	out := make([]model.TranslationSuggestion, 0, len(items))
	for _, it := range items {
		if it.OriginalText == "" || !strings.Contains(translated, it.OriginalText) {
			continue
		}
		if it.OriginalText == it.SuggestedText {
			continue
		}
		if matchesAny(it, previous, IsSimilar) || matchesAny(it, out, SameSpan) {
			continue
		}
		out = append(out, it)
	}
	return out
}

func matchesAny(s model.TranslationSuggestion, list []model.TranslationSuggestion, same func(a, b model.TranslationSuggestion) bool) bool {
	for _, p := range list {
		if same(p, s) {
			return true
		}
	}
	return false
}

func (s *suggestionUC) ApplySuggestion(ctx context.Context, req model.ApplySuggestionRequest) model.ApplySuggestionResponse {
	resp, _ := s.apply(ctx, req)
	return resp
}

// apply substitutes the first occurrence of the span and rescans. It also
// returns the suggestion as applied, with any edits folded in.
func (s *suggestionUC) apply(ctx context.Context, req model.ApplySuggestionRequest) (model.ApplySuggestionResponse, model.TranslationSuggestion) {
	applied := req.Suggestion
	if _, err := s.languageName(ctx, req.TargetLanguageID); err != nil {
		s.log.Warn().Err(err).Int("language_id", req.TargetLanguageID).Msg("language lookup failed")
		return model.ApplySuggestionResponse{ErrorMessage: msgLanguageUnavailable, NewSuggestions: []model.TranslationSuggestion{}}, applied
	}

	edited := false
	if req.HasEdits {
		if usableEdit(req.EditedOriginalText) {
			applied.OriginalText = req.EditedOriginalText
			edited = true
		}
		if usableEdit(req.EditedSuggestedText) {
			applied.SuggestedText = req.EditedSuggestedText
			edited = true
		}
	}

	if applied.OriginalText == "" || !strings.Contains(req.TranslatedContent, applied.OriginalText) {
		return model.ApplySuggestionResponse{ErrorMessage: msgSpanNotFound, NewSuggestions: []model.TranslationSuggestion{}}, applied
	}
	updated := strings.Replace(req.TranslatedContent, applied.OriginalText, applied.SuggestedText, 1)

	desc := "Applied suggestion: " + applied.Title
	if edited {
		desc = "Applied edited suggestion: " + applied.Title
	}

	previous := make([]model.TranslationSuggestion, 0, len(req.PreviousSuggestions)+1)
	previous = append(previous, req.PreviousSuggestions...)
	previous = append(previous, applied)

	next, err := s.GenerateSuggestions(ctx, req.OriginalContent, updated, req.TargetLanguageID, previous, req.Model)
	if err != nil {
		s.log.Warn().Err(err).Msg("rescan after apply failed")
		next = []model.TranslationSuggestion{}
	}

	return model.ApplySuggestionResponse{
		Success:           true,
		UpdatedContent:    updated,
		ChangeDescription: desc,
		NewSuggestions:    next,
	}, applied
}

// usableEdit rejects blanks and the literal placeholder "string" some
// clients send for unset fields.
func usableEdit(s string) bool {
	t := strings.TrimSpace(s)
	return t != "" && t != "string"
}

func (s *suggestionUC) ChatSuggestions(ctx context.Context, chatID string) ([]model.TranslationSuggestion, error) {
	chat, err := s.chats.GetChat(ctx, chatID)
	if err != nil {
		return nil, err
	}
	r := chat.TranslationResult
	if r == nil || !r.Success {
		return nil, domain.ErrNoResult
	}
	previous := append(append([]model.TranslationSuggestion{}, r.AppliedSuggestions...), r.Suggestions...)
	list, err := s.GenerateSuggestions(ctx, r.OriginalContent, r.TranslatedContent, chat.TargetLanguageID, previous, r.AIModel)
	if err != nil {
		return nil, err
	}
	if err := s.chats.ReplaceSuggestions(ctx, chatID, list); err != nil {
		return nil, err
	}
	return list, nil
}

func (s *suggestionUC) ApplyChatSuggestion(ctx context.Context, chatID, suggestionID string, edits model.SuggestionEdits) (*model.ApplySuggestionResponse, error) {
	chat, err := s.chats.GetChat(ctx, chatID)
	if err != nil {
		return nil, err
	}
	r := chat.TranslationResult
	if r == nil || !r.Success {
		return nil, domain.ErrNoResult
	}
	sg, ok := model.FindSuggestion(r.Suggestions, suggestionID)
	if !ok {
		return nil, domain.ErrSuggestionAbsent
	}

	resp, applied := s.apply(ctx, model.ApplySuggestionRequest{
		TranslatedContent:   r.TranslatedContent,
		OriginalContent:     r.OriginalContent,
		TargetLanguageID:    chat.TargetLanguageID,
		Suggestion:          sg,
		HasEdits:            edits.HasEdits,
		EditedOriginalText:  edits.EditedOriginalText,
		EditedSuggestedText: edits.EditedSuggestedText,
		PreviousSuggestions: r.AppliedSuggestions,
		Model:               r.AIModel,
	})
	if !resp.Success {
		return &resp, nil
	}
	if err := s.chats.RecordAppliedSuggestion(ctx, chatID, applied, resp.UpdatedContent, resp.ChangeDescription, resp.NewSuggestions); err != nil {
		return nil, fmt.Errorf("apply chat suggestion: %w", err)
	}
	return &resp, nil
}
