package model

import (
	"encoding/json"
	"strings"

	"github.com/oklog/ulid/v2"
)

type SuggestionType int

const (
	SuggestionGrammarError SuggestionType = iota + 1
	SuggestionSyntaxError
	SuggestionStyleImprovement
	SuggestionTerminology
	SuggestionPunctuation
	SuggestionFormatting
	SuggestionClarity
	SuggestionConsistency
)

var suggestionTypeNames = map[SuggestionType]string{
	SuggestionGrammarError:     "GrammarError",
	SuggestionSyntaxError:      "SyntaxError",
	SuggestionStyleImprovement: "StyleImprovement",
	SuggestionTerminology:      "Terminology",
	SuggestionPunctuation:      "Punctuation",
	SuggestionFormatting:       "Formatting",
	SuggestionClarity:          "Clarity",
	SuggestionConsistency:      "Consistency",
}

func (t SuggestionType) String() string {
	if n, ok := suggestionTypeNames[t]; ok {
		return n
	}
	return suggestionTypeNames[SuggestionStyleImprovement]
}

// ParseSuggestionType is case-insensitive and falls back to StyleImprovement.
func ParseSuggestionType(s string) SuggestionType {
	s = strings.TrimSpace(s)
	for t, n := range suggestionTypeNames {
		if strings.EqualFold(n, s) {
			return t
		}
	}
	return SuggestionStyleImprovement
}

func (t SuggestionType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *SuggestionType) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*t = ParseSuggestionType(s)
		return nil
	}
	var n int
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	if _, ok := suggestionTypeNames[SuggestionType(n)]; ok {
		*t = SuggestionType(n)
	} else {
		*t = SuggestionStyleImprovement
	}
	return nil
}

type SuggestionPriority int

const (
	PriorityHigh   SuggestionPriority = 1
	PriorityMedium SuggestionPriority = 2
	PriorityLow    SuggestionPriority = 3
)

func ClampPriority(p int) SuggestionPriority {
	if p < int(PriorityHigh) {
		return PriorityHigh
	}
	if p > int(PriorityLow) {
		return PriorityLow
	}
	return SuggestionPriority(p)
}

// TranslationSuggestion is immutable once generated.
type TranslationSuggestion struct {
	ID            string             `json:"id"`
	Type          SuggestionType     `json:"type"`
	Priority      SuggestionPriority `json:"priority"`
	Title         string             `json:"title"`
	Description   string             `json:"description"`
	OriginalText  string             `json:"original_text"`
	SuggestedText string             `json:"suggested_text"`
}

func NewSuggestionID() string { return ulid.Make().String() }

// FallbackSuggestion is returned when the model gives nothing usable.
func FallbackSuggestion() TranslationSuggestion {
	return TranslationSuggestion{
		ID:          NewSuggestionID(),
		Type:        SuggestionStyleImprovement,
		Priority:    PriorityMedium,
		Title:       "Review Translation",
		Description: "Consider reviewing the translation for accuracy and naturalness",
	}
}

// SuggestionIDs lists ids in order.
func SuggestionIDs(list []TranslationSuggestion) []string {
	ids := make([]string, 0, len(list))
	for _, s := range list {
		ids = append(ids, s.ID)
	}
	return ids
}

// FindSuggestion returns the suggestion with id, or false.
func FindSuggestion(list []TranslationSuggestion, id string) (TranslationSuggestion, bool) {
	for _, s := range list {
		if s.ID == id {
			return s, true
		}
	}
	return TranslationSuggestion{}, false
}

type ApplySuggestionRequest struct {
	TranslatedContent   string                  `json:"translated_content"`
	OriginalContent     string                  `json:"original_content"`
	TargetLanguageID    int                     `json:"target_language_id"`
	Suggestion          TranslationSuggestion   `json:"suggestion"`
	HasEdits            bool                    `json:"has_edits"`
	EditedOriginalText  string                  `json:"edited_original_text,omitempty"`
	EditedSuggestedText string                  `json:"edited_suggested_text,omitempty"`
	PreviousSuggestions []TranslationSuggestion `json:"previous_suggestions,omitempty"`
	Model               AIModel                 `json:"model,omitempty"`
}

type ApplySuggestionResponse struct {
	Success           bool                    `json:"success"`
	UpdatedContent    string                  `json:"updated_content,omitempty"`
	ChangeDescription string                  `json:"change_description,omitempty"`
	NewSuggestions    []TranslationSuggestion `json:"new_suggestions"`
	ErrorMessage      string                  `json:"error_message,omitempty"`
}

// SuggestionEdits carries optional user edits for a stored suggestion.
type SuggestionEdits struct {
	HasEdits            bool   `json:"has_edits"`
	EditedOriginalText  string `json:"edited_original_text,omitempty"`
	EditedSuggestedText string `json:"edited_suggested_text,omitempty"`
}
