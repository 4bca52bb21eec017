//go:build !integration

package usecase

import (
	"math"
	"testing"

	"ai-document-translator/internal/domain/model"
)

func TestSimilarity(t *testing.T) {
	tests := []struct {
		a, b string
		want float64
	}{
		{"", "", 1},
		{"abc", "abc", 1},
		{"abc", "", 0},
		{"kitten", "sitting", 1 - 3.0/7},
		{"café", "cafe", 0.75},
	}
	for _, tt := range tests {
		if got := Similarity(tt.a, tt.b); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("Similarity(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestIsSimilar(t *testing.T) {
	base := model.TranslationSuggestion{
		Type:          model.SuggestionGrammarError,
		Title:         "Fix verb agreement",
		OriginalText:  "the results shows",
		SuggestedText: "the results show",
	}

	t.Run("should match the same span regardless of case and spacing", func(t *testing.T) {
		other := model.TranslationSuggestion{Title: "Something else entirely", OriginalText: "  The Results Shows ", Type: model.SuggestionTerminology}
		if !IsSimilar(base, other) {
			t.Fatal("expected similar")
		}
	})

	t.Run("should match a near span with the same kind", func(t *testing.T) {
		other := model.TranslationSuggestion{Title: "Unrelated heading text", OriginalText: "the results shows.", SuggestedText: "completely different", Type: model.SuggestionGrammarError}
		if !IsSimilar(base, other) {
			t.Fatal("expected similar")
		}
	})

	t.Run("should match near-identical titles", func(t *testing.T) {
		other := model.TranslationSuggestion{Title: "Fix verb agreements", OriginalText: "another span", Type: model.SuggestionStyleImprovement}
		if !IsSimilar(base, other) {
			t.Fatal("expected similar")
		}
	})

	t.Run("should keep unrelated suggestions apart", func(t *testing.T) {
		other := model.TranslationSuggestion{Title: "Use the glossary term", OriginalText: "revenue stream", SuggestedText: "income stream", Type: model.SuggestionTerminology}
		if IsSimilar(base, other) {
			t.Fatal("expected not similar")
		}
	})

	t.Run("should ignore titles when comparing spans only", func(t *testing.T) {
		other := model.TranslationSuggestion{Title: "Fix verb agreement", OriginalText: "revenue stream", SuggestedText: "income stream", Type: model.SuggestionGrammarError}
		if SameSpan(base, other) {
			t.Fatal("distinct spans should not match")
		}
		if !IsSimilar(base, other) {
			t.Fatal("identical titles should still count as similar")
		}
	})

	t.Run("should not match two empty spans on span alone", func(t *testing.T) {
		a := model.TranslationSuggestion{Title: "Review tone", Type: model.SuggestionStyleImprovement}
		b := model.TranslationSuggestion{Title: "Check numbers", Type: model.SuggestionClarity}
		if IsSimilar(a, b) {
			t.Fatal("expected not similar")
		}
	})
}
