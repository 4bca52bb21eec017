package usecase

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"ai-document-translator/internal/domain/model"
)

const (
	spanSimilarityThreshold  = 0.9
	titleSimilarityThreshold = 0.8
)

// normalizeSpan makes spans comparable: NFC, trimmed, case folded. A Caser
// is stateful, so each call gets its own.
func normalizeSpan(s string) string {
	return cases.Fold().String(norm.NFC.String(strings.TrimSpace(s)))
}

// IsSimilar reports whether b repeats a: same span with the same fix or
// kind, a near-identical title, or an identical normalized span.
func IsSimilar(a, b model.TranslationSuggestion) bool {
	return SameSpan(a, b) || Similarity(normalizeSpan(a.Title), normalizeSpan(b.Title)) >= titleSimilarityThreshold
}

// SameSpan is IsSimilar without the title rule: both items target the same
// text, either verbatim or nearly so with the same fix or kind.
func SameSpan(a, b model.TranslationSuggestion) bool {
	origA, origB := normalizeSpan(a.OriginalText), normalizeSpan(b.OriginalText)
	if origA == "" || origB == "" {
		return false
	}
	if origA == origB {
		return true
	}
	return Similarity(origA, origB) >= spanSimilarityThreshold &&
		(Similarity(normalizeSpan(a.SuggestedText), normalizeSpan(b.SuggestedText)) >= spanSimilarityThreshold || a.Type == b.Type)
}

// Similarity is 1 - levenshtein/maxLen over runes. Two empty strings are
// identical.
func Similarity(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	longest := len(ra)
	if len(rb) > longest {
		longest = len(rb)
	}
	if longest == 0 {
		return 1
	}
	return 1 - float64(levenshtein(ra, rb))/float64(longest)
}

func levenshtein(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		cur[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			cur[j] = min(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}
