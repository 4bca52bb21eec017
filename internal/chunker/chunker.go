// Package chunker splits extracted document text into pieces that fit a
// translation model's context window.
//
// Boundaries are chosen deterministically. Within the allowed prefix the
// splitter takes the last paragraph break, else the last sentence end
// (. ! ? followed by whitespace), else the last whitespace, else it cuts hard.
package chunker

import (
	"strings"
	"unicode"

	"ai-document-translator/internal/domain/ports/adapter"
)

// Options bound a chunk. Zero MaxChars means unlimited; MaxTokens is only
// enforced when Counter is set.
type Options struct {
	MaxChars  int
	MaxTokens int
	Counter   adapter.TokenCounter
}

// Piece is one chunk plus the separator that followed it in the source:
// "\n\n" for a blank line, "\n" for a line break, " " for other whitespace
// and "" after a hard cut or the final piece.
type Piece struct {
	Text string
	Sep  string
}

// SplitPieces returns trimmed, non-empty pieces of text in source order.
func SplitPieces(text string, opts Options) []Piece {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	var out []Piece
	for _, p := range byChars(text, opts.MaxChars) {
		out = append(out, fitTokens(p, opts)...)
	}
	return out
}

// Split returns trimmed, non-empty chunks of text in source order.
func Split(text string, opts Options) []string {
	return Texts(SplitPieces(text, opts))
}

// Chunk splits by character budget only.
func Chunk(text string, maxChars int) []string {
	return Split(text, Options{MaxChars: maxChars})
}

// Texts drops the separators.
func Texts(pieces []Piece) []string {
	if pieces == nil {
		return nil
	}
	out := make([]string, len(pieces))
	for i, p := range pieces {
		out[i] = p.Text
	}
	return out
}

// fitTokens re-splits p at half its size until every piece fits the token
// budget or a piece can no longer shrink. The last sub-piece keeps p's
// separator.
func fitTokens(p Piece, opts Options) []Piece {
	if opts.Counter == nil || opts.MaxTokens <= 0 || opts.Counter.Count(p.Text) <= opts.MaxTokens {
		return []Piece{p}
	}
	half := len([]rune(p.Text)) / 2
	if half < 1 {
		return []Piece{p}
	}
	parts := byChars(p.Text, half)
	if len(parts) < 2 {
		return []Piece{p}
	}
	parts[len(parts)-1].Sep = p.Sep
	var out []Piece
	for _, sub := range parts {
		out = append(out, fitTokens(sub, opts)...)
	}
	return out
}

func byChars(text string, maxChars int) []Piece {
	runes := []rune(text)
	if maxChars <= 0 || len(runes) <= maxChars {
		return []Piece{{Text: text}}
	}

	var pieces []Piece
	for len(runes) > maxChars {
		cut := splitPoint(runes[:maxChars])
		head, rest := runes[:cut], runes[cut:]
		lead := len(rest) - len(trimLeftSpace(rest))
		gap := string(head[len(trimRightSpace(head)):]) + string(rest[:lead])
		if c := strings.TrimSpace(string(head)); c != "" {
			pieces = append(pieces, Piece{Text: c, Sep: separator(gap)})
		}
		runes = rest[lead:]
	}
	if c := strings.TrimSpace(string(runes)); c != "" {
		pieces = append(pieces, Piece{Text: c})
	}
	return pieces
}

// separator classifies the whitespace removed at a cut.
func separator(gap string) string {
	switch n := strings.Count(gap, "\n"); {
	case gap == "":
		return ""
	case n >= 2:
		return "\n\n"
	case n == 1:
		return "\n"
	default:
		return " "
	}
}

// splitPoint returns the rune offset at which to end the current chunk.
// It is always > 0 so the loop makes progress.
func splitPoint(window []rune) int {
	n := len(window)

	// paragraph
	for i := n - 2; i > 0; i-- {
		if window[i] == '\n' && window[i+1] == '\n' {
			return i + 2
		}
		if i >= 3 && window[i-3] == '\r' && window[i-2] == '\n' && window[i-1] == '\r' && window[i] == '\n' {
			return i + 1
		}
	}
	// sentence
	for i := n - 2; i > 0; i-- {
		switch window[i] {
		case '.', '!', '?':
			if unicode.IsSpace(window[i+1]) {
				return i + 1
			}
		}
	}
	// word
	for i := n - 1; i > 0; i-- {
		if unicode.IsSpace(window[i]) {
			return i
		}
	}
	return n
}

func trimLeftSpace(r []rune) []rune {
	i := 0
	for i < len(r) && unicode.IsSpace(r[i]) {
		i++
	}
	return r[i:]
}

func trimRightSpace(r []rune) []rune {
	i := len(r)
	for i > 0 && unicode.IsSpace(r[i-1]) {
		i--
	}
	return r[:i]
}

// ExtractContext returns the last wordCount words of text. Callers pass it
// along with the next chunk so terminology stays consistent.
func ExtractContext(text string, wordCount int) string {
	if wordCount <= 0 {
		wordCount = 25
	}
	words := strings.Fields(text)
	if len(words) <= wordCount {
		return strings.Join(words, " ")
	}
	return strings.Join(words[len(words)-wordCount:], " ")
}
