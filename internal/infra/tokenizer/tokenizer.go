// Package tokenizer counts model tokens for chunk budgeting.
package tokenizer

import (
	"fmt"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"

	"ai-document-translator/internal/domain/ports/adapter"
)

var (
	_ adapter.TokenCounter = (*Tiktoken)(nil)
	_ adapter.TokenCounter = Estimate{}
)

// Tiktoken counts with a BPE encoding such as cl100k_base or o200k_base.
type Tiktoken struct {
	enc *tiktoken.Tiktoken
}

func NewTiktoken(encoding string) (*Tiktoken, error) {
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("load encoding %s: %w", encoding, err)
	}
	return &Tiktoken{enc: enc}, nil
}

// ForModel picks the encoding tiktoken associates with model.
func ForModel(model string) (*Tiktoken, error) {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		return nil, fmt.Errorf("encoding for model %s: %w", model, err)
	}
	return &Tiktoken{enc: enc}, nil
}

func (t *Tiktoken) Count(text string) int {
	if text == "" {
		return 0
	}
	return len(t.enc.Encode(text, nil, nil))
}

// Estimate approximates tokens as runes/4, rounded up. It needs no
// encoding files and is used when none is configured.
type Estimate struct{}

func (Estimate) Count(text string) int {
	n := utf8.RuneCountInString(text)
	return (n + 3) / 4
}

// New returns a tiktoken counter for encoding, or Estimate when encoding is
// empty or cannot be loaded.
func New(encoding string) (adapter.TokenCounter, error) {
	if encoding == "" {
		return Estimate{}, nil
	}
	t, err := NewTiktoken(encoding)
	if err != nil {
		return Estimate{}, err
	}
	return t, nil
}
