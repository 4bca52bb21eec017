package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"ai-document-translator/internal/domain"
	"ai-document-translator/internal/domain/model"
	"ai-document-translator/internal/domain/ports/repository"
)

var _ LanguageUseCase = (*languageUC)(nil)

type LanguageUseCase interface {
	List(ctx context.Context) ([]model.Language, error)
	// Get returns domain.ErrLanguageNotFound for unknown or inactive ids.
	Get(ctx context.Context, id int) (*model.Language, error)
	Seed(ctx context.Context, codes []string) (int, error)
}

// DefaultLanguageCodes is the target list offered on a fresh install.
var DefaultLanguageCodes = []string{
	"en", "es", "fr", "de", "it", "pt", "nl", "pl", "uk", "ru",
	"tr", "ar", "fa", "he", "hi", "zh-Hans", "zh-Hant", "ja", "ko", "id",
}

type languageUC struct {
	langs repository.LanguageRepository
	log   zerolog.Logger
}

func NewLanguageUseCase(langs repository.LanguageRepository, logger *zerolog.Logger) *languageUC {
	return &languageUC{langs: langs, log: logger.With().Str("component", "LanguageUC").Logger()}
}

func (l *languageUC) List(ctx context.Context) ([]model.Language, error) {
	all, err := l.langs.List(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("list languages: %w", err)
	}
	out := make([]model.Language, 0, len(all))
	for _, lang := range all {
		if lang.IsActive {
			out = append(out, lang)
		}
	}
	return out, nil
}

func (l *languageUC) Get(ctx context.Context, id int) (*model.Language, error) {
	if id <= 0 {
		return nil, domain.ErrLanguageNotFound
	}
	lang, err := l.langs.FindByID(ctx, nil, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrLanguageNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get language: %w", err)
	}
	if !lang.IsActive {
		return nil, domain.ErrLanguageNotFound
	}
	return lang, nil
}

// Seed upserts one active language per BCP 47 code, named in English.
func (l *languageUC) Seed(ctx context.Context, codes []string) (int, error) {
	n := 0
	for _, code := range codes {
		lang, err := LanguageFromCode(code)
		if err != nil {
			return n, err
		}
		if err := l.langs.Save(ctx, nil, lang); err != nil {
			return n, fmt.Errorf("seed language %s: %w", lang.Code, err)
		}
		n++
	}
	l.log.Info().Int("count", n).Msg("languages seeded")
	return n, nil
}

// LanguageFromCode validates a BCP 47 tag and names it in English.
func LanguageFromCode(code string) (*model.Language, error) {
	tag, err := language.Parse(strings.TrimSpace(code))
	if err != nil {
		return nil, fmt.Errorf("%w: language code %q: %v", domain.ErrInvalidArgument, code, err)
	}
	name := display.English.Tags().Name(tag)
	if name == "" {
		name = tag.String()
	}
	return &model.Language{Code: tag.String(), Name: name, IsActive: true}, nil
}
