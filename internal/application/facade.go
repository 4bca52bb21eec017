package application

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"ai-document-translator/internal/domain/model"
	"ai-document-translator/internal/usecase"
)

// Facade composes use cases into the commands the CLI exposes. Methods
// return printable summaries so the command layer only forwards them.
type Facade struct {
	Translations usecase.TranslationUseCase
	Languages    usecase.LanguageUseCase
}

// NewFacade accepts a nil Languages for runs without a database; seeding then
// returns an error.
func NewFacade(tr usecase.TranslationUseCase, langs usecase.LanguageUseCase) *Facade {
	return &Facade{Translations: tr, Languages: langs}
}

type TranslateRequest struct {
	Path   string
	Target string // BCP 47 code or an English language name
	Model  model.AIModel
	Format model.OutputFormat
}

func readSource(path string) (*model.SourceFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return &model.SourceFile{Name: filepath.Base(path), Data: data}, nil
}

// TargetName resolves a language code to its English name; anything that is
// not a valid tag is used verbatim.
func TargetName(target string) string {
	target = strings.TrimSpace(target)
	if lang, err := usecase.LanguageFromCode(target); err == nil {
		return lang.Name
	}
	return target
}

// Translate runs the pipeline synchronously. A failed run is returned as an
// error carrying the pipeline's message.
func (f *Facade) Translate(ctx context.Context, req TranslateRequest, progress usecase.ProgressFunc) (*model.DocumentTranslationResult, error) {
	if f.Translations == nil {
		return nil, fmt.Errorf("translation usecase not available")
	}
	target := TargetName(req.Target)
	if target == "" {
		return nil, fmt.Errorf("target language is required")
	}
	file, err := readSource(req.Path)
	if err != nil {
		return nil, err
	}
	res := f.Translations.TranslateDocument(ctx, model.TranslationInput{
		File:           *file,
		TargetLanguage: target,
		Model:          req.Model,
		OutputFormat:   req.Format,
	}, progress)
	if !res.Success {
		return res, fmt.Errorf("translate %s: %s", file.Name, res.ErrorMessage)
	}
	return res, nil
}

func (f *Facade) CountPages(ctx context.Context, path string) (int, error) {
	if f.Translations == nil {
		return 0, fmt.Errorf("translation usecase not available")
	}
	file, err := readSource(path)
	if err != nil {
		return 0, err
	}
	return f.Translations.CountPages(ctx, file)
}

func (f *Facade) SeedLanguages(ctx context.Context, codes []string) (string, error) {
	if f.Languages == nil {
		return "", fmt.Errorf("language usecase not available")
	}
	n, err := f.Languages.Seed(ctx, codes)
	if err != nil {
		return "", fmt.Errorf("seed languages: %w", err)
	}
	return fmt.Sprintf("Seeded %d languages.", n), nil
}

// Summary renders the human-readable outcome of a translation.
func Summary(res *model.DocumentTranslationResult, outPath string) string {
	sb := strings.Builder{}
	sb.WriteString(fmt.Sprintf("Wrote %s (%s)\n", outPath, res.OutputFormat))
	sb.WriteString(fmt.Sprintf("Words: %d, chunks: %d", res.WordCount, res.ChunkCount))
	if res.PageCount > 0 {
		sb.WriteString(fmt.Sprintf(", pages: %d", res.PageCount))
	}
	sb.WriteString(fmt.Sprintf("\nQuality: %.2f, cost: %.2f, time: %s\n", res.TranslationQualityScore, res.Cost, res.ProcessingTime.Round(time.Millisecond)))
	for _, w := range res.QualityWarnings {
		sb.WriteString("Warning: " + w + "\n")
	}
	if len(res.Suggestions) > 0 {
		sb.WriteString(fmt.Sprintf("\n%d suggestions:\n", len(res.Suggestions)))
		for _, s := range res.Suggestions {
			sb.WriteString(fmt.Sprintf("- [%v] %s\n", s.Type, s.Title))
		}
	}
	return sb.String()
}
