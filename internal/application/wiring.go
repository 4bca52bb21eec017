package application

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"ai-document-translator/internal/chunker"
	"ai-document-translator/internal/config"
	"ai-document-translator/internal/domain/model"
	"ai-document-translator/internal/domain/ports/adapter"
	aiAdapters "ai-document-translator/internal/infra/adapters/ai"
	"ai-document-translator/internal/infra/fileproc"
	"ai-document-translator/internal/infra/prompts"
	"ai-document-translator/internal/infra/tokenizer"
	"ai-document-translator/internal/usecase"
)

const maxOutputTokens = 8192

// Pipeline is the stateless part of the translation stack shared by the
// server and the CLI.
type Pipeline struct {
	AI       adapter.AIService
	Prompts  *prompts.Catalog
	Factory  *fileproc.Factory
	Verifier usecase.VerifierUseCase
	Counter  adapter.TokenCounter
}

// NewPipeline builds providers, prompts, processors and the verifier.
func NewPipeline(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*Pipeline, error) {
	counter, err := tokenizer.New(cfg.Translation.TokenEncoding)
	if err != nil {
		logger.Warn().Err(err).Str("encoding", cfg.Translation.TokenEncoding).Msg("tokenizer unavailable; using rune estimate")
	}

	svc, err := NewAIService(ctx, cfg.AI, counter, logger)
	if err != nil {
		return nil, err
	}

	catalog, err := prompts.Default()
	if err != nil {
		return nil, fmt.Errorf("prompts: %w", err)
	}

	factory := fileproc.NewDefaultFactory(fileproc.Deps{
		AI:      svc,
		Prompts: catalog,
		Chunks: chunker.Options{
			MaxChars:  cfg.Translation.MaxChunkChars,
			MaxTokens: cfg.Translation.MaxChunkTokens,
			Counter:   counter,
		},
		Logger: logger,
	})

	return &Pipeline{
		AI:       svc,
		Prompts:  catalog,
		Factory:  factory,
		Verifier: usecase.NewVerifierUseCase(svc, catalog, model.AIModel(cfg.AI.VerifierModel), logger),
		Counter:  counter,
	}, nil
}

// NewAIService wires one transport per configured key, routes by model name
// and caps concurrent calls.
func NewAIService(ctx context.Context, cfg config.AIConfig, counter adapter.TokenCounter, logger *zerolog.Logger) (*aiAdapters.AIService, error) {
	byProvider := map[string]adapter.AIServiceAdapter{}

	if cfg.OpenAIKey != "" {
		oa, err := aiAdapters.NewOpenAIAdapter(cfg.OpenAIKey, cfg.OpenAIBaseURL, string(model.ModelGPT4oMini), maxOutputTokens, cfg.RequestTimeout, counter)
		if err != nil {
			return nil, fmt.Errorf("openai adapter: %w", err)
		}
		byProvider[aiAdapters.ProviderOpenAI] = oa
	}
	if cfg.GeminiKey != "" {
		ga, err := aiAdapters.NewGeminiAdapter(ctx, cfg.GeminiKey, cfg.GeminiURL, string(model.ModelGemini25Flash), maxOutputTokens, cfg.RequestTimeout)
		if err != nil {
			return nil, fmt.Errorf("gemini adapter: %w", err)
		}
		byProvider[aiAdapters.ProviderGemini] = ga
	}
	if len(byProvider) == 0 {
		return nil, errors.New("no AI provider configured")
	}

	defaultProvider := aiAdapters.ProviderOpenAI
	if strings.HasPrefix(strings.ToLower(cfg.DefaultModel), "gemini") || byProvider[aiAdapters.ProviderOpenAI] == nil {
		defaultProvider = aiAdapters.ProviderGemini
	}
	multi := aiAdapters.NewMultiAIAdapter(defaultProvider, byProvider, nil)
	logger.Info().
		Str("default_provider", defaultProvider).
		Str("default_model", cfg.DefaultModel).
		Int("providers", len(byProvider)).
		Msg("AI providers ready")

	limited := aiAdapters.NewLimitedAI(multi, cfg.ConcurrentLimit)
	return aiAdapters.NewAIService(limited, model.AIModel(cfg.DefaultModel), logger), nil
}

// TranslationOptions maps the translation config onto use case knobs.
func TranslationOptions(cfg config.TranslationConfig) usecase.TranslationOptions {
	format, ok := model.ParseOutputFormat(cfg.DefaultOutputFormat)
	if !ok {
		format = model.FormatMarkdown
	}
	return usecase.TranslationOptions{
		Parallelism:      cfg.Parallelism,
		MaxRetries:       cfg.MaxRetries,
		BaseBackoff:      cfg.BaseBackoff,
		QualityThreshold: cfg.QualityThreshold,
		CostPerWord:      cfg.CostPerWord,
		MaxUploadBytes:   int64(cfg.MaxUploadMB) << 20,
		DefaultFormat:    format,
	}
}
