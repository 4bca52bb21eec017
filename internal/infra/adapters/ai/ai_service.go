package ai

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"ai-document-translator/internal/domain/model"
	"ai-document-translator/internal/domain/ports/adapter"
	"ai-document-translator/internal/infra/logging"
	"ai-document-translator/internal/infra/metrics"
)

var _ adapter.AIService = (*AIService)(nil)

// providerNamer is implemented by MultiAIAdapter and forwarded by limitedAI.
type providerNamer interface {
	Provider(model string) string
}

// AIService normalizes provider replies into adapter.AIResponse. It performs
// exactly one transport call per request; retry policy belongs to callers.
type AIService struct {
	transport    adapter.AIServiceAdapter
	defaultModel model.AIModel
	log          zerolog.Logger
}

func NewAIService(transport adapter.AIServiceAdapter, defaultModel model.AIModel, logger *zerolog.Logger) *AIService {
	return &AIService{
		transport:    transport,
		defaultModel: defaultModel,
		log:          logger.With().Str("component", "AIService").Logger(),
	}
}

func (s *AIService) SendTextRequest(ctx context.Context, req adapter.AIRequest) adapter.AIResponse {
	return s.send(ctx, req, nil)
}

func (s *AIService) SendRequestWithImages(ctx context.Context, req adapter.AIRequest, images []adapter.ImageData) adapter.AIResponse {
	parts := make([]adapter.Part, 0, len(images))
	for _, img := range images {
		if len(img.Data) == 0 {
			continue
		}
		parts = append(parts, adapter.Part{Kind: adapter.PartImage, MimeType: img.MimeType, Data: img.Data})
	}
	return s.send(ctx, req, parts)
}

// SendRequestWithFile attaches typed parts. Text parts are appended to the
// prompt; binary parts travel as files.
func (s *AIService) SendRequestWithFile(ctx context.Context, req adapter.AIRequest, files []adapter.ContentFile) adapter.AIResponse {
	parts := make([]adapter.Part, 0, len(files))
	var texts []string
	for _, f := range files {
		if len(f.Data) == 0 {
			if strings.TrimSpace(f.Text) != "" {
				texts = append(texts, f.Text)
			}
			continue
		}
		kind := adapter.PartFile
		if strings.HasPrefix(f.MimeType, "image/") {
			kind = adapter.PartImage
		}
		parts = append(parts, adapter.Part{Kind: kind, MimeType: f.MimeType, Name: f.Name, Data: f.Data})
	}
	if len(texts) > 0 {
		req.Prompt = strings.TrimSpace(req.Prompt + "\n\n" + strings.Join(texts, "\n\n"))
	}
	return s.send(ctx, req, parts)
}

func (s *AIService) resolveModel(m model.AIModel) model.AIModel {
	if m.IsBasic() {
		return s.defaultModel
	}
	return m
}

func (s *AIService) send(ctx context.Context, req adapter.AIRequest, parts []adapter.Part) adapter.AIResponse {
	used := s.resolveModel(req.Model)
	resp := adapter.AIResponse{UsedModel: used}

	if s.transport == nil {
		resp.Failure = adapter.FailureUnavailable
		resp.ErrorMessage = "no ai provider configured"
		return resp
	}
	if strings.TrimSpace(req.Prompt) == "" && len(parts) == 0 {
		resp.Failure = adapter.FailureRejected
		resp.ErrorMessage = "empty prompt"
		return resp
	}

	msgs := make([]adapter.Message, 0, 2)
	if req.SystemPrompt != "" {
		msgs = append(msgs, adapter.Message{Role: "system", Content: req.SystemPrompt})
	}
	msgs = append(msgs, adapter.Message{Role: "user", Content: req.Prompt, Parts: parts})

	provider := string(used)
	if pn, ok := s.transport.(providerNamer); ok {
		provider = pn.Provider(string(used))
	}

	start := time.Now()
	text, usage, err := s.transport.ChatWithUsage(ctx, string(used), msgs, adapter.ChatOptions{
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	latency := time.Since(start).Milliseconds()
	resp.Usage = usage

	if err == nil && strings.TrimSpace(text) == "" {
		err = adapter.ErrEmptyCompletion
	}
	if err != nil {
		resp.Failure = adapter.Classify(err)
		resp.ErrorMessage = err.Error()
		metrics.ObserveAICall(provider, string(used), string(resp.Failure), 0, 0, latency)
		logging.With(ctx, &s.log).Warn().
			Err(err).
			Str("model", string(used)).
			Str("failure", string(resp.Failure)).
			Int64("latency_ms", latency).
			Msg("ai request failed")
		return resp
	}

	metrics.ObserveAICall(provider, string(used), "ok", usage.PromptTokens, usage.CompletionTokens, latency)
	resp.Success = true
	resp.Content = text
	return resp
}
