package ai

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"time"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"ai-document-translator/internal/domain/ports/adapter"
)

// Compile-time assurance this adapter satisfies the port
var _ adapter.AIServiceAdapter = (*OpenAIAdapter)(nil)

const providerOpenAI = "openai"

// OpenAIAdapter implements adapter.AIServiceAdapter using the Chat Completions API.
// A non-empty base URL points it at an OpenAI-compatible gateway.
type OpenAIAdapter struct {
	client  openai.Client
	model   string
	maxOut  int
	counter adapter.TokenCounter
}

func NewOpenAIAdapter(apiKey, baseURL, model string, maxOut int, timeout time.Duration, counter adapter.TokenCounter) (*OpenAIAdapter, error) {
	if apiKey == "" {
		return nil, errors.New("openai api key empty")
	}
	if model == "" {
		model = "gpt-4o-mini"
	}
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		// retries are owned by the caller
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(timeout))
	}
	return &OpenAIAdapter{
		client:  openai.NewClient(opts...),
		model:   model,
		maxOut:  maxOut,
		counter: counter,
	}, nil
}

func (o *OpenAIAdapter) ListModels(ctx context.Context) ([]string, error) {
	return []string{o.model}, nil
}

func (o *OpenAIAdapter) GetModelInfo(model string) (adapter.ModelInfo, error) {
	return adapter.ModelInfo{
		Name:          modelOrDefault(model, o.model),
		Provider:      providerOpenAI,
		ContextWindow: 128000,
		Supports:      []string{"text", "image", "file"},
	}, nil
}

// CountTokens has no API endpoint; it uses the local counter when present.
func (o *OpenAIAdapter) CountTokens(ctx context.Context, model string, messages []adapter.Message) (int, error) {
	if o.counter == nil {
		return 0, nil
	}
	n := 0
	for _, m := range messages {
		n += o.counter.Count(m.Content)
	}
	return n, nil
}

func (o *OpenAIAdapter) ChatWithUsage(ctx context.Context, model string, messages []adapter.Message, opts adapter.ChatOptions) (string, adapter.Usage, error) {
	if len(messages) == 0 {
		return "", adapter.Usage{}, errors.New("openai: no messages")
	}
	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(modelOrDefault(model, o.model)),
		Messages: toOpenAIMessages(messages),
	}
	switch {
	case opts.MaxTokens > 0:
		params.MaxCompletionTokens = openai.Int(int64(opts.MaxTokens))
	case o.maxOut > 0:
		params.MaxCompletionTokens = openai.Int(int64(o.maxOut))
	}
	if opts.Temperature != nil {
		params.Temperature = openai.Float(float64(*opts.Temperature))
	}

	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		var apierr *openai.Error
		if errors.As(err, &apierr) {
			return "", adapter.Usage{}, &adapter.TransportError{Provider: providerOpenAI, StatusCode: apierr.StatusCode, Err: err}
		}
		return "", adapter.Usage{}, err
	}

	u := adapter.Usage{
		PromptTokens:     int(resp.Usage.PromptTokens),
		CompletionTokens: int(resp.Usage.CompletionTokens),
		TotalTokens:      int(resp.Usage.TotalTokens),
	}
	for _, c := range resp.Choices {
		if strings.TrimSpace(c.Message.Content) != "" {
			return c.Message.Content, u, nil
		}
	}
	return "", u, adapter.ErrEmptyCompletion
}

func toOpenAIMessages(msgs []adapter.Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(msgs))
	for _, m := range msgs {
		switch strings.ToLower(m.Role) {
		case "system":
			out = append(out, openai.SystemMessage(m.Content))
		case "assistant", "model":
			out = append(out, openai.AssistantMessage(m.Content))
		default:
			if len(m.Parts) == 0 {
				out = append(out, openai.UserMessage(m.Content))
				continue
			}
			out = append(out, openai.UserMessage(toOpenAIParts(m)))
		}
	}
	return out
}

func toOpenAIParts(m adapter.Message) []openai.ChatCompletionContentPartUnionParam {
	parts := make([]openai.ChatCompletionContentPartUnionParam, 0, len(m.Parts)+1)
	for _, p := range m.Parts {
		url := dataURL(p.MimeType, p.Data)
		switch p.Kind {
		case adapter.PartImage:
			parts = append(parts, openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{URL: url}))
		default:
			name := p.Name
			if name == "" {
				name = "document"
			}
			parts = append(parts, openai.FileContentPart(openai.ChatCompletionContentPartFileFileParam{
				FileData: openai.String(url),
				Filename: openai.String(name),
			}))
		}
	}
	if m.Content != "" {
		parts = append(parts, openai.TextContentPart(m.Content))
	}
	return parts
}

func dataURL(mime string, data []byte) string {
	if mime == "" {
		mime = "application/octet-stream"
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}
