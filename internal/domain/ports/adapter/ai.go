package adapter

import (
	"context"

	"ai-document-translator/internal/domain/model"
)

// PartKind tags a non-text message part.
type PartKind string

const (
	PartImage PartKind = "image"
	PartFile  PartKind = "file"
)

// Part is binary content attached to a message.
type Part struct {
	Kind     PartKind
	MimeType string
	Name     string
	Data     []byte
}

// Message represents a chat message.
type Message struct {
	Role    string `json:"role"` // "user", "assistant", "system"
	Content string `json:"content"`
	Parts   []Part `json:"-"`
}

// ChatOptions are per-call generation knobs.
type ChatOptions struct {
	Temperature *float32
	MaxTokens   int
}

// ModelInfo describes a model.
type ModelInfo struct {
	Name          string
	Provider      string
	ContextWindow int
	Supports      []string
}

// Usage for a single chat call.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// AIServiceAdapter is the transport port for one LLM provider.
type AIServiceAdapter interface {
	ListModels(ctx context.Context) ([]string, error)
	GetModelInfo(model string) (ModelInfo, error)

	// CountTokens is best-effort for providers without a counting endpoint.
	CountTokens(ctx context.Context, model string, messages []Message) (int, error)

	// ChatWithUsage returns assistant text + usage as reported by the provider.
	// Errors carry a *TransportError when the provider reported a status.
	ChatWithUsage(ctx context.Context, model string, messages []Message, opts ChatOptions) (string, Usage, error)
}

// AIRequest is a provider-neutral prompt.
type AIRequest struct {
	Model        model.AIModel
	SystemPrompt string
	Prompt       string
	Temperature  *float32
	MaxTokens    int
}

// ImageData is a base64-free image payload.
type ImageData struct {
	Data     []byte
	MimeType string
}

// ContentFile is a typed content part. Text parts have empty Data.
type ContentFile struct {
	Name     string
	MimeType string
	Text     string
	Data     []byte
}

// AIResponse is the normalized envelope every AIService call returns.
type AIResponse struct {
	Success      bool
	Content      string
	ErrorMessage string
	UsedModel    model.AIModel
	Failure      FailureKind
	Usage        Usage
}

// AIService is the provider abstraction the pipeline talks to. It never
// retries; callers read Failure to decide.
type AIService interface {
	SendTextRequest(ctx context.Context, req AIRequest) AIResponse
	SendRequestWithImages(ctx context.Context, req AIRequest, images []ImageData) AIResponse
	SendRequestWithFile(ctx context.Context, req AIRequest, files []ContentFile) AIResponse
}

// TokenCounter counts tokens for chunk budgeting.
type TokenCounter interface {
	Count(text string) int
}
