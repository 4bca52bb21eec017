// File: internal/infra/adapters/ai/multi_adapter.go
package ai

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"ai-document-translator/internal/domain/ports/adapter"
)

var _ adapter.AIServiceAdapter = (*MultiAIAdapter)(nil)

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// modelPrefixes maps model name prefixes to the provider serving them.
var modelPrefixes = []struct{ prefix, provider string }{
	{"gemini", ProviderGemini},
	{"gpt", ProviderOpenAI},
	{"o1", ProviderOpenAI},
	{"o3", ProviderOpenAI},
	{"o4", ProviderOpenAI},
}

// MultiAIAdapter routes each call to a provider transport by model name:
// explicit overrides first, then name prefixes, then the default provider.
// When the resolved provider has no transport, the first configured one in
// name order serves the call.
type MultiAIAdapter struct {
	defaultProvider string
	byProvider      map[string]adapter.AIServiceAdapter
	overrides       map[string]string // model -> provider
	order           []string
}

// NewMultiAIAdapter does not rewrite model names; each transport applies its
// own default when the model is empty.
func NewMultiAIAdapter(
	defaultProvider string,
	byProvider map[string]adapter.AIServiceAdapter,
	overrides map[string]string,
) *MultiAIAdapter {
	order := make([]string, 0, len(byProvider))
	for name, a := range byProvider {
		if a != nil {
			order = append(order, name)
		}
	}
	sort.Strings(order)
	return &MultiAIAdapter{
		defaultProvider: strings.ToLower(defaultProvider),
		byProvider:      byProvider,
		overrides:       overrides,
		order:           order,
	}
}

// Provider names the provider a model routes to.
func (m *MultiAIAdapter) Provider(model string) string {
	if p := m.overrides[model]; p != "" {
		return strings.ToLower(p)
	}
	l := strings.ToLower(model)
	for _, mp := range modelPrefixes {
		if strings.HasPrefix(l, mp.prefix) {
			return mp.provider
		}
	}
	return m.defaultProvider
}

func (m *MultiAIAdapter) pick(model string) (adapter.AIServiceAdapter, error) {
	if a := m.byProvider[m.Provider(model)]; a != nil {
		return a, nil
	}
	if len(m.order) > 0 {
		return m.byProvider[m.order[0]], nil
	}
	return nil, fmt.Errorf("no ai provider configured for model %q", model)
}

// ListModels merges override keys with every provider's list, sorted.
// Providers that fail to list are skipped.
func (m *MultiAIAdapter) ListModels(ctx context.Context) ([]string, error) {
	seen := map[string]struct{}{}
	for name := range m.overrides {
		seen[name] = struct{}{}
	}
	for _, p := range m.order {
		list, err := m.byProvider[p].ListModels(ctx)
		if err != nil {
			continue
		}
		for _, name := range list {
			if name != "" {
				seen[name] = struct{}{}
			}
		}
	}
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out, nil
}

func (m *MultiAIAdapter) GetModelInfo(model string) (adapter.ModelInfo, error) {
	a, err := m.pick(model)
	if err != nil {
		return adapter.ModelInfo{Name: model}, err
	}
	return a.GetModelInfo(model)
}

func (m *MultiAIAdapter) CountTokens(ctx context.Context, model string, messages []adapter.Message) (int, error) {
	a, err := m.pick(model)
	if err != nil {
		return 0, err
	}
	return a.CountTokens(ctx, model, messages)
}

func (m *MultiAIAdapter) ChatWithUsage(ctx context.Context, model string, messages []adapter.Message, opts adapter.ChatOptions) (string, adapter.Usage, error) {
	a, err := m.pick(model)
	if err != nil {
		return "", adapter.Usage{}, err
	}
	return a.ChatWithUsage(ctx, model, messages, opts)
}
