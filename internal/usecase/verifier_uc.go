package usecase

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"ai-document-translator/internal/domain/model"
	"ai-document-translator/internal/domain/ports/adapter"
	"ai-document-translator/internal/infra/metrics"
	"ai-document-translator/internal/infra/prompts"
)

var _ VerifierUseCase = (*verifierUC)(nil)

// VerifierUseCase scores text with a grading model. Scores are advisory.
type VerifierUseCase interface {
	VerifyResponseQuality(ctx context.Context, request, response string) model.VerificationResult
	VerifyTranslationBatch(ctx context.Context, chunks []model.ChunkTranslation) model.BatchVerificationResult
	EvaluateTranslationQuality(ctx context.Context, prompt string) model.VerificationResult
}

const (
	verifyTemperature      = 0.3
	verifyChunkSampleRunes = 3000
	evaluatePromptRunes    = 6000
	truncatedMarker        = "... [truncated for verification]"

	msgEmptyResponse     = "Empty response content"
	msgEmptyVerification = "Empty response from verification service"
	msgParseVerification = "Failed to parse verification response"
	msgNoTranslations    = "No translations provided for verification"
	msgNoSamples         = "Failed to verify any translation samples"
)

type verifierUC struct {
	ai      adapter.AIService
	prompts *prompts.Catalog
	model   model.AIModel
	log     zerolog.Logger
}

func NewVerifierUseCase(ai adapter.AIService, p *prompts.Catalog, verifierModel model.AIModel, logger *zerolog.Logger) *verifierUC {
	if verifierModel == "" {
		verifierModel = model.DefaultVerifyModel
	}
	return &verifierUC{
		ai:      ai,
		prompts: p,
		model:   verifierModel,
		log:     logger.With().Str("component", "VerifierUC").Logger(),
	}
}

func (v *verifierUC) VerifyResponseQuality(ctx context.Context, request, response string) model.VerificationResult {
	if strings.TrimSpace(response) == "" {
		return model.VerificationResult{ErrorMessage: msgEmptyResponse}
	}
	return v.score(ctx, v.prompts.T(prompts.VerifyResponse, request, response))
}

func (v *verifierUC) VerifyTranslationBatch(ctx context.Context, chunks []model.ChunkTranslation) model.BatchVerificationResult {
	if len(chunks) == 0 {
		return model.BatchVerificationResult{VerificationResult: model.VerificationResult{ErrorMessage: msgNoTranslations}}
	}

	ordered := make([]model.ChunkTranslation, len(chunks))
	copy(ordered, chunks)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Index < ordered[j].Index })

	var (
		sb       strings.Builder
		warnings []string
		sampled  int
	)
	for _, c := range ordered {
		text := strings.TrimSpace(c.Translated)
		if text == "" {
			warnings = append(warnings, fmt.Sprintf("chunk %d: empty translation", c.Index))
			continue
		}
		if sampled > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(v.prompts.T(prompts.VerifyChunkHeader, c.Index))
		sb.WriteString("\n")
		sb.WriteString(truncateRunes(text, verifyChunkSampleRunes, truncatedMarker))
		sampled++
	}

	out := model.BatchVerificationResult{ChunkWarnings: warnings}
	if sampled == 0 {
		out.ErrorMessage = msgNoSamples
		metrics.IncVerificationFailure()
		return out
	}

	out.VerificationResult = v.score(ctx, v.prompts.T(prompts.VerifyBatch, sampled, sb.String()))
	if out.Success {
		out.VerifiedChunks = len(chunks)
	}
	return out
}

func (v *verifierUC) EvaluateTranslationQuality(ctx context.Context, prompt string) model.VerificationResult {
	if strings.TrimSpace(prompt) == "" {
		return model.VerificationResult{ErrorMessage: msgEmptyResponse}
	}
	return v.score(ctx, truncateRunes(prompt, evaluatePromptRunes, ""))
}

func (v *verifierUC) score(ctx context.Context, prompt string) model.VerificationResult {
	temp := float32(verifyTemperature)
	resp := v.ai.SendTextRequest(ctx, adapter.AIRequest{
		Model:        v.model,
		SystemPrompt: v.prompts.T(prompts.VerifySystem),
		Prompt:       prompt,
		Temperature:  &temp,
	})
	if !resp.Success {
		metrics.IncVerificationFailure()
		v.log.Warn().Str("failure", string(resp.Failure)).Str("error", resp.ErrorMessage).Msg("verification call failed")
		return model.VerificationResult{ErrorMessage: resp.ErrorMessage}
	}
	if strings.TrimSpace(resp.Content) == "" {
		metrics.IncVerificationFailure()
		return model.VerificationResult{ErrorMessage: msgEmptyVerification}
	}
	score, feedback, ok := ParseScore(resp.Content)
	if !ok {
		metrics.IncVerificationFailure()
		v.log.Warn().Str("reply", truncateRunes(resp.Content, 200, "...")).Msg("unparseable verification reply")
		return model.VerificationResult{ErrorMessage: msgParseVerification}
	}
	return model.VerificationResult{Success: true, QualityScore: score, Feedback: feedback}
}

// ParseScore reads "<score>|<feedback>". The split is on the first '|';
// the score is clamped to [0,1].
func ParseScore(reply string) (float64, string, bool) {
	head, tail, found := strings.Cut(strings.TrimSpace(reply), "|")
	if !found {
		return 0, "", false
	}
	score, err := strconv.ParseFloat(strings.TrimSpace(head), 64)
	if err != nil || math.IsNaN(score) {
		return 0, "", false
	}
	switch {
	case score < 0:
		score = 0
	case score > 1:
		score = 1
	}
	return score, strings.TrimSpace(tail), true
}

// truncateRunes keeps the first n runes of s and appends marker when it cut.
func truncateRunes(s string, n int, marker string) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + marker
}
