//go:build !integration

package usecase

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"ai-document-translator/internal/domain/model"
	"ai-document-translator/internal/domain/ports/adapter"
	"ai-document-translator/internal/infra/prompts"
)

func newVerifier(ai adapter.AIService) *verifierUC {
	return NewVerifierUseCase(ai, prompts.MustDefault(), "", nopLogger())
}

func TestParseScore(t *testing.T) {
	tests := []struct {
		in       string
		score    float64
		feedback string
		ok       bool
	}{
		{"0.85|Good translation", 0.85, "Good translation", true},
		{" 0.7 | fine | with pipes ", 0.7, "fine | with pipes", true},
		{"1.4|too high", 1, "too high", true},
		{"-0.2|too low", 0, "too low", true},
		{"0.9", 0, "", false},
		{"great|ok", 0, "", false},
		{"NaN|bad", 0, "", false},
	}
	for _, tt := range tests {
		score, feedback, ok := ParseScore(tt.in)
		if ok != tt.ok || score != tt.score || feedback != tt.feedback {
			t.Errorf("ParseScore(%q) = %v, %q, %v; want %v, %q, %v", tt.in, score, feedback, ok, tt.score, tt.feedback, tt.ok)
		}
	}
}

func TestVerifyResponseQuality(t *testing.T) {
	t.Run("should reject an empty response without calling the model", func(t *testing.T) {
		ai := replyWith("0.9|ok")
		res := newVerifier(ai).VerifyResponseQuality(context.Background(), "translate this", "   ")
		if res.Success || res.ErrorMessage != msgEmptyResponse {
			t.Fatalf("unexpected result: %+v", res)
		}
		if ai.calls() != 0 {
			t.Fatalf("expected no model call, got %d", ai.calls())
		}
	})

	t.Run("should parse score and feedback", func(t *testing.T) {
		ai := replyWith("0.85|Good translation")
		res := newVerifier(ai).VerifyResponseQuality(context.Background(), "req", "resp")
		if !res.Success || res.QualityScore != 0.85 || res.Feedback != "Good translation" {
			t.Fatalf("unexpected result: %+v", res)
		}
		req := ai.requests[0]
		if req.Model != model.DefaultVerifyModel {
			t.Errorf("model = %q", req.Model)
		}
		if req.Temperature == nil || *req.Temperature != float32(verifyTemperature) {
			t.Errorf("temperature not set to %v", verifyTemperature)
		}
	})

	t.Run("should fail closed on an unparseable reply", func(t *testing.T) {
		res := newVerifier(replyWith("looks great")).VerifyResponseQuality(context.Background(), "req", "resp")
		if res.Success || res.ErrorMessage != msgParseVerification {
			t.Fatalf("unexpected result: %+v", res)
		}
	})

	t.Run("should fail closed on an empty reply", func(t *testing.T) {
		res := newVerifier(replyWith("  ")).VerifyResponseQuality(context.Background(), "req", "resp")
		if res.Success || res.ErrorMessage != msgEmptyVerification {
			t.Fatalf("unexpected result: %+v", res)
		}
	})

	t.Run("should surface provider failures", func(t *testing.T) {
		res := newVerifier(failingAI(adapter.FailureServer, "boom")).VerifyResponseQuality(context.Background(), "req", "resp")
		if res.Success || res.ErrorMessage != "boom" {
			t.Fatalf("unexpected result: %+v", res)
		}
	})
}

func TestVerifyTranslationBatch(t *testing.T) {
	t.Run("should verify all chunks with one call", func(t *testing.T) {
		ai := replyWith("0.9|Consistent")
		chunks := []model.ChunkTranslation{
			{Index: 2, Source: "c", Translated: "third"},
			{Index: 0, Source: "a", Translated: "first"},
			{Index: 1, Source: "b", Translated: "second"},
		}
		res := newVerifier(ai).VerifyTranslationBatch(context.Background(), chunks)
		if !res.Success || res.QualityScore != 0.9 || res.VerifiedChunks != 3 {
			t.Fatalf("unexpected result: %+v", res)
		}
		if ai.calls() != 1 {
			t.Fatalf("expected one call, got %d", ai.calls())
		}
		p := ai.lastPrompt()
		first, second, third := strings.Index(p, "first"), strings.Index(p, "second"), strings.Index(p, "third")
		if first < 0 || !(first < second && second < third) {
			t.Errorf("chunks not in index order in prompt:\n%s", p)
		}
	})

	t.Run("should reject an empty batch", func(t *testing.T) {
		res := newVerifier(replyWith("0.9|x")).VerifyTranslationBatch(context.Background(), nil)
		if res.Success || res.ErrorMessage != msgNoTranslations {
			t.Fatalf("unexpected result: %+v", res)
		}
	})

	t.Run("should warn on blank chunks and fail when nothing is left", func(t *testing.T) {
		ai := replyWith("0.9|x")
		res := newVerifier(ai).VerifyTranslationBatch(context.Background(), []model.ChunkTranslation{{Index: 0, Translated: " "}})
		if res.Success || res.ErrorMessage != msgNoSamples || len(res.ChunkWarnings) != 1 {
			t.Fatalf("unexpected result: %+v", res)
		}
		if ai.calls() != 0 {
			t.Fatalf("expected no call, got %d", ai.calls())
		}
	})

	t.Run("should truncate long chunks", func(t *testing.T) {
		ai := replyWith("0.8|ok")
		long := strings.Repeat("é", verifyChunkSampleRunes+50)
		res := newVerifier(ai).VerifyTranslationBatch(context.Background(), []model.ChunkTranslation{{Index: 0, Translated: long}})
		if !res.Success {
			t.Fatalf("unexpected result: %+v", res)
		}
		p := ai.lastPrompt()
		if !strings.Contains(p, truncatedMarker) {
			t.Fatal("truncation marker missing")
		}
		if strings.Contains(p, long) {
			t.Fatal("chunk was not truncated")
		}
	})

	t.Run("should report zero verified chunks on failure", func(t *testing.T) {
		res := newVerifier(replyWith("no score")).VerifyTranslationBatch(context.Background(), []model.ChunkTranslation{{Index: 0, Translated: "x"}})
		if res.Success || res.VerifiedChunks != 0 {
			t.Fatalf("unexpected result: %+v", res)
		}
	})
}

func TestTruncateRunes(t *testing.T) {
	if got := truncateRunes("héllo", 10, "…"); got != "héllo" {
		t.Errorf("short string changed: %q", got)
	}
	got := truncateRunes("héllo wörld", 5, "+")
	if got != "héllo+" || !utf8.ValidString(got) {
		t.Errorf("got %q", got)
	}
}
