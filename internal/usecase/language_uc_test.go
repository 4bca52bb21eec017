//go:build !integration

package usecase

import (
	"context"
	"errors"
	"testing"

	"ai-document-translator/internal/domain"
)

func TestLanguageUseCase(t *testing.T) {
	ctx := context.Background()

	t.Run("should list only active languages", func(t *testing.T) {
		uc := NewLanguageUseCase(newMemLanguageRepo(langSpanish, langLatin), nopLogger())
		got, err := uc.List(ctx)
		if err != nil || len(got) != 1 || got[0].Code != "es" {
			t.Fatalf("got %+v err %v", got, err)
		}
	})

	t.Run("should treat unknown, inactive and invalid ids as not found", func(t *testing.T) {
		uc := NewLanguageUseCase(newMemLanguageRepo(langSpanish, langLatin), nopLogger())
		for _, id := range []int{0, -1, 2, 99} {
			if _, err := uc.Get(ctx, id); !errors.Is(err, domain.ErrLanguageNotFound) {
				t.Errorf("Get(%d): expected ErrLanguageNotFound, got %v", id, err)
			}
		}
		l, err := uc.Get(ctx, 1)
		if err != nil || l.Name != "Spanish" {
			t.Fatalf("got %+v err %v", l, err)
		}
	})

	t.Run("should seed and upsert by code", func(t *testing.T) {
		repo := newMemLanguageRepo()
		uc := NewLanguageUseCase(repo, nopLogger())
		n, err := uc.Seed(ctx, []string{"de", "fa", "de"})
		if err != nil || n != 3 {
			t.Fatalf("n=%d err=%v", n, err)
		}
		all, _ := uc.List(ctx)
		if len(all) != 2 {
			t.Fatalf("expected 2 languages, got %+v", all)
		}
		if all[0].Name != "German" || all[1].Name != "Persian" {
			t.Errorf("names = %q, %q", all[0].Name, all[1].Name)
		}
	})

	t.Run("should reject malformed codes", func(t *testing.T) {
		uc := NewLanguageUseCase(newMemLanguageRepo(), nopLogger())
		if _, err := uc.Seed(ctx, []string{"not a code!"}); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Fatalf("expected ErrInvalidArgument, got %v", err)
		}
	})
}

func TestDefaultLanguageCodesParse(t *testing.T) {
	for _, code := range DefaultLanguageCodes {
		l, err := LanguageFromCode(code)
		if err != nil {
			t.Errorf("%s: %v", code, err)
			continue
		}
		if l.Name == "" || !l.IsActive {
			t.Errorf("%s: %+v", code, l)
		}
	}
}
