package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"ai-document-translator/internal/domain/model"
	"ai-document-translator/internal/domain/ports/repository"
	red "ai-document-translator/internal/infra/redis"
)

var _ repository.LanguageRepository = (*languageRepoCacheDecorator)(nil)

const (
	languageListKey  = "languages:all"
	defaultLangCache = time.Hour
)

// languageRepoCacheDecorator caches reads that run outside a transaction.
type languageRepoCacheDecorator struct {
	inner repository.LanguageRepository
	cache *red.Cache
	ttl   time.Duration
}

func NewLanguageRepoCacheDecorator(inner repository.LanguageRepository, client red.RedisClient, ttl time.Duration, logger *zerolog.Logger) repository.LanguageRepository {
	if ttl <= 0 {
		ttl = defaultLangCache
	}
	return &languageRepoCacheDecorator{
		inner: inner,
		cache: red.NewCache(client, "language", logger),
		ttl:   ttl,
	}
}

func languageKey(id int) string { return fmt.Sprintf("language:%d", id) }

func (d *languageRepoCacheDecorator) FindByID(ctx context.Context, qx any, id int) (*model.Language, error) {
	if qx != nil {
		return d.inner.FindByID(ctx, qx, id)
	}
	var l model.Language
	err := d.cache.GetOrCreate(ctx, languageKey(id), d.ttl, &l, func(ctx context.Context) (any, error) {
		return d.inner.FindByID(ctx, nil, id)
	})
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (d *languageRepoCacheDecorator) List(ctx context.Context, qx any) ([]model.Language, error) {
	if qx != nil {
		return d.inner.List(ctx, qx)
	}
	var out []model.Language
	err := d.cache.GetOrCreate(ctx, languageListKey, d.ttl, &out, func(ctx context.Context) (any, error) {
		return d.inner.List(ctx, nil)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (d *languageRepoCacheDecorator) Save(ctx context.Context, qx any, lang *model.Language) error {
	if err := d.inner.Save(ctx, qx, lang); err != nil {
		return err
	}
	d.cache.Invalidate(ctx, languageKey(lang.ID), languageListKey)
	return nil
}
