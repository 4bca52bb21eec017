//go:build !integration

package postgres

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"

	"ai-document-translator/internal/domain/model"
	"ai-document-translator/internal/domain/ports/repository"
	red "ai-document-translator/internal/infra/redis"
)

// mockInnerLanguageRepo mocks the database repository that the language decorator wraps.
type mockInnerLanguageRepo struct {
	FindByIDFunc func(ctx context.Context, qx any, id int) (*model.Language, error)
	ListFunc     func(ctx context.Context, qx any) ([]model.Language, error)
	SaveFunc     func(ctx context.Context, qx any, lang *model.Language) error
}

var _ repository.LanguageRepository = (*mockInnerLanguageRepo)(nil)

func (m *mockInnerLanguageRepo) FindByID(ctx context.Context, qx any, id int) (*model.Language, error) {
	return m.FindByIDFunc(ctx, qx, id)
}
func (m *mockInnerLanguageRepo) List(ctx context.Context, qx any) ([]model.Language, error) {
	return m.ListFunc(ctx, qx)
}
func (m *mockInnerLanguageRepo) Save(ctx context.Context, qx any, lang *model.Language) error {
	return m.SaveFunc(ctx, qx, lang)
}

// mockRedisClient mocks our Redis client wrapper. Unset funcs behave like an
// empty, healthy Redis.
type mockRedisClient struct {
	GetFunc func(ctx context.Context, key string) (string, error)
	SetFunc func(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	DelFunc func(ctx context.Context, keys ...string) error
}

var _ red.RedisClient = &mockRedisClient{}

func (m *mockRedisClient) Get(ctx context.Context, key string) (string, error) {
	if m.GetFunc == nil {
		return "", redis.Nil
	}
	return m.GetFunc(ctx, key)
}
func (m *mockRedisClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	if m.SetFunc == nil {
		return nil
	}
	return m.SetFunc(ctx, key, value, expiration)
}
func (m *mockRedisClient) Del(ctx context.Context, keys ...string) error {
	if m.DelFunc == nil {
		return nil
	}
	return m.DelFunc(ctx, keys...)
}
func (m *mockRedisClient) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error) {
	return true, nil
}
func (m *mockRedisClient) DelIfEquals(ctx context.Context, key, value string) (bool, error) {
	return true, nil
}
func (m *mockRedisClient) Ping(ctx context.Context) error                      { return nil }
func (m *mockRedisClient) Incr(ctx context.Context, key string) (int64, error) { return 1, nil }
func (m *mockRedisClient) Expire(ctx context.Context, key string, _ time.Duration) error {
	return nil
}
func (m *mockRedisClient) Close() error { return nil }
