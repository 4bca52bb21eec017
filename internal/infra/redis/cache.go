package redis

import (
	"context"
	"encoding/json"
	"time"

	"ai-document-translator/internal/infra/metrics"

	"github.com/rs/zerolog"
)

// Cache is a JSON cache-aside helper over RedisClient. Redis failures degrade
// to calling the factory; they are logged, never returned.
type Cache struct {
	client RedisClient
	name   string
	log    zerolog.Logger
}

func NewCache(client RedisClient, name string, logger *zerolog.Logger) *Cache {
	return &Cache{
		client: client,
		name:   name,
		log:    logger.With().Str("component", "Cache").Str("cache", name).Logger(),
	}
}

// GetOrCreate fills dest from key, or from factory on a miss and stores the
// factory's value for ttl.
func (c *Cache) GetOrCreate(ctx context.Context, key string, ttl time.Duration, dest any, factory func(ctx context.Context) (any, error)) error {
	val, err := c.client.Get(ctx, key)
	if err == nil {
		if jerr := json.Unmarshal([]byte(val), dest); jerr == nil {
			metrics.IncCacheRequest(c.name, "hit")
			return nil
		}
		c.log.Warn().Str("key", key).Msg("dropping undecodable cache entry")
		_ = c.client.Del(ctx, key)
	} else if !IsNil(err) {
		metrics.IncCacheRequest(c.name, "error")
		c.log.Warn().Err(err).Str("key", key).Msg("cache get failed")
	}

	metrics.IncCacheRequest(c.name, "miss")
	v, err := factory(ctx)
	if err != nil {
		return err
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(b, dest); err != nil {
		return err
	}
	if serr := c.client.Set(ctx, key, b, ttl); serr != nil {
		c.log.Warn().Err(serr).Str("key", key).Msg("cache set failed")
	}
	return nil
}

func (c *Cache) Invalidate(ctx context.Context, keys ...string) {
	if err := c.client.Del(ctx, keys...); err != nil {
		c.log.Warn().Err(err).Strs("keys", keys).Msg("cache invalidate failed")
	}
}
