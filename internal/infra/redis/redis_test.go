//go:build !integration

package redis

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"

	"ai-document-translator/internal/domain/ports/adapter"
)

// memClient is an in-memory RedisClient without expiry.
type memClient struct {
	mu     sync.Mutex
	data   map[string]string
	getErr error
}

func newMemClient() *memClient { return &memClient{data: map[string]string{}} }

var _ RedisClient = (*memClient)(nil)

func (m *memClient) Ping(ctx context.Context) error { return nil }
func (m *memClient) Set(ctx context.Context, key string, value interface{}, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch v := value.(type) {
	case []byte:
		m.data[key] = string(v)
	case string:
		m.data[key] = v
	}
	return nil
}
func (m *memClient) SetNX(ctx context.Context, key string, value interface{}, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[key]; ok {
		return false, nil
	}
	m.data[key] = value.(string)
	return true, nil
}
func (m *memClient) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return "", m.getErr
	}
	v, ok := m.data[key]
	if !ok {
		return "", redis.Nil
	}
	return v, nil
}
func (m *memClient) Incr(ctx context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	if v, ok := m.data[key]; ok {
		n = int64(len(v))
	}
	n++
	m.data[key] = string(make([]byte, n))
	return n, nil
}
func (m *memClient) Expire(ctx context.Context, key string, _ time.Duration) error { return nil }
func (m *memClient) Del(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}
func (m *memClient) DelIfEquals(ctx context.Context, key, value string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data[key] != value {
		return false, nil
	}
	delete(m.data, key)
	return true, nil
}
func (m *memClient) Close() error { return nil }

type item struct {
	Name string `json:"name"`
}

func TestCache_GetOrCreate(t *testing.T) {
	ctx := context.Background()
	nop := zerolog.Nop()

	t.Run("should call the factory once and then hit", func(t *testing.T) {
		c := NewCache(newMemClient(), "test", &nop)
		calls := 0
		factory := func(ctx context.Context) (any, error) {
			calls++
			return item{Name: "es"}, nil
		}
		for i := 0; i < 2; i++ {
			var got item
			if err := c.GetOrCreate(ctx, "k", time.Minute, &got, factory); err != nil {
				t.Fatal(err)
			}
			if got.Name != "es" {
				t.Fatalf("got %+v", got)
			}
		}
		if calls != 1 {
			t.Fatalf("factory calls = %d, want 1", calls)
		}
	})

	t.Run("should fall back to the factory when redis fails", func(t *testing.T) {
		cli := newMemClient()
		cli.getErr = errors.New("connection refused")
		c := NewCache(cli, "test", &nop)
		var got item
		err := c.GetOrCreate(ctx, "k", time.Minute, &got, func(ctx context.Context) (any, error) {
			return item{Name: "fr"}, nil
		})
		if err != nil || got.Name != "fr" {
			t.Fatalf("got %+v, %v", got, err)
		}
	})

	t.Run("should drop undecodable entries", func(t *testing.T) {
		cli := newMemClient()
		cli.data["k"] = "{not json"
		c := NewCache(cli, "test", &nop)
		var got item
		_ = c.GetOrCreate(ctx, "k", time.Minute, &got, func(ctx context.Context) (any, error) {
			return item{Name: "de"}, nil
		})
		if got.Name != "de" || cli.data["k"] != `{"name":"de"}` {
			t.Fatalf("got %+v stored %q", got, cli.data["k"])
		}
	})

	t.Run("should not store factory errors", func(t *testing.T) {
		cli := newMemClient()
		c := NewCache(cli, "test", &nop)
		boom := errors.New("boom")
		var got item
		if err := c.GetOrCreate(ctx, "k", time.Minute, &got, func(ctx context.Context) (any, error) {
			return nil, boom
		}); !errors.Is(err, boom) {
			t.Fatalf("expected %v, got %v", boom, err)
		}
		if _, ok := cli.data["k"]; ok {
			t.Fatal("error result was cached")
		}
	})

	t.Run("should invalidate keys", func(t *testing.T) {
		cli := newMemClient()
		cli.data["a"], cli.data["b"] = "1", "2"
		NewCache(cli, "test", &nop).Invalidate(ctx, "a", "b")
		if len(cli.data) != 0 {
			t.Fatalf("data = %v", cli.data)
		}
	})
}

func TestLocker(t *testing.T) {
	ctx := context.Background()
	cli := newMemClient()
	l := NewLocker(cli, 2)
	l.wait = time.Millisecond

	token, err := l.TryLock(ctx, "sched:x", time.Minute)
	if err != nil {
		t.Fatalf("TryLock: %v", err)
	}
	if _, err := l.TryLock(ctx, "sched:x", time.Minute); !errors.Is(err, adapter.ErrLockHeld) {
		t.Fatalf("expected ErrLockHeld, got %v", err)
	}
	if err := l.Unlock(ctx, "sched:x", "other"); err != nil {
		t.Fatal(err)
	}
	if _, ok := cli.data["sched:x"]; !ok {
		t.Fatal("foreign token released the lock")
	}
	_ = l.Unlock(ctx, "sched:x", token)
	if _, err := l.TryLock(ctx, "sched:x", time.Minute); err != nil {
		t.Fatalf("relock: %v", err)
	}
}

func TestRateLimiter(t *testing.T) {
	ctx := context.Background()
	rl := NewRateLimiter(newMemClient())
	key := UserActionKey("user-1", "upload")
	for i := 0; i < 3; i++ {
		ok, err := rl.Allow(ctx, key, 3, time.Minute)
		if err != nil || !ok {
			t.Fatalf("request %d denied: %v", i+1, err)
		}
	}
	if ok, _ := rl.Allow(ctx, key, 3, time.Minute); ok {
		t.Fatal("fourth request should be denied")
	}
	if key != "rate_limit:user-1:upload" {
		t.Fatalf("key = %q", key)
	}
}
