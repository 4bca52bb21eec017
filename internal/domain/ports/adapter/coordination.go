package adapter

import (
	"context"
	"errors"
	"time"
)

// ErrLockHeld is returned when another holder owns the lock.
var ErrLockHeld = errors.New("lock held by another owner")

// Locker is a distributed mutex keyed by name.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (token string, err error)
	Unlock(ctx context.Context, key, token string) error
}

// RateLimiter is a fixed-window counter.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// TaskQueue runs background work off the request path. Submit never blocks;
// a saturated queue returns domain.ErrQueueFull.
type TaskQueue interface {
	Submit(task func(ctx context.Context) error) error
}
