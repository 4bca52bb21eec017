//go:build !integration

package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"ai-document-translator/internal/domain/ports/adapter"
)

type fakeLocker struct {
	mu       sync.Mutex
	held     bool
	err      error
	unlocked int
}

func (l *fakeLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return "", l.err
	}
	if l.held {
		return "", adapter.ErrLockHeld
	}
	return "token", nil
}

func (l *fakeLocker) Unlock(ctx context.Context, key, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.unlocked++
	return nil
}

func TestScheduler_RunOnce(t *testing.T) {
	nop := zerolog.Nop()
	ctx := context.Background()

	t.Run("should run under the lock and release it", func(t *testing.T) {
		l := &fakeLocker{}
		var ran int32
		s := NewScheduler("t", func(ctx context.Context) error {
			atomic.AddInt32(&ran, 1)
			return nil
		}, Options{Locker: l}, &nop)
		if err := s.RunOnce(ctx); err != nil {
			t.Fatal(err)
		}
		if ran != 1 || l.unlocked != 1 {
			t.Fatalf("ran=%d unlocked=%d", ran, l.unlocked)
		}
	})

	t.Run("should skip quietly when another replica holds the lock", func(t *testing.T) {
		s := NewScheduler("t", func(ctx context.Context) error {
			t.Error("task must not run")
			return nil
		}, Options{Locker: &fakeLocker{held: true}}, &nop)
		if err := s.RunOnce(ctx); err != nil {
			t.Fatalf("expected nil, got %v", err)
		}
	})

	t.Run("should report lock backend errors", func(t *testing.T) {
		boom := errors.New("redis down")
		s := NewScheduler("t", func(ctx context.Context) error { return nil }, Options{Locker: &fakeLocker{err: boom}}, &nop)
		if err := s.RunOnce(ctx); !errors.Is(err, boom) {
			t.Fatalf("expected %v, got %v", boom, err)
		}
	})
}

func TestScheduler_Loop(t *testing.T) {
	nop := zerolog.Nop()

	t.Run("should keep running after failures", func(t *testing.T) {
		var calls int32
		s := NewScheduler("t", func(ctx context.Context) error {
			atomic.AddInt32(&calls, 1)
			return errors.New("fail")
		}, Options{Interval: time.Hour, RetryDelay: 5 * time.Millisecond, RunAtStart: true}, &nop)

		s.Start(context.Background())
		deadline := time.Now().Add(2 * time.Second)
		for atomic.LoadInt32(&calls) < 3 && time.Now().Before(deadline) {
			time.Sleep(5 * time.Millisecond)
		}
		s.Stop()
		if n := atomic.LoadInt32(&calls); n < 3 {
			t.Fatalf("calls = %d, want retries after failure", n)
		}
	})

	t.Run("should stop idempotently", func(t *testing.T) {
		s := NewScheduler("t", func(ctx context.Context) error { return nil }, Options{Interval: time.Hour}, &nop)
		s.Stop()
		s.Start(context.Background())
		s.Stop()
		s.Stop()
	})
}
