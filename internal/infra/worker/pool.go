package worker

import (
	"context"
	"errors"
	"runtime"
	"sync"

	"github.com/rs/zerolog"

	"ai-document-translator/internal/domain"
	"ai-document-translator/internal/domain/ports/adapter"
)

var _ adapter.TaskQueue = (*Pool)(nil)

// Task is one unit of background work.
type Task = func(ctx context.Context) error

// Pool is a fixed set of goroutines draining a bounded queue. Every accepted
// task is invoked exactly once: tasks still queued at shutdown run with a
// cancelled context so they can record their own abort.
type Pool struct {
	wg      sync.WaitGroup
	mu      sync.RWMutex // guards closed against concurrent Submit
	closed  bool
	base    context.Context
	jobs    chan Task
	quit    chan struct{}
	n       int
	log     zerolog.Logger
	stopped sync.Once
}

func NewPool(workers, queueSize int, logger *zerolog.Logger) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if queueSize <= 0 {
		queueSize = workers * 4
	}
	log := zerolog.Nop()
	if logger != nil {
		log = logger.With().Str("component", "WorkerPool").Logger()
	}
	return &Pool{jobs: make(chan Task, queueSize), quit: make(chan struct{}), n: workers, log: log}
}

// Start launches the workers. Tasks receive ctx, so cancelling it aborts
// in-flight work; a worker seeing ctx end flushes the queue before exiting.
func (p *Pool) Start(ctx context.Context) {
	p.mu.Lock()
	p.base = ctx
	p.mu.Unlock()
	for i := 0; i < p.n; i++ {
		p.wg.Add(1)
		go func(id int) {
			defer p.wg.Done()
			for {
				select {
				case <-ctx.Done():
					p.drain(ctx, id)
					return
				case <-p.quit:
					return
				case task := <-p.jobs:
					p.run(ctx, id, task)
				}
			}
		}(i)
	}
	p.log.Info().Int("workers", p.n).Int("queue", cap(p.jobs)).Msg("worker pool started")
}

func (p *Pool) run(ctx context.Context, id int, task Task) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error().Int("worker", id).Interface("panic", r).Msg("task panicked")
		}
	}()
	if err := task(ctx); err != nil {
		p.log.Warn().Err(err).Int("worker", id).Msg("task error")
	}
}

// drain runs whatever is queued right now with ctx, without waiting for more.
func (p *Pool) drain(ctx context.Context, id int) int {
	n := 0
	for {
		select {
		case task := <-p.jobs:
			p.run(ctx, id, task)
			n++
		default:
			return n
		}
	}
}

// Stop refuses new work, waits for running tasks to return and then invokes
// the tasks left in the queue with a cancelled context.
func (p *Pool) Stop() {
	p.stopped.Do(func() {
		p.mu.Lock()
		p.closed = true
		base := p.base
		close(p.quit)
		p.mu.Unlock()
		p.wg.Wait()

		if base == nil {
			base = context.Background()
		}
		ctx, cancel := context.WithCancel(context.WithoutCancel(base))
		cancel()
		if n := p.drain(ctx, -1); n > 0 {
			p.log.Info().Int("tasks", n).Msg("queued tasks aborted at shutdown")
		}
	})
}

func (p *Pool) Submit(task Task) error {
	if task == nil {
		return errors.New("nil task")
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed || (p.base != nil && p.base.Err() != nil) {
		return domain.ErrQueueFull
	}
	select {
	case p.jobs <- task:
		return nil
	default:
		return domain.ErrQueueFull
	}
}
