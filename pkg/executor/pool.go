package executor

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/sanketnighot/hookified/pkg/types"
)

const (
	defaultWorkers   = 4
	defaultQueueSize = 64
)

// Job is one async firing handed off by an inbound webhook or provider
// notification handler.
type Job struct {
	Hook    *types.Hook
	Context *types.TriggerContext
}

// Pool is a bounded worker pool for async firings. The inbound handler
// acknowledges receipt immediately and enqueues; execution proceeds
// out-of-band. The contract is best-effort: overflow and execution
// failures after acknowledgment are logged, never retried here.
type Pool struct {
	queue   chan Job
	workers int
	engine  *Engine
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
}

func NewPool(engine *Engine, cfg types.ExecutorConfig) *Pool {
	workers := cfg.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}
	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	return &Pool{
		queue:   make(chan Job, queueSize),
		workers: workers,
		engine:  engine,
	}
}

// Start spawns the worker goroutines.
func (p *Pool) Start(ctx context.Context) {
	p.ctx, p.cancel = context.WithCancel(ctx)
	log.Info().Int("workers", p.workers).Int("queue", cap(p.queue)).Msg("executor pool started")
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

// Enqueue hands off a firing. Returns false when the queue is full; the
// firing is dropped and logged.
func (p *Pool) Enqueue(job Job) bool {
	select {
	case p.queue <- job:
		return true
	default:
		log.Warn().Str("hook", job.Hook.ExternalId).Msg("executor queue full, dropping firing")
		return false
	}
}

// Stop cancels workers and waits for in-flight runs to finish.
func (p *Pool) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for {
		select {
		case <-p.ctx.Done():
			return
		case job := <-p.queue:
			if _, err := p.engine.Fire(p.ctx, job.Hook, job.Context); err != nil {
				log.Warn().Err(err).Str("hook", job.Hook.ExternalId).Msg("async firing failed")
			}
		}
	}
}
