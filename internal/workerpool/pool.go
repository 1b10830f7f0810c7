// Package workerpool drains a runtime.Source with a pool of goroutines that
// hand each message to a sink function. Worker count can be fixed or,
// when AdaptiveConfig.Enabled is set, tuned at runtime by an AIMD
// controller reacting to observed backlog depth.
package workerpool

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/oriys/conduit/internal/logging"
	"github.com/oriys/conduit/internal/runtime"
)

// Sink receives a message drained from the pool's source. A non-nil error
// is logged; it does not retry or redeliver — redelivery semantics belong
// to the source/buffer, not the pool.
type Sink[T any] func(ctx context.Context, msg runtime.Message[T]) error

// Depther is implemented by sources that can report their current backlog,
// e.g. runtime.UnboundedBuffer.Len. Sources that don't implement it still
// work; the adaptive controller just sees a constant backlog of zero.
type Depther interface {
	Len() int
}

// Config configures a Pool.
type Config struct {
	Workers   int           // fixed worker count when Adaptive is disabled (default: 4)
	DepthPoll time.Duration // how often to sample source backlog (default: 500ms)
	Adaptive  AdaptiveConfig
}

const defaultWorkers = 4
const defaultDepthPoll = 500 * time.Millisecond

// Pool drains a runtime.Source with a bounded or adaptive set of workers.
type Pool[T any] struct {
	source runtime.Source[T]
	sink   Sink[T]
	cfg    Config

	mu      sync.Mutex
	started bool
	stopCh  chan struct{}
	wg      sync.WaitGroup

	adaptive *AdaptiveController
}

// New creates a worker pool draining source and handing messages to sink.
func New[T any](source runtime.Source[T], sink Sink[T], cfg Config) *Pool[T] {
	if cfg.Workers <= 0 {
		cfg.Workers = defaultWorkers
	}
	if cfg.DepthPoll <= 0 {
		cfg.DepthPoll = defaultDepthPoll
	}
	p := &Pool[T]{
		source: source,
		sink:   sink,
		cfg:    cfg,
		stopCh: make(chan struct{}),
	}
	if cfg.Adaptive.Enabled {
		p.adaptive = newAdaptiveController(cfg.Adaptive, cfg.Workers, cfg.DepthPoll)
	}
	return p
}

// Start launches the worker goroutines (and, in adaptive mode, the
// control loop and a reconciler that grows/shrinks the worker set).
func (p *Pool[T]) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return
	}
	p.started = true

	if p.adaptive != nil {
		p.adaptive.Start()
		p.wg.Add(1)
		go p.depthSampler()
		p.wg.Add(1)
		go p.elasticManager()
		logging.Op().Info("worker pool started (adaptive mode)",
			"initial_workers", p.adaptive.Workers())
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-p.stopCh
		cancel()
	}()
	for i := 0; i < p.cfg.Workers; i++ {
		p.wg.Add(1)
		go p.worker(ctx, i)
	}
	logging.Op().Info("worker pool started", "workers", p.cfg.Workers)
}

// Stop signals all workers to exit and waits for them.
func (p *Pool[T]) Stop() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.started = false
	close(p.stopCh)
	p.mu.Unlock()

	if p.adaptive != nil {
		p.adaptive.Stop()
	}
	p.wg.Wait()
	logging.Op().Info("worker pool stopped")
}

func (p *Pool[T]) worker(ctx context.Context, id int) {
	defer p.wg.Done()
	label := fmt.Sprintf("worker-%d", id)
	for {
		select {
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		default:
		}

		msg, err := p.source.Consume(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			continue
		}
		if err := p.sink(ctx, msg); err != nil {
			logging.Op().Error("sink returned error", "worker", label, "error", err)
		}
		if p.adaptive != nil {
			p.adaptive.RecordDrained(1)
		}
	}
}

// depthSampler periodically reports the source's backlog to the adaptive
// controller so it can decide whether to scale up or down.
func (p *Pool[T]) depthSampler() {
	defer p.wg.Done()
	depther, ok := p.source.(Depther)
	ticker := time.NewTicker(p.cfg.DepthPoll)
	defer ticker.Stop()

	for {
		select {
		case <-p.stopCh:
			return
		case <-ticker.C:
			if ok {
				p.adaptive.SetBacklog(int64(depther.Len()))
			}
		}
	}
}

// elasticManager reconciles the live worker goroutine count against the
// adaptive controller's current target, spawning or cancelling workers.
func (p *Pool[T]) elasticManager() {
	defer p.wg.Done()
	var cancels []context.CancelFunc
	ticker := time.NewTicker(p.adaptive.cfg.ProbeInterval)
	defer ticker.Stop()

	reconcile := func() {
		target := p.adaptive.Workers()
		current := len(cancels)
		for i := current; i < target; i++ {
			ctx, cancel := context.WithCancel(context.Background())
			cancels = append(cancels, cancel)
			p.wg.Add(1)
			go p.worker(ctx, i)
		}
		for i := current - 1; i >= target; i-- {
			cancels[i]()
			cancels = cancels[:i]
		}
	}

	// Establish the initial worker set immediately.
	reconcile()

	for {
		select {
		case <-p.stopCh:
			for _, cancel := range cancels {
				cancel()
			}
			return
		case <-ticker.C:
			reconcile()
		}
	}
}
