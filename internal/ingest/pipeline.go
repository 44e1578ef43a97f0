package ingest

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shortify/shortify/internal/analytics"
	"go.uber.org/zap"
)

const (
	// DefaultQueueSize is sized for bursty traffic well above the expected
	// few thousand clicks per day.
	DefaultQueueSize = 1024

	// DefaultWorkers is the fixed size of the persistence worker pool.
	DefaultWorkers = 2

	// DefaultMaxAttempts bounds sink retries for a single event.
	DefaultMaxAttempts = 3

	// DefaultRetryDelay is the pause between sink retries.
	DefaultRetryDelay = 100 * time.Millisecond
)

// Metrics is a snapshot of pipeline counters.
type Metrics struct {
	Submitted     int64 `json:"submitted"`
	Persisted     int64 `json:"persisted"`
	Dropped       int64 `json:"dropped"`
	Retries       int64 `json:"retries"`
	QueueDepth    int   `json:"queueDepth"`
	QueueCapacity int   `json:"queueCapacity"`
}

// Config tunes the pipeline. Zero fields fall back to defaults.
type Config struct {
	QueueSize   int
	Workers     int
	MaxAttempts int
	RetryDelay  time.Duration
}

func (c Config) withDefaults() Config {
	if c.QueueSize <= 0 {
		c.QueueSize = DefaultQueueSize
	}

	if c.Workers <= 0 {
		c.Workers = DefaultWorkers
	}

	if c.MaxAttempts <= 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}

	if c.RetryDelay <= 0 {
		c.RetryDelay = DefaultRetryDelay
	}

	return c
}

// Pipeline is the asynchronous click ingestion pipeline: a bounded queue
// consumed by a fixed pool of workers that hand events to a Sink.
//
// Submit never blocks and never fails the caller. When the queue is full or
// the sink keeps failing, events are dropped and counted: analytics
// completeness is secondary to redirect availability.
type Pipeline struct {
	queue  chan *analytics.ClickEvent
	sink   Sink
	cfg    Config
	logger *zap.Logger

	mu     sync.RWMutex
	closed bool

	wg sync.WaitGroup

	submitted atomic.Int64
	persisted atomic.Int64
	dropped   atomic.Int64
	retries   atomic.Int64
}

// NewPipeline creates a pipeline writing to the given sink.
func NewPipeline(sink Sink, cfg Config, logger *zap.Logger) *Pipeline {
	cfg = cfg.withDefaults()

	return &Pipeline{
		queue:  make(chan *analytics.ClickEvent, cfg.QueueSize),
		sink:   sink,
		cfg:    cfg,
		logger: logger,
	}
}

// Start launches the worker pool. The context bounds in-flight sink calls
// and retry waits; cancelling it abandons retries, not queued events.
func (p *Pipeline) Start(ctx context.Context) error {
	for i := 0; i < p.cfg.Workers; i++ {
		p.wg.Add(1)

		go p.worker(ctx)
	}

	p.logger.Info("ingestion pipeline started",
		zap.Int("workers", p.cfg.Workers),
		zap.Int("queueSize", p.cfg.QueueSize),
	)

	return nil
}

// Submit enqueues a click event without blocking. A full queue or a draining
// pipeline drops the event and increments the drop counter.
func (p *Pipeline) Submit(event *analytics.ClickEvent) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	p.submitted.Add(1)

	if p.closed {
		p.dropped.Add(1)

		return
	}

	select {
	case p.queue <- event:
	default:
		p.dropped.Add(1)
		p.logger.Warn("click event dropped, queue full",
			zap.String("code", event.LinkCode),
		)
	}
}

// Drain stops intake, flushes queued events, and waits for the workers. The
// context bounds the wait.
func (p *Pipeline) Drain(ctx context.Context) error {
	p.mu.Lock()

	if p.closed {
		p.mu.Unlock()

		return nil
	}

	p.closed = true
	close(p.queue)
	p.mu.Unlock()

	done := make(chan struct{})

	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown drains the pipeline with a bounded grace period. It satisfies the
// container's shutdown chain.
func (p *Pipeline) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return p.Drain(ctx)
}

// Metrics returns a snapshot of the pipeline counters and queue state.
func (p *Pipeline) Metrics() Metrics {
	return Metrics{
		Submitted:     p.submitted.Load(),
		Persisted:     p.persisted.Load(),
		Dropped:       p.dropped.Load(),
		Retries:       p.retries.Load(),
		QueueDepth:    len(p.queue),
		QueueCapacity: cap(p.queue),
	}
}

func (p *Pipeline) worker(ctx context.Context) {
	defer p.wg.Done()

	for event := range p.queue {
		p.process(ctx, event)
	}
}

func (p *Pipeline) process(ctx context.Context, event *analytics.ClickEvent) {
	var lastErr error

	for attempt := 1; attempt <= p.cfg.MaxAttempts; attempt++ {
		if attempt > 1 {
			p.retries.Add(1)

			select {
			case <-time.After(p.cfg.RetryDelay):
			case <-ctx.Done():
				p.dropped.Add(1)

				return
			}
		}

		lastErr = p.sink.Save(ctx, event)
		if lastErr == nil {
			p.persisted.Add(1)

			return
		}
	}

	p.dropped.Add(1)
	p.logger.Error("click event dropped, retries exhausted",
		zap.String("code", event.LinkCode),
		zap.Int("attempts", p.cfg.MaxAttempts),
		zap.Error(lastErr),
	)
}
