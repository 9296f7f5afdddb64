package enrich

import (
	"context"
	"sync"

	"github.com/MrSnakeDoc/shelf/internal/logger"
	"github.com/MrSnakeDoc/shelf/internal/metrics"
)

// Runner is what the dispatcher hands bookmark IDs to.
type Runner interface {
	EnrichByID(ctx context.Context, id string) Result
}

// Dispatcher runs immediate enrichments detached from the request that
// created the bookmark. Work that does not fit in the queue is dropped and
// left for the sweep.
type Dispatcher struct {
	runner  Runner
	logger  logger.Logger
	metrics *metrics.Collector
	workers int

	mu     sync.RWMutex
	queue  chan string
	closed bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once
}

// NewDispatcher creates a dispatcher. Call Start before Dispatch.
func NewDispatcher(runner Runner, workers, queueSize int, log logger.Logger, m *metrics.Collector) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 0 {
		queueSize = 0
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		runner:  runner,
		logger:  log,
		metrics: m,
		workers: workers,
		queue:   make(chan string, queueSize),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start launches the workers.
func (d *Dispatcher) Start() {
	d.once.Do(func() {
		for i := 0; i < d.workers; i++ {
			d.wg.Add(1)
			go d.work()
		}
		d.logger.Info("enrichment dispatcher started",
			logger.Int("workers", d.workers),
			logger.Int("queue", cap(d.queue)))
	})
}

// Dispatch queues id for enrichment. It never blocks and never fails the
// caller: a full queue or a stopped dispatcher only logs.
func (d *Dispatcher) Dispatch(id string) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.logger.Warn("dispatcher stopped, leaving bookmark for sweep",
			logger.String("bookmark_id", id))
		d.metrics.DispatchDrop()
		return
	}

	select {
	case d.queue <- id:
	default:
		d.logger.Warn("enrichment queue full, leaving bookmark for sweep",
			logger.String("bookmark_id", id))
		d.metrics.DispatchDrop()
	}
}

// Stop refuses new work and waits for queued work to finish. When ctx
// expires first, queued bookmarks are abandoned (they stay PENDING for the
// next sweep) and ctx.Err is returned once the claimed ones have reached a
// final status, which the fetch and finalize timeouts bound.
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.cancel()
		return nil
	case <-ctx.Done():
		d.cancel()
		<-done
		return ctx.Err()
	}
}

func (d *Dispatcher) work() {
	defer d.wg.Done()
	for id := range d.queue {
		if d.ctx.Err() != nil {
			d.logger.Debug("dispatcher stopping, leaving bookmark for sweep",
				logger.String("bookmark_id", id))
			continue
		}
		d.run(id)
	}
}

func (d *Dispatcher) run(id string) {
	d.metrics.TaskStarted()
	defer d.metrics.TaskDone()
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("enrichment task panicked",
				logger.String("bookmark_id", id),
				logger.Any("panic", r))
		}
	}()

	res := d.runner.EnrichByID(d.ctx, id)
	d.logger.Debug("enrichment task finished",
		logger.String("bookmark_id", id),
		logger.String("outcome", string(res.Outcome)))
}
