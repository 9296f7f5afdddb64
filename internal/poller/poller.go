package poller

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/MrSnakeDoc/shelf/internal/domain"
	"github.com/MrSnakeDoc/shelf/internal/logger"
)

// DefaultInterval is how often tracked bookmarks are polled.
const DefaultInterval = 3 * time.Second

// StatusClient answers batch status queries.
type StatusClient interface {
	Statuses(ctx context.Context, ids []string) ([]domain.StatusEntry, error)
}

// Option configures a Poller.
type Option func(*Poller)

// WithInterval overrides DefaultInterval.
func WithInterval(d time.Duration) Option {
	return func(p *Poller) {
		if d > 0 {
			p.interval = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(p *Poller) { p.logger = l }
}

// WithOnRefresh registers a callback fired with the entries that reached a
// terminal status during one poll. It runs on the polling goroutine and must
// not call Close.
func WithOnRefresh(fn func([]domain.StatusEntry)) Option {
	return func(p *Poller) { p.onRefresh = fn }
}

// Poller watches a set of bookmark IDs until each one is COMPLETED or
// FAILED. Its ticker only exists while something is tracked.
type Poller struct {
	client    StatusClient
	interval  time.Duration
	logger    logger.Logger
	onRefresh func([]domain.StatusEntry)

	mu      sync.Mutex
	tracked map[string]struct{}
	running bool
	closed  bool
	done    chan struct{}
	wg      sync.WaitGroup
}

// New creates an idle poller.
func New(client StatusClient, opts ...Option) *Poller {
	p := &Poller{
		client:   client,
		interval: DefaultInterval,
		logger:   logger.NewNop(),
		tracked:  make(map[string]struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Track adds ids and starts polling if the poller was idle.
func (p *Poller) Track(ids ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}
	for _, id := range ids {
		if id != "" {
			p.tracked[id] = struct{}{}
		}
	}
	if len(p.tracked) > 0 && !p.running {
		p.running = true
		p.wg.Add(1)
		go p.loop()
	}
}

// Tracked returns the IDs still being watched, sorted.
func (p *Poller) Tracked() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	ids := make([]string, 0, len(p.tracked))
	for id := range p.tracked {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Running reports whether a polling loop is active.
func (p *Poller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// Close stops polling for good and waits for the loop to exit.
func (p *Poller) Close() {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		p.tracked = make(map[string]struct{})
		close(p.done)
	}
	p.mu.Unlock()
	p.wg.Wait()
}

func (p *Poller) loop() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.done:
			return
		case <-ticker.C:
			if !p.poll() {
				return
			}
		}
	}
}

// poll runs one status query and reports whether the loop should continue.
func (p *Poller) poll() bool {
	ids := p.Tracked()
	if len(ids) == 0 {
		return p.keepRunning()
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.interval)
	defer cancel()

	entries, err := p.client.Statuses(ctx, ids)
	if err != nil {
		p.logger.Debug("status poll failed, retrying next interval",
			logger.Int("tracked", len(ids)),
			logger.Error(err))
		return p.keepRunning()
	}

	reported := make(map[string]bool, len(entries))
	var finished []domain.StatusEntry

	p.mu.Lock()
	for _, e := range entries {
		reported[e.ID] = true
		if _, ok := p.tracked[e.ID]; ok && e.ProcessingStatus.IsTerminal() {
			delete(p.tracked, e.ID)
			finished = append(finished, e)
		}
	}
	// IDs the server no longer knows can never finish.
	for _, id := range ids {
		if !reported[id] {
			delete(p.tracked, id)
			p.logger.Debug("tracked bookmark vanished", logger.String("bookmark_id", id))
		}
	}
	p.mu.Unlock()

	if len(finished) > 0 && p.onRefresh != nil {
		p.onRefresh(finished)
	}
	return p.keepRunning()
}

// keepRunning clears the running flag when nothing is left to poll, in the
// same critical section as the emptiness check so a concurrent Track either
// sees running=true or starts a fresh loop.
func (p *Poller) keepRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed || len(p.tracked) == 0 {
		p.running = false
		return false
	}
	return true
}
