package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/MrSnakeDoc/shelf/internal/enrich"
	"github.com/MrSnakeDoc/shelf/internal/logger"
)

// DefaultMaxPerTick bounds how many bookmarks one sweep pass enriches.
const DefaultMaxPerTick = 50

// SweepRunner processes at most one pending bookmark per call.
type SweepRunner interface {
	SweepOnce(ctx context.Context) enrich.Result
}

// Sweeper periodically drains PENDING bookmarks that no immediate dispatch
// picked up.
type Sweeper struct {
	runner        SweepRunner
	logger        logger.Logger
	interval      time.Duration
	maxPerTick    int
	stopCh        chan struct{}
	stopOnce      sync.Once
	manualTrigger chan struct{}
	wg            sync.WaitGroup
}

// NewSweeper creates a new sweeper. interval <= 0 disables the ticker and
// leaves only manual triggers.
func NewSweeper(
	runner SweepRunner,
	log logger.Logger,
	interval time.Duration,
	manualTrigger chan struct{},
) *Sweeper {
	return &Sweeper{
		runner:        runner,
		logger:        log,
		interval:      interval,
		maxPerTick:    DefaultMaxPerTick,
		stopCh:        make(chan struct{}),
		manualTrigger: manualTrigger,
	}
}

// Start begins the periodic sweep. The first pass runs in the background
// so a backlog never delays the caller.
func (s *Sweeper) Start(ctx context.Context) error {
	var tick <-chan time.Time
	var ticker *time.Ticker
	if s.interval > 0 {
		ticker = time.NewTicker(s.interval)
		tick = ticker.C
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if ticker != nil {
			defer ticker.Stop()
		}

		// Pick up whatever a previous process left behind
		s.Sweep(ctx)

		for {
			select {
			case <-tick:
				s.Sweep(ctx)
			case <-s.manualTrigger:
				s.logger.Info("manual sweep triggered")
				s.Sweep(ctx)
			case <-s.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the sweeper and waits for the bookmark being processed, if
// any, to reach its final status.
func (s *Sweeper) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
	s.wg.Wait()
}

func (s *Sweeper) stopped() bool {
	select {
	case <-s.stopCh:
		return true
	default:
		return false
	}
}

// Sweep enriches pending bookmarks until none is left, an error occurs or
// the per-tick bound is hit. It returns how many bookmarks reached a
// terminal status.
func (s *Sweeper) Sweep(ctx context.Context) int {
	processed := 0
	for i := 0; i < s.maxPerTick; i++ {
		if ctx.Err() != nil || s.stopped() {
			break
		}
		res := s.runner.SweepOnce(ctx)
		switch res.Outcome {
		case enrich.OutcomeNoPending:
			s.logDone(processed)
			return processed
		case enrich.OutcomeError:
			s.logger.Error("sweep stopped on error",
				logger.String("bookmark_id", res.BookmarkID),
				logger.Error(res.Err))
			s.logDone(processed)
			return processed
		case enrich.OutcomeCompleted, enrich.OutcomeFailed:
			processed++
		}
	}
	s.logDone(processed)
	return processed
}

func (s *Sweeper) logDone(processed int) {
	if processed > 0 {
		s.logger.Info("sweep completed",
			logger.Int("processed", processed))
	} else {
		s.logger.Debug("no pending bookmarks to sweep")
	}
}
