package enrich

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MrSnakeDoc/shelf/internal/domain"
	"github.com/MrSnakeDoc/shelf/internal/logger"
	"github.com/MrSnakeDoc/shelf/internal/metrics"
)

// finalizeTimeout bounds the terminal status write, which runs even when the
// caller's context is already cancelled.
const finalizeTimeout = 5 * time.Second

// Repository is the persistence the pipeline needs.
type Repository interface {
	GetBookmark(ctx context.Context, id string) (*domain.Bookmark, error)
	FindOnePendingBookmark(ctx context.Context) (*domain.Bookmark, error)
	// ClaimBookmark atomically moves PENDING to IN_PROGRESS and reports
	// whether this caller won. The claim only holds while the bookmark
	// still points at url.
	ClaimBookmark(ctx context.Context, id, url string) (bool, error)
	// UpdateBookmarkStatus fails with domain.ErrStaleClaim once the URL no
	// longer matches the claimed one.
	UpdateBookmarkStatus(ctx context.Context, id, url string, status domain.ProcessingStatus, preview *domain.Preview) (*domain.Bookmark, error)
}

// MetadataFetcher extracts the preview of a page.
type MetadataFetcher interface {
	FetchMetadata(ctx context.Context, url string) (domain.Metadata, error)
}

// Outcome names how one enrichment attempt ended.
type Outcome string

const (
	OutcomeCompleted  Outcome = "completed"
	OutcomeFailed     Outcome = "failed"
	OutcomeNotPending Outcome = "not_pending"
	OutcomeNotFound   Outcome = "not_found"
	OutcomeNoPending  Outcome = "no_pending"
	OutcomeError      Outcome = "error"
)

// Trigger labels which path started an attempt.
const (
	TriggerImmediate = "immediate"
	TriggerSweep     = "sweep"
)

// Result describes one enrichment attempt.
type Result struct {
	Outcome    Outcome                 `json:"outcome"`
	BookmarkID string                  `json:"bookmarkId,omitempty"`
	Status     domain.ProcessingStatus `json:"processingStatus,omitempty"`
	Err        error                   `json:"-"`
}

// Enricher runs the PENDING -> IN_PROGRESS -> COMPLETED|FAILED pipeline for
// one bookmark at a time.
type Enricher struct {
	repo    Repository
	fetcher MetadataFetcher
	logger  logger.Logger
	metrics *metrics.Collector
}

// New creates an enricher. metrics may be nil.
func New(repo Repository, fetcher MetadataFetcher, log logger.Logger, m *metrics.Collector) *Enricher {
	return &Enricher{
		repo:    repo,
		fetcher: fetcher,
		logger:  log,
		metrics: m,
	}
}

// EnrichByID processes the given bookmark if it is still PENDING.
func (e *Enricher) EnrichByID(ctx context.Context, id string) Result {
	res := e.process(ctx, id)
	e.metrics.ObserveEnrich(TriggerImmediate, string(res.Outcome))
	return res
}

// SweepOnce processes the oldest PENDING bookmark, if any.
func (e *Enricher) SweepOnce(ctx context.Context) Result {
	b, err := e.repo.FindOnePendingBookmark(ctx)
	var res Result
	switch {
	case err != nil:
		e.logger.Error("failed to look up pending bookmark", logger.Error(err))
		res = Result{Outcome: OutcomeError, Err: err}
	case b == nil:
		res = Result{Outcome: OutcomeNoPending}
	default:
		res = e.process(ctx, b.ID)
	}
	e.metrics.ObserveEnrich(TriggerSweep, string(res.Outcome))
	return res
}

func (e *Enricher) process(ctx context.Context, id string) Result {
	log := e.logger.With(logger.String("bookmark_id", id))

	b, err := e.repo.GetBookmark(ctx, id)
	if err != nil {
		return e.lookupFailure(log, id, err)
	}
	if b.ProcessingStatus != domain.StatusPending {
		log.Debug("bookmark not pending, skipping",
			logger.String("status", string(b.ProcessingStatus)))
		return Result{Outcome: OutcomeNotPending, BookmarkID: id, Status: b.ProcessingStatus}
	}

	claimed, err := e.repo.ClaimBookmark(ctx, id, b.URL)
	if err != nil {
		return e.lookupFailure(log, id, err)
	}
	if !claimed {
		log.Debug("bookmark claimed by another worker")
		return Result{Outcome: OutcomeNotPending, BookmarkID: id}
	}

	// Past the claim nothing cancels the attempt: the fetch is bounded by
	// the fetcher's own timeout and the final write by finalizeTimeout.
	detached := context.WithoutCancel(ctx)

	start := time.Now()
	md, fetchErr := e.fetch(detached, b.URL)
	e.metrics.ObserveFetch(time.Since(start))

	fctx, cancel := context.WithTimeout(detached, finalizeTimeout)
	defer cancel()

	if fetchErr != nil {
		log.Warn("metadata fetch failed, marking bookmark failed",
			logger.String("url", b.URL),
			logger.Error(fetchErr))
		if _, err := e.repo.UpdateBookmarkStatus(fctx, id, b.URL, domain.StatusFailed, nil); err != nil {
			return e.finalizeFailure(log, id, err)
		}
		return Result{Outcome: OutcomeFailed, BookmarkID: id, Status: domain.StatusFailed, Err: fetchErr}
	}

	preview := domain.PreviewFor(b.URL, md)
	if _, err := e.repo.UpdateBookmarkStatus(fctx, id, b.URL, domain.StatusCompleted, &preview); err != nil {
		return e.finalizeFailure(log, id, err)
	}
	log.Info("bookmark enriched",
		logger.String("url", b.URL),
		logger.Bool("has_image", md.Image != nil))
	return Result{Outcome: OutcomeCompleted, BookmarkID: id, Status: domain.StatusCompleted}
}

// fetch converts a panicking fetcher into an error.
func (e *Enricher) fetch(ctx context.Context, url string) (md domain.Metadata, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("metadata fetcher panicked: %v", r)
		}
	}()
	return e.fetcher.FetchMetadata(ctx, url)
}

func (e *Enricher) lookupFailure(log logger.Logger, id string, err error) Result {
	if errors.Is(err, domain.ErrNotFound) {
		log.Debug("bookmark not found")
		return Result{Outcome: OutcomeNotFound, BookmarkID: id}
	}
	log.Error("failed to load bookmark", logger.Error(err))
	return Result{Outcome: OutcomeError, BookmarkID: id, Err: err}
}

// finalizeFailure leaves the bookmark IN_PROGRESS; only the log records it.
// A stale claim is not a failure: the URL was edited and a newer attempt
// owns the bookmark.
func (e *Enricher) finalizeFailure(log logger.Logger, id string, err error) Result {
	if errors.Is(err, domain.ErrStaleClaim) {
		log.Info("bookmark URL changed during fetch, discarding preview")
		return Result{Outcome: OutcomeNotPending, BookmarkID: id}
	}
	log.Error("failed to write final status", logger.Error(err))
	return Result{Outcome: OutcomeError, BookmarkID: id, Status: domain.StatusInProgress, Err: err}
}
