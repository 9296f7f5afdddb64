package enrich

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MrSnakeDoc/shelf/internal/domain"
)

// memRepo is an in-memory Repository with the same claim semantics as the
// Redis store.
type memRepo struct {
	mu        sync.Mutex
	bookmarks map[string]*domain.Bookmark
	order     []string
	updateErr error
}

func newMemRepo() *memRepo {
	return &memRepo{bookmarks: make(map[string]*domain.Bookmark)}
}

func (r *memRepo) add(id, rawURL string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bookmarks[id] = domain.NewBookmark(id, rawURL, "topic", "user", nil, time.Now())
	r.order = append(r.order, id)
}

// editURL mimics a user edit: new URL, back to PENDING.
func (r *memRepo) editURL(id, rawURL string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bookmarks[id].ResetPreview(rawURL, time.Now())
}

func (r *memRepo) get(id string) domain.Bookmark {
	r.mu.Lock()
	defer r.mu.Unlock()
	return *r.bookmarks[id]
}

func (r *memRepo) GetBookmark(_ context.Context, id string) (*domain.Bookmark, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookmarks[id]
	if !ok {
		return nil, fmt.Errorf("bookmark %s: %w", id, domain.ErrNotFound)
	}
	cp := *b
	return &cp, nil
}

func (r *memRepo) FindOnePendingBookmark(_ context.Context) (*domain.Bookmark, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range r.order {
		if b := r.bookmarks[id]; b.ProcessingStatus == domain.StatusPending {
			cp := *b
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memRepo) ClaimBookmark(_ context.Context, id, url string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookmarks[id]
	if !ok {
		return false, fmt.Errorf("bookmark %s: %w", id, domain.ErrNotFound)
	}
	if b.ProcessingStatus != domain.StatusPending || b.URL != url {
		return false, nil
	}
	b.ProcessingStatus = domain.StatusInProgress
	return true, nil
}

func (r *memRepo) UpdateBookmarkStatus(_ context.Context, id, url string, status domain.ProcessingStatus, preview *domain.Preview) (*domain.Bookmark, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		return nil, r.updateErr
	}
	b, ok := r.bookmarks[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if b.URL != url {
		return nil, domain.ErrStaleClaim
	}
	if !domain.CanTransition(b.ProcessingStatus, status) {
		return nil, domain.ErrInvalidTransition
	}
	if preview != nil {
		b.ApplyPreview(*preview, time.Now())
	}
	b.ProcessingStatus = status
	cp := *b
	return &cp, nil
}

// stubFetcher counts calls and returns a canned answer.
type stubFetcher struct {
	calls int32
	md    domain.Metadata
	err   error
	panic bool
	delay time.Duration
	// onFetch runs at the start of each fetch.
	onFetch func()
}

func (f *stubFetcher) FetchMetadata(ctx context.Context, _ string) (domain.Metadata, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.onFetch != nil {
		f.onFetch()
	}
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return domain.Metadata{}, ctx.Err()
		}
	}
	if f.panic {
		panic("boom")
	}
	return f.md, f.err
}

func (f *stubFetcher) Calls() int {
	return int(atomic.LoadInt32(&f.calls))
}
