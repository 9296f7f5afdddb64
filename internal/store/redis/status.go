package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/shelf/internal/domain"
)

// pendingScanLimit bounds how many stale queue entries one lookup may skip.
const pendingScanLimit = 16

var errNotPending = errors.New("bookmark is not pending")

// ClaimBookmark moves a bookmark from PENDING to IN_PROGRESS for rawURL.
// The read and the write share one WATCH/MULTI block, so of two concurrent
// claimers exactly one gets true. A bookmark in any other state, or whose
// URL is no longer rawURL, yields false with a nil error.
func (s *Store) ClaimBookmark(ctx context.Context, id, rawURL string) (bool, error) {
	_, err := s.mutateBookmark(ctx, id, func(b *domain.Bookmark) (func(redis.Pipeliner), error) {
		if b.ProcessingStatus != domain.StatusPending || b.URL != rawURL {
			return nil, errNotPending
		}
		b.ProcessingStatus = domain.StatusInProgress
		b.UpdatedAt = s.now()
		return func(pipe redis.Pipeliner) {
			pipe.ZRem(ctx, PendingBookmarksKey(), b.ID)
		}, nil
	})
	if errors.Is(err, errNotPending) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// UpdateBookmarkStatus writes a new processing status for the claim made on
// rawURL. When preview is not nil its fields replace the og fields verbatim;
// otherwise they are left untouched. A bookmark whose URL was edited since
// the claim fails with domain.ErrStaleClaim; backward or skipping
// transitions fail with domain.ErrInvalidTransition.
func (s *Store) UpdateBookmarkStatus(ctx context.Context, id, rawURL string, status domain.ProcessingStatus, preview *domain.Preview) (*domain.Bookmark, error) {
	return s.mutateBookmark(ctx, id, func(b *domain.Bookmark) (func(redis.Pipeliner), error) {
		if b.URL != rawURL {
			return nil, fmt.Errorf("%w: claimed %s, now %s", domain.ErrStaleClaim, rawURL, b.URL)
		}
		if !domain.CanTransition(b.ProcessingStatus, status) {
			return nil, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, b.ProcessingStatus, status)
		}
		now := s.now()
		if preview != nil {
			b.ApplyPreview(*preview, now)
		}
		b.ProcessingStatus = status
		b.UpdatedAt = now
		return func(pipe redis.Pipeliner) {
			pipe.ZRem(ctx, PendingBookmarksKey(), b.ID)
		}, nil
	})
}

// FindOnePendingBookmark returns the oldest PENDING bookmark, or nil when
// there is none. Queue entries whose bookmark is gone or already claimed are
// pruned on the way.
func (s *Store) FindOnePendingBookmark(ctx context.Context) (*domain.Bookmark, error) {
	for i := 0; i < pendingScanLimit; i++ {
		ids, err := s.client.ZRange(ctx, PendingBookmarksKey(), 0, 0).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to read pending queue: %w", err)
		}
		if len(ids) == 0 {
			return nil, nil
		}

		b, err := s.GetBookmark(ctx, ids[0])
		if err == nil && b.ProcessingStatus == domain.StatusPending {
			return b, nil
		}
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}

		if err := s.client.ZRem(ctx, PendingBookmarksKey(), ids[0]).Err(); err != nil {
			return nil, fmt.Errorf("failed to prune pending queue: %w", err)
		}
	}
	return nil, nil
}

// PendingCount returns the length of the pending queue.
func (s *Store) PendingCount(ctx context.Context) (int64, error) {
	return s.client.ZCard(ctx, PendingBookmarksKey()).Result()
}

// GetStatuses returns {id, processingStatus} for every known id, in request
// order. Unknown and duplicate ids are skipped.
func (s *Store) GetStatuses(ctx context.Context, ids []string) ([]domain.StatusEntry, error) {
	return s.statuses(ctx, ids, "")
}

// GetOwnedStatuses is GetStatuses restricted to bookmarks authored by authorID.
func (s *Store) GetOwnedStatuses(ctx context.Context, authorID string, ids []string) ([]domain.StatusEntry, error) {
	return s.statuses(ctx, ids, authorID)
}

func (s *Store) statuses(ctx context.Context, ids []string, authorID string) ([]domain.StatusEntry, error) {
	seen := make(map[string]bool, len(ids))
	unique := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		unique = append(unique, id)
	}

	bookmarks, err := s.getBookmarks(ctx, unique)
	if err != nil {
		return nil, err
	}

	entries := make([]domain.StatusEntry, 0, len(bookmarks))
	for _, b := range bookmarks {
		if authorID != "" && b.AuthorID != authorID {
			continue
		}
		entries = append(entries, domain.StatusEntry{
			ID:               b.ID,
			ProcessingStatus: b.ProcessingStatus,
		})
	}
	return entries, nil
}
