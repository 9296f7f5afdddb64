package redis

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/shelf/internal/domain"
)

// CreateBookmarkInput is what a user supplies when saving a link.
type CreateBookmarkInput struct {
	URL         string
	TopicID     string
	AuthorID    string
	Description *string
}

// UpdateBookmarkInput replaces the user-editable fields of a bookmark.
type UpdateBookmarkInput struct {
	URL         string
	TopicID     string
	Description *string
}

// bookmarkMutation edits b in place. The returned func, if any, queues extra
// writes in the same MULTI block as the document itself.
type bookmarkMutation func(b *domain.Bookmark) (func(pipe redis.Pipeliner), error)

// CreateBookmark stores a new PENDING bookmark with placeholder preview data
// and enqueues it for enrichment. The topic must exist.
func (s *Store) CreateBookmark(ctx context.Context, in CreateBookmarkInput) (*domain.Bookmark, error) {
	rawURL := strings.TrimSpace(in.URL)
	if err := domain.ValidateURL(rawURL); err != nil {
		return nil, err
	}

	topicKey := TopicKey(in.TopicID)
	var created *domain.Bookmark

	err := s.watch(ctx, func(tx *redis.Tx) error {
		var topic domain.Topic
		if err := getJSON(ctx, tx, topicKey, &topic); err != nil {
			return fmt.Errorf("topic %s: %w", in.TopicID, err)
		}

		b := domain.NewBookmark(s.newID(), rawURL, in.TopicID, in.AuthorID, in.Description, s.now())
		_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			if err := setJSON(ctx, pipe, BookmarkKey(b.ID), b); err != nil {
				return err
			}
			pipe.SAdd(ctx, TopicBookmarksKey(b.TopicID), b.ID)
			pipe.SAdd(ctx, UserBookmarksKey(b.AuthorID), b.ID)
			enqueuePending(ctx, pipe, b)
			return nil
		})
		if err != nil {
			return fmt.Errorf("failed to save bookmark: %w", err)
		}
		created = b
		return nil
	}, topicKey)
	if err != nil {
		return nil, err
	}
	return created, nil
}

// GetBookmark retrieves a bookmark from Redis by ID
func (s *Store) GetBookmark(ctx context.Context, id string) (*domain.Bookmark, error) {
	var b domain.Bookmark
	if err := getJSON(ctx, s.client, BookmarkKey(id), &b); err != nil {
		return nil, fmt.Errorf("bookmark %s: %w", id, err)
	}
	return &b, nil
}

// ListBookmarksByTopic returns the bookmarks of a topic, manual order first,
// then newest first.
func (s *Store) ListBookmarksByTopic(ctx context.Context, topicID string) ([]*domain.Bookmark, error) {
	ids, err := s.client.SMembers(ctx, TopicBookmarksKey(topicID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get bookmark IDs: %w", err)
	}
	bookmarks, err := s.getBookmarks(ctx, ids)
	if err != nil {
		return nil, err
	}
	sortBookmarks(bookmarks)
	return bookmarks, nil
}

// ListFavorites returns the user's favorite bookmarks across all topics.
func (s *Store) ListFavorites(ctx context.Context, userID string) ([]*domain.Bookmark, error) {
	ids, err := s.client.SMembers(ctx, UserBookmarksKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get bookmark IDs: %w", err)
	}
	all, err := s.getBookmarks(ctx, ids)
	if err != nil {
		return nil, err
	}
	favorites := make([]*domain.Bookmark, 0, len(all))
	for _, b := range all {
		if b.IsFavorite {
			favorites = append(favorites, b)
		}
	}
	sortBookmarks(favorites)
	return favorites, nil
}

// UpdateBookmark applies a user edit. Changing the URL starts a fresh
// enrichment cycle (PENDING with placeholders) and reports changed=true.
func (s *Store) UpdateBookmark(ctx context.Context, id string, in UpdateBookmarkInput) (b *domain.Bookmark, urlChanged bool, err error) {
	rawURL := strings.TrimSpace(in.URL)
	if err := domain.ValidateURL(rawURL); err != nil {
		return nil, false, err
	}

	b, err = s.mutateBookmark(ctx, id, func(b *domain.Bookmark) (func(redis.Pipeliner), error) {
		oldTopic := b.TopicID
		if in.TopicID != oldTopic {
			n, err := s.client.Exists(ctx, TopicKey(in.TopicID)).Result()
			if err != nil {
				return nil, fmt.Errorf("failed to check topic: %w", err)
			}
			if n == 0 {
				return nil, fmt.Errorf("topic %s: %w", in.TopicID, domain.ErrNotFound)
			}
		}

		now := s.now()
		urlChanged = rawURL != b.URL
		if urlChanged {
			b.ResetPreview(rawURL, now)
		}
		b.Description = in.Description
		b.TopicID = in.TopicID
		b.UpdatedAt = now

		return func(pipe redis.Pipeliner) {
			if oldTopic != b.TopicID {
				pipe.SRem(ctx, TopicBookmarksKey(oldTopic), b.ID)
				pipe.SAdd(ctx, TopicBookmarksKey(b.TopicID), b.ID)
			}
			if urlChanged {
				enqueuePending(ctx, pipe, b)
			}
		}, nil
	})
	if err != nil {
		return nil, false, err
	}
	return b, urlChanged, nil
}

// ToggleFavorite flips IsFavorite and returns the updated bookmark.
func (s *Store) ToggleFavorite(ctx context.Context, id string) (*domain.Bookmark, error) {
	return s.mutateBookmark(ctx, id, func(b *domain.Bookmark) (func(redis.Pipeliner), error) {
		b.IsFavorite = !b.IsFavorite
		b.UpdatedAt = s.now()
		return nil, nil
	})
}

// DeleteBookmark removes a bookmark and its index entries
func (s *Store) DeleteBookmark(ctx context.Context, id string) error {
	b, err := s.GetBookmark(ctx, id)
	if err != nil {
		return err
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		removeBookmark(ctx, pipe, b)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete bookmark: %w", err)
	}
	return nil
}

// ReorderBookmarks sets Order to the position in orderedIDs. IDs that do not
// exist or belong to someone else are skipped.
func (s *Store) ReorderBookmarks(ctx context.Context, userID string, orderedIDs []string) error {
	keys := make([]string, len(orderedIDs))
	for i, id := range orderedIDs {
		keys[i] = BookmarkKey(id)
	}
	if len(keys) == 0 {
		return nil
	}

	return s.watch(ctx, func(tx *redis.Tx) error {
		updated := make([]*domain.Bookmark, 0, len(orderedIDs))
		now := s.now()
		for i, id := range orderedIDs {
			var b domain.Bookmark
			if err := getJSON(ctx, tx, BookmarkKey(id), &b); err != nil {
				if errors.Is(err, domain.ErrNotFound) {
					continue
				}
				return err
			}
			if b.AuthorID != userID {
				continue
			}
			order := i
			b.Order = &order
			b.UpdatedAt = now
			updated = append(updated, &b)
		}

		_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			for _, b := range updated {
				if err := setJSON(ctx, pipe, BookmarkKey(b.ID), b); err != nil {
					return err
				}
			}
			return nil
		})
		return err
	}, keys...)
}

// mutateBookmark reads, edits and writes one bookmark atomically.
func (s *Store) mutateBookmark(ctx context.Context, id string, fn bookmarkMutation) (*domain.Bookmark, error) {
	key := BookmarkKey(id)
	var out *domain.Bookmark

	err := s.watch(ctx, func(tx *redis.Tx) error {
		var b domain.Bookmark
		if err := getJSON(ctx, tx, key, &b); err != nil {
			return fmt.Errorf("bookmark %s: %w", id, err)
		}

		extra, err := fn(&b)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			if err := setJSON(ctx, pipe, key, &b); err != nil {
				return err
			}
			if extra != nil {
				extra(pipe)
			}
			return nil
		})
		if err != nil {
			return err
		}
		out = &b
		return nil
	}, key)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// getBookmarks loads documents in one round trip, skipping IDs whose
// document vanished.
func (s *Store) getBookmarks(ctx context.Context, ids []string) ([]*domain.Bookmark, error) {
	if len(ids) == 0 {
		return []*domain.Bookmark{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = BookmarkKey(id)
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get bookmarks: %w", err)
	}

	bookmarks := make([]*domain.Bookmark, 0, len(values))
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		var b domain.Bookmark
		if err := unmarshalString(raw, &b); err != nil {
			continue
		}
		bookmarks = append(bookmarks, &b)
	}
	return bookmarks, nil
}

func enqueuePending(ctx context.Context, pipe redis.Pipeliner, b *domain.Bookmark) {
	pipe.ZAdd(ctx, PendingBookmarksKey(), redis.Z{
		Score:  float64(b.UpdatedAt.UnixNano()),
		Member: b.ID,
	})
}

func removeBookmark(ctx context.Context, pipe redis.Pipeliner, b *domain.Bookmark) {
	pipe.Del(ctx, BookmarkKey(b.ID))
	pipe.SRem(ctx, TopicBookmarksKey(b.TopicID), b.ID)
	pipe.SRem(ctx, UserBookmarksKey(b.AuthorID), b.ID)
	pipe.ZRem(ctx, PendingBookmarksKey(), b.ID)
}

// sortBookmarks orders by Order ascending (unset last), then CreatedAt descending.
func sortBookmarks(bookmarks []*domain.Bookmark) {
	sort.SliceStable(bookmarks, func(i, j int) bool {
		a, b := bookmarks[i], bookmarks[j]
		switch {
		case a.Order != nil && b.Order != nil && *a.Order != *b.Order:
			return *a.Order < *b.Order
		case a.Order != nil && b.Order == nil:
			return true
		case a.Order == nil && b.Order != nil:
			return false
		}
		return a.CreatedAt.After(b.CreatedAt)
	})
}
