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

// TopicInput holds the user-editable fields of a topic.
type TopicInput struct {
	Title       string
	Description *string
	Emoji       string
}

// CreateTopic stores a new topic at the end of the user's list.
func (s *Store) CreateTopic(ctx context.Context, userID string, in TopicInput) (*domain.Topic, error) {
	count, err := s.client.SCard(ctx, UserTopicsKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to count topics: %w", err)
	}

	now := s.now()
	topic := &domain.Topic{
		ID:          s.newID(),
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Emoji:       domain.EmojiOrDefault(in.Emoji),
		Order:       int(count),
		UserID:      userID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if err := setJSON(ctx, pipe, TopicKey(topic.ID), topic); err != nil {
			return err
		}
		pipe.SAdd(ctx, UserTopicsKey(userID), topic.ID)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save topic: %w", err)
	}
	return topic, nil
}

// GetTopic retrieves a topic by ID
func (s *Store) GetTopic(ctx context.Context, id string) (*domain.Topic, error) {
	var t domain.Topic
	if err := getJSON(ctx, s.client, TopicKey(id), &t); err != nil {
		return nil, fmt.Errorf("topic %s: %w", id, err)
	}
	return &t, nil
}

// CountBookmarks returns how many bookmarks a topic holds.
func (s *Store) CountBookmarks(ctx context.Context, topicID string) (int, error) {
	n, err := s.client.SCard(ctx, TopicBookmarksKey(topicID)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count bookmarks: %w", err)
	}
	return int(n), nil
}

// ListTopics returns the user's topics with bookmark counts, ordered by
// Order then most recently updated.
func (s *Store) ListTopics(ctx context.Context, userID string) ([]*domain.TopicWithCount, error) {
	ids, err := s.client.SMembers(ctx, UserTopicsKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get topic IDs: %w", err)
	}

	topics := make([]*domain.TopicWithCount, 0, len(ids))
	for _, id := range ids {
		t, err := s.GetTopic(ctx, id)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			return nil, err
		}
		count, err := s.CountBookmarks(ctx, id)
		if err != nil {
			return nil, err
		}
		topics = append(topics, &domain.TopicWithCount{Topic: t, BookmarkCount: count})
	}

	sort.SliceStable(topics, func(i, j int) bool {
		if topics[i].Order != topics[j].Order {
			return topics[i].Order < topics[j].Order
		}
		return topics[i].UpdatedAt.After(topics[j].UpdatedAt)
	})
	return topics, nil
}

// FindTopicByTitle returns the user's topic with exactly this title, or nil.
func (s *Store) FindTopicByTitle(ctx context.Context, userID, title string) (*domain.Topic, error) {
	topics, err := s.ListTopics(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, t := range topics {
		if t.Title == title {
			return t.Topic, nil
		}
	}
	return nil, nil
}

// UpdateTopic replaces title, description and emoji.
func (s *Store) UpdateTopic(ctx context.Context, id string, in TopicInput) (*domain.Topic, error) {
	key := TopicKey(id)
	var out *domain.Topic

	err := s.watch(ctx, func(tx *redis.Tx) error {
		var t domain.Topic
		if err := getJSON(ctx, tx, key, &t); err != nil {
			return fmt.Errorf("topic %s: %w", id, err)
		}
		t.Title = strings.TrimSpace(in.Title)
		t.Description = in.Description
		t.Emoji = domain.EmojiOrDefault(in.Emoji)
		t.UpdatedAt = s.now()

		_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			return setJSON(ctx, pipe, key, &t)
		})
		if err != nil {
			return err
		}
		out = &t
		return nil
	}, key)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteTopic removes a topic and every bookmark filed under it.
func (s *Store) DeleteTopic(ctx context.Context, id string) error {
	key := TopicKey(id)
	setKey := TopicBookmarksKey(id)

	return s.watch(ctx, func(tx *redis.Tx) error {
		var t domain.Topic
		if err := getJSON(ctx, tx, key, &t); err != nil {
			return fmt.Errorf("topic %s: %w", id, err)
		}

		ids, err := tx.SMembers(ctx, setKey).Result()
		if err != nil {
			return fmt.Errorf("failed to get bookmark IDs: %w", err)
		}
		bookmarks, err := s.getBookmarks(ctx, ids)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			for _, b := range bookmarks {
				removeBookmark(ctx, pipe, b)
			}
			pipe.Del(ctx, key, setKey)
			pipe.SRem(ctx, UserTopicsKey(t.UserID), id)
			return nil
		})
		if err != nil {
			return fmt.Errorf("failed to delete topic: %w", err)
		}
		return nil
	}, key, setKey)
}

// ReorderTopics sets Order to the position in orderedIDs, for the user's own
// topics only.
func (s *Store) ReorderTopics(ctx context.Context, userID string, orderedIDs []string) error {
	if len(orderedIDs) == 0 {
		return nil
	}
	keys := make([]string, len(orderedIDs))
	for i, id := range orderedIDs {
		keys[i] = TopicKey(id)
	}

	return s.watch(ctx, func(tx *redis.Tx) error {
		updated := make([]*domain.Topic, 0, len(orderedIDs))
		now := s.now()
		for i, id := range orderedIDs {
			var t domain.Topic
			if err := getJSON(ctx, tx, TopicKey(id), &t); err != nil {
				if errors.Is(err, domain.ErrNotFound) {
					continue
				}
				return err
			}
			if t.UserID != userID {
				continue
			}
			t.Order = i
			t.UpdatedAt = now
			updated = append(updated, &t)
		}

		_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			for _, t := range updated {
				if err := setJSON(ctx, pipe, TopicKey(t.ID), t); err != nil {
					return err
				}
			}
			return nil
		})
		return err
	}, keys...)
}

// TopicHasURL reports whether the topic already holds a bookmark for rawURL.
func (s *Store) TopicHasURL(ctx context.Context, topicID, rawURL string) (bool, error) {
	bookmarks, err := s.ListBookmarksByTopic(ctx, topicID)
	if err != nil {
		return false, err
	}
	for _, b := range bookmarks {
		if b.URL == rawURL {
			return true, nil
		}
	}
	return false, nil
}
