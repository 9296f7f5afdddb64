package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/shelf/internal/domain"
)

// maxTxRetries bounds optimistic-lock retries when a watched key changes
// between read and EXEC.
const maxTxRetries = 8

// Store persists topics and bookmarks as JSON documents in Redis.
// Multi-key writes run inside WATCH/MULTI so the per-user and per-topic
// index sets never drift from the documents.
type Store struct {
	client *redis.Client
	now    func() time.Time
	newID  func() string
}

// NewStore creates a new Redis store
func NewStore(client *redis.Client) *Store {
	return &Store{
		client: client,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// Ping reports whether Redis answers.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// watch runs fn under WATCH keys, retrying when another writer touched them.
func (s *Store) watch(ctx context.Context, fn func(*redis.Tx) error, keys ...string) error {
	for i := 0; i < maxTxRetries; i++ {
		err := s.client.Watch(ctx, fn, keys...)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("transaction on %v gave up after %d attempts: %w", keys, maxTxRetries, redis.TxFailedErr)
}

func getJSON(ctx context.Context, c redis.Cmdable, key string, dst interface{}) error {
	data, err := c.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("failed to get %s: %w", key, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("failed to unmarshal %s: %w", key, err)
	}
	return nil
}

func setJSON(ctx context.Context, c redis.Cmdable, key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	return c.Set(ctx, key, data, 0).Err()
}

func unmarshalString(raw string, dst interface{}) error {
	return json.Unmarshal([]byte(raw), dst)
}
