package dedup

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultKeyPrefix = "petfeeder:fired"
	// keyTTL outlives a missed midnight reset by a day.
	keyTTL       = 48 * time.Hour
	scanPageSize = 500
)

// RedisStore keeps one key per schedule and day so several engine instances
// can share firing state.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisStore returns a store using prefix for its keys. An empty prefix
// selects the default.
func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) key(scheduleID, day string) string {
	return fmt.Sprintf("%s:%s:%s", s.prefix, day, scheduleID)
}

func (s *RedisStore) HasFired(ctx context.Context, scheduleID, day string) (bool, error) {
	n, err := s.client.Exists(ctx, s.key(scheduleID, day)).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists: %w", err)
	}
	return n > 0, nil
}

func (s *RedisStore) MarkFired(ctx context.Context, scheduleID, day string) error {
	if err := s.client.Set(ctx, s.key(scheduleID, day), time.Now().UTC().Format(time.RFC3339), keyTTL).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// ResetAll deletes every key under the store prefix.
func (s *RedisStore) ResetAll(ctx context.Context) error {
	var cursor uint64
	for {
		keys, next, err := s.client.Scan(ctx, cursor, s.prefix+":*", scanPageSize).Result()
		if err != nil {
			return fmt.Errorf("redis scan: %w", err)
		}
		if len(keys) > 0 {
			if err := s.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("redis del: %w", err)
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

var _ Store = (*RedisStore)(nil)
