package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/telemetryhub/relay/internal/domain"
)

// RedisStore keeps the queue record in a single Redis string key.
// When Redis runs with maxmemory + a noeviction policy, writes into a full
// instance fail with an OOM error; that is mapped to domain.ErrQuotaExceeded
// so the queue's eviction policy can reclaim space. An optional client-side
// quota mirrors the FileStore behaviour for instances without maxmemory.
type RedisStore struct {
	client     *redis.Client
	quotaBytes int
}

// NewRedisStore parses the URL, connects, and verifies connectivity.
func NewRedisStore(ctx context.Context, redisURL string, quotaBytes int) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &RedisStore{client: client, quotaBytes: quotaBytes}, nil
}

func (s *RedisStore) Read(ctx context.Context, key string) ([]byte, error) {
	blob, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read record: %w", err)
	}
	return blob, nil
}

func (s *RedisStore) Write(ctx context.Context, key string, blob []byte) error {
	if s.quotaBytes > 0 && len(blob) > s.quotaBytes {
		return fmt.Errorf("record of %d bytes over %d byte quota: %w",
			len(blob), s.quotaBytes, domain.ErrQuotaExceeded)
	}

	if err := s.client.Set(ctx, key, blob, 0).Err(); err != nil {
		// Redis prefixes memory-limit rejections with "OOM".
		if strings.HasPrefix(err.Error(), "OOM") {
			return fmt.Errorf("redis out of memory: %w", domain.ErrQuotaExceeded)
		}
		return fmt.Errorf("write record: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	return nil
}

func (s *RedisStore) Close() error { return s.client.Close() }

var _ Store = (*RedisStore)(nil)
