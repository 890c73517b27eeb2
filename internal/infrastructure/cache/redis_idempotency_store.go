package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pharmapos/backend/internal/domain/shared"
)

const settlementKeyPrefix = "settlement:request:"

// RedisIdempotencyStore tracks processed settlement requests in Redis,
// so every POS terminal and server instance sees the same state.
type RedisIdempotencyStore struct {
	client *redis.Client
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// NewRedisIdempotencyStore connects to Redis and verifies the
// connection before returning the store
func NewRedisIdempotencyStore(cfg RedisConfig) (*RedisIdempotencyStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisIdempotencyStore{client: client}, nil
}

// MarkProcessed records the request ID with a TTL. SETNX makes the
// check-and-set atomic, so concurrent submissions of the same request
// see exactly one true result.
func (s *RedisIdempotencyStore) MarkProcessed(ctx context.Context, requestID string, ttl time.Duration) (bool, error) {
	newlyMarked, err := s.client.SetNX(ctx, settlementKeyPrefix+requestID, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to mark request as processed: %w", err)
	}
	return newlyMarked, nil
}

// IsProcessed reports whether the request ID is still tracked
func (s *RedisIdempotencyStore) IsProcessed(ctx context.Context, requestID string) (bool, error) {
	exists, err := s.client.Exists(ctx, settlementKeyPrefix+requestID).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check if request is processed: %w", err)
	}
	return exists > 0, nil
}

// Release drops the request ID so a later submission is treated as new
func (s *RedisIdempotencyStore) Release(ctx context.Context, requestID string) error {
	if err := s.client.Del(ctx, settlementKeyPrefix+requestID).Err(); err != nil {
		return fmt.Errorf("failed to release request reservation: %w", err)
	}
	return nil
}

// Close closes the Redis client
func (s *RedisIdempotencyStore) Close() error {
	return s.client.Close()
}

var _ shared.IdempotencyStore = (*RedisIdempotencyStore)(nil)
