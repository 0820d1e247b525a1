package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jwebster45206/manor-engine/pkg/storage"
	"github.com/redis/go-redis/v9"
)

// keyPrefix namespaces save slots within a shared Redis.
const keyPrefix = "save:"

// RedisSlot implements storage.Slot on Redis strings.
type RedisSlot struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// Ensure RedisSlot implements Slot interface
var _ storage.Slot = (*RedisSlot)(nil)

// NewRedisSlot creates a slot from a redis:// URL or a bare host:port.
// Saved records expire after ttl of inactivity; zero keeps them forever.
func NewRedisSlot(redisURL string, ttl time.Duration, logger *slog.Logger) (*RedisSlot, error) {
	opts := &redis.Options{Addr: redisURL}
	if strings.Contains(redisURL, "://") {
		parsed, err := redis.ParseURL(redisURL)
		if err != nil {
			return nil, fmt.Errorf("invalid redis url: %w", err)
		}
		opts = parsed
	}
	return NewRedisSlotFromClient(redis.NewClient(opts), ttl, logger), nil
}

// NewRedisSlotFromClient wraps an existing client.
func NewRedisSlotFromClient(client *redis.Client, ttl time.Duration, logger *slog.Logger) *RedisSlot {
	return &RedisSlot{
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

// Client exposes the underlying client for Pub/Sub.
func (r *RedisSlot) Client() *redis.Client {
	return r.client
}

// Health and lifecycle methods

func (r *RedisSlot) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (r *RedisSlot) Close() error {
	if err := r.client.Close(); err != nil {
		r.logger.Error("Failed to close Redis connection", "error", err)
		return err
	}
	r.logger.Info("Redis connection closed")
	return nil
}

// WaitForConnection waits for Redis to become available (used during startup)
func (r *RedisSlot) WaitForConnection(ctx context.Context, maxRetries int, retryDelay time.Duration) error {
	for i := 0; i < maxRetries; i++ {
		if err := r.Ping(ctx); err != nil {
			r.logger.Debug("Redis not ready yet", "error", err, "attempt", i+1)

			select {
			case <-ctx.Done():
				return fmt.Errorf("context cancelled while waiting for redis: %w", ctx.Err())
			case <-time.After(retryDelay):
				continue
			}
		}

		r.logger.Info("Redis connection established")
		return nil
	}

	return fmt.Errorf("redis did not become available after %d attempts", maxRetries)
}

// Slot operations

func (r *RedisSlot) Read(ctx context.Context, key string) ([]byte, error) {
	data, err := r.client.Get(ctx, keyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, storage.ErrNotFound
		}
		r.logger.Error("Failed to read save slot", "key", key, "error", err)
		return nil, fmt.Errorf("%w: redis get: %v", storage.ErrUnavailable, err)
	}
	if len(data) == 0 {
		return nil, storage.ErrNotFound
	}
	return data, nil
}

func (r *RedisSlot) Write(ctx context.Context, key string, data []byte) error {
	if err := r.client.Set(ctx, keyPrefix+key, data, r.ttl).Err(); err != nil {
		r.logger.Error("Failed to write save slot", "key", key, "error", err)
		return fmt.Errorf("%w: redis set: %v", storage.ErrUnavailable, err)
	}
	r.logger.Debug("Save slot written", "key", key, "bytes", len(data))
	return nil
}

func (r *RedisSlot) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, keyPrefix+key).Err(); err != nil {
		r.logger.Error("Failed to delete save slot", "key", key, "error", err)
		return fmt.Errorf("%w: redis del: %v", storage.ErrUnavailable, err)
	}
	return nil
}
