package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/prapp/prapp/pkg/execution"
)

const defaultTTL = 10 * time.Minute

// RedisViewCache keeps derived views in Redis with a TTL. Entries expire on
// their own; Invalidate only shortens the window after a history append.
type RedisViewCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewRedisViewCache connects to the Redis instance named by redisURL
// (redis://host:port/db).
func NewRedisViewCache(ctx context.Context, logger *slog.Logger, redisURL string) (*RedisViewCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.InfoContext(ctx, "Connected to Redis", "addr", opts.Addr, "db", opts.DB)

	return &RedisViewCache{
		client: client,
		ttl:    defaultTTL,
		logger: logger.With("module", "view_cache"),
	}, nil
}

func viewKey(executionID string) string {
	return "prapp:view:" + executionID
}

func (c *RedisViewCache) Get(ctx context.Context, executionID string) (*execution.View, error) {
	payload, err := c.client.Get(ctx, viewKey(executionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrMiss
		}

		return nil, fmt.Errorf("failed to read cached view: %w", err)
	}

	var view execution.View
	if err := json.Unmarshal(payload, &view); err != nil {
		// A corrupt entry behaves like a miss.
		c.logger.WarnContext(ctx, "Discarding unreadable cached view", "execution_id", executionID, "error", err)

		return nil, ErrMiss
	}

	return &view, nil
}

func (c *RedisViewCache) Set(ctx context.Context, executionID string, view *execution.View) error {
	payload, err := json.Marshal(view)
	if err != nil {
		return fmt.Errorf("failed to encode view: %w", err)
	}

	if err := c.client.Set(ctx, viewKey(executionID), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache view: %w", err)
	}

	return nil
}

func (c *RedisViewCache) Invalidate(ctx context.Context, executionID string) error {
	if err := c.client.Del(ctx, viewKey(executionID)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate cached view: %w", err)
	}

	return nil
}

func (c *RedisViewCache) Close() error {
	return c.client.Close()
}
