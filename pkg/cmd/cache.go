package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prapp/prapp/pkg/cache"
)

// NewViewCache wires the Redis view cache when a URL is configured and falls
// back to the no-op cache otherwise.
func NewViewCache(ctx context.Context, logger *slog.Logger, redisURL string) cache.ViewCache {
	if redisURL == "" {
		return cache.NewNoopViewCache()
	}

	c, err := cache.NewRedisViewCache(ctx, logger, redisURL)
	if err != nil {
		panic(fmt.Errorf("failed to initialize view cache: %w", err))
	}

	return c
}
