package cache

import (
	"context"

	"github.com/prapp/prapp/pkg/execution"
)

// NoopViewCache is used when no Redis URL is configured. Every read is a
// miss and writes are discarded.
type NoopViewCache struct{}

func NewNoopViewCache() *NoopViewCache {
	return &NoopViewCache{}
}

func (c *NoopViewCache) Get(_ context.Context, _ string) (*execution.View, error) {
	return nil, ErrMiss
}

func (c *NoopViewCache) Set(_ context.Context, _ string, _ *execution.View) error {
	return nil
}

func (c *NoopViewCache) Invalidate(_ context.Context, _ string) error {
	return nil
}

func (c *NoopViewCache) Close() error {
	return nil
}
