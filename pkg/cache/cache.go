// Package cache provides caching for derived execution views.
package cache

import (
	"context"
	"errors"

	"github.com/prapp/prapp/pkg/execution"
)

// ErrMiss is returned when a view is not in the cache.
var ErrMiss = errors.New("view not cached")

// ViewCache stores derived execution views keyed by execution ID. A cache
// entry must be invalidated whenever the execution's history grows, so a
// stale read never survives an append.
type ViewCache interface {
	Get(ctx context.Context, executionID string) (*execution.View, error)
	Set(ctx context.Context, executionID string, view *execution.View) error
	Invalidate(ctx context.Context, executionID string) error
	Close() error
}
