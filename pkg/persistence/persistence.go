// Package persistence provides the storage abstraction for process revisions
// and execution histories.
package persistence

import (
	"context"

	"github.com/prapp/prapp/pkg/models"
)

// ListProcessesOptions controls pagination, filtering and sorting when
// listing processes. Listing returns the latest revision of each group.
type ListProcessesOptions struct {
	Limit  int
	Offset int

	SortBy    string // created_at | title
	SortOrder string // asc | desc
}

// ProcessListResult is one page of process groups.
type ProcessListResult struct {
	Processes   []*models.Process
	TotalCount  int64
	HasNextPage bool
}

// ProcessRepository stores immutable process revisions grouped by GroupID.
// Revisions are insert-only; there is no update or delete of a saved revision.
type ProcessRepository interface {
	List(ctx context.Context, opts ListProcessesOptions) (*ProcessListResult, error)
	Latest(ctx context.Context, groupID string) (*models.Process, error)
	ByRevision(ctx context.Context, groupID, revision string) (*models.Process, error)
	SaveRevision(ctx context.Context, process *models.Process) error
}

// ExecutionRepository stores executions and their append-only histories.
// History entries are never edited or removed.
type ExecutionRepository interface {
	Create(ctx context.Context, execution *models.Execution) error
	ByID(ctx context.Context, id string) (*models.Execution, error)
	AppendHistory(ctx context.Context, executionID string, item *models.HistoryItem) error
	History(ctx context.Context, executionID string) ([]models.HistoryItem, error)
}

type Persistence interface {
	ProcessRepository() ProcessRepository
	ExecutionRepository() ExecutionRepository
	HealthCheck(ctx context.Context) error

	Close(ctx context.Context) error
}
