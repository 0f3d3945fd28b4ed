package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lib/pq"
	"github.com/prapp/prapp/pkg/models"
	"github.com/prapp/prapp/pkg/persistence"
)

// ProcessRepository handles process revision database operations.
type ProcessRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewProcessRepository creates a new process repository.
func NewProcessRepository(db *sql.DB, logger *slog.Logger) *ProcessRepository {
	return &ProcessRepository{db: db, logger: logger}
}

var sortColumns = map[string]string{
	"created_at": "created_at",
	"title":      "title",
}

// List returns the latest revision per process group, paginated and sorted.
func (r *ProcessRepository) List(ctx context.Context, opts persistence.ListProcessesOptions) (*persistence.ProcessListResult, error) {
	if opts.Limit <= 0 || opts.Limit > 100 {
		opts.Limit = 20
	}

	if opts.SortBy == "" {
		opts.SortBy = "created_at"
	}

	if opts.SortOrder != "asc" {
		opts.SortOrder = "desc"
	}

	column, ok := sortColumns[opts.SortBy]
	if !ok {
		return nil, fmt.Errorf("%w: %s", persistence.ErrInvalidSortField, opts.SortBy)
	}

	direction := "DESC"
	if opts.SortOrder == "asc" {
		direction = "ASC"
	}

	query := fmt.Sprintf(`
		SELECT
			revision
		  , group_id
		  , title
		  , items
		  , created_at
		  , COUNT(*) OVER () AS total_count
		FROM (
			SELECT DISTINCT ON (group_id) *
			FROM processes
			ORDER BY group_id, created_at DESC
		) latest
		ORDER BY %s %s
		LIMIT $1 OFFSET $2
	`, column, direction)

	rows, err := r.db.QueryContext(ctx, query, opts.Limit, opts.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query processes: %w", err)
	}

	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	processes := make([]*models.Process, 0)

	var totalCount int64

	for rows.Next() {
		var (
			proc  models.Process
			items []byte
		)

		err := rows.Scan(&proc.Revision, &proc.GroupID, &proc.Title, &items, &proc.CreatedAt, &totalCount)
		if err != nil {
			return nil, fmt.Errorf("failed to scan process: %w", err)
		}

		if err := json.Unmarshal(items, &proc.Items); err != nil {
			return nil, fmt.Errorf("failed to decode items for process %s: %w", proc.Revision, err)
		}

		processes = append(processes, &proc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating processes: %w", err)
	}

	return &persistence.ProcessListResult{
		Processes:   processes,
		TotalCount:  totalCount,
		HasNextPage: int64(opts.Offset+len(processes)) < totalCount,
	}, nil
}

// Latest returns the newest revision of a process group.
func (r *ProcessRepository) Latest(ctx context.Context, groupID string) (*models.Process, error) {
	query := `
		SELECT
			revision
		  , group_id
		  , title
		  , items
		  , created_at
		FROM processes
		WHERE group_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`

	proc, err := r.scanProcess(r.db.QueryRowContext(ctx, query, groupID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewProcessError("Latest", groupID, "", persistence.ErrProcessNotFound)
		}

		return nil, fmt.Errorf("failed to load latest revision of process %s: %w", groupID, err)
	}

	return proc, nil
}

// ByRevision loads one specific revision of a process group.
func (r *ProcessRepository) ByRevision(ctx context.Context, groupID, revision string) (*models.Process, error) {
	query := `
		SELECT
			revision
		  , group_id
		  , title
		  , items
		  , created_at
		FROM processes
		WHERE group_id = $1 AND revision = $2
	`

	proc, err := r.scanProcess(r.db.QueryRowContext(ctx, query, groupID, revision))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewProcessError("ByRevision", groupID, revision, persistence.ErrRevisionNotFound)
		}

		return nil, fmt.Errorf("failed to load revision %s of process %s: %w", revision, groupID, err)
	}

	return proc, nil
}

// SaveRevision inserts a new immutable revision.
func (r *ProcessRepository) SaveRevision(ctx context.Context, proc *models.Process) error {
	items, err := json.Marshal(proc.Items)
	if err != nil {
		return fmt.Errorf("failed to encode items: %w", err)
	}

	query := `
		INSERT INTO processes (revision, group_id, title, items, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err = r.db.ExecContext(ctx, query, proc.Revision, proc.GroupID, proc.Title, items, proc.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return persistence.NewProcessError("SaveRevision", proc.GroupID, proc.Revision, persistence.ErrRevisionAlreadyExists)
		}

		return fmt.Errorf("failed to insert process revision: %w", err)
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *ProcessRepository) scanProcess(row rowScanner) (*models.Process, error) {
	var (
		proc  models.Process
		items []byte
	)

	err := row.Scan(&proc.Revision, &proc.GroupID, &proc.Title, &items, &proc.CreatedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(items, &proc.Items); err != nil {
		return nil, fmt.Errorf("failed to decode items: %w", err)
	}

	return &proc, nil
}
