package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/prapp/prapp/pkg/models"
	"github.com/prapp/prapp/pkg/persistence"
)

// ExecutionRepository handles execution and history database operations.
type ExecutionRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewExecutionRepository creates a new execution repository.
func NewExecutionRepository(db *sql.DB, logger *slog.Logger) *ExecutionRepository {
	return &ExecutionRepository{db: db, logger: logger}
}

// Create inserts a new execution.
func (r *ExecutionRepository) Create(ctx context.Context, execution *models.Execution) error {
	query := `
		INSERT INTO executions (id, process_group_id, process_revision, initiated_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.db.ExecContext(ctx, query,
		execution.ID, execution.ProcessGroupID, execution.ProcessRevision, execution.InitiatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert execution: %w", err)
	}

	return nil
}

// ByID loads one execution.
func (r *ExecutionRepository) ByID(ctx context.Context, id string) (*models.Execution, error) {
	query := `
		SELECT
			id
		  , process_group_id
		  , process_revision
		  , initiated_at
		FROM executions
		WHERE id = $1
	`

	var execution models.Execution

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&execution.ID, &execution.ProcessGroupID, &execution.ProcessRevision, &execution.InitiatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewExecutionError("ByID", id, persistence.ErrExecutionNotFound)
		}

		return nil, fmt.Errorf("failed to load execution %s: %w", id, err)
	}

	return &execution, nil
}

// AppendHistory inserts one history entry. The seq column preserves append
// order for entries with equal timestamps.
func (r *ExecutionRepository) AppendHistory(ctx context.Context, executionID string, item *models.HistoryItem) error {
	if _, err := r.ByID(ctx, executionID); err != nil {
		return err
	}

	query := `
		INSERT INTO execution_history (id, execution_id, type, step_id, at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.db.ExecContext(ctx, query, item.ID, executionID, item.Type, item.StepID, item.At)
	if err != nil {
		return fmt.Errorf("failed to insert history entry for execution %s: %w", executionID, err)
	}

	return nil
}

// History returns the execution's event log in append order.
func (r *ExecutionRepository) History(ctx context.Context, executionID string) ([]models.HistoryItem, error) {
	if _, err := r.ByID(ctx, executionID); err != nil {
		return nil, err
	}

	query := `
		SELECT
			id
		  , type
		  , step_id
		  , at
		FROM execution_history
		WHERE execution_id = $1
		ORDER BY seq
	`

	rows, err := r.db.QueryContext(ctx, query, executionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query history for execution %s: %w", executionID, err)
	}

	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	history := make([]models.HistoryItem, 0)

	for rows.Next() {
		var item models.HistoryItem

		err := rows.Scan(&item.ID, &item.Type, &item.StepID, &item.At)
		if err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}

		history = append(history, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating history: %w", err)
	}

	return history, nil
}
