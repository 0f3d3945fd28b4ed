package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/prapp/prapp/pkg/models"
	"github.com/prapp/prapp/pkg/persistence"
)

// ExecutionRepository stores executions as executions/<id>.json with the
// append-only history alongside in executions/<id>.history.json.
type ExecutionRepository struct {
	root string
}

// NewExecutionRepository creates a new execution repository under root.
func NewExecutionRepository(root string) *ExecutionRepository {
	return &ExecutionRepository{root: root}
}

func (er *ExecutionRepository) executionPath(id string) string {
	return filepath.Join(er.root, "executions", id+".json")
}

func (er *ExecutionRepository) historyPath(id string) string {
	return filepath.Join(er.root, "executions", id+".history.json")
}

// Create writes a new execution with an empty history.
func (er *ExecutionRepository) Create(_ context.Context, execution *models.Execution) error {
	if err := os.MkdirAll(filepath.Join(er.root, "executions"), 0o755); err != nil {
		return fmt.Errorf("failed to create executions directory: %w", err)
	}

	data, err := json.MarshalIndent(execution, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode execution: %w", err)
	}

	if err := os.WriteFile(er.executionPath(execution.ID), data, 0o644); err != nil {
		return fmt.Errorf("failed to write execution: %w", err)
	}

	return nil
}

// ByID loads one execution.
func (er *ExecutionRepository) ByID(_ context.Context, id string) (*models.Execution, error) {
	data, err := os.ReadFile(er.executionPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, persistence.NewExecutionError("ByID", id, persistence.ErrExecutionNotFound)
		}

		return nil, fmt.Errorf("failed to read execution %s: %w", id, err)
	}

	var execution models.Execution
	if err := json.Unmarshal(data, &execution); err != nil {
		return nil, fmt.Errorf("failed to decode execution %s: %w", id, err)
	}

	return &execution, nil
}

// AppendHistory appends one entry to the execution's event log. Existing
// entries are never rewritten; the file is replaced wholesale with the
// extended log.
func (er *ExecutionRepository) AppendHistory(ctx context.Context, executionID string, item *models.HistoryItem) error {
	if _, err := er.ByID(ctx, executionID); err != nil {
		return err
	}

	history, err := er.History(ctx, executionID)
	if err != nil {
		return err
	}

	history = append(history, *item)

	data, err := json.MarshalIndent(history, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode history for execution %s: %w", executionID, err)
	}

	if err := os.WriteFile(er.historyPath(executionID), data, 0o644); err != nil {
		return fmt.Errorf("failed to write history for execution %s: %w", executionID, err)
	}

	return nil
}

// History returns the execution's event log in append order. A missing
// history file means no events yet.
func (er *ExecutionRepository) History(ctx context.Context, executionID string) ([]models.HistoryItem, error) {
	data, err := os.ReadFile(er.historyPath(executionID))
	if err != nil {
		if os.IsNotExist(err) {
			if _, lookupErr := er.ByID(ctx, executionID); lookupErr != nil {
				return nil, lookupErr
			}

			return []models.HistoryItem{}, nil
		}

		return nil, fmt.Errorf("failed to read history for execution %s: %w", executionID, err)
	}

	var history []models.HistoryItem
	if err := json.Unmarshal(data, &history); err != nil {
		return nil, fmt.Errorf("failed to decode history for execution %s: %w", executionID, err)
	}

	return history, nil
}
