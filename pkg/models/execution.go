package models

import "time"

// ExecutionState is the overall lifecycle state of an execution. There is no
// explicit "close" transition; an execution is done once every step is done.
type ExecutionState string

const (
	ExecutionStateStarted ExecutionState = "started"
	ExecutionStateDone    ExecutionState = "done"
)

// Execution is one tracked run-through of a specific process revision. The
// revision reference is fixed at creation; all mutable state lives in the
// append-only history.
type Execution struct {
	ID              string    `json:"id"               validate:"required,uuid4"`
	ProcessGroupID  string    `json:"process_group_id" validate:"required,uuid4"`
	ProcessRevision string    `json:"process_revision" validate:"required,uuid4"`
	InitiatedAt     time.Time `json:"initiated_at"`
}

// HistoryType is the kind of a history entry.
type HistoryType string

const (
	HistoryStepStarted HistoryType = "step_started"
	HistoryStepDone    HistoryType = "step_done"
)

// HistoryItem is one entry of an execution's append-only event log. Entries
// are never edited or removed; duplicate entries for the same step are legal
// and absorbed during derivation.
type HistoryItem struct {
	ID     string      `json:"id"   validate:"required"`
	Type   HistoryType `json:"type" validate:"required,oneof=step_started step_done"`
	StepID string      `json:"step" validate:"required,uuid4"`
	At     time.Time   `json:"at"`
}

// StepStatus is the displayed status of a step or section, derived from the
// process items and the execution history. It is never stored.
type StepStatus string

const (
	StepStatusPending StepStatus = "pending"
	StepStatusActive  StepStatus = "active"
	StepStatusDone    StepStatus = "done"
)
