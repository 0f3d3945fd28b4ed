// Package events defines the notification events emitted when executions and
// process revisions change. These are bus notifications for live observers;
// the authoritative record of execution progress is the persisted history.
package events

import (
	"time"

	"github.com/prapp/prapp/pkg/models"
)

type EventType string

// Topic carries all prapp notification events.
const Topic = "prapp.events"

const EventKeyMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	ProcessRevisionSavedEvent EventType = "process.revision.saved"
	ExecutionStartedEvent     EventType = "execution.started"
	StepStartedEvent          EventType = "execution.step.started"
	StepDoneEvent             EventType = "execution.step.done"
)

type BaseEvent struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
}

// ProcessRevisionSaved signals that a new immutable revision of a process
// was appended.
type ProcessRevisionSaved struct {
	BaseEvent

	GroupID  string `json:"group_id"`
	Revision string `json:"revision"`
	Title    string `json:"title"`
}

func (p ProcessRevisionSaved) GetType() EventType {
	return ProcessRevisionSavedEvent
}

// ExecutionStarted signals that a new execution was created against a
// pinned process revision.
type ExecutionStarted struct {
	BaseEvent

	ExecutionID     string    `json:"execution_id"`
	ProcessGroupID  string    `json:"process_group_id"`
	ProcessRevision string    `json:"process_revision"`
	InitiatedAt     time.Time `json:"initiated_at"`
}

func (e ExecutionStarted) GetType() EventType {
	return ExecutionStartedEvent
}

// StepStarted signals a step_started append. History carries the appended
// entry so observers can fold it into their local view without refetching.
type StepStarted struct {
	BaseEvent

	ExecutionID string             `json:"execution_id"`
	History     models.HistoryItem `json:"history"`
}

func (s StepStarted) GetType() EventType {
	return StepStartedEvent
}

// StepDone signals a step_done append. Autostarted reports a follow-up
// step_started entry implied by the done step's successor, if any.
type StepDone struct {
	BaseEvent

	ExecutionID string              `json:"execution_id"`
	History     models.HistoryItem  `json:"history"`
	Autostarted *models.HistoryItem `json:"autostarted,omitempty"`
}

func (s StepDone) GetType() EventType {
	return StepDoneEvent
}
