// Package models defines the core domain models for process checklists and their executions.
package models

import (
	"strings"

	"github.com/google/uuid"
)

// ItemType discriminates the two kinds of entries in a process item sequence.
type ItemType string

const (
	ItemTypeSection ItemType = "SE" // Titled grouping boundary
	ItemTypeStep    ItemType = "ST" // Actionable checklist entry
)

// StepItem is one entry of a process item sequence, either a section header
// or a step. Description and StartWithPrevious are only meaningful for steps.
type StepItem struct {
	ID          string   `json:"id"          validate:"required,uuid4"`
	Type        ItemType `json:"type"        validate:"required,oneof=SE ST"`
	Title       string   `json:"title"       validate:"max=200"`
	Description string   `json:"description,omitempty"`

	// StartWithPrevious marks a step to be auto-started when the step
	// before it is marked done.
	StartWithPrevious bool `json:"start_with_previous,omitempty"`
}

// IsSection reports whether the item is a section header.
func (i StepItem) IsSection() bool {
	return i.Type == ItemTypeSection
}

// IsStep reports whether the item is a step.
func (i StepItem) IsStep() bool {
	return i.Type == ItemTypeStep
}

// NewSection creates an empty section header with a fresh ID.
func NewSection(title string) StepItem {
	return StepItem{
		ID:    uuid.New().String(),
		Type:  ItemTypeSection,
		Title: strings.TrimSpace(title),
	}
}

// NewStep creates an empty step with a fresh ID.
func NewStep(title string) StepItem {
	return StepItem{
		ID:    uuid.New().String(),
		Type:  ItemTypeStep,
		Title: strings.TrimSpace(title),
	}
}
