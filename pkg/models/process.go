package models

import "time"

// Process is one immutable revision of a process definition. All revisions of
// the same logical process share a GroupID; editing a process appends a new
// revision rather than rewriting an existing one, so executions can pin the
// exact revision they were started against.
type Process struct {
	Revision  string     `json:"revision"             validate:"required,uuid4"`
	GroupID   string     `json:"group_id"             validate:"required,uuid4"`
	Title     string     `json:"title"                validate:"max=200"`
	Items     []StepItem `json:"items"                validate:"dive"`
	CreatedAt time.Time  `json:"created_at"`
}

// NewProcessItems returns the item sequence of a freshly created process:
// one empty section followed by one empty step.
func NewProcessItems() []StepItem {
	return []StepItem{NewSection(""), NewStep("")}
}

// StepByID returns the step with the given ID, or nil. Section IDs do not match.
func (p *Process) StepByID(id string) *StepItem {
	for i := range p.Items {
		if p.Items[i].ID == id && p.Items[i].IsStep() {
			return &p.Items[i]
		}
	}

	return nil
}

// NextStepAfter returns the step that follows the given step in flat item
// order, skipping section headers, or nil if the step is last or unknown.
func (p *Process) NextStepAfter(id string) *StepItem {
	for i := range p.Items {
		if p.Items[i].ID != id || !p.Items[i].IsStep() {
			continue
		}

		for j := i + 1; j < len(p.Items); j++ {
			if p.Items[j].IsStep() {
				return &p.Items[j]
			}
		}

		return nil
	}

	return nil
}

// Steps returns only the step entries of the item sequence, in order.
func (p *Process) Steps() []StepItem {
	steps := make([]StepItem, 0, len(p.Items))

	for _, item := range p.Items {
		if item.IsStep() {
			steps = append(steps, item)
		}
	}

	return steps
}
