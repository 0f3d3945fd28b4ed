// Package execution derives the rendered state of a process execution from a
// process revision and its append-only event history. Derivation is pure:
// the same inputs always produce the same view, and appending events never
// takes a step's done status away.
package execution

import (
	"sort"
	"time"

	"github.com/prapp/prapp/pkg/models"
	"github.com/prapp/prapp/pkg/process"
)

// StepView is the derived state of a single step.
type StepView struct {
	Item      models.StepItem   `json:"item"`
	StartedAt *time.Time        `json:"started_at,omitempty"`
	DoneAt    *time.Time        `json:"done_at,omitempty"`
	Status    models.StepStatus `json:"status"`
}

// SectionView is the derived state of one section and its steps.
type SectionView struct {
	Item   models.StepItem   `json:"item"`
	Status models.StepStatus `json:"status"`
	Steps  []StepView        `json:"steps"`
}

// View is the rendered execution state. ActiveStepID is empty when every
// step is done or the process has no steps.
type View struct {
	Sections     []SectionView         `json:"sections"`
	ActiveStepID string                `json:"active_step_id,omitempty"`
	State        models.ExecutionState `json:"state"`
}

// StepByID returns the derived state of a step, or nil if the ID does not
// name a step of the underlying revision.
func (v *View) StepByID(id string) *StepView {
	for i := range v.Sections {
		for j := range v.Sections[i].Steps {
			if v.Sections[i].Steps[j].Item.ID == id {
				return &v.Sections[i].Steps[j]
			}
		}
	}

	return nil
}

// stepTimes holds the winning timestamps for one step.
type stepTimes struct {
	startedAt *time.Time
	doneAt    *time.Time
}

// reduceHistory picks, per step, the first chronological step_started and
// step_done timestamps. The input order is preserved for equal timestamps
// (stable sort), so duplicate and out-of-order events are absorbed
// deterministically.
func reduceHistory(history []models.HistoryItem) map[string]stepTimes {
	ordered := make([]models.HistoryItem, len(history))
	copy(ordered, history)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].At.Before(ordered[j].At)
	})

	times := make(map[string]stepTimes, len(ordered))

	for _, item := range ordered {
		entry := times[item.StepID]
		at := item.At

		switch item.Type {
		case models.HistoryStepStarted:
			if entry.startedAt == nil {
				entry.startedAt = &at
			}
		case models.HistoryStepDone:
			if entry.doneAt == nil {
				entry.doneAt = &at
			}
		}

		times[item.StepID] = entry
	}

	return times
}

// Derive computes the view for one process revision and event history.
// The history may be unordered; unknown step IDs in the history are ignored
// (they can only come from a different revision of the process).
//
// A step is done iff both timestamps are present: a step_done event without a
// preceding step_started does not complete the step. The single active step
// is the first non-done step in template order. A section is done when every
// one of its steps is done, which deliberately makes a section with zero
// steps done as well.
func Derive(proc *models.Process, history []models.HistoryItem) (*View, error) {
	groups, err := process.Split(proc.Items)
	if err != nil {
		return nil, err
	}

	times := reduceHistory(history)

	view := &View{
		Sections: make([]SectionView, 0, len(groups)),
		State:    models.ExecutionStateDone,
	}

	activeAssigned := false

	for _, group := range groups {
		section := SectionView{
			Item:  group.Section,
			Steps: make([]StepView, 0, len(group.Steps)),
		}

		sectionDone := true
		sectionActive := false

		for _, item := range group.Steps {
			entry := times[item.ID]
			step := StepView{
				Item:      item,
				StartedAt: entry.startedAt,
				DoneAt:    entry.doneAt,
			}

			switch {
			case entry.startedAt != nil && entry.doneAt != nil:
				step.Status = models.StepStatusDone
			case !activeAssigned:
				step.Status = models.StepStatusActive
				view.ActiveStepID = item.ID
				activeAssigned = true
				sectionActive = true
			default:
				step.Status = models.StepStatusPending
			}

			if step.Status != models.StepStatusDone {
				sectionDone = false
				view.State = models.ExecutionStateStarted
			}

			section.Steps = append(section.Steps, step)
		}

		switch {
		case sectionDone:
			section.Status = models.StepStatusDone
		case sectionActive:
			section.Status = models.StepStatusActive
		default:
			section.Status = models.StepStatusPending
		}

		view.Sections = append(view.Sections, section)
	}

	return view, nil
}
