package process

import (
	"strings"

	"github.com/prapp/prapp/pkg/models"
)

// The editing operations below are pure: each takes an item sequence and
// returns a new one, leaving the input untouched. Operations whose anchor ID
// cannot be resolved return the sequence unchanged, so edits stay resilient
// against races with stale local state. Every operation preserves the
// starts-with-section invariant for valid input.

// RenameSection sets the title of the section with the given ID.
func RenameSection(items []models.StepItem, id, title string) []models.StepItem {
	return rename(items, id, title, models.ItemTypeSection)
}

// RenameStep sets the title of the step with the given ID.
func RenameStep(items []models.StepItem, id, title string) []models.StepItem {
	return rename(items, id, title, models.ItemTypeStep)
}

func rename(items []models.StepItem, id, title string, itemType models.ItemType) []models.StepItem {
	out := clone(items)

	for i := range out {
		if out[i].ID == id && out[i].Type == itemType {
			out[i].Title = strings.TrimSpace(title)

			break
		}
	}

	return out
}

// SetStepDescription replaces the rich-text description of a step.
func SetStepDescription(items []models.StepItem, id, description string) []models.StepItem {
	out := clone(items)

	for i := range out {
		if out[i].ID == id && out[i].IsStep() {
			out[i].Description = description

			break
		}
	}

	return out
}

// SetStepAutostart toggles whether a step auto-starts once its predecessor
// is marked done.
func SetStepAutostart(items []models.StepItem, id string, autostart bool) []models.StepItem {
	out := clone(items)

	for i := range out {
		if out[i].ID == id && out[i].IsStep() {
			out[i].StartWithPrevious = autostart

			break
		}
	}

	return out
}

// InsertStepAfter inserts a new empty step immediately after the item with
// afterID. Anchoring on a step keeps the new step inside the same section;
// anchoring on a section header makes it that section's first step. Either
// way the new step can never precede the first section.
func InsertStepAfter(items []models.StepItem, afterID string) []models.StepItem {
	idx := indexOf(items, afterID)
	if idx == -1 {
		return clone(items)
	}

	return insertAt(items, idx+1, models.NewStep(""))
}

// InsertSectionAfter inserts a new empty section after the section containing
// the item with the given ID, that is, after that section's last step. The
// new section starts with no steps.
func InsertSectionAfter(items []models.StepItem, id string) []models.StepItem {
	idx := indexOf(items, id)
	if idx == -1 {
		return clone(items)
	}

	// Scan forward to the next section boundary or the end of the list.
	insert := idx + 1
	for insert < len(items) && !items[insert].IsSection() {
		insert++
	}

	return insertAt(items, insert, models.NewSection(""))
}

// DeleteItem removes the item with the given ID. Deleting a section cascades
// to every step belonging to it; the caller-facing confirmation lives in the
// consuming layer, the cascade itself is unconditional.
func DeleteItem(items []models.StepItem, id string) []models.StepItem {
	idx := indexOf(items, id)
	if idx == -1 {
		return clone(items)
	}

	end := idx + 1
	if items[idx].IsSection() {
		for end < len(items) && !items[end].IsSection() {
			end++
		}
	}

	out := make([]models.StepItem, 0, len(items)-(end-idx))
	out = append(out, items[:idx]...)
	out = append(out, items[end:]...)

	return out
}

func indexOf(items []models.StepItem, id string) int {
	for i := range items {
		if items[i].ID == id {
			return i
		}
	}

	return -1
}

func insertAt(items []models.StepItem, idx int, item models.StepItem) []models.StepItem {
	out := make([]models.StepItem, 0, len(items)+1)
	out = append(out, items[:idx]...)
	out = append(out, item)
	out = append(out, items[idx:]...)

	return out
}

func clone(items []models.StepItem) []models.StepItem {
	out := make([]models.StepItem, len(items))
	copy(out, items)

	return out
}
