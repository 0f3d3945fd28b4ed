// Package process implements the pure core around process item sequences:
// structural validation, section grouping, and the editing operations. All
// functions treat their input as immutable and return fresh slices.
package process

import (
	"errors"
	"fmt"

	"github.com/prapp/prapp/pkg/models"
)

// ErrInvalidStructure indicates an item sequence that is non-empty but does
// not start with a section header. Such sequences are rejected outright,
// never silently repaired.
var ErrInvalidStructure = errors.New("invalid structure: first item must be a section")

// Group is one section header together with the steps that belong to it.
// A section immediately followed by another section has zero steps.
type Group struct {
	Section models.StepItem
	Steps   []models.StepItem
}

// Validate checks the single structural invariant of an item sequence: it is
// either empty or starts with a section.
func Validate(items []models.StepItem) error {
	if len(items) > 0 && !items[0].IsSection() {
		return fmt.Errorf("%w (got %q at index 0)", ErrInvalidStructure, items[0].Type)
	}

	return nil
}

// Split partitions a valid item sequence into section groups by a single
// left-to-right scan. Each section header opens a new group; steps attach to
// the most recent one.
func Split(items []models.StepItem) ([]Group, error) {
	if err := Validate(items); err != nil {
		return nil, err
	}

	groups := make([]Group, 0)

	for _, item := range items {
		if item.IsSection() {
			groups = append(groups, Group{Section: item, Steps: []models.StepItem{}})

			continue
		}

		last := &groups[len(groups)-1]
		last.Steps = append(last.Steps, item)
	}

	return groups, nil
}

// Flatten is the inverse of Split: concatenating each group's header with its
// steps reconstructs the original sequence exactly.
func Flatten(groups []Group) []models.StepItem {
	items := make([]models.StepItem, 0, len(groups))

	for _, group := range groups {
		items = append(items, group.Section)
		items = append(items, group.Steps...)
	}

	return items
}
