package process

import (
	"errors"
	"fmt"

	"github.com/prapp/prapp/pkg/models"
)

// EditOp names one editing operation applied to an item sequence.
type EditOp string

const (
	EditRenameSection      EditOp = "rename_section"
	EditRenameStep         EditOp = "rename_step"
	EditSetDescription     EditOp = "set_description"
	EditSetAutostart       EditOp = "set_autostart"
	EditInsertStepAfter    EditOp = "insert_step_after"
	EditInsertSectionAfter EditOp = "insert_section_after"
	EditDeleteItem         EditOp = "delete_item"
)

// ErrUnknownEditOp indicates an edit with an op outside the algebra.
var ErrUnknownEditOp = errors.New("unknown edit operation")

// Edit is one serialized editing operation. ID anchors the operation;
// the remaining fields apply per op.
type Edit struct {
	Op          EditOp  `json:"op"                    validate:"required,oneof=rename_section rename_step set_description set_autostart insert_step_after insert_section_after delete_item"`
	ID          string  `json:"id"                    validate:"required"`
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Autostart   *bool   `json:"autostart,omitempty"`
}

// Apply folds a batch of edits over an item sequence, left to right. Stale
// anchors degrade to no-ops; only an op outside the algebra fails.
func Apply(items []models.StepItem, edits []Edit) ([]models.StepItem, error) {
	out := clone(items)

	for _, edit := range edits {
		switch edit.Op {
		case EditRenameSection:
			out = RenameSection(out, edit.ID, deref(edit.Title))
		case EditRenameStep:
			out = RenameStep(out, edit.ID, deref(edit.Title))
		case EditSetDescription:
			out = SetStepDescription(out, edit.ID, deref(edit.Description))
		case EditSetAutostart:
			autostart := edit.Autostart != nil && *edit.Autostart
			out = SetStepAutostart(out, edit.ID, autostart)
		case EditInsertStepAfter:
			out = InsertStepAfter(out, edit.ID)
		case EditInsertSectionAfter:
			out = InsertSectionAfter(out, edit.ID)
		case EditDeleteItem:
			out = DeleteItem(out, edit.ID)
		default:
			return nil, fmt.Errorf("%w: %q", ErrUnknownEditOp, edit.Op)
		}
	}

	return out, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}

	return *s
}
