package process

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenameSection(t *testing.T) {
	items := sampleItems()

	out := RenameSection(items, items[0].ID, "  Intake  ")

	assert.Equal(t, "Intake", out[0].Title)
	assert.Equal(t, "S1", items[0].Title, "input sequence must stay untouched")
}

func TestRenameSection_WrongKindIsNoop(t *testing.T) {
	items := sampleItems()

	// items[1] is a step; renaming it as a section must not touch it.
	out := RenameSection(items, items[1].ID, "nope")

	assert.Equal(t, items, out)
}

func TestRenameStep(t *testing.T) {
	items := sampleItems()

	out := RenameStep(items, items[1].ID, "Check inventory")

	assert.Equal(t, "Check inventory", out[1].Title)
}

func TestRenameStep_UnknownIDIsNoop(t *testing.T) {
	items := sampleItems()

	assert.Equal(t, items, RenameStep(items, "stale-id", "ignored"))
}

func TestSetStepDescription(t *testing.T) {
	items := sampleItems()

	out := SetStepDescription(items, items[2].ID, "<p>details</p>")

	assert.Equal(t, "<p>details</p>", out[2].Description)
	assert.Empty(t, items[2].Description)
}

func TestSetStepAutostart(t *testing.T) {
	items := sampleItems()

	out := SetStepAutostart(items, items[2].ID, true)
	assert.True(t, out[2].StartWithPrevious)

	out = SetStepAutostart(out, items[2].ID, false)
	assert.False(t, out[2].StartWithPrevious)
}

// Inserting after step "a" places the new step between "a" and "b", keeping
// it inside the first section and leaving the second section untouched.
func TestInsertStepAfter_Step(t *testing.T) {
	items := sampleItems()

	out := InsertStepAfter(items, items[1].ID)

	require.Len(t, out, 6)
	assert.Equal(t, []string{"S1", "a", "", "b", "S2", "c"}, titles(out))
	assert.True(t, out[2].IsStep())
	assert.NoError(t, Validate(out))
}

func TestInsertStepAfter_SectionAnchor(t *testing.T) {
	items := sampleItems()

	// Anchoring on the S2 header makes the new step its first step.
	out := InsertStepAfter(items, items[3].ID)

	require.Len(t, out, 6)
	assert.Equal(t, []string{"S1", "a", "b", "S2", "", "c"}, titles(out))
	assert.True(t, out[4].IsStep())
}

func TestInsertStepAfter_StaleAnchorIsNoop(t *testing.T) {
	items := sampleItems()

	assert.Equal(t, items, InsertStepAfter(items, "deleted-concurrently"))
}

func TestInsertSectionAfter(t *testing.T) {
	items := sampleItems()

	// Anchoring anywhere inside S1 inserts the new section after "b".
	for _, anchor := range []string{items[0].ID, items[1].ID, items[2].ID} {
		out := InsertSectionAfter(items, anchor)

		require.Len(t, out, 6)
		assert.Equal(t, []string{"S1", "a", "b", "", "S2", "c"}, titles(out))
		assert.True(t, out[3].IsSection())
		assert.NoError(t, Validate(out))
	}
}

func TestInsertSectionAfter_LastSection(t *testing.T) {
	items := sampleItems()

	out := InsertSectionAfter(items, items[4].ID)

	require.Len(t, out, 6)
	assert.True(t, out[5].IsSection())
}

func TestDeleteItem_Step(t *testing.T) {
	items := sampleItems()

	out := DeleteItem(items, items[1].ID)

	assert.Equal(t, []string{"S1", "b", "S2", "c"}, titles(out))
}

// Deleting a section cascades to every step belonging to it.
func TestDeleteItem_SectionCascades(t *testing.T) {
	items := sampleItems()

	out := DeleteItem(items, items[0].ID)

	require.Len(t, out, 2)
	assert.Equal(t, []string{"S2", "c"}, titles(out))
	assert.True(t, out[0].IsSection())
	assert.NoError(t, Validate(out))
}

func TestDeleteItem_UnknownIDIsNoop(t *testing.T) {
	items := sampleItems()

	assert.Equal(t, items, DeleteItem(items, "gone"))
}

func TestApply(t *testing.T) {
	items := sampleItems()
	title := "Receiving"

	out, err := Apply(items, []Edit{
		{Op: EditRenameSection, ID: items[0].ID, Title: &title},
		{Op: EditInsertStepAfter, ID: items[1].ID},
		{Op: EditDeleteItem, ID: items[4].ID},
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"Receiving", "a", "", "b", "S2"}, titles(out))
	assert.Equal(t, "S1", items[0].Title)
}

func TestApply_UnknownOp(t *testing.T) {
	items := sampleItems()

	out, err := Apply(items, []Edit{{Op: "explode", ID: items[0].ID}})

	assert.Nil(t, out)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownEditOp)
}

func TestApply_StaleAnchorsDegradeToNoops(t *testing.T) {
	items := sampleItems()

	out, err := Apply(items, []Edit{
		{Op: EditInsertStepAfter, ID: "stale"},
		{Op: EditDeleteItem, ID: "also-stale"},
	})

	require.NoError(t, err)
	assert.Equal(t, items, out)
}
