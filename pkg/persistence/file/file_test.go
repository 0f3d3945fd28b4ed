package file

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prapp/prapp/pkg/models"
	"github.com/prapp/prapp/pkg/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProcess(title string, createdAt time.Time) *models.Process {
	return &models.Process{
		Revision:  uuid.New().String(),
		GroupID:   uuid.New().String(),
		Title:     title,
		Items:     models.NewProcessItems(),
		CreatedAt: createdAt,
	}
}

func TestPersistence_HealthCheck(t *testing.T) {
	p := NewPersistence(t.TempDir())
	assert.NoError(t, p.HealthCheck(context.Background()))

	missing := NewPersistence("/nonexistent/prapp-test")
	assert.Error(t, missing.HealthCheck(context.Background()))
}

func TestProcessRepository_SaveAndLoadRevision(t *testing.T) {
	repo := NewProcessRepository(t.TempDir())
	ctx := context.Background()

	proc := newProcess("Onboarding", time.Now().UTC())
	require.NoError(t, repo.SaveRevision(ctx, proc))

	loaded, err := repo.ByRevision(ctx, proc.GroupID, proc.Revision)
	require.NoError(t, err)
	assert.Equal(t, proc.Title, loaded.Title)
	assert.Len(t, loaded.Items, 2)
}

func TestProcessRepository_RevisionsAreImmutable(t *testing.T) {
	repo := NewProcessRepository(t.TempDir())
	ctx := context.Background()

	proc := newProcess("Onboarding", time.Now().UTC())
	require.NoError(t, repo.SaveRevision(ctx, proc))

	err := repo.SaveRevision(ctx, proc)
	require.Error(t, err)
	assert.ErrorIs(t, err, persistence.ErrRevisionAlreadyExists)
}

func TestProcessRepository_Latest(t *testing.T) {
	repo := NewProcessRepository(t.TempDir())
	ctx := context.Background()

	first := newProcess("v1", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	second := newProcess("v2", time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))
	second.GroupID = first.GroupID

	require.NoError(t, repo.SaveRevision(ctx, first))
	require.NoError(t, repo.SaveRevision(ctx, second))

	latest, err := repo.Latest(ctx, first.GroupID)
	require.NoError(t, err)
	assert.Equal(t, "v2", latest.Title)
	assert.Equal(t, second.Revision, latest.Revision)
}

func TestProcessRepository_NotFound(t *testing.T) {
	repo := NewProcessRepository(t.TempDir())
	ctx := context.Background()

	_, err := repo.Latest(ctx, uuid.New().String())
	assert.True(t, persistence.IsProcessNotFound(err))

	proc := newProcess("x", time.Now().UTC())
	require.NoError(t, repo.SaveRevision(ctx, proc))

	_, err = repo.ByRevision(ctx, proc.GroupID, uuid.New().String())
	assert.True(t, persistence.IsRevisionNotFound(err))
}

func TestProcessRepository_List(t *testing.T) {
	repo := NewProcessRepository(t.TempDir())
	ctx := context.Background()

	for i, title := range []string{"alpha", "bravo", "charlie"} {
		proc := newProcess(title, time.Date(2024, 1, i+1, 0, 0, 0, 0, time.UTC))
		require.NoError(t, repo.SaveRevision(ctx, proc))
	}

	result, err := repo.List(ctx, persistence.ListProcessesOptions{
		SortBy:    "created_at",
		SortOrder: "asc",
		Limit:     2,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(3), result.TotalCount)
	assert.True(t, result.HasNextPage)
	require.Len(t, result.Processes, 2)
	assert.Equal(t, "alpha", result.Processes[0].Title)
	assert.Equal(t, "bravo", result.Processes[1].Title)
}

func TestProcessRepository_List_LatestRevisionPerGroup(t *testing.T) {
	repo := NewProcessRepository(t.TempDir())
	ctx := context.Background()

	first := newProcess("old title", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	second := newProcess("new title", time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))
	second.GroupID = first.GroupID

	require.NoError(t, repo.SaveRevision(ctx, first))
	require.NoError(t, repo.SaveRevision(ctx, second))

	result, err := repo.List(ctx, persistence.ListProcessesOptions{})
	require.NoError(t, err)

	require.Len(t, result.Processes, 1)
	assert.Equal(t, "new title", result.Processes[0].Title)
}

func TestProcessRepository_List_InvalidSortField(t *testing.T) {
	repo := NewProcessRepository(t.TempDir())

	tests := []struct {
		name    string
		sortBy  string
		wantErr bool
	}{
		{name: "unknown field", sortBy: "owner", wantErr: true},
		{name: "injection attempt", sortBy: "title; DROP TABLE processes; --", wantErr: true},
		{name: "created_at is allowed", sortBy: "created_at"},
		{name: "title is allowed", sortBy: "title"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := repo.List(context.Background(), persistence.ListProcessesOptions{SortBy: tt.sortBy})
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, persistence.IsInvalidSortField(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestExecutionRepository_CreateAndLoad(t *testing.T) {
	repo := NewExecutionRepository(t.TempDir())
	ctx := context.Background()

	execution := &models.Execution{
		ID:              uuid.New().String(),
		ProcessGroupID:  uuid.New().String(),
		ProcessRevision: uuid.New().String(),
		InitiatedAt:     time.Now().UTC(),
	}

	require.NoError(t, repo.Create(ctx, execution))

	loaded, err := repo.ByID(ctx, execution.ID)
	require.NoError(t, err)
	assert.Equal(t, execution.ProcessRevision, loaded.ProcessRevision)

	history, err := repo.History(ctx, execution.ID)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestExecutionRepository_NotFound(t *testing.T) {
	repo := NewExecutionRepository(t.TempDir())
	ctx := context.Background()

	_, err := repo.ByID(ctx, uuid.New().String())
	assert.True(t, persistence.IsExecutionNotFound(err))

	_, err = repo.History(ctx, uuid.New().String())
	assert.True(t, persistence.IsExecutionNotFound(err))

	err = repo.AppendHistory(ctx, uuid.New().String(), &models.HistoryItem{
		ID:     uuid.New().String(),
		Type:   models.HistoryStepStarted,
		StepID: uuid.New().String(),
		At:     time.Now().UTC(),
	})
	assert.True(t, persistence.IsExecutionNotFound(err))
}

func TestExecutionRepository_AppendHistoryPreservesOrder(t *testing.T) {
	repo := NewExecutionRepository(t.TempDir())
	ctx := context.Background()

	execution := &models.Execution{
		ID:              uuid.New().String(),
		ProcessGroupID:  uuid.New().String(),
		ProcessRevision: uuid.New().String(),
		InitiatedAt:     time.Now().UTC(),
	}
	require.NoError(t, repo.Create(ctx, execution))

	stepID := uuid.New().String()
	entries := []models.HistoryItem{
		{ID: uuid.New().String(), Type: models.HistoryStepStarted, StepID: stepID, At: time.Now().UTC()},
		{ID: uuid.New().String(), Type: models.HistoryStepDone, StepID: stepID, At: time.Now().UTC().Add(time.Minute)},
	}

	for i := range entries {
		require.NoError(t, repo.AppendHistory(ctx, execution.ID, &entries[i]))
	}

	history, err := repo.History(ctx, execution.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, models.HistoryStepStarted, history[0].Type)
	assert.Equal(t, models.HistoryStepDone, history[1].Type)
}
