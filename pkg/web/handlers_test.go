package web_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/prapp/prapp/pkg/cache"
	"github.com/prapp/prapp/pkg/execution"
	"github.com/prapp/prapp/pkg/models"
	"github.com/prapp/prapp/pkg/persistence/file"
	"github.com/prapp/prapp/pkg/services"
	"github.com/prapp/prapp/pkg/web"
)

func setupTestApp(t *testing.T) (*fiber.App, *services.Process, *services.Execution) {
	t.Helper()

	persistence := file.NewPersistence(t.TempDir())
	tracer := noop.NewTracerProvider().Tracer("test")
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	processService := services.NewProcess(persistence, nil, tracer)
	executionService := services.NewExecution(persistence, nil, cache.NewNoopViewCache(), tracer, logger)

	handlers := web.NewAPIHandlers(processService, executionService, validator.New(validator.WithRequiredStructEnabled()))

	app := fiber.New()
	app.Get("/health", handlers.HealthCheck)

	p := app.Group("/processes")
	p.Get("/", handlers.GetProcesses)
	p.Post("/", handlers.CreateProcess)
	p.Get("/:groupId", handlers.GetProcess)
	p.Get("/:groupId/revisions/:revision", handlers.GetProcessRevision)
	p.Put("/:groupId", handlers.SaveRevision)
	p.Post("/:groupId/executions", handlers.StartExecution)

	e := app.Group("/executions")
	e.Get("/:id", handlers.GetExecution)
	e.Get("/:id/history", handlers.GetExecutionHistory)
	e.Post("/:id/steps/:stepId/start", handlers.StartStep)
	e.Post("/:id/steps/:stepId/done", handlers.CompleteStep)

	return app, processService, executionService
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body any) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader

	if body != nil {
		if str, ok := body.(string); ok {
			reader = bytes.NewBufferString(str)
		} else {
			payload, err := json.Marshal(body)
			require.NoError(t, err)
			reader = bytes.NewBuffer(payload)
		}
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	payload, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp, payload
}

func TestAPIHandlers_CreateProcess(t *testing.T) {
	tests := []struct {
		name           string
		requestBody    any
		expectedStatus int
	}{
		{
			name:           "successful creation",
			requestBody:    web.CreateProcessRequest{Title: "Employee Onboarding"},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "validation error - missing title",
			requestBody:    web.CreateProcessRequest{},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "invalid JSON",
			requestBody:    "invalid-json",
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, _, _ := setupTestApp(t)

			resp, body := doJSON(t, app, http.MethodPost, "/processes/", tt.requestBody)
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			if tt.expectedStatus == http.StatusCreated {
				var proc models.Process
				require.NoError(t, json.Unmarshal(body, &proc))
				assert.Equal(t, "Employee Onboarding", proc.Title)
				assert.NotEmpty(t, proc.GroupID)
				assert.Len(t, proc.Items, 2)
			}
		})
	}
}

func TestAPIHandlers_GetProcess(t *testing.T) {
	app, processService, _ := setupTestApp(t)

	created, err := processService.Create(t.Context(), "Onboarding")
	require.NoError(t, err)

	resp, body := doJSON(t, app, http.MethodGet, "/processes/"+created.GroupID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var proc models.Process
	require.NoError(t, json.Unmarshal(body, &proc))
	assert.Equal(t, created.Revision, proc.Revision)

	resp, _ = doJSON(t, app, http.MethodGet, "/processes/unknown-group", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPIHandlers_GetProcessRevision(t *testing.T) {
	app, processService, _ := setupTestApp(t)

	created, err := processService.Create(t.Context(), "Onboarding")
	require.NoError(t, err)

	later, err := processService.SaveRevision(t.Context(), services.SaveRevisionRequest{
		GroupID: created.GroupID,
		Items:   models.NewProcessItems(),
	})
	require.NoError(t, err)

	resp, body := doJSON(t, app,
		http.MethodGet, "/processes/"+created.GroupID+"/revisions/"+created.Revision, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var proc models.Process
	require.NoError(t, json.Unmarshal(body, &proc))
	assert.Equal(t, created.Revision, proc.Revision)
	assert.NotEqual(t, later.Revision, proc.Revision)

	resp, _ = doJSON(t, app,
		http.MethodGet, "/processes/"+created.GroupID+"/revisions/missing", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPIHandlers_SaveRevision(t *testing.T) {
	app, processService, _ := setupTestApp(t)

	created, err := processService.Create(t.Context(), "Onboarding")
	require.NoError(t, err)

	items := []models.StepItem{
		models.NewSection("Preparation"),
		models.NewStep("Order laptop"),
	}
	payload, err := json.Marshal(items)
	require.NoError(t, err)

	resp, body := doJSON(t, app, http.MethodPut, "/processes/"+created.GroupID, web.SaveRevisionRequest{
		Items: payload,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var proc models.Process
	require.NoError(t, json.Unmarshal(body, &proc))
	assert.NotEqual(t, created.Revision, proc.Revision)
	assert.Equal(t, "Onboarding", proc.Title)
	assert.Len(t, proc.Items, 2)
	assert.Equal(t, "Preparation", proc.Items[0].Title)
}

func TestAPIHandlers_SaveRevision_WithEdits(t *testing.T) {
	app, processService, _ := setupTestApp(t)

	created, err := processService.Create(t.Context(), "Onboarding")
	require.NoError(t, err)

	edits := json.RawMessage(
		`[{"op": "rename_section", "id": "` + created.Items[0].ID + `", "title": "Preparation"}]`)

	resp, body := doJSON(t, app, http.MethodPut, "/processes/"+created.GroupID, web.SaveRevisionRequest{
		Edits: edits,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var proc models.Process
	require.NoError(t, json.Unmarshal(body, &proc))
	assert.Equal(t, "Preparation", proc.Items[0].Title)
}

func TestAPIHandlers_SaveRevision_Invalid(t *testing.T) {
	app, processService, _ := setupTestApp(t)

	created, err := processService.Create(t.Context(), "Onboarding")
	require.NoError(t, err)

	tests := []struct {
		name string
		body web.SaveRevisionRequest
	}{
		{
			name: "neither items nor edits",
			body: web.SaveRevisionRequest{Title: "renamed only is not enough"},
		},
		{
			name: "items violating the document schema",
			body: web.SaveRevisionRequest{
				Items: json.RawMessage(`[{"type": "XX", "title": "bad kind"}]`),
			},
		},
		{
			name: "edit with unknown op",
			body: web.SaveRevisionRequest{
				Edits: json.RawMessage(`[{"op": "explode", "id": "` + created.Items[0].ID + `"}]`),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, _ := doJSON(t, app, http.MethodPut, "/processes/"+created.GroupID, tt.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestAPIHandlers_StartExecution(t *testing.T) {
	app, processService, _ := setupTestApp(t)

	created, err := processService.Create(t.Context(), "Onboarding")
	require.NoError(t, err)

	resp, body := doJSON(t, app, http.MethodPost, "/processes/"+created.GroupID+"/executions", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var exec models.Execution
	require.NoError(t, json.Unmarshal(body, &exec))
	assert.Equal(t, created.GroupID, exec.ProcessGroupID)
	assert.Equal(t, created.Revision, exec.ProcessRevision)

	resp, _ = doJSON(t, app, http.MethodPost, "/processes/unknown-group/executions", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPIHandlers_StartExecution_PinnedRevision(t *testing.T) {
	app, processService, _ := setupTestApp(t)

	created, err := processService.Create(t.Context(), "Onboarding")
	require.NoError(t, err)

	_, err = processService.SaveRevision(t.Context(), services.SaveRevisionRequest{
		GroupID: created.GroupID,
		Items:   models.NewProcessItems(),
	})
	require.NoError(t, err)

	resp, body := doJSON(t, app, http.MethodPost, "/processes/"+created.GroupID+"/executions",
		web.StartExecutionRequest{Revision: created.Revision})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var exec models.Execution
	require.NoError(t, json.Unmarshal(body, &exec))
	assert.Equal(t, created.Revision, exec.ProcessRevision)
}

// executionFixture saves a two-step process and starts an execution of it.
func executionFixture(t *testing.T, processService *services.Process, executionService *services.Execution) (*models.Process, *models.Execution) {
	t.Helper()

	created, err := processService.Create(t.Context(), "Onboarding")
	require.NoError(t, err)

	revision, err := processService.SaveRevision(t.Context(), services.SaveRevisionRequest{
		GroupID: created.GroupID,
		Items: []models.StepItem{
			models.NewSection("Preparation"),
			models.NewStep("Order laptop"),
			models.NewStep("Create accounts"),
		},
	})
	require.NoError(t, err)

	exec, err := executionService.Start(t.Context(), revision.GroupID, "")
	require.NoError(t, err)

	return revision, exec
}

func TestAPIHandlers_GetExecution(t *testing.T) {
	app, processService, executionService := setupTestApp(t)
	revision, exec := executionFixture(t, processService, executionService)

	resp, body := doJSON(t, app, http.MethodGet, "/executions/"+exec.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result struct {
		Execution models.Execution `json:"execution"`
		View      execution.View   `json:"view"`
	}
	require.NoError(t, json.Unmarshal(body, &result))

	assert.Equal(t, exec.ID, result.Execution.ID)
	assert.Equal(t, models.ExecutionStateStarted, result.View.State)
	assert.Equal(t, revision.Items[1].ID, result.View.ActiveStepID)

	resp, _ = doJSON(t, app, http.MethodGet, "/executions/unknown", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPIHandlers_StepLifecycle(t *testing.T) {
	app, processService, executionService := setupTestApp(t)
	revision, exec := executionFixture(t, processService, executionService)

	stepID := revision.Items[1].ID
	base := "/executions/" + exec.ID + "/steps/" + stepID

	resp, body := doJSON(t, app, http.MethodPost, base+"/start", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var view execution.View
	require.NoError(t, json.Unmarshal(body, &view))
	require.NotNil(t, view.StepByID(stepID).StartedAt)

	resp, body = doJSON(t, app, http.MethodPost, base+"/done", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, json.Unmarshal(body, &view))
	assert.Equal(t, models.StepStatusDone, view.StepByID(stepID).Status)
	assert.Equal(t, revision.Items[2].ID, view.ActiveStepID)

	// Completing again conflicts.
	resp, _ = doJSON(t, app, http.MethodPost, base+"/done", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestAPIHandlers_CompleteStep_RequiresStart(t *testing.T) {
	app, processService, executionService := setupTestApp(t)
	revision, exec := executionFixture(t, processService, executionService)

	resp, _ := doJSON(t, app,
		http.MethodPost, "/executions/"+exec.ID+"/steps/"+revision.Items[1].ID+"/done", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestAPIHandlers_StepNotFound(t *testing.T) {
	app, processService, executionService := setupTestApp(t)
	_, exec := executionFixture(t, processService, executionService)

	resp, _ := doJSON(t, app,
		http.MethodPost, "/executions/"+exec.ID+"/steps/not-a-step/start", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPIHandlers_GetExecutionHistory(t *testing.T) {
	app, processService, executionService := setupTestApp(t)
	revision, exec := executionFixture(t, processService, executionService)

	_, err := executionService.MarkStepStarted(t.Context(), exec.ID, revision.Items[1].ID)
	require.NoError(t, err)

	resp, body := doJSON(t, app, http.MethodGet, "/executions/"+exec.ID+"/history", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result struct {
		ExecutionID string               `json:"execution_id"`
		History     []models.HistoryItem `json:"history"`
	}
	require.NoError(t, json.Unmarshal(body, &result))

	assert.Equal(t, exec.ID, result.ExecutionID)
	require.Len(t, result.History, 1)
	assert.Equal(t, models.HistoryStepStarted, result.History[0].Type)
}

func TestAPIHandlers_HealthCheck(t *testing.T) {
	app, _, _ := setupTestApp(t)

	resp, body := doJSON(t, app, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result map[string]any
	require.NoError(t, json.Unmarshal(body, &result))
	assert.Equal(t, "healthy", result["status"])
}
