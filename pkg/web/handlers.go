// Package web provides HTTP handlers and REST API endpoints for process and
// execution management.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/prapp/prapp/pkg/execution"
	"github.com/prapp/prapp/pkg/models"
	"github.com/prapp/prapp/pkg/services"
)

type APIHandlers struct {
	processService   *services.Process
	executionService *services.Execution
	validator        *validator.Validate
}

func NewAPIHandlers(
	processService *services.Process,
	executionService *services.Execution,
	validator *validator.Validate,
) *APIHandlers {
	return &APIHandlers{
		processService:   processService,
		executionService: executionService,
		validator:        validator,
	}
}

func (h *APIHandlers) GetProcesses(c fiber.Ctx) error {
	req, err := h.parseListProcessesRequest(c)
	if err != nil {
		return badRequest(c, "Invalid query parameters: "+err.Error())
	}

	result, err := h.processService.List(c.Context(), *req)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"processes":     result.Processes,
		"total_count":   result.TotalCount,
		"has_next_page": result.HasNextPage,
		"pagination": fiber.Map{
			"limit":  req.Limit,
			"offset": req.Offset,
		},
		"sorting": fiber.Map{
			"sort_by":    req.SortBy,
			"sort_order": req.SortOrder,
		},
	})
}

// parseListProcessesRequest parses and validates query parameters for listing processes.
func (h *APIHandlers) parseListProcessesRequest(c fiber.Ctx) (*services.ListProcessesRequest, error) {
	req := &services.ListProcessesRequest{}

	if limitStr := c.Query("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil {
			return nil, err
		}

		req.Limit = limit
	}

	if offsetStr := c.Query("offset"); offsetStr != "" {
		offset, err := strconv.Atoi(offsetStr)
		if err != nil {
			return nil, err
		}

		req.Offset = offset
	}

	req.SortBy = c.Query("sort_by")
	req.SortOrder = c.Query("sort_order")

	return req, nil
}

func (h *APIHandlers) CreateProcess(c fiber.Ctx) error {
	var req CreateProcessRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	created, err := h.processService.Create(c.Context(), req.Title)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *APIHandlers) GetProcess(c fiber.Ctx) error {
	groupID := c.Params("groupId")
	if groupID == "" {
		return badRequest(c, "Process group ID is required")
	}

	proc, err := h.processService.Latest(c.Context(), groupID)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(proc)
}

func (h *APIHandlers) GetProcessRevision(c fiber.Ctx) error {
	groupID := c.Params("groupId")
	revision := c.Params("revision")

	if groupID == "" || revision == "" {
		return badRequest(c, "Process group ID and revision are required")
	}

	proc, err := h.processService.ByRevision(c.Context(), groupID, revision)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(proc)
}

func (h *APIHandlers) SaveRevision(c fiber.Ctx) error {
	groupID := c.Params("groupId")
	if groupID == "" {
		return badRequest(c, "Process group ID is required")
	}

	var req SaveRevisionRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	serviceReq := services.SaveRevisionRequest{
		GroupID: groupID,
		Title:   req.Title,
	}

	switch {
	case req.Items != nil:
		// Schema-check the raw document before decoding it.
		if err := models.ValidateItemsDocument(req.Items); err != nil {
			return badRequest(c, err.Error())
		}

		if err := json.Unmarshal(req.Items, &serviceReq.Items); err != nil {
			return badRequest(c, "Invalid items document")
		}

	case req.Edits != nil:
		if err := json.Unmarshal(req.Edits, &serviceReq.Edits); err != nil {
			return badRequest(c, "Invalid edit batch")
		}

		for _, edit := range serviceReq.Edits {
			if err := h.validator.Struct(edit); err != nil {
				return badRequest(c, err.Error())
			}
		}

	default:
		return badRequest(c, "Either items or edits is required")
	}

	saved, err := h.processService.SaveRevision(c.Context(), serviceReq)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(saved)
}

func (h *APIHandlers) StartExecution(c fiber.Ctx) error {
	groupID := c.Params("groupId")
	if groupID == "" {
		return badRequest(c, "Process group ID is required")
	}

	var req StartExecutionRequest
	if len(c.Body()) > 0 {
		if err := c.Bind().JSON(&req); err != nil {
			return badRequest(c, "Invalid JSON format")
		}
	}

	exec, err := h.executionService.Start(c.Context(), groupID, req.Revision)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(exec)
}

func (h *APIHandlers) GetExecution(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Execution ID is required")
	}

	exec, err := h.executionService.ByID(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	view, err := h.executionService.View(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"execution": exec,
		"view":      view,
	})
}

func (h *APIHandlers) GetExecutionHistory(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Execution ID is required")
	}

	history, err := h.executionService.History(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"execution_id": id,
		"history":      history,
	})
}

func (h *APIHandlers) StartStep(c fiber.Ctx) error {
	return h.markStep(c, h.executionService.MarkStepStarted)
}

func (h *APIHandlers) CompleteStep(c fiber.Ctx) error {
	return h.markStep(c, h.executionService.MarkStepDone)
}

func (h *APIHandlers) markStep(
	c fiber.Ctx,
	mark func(context.Context, string, string) (*execution.View, error),
) error {
	id := c.Params("id")
	stepID := c.Params("stepId")

	if id == "" || stepID == "" {
		return badRequest(c, "Execution ID and step ID are required")
	}

	view, err := mark(c.Context(), id, stepID)
	if err != nil {
		if errors.Is(err, services.ErrStepNotFound) {
			return notFound(c, "step not found")
		}

		return handleServiceError(c, err)
	}

	return c.JSON(view)
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	repositoryCheck, repOk := h.processService.HealthCheck(c.Context())

	status := "unhealthy"
	message := "prapp API is unhealthy"
	httpStatus := http.StatusInternalServerError

	if repOk {
		status = "healthy"
		message = "prapp API is healthy"
		httpStatus = http.StatusOK
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"checkers": fiber.Map{
			"repository": repositoryCheck,
		},
		"timestamp": time.Now().UTC(),
	})
}
