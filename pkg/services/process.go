package services

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/prapp/prapp/pkg/eventbus"
	"github.com/prapp/prapp/pkg/events"
	"github.com/prapp/prapp/pkg/models"
	"github.com/prapp/prapp/pkg/otelhelper"
	"github.com/prapp/prapp/pkg/persistence"
	"github.com/prapp/prapp/pkg/process"
)

// Process manages revisioned process definitions. Revisions are immutable:
// every change, whether a full item document or an edit batch, is saved as a
// new revision under the same group ID.
type Process struct {
	persistence persistence.Persistence
	eventBus    eventbus.EventBus
	validator   *validator.Validate
	tracer      trace.Tracer
}

// NewProcess creates a new process service.
func NewProcess(persistence persistence.Persistence, eventBus eventbus.EventBus, tracer trace.Tracer) *Process {
	return &Process{
		persistence: persistence,
		eventBus:    eventBus,
		validator:   validator.New(),
		tracer:      tracer,
	}
}

// HealthCheck checks the health of the persistence layer.
func (s *Process) HealthCheck(ctx context.Context) (string, bool) {
	if s.persistence == nil {
		return "Persistence layer not initialized", false
	}

	err := s.persistence.HealthCheck(ctx)
	if err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}

// ListProcessesRequest contains options for listing processes.
type ListProcessesRequest struct {
	Limit  int `validate:"min=0,max=100"`
	Offset int `validate:"min=0"`

	SortBy    string `validate:"omitempty,oneof=created_at title"`
	SortOrder string `validate:"omitempty,oneof=asc desc"`
}

// ListProcessesResponse contains the result of listing processes. Only the
// latest revision of each group is included.
type ListProcessesResponse struct {
	Processes   []*models.Process `json:"processes"`
	TotalCount  int64             `json:"total_count"`
	HasNextPage bool              `json:"has_next_page"`
}

// List retrieves the latest revision of each process group with sorting and
// pagination.
func (s *Process) List(ctx context.Context, req ListProcessesRequest) (*ListProcessesResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidRequest, err.Error())
	}

	if req.Limit <= 0 {
		req.Limit = 20
	}

	result, err := s.persistence.ProcessRepository().List(ctx, persistence.ListProcessesOptions{
		Limit:     req.Limit,
		Offset:    req.Offset,
		SortBy:    req.SortBy,
		SortOrder: req.SortOrder,
	})
	if err != nil {
		if persistence.IsInvalidSortField(err) {
			return nil, ErrInvalidSortField
		}

		return nil, fmt.Errorf("failed to list processes: %w", err)
	}

	return &ListProcessesResponse{
		Processes:   result.Processes,
		TotalCount:  result.TotalCount,
		HasNextPage: result.HasNextPage,
	}, nil
}

// Latest returns the newest revision of a process group.
func (s *Process) Latest(ctx context.Context, groupID string) (*models.Process, error) {
	return s.persistence.ProcessRepository().Latest(ctx, groupID)
}

// ByRevision returns one pinned revision of a process group.
func (s *Process) ByRevision(ctx context.Context, groupID, revision string) (*models.Process, error) {
	return s.persistence.ProcessRepository().ByRevision(ctx, groupID, revision)
}

// Create saves the first revision of a new process group. The item list
// starts as one empty section followed by one empty step, so a fresh process
// always satisfies the section-first rule.
func (s *Process) Create(ctx context.Context, title string) (*models.Process, error) {
	ctx, span := otelhelper.StartSpan(ctx, s.tracer, "process.create",
		attribute.String(otelhelper.ProcessTitleKey, title))
	defer span.End()

	proc := &models.Process{
		Revision:  uuid.NewString(),
		GroupID:   uuid.NewString(),
		Title:     title,
		Items:     models.NewProcessItems(),
		CreatedAt: time.Now().UTC(),
	}

	if err := s.saveRevision(ctx, proc); err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	span.SetAttributes(
		attribute.String(otelhelper.ProcessGroupIDKey, proc.GroupID),
		attribute.String(otelhelper.ProcessRevisionKey, proc.Revision),
	)

	return proc, nil
}

// SaveRevisionRequest describes a new revision of an existing group. Exactly
// one of Items and Edits should carry the change: Items replaces the item
// document wholesale, Edits replays an edit batch on top of the latest
// revision. An empty Title keeps the latest revision's title.
type SaveRevisionRequest struct {
	GroupID string `validate:"required"`
	Title   string
	Items   []models.StepItem
	Edits   []process.Edit
}

// SaveRevision appends a new immutable revision to a process group.
func (s *Process) SaveRevision(ctx context.Context, req SaveRevisionRequest) (*models.Process, error) {
	ctx, span := otelhelper.StartSpan(ctx, s.tracer, "process.save_revision",
		attribute.String(otelhelper.ProcessGroupIDKey, req.GroupID))
	defer span.End()

	if err := s.validator.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidRequest, err.Error())
	}

	latest, err := s.persistence.ProcessRepository().Latest(ctx, req.GroupID)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	items := req.Items
	if items == nil {
		items, err = process.Apply(latest.Items, req.Edits)
		if err != nil {
			otelhelper.SetError(span, err)

			return nil, err
		}
	}

	title := req.Title
	if title == "" {
		title = latest.Title
	}

	proc := &models.Process{
		Revision:  uuid.NewString(),
		GroupID:   req.GroupID,
		Title:     title,
		Items:     items,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.saveRevision(ctx, proc); err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	span.SetAttributes(attribute.String(otelhelper.ProcessRevisionKey, proc.Revision))

	return proc, nil
}

// saveRevision validates and persists one revision, then announces it on the
// event bus. Bus failures are not fatal; the revision is already durable.
func (s *Process) saveRevision(ctx context.Context, proc *models.Process) error {
	if proc.Title == "" {
		return ErrTitleRequired
	}

	if err := process.Validate(proc.Items); err != nil {
		return err
	}

	if err := s.validator.Struct(proc); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidRequest, err.Error())
	}

	if err := s.persistence.ProcessRepository().SaveRevision(ctx, proc); err != nil {
		return fmt.Errorf("failed to save revision: %w", err)
	}

	if s.eventBus != nil {
		// Best effort only. The persisted revision is authoritative.
		_ = s.eventBus.Publish(ctx, proc.GroupID, events.ProcessRevisionSaved{
			BaseEvent: events.BaseEvent{
				ID:        s.eventBus.GenerateID(),
				Type:      events.ProcessRevisionSavedEvent,
				Timestamp: time.Now().UTC(),
			},
			GroupID:  proc.GroupID,
			Revision: proc.Revision,
			Title:    proc.Title,
		})
	}

	return nil
}
