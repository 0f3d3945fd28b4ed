package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/prapp/prapp/pkg/cache"
	"github.com/prapp/prapp/pkg/eventbus"
	"github.com/prapp/prapp/pkg/events"
	"github.com/prapp/prapp/pkg/execution"
	"github.com/prapp/prapp/pkg/models"
	"github.com/prapp/prapp/pkg/otelhelper"
	"github.com/prapp/prapp/pkg/persistence"
)

// Execution orchestrates execution lifecycle: starting a run against a
// pinned revision, appending progress events, and deriving the rendered
// view. All progress is recorded as history appends; nothing derived is
// ever written back.
type Execution struct {
	persistence persistence.Persistence
	eventBus    eventbus.EventBus
	viewCache   cache.ViewCache
	tracer      trace.Tracer
	logger      *slog.Logger
}

// NewExecution creates a new execution service.
func NewExecution(
	persistence persistence.Persistence,
	eventBus eventbus.EventBus,
	viewCache cache.ViewCache,
	tracer trace.Tracer,
	logger *slog.Logger,
) *Execution {
	return &Execution{
		persistence: persistence,
		eventBus:    eventBus,
		viewCache:   viewCache,
		tracer:      tracer,
		logger:      logger.With("module", "execution_service"),
	}
}

// Start creates an execution pinned to a revision of the group. An empty
// revision pins the latest one. Later revisions of the group never affect
// the running execution.
func (s *Execution) Start(ctx context.Context, groupID, revision string) (*models.Execution, error) {
	ctx, span := otelhelper.StartSpan(ctx, s.tracer, "execution.start",
		attribute.String(otelhelper.ProcessGroupIDKey, groupID))
	defer span.End()

	var (
		proc *models.Process
		err  error
	)

	if revision == "" {
		proc, err = s.persistence.ProcessRepository().Latest(ctx, groupID)
	} else {
		proc, err = s.persistence.ProcessRepository().ByRevision(ctx, groupID, revision)
	}

	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	exec := &models.Execution{
		ID:              uuid.NewString(),
		ProcessGroupID:  proc.GroupID,
		ProcessRevision: proc.Revision,
		InitiatedAt:     time.Now().UTC(),
	}

	if err := s.persistence.ExecutionRepository().Create(ctx, exec); err != nil {
		otelhelper.SetError(span, err)

		return nil, fmt.Errorf("failed to create execution: %w", err)
	}

	span.SetAttributes(attribute.String(otelhelper.ExecutionIDKey, exec.ID))

	if s.eventBus != nil {
		_ = s.eventBus.Publish(ctx, exec.ID, events.ExecutionStarted{
			BaseEvent:       s.baseEvent(events.ExecutionStartedEvent),
			ExecutionID:     exec.ID,
			ProcessGroupID:  exec.ProcessGroupID,
			ProcessRevision: exec.ProcessRevision,
			InitiatedAt:     exec.InitiatedAt,
		})
	}

	return exec, nil
}

// ByID loads execution metadata.
func (s *Execution) ByID(ctx context.Context, executionID string) (*models.Execution, error) {
	return s.persistence.ExecutionRepository().ByID(ctx, executionID)
}

// History returns the raw append-only event log.
func (s *Execution) History(ctx context.Context, executionID string) ([]models.HistoryItem, error) {
	return s.persistence.ExecutionRepository().History(ctx, executionID)
}

// View derives the rendered state of an execution. The derived view is
// cached per execution and invalidated on every history append; a cache
// failure falls back to deriving from the log.
func (s *Execution) View(ctx context.Context, executionID string) (*execution.View, error) {
	ctx, span := otelhelper.StartSpan(ctx, s.tracer, "execution.view",
		attribute.String(otelhelper.ExecutionIDKey, executionID))
	defer span.End()

	if view, err := s.viewCache.Get(ctx, executionID); err == nil {
		span.SetAttributes(attribute.Bool("cache.hit", true))

		return view, nil
	} else if !errors.Is(err, cache.ErrMiss) {
		s.logger.WarnContext(ctx, "View cache read failed", "execution_id", executionID, "error", err)
	}

	view, _, err := s.derive(ctx, executionID)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	if err := s.viewCache.Set(ctx, executionID, view); err != nil {
		s.logger.WarnContext(ctx, "View cache write failed", "execution_id", executionID, "error", err)
	}

	return view, nil
}

// MarkStepStarted appends a step_started entry. Starting a step that is
// already done is a conflict; starting an already started step is absorbed
// by derivation and therefore allowed.
func (s *Execution) MarkStepStarted(ctx context.Context, executionID, stepID string) (*execution.View, error) {
	ctx, span := otelhelper.StartSpan(ctx, s.tracer, "execution.mark_step_started",
		attribute.String(otelhelper.ExecutionIDKey, executionID),
		attribute.String(otelhelper.StepIDKey, stepID))
	defer span.End()

	view, _, err := s.derive(ctx, executionID)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	step := view.StepByID(stepID)
	if step == nil {
		return nil, fmt.Errorf("%w: %s", ErrStepNotFound, stepID)
	}

	if step.Status == models.StepStatusDone {
		return nil, fmt.Errorf("%w: %s", ErrInvalidTransition, stepID)
	}

	entry := s.historyItem(models.HistoryStepStarted, stepID)
	if err := s.append(ctx, executionID, entry); err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	if s.eventBus != nil {
		_ = s.eventBus.Publish(ctx, executionID, events.StepStarted{
			BaseEvent:   s.baseEvent(events.StepStartedEvent),
			ExecutionID: executionID,
			History:     entry,
		})
	}

	view, _, err = s.derive(ctx, executionID)

	return view, err
}

// MarkStepDone appends a step_done entry for a previously started step. If
// the next step of the revision opted into autostart, a step_started entry
// for it is appended in the same call.
func (s *Execution) MarkStepDone(ctx context.Context, executionID, stepID string) (*execution.View, error) {
	ctx, span := otelhelper.StartSpan(ctx, s.tracer, "execution.mark_step_done",
		attribute.String(otelhelper.ExecutionIDKey, executionID),
		attribute.String(otelhelper.StepIDKey, stepID))
	defer span.End()

	view, proc, err := s.derive(ctx, executionID)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	step := view.StepByID(stepID)
	if step == nil {
		return nil, fmt.Errorf("%w: %s", ErrStepNotFound, stepID)
	}

	if step.Status == models.StepStatusDone {
		return nil, fmt.Errorf("%w: %s", ErrInvalidTransition, stepID)
	}

	if step.StartedAt == nil {
		return nil, fmt.Errorf("%w: %s", ErrMissingStart, stepID)
	}

	entry := s.historyItem(models.HistoryStepDone, stepID)
	if err := s.append(ctx, executionID, entry); err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	autostarted := s.autostartSuccessor(ctx, executionID, proc, view, stepID)

	if s.eventBus != nil {
		_ = s.eventBus.Publish(ctx, executionID, events.StepDone{
			BaseEvent:   s.baseEvent(events.StepDoneEvent),
			ExecutionID: executionID,
			History:     entry,
			Autostarted: autostarted,
		})
	}

	view, _, err = s.derive(ctx, executionID)

	return view, err
}

// autostartSuccessor starts the flat-order successor step when it carries
// the start-with-previous flag and has not run yet. Failures here never fail
// the done call; the done entry is already appended.
func (s *Execution) autostartSuccessor(
	ctx context.Context,
	executionID string,
	proc *models.Process,
	view *execution.View,
	doneStepID string,
) *models.HistoryItem {
	next := proc.NextStepAfter(doneStepID)
	if next == nil || !next.StartWithPrevious {
		return nil
	}

	if sv := view.StepByID(next.ID); sv == nil || sv.StartedAt != nil {
		return nil
	}

	entry := s.historyItem(models.HistoryStepStarted, next.ID)
	if err := s.append(ctx, executionID, entry); err != nil {
		s.logger.WarnContext(ctx, "Autostart append failed",
			"execution_id", executionID, "step_id", next.ID, "error", err)

		return nil
	}

	return &entry
}

// derive loads the pinned revision and the history and folds them into a
// view.
func (s *Execution) derive(ctx context.Context, executionID string) (*execution.View, *models.Process, error) {
	exec, err := s.persistence.ExecutionRepository().ByID(ctx, executionID)
	if err != nil {
		return nil, nil, err
	}

	proc, err := s.persistence.ProcessRepository().ByRevision(ctx, exec.ProcessGroupID, exec.ProcessRevision)
	if err != nil {
		return nil, nil, err
	}

	history, err := s.persistence.ExecutionRepository().History(ctx, executionID)
	if err != nil {
		return nil, nil, err
	}

	view, err := execution.Derive(proc, history)
	if err != nil {
		return nil, nil, err
	}

	return view, proc, nil
}

func (s *Execution) append(ctx context.Context, executionID string, entry models.HistoryItem) error {
	if err := s.persistence.ExecutionRepository().AppendHistory(ctx, executionID, &entry); err != nil {
		return fmt.Errorf("failed to append history: %w", err)
	}

	if err := s.viewCache.Invalidate(ctx, executionID); err != nil {
		s.logger.WarnContext(ctx, "View cache invalidation failed", "execution_id", executionID, "error", err)
	}

	return nil
}

func (s *Execution) historyItem(historyType models.HistoryType, stepID string) models.HistoryItem {
	return models.HistoryItem{
		ID:     uuid.NewString(),
		Type:   historyType,
		StepID: stepID,
		At:     time.Now().UTC(),
	}
}

func (s *Execution) baseEvent(eventType events.EventType) events.BaseEvent {
	return events.BaseEvent{
		ID:        s.eventBus.GenerateID(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
	}
}
