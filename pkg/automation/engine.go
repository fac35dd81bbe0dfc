// Package automation implements the engine that executes user
// automations: scheduled batch runs, event-triggered runs, per-item
// action pipelines and the persisted run history.
package automation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/zzpkit/zzpkit/pkg/actions"
	"github.com/zzpkit/zzpkit/pkg/models"
	"github.com/zzpkit/zzpkit/pkg/otelhelper"
	"github.com/zzpkit/zzpkit/pkg/persistence"
)

// maxItemsPerRun caps the target item list of one automation run for
// predictable latency.
const maxItemsPerRun = 100

// Engine runs automations. It holds no in-process timer: a scheduler
// collaborator invokes RunScheduledAutomations periodically and must
// guarantee at most one invocation in flight, since counter updates are
// read-then-write without optimistic locking.
type Engine struct {
	persistence persistence.Persistence
	registry    *actions.Registry
	logger      *slog.Logger
	tracer      trace.Tracer

	// now is injectable for schedule tests.
	now func() time.Time
}

func NewEngine(p persistence.Persistence, registry *actions.Registry, logger *slog.Logger) *Engine {
	return &Engine{
		persistence: p,
		registry:    registry,
		logger:      logger.With("module", "automation"),
		tracer:      otel.Tracer("automation-engine"),
		now:         time.Now,
	}
}

// RunScheduledAutomations executes every due automation sequentially.
// One automation's failure never aborts the batch; outcomes are
// observable via logs and the persisted run records.
func (e *Engine) RunScheduledAutomations(ctx context.Context) error {
	ctx, span := otelhelper.StartSpan(ctx, e.tracer, "engine.run_scheduled")
	defer span.End()

	now := e.now().UTC()

	due, err := e.persistence.Automations().ListDue(ctx, now)
	if err != nil {
		otelhelper.SetError(span, err)

		return fmt.Errorf("failed to load due automations: %w", err)
	}

	e.logger.Info("Running scheduled automations", "due", len(due))

	for _, automation := range due {
		run := e.ExecuteAutomation(ctx, automation)
		if run.Status == models.RunError {
			e.logger.Warn("Automation run failed",
				"automation_id", automation.ID,
				"name", automation.Name,
				"error", run.ErrorMessage)
		}
	}

	span.SetAttributes(attribute.Int("zzpkit.automations.due", len(due)))

	return nil
}

// ExecuteAutomation runs one scheduled automation to completion and
// always returns a run record, which is also persisted. Outcomes:
// skipped (conditions matched nothing), success (no item failed) or
// error.
func (e *Engine) ExecuteAutomation(ctx context.Context, automation *models.Automation) *models.AutomationRun {
	ctx, span := otelhelper.StartSpan(ctx, e.tracer, "engine.execute_automation",
		attribute.String(otelhelper.AutomationIDKey, automation.ID),
		attribute.String(otelhelper.AutomationCategoryKey, string(automation.Category)),
	)
	defer span.End()

	startedAt := e.now().UTC()
	run := &models.AutomationRun{
		ID:           uuid.New().String(),
		AutomationID: automation.ID,
		StartedAt:    startedAt,
	}

	proceed, err := e.validateConditions(ctx, automation)
	if err != nil {
		e.finishRun(ctx, automation, run, models.RunError, fmt.Sprintf("condition check failed: %v", err))
		otelhelper.SetError(span, err)

		return run
	}

	if !proceed {
		e.finishRun(ctx, automation, run, models.RunSkipped, "")

		return run
	}

	items, err := e.getItemsForAutomation(ctx, automation)
	if err != nil {
		e.finishRun(ctx, automation, run, models.RunError, fmt.Sprintf("failed to load items: %v", err))
		otelhelper.SetError(span, err)

		return run
	}

	for _, item := range items {
		run.ItemsProcessed++

		if err := e.executeActions(ctx, automation, item, nil); err != nil {
			run.ItemsFailed++
			run.ErrorMessage = err.Error()

			e.logger.Warn("Item failed, continuing with remaining items",
				"automation_id", automation.ID,
				"error", err)

			continue
		}

		run.ItemsSucceeded++
	}

	status := models.RunSuccess
	if run.ItemsFailed > 0 {
		status = models.RunError
	}

	e.finishRun(ctx, automation, run, status, run.ErrorMessage)

	return run
}

// HandleEvent runs the user's event-triggered automations whose trigger
// matches the event type. Matching is in-memory exact string equality.
// Each automation fails independently.
func (e *Engine) HandleEvent(ctx context.Context, eventType string, eventData map[string]any, userID string) error {
	ctx, span := otelhelper.StartSpan(ctx, e.tracer, "engine.handle_event",
		attribute.String(otelhelper.EventTypeKey, eventType),
		attribute.String(otelhelper.UserIDKey, userID),
	)
	defer span.End()

	automations, err := e.persistence.Automations().ListEventTriggered(ctx, userID)
	if err != nil {
		otelhelper.SetError(span, err)

		return fmt.Errorf("failed to load event automations: %w", err)
	}

	matched := 0

	for _, automation := range automations {
		if automation.TriggerConfig.Event != eventType {
			continue
		}

		matched++

		if _, err := e.ExecuteAutomationWithContext(ctx, automation, eventData); err != nil {
			e.logger.Warn("Event automation failed",
				"automation_id", automation.ID,
				"event_type", eventType,
				"error", err)
		}
	}

	e.logger.Debug("Handled domain event", "event_type", eventType, "user_id", userID, "matched", matched)

	return nil
}

// ExecuteAutomationWithContext runs the action list once against the
// event payload (the payload itself is the item). The returned error is
// for the caller to log; the run record and counters are already
// persisted either way.
func (e *Engine) ExecuteAutomationWithContext(ctx context.Context, automation *models.Automation, eventData map[string]any) (*models.AutomationRun, error) {
	ctx, span := otelhelper.StartSpan(ctx, e.tracer, "engine.execute_with_context",
		attribute.String(otelhelper.AutomationIDKey, automation.ID),
	)
	defer span.End()

	run := &models.AutomationRun{
		ID:             uuid.New().String(),
		AutomationID:   automation.ID,
		StartedAt:      e.now().UTC(),
		TriggerData:    eventData,
		ItemsProcessed: 1,
	}

	if err := e.executeActions(ctx, automation, nil, eventData); err != nil {
		run.ItemsFailed = 1

		e.finishRun(ctx, automation, run, models.RunError, err.Error())
		otelhelper.SetError(span, err)

		return run, err
	}

	run.ItemsSucceeded = 1

	e.finishRun(ctx, automation, run, models.RunSuccess, "")

	return run, nil
}

// executeActions runs the automation's ordered action list against one
// item (or the event payload). The first failing action aborts the rest
// of this item's pipeline; unknown action types warn and no-op so old
// configs survive forward-compatibly.
func (e *Engine) executeActions(ctx context.Context, automation *models.Automation, item, event map[string]any) error {
	execCtx := actions.ExecutionContext{
		UserID:     automation.UserID,
		Automation: automation,
		Item:       item,
		Event:      event,
	}

	for _, action := range automation.Actions {
		handler, ok := e.registry.Get(action.Type)
		if !ok {
			e.logger.Warn("Unknown action type, skipping",
				"automation_id", automation.ID,
				"action_type", action.Type)

			continue
		}

		if _, err := handler.Execute(ctx, execCtx, action.Config); err != nil {
			return fmt.Errorf("action %s failed: %w", action.Type, err)
		}
	}

	return nil
}

// finishRun stamps and persists the run record, then folds the outcome
// into the automation's counters and schedule state. Persistence
// failures here are logged; the run outcome itself stands.
func (e *Engine) finishRun(ctx context.Context, automation *models.Automation, run *models.AutomationRun, status models.RunStatus, errorMessage string) {
	now := e.now().UTC()

	run.Status = status
	run.ErrorMessage = errorMessage
	run.CompletedAt = now
	run.ExecutionTimeMS = now.Sub(run.StartedAt).Milliseconds()

	if err := e.persistence.Runs().Create(ctx, run); err != nil {
		e.logger.Error("Failed to persist run record", "automation_id", automation.ID, "error", err)
	}

	automation.LastRunAt = &run.CompletedAt
	automation.RunCount++
	automation.UpdatedAt = now

	if automation.TriggerType == models.TriggerSchedule {
		automation.NextRunAt = automation.TriggerConfig.NextRun(now)
	}

	switch {
	case status == models.RunError:
		automation.ErrorCount++
		automation.LastError = errorMessage
	case status == models.RunSuccess:
		// A clean run over an empty target set bumps no counter.
		if run.ItemsSucceeded > 0 {
			automation.SuccessCount++
		}

		automation.LastError = ""
	}

	if status == models.RunError && run.ItemsSucceeded > 0 {
		// Partial success still counts as a success for the aggregate.
		automation.SuccessCount++
	}

	if err := e.persistence.Automations().Save(ctx, automation); err != nil {
		e.logger.Error("Failed to update automation state", "automation_id", automation.ID, "error", err)
	}
}
