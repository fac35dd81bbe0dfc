package automation

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zzpkit/zzpkit/pkg/actions"
	"github.com/zzpkit/zzpkit/pkg/models"
	"github.com/zzpkit/zzpkit/pkg/persistence"
	"github.com/zzpkit/zzpkit/pkg/persistence/file"
	"github.com/zzpkit/zzpkit/pkg/testutil"
)

// scriptedHandler records every execution and fails on demand.
type scriptedHandler struct {
	calls  []actions.ExecutionContext
	failOn func(execCtx actions.ExecutionContext) error
}

func (h *scriptedHandler) Execute(_ context.Context, execCtx actions.ExecutionContext, _ map[string]any) (map[string]any, error) {
	h.calls = append(h.calls, execCtx)

	if h.failOn != nil {
		if err := h.failOn(execCtx); err != nil {
			return nil, err
		}
	}

	return map[string]any{}, nil
}

func newTestEngine(t *testing.T) (*Engine, persistence.Persistence, *scriptedHandler) {
	t.Helper()

	p := file.NewPersistence(t.TempDir())
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	handler := &scriptedHandler{}

	registry := actions.NewRegistry(logger)
	registry.Register(models.ActionSendNotification, handler)

	engine := NewEngine(p, registry, logger)
	engine.now = func() time.Time { return time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC) }

	return engine, p, handler
}

func seedOverdueInvoices(t *testing.T, p persistence.Persistence, userID string, numbers ...string) {
	t.Helper()

	ctx := context.Background()
	client := testutil.CreateTestClient(userID)
	require.NoError(t, p.Clients().Save(ctx, client))

	dueDate := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	for _, number := range numbers {
		invoice := testutil.CreateTestInvoice(userID, client.ID, func(i *models.Invoice) {
			i.Number = number
			i.DueDate = &dueDate
		})
		require.NoError(t, p.Invoices().Save(ctx, invoice))
	}
}

func TestExecuteAutomationPartialFailure(t *testing.T) {
	ctx := context.Background()
	engine, p, handler := newTestEngine(t)

	seedOverdueInvoices(t, p, "user-1", "INV-2026-001", "INV-2026-002", "INV-2026-003")

	handler.failOn = func(execCtx actions.ExecutionContext) error {
		if execCtx.Item["number"] == "INV-2026-002" {
			return errors.New("smtp unavailable")
		}

		return nil
	}

	automation := testutil.CreateTestAutomation(func(a *models.Automation) {
		a.Conditions = map[string]any{"overdue_only": true}
	})
	require.NoError(t, p.Automations().Save(ctx, automation))

	run := engine.ExecuteAutomation(ctx, automation)

	assert.Equal(t, models.RunError, run.Status)
	assert.Equal(t, 3, run.ItemsProcessed)
	assert.Equal(t, 2, run.ItemsSucceeded)
	assert.Equal(t, 1, run.ItemsFailed)
	assert.Contains(t, run.ErrorMessage, "smtp unavailable")
	assert.Len(t, handler.calls, 3, "one failing item must not stop the remaining items")

	// Counters: a partially failed run bumps both aggregates.
	stored, err := p.Automations().GetByID(ctx, automation.UserID, automation.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.RunCount)
	assert.Equal(t, 1, stored.SuccessCount)
	assert.Equal(t, 1, stored.ErrorCount)
	assert.Contains(t, stored.LastError, "smtp unavailable")

	runs, err := p.Runs().ListByAutomation(ctx, automation.ID, 10)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestExecuteAutomationSkipsWhenConditionsMatchNothing(t *testing.T) {
	ctx := context.Background()
	engine, p, handler := newTestEngine(t)

	automation := testutil.CreateTestAutomation(func(a *models.Automation) {
		a.Conditions = map[string]any{"status": "overdue"}
	})
	require.NoError(t, p.Automations().Save(ctx, automation))

	run := engine.ExecuteAutomation(ctx, automation)

	assert.Equal(t, models.RunSkipped, run.Status)
	assert.Equal(t, 0, run.ItemsProcessed)
	assert.Empty(t, handler.calls, "skipped runs must not execute actions")

	// A skip still writes a run record and reschedules.
	runs, err := p.Runs().ListByAutomation(ctx, automation.ID, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, models.RunSkipped, runs[0].Status)

	stored, err := p.Automations().GetByID(ctx, automation.UserID, automation.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.NextRunAt)
	assert.True(t, stored.NextRunAt.After(engine.now()))
	assert.Equal(t, 0, stored.SuccessCount)
	assert.Equal(t, 0, stored.ErrorCount)
}

func TestExecuteAutomationEmptyTargetSetBumpsNoSuccessCount(t *testing.T) {
	ctx := context.Background()
	engine, p, handler := newTestEngine(t)

	// No conditions and no invoices: the run succeeds over zero items.
	automation := testutil.CreateTestAutomation()
	require.NoError(t, p.Automations().Save(ctx, automation))

	run := engine.ExecuteAutomation(ctx, automation)

	assert.Equal(t, models.RunSuccess, run.Status)
	assert.Equal(t, 0, run.ItemsProcessed)
	assert.Empty(t, handler.calls)

	stored, err := p.Automations().GetByID(ctx, automation.UserID, automation.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.RunCount)
	assert.Equal(t, 0, stored.SuccessCount, "a run with zero succeeded items is not a success")
	assert.Equal(t, 0, stored.ErrorCount)
}

func TestExecuteAutomationUnknownActionTypeIsNoOp(t *testing.T) {
	ctx := context.Background()
	engine, p, _ := newTestEngine(t)

	seedOverdueInvoices(t, p, "user-1", "INV-2026-001")

	automation := testutil.CreateTestAutomation(func(a *models.Automation) {
		a.Actions = []models.ActionItem{{Type: "not_yet_implemented", Config: nil}}
	})
	require.NoError(t, p.Automations().Save(ctx, automation))

	run := engine.ExecuteAutomation(ctx, automation)

	assert.Equal(t, models.RunSuccess, run.Status)
	assert.Equal(t, run.ItemsProcessed, run.ItemsSucceeded)
}

func TestRunScheduledAutomationsIsolatesFailures(t *testing.T) {
	ctx := context.Background()
	engine, p, handler := newTestEngine(t)

	seedOverdueInvoices(t, p, "user-1", "INV-2026-001")

	handler.failOn = func(execCtx actions.ExecutionContext) error {
		if execCtx.Automation.Name == "Broken" {
			return errors.New("boom")
		}

		return nil
	}

	broken := testutil.CreateTestAutomation(func(a *models.Automation) { a.Name = "Broken" })
	healthy := testutil.CreateTestAutomation(func(a *models.Automation) { a.Name = "Healthy" })
	require.NoError(t, p.Automations().Save(ctx, broken))
	require.NoError(t, p.Automations().Save(ctx, healthy))

	require.NoError(t, engine.RunScheduledAutomations(ctx))

	// Both automations ran despite the first one failing.
	for _, automation := range []*models.Automation{broken, healthy} {
		runs, err := p.Runs().ListByAutomation(ctx, automation.ID, 10)
		require.NoError(t, err)
		assert.Len(t, runs, 1, automation.Name)
	}

	stored, err := p.Automations().GetByID(ctx, "user-1", healthy.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.SuccessCount)
}

func TestHandleEventMatchesTriggerConfig(t *testing.T) {
	ctx := context.Background()
	engine, p, handler := newTestEngine(t)

	matching := testutil.CreateTestAutomation(func(a *models.Automation) {
		a.TriggerType = models.TriggerEvent
		a.TriggerConfig = models.TriggerConfig{Event: "invoice.paid"}
	})
	other := testutil.CreateTestAutomation(func(a *models.Automation) {
		a.TriggerType = models.TriggerEvent
		a.TriggerConfig = models.TriggerConfig{Event: "quote.accepted"}
	})
	require.NoError(t, p.Automations().Save(ctx, matching))
	require.NoError(t, p.Automations().Save(ctx, other))

	payload := map[string]any{"invoice_id": "i-1", "total": 500.0}
	require.NoError(t, engine.HandleEvent(ctx, "invoice.paid", payload, "user-1"))

	require.Len(t, handler.calls, 1)
	assert.Equal(t, payload, handler.calls[0].Event)
	assert.Nil(t, handler.calls[0].Item)

	runs, err := p.Runs().ListByAutomation(ctx, matching.ID, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, models.RunSuccess, runs[0].Status)
	assert.Equal(t, 1, runs[0].ItemsProcessed)

	otherRuns, err := p.Runs().ListByAutomation(ctx, other.ID, 10)
	require.NoError(t, err)
	assert.Empty(t, otherRuns)
}

func TestHandleEventIgnoresOtherUsers(t *testing.T) {
	ctx := context.Background()
	engine, p, handler := newTestEngine(t)

	foreign := testutil.CreateTestAutomation(func(a *models.Automation) {
		a.UserID = "user-2"
		a.TriggerType = models.TriggerEvent
		a.TriggerConfig = models.TriggerConfig{Event: "invoice.paid"}
	})
	require.NoError(t, p.Automations().Save(ctx, foreign))

	require.NoError(t, engine.HandleEvent(ctx, "invoice.paid", nil, "user-1"))

	assert.Empty(t, handler.calls)
}

func TestExecuteAutomationWithContextRecordsFailure(t *testing.T) {
	ctx := context.Background()
	engine, p, handler := newTestEngine(t)

	handler.failOn = func(actions.ExecutionContext) error { return errors.New("gateway timeout") }

	automation := testutil.CreateTestAutomation(func(a *models.Automation) {
		a.TriggerType = models.TriggerEvent
		a.TriggerConfig = models.TriggerConfig{Event: "invoice.paid"}
	})
	require.NoError(t, p.Automations().Save(ctx, automation))

	run, err := engine.ExecuteAutomationWithContext(ctx, automation, map[string]any{})

	require.Error(t, err)
	assert.Equal(t, models.RunError, run.Status)
	assert.Equal(t, 1, run.ItemsFailed)

	stored, getErr := p.Automations().GetByID(ctx, "user-1", automation.ID)
	require.NoError(t, getErr)
	assert.Equal(t, 1, stored.ErrorCount)
	assert.Contains(t, stored.LastError, "gateway timeout")
}
