package file_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zzpkit/zzpkit/pkg/models"
	"github.com/zzpkit/zzpkit/pkg/persistence"
	"github.com/zzpkit/zzpkit/pkg/persistence/file"
	"github.com/zzpkit/zzpkit/pkg/testutil"
)

func TestListDueSelectsOnlyEligibleAutomations(t *testing.T) {
	ctx := context.Background()
	p := file.NewPersistence(t.TempDir())

	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	due := testutil.CreateTestAutomation(func(a *models.Automation) {
		a.Name = "due"
		a.NextRunAt = &past
	})
	neverComputed := testutil.CreateTestAutomation(func(a *models.Automation) {
		a.Name = "never computed"
	})
	notYet := testutil.CreateTestAutomation(func(a *models.Automation) {
		a.Name = "not yet"
		a.NextRunAt = &future
	})
	disabled := testutil.CreateTestAutomation(func(a *models.Automation) {
		a.Name = "disabled"
		a.Enabled = false
		a.NextRunAt = &past
	})
	eventTriggered := testutil.CreateTestAutomation(func(a *models.Automation) {
		a.Name = "event triggered"
		a.TriggerType = models.TriggerEvent
		a.TriggerConfig = models.TriggerConfig{Event: "invoice.paid"}
	})

	for _, a := range []*models.Automation{due, neverComputed, notYet, disabled, eventTriggered} {
		require.NoError(t, p.Automations().Save(ctx, a))
	}

	found, err := p.Automations().ListDue(ctx, now)
	require.NoError(t, err)

	names := make([]string, 0, len(found))
	for _, a := range found {
		names = append(names, a.Name)
	}

	// A row with no computed next run is always eligible.
	assert.ElementsMatch(t, []string{"due", "never computed"}, names)
}

func TestGetByIDEnforcesOwnership(t *testing.T) {
	ctx := context.Background()
	p := file.NewPersistence(t.TempDir())

	automation := testutil.CreateTestAutomation()
	require.NoError(t, p.Automations().Save(ctx, automation))

	_, err := p.Automations().GetByID(ctx, "someone-else", automation.ID)
	require.Error(t, err)
	assert.True(t, persistence.IsNotFound(err))

	got, err := p.Automations().GetByID(ctx, automation.UserID, automation.ID)
	require.NoError(t, err)
	assert.Equal(t, automation.ID, got.ID)
}

func TestRunsAreAppendOnlyAndLimited(t *testing.T) {
	ctx := context.Background()
	p := file.NewPersistence(t.TempDir())

	for i := 0; i < 5; i++ {
		run := &models.AutomationRun{
			ID:           "run-" + string(rune('a'+i)),
			AutomationID: "auto-1",
			Status:       models.RunSuccess,
			StartedAt:    time.Date(2026, 3, 10, 9, i, 0, 0, time.UTC),
		}
		require.NoError(t, p.Runs().Create(ctx, run))
	}

	runs, err := p.Runs().ListByAutomation(ctx, "auto-1", 3)
	require.NoError(t, err)
	require.Len(t, runs, 3)

	// Most recent first.
	assert.True(t, runs[0].StartedAt.After(runs[1].StartedAt))
	assert.True(t, runs[1].StartedAt.After(runs[2].StartedAt))
}

func TestCountForYearScopedByUserAndYear(t *testing.T) {
	ctx := context.Background()
	p := file.NewPersistence(t.TempDir())

	save := func(userID string, year int) {
		invoice := testutil.CreateTestInvoice(userID, "client-1", func(i *models.Invoice) {
			i.CreatedAt = time.Date(year, 6, 1, 0, 0, 0, 0, time.UTC)
		})
		require.NoError(t, p.Invoices().Save(ctx, invoice))
	}

	save("user-1", 2026)
	save("user-1", 2026)
	save("user-1", 2025)
	save("user-2", 2026)

	count, err := p.Invoices().CountForYear(ctx, "user-1", 2026)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestInvoiceListPaginatesAndFilters(t *testing.T) {
	ctx := context.Background()
	p := file.NewPersistence(t.TempDir())

	for i := 0; i < 4; i++ {
		invoice := testutil.CreateTestInvoice("user-1", "client-1", func(inv *models.Invoice) {
			inv.Number = "INV-2026-00" + string(rune('1'+i))
			inv.CreatedAt = time.Date(2026, 3, 1+i, 0, 0, 0, 0, time.UTC)
		})
		require.NoError(t, p.Invoices().Save(ctx, invoice))
	}

	page1, total, err := p.Invoices().List(ctx, "user-1", persistence.InvoiceFilter{Page: 1, Limit: 3})
	require.NoError(t, err)
	assert.Equal(t, 4, total)
	assert.Len(t, page1, 3)

	page2, _, err := p.Invoices().List(ctx, "user-1", persistence.InvoiceFilter{Page: 2, Limit: 3})
	require.NoError(t, err)
	assert.Len(t, page2, 1)
}
