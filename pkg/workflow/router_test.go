package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zzpkit/zzpkit/pkg/events"
	"github.com/zzpkit/zzpkit/pkg/models"
	"github.com/zzpkit/zzpkit/pkg/persistence"
	"github.com/zzpkit/zzpkit/pkg/persistence/file"
	"github.com/zzpkit/zzpkit/pkg/testutil"
)

type capturePublisher struct {
	published []events.DomainEvent
}

func (p *capturePublisher) Publish(_ context.Context, event events.DomainEvent) error {
	p.published = append(p.published, event)

	return nil
}

func newTestRouter(t *testing.T) (*Router, persistence.Persistence, *capturePublisher) {
	t.Helper()

	p := file.NewPersistence(t.TempDir())
	publisher := &capturePublisher{}
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	router := NewRouter(p, nil, nil, publisher, logger)
	router.now = func() time.Time { return time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC) }

	return router, p, publisher
}

func seedClient(t *testing.T, p persistence.Persistence, userID string) *models.Client {
	t.Helper()

	client := testutil.CreateTestClient(userID)
	require.NoError(t, p.Clients().Save(context.Background(), client))

	return client
}

func wctx(userID string) models.WorkflowContext {
	return models.WorkflowContext{UserID: userID}
}

func TestResolveUserID(t *testing.T) {
	tests := []struct {
		name      string
		wctx      models.WorkflowContext
		requested string
		want      string
		wantErr   bool
	}{
		{
			name:      "service account binding wins over requested",
			wctx:      models.WorkflowContext{ServiceAccountID: "sa-1", UserID: "bound-user"},
			requested: "other-user",
			want:      "bound-user",
		},
		{
			name:      "requested user wins over plain context user",
			wctx:      models.WorkflowContext{UserID: "ctx-user"},
			requested: "req-user",
			want:      "req-user",
		},
		{
			name: "context user as fallback",
			wctx: models.WorkflowContext{UserID: "ctx-user"},
			want: "ctx-user",
		},
		{
			name:    "no user anywhere",
			wctx:    models.WorkflowContext{},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveUserID(tt.wctx, tt.requested)

			if tt.wantErr {
				assert.ErrorIs(t, err, ErrNoUser)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRouteUnknownAction(t *testing.T) {
	router, _, _ := newTestRouter(t)

	env := router.Route(context.Background(), "summon_accountant", nil, wctx("user-1"))

	assert.False(t, env.Success)
	assert.Contains(t, env.Error, "Unknown action")
}

func TestRouteEnforcesContextPermissions(t *testing.T) {
	router, p, _ := newTestRouter(t)
	client := seedClient(t, p, "user-1")

	restricted := models.WorkflowContext{
		UserID:             "user-1",
		ServiceAccountID:   "sa-1",
		ServiceAccountName: "reporting bot",
		Permissions:        []string{"get_invoices", "get_quotes"},
	}

	env := router.Route(context.Background(), "create_invoice", map[string]any{
		"clientId":    client.ID,
		"description": "Consultancy",
		"amount":      100.0,
	}, restricted)

	assert.False(t, env.Success)
	assert.Equal(t, "Permission denied", env.Error)

	env = router.Route(context.Background(), "get_invoices", nil, restricted)
	assert.True(t, env.Success)

	// A wildcard grant and an empty permission list are unrestricted.
	wildcard := restricted
	wildcard.Permissions = []string{"*"}
	env = router.Route(context.Background(), "create_invoice", map[string]any{
		"clientId":    client.ID,
		"description": "Consultancy",
		"amount":      100.0,
	}, wildcard)
	assert.True(t, env.Success)

	env = router.Route(context.Background(), "get_quotes", nil, wctx("user-1"))
	assert.True(t, env.Success)
}

func TestRouteActionNamesAreCaseInsensitive(t *testing.T) {
	router, p, _ := newTestRouter(t)
	client := seedClient(t, p, "user-1")

	env := router.Route(context.Background(), "  Invoice.Create ", map[string]any{
		"clientId":    client.ID,
		"description": "Consultancy maart",
		"amount":      500.0,
	}, wctx("user-1"))

	require.True(t, env.Success, env.Error)
}

func TestCreateInvoiceRejectsForeignClient(t *testing.T) {
	router, p, _ := newTestRouter(t)
	client := seedClient(t, p, "someone-else")

	env := router.Route(context.Background(), "create_invoice", map[string]any{
		"clientId":    client.ID,
		"description": "werk",
		"amount":      100.0,
	}, wctx("user-1"))

	assert.False(t, env.Success)
	assert.Equal(t, "Client not found", env.Error)
}

func TestCreateInvoiceNumberingAndTax(t *testing.T) {
	ctx := context.Background()
	router, p, publisher := newTestRouter(t)
	client := seedClient(t, p, "user-1")

	first := router.Route(ctx, "create_invoice", map[string]any{
		"clientId": client.ID,
		"lines": []any{
			map[string]any{"description": "Consultancy", "quantity": 10.0, "rate": 85.0},
		},
	}, wctx("user-1"))
	require.True(t, first.Success, first.Error)

	invoice, ok := first.Data.(*models.Invoice)
	require.True(t, ok)

	assert.Equal(t, "INV-2026-001", invoice.Number)
	assert.Equal(t, models.InvoiceDraft, invoice.Status)
	assert.InDelta(t, 850.0, invoice.Subtotal, 0.001)
	assert.InDelta(t, 21.0, invoice.TaxRate, 0.001)
	assert.InDelta(t, 178.5, invoice.TaxAmount, 0.001)
	assert.InDelta(t, 1028.5, invoice.Total, 0.001)

	second := router.Route(ctx, "create_invoice", map[string]any{
		"clientId":    client.ID,
		"description": "Nazorg",
		"amount":      150.0,
	}, wctx("user-1"))
	require.True(t, second.Success, second.Error)
	assert.Equal(t, "INV-2026-002", second.Data.(*models.Invoice).Number)

	require.Len(t, publisher.published, 2)
	assert.Equal(t, events.InvoiceCreated, publisher.published[0].Type)
	assert.Equal(t, "user-1", publisher.published[0].UserID)
}

func TestCreateInvoiceSynthesizesLineFromFlatParams(t *testing.T) {
	router, p, _ := newTestRouter(t)
	client := seedClient(t, p, "user-1")

	env := router.Route(context.Background(), "create_invoice", map[string]any{
		"clientId":    client.ID,
		"description": "Workshop",
		"quantity":    2.0,
		"rate":        300.0,
	}, wctx("user-1"))
	require.True(t, env.Success, env.Error)

	invoice := env.Data.(*models.Invoice)
	require.Len(t, invoice.Lines, 1)
	assert.Equal(t, "Workshop", invoice.Lines[0].Description)
	assert.InDelta(t, 600.0, invoice.Lines[0].Amount, 0.001)
}

func TestUpdateInvoicePaidPublishesEventAndStampsTime(t *testing.T) {
	ctx := context.Background()
	router, p, publisher := newTestRouter(t)
	client := seedClient(t, p, "user-1")

	created := router.Route(ctx, "create_invoice", map[string]any{
		"clientId":    client.ID,
		"description": "werk",
		"amount":      100.0,
	}, wctx("user-1"))
	require.True(t, created.Success)

	invoice := created.Data.(*models.Invoice)
	publisher.published = nil

	env := router.Route(ctx, "update_invoice", map[string]any{
		"invoiceId": invoice.ID,
		"status":    "paid",
	}, wctx("user-1"))
	require.True(t, env.Success, env.Error)

	updated := env.Data.(*models.Invoice)
	assert.Equal(t, models.InvoicePaid, updated.Status)
	require.NotNil(t, updated.PaidAt)

	require.Len(t, publisher.published, 1)
	assert.Equal(t, events.InvoicePaid, publisher.published[0].Type)
}

func TestCreateQuoteDefaultsValidityWindow(t *testing.T) {
	router, p, _ := newTestRouter(t)
	client := seedClient(t, p, "user-1")

	env := router.Route(context.Background(), "create_quote", map[string]any{
		"clientId":    client.ID,
		"description": "Website redesign",
		"amount":      2500.0,
	}, wctx("user-1"))
	require.True(t, env.Success, env.Error)

	quote := env.Data.(*models.Quote)
	assert.Equal(t, "QUO-2026-001", quote.Number)
	assert.Equal(t, time.Date(2026, 4, 9, 12, 0, 0, 0, time.UTC), quote.ValidUntil)
}

func TestAddTimeEntryParameterAliases(t *testing.T) {
	ctx := context.Background()
	router, p, _ := newTestRouter(t)

	project := &models.Project{ID: "p-1", UserID: "user-1", ClientID: "c-9", Name: "Migratie"}
	require.NoError(t, p.Projects().Save(ctx, project))

	env := router.Route(ctx, "add_time_entry", map[string]any{
		"project_id": "p-1",
		"duration":   6.5,
	}, wctx("user-1"))
	require.True(t, env.Success, env.Error)

	entry := env.Data.(*models.TimeEntry)
	assert.InDelta(t, 6.5, entry.Hours, 0.001)
	assert.Equal(t, "c-9", entry.ClientID)
	assert.True(t, entry.Billable)
}

func TestAddKilometerEntryValidation(t *testing.T) {
	ctx := context.Background()
	router, _, _ := newTestRouter(t)

	env := router.Route(ctx, "add_kilometer", map[string]any{
		"from": "Utrecht", "to": "Amsterdam", "distance": -5.0, "purpose": "klantbezoek",
	}, wctx("user-1"))
	assert.False(t, env.Success)
	assert.Contains(t, env.Error, "distance")

	env = router.Route(ctx, "add_kilometer", map[string]any{
		"from": "Utrecht", "to": "Amsterdam", "distance": 45.0, "purpose": "klantbezoek",
	}, wctx("user-1"))
	require.True(t, env.Success, env.Error)
	assert.Equal(t, "zakelijk", env.Data.(*models.KilometerEntry).Type)
}

func TestGetInvoicesPaginates(t *testing.T) {
	ctx := context.Background()
	router, p, _ := newTestRouter(t)
	client := seedClient(t, p, "user-1")

	for i := 0; i < 3; i++ {
		env := router.Route(ctx, "create_invoice", map[string]any{
			"clientId":    client.ID,
			"description": fmt.Sprintf("werk %d", i),
			"amount":      100.0,
		}, wctx("user-1"))
		require.True(t, env.Success, env.Error)
	}

	env := router.Route(ctx, "get_invoices", map[string]any{"page": 1.0, "limit": 2.0}, wctx("user-1"))
	require.True(t, env.Success, env.Error)

	data := env.Data.(map[string]any)
	assert.Equal(t, 3, data["total"])
	assert.Len(t, data["invoices"], 2)
}
