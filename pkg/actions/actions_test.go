package actions

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zzpkit/zzpkit/pkg/messaging"
	"github.com/zzpkit/zzpkit/pkg/models"
	"github.com/zzpkit/zzpkit/pkg/testutil"
	"github.com/zzpkit/zzpkit/pkg/workflow"
)

type captureSender struct {
	emails        []messaging.EmailMessage
	whatsapps     []messaging.WhatsAppMessage
	notifications []messaging.Notification
}

func (s *captureSender) SendEmail(_ context.Context, msg messaging.EmailMessage) error {
	s.emails = append(s.emails, msg)

	return nil
}

func (s *captureSender) SendWhatsApp(_ context.Context, msg messaging.WhatsAppMessage) error {
	s.whatsapps = append(s.whatsapps, msg)

	return nil
}

func (s *captureSender) SendNotification(_ context.Context, notification messaging.Notification) error {
	s.notifications = append(s.notifications, notification)

	return nil
}

type captureRouter struct {
	action string
	params map[string]any
	result workflow.Envelope
}

func (r *captureRouter) Route(_ context.Context, action string, params map[string]any, _ models.WorkflowContext) workflow.Envelope {
	r.action = action
	r.params = params

	return r.result
}

func TestDefaultRegistryCoversAllActionTypes(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	registry := NewDefaultRegistry(logger, &captureSender{}, &captureRouter{})

	for _, actionType := range []string{
		models.ActionSendEmail,
		models.ActionSendWhatsApp,
		models.ActionSendNotification,
		models.ActionCreateInvoice,
		models.ActionCreateQuote,
		models.ActionCreateTimeEntry,
		models.ActionCreateKilometerEntry,
		models.ActionCreateCalendarEvent,
		models.ActionUpdateInvoice,
	} {
		assert.True(t, registry.Has(actionType), actionType)
	}

	assert.False(t, registry.Has("teleport"))
}

func TestSendEmailRendersTemplates(t *testing.T) {
	sender := &captureSender{}
	handler := NewSendEmailHandler(sender)

	execCtx := ExecutionContext{
		UserID:     "user-1",
		Automation: testutil.CreateTestAutomation(),
		Item: map[string]any{
			"number":       "INV-2026-007",
			"client_email": "jan@jansen.nl",
			"days_overdue": 14,
		},
	}

	result, err := handler.Execute(context.Background(), execCtx, map[string]any{
		"subject": "Herinnering: {{ item.number }}",
		"body":    "Factuur {{ item.number }} staat {{ item.days_overdue }} dagen open.",
	})

	require.NoError(t, err)
	require.Len(t, sender.emails, 1)
	assert.Equal(t, "jan@jansen.nl", sender.emails[0].To)
	assert.Equal(t, "Herinnering: INV-2026-007", sender.emails[0].Subject)
	assert.Equal(t, "Factuur INV-2026-007 staat 14 dagen open.", sender.emails[0].Body)
	assert.Equal(t, "jan@jansen.nl", result["to"])
}

func TestSendEmailFailsWithoutRecipient(t *testing.T) {
	handler := NewSendEmailHandler(&captureSender{})

	_, err := handler.Execute(context.Background(), ExecutionContext{UserID: "user-1"}, map[string]any{
		"subject": "hi",
	})

	assert.ErrorIs(t, err, errNoRecipient)
}

func TestSendNotificationTargetsAutomationUser(t *testing.T) {
	sender := &captureSender{}
	handler := NewSendNotificationHandler(sender)

	_, err := handler.Execute(context.Background(), ExecutionContext{UserID: "user-9"}, map[string]any{
		"title":   "Offerte verloopt",
		"message": "Offerte verloopt binnenkort",
	})

	require.NoError(t, err)
	require.Len(t, sender.notifications, 1)
	assert.Equal(t, "user-9", sender.notifications[0].UserID)
}

func TestRecordActionDelegatesToRouterWithRenderedParams(t *testing.T) {
	router := &captureRouter{result: workflow.Envelope{Success: true, Message: "done"}}
	handler := NewRecordActionHandler(router, "create_invoice")

	execCtx := ExecutionContext{
		UserID: "user-1",
		Item: map[string]any{
			"client_id": "c-42",
			"name":      "Jansen",
		},
	}

	result, err := handler.Execute(context.Background(), execCtx, map[string]any{
		"description": "Maandfactuur voor {{ item.name }}",
		"amount":      250.0,
	})

	require.NoError(t, err)
	assert.Equal(t, "create_invoice", router.action)
	assert.Equal(t, "Maandfactuur voor Jansen", router.params["description"])
	assert.Equal(t, "c-42", router.params["clientId"], "client id must be inherited from the item")
	assert.Equal(t, "done", result["message"])
}

func TestRecordActionSurfacesRouterFailure(t *testing.T) {
	router := &captureRouter{result: workflow.Envelope{Success: false, Error: "Client not found"}}
	handler := NewRecordActionHandler(router, "create_quote")

	_, err := handler.Execute(context.Background(), ExecutionContext{UserID: "user-1"}, map[string]any{
		"clientId": "missing",
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "Client not found")
}
