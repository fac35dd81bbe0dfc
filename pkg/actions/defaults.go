package actions

import (
	"log/slog"

	"github.com/zzpkit/zzpkit/pkg/messaging"
	"github.com/zzpkit/zzpkit/pkg/models"
)

// NewDefaultRegistry wires the full action set: three delivery channels
// plus the record mutations, which delegate to the workflow router.
func NewDefaultRegistry(logger *slog.Logger, sender messaging.Sender, router WorkflowRunner) *Registry {
	registry := NewRegistry(logger)

	registry.Register(models.ActionSendEmail, NewSendEmailHandler(sender))
	registry.Register(models.ActionSendWhatsApp, NewSendWhatsAppHandler(sender))
	registry.Register(models.ActionSendNotification, NewSendNotificationHandler(sender))

	registry.Register(models.ActionCreateInvoice, NewRecordActionHandler(router, "create_invoice"))
	registry.Register(models.ActionCreateQuote, NewRecordActionHandler(router, "create_quote"))
	registry.Register(models.ActionCreateTimeEntry, NewRecordActionHandler(router, "add_time_entry"))
	registry.Register(models.ActionCreateKilometerEntry, NewRecordActionHandler(router, "add_kilometer"))
	registry.Register(models.ActionCreateCalendarEvent, NewRecordActionHandler(router, "create_calendar_event"))
	registry.Register(models.ActionUpdateInvoice, NewRecordActionHandler(router, "update_invoice"))

	return registry
}
