package automation

import (
	"context"
	"fmt"
	"time"

	"github.com/zzpkit/zzpkit/pkg/models"
	"github.com/zzpkit/zzpkit/pkg/persistence"
)

// validateConditions gates a run per category: absent or empty
// conditions always pass; otherwise the pass condition is "at least one
// matching row exists". Categories without target records always pass.
func (e *Engine) validateConditions(ctx context.Context, automation *models.Automation) (bool, error) {
	if len(automation.Conditions) == 0 {
		return true, nil
	}

	switch automation.Category {
	case models.CategoryInvoice:
		invoices, _, err := e.persistence.Invoices().List(ctx, automation.UserID, invoiceFilter(automation.Conditions))
		if err != nil {
			return false, fmt.Errorf("failed to check invoice conditions: %w", err)
		}

		return len(invoices) > 0, nil

	case models.CategoryQuote:
		quotes, _, err := e.persistence.Quotes().List(ctx, automation.UserID, quoteFilter(automation.Conditions))
		if err != nil {
			return false, fmt.Errorf("failed to check quote conditions: %w", err)
		}

		return len(quotes) > 0, nil

	case models.CategoryTime:
		entries, err := e.persistence.TimeEntries().List(ctx, automation.UserID, timeEntryFilter(automation.Conditions, e.now().UTC()))
		if err != nil {
			return false, fmt.Errorf("failed to check time entry conditions: %w", err)
		}

		return len(entries) > 0, nil

	case models.CategoryEmail, models.CategoryCalendar, models.CategoryKilometer:
		return true, nil

	default:
		return true, nil
	}
}

// getItemsForAutomation loads the records the action list runs against,
// capped at maxItemsPerRun. Categories without target records run the
// action list once against an empty item.
func (e *Engine) getItemsForAutomation(ctx context.Context, automation *models.Automation) ([]map[string]any, error) {
	switch automation.Category {
	case models.CategoryInvoice:
		return e.invoiceItems(ctx, automation)
	case models.CategoryQuote:
		return e.quoteItems(ctx, automation)
	case models.CategoryTime:
		return e.timeEntryItems(ctx, automation)
	default:
		return []map[string]any{nil}, nil
	}
}

func (e *Engine) invoiceItems(ctx context.Context, automation *models.Automation) ([]map[string]any, error) {
	invoices, _, err := e.persistence.Invoices().List(ctx, automation.UserID, invoiceFilter(automation.Conditions))
	if err != nil {
		return nil, err
	}

	now := e.now().UTC()
	clients := e.clientCache(ctx, automation.UserID)
	items := make([]map[string]any, 0, len(invoices))

	for _, invoice := range invoices {
		item := map[string]any{
			"id":           invoice.ID,
			"number":       invoice.Number,
			"status":       string(invoice.Status),
			"subtotal":     invoice.Subtotal,
			"total":        invoice.Total,
			"days_overdue": invoice.DaysOverdue(now),
			"client_id":    invoice.ClientID,
		}

		if invoice.DueDate != nil {
			item["due_date"] = invoice.DueDate.Format("2006-01-02")
		}

		addClientFields(item, clients(invoice.ClientID))
		items = append(items, item)
	}

	return items, nil
}

func (e *Engine) quoteItems(ctx context.Context, automation *models.Automation) ([]map[string]any, error) {
	quotes, _, err := e.persistence.Quotes().List(ctx, automation.UserID, quoteFilter(automation.Conditions))
	if err != nil {
		return nil, err
	}

	now := e.now().UTC()
	clients := e.clientCache(ctx, automation.UserID)
	items := make([]map[string]any, 0, len(quotes))

	for _, quote := range quotes {
		item := map[string]any{
			"id":                quote.ID,
			"number":            quote.Number,
			"status":            string(quote.Status),
			"total":             quote.Total,
			"valid_until":       quote.ValidUntil.Format("2006-01-02"),
			"days_until_expiry": int(quote.ValidUntil.Sub(now).Hours() / 24),
			"client_id":         quote.ClientID,
		}

		addClientFields(item, clients(quote.ClientID))
		items = append(items, item)
	}

	return items, nil
}

func (e *Engine) timeEntryItems(ctx context.Context, automation *models.Automation) ([]map[string]any, error) {
	entries, err := e.persistence.TimeEntries().List(ctx, automation.UserID, timeEntryFilter(automation.Conditions, e.now().UTC()))
	if err != nil {
		return nil, err
	}

	items := make([]map[string]any, 0, len(entries))

	for _, entry := range entries {
		items = append(items, map[string]any{
			"id":          entry.ID,
			"project_id":  entry.ProjectID,
			"client_id":   entry.ClientID,
			"description": entry.Description,
			"hours":       entry.Hours,
			"date":        entry.Date.Format("2006-01-02"),
			"billable":    entry.Billable,
		})
	}

	return items, nil
}

// clientCache returns a lookup memoized per run, so a batch over many
// invoices of the same client loads it once. Lookup failures yield nil;
// the item simply misses client fields.
func (e *Engine) clientCache(ctx context.Context, userID string) func(clientID string) *models.Client {
	cache := make(map[string]*models.Client)

	return func(clientID string) *models.Client {
		if clientID == "" {
			return nil
		}

		if client, seen := cache[clientID]; seen {
			return client
		}

		client, err := e.persistence.Clients().GetByID(ctx, userID, clientID)
		if err != nil {
			if !persistence.IsNotFound(err) {
				e.logger.Warn("Failed to load client for item", "client_id", clientID, "error", err)
			}

			client = nil
		}

		cache[clientID] = client

		return client
	}
}

func addClientFields(item map[string]any, client *models.Client) {
	if client == nil {
		return
	}

	item["client_name"] = client.Name
	item["client_email"] = client.Email
	item["client_phone"] = client.Phone
}

// Condition readers tolerate JSON-decoded numbers arriving as float64.

func condString(conditions map[string]any, keys ...string) string {
	for _, key := range keys {
		if value, ok := conditions[key].(string); ok {
			return value
		}
	}

	return ""
}

func condInt(conditions map[string]any, keys ...string) int {
	for _, key := range keys {
		switch v := conditions[key].(type) {
		case float64:
			return int(v)
		case int:
			return v
		}
	}

	return 0
}

func condBool(conditions map[string]any, keys ...string) bool {
	for _, key := range keys {
		if value, ok := conditions[key].(bool); ok {
			return value
		}
	}

	return false
}

// invoiceFilter maps automation conditions onto the shared invoice
// filter. A status of "overdue" selects by due date rather than the
// stored status, so sent-but-late invoices match too.
func invoiceFilter(conditions map[string]any) persistence.InvoiceFilter {
	filter := persistence.InvoiceFilter{
		ClientID:       condString(conditions, "client_id", "clientId"),
		MinDaysOverdue: condInt(conditions, "days_overdue", "min_days_overdue"),
		OverdueOnly:    condBool(conditions, "overdue_only"),
		Limit:          maxItemsPerRun,
	}

	status := condString(conditions, "status")
	if status == string(models.InvoiceOverdue) {
		filter.OverdueOnly = true
	} else {
		filter.Status = models.InvoiceStatus(status)
	}

	return filter
}

func quoteFilter(conditions map[string]any) persistence.QuoteFilter {
	return persistence.QuoteFilter{
		Status:             models.QuoteStatus(condString(conditions, "status")),
		ClientID:           condString(conditions, "client_id", "clientId"),
		ExpiringWithinDays: condInt(conditions, "expiring_within_days", "expires_within_days"),
		Page:               1,
		Limit:              maxItemsPerRun,
	}
}

func timeEntryFilter(conditions map[string]any, now time.Time) persistence.TimeEntryFilter {
	filter := persistence.TimeEntryFilter{
		ProjectID:    condString(conditions, "project_id", "projectId"),
		UnbilledOnly: condBool(conditions, "unbilled_only", "unbilledOnly"),
		Limit:        maxItemsPerRun,
	}

	if days := condInt(conditions, "since_days"); days > 0 {
		filter.Since = now.AddDate(0, 0, -days)
	}

	return filter
}
