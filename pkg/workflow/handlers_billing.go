package workflow

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/zzpkit/zzpkit/pkg/events"
	"github.com/zzpkit/zzpkit/pkg/models"
	"github.com/zzpkit/zzpkit/pkg/persistence"
)

const (
	// Dutch standard VAT rate, applied when the caller does not set one.
	defaultTaxRate = 21.0

	// Default payment and quote validity window.
	defaultValidityDays = 30
)

// nextDocumentNumber produces <prefix>-<year>-NNN from the user's count
// of documents in the current year. Count-then-insert is not atomic;
// concurrent calls can collide on the same number.
func nextDocumentNumber(count int, prefix string, year int) string {
	return fmt.Sprintf("%s-%d-%03d", prefix, year, count+1)
}

func (r *Router) createInvoice(ctx context.Context, userID string, params map[string]any) Envelope {
	clientID := getString(params, "clientId", "client_id")
	if clientID == "" {
		return failure("clientId is required")
	}

	client, err := r.persistence.Clients().GetByID(ctx, userID, clientID)
	if err != nil {
		if persistence.IsNotFound(err) {
			return failure("Client not found")
		}

		r.logger.Error("Failed to load client", "client_id", clientID, "error", err)

		return failure("Failed to load client")
	}

	lines, err := parseLines(params)
	if err != nil {
		return failure(err.Error())
	}

	taxRate := getFloat(params, "taxRate", "tax_rate")
	if taxRate == 0 {
		taxRate = defaultTaxRate
	}

	subtotal := 0.0
	for _, line := range lines {
		subtotal += line.Amount
	}

	taxAmount := subtotal * taxRate / 100

	now := r.now().UTC()

	year := now.Year()

	count, err := r.persistence.Invoices().CountForYear(ctx, userID, year)
	if err != nil {
		r.logger.Error("Failed to count invoices for numbering", "error", err)

		return failure("Failed to generate invoice number")
	}

	dueDate, err := getTime(params, "dueDate", "due_date")
	if err != nil {
		return failure(err.Error())
	}

	if dueDate.IsZero() {
		dueDate = now.AddDate(0, 0, defaultValidityDays)
	}

	invoice := &models.Invoice{
		ID:        uuid.New().String(),
		UserID:    userID,
		ClientID:  client.ID,
		Number:    nextDocumentNumber(count, "INV", year),
		Status:    models.InvoiceDraft,
		Lines:     lines,
		Subtotal:  subtotal,
		TaxRate:   taxRate,
		TaxAmount: taxAmount,
		Total:     subtotal + taxAmount,
		Notes:     getString(params, "notes"),
		DueDate:   &dueDate,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := r.validate.Struct(invoice); err != nil {
		return failure(fmt.Sprintf("Invalid invoice: %v", err))
	}

	if err := r.persistence.Invoices().Save(ctx, invoice); err != nil {
		r.logger.Error("Failed to save invoice", "error", err)

		return failure("Failed to save invoice")
	}

	r.publish(ctx, events.InvoiceCreated, userID, map[string]any{
		"invoice_id": invoice.ID,
		"number":     invoice.Number,
		"client_id":  client.ID,
		"total":      invoice.Total,
	})

	if r.indexer != nil {
		r.indexer.IndexInvoice(ctx, invoice)
	}

	return success(invoice, fmt.Sprintf("Invoice %s created for %s (EUR %.2f)", invoice.Number, client.Name, invoice.Total))
}

func (r *Router) updateInvoice(ctx context.Context, userID string, params map[string]any) Envelope {
	invoiceID := getString(params, "invoiceId", "invoice_id", "id")
	if invoiceID == "" {
		return failure("invoiceId is required")
	}

	invoice, err := r.persistence.Invoices().GetByID(ctx, userID, invoiceID)
	if err != nil {
		if persistence.IsNotFound(err) {
			return failure("Invoice not found")
		}

		r.logger.Error("Failed to load invoice", "invoice_id", invoiceID, "error", err)

		return failure("Failed to load invoice")
	}

	status := models.InvoiceStatus(getString(params, "status"))

	switch status {
	case models.InvoiceDraft, models.InvoiceSent, models.InvoicePaid, models.InvoiceOverdue, models.InvoiceCancelled:
	default:
		return failure(fmt.Sprintf("Unknown invoice status: %s", status))
	}

	now := r.now().UTC()

	invoice.Status = status
	invoice.UpdatedAt = now

	if notes := getString(params, "notes"); notes != "" {
		invoice.Notes = notes
	}

	var event events.EventType

	switch status {
	case models.InvoiceSent:
		invoice.SentAt = &now
		event = events.InvoiceSent
	case models.InvoicePaid:
		invoice.PaidAt = &now
		event = events.InvoicePaid
	case models.InvoiceOverdue:
		event = events.InvoiceOverdue
	}

	if err := r.persistence.Invoices().Save(ctx, invoice); err != nil {
		r.logger.Error("Failed to save invoice", "error", err)

		return failure("Failed to save invoice")
	}

	if event != "" {
		r.publish(ctx, event, userID, map[string]any{
			"invoice_id": invoice.ID,
			"number":     invoice.Number,
			"client_id":  invoice.ClientID,
			"total":      invoice.Total,
		})
	}

	if r.indexer != nil {
		r.indexer.IndexInvoice(ctx, invoice)
	}

	return success(invoice, fmt.Sprintf("Invoice %s is now %s", invoice.Number, invoice.Status))
}

func (r *Router) createQuote(ctx context.Context, userID string, params map[string]any) Envelope {
	clientID := getString(params, "clientId", "client_id")
	if clientID == "" {
		return failure("clientId is required")
	}

	client, err := r.persistence.Clients().GetByID(ctx, userID, clientID)
	if err != nil {
		if persistence.IsNotFound(err) {
			return failure("Client not found")
		}

		r.logger.Error("Failed to load client", "client_id", clientID, "error", err)

		return failure("Failed to load client")
	}

	lines, err := parseLines(params)
	if err != nil {
		return failure(err.Error())
	}

	taxRate := getFloat(params, "taxRate", "tax_rate")
	if taxRate == 0 {
		taxRate = defaultTaxRate
	}

	subtotal := 0.0
	for _, line := range lines {
		subtotal += line.Amount
	}

	taxAmount := subtotal * taxRate / 100

	now := r.now().UTC()

	year := now.Year()

	count, err := r.persistence.Quotes().CountForYear(ctx, userID, year)
	if err != nil {
		r.logger.Error("Failed to count quotes for numbering", "error", err)

		return failure("Failed to generate quote number")
	}

	validUntil, err := getTime(params, "validUntil", "valid_until")
	if err != nil {
		return failure(err.Error())
	}

	if validUntil.IsZero() {
		validUntil = now.AddDate(0, 0, defaultValidityDays)
	}

	quote := &models.Quote{
		ID:         uuid.New().String(),
		UserID:     userID,
		ClientID:   client.ID,
		Number:     nextDocumentNumber(count, "QUO", year),
		Status:     models.QuoteDraft,
		Lines:      lines,
		Subtotal:   subtotal,
		TaxRate:    taxRate,
		TaxAmount:  taxAmount,
		Total:      subtotal + taxAmount,
		Notes:      getString(params, "notes"),
		ValidUntil: validUntil,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := r.validate.Struct(quote); err != nil {
		return failure(fmt.Sprintf("Invalid quote: %v", err))
	}

	if err := r.persistence.Quotes().Save(ctx, quote); err != nil {
		r.logger.Error("Failed to save quote", "error", err)

		return failure("Failed to save quote")
	}

	r.publish(ctx, events.QuoteCreated, userID, map[string]any{
		"quote_id":  quote.ID,
		"number":    quote.Number,
		"client_id": client.ID,
		"total":     quote.Total,
	})

	if r.indexer != nil {
		r.indexer.IndexQuote(ctx, quote)
	}

	return success(quote, fmt.Sprintf("Quote %s created for %s (EUR %.2f)", quote.Number, client.Name, quote.Total))
}

// parseLines builds line items from an explicit lines array, or
// synthesizes a single line from flat description/amount parameters.
func parseLines(params map[string]any) ([]models.LineItem, error) {
	raw, ok := params["lines"]
	if !ok {
		raw, ok = params["items"]
	}

	if ok {
		entries, isSlice := raw.([]any)
		if !isSlice {
			return nil, fmt.Errorf("lines must be an array")
		}

		lines := make([]models.LineItem, 0, len(entries))

		for _, entry := range entries {
			fields, isMap := entry.(map[string]any)
			if !isMap {
				return nil, fmt.Errorf("each line must be an object")
			}

			line, err := buildLine(fields)
			if err != nil {
				return nil, err
			}

			lines = append(lines, line)
		}

		if len(lines) == 0 {
			return nil, fmt.Errorf("at least one line item is required")
		}

		return lines, nil
	}

	// Flat form: description + amount (or quantity x rate).
	line, err := buildLine(params)
	if err != nil {
		return nil, err
	}

	return []models.LineItem{line}, nil
}

func buildLine(fields map[string]any) (models.LineItem, error) {
	description := getString(fields, "description", "omschrijving")
	if description == "" {
		return models.LineItem{}, fmt.Errorf("line description is required")
	}

	quantity := getFloat(fields, "quantity", "qty", "hours")
	if quantity == 0 {
		quantity = 1
	}

	rate := getFloat(fields, "rate", "price", "unitPrice", "unit_price")
	amount := getFloat(fields, "amount", "total")

	if amount == 0 {
		amount = quantity * rate
	}

	if rate == 0 && quantity != 0 {
		rate = amount / quantity
	}

	if amount <= 0 {
		return models.LineItem{}, fmt.Errorf("line %q needs an amount or a rate", description)
	}

	return models.LineItem{
		Description: description,
		Quantity:    quantity,
		Rate:        rate,
		Amount:      amount,
	}, nil
}
