// Package indexer renders business entities to text summaries and
// feeds them into the vector store. Indexing is a best-effort side
// channel: failures are logged and never surface to the caller, so
// entity creation is never blocked on the embedding pipeline.
package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/zzpkit/zzpkit/pkg/models"
	"github.com/zzpkit/zzpkit/pkg/persistence"
	"github.com/zzpkit/zzpkit/pkg/vectorstore"
)

const (
	// clientPreviewLimit bounds the recent invoice/quote preview embedded
	// in a client's summary so a busy client's document stays small.
	clientPreviewLimit = 3

	// backfillConversationLimit bounds how far back IndexAllUserData
	// reaches into the conversation history.
	backfillConversationLimit = 100
)

// Indexer writes entity summaries into the vector store.
type Indexer struct {
	persistence persistence.Persistence
	store       vectorstore.Store
	logger      *slog.Logger
}

func NewIndexer(p persistence.Persistence, store vectorstore.Store, logger *slog.Logger) *Indexer {
	return &Indexer{
		persistence: p,
		store:       store,
		logger:      logger.With("module", "indexer"),
	}
}

// IndexClient renders the client plus a bounded preview of its most
// recent invoices and quotes. Failures are logged, never returned.
func (ix *Indexer) IndexClient(ctx context.Context, client *models.Client) {
	content := ix.renderClient(ctx, client)

	ix.index(ctx, client.UserID, vectorstore.Document{
		EntityType: models.EntityClient,
		EntityID:   client.ID,
		Content:    content,
		Metadata:   map[string]any{"name": client.Name, "company": client.Company},
	})
}

func (ix *Indexer) IndexInvoice(ctx context.Context, invoice *models.Invoice) {
	ix.index(ctx, invoice.UserID, vectorstore.Document{
		EntityType: models.EntityInvoice,
		EntityID:   invoice.ID,
		Content:    renderInvoice(invoice),
		Metadata:   map[string]any{"number": invoice.Number, "status": string(invoice.Status), "total": invoice.Total},
	})
}

func (ix *Indexer) IndexQuote(ctx context.Context, quote *models.Quote) {
	ix.index(ctx, quote.UserID, vectorstore.Document{
		EntityType: models.EntityQuote,
		EntityID:   quote.ID,
		Content:    renderQuote(quote),
		Metadata:   map[string]any{"number": quote.Number, "status": string(quote.Status), "total": quote.Total},
	})
}

func (ix *Indexer) IndexProject(ctx context.Context, project *models.Project) {
	ix.index(ctx, project.UserID, vectorstore.Document{
		EntityType: models.EntityProject,
		EntityID:   project.ID,
		Content:    renderProject(project),
		Metadata:   map[string]any{"name": project.Name, "status": project.Status},
	})
}

func (ix *Indexer) IndexConversation(ctx context.Context, conversation *models.Conversation) {
	ix.index(ctx, conversation.UserID, vectorstore.Document{
		EntityType: models.EntityConversation,
		EntityID:   conversation.ID,
		Content:    renderConversation(conversation),
		Metadata:   map[string]any{"channel": conversation.Channel, "contact": conversation.ContactName},
	})
}

// DeleteEntity removes the entity's embeddings. Called explicitly when
// the source record is deleted; there is no automatic cascade.
func (ix *Indexer) DeleteEntity(ctx context.Context, userID, entityType, entityID string) {
	if err := ix.store.DeleteEntity(ctx, userID, entityType, entityID); err != nil {
		ix.logger.Error("Failed to delete embeddings",
			"user_id", userID,
			"entity_type", entityType,
			"entity_id", entityID,
			"error", err)
	}
}

// IndexAllUserData re-indexes everything the user owns, sequentially:
// clients, invoices, quotes, projects, then the last 100 conversations.
// Intended for cold-start backfill, not steady-state use.
func (ix *Indexer) IndexAllUserData(ctx context.Context, userID string) error {
	started := time.Now()

	ix.logger.Info("Starting full re-index", "user_id", userID)

	clients, err := ix.persistence.Clients().List(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to list clients: %w", err)
	}

	for _, client := range clients {
		ix.IndexClient(ctx, client)
	}

	invoiceCount := 0

	for page := 1; ; page++ {
		invoices, total, err := ix.persistence.Invoices().List(ctx, userID,
			persistence.InvoiceFilter{Page: page, Limit: persistence.MaxPageSize})
		if err != nil {
			return fmt.Errorf("failed to list invoices: %w", err)
		}

		for _, invoice := range invoices {
			ix.IndexInvoice(ctx, invoice)
		}

		invoiceCount += len(invoices)
		if invoiceCount >= total || len(invoices) == 0 {
			break
		}
	}

	quoteCount := 0

	for page := 1; ; page++ {
		quotes, total, err := ix.persistence.Quotes().List(ctx, userID,
			persistence.QuoteFilter{Page: page, Limit: persistence.MaxPageSize})
		if err != nil {
			return fmt.Errorf("failed to list quotes: %w", err)
		}

		for _, quote := range quotes {
			ix.IndexQuote(ctx, quote)
		}

		quoteCount += len(quotes)
		if quoteCount >= total || len(quotes) == 0 {
			break
		}
	}

	projects, err := ix.persistence.Projects().List(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to list projects: %w", err)
	}

	for _, project := range projects {
		ix.IndexProject(ctx, project)
	}

	conversations, err := ix.persistence.Conversations().ListRecent(ctx, userID, backfillConversationLimit)
	if err != nil {
		return fmt.Errorf("failed to list conversations: %w", err)
	}

	for _, conversation := range conversations {
		ix.IndexConversation(ctx, conversation)
	}

	ix.logger.Info("Full re-index complete",
		"user_id", userID,
		"clients", len(clients),
		"invoices", invoiceCount,
		"quotes", quoteCount,
		"projects", len(projects),
		"conversations", len(conversations),
		"duration", time.Since(started))

	return nil
}

func (ix *Indexer) index(ctx context.Context, userID string, doc vectorstore.Document) {
	if err := ix.store.Upsert(ctx, userID, doc, 0); err != nil {
		ix.logger.Error("Failed to index entity",
			"user_id", userID,
			"entity_type", doc.EntityType,
			"entity_id", doc.EntityID,
			"error", err)
	}
}

func (ix *Indexer) renderClient(ctx context.Context, client *models.Client) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Client: %s\n", client.Name)

	if client.Company != "" {
		fmt.Fprintf(&b, "Company: %s\n", client.Company)
	}

	if client.Email != "" {
		fmt.Fprintf(&b, "Email: %s\n", client.Email)
	}

	if client.Phone != "" {
		fmt.Fprintf(&b, "Phone: %s\n", client.Phone)
	}

	if client.Address != "" {
		fmt.Fprintf(&b, "Address: %s\n", client.Address)
	}

	// Bounded preview of recent activity. Lookup failures degrade the
	// summary instead of failing the index call.
	invoices, _, err := ix.persistence.Invoices().List(ctx, client.UserID,
		persistence.InvoiceFilter{ClientID: client.ID, Limit: clientPreviewLimit})
	if err != nil {
		ix.logger.Warn("Skipping invoice preview for client", "client_id", client.ID, "error", err)
	}

	if len(invoices) > 0 {
		b.WriteString("Recent invoices:\n")

		for _, invoice := range invoices {
			fmt.Fprintf(&b, "- %s: EUR %.2f (%s)\n", invoice.Number, invoice.Total, invoice.Status)
		}
	}

	quotes, _, err := ix.persistence.Quotes().List(ctx, client.UserID,
		persistence.QuoteFilter{ClientID: client.ID, Limit: clientPreviewLimit})
	if err != nil {
		ix.logger.Warn("Skipping quote preview for client", "client_id", client.ID, "error", err)
	}

	if len(quotes) > 0 {
		b.WriteString("Recent quotes:\n")

		for _, quote := range quotes {
			fmt.Fprintf(&b, "- %s: EUR %.2f (%s)\n", quote.Number, quote.Total, quote.Status)
		}
	}

	return strings.TrimRight(b.String(), "\n")
}

func renderInvoice(invoice *models.Invoice) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Invoice %s\n", invoice.Number)
	fmt.Fprintf(&b, "Status: %s\n", invoice.Status)
	fmt.Fprintf(&b, "Total: EUR %.2f (subtotal %.2f, %.0f%% VAT)\n", invoice.Total, invoice.Subtotal, invoice.TaxRate)

	if invoice.DueDate != nil {
		fmt.Fprintf(&b, "Due: %s\n", invoice.DueDate.Format("2006-01-02"))
	}

	for _, line := range invoice.Lines {
		fmt.Fprintf(&b, "- %s: %.2f x EUR %.2f = EUR %.2f\n", line.Description, line.Quantity, line.Rate, line.Amount)
	}

	if invoice.Notes != "" {
		fmt.Fprintf(&b, "Notes: %s\n", invoice.Notes)
	}

	return strings.TrimRight(b.String(), "\n")
}

func renderQuote(quote *models.Quote) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Quote %s\n", quote.Number)
	fmt.Fprintf(&b, "Status: %s\n", quote.Status)
	fmt.Fprintf(&b, "Total: EUR %.2f (subtotal %.2f, %.0f%% VAT)\n", quote.Total, quote.Subtotal, quote.TaxRate)
	fmt.Fprintf(&b, "Valid until: %s\n", quote.ValidUntil.Format("2006-01-02"))

	for _, line := range quote.Lines {
		fmt.Fprintf(&b, "- %s: %.2f x EUR %.2f = EUR %.2f\n", line.Description, line.Quantity, line.Rate, line.Amount)
	}

	if quote.Notes != "" {
		fmt.Fprintf(&b, "Notes: %s\n", quote.Notes)
	}

	return strings.TrimRight(b.String(), "\n")
}

func renderProject(project *models.Project) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Project: %s\n", project.Name)

	if project.Status != "" {
		fmt.Fprintf(&b, "Status: %s\n", project.Status)
	}

	if project.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", project.Description)
	}

	if project.HourlyRate > 0 {
		fmt.Fprintf(&b, "Hourly rate: EUR %.2f\n", project.HourlyRate)
	}

	return strings.TrimRight(b.String(), "\n")
}

func renderConversation(conversation *models.Conversation) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Conversation via %s", conversation.Channel)

	if conversation.ContactName != "" {
		fmt.Fprintf(&b, " with %s", conversation.ContactName)
	}

	b.WriteString("\n")

	if conversation.Subject != "" {
		fmt.Fprintf(&b, "Subject: %s\n", conversation.Subject)
	}

	if conversation.LastMessage != "" {
		fmt.Fprintf(&b, "Last message: %s\n", conversation.LastMessage)
	}

	return strings.TrimRight(b.String(), "\n")
}
