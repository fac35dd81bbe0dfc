package workflow

import (
	"context"

	"github.com/zzpkit/zzpkit/pkg/models"
	"github.com/zzpkit/zzpkit/pkg/persistence"
	"github.com/zzpkit/zzpkit/pkg/retriever"
)

func (r *Router) searchContacts(ctx context.Context, userID string, params map[string]any) Envelope {
	query := getString(params, "query", "search", "name")
	page := getInt(params, "page")
	limit := getInt(params, "limit")

	clients, total, err := r.persistence.Clients().Search(ctx, userID, query, page, limit)
	if err != nil {
		r.logger.Error("Failed to search clients", "error", err)

		return failure("Failed to search contacts")
	}

	return success(map[string]any{
		"clients": clients,
		"total":   total,
	}, "")
}

func (r *Router) getInvoices(ctx context.Context, userID string, params map[string]any) Envelope {
	overdueOnly, _ := getBool(params, "overdueOnly", "overdue_only")

	filter := persistence.InvoiceFilter{
		Status:      models.InvoiceStatus(getString(params, "status")),
		ClientID:    getString(params, "clientId", "client_id"),
		Search:      getString(params, "query", "search"),
		OverdueOnly: overdueOnly,
		Page:        getInt(params, "page"),
		Limit:       getInt(params, "limit"),
	}

	invoices, total, err := r.persistence.Invoices().List(ctx, userID, filter)
	if err != nil {
		r.logger.Error("Failed to list invoices", "error", err)

		return failure("Failed to list invoices")
	}

	return success(map[string]any{
		"invoices": invoices,
		"total":    total,
	}, "")
}

func (r *Router) getQuotes(ctx context.Context, userID string, params map[string]any) Envelope {
	filter := persistence.QuoteFilter{
		Status:             models.QuoteStatus(getString(params, "status")),
		ClientID:           getString(params, "clientId", "client_id"),
		Search:             getString(params, "query", "search"),
		ExpiringWithinDays: getInt(params, "expiringWithinDays", "expiring_within_days"),
		Page:               getInt(params, "page"),
		Limit:              getInt(params, "limit"),
	}

	quotes, total, err := r.persistence.Quotes().List(ctx, userID, filter)
	if err != nil {
		r.logger.Error("Failed to list quotes", "error", err)

		return failure("Failed to list quotes")
	}

	return success(map[string]any{
		"quotes": quotes,
		"total":  total,
	}, "")
}

// aiIntent builds grounding context for an AI response using the
// keyword-narrowed retrieval path.
func (r *Router) aiIntent(ctx context.Context, userID string, params map[string]any) Envelope {
	query := getString(params, "query", "question", "message")
	if query == "" {
		return failure("query is required")
	}

	result := r.retriever.RetrieveSmartContext(ctx, userID, query, getString(params, "intent"))

	return success(map[string]any{
		"context": result.Context,
		"sources": result.Sources,
	}, "")
}

func (r *Router) contextSearch(ctx context.Context, userID string, params map[string]any) Envelope {
	query := getString(params, "query", "search")
	if query == "" {
		return failure("query is required")
	}

	result := r.retriever.RetrieveContext(ctx, userID, query, retriever.Options{
		EntityTypes:   getStringSlice(params, "entityTypes", "entity_types"),
		MaxResults:    getInt(params, "maxResults", "max_results", "limit"),
		MinSimilarity: getFloat(params, "minSimilarity", "min_similarity"),
	})

	return success(map[string]any{
		"context": result.Context,
		"sources": result.Sources,
	}, "")
}
