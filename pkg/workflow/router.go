// Package workflow routes named actions from AI tool calls and
// automation steps to their handlers. Every call returns a uniform
// envelope; errors and panics never escape the router.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/zzpkit/zzpkit/pkg/eventbus"
	"github.com/zzpkit/zzpkit/pkg/events"
	"github.com/zzpkit/zzpkit/pkg/indexer"
	"github.com/zzpkit/zzpkit/pkg/models"
	"github.com/zzpkit/zzpkit/pkg/persistence"
	"github.com/zzpkit/zzpkit/pkg/retriever"
)

// ErrNoUser is returned when neither the workflow context nor the
// parameters identify the acting user.
var ErrNoUser = errors.New("no user in workflow context")

// Envelope is the uniform result of every routed action.
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

func failure(err string) Envelope {
	return Envelope{Success: false, Error: err}
}

func success(data any, message string) Envelope {
	return Envelope{Success: true, Data: data, Message: message}
}

type handlerFunc func(ctx context.Context, userID string, params map[string]any) Envelope

// Router dispatches workflow actions case-insensitively, with aliases
// for the naming variants different AI models produce.
type Router struct {
	persistence persistence.Persistence
	retriever   *retriever.Retriever
	indexer     *indexer.Indexer
	publisher   eventbus.EventPublisher
	validate    *validator.Validate
	logger      *slog.Logger
	handlers    map[string]handlerFunc

	// now is injectable for numbering and validity-window tests.
	now func() time.Time
}

func NewRouter(
	p persistence.Persistence,
	r *retriever.Retriever,
	ix *indexer.Indexer,
	publisher eventbus.EventPublisher,
	logger *slog.Logger,
) *Router {
	router := &Router{
		persistence: p,
		retriever:   r,
		indexer:     ix,
		publisher:   publisher,
		validate:    validator.New(),
		logger:      logger.With("module", "workflow"),
		now:         time.Now,
	}

	router.handlers = map[string]handlerFunc{
		"create_invoice":        router.createInvoice,
		"invoice.create":        router.createInvoice,
		"update_invoice":        router.updateInvoice,
		"invoice.update":        router.updateInvoice,
		"create_quote":          router.createQuote,
		"quote.create":          router.createQuote,
		"add_time_entry":        router.addTimeEntry,
		"create_time_entry":     router.addTimeEntry,
		"time_entry.create":     router.addTimeEntry,
		"add_kilometer":         router.addKilometerEntry,
		"add_kilometer_entry":   router.addKilometerEntry,
		"kilometer.create":      router.addKilometerEntry,
		"create_calendar_event": router.createCalendarEvent,
		"calendar.create":       router.createCalendarEvent,
		"search_contacts":       router.searchContacts,
		"search_clients":        router.searchContacts,
		"contacts.search":       router.searchContacts,
		"get_invoices":          router.getInvoices,
		"invoices.list":         router.getInvoices,
		"get_quotes":            router.getQuotes,
		"quotes.list":           router.getQuotes,
		"ai_intent":             router.aiIntent,
		"context_search":        router.contextSearch,
	}

	return router
}

// ResolveUserID picks the acting user: a service-account binding wins,
// then the explicitly requested user, then the context's own user.
func ResolveUserID(wctx models.WorkflowContext, requested string) (string, error) {
	if wctx.ServiceAccountID != "" && wctx.UserID != "" {
		return wctx.UserID, nil
	}

	if requested != "" {
		return requested, nil
	}

	if wctx.UserID != "" {
		return wctx.UserID, nil
	}

	return "", ErrNoUser
}

// Known reports whether the action name (or one of its aliases)
// resolves to a handler.
func (r *Router) Known(action string) bool {
	_, ok := r.handlers[strings.ToLower(strings.TrimSpace(action))]

	return ok
}

// Route executes the named action for the context's user. Unknown
// actions and panics come back as failed envelopes, never as errors.
func (r *Router) Route(ctx context.Context, action string, params map[string]any, wctx models.WorkflowContext) (env Envelope) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("Workflow action panicked", "action", action, "panic", rec)

			env = failure("internal error")
		}
	}()

	if params == nil {
		params = map[string]any{}
	}

	normalized := strings.ToLower(strings.TrimSpace(action))

	handler, ok := r.handlers[normalized]
	if !ok {
		r.logger.Warn("Unknown workflow action", "action", action)

		return failure(fmt.Sprintf("Unknown action: %s", action))
	}

	if !wctx.HasPermission(normalized) {
		r.logger.Warn("Workflow action denied",
			"action", normalized,
			"service_account_id", wctx.ServiceAccountID)

		return failure("Permission denied")
	}

	userID, err := ResolveUserID(wctx, getString(params, "userId", "user_id"))
	if err != nil {
		return failure(err.Error())
	}

	r.logger.Debug("Routing workflow action", "action", normalized, "user_id", userID)

	return handler(ctx, userID, params)
}

func (r *Router) publish(ctx context.Context, eventType events.EventType, userID string, data map[string]any) {
	if r.publisher == nil {
		return
	}

	event := events.NewDomainEvent(eventType, userID, data)
	if err := r.publisher.Publish(ctx, event); err != nil {
		r.logger.Warn("Failed to publish domain event", "type", eventType, "error", err)
	}
}
