// Package actions holds the registry of action handlers an automation's
// action list can reference. Handlers receive the automation's user,
// the current target item and the trigger payload, and template their
// config against those bindings.
package actions

import (
	"context"
	"errors"
	"log/slog"
	"sort"

	"github.com/zzpkit/zzpkit/pkg/models"
)

// ErrUnknownAction marks action types with no registered handler.
// Save-time validation wraps it; at run time the engine logs unknown
// types and continues.
var ErrUnknownAction = errors.New("unknown action type")

// ExecutionContext carries the data one action executes against.
type ExecutionContext struct {
	UserID     string
	Automation *models.Automation

	// Item is the current target record as a map, nil for automations
	// without target items.
	Item map[string]any

	// Event is the trigger payload for event-triggered runs.
	Event map[string]any
}

// Handler executes one configured action.
type Handler interface {
	Execute(ctx context.Context, execCtx ExecutionContext, config map[string]any) (map[string]any, error)
}

// Registry maps action types to handlers.
type Registry struct {
	logger   *slog.Logger
	handlers map[string]Handler
}

func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		logger:   logger.With("module", "actions"),
		handlers: make(map[string]Handler),
	}
}

func (r *Registry) Register(actionType string, handler Handler) {
	r.handlers[actionType] = handler
}

func (r *Registry) Get(actionType string) (Handler, bool) {
	handler, ok := r.handlers[actionType]

	return handler, ok
}

// Has reports whether the action type is registered; used by save-time
// validation so automations cannot reference unknown actions.
func (r *Registry) Has(actionType string) bool {
	_, ok := r.handlers[actionType]

	return ok
}

// Types lists the registered action types, sorted.
func (r *Registry) Types() []string {
	types := make([]string, 0, len(r.handlers))
	for actionType := range r.handlers {
		types = append(types, actionType)
	}

	sort.Strings(types)

	return types
}
