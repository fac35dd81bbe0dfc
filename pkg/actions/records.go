package actions

import (
	"context"
	"fmt"

	"github.com/zzpkit/zzpkit/pkg/models"
	"github.com/zzpkit/zzpkit/pkg/template"
	"github.com/zzpkit/zzpkit/pkg/workflow"
)

// WorkflowRunner is the slice of the workflow router record actions
// delegate to, so creation semantics (numbering, tax math, ownership
// checks, events) live in exactly one place.
type WorkflowRunner interface {
	Route(ctx context.Context, action string, params map[string]any, wctx models.WorkflowContext) workflow.Envelope
}

// RecordActionHandler executes a record mutation by delegating the
// action's config, templated against the execution context, to the
// workflow router.
type RecordActionHandler struct {
	router WorkflowRunner
	action string
}

func NewRecordActionHandler(router WorkflowRunner, action string) *RecordActionHandler {
	return &RecordActionHandler{router: router, action: action}
}

func (h *RecordActionHandler) Execute(ctx context.Context, execCtx ExecutionContext, config map[string]any) (map[string]any, error) {
	params, err := renderParams(config, execCtx)
	if err != nil {
		return nil, err
	}

	// Record mutations inherit ids from the run context when the config
	// does not set them.
	fillFromContext(params, execCtx)

	env := h.router.Route(ctx, h.action, params, models.WorkflowContext{UserID: execCtx.UserID})
	if !env.Success {
		return nil, fmt.Errorf("%s failed: %s", h.action, env.Error)
	}

	return map[string]any{"result": env.Data, "message": env.Message}, nil
}

// renderParams deep-copies the config, rendering every string value as
// a template against the execution context.
func renderParams(config map[string]any, execCtx ExecutionContext) (map[string]any, error) {
	params := make(map[string]any, len(config))

	for key, value := range config {
		rendered, err := renderValue(value, execCtx)
		if err != nil {
			return nil, fmt.Errorf("failed to render config key %s: %w", key, err)
		}

		params[key] = rendered
	}

	return params, nil
}

func renderValue(value any, execCtx ExecutionContext) (any, error) {
	switch v := value.(type) {
	case string:
		return template.Render(v, bindings(execCtx))
	case map[string]any:
		return renderParams(v, execCtx)
	case []any:
		out := make([]any, len(v))

		for i, item := range v {
			rendered, err := renderValue(item, execCtx)
			if err != nil {
				return nil, err
			}

			out[i] = rendered
		}

		return out, nil
	default:
		return value, nil
	}
}

var contextKeys = []string{"clientId", "projectId", "invoiceId"}

var contextAliases = map[string][]string{
	"clientId":  {"client_id", "clientId"},
	"projectId": {"project_id", "projectId"},
	"invoiceId": {"invoice_id", "invoiceId"},
}

func fillFromContext(params map[string]any, execCtx ExecutionContext) {
	for _, key := range contextKeys {
		if _, set := params[key]; set {
			continue
		}

		for _, source := range []map[string]any{execCtx.Item, execCtx.Event} {
			if source == nil {
				continue
			}

			if value := lookup(source, contextAliases[key]); value != "" {
				params[key] = value

				break
			}
		}
	}

	// An invoice automation's item is itself the invoice.
	if _, set := params["invoiceId"]; !set &&
		execCtx.Automation != nil && execCtx.Automation.Category == models.CategoryInvoice && execCtx.Item != nil {
		if id, ok := execCtx.Item["id"].(string); ok && id != "" {
			params["invoiceId"] = id
		}
	}
}

func lookup(source map[string]any, keys []string) string {
	for _, key := range keys {
		if value, ok := source[key].(string); ok && value != "" {
			return value
		}
	}

	return ""
}
