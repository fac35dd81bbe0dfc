// Package web provides the HTTP surface: automation CRUD, workflow
// action routing, domain event ingestion and the internal scheduler
// trigger.
package web

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/zzpkit/zzpkit/pkg/models"
	"github.com/zzpkit/zzpkit/pkg/template"
)

// CreateAutomationRequest is the request body for creating an automation.
type CreateAutomationRequest struct {
	Name          string               `json:"name"           validate:"required,min=3"`
	Category      string               `json:"category"       validate:"required,oneof=invoice quote time email calendar kilometer"`
	TriggerType   string               `json:"trigger_type"   validate:"required,oneof=schedule event"`
	TriggerConfig models.TriggerConfig `json:"trigger_config"`
	Conditions    map[string]any       `json:"conditions,omitempty"`
	Actions       []models.ActionItem  `json:"actions" validate:"required,min=1,dive"`
	Enabled       *bool                `json:"enabled,omitempty"`
}

// UpdateAutomationRequest supports partial updates; nil fields are left
// unchanged.
type UpdateAutomationRequest struct {
	Name          *string               `json:"name,omitempty" validate:"omitempty,min=3"`
	TriggerConfig *models.TriggerConfig `json:"trigger_config,omitempty"`
	Conditions    map[string]any        `json:"conditions,omitempty"`
	Actions       []models.ActionItem   `json:"actions,omitempty" validate:"omitempty,min=1,dive"`
	Enabled       *bool                 `json:"enabled,omitempty"`
}

// WorkflowActionRequest is the request body for POST /workflow/action.
type WorkflowActionRequest struct {
	Action     string                  `json:"action" validate:"required"`
	Parameters map[string]any          `json:"parameters,omitempty"`
	Context    *models.WorkflowContext `json:"context,omitempty"`
}

// PublishEventRequest is the request body for POST /events.
type PublishEventRequest struct {
	Type   string         `json:"type"    validate:"required"`
	UserID string         `json:"user_id"`
	Data   map[string]any `json:"data,omitempty"`
}

// triggerConfigSchema constrains the trigger config shape at save time,
// so unparseable schedules never reach the engine's due-set query.
const triggerConfigSchema = `{
	"type": "object",
	"properties": {
		"schedule": {"type": "string", "enum": ["daily", "weekly", "monthly"]},
		"time": {"type": "string", "pattern": "^([01][0-9]|2[0-3]):[0-5][0-9]$"},
		"event": {"type": "string", "pattern": "^[a-z_]+\\.[a-z_]+$"}
	},
	"additionalProperties": false
}`

var compiledTriggerSchema = gojsonschema.NewStringLoader(triggerConfigSchema)

func validateTriggerConfig(triggerType models.TriggerType, config models.TriggerConfig) error {
	result, err := gojsonschema.Validate(compiledTriggerSchema, gojsonschema.NewGoLoader(config))
	if err != nil {
		return fmt.Errorf("failed to validate trigger config: %w", err)
	}

	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			details = append(details, desc.String())
		}

		return fmt.Errorf("invalid trigger config: %s", strings.Join(details, "; "))
	}

	return config.Validate(triggerType)
}

// templatedConfigKeys are action config fields that may carry Liquid
// templates; they are parse-checked at save time.
var templatedConfigKeys = []string{"subject", "body", "message", "title", "to", "description"}

func validateActionTemplates(actions []models.ActionItem) error {
	for _, action := range actions {
		for _, key := range templatedConfigKeys {
			raw, ok := action.Config[key].(string)
			if !ok {
				continue
			}

			if err := template.Validate(raw); err != nil {
				return fmt.Errorf("action %s, config %s: %w", action.Type, key, err)
			}
		}
	}

	return nil
}
