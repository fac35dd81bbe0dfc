// Package models defines the core domain models for back-office automations.
package models

import "time"

// AutomationCategory scopes an automation to one kind of business record.
type AutomationCategory string

const (
	CategoryInvoice   AutomationCategory = "invoice"
	CategoryQuote     AutomationCategory = "quote"
	CategoryTime      AutomationCategory = "time"
	CategoryEmail     AutomationCategory = "email"
	CategoryCalendar  AutomationCategory = "calendar"
	CategoryKilometer AutomationCategory = "kilometer"
)

// TriggerType determines how an automation is started.
type TriggerType string

const (
	TriggerSchedule TriggerType = "schedule"
	TriggerEvent    TriggerType = "event"
)

// Action types understood by the engine's action registry.
const (
	ActionSendEmail            = "send_email"
	ActionSendWhatsApp         = "send_whatsapp"
	ActionSendNotification     = "send_notification"
	ActionCreateInvoice        = "create_invoice"
	ActionCreateQuote          = "create_quote"
	ActionCreateTimeEntry      = "create_time_entry"
	ActionCreateKilometerEntry = "create_kilometer_entry"
	ActionCreateCalendarEvent  = "create_calendar_event"
	ActionUpdateInvoice        = "update_invoice"
)

// ActionItem is one step of an automation's ordered action list.
type ActionItem struct {
	Type   string         `json:"type"   validate:"required"`
	Config map[string]any `json:"config"`
}

// TriggerConfig describes when an automation fires. For schedule triggers
// Schedule and Time are set; for event triggers only Event is set.
type TriggerConfig struct {
	Schedule string `json:"schedule,omitempty"` // daily | weekly | monthly
	Time     string `json:"time,omitempty"`     // "HH:MM", 24h
	Event    string `json:"event,omitempty"`    // "<domain>.<verb>", e.g. "invoice.paid"
}

// Automation is a user-owned rule: a trigger, an optional condition gate
// and an ordered action list. Runtime counters are mutated only by the
// engine or by explicit enable/disable.
type Automation struct {
	ID        string             `json:"id"`
	UserID    string             `json:"user_id"  validate:"required"`
	Name      string             `json:"name"     validate:"required,min=3"`
	Category  AutomationCategory `json:"category" validate:"required,oneof=invoice quote time email calendar kilometer"`
	Enabled   bool               `json:"enabled"`
	IsDefault bool               `json:"is_default"`

	TriggerType   TriggerType    `json:"trigger_type" validate:"required,oneof=schedule event"`
	TriggerConfig TriggerConfig  `json:"trigger_config"`
	Conditions    map[string]any `json:"conditions,omitempty"`
	Actions       []ActionItem   `json:"actions" validate:"required,min=1,dive"`

	LastRunAt    *time.Time `json:"last_run_at,omitempty"`
	NextRunAt    *time.Time `json:"next_run_at,omitempty"`
	RunCount     int        `json:"run_count"`
	SuccessCount int        `json:"success_count"`
	ErrorCount   int        `json:"error_count"`
	LastError    string     `json:"last_error,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RunStatus is the outcome of a single engine invocation of an automation.
type RunStatus string

const (
	RunSuccess RunStatus = "success"
	RunError   RunStatus = "error"
	RunSkipped RunStatus = "skipped"
)

// AutomationRun is the append-only record of one engine invocation,
// including skips. Never mutated after creation.
type AutomationRun struct {
	ID           string `json:"id"`
	AutomationID string `json:"automation_id" validate:"required"`

	Status         RunStatus      `json:"status"`
	ItemsProcessed int            `json:"items_processed"`
	ItemsSucceeded int            `json:"items_succeeded"`
	ItemsFailed    int            `json:"items_failed"`
	TriggerData    map[string]any `json:"trigger_data,omitempty"`
	ResultData     map[string]any `json:"result_data,omitempty"`
	ErrorMessage   string         `json:"error_message,omitempty"`

	ExecutionTimeMS int64     `json:"execution_time_ms"`
	StartedAt       time.Time `json:"started_at"`
	CompletedAt     time.Time `json:"completed_at"`
}
