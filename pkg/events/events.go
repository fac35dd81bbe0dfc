// Package events defines the domain events that drive event-triggered
// automations.
package events

import (
	"time"

	"github.com/google/uuid"
)

// Topic is the event bus topic all domain events are published on.
const Topic = "zzpkit.domain.events"

// EventType is an opaque "<domain>.<verb>" string matched against an
// automation's trigger config by exact equality.
type EventType string

const (
	InvoiceCreated EventType = "invoice.created"
	InvoiceSent    EventType = "invoice.sent"
	InvoicePaid    EventType = "invoice.paid"
	InvoiceOverdue EventType = "invoice.overdue"

	QuoteCreated  EventType = "quote.created"
	QuoteSent     EventType = "quote.sent"
	QuoteAccepted EventType = "quote.accepted"
	QuoteExpired  EventType = "quote.expired"

	ClientCreated        EventType = "client.created"
	CalendarEventCreated EventType = "calendar.event_created"
)

// DomainEvent is the envelope carried on the bus. Data is the
// event-specific payload handed to automations as trigger data.
type DomainEvent struct {
	ID         string         `json:"id"`
	Type       EventType      `json:"type"`
	UserID     string         `json:"user_id"`
	Data       map[string]any `json:"data,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// NewDomainEvent builds an event with a fresh id and timestamp.
func NewDomainEvent(eventType EventType, userID string, data map[string]any) DomainEvent {
	return DomainEvent{
		ID:         uuid.New().String(),
		Type:       eventType,
		UserID:     userID,
		Data:       data,
		OccurredAt: time.Now().UTC(),
	}
}
