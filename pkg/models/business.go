package models

import "time"

// InvoiceStatus lifecycle: draft -> sent -> paid, or overdue/cancelled.
type InvoiceStatus string

const (
	InvoiceDraft     InvoiceStatus = "draft"
	InvoiceSent      InvoiceStatus = "sent"
	InvoicePaid      InvoiceStatus = "paid"
	InvoiceOverdue   InvoiceStatus = "overdue"
	InvoiceCancelled InvoiceStatus = "cancelled"
)

// QuoteStatus lifecycle: draft -> sent -> accepted/rejected/expired.
type QuoteStatus string

const (
	QuoteDraft    QuoteStatus = "draft"
	QuoteSent     QuoteStatus = "sent"
	QuoteAccepted QuoteStatus = "accepted"
	QuoteRejected QuoteStatus = "rejected"
	QuoteExpired  QuoteStatus = "expired"
)

// Client is a customer of the ZZP'er. All business records are scoped by
// the owning user; cross-tenant access is never possible through the
// repositories.
type Client struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id" validate:"required"`
	Name      string    `json:"name"    validate:"required"`
	Email     string    `json:"email,omitempty"   validate:"omitempty,email"`
	Phone     string    `json:"phone,omitempty"`
	Company   string    `json:"company,omitempty"`
	Address   string    `json:"address,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LineItem is a single billable line on an invoice or quote.
type LineItem struct {
	Description string  `json:"description" validate:"required"`
	Quantity    float64 `json:"quantity"    validate:"gt=0"`
	Rate        float64 `json:"rate"        validate:"gte=0"`
	Amount      float64 `json:"amount"      validate:"gte=0"`
}

// Invoice with computed totals. Number follows INV-<year>-<sequence>.
type Invoice struct {
	ID        string        `json:"id"`
	UserID    string        `json:"user_id"   validate:"required"`
	ClientID  string        `json:"client_id" validate:"required"`
	Number    string        `json:"number"`
	Status    InvoiceStatus `json:"status"`
	Lines     []LineItem    `json:"lines" validate:"required,min=1,dive"`
	Subtotal  float64       `json:"subtotal"`
	TaxRate   float64       `json:"tax_rate"`
	TaxAmount float64       `json:"tax_amount"`
	Total     float64       `json:"total"`
	Notes     string        `json:"notes,omitempty"`
	DueDate   *time.Time    `json:"due_date,omitempty"`
	SentAt    *time.Time    `json:"sent_at,omitempty"`
	PaidAt    *time.Time    `json:"paid_at,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// DaysOverdue reports how many whole days the invoice is past its due
// date at the given time; zero when not overdue or without a due date.
func (i *Invoice) DaysOverdue(now time.Time) int {
	if i.DueDate == nil || i.Status == InvoicePaid || i.Status == InvoiceCancelled {
		return 0
	}

	if days := int(now.Sub(*i.DueDate).Hours() / 24); days > 0 {
		return days
	}

	return 0
}

// Quote mirrors Invoice with a validity window. Number follows
// QUO-<year>-<sequence>.
type Quote struct {
	ID         string      `json:"id"`
	UserID     string      `json:"user_id"   validate:"required"`
	ClientID   string      `json:"client_id" validate:"required"`
	Number     string      `json:"number"`
	Status     QuoteStatus `json:"status"`
	Lines      []LineItem  `json:"lines" validate:"required,min=1,dive"`
	Subtotal   float64     `json:"subtotal"`
	TaxRate    float64     `json:"tax_rate"`
	TaxAmount  float64     `json:"tax_amount"`
	Total      float64     `json:"total"`
	Notes      string      `json:"notes,omitempty"`
	ValidUntil time.Time   `json:"valid_until"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

// TimeEntry is a tracked block of worked hours, optionally billable.
type TimeEntry struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"    validate:"required"`
	ProjectID   string    `json:"project_id" validate:"required"`
	ClientID    string    `json:"client_id,omitempty"`
	Description string    `json:"description,omitempty"`
	Hours       float64   `json:"hours" validate:"gt=0"`
	Date        time.Time `json:"date"`
	Billable    bool      `json:"billable"`
	Invoiced    bool      `json:"invoiced"`
	CreatedAt   time.Time `json:"created_at"`
}

// KilometerEntry is a tracked trip. Type is "zakelijk" (business) or
// "prive" (private); only business trips are deductible.
type KilometerEntry struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id" validate:"required"`
	FromLocation string    `json:"from_location" validate:"required"`
	ToLocation   string    `json:"to_location"   validate:"required"`
	Distance     float64   `json:"distance" validate:"gt=0"`
	Purpose      string    `json:"purpose"  validate:"required"`
	Type         string    `json:"type"`
	ClientID     string    `json:"client_id,omitempty"`
	ProjectID    string    `json:"project_id,omitempty"`
	IsBillable   bool      `json:"is_billable"`
	Date         time.Time `json:"date"`
	CreatedAt    time.Time `json:"created_at"`
}

// Project groups time entries under a client engagement.
type Project struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id" validate:"required"`
	ClientID    string    `json:"client_id,omitempty"`
	Name        string    `json:"name" validate:"required"`
	Description string    `json:"description,omitempty"`
	Status      string    `json:"status"`
	HourlyRate  float64   `json:"hourly_rate,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Conversation is a message thread with a contact (WhatsApp, email, chat).
type Conversation struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id" validate:"required"`
	Channel     string    `json:"channel"`
	ContactName string    `json:"contact_name,omitempty"`
	Subject     string    `json:"subject,omitempty"`
	LastMessage string    `json:"last_message,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CalendarEvent is a scheduled appointment created by automations.
type CalendarEvent struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id" validate:"required"`
	Title       string    `json:"title"   validate:"required"`
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location,omitempty"`
	StartsAt    time.Time `json:"starts_at"`
	EndsAt      time.Time `json:"ends_at"`
	CreatedAt   time.Time `json:"created_at"`
}
