package persistence

import (
	"strings"
	"time"

	"github.com/zzpkit/zzpkit/pkg/models"
)

// Shared filter predicates used by every persistence implementation so
// file and SQL backends agree on list semantics. SQL backends narrow by
// user id and record type in the query and apply the rest here.

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// InvoiceFilter selects invoices for list queries and automation
// condition checks. Zero values mean "no constraint".
type InvoiceFilter struct {
	Status         models.InvoiceStatus
	ClientID       string
	Search         string
	MinDaysOverdue int
	OverdueOnly    bool
	Page           int
	Limit          int
}

func (f InvoiceFilter) Matches(invoice *models.Invoice, now time.Time) bool {
	if f.Status != "" && invoice.Status != f.Status {
		return false
	}

	if f.ClientID != "" && invoice.ClientID != f.ClientID {
		return false
	}

	if f.Search != "" && !containsFold(invoice.Number, f.Search) && !containsFold(invoice.Notes, f.Search) {
		return false
	}

	if f.OverdueOnly && invoice.DaysOverdue(now) == 0 {
		return false
	}

	if f.MinDaysOverdue > 0 && invoice.DaysOverdue(now) < f.MinDaysOverdue {
		return false
	}

	return true
}

// QuoteFilter selects quotes for list queries and condition checks.
type QuoteFilter struct {
	Status             models.QuoteStatus
	ClientID           string
	Search             string
	ExpiringWithinDays int
	Page               int
	Limit              int
}

func (f QuoteFilter) Matches(quote *models.Quote, now time.Time) bool {
	if f.Status != "" && quote.Status != f.Status {
		return false
	}

	if f.ClientID != "" && quote.ClientID != f.ClientID {
		return false
	}

	if f.Search != "" && !containsFold(quote.Number, f.Search) && !containsFold(quote.Notes, f.Search) {
		return false
	}

	if f.ExpiringWithinDays > 0 {
		deadline := now.AddDate(0, 0, f.ExpiringWithinDays)
		if quote.ValidUntil.After(deadline) || quote.ValidUntil.Before(now) {
			return false
		}
	}

	return true
}

// TimeEntryFilter selects time entries.
type TimeEntryFilter struct {
	ProjectID    string
	UnbilledOnly bool
	Since        time.Time
	Limit        int
}

func (f TimeEntryFilter) Matches(entry *models.TimeEntry) bool {
	if f.ProjectID != "" && entry.ProjectID != f.ProjectID {
		return false
	}

	if f.UnbilledOnly && (entry.Invoiced || !entry.Billable) {
		return false
	}

	if !f.Since.IsZero() && entry.Date.Before(f.Since) {
		return false
	}

	return true
}

// Page clamps pagination values and returns the slice window for a
// result set of the given size.
func Page(page, limit, total int) (start, end int) {
	if limit <= 0 {
		limit = DefaultPageSize
	}

	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	if page < 1 {
		page = 1
	}

	start = (page - 1) * limit
	if start > total {
		start = total
	}

	end = start + limit
	if end > total {
		end = total
	}

	return start, end
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
