package file

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/zzpkit/zzpkit/pkg/models"
	"github.com/zzpkit/zzpkit/pkg/persistence"
)

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

type ClientRepository struct {
	records *collection[models.Client]
}

func (r *ClientRepository) GetByID(_ context.Context, userID, id string) (*models.Client, error) {
	c, err := r.records.get(id)
	if err != nil {
		return nil, err
	}

	if c == nil || c.UserID != userID {
		return nil, persistence.NotFoundError("client", id)
	}

	return c, nil
}

func (r *ClientRepository) List(_ context.Context, userID string) ([]*models.Client, error) {
	all, err := r.records.list()
	if err != nil {
		return nil, err
	}

	matches := make([]*models.Client, 0)

	for _, c := range all {
		if c.UserID == userID {
			matches = append(matches, c)
		}
	}

	sort.Slice(matches, func(i, j int) bool { return matches[i].Name < matches[j].Name })

	return matches, nil
}

func (r *ClientRepository) Search(ctx context.Context, userID, query string, page, limit int) ([]*models.Client, int, error) {
	all, err := r.List(ctx, userID)
	if err != nil {
		return nil, 0, err
	}

	matches := make([]*models.Client, 0)

	for _, c := range all {
		if query == "" || containsFold(c.Name, query) || containsFold(c.Email, query) || containsFold(c.Company, query) {
			matches = append(matches, c)
		}
	}

	total := len(matches)
	start, end := persistence.Page(page, limit, total)

	return matches[start:end], total, nil
}

func (r *ClientRepository) Save(_ context.Context, client *models.Client) error {
	return r.records.save(client.ID, client)
}

func (r *ClientRepository) Delete(ctx context.Context, userID, id string) error {
	if _, err := r.GetByID(ctx, userID, id); err != nil {
		return err
	}

	return r.records.delete(id)
}

type InvoiceRepository struct {
	records *collection[models.Invoice]
}

func (r *InvoiceRepository) GetByID(_ context.Context, userID, id string) (*models.Invoice, error) {
	inv, err := r.records.get(id)
	if err != nil {
		return nil, err
	}

	if inv == nil || inv.UserID != userID {
		return nil, persistence.NotFoundError("invoice", id)
	}

	return inv, nil
}

func (r *InvoiceRepository) List(_ context.Context, userID string, filter persistence.InvoiceFilter) ([]*models.Invoice, int, error) {
	all, err := r.records.list()
	if err != nil {
		return nil, 0, err
	}

	now := time.Now()
	matches := make([]*models.Invoice, 0)

	for _, inv := range all {
		if inv.UserID == userID && filter.Matches(inv, now) {
			matches = append(matches, inv)
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].CreatedAt.After(matches[j].CreatedAt)
	})

	total := len(matches)
	start, end := persistence.Page(filter.Page, filter.Limit, total)

	return matches[start:end], total, nil
}

func (r *InvoiceRepository) CountForYear(_ context.Context, userID string, year int) (int, error) {
	all, err := r.records.list()
	if err != nil {
		return 0, err
	}

	count := 0

	for _, inv := range all {
		if inv.UserID == userID && inv.CreatedAt.Year() == year {
			count++
		}
	}

	return count, nil
}

func (r *InvoiceRepository) Save(_ context.Context, invoice *models.Invoice) error {
	return r.records.save(invoice.ID, invoice)
}

type QuoteRepository struct {
	records *collection[models.Quote]
}

func (r *QuoteRepository) GetByID(_ context.Context, userID, id string) (*models.Quote, error) {
	q, err := r.records.get(id)
	if err != nil {
		return nil, err
	}

	if q == nil || q.UserID != userID {
		return nil, persistence.NotFoundError("quote", id)
	}

	return q, nil
}

func (r *QuoteRepository) List(_ context.Context, userID string, filter persistence.QuoteFilter) ([]*models.Quote, int, error) {
	all, err := r.records.list()
	if err != nil {
		return nil, 0, err
	}

	now := time.Now()
	matches := make([]*models.Quote, 0)

	for _, q := range all {
		if q.UserID == userID && filter.Matches(q, now) {
			matches = append(matches, q)
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].CreatedAt.After(matches[j].CreatedAt)
	})

	total := len(matches)
	start, end := persistence.Page(filter.Page, filter.Limit, total)

	return matches[start:end], total, nil
}

func (r *QuoteRepository) CountForYear(_ context.Context, userID string, year int) (int, error) {
	all, err := r.records.list()
	if err != nil {
		return 0, err
	}

	count := 0

	for _, q := range all {
		if q.UserID == userID && q.CreatedAt.Year() == year {
			count++
		}
	}

	return count, nil
}

func (r *QuoteRepository) Save(_ context.Context, quote *models.Quote) error {
	return r.records.save(quote.ID, quote)
}

type TimeEntryRepository struct {
	records *collection[models.TimeEntry]
}

func (r *TimeEntryRepository) List(_ context.Context, userID string, filter persistence.TimeEntryFilter) ([]*models.TimeEntry, error) {
	all, err := r.records.list()
	if err != nil {
		return nil, err
	}

	matches := make([]*models.TimeEntry, 0)

	for _, e := range all {
		if e.UserID == userID && filter.Matches(e) {
			matches = append(matches, e)
		}
	}

	sort.Slice(matches, func(i, j int) bool { return matches[i].Date.After(matches[j].Date) })

	if filter.Limit > 0 && len(matches) > filter.Limit {
		matches = matches[:filter.Limit]
	}

	return matches, nil
}

func (r *TimeEntryRepository) Save(_ context.Context, entry *models.TimeEntry) error {
	return r.records.save(entry.ID, entry)
}

type KilometerRepository struct {
	records *collection[models.KilometerEntry]
}

func (r *KilometerRepository) List(_ context.Context, userID string, limit int) ([]*models.KilometerEntry, error) {
	all, err := r.records.list()
	if err != nil {
		return nil, err
	}

	matches := make([]*models.KilometerEntry, 0)

	for _, e := range all {
		if e.UserID == userID {
			matches = append(matches, e)
		}
	}

	sort.Slice(matches, func(i, j int) bool { return matches[i].Date.After(matches[j].Date) })

	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}

	return matches, nil
}

func (r *KilometerRepository) Save(_ context.Context, entry *models.KilometerEntry) error {
	return r.records.save(entry.ID, entry)
}

type ProjectRepository struct {
	records *collection[models.Project]
}

func (r *ProjectRepository) GetByID(_ context.Context, userID, id string) (*models.Project, error) {
	p, err := r.records.get(id)
	if err != nil {
		return nil, err
	}

	if p == nil || p.UserID != userID {
		return nil, persistence.NotFoundError("project", id)
	}

	return p, nil
}

func (r *ProjectRepository) List(_ context.Context, userID string) ([]*models.Project, error) {
	all, err := r.records.list()
	if err != nil {
		return nil, err
	}

	matches := make([]*models.Project, 0)

	for _, p := range all {
		if p.UserID == userID {
			matches = append(matches, p)
		}
	}

	sort.Slice(matches, func(i, j int) bool { return matches[i].Name < matches[j].Name })

	return matches, nil
}

func (r *ProjectRepository) Save(_ context.Context, project *models.Project) error {
	return r.records.save(project.ID, project)
}

type ConversationRepository struct {
	records *collection[models.Conversation]
}

func (r *ConversationRepository) ListRecent(_ context.Context, userID string, limit int) ([]*models.Conversation, error) {
	all, err := r.records.list()
	if err != nil {
		return nil, err
	}

	matches := make([]*models.Conversation, 0)

	for _, c := range all {
		if c.UserID == userID {
			matches = append(matches, c)
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].UpdatedAt.After(matches[j].UpdatedAt)
	})

	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}

	return matches, nil
}

func (r *ConversationRepository) Save(_ context.Context, conversation *models.Conversation) error {
	return r.records.save(conversation.ID, conversation)
}

type CalendarEventRepository struct {
	records *collection[models.CalendarEvent]
}

func (r *CalendarEventRepository) List(_ context.Context, userID string) ([]*models.CalendarEvent, error) {
	all, err := r.records.list()
	if err != nil {
		return nil, err
	}

	matches := make([]*models.CalendarEvent, 0)

	for _, e := range all {
		if e.UserID == userID {
			matches = append(matches, e)
		}
	}

	sort.Slice(matches, func(i, j int) bool { return matches[i].StartsAt.Before(matches[j].StartsAt) })

	return matches, nil
}

func (r *CalendarEventRepository) Save(_ context.Context, event *models.CalendarEvent) error {
	return r.records.save(event.ID, event)
}
