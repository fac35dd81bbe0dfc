package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/zzpkit/zzpkit/pkg/models"
	"github.com/zzpkit/zzpkit/pkg/persistence"
)

// Business records share one JSONB table; queries narrow by user and
// record type in SQL, then apply the shared filter predicates in memory.
// For the target scale (one tenant's records per query) that keeps the
// SQL surface small at acceptable cost.

const (
	recordClient        = "client"
	recordInvoice       = "invoice"
	recordQuote         = "quote"
	recordTimeEntry     = "time_entry"
	recordKilometer     = "kilometer_entry"
	recordProject       = "project"
	recordConversation  = "conversation"
	recordCalendarEvent = "calendar_event"
)

func listRecords[T any](ctx context.Context, db *sql.DB, userID, recordType string) ([]*T, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT data FROM records
		WHERE user_id = $1 AND record_type = $2
		ORDER BY created_at DESC`,
		userID, recordType)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s records: %w", recordType, err)
	}

	defer func() { _ = rows.Close() }()

	records := make([]*T, 0)

	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", recordType, err)
		}

		var record T
		if err := json.Unmarshal(data, &record); err != nil {
			return nil, fmt.Errorf("failed to unmarshal %s row: %w", recordType, err)
		}

		records = append(records, &record)
	}

	return records, rows.Err()
}

func getRecord[T any](ctx context.Context, db *sql.DB, userID, recordType, id string) (*T, error) {
	var data []byte

	err := db.QueryRowContext(ctx,
		`SELECT data FROM records WHERE id = $1 AND user_id = $2 AND record_type = $3`,
		id, userID, recordType).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, persistence.NotFoundError(recordType, id)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to query %s %s: %w", recordType, id, err)
	}

	var record T
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s %s: %w", recordType, id, err)
	}

	return &record, nil
}

func saveRecord(ctx context.Context, db *sql.DB, userID, recordType, id string, record any, createdAt time.Time) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal %s %s: %w", recordType, id, err)
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO records (id, user_id, record_type, created_at, data)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data`,
		id, userID, recordType, createdAt, data)
	if err != nil {
		return fmt.Errorf("failed to save %s %s: %w", recordType, id, err)
	}

	return nil
}

func deleteRecord(ctx context.Context, db *sql.DB, userID, recordType, id string) error {
	result, err := db.ExecContext(ctx,
		`DELETE FROM records WHERE id = $1 AND user_id = $2 AND record_type = $3`,
		id, userID, recordType)
	if err != nil {
		return fmt.Errorf("failed to delete %s %s: %w", recordType, id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}

	if affected == 0 {
		return persistence.NotFoundError(recordType, id)
	}

	return nil
}

type ClientRepository struct {
	db *sql.DB
}

func (r *ClientRepository) GetByID(ctx context.Context, userID, id string) (*models.Client, error) {
	return getRecord[models.Client](ctx, r.db, userID, recordClient, id)
}

func (r *ClientRepository) List(ctx context.Context, userID string) ([]*models.Client, error) {
	clients, err := listRecords[models.Client](ctx, r.db, userID, recordClient)
	if err != nil {
		return nil, err
	}

	sort.Slice(clients, func(i, j int) bool { return clients[i].Name < clients[j].Name })

	return clients, nil
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

func (r *ClientRepository) Save(ctx context.Context, client *models.Client) error {
	return saveRecord(ctx, r.db, client.UserID, recordClient, client.ID, client, client.CreatedAt)
}

func (r *ClientRepository) Delete(ctx context.Context, userID, id string) error {
	return deleteRecord(ctx, r.db, userID, recordClient, id)
}

type InvoiceRepository struct {
	db *sql.DB
}

func (r *InvoiceRepository) GetByID(ctx context.Context, userID, id string) (*models.Invoice, error) {
	return getRecord[models.Invoice](ctx, r.db, userID, recordInvoice, id)
}

func (r *InvoiceRepository) List(ctx context.Context, userID string, filter persistence.InvoiceFilter) ([]*models.Invoice, int, error) {
	all, err := listRecords[models.Invoice](ctx, r.db, userID, recordInvoice)
	if err != nil {
		return nil, 0, err
	}

	now := time.Now()
	matches := make([]*models.Invoice, 0)

	for _, inv := range all {
		if filter.Matches(inv, now) {
			matches = append(matches, inv)
		}
	}

	total := len(matches)
	start, end := persistence.Page(filter.Page, filter.Limit, total)

	return matches[start:end], total, nil
}

func (r *InvoiceRepository) CountForYear(ctx context.Context, userID string, year int) (int, error) {
	var count int

	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM records
		WHERE user_id = $1 AND record_type = $2
		  AND created_at >= $3 AND created_at < $4`,
		userID, recordInvoice,
		time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(year+1, 1, 1, 0, 0, 0, 0, time.UTC)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count invoices for %d: %w", year, err)
	}

	return count, nil
}

func (r *InvoiceRepository) Save(ctx context.Context, invoice *models.Invoice) error {
	return saveRecord(ctx, r.db, invoice.UserID, recordInvoice, invoice.ID, invoice, invoice.CreatedAt)
}

type QuoteRepository struct {
	db *sql.DB
}

func (r *QuoteRepository) GetByID(ctx context.Context, userID, id string) (*models.Quote, error) {
	return getRecord[models.Quote](ctx, r.db, userID, recordQuote, id)
}

func (r *QuoteRepository) List(ctx context.Context, userID string, filter persistence.QuoteFilter) ([]*models.Quote, int, error) {
	all, err := listRecords[models.Quote](ctx, r.db, userID, recordQuote)
	if err != nil {
		return nil, 0, err
	}

	now := time.Now()
	matches := make([]*models.Quote, 0)

	for _, q := range all {
		if filter.Matches(q, now) {
			matches = append(matches, q)
		}
	}

	total := len(matches)
	start, end := persistence.Page(filter.Page, filter.Limit, total)

	return matches[start:end], total, nil
}

func (r *QuoteRepository) CountForYear(ctx context.Context, userID string, year int) (int, error) {
	var count int

	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM records
		WHERE user_id = $1 AND record_type = $2
		  AND created_at >= $3 AND created_at < $4`,
		userID, recordQuote,
		time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(year+1, 1, 1, 0, 0, 0, 0, time.UTC)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count quotes for %d: %w", year, err)
	}

	return count, nil
}

func (r *QuoteRepository) Save(ctx context.Context, quote *models.Quote) error {
	return saveRecord(ctx, r.db, quote.UserID, recordQuote, quote.ID, quote, quote.CreatedAt)
}

type TimeEntryRepository struct {
	db *sql.DB
}

func (r *TimeEntryRepository) List(ctx context.Context, userID string, filter persistence.TimeEntryFilter) ([]*models.TimeEntry, error) {
	all, err := listRecords[models.TimeEntry](ctx, r.db, userID, recordTimeEntry)
	if err != nil {
		return nil, err
	}

	matches := make([]*models.TimeEntry, 0)

	for _, e := range all {
		if filter.Matches(e) {
			matches = append(matches, e)
		}
	}

	sort.Slice(matches, func(i, j int) bool { return matches[i].Date.After(matches[j].Date) })

	if filter.Limit > 0 && len(matches) > filter.Limit {
		matches = matches[:filter.Limit]
	}

	return matches, nil
}

func (r *TimeEntryRepository) Save(ctx context.Context, entry *models.TimeEntry) error {
	return saveRecord(ctx, r.db, entry.UserID, recordTimeEntry, entry.ID, entry, entry.CreatedAt)
}

type KilometerRepository struct {
	db *sql.DB
}

func (r *KilometerRepository) List(ctx context.Context, userID string, limit int) ([]*models.KilometerEntry, error) {
	all, err := listRecords[models.KilometerEntry](ctx, r.db, userID, recordKilometer)
	if err != nil {
		return nil, err
	}

	sort.Slice(all, func(i, j int) bool { return all[i].Date.After(all[j].Date) })

	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}

	return all, nil
}

func (r *KilometerRepository) Save(ctx context.Context, entry *models.KilometerEntry) error {
	return saveRecord(ctx, r.db, entry.UserID, recordKilometer, entry.ID, entry, entry.CreatedAt)
}

type ProjectRepository struct {
	db *sql.DB
}

func (r *ProjectRepository) GetByID(ctx context.Context, userID, id string) (*models.Project, error) {
	return getRecord[models.Project](ctx, r.db, userID, recordProject, id)
}

func (r *ProjectRepository) List(ctx context.Context, userID string) ([]*models.Project, error) {
	projects, err := listRecords[models.Project](ctx, r.db, userID, recordProject)
	if err != nil {
		return nil, err
	}

	sort.Slice(projects, func(i, j int) bool { return projects[i].Name < projects[j].Name })

	return projects, nil
}

func (r *ProjectRepository) Save(ctx context.Context, project *models.Project) error {
	return saveRecord(ctx, r.db, project.UserID, recordProject, project.ID, project, project.CreatedAt)
}

type ConversationRepository struct {
	db *sql.DB
}

func (r *ConversationRepository) ListRecent(ctx context.Context, userID string, limit int) ([]*models.Conversation, error) {
	all, err := listRecords[models.Conversation](ctx, r.db, userID, recordConversation)
	if err != nil {
		return nil, err
	}

	sort.Slice(all, func(i, j int) bool { return all[i].UpdatedAt.After(all[j].UpdatedAt) })

	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}

	return all, nil
}

func (r *ConversationRepository) Save(ctx context.Context, conversation *models.Conversation) error {
	return saveRecord(ctx, r.db, conversation.UserID, recordConversation, conversation.ID, conversation, conversation.CreatedAt)
}

type CalendarEventRepository struct {
	db *sql.DB
}

func (r *CalendarEventRepository) List(ctx context.Context, userID string) ([]*models.CalendarEvent, error) {
	events, err := listRecords[models.CalendarEvent](ctx, r.db, userID, recordCalendarEvent)
	if err != nil {
		return nil, err
	}

	sort.Slice(events, func(i, j int) bool { return events[i].StartsAt.Before(events[j].StartsAt) })

	return events, nil
}

func (r *CalendarEventRepository) Save(ctx context.Context, event *models.CalendarEvent) error {
	return saveRecord(ctx, r.db, event.UserID, recordCalendarEvent, event.ID, event, event.CreatedAt)
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
