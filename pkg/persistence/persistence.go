// Package persistence provides the data storage abstraction for
// automations, business records and vector embeddings. Every query is
// scoped by the owning user id; tenant isolation is enforced at each
// call site, never globally.
package persistence

import (
	"context"
	"time"

	"github.com/zzpkit/zzpkit/pkg/models"
)

type Persistence interface {
	Automations() AutomationRepository
	Runs() RunRepository
	Clients() ClientRepository
	Invoices() InvoiceRepository
	Quotes() QuoteRepository
	TimeEntries() TimeEntryRepository
	Kilometers() KilometerRepository
	Projects() ProjectRepository
	Conversations() ConversationRepository
	CalendarEvents() CalendarEventRepository
	Embeddings() EmbeddingRepository

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}

type AutomationRepository interface {
	// ListDue returns enabled schedule-triggered automations whose next
	// run is at or before now, or has never been computed.
	ListDue(ctx context.Context, now time.Time) ([]*models.Automation, error)

	// ListEventTriggered returns the user's enabled event-triggered
	// automations; event matching happens in the engine.
	ListEventTriggered(ctx context.Context, userID string) ([]*models.Automation, error)

	ListByUser(ctx context.Context, userID string) ([]*models.Automation, error)
	GetByID(ctx context.Context, userID, id string) (*models.Automation, error)
	Save(ctx context.Context, automation *models.Automation) error
	Delete(ctx context.Context, userID, id string) error
}

type RunRepository interface {
	Create(ctx context.Context, run *models.AutomationRun) error
	ListByAutomation(ctx context.Context, automationID string, limit int) ([]*models.AutomationRun, error)
}

type ClientRepository interface {
	GetByID(ctx context.Context, userID, id string) (*models.Client, error)
	List(ctx context.Context, userID string) ([]*models.Client, error)
	Search(ctx context.Context, userID, query string, page, limit int) ([]*models.Client, int, error)
	Save(ctx context.Context, client *models.Client) error
	Delete(ctx context.Context, userID, id string) error
}

type InvoiceRepository interface {
	GetByID(ctx context.Context, userID, id string) (*models.Invoice, error)
	List(ctx context.Context, userID string, filter InvoiceFilter) ([]*models.Invoice, int, error)

	// CountForYear counts the user's invoices created in the given year,
	// used for sequence numbering. The count-then-insert is not atomic;
	// concurrent creations can collide (known numbering gap).
	CountForYear(ctx context.Context, userID string, year int) (int, error)

	Save(ctx context.Context, invoice *models.Invoice) error
}

type QuoteRepository interface {
	GetByID(ctx context.Context, userID, id string) (*models.Quote, error)
	List(ctx context.Context, userID string, filter QuoteFilter) ([]*models.Quote, int, error)
	CountForYear(ctx context.Context, userID string, year int) (int, error)
	Save(ctx context.Context, quote *models.Quote) error
}

type TimeEntryRepository interface {
	List(ctx context.Context, userID string, filter TimeEntryFilter) ([]*models.TimeEntry, error)
	Save(ctx context.Context, entry *models.TimeEntry) error
}

type KilometerRepository interface {
	List(ctx context.Context, userID string, limit int) ([]*models.KilometerEntry, error)
	Save(ctx context.Context, entry *models.KilometerEntry) error
}

type ProjectRepository interface {
	GetByID(ctx context.Context, userID, id string) (*models.Project, error)
	List(ctx context.Context, userID string) ([]*models.Project, error)
	Save(ctx context.Context, project *models.Project) error
}

type ConversationRepository interface {
	ListRecent(ctx context.Context, userID string, limit int) ([]*models.Conversation, error)
	Save(ctx context.Context, conversation *models.Conversation) error
}

type CalendarEventRepository interface {
	List(ctx context.Context, userID string) ([]*models.CalendarEvent, error)
	Save(ctx context.Context, event *models.CalendarEvent) error
}

type EmbeddingRepository interface {
	// Upsert stores the embedding keyed on
	// (user, entity type, entity id, chunk index); re-indexing the same
	// entity overwrites in place and never accumulates duplicates.
	Upsert(ctx context.Context, embedding *models.VectorEmbedding) error

	// ListByUser returns all of the user's embeddings, optionally
	// restricted to a set of entity types. Callers do similarity math
	// in memory, so this is a full scan of the user's corpus.
	ListByUser(ctx context.Context, userID string, entityTypes []string) ([]*models.VectorEmbedding, error)

	DeleteEntity(ctx context.Context, userID, entityType, entityID string) error
}
