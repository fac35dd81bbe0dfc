// Package file provides a file-system persistence implementation, used
// for local development and tests.
package file

import (
	"context"
	"os"
	"strings"

	"github.com/zzpkit/zzpkit/pkg/models"
	"github.com/zzpkit/zzpkit/pkg/persistence"
)

// Persistence implements persistence.Persistence on top of a directory
// of JSON files, one file per record.
type Persistence struct {
	root string

	automations    *AutomationRepository
	runs           *RunRepository
	clients        *ClientRepository
	invoices       *InvoiceRepository
	quotes         *QuoteRepository
	timeEntries    *TimeEntryRepository
	kilometers     *KilometerRepository
	projects       *ProjectRepository
	conversations  *ConversationRepository
	calendarEvents *CalendarEventRepository
	embeddings     *EmbeddingRepository
}

// NewPersistence creates file persistence rooted at the given directory.
// A "file://" prefix is stripped so database URLs can be passed as-is.
func NewPersistence(root string) *Persistence {
	cleanRoot := strings.TrimPrefix(root, "file://")

	return &Persistence{
		root:           cleanRoot,
		automations:    &AutomationRepository{records: newCollection[models.Automation](cleanRoot, "automations")},
		runs:           &RunRepository{records: newCollection[models.AutomationRun](cleanRoot, "automation_runs")},
		clients:        &ClientRepository{records: newCollection[models.Client](cleanRoot, "clients")},
		invoices:       &InvoiceRepository{records: newCollection[models.Invoice](cleanRoot, "invoices")},
		quotes:         &QuoteRepository{records: newCollection[models.Quote](cleanRoot, "quotes")},
		timeEntries:    &TimeEntryRepository{records: newCollection[models.TimeEntry](cleanRoot, "time_entries")},
		kilometers:     &KilometerRepository{records: newCollection[models.KilometerEntry](cleanRoot, "kilometer_entries")},
		projects:       &ProjectRepository{records: newCollection[models.Project](cleanRoot, "projects")},
		conversations:  &ConversationRepository{records: newCollection[models.Conversation](cleanRoot, "conversations")},
		calendarEvents: &CalendarEventRepository{records: newCollection[models.CalendarEvent](cleanRoot, "calendar_events")},
		embeddings:     &EmbeddingRepository{records: newCollection[models.VectorEmbedding](cleanRoot, "vector_embeddings")},
	}
}

func (p *Persistence) Automations() persistence.AutomationRepository { return p.automations }

func (p *Persistence) Runs() persistence.RunRepository { return p.runs }

func (p *Persistence) Clients() persistence.ClientRepository { return p.clients }

func (p *Persistence) Invoices() persistence.InvoiceRepository { return p.invoices }

func (p *Persistence) Quotes() persistence.QuoteRepository { return p.quotes }

func (p *Persistence) TimeEntries() persistence.TimeEntryRepository { return p.timeEntries }

func (p *Persistence) Kilometers() persistence.KilometerRepository { return p.kilometers }

func (p *Persistence) Projects() persistence.ProjectRepository { return p.projects }

func (p *Persistence) Conversations() persistence.ConversationRepository { return p.conversations }

func (p *Persistence) CalendarEvents() persistence.CalendarEventRepository { return p.calendarEvents }

func (p *Persistence) Embeddings() persistence.EmbeddingRepository { return p.embeddings }

// HealthCheck verifies the root directory exists, creating it on first use.
func (p *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(p.root); os.IsNotExist(err) {
		return os.MkdirAll(p.root, 0o755)
	}

	return nil
}

// Close is a no-op for file persistence.
func (p *Persistence) Close(_ context.Context) error {
	return nil
}
