// Package postgresql provides the PostgreSQL persistence implementation.
package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/lib/pq"

	"github.com/zzpkit/zzpkit/pkg/persistence"
	"github.com/zzpkit/zzpkit/pkg/persistence/sqlbase"
)

// Persistence implements persistence.Persistence on PostgreSQL.
// Automations, runs and embeddings get dedicated tables so the due-set
// and upsert queries run on real columns; business records share a JSONB
// documents table.
type Persistence struct {
	db     *sql.DB
	logger *slog.Logger

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

func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (*Persistence, error) {
	database, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open PostgreSQL database: %w", err)
	}

	if err := database.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	migrationManager := sqlbase.NewMigrationManager(logger, database, migrations())
	if err := migrationManager.RunMigrations(ctx); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Persistence{
		db:             database,
		logger:         logger,
		automations:    &AutomationRepository{db: database},
		runs:           &RunRepository{db: database},
		clients:        &ClientRepository{db: database},
		invoices:       &InvoiceRepository{db: database},
		quotes:         &QuoteRepository{db: database},
		timeEntries:    &TimeEntryRepository{db: database},
		kilometers:     &KilometerRepository{db: database},
		projects:       &ProjectRepository{db: database},
		conversations:  &ConversationRepository{db: database},
		calendarEvents: &CalendarEventRepository{db: database},
		embeddings:     &EmbeddingRepository{db: database},
	}, nil
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

func (p *Persistence) HealthCheck(ctx context.Context) error {
	if err := p.db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}

func (p *Persistence) Close(_ context.Context) error {
	if p.db != nil {
		if err := p.db.Close(); err != nil {
			return fmt.Errorf("failed to close database connection: %w", err)
		}
	}

	return nil
}

func migrations() map[int]string {
	return map[int]string{
		1: `
			CREATE TABLE IF NOT EXISTS automations (
				id TEXT PRIMARY KEY,
				user_id TEXT NOT NULL,
				trigger_type TEXT NOT NULL,
				event_type TEXT NOT NULL DEFAULT '',
				enabled BOOLEAN NOT NULL DEFAULT TRUE,
				next_run_at TIMESTAMP WITH TIME ZONE,
				data JSONB NOT NULL,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
			);
			CREATE INDEX IF NOT EXISTS idx_automations_due
				ON automations (enabled, trigger_type, next_run_at);
			CREATE INDEX IF NOT EXISTS idx_automations_user_event
				ON automations (user_id, trigger_type, event_type);

			CREATE TABLE IF NOT EXISTS automation_runs (
				id TEXT PRIMARY KEY,
				automation_id TEXT NOT NULL,
				started_at TIMESTAMP WITH TIME ZONE NOT NULL,
				data JSONB NOT NULL
			);
			CREATE INDEX IF NOT EXISTS idx_automation_runs_automation
				ON automation_runs (automation_id, started_at DESC);

			CREATE TABLE IF NOT EXISTS records (
				id TEXT PRIMARY KEY,
				user_id TEXT NOT NULL,
				record_type TEXT NOT NULL,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
				data JSONB NOT NULL
			);
			CREATE INDEX IF NOT EXISTS idx_records_user_type
				ON records (user_id, record_type);

			CREATE TABLE IF NOT EXISTS vector_embeddings (
				id TEXT PRIMARY KEY,
				user_id TEXT NOT NULL,
				entity_type TEXT NOT NULL,
				entity_id TEXT NOT NULL,
				chunk_index INTEGER NOT NULL DEFAULT 0,
				content TEXT NOT NULL,
				embedding JSONB NOT NULL,
				metadata JSONB,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
				UNIQUE (user_id, entity_type, entity_id, chunk_index)
			);
			CREATE INDEX IF NOT EXISTS idx_vector_embeddings_user_type
				ON vector_embeddings (user_id, entity_type);
		`,
	}
}
