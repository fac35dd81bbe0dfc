package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/zzpkit/zzpkit/pkg/models"
	"github.com/zzpkit/zzpkit/pkg/persistence"
)

type AutomationRepository struct {
	db *sql.DB
}

func (r *AutomationRepository) ListDue(ctx context.Context, now time.Time) ([]*models.Automation, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT data FROM automations
		WHERE enabled = TRUE
		  AND trigger_type = $1
		  AND (next_run_at IS NULL OR next_run_at <= $2)
		ORDER BY created_at`,
		string(models.TriggerSchedule), now)
	if err != nil {
		return nil, fmt.Errorf("failed to query due automations: %w", err)
	}

	return scanAutomations(rows)
}

func (r *AutomationRepository) ListEventTriggered(ctx context.Context, userID string) ([]*models.Automation, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT data FROM automations
		WHERE user_id = $1 AND enabled = TRUE AND trigger_type = $2
		ORDER BY created_at`,
		userID, string(models.TriggerEvent))
	if err != nil {
		return nil, fmt.Errorf("failed to query event automations: %w", err)
	}

	return scanAutomations(rows)
}

func (r *AutomationRepository) ListByUser(ctx context.Context, userID string) ([]*models.Automation, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT data FROM automations WHERE user_id = $1 ORDER BY created_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query automations: %w", err)
	}

	return scanAutomations(rows)
}

func (r *AutomationRepository) GetByID(ctx context.Context, userID, id string) (*models.Automation, error) {
	var data []byte

	err := r.db.QueryRowContext(ctx,
		`SELECT data FROM automations WHERE id = $1 AND user_id = $2`, id, userID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, persistence.NotFoundError("automation", id)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to query automation %s: %w", id, err)
	}

	var automation models.Automation
	if err := json.Unmarshal(data, &automation); err != nil {
		return nil, fmt.Errorf("failed to unmarshal automation %s: %w", id, err)
	}

	return &automation, nil
}

func (r *AutomationRepository) Save(ctx context.Context, automation *models.Automation) error {
	data, err := json.Marshal(automation)
	if err != nil {
		return fmt.Errorf("failed to marshal automation %s: %w", automation.ID, err)
	}

	var nextRunAt sql.NullTime
	if automation.NextRunAt != nil {
		nextRunAt = sql.NullTime{Time: *automation.NextRunAt, Valid: true}
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO automations (id, user_id, trigger_type, event_type, enabled, next_run_at, data, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			trigger_type = EXCLUDED.trigger_type,
			event_type = EXCLUDED.event_type,
			enabled = EXCLUDED.enabled,
			next_run_at = EXCLUDED.next_run_at,
			data = EXCLUDED.data,
			updated_at = EXCLUDED.updated_at`,
		automation.ID,
		automation.UserID,
		string(automation.TriggerType),
		automation.TriggerConfig.Event,
		automation.Enabled,
		nextRunAt,
		data,
		automation.CreatedAt,
		automation.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save automation %s: %w", automation.ID, err)
	}

	return nil
}

func (r *AutomationRepository) Delete(ctx context.Context, userID, id string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM automations WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete automation %s: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}

	if affected == 0 {
		return persistence.NotFoundError("automation", id)
	}

	return nil
}

func scanAutomations(rows *sql.Rows) ([]*models.Automation, error) {
	defer func() { _ = rows.Close() }()

	automations := make([]*models.Automation, 0)

	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan automation row: %w", err)
		}

		var automation models.Automation
		if err := json.Unmarshal(data, &automation); err != nil {
			return nil, fmt.Errorf("failed to unmarshal automation row: %w", err)
		}

		automations = append(automations, &automation)
	}

	return automations, rows.Err()
}

type RunRepository struct {
	db *sql.DB
}

func (r *RunRepository) Create(ctx context.Context, run *models.AutomationRun) error {
	data, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("failed to marshal run %s: %w", run.ID, err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO automation_runs (id, automation_id, started_at, data) VALUES ($1, $2, $3, $4)`,
		run.ID, run.AutomationID, run.StartedAt, data)
	if err != nil {
		return fmt.Errorf("failed to insert run %s: %w", run.ID, err)
	}

	return nil
}

func (r *RunRepository) ListByAutomation(ctx context.Context, automationID string, limit int) ([]*models.AutomationRun, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT data FROM automation_runs
		WHERE automation_id = $1
		ORDER BY started_at DESC
		LIMIT $2`,
		automationID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}

	defer func() { _ = rows.Close() }()

	runs := make([]*models.AutomationRun, 0)

	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan run row: %w", err)
		}

		var run models.AutomationRun
		if err := json.Unmarshal(data, &run); err != nil {
			return nil, fmt.Errorf("failed to unmarshal run row: %w", err)
		}

		runs = append(runs, &run)
	}

	return runs, rows.Err()
}
