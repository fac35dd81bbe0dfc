package file

import (
	"context"
	"sort"
	"time"

	"github.com/zzpkit/zzpkit/pkg/models"
	"github.com/zzpkit/zzpkit/pkg/persistence"
)

// AutomationRepository implements persistence.AutomationRepository on
// the file collection.
type AutomationRepository struct {
	records *collection[models.Automation]
}

func (r *AutomationRepository) ListDue(_ context.Context, now time.Time) ([]*models.Automation, error) {
	all, err := r.records.list()
	if err != nil {
		return nil, err
	}

	due := make([]*models.Automation, 0)

	for _, a := range all {
		if !a.Enabled || a.TriggerType != models.TriggerSchedule {
			continue
		}

		// A missing next run means the automation has never been
		// scheduled; it is eligible immediately.
		if a.NextRunAt == nil || !a.NextRunAt.After(now) {
			due = append(due, a)
		}
	}

	sortByCreated(due)

	return due, nil
}

func (r *AutomationRepository) ListEventTriggered(_ context.Context, userID string) ([]*models.Automation, error) {
	all, err := r.records.list()
	if err != nil {
		return nil, err
	}

	matches := make([]*models.Automation, 0)

	for _, a := range all {
		if a.UserID == userID && a.Enabled && a.TriggerType == models.TriggerEvent {
			matches = append(matches, a)
		}
	}

	sortByCreated(matches)

	return matches, nil
}

func (r *AutomationRepository) ListByUser(_ context.Context, userID string) ([]*models.Automation, error) {
	all, err := r.records.list()
	if err != nil {
		return nil, err
	}

	matches := make([]*models.Automation, 0)

	for _, a := range all {
		if a.UserID == userID {
			matches = append(matches, a)
		}
	}

	sortByCreated(matches)

	return matches, nil
}

func (r *AutomationRepository) GetByID(_ context.Context, userID, id string) (*models.Automation, error) {
	a, err := r.records.get(id)
	if err != nil {
		return nil, err
	}

	if a == nil || a.UserID != userID {
		return nil, persistence.NotFoundError("automation", id)
	}

	return a, nil
}

func (r *AutomationRepository) Save(_ context.Context, automation *models.Automation) error {
	return r.records.save(automation.ID, automation)
}

func (r *AutomationRepository) Delete(ctx context.Context, userID, id string) error {
	if _, err := r.GetByID(ctx, userID, id); err != nil {
		return err
	}

	return r.records.delete(id)
}

// RunRepository implements persistence.RunRepository. Run records are
// append-only.
type RunRepository struct {
	records *collection[models.AutomationRun]
}

func (r *RunRepository) Create(_ context.Context, run *models.AutomationRun) error {
	return r.records.save(run.ID, run)
}

func (r *RunRepository) ListByAutomation(_ context.Context, automationID string, limit int) ([]*models.AutomationRun, error) {
	all, err := r.records.list()
	if err != nil {
		return nil, err
	}

	matches := make([]*models.AutomationRun, 0)

	for _, run := range all {
		if run.AutomationID == automationID {
			matches = append(matches, run)
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].StartedAt.After(matches[j].StartedAt)
	})

	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}

	return matches, nil
}

func sortByCreated(automations []*models.Automation) {
	sort.Slice(automations, func(i, j int) bool {
		return automations[i].CreatedAt.Before(automations[j].CreatedAt)
	})
}
