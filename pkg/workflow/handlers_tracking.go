package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/zzpkit/zzpkit/pkg/events"
	"github.com/zzpkit/zzpkit/pkg/models"
	"github.com/zzpkit/zzpkit/pkg/persistence"
)

func (r *Router) addTimeEntry(ctx context.Context, userID string, params map[string]any) Envelope {
	projectID := getString(params, "projectId", "project_id")
	if projectID == "" {
		return failure("projectId is required")
	}

	project, err := r.persistence.Projects().GetByID(ctx, userID, projectID)
	if err != nil {
		if persistence.IsNotFound(err) {
			return failure("Project not found")
		}

		r.logger.Error("Failed to load project", "project_id", projectID, "error", err)

		return failure("Failed to load project")
	}

	hours := getFloat(params, "hours", "duration")
	if hours <= 0 {
		return failure("hours must be positive")
	}

	date, err := getTime(params, "date")
	if err != nil {
		return failure(err.Error())
	}

	now := r.now().UTC()
	if date.IsZero() {
		date = now
	}

	billable := true
	if explicit, present := getBool(params, "billable"); present {
		billable = explicit
	}

	clientID := getString(params, "clientId", "client_id")
	if clientID != "" {
		if _, err := r.persistence.Clients().GetByID(ctx, userID, clientID); err != nil {
			if persistence.IsNotFound(err) {
				return failure("Client not found")
			}

			r.logger.Error("Failed to load client", "client_id", clientID, "error", err)

			return failure("Failed to load client")
		}
	} else {
		clientID = project.ClientID
	}

	entry := &models.TimeEntry{
		ID:          uuid.New().String(),
		UserID:      userID,
		ProjectID:   project.ID,
		ClientID:    clientID,
		Description: getString(params, "description"),
		Hours:       hours,
		Date:        date,
		Billable:    billable,
		CreatedAt:   now,
	}

	if err := r.validate.Struct(entry); err != nil {
		return failure(fmt.Sprintf("Invalid time entry: %v", err))
	}

	if err := r.persistence.TimeEntries().Save(ctx, entry); err != nil {
		r.logger.Error("Failed to save time entry", "error", err)

		return failure("Failed to save time entry")
	}

	return success(entry, fmt.Sprintf("Logged %.2f hours on %s", hours, project.Name))
}

func (r *Router) addKilometerEntry(ctx context.Context, userID string, params map[string]any) Envelope {
	from := getString(params, "from", "fromLocation", "from_location")
	to := getString(params, "to", "toLocation", "to_location")

	if from == "" || to == "" {
		return failure("from and to locations are required")
	}

	distance := getFloat(params, "distance", "km", "kilometers")
	if distance <= 0 {
		return failure("distance must be positive")
	}

	purpose := getString(params, "purpose", "reason")
	if purpose == "" {
		return failure("purpose is required")
	}

	tripType := getString(params, "type")
	if tripType == "" {
		tripType = "zakelijk"
	}

	date, err := getTime(params, "date")
	if err != nil {
		return failure(err.Error())
	}

	now := r.now().UTC()
	if date.IsZero() {
		date = now
	}

	billable := true
	if explicit, present := getBool(params, "billable", "isBillable", "is_billable"); present {
		billable = explicit
	}

	clientID := getString(params, "clientId", "client_id")
	if clientID != "" {
		if _, err := r.persistence.Clients().GetByID(ctx, userID, clientID); err != nil {
			if persistence.IsNotFound(err) {
				return failure("Client not found")
			}

			r.logger.Error("Failed to load client", "client_id", clientID, "error", err)

			return failure("Failed to load client")
		}
	}

	projectID := getString(params, "projectId", "project_id")
	if projectID != "" {
		if _, err := r.persistence.Projects().GetByID(ctx, userID, projectID); err != nil {
			if persistence.IsNotFound(err) {
				return failure("Project not found")
			}

			r.logger.Error("Failed to load project", "project_id", projectID, "error", err)

			return failure("Failed to load project")
		}
	}

	entry := &models.KilometerEntry{
		ID:           uuid.New().String(),
		UserID:       userID,
		FromLocation: from,
		ToLocation:   to,
		Distance:     distance,
		Purpose:      purpose,
		Type:         tripType,
		ClientID:     clientID,
		ProjectID:    projectID,
		IsBillable:   billable,
		Date:         date,
		CreatedAt:    now,
	}

	if err := r.validate.Struct(entry); err != nil {
		return failure(fmt.Sprintf("Invalid kilometer entry: %v", err))
	}

	if err := r.persistence.Kilometers().Save(ctx, entry); err != nil {
		r.logger.Error("Failed to save kilometer entry", "error", err)

		return failure("Failed to save kilometer entry")
	}

	return success(entry, fmt.Sprintf("Logged %.1f km from %s to %s", distance, from, to))
}

func (r *Router) createCalendarEvent(ctx context.Context, userID string, params map[string]any) Envelope {
	title := getString(params, "title", "summary")
	if title == "" {
		return failure("title is required")
	}

	startsAt, err := getTime(params, "startsAt", "starts_at", "start", "date")
	if err != nil {
		return failure(err.Error())
	}

	now := r.now().UTC()
	if startsAt.IsZero() {
		startsAt = now
	}

	endsAt, err := getTime(params, "endsAt", "ends_at", "end")
	if err != nil {
		return failure(err.Error())
	}

	if endsAt.IsZero() {
		duration := time.Duration(getFloat(params, "durationMinutes", "duration_minutes")) * time.Minute
		if duration <= 0 {
			duration = time.Hour
		}

		endsAt = startsAt.Add(duration)
	}

	event := &models.CalendarEvent{
		ID:          uuid.New().String(),
		UserID:      userID,
		Title:       title,
		Description: getString(params, "description"),
		Location:    getString(params, "location"),
		StartsAt:    startsAt,
		EndsAt:      endsAt,
		CreatedAt:   now,
	}

	if err := r.validate.Struct(event); err != nil {
		return failure(fmt.Sprintf("Invalid calendar event: %v", err))
	}

	if err := r.persistence.CalendarEvents().Save(ctx, event); err != nil {
		r.logger.Error("Failed to save calendar event", "error", err)

		return failure("Failed to save calendar event")
	}

	r.publish(ctx, events.CalendarEventCreated, userID, map[string]any{
		"event_id":  event.ID,
		"title":     event.Title,
		"starts_at": event.StartsAt.Format(time.RFC3339),
	})

	return success(event, fmt.Sprintf("Calendar event %q scheduled for %s", title, startsAt.Format("2006-01-02 15:04")))
}
