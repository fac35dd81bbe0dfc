package models

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidTriggerConfig is returned when a trigger configuration cannot
// be interpreted for its trigger type.
var ErrInvalidTriggerConfig = errors.New("invalid trigger configuration")

// NextRun computes the next occurrence strictly after now for a schedule
// trigger config. Daily schedules roll to tomorrow once today's slot has
// passed; weekly schedules advance in 7-day steps; monthly schedules keep
// the day-of-month of the reference time. Returns nil for any other or
// unrecognized schedule shape, which the engine treats as
// "eligible on the next tick".
func (tc TriggerConfig) NextRun(now time.Time) *time.Time {
	hour, minute, err := parseClock(tc.Time)
	if err != nil {
		return nil
	}

	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())

	switch tc.Schedule {
	case "daily":
		if !next.After(now) {
			next = next.AddDate(0, 0, 1)
		}
	case "weekly":
		if !next.After(now) {
			next = next.AddDate(0, 0, 7)
		}
	case "monthly":
		if !next.After(now) {
			next = next.AddDate(0, 1, 0)
		}
	default:
		return nil
	}

	return &next
}

// Validate checks that the trigger config matches its trigger type. For
// schedules it requires a shape NextRun can interpret, so unparseable
// schedules are rejected when the automation is saved rather than
// re-running forever via the null-next-run eligibility clause.
func (tc TriggerConfig) Validate(triggerType TriggerType) error {
	switch triggerType {
	case TriggerSchedule:
		if tc.Event != "" {
			return fmt.Errorf("%w: schedule trigger must not set an event", ErrInvalidTriggerConfig)
		}

		if tc.NextRun(time.Now()) == nil {
			return fmt.Errorf("%w: unrecognized schedule %q at %q", ErrInvalidTriggerConfig, tc.Schedule, tc.Time)
		}
	case TriggerEvent:
		domain, verb, ok := strings.Cut(tc.Event, ".")
		if !ok || domain == "" || verb == "" {
			return fmt.Errorf("%w: event must be of the form <domain>.<verb>", ErrInvalidTriggerConfig)
		}
	default:
		return fmt.Errorf("%w: unknown trigger type %q", ErrInvalidTriggerConfig, triggerType)
	}

	return nil
}

func parseClock(value string) (int, int, error) {
	parts := strings.Split(value, ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("%w: time must be HH:MM", ErrInvalidTriggerConfig)
	}

	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("%w: hour out of range", ErrInvalidTriggerConfig)
	}

	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("%w: minute out of range", ErrInvalidTriggerConfig)
	}

	return hour, minute, nil
}
