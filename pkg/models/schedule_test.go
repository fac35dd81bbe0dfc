package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTriggerConfigNextRunDailyBeforeSlot(t *testing.T) {
	cfg := TriggerConfig{Schedule: "daily", Time: "09:00"}
	now := time.Date(2025, 6, 10, 8, 0, 0, 0, time.UTC)

	next := cfg.NextRun(now)

	require.NotNil(t, next)
	assert.Equal(t, time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC), *next)
}

func TestTriggerConfigNextRunDailyAfterSlot(t *testing.T) {
	cfg := TriggerConfig{Schedule: "daily", Time: "09:00"}
	now := time.Date(2025, 6, 10, 10, 0, 0, 0, time.UTC)

	next := cfg.NextRun(now)

	require.NotNil(t, next)
	assert.Equal(t, time.Date(2025, 6, 11, 9, 0, 0, 0, time.UTC), *next)
}

func TestTriggerConfigNextRunExactlyAtSlotRollsOver(t *testing.T) {
	cfg := TriggerConfig{Schedule: "daily", Time: "09:00"}
	now := time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)

	next := cfg.NextRun(now)

	require.NotNil(t, next)
	assert.Equal(t, time.Date(2025, 6, 11, 9, 0, 0, 0, time.UTC), *next)
}

func TestTriggerConfigNextRunWeekly(t *testing.T) {
	cfg := TriggerConfig{Schedule: "weekly", Time: "07:30"}
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

	next := cfg.NextRun(now)

	require.NotNil(t, next)
	assert.Equal(t, time.Date(2025, 6, 17, 7, 30, 0, 0, time.UTC), *next)
}

func TestTriggerConfigNextRunMonthly(t *testing.T) {
	cfg := TriggerConfig{Schedule: "monthly", Time: "06:00"}
	now := time.Date(2025, 1, 31, 12, 0, 0, 0, time.UTC)

	next := cfg.NextRun(now)

	require.NotNil(t, next)
	// AddDate normalizes Jan 31 + 1 month to Mar 3.
	assert.Equal(t, time.Date(2025, 3, 3, 6, 0, 0, 0, time.UTC), *next)
}

func TestTriggerConfigNextRunUnrecognizedShape(t *testing.T) {
	assert.Nil(t, TriggerConfig{Schedule: "hourly", Time: "09:00"}.NextRun(time.Now()))
	assert.Nil(t, TriggerConfig{Schedule: "daily", Time: "9am"}.NextRun(time.Now()))
	assert.Nil(t, TriggerConfig{Schedule: "daily", Time: "25:00"}.NextRun(time.Now()))
	assert.Nil(t, TriggerConfig{}.NextRun(time.Now()))
}

func TestTriggerConfigValidate(t *testing.T) {
	tests := []struct {
		name        string
		triggerType TriggerType
		cfg         TriggerConfig
		wantErr     bool
	}{
		{"valid daily schedule", TriggerSchedule, TriggerConfig{Schedule: "daily", Time: "09:00"}, false},
		{"valid weekly schedule", TriggerSchedule, TriggerConfig{Schedule: "weekly", Time: "18:15"}, false},
		{"schedule with event set", TriggerSchedule, TriggerConfig{Schedule: "daily", Time: "09:00", Event: "invoice.paid"}, true},
		{"unparseable schedule", TriggerSchedule, TriggerConfig{Schedule: "fortnightly", Time: "09:00"}, true},
		{"valid event", TriggerEvent, TriggerConfig{Event: "quote.accepted"}, false},
		{"event without verb", TriggerEvent, TriggerConfig{Event: "quote"}, true},
		{"empty event", TriggerEvent, TriggerConfig{}, true},
		{"unknown trigger type", TriggerType("cron"), TriggerConfig{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate(tt.triggerType)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidTriggerConfig)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestInvoiceDaysOverdue(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	due := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	invoice := &Invoice{Status: InvoiceSent, DueDate: &due}
	assert.Equal(t, 9, invoice.DaysOverdue(now))

	paid := &Invoice{Status: InvoicePaid, DueDate: &due}
	assert.Equal(t, 0, paid.DaysOverdue(now))

	assert.Equal(t, 0, (&Invoice{Status: InvoiceSent}).DaysOverdue(now))
}
