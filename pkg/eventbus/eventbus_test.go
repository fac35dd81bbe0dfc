package eventbus_test

import (
	"context"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zzpkit/zzpkit/pkg/channels/gochannel"
	"github.com/zzpkit/zzpkit/pkg/eventbus"
	"github.com/zzpkit/zzpkit/pkg/events"
	"github.com/zzpkit/zzpkit/pkg/log"
)

func newTestBus(t *testing.T) *eventbus.WatermillEventBus {
	t.Helper()

	pub, sub := gochannel.CreateTestChannel(watermill.NopLogger{})
	bus := eventbus.NewWatermillEventBus(pub, sub, log.WithModule("test"))

	t.Cleanup(func() {
		_ = bus.Close()
	})

	return bus
}

func TestPublishedEventReachesHandler(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := newTestBus(t)

	received := make(chan events.DomainEvent, 1)
	bus.Handle(func(_ context.Context, event events.DomainEvent) error {
		received <- event

		return nil
	})

	require.NoError(t, bus.Subscribe(ctx))

	event := events.NewDomainEvent(events.InvoicePaid, "user-1", map[string]any{"invoice_id": "inv-1"})
	require.NoError(t, bus.Publish(ctx, event))

	select {
	case got := <-received:
		assert.Equal(t, event.ID, got.ID)
		assert.Equal(t, events.InvoicePaid, got.Type)
		assert.Equal(t, "user-1", got.UserID)
		assert.Equal(t, "inv-1", got.Data["invoice_id"])
	case <-time.After(2 * time.Second):
		t.Fatal("event never reached the handler")
	}
}

func TestHandlerErrorDoesNotStopDelivery(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := newTestBus(t)

	received := make(chan events.DomainEvent, 2)
	bus.Handle(func(_ context.Context, event events.DomainEvent) error {
		received <- event

		return assert.AnError
	})

	require.NoError(t, bus.Subscribe(ctx))

	require.NoError(t, bus.Publish(ctx, events.NewDomainEvent(events.QuoteAccepted, "user-1", nil)))
	require.NoError(t, bus.Publish(ctx, events.NewDomainEvent(events.QuoteExpired, "user-1", nil)))

	for _, want := range []events.EventType{events.QuoteAccepted, events.QuoteExpired} {
		select {
		case got := <-received:
			assert.Equal(t, want, got.Type)
		case <-time.After(2 * time.Second):
			t.Fatalf("never received %s", want)
		}
	}
}
