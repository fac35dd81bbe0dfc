package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/zzpkit/zzpkit/pkg/events"
)

const eventTypeMetadataKey = "event_type"

// WatermillEventBus implements EventBus on any watermill
// publisher/subscriber pair (go-channel in-process, kafka for
// multi-process deployments).
type WatermillEventBus struct {
	publisher  message.Publisher
	subscriber message.Subscriber
	handlers   []Handler
	logger     *slog.Logger
}

func NewWatermillEventBus(pub message.Publisher, sub message.Subscriber, logger *slog.Logger) *WatermillEventBus {
	return &WatermillEventBus{
		publisher:  pub,
		subscriber: sub,
		logger:     logger.With("module", "eventbus"),
	}
}

func (b *WatermillEventBus) Publish(_ context.Context, event events.DomainEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event %s: %w", event.ID, err)
	}

	msg := message.NewMessage(watermill.NewULID(), payload)
	msg.Metadata.Set(eventTypeMetadataKey, string(event.Type))

	return b.publisher.Publish(events.Topic, msg)
}

func (b *WatermillEventBus) Handle(handler Handler) {
	b.handlers = append(b.handlers, handler)
}

func (b *WatermillEventBus) Subscribe(ctx context.Context) error {
	messages, err := b.subscriber.Subscribe(ctx, events.Topic)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", events.Topic, err)
	}

	go func() {
		for msg := range messages {
			var event events.DomainEvent
			if err := json.Unmarshal(msg.Payload, &event); err != nil {
				b.logger.Error("Dropping undecodable event", "message_id", msg.UUID, "error", err)
				msg.Ack()

				continue
			}

			for _, handler := range b.handlers {
				if err := handler(ctx, event); err != nil {
					b.logger.Error("Event handler failed",
						"event_id", event.ID,
						"event_type", event.Type,
						"error", err)
				}
			}

			msg.Ack()
		}
	}()

	return nil
}

func (b *WatermillEventBus) Close() error {
	if err := b.publisher.Close(); err != nil {
		return fmt.Errorf("failed to close publisher: %w", err)
	}

	return b.subscriber.Close()
}
