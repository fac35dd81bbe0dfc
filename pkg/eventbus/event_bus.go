// Package eventbus carries domain events between the API surface and
// the automation engine.
package eventbus

import (
	"context"

	"github.com/zzpkit/zzpkit/pkg/events"
)

// Handler consumes one domain event. Handler errors are logged by the
// bus; they never stop the subscription.
type Handler func(ctx context.Context, event events.DomainEvent) error

type EventPublisher interface {
	Publish(ctx context.Context, event events.DomainEvent) error
}

type EventSubscriber interface {
	// Handle registers a handler; must be called before Subscribe.
	Handle(handler Handler)

	// Subscribe starts consuming in a background goroutine until the
	// context is cancelled.
	Subscribe(ctx context.Context) error
}

type EventBus interface {
	EventPublisher
	EventSubscriber
	Close() error
}
