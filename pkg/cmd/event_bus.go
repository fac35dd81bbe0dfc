package cmd

import (
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/zzpkit/zzpkit/pkg/channels/gochannel"
	"github.com/zzpkit/zzpkit/pkg/channels/kafka"
	"github.com/zzpkit/zzpkit/pkg/eventbus"
)

// NewEventBus builds the event bus for the given provider. "kafka"
// connects to the broker list; everything else falls back to the
// in-process channel, which is what single-binary deployments use.
func NewEventBus(provider, serviceName, kafkaBrokers string, logger *slog.Logger) (eventbus.EventBus, error) {
	wmLogger := watermill.NewSlogLogger(logger)

	switch provider {
	case "kafka":
		pub, sub, err := kafka.CreateChannel(wmLogger, serviceName, kafkaBrokers)
		if err != nil {
			return nil, fmt.Errorf("failed to create kafka pub/sub: %w", err)
		}

		return eventbus.NewWatermillEventBus(pub, sub, logger), nil
	default:
		pub, sub := gochannel.CreateChannel(wmLogger)

		return eventbus.NewWatermillEventBus(pub, sub, logger), nil
	}
}
