package messaging

import (
	"context"
	"log"

	"github.com/rodolfodevapp/eventshop-messaging-go/core/primitives"
	messaging "github.com/rodolfodevapp/eventshop-messaging-go/rabbitmq"

	"github.com/RodolfoDevApp/eventshop-packages-go/internal/application"
	"github.com/RodolfoDevApp/eventshop-packages-go/internal/infrastructure/outbox"
)

// Producer para packages.events
func NewProducerBus(rabbitUri string) *messaging.RabbitMqEventBus {
	opts := messaging.RabbitMqOptions{
		URI:          rabbitUri,
		ExchangeName: "packages.events",
		QueuePrefix:  "packages.dispatcher.v1",
		Prefetch:     32,
		RetryDelayMs: 30000,
	}
	return messaging.NewRabbitMqEventBus(opts, nil, nil)
}

// Consumer para catalog.events
func NewCatalogEventBus(
	rabbitUri string,
	queuePrefix string,
) *messaging.RabbitMqEventBus {
	opts := messaging.RabbitMqOptions{
		URI:          rabbitUri,
		ExchangeName: "catalog.events",
		QueuePrefix:  queuePrefix,
		Prefetch:     32,
		RetryDelayMs: 30000,
	}
	return messaging.NewRabbitMqEventBus(opts, nil, nil)
}

// PublisherFor adapts the bus to the outbox dispatcher.
func PublisherFor(bus *messaging.RabbitMqEventBus) outbox.PublishFunc {
	return func(ctx context.Context, env *primitives.IntegrationEventEnvelope) error {
		return bus.Publish(ctx, env)
	}
}

func RegisterCatalogSubscriptions(
	ctx context.Context,
	bus *messaging.RabbitMqEventBus,
	productCreatedHandler application.EventHandler,
) error {
	bus.Subscribe("ProductCreated", productCreatedHandler)

	if err := bus.StartConsumers(ctx); err != nil {
		log.Printf("Error starting catalog consumers: %v", err)
		return err
	}
	return nil
}
