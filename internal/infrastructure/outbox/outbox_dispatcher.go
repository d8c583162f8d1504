package outbox

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/rodolfodevapp/eventshop-messaging-go/core/primitives"

	"github.com/RodolfoDevApp/eventshop-packages-go/internal/domain"
)

// PublishFunc sends one envelope to the broker.
type PublishFunc func(ctx context.Context, env *primitives.IntegrationEventEnvelope) error

type Dispatcher struct {
	repo      domain.OutboxRepository
	publish   PublishFunc
	maxRetry  int
	batchSize int
}

func NewDispatcher(
	repo domain.OutboxRepository,
	publish PublishFunc,
	maxRetry, batchSize int,
) *Dispatcher {
	return &Dispatcher{
		repo:      repo,
		publish:   publish,
		maxRetry:  maxRetry,
		batchSize: batchSize,
	}
}

func (d *Dispatcher) DispatchOnce(ctx context.Context) (int, error) {
	msgs, err := d.repo.GetPendingBatch(ctx, d.maxRetry, d.batchSize)
	if err != nil {
		return 0, err
	}
	if len(msgs) == 0 {
		return 0, nil
	}

	processed := 0
	for i := range msgs {
		msg := &msgs[i]

		if !json.Valid([]byte(msg.PayloadJSON)) {
			log.Printf("Outbox: invalid payload for %s (%s)", msg.Type, msg.ID)
			msg.RetryCount++
			if err := d.repo.Save(ctx, *msg); err != nil {
				log.Printf("Outbox: failed to save message: %v", err)
			}
			continue
		}

		eventType := msg.Type // ej. "PackageConfirmed" / "CatalogStockAdjusted"

		// Envelope estándar
		envelope := primitives.NewIntegrationEventEnvelope(eventType, msg.PayloadJSON)
		envelope.SetRoutingKey(eventType)

		if err := d.publish(ctx, &envelope); err != nil {
			log.Printf("Outbox: failed to publish %s: %v", msg.Type, err)
			msg.RetryCount++
		} else {
			now := time.Now().UTC().Unix()
			msg.ProcessedAtUtc = &now
			processed++
		}

		if err := d.repo.Save(ctx, *msg); err != nil {
			log.Printf("Outbox: failed to save message: %v", err)
		}
	}

	return processed, nil
}
