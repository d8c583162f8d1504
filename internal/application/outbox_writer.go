package application

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"time"

	"github.com/google/uuid"
	"github.com/rodolfodevapp/eventshop-messaging-go/core/primitives"

	"github.com/RodolfoDevApp/eventshop-packages-go/internal/domain"
)

// OutboxWriter stores integration events next to the state change that produced them.
type OutboxWriter interface {
	Enqueue(ctx context.Context, events ...primitives.Event) error
}

type outboxWriter struct {
	repo domain.OutboxRepository
}

// NewOutboxWriter must receive the outbox repository of the running transaction.
func NewOutboxWriter(repo domain.OutboxRepository) OutboxWriter {
	return &outboxWriter{repo: repo}
}

func (w *outboxWriter) Enqueue(ctx context.Context, events ...primitives.Event) error {
	now := time.Now().UTC().Unix()
	for _, ev := range events {
		payload, err := json.Marshal(ev)
		if err != nil {
			return fmt.Errorf("marshal %s: %w", typeNameOf(ev), err)
		}

		eventType := ev.GetRoutingKey()
		if eventType == "" {
			eventType = typeNameOf(ev)
		}

		msg := domain.OutboxMessage{
			ID:            uuid.New(),
			Type:          eventType,
			PayloadJSON:   string(payload),
			OccurredAtUtc: now,
		}
		if err := w.repo.Insert(ctx, msg); err != nil {
			return fmt.Errorf("enqueue %s: %w", eventType, err)
		}
	}
	return nil
}

func typeNameOf(ev primitives.Event) string {
	if ev == nil {
		return ""
	}
	t := reflect.TypeOf(ev)
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Name()
}
