package application

import (
	"context"
	"encoding/json"
	"log"

	"github.com/rodolfodevapp/eventshop-messaging-go/core/primitives"

	"github.com/RodolfoDevApp/eventshop-packages-go/internal/domain"
)

type EventHandler interface {
	Handle(ctx context.Context, ev primitives.Event) error
}

type catalogUpserter interface {
	UpsertFromCatalog(ctx context.Context, payload domain.ProductCreatedPayload) (*domain.Product, error)
}

// ProductCreatedHandler consumes catalog.events and keeps the product catalog in sync.
type ProductCreatedHandler struct {
	products catalogUpserter
}

func NewProductCreatedHandler(products catalogUpserter) *ProductCreatedHandler {
	return &ProductCreatedHandler{products: products}
}

func (h *ProductCreatedHandler) Handle(ctx context.Context, ev primitives.Event) error {
	env, ok := ev.(*primitives.IntegrationEventEnvelope)
	if !ok {
		log.Printf("ProductCreatedHandler: invalid event type %T", ev)
		return nil
	}
	if env.Type != "ProductCreated" {
		return nil
	}

	var payload domain.ProductCreatedPayload
	if err := json.Unmarshal([]byte(env.PayloadJSON), &payload); err != nil {
		log.Printf("ProductCreatedHandler: failed to unmarshal payload: %v", err)
		return nil
	}
	if payload.Sku == "" {
		log.Printf("ProductCreatedHandler: missing sku")
		return nil
	}
	if !payload.IsActive {
		log.Printf("ProductCreatedHandler: sku=%s inactive, ignored", payload.Sku)
		return nil
	}

	log.Printf("ProductCreatedHandler: received ProductCreated for sku=%s qty=%d",
		payload.Sku, payload.StockQuantity)

	p, err := h.products.UpsertFromCatalog(ctx, payload)
	if domain.IsValidation(err) {
		// payload inválido: reintentar no lo arregla
		log.Printf("ProductCreatedHandler: sku=%s rejected: %v", payload.Sku, err)
		return nil
	}
	if err != nil {
		return err
	}
	log.Printf("ProductCreatedHandler: product id=%d sku=%s qty=%d", p.ID, payload.Sku, p.Quantity)
	return nil
}
