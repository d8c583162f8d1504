package domain

import (
	"time"

	"github.com/rodolfodevapp/eventshop-messaging-go/core/primitives"
)

// =========== Payloads de eventos entrantes ===========

// ProductCreated (desde catalog.events)
type ProductCreatedPayload struct {
	Sku           string    `json:"sku"`
	Name          string    `json:"name"`
	StockQuantity int       `json:"stockQuantity"`
	CreatedAtUtc  time.Time `json:"createdAtUtc"`
	IsActive      bool      `json:"isActive"`
}

// =========== Eventos salientes ===========

type PackageLineEvent struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}

type PackageConfirmedEvent struct {
	primitives.BaseEvent
	PackageID      int64              `json:"packageId"`
	Branch         string             `json:"branch"`
	ConfirmedBy    int64              `json:"confirmedBy"`
	ConfirmedAtUtc time.Time          `json:"confirmedAtUtc"`
	Lines          []PackageLineEvent `json:"lines"`
}

func NewPackageConfirmedEvent(p *Package, actor Actor) *PackageConfirmedEvent {
	lines := make([]PackageLineEvent, 0, len(p.Lines))
	for _, l := range p.Lines {
		lines = append(lines, PackageLineEvent{ProductID: l.ProductID, Quantity: l.Quantity})
	}
	confirmedAt := time.Now().UTC()
	if p.ConfirmedAtUtc != nil {
		confirmedAt = *p.ConfirmedAtUtc
	}
	ev := &PackageConfirmedEvent{
		BaseEvent:      primitives.NewBaseEvent(),
		PackageID:      p.ID,
		Branch:         p.Branch,
		ConfirmedBy:    actor.EmployeeID,
		ConfirmedAtUtc: confirmedAt,
		Lines:          lines,
	}
	ev.SetRoutingKey("PackageConfirmed")
	return ev
}

type PackageDeletedEvent struct {
	primitives.BaseEvent
	PackageID    int64     `json:"packageId"`
	DeletedBy    int64     `json:"deletedBy"`
	DeletedAtUtc time.Time `json:"deletedAtUtc"`
}

func NewPackageDeletedEvent(packageID int64, actor Actor) *PackageDeletedEvent {
	ev := &PackageDeletedEvent{
		BaseEvent:    primitives.NewBaseEvent(),
		PackageID:    packageID,
		DeletedBy:    actor.EmployeeID,
		DeletedAtUtc: time.Now().UTC(),
	}
	ev.SetRoutingKey("PackageDeleted")
	return ev
}

// CatalogStockAdjusted (evento para Catalog, Search, etc.)
type CatalogStockAdjustedEvent struct {
	primitives.BaseEvent
	ProductID         int64     `json:"productId"`
	Sku               string    `json:"sku,omitempty"`
	AvailableQuantity int       `json:"availableQuantity"`
	Reason            string    `json:"reason"`
	OccurredAtUtc     time.Time `json:"occurredAtUtc"`
}

func NewCatalogStockAdjustedEvent(p *Product, reason string) *CatalogStockAdjustedEvent {
	ev := &CatalogStockAdjustedEvent{
		BaseEvent:         primitives.NewBaseEvent(),
		ProductID:         p.ID,
		AvailableQuantity: p.Quantity,
		Reason:            reason,
		OccurredAtUtc:     time.Now().UTC(),
	}
	if p.Barcode != nil {
		ev.Sku = *p.Barcode
	}
	ev.SetRoutingKey("CatalogStockAdjusted")
	return ev
}
