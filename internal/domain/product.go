package domain

import (
	"fmt"
	"strings"
	"time"
)

type Product struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Barcode      *string   `json:"barcode,omitempty"`
	Quantity     int       `json:"quantity"`
	Image        []byte    `json:"-"`
	CreatedAtUtc time.Time `json:"createdAtUtc"`
	UpdatedAtUtc time.Time `json:"updatedAtUtc"`
}

func NewProduct(name string, quantity int, barcode string) (*Product, error) {
	p := &Product{
		Name:     strings.TrimSpace(name),
		Quantity: quantity,
	}
	if b := strings.TrimSpace(barcode); b != "" {
		p.Barcode = &b
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	p.CreatedAtUtc = now
	p.UpdatedAtUtc = now
	return p, nil
}

func (p *Product) Validate() error {
	if p.Name == "" {
		return NewValidationError("nombre", "el nombre es obligatorio")
	}
	if p.Quantity < 0 {
		return NewValidationError("cantidad", "la cantidad no puede ser negativa")
	}
	return nil
}

func (p *Product) CanSupply(qty int) bool {
	return qty > 0 && p.Quantity >= qty
}

// Debit applies an already validated decrement to the in-memory copy.
func (p *Product) Debit(qty int) error {
	if !p.CanSupply(qty) {
		return ErrStockConflict
	}
	p.Quantity -= qty
	p.UpdatedAtUtc = time.Now().UTC()
	return nil
}

func (p *Product) HasImage() bool {
	return len(p.Image) > 0
}

func PlaceholderProductName(id int64) string {
	return fmt.Sprintf("Producto %d", id)
}
