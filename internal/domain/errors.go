package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("forbidden")
	ErrInvalidTransition = errors.New("invalid package state transition")
	// La fila cambió entre la validación y el decremento condicional.
	ErrStockConflict = errors.New("stock changed concurrently")
	ErrReferenced    = errors.New("record is still referenced")
)

// ValidationError reporta un campo requerido ausente o inválido.
type ValidationError struct {
	Field   string
	Message string
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation: " + e.Message
	}
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Message)
}

// Shortage is the deficit between the requested and available quantity of one product.
type Shortage struct {
	Name      string `json:"nombre"`
	Requested int    `json:"solicitado"`
	Available int    `json:"disponible"`
}

// InsufficientStockError carries every shortage found, never only the first one.
type InsufficientStockError struct {
	Shortages []Shortage
}

func (e *InsufficientStockError) Error() string {
	parts := make([]string, 0, len(e.Shortages))
	for _, s := range e.Shortages {
		parts = append(parts, fmt.Sprintf("%s (requested %d, available %d)", s.Name, s.Requested, s.Available))
	}
	return "insufficient stock: " + strings.Join(parts, ", ")
}

// ProductInUseError is returned when deleting a product still referenced by line items.
type ProductInUseError struct {
	ProductName string
	PackageIDs  []int64
}

func (e *ProductInUseError) Error() string {
	refs := make([]string, 0, len(e.PackageIDs))
	for _, id := range e.PackageIDs {
		refs = append(refs, PackageCode(id))
	}
	return fmt.Sprintf("product %q is used by packages %s", e.ProductName, strings.Join(refs, ", "))
}

// PackageCode is the human-facing package reference, e.g. PQ-12.
func PackageCode(id int64) string {
	return fmt.Sprintf("PQ-%d", id)
}

func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

func AsInsufficientStock(err error) (*InsufficientStockError, bool) {
	var s *InsufficientStockError
	if errors.As(err, &s) {
		return s, true
	}
	return nil, false
}
