package domain

import (
	"strings"
	"time"
)

type PackageStatus string

const (
	PackageDraft     PackageStatus = "DRAFT"
	PackageConfirmed PackageStatus = "CONFIRMED"
	// Solo existe en memoria: la fila ya fue borrada.
	PackageDiscarded PackageStatus = "DISCARDED"
)

// UnassignedBranch is the placeholder branch of a draft.
const UnassignedBranch = "Por asignar"

type LineItem struct {
	ID          int64  `json:"id"`
	PackageID   int64  `json:"packageId"`
	ProductID   int64  `json:"productId"`
	ProductName string `json:"productName"`
	Quantity    int    `json:"quantity"`
}

type Package struct {
	ID             int64         `json:"id"`
	Branch         string        `json:"branch"`
	Status         PackageStatus `json:"status"`
	CreatedAtUtc   time.Time     `json:"createdAtUtc"`
	ConfirmedAtUtc *time.Time    `json:"confirmedAtUtc,omitempty"`
	Lines          []LineItem    `json:"lines"`
}

func NewDraftPackage(now time.Time) *Package {
	return &Package{
		Branch:       UnassignedBranch,
		Status:       PackageDraft,
		CreatedAtUtc: now.UTC(),
		Lines:        []LineItem{},
	}
}

func (p *Package) AddLine(product *Product, qty int) {
	p.Lines = append(p.Lines, LineItem{
		PackageID:   p.ID,
		ProductID:   product.ID,
		ProductName: product.Name,
		Quantity:    qty,
	})
}

// ProductIDs returns the distinct product ids referenced by the lines, in line order.
func (p *Package) ProductIDs() []int64 {
	seen := make(map[int64]struct{}, len(p.Lines))
	ids := make([]int64, 0, len(p.Lines))
	for _, l := range p.Lines {
		if _, ok := seen[l.ProductID]; ok {
			continue
		}
		seen[l.ProductID] = struct{}{}
		ids = append(ids, l.ProductID)
	}
	return ids
}

// IsListable reports whether the package may be presented as a valid bundle.
func (p *Package) IsListable() bool {
	return p.Status == PackageConfirmed && len(p.Lines) > 0
}

func (p *Package) Confirm(branch string, now time.Time) error {
	if p.Status != PackageDraft {
		return ErrInvalidTransition
	}
	branch = strings.TrimSpace(branch)
	if branch == "" {
		return NewValidationError("sucursal", "la sucursal es obligatoria")
	}
	t := now.UTC()
	p.Branch = branch
	p.Status = PackageConfirmed
	p.ConfirmedAtUtc = &t
	return nil
}

func (p *Package) Discard() error {
	if p.Status != PackageDraft {
		return ErrInvalidTransition
	}
	p.Status = PackageDiscarded
	return nil
}

// Shortages checks every line against the given current products.
// Lines whose product is missing are reported with a placeholder name.
func (p *Package) Shortages(current map[int64]*Product) []Shortage {
	var out []Shortage
	for _, l := range p.Lines {
		prod, ok := current[l.ProductID]
		if !ok {
			out = append(out, Shortage{Name: PlaceholderProductName(l.ProductID), Requested: l.Quantity})
			continue
		}
		if !prod.CanSupply(l.Quantity) {
			out = append(out, Shortage{Name: prod.Name, Requested: l.Quantity, Available: prod.Quantity})
		}
	}
	return out
}
