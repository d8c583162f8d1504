package application

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/RodolfoDevApp/eventshop-packages-go/internal/domain"
)

// ProductInput is the create/edit form of a product. Quantity is required;
// a nil Barcode or Image leaves the stored value untouched on edit.
type ProductInput struct {
	Name     string  `json:"nombre" form:"nombre"`
	Quantity *int    `json:"cantidad" form:"cantidad"`
	Barcode  *string `json:"codigo_barras" form:"codigo_barras"`
	Image    []byte  `json:"-" form:"-"`
}

func (in ProductInput) quantity() (int, error) {
	if in.Quantity == nil {
		return 0, domain.NewValidationError("cantidad", "la cantidad es obligatoria")
	}
	return *in.Quantity, nil
}

type ProductService struct {
	tx    domain.TxRunner
	cache domain.PackageListCache
}

// NewProductService takes the package listing cache: line items show the current product name.
func NewProductService(tx domain.TxRunner, cache domain.PackageListCache) *ProductService {
	if cache == nil {
		cache = nopListCache{}
	}
	return &ProductService{tx: tx, cache: cache}
}

func (s *ProductService) List(ctx context.Context) ([]domain.Product, error) {
	var out []domain.Product
	err := s.tx.WithinTx(ctx, func(ctx context.Context, st domain.Store) error {
		var err error
		out, err = st.Products().List(ctx)
		return err
	})
	return out, err
}

func (s *ProductService) Get(ctx context.Context, id int64) (*domain.Product, error) {
	var out *domain.Product
	err := s.tx.WithinTx(ctx, func(ctx context.Context, st domain.Store) error {
		var err error
		out, err = st.Products().Get(ctx, id)
		return err
	})
	return out, err
}

func (s *ProductService) Create(ctx context.Context, actor domain.Actor, in ProductInput) (*domain.Product, error) {
	if !domain.CanManageProducts(actor.Role) {
		return nil, domain.ErrForbidden
	}
	qty, err := in.quantity()
	if err != nil {
		return nil, err
	}
	barcode := ""
	if in.Barcode != nil {
		barcode = *in.Barcode
	}
	p, err := domain.NewProduct(in.Name, qty, barcode)
	if err != nil {
		return nil, err
	}
	if len(in.Image) > 0 {
		p.Image = in.Image
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context, st domain.Store) error {
		if err := ensureBarcodeFree(ctx, st, p.Barcode, 0); err != nil {
			return err
		}
		if err := st.Products().Insert(ctx, p); err != nil {
			return err
		}
		return NewOutboxWriter(st.Outbox()).Enqueue(ctx,
			domain.NewCatalogStockAdjustedEvent(p, "PRODUCT_CREATED"))
	})
	if err != nil {
		return nil, err
	}
	log.Printf("ProductService: product id=%d %q created by employee=%d", p.ID, p.Name, actor.EmployeeID)
	return p, nil
}

func (s *ProductService) Update(ctx context.Context, actor domain.Actor, id int64, in ProductInput) (*domain.Product, error) {
	if !domain.CanManageProducts(actor.Role) {
		return nil, domain.ErrForbidden
	}

	qty, err := in.quantity()
	if err != nil {
		return nil, err
	}

	var (
		out     *domain.Product
		renamed bool
	)
	err = s.tx.WithinTx(ctx, func(ctx context.Context, st domain.Store) error {
		p, err := st.Products().Get(ctx, id)
		if err != nil {
			return err
		}
		before := p.Quantity
		beforeName := p.Name

		p.Name = strings.TrimSpace(in.Name)
		p.Quantity = qty
		if in.Barcode != nil {
			p.Barcode = nil
			if b := strings.TrimSpace(*in.Barcode); b != "" {
				p.Barcode = &b
			}
		}
		if len(in.Image) > 0 {
			p.Image = in.Image
		}
		if err := p.Validate(); err != nil {
			return err
		}
		if err := ensureBarcodeFree(ctx, st, p.Barcode, p.ID); err != nil {
			return err
		}
		p.UpdatedAtUtc = time.Now().UTC()

		if err := st.Products().Update(ctx, p); err != nil {
			return err
		}
		if p.Quantity != before {
			if err := NewOutboxWriter(st.Outbox()).Enqueue(ctx,
				domain.NewCatalogStockAdjustedEvent(p, "MANUAL_ADJUSTMENT")); err != nil {
				return err
			}
		}
		out = p
		renamed = p.Name != beforeName
		return nil
	})
	if err != nil {
		return nil, err
	}
	if renamed {
		s.cache.Invalidate(ctx)
	}
	return out, nil
}

// Image returns the stored picture of a product; ErrNotFound when there is none.
func (s *ProductService) Image(ctx context.Context, id int64) ([]byte, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.HasImage() {
		return nil, domain.ErrNotFound
	}
	return p.Image, nil
}

// Delete refuses while any package line item still references the product.
func (s *ProductService) Delete(ctx context.Context, actor domain.Actor, id int64) error {
	if !domain.CanManageProducts(actor.Role) {
		return domain.ErrForbidden
	}
	err := s.tx.WithinTx(ctx, func(ctx context.Context, st domain.Store) error {
		p, err := st.Products().Get(ctx, id)
		if err != nil {
			return err
		}
		used, err := st.Products().HasPackageReferences(ctx, id)
		if err != nil {
			return err
		}
		if used {
			pkgIDs, err := st.Packages().IDsContainingProduct(ctx, id)
			if err != nil {
				return err
			}
			return &domain.ProductInUseError{ProductName: p.Name, PackageIDs: pkgIDs}
		}
		if err := st.Products().Delete(ctx, id); err != nil {
			return err
		}
		log.Printf("ProductService: product id=%d %q deleted by employee=%d", id, p.Name, actor.EmployeeID)
		return nil
	})
	if err != nil {
		return err
	}
	s.cache.Invalidate(ctx)
	return nil
}

// UpsertFromCatalog loads a product announced by the catalog, keyed by barcode.
// An existing product gets the catalog's quantity as its initial load.
func (s *ProductService) UpsertFromCatalog(ctx context.Context, payload domain.ProductCreatedPayload) (*domain.Product, error) {
	var (
		out     *domain.Product
		renamed bool
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context, st domain.Store) error {
		current, err := st.Products().GetByBarcode(ctx, payload.Sku)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			p, err := domain.NewProduct(payload.Name, payload.StockQuantity, payload.Sku)
			if err != nil {
				return err
			}
			if err := st.Products().Insert(ctx, p); err != nil {
				return err
			}
			out = p
		case err != nil:
			return err
		default:
			// si ya existe, sobreescribimos la cantidad por la inicial (policy)
			current.Quantity = payload.StockQuantity
			if name := strings.TrimSpace(payload.Name); name != "" && name != current.Name {
				current.Name = name
				renamed = true
			}
			if err := current.Validate(); err != nil {
				return err
			}
			current.UpdatedAtUtc = time.Now().UTC()
			if err := st.Products().Update(ctx, current); err != nil {
				return err
			}
			out = current
		}
		return NewOutboxWriter(st.Outbox()).Enqueue(ctx,
			domain.NewCatalogStockAdjustedEvent(out, "INITIAL_LOAD"))
	})
	if err != nil {
		return nil, err
	}
	if renamed {
		s.cache.Invalidate(ctx)
	}
	return out, nil
}

func ensureBarcodeFree(ctx context.Context, st domain.Store, barcode *string, selfID int64) error {
	if barcode == nil {
		return nil
	}
	other, err := st.Products().GetByBarcode(ctx, *barcode)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if other.ID != selfID {
		return domain.NewValidationError("codigo_barras", "el código de barras ya está registrado")
	}
	return nil
}
