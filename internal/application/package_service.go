package application

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/rodolfodevapp/eventshop-messaging-go/core/primitives"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"

	"github.com/RodolfoDevApp/eventshop-packages-go/internal/domain"
)

const instrumentationName = "github.com/RodolfoDevApp/eventshop-packages-go/internal/application"

// SelectionItem is one entry of the product selection sent by the products page.
type SelectionItem struct {
	ProductID int64 `json:"id"`
	Quantity  int   `json:"cantidad"`
}

type PackageService struct {
	tx     domain.TxRunner
	cache  domain.PackageListCache
	tracer trace.Tracer

	confirmedCounter metric.Int64Counter
	shortageCounter  metric.Int64Counter

	now func() time.Time
}

func NewPackageService(tx domain.TxRunner, cache domain.PackageListCache) *PackageService {
	if cache == nil {
		cache = nopListCache{}
	}
	meter := otel.Meter(instrumentationName)
	return &PackageService{
		tx:               tx,
		cache:            cache,
		tracer:           otel.Tracer(instrumentationName),
		confirmedCounter: int64Counter(meter, "packages.confirmed", "Packages confirmed and debited from inventory"),
		shortageCounter:  int64Counter(meter, "packages.shortages", "Generate/confirm attempts rejected for insufficient stock"),
		now:              func() time.Time { return time.Now().UTC() },
	}
}

// Generate validates the selection against current inventory and stores a draft package.
// Inventory is not debited.
func (s *PackageService) Generate(
	ctx context.Context,
	actor domain.Actor,
	selection []SelectionItem,
) (*domain.Package, error) {
	ctx, span := s.tracer.Start(ctx, "package.generate")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("actor.id", actor.EmployeeID),
		attribute.Int("selection.size", len(selection)),
	)

	if !domain.CanGeneratePackages(actor.Role) {
		return nil, domain.ErrForbidden
	}
	if err := validateSelection(selection); err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(selection))
	for _, item := range selection {
		ids = append(ids, item.ProductID)
	}

	var draft *domain.Package
	err := s.tx.WithinTx(ctx, func(ctx context.Context, st domain.Store) error {
		products, err := st.Products().GetMany(ctx, ids)
		if err != nil {
			return err
		}

		// Validar disponibilidad completa antes de escribir nada
		if shortages := selectionShortages(selection, products); len(shortages) > 0 {
			return &domain.InsufficientStockError{Shortages: shortages}
		}

		pkg := domain.NewDraftPackage(s.now())
		for _, item := range selection {
			pkg.AddLine(products[item.ProductID], item.Quantity)
		}
		if err := st.Packages().Insert(ctx, pkg); err != nil {
			return err
		}
		draft = pkg
		return nil
	})
	if err != nil {
		s.recordFailure(ctx, span, err)
		return nil, err
	}

	span.SetAttributes(attribute.Int64("package.id", draft.ID))
	log.Printf("PackageService: draft %s created by employee=%d with %d lines",
		domain.PackageCode(draft.ID), actor.EmployeeID, len(draft.Lines))
	return draft, nil
}

// Confirm re-validates the draft against current stock and, when every line can
// still be supplied, debits inventory and assigns the branch in one transaction.
// When any line is short the draft is deleted and the full shortage list returned.
// On a blank branch the draft is returned together with the validation error.
func (s *PackageService) Confirm(
	ctx context.Context,
	actor domain.Actor,
	packageID int64,
	branch string,
) (*domain.Package, error) {
	ctx, span := s.tracer.Start(ctx, "package.confirm")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("actor.id", actor.EmployeeID),
		attribute.Int64("package.id", packageID),
	)

	if !domain.CanGeneratePackages(actor.Role) {
		return nil, domain.ErrForbidden
	}

	var (
		result    *domain.Package
		shortages []domain.Shortage
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context, st domain.Store) error {
		pkg, err := st.Packages().GetForUpdate(ctx, packageID)
		if err != nil {
			return err
		}
		if pkg.Status != domain.PackageDraft {
			return domain.ErrInvalidTransition
		}
		if strings.TrimSpace(branch) == "" {
			result = pkg
			return domain.NewValidationError("sucursal", "la sucursal es obligatoria")
		}

		// Nunca confiar en lo validado en Generate: releer con lock
		current, err := st.Products().LockMany(ctx, pkg.ProductIDs())
		if err != nil {
			return err
		}

		if sh := pkg.Shortages(current); len(sh) > 0 {
			if _, err := st.Packages().Delete(ctx, pkg.ID); err != nil {
				return err
			}
			if err := pkg.Discard(); err != nil {
				return err
			}
			result = pkg
			shortages = sh
			// el descarte del borrador sí se confirma
			return nil
		}

		for _, l := range pkg.Lines {
			ok, err := st.Products().DecrementIfAvailable(ctx, l.ProductID, l.Quantity)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("product %d: %w", l.ProductID, domain.ErrStockConflict)
			}
			if err := current[l.ProductID].Debit(l.Quantity); err != nil {
				return fmt.Errorf("product %d: %w", l.ProductID, err)
			}
		}

		if err := pkg.Confirm(branch, s.now()); err != nil {
			return err
		}
		if err := st.Packages().SaveConfirmation(ctx, pkg); err != nil {
			return err
		}

		events := []primitives.Event{domain.NewPackageConfirmedEvent(pkg, actor)}
		for _, id := range pkg.ProductIDs() {
			events = append(events, domain.NewCatalogStockAdjustedEvent(current[id], "PACKAGE_CONFIRMED"))
		}
		if err := NewOutboxWriter(st.Outbox()).Enqueue(ctx, events...); err != nil {
			return err
		}

		result = pkg
		return nil
	})
	if err != nil {
		s.recordFailure(ctx, span, err)
		if domain.IsValidation(err) {
			return result, err
		}
		return nil, err
	}

	if len(shortages) > 0 {
		err := &domain.InsufficientStockError{Shortages: shortages}
		s.recordFailure(ctx, span, err)
		log.Printf("PackageService: draft %s discarded on confirm: %v", domain.PackageCode(packageID), err)
		return result, err
	}

	s.cache.Invalidate(ctx)
	s.confirmedCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("branch", result.Branch)))
	log.Printf("PackageService: %s confirmed for branch=%q by employee=%d",
		domain.PackageCode(result.ID), result.Branch, actor.EmployeeID)
	return result, nil
}

// Cancel discards a draft. Cancelling a missing package is a no-op.
func (s *PackageService) Cancel(ctx context.Context, actor domain.Actor, packageID int64) error {
	ctx, span := s.tracer.Start(ctx, "package.cancel")
	defer span.End()
	span.SetAttributes(attribute.Int64("package.id", packageID))

	if !domain.CanGeneratePackages(actor.Role) {
		return domain.ErrForbidden
	}

	err := s.tx.WithinTx(ctx, func(ctx context.Context, st domain.Store) error {
		pkg, err := st.Packages().GetForUpdate(ctx, packageID)
		if errors.Is(err, domain.ErrNotFound) {
			// idempotente
			return nil
		}
		if err != nil {
			return err
		}
		if err := pkg.Discard(); err != nil {
			return err
		}
		_, err = st.Packages().Delete(ctx, packageID)
		return err
	})
	if err != nil {
		s.recordFailure(ctx, span, err)
		return err
	}
	return nil
}

// Delete removes a package of any status. Confirmed stock is not refunded.
func (s *PackageService) Delete(ctx context.Context, actor domain.Actor, packageID int64) error {
	ctx, span := s.tracer.Start(ctx, "package.delete")
	defer span.End()
	span.SetAttributes(attribute.Int64("package.id", packageID))

	if !domain.CanDeletePackages(actor.Role) {
		return domain.ErrForbidden
	}

	deleted := false
	err := s.tx.WithinTx(ctx, func(ctx context.Context, st domain.Store) error {
		ok, err := st.Packages().Delete(ctx, packageID)
		if err != nil || !ok {
			return err
		}
		deleted = true
		return NewOutboxWriter(st.Outbox()).Enqueue(ctx, domain.NewPackageDeletedEvent(packageID, actor))
	})
	if err != nil {
		s.recordFailure(ctx, span, err)
		return err
	}
	if deleted {
		s.cache.Invalidate(ctx)
		log.Printf("PackageService: %s deleted by employee=%d", domain.PackageCode(packageID), actor.EmployeeID)
	}
	return nil
}

func (s *PackageService) Get(ctx context.Context, actor domain.Actor, packageID int64) (*domain.Package, error) {
	if !actor.Role.Valid() {
		return nil, domain.ErrForbidden
	}
	var pkg *domain.Package
	err := s.tx.WithinTx(ctx, func(ctx context.Context, st domain.Store) error {
		var err error
		pkg, err = st.Packages().Get(ctx, packageID)
		return err
	})
	return pkg, err
}

// List returns confirmed packages with at least one line, newest first.
func (s *PackageService) List(ctx context.Context, actor domain.Actor) ([]domain.Package, error) {
	if !actor.Role.Valid() {
		return nil, domain.ErrForbidden
	}
	cached, generation, ok := s.cache.Get(ctx)
	if ok {
		return cached, nil
	}

	var all []domain.Package
	err := s.tx.WithinTx(ctx, func(ctx context.Context, st domain.Store) error {
		var err error
		all, err = st.Packages().ListConfirmed(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}

	listable := make([]domain.Package, 0, len(all))
	for _, p := range all {
		if p.IsListable() {
			listable = append(listable, p)
		}
	}
	s.cache.Set(ctx, generation, listable)
	return listable, nil
}

// SweepExpiredDrafts deletes drafts older than ttl. A non-positive ttl disables it.
func (s *PackageService) SweepExpiredDrafts(ctx context.Context, ttl time.Duration) (int, error) {
	if ttl <= 0 {
		return 0, nil
	}
	cutoff := s.now().Add(-ttl)

	removed := 0
	err := s.tx.WithinTx(ctx, func(ctx context.Context, st domain.Store) error {
		ids, err := st.Packages().DraftIDsCreatedBefore(ctx, cutoff)
		if err != nil {
			return err
		}
		for _, id := range ids {
			ok, err := st.Packages().Delete(ctx, id)
			if err != nil {
				return err
			}
			if ok {
				removed++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

func (s *PackageService) recordFailure(ctx context.Context, span trace.Span, err error) {
	if st, ok := domain.AsInsufficientStock(err); ok {
		s.shortageCounter.Add(ctx, 1)
		span.SetAttributes(attribute.Int("shortages", len(st.Shortages)))
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

func validateSelection(selection []SelectionItem) error {
	if len(selection) == 0 {
		return domain.NewValidationError("productos", "selecciona al menos un producto")
	}
	seen := make(map[int64]struct{}, len(selection))
	for _, item := range selection {
		if item.Quantity <= 0 {
			return domain.NewValidationError("cantidad",
				fmt.Sprintf("la cantidad del producto %d debe ser mayor a cero", item.ProductID))
		}
		if _, dup := seen[item.ProductID]; dup {
			return domain.NewValidationError("productos",
				fmt.Sprintf("el producto %d aparece más de una vez", item.ProductID))
		}
		seen[item.ProductID] = struct{}{}
	}
	return nil
}

func selectionShortages(selection []SelectionItem, products map[int64]*domain.Product) []domain.Shortage {
	var out []domain.Shortage
	for _, item := range selection {
		p, ok := products[item.ProductID]
		if !ok {
			out = append(out, domain.Shortage{
				Name:      domain.PlaceholderProductName(item.ProductID),
				Requested: item.Quantity,
			})
			continue
		}
		if !p.CanSupply(item.Quantity) {
			out = append(out, domain.Shortage{Name: p.Name, Requested: item.Quantity, Available: p.Quantity})
		}
	}
	return out
}

func int64Counter(meter metric.Meter, name, desc string) metric.Int64Counter {
	c, err := meter.Int64Counter(name, metric.WithDescription(desc))
	if err != nil {
		log.Printf("metrics: counter %s unavailable: %v", name, err)
		return noop.Int64Counter{}
	}
	return c
}

type nopListCache struct{}

func (nopListCache) Get(context.Context) ([]domain.Package, int64, bool) { return nil, 0, false }
func (nopListCache) Set(context.Context, int64, []domain.Package)        {}
func (nopListCache) Invalidate(context.Context)                          {}
