package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type ProductRepository interface {
	Get(ctx context.Context, id int64) (*Product, error)
	// GetMany returns the products found; missing ids are simply absent.
	GetMany(ctx context.Context, ids []int64) (map[int64]*Product, error)
	// LockMany is GetMany holding row locks until the transaction ends.
	LockMany(ctx context.Context, ids []int64) (map[int64]*Product, error)
	GetByBarcode(ctx context.Context, barcode string) (*Product, error)
	List(ctx context.Context) ([]Product, error)
	Insert(ctx context.Context, p *Product) error
	Update(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id int64) error
	// DecrementIfAvailable applies quantity -= amount only when quantity >= amount.
	DecrementIfAvailable(ctx context.Context, id int64, amount int) (bool, error)
	HasPackageReferences(ctx context.Context, id int64) (bool, error)
}

type PackageRepository interface {
	Get(ctx context.Context, id int64) (*Package, error)
	// GetForUpdate is Get holding the package row lock until the transaction ends.
	GetForUpdate(ctx context.Context, id int64) (*Package, error)
	Insert(ctx context.Context, p *Package) error
	SaveConfirmation(ctx context.Context, p *Package) error
	Delete(ctx context.Context, id int64) (bool, error)
	ListConfirmed(ctx context.Context) ([]Package, error)
	IDsContainingProduct(ctx context.Context, productID int64) ([]int64, error)
	DraftIDsCreatedBefore(ctx context.Context, cutoff time.Time) ([]int64, error)
}

type OutboxRepository interface {
	Insert(ctx context.Context, msg OutboxMessage) error
	GetPendingBatch(ctx context.Context, maxRetry, batchSize int) ([]OutboxMessage, error)
	Save(ctx context.Context, msg OutboxMessage) error
}

type EmployeeRepository interface {
	Get(ctx context.Context, id int64) (*Employee, error)
	GetByUsername(ctx context.Context, username string) (*Employee, error)
	List(ctx context.Context) ([]Employee, error)
	Insert(ctx context.Context, e *Employee) error
	Update(ctx context.Context, e *Employee) error
	Delete(ctx context.Context, id int64) error
}

// Store groups the repositories that share one transaction.
type Store interface {
	Products() ProductRepository
	Packages() PackageRepository
	Outbox() OutboxRepository
}

// TxRunner runs fn inside a single transaction: fn's error rolls everything back.
type TxRunner interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, s Store) error) error
}

// PackageListCache caches the confirmed-package listing per generation.
// Invalidate starts a new generation, so a listing read before it and stored
// afterwards with Set lands on a generation nobody reads anymore.
type PackageListCache interface {
	// Get returns the current generation and, when present, its listing.
	Get(ctx context.Context) (pkgs []Package, generation int64, ok bool)
	Set(ctx context.Context, generation int64, pkgs []Package)
	Invalidate(ctx context.Context)
}

type OutboxMessage struct {
	ID             uuid.UUID
	Type           string
	PayloadJSON    string
	OccurredAtUtc  int64 // unix seconds
	RetryCount     int
	ProcessedAtUtc *int64
}
