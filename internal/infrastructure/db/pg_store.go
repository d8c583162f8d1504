package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/RodolfoDevApp/eventshop-packages-go/internal/domain"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PgStore runs units of work on a pgx pool.
type PgStore struct {
	pool *pgxpool.Pool
}

func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

func (s *PgStore) WithinTx(ctx context.Context, fn func(ctx context.Context, st domain.Store) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(ctx, &pgTxStore{q: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", mapPgError(err))
	}
	return nil
}

// Outbox returns a repository outside any transaction, for the dispatcher.
func (s *PgStore) Outbox() *PgOutboxRepository {
	return NewPgOutboxRepository(s.pool)
}

type pgTxStore struct {
	q querier
}

func (s *pgTxStore) Products() domain.ProductRepository { return &PgProductRepository{q: s.q} }
func (s *pgTxStore) Packages() domain.PackageRepository { return &PgPackageRepository{q: s.q} }
func (s *pgTxStore) Outbox() domain.OutboxRepository    { return &PgOutboxRepository{q: s.q} }

const (
	pgForeignKeyViolation = "23503"
	pgUniqueViolation     = "23505"
	pgCheckViolation      = "23514"
)

// mapPgError translates driver errors into domain errors.
func mapPgError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return domain.NewValidationError(pgErr.ColumnName, "el valor ya está registrado")
		case pgForeignKeyViolation:
			return fmt.Errorf("%s: %w", pgErr.ConstraintName, domain.ErrReferenced)
		case pgCheckViolation:
			return fmt.Errorf("%s: %w", pgErr.ConstraintName, domain.ErrStockConflict)
		}
	}
	return err
}
