package db

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/RodolfoDevApp/eventshop-packages-go/internal/domain"
)

type PgProductRepository struct {
	q querier
}

const productColumns = `id, name, barcode, quantity, image, created_at_utc, updated_at_utc`

func scanProduct(row pgx.Row) (*domain.Product, error) {
	var p domain.Product
	if err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Barcode,
		&p.Quantity,
		&p.Image,
		&p.CreatedAtUtc,
		&p.UpdatedAtUtc,
	); err != nil {
		return nil, mapPgError(err)
	}
	return &p, nil
}

func (r *PgProductRepository) Get(ctx context.Context, id int64) (*domain.Product, error) {
	q := `select ` + productColumns + ` from products where id = $1`
	return scanProduct(r.q.QueryRow(ctx, q, id))
}

func (r *PgProductRepository) GetMany(ctx context.Context, ids []int64) (map[int64]*domain.Product, error) {
	q := `select ` + productColumns + ` from products where id = any($1)`
	return r.queryMap(ctx, q, ids)
}

// LockMany takes the row locks in id order so concurrent confirmations cannot deadlock.
func (r *PgProductRepository) LockMany(ctx context.Context, ids []int64) (map[int64]*domain.Product, error) {
	sorted := append([]int64(nil), ids...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	q := `select ` + productColumns + `
        from products
        where id = any($1)
        order by id
        for update`
	return r.queryMap(ctx, q, sorted)
}

func (r *PgProductRepository) queryMap(ctx context.Context, q string, ids []int64) (map[int64]*domain.Product, error) {
	result := make(map[int64]*domain.Product, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	rows, err := r.q.Query(ctx, q, ids)
	if err != nil {
		return nil, mapPgError(err)
	}
	defer rows.Close()

	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		result[p.ID] = p
	}
	// missing ids are simply absent
	return result, mapPgError(rows.Err())
}

func (r *PgProductRepository) GetByBarcode(ctx context.Context, barcode string) (*domain.Product, error) {
	q := `select ` + productColumns + ` from products where barcode = $1`
	return scanProduct(r.q.QueryRow(ctx, q, barcode))
}

func (r *PgProductRepository) List(ctx context.Context) ([]domain.Product, error) {
	q := `select ` + productColumns + ` from products order by name, id`
	rows, err := r.q.Query(ctx, q)
	if err != nil {
		return nil, mapPgError(err)
	}
	defer rows.Close()

	var out []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, mapPgError(rows.Err())
}

func (r *PgProductRepository) Insert(ctx context.Context, p *domain.Product) error {
	now := time.Now().UTC()
	if p.CreatedAtUtc.IsZero() {
		p.CreatedAtUtc = now
	}
	if p.UpdatedAtUtc.IsZero() {
		p.UpdatedAtUtc = now
	}
	q := `
        insert into products (name, barcode, quantity, image, created_at_utc, updated_at_utc)
        values ($1,$2,$3,$4,$5,$6)
        returning id
    `
	err := r.q.QueryRow(ctx, q,
		p.Name,
		p.Barcode,
		p.Quantity,
		p.Image,
		p.CreatedAtUtc,
		p.UpdatedAtUtc,
	).Scan(&p.ID)
	if err != nil {
		return fmt.Errorf("insert product: %w", mapPgError(err))
	}
	return nil
}

func (r *PgProductRepository) Update(ctx context.Context, p *domain.Product) error {
	q := `
        update products
        set name = $2,
            barcode = $3,
            quantity = $4,
            image = coalesce($5, image),
            updated_at_utc = $6
        where id = $1
    `
	tag, err := r.q.Exec(ctx, q,
		p.ID,
		p.Name,
		p.Barcode,
		p.Quantity,
		p.Image,
		p.UpdatedAtUtc,
	)
	if err != nil {
		return fmt.Errorf("update product %d: %w", p.ID, mapPgError(err))
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *PgProductRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.q.Exec(ctx, `delete from products where id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete product %d: %w", id, mapPgError(err))
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *PgProductRepository) DecrementIfAvailable(ctx context.Context, id int64, amount int) (bool, error) {
	q := `
        update products
        set quantity = quantity - $2,
            updated_at_utc = now()
        where id = $1
          and quantity >= $2
    `
	tag, err := r.q.Exec(ctx, q, id, amount)
	if err != nil {
		return false, fmt.Errorf("decrement product %d: %w", id, mapPgError(err))
	}
	return tag.RowsAffected() == 1, nil
}

func (r *PgProductRepository) HasPackageReferences(ctx context.Context, id int64) (bool, error) {
	q := `select exists(select 1 from package_line_items where product_id = $1)`
	var exists bool
	if err := r.q.QueryRow(ctx, q, id).Scan(&exists); err != nil {
		return false, mapPgError(err)
	}
	return exists, nil
}
