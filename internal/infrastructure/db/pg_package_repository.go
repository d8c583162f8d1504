package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/RodolfoDevApp/eventshop-packages-go/internal/domain"
)

type PgPackageRepository struct {
	q querier
}

func (r *PgPackageRepository) Get(ctx context.Context, id int64) (*domain.Package, error) {
	return r.get(ctx, id, false)
}

func (r *PgPackageRepository) GetForUpdate(ctx context.Context, id int64) (*domain.Package, error) {
	return r.get(ctx, id, true)
}

func (r *PgPackageRepository) get(ctx context.Context, id int64, lock bool) (*domain.Package, error) {
	q := `
        select id, branch, status, created_at_utc, confirmed_at_utc
        from packages
        where id = $1
    `
	if lock {
		q += ` for update`
	}

	var p domain.Package
	var status string
	if err := r.q.QueryRow(ctx, q, id).Scan(
		&p.ID,
		&p.Branch,
		&status,
		&p.CreatedAtUtc,
		&p.ConfirmedAtUtc,
	); err != nil {
		return nil, mapPgError(err)
	}
	p.Status = domain.PackageStatus(status)

	lines, err := r.loadLines(ctx, []int64{p.ID})
	if err != nil {
		return nil, err
	}
	p.Lines = lines[p.ID]
	return &p, nil
}

// loadLines returns the line items of the given packages keyed by package id.
func (r *PgPackageRepository) loadLines(ctx context.Context, packageIDs []int64) (map[int64][]domain.LineItem, error) {
	q := `
        select l.id, l.package_id, l.product_id,
               coalesce(p.name, l.product_name) as product_name,
               l.quantity
        from package_line_items l
        left join products p on p.id = l.product_id
        where l.package_id = any($1)
        order by l.package_id, l.id
    `
	rows, err := r.q.Query(ctx, q, packageIDs)
	if err != nil {
		return nil, mapPgError(err)
	}
	defer rows.Close()

	result := make(map[int64][]domain.LineItem, len(packageIDs))
	for rows.Next() {
		var l domain.LineItem
		if err := rows.Scan(&l.ID, &l.PackageID, &l.ProductID, &l.ProductName, &l.Quantity); err != nil {
			return nil, mapPgError(err)
		}
		result[l.PackageID] = append(result[l.PackageID], l)
	}
	return result, mapPgError(rows.Err())
}

func (r *PgPackageRepository) Insert(ctx context.Context, p *domain.Package) error {
	q := `
        insert into packages (branch, status, created_at_utc, confirmed_at_utc)
        values ($1,$2,$3,$4)
        returning id
    `
	if err := r.q.QueryRow(ctx, q,
		p.Branch,
		string(p.Status),
		p.CreatedAtUtc,
		p.ConfirmedAtUtc,
	).Scan(&p.ID); err != nil {
		return fmt.Errorf("insert package: %w", mapPgError(err))
	}

	lq := `
        insert into package_line_items (package_id, product_id, product_name, quantity)
        values ($1,$2,$3,$4)
        returning id
    `
	for i := range p.Lines {
		l := &p.Lines[i]
		l.PackageID = p.ID
		if err := r.q.QueryRow(ctx, lq,
			l.PackageID,
			l.ProductID,
			l.ProductName,
			l.Quantity,
		).Scan(&l.ID); err != nil {
			return fmt.Errorf("insert line item: %w", mapPgError(err))
		}
	}
	return nil
}

// SaveConfirmation persists branch, status and confirmation time of a confirmed draft.
func (r *PgPackageRepository) SaveConfirmation(ctx context.Context, p *domain.Package) error {
	q := `
        update packages
        set branch = $2,
            status = $3,
            confirmed_at_utc = $4
        where id = $1
          and status = $5
    `
	tag, err := r.q.Exec(ctx, q,
		p.ID,
		p.Branch,
		string(p.Status),
		p.ConfirmedAtUtc,
		string(domain.PackageDraft),
	)
	if err != nil {
		return fmt.Errorf("confirm package %d: %w", p.ID, mapPgError(err))
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrInvalidTransition
	}
	return nil
}

// Delete removes the package; line items go with it through the cascade.
func (r *PgPackageRepository) Delete(ctx context.Context, id int64) (bool, error) {
	tag, err := r.q.Exec(ctx, `delete from packages where id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete package %d: %w", id, mapPgError(err))
	}
	return tag.RowsAffected() > 0, nil
}

func (r *PgPackageRepository) ListConfirmed(ctx context.Context) ([]domain.Package, error) {
	q := `
        select id, branch, status, created_at_utc, confirmed_at_utc
        from packages
        where status = $1
        order by created_at_utc desc, id desc
    `
	rows, err := r.q.Query(ctx, q, string(domain.PackageConfirmed))
	if err != nil {
		return nil, mapPgError(err)
	}
	pkgs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Package, error) {
		var p domain.Package
		var status string
		err := row.Scan(&p.ID, &p.Branch, &status, &p.CreatedAtUtc, &p.ConfirmedAtUtc)
		p.Status = domain.PackageStatus(status)
		return p, err
	})
	if err != nil {
		return nil, mapPgError(err)
	}
	if len(pkgs) == 0 {
		return pkgs, nil
	}

	ids := make([]int64, 0, len(pkgs))
	for _, p := range pkgs {
		ids = append(ids, p.ID)
	}
	lines, err := r.loadLines(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range pkgs {
		pkgs[i].Lines = lines[pkgs[i].ID]
	}
	return pkgs, nil
}

func (r *PgPackageRepository) IDsContainingProduct(ctx context.Context, productID int64) ([]int64, error) {
	q := `
        select distinct package_id
        from package_line_items
        where product_id = $1
        order by package_id
    `
	rows, err := r.q.Query(ctx, q, productID)
	if err != nil {
		return nil, mapPgError(err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	return ids, mapPgError(err)
}

func (r *PgPackageRepository) DraftIDsCreatedBefore(ctx context.Context, cutoff time.Time) ([]int64, error) {
	q := `
        select id
        from packages
        where status = $1
          and created_at_utc < $2
        order by id
        for update skip locked
    `
	rows, err := r.q.Query(ctx, q, string(domain.PackageDraft), cutoff)
	if err != nil {
		return nil, mapPgError(err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	return ids, mapPgError(err)
}
