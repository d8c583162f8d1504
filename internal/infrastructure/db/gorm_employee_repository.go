package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/RodolfoDevApp/eventshop-packages-go/internal/domain"
)

type GormEmployeeRepository struct {
	db *gorm.DB
}

func NewGormEmployeeRepository(db *gorm.DB) *GormEmployeeRepository {
	return &GormEmployeeRepository{db: db}
}

func (r *GormEmployeeRepository) Get(ctx context.Context, id int64) (*domain.Employee, error) {
	var row employeeRow
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, mapGormError(err)
	}
	return row.toDomain(), nil
}

func (r *GormEmployeeRepository) GetByUsername(ctx context.Context, username string) (*domain.Employee, error) {
	var row employeeRow
	if err := r.db.WithContext(ctx).First(&row, "username = ?", username).Error; err != nil {
		return nil, mapGormError(err)
	}
	return row.toDomain(), nil
}

func (r *GormEmployeeRepository) List(ctx context.Context) ([]domain.Employee, error) {
	var rows []employeeRow
	if err := r.db.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, mapGormError(err)
	}
	out := make([]domain.Employee, 0, len(rows))
	for i := range rows {
		out = append(out, *rows[i].toDomain())
	}
	return out, nil
}

func (r *GormEmployeeRepository) Insert(ctx context.Context, e *domain.Employee) error {
	row := employeeRowFrom(e)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("insert employee: %w", mapGormError(err))
	}
	e.ID = row.ID
	return nil
}

func (r *GormEmployeeRepository) Update(ctx context.Context, e *domain.Employee) error {
	row := employeeRowFrom(e)
	res := r.db.WithContext(ctx).Model(&employeeRow{}).Where("id = ?", e.ID).Select("*").Omit("id", "registered_at").Updates(&row)
	if res.Error != nil {
		return fmt.Errorf("update employee %d: %w", e.ID, mapGormError(res.Error))
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *GormEmployeeRepository) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&employeeRow{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("delete employee %d: %w", id, mapGormError(res.Error))
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func mapGormError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return domain.NewValidationError("nombre_usuario", "el usuario ya existe")
	}
	return err
}

func (r *employeeRow) toDomain() *domain.Employee {
	return &domain.Employee{
		ID:            r.ID,
		Username:      r.Username,
		PasswordHash:  r.PasswordHash,
		Phone:         r.Phone,
		Role:          domain.Role(r.Role),
		Active:        r.Active,
		FirstName:     r.FirstName,
		LastName:      r.LastName,
		SecondSurname: r.SecondSurname,
		Email:         r.Email,
		Neighborhood:  r.Neighborhood,
		Street:        r.Street,
		ExteriorNo:    r.ExteriorNo,
		Picture:       r.Picture,
		RegisteredAt:  r.RegisteredAt,
	}
}

func employeeRowFrom(e *domain.Employee) employeeRow {
	return employeeRow{
		ID:            e.ID,
		Username:      e.Username,
		PasswordHash:  e.PasswordHash,
		Phone:         e.Phone,
		Role:          string(e.Role),
		Active:        e.Active,
		FirstName:     e.FirstName,
		LastName:      e.LastName,
		SecondSurname: e.SecondSurname,
		Email:         e.Email,
		Neighborhood:  e.Neighborhood,
		Street:        e.Street,
		ExteriorNo:    e.ExteriorNo,
		Picture:       e.Picture,
		RegisteredAt:  e.RegisteredAt,
	}
}
