package memstore

import (
	"context"
	"sort"
	"sync"

	"github.com/RodolfoDevApp/eventshop-packages-go/internal/domain"
)

type EmployeeRepository struct {
	mu     sync.RWMutex
	rows   map[int64]domain.Employee
	nextID int64
}

func NewEmployeeRepository() *EmployeeRepository {
	return &EmployeeRepository{rows: map[int64]domain.Employee{}}
}

func (r *EmployeeRepository) Get(_ context.Context, id int64) (*domain.Employee, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.rows[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &e, nil
}

func (r *EmployeeRepository) GetByUsername(_ context.Context, username string) (*domain.Employee, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, e := range r.rows {
		if e.Username == username {
			return &e, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *EmployeeRepository) List(_ context.Context) ([]domain.Employee, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Employee, 0, len(r.rows))
	for _, e := range r.rows {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *EmployeeRepository) Insert(_ context.Context, e *domain.Employee) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, other := range r.rows {
		if other.Username == e.Username {
			return domain.NewValidationError("nombre_usuario", "el usuario ya existe")
		}
	}
	r.nextID++
	e.ID = r.nextID
	r.rows[e.ID] = *e
	return nil
}

func (r *EmployeeRepository) Update(_ context.Context, e *domain.Employee) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[e.ID]; !ok {
		return domain.ErrNotFound
	}
	r.rows[e.ID] = *e
	return nil
}

func (r *EmployeeRepository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.rows, id)
	return nil
}
