package application

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/RodolfoDevApp/eventshop-packages-go/internal/domain"
)

// NewEmployeeInput is the registration form of an employee.
type NewEmployeeInput struct {
	Username string `json:"nombre_usuario" form:"nombre_usuario"`
	Password string `json:"contrasena" form:"contrasena"`
	Phone    string `json:"telefono" form:"telefono"`
	Role     string `json:"rol" form:"rol"`
	domain.EmployeeProfile
}

type EmployeeService struct {
	repo domain.EmployeeRepository
	cost int
}

func NewEmployeeService(repo domain.EmployeeRepository) *EmployeeService {
	return &EmployeeService{repo: repo, cost: bcrypt.DefaultCost}
}

// ResolveActor returns the active employee behind an authenticated request.
func (s *EmployeeService) ResolveActor(ctx context.Context, employeeID int64) (domain.Actor, error) {
	e, err := s.repo.Get(ctx, employeeID)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Actor{}, domain.ErrForbidden
	}
	if err != nil {
		return domain.Actor{}, err
	}
	if !e.Active || !e.Role.Valid() {
		return domain.Actor{}, domain.ErrForbidden
	}
	return e.Actor(), nil
}

func (s *EmployeeService) List(ctx context.Context, actor domain.Actor) ([]domain.Employee, error) {
	if !domain.CanManageEmployees(actor.Role) {
		return nil, domain.ErrForbidden
	}
	return s.repo.List(ctx)
}

// Add registers an employee. A role the actor may not grant is lowered to user.
func (s *EmployeeService) Add(ctx context.Context, actor domain.Actor, in NewEmployeeInput) (*domain.Employee, error) {
	if !domain.CanManageEmployees(actor.Role) {
		return nil, domain.ErrForbidden
	}

	username := strings.TrimSpace(in.Username)
	if username == "" {
		return nil, domain.NewValidationError("nombre_usuario", "el usuario es obligatorio")
	}
	if in.Password == "" {
		return nil, domain.NewValidationError("contrasena", "la contraseña es obligatoria")
	}
	if strings.TrimSpace(in.Phone) == "" {
		return nil, domain.NewValidationError("telefono", "el teléfono es obligatorio")
	}

	_, err := s.repo.GetByUsername(ctx, username)
	if err == nil {
		return nil, domain.NewValidationError("nombre_usuario", "el usuario ya existe")
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	role, ok := domain.ParseRole(in.Role)
	if !ok || !domain.CanChangeRole(actor.Role, role) {
		role = domain.RoleUser
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	e := &domain.Employee{
		Username:     username,
		PasswordHash: string(hash),
		Phone:        strings.TrimSpace(in.Phone),
		Role:         role,
		Active:       true,
		RegisteredAt: time.Now().UTC(),
	}
	e.ApplyProfile(in.EmployeeProfile)

	if err := s.repo.Insert(ctx, e); err != nil {
		return nil, err
	}
	log.Printf("EmployeeService: employee %s (%s) added by employee=%d", e.Username, e.Role, actor.EmployeeID)
	return e, nil
}

// Edit updates the profile. Only a boss may change the role here.
func (s *EmployeeService) Edit(
	ctx context.Context,
	actor domain.Actor,
	id int64,
	profile domain.EmployeeProfile,
	role string,
) (*domain.Employee, error) {
	if !domain.CanManageEmployees(actor.Role) {
		return nil, domain.ErrForbidden
	}
	e, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !domain.CanEditEmployee(actor.Role, e.Role) {
		return nil, domain.ErrForbidden
	}

	e.ApplyProfile(profile)
	if actor.Role == domain.RoleBoss && role != "" {
		if r, ok := domain.ParseRole(role); ok && domain.CanChangeRole(actor.Role, r) {
			e.Role = r
		}
	}

	if err := s.repo.Update(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *EmployeeService) Delete(ctx context.Context, actor domain.Actor, id int64) error {
	if !domain.CanManageEmployees(actor.Role) {
		return domain.ErrForbidden
	}
	if id == actor.EmployeeID {
		return domain.ErrForbidden
	}
	e, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if !domain.CanEditEmployee(actor.Role, e.Role) {
		return domain.ErrForbidden
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	log.Printf("EmployeeService: employee %s deleted by employee=%d", e.Username, actor.EmployeeID)
	return nil
}

// UpdateRole is reserved to the boss, who cannot change their own role.
func (s *EmployeeService) UpdateRole(ctx context.Context, actor domain.Actor, id int64, role string) error {
	if actor.Role != domain.RoleBoss || id == actor.EmployeeID {
		return domain.ErrForbidden
	}
	r, ok := domain.ParseRole(role)
	if !ok {
		return domain.NewValidationError("rol", "rol inválido")
	}
	e, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	e.Role = r
	return s.repo.Update(ctx, e)
}

// Bootstrap creates the first boss account when there are no employees yet.
func (s *EmployeeService) Bootstrap(ctx context.Context, username, password, phone string) (bool, error) {
	existing, err := s.repo.List(ctx)
	if err != nil {
		return false, err
	}
	if len(existing) > 0 {
		return false, nil
	}
	boss := domain.Actor{Role: domain.RoleBoss}
	if _, err := s.Add(ctx, boss, NewEmployeeInput{
		Username: username,
		Password: password,
		Phone:    phone,
		Role:     string(domain.RoleBoss),
	}); err != nil {
		return false, err
	}
	return true, nil
}

// Profile returns the actor's own employee record.
func (s *EmployeeService) Profile(ctx context.Context, actor domain.Actor) (*domain.Employee, error) {
	e, err := s.repo.Get(ctx, actor.EmployeeID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrForbidden
	}
	return e, err
}

// EditOwnProfile lets any employee update their own profile fields and picture.
// Role and active flag are never touched here.
func (s *EmployeeService) EditOwnProfile(
	ctx context.Context,
	actor domain.Actor,
	profile domain.EmployeeProfile,
	picture []byte,
) (*domain.Employee, error) {
	e, err := s.Profile(ctx, actor)
	if err != nil {
		return nil, err
	}
	e.ApplyProfile(profile)
	if len(picture) > 0 {
		e.Picture = picture
	}
	if err := s.repo.Update(ctx, e); err != nil {
		return nil, err
	}
	log.Printf("EmployeeService: employee %s updated their profile", e.Username)
	return e, nil
}

func (s *EmployeeService) DeleteOwnPicture(ctx context.Context, actor domain.Actor) error {
	e, err := s.Profile(ctx, actor)
	if err != nil {
		return err
	}
	if !e.HasPicture() {
		return nil
	}
	e.Picture = nil
	return s.repo.Update(ctx, e)
}

// Picture returns an employee's profile picture; ErrNotFound when there is none.
func (s *EmployeeService) Picture(ctx context.Context, employeeID int64) ([]byte, error) {
	e, err := s.repo.Get(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	if !e.HasPicture() {
		return nil, domain.ErrNotFound
	}
	return e.Picture, nil
}
