package principals

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("principal not found")
	ErrEmailTaken   = errors.New("email already registered")

	ErrAlreadyRegistered = errors.New("principal already registered")
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
		now:  time.Now,
	}
}

type RegisterInput struct {
	// ID del proveedor de identidad; vacío => uuid nuevo.
	ID string

	Name  string
	Email string
	Phone string
	Role  string

	Clinic         string
	License        string
	Specialization string
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (Principal, error) {
	role, ok := ParseRole(in.Role)
	if !ok {
		return Principal{}, ErrInvalidInput
	}

	name := strings.TrimSpace(in.Name)
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if name == "" || email == "" {
		return Principal{}, ErrInvalidInput
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return Principal{}, ErrInvalidInput
	}

	id := strings.TrimSpace(in.ID)
	if id == "" {
		id = uuid.NewString()
	}

	p := Principal{
		ID:        id,
		Role:      role,
		Name:      name,
		Email:     email,
		Phone:     strings.TrimSpace(in.Phone),
		CreatedAt: s.now().UTC(),
	}

	// Datos profesionales obligatorios para veterinarios, ignorados para el resto.
	if role == RoleVeterinarian {
		p.Clinic = strings.TrimSpace(in.Clinic)
		p.License = strings.TrimSpace(in.License)
		p.Specialization = strings.TrimSpace(in.Specialization)
		if p.Clinic == "" || p.License == "" || p.Specialization == "" {
			return Principal{}, ErrInvalidInput
		}
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return Principal{}, err
	}
	return p, nil
}

// Get resuelve un id autenticado a su Principal.
func (s *Service) Get(ctx context.Context, id string) (Principal, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Principal{}, ErrNotFound
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListVeterinarians(ctx context.Context) ([]Principal, error) {
	return s.repo.ListByRole(ctx, RoleVeterinarian)
}

// UpdateProfileInput: nil deja el campo como está.
// Los datos profesionales solo aplican a veterinarios.
type UpdateProfileInput struct {
	Name  *string
	Phone *string

	Clinic         *string
	License        *string
	Specialization *string
}

// UpdateProfile edita el perfil propio. El rol y el email son fijos.
func (s *Service) UpdateProfile(ctx context.Context, id string, in UpdateProfileInput) (Principal, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return Principal{}, err
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return Principal{}, ErrInvalidInput
		}
		p.Name = name
	}
	if in.Phone != nil {
		p.Phone = strings.TrimSpace(*in.Phone)
	}

	if p.Role == RoleVeterinarian {
		for _, f := range []struct {
			dst *string
			src *string
		}{
			{&p.Clinic, in.Clinic},
			{&p.License, in.License},
			{&p.Specialization, in.Specialization},
		} {
			if f.src == nil {
				continue
			}
			v := strings.TrimSpace(*f.src)
			if v == "" {
				return Principal{}, ErrInvalidInput
			}
			*f.dst = v
		}
	}

	if err := s.repo.Update(ctx, p); err != nil {
		return Principal{}, err
	}
	return p, nil
}
