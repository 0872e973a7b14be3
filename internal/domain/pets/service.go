package pets

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"pet-health-sharing/internal/domain/accessgrants"
	"pet-health-sharing/internal/domain/authz"
	"pet-health-sharing/internal/domain/principals"
	"pet-health-sharing/internal/platform/logger"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("pet not found")
	ErrForbidden    = errors.New("forbidden")
)

// Authorizer es el motor de autorización visto desde los servicios de recursos.
type Authorizer interface {
	Require(ctx context.Context, p principals.Principal, a authz.Action, petID string) error
}

// GrantDirectory cubre lo que pets necesita del grant store.
type GrantDirectory interface {
	ListActiveForVeterinarian(ctx context.Context, veterinarianID string) ([]accessgrants.Grant, error)
	RevokeAllForPet(ctx context.Context, petID, actorID string) (int, error)
}

// RecordPurger borra las fichas médicas de una mascota eliminada.
type RecordPurger interface {
	DeleteByPet(ctx context.Context, petID string) (int, error)
}

type OwnerDirectory interface {
	Get(ctx context.Context, id string) (principals.Principal, error)
}

type Service struct {
	repo    Repository
	authz   Authorizer
	grants  GrantDirectory
	owners  OwnerDirectory
	records RecordPurger
	log     logger.Logger
	now     func() time.Time
}

type Deps struct {
	Authz   Authorizer
	Grants  GrantDirectory
	Owners  OwnerDirectory
	Records RecordPurger
	Logger  logger.Logger
}

func NewService(repo Repository, deps Deps) *Service {
	log := deps.Logger
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		repo:    repo,
		authz:   deps.Authz,
		grants:  deps.Grants,
		owners:  deps.Owners,
		records: deps.Records,
		log:     log.With(logger.Fields{"module": "pets"}),
		now:     time.Now,
	}
}

type CreateInput struct {
	Name              string
	Species           string
	Breed             string
	Gender            string
	BirthDate         *time.Time
	Weight            *float64
	Color             string
	Allergies         []string
	ChronicConditions []string
	Notes             string
}

// Create registra una mascota a nombre del actor. Solo dueños registran mascotas.
func (s *Service) Create(ctx context.Context, actor principals.Principal, in CreateInput) (Pet, error) {
	if strings.TrimSpace(actor.ID) == "" {
		return Pet{}, ErrInvalidInput
	}
	if !actor.IsOwner() {
		return Pet{}, ErrForbidden
	}

	name := strings.TrimSpace(in.Name)
	species := strings.ToLower(strings.TrimSpace(in.Species))
	if name == "" || species == "" {
		return Pet{}, ErrInvalidInput
	}

	gender := GenderUnknown
	if g := strings.TrimSpace(in.Gender); g != "" {
		gender = Gender(strings.ToLower(g))
		if !gender.Valid() {
			return Pet{}, ErrInvalidInput
		}
	}
	if in.Weight != nil && *in.Weight < 0 {
		return Pet{}, ErrInvalidInput
	}

	now := s.now().UTC()
	p := Pet{
		ID:                uuid.NewString(),
		OwnerID:           actor.ID,
		Name:              name,
		Species:           species,
		Breed:             strings.TrimSpace(in.Breed),
		Gender:            gender,
		BirthDate:         in.BirthDate,
		Weight:            in.Weight,
		Color:             strings.TrimSpace(in.Color),
		Allergies:         cleanList(in.Allergies),
		ChronicConditions: cleanList(in.ChronicConditions),
		Notes:             strings.TrimSpace(in.Notes),
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return Pet{}, err
	}
	return p, nil
}

// Get devuelve el perfil si el actor tiene pet:view.
func (s *Service) Get(ctx context.Context, actor principals.Principal, petID string) (Pet, error) {
	if err := s.authz.Require(ctx, actor, authz.ActionViewPet, petID); err != nil {
		return Pet{}, err
	}
	return s.repo.GetByID(ctx, petID)
}

// ListByOwner lista solo las mascotas propias del actor.
func (s *Service) ListByOwner(ctx context.Context, actor principals.Principal) ([]Pet, error) {
	if strings.TrimSpace(actor.ID) == "" {
		return nil, ErrInvalidInput
	}
	return s.repo.ListByOwner(ctx, actor.ID)
}

// Optional distingue "no enviado" de "enviado como null".
type Optional[T any] struct {
	Present bool
	Value   *T
}

// UpdateInput usa punteros para PATCH real: nil = no tocar.
type UpdateInput struct {
	Name              *string
	Species           *string
	Breed             *string
	Gender            *string
	BirthDate         Optional[time.Time]
	Weight            Optional[float64]
	Color             *string
	Allergies         *[]string
	ChronicConditions *[]string
	Notes             *string
}

func (s *Service) Update(ctx context.Context, actor principals.Principal, petID string, in UpdateInput) (Pet, error) {
	if err := s.authz.Require(ctx, actor, authz.ActionEditPet, petID); err != nil {
		return Pet{}, err
	}

	p, err := s.repo.GetByID(ctx, petID)
	if err != nil {
		return Pet{}, err
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return Pet{}, ErrInvalidInput
		}
		p.Name = name
	}
	if in.Species != nil {
		species := strings.ToLower(strings.TrimSpace(*in.Species))
		if species == "" {
			return Pet{}, ErrInvalidInput
		}
		p.Species = species
	}
	if in.Breed != nil {
		p.Breed = strings.TrimSpace(*in.Breed)
	}
	if in.Gender != nil {
		g := Gender(strings.ToLower(strings.TrimSpace(*in.Gender)))
		if !g.Valid() {
			return Pet{}, ErrInvalidInput
		}
		p.Gender = g
	}
	if in.BirthDate.Present {
		p.BirthDate = in.BirthDate.Value
	}
	if in.Weight.Present {
		if in.Weight.Value != nil && *in.Weight.Value < 0 {
			return Pet{}, ErrInvalidInput
		}
		p.Weight = in.Weight.Value
	}
	if in.Color != nil {
		p.Color = strings.TrimSpace(*in.Color)
	}
	if in.Allergies != nil {
		p.Allergies = cleanList(*in.Allergies)
	}
	if in.ChronicConditions != nil {
		p.ChronicConditions = cleanList(*in.ChronicConditions)
	}
	if in.Notes != nil {
		p.Notes = strings.TrimSpace(*in.Notes)
	}

	p.UpdatedAt = s.now().UTC()
	if err := s.repo.Update(ctx, p); err != nil {
		return Pet{}, err
	}
	return p, nil
}

// Delete borra la mascota y después, en cascada, revoca sus grants activos y
// borra sus fichas.
func (s *Service) Delete(ctx context.Context, actor principals.Principal, petID string) error {
	if err := s.authz.Require(ctx, actor, authz.ActionDeletePet, petID); err != nil {
		return err
	}

	// La fila de la mascota va primero: desde ahí toda decisión de authz da
	// not_found, aunque la limpieza posterior falle a mitad de camino.
	if err := s.repo.Delete(ctx, petID); err != nil {
		return err
	}

	revoked, err := s.grants.RevokeAllForPet(ctx, petID, actor.ID)
	if err != nil {
		s.log.Error("pet deleted, grant cascade failed", logger.Fields{"pet_id": petID, "err": err})
		return fmt.Errorf("revoke grants of deleted pet: %w", err)
	}

	purged := 0
	if s.records != nil {
		if purged, err = s.records.DeleteByPet(ctx, petID); err != nil {
			s.log.Error("pet deleted, record purge failed", logger.Fields{"pet_id": petID, "err": err})
			return fmt.Errorf("purge records of deleted pet: %w", err)
		}
	}

	s.log.Info("pet deleted", logger.Fields{
		"pet_id":          petID,
		"owner_id":        actor.ID,
		"grants_revoked":  revoked,
		"records_deleted": purged,
	})
	return nil
}

// Patient es una mascota vista desde el listado del veterinario.
// Sin pet:view (viewOwnerInfo) solo viene el id de la mascota y el grant;
// Owner solo se carga cuando pet:view está permitido.
type Patient struct {
	Pet     Pet
	Grant   accessgrants.Grant
	Owner   *principals.Principal
	Limited bool
}

// ListPatients arma la lista de pacientes de un veterinario a partir de sus grants activos.
// Cada perfil pasa por el motor de autorización igual que GET /pets/{id}.
func (s *Service) ListPatients(ctx context.Context, actor principals.Principal) ([]Patient, error) {
	if !actor.IsVeterinarian() {
		return nil, ErrForbidden
	}

	grants, err := s.grants.ListActiveForVeterinarian(ctx, actor.ID)
	if err != nil {
		return nil, err
	}

	out := make([]Patient, 0, len(grants))
	for _, g := range grants {
		err := s.authz.Require(ctx, actor, authz.ActionViewPet, g.PetID)
		switch {
		case errors.Is(err, authz.ErrPetNotFound):
			continue
		case errors.Is(err, authz.ErrDenied):
			out = append(out, Patient{Pet: Pet{ID: g.PetID}, Grant: g, Limited: true})
			continue
		case err != nil:
			return nil, err
		}

		p, err := s.repo.GetByID(ctx, g.PetID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return nil, err
		}

		item := Patient{Pet: p, Grant: g}
		if s.owners != nil {
			owner, err := s.owners.Get(ctx, p.OwnerID)
			if err == nil {
				item.Owner = &owner
			} else if !errors.Is(err, principals.ErrNotFound) {
				return nil, err
			}
		}
		out = append(out, item)
	}
	return out, nil
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
