package accessgrants

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"pet-health-sharing/internal/domain/principals"
	"pet-health-sharing/internal/platform/logger"
	"pet-health-sharing/internal/ports/lookup"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput   = errors.New("invalid input")
	ErrNotFound       = errors.New("not found")
	ErrInvalidRole    = errors.New("user is not a veterinarian")
	ErrForbidden      = errors.New("forbidden")
	ErrConflict       = errors.New("access already granted to this veterinarian")
	ErrAlreadyRevoked = errors.New("access already revoked")
)

// PrincipalLookup evita acoplar el servicio al storage de usuarios.
type PrincipalLookup interface {
	Get(ctx context.Context, id string) (principals.Principal, error)
}

type Service struct {
	repo   Repository
	pets   lookup.PetLookup
	people PrincipalLookup
	log    logger.Logger
	now    func() time.Time
}

func NewService(repo Repository, pets lookup.PetLookup, people PrincipalLookup, log logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		repo:   repo,
		pets:   pets,
		people: people,
		log:    log.With(logger.Fields{"module": "accessgrants"}),
		now:    time.Now,
	}
}

type CreateInput struct {
	PetID          string
	VeterinarianID string
	GrantedByID    string

	// Vacío => read.
	AccessLevel AccessLevel
	// nil => DefaultPermissions().
	Permissions *Permissions
	Notes       string
}

// Create registra un grant nuevo. Orden de chequeos: mascota, dueño,
// veterinario, rol, unicidad. Un no-dueño nunca llega a consultar el directorio.
func (s *Service) Create(ctx context.Context, in CreateInput) (Grant, error) {
	petID := strings.TrimSpace(in.PetID)
	vetID := strings.TrimSpace(in.VeterinarianID)
	grantorID := strings.TrimSpace(in.GrantedByID)

	if petID == "" || vetID == "" || grantorID == "" {
		return Grant{}, ErrInvalidInput
	}
	if vetID == grantorID {
		return Grant{}, ErrInvalidInput
	}

	level := in.AccessLevel
	if level == "" {
		level = AccessLevelRead
	}
	if !level.Valid() {
		return Grant{}, ErrInvalidInput
	}

	perms := DefaultPermissions()
	if in.Permissions != nil {
		perms = *in.Permissions
	}

	pet, found, err := s.pets.LookupPet(ctx, petID)
	if err != nil {
		return Grant{}, err
	}
	if !found {
		return Grant{}, fmt.Errorf("pet %w", ErrNotFound)
	}
	if pet.OwnerID != grantorID {
		return Grant{}, ErrForbidden
	}

	vet, err := s.people.Get(ctx, vetID)
	if err != nil {
		if errors.Is(err, principals.ErrNotFound) {
			return Grant{}, fmt.Errorf("veterinarian %w", ErrNotFound)
		}
		return Grant{}, err
	}
	if vet.Role != principals.RoleVeterinarian {
		return Grant{}, ErrInvalidRole
	}

	// Camino rápido; la garantía real la da repo.Create.
	if _, err := s.repo.FindActive(ctx, petID, vetID); err == nil {
		return Grant{}, ErrConflict
	} else if !errors.Is(err, ErrNotFound) {
		return Grant{}, err
	}

	g := Grant{
		ID:             uuid.NewString(),
		PetID:          petID,
		VeterinarianID: vetID,
		GrantedByID:    grantorID,
		AccessLevel:    level,
		Permissions:    perms,
		Notes:          strings.TrimSpace(in.Notes),
		GrantedAt:      s.now().UTC(),
	}

	if err := s.repo.Create(ctx, g); err != nil {
		if errors.Is(err, ErrConflict) {
			s.log.Info("grant create lost race", logger.Fields{
				"pet_id": petID, "veterinarian_id": vetID,
			})
		}
		return Grant{}, err
	}

	s.log.Info("grant created", logger.Fields{
		"grant_id":        g.ID,
		"pet_id":          g.PetID,
		"veterinarian_id": g.VeterinarianID,
		"granted_by_id":   g.GrantedByID,
		"access_level":    string(g.AccessLevel),
	})
	return g, nil
}

// Revoke solo lo puede hacer quien otorgó el grant. Orden: NotFound, Forbidden,
// AlreadyRevoked; un tercero no aprende el estado del grant.
// Con ErrAlreadyRevoked también se devuelve el grant vigente en storage.
func (s *Service) Revoke(ctx context.Context, grantID, requesterID string) (Grant, error) {
	grantID = strings.TrimSpace(grantID)
	requesterID = strings.TrimSpace(requesterID)

	if grantID == "" || requesterID == "" {
		return Grant{}, ErrInvalidInput
	}

	g, err := s.repo.GetByID(ctx, grantID)
	if err != nil {
		return Grant{}, err
	}

	if g.GrantedByID != requesterID {
		s.log.Warn("grant revoke forbidden", logger.Fields{
			"grant_id": g.ID, "requester_id": requesterID,
		})
		return Grant{}, ErrForbidden
	}
	if g.IsRevoked {
		return g, ErrAlreadyRevoked
	}

	revoked, err := s.repo.Revoke(ctx, g.ID, requesterID, s.now().UTC())
	if err != nil {
		if errors.Is(err, ErrAlreadyRevoked) {
			current, getErr := s.repo.GetByID(ctx, g.ID)
			if getErr != nil {
				return Grant{}, getErr
			}
			return current, ErrAlreadyRevoked
		}
		return Grant{}, err
	}

	s.log.Info("grant revoked", logger.Fields{
		"grant_id":        revoked.ID,
		"pet_id":          revoked.PetID,
		"veterinarian_id": revoked.VeterinarianID,
		"revoked_by_id":   revoked.RevokedByID,
	})
	return revoked, nil
}

// FindActive es la consulta de la que depende cada decisión de autorización.
func (s *Service) FindActive(ctx context.Context, petID, veterinarianID string) (Grant, bool, error) {
	petID = strings.TrimSpace(petID)
	veterinarianID = strings.TrimSpace(veterinarianID)
	if petID == "" || veterinarianID == "" {
		return Grant{}, false, nil
	}

	g, err := s.repo.FindActive(ctx, petID, veterinarianID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Grant{}, false, nil
		}
		return Grant{}, false, err
	}
	return g, true, nil
}

func (s *Service) ListActiveForVeterinarian(ctx context.Context, veterinarianID string) ([]Grant, error) {
	veterinarianID = strings.TrimSpace(veterinarianID)
	if veterinarianID == "" {
		return nil, ErrInvalidInput
	}
	return s.repo.ListActiveByVeterinarian(ctx, veterinarianID)
}

func (s *Service) ListActiveGrantedBy(ctx context.Context, ownerID string) ([]Grant, error) {
	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return nil, ErrInvalidInput
	}
	return s.repo.ListActiveByGrantor(ctx, ownerID)
}

// ListByPet devuelve el historial completo (activos y revocados). Solo el dueño.
func (s *Service) ListByPet(ctx context.Context, petID, requesterID string) ([]Grant, error) {
	petID = strings.TrimSpace(petID)
	requesterID = strings.TrimSpace(requesterID)
	if petID == "" || requesterID == "" {
		return nil, ErrInvalidInput
	}

	pet, found, err := s.pets.LookupPet(ctx, petID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("pet %w", ErrNotFound)
	}
	if pet.OwnerID != requesterID {
		return nil, ErrForbidden
	}
	return s.repo.ListByPet(ctx, petID)
}

// RevokeAllForPet revoca en cascada los grants activos de una mascota borrada.
// Devuelve cuántos grants quedaron revocados por esta llamada.
func (s *Service) RevokeAllForPet(ctx context.Context, petID, actorID string) (int, error) {
	items, err := s.repo.ListByPet(ctx, petID)
	if err != nil {
		return 0, err
	}

	n := 0
	now := s.now().UTC()
	for _, g := range items {
		if g.IsRevoked {
			continue
		}
		if _, err := s.repo.Revoke(ctx, g.ID, actorID, now); err != nil {
			if errors.Is(err, ErrAlreadyRevoked) {
				continue
			}
			return n, err
		}
		n++
	}

	if n > 0 {
		s.log.Info("grants cascade-revoked", logger.Fields{
			"pet_id": petID, "count": n, "revoked_by_id": actorID,
		})
	}
	return n, nil
}

// GroupByVeterinarian colapsa filas por veterinario para el panel del dueño.
// Los grupos salen ordenados por el primer grant; las filas por fecha.
func GroupByVeterinarian(grants []Grant) []VeterinarianGrants {
	idx := map[string]int{}
	out := make([]VeterinarianGrants, 0)

	sorted := make([]Grant, len(grants))
	copy(sorted, grants)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].GrantedAt.Before(sorted[j].GrantedAt)
	})

	for _, g := range sorted {
		i, ok := idx[g.VeterinarianID]
		if !ok {
			idx[g.VeterinarianID] = len(out)
			out = append(out, VeterinarianGrants{
				VeterinarianID: g.VeterinarianID,
				FirstGrantedAt: g.GrantedAt,
			})
			i = len(out) - 1
		}
		out[i].Grants = append(out[i].Grants, g)
	}
	return out
}

