package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"pet-health-sharing/internal/domain/accessgrants"
)

// grantRepo serializa escrituras con un solo mutex: el chequeo de unicidad
// y el insert ocurren bajo el mismo lock.
type grantRepo struct {
	mu   sync.RWMutex
	byID map[string]accessgrants.Grant
}

func NewAccessGrantsRepo() accessgrants.Repository {
	return &grantRepo{
		byID: make(map[string]accessgrants.Grant),
	}
}

func (r *grantRepo) Create(ctx context.Context, g accessgrants.Grant) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if g.ID == "" {
		return errors.New("grant id required")
	}
	if _, exists := r.byID[g.ID]; exists {
		return errors.New("grant already exists")
	}
	for _, other := range r.byID {
		if other.Active() && other.PetID == g.PetID && other.VeterinarianID == g.VeterinarianID {
			return accessgrants.ErrConflict
		}
	}
	r.byID[g.ID] = g
	return nil
}

func (r *grantRepo) GetByID(ctx context.Context, id string) (accessgrants.Grant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	g, ok := r.byID[id]
	if !ok {
		return accessgrants.Grant{}, fmt.Errorf("grant %w", accessgrants.ErrNotFound)
	}
	return g, nil
}

func (r *grantRepo) FindActive(ctx context.Context, petID, veterinarianID string) (accessgrants.Grant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, g := range r.byID {
		if g.Active() && g.PetID == petID && g.VeterinarianID == veterinarianID {
			return g, nil
		}
	}
	return accessgrants.Grant{}, accessgrants.ErrNotFound
}

func (r *grantRepo) ListActiveByVeterinarian(ctx context.Context, veterinarianID string) ([]accessgrants.Grant, error) {
	return r.list(func(g accessgrants.Grant) bool {
		return g.Active() && g.VeterinarianID == veterinarianID
	}), nil
}

func (r *grantRepo) ListActiveByGrantor(ctx context.Context, grantedByID string) ([]accessgrants.Grant, error) {
	return r.list(func(g accessgrants.Grant) bool {
		return g.Active() && g.GrantedByID == grantedByID
	}), nil
}

func (r *grantRepo) ListByPet(ctx context.Context, petID string) ([]accessgrants.Grant, error) {
	return r.list(func(g accessgrants.Grant) bool {
		return g.PetID == petID
	}), nil
}

// Revoke es el read-modify-write condicional: solo un caller ve el grant activo.
func (r *grantRepo) Revoke(ctx context.Context, id, revokedByID string, at time.Time) (accessgrants.Grant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	g, ok := r.byID[id]
	if !ok {
		return accessgrants.Grant{}, fmt.Errorf("grant %w", accessgrants.ErrNotFound)
	}
	if !g.Active() {
		return accessgrants.Grant{}, accessgrants.ErrAlreadyRevoked
	}

	g.IsRevoked = true
	g.RevokedAt = &at
	g.RevokedByID = revokedByID
	r.byID[id] = g
	return g, nil
}

// list devuelve filas por granted_at asc.
func (r *grantRepo) list(keep func(accessgrants.Grant) bool) []accessgrants.Grant {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]accessgrants.Grant, 0)
	for _, g := range r.byID {
		if keep(g) {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].GrantedAt.Before(out[j].GrantedAt)
	})
	return out
}
