package authz

import (
	"context"
	"errors"

	"pet-health-sharing/internal/domain/accessgrants"
	"pet-health-sharing/internal/domain/principals"
	"pet-health-sharing/internal/ports/lookup"
)

var (
	// ErrDenied es lo único que ve el caller ante cualquier denegación.
	ErrDenied      = errors.New("not authorized")
	ErrPetNotFound = errors.New("pet not found")
)

type Reason string

const (
	ReasonNone              Reason = ""
	ReasonNotFound          Reason = "not_found"
	ReasonNoGrant           Reason = "no_grant"
	ReasonPermissionMissing Reason = "permission_missing"
	ReasonForbidden         Reason = "forbidden"
)

type Decision struct {
	Allowed bool
	Reason  Reason
}

func allow() Decision        { return Decision{Allowed: true} }
func deny(r Reason) Decision { return Decision{Reason: r} }

// Err traduce la decisión a un sentinel sin revelar el subtipo de denegación.
func (d Decision) Err() error {
	switch {
	case d.Allowed:
		return nil
	case d.Reason == ReasonNotFound:
		return ErrPetNotFound
	default:
		return ErrDenied
	}
}

// GrantFinder es la única consulta del grant store que necesita el motor.
type GrantFinder interface {
	FindActive(ctx context.Context, petID, veterinarianID string) (accessgrants.Grant, bool, error)
}

type Engine struct {
	pets   lookup.PetLookup
	grants GrantFinder
}

func NewEngine(pets lookup.PetLookup, grants GrantFinder) *Engine {
	return &Engine{pets: pets, grants: grants}
}

// Authorize decide si p puede ejecutar a sobre la mascota petID.
// Las denegaciones son valores; err solo refleja fallas de storage.
func (e *Engine) Authorize(ctx context.Context, p principals.Principal, a Action, petID string) (Decision, error) {
	pet, found, err := e.pets.LookupPet(ctx, petID)
	if err != nil {
		return Decision{}, err
	}
	if !found {
		return deny(ReasonNotFound), nil
	}

	switch p.Role {
	case principals.RoleOwner:
		if p.ID != "" && p.ID == pet.OwnerID {
			return allow(), nil
		}
		return deny(ReasonForbidden), nil

	case principals.RoleVeterinarian:
		g, ok, err := e.grants.FindActive(ctx, pet.ID, p.ID)
		if err != nil {
			return Decision{}, err
		}
		if !ok {
			return deny(ReasonNoGrant), nil
		}
		if !Permits(g.Permissions, a) {
			return deny(ReasonPermissionMissing), nil
		}
		return allow(), nil

	case principals.RoleAdmin:
		return deny(ReasonForbidden), nil

	default:
		return deny(ReasonForbidden), nil
	}
}

// Require es el atajo de los servicios: nil si está permitido, ErrDenied/ErrPetNotFound si no.
func (e *Engine) Require(ctx context.Context, p principals.Principal, a Action, petID string) error {
	d, err := e.Authorize(ctx, p, a, petID)
	if err != nil {
		return err
	}
	return d.Err()
}

// Effective evalúa todas las acciones para p sobre petID con una sola lectura
// de la mascota y del grant. Devuelve ErrPetNotFound si la mascota no existe.
func (e *Engine) Effective(ctx context.Context, p principals.Principal, petID string) (map[Action]bool, error) {
	pet, found, err := e.pets.LookupPet(ctx, petID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrPetNotFound
	}

	out := make(map[Action]bool, len(Actions))
	switch {
	case p.IsOwner() && p.ID != "" && p.ID == pet.OwnerID:
		for _, a := range Actions {
			out[a] = true
		}
	case p.IsVeterinarian():
		g, ok, err := e.grants.FindActive(ctx, pet.ID, p.ID)
		if err != nil {
			return nil, err
		}
		for _, a := range Actions {
			out[a] = ok && Permits(g.Permissions, a)
		}
	default:
		for _, a := range Actions {
			out[a] = false
		}
	}
	return out, nil
}
