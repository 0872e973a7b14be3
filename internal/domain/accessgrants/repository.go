package accessgrants

import (
	"context"
	"time"
)

type Repository interface {
	// Create inserta un grant activo. Debe ser atómico respecto a la unicidad:
	// devuelve ErrConflict si ya hay uno activo para (PetID, VeterinarianID).
	Create(ctx context.Context, g Grant) error

	GetByID(ctx context.Context, id string) (Grant, error)
	FindActive(ctx context.Context, petID, veterinarianID string) (Grant, error)

	ListActiveByVeterinarian(ctx context.Context, veterinarianID string) ([]Grant, error)
	ListActiveByGrantor(ctx context.Context, grantedByID string) ([]Grant, error)
	ListByPet(ctx context.Context, petID string) ([]Grant, error)

	// Revoke es un read-modify-write de una fila: solo aplica si sigue activo,
	// si no devuelve ErrAlreadyRevoked.
	Revoke(ctx context.Context, id, revokedByID string, at time.Time) (Grant, error)
}
