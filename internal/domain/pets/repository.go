package pets

import "context"

type Repository interface {
	Create(ctx context.Context, p Pet) error
	// GetByID devuelve ErrNotFound si no existe.
	GetByID(ctx context.Context, id string) (Pet, error)
	ListByOwner(ctx context.Context, ownerID string) ([]Pet, error)
	Update(ctx context.Context, p Pet) error
	Delete(ctx context.Context, id string) error
}
