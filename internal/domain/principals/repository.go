package principals

import "context"

type Repository interface {
	// Create devuelve ErrEmailTaken si el email ya está registrado
	// y ErrAlreadyRegistered si el id ya existe.
	Create(ctx context.Context, p Principal) error
	// Update reescribe los datos de perfil; id, rol y email no cambian.
	Update(ctx context.Context, p Principal) error
	GetByID(ctx context.Context, id string) (Principal, error)
	ListByRole(ctx context.Context, role Role) ([]Principal, error)
}
