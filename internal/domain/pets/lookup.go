package pets

import (
	"context"
	"errors"

	"pet-health-sharing/internal/ports/lookup"
)

// Lookup expone las mascotas al núcleo de acceso sin que accessgrants/authz
// importen este paquete.
type Lookup struct {
	repo Repository
}

func NewLookup(repo Repository) *Lookup {
	return &Lookup{repo: repo}
}

func (l *Lookup) LookupPet(ctx context.Context, petID string) (lookup.Pet, bool, error) {
	if petID == "" {
		return lookup.Pet{}, false, nil
	}
	p, err := l.repo.GetByID(ctx, petID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return lookup.Pet{}, false, nil
		}
		return lookup.Pet{}, false, err
	}
	return lookup.Pet{ID: p.ID, OwnerID: p.OwnerID, Name: p.Name, Species: p.Species}, true, nil
}
