package lookup

import "context"

// Pet es la vista mínima de una mascota que necesita el núcleo de acceso.
// Name/Species solo se usan para presentación.
type Pet struct {
	ID      string
	OwnerID string
	Name    string
	Species string
}

// PetLookup resuelve una mascota por id. found=false si no existe;
// err queda reservado para fallas de infraestructura.
type PetLookup interface {
	LookupPet(ctx context.Context, petID string) (pet Pet, found bool, err error)
}
