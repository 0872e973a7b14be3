package records

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, rec MedicalRecord) error
	// GetByID devuelve ErrNotFound si no existe.
	GetByID(ctx context.Context, id string) (MedicalRecord, error)
	// ListByPet ordena por fecha descendente.
	ListByPet(ctx context.Context, petID string, filter ListFilter) ([]MedicalRecord, error)
	Update(ctx context.Context, rec MedicalRecord) error
	Delete(ctx context.Context, id string) error
	DeleteByPet(ctx context.Context, petID string) (int, error)
}

type ListFilter struct {
	Types []RecordType
	From  *time.Time
	To    *time.Time
	Query string
	Limit int
}
