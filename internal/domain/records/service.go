package records

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"pet-health-sharing/internal/domain/authz"
	"pet-health-sharing/internal/domain/principals"
	"pet-health-sharing/internal/platform/logger"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrNotFound           = errors.New("medical record not found")
	ErrAttachmentRequired = fmt.Errorf("%w: at least one attachment (PDF or image) is required", ErrInvalidInput)
)

const (
	defaultLimit = 50
	maxLimit     = 200
)

type Authorizer interface {
	Require(ctx context.Context, p principals.Principal, a authz.Action, petID string) error
}

type Service struct {
	repo  Repository
	authz Authorizer
	log   logger.Logger
	now   func() time.Time
}

func NewService(repo Repository, az Authorizer, log logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		repo:  repo,
		authz: az,
		log:   log.With(logger.Fields{"module": "records"}),
		now:   time.Now,
	}
}

type CreateInput struct {
	// Vacío => other.
	Type RecordType
	// nil => ahora.
	Date *time.Time
	// Ignorado si el actor es veterinario: se usa el propio actor.
	VeterinarianID string
	Notes          string
	Attachments    []Attachment
}

// Create valida los adjuntos recién después de autorizar.
func (s *Service) Create(ctx context.Context, actor principals.Principal, petID string, in CreateInput) (MedicalRecord, error) {
	if err := s.authz.Require(ctx, actor, authz.ActionCreateRecord, petID); err != nil {
		return MedicalRecord{}, err
	}

	atts, err := cleanAttachments(in.Attachments)
	if err != nil {
		return MedicalRecord{}, err
	}
	if len(atts) == 0 {
		return MedicalRecord{}, ErrAttachmentRequired
	}

	typ := in.Type
	if typ == "" {
		typ = RecordTypeOther
	}
	if !typ.Valid() {
		return MedicalRecord{}, ErrInvalidInput
	}

	now := s.now().UTC()
	date := now
	if in.Date != nil {
		date = in.Date.UTC()
	}

	rec := MedicalRecord{
		ID:             uuid.NewString(),
		PetID:          petID,
		Type:           typ,
		Date:           date,
		VeterinarianID: veterinarianFor(actor, in.VeterinarianID),
		Notes:          strings.TrimSpace(in.Notes),
		Attachments:    atts,
		CreatedBy:      actor.ID,
		UpdatedBy:      actor.ID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.repo.Create(ctx, rec); err != nil {
		return MedicalRecord{}, err
	}

	s.log.Info("record created", logger.Fields{
		"record_id": rec.ID, "pet_id": petID, "actor_id": actor.ID, "type": string(rec.Type),
	})
	return rec, nil
}

func (s *Service) List(ctx context.Context, actor principals.Principal, petID string, filter ListFilter) ([]MedicalRecord, error) {
	if err := s.authz.Require(ctx, actor, authz.ActionViewRecords, petID); err != nil {
		return nil, err
	}

	if filter.Limit <= 0 {
		filter.Limit = defaultLimit
	}
	if filter.Limit > maxLimit {
		filter.Limit = maxLimit
	}
	for _, t := range filter.Types {
		if !t.Valid() {
			return nil, ErrInvalidInput
		}
	}
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return nil, ErrInvalidInput
	}

	return s.repo.ListByPet(ctx, petID, filter)
}

// UpdateInput: nil = no tocar. Attachments solo se reemplaza con una lista no vacía.
type UpdateInput struct {
	Type           *RecordType
	Date           *time.Time
	VeterinarianID *string
	Notes          *string
	Attachments    []Attachment
}

func (s *Service) Update(ctx context.Context, actor principals.Principal, petID, recordID string, in UpdateInput) (MedicalRecord, error) {
	if err := s.authz.Require(ctx, actor, authz.ActionUpdateRecord, petID); err != nil {
		return MedicalRecord{}, err
	}

	rec, err := s.getForPet(ctx, petID, recordID)
	if err != nil {
		return MedicalRecord{}, err
	}

	if in.Type != nil {
		if !in.Type.Valid() {
			return MedicalRecord{}, ErrInvalidInput
		}
		rec.Type = *in.Type
	}
	if in.Date != nil {
		rec.Date = in.Date.UTC()
	}
	if in.VeterinarianID != nil {
		rec.VeterinarianID = veterinarianFor(actor, *in.VeterinarianID)
	}
	if in.Notes != nil {
		rec.Notes = strings.TrimSpace(*in.Notes)
	}
	if len(in.Attachments) > 0 {
		atts, err := cleanAttachments(in.Attachments)
		if err != nil {
			return MedicalRecord{}, err
		}
		rec.Attachments = atts
	}

	rec.UpdatedBy = actor.ID
	rec.UpdatedAt = s.now().UTC()

	if err := s.repo.Update(ctx, rec); err != nil {
		return MedicalRecord{}, err
	}
	return rec, nil
}

func (s *Service) Delete(ctx context.Context, actor principals.Principal, petID, recordID string) error {
	if err := s.authz.Require(ctx, actor, authz.ActionDeleteRecord, petID); err != nil {
		return err
	}

	rec, err := s.getForPet(ctx, petID, recordID)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, rec.ID); err != nil {
		return err
	}

	s.log.Info("record deleted", logger.Fields{
		"record_id": rec.ID, "pet_id": petID, "actor_id": actor.ID,
	})
	return nil
}

// DeleteByPet es la cascada del borrado de mascota; la autorización la hizo pets.
func (s *Service) DeleteByPet(ctx context.Context, petID string) (int, error) {
	if strings.TrimSpace(petID) == "" {
		return 0, ErrInvalidInput
	}
	return s.repo.DeleteByPet(ctx, petID)
}

// getForPet trata una ficha de otra mascota igual que una inexistente.
func (s *Service) getForPet(ctx context.Context, petID, recordID string) (MedicalRecord, error) {
	recordID = strings.TrimSpace(recordID)
	if recordID == "" {
		return MedicalRecord{}, ErrNotFound
	}
	rec, err := s.repo.GetByID(ctx, recordID)
	if err != nil {
		return MedicalRecord{}, err
	}
	if rec.PetID != petID {
		return MedicalRecord{}, ErrNotFound
	}
	return rec, nil
}

func veterinarianFor(actor principals.Principal, requested string) string {
	if actor.IsVeterinarian() {
		return actor.ID
	}
	if v := strings.TrimSpace(requested); v != "" {
		return v
	}
	return actor.ID
}

func cleanAttachments(in []Attachment) ([]Attachment, error) {
	out := make([]Attachment, 0, len(in))
	for _, a := range in {
		a.Filename = strings.TrimSpace(a.Filename)
		a.FileURL = strings.TrimSpace(a.FileURL)
		a.FileType = strings.TrimSpace(a.FileType)
		if a.Filename == "" || a.FileURL == "" {
			return nil, ErrInvalidInput
		}
		out = append(out, a)
	}
	return out, nil
}
