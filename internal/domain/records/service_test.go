package records_test

import (
	"context"
	"testing"
	"time"

	"pet-health-sharing/internal/adapters/storage/memory"
	"pet-health-sharing/internal/domain/accessgrants"
	"pet-health-sharing/internal/domain/authz"
	"pet-health-sharing/internal/domain/pets"
	"pet-health-sharing/internal/domain/principals"
	"pet-health-sharing/internal/domain/records"
	"pet-health-sharing/internal/platform/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type world struct {
	svc    *records.Service
	grants *accessgrants.Service
	owner  principals.Principal
	vet    principals.Principal
	petID  string
}

func newWorld(t *testing.T) world {
	t.Helper()
	ctx := context.Background()

	people := principals.NewService(memory.NewPrincipalRepo())
	owner, err := people.Register(ctx, principals.RegisterInput{Name: "Ana", Email: "ana@example.com", Role: "owner"})
	require.NoError(t, err)
	vet, err := people.Register(ctx, principals.RegisterInput{
		Name: "Dr. Vet", Email: "vet@example.com", Role: "vet",
		Clinic: "Centro", License: "L-1", Specialization: "general",
	})
	require.NoError(t, err)

	petRepo := memory.NewPetRepo()
	petLookup := pets.NewLookup(petRepo)
	grants := accessgrants.NewService(memory.NewAccessGrantsRepo(), petLookup, people, logger.Nop())
	engine := authz.NewEngine(petLookup, grants)

	petSvc := pets.NewService(petRepo, pets.Deps{Authz: engine, Grants: grants})
	pet, err := petSvc.Create(ctx, owner, pets.CreateInput{Name: "Max", Species: "dog"})
	require.NoError(t, err)

	return world{
		svc:    records.NewService(memory.NewRecordRepo(), engine, logger.Nop()),
		grants: grants,
		owner:  owner,
		vet:    vet,
		petID:  pet.ID,
	}
}

func (w world) share(t *testing.T, perms accessgrants.Permissions) accessgrants.Grant {
	t.Helper()
	g, err := w.grants.Create(context.Background(), accessgrants.CreateInput{
		PetID: w.petID, VeterinarianID: w.vet.ID, GrantedByID: w.owner.ID, Permissions: &perms,
	})
	require.NoError(t, err)
	return g
}

func xray() []records.Attachment {
	return []records.Attachment{{Filename: "xray.png", FileURL: "https://files.example.com/xray.png", FileType: "image/png"}}
}

func TestCreate_OwnerNeedsAttachment(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()

	_, err := w.svc.Create(ctx, w.owner, w.petID, records.CreateInput{Type: records.RecordTypeCheckup})
	assert.ErrorIs(t, err, records.ErrAttachmentRequired)
	assert.ErrorIs(t, err, records.ErrInvalidInput)

	rec, err := w.svc.Create(ctx, w.owner, w.petID, records.CreateInput{
		Type: records.RecordTypeCheckup, VeterinarianID: "external-vet", Attachments: xray(),
	})
	require.NoError(t, err)
	assert.Equal(t, "external-vet", rec.VeterinarianID)
	assert.Equal(t, w.owner.ID, rec.CreatedBy)
	assert.Equal(t, w.owner.ID, rec.UpdatedBy)
}

func TestCreate_DeniedBeforeContentValidation(t *testing.T) {
	w := newWorld(t)

	// sin grant y sin adjuntos: debe ganar la denegación
	_, err := w.svc.Create(context.Background(), w.vet, w.petID, records.CreateInput{})
	assert.ErrorIs(t, err, authz.ErrDenied)
	assert.NotErrorIs(t, err, records.ErrInvalidInput)
}

func TestCreate_VetIsRecordedAsVeterinarian(t *testing.T) {
	w := newWorld(t)
	w.share(t, accessgrants.Permissions{AddMedicalRecords: true})

	rec, err := w.svc.Create(context.Background(), w.vet, w.petID, records.CreateInput{
		Type: records.RecordTypeVaccination, VeterinarianID: "someone-else", Attachments: xray(),
	})
	require.NoError(t, err)
	assert.Equal(t, w.vet.ID, rec.VeterinarianID)
	assert.Equal(t, w.vet.ID, rec.CreatedBy)
}

func TestCreate_RejectsBadTypeAndAttachment(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()

	_, err := w.svc.Create(ctx, w.owner, w.petID, records.CreateInput{Type: "grooming", Attachments: xray()})
	assert.ErrorIs(t, err, records.ErrInvalidInput)

	_, err = w.svc.Create(ctx, w.owner, w.petID, records.CreateInput{
		Attachments: []records.Attachment{{Filename: "a.pdf"}},
	})
	assert.ErrorIs(t, err, records.ErrInvalidInput)

	rec, err := w.svc.Create(ctx, w.owner, w.petID, records.CreateInput{Attachments: xray()})
	require.NoError(t, err)
	assert.Equal(t, records.RecordTypeOther, rec.Type)
}

func TestCreate_MissingPet(t *testing.T) {
	w := newWorld(t)
	_, err := w.svc.Create(context.Background(), w.owner, "ghost", records.CreateInput{Attachments: xray()})
	assert.ErrorIs(t, err, authz.ErrPetNotFound)
}

func TestList_ViewPermissionAndFilters(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	for i, typ := range []records.RecordType{records.RecordTypeVaccination, records.RecordTypeSurgery, records.RecordTypeVaccination} {
		d := base.AddDate(0, i, 0)
		_, err := w.svc.Create(ctx, w.owner, w.petID, records.CreateInput{
			Type: typ, Date: &d, Notes: "rabies booster", Attachments: xray(),
		})
		require.NoError(t, err)
	}

	_, err := w.svc.List(ctx, w.vet, w.petID, records.ListFilter{})
	assert.ErrorIs(t, err, authz.ErrDenied)

	w.share(t, accessgrants.Permissions{ViewMedicalHistory: true})

	all, err := w.svc.List(ctx, w.vet, w.petID, records.ListFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.True(t, all[0].Date.After(all[1].Date), "newest first")

	vacc, err := w.svc.List(ctx, w.vet, w.petID, records.ListFilter{Types: []records.RecordType{records.RecordTypeVaccination}})
	require.NoError(t, err)
	assert.Len(t, vacc, 2)

	from := base.AddDate(0, 1, 0)
	recent, err := w.svc.List(ctx, w.vet, w.petID, records.ListFilter{From: &from})
	require.NoError(t, err)
	assert.Len(t, recent, 2)

	limited, err := w.svc.List(ctx, w.vet, w.petID, records.ListFilter{Limit: 1, Query: "RABIES"})
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	_, err = w.svc.List(ctx, w.vet, w.petID, records.ListFilter{Types: []records.RecordType{"bath"}})
	assert.ErrorIs(t, err, records.ErrInvalidInput)
}

func TestUpdate_GatedOnEditOnly(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()

	rec, err := w.svc.Create(ctx, w.owner, w.petID, records.CreateInput{Attachments: xray()})
	require.NoError(t, err)

	notes := "revisado"
	g := w.share(t, accessgrants.Permissions{AddMedicalRecords: true})
	_, err = w.svc.Update(ctx, w.vet, w.petID, rec.ID, records.UpdateInput{Notes: &notes})
	assert.ErrorIs(t, err, authz.ErrDenied, "addMedicalRecords must not allow updates")

	_, err = w.grants.Revoke(ctx, g.ID, w.owner.ID)
	require.NoError(t, err)
	w.share(t, accessgrants.Permissions{EditMedicalRecords: true})

	updated, err := w.svc.Update(ctx, w.vet, w.petID, rec.ID, records.UpdateInput{Notes: &notes})
	require.NoError(t, err)
	assert.Equal(t, "revisado", updated.Notes)
	assert.Equal(t, w.vet.ID, updated.UpdatedBy)
	assert.Equal(t, w.owner.ID, updated.CreatedBy)
	assert.Len(t, updated.Attachments, 1, "empty attachment list keeps existing ones")
}

func TestUpdate_RecordOfAnotherPetIsNotFound(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()

	rec, err := w.svc.Create(ctx, w.owner, w.petID, records.CreateInput{Attachments: xray()})
	require.NoError(t, err)

	notes := "x"
	_, err = w.svc.Update(ctx, w.owner, w.petID, "missing", records.UpdateInput{Notes: &notes})
	assert.ErrorIs(t, err, records.ErrNotFound)

	err = w.svc.Delete(ctx, w.owner, "ghost", rec.ID)
	assert.ErrorIs(t, err, authz.ErrPetNotFound)
}

func TestDelete_RequiresDeletePermission(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()

	rec, err := w.svc.Create(ctx, w.owner, w.petID, records.CreateInput{Attachments: xray()})
	require.NoError(t, err)

	g := w.share(t, accessgrants.Permissions{ViewMedicalHistory: true, EditMedicalRecords: true})
	assert.ErrorIs(t, w.svc.Delete(ctx, w.vet, w.petID, rec.ID), authz.ErrDenied)

	_, err = w.grants.Revoke(ctx, g.ID, w.owner.ID)
	require.NoError(t, err)
	w.share(t, accessgrants.Permissions{DeleteMedicalRecords: true})

	require.NoError(t, w.svc.Delete(ctx, w.vet, w.petID, rec.ID))
	assert.ErrorIs(t, w.svc.Delete(ctx, w.vet, w.petID, rec.ID), records.ErrNotFound)
}

func TestDeleteByPet(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := w.svc.Create(ctx, w.owner, w.petID, records.CreateInput{Attachments: xray()})
		require.NoError(t, err)
	}

	n, err := w.svc.DeleteByPet(ctx, w.petID)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	left, err := w.svc.List(ctx, w.owner, w.petID, records.ListFilter{})
	require.NoError(t, err)
	assert.Empty(t, left)
}
