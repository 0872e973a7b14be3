package authz_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"pet-health-sharing/internal/adapters/storage/memory"
	"pet-health-sharing/internal/domain/accessgrants"
	"pet-health-sharing/internal/domain/authz"
	"pet-health-sharing/internal/domain/principals"
	"pet-health-sharing/internal/platform/logger"
	"pet-health-sharing/internal/ports/lookup"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePets map[string]lookup.Pet

func (f fakePets) LookupPet(ctx context.Context, petID string) (lookup.Pet, bool, error) {
	p, ok := f[petID]
	return p, ok, nil
}

type fakePeople map[string]principals.Principal

func (f fakePeople) Get(ctx context.Context, id string) (principals.Principal, error) {
	p, ok := f[id]
	if !ok {
		return principals.Principal{}, principals.ErrNotFound
	}
	return p, nil
}

var (
	owner1 = principals.Principal{ID: "O1", Role: principals.RoleOwner}
	owner2 = principals.Principal{ID: "O2", Role: principals.RoleOwner}
	vetA   = principals.Principal{ID: "VetA", Role: principals.RoleVeterinarian}
	vetB   = principals.Principal{ID: "VetB", Role: principals.RoleVeterinarian}
	admin  = principals.Principal{ID: "Adm", Role: principals.RoleAdmin}
)

type env struct {
	engine *authz.Engine
	grants *accessgrants.Service
}

func newEnv(t *testing.T) env {
	t.Helper()

	pets := fakePets{
		"max":  {ID: "max", OwnerID: "O1", Name: "Max"},
		"luna": {ID: "luna", OwnerID: "O1", Name: "Luna"},
	}
	people := fakePeople{"O1": owner1, "O2": owner2, "VetA": vetA, "VetB": vetB, "Adm": admin}

	grants := accessgrants.NewService(memory.NewAccessGrantsRepo(), pets, people, logger.Nop())
	return env{engine: authz.NewEngine(pets, grants), grants: grants}
}

func (e env) decide(t *testing.T, p principals.Principal, a authz.Action, petID string) authz.Decision {
	t.Helper()
	d, err := e.engine.Authorize(context.Background(), p, a, petID)
	require.NoError(t, err)
	return d
}

func (e env) grant(t *testing.T, petID, vetID string, perms accessgrants.Permissions) accessgrants.Grant {
	t.Helper()
	g, err := e.grants.Create(context.Background(), accessgrants.CreateInput{
		PetID: petID, VeterinarianID: vetID, GrantedByID: "O1", Permissions: &perms,
	})
	require.NoError(t, err)
	return g
}

func allPermissions() accessgrants.Permissions {
	return accessgrants.Permissions{
		ViewMedicalHistory: true, AddMedicalRecords: true, EditMedicalRecords: true,
		DeleteMedicalRecords: true, AddPrescriptions: true, ScheduleAppointments: true,
		EditPetInfo: true, ViewOwnerInfo: true,
	}
}

func TestAuthorize_OwnerAlwaysAllowed(t *testing.T) {
	e := newEnv(t)

	for _, a := range authz.Actions {
		assert.True(t, e.decide(t, owner1, a, "max").Allowed, a)
	}

	// el estado de los grants no cambia nada para el dueño
	g := e.grant(t, "max", "VetA", accessgrants.Permissions{})
	_, err := e.grants.Revoke(context.Background(), g.ID, "O1")
	require.NoError(t, err)
	for _, a := range authz.Actions {
		assert.True(t, e.decide(t, owner1, a, "max").Allowed, a)
	}
}

func TestAuthorize_DefaultDeny(t *testing.T) {
	e := newEnv(t)
	e.grant(t, "luna", "VetA", allPermissions())

	for _, a := range authz.Actions {
		d := e.decide(t, vetA, a, "max")
		assert.False(t, d.Allowed, a)
		assert.Equal(t, authz.ReasonNoGrant, d.Reason, a)
		assert.ErrorIs(t, d.Err(), authz.ErrDenied)
	}
}

func TestAuthorize_PermissionPrecision(t *testing.T) {
	e := newEnv(t)
	e.grant(t, "max", "VetA", accessgrants.Permissions{ViewMedicalHistory: true})

	assert.True(t, e.decide(t, vetA, authz.ActionViewRecords, "max").Allowed)

	for _, a := range []authz.Action{
		authz.ActionCreateRecord,
		authz.ActionUpdateRecord,
		authz.ActionDeleteRecord,
		authz.ActionViewPet,
		authz.ActionEditPet,
		authz.ActionDeletePet,
		authz.ActionAddPrescription,
		authz.ActionScheduleAppointment,
	} {
		d := e.decide(t, vetA, a, "max")
		assert.False(t, d.Allowed, a)
		assert.Equal(t, authz.ReasonPermissionMissing, d.Reason, a)
	}
}

func TestAuthorize_PolicyTable(t *testing.T) {
	cases := []struct {
		action authz.Action
		perms  accessgrants.Permissions
	}{
		{authz.ActionViewRecords, accessgrants.Permissions{ViewMedicalHistory: true}},
		{authz.ActionCreateRecord, accessgrants.Permissions{AddMedicalRecords: true}},
		{authz.ActionUpdateRecord, accessgrants.Permissions{EditMedicalRecords: true}},
		{authz.ActionDeleteRecord, accessgrants.Permissions{DeleteMedicalRecords: true}},
		{authz.ActionViewPet, accessgrants.Permissions{ViewOwnerInfo: true}},
		{authz.ActionEditPet, accessgrants.Permissions{EditPetInfo: true}},
		{authz.ActionAddPrescription, accessgrants.Permissions{AddPrescriptions: true}},
		{authz.ActionScheduleAppointment, accessgrants.Permissions{ScheduleAppointments: true}},
	}

	for _, tc := range cases {
		t.Run(string(tc.action), func(t *testing.T) {
			assert.True(t, authz.Permits(tc.perms, tc.action))
			assert.False(t, authz.Permits(accessgrants.Permissions{}, tc.action))
		})
	}

	// sin fallback: addMedicalRecords no habilita editar
	assert.False(t, authz.Permits(accessgrants.Permissions{AddMedicalRecords: true}, authz.ActionUpdateRecord))
	// ningún grant habilita borrar la mascota
	assert.False(t, authz.Permits(allPermissions(), authz.ActionDeletePet))
	assert.False(t, authz.Permits(allPermissions(), authz.Action("records:purge")))
}

func TestAuthorize_RevocationIsFinal(t *testing.T) {
	e := newEnv(t)
	g := e.grant(t, "max", "VetA", allPermissions())
	require.True(t, e.decide(t, vetA, authz.ActionViewRecords, "max").Allowed)

	_, err := e.grants.Revoke(context.Background(), g.ID, "O1")
	require.NoError(t, err)

	_, err = e.grants.Revoke(context.Background(), g.ID, "O1")
	require.ErrorIs(t, err, accessgrants.ErrAlreadyRevoked)

	for _, a := range authz.Actions {
		d := e.decide(t, vetA, a, "max")
		assert.False(t, d.Allowed, a)
		assert.Equal(t, authz.ReasonNoGrant, d.Reason, a)
	}
}

func TestAuthorize_OtherRoles(t *testing.T) {
	e := newEnv(t)
	e.grant(t, "max", "VetA", allPermissions())

	for _, p := range []principals.Principal{owner2, admin, {ID: "ghost"}} {
		d := e.decide(t, p, authz.ActionViewRecords, "max")
		assert.False(t, d.Allowed)
		assert.Equal(t, authz.ReasonForbidden, d.Reason)
	}
}

func TestAuthorize_MissingPet(t *testing.T) {
	e := newEnv(t)

	for _, p := range []principals.Principal{owner1, vetA, admin} {
		d := e.decide(t, p, authz.ActionViewRecords, "ghost")
		assert.False(t, d.Allowed)
		assert.Equal(t, authz.ReasonNotFound, d.Reason)
		assert.ErrorIs(t, d.Err(), authz.ErrPetNotFound)
	}
}

func TestDecision_ErrHidesReason(t *testing.T) {
	for _, r := range []authz.Reason{authz.ReasonNoGrant, authz.ReasonPermissionMissing, authz.ReasonForbidden} {
		err := authz.Decision{Reason: r}.Err()
		assert.ErrorIs(t, err, authz.ErrDenied)
		assert.Equal(t, "not authorized", err.Error())
	}
	assert.NoError(t, authz.Decision{Allowed: true}.Err())
}

func TestScenario_MaxVetAVetB(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	g, err := e.grants.Create(ctx, accessgrants.CreateInput{
		PetID:          "max",
		VeterinarianID: "VetA",
		GrantedByID:    "O1",
		AccessLevel:    accessgrants.AccessLevelWrite,
		Permissions: &accessgrants.Permissions{
			ViewMedicalHistory:   true,
			AddMedicalRecords:    true,
			EditMedicalRecords:   true,
			DeleteMedicalRecords: false,
			AddPrescriptions:     true,
			ScheduleAppointments: true,
		},
	})
	require.NoError(t, err)
	assert.False(t, g.IsRevoked)

	assert.True(t, e.decide(t, vetA, authz.ActionCreateRecord, "max").Allowed)
	assert.False(t, e.decide(t, vetA, authz.ActionDeleteRecord, "max").Allowed)

	_, err = e.grants.Revoke(ctx, g.ID, "O1")
	require.NoError(t, err)
	assert.False(t, e.decide(t, vetA, authz.ActionCreateRecord, "max").Allowed)

	_, err = e.grants.Revoke(ctx, g.ID, "VetB")
	assert.True(t, errors.Is(err, accessgrants.ErrForbidden))
}

type failingPets struct{}

func (failingPets) LookupPet(ctx context.Context, petID string) (lookup.Pet, bool, error) {
	return lookup.Pet{}, false, errors.New("db down")
}

func TestAuthorize_InfraErrorIsNotADecision(t *testing.T) {
	engine := authz.NewEngine(failingPets{}, nil)
	_, err := engine.Authorize(context.Background(), owner1, authz.ActionViewRecords, "max")
	assert.EqualError(t, err, "db down")

	err = engine.Require(context.Background(), owner1, authz.ActionViewRecords, "max")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, authz.ErrDenied)
}

func TestEffective_MatchesAuthorize(t *testing.T) {
	e := newEnv(t)
	e.grant(t, "max", "VetA", accessgrants.Permissions{ViewMedicalHistory: true, AddPrescriptions: true})

	for _, p := range []principals.Principal{owner1, owner2, vetA, vetB, admin} {
		got, err := e.engine.Effective(context.Background(), p, "max")
		require.NoError(t, err)
		require.Len(t, got, len(authz.Actions))
		for _, a := range authz.Actions {
			assert.Equal(t, e.decide(t, p, a, "max").Allowed, got[a], "%s %s", p.ID, a)
		}
	}

	_, err := e.engine.Effective(context.Background(), owner1, "ghost")
	assert.ErrorIs(t, err, authz.ErrPetNotFound)
}

func TestEffectiveHandler(t *testing.T) {
	e := newEnv(t)
	e.grant(t, "max", "VetA", accessgrants.Permissions{ScheduleAppointments: true})

	r := chi.NewRouter()
	authz.RegisterRoutes(r, e.engine)

	call := func(p *principals.Principal, petID string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/pets/"+petID+"/permissions", nil)
		if p != nil {
			req = req.WithContext(principals.WithPrincipal(req.Context(), *p))
		}
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec
	}

	rec := call(&vetA, "max")
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		PetID   string          `json:"pet_id"`
		Actions map[string]bool `json:"actions"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "max", body.PetID)
	assert.True(t, body.Actions["appointments:schedule"])
	assert.False(t, body.Actions["records:view"])

	assert.Equal(t, http.StatusForbidden, call(&vetB, "max").Code)
	assert.Equal(t, http.StatusNotFound, call(&vetB, "ghost").Code)
	assert.Equal(t, http.StatusUnauthorized, call(nil, "max").Code)
}
