package principals

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testRepo struct {
	byID map[string]Principal
}

func newTestRepo() *testRepo {
	return &testRepo{byID: map[string]Principal{}}
}

func (r *testRepo) Create(ctx context.Context, p Principal) error {
	if _, ok := r.byID[p.ID]; ok {
		return ErrAlreadyRegistered
	}
	for _, existing := range r.byID {
		if existing.Email == p.Email {
			return ErrEmailTaken
		}
	}
	r.byID[p.ID] = p
	return nil
}

func (r *testRepo) GetByID(ctx context.Context, id string) (Principal, error) {
	p, ok := r.byID[id]
	if !ok {
		return Principal{}, ErrNotFound
	}
	return p, nil
}

func (r *testRepo) Update(ctx context.Context, p Principal) error {
	if _, ok := r.byID[p.ID]; !ok {
		return ErrNotFound
	}
	r.byID[p.ID] = p
	return nil
}

func (r *testRepo) ListByRole(ctx context.Context, role Role) ([]Principal, error) {
	out := make([]Principal, 0)
	for _, p := range r.byID {
		if p.Role == role {
			out = append(out, p)
		}
	}
	return out, nil
}

func TestParseRole_NormalizesLegacySpellings(t *testing.T) {
	cases := map[string]Role{
		"owner":        RoleOwner,
		"pet_owner":    RoleOwner,
		" Vet ":        RoleVeterinarian,
		"veterinarian": RoleVeterinarian,
		"ADMIN":        RoleAdmin,
	}
	for in, want := range cases {
		got, ok := ParseRole(in)
		require.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}

	_, ok := ParseRole("groomer")
	assert.False(t, ok)
}

func TestService_Register_Owner(t *testing.T) {
	svc := NewService(newTestRepo())
	now := time.Date(2025, 12, 22, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	p, err := svc.Register(context.Background(), RegisterInput{
		Name:   "Ana",
		Email:  " Ana@Example.com ",
		Role:   "pet_owner",
		Clinic: "ignored",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, RoleOwner, p.Role)
	assert.Equal(t, "ana@example.com", p.Email)
	assert.Empty(t, p.Clinic)
	assert.Equal(t, now, p.CreatedAt)

	got, err := svc.Get(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, p, got)
}

func TestService_Register_VeterinarianRequiresProfessionalData(t *testing.T) {
	svc := NewService(newTestRepo())

	_, err := svc.Register(context.Background(), RegisterInput{
		Name:  "Dr. Vet",
		Email: "vet@example.com",
		Role:  "veterinarian",
	})
	assert.ErrorIs(t, err, ErrInvalidInput)

	p, err := svc.Register(context.Background(), RegisterInput{
		Name:           "Dr. Vet",
		Email:          "vet@example.com",
		Role:           "vet",
		Clinic:         "Clínica Norte",
		License:        "LIC-1",
		Specialization: "felinos",
	})
	require.NoError(t, err)
	assert.True(t, p.IsVeterinarian())

	vets, err := svc.ListVeterinarians(context.Background())
	require.NoError(t, err)
	assert.Len(t, vets, 1)
}

func TestService_Register_RejectsInvalidInput(t *testing.T) {
	svc := NewService(newTestRepo())

	cases := []RegisterInput{
		{Name: "A", Email: "a@example.com", Role: "root"},
		{Name: "", Email: "a@example.com", Role: "owner"},
		{Name: "A", Email: "not-an-email", Role: "owner"},
	}
	for _, in := range cases {
		_, err := svc.Register(context.Background(), in)
		assert.ErrorIs(t, err, ErrInvalidInput)
	}
}

func TestService_Register_DuplicateEmail(t *testing.T) {
	svc := NewService(newTestRepo())
	in := RegisterInput{Name: "A", Email: "a@example.com", Role: "owner"}

	_, err := svc.Register(context.Background(), in)
	require.NoError(t, err)
	_, err = svc.Register(context.Background(), in)
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestService_Get_Missing(t *testing.T) {
	svc := NewService(newTestRepo())
	_, err := svc.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.Get(context.Background(), "  ")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestService_Register_UsesProviderID(t *testing.T) {
	svc := NewService(newTestRepo())

	p, err := svc.Register(context.Background(), RegisterInput{ID: " ext-1 ", Name: "A", Email: "a@example.com", Role: "owner"})
	require.NoError(t, err)
	assert.Equal(t, "ext-1", p.ID)

	_, err = svc.Register(context.Background(), RegisterInput{ID: "ext-1", Name: "B", Email: "b@example.com", Role: "owner"})
	assert.ErrorIs(t, err, ErrAlreadyRegistered)
}

func TestService_UpdateProfile(t *testing.T) {
	svc := NewService(newTestRepo())
	ctx := context.Background()
	str := func(s string) *string { return &s }

	owner, err := svc.Register(ctx, RegisterInput{Name: "Ana", Email: "ana@example.com", Role: "owner"})
	require.NoError(t, err)
	assert.False(t, owner.ProfileComplete())

	updated, err := svc.UpdateProfile(ctx, owner.ID, UpdateProfileInput{Phone: str(" 555-1 "), Clinic: str("ignored")})
	require.NoError(t, err)
	assert.Equal(t, "555-1", updated.Phone)
	assert.Equal(t, "Ana", updated.Name)
	assert.Empty(t, updated.Clinic, "professional data only for veterinarians")
	assert.Equal(t, RoleOwner, updated.Role)
	assert.True(t, updated.ProfileComplete())

	_, err = svc.UpdateProfile(ctx, owner.ID, UpdateProfileInput{Name: str("  ")})
	assert.ErrorIs(t, err, ErrInvalidInput)

	vet, err := svc.Register(ctx, RegisterInput{Name: "Vet", Email: "vet@example.com", Role: "vet", Clinic: "C", License: "L", Specialization: "S"})
	require.NoError(t, err)
	vet, err = svc.UpdateProfile(ctx, vet.ID, UpdateProfileInput{Clinic: str("Clínica Sur")})
	require.NoError(t, err)
	assert.Equal(t, "Clínica Sur", vet.Clinic)

	_, err = svc.UpdateProfile(ctx, vet.ID, UpdateProfileInput{License: str("")})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.UpdateProfile(ctx, "ghost", UpdateProfileInput{})
	assert.ErrorIs(t, err, ErrNotFound)
}
