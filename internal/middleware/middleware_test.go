package middleware

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"pet-health-sharing/internal/domain/principals"
	"pet-health-sharing/internal/platform/logger"
	"pet-health-sharing/internal/ports/auth"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type stubVerifier struct{}

func (stubVerifier) Verify(_ context.Context, token string) (auth.Claims, error) {
	if token == "good" {
		return auth.Claims{UserID: "u-1", Email: "u1@example.com"}, nil
	}
	return auth.Claims{}, auth.ErrInvalidToken
}

type mockPeople struct{ mock.Mock }

func (m *mockPeople) Get(ctx context.Context, id string) (principals.Principal, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(principals.Principal), args.Error(1)
}

func claimsEcho() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, ok := GetClaims(r.Context())
		if !ok {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(c.UserID))
	})
}

func serve(h http.Handler, header, value string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	if header != "" {
		req.Header.Set(header, value)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestAuthContext_DevMode(t *testing.T) {
	h := AuthContext(nil, nil)(claimsEcho())

	rec := serve(h, DebugUserHeader, " owner-1 ")
	assert.Equal(t, "owner-1", rec.Body.String())

	rec = serve(h, "Authorization", "Bearer good")
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "bearer ignored without verifier")
}

func TestAuthContext_Verifier(t *testing.T) {
	h := AuthContext(stubVerifier{}, logger.Nop())(claimsEcho())

	assert.Equal(t, "u-1", serve(h, "Authorization", "bearer good").Body.String())
	assert.Equal(t, http.StatusUnauthorized, serve(h, "Authorization", "Bearer bad").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(h, "Authorization", "Basic abc").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(h, DebugUserHeader, "u-1").Code, "debug header ignored with verifier")
}

func TestResolvePrincipal(t *testing.T) {
	people := &mockPeople{}
	people.On("Get", mock.Anything, "vet-1").Return(principals.Principal{ID: "vet-1", Role: principals.RoleVeterinarian}, nil)
	people.On("Get", mock.Anything, "ghost").Return(principals.Principal{}, principals.ErrNotFound)
	people.On("Get", mock.Anything, "boom").Return(principals.Principal{}, errors.New("db down"))
	echo := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := principals.FromContext(r.Context())
		if !ok {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(p.Role))
	})
	h := AuthContext(nil, nil)(ResolvePrincipal(people, nil)(echo))

	assert.Equal(t, "veterinarian", serve(h, DebugUserHeader, "vet-1").Body.String())
	assert.Equal(t, http.StatusUnauthorized, serve(h, DebugUserHeader, "ghost").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(h, "", "").Code)
	assert.Equal(t, http.StatusInternalServerError, serve(h, DebugUserHeader, "boom").Code)

	people.AssertExpectations(t)
	people.AssertNumberOfCalls(t, "Get", 3)
}

func TestRequestLog(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.Options{Level: logger.Debug, Out: &buf})

	h := AuthContext(nil, nil)(RequestLog(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	})))
	rec := serve(h, DebugUserHeader, "vet-1")
	require.Equal(t, http.StatusForbidden, rec.Code)

	out := buf.String()
	assert.Contains(t, out, "level=warn")
	assert.Contains(t, out, "status=403")
	assert.Contains(t, out, "user_id=vet-1")
	assert.Contains(t, out, "path=/x")
}
