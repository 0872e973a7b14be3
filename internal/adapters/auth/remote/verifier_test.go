package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"pet-health-sharing/internal/ports/auth"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != verifyPath || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("X-Api-Key") != "k1" {
			http.Error(w, "bad key", http.StatusForbidden)
			return
		}

		var req verifyRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		switch req.Token {
		case "good":
			_ = json.NewEncoder(w).Encode(verifyResponse{UserID: "user-1", Email: "ana@example.com"})
		case "anon":
			_ = json.NewEncoder(w).Encode(verifyResponse{})
		case "boom":
			http.Error(w, "down", http.StatusBadGateway)
		default:
			http.Error(w, "nope", http.StatusUnauthorized)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestVerifier_Verify(t *testing.T) {
	srv := newServer(t)
	v, err := NewVerifier(Config{BaseURL: srv.URL, APIKey: "k1"})
	require.NoError(t, err)

	claims, err := v.Verify(context.Background(), "good")
	require.NoError(t, err)
	assert.Equal(t, auth.Claims{UserID: "user-1", Email: "ana@example.com"}, claims)

	_, err = v.Verify(context.Background(), "bad")
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	_, err = v.Verify(context.Background(), "")
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	_, err = v.Verify(context.Background(), "boom")
	assert.ErrorIs(t, err, ErrUpstream)

	_, err = v.Verify(context.Background(), "anon")
	assert.ErrorIs(t, err, ErrUpstream)
}

func TestVerifier_WrongAPIKeyIsRejected(t *testing.T) {
	srv := newServer(t)
	v, err := NewVerifier(Config{BaseURL: srv.URL, APIKey: "other"})
	require.NoError(t, err)

	_, err = v.Verify(context.Background(), "good")
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestNewVerifier_Config(t *testing.T) {
	_, err := NewVerifier(Config{})
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = NewVerifier(Config{BaseURL: "::not a url"})
	assert.Error(t, err)
}
