package httpclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Equal(t, "v", r.Header.Get("X-Extra"))
		switch r.URL.Path {
		case "/ok":
			_, _ = w.Write([]byte(`{"name":"max"}`))
		case "/empty":
			w.WriteHeader(http.StatusNoContent)
		default:
			http.Error(w, "nope", http.StatusTeapot)
		}
	}))
	defer srv.Close()

	c, err := NewWithBaseURL(srv.URL+"/", 0)
	require.NoError(t, err)
	hdr := map[string]string{"X-Extra": "v", " ": "ignored"}

	var out struct{ Name string }
	require.NoError(t, c.DoJSON(context.Background(), http.MethodGet, "ok", hdr, nil, &out))
	assert.Equal(t, "max", out.Name)

	require.NoError(t, c.DoJSON(context.Background(), http.MethodPost, srv.URL+"/empty", hdr, map[string]int{"a": 1}, &out))

	err = c.DoJSON(context.Background(), http.MethodGet, "/missing", hdr, nil, nil)
	var httpErr *HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusTeapot, httpErr.StatusCode)
	assert.Equal(t, "nope", httpErr.Body)
}

func TestResolveURL(t *testing.T) {
	c := New(0)
	_, err := c.resolveURL("/rel")
	assert.Error(t, err)
	_, err = c.resolveURL("  ")
	assert.Error(t, err)

	u, err := c.resolveURL("https://auth.example.com/v1")
	require.NoError(t, err)
	assert.Equal(t, "https://auth.example.com/v1", u)
}
