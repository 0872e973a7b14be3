package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func getter(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestFromEnv_Defaults(t *testing.T) {
	cfg, err := FromEnv(getter(nil))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, AuthModeDev, cfg.AuthMode)
	assert.False(t, cfg.DBMigrate)
	assert.Equal(t, 5*time.Second, cfg.ReadTimeout)
	assert.Equal(t, 10*time.Second, cfg.WriteTimeout)
	assert.Equal(t, "pet-health-sharing", cfg.AppName)
}

func TestFromEnv_JWTRequiresSecret(t *testing.T) {
	_, err := FromEnv(getter(map[string]string{"AUTH_MODE": "jwt"}))
	require.Error(t, err)

	cfg, err := FromEnv(getter(map[string]string{"AUTH_MODE": "JWT", "JWT_SECRET": "s3cret"}))
	require.NoError(t, err)
	assert.Equal(t, AuthModeJWT, cfg.AuthMode)
}

func TestFromEnv_RejectsBadValues(t *testing.T) {
	cases := map[string]map[string]string{
		"unknown auth mode": {"AUTH_MODE": "ldap"},
		"remote no url":     {"AUTH_MODE": "remote"},
		"bad bool":          {"DB_MIGRATE": "maybe"},
		"bad duration":      {"HTTP_READ_TIMEOUT": "soon"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := FromEnv(getter(env))
			assert.Error(t, err)
		})
	}
}

func TestLoad_ReadsDotEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("PHS_TEST_PORT_UNUSED=1\nDB_MIGRATE=true\n"), 0o600))

	t.Setenv("DB_MIGRATE", "")
	require.NoError(t, os.Unsetenv("DB_MIGRATE"))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.True(t, cfg.DBMigrate)
	t.Cleanup(func() { _ = os.Unsetenv("PHS_TEST_PORT_UNUSED") })
}
