package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AuthMode selecciona cómo se verifica el bearer token.
type AuthMode string

const (
	AuthModeDev    AuthMode = "dev"    // header X-Debug-User-ID, sin verificación
	AuthModeJWT    AuthMode = "jwt"    // HS256 firmado con JWT_SECRET
	AuthModeRemote AuthMode = "remote" // endpoint de verificación externo
)

type Config struct {
	Port string

	DBDSN     string
	DBMigrate bool

	AuthMode    AuthMode
	JWTSecret   string
	AuthBaseURL string
	AuthAPIKey  string

	LogLevel  string
	LogFormat string
	AppName   string

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Load lee .env (si existe) y luego variables de entorno.
// Las variables ya presentes en el entorno no se sobreescriben.
func Load(files ...string) (Config, error) {
	if err := godotenv.Load(files...); err != nil && !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("config: load env file: %w", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv construye la config desde un getter (os.Getenv en prod, map en tests).
func FromEnv(getenv func(string) string) (Config, error) {
	cfg := Config{
		Port:        envOr(getenv, "PORT", "8080"),
		DBDSN:       strings.TrimSpace(getenv("DB_DSN")),
		AuthMode:    AuthMode(strings.ToLower(envOr(getenv, "AUTH_MODE", string(AuthModeDev)))),
		JWTSecret:   strings.TrimSpace(getenv("JWT_SECRET")),
		AuthBaseURL: strings.TrimSpace(getenv("AUTH_BASE_URL")),
		AuthAPIKey:  strings.TrimSpace(getenv("AUTH_API_KEY")),
		LogLevel:    envOr(getenv, "LOG_LEVEL", "info"),
		LogFormat:   envOr(getenv, "LOG_FORMAT", "text"),
		AppName:     envOr(getenv, "APP_NAME", "pet-health-sharing"),
	}

	var err error
	if cfg.DBMigrate, err = parseBool(getenv, "DB_MIGRATE", false); err != nil {
		return Config{}, err
	}
	if cfg.ReadTimeout, err = parseDuration(getenv, "HTTP_READ_TIMEOUT", 5*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.WriteTimeout, err = parseDuration(getenv, "HTTP_WRITE_TIMEOUT", 10*time.Second); err != nil {
		return Config{}, err
	}

	switch cfg.AuthMode {
	case AuthModeDev:
	case AuthModeJWT:
		if cfg.JWTSecret == "" {
			return Config{}, fmt.Errorf("config: JWT_SECRET required when AUTH_MODE=jwt")
		}
	case AuthModeRemote:
		if cfg.AuthBaseURL == "" {
			return Config{}, fmt.Errorf("config: AUTH_BASE_URL required when AUTH_MODE=remote")
		}
	default:
		return Config{}, fmt.Errorf("config: unknown AUTH_MODE %q", cfg.AuthMode)
	}

	return cfg, nil
}

func (c Config) Addr() string {
	return ":" + strings.TrimPrefix(c.Port, ":")
}

func envOr(getenv func(string) string, key, def string) string {
	if v := strings.TrimSpace(getenv(key)); v != "" {
		return v
	}
	return def
}

func parseBool(getenv func(string) string, key string, def bool) (bool, error) {
	v := strings.TrimSpace(getenv(key))
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("config: %s: %w", key, err)
	}
	return b, nil
}

func parseDuration(getenv func(string) string, key string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(getenv(key))
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return d, nil
}
