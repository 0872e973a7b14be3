// @title Pet Health Sharing API
// @version 1.0
// @description Historia clínica de mascotas compartida entre dueños y veterinarios.
// @BasePath /
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pet-health-sharing/internal/adapters/auth/jwtauth"
	"pet-health-sharing/internal/adapters/auth/remote"
	pg "pet-health-sharing/internal/adapters/storage/postgres"
	"pet-health-sharing/internal/platform/config"
	"pet-health-sharing/internal/platform/logger"
	"pet-health-sharing/internal/router"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := logger.New(logger.Options{
		Level:  logger.ParseLevel(cfg.LogLevel),
		Format: logger.ParseFormat(cfg.LogFormat),
		App:    cfg.AppName,
	})

	var db *sql.DB
	if cfg.DBDSN != "" {
		db, err = pg.Open(cfg.DBDSN)
		if err != nil {
			return fmt.Errorf("open db: %w", err)
		}
		defer db.Close()

		if cfg.DBMigrate {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			err := pg.Migrate(ctx, db)
			cancel()
			if err != nil {
				return err
			}
			log.Info("schema migrated", nil)
		}
	} else {
		log.Warn("DB_DSN not set, using in-memory storage", nil)
	}

	opts := router.Options{DB: db, Logger: log}
	switch cfg.AuthMode {
	case config.AuthModeJWT:
		v, err := jwtauth.NewVerifier(cfg.JWTSecret)
		if err != nil {
			return err
		}
		opts.AuthVerifier = v
		opts.TokenIssuer = v
	case config.AuthModeRemote:
		v, err := remote.NewVerifier(remote.Config{BaseURL: cfg.AuthBaseURL, APIKey: cfg.AuthAPIKey})
		if err != nil {
			return err
		}
		opts.AuthVerifier = v
	default:
		log.Warn("auth mode dev: X-Debug-User-ID is trusted", nil)
	}

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router.NewRouter(opts),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", logger.Fields{"addr": srv.Addr, "auth_mode": cfg.AuthMode})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case sig := <-stop:
		log.Info("shutting down", logger.Fields{"signal": sig.String()})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}
