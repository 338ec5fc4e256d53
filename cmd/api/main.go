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

	"clinic-content-gateway/internal/adapters/auth/odin"
	pg "clinic-content-gateway/internal/adapters/storage/postgres"
	"clinic-content-gateway/internal/config"
	"clinic-content-gateway/internal/domain/content"
	"clinic-content-gateway/internal/platform/logger"
	"clinic-content-gateway/internal/ports/auth"
	"clinic-content-gateway/internal/router"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// @title        Clinic Content Gateway API
// @version      1.0
// @description  Access-grant resolution and IPFS retrieval for shared clinical records.
// @BasePath     /
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

	log, err := logger.New(logger.Options{
		Level:  logger.ParseLevel(cfg.LogLevel),
		Format: logger.ParseFormat(cfg.LogFormat),
		App:    cfg.AppName,
	})
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var db *sql.DB
	if cfg.DBDSN != "" {
		db, err = pg.Open(ctx, cfg.DBDSN)
		if err != nil {
			return err
		}
		defer db.Close()
		log.Info("grant store: postgres", nil)
	} else {
		log.Warn("grant store: in-memory (DB_DSN not set)", nil)
	}

	var verifier auth.AuthVerifier
	if cfg.Odin.Enabled() {
		client, err := odin.NewClient(odin.Config{BaseURL: cfg.Odin.BaseURL, APIKey: cfg.Odin.APIKey})
		if err != nil {
			return err
		}
		verifier = odin.NewVerifier(client)
	} else {
		log.Warn("auth: dev mode, X-Debug-User-ID accepted", nil)
	}

	overrides, err := content.LoadOverridesFile(cfg.IPFS.OverridesFile)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	r := router.NewRouter(router.Options{
		AuthVerifier: verifier,
		DB:           db,
		Config:       cfg,
		Logger:       log,
		Registry:     reg,
		Overrides:    overrides,
	})

	srv := &http.Server{
		Addr:        cfg.Addr(),
		Handler:     r,
		ReadTimeout: 5 * time.Second,
		// la cadena completa de fallback puede tomar varios timeouts por intento
		WriteTimeout: 5 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", map[string]any{"addr": srv.Addr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
