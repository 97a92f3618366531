// Pressgate - Content Management Admin Core
// Copyright 2026 Pressgate Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pressgate/pressgate

// Command server runs the Pressgate admin core: the permission
// middleware, audit trail, retention scheduler and alerting pipeline
// behind a chi HTTP server.
//
// Configuration comes from defaults, an optional YAML file and
// PRESSGATE_-prefixed environment variables. The server shuts down
// gracefully on SIGINT and SIGTERM.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/pressgate/pressgate/internal/alerting"
	"github.com/pressgate/pressgate/internal/api"
	"github.com/pressgate/pressgate/internal/audit"
	"github.com/pressgate/pressgate/internal/auth"
	"github.com/pressgate/pressgate/internal/config"
	"github.com/pressgate/pressgate/internal/logging"
	"github.com/pressgate/pressgate/internal/rbac"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Init(logging.Config{Level: "info", Format: "json"})
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	logging.Info().
		Str("addr", cfg.Server.Addr()).
		Int("retention_days", cfg.Audit.RetentionDays).
		Msg("Starting Pressgate admin core")

	if err := run(cfg); err != nil {
		logging.Fatal().Err(err).Msg("Server exited with error")
	}
}

func run(cfg *config.Config) error {
	// Durable stores. Badger backs both the audit trail and the
	// ownership index; an empty store path selects in-memory stores for
	// ephemeral deployments and tests.
	var (
		auditStore audit.Store
		owners     rbac.OwnershipStore
	)
	if cfg.Audit.StorePath != "" {
		opts := badger.DefaultOptions(cfg.Audit.StorePath).WithLogger(nil)
		db, err := badger.Open(opts)
		if err != nil {
			return err
		}
		defer func() {
			if err := db.Close(); err != nil {
				logging.Error().Err(err).Msg("Failed to close badger database")
			}
		}()
		auditStore = audit.NewBadgerStore(db)
		owners = rbac.NewBadgerOwnershipStore(db)
	} else {
		auditStore = audit.NewMemoryStore(0)
		owners = rbac.NewMemoryOwnershipStore()
	}

	// Alerting manager and channels.
	alerts := alerting.NewManager(auditStore)
	if cfg.Alerting.InApp.Enabled {
		alerts.Register(alerting.NewInAppChannel(alerting.NewMemoryNotificationStore(0)), alerting.ChannelConfig{
			Enabled:     true,
			MinSeverity: audit.Severity(cfg.Alerting.InApp.MinSeverity),
		})
	}
	if cfg.Alerting.Webhook.Enabled {
		alerts.Register(alerting.NewWebhookChannel(cfg.Alerting.Webhook.URL, nil), alerting.ChannelConfig{
			Enabled:     true,
			MinSeverity: audit.Severity(cfg.Alerting.Webhook.MinSeverity),
		})
	}
	// The email channel needs an outbound sender wired by the embedding
	// deployment; it is registered only when one is available.

	auditSvc := audit.NewService(auditStore, alerts, &audit.Config{
		Enabled:       cfg.Audit.Enabled,
		RetentionDays: cfg.Audit.RetentionDays,
		ExportLimit:   cfg.Audit.ExportLimit,
	})

	retention := audit.NewRetentionRunner(auditSvc, cfg.Audit.CleanupSchedule)
	if err := retention.Start(); err != nil {
		return err
	}
	defer retention.Stop()

	verifier, err := auth.NewTokenVerifier(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		return err
	}

	perms := rbac.NewService(owners)
	mw := api.NewMiddleware(verifier, perms, auditSvc)
	handlers := api.NewHandlers(auditSvc, alerts)

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      api.NewRouter(&cfg.Server, mw, handlers),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
	case err := <-errCh:
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return err
	}

	logging.Info().Msg("Server stopped")
	return nil
}
