// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 VetClinic Contributors

package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Dzyra46/vet-clinic-devsecops-sub000/internal/audit"
	auditpg "github.com/Dzyra46/vet-clinic-devsecops-sub000/internal/audit/postgres"
	"github.com/Dzyra46/vet-clinic-devsecops-sub000/internal/auth"
	authpg "github.com/Dzyra46/vet-clinic-devsecops-sub000/internal/auth/postgres"
	clinicpg "github.com/Dzyra46/vet-clinic-devsecops-sub000/internal/clinic/postgres"
	"github.com/Dzyra46/vet-clinic-devsecops-sub000/internal/config"
	"github.com/Dzyra46/vet-clinic-devsecops-sub000/internal/httpapi"
	"github.com/Dzyra46/vet-clinic-devsecops-sub000/internal/logging"
	"github.com/Dzyra46/vet-clinic-devsecops-sub000/internal/observability"
	"github.com/Dzyra46/vet-clinic-devsecops-sub000/internal/ratelimit"
	"github.com/Dzyra46/vet-clinic-devsecops-sub000/internal/store"
	"github.com/Dzyra46/vet-clinic-devsecops-sub000/pkg/errutil"
)

const (
	shutdownTimeout        = 5 * time.Second
	sessionCleanupInterval = time.Hour
)

// newServeCmd creates the serve subcommand with all flags configured.
func newServeCmd() *cobra.Command {
	var autoMigrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long: `Start the clinic API server together with its observability
endpoints, background session cleanup, and (optionally) pending
database migrations.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configFile, cmd.Flags())
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg, autoMigrate)
		},
	}

	cmd.Flags().Bool("server.production", false, "enable production hardening (secure cookies)")
	cmd.Flags().String("server.addr", "", "API listen address")
	cmd.Flags().String("database.url", "", "PostgreSQL connection URL")
	cmd.Flags().String("observability.addr", "", "metrics/health listen address")
	cmd.Flags().String("logging.level", "", "log level (debug, info, warn, error)")
	cmd.Flags().String("logging.format", "", "log format (json or text)")
	cmd.Flags().BoolVar(&autoMigrate, "auto-migrate", true, "apply pending migrations on startup")

	return cmd
}

func runServe(ctx context.Context, cfg config.Config, autoMigrate bool) error {
	logging.SetDefault("vetclinic", version, cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("starting vetclinic server",
		"addr", cfg.Server.Addr,
		"production", cfg.Server.Production,
	)

	if autoMigrate {
		migrator, err := store.NewMigrator(cfg.Database.URL)
		if err != nil {
			return err
		}
		if err := migrator.Up(); err != nil {
			_ = migrator.Close()
			return err
		}
		if err := migrator.Close(); err != nil {
			slog.Warn("error closing migrator", "error", err)
		}
		slog.Info("migrations applied")
	}

	pool, err := store.Connect(ctx, cfg.Database.URL)
	if err != nil {
		return err
	}
	defer pool.Close()

	obsServer := observability.NewServer(cfg.Observability.Addr, func() bool {
		pingCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		return pool.Ping(pingCtx) == nil
	})
	obsErrCh, err := obsServer.Start()
	if err != nil {
		return err
	}

	limiter := ratelimit.NewWithRegistry(cfg.RateLimit.Capacity, cfg.RateLimit.SweepInterval, obsServer.Registry())
	defer limiter.Close()

	auditor := audit.NewLogger(auditpg.NewWriter(pool))
	defer func() {
		if closeErr := auditor.Close(); closeErr != nil {
			errutil.LogError(slog.Default(), "error closing audit logger", closeErr)
		}
	}()

	authSvc := auth.NewService(
		authpg.NewUserRepository(pool),
		authpg.NewSessionRepository(pool),
		auth.NewArgon2idHasher(),
		cfg.Session.TTL,
	)

	apiServer := httpapi.NewServer(httpapi.Options{
		Addr:       cfg.Server.Addr,
		Production: cfg.Server.Production,
		Auth:       authSvc,
		Patients:   clinicpg.NewPatientRepository(pool),
		Limiter:    limiter,
		Auditor:    auditor,
		Metrics:    obsServer.Metrics(),
	})
	apiErrCh, err := apiServer.Start()
	if err != nil {
		stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = obsServer.Stop(stopCtx)
		return err
	}

	// Expired sessions are reaped off the request path.
	cleanupCtx, cancelCleanup := context.WithCancel(ctx)
	defer cancelCleanup()
	go runSessionCleanup(cleanupCtx, authSvc)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	slog.Info("vetclinic server ready",
		"api_addr", apiServer.Addr(),
		"observability_addr", obsServer.Addr(),
	)

	select {
	case sig := <-sigChan:
		slog.Info("received shutdown signal", "signal", sig)
	case err := <-apiErrCh:
		if err != nil {
			errutil.LogError(slog.Default(), "api server failed", err)
		}
	case err := <-obsErrCh:
		if err != nil {
			errutil.LogError(slog.Default(), "observability server failed", err)
		}
	case <-ctx.Done():
		slog.Info("context cancelled, shutting down")
	}

	slog.Info("shutting down...")
	cancelCleanup()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := apiServer.Stop(shutdownCtx); err != nil {
		slog.Warn("error stopping api server", "error", err)
	}
	if err := obsServer.Stop(shutdownCtx); err != nil {
		slog.Warn("error stopping observability server", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}

// runSessionCleanup deletes expired sessions on a fixed interval until the
// context is cancelled.
func runSessionCleanup(ctx context.Context, authSvc *auth.Service) {
	ticker := time.NewTicker(sessionCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := authSvc.CleanupExpiredSessions(ctx)
			if err != nil {
				errutil.LogError(slog.Default(), "session cleanup failed", err)
				continue
			}
			if n > 0 {
				slog.Info("expired sessions removed", "count", n)
			}
		}
	}
}
