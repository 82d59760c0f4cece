// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 VetClinic Contributors

package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/Dzyra46/vet-clinic-devsecops-sub000/internal/auth"
	authpg "github.com/Dzyra46/vet-clinic-devsecops-sub000/internal/auth/postgres"
	"github.com/Dzyra46/vet-clinic-devsecops-sub000/internal/config"
	"github.com/Dzyra46/vet-clinic-devsecops-sub000/internal/store"
)

// newCleanupSessionsCmd creates the cleanup-sessions subcommand, intended
// for cron-style invocation alongside the serve loop's own reaper.
func newCleanupSessionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cleanup-sessions",
		Short: "Delete all expired sessions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configFile, cmd.Flags())
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			pool, err := store.Connect(ctx, cfg.Database.URL)
			if err != nil {
				return err
			}
			defer pool.Close()

			svc := auth.NewService(
				authpg.NewUserRepository(pool),
				authpg.NewSessionRepository(pool),
				auth.NewArgon2idHasher(),
				cfg.Session.TTL,
			)

			n, err := svc.CleanupExpiredSessions(ctx)
			if err != nil {
				return err
			}

			cmd.Printf("Deleted %d expired sessions at %s\n", n, time.Now().Format(time.RFC3339))
			return nil
		},
	}

	cmd.Flags().String("database.url", "", "PostgreSQL connection URL")
	return cmd
}
