// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 VetClinic Contributors

package main

import (
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/Dzyra46/vet-clinic-devsecops-sub000/internal/auth"
	authpg "github.com/Dzyra46/vet-clinic-devsecops-sub000/internal/auth/postgres"
	"github.com/Dzyra46/vet-clinic-devsecops-sub000/internal/config"
	"github.com/Dzyra46/vet-clinic-devsecops-sub000/internal/store"
	"github.com/Dzyra46/vet-clinic-devsecops-sub000/internal/validate"
)

// newCreateUserCmd creates the create-user subcommand. This is the only way
// to provision admin and doctor accounts: the HTTP registration endpoint
// only creates pet owners.
func newCreateUserCmd() *cobra.Command {
	var (
		name     string
		email    string
		password string
		role     string
	)

	cmd := &cobra.Command{
		Use:   "create-user",
		Short: "Provision a user account with an explicit role",
		RunE: func(cmd *cobra.Command, _ []string) error {
			email = validate.SanitizeEmail(email)
			name = validate.SanitizeName(name)

			if res := validate.Email(email); !res.Valid {
				return oops.Code("CREATE_USER_INVALID").Errorf("%s", res.Err)
			}
			if res := validate.Name(name, "name"); !res.Valid {
				return oops.Code("CREATE_USER_INVALID").Errorf("%s", res.Err)
			}
			userRole := auth.Role(role)
			if !userRole.Valid() {
				return oops.Code("CREATE_USER_INVALID").Errorf("role must be one of admin, doctor, pet-owner")
			}

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

			user, err := svc.Register(ctx, name, email, password, userRole)
			if err != nil {
				return err
			}

			cmd.Printf("Created %s %s (%s)\n", user.Role, user.Email, user.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&password, "password", "", "initial password")
	cmd.Flags().StringVar(&role, "role", string(auth.RolePetOwner), "account role (admin, doctor, pet-owner)")
	cmd.Flags().String("database.url", "", "PostgreSQL connection URL")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}
