package main

import (
	"github.com/spf13/cobra"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the vetclinic CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vetclinic",
		Short: "VetClinic - veterinary clinic management API",
		Long: `VetClinic serves the clinic management JSON API with hardened
request handling: validation, rate limiting, argon2id password
hashing, opaque cookie sessions, and an audit trail.`,
	}

	// Global flag for config file path
	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")

	// Add subcommands
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newMigrateCmd())
	cmd.AddCommand(newCleanupSessionsCmd())
	cmd.AddCommand(newCreateUserCmd())

	return cmd
}
