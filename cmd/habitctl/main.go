// Command habitctl runs maintenance tasks against the habits database using the
// same configuration as the API server.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"habitsAPI/internal/bootstrap"
	"habitsAPI/internal/clock"
	"habitsAPI/internal/storage/migrations"
	"habitsAPI/services"
)

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:          "habitctl",
	Short:        "Maintenance tool for the habits API",
	SilenceUsage: true,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the database schema",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := bootstrap.Setup()
		if err != nil {
			return err
		}

		pool, err := bootstrap.Connect(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer pool.Close()

		if err := migrations.MigrateUp(pool); err != nil {
			return err
		}

		status, err := migrations.CheckStatus(pool)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Schema at version %d\n", status.Version)
		return nil
	},
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current schema version",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := bootstrap.Setup()
		if err != nil {
			return err
		}

		pool, err := bootstrap.Connect(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer pool.Close()

		status, err := migrations.CheckStatus(pool)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Version: %d\nLatest:  %d\nDirty:   %t\n", status.Version, status.Latest, status.Dirty)
		if !status.UpToDate() {
			return fmt.Errorf("schema is not up to date, run: habitctl migrate up")
		}
		return nil
	},
}

var recomputeCmd = &cobra.Command{
	Use:   "recompute",
	Short: "Recompute streak statistics for every habit from the completion ledger",
	RunE: func(cmd *cobra.Command, args []string) error {
		rebuildLongest, _ := cmd.Flags().GetBool("rebuild-longest")

		cfg, err := bootstrap.Setup()
		if err != nil {
			return err
		}

		store, err := bootstrap.OpenStore(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		habits := services.NewHabitService(store, clock.Real{}, cfg.Location())
		changed, err := habits.RecomputeAll(cmd.Context(), rebuildLongest)
		if err != nil {
			return fmt.Errorf("recompute failed: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Updated statistics for %d habits\n", changed)
		return nil
	},
}

func init() {
	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateStatusCmd)

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(recomputeCmd)
	recomputeCmd.Flags().Bool("rebuild-longest", false, "Raise longest streaks to the longest run found in the ledger")
}
