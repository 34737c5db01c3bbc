package main

import (
	"fmt"

	"github.com/manan0901/Vibecoder-sub000/internal/platform/config"
	"github.com/manan0901/Vibecoder-sub000/pkg/database"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate [up|down]",
	Short: "Apply or revert ledger schema migrations",
	Long: `Apply all pending migrations (up) or revert the most recent one (down).

Examples:
  vibepay-admin migrate up
  vibepay-admin migrate down`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{string(database.MigrateUp), string(database.MigrateDown)},
	RunE:      runMigrate,
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	if cfg.StorageDriver != config.StoragePostgres {
		return fmt.Errorf("migrations need STORAGE_DRIVER=%s", config.StoragePostgres)
	}

	direction := database.MigrationDirection(args[0])
	changed, err := database.RunMigrations(cfg.DatabaseURL, cfg.MigrationsDir, direction, newLogger())
	if err != nil {
		return err
	}
	if changed {
		fmt.Fprintf(cmd.OutOrStdout(), "migrations %s applied\n", direction)
	} else {
		fmt.Fprintln(cmd.OutOrStdout(), "no change")
	}
	return nil
}
