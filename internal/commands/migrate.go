package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"debts/internal/cli"
	"debts/internal/config"
	"debts/internal/storage"
)

func newMigrateCommand(opts *overrides) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the SQLite schema and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cli.LoadEnvFile()
			cfg, err := cli.LoadAndValidateConfig(func(c *config.Config) {
				opts.apply(c)
				c.Headless = true
			})
			if err != nil {
				return err
			}
			if cfg.DataBackend != config.BackendSQLite {
				return fmt.Errorf("migrate needs the sqlite backend, got %q", cfg.DataBackend)
			}
			return runMigrate(cmd, cfg.SQLiteDBPath)
		},
	}
}

func runMigrate(cmd *cobra.Command, dbPath string) error {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating database directory: %w", err)
		}
	}
	if err := storage.RunMigrations(storage.DSN(dbPath)); err != nil {
		return fmt.Errorf("migrating %s: %w", dbPath, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Schema up to date: %s\n", dbPath)
	return nil
}
