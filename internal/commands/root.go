package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"debts/internal/buildinfo"
	"debts/internal/config"
)

// overrides holds the flags shared by every command that touches the store.
type overrides struct {
	dbPath   string
	backend  string
	logLevel string
}

func (o *overrides) register(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&o.dbPath, "db", "", "SQLite database path (overrides SQLITE_DB_PATH)")
	cmd.PersistentFlags().StringVar(&o.backend, "backend", "", "data backend: sqlite or memory (overrides DATA_BACKEND)")
	cmd.PersistentFlags().StringVar(&o.logLevel, "log-level", "", "log level (overrides LOG_LEVEL)")
}

func (o *overrides) apply(cfg *config.Config) {
	if o.dbPath != "" {
		cfg.SQLiteDBPath = o.dbPath
	}
	if o.backend != "" {
		cfg.DataBackend = o.backend
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}
}

func NewRootCommand() *cobra.Command {
	opts := &overrides{}
	run := &runOptions{}

	rootCmd := &cobra.Command{
		Use:   "debts",
		Short: "Personal debt tracker in a desktop window",
		Long: "debts keeps a list of people and what they owe. It serves a small web UI on a\n" +
			"loopback port and shows it in a native window; closing the window stops the server.",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)",
			buildinfo.Version, buildinfo.Commit, buildinfo.Date),
		Args:              cobra.NoArgs,
		CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
		SilenceUsage:      true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApp(cmd.Context(), opts, run)
		},
	}

	opts.register(rootCmd)
	run.register(rootCmd)

	rootCmd.AddCommand(newMigrateCommand(opts))
	rootCmd.AddCommand(newEventsCommand(opts))

	return rootCmd
}
