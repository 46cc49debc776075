package cmd

import (
	"fmt"

	"github.com/jon4hz/lifetrack/internal/config"
	"github.com/jon4hz/lifetrack/internal/database"
	"github.com/spf13/cobra"
)

var migrateFlags struct {
	To   string
	Path string
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
	Long: `Persist the fix-ups applied to legacy documents. With --to, every collection is
additionally copied into a fresh backend, e.g. to move from JSON files to SQLite.`,
	Example: `lifetrack migrate
lifetrack migrate --to sqlite --path ./data/lifetrack.db`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load(rootCmdPersistentFlags.ConfigFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		db, err := database.Open(cmd.Context(), cfg.Database)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close() //nolint:errcheck

		if migrateFlags.To == "" {
			fmt.Println("Database migrations completed successfully!")
			return nil
		}

		dst, err := openBackend(config.DatabaseBackend(migrateFlags.To), migrateFlags.Path)
		if err != nil {
			return err
		}
		defer dst.Close() //nolint:errcheck

		if err := db.CopyTo(cmd.Context(), dst); err != nil {
			return fmt.Errorf("failed to copy collections: %w", err)
		}
		fmt.Printf("Copied all collections to %s backend at %s\n", migrateFlags.To, migrateFlags.Path)
		return nil
	},
}

func init() {
	migrateCmd.Flags().StringVar(&migrateFlags.To, "to", "", "Target backend to copy all collections into (json, sqlite)")
	migrateCmd.Flags().StringVar(&migrateFlags.Path, "path", "", "Directory (json) or database file (sqlite) of the target backend")
	rootCmd.AddCommand(migrateCmd)
}

func openBackend(kind config.DatabaseBackend, path string) (database.Backend, error) {
	if path == "" {
		return nil, fmt.Errorf("--path is required when copying to another backend")
	}
	switch kind {
	case config.DatabaseBackendJSON:
		return database.NewFileBackend(path)
	case config.DatabaseBackendSQLite:
		return database.NewSQLiteBackend(path)
	default:
		return nil, fmt.Errorf("unknown database backend %q", kind)
	}
}
