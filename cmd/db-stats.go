package cmd

import (
	"fmt"

	"github.com/jon4hz/lifetrack/internal/config"
	"github.com/jon4hz/lifetrack/internal/database"
	"github.com/spf13/cobra"
)

var dbStatsCmd = &cobra.Command{
	Use:   "db-stats",
	Short: "Show database statistics",
	Long:  `Display the number of records stored in every collection.`,
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

		counts, err := db.Counts(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to get database stats: %w", err)
		}

		fmt.Println("Database Statistics:")
		for _, name := range database.CollectionNames {
			fmt.Printf("  %-10s %d\n", name+":", counts[name])
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(dbStatsCmd)
}
