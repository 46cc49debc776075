package cmd

import (
	"fmt"

	"github.com/jon4hz/lifetrack/internal/config"
	"github.com/jon4hz/lifetrack/internal/database"
	"github.com/jon4hz/lifetrack/internal/engine"
	"github.com/spf13/cobra"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage user accounts",
}

var userSetRoleCmd = &cobra.Command{
	Use:     "set-role <username> <user|admin>",
	Short:   "Change the role of a user",
	Example: `lifetrack user set-role alice admin`,
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(cmd, func(e *engine.Engine) error {
			if err := e.SetRole(cmd.Context(), args[0], database.Role(args[1])); err != nil {
				return err
			}
			fmt.Printf("%s is now %s\n", args[0], args[1])
			return nil
		})
	},
}

var userUnbanCmd = &cobra.Command{
	Use:     "unban <username>",
	Short:   "Lift the ban or timeout of a user",
	Example: `lifetrack user unban bob`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(cmd, func(e *engine.Engine) error {
			if err := e.ClearSuspension(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Printf("%s is no longer suspended\n", args[0])
			return nil
		})
	},
}

func init() {
	userCmd.AddCommand(userSetRoleCmd, userUnbanCmd)
	rootCmd.AddCommand(userCmd)
}

func withEngine(cmd *cobra.Command, fn func(*engine.Engine) error) error {
	cfg, err := config.Load(rootCmdPersistentFlags.ConfigFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	db, err := database.Open(cmd.Context(), cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close() //nolint:errcheck

	e, err := engine.New(cfg, db)
	if err != nil {
		return fmt.Errorf("failed to create engine: %w", err)
	}
	defer e.Close() //nolint:errcheck

	return fn(e)
}
