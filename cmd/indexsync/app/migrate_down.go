package app

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/daaslabs/indexsync/database"
	"github.com/daaslabs/indexsync/internal/config"
)

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back database migrations",
	Long: `Roll back database migrations. By default all migrations are rolled
back; use --num-steps to roll back a limited number.`,
	RunE: runMigrateDown,
}

func runMigrateDown(cmd *cobra.Command, _ []string) error {
	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return fmt.Errorf("failed to get config flag: %w", err)
	}

	yes, err := cmd.Flags().GetBool("yes")
	if err != nil {
		return fmt.Errorf("failed to get yes flag: %w", err)
	}

	steps, err := cmd.Flags().GetUint("num-steps")
	if err != nil {
		return fmt.Errorf("failed to get num-steps flag: %w", err)
	}

	cfg, err := config.LoadConfig(config.WithConfigPath(configPath))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	connString, err := cfg.Database.GetConnectionString()
	if err != nil {
		return fmt.Errorf("failed to get connection string: %w", err)
	}

	// Rolling back drops the coordination tables, so always prompt
	// unless --yes was given.
	if !yes {
		slog.Warn("About to roll back migrations",
			"host", cfg.Database.Host, "port", cfg.Database.Port,
			"database", cfg.Database.Database, "steps", steps)
		fmt.Print("Continue? (yes/no): ")
		var response string
		if _, err := fmt.Scanln(&response); err != nil {
			return fmt.Errorf("failed to read user input: %w", err)
		}
		if response != "yes" && response != "y" {
			slog.Info("Rollback cancelled by user")
			return nil
		}
	}

	slog.Info("Rolling back database migrations...")
	if err := database.MigrateDown(connString, steps); err != nil {
		return fmt.Errorf("failed to roll back migrations: %w", err)
	}

	slog.Info("Rollback complete")
	return nil
}
