package app

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/daaslabs/indexsync/internal/config"
	"github.com/daaslabs/indexsync/internal/db"
	"github.com/daaslabs/indexsync/internal/status"
	"github.com/daaslabs/indexsync/internal/sync/coordinator"
)

var fullLoadCmd = &cobra.Command{
	Use:   "full-load",
	Short: "Rebuild index content from the source database",
	Long: `Run a one-shot full load for a domain: scan every current source row,
write the mapped documents to the index, and seed the change cursor for
a domain that has never had one.

With --from and --to, only rows modified inside that window are
re-indexed, stepping through the range in --step increments. Window
loads never touch the cursor.`,
	RunE: runFullLoad,
}

func init() {
	fullLoadCmd.Flags().String("config", "", "Path to configuration file (YAML format, required)")
	fullLoadCmd.Flags().String("domain", "", "Domain to load (required)")
	fullLoadCmd.Flags().String("from", "", "Window start (RFC 3339)")
	fullLoadCmd.Flags().String("to", "", "Window end (RFC 3339)")
	fullLoadCmd.Flags().Duration("step", 24*time.Hour, "Window step size")

	if err := fullLoadCmd.MarkFlagRequired("config"); err != nil {
		panic(err)
	}
	if err := fullLoadCmd.MarkFlagRequired("domain"); err != nil {
		panic(err)
	}
}

func runFullLoad(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return fmt.Errorf("failed to get config flag: %w", err)
	}
	domain, err := cmd.Flags().GetString("domain")
	if err != nil {
		return fmt.Errorf("failed to get domain flag: %w", err)
	}
	fromRaw, err := cmd.Flags().GetString("from")
	if err != nil {
		return fmt.Errorf("failed to get from flag: %w", err)
	}
	toRaw, err := cmd.Flags().GetString("to")
	if err != nil {
		return fmt.Errorf("failed to get to flag: %w", err)
	}
	step, err := cmd.Flags().GetDuration("step")
	if err != nil {
		return fmt.Errorf("failed to get step flag: %w", err)
	}

	if (fromRaw == "") != (toRaw == "") {
		return fmt.Errorf("--from and --to must be provided together")
	}

	cfg, err := config.LoadConfig(config.WithConfigPath(configPath))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	pool, err := db.NewPool(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to source database: %w", err)
	}
	defer pool.Close()

	coord := coordinator.New(cfg, coordinator.NewFromPool(pool, cfg), status.NewTracker())

	var result any
	if fromRaw == "" {
		result, err = coord.TriggerFullLoad(ctx, domain)
	} else {
		var from, to time.Time
		from, err = time.Parse(time.RFC3339, fromRaw)
		if err != nil {
			return fmt.Errorf("invalid --from timestamp: %w", err)
		}
		to, err = time.Parse(time.RFC3339, toRaw)
		if err != nil {
			return fmt.Errorf("invalid --to timestamp: %w", err)
		}
		result, err = coord.TriggerWindowLoad(ctx, domain, from, to, step)
	}
	if err != nil {
		return err
	}

	output, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to format load result: %w", err)
	}
	fmt.Println(string(output))
	return nil
}
