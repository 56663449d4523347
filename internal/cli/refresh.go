package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/salesmart/salesmart/internal/db"
	"github.com/salesmart/salesmart/internal/etl"
)

var refreshCmd = &cobra.Command{
	Use:   "refresh-ltv",
	Short: "Recompute lifetime value on all current customers",
	Long: `Recompute every current customer's lifetime value as the sum of the
total amounts of all their fact rows, across dimension versions. Full
recompute; safe to run repeatedly.`,
	RunE: runRefresh,
}

func runRefresh(cmd *cobra.Command, args []string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.Connection)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	updated, err := etl.RefreshLifetimeValues(ctx, pool)
	if err != nil {
		return fmt.Errorf("refresh failed: %w", err)
	}

	cmd.Printf("Refreshed lifetime value on %d customers\n", updated)
	return nil
}
