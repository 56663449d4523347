package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/salesmart/salesmart/internal/db"
	"github.com/salesmart/salesmart/internal/etl"
)

var aggregateDate string

var aggregateCmd = &cobra.Command{
	Use:   "aggregate",
	Short: "Rebuild the daily sales rollup for a date",
	Long: `Regenerate all daily aggregate rows for a single calendar date from
current fact data. The prior rollup for the date is replaced, not merged;
re-running against an unchanged fact table produces identical rows.

Example:
  salesmart aggregate --date 2026-08-30`,
	RunE: runAggregate,
}

func init() {
	aggregateCmd.Flags().StringVar(&aggregateDate, "date", "",
		"target date (YYYY-MM-DD, required)")
}

func runAggregate(cmd *cobra.Command, args []string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if aggregateDate == "" {
		return fmt.Errorf("target date is required")
	}

	day, err := time.Parse(time.DateOnly, aggregateDate)
	if err != nil {
		return fmt.Errorf("invalid date: %w", err)
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.Connection)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	rows, err := etl.NewAggregator(pool).RebuildDay(ctx, day)
	if err != nil {
		return fmt.Errorf("aggregate failed: %w", err)
	}

	cmd.Printf("Rebuilt %d aggregate rows for %s\n", rows, aggregateDate)
	return nil
}
