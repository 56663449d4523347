package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/salesmart/salesmart/internal/db"
	"github.com/salesmart/salesmart/internal/etl"
)

var (
	loadStart string
	loadEnd   string
)

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Incrementally load staged sales into the fact table",
	Long: `Merge staged transactional rows dated inside the closed [start, end]
window into the fact table. Staged rows join against the current customer
version and the natural keys of the other dimensions; rows without a matching
dimension entry are excluded. Re-loading an existing transaction refreshes
only its quantity and total amount.

Example:
  salesmart load --start 2026-08-01 --end 2026-08-31`,
	RunE: runLoad,
}

func init() {
	loadCmd.Flags().StringVar(&loadStart, "start", "",
		"inclusive window start (YYYY-MM-DD)")
	loadCmd.Flags().StringVar(&loadEnd, "end", "",
		"inclusive window end (YYYY-MM-DD)")
}

func runLoad(cmd *cobra.Command, args []string) error {
	if loadStart != "" {
		cfg.Load.Start = loadStart
	}
	if loadEnd != "" {
		cfg.Load.End = loadEnd
	}

	if err := cfg.ValidateLoad(); err != nil {
		return err
	}

	start, err := time.Parse(time.DateOnly, cfg.Load.Start)
	if err != nil {
		return fmt.Errorf("invalid start date: %w", err)
	}
	end, err := time.Parse(time.DateOnly, cfg.Load.End)
	if err != nil {
		return fmt.Errorf("invalid end date: %w", err)
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.Connection)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	loader := etl.NewLoader(pool, nil)
	summary, err := loader.LoadWindow(ctx, start, end)
	if err != nil {
		return fmt.Errorf("load failed: %w", err)
	}

	cmd.Printf("Loaded %d rows (%d referential misses, %d invalid rows skipped)\n",
		summary.RowsAffected, summary.ReferentialMisses, summary.InvalidRows)
	return nil
}
