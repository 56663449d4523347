package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/salesmart/salesmart/internal/db"
	"github.com/salesmart/salesmart/internal/etl"
)

var runsLimit int

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Show recent pipeline runs",
	RunE:  runRuns,
}

func init() {
	runsCmd.Flags().IntVar(&runsLimit, "limit", 20,
		"maximum number of runs to show")
}

func runRuns(cmd *cobra.Command, args []string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.Connection)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	entries, err := etl.ListRuns(ctx, pool, runsLimit)
	if err != nil {
		return err
	}

	if len(entries) == 0 {
		cmd.Println("No pipeline runs recorded.")
		return nil
	}

	cmd.Printf("%-8s %-18s %-25s %-12s %-8s\n",
		"RUN", "PROCESS", "STARTED", "ROWS", "STATUS")
	for _, e := range entries {
		cmd.Printf("%-8d %-18s %-25s %-12d %-8s\n",
			e.RunID, e.ProcessName,
			e.StartedAt.Format(time.RFC3339),
			e.RowsAffected, e.Status)
	}
	return nil
}
