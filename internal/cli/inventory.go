package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/salesmart/salesmart/internal/db"
	"github.com/salesmart/salesmart/internal/warehouse"
)

var inventoryCmd = &cobra.Command{
	Use:   "inventory",
	Short: "Report per-product stock availability and value",
	Long: `Report the stock snapshot for every product: on-hand and reserved
quantities as stored, with availability and inventory value derived on read.`,
	RunE: runInventory,
}

func runInventory(cmd *cobra.Command, args []string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.Connection)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	snapshots, err := warehouse.LoadInventory(ctx, pool)
	if err != nil {
		return err
	}

	if len(snapshots) == 0 {
		cmd.Println("No inventory snapshots recorded.")
		return nil
	}

	cmd.Printf("%-12s %-10s %-10s %-10s %-12s\n",
		"PRODUCT", "ON HAND", "RESERVED", "AVAILABLE", "VALUE")
	for _, inv := range snapshots {
		cmd.Printf("%-12d %-10d %-10d %-10d %-12s\n",
			inv.ProductKey, inv.QuantityOnHand, inv.QuantityReserved,
			inv.QuantityAvailable(), inv.InventoryValue().StringFixed(2))
	}
	return nil
}
