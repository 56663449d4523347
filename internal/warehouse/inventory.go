package warehouse

import (
	"context"
	"fmt"
)

// LoadInventory reads the stock snapshots joined with product cost so the
// derived availability and value accessors have everything they need.
func LoadInventory(ctx context.Context, db DB) ([]Inventory, error) {
	rows, err := db.Query(ctx, `
        SELECT pi.product_key, pi.quantity_on_hand, pi.quantity_reserved,
               p.unit_cost, pi.updated_at
        FROM product_inventory pi
        JOIN dim_product p ON p.product_key = pi.product_key
        ORDER BY pi.product_key
    `)
	if err != nil {
		return nil, fmt.Errorf("failed to query inventory: %w", err)
	}
	defer rows.Close()

	var snapshots []Inventory
	for rows.Next() {
		var inv Inventory
		err := rows.Scan(&inv.ProductKey, &inv.QuantityOnHand, &inv.QuantityReserved,
			&inv.UnitCost, &inv.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan inventory row: %w", err)
		}
		snapshots = append(snapshots, inv)
	}
	return snapshots, rows.Err()
}
