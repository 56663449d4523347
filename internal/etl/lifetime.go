//-------------------------------------------------------------------------
//
// SalesMart Warehouse ETL
//
// Portions copyright (c) 2025 - 2026, SalesMart Project
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package etl

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/salesmart/salesmart/internal/logging"
	"github.com/salesmart/salesmart/internal/warehouse"
)

// refreshLTVSQL recomputes each current customer's lifetime value as the
// sum over every fact row associated with the natural key, across all
// dimension versions. Customers with no facts are set to zero.
const refreshLTVSQL = `
UPDATE dim_customer AS cur
SET lifetime_value = COALESCE((
    SELECT SUM(f.total_amount)
    FROM fact_sales f
    JOIN dim_customer v ON v.customer_key = f.customer_key
    WHERE v.customer_id = cur.customer_id
), 0)
WHERE cur.is_current
`

// RefreshLifetimeValues recomputes lifetime_value on every current customer
// version. Full recompute, not incremental: safe to run repeatedly and
// idempotent absent fact changes.
func RefreshLifetimeValues(ctx context.Context, db warehouse.DB) (int64, error) {
	startedAt := time.Now().UTC()

	tx, err := db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, refreshLTVSQL)
	if err != nil {
		return 0, fmt.Errorf("failed to refresh lifetime values: %w", err)
	}
	updated := tag.RowsAffected()

	err = recordRun(ctx, tx, RunEntry{
		OpID:         uuid.New(),
		ProcessName:  ProcessLTVRefresh,
		StartedAt:    startedAt,
		FinishedAt:   time.Now().UTC(),
		RowsAffected: updated,
		Status:       StatusSuccess,
	})
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit: %w", err)
	}

	logging.Info().
		Int64("customers", updated).
		Msg("Lifetime values refreshed")

	return updated, nil
}
