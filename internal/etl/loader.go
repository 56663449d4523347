//-------------------------------------------------------------------------
//
// SalesMart Warehouse ETL
//
// Copyright (c) 2025 - 2026, SalesMart Project
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

// LoadSummary is the result of one incremental load invocation.
type LoadSummary struct {
	OpID uuid.UUID

	// RowsAffected counts fact rows inserted or updated by the merge.
	RowsAffected int64

	// InvalidRows counts staged rows in the window skipped by row-scoped
	// validation.
	InvalidRows int64

	// ReferentialMisses counts valid staged rows in the window excluded
	// because a referenced dimension entry is missing.
	ReferentialMisses int64
}

// mergeSalesSQL copies staged rows into the fact table. Staged rows join
// against the current customer version and the natural keys of the other
// dimensions; rows without a matching dimension entry are excluded, not
// errored. Existing transactions refresh only quantity and total_amount —
// cost and profit are left untouched on update.
const mergeSalesSQL = `
INSERT INTO fact_sales (transaction_id, date_key, customer_key, product_key,
                        location_key, order_number, payment_method, quantity,
                        unit_price, discount_amount, tax_amount, total_amount,
                        cost_amount, profit_amount)
SELECT s.transaction_id, d.date_key, c.customer_key, p.product_key, l.location_key,
       s.order_number, s.payment_method, s.quantity, s.unit_price,
       s.discount_amount, s.tax_amount, s.total_amount,
       p.unit_cost * s.quantity,
       s.total_amount - (p.unit_cost * s.quantity)
FROM stg_sales s
JOIN dim_date d ON d.full_date = s.order_date
JOIN dim_customer c ON c.customer_id = s.customer_id AND c.is_current
JOIN dim_product p ON p.product_id = s.product_id
JOIN dim_location l ON l.location_id = s.location_id
WHERE s.order_date BETWEEN $1 AND $2
  AND s.quantity > 0
  AND s.unit_price >= 0
ON CONFLICT (transaction_id) DO UPDATE
SET quantity     = EXCLUDED.quantity,
    total_amount = EXCLUDED.total_amount
`

// countMatchedSQL counts the valid staged rows in the window that resolve
// against every dimension; the difference to the valid window count is the
// referential miss count.
const countMatchedSQL = `
SELECT COUNT(*)
FROM stg_sales s
JOIN dim_date d ON d.full_date = s.order_date
JOIN dim_customer c ON c.customer_id = s.customer_id AND c.is_current
JOIN dim_product p ON p.product_id = s.product_id
JOIN dim_location l ON l.location_id = s.location_id
WHERE s.order_date BETWEEN $1 AND $2
  AND s.quantity > 0
  AND s.unit_price >= 0
`

// Loader merges staged transactional rows into the fact table.
type Loader struct {
	db    warehouse.DB
	hooks Hooks
}

// NewLoader creates an incremental loader.
func NewLoader(db warehouse.DB, hooks Hooks) *Loader {
	if hooks == nil {
		hooks = DefaultHooks()
	}
	return &Loader{db: db, hooks: hooks}
}

// LoadWindow merges staged rows dated inside the closed interval
// [start, end] into fact_sales. The merge, its audit entry, and exactly one
// run-log entry commit together; on any failure everything rolls back and
// no run-log entry is written.
func (l *Loader) LoadWindow(ctx context.Context, start, end time.Time) (LoadSummary, error) {
	if end.Before(start) {
		return LoadSummary{}, fmt.Errorf("load window end %s before start %s",
			end.Format(time.DateOnly), start.Format(time.DateOnly))
	}

	summary := LoadSummary{OpID: uuid.New()}
	startedAt := time.Now().UTC()

	tx, err := l.db.Begin(ctx)
	if err != nil {
		return LoadSummary{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	summary.InvalidRows, err = l.hooks.PreLoad(ctx, tx, start, end)
	if err != nil {
		return LoadSummary{}, err
	}

	var windowRows int64
	err = tx.QueryRow(ctx, `
        SELECT COUNT(*) FROM stg_sales
        WHERE order_date BETWEEN $1 AND $2
          AND quantity > 0 AND unit_price >= 0
    `, start, end).Scan(&windowRows)
	if err != nil {
		return LoadSummary{}, fmt.Errorf("failed to count staging window: %w", err)
	}

	var matched int64
	err = tx.QueryRow(ctx, countMatchedSQL, start, end).Scan(&matched)
	if err != nil {
		return LoadSummary{}, fmt.Errorf("failed to count matched rows: %w", err)
	}
	summary.ReferentialMisses = windowRows - matched

	tag, err := tx.Exec(ctx, mergeSalesSQL, start, end)
	if err != nil {
		return LoadSummary{}, fmt.Errorf("failed to merge staged sales: %w", err)
	}
	summary.RowsAffected = tag.RowsAffected()

	if err := l.hooks.PostChange(ctx, tx, summary.OpID, ProcessSalesLoad,
		"fact_sales", "merge", summary.RowsAffected); err != nil {
		return LoadSummary{}, err
	}

	err = recordRun(ctx, tx, RunEntry{
		OpID:         summary.OpID,
		ProcessName:  ProcessSalesLoad,
		StartedAt:    startedAt,
		FinishedAt:   time.Now().UTC(),
		RowsAffected: summary.RowsAffected,
		Status:       StatusSuccess,
	})
	if err != nil {
		return LoadSummary{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return LoadSummary{}, fmt.Errorf("failed to commit: %w", err)
	}

	logging.Info().
		Str("op_id", summary.OpID.String()).
		Time("start", start).
		Time("end", end).
		Int64("rows_affected", summary.RowsAffected).
		Int64("referential_misses", summary.ReferentialMisses).
		Int64("invalid_rows", summary.InvalidRows).
		Msg("Sales load complete")

	return summary, nil
}
