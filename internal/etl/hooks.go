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
	"github.com/jackc/pgx/v5"

	"github.com/salesmart/salesmart/internal/logging"
)

// Hooks are explicit pre/post callbacks invoked by the loader and the
// versioning engine. They replace what would otherwise be engine-fired
// triggers, so validation and audit stay in the operation's own control
// flow and can be tested independently.
type Hooks interface {
	// PreLoad validates the staging window before the merge. It returns the
	// number of staged rows that fail row-scoped validation; those rows are
	// skipped by the merge, not errored.
	PreLoad(ctx context.Context, tx pgx.Tx, start, end time.Time) (int64, error)

	// PostChange records an audit entry for a completed mutation. It runs
	// inside the operation's transaction.
	PostChange(ctx context.Context, tx pgx.Tx, opID uuid.UUID, process, table, action string, rows int64) error
}

// AuditHooks is the default Hooks implementation: validation counts are
// logged, mutations are appended to etl_audit_log.
type AuditHooks struct{}

// DefaultHooks returns the standard audit/validation hooks.
func DefaultHooks() Hooks {
	return AuditHooks{}
}

// PreLoad counts staged rows in the window that violate row-scoped
// validation (non-positive quantity or negative unit price).
func (AuditHooks) PreLoad(ctx context.Context, tx pgx.Tx, start, end time.Time) (int64, error) {
	var invalid int64
	err := tx.QueryRow(ctx, `
        SELECT COUNT(*)
        FROM stg_sales
        WHERE order_date BETWEEN $1 AND $2
          AND (quantity <= 0 OR unit_price < 0)
    `, start, end).Scan(&invalid)
	if err != nil {
		return 0, fmt.Errorf("failed to validate staging window: %w", err)
	}

	if invalid > 0 {
		logging.Warn().
			Int64("invalid_rows", invalid).
			Time("start", start).
			Time("end", end).
			Msg("Skipping staged rows that fail validation")
	}
	return invalid, nil
}

// PostChange appends an audit row for the mutation.
func (AuditHooks) PostChange(ctx context.Context, tx pgx.Tx, opID uuid.UUID, process, table, action string, rows int64) error {
	_, err := tx.Exec(ctx, `
        INSERT INTO etl_audit_log (op_id, process_name, table_name, action, row_count)
        VALUES ($1, $2, $3, $4, $5)
    `, opID, process, table, action, rows)
	if err != nil {
		return fmt.Errorf("failed to record audit entry: %w", err)
	}
	return nil
}
