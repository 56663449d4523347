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
	"github.com/jackc/pgx/v5"

	"github.com/salesmart/salesmart/internal/warehouse"
)

// Run statuses.
const (
	StatusSuccess = "SUCCESS"
	StatusFailure = "FAILURE"
)

// RunEntry is one append-only row of the pipeline run log.
type RunEntry struct {
	RunID        int64
	OpID         uuid.UUID
	ProcessName  string
	StartedAt    time.Time
	FinishedAt   time.Time
	RowsAffected int64
	Status       string
}

// recordRun appends a run-log entry inside the caller's transaction, so the
// entry commits together with the data mutation or not at all.
func recordRun(ctx context.Context, tx pgx.Tx, entry RunEntry) error {
	_, err := tx.Exec(ctx, `
        INSERT INTO etl_run_log (op_id, process_name, started_at, finished_at,
                                 rows_affected, status)
        VALUES ($1, $2, $3, $4, $5, $6)
    `, entry.OpID, entry.ProcessName, entry.StartedAt, entry.FinishedAt,
		entry.RowsAffected, entry.Status)
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}
	return nil
}

// ListRuns returns the most recent run-log entries, newest first.
func ListRuns(ctx context.Context, db warehouse.DB, limit int) ([]RunEntry, error) {
	rows, err := db.Query(ctx, `
        SELECT run_id, op_id, process_name, started_at, finished_at,
               rows_affected, status
        FROM etl_run_log
        ORDER BY run_id DESC
        LIMIT $1
    `, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query run log: %w", err)
	}
	defer rows.Close()

	var entries []RunEntry
	for rows.Next() {
		var e RunEntry
		err := rows.Scan(&e.RunID, &e.OpID, &e.ProcessName, &e.StartedAt,
			&e.FinishedAt, &e.RowsAffected, &e.Status)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
