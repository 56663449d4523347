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
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/salesmart/salesmart/internal/logging"
	"github.com/salesmart/salesmart/internal/warehouse"
)

// ErrNoCurrentRecord is returned when no current dimension version exists
// for the natural key. It is distinct from a no-change outcome: the caller
// decides whether to insert a brand-new dimension entry.
var ErrNoCurrentRecord = errors.New("no current record for customer")

// SCD update outcomes.
const (
	SCDNoChange  = "NO_CHANGE"
	SCDVersioned = "VERSIONED"
)

// SCDUpdate summarizes one customer-dimension maintenance call.
type SCDUpdate struct {
	Result      string
	CustomerKey int64
	OldVersion  int
	NewVersion  int
}

// Versioner maintains the SCD Type 2 customer dimension.
type Versioner struct {
	db    warehouse.DB
	hooks Hooks
}

// NewVersioner creates a customer-dimension versioner.
func NewVersioner(db warehouse.DB, hooks Hooks) *Versioner {
	if hooks == nil {
		hooks = DefaultHooks()
	}
	return &Versioner{db: db, hooks: hooks}
}

// attributesDiffer compares the tracked attribute sets by literal field
// inequality. Trailing whitespace is a genuine difference.
func attributesDiffer(a, b warehouse.CustomerAttributes) bool {
	return a != b
}

// UpdateCustomer applies one SCD Type 2 maintenance step for the customer.
// When the tracked attributes differ from the current version, the current
// row is expired as of asOf and a new version is opened, both inside one
// transaction. A failure between the two steps rolls everything back, so
// the key never ends up with zero or two current rows.
func (v *Versioner) UpdateCustomer(ctx context.Context, customerID string, attrs warehouse.CustomerAttributes, asOf time.Time) (SCDUpdate, error) {
	startedAt := time.Now().UTC()

	tx, err := v.db.Begin(ctx)
	if err != nil {
		return SCDUpdate{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var cur warehouse.Customer
	err = tx.QueryRow(ctx, `
        SELECT customer_key, name, COALESCE(email, ''), COALESCE(segment, ''),
               COALESCE(city, ''), COALESCE(state, ''), version
        FROM dim_customer
        WHERE customer_id = $1 AND is_current
        FOR UPDATE
    `, customerID).Scan(&cur.CustomerKey, &cur.Name, &cur.Email, &cur.Segment,
		&cur.City, &cur.State, &cur.Version)
	if errors.Is(err, pgx.ErrNoRows) {
		return SCDUpdate{}, fmt.Errorf("customer %s: %w", customerID, ErrNoCurrentRecord)
	}
	if err != nil {
		return SCDUpdate{}, fmt.Errorf("failed to read current version: %w", err)
	}

	if !attributesDiffer(cur.Attributes(), attrs) {
		logging.Debug().
			Str("customer_id", customerID).
			Int("version", cur.Version).
			Msg("No change detected")
		return SCDUpdate{
			Result:      SCDNoChange,
			CustomerKey: cur.CustomerKey,
			OldVersion:  cur.Version,
			NewVersion:  cur.Version,
		}, nil
	}

	opID := uuid.New()

	// Expire the current version.
	tag, err := tx.Exec(ctx, `
        UPDATE dim_customer
        SET is_current = FALSE, expiry_date = $2
        WHERE customer_key = $1 AND is_current
    `, cur.CustomerKey, asOf)
	if err != nil {
		return SCDUpdate{}, fmt.Errorf("failed to expire version %d: %w", cur.Version, err)
	}
	if tag.RowsAffected() != 1 {
		return SCDUpdate{}, fmt.Errorf("expected to expire one row for %s, got %d",
			customerID, tag.RowsAffected())
	}

	// Open the new version, carrying forward the untracked attributes.
	var newKey int64
	err = tx.QueryRow(ctx, `
        INSERT INTO dim_customer (customer_id, name, email, segment, address_line,
                                  city, state, zip, country, lifetime_value,
                                  acquisition_channel, effective_date, is_current, version)
        SELECT customer_id, $2, $3, $4, address_line, $5, $6, zip, country,
               lifetime_value, acquisition_channel, $7, TRUE, version + 1
        FROM dim_customer
        WHERE customer_key = $1
        RETURNING customer_key
    `, cur.CustomerKey, attrs.Name, attrs.Email, attrs.Segment, attrs.City,
		attrs.State, asOf).Scan(&newKey)
	if err != nil {
		return SCDUpdate{}, fmt.Errorf("failed to insert version %d: %w", cur.Version+1, err)
	}

	if err := v.hooks.PostChange(ctx, tx, opID, ProcessCustomerSCD, "dim_customer", "version", 1); err != nil {
		return SCDUpdate{}, err
	}

	err = recordRun(ctx, tx, RunEntry{
		OpID:         opID,
		ProcessName:  ProcessCustomerSCD,
		StartedAt:    startedAt,
		FinishedAt:   time.Now().UTC(),
		RowsAffected: 1,
		Status:       StatusSuccess,
	})
	if err != nil {
		return SCDUpdate{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return SCDUpdate{}, fmt.Errorf("failed to commit: %w", err)
	}

	logging.Info().
		Str("customer_id", customerID).
		Int("old_version", cur.Version).
		Int("new_version", cur.Version+1).
		Msg("Customer versioned")

	return SCDUpdate{
		Result:      SCDVersioned,
		CustomerKey: newKey,
		OldVersion:  cur.Version,
		NewVersion:  cur.Version + 1,
	}, nil
}

// InsertCustomer creates version 1 for a natural key that has no current
// record. The adjacent contract to UpdateCustomer: callers reach for this
// after an ErrNoCurrentRecord.
func (v *Versioner) InsertCustomer(ctx context.Context, c warehouse.Customer, asOf time.Time) (int64, error) {
	tx, err := v.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var key int64
	err = tx.QueryRow(ctx, `
        INSERT INTO dim_customer (customer_id, name, email, segment, address_line,
                                  city, state, zip, country, acquisition_channel,
                                  effective_date, is_current, version)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, TRUE, 1)
        RETURNING customer_key
    `, c.CustomerID, c.Name, c.Email, c.Segment, c.AddressLine, c.City, c.State,
		c.Zip, c.Country, c.AcquisitionChannel, asOf).Scan(&key)
	if err != nil {
		return 0, fmt.Errorf("failed to insert customer %s: %w", c.CustomerID, err)
	}

	if err := v.hooks.PostChange(ctx, tx, uuid.New(), ProcessCustomerSCD, "dim_customer", "insert", 1); err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit: %w", err)
	}

	return key, nil
}

// CurrentCustomer reads the current dimension version for the natural key.
// Callers that only change a subset of the tracked attributes use this to
// carry the remaining fields forward into UpdateCustomer.
func CurrentCustomer(ctx context.Context, db warehouse.DB, customerID string) (warehouse.Customer, error) {
	var c warehouse.Customer
	err := db.QueryRow(ctx, `
        SELECT customer_key, customer_id, name, COALESCE(email, ''),
               COALESCE(segment, ''), COALESCE(city, ''), COALESCE(state, ''),
               lifetime_value, effective_date, version
        FROM dim_customer
        WHERE customer_id = $1 AND is_current
    `, customerID).Scan(&c.CustomerKey, &c.CustomerID, &c.Name, &c.Email,
		&c.Segment, &c.City, &c.State, &c.LifetimeValue, &c.EffectiveDate, &c.Version)
	if errors.Is(err, pgx.ErrNoRows) {
		return warehouse.Customer{}, fmt.Errorf("customer %s: %w", customerID, ErrNoCurrentRecord)
	}
	if err != nil {
		return warehouse.Customer{}, fmt.Errorf("failed to read current version: %w", err)
	}
	c.IsCurrent = true
	return c, nil
}
