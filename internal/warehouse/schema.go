//-------------------------------------------------------------------------
//
// SalesMart Warehouse ETL
//
// Copyright (c) 2025 - 2026, SalesMart Project
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package warehouse defines the star schema of the sales data mart and the
// row types shared by the ETL operations.
package warehouse

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema SQL for creating the sales mart.
// Star schema: fact_sales in the center, SCD Type 2 customer dimension.
const createSchemaSQL = `
-- Date Dimension
CREATE TABLE IF NOT EXISTS dim_date (
    date_key     INTEGER PRIMARY KEY,
    full_date    DATE NOT NULL UNIQUE,
    year         INTEGER NOT NULL,
    quarter      INTEGER NOT NULL,
    month        INTEGER NOT NULL,
    day          INTEGER NOT NULL,
    day_of_week  INTEGER NOT NULL,
    day_name     VARCHAR(9) NOT NULL,
    month_name   VARCHAR(9) NOT NULL,
    is_weekend   BOOLEAN NOT NULL DEFAULT FALSE
);

-- Customer Dimension (SCD Type 2)
CREATE TABLE IF NOT EXISTS dim_customer (
    customer_key        BIGSERIAL PRIMARY KEY,
    customer_id         VARCHAR(32) NOT NULL,
    name                VARCHAR(100) NOT NULL,
    email               VARCHAR(100),
    segment             VARCHAR(30),
    address_line        VARCHAR(150),
    city                VARCHAR(60),
    state               VARCHAR(30),
    zip                 VARCHAR(10),
    country             VARCHAR(40),
    lifetime_value      NUMERIC(12,2) NOT NULL DEFAULT 0,
    acquisition_channel VARCHAR(30),
    effective_date      DATE NOT NULL,
    expiry_date         DATE,
    is_current          BOOLEAN NOT NULL DEFAULT TRUE,
    version             INTEGER NOT NULL DEFAULT 1,
    UNIQUE (customer_id, version)
);

-- At most one current version per natural key.
CREATE UNIQUE INDEX IF NOT EXISTS idx_dim_customer_current
    ON dim_customer(customer_id) WHERE is_current;

-- Product Dimension
CREATE TABLE IF NOT EXISTS dim_product (
    product_key BIGSERIAL PRIMARY KEY,
    product_id  VARCHAR(32) NOT NULL UNIQUE,
    name        VARCHAR(120) NOT NULL,
    category    VARCHAR(60),
    brand       VARCHAR(60),
    unit_cost   NUMERIC(10,2) NOT NULL,
    unit_price  NUMERIC(10,2) NOT NULL
);

-- Location Dimension
CREATE TABLE IF NOT EXISTS dim_location (
    location_key BIGSERIAL PRIMARY KEY,
    location_id  VARCHAR(32) NOT NULL UNIQUE,
    city         VARCHAR(60),
    state        VARCHAR(30),
    region       VARCHAR(30),
    country      VARCHAR(40)
);

-- Staging table for raw transactional rows
CREATE TABLE IF NOT EXISTS stg_sales (
    transaction_id  VARCHAR(40) PRIMARY KEY,
    order_date      DATE NOT NULL,
    customer_id     VARCHAR(32) NOT NULL,
    product_id      VARCHAR(32) NOT NULL,
    location_id     VARCHAR(32) NOT NULL,
    quantity        INTEGER NOT NULL,
    unit_price      NUMERIC(10,2) NOT NULL,
    discount_amount NUMERIC(10,2) NOT NULL DEFAULT 0,
    tax_amount      NUMERIC(10,2) NOT NULL DEFAULT 0,
    total_amount    NUMERIC(12,2) NOT NULL,
    order_number    VARCHAR(40) NOT NULL,
    payment_method  VARCHAR(20),
    loaded_at       TIMESTAMPTZ NOT NULL DEFAULT now()
);

-- Sales Fact
CREATE TABLE IF NOT EXISTS fact_sales (
    sales_key       BIGSERIAL PRIMARY KEY,
    transaction_id  VARCHAR(40) NOT NULL UNIQUE,
    date_key        INTEGER NOT NULL REFERENCES dim_date(date_key),
    customer_key    BIGINT NOT NULL REFERENCES dim_customer(customer_key),
    product_key     BIGINT NOT NULL REFERENCES dim_product(product_key),
    location_key    BIGINT NOT NULL REFERENCES dim_location(location_key),
    order_number    VARCHAR(40) NOT NULL,
    payment_method  VARCHAR(20),
    quantity        INTEGER NOT NULL CHECK (quantity > 0),
    unit_price      NUMERIC(10,2) NOT NULL CHECK (unit_price >= 0),
    discount_amount NUMERIC(10,2) NOT NULL DEFAULT 0,
    tax_amount      NUMERIC(10,2) NOT NULL DEFAULT 0,
    total_amount    NUMERIC(12,2) NOT NULL,
    cost_amount     NUMERIC(12,2) NOT NULL,
    profit_amount   NUMERIC(12,2) NOT NULL
);

-- Daily rollup, fully derived from fact_sales. Safe to drop and rebuild.
CREATE TABLE IF NOT EXISTS agg_daily_sales (
    date_key        INTEGER NOT NULL,
    customer_key    BIGINT NOT NULL,
    product_key     BIGINT NOT NULL,
    total_quantity  BIGINT NOT NULL,
    total_revenue   NUMERIC(14,2) NOT NULL,
    total_cost      NUMERIC(14,2) NOT NULL,
    total_profit    NUMERIC(14,2) NOT NULL,
    order_count     INTEGER NOT NULL,
    avg_order_value NUMERIC(12,2) NOT NULL,
    PRIMARY KEY (date_key, customer_key, product_key)
);

-- Pipeline run log, append-only
CREATE TABLE IF NOT EXISTS etl_run_log (
    run_id        BIGSERIAL PRIMARY KEY,
    op_id         UUID NOT NULL,
    process_name  VARCHAR(60) NOT NULL,
    started_at    TIMESTAMPTZ NOT NULL,
    finished_at   TIMESTAMPTZ NOT NULL,
    rows_affected BIGINT NOT NULL DEFAULT 0,
    status        VARCHAR(10) NOT NULL
);

-- Audit log written by the explicit load/versioning hooks
CREATE TABLE IF NOT EXISTS etl_audit_log (
    audit_id     BIGSERIAL PRIMARY KEY,
    op_id        UUID NOT NULL,
    process_name VARCHAR(60) NOT NULL,
    table_name   VARCHAR(60) NOT NULL,
    action       VARCHAR(20) NOT NULL,
    row_count    BIGINT NOT NULL DEFAULT 0,
    recorded_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

-- Inventory snapshot per product. Availability and value are derived on
-- read, never stored.
CREATE TABLE IF NOT EXISTS product_inventory (
    product_key       BIGINT PRIMARY KEY REFERENCES dim_product(product_key),
    quantity_on_hand  INTEGER NOT NULL DEFAULT 0,
    quantity_reserved INTEGER NOT NULL DEFAULT 0,
    updated_at        TIMESTAMPTZ NOT NULL DEFAULT now()
);

-- Indexes for load joins and rollup scans
CREATE INDEX IF NOT EXISTS idx_dim_customer_id ON dim_customer(customer_id);
CREATE INDEX IF NOT EXISTS idx_stg_sales_order_date ON stg_sales(order_date);
CREATE INDEX IF NOT EXISTS idx_fact_sales_date ON fact_sales(date_key);
CREATE INDEX IF NOT EXISTS idx_fact_sales_customer ON fact_sales(customer_key);
CREATE INDEX IF NOT EXISTS idx_fact_sales_product ON fact_sales(product_key);
CREATE INDEX IF NOT EXISTS idx_run_log_process ON etl_run_log(process_name, started_at);
`

// Drop schema SQL
const dropSchemaSQL = `
DROP TABLE IF EXISTS product_inventory CASCADE;
DROP TABLE IF EXISTS etl_audit_log CASCADE;
DROP TABLE IF EXISTS etl_run_log CASCADE;
DROP TABLE IF EXISTS agg_daily_sales CASCADE;
DROP TABLE IF EXISTS fact_sales CASCADE;
DROP TABLE IF EXISTS stg_sales CASCADE;
DROP TABLE IF EXISTS dim_location CASCADE;
DROP TABLE IF EXISTS dim_product CASCADE;
DROP TABLE IF EXISTS dim_customer CASCADE;
DROP TABLE IF EXISTS dim_date CASCADE;
`

// CreateSchema creates the sales mart schema.
func CreateSchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, createSchemaSQL)
	return err
}

// DropSchema drops the sales mart schema.
func DropSchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, dropSchemaSQL)
	return err
}
