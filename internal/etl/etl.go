//-------------------------------------------------------------------------
//
// SalesMart Warehouse ETL
//
// Copyright (c) 2025 - 2026, SalesMart Project
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package etl implements the pipeline operations of the sales mart: the
// incremental fact load, SCD Type 2 customer-dimension maintenance, the
// daily aggregate rebuild, the lifetime-value refresh, and the derived
// classification functions.
//
// Every mutating operation runs inside a single transaction with rollback
// on any failure path, so partial writes never become visible. Concurrent
// writers for overlapping keys are serialized by Postgres row locks; the
// operations implement no coordination of their own and never retry.
package etl

// Process names recorded in the run log.
const (
	ProcessSalesLoad      = "sales_load"
	ProcessDailyAggregate = "daily_aggregate"
	ProcessCustomerSCD    = "customer_scd"
	ProcessLTVRefresh     = "ltv_refresh"
)
