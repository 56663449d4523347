//-------------------------------------------------------------------------
//
// SalesMart Warehouse ETL
//
// Copyright (c) 2025 - 2026, SalesMart Project
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

//go:build integration
// +build integration

// Integration tests for the ETL operations.
// Run with: go test -tags=integration ./internal/etl/...
// Requires PostgreSQL to be available.
// Set SALESMART_TEST_CONN environment variable to override connection string.

package etl_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/salesmart/salesmart/internal/etl"
	"github.com/salesmart/salesmart/internal/testutil"
	"github.com/salesmart/salesmart/internal/warehouse"
)

// newTestMart creates a fresh database with the mart schema and a minimal
// dimension fixture: dates around base, one product, one location.
func newTestMart(t *testing.T, base time.Time) *pgxpool.Pool {
	t.Helper()

	baseConnStr := testutil.SkipIfNoPostgres(t)
	testConnStr := testutil.CreateTestDB(t, baseConnStr, "etl")
	dbName := testutil.GetDBNameFromConnStr(testConnStr)

	cleanup := testutil.NewTestCleanup(t, baseConnStr, dbName)
	t.Cleanup(cleanup.Cleanup)

	pool := testutil.ConnectTestDB(t, testConnStr)
	cleanup.SetPool(pool)

	ctx := context.Background()
	require.NoError(t, warehouse.CreateSchema(ctx, pool))

	for off := -30; off <= 1; off++ {
		d := base.AddDate(0, 0, off)
		dow := int(d.Weekday())
		_, err := pool.Exec(ctx, `
            INSERT INTO dim_date (date_key, full_date, year, quarter, month, day,
                                  day_of_week, day_name, month_name, is_weekend)
            VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
        `, warehouse.DateKey(d), d, d.Year(), (int(d.Month())+2)/3, int(d.Month()),
			d.Day(), dow, d.Weekday().String(), d.Month().String(), dow == 0 || dow == 6)
		require.NoError(t, err)
	}

	_, err := pool.Exec(ctx, `
        INSERT INTO dim_product (product_id, name, category, brand, unit_cost, unit_price)
        VALUES ('PROD000001', 'Widget', 'Hardware', 'Acme', 10.00, 25.00)
    `)
	require.NoError(t, err)

	_, err = pool.Exec(ctx, `
        INSERT INTO dim_location (location_id, city, state, region, country)
        VALUES ('LOC0001', 'Portland', 'OR', 'West', 'USA')
    `)
	require.NoError(t, err)

	return pool
}

func insertTestCustomer(t *testing.T, pool *pgxpool.Pool, v *etl.Versioner, id string, asOf time.Time) {
	t.Helper()
	_, err := v.InsertCustomer(context.Background(), warehouse.Customer{
		CustomerID: id,
		Name:       "Alice",
		Email:      "alice@example.com",
		Segment:    "Consumer",
		City:       "Portland",
		State:      "OR",
		Country:    "USA",
	}, asOf)
	require.NoError(t, err)
}

func stageSale(t *testing.T, pool *pgxpool.Pool, txn string, date time.Time, qty int, price, total float64) {
	t.Helper()
	stageSaleFor(t, pool, txn, date, "CUST000001", "PROD000001", qty, price, total)
}

func stageSaleFor(t *testing.T, pool *pgxpool.Pool, txn string, date time.Time, customerID, productID string, qty int, price, total float64) {
	t.Helper()
	_, err := pool.Exec(context.Background(), `
        INSERT INTO stg_sales (transaction_id, order_date, customer_id, product_id,
                               location_id, quantity, unit_price, total_amount, order_number)
        VALUES ($1, $2, $3, $4, 'LOC0001', $5, $6, $7, $8)
    `, txn, date, customerID, productID, qty, price, total, "ORD-"+txn)
	require.NoError(t, err)
}

func TestCustomerVersioning(t *testing.T) {
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	pool := newTestMart(t, base)
	ctx := context.Background()

	v := etl.NewVersioner(pool, nil)
	insertTestCustomer(t, pool, v, "CUST000001", base)

	attrs := warehouse.CustomerAttributes{
		Name:    "Alice B.",
		Email:   "alice@example.com",
		Segment: "Consumer",
		City:    "Portland",
		State:   "OR",
	}

	today := base.AddDate(0, 0, 1)
	update, err := v.UpdateCustomer(ctx, "CUST000001", attrs, today)
	require.NoError(t, err)
	require.Equal(t, etl.SCDVersioned, update.Result)
	require.Equal(t, 1, update.OldVersion)
	require.Equal(t, 2, update.NewVersion)

	// Old row is expired with expiry_date = operation date.
	var isCurrent bool
	var expiry time.Time
	err = pool.QueryRow(ctx, `
        SELECT is_current, expiry_date FROM dim_customer
        WHERE customer_id = 'CUST000001' AND version = 1
    `).Scan(&isCurrent, &expiry)
	require.NoError(t, err)
	require.False(t, isCurrent)
	require.Equal(t, today.Format(time.DateOnly), expiry.Format(time.DateOnly))

	// New row carries the changed name and is current.
	var name string
	err = pool.QueryRow(ctx, `
        SELECT name FROM dim_customer
        WHERE customer_id = 'CUST000001' AND is_current AND version = 2
    `).Scan(&name)
	require.NoError(t, err)
	require.Equal(t, "Alice B.", name)

	// Re-running with identical attributes is a no-op.
	update, err = v.UpdateCustomer(ctx, "CUST000001", attrs, today)
	require.NoError(t, err)
	require.Equal(t, etl.SCDNoChange, update.Result)

	// The versioned update wrote one run-log entry; the no-change call none.
	var scdRuns int
	err = pool.QueryRow(ctx, `
        SELECT COUNT(*) FROM etl_run_log WHERE process_name = $1
    `, etl.ProcessCustomerSCD).Scan(&scdRuns)
	require.NoError(t, err)
	require.Equal(t, 1, scdRuns)

	// Exactly one current row, contiguous versions starting at 1.
	var current, total int
	err = pool.QueryRow(ctx, `
        SELECT COUNT(*) FILTER (WHERE is_current), COUNT(*)
        FROM dim_customer WHERE customer_id = 'CUST000001'
    `).Scan(&current, &total)
	require.NoError(t, err)
	require.Equal(t, 1, current)
	require.Equal(t, 2, total)

	rows, err := pool.Query(ctx, `
        SELECT version FROM dim_customer
        WHERE customer_id = 'CUST000001' ORDER BY version
    `)
	require.NoError(t, err)
	defer rows.Close()
	want := 1
	for rows.Next() {
		var got int
		require.NoError(t, rows.Scan(&got))
		require.Equal(t, want, got)
		want++
	}
	require.NoError(t, rows.Err())
}

func TestCurrentCustomerCarriesUnchangedFields(t *testing.T) {
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	pool := newTestMart(t, base)
	ctx := context.Background()

	v := etl.NewVersioner(pool, nil)
	insertTestCustomer(t, pool, v, "CUST000001", base)

	cur, err := etl.CurrentCustomer(ctx, pool, "CUST000001")
	require.NoError(t, err)
	require.Equal(t, "Alice", cur.Name)
	require.Equal(t, 1, cur.Version)
	require.True(t, cur.IsCurrent)

	// Change a single field and carry the rest forward, as the CLI does for
	// unset flags. The untouched attributes must survive the versioning.
	attrs := cur.Attributes()
	attrs.City = "Salem"
	update, err := v.UpdateCustomer(ctx, "CUST000001", attrs, base.AddDate(0, 0, 1))
	require.NoError(t, err)
	require.Equal(t, etl.SCDVersioned, update.Result)

	cur, err = etl.CurrentCustomer(ctx, pool, "CUST000001")
	require.NoError(t, err)
	require.Equal(t, "Salem", cur.City)
	require.Equal(t, "Alice", cur.Name)
	require.Equal(t, "alice@example.com", cur.Email)
	require.Equal(t, "Consumer", cur.Segment)
	require.Equal(t, 2, cur.Version)

	_, err = etl.CurrentCustomer(ctx, pool, "CUST999999")
	require.ErrorIs(t, err, etl.ErrNoCurrentRecord)
}

func TestUpdateCustomerNoCurrentRecord(t *testing.T) {
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	pool := newTestMart(t, base)

	v := etl.NewVersioner(pool, nil)
	_, err := v.UpdateCustomer(context.Background(), "CUST999999",
		warehouse.CustomerAttributes{Name: "Nobody"}, base)
	require.ErrorIs(t, err, etl.ErrNoCurrentRecord)
}

func TestLoadWindow(t *testing.T) {
	base := time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)
	pool := newTestMart(t, base)
	ctx := context.Background()

	v := etl.NewVersioner(pool, nil)
	insertTestCustomer(t, pool, v, "CUST000001", base.AddDate(0, 0, -30))

	// Two rows inside the window, one outside, one referencing an unknown
	// product, one failing validation.
	stageSale(t, pool, "TXN0001", base, 2, 25.00, 50.00)
	stageSale(t, pool, "TXN0002", base.AddDate(0, 0, -1), 1, 25.00, 25.00)
	stageSale(t, pool, "TXN0003", base.AddDate(0, 0, -20), 3, 25.00, 75.00)
	stageSaleFor(t, pool, "TXN0004", base, "CUST000001", "PROD_MISSING", 1, 25.00, 25.00)
	stageSale(t, pool, "TXN0005", base, 0, 25.00, 0)

	loader := etl.NewLoader(pool, nil)
	summary, err := loader.LoadWindow(ctx, base.AddDate(0, 0, -7), base)
	require.NoError(t, err)
	require.Equal(t, int64(2), summary.RowsAffected)
	require.Equal(t, int64(1), summary.ReferentialMisses)
	require.Equal(t, int64(1), summary.InvalidRows)

	// The row outside the window is picked up by a wider invocation.
	summary, err = loader.LoadWindow(ctx, base.AddDate(0, 0, -25), base)
	require.NoError(t, err)
	require.Equal(t, int64(3), summary.RowsAffected)

	// Exactly one run-log entry per invocation.
	var runs int
	err = pool.QueryRow(ctx, `
        SELECT COUNT(*) FROM etl_run_log WHERE process_name = $1
    `, etl.ProcessSalesLoad).Scan(&runs)
	require.NoError(t, err)
	require.Equal(t, 2, runs)
}

func TestReloadRefreshesOnlyQuantityAndTotal(t *testing.T) {
	base := time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)
	pool := newTestMart(t, base)
	ctx := context.Background()

	v := etl.NewVersioner(pool, nil)
	insertTestCustomer(t, pool, v, "CUST000001", base.AddDate(0, 0, -30))

	stageSale(t, pool, "TXN0001", base, 2, 25.00, 50.00)

	loader := etl.NewLoader(pool, nil)
	_, err := loader.LoadWindow(ctx, base, base)
	require.NoError(t, err)

	// Unit cost 10.00, quantity 2: cost 20.00, profit 30.00.
	var cost, profit decimal.Decimal
	err = pool.QueryRow(ctx, `
        SELECT cost_amount, profit_amount FROM fact_sales WHERE transaction_id = 'TXN0001'
    `).Scan(&cost, &profit)
	require.NoError(t, err)
	require.True(t, cost.Equal(decimal.RequireFromString("20.00")), "cost was %s", cost)
	require.True(t, profit.Equal(decimal.RequireFromString("30.00")), "profit was %s", profit)

	// Restage with different quantity and total, then reload.
	_, err = pool.Exec(ctx, `
        UPDATE stg_sales SET quantity = 5, total_amount = 125.00
        WHERE transaction_id = 'TXN0001'
    `)
	require.NoError(t, err)

	summary, err := loader.LoadWindow(ctx, base, base)
	require.NoError(t, err)
	require.Equal(t, int64(1), summary.RowsAffected)

	var qty int
	var total decimal.Decimal
	err = pool.QueryRow(ctx, `
        SELECT quantity, total_amount, cost_amount, profit_amount
        FROM fact_sales WHERE transaction_id = 'TXN0001'
    `).Scan(&qty, &total, &cost, &profit)
	require.NoError(t, err)
	require.Equal(t, 5, qty)
	require.True(t, total.Equal(decimal.RequireFromString("125.00")))

	// Cost and profit are untouched on update.
	require.True(t, cost.Equal(decimal.RequireFromString("20.00")), "cost was %s", cost)
	require.True(t, profit.Equal(decimal.RequireFromString("30.00")), "profit was %s", profit)
}

func TestAggregatorIdempotence(t *testing.T) {
	base := time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)
	pool := newTestMart(t, base)
	ctx := context.Background()

	v := etl.NewVersioner(pool, nil)
	insertTestCustomer(t, pool, v, "CUST000001", base.AddDate(0, 0, -30))

	stageSale(t, pool, "TXN0001", base, 2, 25.00, 50.00)
	stageSale(t, pool, "TXN0002", base, 1, 25.00, 25.00)

	loader := etl.NewLoader(pool, nil)
	_, err := loader.LoadWindow(ctx, base, base)
	require.NoError(t, err)

	agg := etl.NewAggregator(pool)

	snapshot := func() []string {
		rows, err := pool.Query(ctx, `
            SELECT date_key, customer_key, product_key, total_quantity,
                   total_revenue, total_cost, total_profit, order_count, avg_order_value
            FROM agg_daily_sales ORDER BY date_key, customer_key, product_key
        `)
		require.NoError(t, err)
		defer rows.Close()
		var out []string
		for rows.Next() {
			var a warehouse.DailyAggregate
			require.NoError(t, rows.Scan(&a.DateKey, &a.CustomerKey, &a.ProductKey,
				&a.TotalQuantity, &a.TotalRevenue, &a.TotalCost, &a.TotalProfit,
				&a.OrderCount, &a.AvgOrderValue))
			out = append(out, fmt.Sprintf("%+v", a))
		}
		require.NoError(t, rows.Err())
		return out
	}

	n1, err := agg.RebuildDay(ctx, base)
	require.NoError(t, err)
	require.Equal(t, int64(1), n1)
	first := snapshot()

	n2, err := agg.RebuildDay(ctx, base)
	require.NoError(t, err)
	require.Equal(t, n1, n2)
	require.Equal(t, first, snapshot())

	// Two distinct orders, three units, 75.00 revenue, per-row average 37.50.
	var a warehouse.DailyAggregate
	err = pool.QueryRow(ctx, `
        SELECT total_quantity, total_revenue, order_count, avg_order_value
        FROM agg_daily_sales WHERE date_key = $1
    `, warehouse.DateKey(base)).Scan(&a.TotalQuantity, &a.TotalRevenue, &a.OrderCount, &a.AvgOrderValue)
	require.NoError(t, err)
	require.Equal(t, int64(3), a.TotalQuantity)
	require.True(t, a.TotalRevenue.Equal(decimal.RequireFromString("75.00")))
	require.Equal(t, 2, a.OrderCount)
	require.True(t, a.AvgOrderValue.Equal(decimal.RequireFromString("37.50")))
}

func TestAggregatorUnknownDateIsNoop(t *testing.T) {
	base := time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)
	pool := newTestMart(t, base)

	n, err := etl.NewAggregator(pool).RebuildDay(context.Background(),
		time.Date(1999, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestLifetimeValueRefresh(t *testing.T) {
	base := time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)
	pool := newTestMart(t, base)
	ctx := context.Background()

	v := etl.NewVersioner(pool, nil)
	insertTestCustomer(t, pool, v, "CUST000001", base.AddDate(0, 0, -30))
	insertTestCustomer(t, pool, v, "CUST000002", base.AddDate(0, 0, -30))

	stageSale(t, pool, "TXN0001", base, 2, 25.00, 50.00)
	stageSale(t, pool, "TXN0002", base.AddDate(0, 0, -1), 1, 25.00, 25.00)

	loader := etl.NewLoader(pool, nil)
	_, err := loader.LoadWindow(ctx, base.AddDate(0, 0, -7), base)
	require.NoError(t, err)

	updated, err := etl.RefreshLifetimeValues(ctx, pool)
	require.NoError(t, err)
	require.Equal(t, int64(2), updated)

	var ltv decimal.Decimal
	err = pool.QueryRow(ctx, `
        SELECT lifetime_value FROM dim_customer
        WHERE customer_id = 'CUST000001' AND is_current
    `).Scan(&ltv)
	require.NoError(t, err)
	require.True(t, ltv.Equal(decimal.RequireFromString("75.00")), "ltv was %s", ltv)

	// Customers with no facts are set to zero, and reruns are idempotent.
	err = pool.QueryRow(ctx, `
        SELECT lifetime_value FROM dim_customer
        WHERE customer_id = 'CUST000002' AND is_current
    `).Scan(&ltv)
	require.NoError(t, err)
	require.True(t, ltv.IsZero())

	_, err = etl.RefreshLifetimeValues(ctx, pool)
	require.NoError(t, err)
	err = pool.QueryRow(ctx, `
        SELECT lifetime_value FROM dim_customer
        WHERE customer_id = 'CUST000001' AND is_current
    `).Scan(&ltv)
	require.NoError(t, err)
	require.True(t, ltv.Equal(decimal.RequireFromString("75.00")))
}

func TestSalesTrendNewCustomer(t *testing.T) {
	base := time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)
	pool := newTestMart(t, base)
	ctx := context.Background()

	v := etl.NewVersioner(pool, nil)
	insertTestCustomer(t, pool, v, "CUST000001", base.AddDate(0, 0, -30))

	stageSale(t, pool, "TXN0001", base.AddDate(0, 0, -5), 2, 25.00, 50.00)

	loader := etl.NewLoader(pool, nil)
	_, err := loader.LoadWindow(ctx, base.AddDate(0, 0, -7), base)
	require.NoError(t, err)

	// All spend is inside the current window; the previous period total is
	// zero, so the trend is NEW regardless of the current value.
	trend, err := etl.SalesTrend(ctx, pool, "CUST000001", 1, base.AddDate(0, 0, 1))
	require.NoError(t, err)
	require.Equal(t, etl.TrendNew, trend)
}

func TestLoadAfterVersioningUsesCurrentKey(t *testing.T) {
	base := time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)
	pool := newTestMart(t, base)
	ctx := context.Background()

	v := etl.NewVersioner(pool, nil)
	insertTestCustomer(t, pool, v, "CUST000001", base.AddDate(0, 0, -30))

	update, err := v.UpdateCustomer(ctx, "CUST000001", warehouse.CustomerAttributes{
		Name:    "Alice B.",
		Email:   "alice@example.com",
		Segment: "Consumer",
		City:    "Portland",
		State:   "OR",
	}, base.AddDate(0, 0, -2))
	require.NoError(t, err)
	require.Equal(t, etl.SCDVersioned, update.Result)

	stageSale(t, pool, "TXN0001", base, 1, 25.00, 25.00)

	loader := etl.NewLoader(pool, nil)
	summary, err := loader.LoadWindow(ctx, base, base)
	require.NoError(t, err)
	require.Equal(t, int64(1), summary.RowsAffected)

	// The fact row references the current (versioned) surrogate key.
	var factKey int64
	err = pool.QueryRow(ctx, `
        SELECT customer_key FROM fact_sales WHERE transaction_id = 'TXN0001'
    `).Scan(&factKey)
	require.NoError(t, err)
	require.Equal(t, update.CustomerKey, factKey)
}
