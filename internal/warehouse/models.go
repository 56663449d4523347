//-------------------------------------------------------------------------
//
// SalesMart Warehouse ETL
//
// Copyright (c) 2025 - 2026, SalesMart Project
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package warehouse

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

// DB is an interface that both *pgxpool.Pool and *pgx.Conn satisfy.
// This allows the ETL operations to work with either a connection pool or
// a dedicated single connection.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Customer is one version of a customer dimension row.
type Customer struct {
	CustomerKey        int64
	CustomerID         string
	Name               string
	Email              string
	Segment            string
	AddressLine        string
	City               string
	State              string
	Zip                string
	Country            string
	LifetimeValue      decimal.Decimal
	AcquisitionChannel string
	EffectiveDate      time.Time
	ExpiryDate         *time.Time
	IsCurrent          bool
	Version            int
}

// CustomerAttributes is the candidate attribute set compared by the
// change detector. Only these fields participate in SCD versioning.
type CustomerAttributes struct {
	Name    string
	Email   string
	Segment string
	City    string
	State   string
}

// Attributes returns the tracked attribute set of the customer version.
func (c *Customer) Attributes() CustomerAttributes {
	return CustomerAttributes{
		Name:    c.Name,
		Email:   c.Email,
		Segment: c.Segment,
		City:    c.City,
		State:   c.State,
	}
}

// SalesFact is a row of the central fact table.
type SalesFact struct {
	SalesKey       int64
	TransactionID  string
	DateKey        int
	CustomerKey    int64
	ProductKey     int64
	LocationKey    int64
	OrderNumber    string
	PaymentMethod  string
	Quantity       int
	UnitPrice      decimal.Decimal
	DiscountAmount decimal.Decimal
	TaxAmount      decimal.Decimal
	TotalAmount    decimal.Decimal
	CostAmount     decimal.Decimal
	ProfitAmount   decimal.Decimal
}

// DailyAggregate is a rollup row at (date, customer, product) grain.
type DailyAggregate struct {
	DateKey       int
	CustomerKey   int64
	ProductKey    int64
	TotalQuantity int64
	TotalRevenue  decimal.Decimal
	TotalCost     decimal.Decimal
	TotalProfit   decimal.Decimal
	OrderCount    int
	AvgOrderValue decimal.Decimal
}

// Inventory is a per-product stock snapshot. Availability and value are
// computed on read rather than stored.
type Inventory struct {
	ProductKey       int64
	QuantityOnHand   int
	QuantityReserved int
	UnitCost         decimal.Decimal
	UpdatedAt        time.Time
}

// QuantityAvailable returns on-hand stock minus reservations, floored at zero.
func (i *Inventory) QuantityAvailable() int {
	avail := i.QuantityOnHand - i.QuantityReserved
	if avail < 0 {
		return 0
	}
	return avail
}

// InventoryValue returns the value of on-hand stock at unit cost.
func (i *Inventory) InventoryValue() decimal.Decimal {
	return i.UnitCost.Mul(decimal.NewFromInt(int64(i.QuantityOnHand)))
}

// DateKey converts a calendar date to the yyyymmdd key used by dim_date.
func DateKey(d time.Time) int {
	return d.Year()*10000 + int(d.Month())*100 + d.Day()
}
