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

	"github.com/shopspring/decimal"

	"github.com/salesmart/salesmart/internal/warehouse"
)

// Discount tiers.
const (
	TierBronze   = "BRONZE"
	TierSilver   = "SILVER"
	TierGold     = "GOLD"
	TierPlatinum = "PLATINUM"
)

// Tier thresholds on lifetime value, inclusive.
var (
	tierPlatinumMin = decimal.NewFromInt(50000)
	tierGoldMin     = decimal.NewFromInt(20000)
	tierSilverMin   = decimal.NewFromInt(5000)
)

// DiscountTier classifies a lifetime value into a discount tier.
func DiscountTier(lifetimeValue decimal.Decimal) string {
	switch {
	case lifetimeValue.GreaterThanOrEqual(tierPlatinumMin):
		return TierPlatinum
	case lifetimeValue.GreaterThanOrEqual(tierGoldMin):
		return TierGold
	case lifetimeValue.GreaterThanOrEqual(tierSilverMin):
		return TierSilver
	default:
		return TierBronze
	}
}

// Sales trends.
const (
	TrendNew       = "NEW"
	TrendGrowing   = "GROWING"
	TrendDeclining = "DECLINING"
	TrendStable    = "STABLE"
)

var (
	trendGrowthFactor  = decimal.NewFromFloat(1.1)
	trendDeclineFactor = decimal.NewFromFloat(0.9)
)

// classifyTrend compares spend in the current window against the previous
// one. A previous period of exactly zero is NEW regardless of the current
// value.
func classifyTrend(current, previous decimal.Decimal) string {
	switch {
	case previous.IsZero():
		return TrendNew
	case current.GreaterThan(previous.Mul(trendGrowthFactor)):
		return TrendGrowing
	case current.LessThan(previous.Mul(trendDeclineFactor)):
		return TrendDeclining
	default:
		return TrendStable
	}
}

// SalesTrend classifies the customer's spend in [now − window, now) against
// [now − 2×window, now − window). Reads the fact table, mutates nothing.
func SalesTrend(ctx context.Context, db warehouse.DB, customerID string, lookbackMonths int, now time.Time) (string, error) {
	if lookbackMonths < 1 {
		return "", fmt.Errorf("lookback months must be at least 1, got %d", lookbackMonths)
	}

	windowStart := now.AddDate(0, -lookbackMonths, 0)
	previousStart := now.AddDate(0, -2*lookbackMonths, 0)

	var current, previous decimal.Decimal
	err := db.QueryRow(ctx, `
        SELECT COALESCE(SUM(f.total_amount) FILTER (WHERE d.full_date >= $2 AND d.full_date < $3), 0),
               COALESCE(SUM(f.total_amount) FILTER (WHERE d.full_date >= $4 AND d.full_date < $2), 0)
        FROM fact_sales f
        JOIN dim_date d ON d.date_key = f.date_key
        JOIN dim_customer c ON c.customer_key = f.customer_key
        WHERE c.customer_id = $1
    `, customerID, windowStart, now, previousStart).Scan(&current, &previous)
	if err != nil {
		return "", fmt.Errorf("failed to sum customer spend: %w", err)
	}

	return classifyTrend(current, previous), nil
}

// CustomerTier looks up the current version's lifetime value and classifies it.
func CustomerTier(ctx context.Context, db warehouse.DB, customerID string) (string, error) {
	var ltv decimal.Decimal
	err := db.QueryRow(ctx, `
        SELECT lifetime_value FROM dim_customer
        WHERE customer_id = $1 AND is_current
    `, customerID).Scan(&ltv)
	if err != nil {
		return "", fmt.Errorf("failed to read lifetime value for %s: %w", customerID, err)
	}
	return DiscountTier(ltv), nil
}
