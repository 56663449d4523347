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
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestDiscountTierThresholds(t *testing.T) {
	tests := []struct {
		value string
		want  string
	}{
		{"0", TierBronze},
		{"4999.99", TierBronze},
		{"5000.00", TierSilver},
		{"19999.99", TierSilver},
		{"20000.00", TierGold},
		{"49999.99", TierGold},
		{"50000.00", TierPlatinum},
		{"125000.50", TierPlatinum},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			v, err := decimal.NewFromString(tt.value)
			require.NoError(t, err)
			require.Equal(t, tt.want, DiscountTier(v))
		})
	}
}

func TestDiscountTierNegativeValue(t *testing.T) {
	require.Equal(t, TierBronze, DiscountTier(decimal.NewFromInt(-100)))
}

func TestClassifyTrend(t *testing.T) {
	dec := func(s string) decimal.Decimal {
		d, err := decimal.NewFromString(s)
		require.NoError(t, err)
		return d
	}

	tests := []struct {
		name     string
		current  string
		previous string
		want     string
	}{
		{"zero previous is new", "500", "0", TrendNew},
		{"zero previous and current is new", "0", "0", TrendNew},
		{"above growth factor", "111", "100", TrendGrowing},
		{"exactly growth factor is stable", "110", "100", TrendStable},
		{"within band is stable", "100", "100", TrendStable},
		{"exactly decline factor is stable", "90", "100", TrendStable},
		{"below decline factor", "89.99", "100", TrendDeclining},
		{"collapsed to zero", "0", "100", TrendDeclining},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyTrend(dec(tt.current), dec(tt.previous))
			require.Equal(t, tt.want, got)
		})
	}
}

func TestSalesTrendRejectsBadLookback(t *testing.T) {
	_, err := SalesTrend(t.Context(), nil, "CUST000001", 0, time.Now())
	require.Error(t, err)
}
