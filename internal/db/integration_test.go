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

// Integration tests for warehouse metadata.
// Run with: go test -tags=integration ./internal/db/...
// Requires PostgreSQL to be available.

package db_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/salesmart/salesmart/internal/db"
	"github.com/salesmart/salesmart/internal/testutil"
)

func TestMetadataLifecycle(t *testing.T) {
	baseConnStr := testutil.SkipIfNoPostgres(t)
	testConnStr := testutil.CreateTestDB(t, baseConnStr, "db")
	dbName := testutil.GetDBNameFromConnStr(testConnStr)

	cleanup := testutil.NewTestCleanup(t, baseConnStr, dbName)
	t.Cleanup(cleanup.Cleanup)

	pool := testutil.ConnectTestDB(t, testConnStr)
	cleanup.SetPool(pool)
	ctx := context.Background()

	exists, err := db.MetadataExists(ctx, pool)
	require.NoError(t, err)
	require.False(t, exists)

	require.NoError(t, db.SaveMetadata(ctx, pool, "small"))

	exists, err = db.MetadataExists(ctx, pool)
	require.NoError(t, err)
	require.True(t, exists)

	scale, err := db.GetMetadataValue(ctx, pool, "seed_scale")
	require.NoError(t, err)
	require.Equal(t, "small", scale)

	metadata, err := db.GetAllMetadata(ctx, pool)
	require.NoError(t, err)
	require.Contains(t, metadata, "version")
	require.Contains(t, metadata, "initialized_at")
	require.Equal(t, "small", metadata["seed_scale"])

	// Re-saving upserts rather than duplicating.
	require.NoError(t, db.SaveMetadata(ctx, pool, "medium"))
	scale, err = db.GetMetadataValue(ctx, pool, "seed_scale")
	require.NoError(t, err)
	require.Equal(t, "medium", scale)

	require.NoError(t, db.DropMetadata(ctx, pool))
	exists, err = db.MetadataExists(ctx, pool)
	require.NoError(t, err)
	require.False(t, exists)
}
