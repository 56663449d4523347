package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/salesmart/salesmart/internal/db"
	"github.com/salesmart/salesmart/internal/logging"
	"github.com/salesmart/salesmart/internal/warehouse"
)

var (
	initScale        string
	initNoSeed       bool
	initDropExisting bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the warehouse schema and seed sample data",
	Long: `Initialize a PostgreSQL database with the sales mart star schema:
dimensions, fact table, staging table, rollup table, and run log. By default
the dimensions and the staging table are seeded with generated sample data.

Example:
  salesmart init --scale medium --connection "postgres://..."`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().StringVar(&initScale, "scale", "",
		"seed data scale: small, medium, large")
	initCmd.Flags().BoolVar(&initNoSeed, "no-seed", false,
		"create the schema only, without sample data")
	initCmd.Flags().BoolVar(&initDropExisting, "drop-existing", false,
		"drop existing schema before initialization")
}

func runInit(cmd *cobra.Command, args []string) error {
	// Override config with CLI flags
	if initScale != "" {
		cfg.Init.Scale = initScale
	}
	if initNoSeed {
		cfg.Init.Seed = false
	}
	if initDropExisting {
		cfg.Init.DropExisting = true
	}

	if err := cfg.ValidateInit(); err != nil {
		return err
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.Connection)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	// Warn when re-initializing a warehouse that was seeded at a different
	// scale; the dimensions would mix row counts.
	if exists, err := db.MetadataExists(ctx, pool); err == nil && exists && !cfg.Init.DropExisting {
		if prev, err := db.GetMetadataValue(ctx, pool, "seed_scale"); err == nil && prev != cfg.Init.Scale {
			logging.Warn().
				Str("previous_scale", prev).
				Str("scale", cfg.Init.Scale).
				Msg("Warehouse already initialized at a different scale; use --drop-existing for a clean slate")
		}
	}

	if cfg.Init.DropExisting {
		logging.Info().Msg("Dropping existing schema")
		if err := warehouse.DropSchema(ctx, pool); err != nil {
			return fmt.Errorf("failed to drop schema: %w", err)
		}
		if err := db.DropMetadata(ctx, pool); err != nil {
			logging.Debug().Err(err).Msg("No metadata table to drop")
		}
	}

	logging.Info().Msg("Creating schema")
	if err := warehouse.CreateSchema(ctx, pool); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	if cfg.Init.Seed {
		seeder := warehouse.NewSeeder()
		if err := seeder.Seed(ctx, pool, cfg.Init.Scale); err != nil {
			return fmt.Errorf("failed to seed sample data: %w", err)
		}
	}

	if err := db.SaveMetadata(ctx, pool, cfg.Init.Scale); err != nil {
		return fmt.Errorf("failed to save metadata: %w", err)
	}

	logging.Info().
		Str("scale", cfg.Init.Scale).
		Bool("seeded", cfg.Init.Seed).
		Msg("Warehouse initialization complete")

	return nil
}
