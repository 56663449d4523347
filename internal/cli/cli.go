//-------------------------------------------------------------------------
//
// SalesMart Warehouse ETL
//
// Portions copyright (c) 2025 - 2026, SalesMart Project
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package cli implements the command-line interface for salesmart.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/salesmart/salesmart/internal/config"
	"github.com/salesmart/salesmart/internal/logging"
	"github.com/salesmart/salesmart/pkg/version"
)

var (
	// Global flags
	cfgFile    string
	connection string
	logLevel   string

	// Global config
	cfg *config.Config

	rootCmd = &cobra.Command{
		Use:   "salesmart",
		Short: "Star-schema sales warehouse ETL for PostgreSQL",
		Long: `salesmart provisions a PostgreSQL star-schema sales warehouse and runs
its ETL pipeline: incremental fact loading from a staging table, SCD Type 2
customer-dimension maintenance, daily aggregate rebuilds, and lifetime-value
refreshes. Every pipeline invocation is recorded in an append-only run log.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default: ./salesmart.yaml)")
	rootCmd.PersistentFlags().StringVar(&connection, "connection", "",
		"PostgreSQL connection string")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"log level (debug, info, warn, error)")

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(loadCmd)
	rootCmd.AddCommand(aggregateCmd)
	rootCmd.AddCommand(customerCmd)
	rootCmd.AddCommand(refreshCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(inventoryCmd)
	rootCmd.AddCommand(infoCmd)
}

func initConfig() error {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return err
	}

	// Override with CLI flags
	if connection != "" {
		cfg.Connection = connection
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	// Reinitialize logger with config
	logging.Init(logging.Config{
		Level:  cfg.LogLevel,
		Pretty: true,
	})

	return nil
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Println(version.Info())
	},
}
