//-------------------------------------------------------------------------
//
// SalesMart Warehouse ETL
//
// Portions copyright (c) 2025 - 2026, SalesMart Project
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package config handles configuration management for salesmart.
// Configuration is loaded from config files and CLI flags (no environment variables).
// CLI flags take precedence over config file values.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds all configuration for salesmart.
type Config struct {
	// Connection is the PostgreSQL connection string.
	Connection string `mapstructure:"connection"`

	// LogLevel controls logging verbosity (debug, info, warn, error).
	LogLevel string `mapstructure:"log_level"`

	// Init holds configuration for the init subcommand.
	Init InitConfig `mapstructure:"init"`

	// Load holds configuration for the load subcommand.
	Load LoadConfig `mapstructure:"load"`

	// Trend holds configuration for trend classification.
	Trend TrendConfig `mapstructure:"trend"`
}

// InitConfig holds configuration for warehouse initialization.
type InitConfig struct {
	// Scale is the seed data scale (small, medium, large).
	Scale string `mapstructure:"scale"`

	// Seed controls whether sample data is generated after schema creation.
	Seed bool `mapstructure:"seed"`

	// DropExisting drops existing schema before initialization.
	DropExisting bool `mapstructure:"drop_existing"`
}

// LoadConfig holds configuration for the incremental fact load.
type LoadConfig struct {
	// Start is the inclusive lower bound of the load window (YYYY-MM-DD).
	Start string `mapstructure:"start"`

	// End is the inclusive upper bound of the load window (YYYY-MM-DD).
	End string `mapstructure:"end"`
}

// TrendConfig holds configuration for sales trend classification.
type TrendConfig struct {
	// LookbackMonths is the width of each comparison window in months.
	LookbackMonths int `mapstructure:"lookback_months"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		Init: InitConfig{
			Scale:        "small",
			Seed:         true,
			DropExisting: false,
		},
		Trend: TrendConfig{
			LookbackMonths: 6,
		},
	}
}

// Load reads configuration from config files.
// Config file locations (in order of precedence):
// 1. Path specified by configFile parameter
// 2. ./salesmart.yaml
// 3. ~/.config/salesmart/config.yaml
func Load(configFile string) (*Config, error) {
	v := viper.New()

	v.SetConfigName("salesmart")
	v.SetConfigType("yaml")

	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "salesmart"))
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
	}

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := DefaultConfig()

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	if c.Connection == "" {
		return fmt.Errorf("connection string is required")
	}
	return nil
}

// ValidateInit checks configuration required for the init command.
func (c *Config) ValidateInit() error {
	if err := c.Validate(); err != nil {
		return err
	}
	switch c.Init.Scale {
	case "small", "medium", "large":
	default:
		return fmt.Errorf("scale must be one of small, medium, large")
	}
	return nil
}

// ValidateLoad checks configuration required for the load command.
func (c *Config) ValidateLoad() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Load.Start == "" || c.Load.End == "" {
		return fmt.Errorf("load window start and end dates are required")
	}
	return nil
}

// ValidateTrend checks configuration required for trend classification.
func (c *Config) ValidateTrend() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Trend.LookbackMonths < 1 {
		return fmt.Errorf("lookback_months must be at least 1")
	}
	return nil
}
