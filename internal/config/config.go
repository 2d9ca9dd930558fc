//-------------------------------------------------------------------------
//
// rampgen
//
// Portions copyright (c) 2025 - 2026, Rampworks, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package config handles configuration management for rampgen.
// Configuration is loaded from config files and CLI flags (no environment
// variables). CLI flags take precedence over config file values.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds all configuration for rampgen.
type Config struct {
	// Warehouse is the PostgreSQL connection string for the analytical
	// warehouse.
	Warehouse string `mapstructure:"warehouse"`

	// StatePath is the path of the JSON file tracking the last processed
	// batch date.
	StatePath string `mapstructure:"state_path"`

	// LogLevel controls logging verbosity (debug, info, warn, error).
	LogLevel string `mapstructure:"log_level"`

	// Market holds market-data fetcher configuration.
	Market MarketConfig `mapstructure:"market"`

	// Pipeline holds batch generation configuration.
	Pipeline PipelineConfig `mapstructure:"pipeline"`

	// Backup holds CSV backup configuration.
	Backup BackupConfig `mapstructure:"backup"`
}

// MarketConfig holds configuration for the live market-data sources.
type MarketConfig struct {
	// CryptoPricesURL is the CoinGecko simple-price endpoint.
	CryptoPricesURL string `mapstructure:"crypto_prices_url"`

	// FXRatesURL is the USD-based exchange-rate endpoint.
	FXRatesURL string `mapstructure:"fx_rates_url"`

	// TimeoutSeconds bounds each market-data request.
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
}

// PipelineConfig holds batch generation parameters. These were ambient
// globals in earlier revisions of the pipeline; they are explicit
// configuration now so generators stay pure and tests can vary them.
type PipelineConfig struct {
	// HistoryDays is how far back the first batch starts.
	HistoryDays int `mapstructure:"history_days"`

	// BootstrapUsers is the size of the one-time user population.
	BootstrapUsers int `mapstructure:"bootstrap_users"`

	// Per-day row counts for each dependent table.
	DepositsPerDay    int `mapstructure:"deposits_per_day"`
	WithdrawalsPerDay int `mapstructure:"withdrawals_per_day"`
	OrdersPerDay      int `mapstructure:"orders_per_day"`
	RampPerDay        int `mapstructure:"ramp_per_day"`

	// UserPoolLimit caps how many active user ids are fetched from the
	// warehouse per batch.
	UserPoolLimit int `mapstructure:"user_pool_limit"`

	// SupportedFiat lists the fiat currencies users pay with.
	SupportedFiat []string `mapstructure:"supported_fiat"`

	// SupportedCrypto lists purchasable tokens. Token names must match the
	// price API's identifiers.
	SupportedCrypto []string `mapstructure:"supported_crypto"`

	// PaymentMethods lists ramp payment methods.
	PaymentMethods []string `mapstructure:"payment_methods"`
}

// BackupConfig holds CSV backup configuration.
type BackupConfig struct {
	// Enabled turns on per-day CSV mirrors of every loaded table.
	Enabled bool `mapstructure:"enabled"`

	// Dir is the directory CSV backups are written under.
	Dir string `mapstructure:"dir"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		StatePath: "data/metadata/last_run.json",
		LogLevel:  "info",
		Market: MarketConfig{
			CryptoPricesURL: "https://api.coingecko.com/api/v3/simple/price",
			FXRatesURL:      "https://open.er-api.com/v6/latest/USD",
			TimeoutSeconds:  10,
		},
		Pipeline: PipelineConfig{
			HistoryDays:       90,
			BootstrapUsers:    500,
			DepositsPerDay:    300,
			WithdrawalsPerDay: 200,
			OrdersPerDay:      400,
			RampPerDay:        500,
			UserPoolLimit:     10000,
			SupportedFiat:     []string{"USD", "EUR", "GBP", "CAD"},
			SupportedCrypto:   []string{"bitcoin", "ethereum", "solana", "tether"},
			PaymentMethods:    []string{"credit_card", "debit_card", "ach_transfer", "sepa", "apple_pay"},
		},
		Backup: BackupConfig{
			Enabled: false,
			Dir:     "data/raw",
		},
	}
}

// Load reads configuration from config files.
// Config file locations (in order of precedence):
// 1. Path specified by configFile parameter
// 2. ./rampgen.yaml
// 3. ~/.config/rampgen/config.yaml
func Load(configFile string) (*Config, error) {
	v := viper.New()

	v.SetConfigName("rampgen")
	v.SetConfigType("yaml")

	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "rampgen"))
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
	if c.Warehouse == "" {
		return fmt.Errorf("warehouse connection string is required")
	}
	if c.StatePath == "" {
		return fmt.Errorf("state_path is required")
	}
	return nil
}

// ValidateBootstrap checks configuration required for the bootstrap command.
func (c *Config) ValidateBootstrap() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Pipeline.BootstrapUsers < 1 {
		return fmt.Errorf("bootstrap_users must be at least 1")
	}
	return nil
}

// ValidateRun checks configuration required for the run command.
func (c *Config) ValidateRun() error {
	if err := c.Validate(); err != nil {
		return err
	}
	p := c.Pipeline
	if p.HistoryDays < 1 {
		return fmt.Errorf("history_days must be at least 1")
	}
	if p.DepositsPerDay < 0 || p.WithdrawalsPerDay < 0 || p.OrdersPerDay < 0 || p.RampPerDay < 0 {
		return fmt.Errorf("per-day row counts must be non-negative")
	}
	if p.UserPoolLimit < 1 {
		return fmt.Errorf("user_pool_limit must be at least 1")
	}
	if len(p.SupportedFiat) == 0 {
		return fmt.Errorf("supported_fiat must not be empty")
	}
	if len(p.SupportedCrypto) == 0 {
		return fmt.Errorf("supported_crypto must not be empty")
	}
	if len(p.PaymentMethods) == 0 {
		return fmt.Errorf("payment_methods must not be empty")
	}
	if c.Backup.Enabled && c.Backup.Dir == "" {
		return fmt.Errorf("backup.dir is required when backup is enabled")
	}
	return nil
}
