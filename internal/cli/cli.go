//-------------------------------------------------------------------------
//
// rampgen
//
// Copyright (c) 2025 - 2026, Rampworks, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package cli implements the command-line interface for rampgen.
package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/rampworks/rampgen/internal/config"
	"github.com/rampworks/rampgen/internal/datagen"
	"github.com/rampworks/rampgen/internal/generate"
	"github.com/rampworks/rampgen/internal/logging"
	"github.com/rampworks/rampgen/internal/market"
	"github.com/rampworks/rampgen/internal/pipeline"
	"github.com/rampworks/rampgen/internal/state"
	"github.com/rampworks/rampgen/internal/warehouse"
	"github.com/rampworks/rampgen/pkg/version"
)

var (
	// Global flags
	cfgFile       string
	warehouseConn string
	statePathFlag string
	logLevel      string

	// Global config
	cfg *config.Config

	rootCmd = &cobra.Command{
		Use:   "rampgen",
		Short: "Synthetic crypto-exchange dataset pipeline",
		Long: `rampgen generates a synthetic crypto exchange dataset (users, deposits,
withdrawals, orders, trades and fiat-to-crypto ramp transactions) and
loads it incrementally into a PostgreSQL analytical warehouse.

Each run materializes exactly one simulated calendar day. The pipeline
remembers the last loaded day and advances one day per run, starting
from a configurable history window, so repeated runs backfill history
and then keep the warehouse current.`,
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
		"config file (default: ./rampgen.yaml)")
	rootCmd.PersistentFlags().StringVar(&warehouseConn, "warehouse", "",
		"PostgreSQL connection string for the warehouse")
	rootCmd.PersistentFlags().StringVar(&statePathFlag, "state-path", "",
		"path of the batch-state file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"log level (debug, info, warn, error)")

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(bootstrapCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(relinkCmd)
	rootCmd.AddCommand(statusCmd)
}

func initConfig() error {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return err
	}

	// Override with CLI flags
	if warehouseConn != "" {
		cfg.Warehouse = warehouseConn
	}
	if statePathFlag != "" {
		cfg.StatePath = statePathFlag
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

// buildOrchestrator connects the warehouse and assembles the pipeline
// from the loaded configuration. The caller owns the returned sink.
func buildOrchestrator(ctx context.Context) (*pipeline.Orchestrator, *warehouse.Postgres, error) {
	sink, err := warehouse.Connect(ctx, cfg.Warehouse)
	if err != nil {
		return nil, nil, err
	}

	tracker := state.New(cfg.StatePath, cfg.Pipeline.HistoryDays)

	provider := market.NewClient(
		cfg.Market.CryptoPricesURL,
		cfg.Market.FXRatesURL,
		cfg.Pipeline.SupportedCrypto,
		time.Duration(cfg.Market.TimeoutSeconds)*time.Second,
	)

	gen := generate.NewGenerator(datagen.NewFaker(), generate.Config{
		Fiat:           cfg.Pipeline.SupportedFiat,
		Crypto:         cfg.Pipeline.SupportedCrypto,
		PaymentMethods: cfg.Pipeline.PaymentMethods,
	})

	var backup *warehouse.BackupWriter
	if cfg.Backup.Enabled {
		backup = warehouse.NewBackupWriter(cfg.Backup.Dir)
	}

	o := pipeline.New(tracker, provider, sink, gen, backup, pipeline.Config{
		BootstrapUsers:    cfg.Pipeline.BootstrapUsers,
		DepositsPerDay:    cfg.Pipeline.DepositsPerDay,
		WithdrawalsPerDay: cfg.Pipeline.WithdrawalsPerDay,
		OrdersPerDay:      cfg.Pipeline.OrdersPerDay,
		RampPerDay:        cfg.Pipeline.RampPerDay,
		UserPoolLimit:     cfg.Pipeline.UserPoolLimit,
	})
	return o, sink, nil
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Println(version.Info())
	},
}
