//-------------------------------------------------------------------------
//
// rampgen
//
// Copyright (c) 2025 - 2026, Rampworks, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package pipeline orchestrates the incremental batch runs: it decides
// the batch date, generates one day of data, loads it into the
// warehouse, and only then commits the date to the state tracker.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rampworks/rampgen/internal/generate"
	"github.com/rampworks/rampgen/internal/logging"
	"github.com/rampworks/rampgen/internal/market"
	"github.com/rampworks/rampgen/internal/state"
	"github.com/rampworks/rampgen/internal/warehouse"
)

// ErrAlreadyBootstrapped is returned when bootstrap runs against a
// warehouse that already holds users and --force was not given.
var ErrAlreadyBootstrapped = errors.New(
	"warehouse already contains users: re-run with --force to reset and reload")

// Config sizes the generated batches.
type Config struct {
	BootstrapUsers    int
	DepositsPerDay    int
	WithdrawalsPerDay int
	OrdersPerDay      int
	RampPerDay        int
	UserPoolLimit     int
}

// Orchestrator wires the state tracker, market data provider, generator
// and warehouse sink into the batch operations the CLI exposes.
type Orchestrator struct {
	state  *state.Tracker
	market market.Provider
	sink   warehouse.Sink
	gen    *generate.Generator
	backup *warehouse.BackupWriter
	cfg    Config

	// now is the clock; overridable in tests.
	now func() time.Time
}

// New creates an Orchestrator. backup may be nil to disable the raw CSV
// mirror.
func New(tracker *state.Tracker, provider market.Provider, sink warehouse.Sink,
	gen *generate.Generator, backup *warehouse.BackupWriter, cfg Config) *Orchestrator {
	return &Orchestrator{
		state:  tracker,
		market: provider,
		sink:   sink,
		gen:    gen,
		backup: backup,
		cfg:    cfg,
		now:    time.Now,
	}
}

// RunResult reports what a single batch run did.
type RunResult struct {
	// Date is the batch day that was materialized. Zero when CaughtUp.
	Date time.Time

	// CaughtUp is true when there was no pending day to process.
	CaughtUp bool

	// RowsLoaded maps table name to rows written.
	RowsLoaded map[string]int64
}

// Total returns the total rows written across all tables.
func (r RunResult) Total() int64 {
	var total int64
	for _, n := range r.RowsLoaded {
		total += n
	}
	return total
}

// Bootstrap creates the warehouse schema and loads the one-time user
// population. With force, any existing data is dropped first.
func (o *Orchestrator) Bootstrap(ctx context.Context, force bool) (int64, error) {
	if force {
		if err := o.sink.Reset(ctx); err != nil {
			return 0, err
		}
	} else {
		if err := o.sink.EnsureSchema(ctx); err != nil {
			return 0, err
		}
		count, err := o.sink.UserCount(ctx)
		if err != nil {
			return 0, err
		}
		if count > 0 {
			return 0, ErrAlreadyBootstrapped
		}
	}

	users := o.gen.Users(o.cfg.BootstrapUsers, o.now().UTC())
	n, err := o.sink.Append(ctx, generate.TableUsers, generate.UserColumns, generate.UserRows(users))
	if err != nil {
		return 0, err
	}

	logging.Info().
		Int64("users", n).
		Msg("Bootstrapped user population")

	return n, nil
}

// RunOnce materializes the next pending batch day. When the pipeline is
// caught up it returns a result with CaughtUp set and does nothing.
//
// The state commit happens strictly after all warehouse writes succeed:
// a failed run leaves the state untouched, so the same day is retried
// on the next invocation.
func (o *Orchestrator) RunOnce(ctx context.Context) (RunResult, error) {
	day, ok := o.state.NextBatchDate()
	if !ok {
		logging.Info().Msg("Pipeline is caught up, nothing to do")
		return RunResult{CaughtUp: true}, nil
	}

	logging.Info().
		Str("batch_date", day.Format("2006-01-02")).
		Msg("Starting batch run")

	if err := o.sink.EnsureSchema(ctx); err != nil {
		return RunResult{}, err
	}

	pool, err := o.sink.ActiveUserIDs(ctx, o.cfg.UserPoolLimit)
	if err != nil {
		return RunResult{}, err
	}
	if len(pool) == 0 {
		return RunResult{}, generate.ErrEmptyUserPool
	}

	snap := market.FetchSnapshot(ctx, o.market)

	deposits, err := o.gen.Deposits(o.cfg.DepositsPerDay, day, pool)
	if err != nil {
		return RunResult{}, err
	}
	withdrawals, err := o.gen.Withdrawals(o.cfg.WithdrawalsPerDay, day, pool)
	if err != nil {
		return RunResult{}, err
	}
	orders, err := o.gen.Orders(o.cfg.OrdersPerDay, day, pool, snap)
	if err != nil {
		return RunResult{}, err
	}
	trades := o.gen.DeriveTrades(orders)
	ramp, err := o.gen.RampTransactions(o.cfg.RampPerDay, day, pool, snap)
	if err != nil {
		return RunResult{}, err
	}

	loads := []struct {
		table   string
		columns []string
		rows    [][]any
	}{
		{generate.TableDeposits, generate.DepositColumns, generate.DepositRows(deposits)},
		{generate.TableWithdrawals, generate.WithdrawalColumns, generate.WithdrawalRows(withdrawals)},
		{generate.TableOrders, generate.OrderColumns, generate.OrderRows(orders)},
		{generate.TableTrades, generate.TradeColumns, generate.TradeRows(trades)},
		{generate.TableRamp, generate.RampColumns, generate.RampRows(ramp)},
	}

	result := RunResult{Date: day, RowsLoaded: make(map[string]int64, len(loads))}
	for _, load := range loads {
		n, err := o.sink.Append(ctx, load.table, load.columns, load.rows)
		if err != nil {
			return RunResult{}, fmt.Errorf("batch %s: %w", day.Format("2006-01-02"), err)
		}
		result.RowsLoaded[load.table] = n

		if o.backup != nil {
			if err := o.backup.WriteBatch(load.table, day, load.columns, load.rows); err != nil {
				// The warehouse write already succeeded; a failed mirror is
				// not worth failing the batch over.
				logging.Warn().
					Str("table", load.table).
					Err(err).
					Msg("Raw CSV mirror failed")
			}
		}
	}

	if err := o.state.Commit(day); err != nil {
		return RunResult{}, fmt.Errorf("batch %s loaded but state commit failed: %w",
			day.Format("2006-01-02"), err)
	}

	logging.Info().
		Str("batch_date", day.Format("2006-01-02")).
		Int64("rows", result.Total()).
		Msg("Batch run committed")

	return result, nil
}

// CatchUp runs batches until the pipeline is caught up, returning the
// results of the runs that materialized a day.
func (o *Orchestrator) CatchUp(ctx context.Context) ([]RunResult, error) {
	var results []RunResult
	for {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		result, err := o.RunOnce(ctx)
		if err != nil {
			return results, err
		}
		if result.CaughtUp {
			return results, nil
		}
		results = append(results, result)
	}
}

// Relink rebuilds the trades of one batch day from the filled orders
// already persisted in the warehouse. Existing trades for that day are
// removed first, so a relink after a partial load cannot duplicate.
func (o *Orchestrator) Relink(ctx context.Context, day time.Time) (int64, error) {
	orders, err := o.sink.FilledOrders(ctx, day)
	if err != nil {
		return 0, err
	}

	deleted, err := o.sink.DeleteTradesForDay(ctx, day)
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		logging.Info().
			Str("batch_date", day.Format("2006-01-02")).
			Int64("deleted", deleted).
			Msg("Removed existing trades before relink")
	}

	trades := o.gen.DeriveTrades(orders)
	n, err := o.sink.Append(ctx, generate.TableTrades, generate.TradeColumns, generate.TradeRows(trades))
	if err != nil {
		return 0, err
	}

	logging.Info().
		Str("batch_date", day.Format("2006-01-02")).
		Int64("trades", n).
		Msg("Relinked trades from filled orders")

	return n, nil
}

// Status describes where the pipeline stands.
type Status struct {
	// LastProcessed is the most recently committed batch date.
	LastProcessed time.Time

	// HasRun is false when no batch has ever been committed.
	HasRun bool

	// NextBatch is the next pending day. Zero when CaughtUp.
	NextBatch time.Time

	// CaughtUp is true when no day is pending.
	CaughtUp bool

	// TableCounts maps table name to current row count.
	TableCounts map[string]int64
}

// Status reports the tracker position and warehouse row counts.
func (o *Orchestrator) Status(ctx context.Context) (Status, error) {
	counts, err := o.sink.TableCounts(ctx)
	if err != nil {
		return Status{}, err
	}

	var s Status
	s.TableCounts = counts
	s.LastProcessed, s.HasRun = o.state.LastProcessedDate()
	next, pending := o.state.NextBatchDate()
	if pending {
		s.NextBatch = next
	} else {
		s.CaughtUp = true
	}
	return s, nil
}
