//-------------------------------------------------------------------------
//
// rampgen
//
// Copyright (c) 2025 - 2026, Rampworks, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package warehouse

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rampworks/rampgen/internal/generate"
	"github.com/rampworks/rampgen/internal/logging"
)

// AllTables lists the warehouse tables in load order.
var AllTables = []string{
	generate.TableUsers,
	generate.TableDeposits,
	generate.TableWithdrawals,
	generate.TableOrders,
	generate.TableTrades,
	generate.TableRamp,
}

// Postgres is the pgx-backed Sink.
type Postgres struct {
	pool *pgxpool.Pool
}

// DefaultPoolConfig returns default connection pool configuration.
func DefaultPoolConfig() *pgxpool.Config {
	config, _ := pgxpool.ParseConfig("")

	// The loader is a single batch writer; it does not need a large pool.
	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnLifetime = 30 * time.Minute
	config.MaxConnIdleTime = 5 * time.Minute
	config.HealthCheckPeriod = 30 * time.Second

	return config
}

// Connect establishes a connection pool to the warehouse database and
// verifies it with a ping.
func Connect(ctx context.Context, connString string) (*Postgres, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}

	defaults := DefaultPoolConfig()
	config.MaxConns = defaults.MaxConns
	config.MinConns = defaults.MinConns
	config.MaxConnLifetime = defaults.MaxConnLifetime
	config.MaxConnIdleTime = defaults.MaxConnIdleTime
	config.HealthCheckPeriod = defaults.HealthCheckPeriod

	logging.Debug().
		Str("host", config.ConnConfig.Host).
		Uint16("port", config.ConnConfig.Port).
		Str("database", config.ConnConfig.Database).
		Msg("Connecting to warehouse")

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logging.Info().
		Str("host", config.ConnConfig.Host).
		Str("database", config.ConnConfig.Database).
		Msg("Connected to warehouse")

	return &Postgres{pool: pool}, nil
}

// NewPostgres wraps an existing pool. Used by tests that manage their
// own connection.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// Close releases the connection pool.
func (p *Postgres) Close() {
	p.pool.Close()
}

// EnsureSchema creates the warehouse tables and indexes if absent.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, createSchemaSQL); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Reset drops and recreates the schema.
func (p *Postgres) Reset(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, dropSchemaSQL); err != nil {
		return fmt.Errorf("failed to drop schema: %w", err)
	}
	return p.EnsureSchema(ctx)
}

// Append bulk-loads rows into table via COPY.
func (p *Postgres) Append(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	n, err := p.pool.CopyFrom(ctx, pgx.Identifier{table}, columns, pgx.CopyFromRows(rows))
	if err != nil {
		return 0, fmt.Errorf("failed to copy into %s: %w", table, err)
	}

	logging.Debug().
		Str("table", table).
		Int64("rows", n).
		Msg("Appended rows")

	return n, nil
}

// ActiveUserIDs returns up to limit active user ids.
func (p *Postgres) ActiveUserIDs(ctx context.Context, limit int) ([]string, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT user_id FROM users WHERE is_active ORDER BY signup_date DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query user pool: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan user id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read user pool: %w", err)
	}
	return ids, nil
}

// FilledOrders returns the filled and partially filled orders of the
// given UTC day.
func (p *Postgres) FilledOrders(ctx context.Context, day time.Time) ([]generate.Order, error) {
	start, end := dayBounds(day)

	rows, err := p.pool.Query(ctx, `
		SELECT order_id, user_id, timestamp, trading_pair, side, order_type,
		       base_currency, quote_currency, base_amount, filled_amount,
		       limit_price, status, created_at
		FROM orders
		WHERE status IN ('filled', 'partially_filled')
		  AND timestamp >= $1 AND timestamp < $2`, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query filled orders: %w", err)
	}
	defer rows.Close()

	var orders []generate.Order
	for rows.Next() {
		var o generate.Order
		if err := rows.Scan(
			&o.OrderID, &o.UserID, &o.Timestamp, &o.TradingPair, &o.Side,
			&o.OrderType, &o.BaseCurrency, &o.QuoteCurrency, &o.BaseAmount,
			&o.FilledAmount, &o.LimitPrice, &o.Status, &o.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read filled orders: %w", err)
	}
	return orders, nil
}

// DeleteTradesForDay removes the trades of the given UTC day.
func (p *Postgres) DeleteTradesForDay(ctx context.Context, day time.Time) (int64, error) {
	start, end := dayBounds(day)

	tag, err := p.pool.Exec(ctx,
		`DELETE FROM trades WHERE timestamp >= $1 AND timestamp < $2`, start, end)
	if err != nil {
		return 0, fmt.Errorf("failed to delete trades: %w", err)
	}
	return tag.RowsAffected(), nil
}

// TableCounts returns the row count of every warehouse table.
func (p *Postgres) TableCounts(ctx context.Context) (map[string]int64, error) {
	counts := make(map[string]int64, len(AllTables))
	for _, table := range AllTables {
		var n int64
		// Table names come from the fixed AllTables list, never from input.
		if err := p.pool.QueryRow(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", table, err)
		}
		counts[table] = n
	}
	return counts, nil
}

// UserCount returns the number of users in the warehouse.
func (p *Postgres) UserCount(ctx context.Context) (int64, error) {
	var n int64
	if err := p.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return n, nil
}

// dayBounds returns the half-open UTC interval covering the day.
func dayBounds(day time.Time) (time.Time, time.Time) {
	y, m, d := day.UTC().Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return start, start.Add(24 * time.Hour)
}
