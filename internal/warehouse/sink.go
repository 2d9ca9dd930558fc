//-------------------------------------------------------------------------
//
// rampgen
//
// Copyright (c) 2025 - 2026, Rampworks, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package warehouse persists generated batches into the analytical
// store. Loads are append-only: a batch is written with bulk copies and
// never updated afterwards.
package warehouse

import (
	"context"
	"time"

	"github.com/rampworks/rampgen/internal/generate"
)

// Sink is the warehouse write/read surface the pipeline depends on.
type Sink interface {
	// EnsureSchema creates all tables and indexes if they do not exist.
	EnsureSchema(ctx context.Context) error

	// Reset drops and recreates the schema, discarding all data.
	Reset(ctx context.Context) error

	// Append bulk-loads rows into table. Columns must match the table's
	// column list. Returns the number of rows written.
	Append(ctx context.Context, table string, columns []string, rows [][]any) (int64, error)

	// ActiveUserIDs returns up to limit user ids marked active, for use
	// as the foreign-key pool of a batch.
	ActiveUserIDs(ctx context.Context, limit int) ([]string, error)

	// FilledOrders returns the filled and partially filled orders whose
	// timestamp falls on the given UTC day.
	FilledOrders(ctx context.Context, day time.Time) ([]generate.Order, error)

	// DeleteTradesForDay removes the trades whose timestamp falls on the
	// given UTC day, returning the number removed.
	DeleteTradesForDay(ctx context.Context, day time.Time) (int64, error)

	// TableCounts returns the row count of every warehouse table.
	TableCounts(ctx context.Context) (map[string]int64, error)

	// UserCount returns the number of rows in the users table.
	UserCount(ctx context.Context) (int64, error)
}
