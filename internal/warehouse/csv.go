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
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// BackupWriter mirrors loaded batches as raw CSV files, one file per
// table per batch day. The files are a recovery aid, not a load path.
type BackupWriter struct {
	dir string
}

// NewBackupWriter creates a BackupWriter rooted at dir.
func NewBackupWriter(dir string) *BackupWriter {
	return &BackupWriter{dir: dir}
}

// WriteBatch writes rows for table to <dir>/<table>/<date>.csv,
// overwriting any file from a previous attempt at the same day.
func (b *BackupWriter) WriteBatch(table string, day time.Time, columns []string, rows [][]any) error {
	tableDir := filepath.Join(b.dir, table)
	if err := os.MkdirAll(tableDir, 0o755); err != nil {
		return fmt.Errorf("failed to create backup directory: %w", err)
	}

	path := filepath.Join(tableDir, day.UTC().Format("2006-01-02")+".csv")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create backup file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(columns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	record := make([]string, len(columns))
	for _, row := range rows {
		if len(row) != len(columns) {
			return fmt.Errorf("row has %d values for %d columns in %s", len(row), len(columns), table)
		}
		for i, v := range row {
			record[i] = formatValue(v)
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush backup file: %w", err)
	}
	return nil
}

// formatValue renders a row value as CSV text. Nil pointers become
// empty fields, matching how the warehouse renders NULL on export.
func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case *string:
		if val == nil {
			return ""
		}
		return *val
	case int:
		return strconv.Itoa(val)
	case *int:
		if val == nil {
			return ""
		}
		return strconv.Itoa(*val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case *float64:
		if val == nil {
			return ""
		}
		return strconv.FormatFloat(*val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case time.Time:
		return val.UTC().Format(time.RFC3339)
	default:
		return fmt.Sprintf("%v", val)
	}
}
