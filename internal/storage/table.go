package storage

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"csvmerge/internal/config"
	"csvmerge/internal/ddl"
	"csvmerge/internal/metrics"
	"csvmerge/internal/records"
)

// Repository is implemented by the database backends.
type Repository interface {
	// Exec runs a statement, typically DDL.
	Exec(ctx context.Context, sql string) error
	// CopyFrom bulk-inserts rows aligned to columns into the backend's table.
	CopyFrom(ctx context.Context, columns []string, rows [][]any) (int64, error)
}

// TableSink adapts a Repository to Sink. Write creates the table (all text
// columns) when it does not exist, then loads the rows in batches.
type TableSink struct {
	Repo      Repository
	Dialect   ddl.Dialect
	Table     string
	BatchSize int
	// CloseFn releases the repository's connections.
	CloseFn func()
}

// TableName returns cfg.Output.OutputTable, or the default table name.
func TableName(cfg Config) string {
	if t := strings.TrimSpace(cfg.Output.OutputTable); t != "" {
		return t
	}
	return config.DefaultOutputTable
}

// Write implements Sink.
func (s *TableSink) Write(ctx context.Context, columns []string, rows []records.Row) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	stmt, err := s.Dialect.CreateTableSQL(s.Dialect.TextTable(s.Table, columns))
	if err != nil {
		return 0, err
	}
	if err := s.Repo.Exec(ctx, stmt); err != nil {
		return 0, fmt.Errorf("%s: create table %s: %w", s.Dialect.Name, s.Table, err)
	}
	batch := s.BatchSize
	if batch <= 0 {
		batch = DefaultBatchSize
	}
	n, err := LoadBatches(ctx, columns, Values(columns, rows), batch, s.Repo.CopyFrom)
	metrics.RecordBatches(s.Table, int64((int(n)+batch-1)/batch))
	if err != nil {
		return n, fmt.Errorf("%s: load %s: %w", s.Dialect.Name, s.Table, err)
	}
	slog.Info("storage: rows loaded", "backend", s.Dialect.Name, "table", s.Table, "rows", n)
	return n, nil
}

// Close implements Sink.
func (s *TableSink) Close() error {
	if s.CloseFn != nil {
		s.CloseFn()
	}
	return nil
}
