package mssql

import (
	"context"

	"csvmerge/internal/ddl"
	"csvmerge/internal/storage"
)

// newRepository is a test hook that points to NewRepository by default.
var newRepository = func(ctx context.Context, cfg Config) (storage.Repository, func(), error) {
	return NewRepository(ctx, cfg)
}

func init() {
	storage.Register("sqlserver", func(ctx context.Context, cfg storage.Config) (storage.Sink, error) {
		table := storage.TableName(cfg)
		r, closeFn, err := newRepository(ctx, Config{DSN: cfg.Target, Table: table})
		if err != nil {
			return nil, err
		}
		return &storage.TableSink{Repo: r, Dialect: ddl.SQLServer, Table: table, CloseFn: closeFn}, nil
	})
}
