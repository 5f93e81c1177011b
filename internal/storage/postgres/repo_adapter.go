package postgres

import (
	"context"

	"csvmerge/internal/ddl"
	"csvmerge/internal/storage"
)

// newRepository is a test hook that points to NewRepository by default.
// Tests may replace it to avoid real DB connections.
var newRepository = func(ctx context.Context, cfg Config) (storage.Repository, func(), error) {
	return NewRepository(ctx, cfg)
}

func init() {
	factory := func(ctx context.Context, cfg storage.Config) (storage.Sink, error) {
		table := storage.TableName(cfg)
		r, closeFn, err := newRepository(ctx, Config{DSN: cfg.Target, Table: table})
		if err != nil {
			return nil, err
		}
		return &storage.TableSink{Repo: r, Dialect: ddl.Postgres, Table: table, CloseFn: closeFn}, nil
	}
	storage.Register("postgres", factory)
	storage.Register("postgresql", factory)
}
