package sqlite

import (
	"context"
	"strings"

	"csvmerge/internal/ddl"
	"csvmerge/internal/storage"
)

// newRepository is a test hook that points to NewRepository by default.
var newRepository = NewRepository

func init() {
	storage.Register("sqlite", func(ctx context.Context, cfg storage.Config) (storage.Sink, error) {
		table := storage.TableName(cfg)
		r, closeFn, err := newRepository(ctx, Config{
			DSN:   DSN(cfg.Target),
			Table: table,
		})
		if err != nil {
			return nil, err
		}
		return &storage.TableSink{Repo: r, Dialect: ddl.SQLite, Table: table, CloseFn: closeFn}, nil
	})
}

// DSN strips the sqlite:// prefix from an output target.
func DSN(target string) string {
	if i := strings.Index(target, "://"); i >= 0 {
		return target[i+3:]
	}
	return target
}
