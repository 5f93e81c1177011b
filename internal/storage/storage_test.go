package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"csvmerge/internal/records"
)

func TestScheme(t *testing.T) {
	tests := map[string]string{
		"out/merged.csv":           "file",
		"/tmp/merged.csv":          "file",
		`C://data/merged.csv`:      "file",
		`C:\data\merged.csv`:       "file",
		"sqlite://merged.db":       "sqlite",
		"Postgres://u@h/db":        "postgres",
		"sqlserver://u:p@h?db=x":   "sqlserver",
		"weird path://not-scheme":  "file",
	}
	for target, want := range tests {
		assert.Equal(t, want, Scheme(target), target)
	}
}

type memSink struct{ rows int }

func (m *memSink) Write(_ context.Context, _ []string, rows []records.Row) (int64, error) {
	m.rows += len(rows)
	return int64(len(rows)), nil
}

func (m *memSink) Close() error { return nil }

func TestRegisterAndOpen(t *testing.T) {
	sink := &memSink{}
	Register("mem-test", func(context.Context, Config) (Sink, error) { return sink, nil })
	assert.Contains(t, Schemes(), "mem-test")

	got, err := Open(context.Background(), Config{Target: "MEM-TEST://anything"})
	require.NoError(t, err)
	assert.Same(t, sink, got)

	_, err = Open(context.Background(), Config{Target: "nosuch://x"})
	assert.True(t, errors.Is(err, ErrUnknownScheme))
}

func TestValues(t *testing.T) {
	row := records.FromMap([]string{"b", "a", "extra"}, map[string]string{"a": "1", "b": "2", "extra": "x"})
	got := Values([]string{"a", "b", "missing"}, []records.Row{row})
	assert.Equal(t, [][]any{{"1", "2", ""}}, got)
}
