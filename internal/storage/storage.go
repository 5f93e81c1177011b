// Package storage contains the destination-agnostic contract for persisting
// the final table of a run, plus a scheme-keyed registry of destinations.
//
// Destinations register a Factory for one or more URL schemes from their init
// functions; importing internal/storage/all enables every built-in one. A
// target without a scheme (a plain path, including Windows drive paths) is
// handled by the "file" destination.
package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"csvmerge/internal/config"
	"csvmerge/internal/records"
)

// ErrUnknownScheme is returned by Open when no destination is registered for
// the target's scheme.
var ErrUnknownScheme = errors.New("storage: unknown destination scheme")

// Sink persists rows. columns are the output column names; each row is
// written in that order, absent values as "" and extra values ignored.
type Sink interface {
	Write(ctx context.Context, columns []string, rows []records.Row) (int64, error)
	Close() error
}

// Config carries everything a destination needs.
type Config struct {
	// Target is the output path or DSN as given by the caller.
	Target string
	// Output holds the output settings of the run (delimiter, encoding,
	// quoting, header, line ending, table name).
	Output config.ProcessingConfig
}

// Factory opens a Sink for cfg.
type Factory func(ctx context.Context, cfg Config) (Sink, error)

var (
	mu        sync.RWMutex
	factories = map[string]Factory{}
)

// Register registers (or replaces) the factory for scheme.
func Register(scheme string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	factories[strings.ToLower(scheme)] = f
}

// Schemes lists the registered schemes, sorted.
func Schemes() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(factories))
	for s := range factories {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// Open resolves cfg.Target to a registered destination and opens it.
func Open(ctx context.Context, cfg Config) (Sink, error) {
	scheme := Scheme(cfg.Target)
	mu.RLock()
	f, ok := factories[scheme]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownScheme, scheme)
	}
	return f(ctx, cfg)
}

// Scheme returns the lower-cased URL scheme of target, or "file" when target
// is a plain path.
func Scheme(target string) string {
	i := strings.Index(target, "://")
	if i <= 1 {
		// no scheme, or a drive letter such as C://
		return "file"
	}
	s := target[:i]
	for _, r := range s {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '+' || r == '-' || r == '.') {
			return "file"
		}
	}
	return strings.ToLower(s)
}

// Values projects rows onto columns as database arguments.
func Values(columns []string, rows []records.Row) [][]any {
	out := make([][]any, len(rows))
	for i, r := range rows {
		vals := make([]any, len(columns))
		for j, c := range columns {
			vals[j] = r.Value(c)
		}
		out[i] = vals
	}
	return out
}
