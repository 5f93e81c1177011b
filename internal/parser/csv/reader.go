package csv

import (
	"context"
	"errors"
	"fmt"
	"io"

	"csvmerge/internal/datasource"
	"csvmerge/internal/datasource/file"
	"csvmerge/internal/detect"
	"csvmerge/internal/records"
)

// Options configures the Reader. All fields are optional.
type Options struct {
	// TrimSpace trims leading/trailing whitespace from each cell value.
	TrimSpace bool

	// Encoding pins the input encoding; "" or "auto" detects it.
	Encoding string

	// Delimiter pins the field delimiter; zero sniffs it per file.
	Delimiter rune
}

// Reader loads whole inputs and parses them into Tables.
type Reader struct{ opt Options }

// NewReader constructs a Reader with the provided Options.
func NewReader(opt Options) *Reader { return &Reader{opt: opt} }

// ReadFile reads the local file at path.
func (r *Reader) ReadFile(ctx context.Context, path string) (*Table, error) {
	return r.Read(ctx, file.NewLocal(path))
}

// Read loads src and parses it.
//
// Each encoding from detect.Order is tried in turn; an encoding that fails to
// decode or whose text fails to parse moves on to the next one. The returned
// error wraps the underlying cause: os.ErrNotExist for missing files,
// detect.ErrUndecodable when no candidate decoded the bytes, otherwise the
// last decode or parse error.
func (r *Reader) Read(ctx context.Context, src datasource.Source) (*Table, error) {
	data, err := readAll(ctx, src)
	if err != nil {
		return nil, err
	}

	var (
		lastErr error
		decoded bool
	)
	for _, enc := range detect.Order(data, r.opt.Encoding) {
		text, err := detect.Decode(enc, data)
		if err != nil {
			lastErr = err
			continue
		}
		decoded = true
		delim := r.opt.Delimiter
		if delim == 0 {
			delim = detect.Sniff(text)
		}
		t, err := Parse(text, delim, r.opt.TrimSpace)
		if err != nil {
			lastErr = fmt.Errorf("parse as %s: %w", enc, err)
			continue
		}
		t.Name = src.Name()
		t.Encoding = enc
		return t, nil
	}
	if !decoded {
		return nil, fmt.Errorf("%s: %w: %v", src.Name(), detect.ErrUndecodable, lastErr)
	}
	return nil, fmt.Errorf("%s: %w", src.Name(), lastErr)
}

// DiscoverColumns returns the ordered, de-duplicated union of header names
// across paths. It is a best-effort preview: inputs that cannot be opened or
// decoded are skipped silently. It has no side effects and may be called
// repeatedly.
func DiscoverColumns(ctx context.Context, paths []string, opt Options) []string {
	var cols records.ColumnSet
	for _, p := range paths {
		names, err := discoverOne(ctx, file.NewLocal(p), opt)
		if err != nil {
			continue
		}
		cols.Add(names...)
	}
	return cols.Names()
}

func discoverOne(ctx context.Context, src datasource.Source, opt Options) ([]string, error) {
	data, err := readAll(ctx, src)
	if err != nil {
		return nil, err
	}
	for _, enc := range detect.Order(data, opt.Encoding) {
		text, err := detect.Decode(enc, data)
		if err != nil {
			continue
		}
		delim := opt.Delimiter
		if delim == 0 {
			delim = detect.Sniff(text)
		}
		if names, err := ParseHeader(text, delim); err == nil {
			return names, nil
		}
	}
	return nil, detect.ErrUndecodable
}

// wholeReader is implemented by sources that can return all bytes at once
// (file.Local does, with a size hint).
type wholeReader interface {
	ReadAll(ctx context.Context) ([]byte, error)
}

func readAll(ctx context.Context, src datasource.Source) ([]byte, error) {
	if wr, ok := src.(wholeReader); ok {
		return wr.ReadAll(ctx)
	}
	rc, err := src.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read %s: %w", src.Name(), err)
	}
	return data, nil
}
