// Package file implements the delimited-text destination.
//
// Output bytes are fully determined by Options: delimiter, quoting policy,
// character encoding, line ending and whether a header line is written.
package file

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"golang.org/x/text/transform"

	"csvmerge/internal/config"
	"csvmerge/internal/detect"
	"csvmerge/internal/records"
	"csvmerge/internal/storage"
)

func init() {
	storage.Register("file", func(_ context.Context, cfg storage.Config) (storage.Sink, error) {
		path := strings.TrimPrefix(cfg.Target, "file://")
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("file: output path must not be empty")
		}
		opt := OptionsFrom(cfg.Output)
		if _, ok := detect.Lookup(opt.Encoding); !ok {
			return nil, fmt.Errorf("file: unknown output encoding %q", opt.Encoding)
		}
		return NewWriter(path, opt), nil
	})
}

// Options control the byte-level output format.
type Options struct {
	Delimiter  rune
	Encoding   string
	Quoting    config.Quoting
	Header     bool
	LineEnding config.LineEnding
}

// OptionsFrom extracts the output options of c.
func OptionsFrom(c config.ProcessingConfig) Options {
	return Options{
		Delimiter:  c.OutputDelimiterRune(),
		Encoding:   c.OutputEncoding,
		Quoting:    c.OutputQuoting,
		Header:     c.IncludeHeader,
		LineEnding: c.LineEnding,
	}
}

// Terminator returns the record terminator for the line-ending mode.
func (o Options) Terminator() string {
	switch o.LineEnding {
	case config.LineWindows:
		return "\r\n"
	case config.LineUnix:
		return "\n"
	}
	if runtime.GOOS == "windows" {
		return "\r\n"
	}
	return "\n"
}

// Writer writes one delimited file.
type Writer struct {
	path string
	opt  Options
}

// NewWriter returns a Writer for path. Nothing touches the filesystem until
// Write is called with at least one row.
func NewWriter(path string, opt Options) *Writer {
	return &Writer{path: path, opt: opt}
}

// Path returns the destination path.
func (w *Writer) Path() string { return w.path }

// Write creates the parent directories and the file, then encodes rows. An
// empty batch writes nothing. A character the output encoding cannot
// represent fails the write; the partial file is left in place.
func (w *Writer) Write(ctx context.Context, columns []string, rows []records.Row) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if dir := filepath.Dir(w.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return 0, fmt.Errorf("create output dir: %w", err)
		}
	}
	f, err := os.Create(w.path)
	if err != nil {
		return 0, fmt.Errorf("create output: %w", err)
	}
	n, err := Encode(f, columns, rows, w.opt)
	if cerr := f.Close(); cerr != nil && err == nil {
		err = fmt.Errorf("close output: %w", cerr)
	}
	return n, err
}

// Close is a no-op; Write closes the file it creates.
func (w *Writer) Close() error { return nil }

// Encode writes the header (when enabled) and rows to dst in the configured
// format and returns the number of data rows written.
func Encode(dst io.Writer, columns []string, rows []records.Row, opt Options) (int64, error) {
	enc, ok := detect.Lookup(opt.Encoding)
	if !ok {
		return 0, fmt.Errorf("unknown output encoding %q", opt.Encoding)
	}
	var tw io.WriteCloser
	if detect.Canonical(opt.Encoding) != "utf-8" {
		tw = transform.NewWriter(dst, enc.NewEncoder())
		dst = tw
	}
	bw := bufio.NewWriterSize(dst, 64<<10)

	lw := lineWriter{w: bw, opt: opt, eol: opt.Terminator()}
	if opt.Delimiter == 0 {
		lw.opt.Delimiter = ','
	}

	var written int64
	err := func() error {
		if opt.Header {
			if err := lw.line(columns); err != nil {
				return err
			}
		}
		fields := make([]string, len(columns))
		for _, r := range rows {
			for i, c := range columns {
				fields[i] = r.Value(c)
			}
			if err := lw.line(fields); err != nil {
				return err
			}
			written++
		}
		return bw.Flush()
	}()
	if tw != nil {
		if cerr := tw.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	if err != nil {
		return written, fmt.Errorf("write output (%s): %w", detect.Canonical(opt.Encoding), err)
	}
	return written, nil
}

type lineWriter struct {
	w   *bufio.Writer
	opt Options
	eol string
}

func (l lineWriter) line(fields []string) error {
	for i, f := range fields {
		if i > 0 {
			if _, err := l.w.WriteRune(l.opt.Delimiter); err != nil {
				return err
			}
		}
		if l.quote(f, len(fields)) {
			if err := l.quoted(f); err != nil {
				return err
			}
			continue
		}
		if _, err := l.w.WriteString(f); err != nil {
			return err
		}
	}
	_, err := l.w.WriteString(l.eol)
	return err
}

func (l lineWriter) quoted(f string) error {
	if err := l.w.WriteByte('"'); err != nil {
		return err
	}
	if _, err := l.w.WriteString(strings.ReplaceAll(f, `"`, `""`)); err != nil {
		return err
	}
	return l.w.WriteByte('"')
}

func (l lineWriter) quote(f string, nfields int) bool {
	switch l.opt.Quoting {
	case config.QuoteNone:
		return false
	case config.QuoteAll:
		return true
	case config.QuoteNonNumeric:
		if _, ok := records.ParseNumber(f); !ok {
			return true
		}
	}
	return l.needsQuotes(f) || (f == "" && nfields == 1)
}

// needsQuotes reports whether f would be misread without quotes.
func (l lineWriter) needsQuotes(f string) bool {
	return strings.ContainsRune(f, l.opt.Delimiter) || strings.ContainsAny(f, "\"\r\n")
}
