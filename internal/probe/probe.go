// Package probe reports how each input file would be read: detected encoding
// and delimiter, header columns and row count. It backs the CLI's probe
// command and helps pick input overrides before a run.
package probe

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"csvmerge/internal/parser/csv"
)

// Report describes one input file.
type Report struct {
	Path      string   `json:"path"`
	Size      int64    `json:"size"`
	Encoding  string   `json:"encoding,omitempty"`
	Delimiter string   `json:"delimiter,omitempty"`
	Columns   []string `json:"columns,omitempty"`
	Rows      int      `json:"rows"`
	// Err is set when the file could not be read; other fields except Path
	// may then be empty.
	Err string `json:"error,omitempty"`
}

// Files probes every path in order using the same reader options a run would.
func Files(ctx context.Context, paths []string, opt csv.Options) []Report {
	r := csv.NewReader(opt)
	out := make([]Report, 0, len(paths))
	for _, p := range paths {
		rep := Report{Path: p}
		if fi, err := os.Stat(p); err == nil {
			rep.Size = fi.Size()
		}
		t, err := r.ReadFile(ctx, p)
		if err != nil {
			rep.Err = err.Error()
			out = append(out, rep)
			continue
		}
		rep.Encoding = t.Encoding
		rep.Delimiter = delimiterName(t.Delimiter)
		rep.Columns = t.Columns
		rep.Rows = len(t.Rows)
		out = append(out, rep)
	}
	return out
}

func delimiterName(r rune) string {
	switch r {
	case '\t':
		return `\t`
	case 0:
		return ""
	}
	return string(r)
}

// Render writes reports as an aligned table, or as indented JSON when asJSON
// is set.
func Render(w io.Writer, reports []Report, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(reports)
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FILE\tENCODING\tDELIM\tROWS\tCOLUMNS")
	for _, r := range reports {
		if r.Err != "" {
			fmt.Fprintf(tw, "%s\t-\t-\t-\terror: %s\n", filepath.Base(r.Path), r.Err)
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n",
			filepath.Base(r.Path), r.Encoding, r.Delimiter, r.Rows, strings.Join(r.Columns, ", "))
	}
	return tw.Flush()
}
