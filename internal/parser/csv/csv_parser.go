// Package csv turns decoded delimited text into records.Row values and
// discovers column names across input files.
//
// The encoding/csv reader runs in a lenient mode (LazyQuotes, variable field
// count) because inputs come from arbitrary spreadsheet exports. Header cells
// are always trimmed; cell values are trimmed only when TrimSpace is set.
package csv

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"csvmerge/internal/records"
)

// Table is one parsed input.
type Table struct {
	// Name is a short label for the input (usually the file's base name).
	Name string
	// Encoding and Delimiter record what the input was read with.
	Encoding  string
	Delimiter rune
	// Columns are the trimmed, non-empty, unique header names in file order.
	Columns []string
	Rows    []records.Row
}

// Parse reads text as a header line followed by data rows.
//
// Rows are keyed by the trimmed header names present in this input. Header
// cells that trim to "" drop their column; a repeated name keeps its first
// position and takes the value of its last occurrence. Rows shorter than the
// header read "" for the missing cells; cells beyond the header are ignored.
func Parse(text string, delim rune, trim bool) (*Table, error) {
	cr := newReader(text, delim)

	raw, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return &Table{Delimiter: delim}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	h, srcToDst := buildHeader(raw)
	t := &Table{Delimiter: delim, Columns: h.Names()}

	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		vals := make([]string, h.Len())
		for i, v := range rec {
			if i >= len(srcToDst) || srcToDst[i] < 0 {
				continue
			}
			if trim {
				v = strings.TrimSpace(v)
			}
			vals[srcToDst[i]] = v
		}
		t.Rows = append(t.Rows, records.NewRow(h, vals))
	}
	return t, nil
}

// ParseHeader reads only the header line of text and returns its trimmed,
// non-empty names in order (duplicates included).
func ParseHeader(text string, delim rune) ([]string, error) {
	raw, err := newReader(text, delim).Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	raw = stripHeaderBOM(raw)
	out := make([]string, 0, len(raw))
	for _, c := range raw {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	return out, nil
}

func newReader(text string, delim rune) *csv.Reader {
	cr := csv.NewReader(strings.NewReader(text))
	if delim != 0 {
		cr.Comma = delim
	}
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1
	return cr
}

// buildHeader trims raw header cells and maps each source position to its
// destination column (-1 when dropped).
func buildHeader(raw []string) (*records.Header, []int) {
	raw = stripHeaderBOM(raw)
	names := make([]string, 0, len(raw))
	pos := make(map[string]int, len(raw))
	srcToDst := make([]int, len(raw))
	for i, c := range raw {
		c = strings.TrimSpace(c)
		if c == "" {
			srcToDst[i] = -1
			continue
		}
		p, ok := pos[c]
		if !ok {
			p = len(names)
			pos[c] = p
			names = append(names, c)
		}
		srcToDst[i] = p
	}
	return records.NewHeader(names), srcToDst
}
