// Package records defines the in-memory row model shared by every pipeline
// stage.
//
// A Row addresses its values by column name through a Header. The Header is
// built once (per input file, or per stage that reshapes rows) and shared by
// every row created against it, so rows carry only a slice of values rather
// than a per-row map. Rows are immutable: stages that change values or columns
// build new rows instead of editing existing ones.
package records

import (
	"math"
	"strconv"
	"strings"
)

// Header is an immutable, ordered set of unique column names.
type Header struct {
	names []string
	index map[string]int
}

// NewHeader builds a Header from names. Duplicate names keep their first
// position.
func NewHeader(names []string) *Header {
	h := &Header{
		names: make([]string, 0, len(names)),
		index: make(map[string]int, len(names)),
	}
	for _, n := range names {
		if _, ok := h.index[n]; ok {
			continue
		}
		h.index[n] = len(h.names)
		h.names = append(h.names, n)
	}
	return h
}

// Names returns a copy of the column names in header order.
func (h *Header) Names() []string {
	return append([]string(nil), h.names...)
}

// Len reports the number of columns.
func (h *Header) Len() int { return len(h.names) }

// Index returns the position of name, or -1 when the column is absent.
func (h *Header) Index(name string) int {
	if i, ok := h.index[name]; ok {
		return i
	}
	return -1
}

// Row is one logical record.
type Row struct {
	h    *Header
	vals []string
}

// NewRow binds vals to h. vals is owned by the row afterwards; callers must
// not modify it. A short vals slice reads as "" for the trailing columns.
func NewRow(h *Header, vals []string) Row {
	return Row{h: h, vals: vals}
}

// FromMap builds a row (with its own header) from a name->value map, using
// order for the column sequence. Names in order missing from m are skipped.
// It is mostly useful in tests.
func FromMap(order []string, m map[string]string) Row {
	names := make([]string, 0, len(order))
	vals := make([]string, 0, len(order))
	for _, n := range order {
		if v, ok := m[n]; ok {
			names = append(names, n)
			vals = append(vals, v)
		}
	}
	return Row{h: NewHeader(names), vals: vals}
}

// Header returns the row's header.
func (r Row) Header() *Header { return r.h }

// Get returns the value for column name and whether the row has that column.
func (r Row) Get(name string) (string, bool) {
	if r.h == nil {
		return "", false
	}
	i, ok := r.h.index[name]
	if !ok {
		return "", false
	}
	if i < len(r.vals) {
		return r.vals[i], true
	}
	return "", true
}

// Value returns the value for column name; absent columns read as "".
func (r Row) Value(name string) string {
	v, _ := r.Get(name)
	return v
}

// Map returns the row as a name->value map.
func (r Row) Map() map[string]string {
	if r.h == nil {
		return map[string]string{}
	}
	m := make(map[string]string, len(r.h.names))
	for i, n := range r.h.names {
		if i < len(r.vals) {
			m[n] = r.vals[i]
		} else {
			m[n] = ""
		}
	}
	return m
}

// ColumnSet accumulates column names in first-seen order.
type ColumnSet struct {
	order []string
	seen  map[string]struct{}
}

// Add appends every non-empty name not seen before. It returns how many
// names were new.
func (c *ColumnSet) Add(names ...string) int {
	if c.seen == nil {
		c.seen = make(map[string]struct{})
	}
	added := 0
	for _, n := range names {
		if n == "" {
			continue
		}
		if _, ok := c.seen[n]; ok {
			continue
		}
		c.seen[n] = struct{}{}
		c.order = append(c.order, n)
		added++
	}
	return added
}

// Names returns a copy of the accumulated names in discovery order.
func (c *ColumnSet) Names() []string { return append([]string(nil), c.order...) }

// Len reports the number of distinct names.
func (c *ColumnSet) Len() int { return len(c.order) }

// ParseNumber parses s as a decimal number after trimming whitespace and
// removing thousands-separator commas. Hex notation and NaN are rejected.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" || strings.ContainsAny(s, "xXpP_") {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}
