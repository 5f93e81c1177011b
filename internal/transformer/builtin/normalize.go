package builtin

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"csvmerge/internal/config"
	"csvmerge/internal/records"
)

// Normalize projects rows onto the output columns. For each column it reads
// the value (EmptyValue when the row lacks the column), applies the case
// transform and stores it under the renamed output name. Columns not listed
// are dropped. This is the only stage that renames columns.
type Normalize struct {
	// Columns are the output columns by their source names, in output order.
	Columns []string
	// Mapping renames source columns; unmapped or empty targets keep the name.
	Mapping    map[string]string
	Case       config.CaseMode
	EmptyValue string
}

// Apply returns the projected rows, all sharing one header. When two columns
// rename to the same output name the first position is kept and the later
// column's value wins.
func (n Normalize) Apply(in []records.Row) []records.Row {
	h, dst := n.header()
	conv := caser(n.Case)

	out := make([]records.Row, len(in))
	for i, r := range in {
		vals := make([]string, h.Len())
		for j, col := range n.Columns {
			v, ok := r.Get(col)
			if !ok {
				v = n.EmptyValue
			}
			if conv != nil {
				v = conv.String(v)
			}
			vals[dst[j]] = v
		}
		out[i] = records.NewRow(h, vals)
	}
	return out
}

// OutputColumns returns the renamed output column names (duplicates folded).
func (n Normalize) OutputColumns() []string {
	h, _ := n.header()
	return h.Names()
}

func (n Normalize) header() (*records.Header, []int) {
	names := make([]string, len(n.Columns))
	for i, c := range n.Columns {
		names[i] = outputName(n.Mapping, c)
	}
	h := records.NewHeader(names)
	dst := make([]int, len(names))
	for i, name := range names {
		dst[i] = h.Index(name)
	}
	return h, dst
}

// caser returns nil for CaseNone and unknown modes.
func caser(m config.CaseMode) *cases.Caser {
	var c cases.Caser
	switch m {
	case config.CaseUpper:
		c = cases.Upper(language.Und)
	case config.CaseLower:
		c = cases.Lower(language.Und)
	case config.CaseTitle:
		c = cases.Title(language.Und)
	default:
		return nil
	}
	return &c
}

func outputName(mapping map[string]string, col string) string {
	if to, ok := mapping[col]; ok && to != "" {
		return to
	}
	return col
}

// lookup reads col from a renamed row: the mapped output name first, then
// the original name, "" when neither is present.
func lookup(r records.Row, mapping map[string]string, col string) string {
	if to, ok := mapping[col]; ok && to != "" {
		if v, ok := r.Get(to); ok {
			return v
		}
	}
	return r.Value(col)
}
