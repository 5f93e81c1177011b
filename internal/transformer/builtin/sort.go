package builtin

import (
	"cmp"
	"slices"
	"strings"

	"csvmerge/internal/config"
	"csvmerge/internal/records"
)

// Sort orders rows by Keys, the first key dominating.
//
// It runs one stable single-key sort per key, starting from the last key, so
// rows equal on every key keep their input order. With NumericAware, values
// that parse as numbers compare numerically and sort before every value that
// does not. Other values compare as strings, case-folded unless
// CaseSensitive. A descending key reverses the comparison without disturbing
// the order of ties. Key columns resolve through Mapping like DeDup keys.
type Sort struct {
	Keys          []config.SortKey
	Mapping       map[string]string
	CaseSensitive bool
	NumericAware  bool
}

type sortItem struct {
	row records.Row
	key sortValue
}

// sortValue is a tagged comparison key: numbers before strings.
type sortValue struct {
	numeric bool
	num     float64
	str     string
}

func (a sortValue) compare(b sortValue) int {
	switch {
	case a.numeric && b.numeric:
		return cmp.Compare(a.num, b.num)
	case a.numeric:
		return -1
	case b.numeric:
		return 1
	}
	return strings.Compare(a.str, b.str)
}

// Apply returns a sorted copy of in.
func (s Sort) Apply(in []records.Row) []records.Row {
	if len(in) < 2 || len(s.Keys) == 0 {
		return in
	}
	out := slices.Clone(in)
	items := make([]sortItem, len(out))
	for i := len(s.Keys) - 1; i >= 0; i-- {
		k := s.Keys[i]
		for j, r := range out {
			items[j] = sortItem{row: r, key: s.value(lookup(r, s.Mapping, k.Column))}
		}
		if k.Ascending {
			slices.SortStableFunc(items, func(a, b sortItem) int { return a.key.compare(b.key) })
		} else {
			slices.SortStableFunc(items, func(a, b sortItem) int { return b.key.compare(a.key) })
		}
		for j := range items {
			out[j] = items[j].row
		}
	}
	return out
}

func (s Sort) value(v string) sortValue {
	if s.NumericAware {
		if n, ok := records.ParseNumber(v); ok {
			return sortValue{numeric: true, num: n}
		}
	}
	if !s.CaseSensitive {
		v = strings.ToLower(v)
	}
	return sortValue{str: v}
}
