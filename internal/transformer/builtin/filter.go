// Package builtin contains the four in-memory stages of a consolidation run:
// Filter, Normalize (value transform and rename), DeDup and Sort.
//
// Every stage implements transformer.Transformer. Stages never modify the
// rows they receive; Normalize builds new rows, the others return re-sliced
// or reordered copies of the input rows.
package builtin

import (
	"regexp"
	"strings"

	"csvmerge/internal/config"
	"csvmerge/internal/records"
)

// Filter keeps the rows that satisfy its predicates.
//
// String operators compare case-insensitively. is_empty/is_not_empty treat
// whitespace-only cells as empty. greater_than/less_than compare numerically
// after stripping thousands separators; if either side is not a number the
// predicate is false. regex is an unanchored, case-insensitive search; a
// pattern that does not compile matches nothing. Unknown operators pass.
// Absent columns read as "".
type Filter struct {
	Predicates []config.Filter
	// Logic combines predicates: or keeps a row when any predicate holds,
	// anything else requires all of them.
	Logic config.Logic
}

// Apply returns the rows that pass. An empty predicate list passes all rows.
func (f Filter) Apply(in []records.Row) []records.Row {
	if len(f.Predicates) == 0 || len(in) == 0 {
		return in
	}
	preds := make([]predicate, len(f.Predicates))
	for i, p := range f.Predicates {
		preds[i] = compilePredicate(p)
	}
	anyOf := f.Logic == config.LogicOr

	out := make([]records.Row, 0, len(in))
	for _, r := range in {
		if match(preds, r, anyOf) {
			out = append(out, r)
		}
	}
	return out
}

func match(preds []predicate, r records.Row, anyOf bool) bool {
	for _, p := range preds {
		ok := p.eval(r.Value(p.column))
		if anyOf && ok {
			return true
		}
		if !anyOf && !ok {
			return false
		}
	}
	return !anyOf
}

// predicate is a config.Filter with its operand prepared once per stage.
type predicate struct {
	column string
	op     config.Operator
	lower  string

	num   float64
	numOK bool

	re *regexp.Regexp
}

func compilePredicate(f config.Filter) predicate {
	p := predicate{column: f.Column, op: f.Operator, lower: strings.ToLower(f.Value)}
	switch f.Operator {
	case config.OpGreaterThan, config.OpLessThan:
		p.num, p.numOK = records.ParseNumber(f.Value)
	case config.OpRegex:
		if re, err := f.Regexp(); err == nil {
			p.re = re
		}
	}
	return p
}

func (p predicate) eval(v string) bool {
	switch p.op {
	case config.OpEquals:
		return strings.ToLower(v) == p.lower
	case config.OpNotEquals:
		return strings.ToLower(v) != p.lower
	case config.OpContains:
		return strings.Contains(strings.ToLower(v), p.lower)
	case config.OpNotContains:
		return !strings.Contains(strings.ToLower(v), p.lower)
	case config.OpStartsWith:
		return strings.HasPrefix(strings.ToLower(v), p.lower)
	case config.OpEndsWith:
		return strings.HasSuffix(strings.ToLower(v), p.lower)
	case config.OpIsEmpty:
		return strings.TrimSpace(v) == ""
	case config.OpIsNotEmpty:
		return strings.TrimSpace(v) != ""
	case config.OpGreaterThan, config.OpLessThan:
		if !p.numOK {
			return false
		}
		n, ok := records.ParseNumber(v)
		if !ok {
			return false
		}
		if p.op == config.OpGreaterThan {
			return n > p.num
		}
		return n < p.num
	case config.OpRegex:
		return p.re != nil && p.re.MatchString(v)
	default:
		return true
	}
}
