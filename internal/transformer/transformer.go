// Package transformer defines the in-memory stage contract shared by the
// filter, transform, dedupe and sort steps of a consolidation run.
package transformer

import "csvmerge/internal/records"

// Transformer maps a batch of rows to a new batch. Implementations must not
// modify the input rows; they may return the input slice unchanged when they
// have nothing to do.
type Transformer interface {
	Apply([]records.Row) []records.Row
}

// Func adapts a plain function to Transformer.
type Func func([]records.Row) []records.Row

// Apply calls f(in).
func (f Func) Apply(in []records.Row) []records.Row { return f(in) }

// Chain is an ordered list of transformers.
type Chain []Transformer

// Apply feeds the output of each transformer to the next.
func (c Chain) Apply(in []records.Row) []records.Row {
	out := in
	for _, t := range c {
		out = t.Apply(out)
	}
	return out
}
