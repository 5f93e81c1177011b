// Package config defines ProcessingConfig, the complete description of one
// consolidation run, plus its defaults, persistence and validation.
//
// A ProcessingConfig is a plain value. Callers build or load one, validate it,
// and hand a snapshot to the engine; the engine never mutates it. Persisted
// files are flat records keyed by field name (JSON, or YAML for .yaml/.yml).
// Sort rules and filters persist as ordered tuples:
//
//	{
//	  "columns_mode": "select",
//	  "selected_columns": ["id", "name"],
//	  "sort_enabled": true,
//	  "sort_columns": [["id", true], ["name", false]],
//	  "filters": [["status", "equals", "active"]],
//	  "dedupe_keep": "last"
//	}
//
// Fields missing from a file keep the values from Default.
package config

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

// ColumnsMode selects which discovered columns reach the output.
type ColumnsMode string

const (
	ColumnsAll     ColumnsMode = "all"
	ColumnsSelect  ColumnsMode = "select"
	ColumnsExclude ColumnsMode = "exclude"
)

// KeepPolicy decides which duplicate survives de-duplication.
type KeepPolicy string

const (
	KeepFirst KeepPolicy = "first"
	KeepLast  KeepPolicy = "last"
)

// Logic combines filter predicates.
type Logic string

const (
	LogicAnd Logic = "and"
	LogicOr  Logic = "or"
)

// CaseMode is the value case transform.
type CaseMode string

const (
	CaseNone  CaseMode = "none"
	CaseUpper CaseMode = "upper"
	CaseLower CaseMode = "lower"
	CaseTitle CaseMode = "title"
)

// Quoting is the output quoting policy.
type Quoting string

const (
	QuoteMinimal    Quoting = "minimal"
	QuoteAll        Quoting = "all"
	QuoteNonNumeric Quoting = "nonnumeric"
	QuoteNone       Quoting = "none"
)

// LineEnding is the output record terminator.
type LineEnding string

const (
	LineAuto    LineEnding = "auto"
	LineUnix    LineEnding = "unix"
	LineWindows LineEnding = "windows"
)

// Operator names a filter predicate.
type Operator string

const (
	OpEquals      Operator = "equals"
	OpNotEquals   Operator = "not_equals"
	OpContains    Operator = "contains"
	OpNotContains Operator = "not_contains"
	OpStartsWith  Operator = "starts_with"
	OpEndsWith    Operator = "ends_with"
	OpIsEmpty     Operator = "is_empty"
	OpIsNotEmpty  Operator = "is_not_empty"
	OpGreaterThan Operator = "greater_than"
	OpLessThan    Operator = "less_than"
	OpRegex       Operator = "regex"
)

// Operators lists every supported filter operator.
var Operators = []Operator{
	OpEquals, OpNotEquals, OpContains, OpNotContains, OpStartsWith, OpEndsWith,
	OpIsEmpty, OpIsNotEmpty, OpGreaterThan, OpLessThan, OpRegex,
}

// Valid reports whether o is a supported operator.
func (o Operator) Valid() bool {
	for _, k := range Operators {
		if o == k {
			return true
		}
	}
	return false
}

// DefaultOutputTable names the table written by database destinations when
// OutputTable is empty.
const DefaultOutputTable = "consolidated"

// ProcessingConfig is the complete, immutable-per-run pipeline configuration.
type ProcessingConfig struct {
	// Column selection
	ColumnsMode     ColumnsMode       `json:"columns_mode" yaml:"columns_mode"`
	SelectedColumns []string          `json:"selected_columns" yaml:"selected_columns"`
	ColumnMapping   map[string]string `json:"column_mapping" yaml:"column_mapping"`
	ColumnOrder     []string          `json:"column_order" yaml:"column_order"`

	// Sorting
	SortEnabled       bool      `json:"sort_enabled" yaml:"sort_enabled"`
	SortColumns       []SortKey `json:"sort_columns" yaml:"sort_columns"`
	SortCaseSensitive bool      `json:"sort_case_sensitive" yaml:"sort_case_sensitive"`
	SortNumericAware  bool      `json:"sort_numeric_aware" yaml:"sort_numeric_aware"`

	// De-duplication. DedupeColumns are named before renaming; empty means
	// every output column.
	DedupeEnabled bool       `json:"dedupe_enabled" yaml:"dedupe_enabled"`
	DedupeColumns []string   `json:"dedupe_columns" yaml:"dedupe_columns"`
	DedupeKeep    KeepPolicy `json:"dedupe_keep" yaml:"dedupe_keep"`

	// Filtering
	Filters     []Filter `json:"filters" yaml:"filters"`
	FilterLogic Logic    `json:"filter_logic" yaml:"filter_logic"`

	// Transformations
	TrimWhitespace bool     `json:"trim_whitespace" yaml:"trim_whitespace"`
	CaseTransform  CaseMode `json:"case_transform" yaml:"case_transform"`
	EmptyValue     string   `json:"empty_value" yaml:"empty_value"`

	// Output
	OutputDelimiter string     `json:"output_delimiter" yaml:"output_delimiter"`
	OutputEncoding  string     `json:"output_encoding" yaml:"output_encoding"`
	OutputQuoting   Quoting    `json:"output_quoting" yaml:"output_quoting"`
	IncludeHeader   bool       `json:"include_header" yaml:"include_header"`
	LineEnding      LineEnding `json:"line_ending" yaml:"line_ending"`

	// Input overrides: "auto" detects per file.
	InputEncoding  string `json:"input_encoding" yaml:"input_encoding"`
	InputDelimiter string `json:"input_delimiter" yaml:"input_delimiter"`

	// OutputTable is the destination table for database outputs.
	OutputTable string `json:"output_table" yaml:"output_table"`
}

// Default returns the configuration used when nothing else is specified.
func Default() ProcessingConfig {
	return ProcessingConfig{
		ColumnsMode:      ColumnsAll,
		SortNumericAware: true,
		DedupeEnabled:    true,
		DedupeKeep:       KeepFirst,
		FilterLogic:      LogicAnd,
		TrimWhitespace:   true,
		CaseTransform:    CaseNone,
		OutputDelimiter:  ",",
		OutputEncoding:   "utf-8",
		OutputQuoting:    QuoteMinimal,
		IncludeHeader:    true,
		LineEnding:       LineAuto,
		InputEncoding:    "auto",
		InputDelimiter:   "auto",
		OutputTable:      DefaultOutputTable,
	}
}

// Clone returns a deep copy so a run can hold a snapshot its caller cannot
// change underneath it.
func (c ProcessingConfig) Clone() ProcessingConfig {
	out := c
	out.SelectedColumns = cloneStrings(c.SelectedColumns)
	out.ColumnOrder = cloneStrings(c.ColumnOrder)
	out.DedupeColumns = cloneStrings(c.DedupeColumns)
	if c.SortColumns != nil {
		out.SortColumns = append([]SortKey(nil), c.SortColumns...)
	}
	if c.Filters != nil {
		out.Filters = append([]Filter(nil), c.Filters...)
	}
	if c.ColumnMapping != nil {
		out.ColumnMapping = make(map[string]string, len(c.ColumnMapping))
		for k, v := range c.ColumnMapping {
			out.ColumnMapping[k] = v
		}
	}
	return out
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s...)
}

// FinalColumns returns the output column list (pre-rename) for the given
// discovery order. An explicit ColumnOrder wins outright.
func (c ProcessingConfig) FinalColumns(discovered []string) []string {
	if len(c.ColumnOrder) > 0 {
		return cloneStrings(c.ColumnOrder)
	}
	switch c.ColumnsMode {
	case ColumnsSelect, ColumnsExclude:
		sel := make(map[string]struct{}, len(c.SelectedColumns))
		for _, s := range c.SelectedColumns {
			sel[s] = struct{}{}
		}
		want := c.ColumnsMode == ColumnsSelect
		out := make([]string, 0, len(discovered))
		for _, d := range discovered {
			if _, ok := sel[d]; ok == want {
				out = append(out, d)
			}
		}
		return out
	default:
		return cloneStrings(discovered)
	}
}

// OutputName maps a source column to its output name.
func (c ProcessingConfig) OutputName(col string) string {
	if to, ok := c.ColumnMapping[col]; ok && to != "" {
		return to
	}
	return col
}

// OutputNames maps every column in cols through OutputName.
func (c ProcessingConfig) OutputNames(cols []string) []string {
	out := make([]string, len(cols))
	for i, col := range cols {
		out[i] = c.OutputName(col)
	}
	return out
}

// InputDelimiterRune returns the pinned input delimiter, or 0 for "auto".
func (c ProcessingConfig) InputDelimiterRune() rune {
	return delimiterRune(c.InputDelimiter, 0)
}

// OutputDelimiterRune returns the output delimiter, defaulting to ','.
func (c ProcessingConfig) OutputDelimiterRune() rune {
	return delimiterRune(c.OutputDelimiter, ',')
}

func delimiterRune(s string, def rune) rune {
	switch strings.ToLower(s) {
	case "", "auto":
		return def
	case `\t`, "tab":
		return '\t'
	}
	r, _ := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return def
	}
	return r
}

// SortKey is one sort rule. It persists as [column, ascending].
type SortKey struct {
	Column    string
	Ascending bool
}

// MarshalJSON encodes the key as a two-element array.
func (k SortKey) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{k.Column, k.Ascending})
}

// UnmarshalJSON accepts [column, ascending] or
// {"column": ..., "ascending": ...}. A missing direction means ascending.
func (k *SortKey) UnmarshalJSON(b []byte) error {
	var tuple []any
	if err := json.Unmarshal(b, &tuple); err == nil {
		return k.fromTuple(tuple)
	}
	obj := struct {
		Column    string `json:"column"`
		Ascending *bool  `json:"ascending"`
	}{}
	if err := json.Unmarshal(b, &obj); err != nil {
		return fmt.Errorf("sort key: %w", err)
	}
	k.Column = obj.Column
	k.Ascending = obj.Ascending == nil || *obj.Ascending
	return nil
}

// MarshalYAML encodes the key as a two-element sequence.
func (k SortKey) MarshalYAML() (any, error) {
	return []any{k.Column, k.Ascending}, nil
}

// UnmarshalYAML mirrors UnmarshalJSON.
func (k *SortKey) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind == yaml.SequenceNode {
		var tuple []any
		if err := n.Decode(&tuple); err != nil {
			return err
		}
		return k.fromTuple(tuple)
	}
	obj := struct {
		Column    string `yaml:"column"`
		Ascending *bool  `yaml:"ascending"`
	}{}
	if err := n.Decode(&obj); err != nil {
		return fmt.Errorf("sort key: %w", err)
	}
	k.Column = obj.Column
	k.Ascending = obj.Ascending == nil || *obj.Ascending
	return nil
}

func (k *SortKey) fromTuple(t []any) error {
	if len(t) == 0 || len(t) > 2 {
		return fmt.Errorf("sort key: want [column, ascending], got %d elements", len(t))
	}
	col, ok := t[0].(string)
	if !ok {
		return fmt.Errorf("sort key: column must be a string, got %T", t[0])
	}
	k.Column = col
	k.Ascending = true
	if len(t) == 2 {
		asc, ok := t[1].(bool)
		if !ok {
			return fmt.Errorf("sort key %q: ascending must be a bool, got %T", col, t[1])
		}
		k.Ascending = asc
	}
	return nil
}

// Filter is one predicate. It persists as [column, operator, value].
type Filter struct {
	Column   string
	Operator Operator
	Value    string
}

// Regexp compiles Value the way the regex operator applies it:
// case-insensitive, unanchored.
func (f Filter) Regexp() (*regexp.Regexp, error) {
	return regexp.Compile("(?i)" + f.Value)
}

// MarshalJSON encodes the filter as a three-element array.
func (f Filter) MarshalJSON() ([]byte, error) {
	return json.Marshal([]string{f.Column, string(f.Operator), f.Value})
}

// UnmarshalJSON accepts [column, operator, value] (value optional, numbers
// allowed) or {"column": ..., "operator": ..., "value": ...}.
func (f *Filter) UnmarshalJSON(b []byte) error {
	var tuple []any
	if err := json.Unmarshal(b, &tuple); err == nil {
		return f.fromTuple(tuple)
	}
	obj := struct {
		Column   string `json:"column"`
		Operator string `json:"operator"`
		Value    any    `json:"value"`
	}{}
	if err := json.Unmarshal(b, &obj); err != nil {
		return fmt.Errorf("filter: %w", err)
	}
	return f.fromTuple([]any{obj.Column, obj.Operator, obj.Value})
}

// MarshalYAML encodes the filter as a three-element sequence.
func (f Filter) MarshalYAML() (any, error) {
	return []string{f.Column, string(f.Operator), f.Value}, nil
}

// UnmarshalYAML mirrors UnmarshalJSON.
func (f *Filter) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind == yaml.SequenceNode {
		var tuple []any
		if err := n.Decode(&tuple); err != nil {
			return err
		}
		return f.fromTuple(tuple)
	}
	obj := struct {
		Column   string `yaml:"column"`
		Operator string `yaml:"operator"`
		Value    any    `yaml:"value"`
	}{}
	if err := n.Decode(&obj); err != nil {
		return fmt.Errorf("filter: %w", err)
	}
	return f.fromTuple([]any{obj.Column, obj.Operator, obj.Value})
}

func (f *Filter) fromTuple(t []any) error {
	if len(t) < 2 || len(t) > 3 {
		return fmt.Errorf("filter: want [column, operator, value], got %d elements", len(t))
	}
	col, ok := t[0].(string)
	if !ok {
		return fmt.Errorf("filter: column must be a string, got %T", t[0])
	}
	op, ok := t[1].(string)
	if !ok {
		return fmt.Errorf("filter %q: operator must be a string, got %T", col, t[1])
	}
	f.Column = col
	f.Operator = Operator(op)
	f.Value = ""
	if len(t) == 3 && t[2] != nil {
		switch v := t[2].(type) {
		case string:
			f.Value = v
		case float64, int, int64, bool:
			f.Value = fmt.Sprint(v)
		default:
			return fmt.Errorf("filter %q: unsupported value type %T", col, t[2])
		}
	}
	return nil
}
