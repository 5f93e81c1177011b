package main

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"

	"csvmerge/internal/config"
)

// Flag names that override ProcessingConfig fields.
const (
	flagColumnsMode   = "columns-mode"
	flagColumns       = "columns"
	flagRename        = "rename"
	flagOrder         = "order"
	flagSort          = "sort"
	flagSortCase      = "sort-case-sensitive"
	flagNumericAware  = "numeric-aware"
	flagDedupe        = "dedupe"
	flagDedupeColumns = "dedupe-columns"
	flagKeep          = "keep"
	flagFilter        = "filter"
	flagFilterLogic   = "filter-logic"
	flagTrim          = "trim"
	flagCase          = "case"
	flagEmptyValue    = "empty-value"
	flagDelimiter     = "delimiter"
	flagEncoding      = "encoding"
	flagQuoting       = "quoting"
	flagHeader        = "header"
	flagLineEnding    = "line-ending"
	flagInputEncoding = "input-encoding"
	flagInputDelim    = "input-delimiter"
	flagTable         = "table"
)

// addConfigFlags registers the config override flags. Defaults shown in help
// are the built-in defaults; only flags set explicitly are applied.
func addConfigFlags(f *pflag.FlagSet) {
	d := config.Default()
	f.String(flagColumnsMode, string(d.ColumnsMode), "columns to keep: all|select|exclude")
	f.StringSlice(flagColumns, nil, "columns to select or exclude (with --columns-mode)")
	f.StringToString(flagRename, nil, "rename columns, e.g. --rename old=new")
	f.StringSlice(flagOrder, nil, "explicit output column order")
	f.StringArray(flagSort, nil, "sort key COLUMN[:asc|desc], repeatable; first is primary")
	f.Bool(flagSortCase, d.SortCaseSensitive, "compare sort and dedupe keys case-sensitively")
	f.Bool(flagNumericAware, d.SortNumericAware, "sort numeric values numerically")
	f.Bool(flagDedupe, d.DedupeEnabled, "remove duplicate rows")
	f.StringSlice(flagDedupeColumns, nil, "columns forming the dedupe key (default all)")
	f.String(flagKeep, string(d.DedupeKeep), "duplicate to keep: first|last")
	f.StringArray(flagFilter, nil, "filter COLUMN:OPERATOR[:VALUE], repeatable")
	f.String(flagFilterLogic, string(d.FilterLogic), "combine filters with and|or")
	f.Bool(flagTrim, d.TrimWhitespace, "trim whitespace around cell values")
	f.String(flagCase, string(d.CaseTransform), "case transform: none|upper|lower|title")
	f.String(flagEmptyValue, d.EmptyValue, "value for columns missing from a file")
	f.String(flagDelimiter, d.OutputDelimiter, "output delimiter (single character or \\t)")
	f.String(flagEncoding, d.OutputEncoding, "output encoding")
	f.String(flagQuoting, string(d.OutputQuoting), "output quoting: minimal|all|nonnumeric|none")
	f.Bool(flagHeader, d.IncludeHeader, "write a header line")
	f.String(flagLineEnding, string(d.LineEnding), "line ending: auto|unix|windows")
	f.String(flagInputEncoding, d.InputEncoding, "input encoding, or auto to detect")
	f.String(flagInputDelim, d.InputDelimiter, "input delimiter, or auto to detect")
	f.String(flagTable, d.OutputTable, "table name for database outputs")
}

// applyConfigFlags copies explicitly set flags onto cfg.
func applyConfigFlags(f *pflag.FlagSet, cfg *config.ProcessingConfig) error {
	var err error
	str := func(name string, dst *string) {
		if err == nil && f.Changed(name) {
			*dst, err = f.GetString(name)
		}
	}
	boolean := func(name string, dst *bool) {
		if err == nil && f.Changed(name) {
			*dst, err = f.GetBool(name)
		}
	}
	slice := func(name string, dst *[]string) {
		if err == nil && f.Changed(name) {
			*dst, err = f.GetStringSlice(name)
		}
	}

	var columnsMode, keep, logic, caseMode, quoting, lineEnding string
	str(flagColumnsMode, &columnsMode)
	str(flagKeep, &keep)
	str(flagFilterLogic, &logic)
	str(flagCase, &caseMode)
	str(flagQuoting, &quoting)
	str(flagLineEnding, &lineEnding)
	if err != nil {
		return err
	}
	setEnum(&cfg.ColumnsMode, columnsMode)
	setEnum(&cfg.DedupeKeep, keep)
	setEnum(&cfg.FilterLogic, logic)
	setEnum(&cfg.CaseTransform, caseMode)
	setEnum(&cfg.OutputQuoting, quoting)
	setEnum(&cfg.LineEnding, lineEnding)

	slice(flagColumns, &cfg.SelectedColumns)
	slice(flagOrder, &cfg.ColumnOrder)
	slice(flagDedupeColumns, &cfg.DedupeColumns)
	boolean(flagSortCase, &cfg.SortCaseSensitive)
	boolean(flagNumericAware, &cfg.SortNumericAware)
	boolean(flagDedupe, &cfg.DedupeEnabled)
	boolean(flagTrim, &cfg.TrimWhitespace)
	boolean(flagHeader, &cfg.IncludeHeader)
	str(flagEmptyValue, &cfg.EmptyValue)
	str(flagDelimiter, &cfg.OutputDelimiter)
	str(flagEncoding, &cfg.OutputEncoding)
	str(flagInputEncoding, &cfg.InputEncoding)
	str(flagInputDelim, &cfg.InputDelimiter)
	str(flagTable, &cfg.OutputTable)
	if err != nil {
		return err
	}

	if f.Changed(flagRename) {
		m, err := f.GetStringToString(flagRename)
		if err != nil {
			return err
		}
		if cfg.ColumnMapping == nil {
			cfg.ColumnMapping = map[string]string{}
		}
		for k, v := range m {
			cfg.ColumnMapping[k] = v
		}
	}
	if f.Changed(flagSort) {
		specs, err := f.GetStringArray(flagSort)
		if err != nil {
			return err
		}
		keys := make([]config.SortKey, 0, len(specs))
		for _, s := range specs {
			k, err := parseSortKey(s)
			if err != nil {
				return err
			}
			keys = append(keys, k)
		}
		cfg.SortColumns = keys
		cfg.SortEnabled = len(keys) > 0
	}
	if f.Changed(flagFilter) {
		specs, err := f.GetStringArray(flagFilter)
		if err != nil {
			return err
		}
		filters := make([]config.Filter, 0, len(specs))
		for _, s := range specs {
			ft, err := parseFilter(s)
			if err != nil {
				return err
			}
			filters = append(filters, ft)
		}
		cfg.Filters = filters
	}
	return nil
}

func setEnum[T ~string](dst *T, v string) {
	if v != "" {
		*dst = T(strings.ToLower(v))
	}
}

// parseSortKey parses COLUMN[:asc|desc].
func parseSortKey(s string) (config.SortKey, error) {
	col, dir, found := strings.Cut(s, ":")
	k := config.SortKey{Column: strings.TrimSpace(col), Ascending: true}
	if k.Column == "" {
		return k, fmt.Errorf("--%s %q: empty column", flagSort, s)
	}
	if found {
		switch strings.ToLower(strings.TrimSpace(dir)) {
		case "asc", "":
		case "desc":
			k.Ascending = false
		default:
			return k, fmt.Errorf("--%s %q: direction must be asc or desc", flagSort, s)
		}
	}
	return k, nil
}

// parseFilter parses COLUMN:OPERATOR[:VALUE]. The value may itself contain
// colons.
func parseFilter(s string) (config.Filter, error) {
	parts := strings.SplitN(s, ":", 3)
	if len(parts) < 2 {
		return config.Filter{}, fmt.Errorf("--%s %q: want COLUMN:OPERATOR[:VALUE]", flagFilter, s)
	}
	ft := config.Filter{
		Column:   parts[0],
		Operator: config.Operator(strings.ToLower(strings.TrimSpace(parts[1]))),
	}
	if len(parts) == 3 {
		ft.Value = parts[2]
	}
	return ft, nil
}
