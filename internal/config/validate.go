package config

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"csvmerge/internal/detect"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError blocks a run.
	SeverityError IssueSeverity = "error"
	// SeverityWarning is surfaced to users but does not block a run.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation finding.
//
// Path is a dotted path into the config (e.g. "filters[1].operator").
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be returned on its own.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// HasErrors reports whether any issue has error severity.
func HasErrors(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Validate performs static checks over c without mutating it. The engine
// tolerates every problem reported here at run time (unknown operators pass,
// broken regexes match nothing), so callers decide which issues are fatal.
func Validate(c ProcessingConfig) []Issue {
	var issues []Issue
	issues = append(issues, validateColumns(c)...)
	issues = append(issues, validateSort(c)...)
	issues = append(issues, validateDedupe(c)...)
	issues = append(issues, validateFilters(c)...)
	issues = append(issues, validateTransform(c)...)
	issues = append(issues, validateOutput(c)...)
	issues = append(issues, validateInput(c)...)
	return issues
}

func errorf(path, format string, args ...any) Issue {
	return Issue{Severity: SeverityError, Path: path, Message: fmt.Sprintf(format, args...)}
}

func warnf(path, format string, args ...any) Issue {
	return Issue{Severity: SeverityWarning, Path: path, Message: fmt.Sprintf(format, args...)}
}

func oneOf[T ~string](v T, allowed ...T) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}

func validateColumns(c ProcessingConfig) []Issue {
	var issues []Issue
	if !oneOf(c.ColumnsMode, ColumnsAll, ColumnsSelect, ColumnsExclude) {
		issues = append(issues, errorf("columns_mode", "unknown mode %q (want all, select or exclude)", c.ColumnsMode))
	}
	if c.ColumnsMode == ColumnsSelect && len(c.SelectedColumns) == 0 && len(c.ColumnOrder) == 0 {
		issues = append(issues, warnf("selected_columns", "select mode with no columns produces empty rows"))
	}
	seen := make(map[string]string, len(c.ColumnMapping))
	for from, to := range c.ColumnMapping {
		if strings.TrimSpace(to) == "" {
			issues = append(issues, warnf("column_mapping."+from, "empty target name; column keeps its original name"))
			continue
		}
		if prev, ok := seen[to]; ok {
			issues = append(issues, warnf("column_mapping."+from,
				"maps to %q like %q; the later value wins in output rows", to, prev))
		}
		seen[to] = from
	}
	return issues
}

func validateSort(c ProcessingConfig) []Issue {
	var issues []Issue
	if c.SortEnabled && len(c.SortColumns) == 0 {
		issues = append(issues, warnf("sort_columns", "sorting is enabled but no sort columns are set; sort is skipped"))
	}
	for i, k := range c.SortColumns {
		if strings.TrimSpace(k.Column) == "" {
			issues = append(issues, errorf(fmt.Sprintf("sort_columns[%d]", i), "column must not be empty"))
		}
	}
	return issues
}

func validateDedupe(c ProcessingConfig) []Issue {
	if !oneOf(c.DedupeKeep, KeepFirst, KeepLast) {
		return []Issue{errorf("dedupe_keep", "unknown policy %q (want first or last)", c.DedupeKeep)}
	}
	return nil
}

func validateFilters(c ProcessingConfig) []Issue {
	var issues []Issue
	if !oneOf(c.FilterLogic, LogicAnd, LogicOr) {
		issues = append(issues, errorf("filter_logic", "unknown logic %q (want and or or)", c.FilterLogic))
	}
	for i, f := range c.Filters {
		path := fmt.Sprintf("filters[%d]", i)
		if strings.TrimSpace(f.Column) == "" {
			issues = append(issues, warnf(path+".column", "empty column always reads as an empty value"))
		}
		if !f.Operator.Valid() {
			issues = append(issues, errorf(path+".operator", "unknown operator %q; the predicate would pass every row", f.Operator))
			continue
		}
		if f.Operator == OpRegex {
			if _, err := f.Regexp(); err != nil {
				issues = append(issues, errorf(path+".value", "invalid regular expression: %v", err))
			}
		}
	}
	return issues
}

func validateTransform(c ProcessingConfig) []Issue {
	if !oneOf(c.CaseTransform, CaseNone, CaseUpper, CaseLower, CaseTitle) {
		return []Issue{errorf("case_transform", "unknown case %q (want none, upper, lower or title)", c.CaseTransform)}
	}
	return nil
}

func validateOutput(c ProcessingConfig) []Issue {
	var issues []Issue
	if !singleChar(c.OutputDelimiter) {
		issues = append(issues, errorf("output_delimiter", "must be a single character, got %q", c.OutputDelimiter))
	} else if d := c.OutputDelimiterRune(); d == '"' || d == '\r' || d == '\n' {
		issues = append(issues, errorf("output_delimiter", "%q cannot be used as a delimiter", d))
	}
	if !detect.Known(c.OutputEncoding) {
		issues = append(issues, errorf("output_encoding", "unknown encoding %q", c.OutputEncoding))
	}
	if !oneOf(c.OutputQuoting, QuoteMinimal, QuoteAll, QuoteNonNumeric, QuoteNone) {
		issues = append(issues, errorf("output_quoting", "unknown quoting %q (want minimal, all, nonnumeric or none)", c.OutputQuoting))
	}
	if c.OutputQuoting == QuoteNone {
		issues = append(issues, warnf("output_quoting", "values containing the delimiter or line breaks are written unescaped"))
	}
	if !oneOf(c.LineEnding, LineAuto, LineUnix, LineWindows) {
		issues = append(issues, errorf("line_ending", "unknown line ending %q (want auto, unix or windows)", c.LineEnding))
	}
	return issues
}

func validateInput(c ProcessingConfig) []Issue {
	var issues []Issue
	if enc := strings.ToLower(c.InputEncoding); enc != "" && enc != "auto" && !detect.Known(enc) {
		issues = append(issues, errorf("input_encoding", "unknown encoding %q", c.InputEncoding))
	}
	if d := strings.ToLower(c.InputDelimiter); d != "" && d != "auto" && !singleChar(c.InputDelimiter) {
		issues = append(issues, errorf("input_delimiter", "must be auto or a single character, got %q", c.InputDelimiter))
	}
	return issues
}

// singleChar accepts one rune or the spelled-out tab forms.
func singleChar(s string) bool {
	switch strings.ToLower(s) {
	case `\t`, "tab":
		return true
	}
	return utf8.RuneCountInString(s) == 1
}
