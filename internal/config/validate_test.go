package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func paths(issues []Issue) map[string]IssueSeverity {
	out := make(map[string]IssueSeverity, len(issues))
	for _, iss := range issues {
		out[iss.Path] = iss.Severity
	}
	return out
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		mut  func(*ProcessingConfig)
		want map[string]IssueSeverity
	}{
		{"bad enums", func(c *ProcessingConfig) {
			c.ColumnsMode = "some"
			c.DedupeKeep = "middle"
			c.FilterLogic = "xor"
			c.CaseTransform = "snake"
			c.OutputQuoting = "always"
			c.LineEnding = "mac"
		}, map[string]IssueSeverity{
			"columns_mode":   SeverityError,
			"dedupe_keep":    SeverityError,
			"filter_logic":   SeverityError,
			"case_transform": SeverityError,
			"output_quoting": SeverityError,
			"line_ending":    SeverityError,
		}},
		{"filters", func(c *ProcessingConfig) {
			c.Filters = []Filter{
				{Column: "a", Operator: "between", Value: "1"},
				{Column: "b", Operator: OpRegex, Value: "(unclosed"},
				{Column: "", Operator: OpIsEmpty},
			}
		}, map[string]IssueSeverity{
			"filters[0].operator": SeverityError,
			"filters[1].value":    SeverityError,
			"filters[2].column":   SeverityWarning,
		}},
		{"sort without rules", func(c *ProcessingConfig) {
			c.SortEnabled = true
		}, map[string]IssueSeverity{"sort_columns": SeverityWarning}},
		{"output and input", func(c *ProcessingConfig) {
			c.OutputDelimiter = ";;"
			c.OutputEncoding = "ebcdic"
			c.InputEncoding = "koi8"
			c.InputDelimiter = "ab"
		}, map[string]IssueSeverity{
			"output_delimiter": SeverityError,
			"output_encoding":  SeverityError,
			"input_encoding":   SeverityError,
			"input_delimiter":  SeverityError,
		}},
		{"accepted spellings", func(c *ProcessingConfig) {
			c.OutputDelimiter = "tab"
			c.OutputEncoding = "Windows-1252"
			c.InputEncoding = "latin1"
			c.InputDelimiter = "|"
		}, map[string]IssueSeverity{}},
		{"quote delimiter", func(c *ProcessingConfig) {
			c.OutputDelimiter = `"`
		}, map[string]IssueSeverity{"output_delimiter": SeverityError}},
		{"colliding rename", func(c *ProcessingConfig) {
			c.ColumnMapping = map[string]string{"a": "x", "b": "x"}
		}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mut(&c)
			issues := Validate(c)
			if tt.want == nil {
				assert.Len(t, issues, 1)
				assert.Equal(t, SeverityWarning, issues[0].Severity)
				assert.False(t, HasErrors(issues))
				return
			}
			assert.Equal(t, tt.want, paths(issues))
		})
	}
}

func TestIssueError(t *testing.T) {
	iss := Issue{Severity: SeverityError, Path: "dedupe_keep", Message: "bad"}
	assert.Equal(t, "error at dedupe_keep: bad", iss.Error())
	assert.True(t, HasErrors([]Issue{iss}))
	assert.False(t, HasErrors(nil))
}
