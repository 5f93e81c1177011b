package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	c := Default()
	assert.Equal(t, ColumnsAll, c.ColumnsMode)
	assert.False(t, c.SortEnabled)
	assert.False(t, c.SortCaseSensitive)
	assert.True(t, c.SortNumericAware)
	assert.True(t, c.DedupeEnabled)
	assert.Equal(t, KeepFirst, c.DedupeKeep)
	assert.Equal(t, LogicAnd, c.FilterLogic)
	assert.True(t, c.TrimWhitespace)
	assert.Equal(t, CaseNone, c.CaseTransform)
	assert.Equal(t, "", c.EmptyValue)
	assert.Equal(t, ",", c.OutputDelimiter)
	assert.Equal(t, "utf-8", c.OutputEncoding)
	assert.Equal(t, QuoteMinimal, c.OutputQuoting)
	assert.True(t, c.IncludeHeader)
	assert.Equal(t, LineAuto, c.LineEnding)
	assert.Empty(t, Validate(c))
}

func TestFinalColumns(t *testing.T) {
	discovered := []string{"id", "name", "email", "city"}

	tests := []struct {
		name string
		cfg  func(*ProcessingConfig)
		want []string
	}{
		{"all", func(*ProcessingConfig) {}, discovered},
		{"select keeps discovery order", func(c *ProcessingConfig) {
			c.ColumnsMode = ColumnsSelect
			c.SelectedColumns = []string{"city", "id", "ghost"}
		}, []string{"id", "city"}},
		{"exclude", func(c *ProcessingConfig) {
			c.ColumnsMode = ColumnsExclude
			c.SelectedColumns = []string{"email"}
		}, []string{"id", "name", "city"}},
		{"explicit order wins", func(c *ProcessingConfig) {
			c.ColumnsMode = ColumnsExclude
			c.SelectedColumns = []string{"email"}
			c.ColumnOrder = []string{"email", "id", "ghost"}
		}, []string{"email", "id", "ghost"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.cfg(&c)
			assert.Equal(t, tt.want, c.FinalColumns(discovered))
		})
	}
}

func TestOutputName(t *testing.T) {
	c := Default()
	c.ColumnMapping = map[string]string{"name": "full_name", "blank": ""}
	assert.Equal(t, "full_name", c.OutputName("name"))
	assert.Equal(t, "blank", c.OutputName("blank"))
	assert.Equal(t, "id", c.OutputName("id"))
	assert.Equal(t, []string{"id", "full_name"}, c.OutputNames([]string{"id", "name"}))
}

func TestDelimiterRunes(t *testing.T) {
	c := Default()
	assert.Equal(t, ',', c.OutputDelimiterRune())
	assert.Equal(t, rune(0), c.InputDelimiterRune())

	c.OutputDelimiter = `\t`
	c.InputDelimiter = ";"
	assert.Equal(t, '\t', c.OutputDelimiterRune())
	assert.Equal(t, ';', c.InputDelimiterRune())
}

func TestCloneIsDeep(t *testing.T) {
	c := Default()
	c.SelectedColumns = []string{"a"}
	c.ColumnMapping = map[string]string{"a": "b"}
	c.SortColumns = []SortKey{{Column: "a", Ascending: true}}
	c.Filters = []Filter{{Column: "a", Operator: OpEquals, Value: "1"}}

	cp := c.Clone()
	cp.SelectedColumns[0] = "z"
	cp.ColumnMapping["a"] = "z"
	cp.SortColumns[0].Column = "z"
	cp.Filters[0].Value = "z"

	assert.Equal(t, "a", c.SelectedColumns[0])
	assert.Equal(t, "b", c.ColumnMapping["a"])
	assert.Equal(t, "a", c.SortColumns[0].Column)
	assert.Equal(t, "1", c.Filters[0].Value)
}

func TestTupleJSON(t *testing.T) {
	c := Default()
	c.SortColumns = []SortKey{{Column: "id", Ascending: true}, {Column: "name", Ascending: false}}
	c.Filters = []Filter{{Column: "status", Operator: OpEquals, Value: "active"}}

	b, err := json.Marshal(c)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(b, &raw))
	assert.Equal(t, []any{[]any{"id", true}, []any{"name", false}}, raw["sort_columns"])
	assert.Equal(t, []any{[]any{"status", "equals", "active"}}, raw["filters"])
}

func TestFilterAndSortKeyDecodeForms(t *testing.T) {
	var f []Filter
	require.NoError(t, json.Unmarshal([]byte(`[
		["amount", "greater_than", 10],
		["note", "is_empty"],
		{"column": "name", "operator": "contains", "value": "an"}
	]`), &f))
	assert.Equal(t, []Filter{
		{Column: "amount", Operator: OpGreaterThan, Value: "10"},
		{Column: "note", Operator: OpIsEmpty},
		{Column: "name", Operator: OpContains, Value: "an"},
	}, f)

	var k []SortKey
	require.NoError(t, json.Unmarshal([]byte(`[["a", false], ["b"], {"column": "c"}]`), &k))
	assert.Equal(t, []SortKey{{"a", false}, {"b", true}, {"c", true}}, k)

	assert.Error(t, json.Unmarshal([]byte(`[[1, true]]`), &k))
	assert.Error(t, json.Unmarshal([]byte(`[["a", "up"]]`), &k))
	assert.Error(t, json.Unmarshal([]byte(`[["a"]]`), &f))
}

func TestFilterRegexpIsCaseInsensitive(t *testing.T) {
	re, err := Filter{Operator: OpRegex, Value: "^b.b$"}.Regexp()
	require.NoError(t, err)
	assert.True(t, re.MatchString("BOB"))

	_, err = Filter{Operator: OpRegex, Value: "("}.Regexp()
	assert.Error(t, err)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	c := Default()
	c.ColumnsMode = ColumnsSelect
	c.SelectedColumns = []string{"id", "name"}
	c.ColumnMapping = map[string]string{"name": "full_name"}
	c.SortEnabled = true
	c.SortColumns = []SortKey{{Column: "id", Ascending: false}}
	c.DedupeColumns = []string{"id"}
	c.DedupeKeep = KeepLast
	c.Filters = []Filter{{Column: "name", Operator: OpRegex, Value: "^a"}}
	c.FilterLogic = LogicOr
	c.CaseTransform = CaseTitle
	c.OutputQuoting = QuoteAll
	c.LineEnding = LineWindows

	for _, name := range []string{"cfg.json", "nested/cfg.yaml", "cfg.yml"} {
		t.Run(name, func(t *testing.T) {
			p := filepath.Join(t.TempDir(), name)
			require.NoError(t, Save(p, c))
			got, err := Load(p)
			require.NoError(t, err)
			assert.Equal(t, c.ColumnsMode, got.ColumnsMode)
			assert.Equal(t, c.SelectedColumns, got.SelectedColumns)
			assert.Equal(t, c.ColumnMapping, got.ColumnMapping)
			assert.Equal(t, c.SortColumns, got.SortColumns)
			assert.Equal(t, c.DedupeColumns, got.DedupeColumns)
			assert.Equal(t, c.DedupeKeep, got.DedupeKeep)
			assert.Equal(t, c.Filters, got.Filters)
			assert.Equal(t, c.FilterLogic, got.FilterLogic)
			assert.Equal(t, c.CaseTransform, got.CaseTransform)
			assert.Equal(t, c.OutputQuoting, got.OutputQuoting)
			assert.Equal(t, c.LineEnding, got.LineEnding)
			assert.True(t, got.SortEnabled)
		})
	}
}

func TestLoadMissingFieldsKeepDefaults(t *testing.T) {
	dir := t.TempDir()

	p := filepath.Join(dir, "partial.json")
	require.NoError(t, os.WriteFile(p, []byte(`{"sort_enabled": true, "sort_columns": [["id", true]]}`), 0o644))
	got, err := Load(p)
	require.NoError(t, err)
	want := Default()
	want.SortEnabled = true
	want.SortColumns = []SortKey{{Column: "id", Ascending: true}}
	assert.Equal(t, want, got)

	p = filepath.Join(dir, "partial.yaml")
	require.NoError(t, os.WriteFile(p, []byte("dedupe_keep: last\nfilters:\n  - [amount, less_than, 5]\n"), 0o644))
	got, err = Load(p)
	require.NoError(t, err)
	want = Default()
	want.DedupeKeep = KeepLast
	want.Filters = []Filter{{Column: "amount", Operator: OpLessThan, Value: "5"}}
	assert.Equal(t, want, got)

	p = filepath.Join(dir, "empty.json")
	require.NoError(t, os.WriteFile(p, nil, 0o644))
	got, err = Load(p)
	require.NoError(t, err)
	assert.Equal(t, Default(), got)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	p := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(p, []byte("{"), 0o644))
	_, err = Load(p)
	assert.Error(t, err)
}
