package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"csvmerge/internal/config"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	root := newRootCmd()
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return buf.String(), err
}

func writeInputs(t *testing.T) (string, string, string) {
	t.Helper()
	dir := t.TempDir()
	a := filepath.Join(dir, "a.csv")
	b := filepath.Join(dir, "b.csv")
	require.NoError(t, os.WriteFile(a, []byte("id,name\n1,Bob\n2,alice\n"), 0o644))
	require.NoError(t, os.WriteFile(b, []byte("id,name\n2,Alice\n3,Carol\n"), 0o644))
	return dir, a, b
}

func TestParseSortKey(t *testing.T) {
	tests := []struct {
		in      string
		want    config.SortKey
		wantErr bool
	}{
		{in: "id", want: config.SortKey{Column: "id", Ascending: true}},
		{in: "id:asc", want: config.SortKey{Column: "id", Ascending: true}},
		{in: "name:DESC", want: config.SortKey{Column: "name", Ascending: false}},
		{in: ":desc", wantErr: true},
		{in: "id:up", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseSortKey(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseFilter(t *testing.T) {
	got, err := parseFilter("url:starts_with:https://x")
	require.NoError(t, err)
	assert.Equal(t, config.Filter{Column: "url", Operator: config.OpStartsWith, Value: "https://x"}, got)

	got, err = parseFilter("name:IS_EMPTY")
	require.NoError(t, err)
	assert.Equal(t, config.Filter{Column: "name", Operator: config.OpIsEmpty}, got)

	_, err = parseFilter("name")
	assert.Error(t, err)
}

func TestApplyConfigFlagsOnlyChanged(t *testing.T) {
	cmd := newProcessCmd()
	require.NoError(t, cmd.ParseFlags([]string{
		"--keep", "last",
		"--sort", "id", "--sort", "name:desc",
		"--filter", "name:contains:a",
		"--rename", "name=full_name",
		"--dedupe=false",
		"--delimiter", ";",
	}))

	cfg := config.Default()
	cfg.CaseTransform = config.CaseUpper // set by a config file, no flag given
	require.NoError(t, applyConfigFlags(cmd.Flags(), &cfg))

	assert.Equal(t, config.KeepLast, cfg.DedupeKeep)
	assert.True(t, cfg.SortEnabled)
	assert.Equal(t, []config.SortKey{{Column: "id", Ascending: true}, {Column: "name", Ascending: false}}, cfg.SortColumns)
	assert.Equal(t, []config.Filter{{Column: "name", Operator: config.OpContains, Value: "a"}}, cfg.Filters)
	assert.Equal(t, map[string]string{"name": "full_name"}, cfg.ColumnMapping)
	assert.False(t, cfg.DedupeEnabled)
	assert.Equal(t, ";", cfg.OutputDelimiter)
	assert.Equal(t, config.CaseUpper, cfg.CaseTransform)
	assert.True(t, cfg.TrimWhitespace)
}

func TestProcessCommand(t *testing.T) {
	dir, a, b := writeInputs(t)
	out := filepath.Join(dir, "merged.csv")

	stdout, err := runCLI(t, "process", "-o", out,
		"--dedupe-columns", "id", "--keep", "last",
		"--sort", "id", "--line-ending", "unix",
		a, b)
	require.NoError(t, err, stdout)

	got, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "id,name\n1,Bob\n2,Alice\n3,Carol\n", string(got))
	assert.Contains(t, stdout, "final rows          3")
	assert.Contains(t, stdout, "Saved: merged.csv (3 rows)")
}

func TestProcessCommandWithConfigFile(t *testing.T) {
	dir, a, b := writeInputs(t)
	cfgPath := filepath.Join(dir, "cfg.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
dedupe_enabled: false
case_transform: upper
line_ending: unix
`), 0o644))
	out := filepath.Join(dir, "merged.csv")

	stdout, err := runCLI(t, "process", "--config", cfgPath, "-o", out, "--stats-json", a, b)
	require.NoError(t, err, stdout)
	assert.Contains(t, stdout, `"final_row_count": 4`)

	got, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "id,name\n1,BOB\n2,ALICE\n2,ALICE\n3,CAROL\n", string(got))
}

func TestProcessCommandFilesFrom(t *testing.T) {
	dir, _, _ := writeInputs(t)
	list := filepath.Join(dir, "inputs.txt")
	require.NoError(t, os.WriteFile(list, []byte("# inputs\nb.csv\n\na.csv\n"), 0o644))
	out := filepath.Join(dir, "merged.csv")

	_, err := runCLI(t, "process", "-o", out, "--files-from", list, "--dedupe=false", "--line-ending", "unix")
	require.NoError(t, err)
	got, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "id,name\n2,Alice\n3,Carol\n1,Bob\n2,alice\n", string(got))

	_, err = runCLI(t, "process", "-o", out)
	assert.ErrorContains(t, err, "no input files given")
}

func TestProcessCommandReportsErrors(t *testing.T) {
	dir, a, _ := writeInputs(t)
	stdout, err := runCLI(t, "process", "-o", filepath.Join(dir, "o.csv"), a, filepath.Join(dir, "nope.csv"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 error(s)")
	assert.Contains(t, stdout, "Not found: nope.csv")
}

func TestProcessCommandRejectsInvalidConfig(t *testing.T) {
	dir, a, _ := writeInputs(t)
	out := filepath.Join(dir, "o.csv")
	stdout, err := runCLI(t, "process", "-o", out, "--filter", "name:resembles:x", a)
	require.ErrorIs(t, err, errInvalidConfig)
	assert.Contains(t, stdout, "filters[0].operator")
	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr))
}

func TestInitConfigAndValidate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "csvmerge.json")

	stdout, err := runCLI(t, "init-config", path)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Wrote ")

	_, err = runCLI(t, "init-config", path)
	assert.ErrorContains(t, err, "already exists")

	stdout, err = runCLI(t, "validate", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Configuration is valid")

	loaded, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, config.Default(), loaded)
}

func TestValidateReportsIssues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"dedupe_keep":"middle"}`), 0o644))

	stdout, err := runCLI(t, "validate", "--config", path)
	require.ErrorIs(t, err, errInvalidConfig)
	assert.Contains(t, stdout, "error: dedupe_keep:")
}

func TestDiscoverCommand(t *testing.T) {
	dir, a, _ := writeInputs(t)
	c := filepath.Join(dir, "c.csv")
	require.NoError(t, os.WriteFile(c, []byte("name;email\nx;y\n"), 0o644))

	stdout, err := runCLI(t, "discover", a, c)
	require.NoError(t, err)
	assert.Equal(t, "id\nname\nemail\n", stdout)
}

func TestProbeCommand(t *testing.T) {
	_, a, _ := writeInputs(t)
	stdout, err := runCLI(t, "probe", "--json", a)
	require.NoError(t, err)
	assert.Contains(t, stdout, `"encoding": "utf-8"`)
	assert.Contains(t, stdout, `"rows": 2`)
}

func TestSetupMetrics(t *testing.T) {
	flush, err := setupMetrics(metricsOptions{backend: "none"})
	require.NoError(t, err)
	flush()

	_, err = setupMetrics(metricsOptions{backend: "graphite"})
	assert.ErrorContains(t, err, "unknown metrics backend")

	_, err = setupMetrics(metricsOptions{backend: "pushgateway"})
	assert.ErrorContains(t, err, "gateway URL is required")
}
