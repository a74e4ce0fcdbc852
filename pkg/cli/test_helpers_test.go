package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// isolate points HOME at a temp dir and clears VIS2TABLE_* variables so
// neither a real profile nor the caller's environment leaks into a test.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	for _, k := range []string{
		"VIS2TABLE_DATA_DIR", "VIS2TABLE_ENGINE", "VIS2TABLE_OUTPUT",
		"VIS2TABLE_CSV_DIALECT", "VIS2TABLE_TIMEZONE", "VIS2TABLE_LOG_LEVEL",
		"VIS2TABLE_TIMEOUT",
	} {
		t.Setenv(k, "")
	}
	return home
}

// runCLI executes the root command with args and returns stdout and stderr.
func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

const salesSpec = `{
	"mark": "bar",
	"encoding": {
		"column": {"field": "region", "type": "nominal"},
		"x": {"field": "year", "type": "ordinal"},
		"y": {"aggregate": "sum", "field": "sales", "type": "quantitative"}
	}
}`

const salesSnapshot = `{"data": {"source_0": [
	{"region": "East", "year": 2020, "sum_sales": 10},
	{"region": "East", "year": 2021, "sum_sales": 12},
	{"region": "West", "year": 2020, "sum_sales": 7},
	{"region": "West", "year": 2021, "sum_sales": 9}
]}}`

// writeFixtures lays out a data directory with one recorded bar chart and
// one specification without a snapshot.
func writeFixtures(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		"sales/specs/bar.json":     salesSpec,
		"sales/snapshots/bar.json": salesSnapshot,
		"sales/specs/orphan.json":  salesSpec,
	}
	for name, body := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	}
	return root
}
