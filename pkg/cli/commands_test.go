package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract_Formats(t *testing.T) {
	isolate(t)
	root := writeFixtures(t)
	base := []string{"--data-dir", root, "--engine", "snapshot", "extract", "sales", "bar.json"}

	tests := []struct {
		name  string
		flags []string
		check func(t *testing.T, stdout string)
	}{
		{
			name:  "csv",
			flags: []string{"-o", "csv"},
			check: func(t *testing.T, stdout string) {
				assert.Equal(t, "region,2020,2021\nEast,10,12\nWest,7,9\n", stdout)
			},
		},
		{
			name:  "legacy csv",
			flags: []string{"-o", "csv", "--csv-dialect", "legacy"},
			check: func(t *testing.T, stdout string) {
				assert.Equal(t, "\"region\",\"2020\",\"2021\"\n\"East\",\"10\",\"12\"\n\"West\",\"7\",\"9\"\n", stdout)
			},
		},
		{
			name:  "json",
			flags: []string{"-o", "json"},
			check: func(t *testing.T, stdout string) {
				var out struct {
					Ref struct {
						Dataset string `json:"dataset"`
					} `json:"ref"`
					Table struct {
						Header []string `json:"header"`
					} `json:"table"`
					Folded   bool     `json:"folded"`
					Warnings []string `json:"warnings"`
				}
				require.NoError(t, json.Unmarshal([]byte(stdout), &out))
				assert.Equal(t, "sales", out.Ref.Dataset)
				assert.Equal(t, []string{"region", "2020", "2021"}, out.Table.Header)
				assert.True(t, out.Folded)
				assert.Empty(t, out.Warnings)
			},
		},
		{
			name:  "html page",
			flags: []string{"-o", "html", "--name", "Sales by region"},
			check: func(t *testing.T, stdout string) {
				assert.True(t, strings.HasPrefix(stdout, "<!doctype html>"))
				assert.Contains(t, stdout, "<title>Sales by region</title>")
			},
		},
		{
			name:  "html fragment",
			flags: []string{"-o", "html", "--fragment"},
			check: func(t *testing.T, stdout string) {
				assert.True(t, strings.HasPrefix(stdout, "<table"))
				assert.NotContains(t, stdout, "<html")
			},
		},
		{
			name:  "terminal table",
			flags: nil,
			check: func(t *testing.T, stdout string) {
				assert.Contains(t, stdout, "region")
				assert.Contains(t, stdout, "West")
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdout, _, err := runCLI(t, append(base, tt.flags...)...)
			require.NoError(t, err)
			tt.check(t, stdout)
		})
	}
}

func TestExtract_Errors(t *testing.T) {
	isolate(t)
	root := writeFixtures(t)

	tests := []struct {
		name string
		args []string
		msg  string
	}{
		{"missing snapshot", []string{"extract", "sales", "orphan.json"}, "not found"},
		{"escaping ref", []string{"extract", "..", "bar.json"}, "invalid path segment"},
		{"bad output", []string{"-o", "yaml", "extract", "sales", "bar.json"}, "unsupported output format"},
		{"fragment needs html", []string{"-o", "csv", "extract", "sales", "bar.json", "--fragment"}, "--fragment requires -o html"},
		{"unknown profile", []string{"-p", "nope", "extract", "sales", "bar.json"}, `profile "nope" not found`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"--data-dir", root, "--engine", "snapshot"}, tt.args...)
			_, _, err := runCLI(t, args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestPrecedence_EnvAndProfile(t *testing.T) {
	isolate(t)
	root := writeFixtures(t)

	require.NoError(t, SaveUserConfig(&UserConfig{
		CurrentProfile: "default",
		Profiles: map[string]Profile{
			"default": {DataDir: root, Engine: "snapshot", Output: "csv", CSVDialect: "legacy"},
		},
	}))

	stdout, _, err := runCLI(t, "extract", "sales", "bar.json")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stdout, `"region"`), "profile dialect applies")

	t.Setenv("VIS2TABLE_CSV_DIALECT", "rfc4180")
	stdout, _, err = runCLI(t, "extract", "sales", "bar.json")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stdout, "region,"), "env beats profile")

	stdout, _, err = runCLI(t, "--csv-dialect", "legacy", "extract", "sales", "bar.json")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stdout, `"region"`), "flag beats env")
}

func TestMapping(t *testing.T) {
	isolate(t)
	root := writeFixtures(t)

	stdout, _, err := runCLI(t, "--data-dir", root, "--engine", "snapshot", "-o", "csv", "mapping", "sales", "bar.json")
	require.NoError(t, err)
	assert.Contains(t, stdout, "channel,field\n")
	assert.Contains(t, stdout, "columnX,region\n")
	assert.Contains(t, stdout, "positionX,year\n")
}

func TestList(t *testing.T) {
	isolate(t)
	root := writeFixtures(t)

	stdout, _, err := runCLI(t, "--data-dir", root, "-o", "json", "list", "sales")
	require.NoError(t, err)
	var refs []map[string]string
	require.NoError(t, json.Unmarshal([]byte(stdout), &refs))
	require.Len(t, refs, 2)
	assert.Equal(t, "bar.json", refs[0]["filename"])
	assert.Equal(t, "orphan.json", refs[1]["filename"])

	_, _, err = runCLI(t, "--data-dir", root, "list", "missing")
	require.Error(t, err)
}

func TestBatch_OutDir(t *testing.T) {
	isolate(t)
	root := writeFixtures(t)
	out := t.TempDir()
	manifest := filepath.Join(t.TempDir(), "charts.yaml")
	require.NoError(t, os.WriteFile(manifest, []byte("dataset: sales\nvisualizations:\n  - filename: bar.json\n    name: Sales\n"), 0o644))

	stdout, _, err := runCLI(t, "--data-dir", root, "--engine", "snapshot", "batch", "--manifest", manifest, "--out-dir", out)
	require.NoError(t, err)
	assert.Contains(t, stdout, "sales/bar.json ->")

	data, err := os.ReadFile(filepath.Join(out, "sales", "bar.csv"))
	require.NoError(t, err)
	assert.Equal(t, "region,2020,2021\nEast,10,12\nWest,7,9\n", string(data))
}

func TestBatch_DatasetReportsFailures(t *testing.T) {
	isolate(t)
	root := writeFixtures(t)

	stdout, _, err := runCLI(t, "--data-dir", root, "--engine", "snapshot", "-o", "json", "batch", "sales", "--concurrency", "2")
	require.EqualError(t, err, "1 of 2 visualizations failed")

	var summary struct {
		Results []struct {
			Ref struct {
				Filename string `json:"filename"`
			} `json:"ref"`
			Error string `json:"error"`
		} `json:"results"`
		Failed int `json:"failed"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &summary))
	assert.Equal(t, 1, summary.Failed)
	require.Len(t, summary.Results, 2)
	assert.Equal(t, "bar.json", summary.Results[0].Ref.Filename)
	assert.Empty(t, summary.Results[0].Error)
	assert.Equal(t, "orphan.json", summary.Results[1].Ref.Filename)
	assert.NotEmpty(t, summary.Results[1].Error)
}

func TestBatch_Args(t *testing.T) {
	isolate(t)

	_, _, err := runCLI(t, "--engine", "snapshot", "batch")
	require.EqualError(t, err, "pass either a dataset or --manifest")
	_, _, err = runCLI(t, "--engine", "snapshot", "batch", "sales", "--manifest", "x.yaml")
	require.EqualError(t, err, "pass either a dataset or --manifest")
}

func TestVersion(t *testing.T) {
	isolate(t)

	stdout, _, err := runCLI(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "vis2table version dev (commit: none)\n", stdout)
}

func TestCompletion(t *testing.T) {
	isolate(t)

	stdout, _, err := runCLI(t, "completion", "bash")
	require.NoError(t, err)
	assert.Contains(t, stdout, "vis2table")
}
