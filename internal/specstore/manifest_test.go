package specstore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vis2table/internal/domain"
)

func TestLoadManifest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "batch.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
dataset: cars
visualizations:
  - filename: hp.json
    name: Horsepower
  - dataset: stocks
    filename: prices.json
`), 0o644))

	m, err := LoadManifest(path)
	require.NoError(t, err)
	assert.Equal(t, []domain.SpecRef{
		{Dataset: "cars", Name: "Horsepower", Filename: "hp.json"},
		{Dataset: "stocks", Filename: "prices.json"},
	}, m.Refs())
}

func TestParseManifest_Invalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{name: "bad yaml", doc: "visualizations: [\n"},
		{name: "empty", doc: "visualizations: []\n"},
		{name: "missing dataset", doc: "visualizations:\n  - filename: hp.json\n"},
		{name: "path escape", doc: "visualizations:\n  - dataset: cars\n    filename: ../hp.json\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseManifest([]byte(tt.doc))
			var validation *domain.ValidationError
			require.ErrorAs(t, err, &validation)
		})
	}
}

func TestLoadManifest_Missing(t *testing.T) {
	_, err := LoadManifest(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
