package specstore

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"vis2table/internal/domain"
)

// Manifest lists the visualizations of a batch run.
//
//	visualizations:
//	  - dataset: cars
//	    name: Horsepower by origin
//	    filename: hp.json
type Manifest struct {
	// Dataset is applied to entries that leave theirs empty.
	Dataset        string           `yaml:"dataset,omitempty"`
	Visualizations []domain.SpecRef `yaml:"visualizations"`
}

// LoadManifest reads and validates a manifest file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return ParseManifest(data)
}

// ParseManifest decodes and validates a manifest document.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, domain.ErrValidation("parse manifest: %v", err)
	}
	if len(m.Visualizations) == 0 {
		return nil, domain.ErrValidation("manifest lists no visualizations")
	}
	for i := range m.Visualizations {
		v := &m.Visualizations[i]
		if v.Dataset == "" {
			v.Dataset = m.Dataset
		}
		if err := v.Validate(); err != nil {
			return nil, domain.ErrValidation("visualization %d: %s", i+1, err.Error())
		}
	}
	return &m, nil
}

// Refs returns the manifest's visualizations.
func (m *Manifest) Refs() []domain.SpecRef {
	return append([]domain.SpecRef(nil), m.Visualizations...)
}
