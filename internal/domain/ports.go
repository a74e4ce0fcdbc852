package domain

import (
	"context"
	"path"
	"strings"
)

// DefaultDataset is the name under which engines publish a spec's primary dataset.
const DefaultDataset = "source_0"

// SpecRef locates one visualization's specification.
type SpecRef struct {
	Dataset  string `json:"dataset" yaml:"dataset"`
	Name     string `json:"name" yaml:"name"`
	Filename string `json:"filename" yaml:"filename"`
}

// Path builds <root>/<dataset>/specs/<filename>.
func (r SpecRef) Path(root string) string {
	if root == "" {
		root = "./data"
	}
	return strings.TrimSuffix(root, "/") + "/" + path.Join(r.Dataset, "specs", r.Filename)
}

// DisplayName returns Name, falling back to the filename without extension.
func (r SpecRef) DisplayName() string {
	if r.Name != "" {
		return r.Name
	}
	return strings.TrimSuffix(r.Filename, path.Ext(r.Filename))
}

func (r SpecRef) String() string {
	return r.Dataset + "/" + r.Filename
}

// Validate checks that the reference cannot escape its dataset directory.
func (r SpecRef) Validate() error {
	if r.Dataset == "" || r.Filename == "" {
		return ErrValidation("dataset and filename are required")
	}
	for _, part := range []string{r.Dataset, r.Filename} {
		if strings.Contains(part, "..") || strings.ContainsAny(part, `/\`) {
			return ErrValidation("invalid path segment %q", part)
		}
	}
	return nil
}

// DataSource is an engine dataset whose value is populated eventually.
type DataSource interface {
	// Values returns a snapshot of the materialized rows and whether they are ready.
	Values() (*Frame, bool)
	// Ready is closed once Values reports ready or materialization failed.
	Ready() <-chan struct{}
	// Err reports a materialization failure, if any.
	Err() error
}

// View is a loaded chart: its specification plus its named internal datasets.
type View interface {
	Ref() SpecRef
	Spec() *ChartSpec
	Dataset(name string) (DataSource, error)
}

// Engine loads a specification and materializes its data.
type Engine interface {
	Load(ctx context.Context, ref SpecRef) (View, error)
}

// Table is a header plus rows of cells aligned to it.
type Table struct {
	Header []string `json:"header"`
	Rows   [][]any  `json:"rows"`
}

// TableSink accepts a finished table for display.
type TableSink interface {
	AppendTable(ctx context.Context, t *Table) error
}
