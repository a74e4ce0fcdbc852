package engine

import (
	"context"
	"encoding/json"

	"vis2table/internal/domain"
)

var _ domain.Engine = (*SnapshotEngine)(nil)

// SnapshotEngine replays datasets recorded from a chart renderer. A snapshot
// lives at <root>/<dataset>/snapshots/<name>.json and has the shape
// {"spec": {...}, "data": {"source_0": [{...}, ...]}}. When "spec" is absent
// the specification file is read instead.
type SnapshotEngine struct {
	specs SpecFetcher
}

// NewSnapshotEngine creates a SnapshotEngine.
func NewSnapshotEngine(specs SpecFetcher) *SnapshotEngine {
	return &SnapshotEngine{specs: specs}
}

// Load implements domain.Engine. Datasets are ready immediately.
func (e *SnapshotEngine) Load(ctx context.Context, ref domain.SpecRef) (domain.View, error) {
	data, err := e.specs.FetchSnapshot(ctx, ref)
	if err != nil {
		return nil, &domain.EngineLoadError{Ref: ref, Cause: err}
	}

	var raw struct {
		Spec json.RawMessage            `json:"spec"`
		Data map[string]json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &domain.EngineLoadError{Ref: ref, Cause: domain.ErrValidation("decode snapshot: %v", err)}
	}

	var spec *domain.ChartSpec
	if len(raw.Spec) > 0 && string(raw.Spec) != "null" {
		spec, err = domain.ParseChartSpec(raw.Spec)
		if err != nil {
			return nil, &domain.EngineLoadError{Ref: ref, Cause: err}
		}
		if spec.Name == "" {
			spec.Name = ref.DisplayName()
		}
	} else if spec, err = loadSpec(ctx, e.specs, ref); err != nil {
		return nil, err
	}

	datasets := make(map[string]domain.DataSource, len(raw.Data))
	for name, rows := range raw.Data {
		frame, err := domain.DecodeFrame(rows)
		if err != nil {
			return nil, &domain.EngineLoadError{Ref: ref, Cause: err}
		}
		datasets[name] = NewReadySource(frame)
	}
	return newView(ref, spec, datasets), nil
}
