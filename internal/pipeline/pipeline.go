// Package pipeline drives one reconstruction: it waits for the engine to
// materialize a chart's data and runs the normalize, fold and assemble stages.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"vis2table/internal/domain"
	"vis2table/internal/encoding"
	"vis2table/internal/fold"
	"vis2table/internal/normalize"
	"vis2table/internal/table"
)

// Defaults applied by New for zero Options fields.
const (
	DefaultPollInterval = 300 * time.Millisecond
	DefaultReadyTimeout = 30 * time.Second
)

// Options configures a Pipeline.
type Options struct {
	// PollInterval is how often a pending dataset is re-checked.
	PollInterval time.Duration
	// ReadyTimeout bounds the wait for a dataset.
	ReadyTimeout time.Duration
	// DatasetName is the engine dataset holding the chart's rows.
	DatasetName string
	// Location is used to read calendar components of temporal fields.
	Location *time.Location
	// Sinks receive every assembled table.
	Sinks []domain.TableSink
}

// Pipeline runs reconstructions. It holds no per-run state and is safe for
// concurrent use.
type Pipeline struct {
	opts   Options
	logger *slog.Logger
}

// New creates a Pipeline, filling unset options with defaults.
func New(opts Options, logger *slog.Logger) *Pipeline {
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.ReadyTimeout <= 0 {
		opts.ReadyTimeout = DefaultReadyTimeout
	}
	if opts.DatasetName == "" {
		opts.DatasetName = domain.DefaultDataset
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{opts: opts, logger: logger}
}

// Options returns the effective options.
func (p *Pipeline) Options() Options {
	return p.opts
}

// Result is the outcome of one reconstruction.
type Result struct {
	Ref      domain.SpecRef   `json:"ref"`
	Encoding *encoding.Result `json:"encoding"`
	Frame    *domain.Frame    `json:"-"`
	Table    *domain.Table    `json:"table"`
	// CSV is the table in the legacy quoted dialect.
	CSV string `json:"-"`
	// Warnings are conditions that degraded the result without failing it:
	// unsupported marks, missing axis mappings and ambiguous folds.
	Warnings []error       `json:"-"`
	Folded   bool          `json:"folded"`
	Duration time.Duration `json:"duration"`
}

// WarningMessages returns the warnings as strings.
func (r *Result) WarningMessages() []string {
	out := make([]string, 0, len(r.Warnings))
	for _, w := range r.Warnings {
		out = append(out, w.Error())
	}
	return out
}

// Run reconstructs the table behind view.
func (p *Pipeline) Run(ctx context.Context, view domain.View) (*Result, error) {
	start := time.Now()
	ref := view.Ref()
	res := &Result{Ref: ref}

	mapping, err := encoding.ExtractMapping(view.Spec())
	var unsupported *domain.UnsupportedMarkError
	switch {
	case errors.As(err, &unsupported):
		res.Warnings = append(res.Warnings, err)
	case err != nil:
		return nil, fmt.Errorf("extract mapping for %s: %w", ref, err)
	}
	res.Encoding = mapping

	src, err := view.Dataset(p.opts.DatasetName)
	if err != nil {
		return nil, fmt.Errorf("dataset %q of %s: %w", p.opts.DatasetName, ref, err)
	}
	live, err := p.WaitForData(ctx, src)
	if err != nil {
		return nil, err
	}

	frame, err := p.Transform(live, view.Spec(), mapping, res)
	if err != nil {
		return nil, fmt.Errorf("reconstruct %s: %w", ref, err)
	}
	res.Frame = frame
	res.Table = table.Assemble(frame)
	res.CSV = table.ToCSV(res.Table)

	for _, sink := range p.opts.Sinks {
		if err := sink.AppendTable(ctx, res.Table); err != nil {
			return nil, fmt.Errorf("append table for %s: %w", ref, err)
		}
	}

	res.Duration = time.Since(start)
	p.report(res)
	return res, nil
}

// Transform runs the row, temporal and fold stages on a private copy of live.
// Degradations are appended to res.Warnings.
func (p *Pipeline) Transform(live *domain.Frame, spec *domain.ChartSpec, mapping *encoding.Result, res *Result) (*domain.Frame, error) {
	// Rows works on a clone, so nothing below aliases the engine's buffers.
	frame, err := normalize.Rows(live, spec)
	if err != nil {
		return nil, err
	}
	normalize.Temporal(frame, mapping.Temporals, p.opts.Location)

	folded, axes, err := fold.FoldWithAxes(frame, mapping)
	var missing *domain.MissingAxisMappingError
	switch {
	case errors.As(err, &missing):
		res.Warnings = append(res.Warnings, err)
	case err != nil:
		return nil, err
	case axes == nil && len(frame.Columns) == 3 && !mapping.Passthrough:
		res.Warnings = append(res.Warnings, fmt.Errorf("fold skipped: no single minor axis among %v", frame.Columns))
	}
	res.Folded = axes != nil
	return folded, nil
}

// WaitForData returns the dataset's rows once the source reports them ready.
// It wakes on the source's ready signal and re-checks on every poll tick.
// A source still pending after ReadyTimeout yields *domain.DataNeverReadyError.
func (p *Pipeline) WaitForData(ctx context.Context, src domain.DataSource) (*domain.Frame, error) {
	ticker := time.NewTicker(p.opts.PollInterval)
	defer ticker.Stop()
	deadline := time.NewTimer(p.opts.ReadyTimeout)
	defer deadline.Stop()

	ready := src.Ready()
	for {
		if err := src.Err(); err != nil {
			return nil, err
		}
		if frame, ok := src.Values(); ok {
			return frame, nil
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("wait for dataset %q: %w", p.opts.DatasetName, ctx.Err())
		case <-deadline.C:
			return nil, &domain.DataNeverReadyError{Dataset: p.opts.DatasetName, Waited: p.opts.ReadyTimeout.String()}
		case <-ready:
			// closed channels stay readable; fall back to the ticker
			ready = nil
		case <-ticker.C:
		}
	}
}

// RunRef loads ref through engine and runs it.
func (p *Pipeline) RunRef(ctx context.Context, engine domain.Engine, ref domain.SpecRef) (*Result, error) {
	view, err := engine.Load(ctx, ref)
	if err != nil {
		var loadErr *domain.EngineLoadError
		if errors.As(err, &loadErr) {
			return nil, err
		}
		return nil, &domain.EngineLoadError{Ref: ref, Cause: err}
	}
	return p.Run(ctx, view)
}

func (p *Pipeline) report(res *Result) {
	rows, cols := 0, 0
	if res.Table != nil {
		rows, cols = len(res.Table.Rows), len(res.Table.Header)
	}
	p.logger.Info("table reconstructed",
		"dataset", res.Ref.Dataset,
		"name", res.Ref.DisplayName(),
		"rows", rows,
		"columns", cols,
		"folded", res.Folded,
		"duration", res.Duration,
	)
	for _, w := range res.Warnings {
		p.logger.Warn("reconstruction degraded", "dataset", res.Ref.Dataset, "name", res.Ref.DisplayName(), "warning", w.Error())
	}
}
