// Package reconstruct serves reconstructed tables: it caches pipeline results
// per specification and refreshes them on a schedule.
package reconstruct

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"vis2table/internal/domain"
	"vis2table/internal/encoding"
	"vis2table/internal/engine"
	"vis2table/internal/pipeline"
)

// SpecLister lists the specifications of a dataset.
type SpecLister interface {
	List(ctx context.Context, dataset string) ([]domain.SpecRef, error)
}

// InlineRef names tables reconstructed from request bodies.
var InlineRef = domain.SpecRef{Dataset: "inline", Name: "inline", Filename: "inline.json"}

type cacheEntry struct {
	result    *pipeline.Result
	refreshed time.Time
}

// TableService runs reconstructions through one engine and pipeline.
type TableService struct {
	engine      domain.Engine
	pipe        *pipeline.Pipeline
	specs       SpecLister
	concurrency int
	logger      *slog.Logger

	mu     sync.RWMutex
	cache  map[string]cacheEntry
	flight singleflight.Group
}

// NewTableService creates a TableService. concurrency bounds refresh batches.
func NewTableService(eng domain.Engine, pipe *pipeline.Pipeline, specs SpecLister, concurrency int, logger *slog.Logger) *TableService {
	if logger == nil {
		logger = slog.Default()
	}
	return &TableService{
		engine:      eng,
		pipe:        pipe,
		specs:       specs,
		concurrency: concurrency,
		logger:      logger,
		cache:       make(map[string]cacheEntry),
	}
}

// Table returns the reconstructed table for ref, from cache unless fresh is
// set. Concurrent requests for one ref share a single run.
func (s *TableService) Table(ctx context.Context, ref domain.SpecRef, fresh bool) (*pipeline.Result, error) {
	if err := ref.Validate(); err != nil {
		return nil, err
	}
	key := ref.String()
	if !fresh {
		if res, ok := s.cached(key); ok {
			return res, nil
		}
	}

	// The shared run outlives any single caller; each caller stops waiting
	// when its own context ends.
	ch := s.flight.DoChan(key, func() (interface{}, error) {
		runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.runTimeout())
		defer cancel()
		res, err := s.pipe.RunRef(runCtx, s.engine, ref)
		if err != nil {
			return nil, err
		}
		s.store(key, res)
		return res, nil
	})
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("table %s: %w", ref, ctx.Err())
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		return r.Val.(*pipeline.Result), nil
	}
}

// loadGrace is the time a shared run gets for loading on top of the
// pipeline's ready timeout.
const loadGrace = 30 * time.Second

func (s *TableService) runTimeout() time.Duration {
	return s.pipe.Options().ReadyTimeout + loadGrace
}

// Mapping returns the encoding mapping of ref's specification. Unsupported
// marks yield a passthrough mapping rather than an error.
func (s *TableService) Mapping(ctx context.Context, ref domain.SpecRef) (*encoding.Result, error) {
	if err := ref.Validate(); err != nil {
		return nil, err
	}
	if res, ok := s.cached(ref.String()); ok && res.Encoding != nil {
		return res.Encoding, nil
	}
	view, err := s.engine.Load(ctx, ref)
	if err != nil {
		return nil, err
	}
	mapping, err := encoding.ExtractMapping(view.Spec())
	var unsupported *domain.UnsupportedMarkError
	if err != nil && !errors.As(err, &unsupported) {
		return nil, err
	}
	return mapping, nil
}

// List returns the specifications of dataset.
func (s *TableService) List(ctx context.Context, dataset string) ([]domain.SpecRef, error) {
	return s.specs.List(ctx, dataset)
}

// Reconstruct runs the pipeline over a specification and rows supplied by
// the caller. Results are not cached.
func (s *TableService) Reconstruct(ctx context.Context, spec *domain.ChartSpec, rows *domain.Frame) (*pipeline.Result, error) {
	if spec == nil {
		return nil, domain.ErrValidation("spec is required")
	}
	if rows.Len() == 0 {
		return nil, domain.ErrValidation("rows are required")
	}
	ref := InlineRef
	if spec.Name != "" {
		ref.Name = spec.Name
	}
	return s.pipe.Run(ctx, engine.NewStaticView(ref, spec, rows))
}

// Refresh re-runs every specification of datasets and replaces their cached
// results. Failed visualizations keep their previous entry.
func (s *TableService) Refresh(ctx context.Context, datasets []string) error {
	var refs []domain.SpecRef
	for _, ds := range datasets {
		listed, err := s.specs.List(ctx, ds)
		if err != nil {
			return fmt.Errorf("list %s: %w", ds, err)
		}
		refs = append(refs, listed...)
	}

	failed := 0
	for _, item := range s.pipe.RunBatch(ctx, s.engine, refs, s.concurrency) {
		if item.Err != nil {
			failed++
			continue
		}
		s.store(item.Ref.String(), item.Result)
	}
	s.logger.Info("tables refreshed", "datasets", datasets, "visualizations", len(refs), "failed", failed)
	return nil
}

// Invalidate drops the cached result for ref.
func (s *TableService) Invalidate(ref domain.SpecRef) {
	s.mu.Lock()
	delete(s.cache, ref.String())
	s.mu.Unlock()
}

// CachedAt reports when ref's cached result was produced.
func (s *TableService) CachedAt(ref domain.SpecRef) (time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.cache[ref.String()]
	return e.refreshed, ok
}

func (s *TableService) cached(key string) (*pipeline.Result, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.cache[key]
	return e.result, ok
}

func (s *TableService) store(key string, res *pipeline.Result) {
	s.mu.Lock()
	s.cache[key] = cacheEntry{result: res, refreshed: time.Now()}
	s.mu.Unlock()
}
