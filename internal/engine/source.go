// Package engine materializes the datasets behind chart specifications.
package engine

import (
	"sync"

	"vis2table/internal/domain"
)

// Compile-time checks.
var (
	_ domain.DataSource = (*Source)(nil)
	_ domain.View       = (*StaticView)(nil)
)

// Source is a dataset that is resolved exactly once, either with rows or
// with an error. Values hands out the stored frame itself; readers clone it.
type Source struct {
	mu    sync.RWMutex
	frame *domain.Frame
	err   error
	ready chan struct{}
	once  sync.Once
}

// NewSource creates a pending source.
func NewSource() *Source {
	return &Source{ready: make(chan struct{})}
}

// NewReadySource creates a source already holding frame.
func NewReadySource(frame *domain.Frame) *Source {
	s := NewSource()
	s.Resolve(frame, nil)
	return s
}

// Resolve publishes the outcome. Only the first call has an effect.
func (s *Source) Resolve(frame *domain.Frame, err error) {
	s.once.Do(func() {
		s.mu.Lock()
		s.frame, s.err = frame, err
		s.mu.Unlock()
		close(s.ready)
	})
}

// Values implements domain.DataSource.
func (s *Source) Values() (*domain.Frame, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.frame, s.frame != nil && s.err == nil
}

// Ready implements domain.DataSource.
func (s *Source) Ready() <-chan struct{} {
	return s.ready
}

// Err implements domain.DataSource.
func (s *Source) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

// StaticView is a view over an already parsed specification and fixed
// datasets, used for inline reconstruction requests.
type StaticView struct {
	ref      domain.SpecRef
	spec     *domain.ChartSpec
	datasets map[string]domain.DataSource
}

// NewStaticView creates a view publishing frame as the default dataset.
func NewStaticView(ref domain.SpecRef, spec *domain.ChartSpec, frame *domain.Frame) *StaticView {
	return &StaticView{
		ref:      ref,
		spec:     spec,
		datasets: map[string]domain.DataSource{domain.DefaultDataset: NewReadySource(frame)},
	}
}

func newView(ref domain.SpecRef, spec *domain.ChartSpec, datasets map[string]domain.DataSource) *StaticView {
	return &StaticView{ref: ref, spec: spec, datasets: datasets}
}

// Ref implements domain.View.
func (v *StaticView) Ref() domain.SpecRef { return v.ref }

// Spec implements domain.View.
func (v *StaticView) Spec() *domain.ChartSpec { return v.spec }

// Dataset implements domain.View.
func (v *StaticView) Dataset(name string) (domain.DataSource, error) {
	ds, ok := v.datasets[name]
	if !ok {
		return nil, domain.ErrNotFound("dataset %q not found in %s", name, v.ref)
	}
	return ds, nil
}
