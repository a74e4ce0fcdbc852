// Package testutil provides shared mock implementations of domain interfaces
// for use in tests across the codebase. This follows the Go convention of a
// shared test utility package (like net/http/httptest).
package testutil

import (
	"context"
	"sync"
	"sync/atomic"

	"vis2table/internal/domain"
)

// === Engine Mock ===

// MockEngine implements domain.Engine for testing.
type MockEngine struct {
	LoadFn func(ctx context.Context, ref domain.SpecRef) (domain.View, error)
	calls  atomic.Int64
}

// Load implements the interface method for testing.
func (m *MockEngine) Load(ctx context.Context, ref domain.SpecRef) (domain.View, error) {
	m.calls.Add(1)
	if m.LoadFn != nil {
		return m.LoadFn(ctx, ref)
	}
	panic("unexpected call to MockEngine.Load")
}

// Calls returns how many times Load was called.
func (m *MockEngine) Calls() int {
	return int(m.calls.Load())
}

// === Spec Lister Mock ===

// MockSpecLister lists specifications for testing.
type MockSpecLister struct {
	ListFn func(ctx context.Context, dataset string) ([]domain.SpecRef, error)
}

// List implements the interface method for testing.
func (m *MockSpecLister) List(ctx context.Context, dataset string) ([]domain.SpecRef, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx, dataset)
	}
	panic("unexpected call to MockSpecLister.List")
}

// === Data Source / View Mocks ===

// MockSource implements domain.DataSource. The zero value is pending until
// Publish is called.
type MockSource struct {
	mu    sync.Mutex
	frame *domain.Frame
	err   error
	ready chan struct{}
	once  sync.Once
}

func (m *MockSource) init() {
	m.mu.Lock()
	if m.ready == nil {
		m.ready = make(chan struct{})
	}
	m.mu.Unlock()
}

// Publish resolves the source with frame or err.
func (m *MockSource) Publish(frame *domain.Frame, err error) {
	m.init()
	m.once.Do(func() {
		m.mu.Lock()
		m.frame, m.err = frame, err
		m.mu.Unlock()
		close(m.ready)
	})
}

// Values implements the interface method for testing.
func (m *MockSource) Values() (*domain.Frame, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.frame, m.frame != nil
}

// Ready implements the interface method for testing.
func (m *MockSource) Ready() <-chan struct{} {
	m.init()
	return m.ready
}

// Err implements the interface method for testing.
func (m *MockSource) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}

// MockView implements domain.View over a single default dataset.
type MockView struct {
	RefValue  domain.SpecRef
	SpecValue *domain.ChartSpec
	Source    domain.DataSource
}

// Ref implements the interface method for testing.
func (m *MockView) Ref() domain.SpecRef { return m.RefValue }

// Spec implements the interface method for testing.
func (m *MockView) Spec() *domain.ChartSpec { return m.SpecValue }

// Dataset implements the interface method for testing.
func (m *MockView) Dataset(name string) (domain.DataSource, error) {
	if name != domain.DefaultDataset || m.Source == nil {
		return nil, domain.ErrNotFound("dataset %q not found", name)
	}
	return m.Source, nil
}

// ReadyView builds a MockView whose dataset is already published.
func ReadyView(ref domain.SpecRef, spec *domain.ChartSpec, frame *domain.Frame) *MockView {
	src := &MockSource{}
	src.Publish(frame, nil)
	return &MockView{RefValue: ref, SpecValue: spec, Source: src}
}
