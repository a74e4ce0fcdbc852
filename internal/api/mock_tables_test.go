package api

import (
	"context"

	"vis2table/internal/domain"
	"vis2table/internal/encoding"
	"vis2table/internal/pipeline"
)

// mockTables implements TableService for handler tests.
type mockTables struct {
	TableFn       func(ctx context.Context, ref domain.SpecRef, fresh bool) (*pipeline.Result, error)
	MappingFn     func(ctx context.Context, ref domain.SpecRef) (*encoding.Result, error)
	ListFn        func(ctx context.Context, dataset string) ([]domain.SpecRef, error)
	ReconstructFn func(ctx context.Context, spec *domain.ChartSpec, rows *domain.Frame) (*pipeline.Result, error)
	invalidated   []domain.SpecRef
}

func (m *mockTables) Table(ctx context.Context, ref domain.SpecRef, fresh bool) (*pipeline.Result, error) {
	if m.TableFn != nil {
		return m.TableFn(ctx, ref, fresh)
	}
	panic("unexpected call to mockTables.Table")
}

func (m *mockTables) Mapping(ctx context.Context, ref domain.SpecRef) (*encoding.Result, error) {
	if m.MappingFn != nil {
		return m.MappingFn(ctx, ref)
	}
	panic("unexpected call to mockTables.Mapping")
}

func (m *mockTables) List(ctx context.Context, dataset string) ([]domain.SpecRef, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx, dataset)
	}
	panic("unexpected call to mockTables.List")
}

func (m *mockTables) Reconstruct(ctx context.Context, spec *domain.ChartSpec, rows *domain.Frame) (*pipeline.Result, error) {
	if m.ReconstructFn != nil {
		return m.ReconstructFn(ctx, spec, rows)
	}
	panic("unexpected call to mockTables.Reconstruct")
}

func (m *mockTables) Invalidate(ref domain.SpecRef) {
	m.invalidated = append(m.invalidated, ref)
}
