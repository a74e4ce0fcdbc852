package engine

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	_ "github.com/duckdb/duckdb-go/v2" // registers the "duckdb" driver

	"vis2table/internal/domain"
)

// Engine kinds accepted by New.
const (
	KindDuckDB   = "duckdb"
	KindSnapshot = "snapshot"
)

// SpecFetcher reads specifications, their data files and recorded snapshots.
type SpecFetcher interface {
	Fetch(ctx context.Context, ref domain.SpecRef) ([]byte, error)
	FetchData(ctx context.Context, ref domain.SpecRef, location string) ([]byte, error)
	FetchSnapshot(ctx context.Context, ref domain.SpecRef) ([]byte, error)
}

// OpenDuckDB opens an in-memory DuckDB database.
func OpenDuckDB() (*sql.DB, error) {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	return db, nil
}

// New builds the engine named by kind. db is only used by the DuckDB engine.
func New(kind string, db *sql.DB, specs SpecFetcher, logger *slog.Logger) (domain.Engine, error) {
	switch strings.ToLower(kind) {
	case "", KindDuckDB:
		if db == nil {
			return nil, domain.ErrValidation("duckdb engine requires a database")
		}
		return NewDuckDBEngine(db, specs, logger), nil
	case KindSnapshot:
		return NewSnapshotEngine(specs), nil
	default:
		return nil, domain.ErrValidation("unknown engine %q (want %s or %s)", kind, KindDuckDB, KindSnapshot)
	}
}

// loadSpec fetches and parses ref's specification.
func loadSpec(ctx context.Context, specs SpecFetcher, ref domain.SpecRef) (*domain.ChartSpec, error) {
	data, err := specs.Fetch(ctx, ref)
	if err != nil {
		return nil, &domain.EngineLoadError{Ref: ref, Cause: err}
	}
	spec, err := domain.ParseChartSpec(data)
	if err != nil {
		return nil, &domain.EngineLoadError{Ref: ref, Cause: err}
	}
	if spec.Name == "" {
		spec.Name = ref.DisplayName()
	}
	return spec, nil
}
