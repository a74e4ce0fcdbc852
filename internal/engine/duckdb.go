package engine

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/big"
	"os"
	"sync"
	"time"

	"vis2table/internal/ddl"
	"vis2table/internal/domain"
)

var _ domain.Engine = (*DuckDBEngine)(nil)

// rowOrderColumn numbers source rows so grouped output keeps first-seen order.
const rowOrderColumn = "__vis2table_row"

// DuckDBEngine materializes a specification's dataset with DuckDB: encoded
// fields are grouped, aggregates are named <op>_<field> and month buckets
// month_<field>, mirroring how chart renderers name derived columns.
type DuckDBEngine struct {
	db     *sql.DB
	specs  SpecFetcher
	logger *slog.Logger
	wg     sync.WaitGroup
}

// NewDuckDBEngine creates a DuckDBEngine on db.
func NewDuckDBEngine(db *sql.DB, specs SpecFetcher, logger *slog.Logger) *DuckDBEngine {
	if logger == nil {
		logger = slog.Default()
	}
	return &DuckDBEngine{db: db, specs: specs, logger: logger}
}

// Load implements domain.Engine. The returned view's dataset is computed in
// the background and becomes ready once the query finishes.
func (e *DuckDBEngine) Load(ctx context.Context, ref domain.SpecRef) (domain.View, error) {
	spec, err := loadSpec(ctx, e.specs, ref)
	if err != nil {
		return nil, err
	}

	src := NewSource()
	mctx := context.WithoutCancel(ctx)
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		start := time.Now()
		frame, err := e.Materialize(mctx, ref, spec)
		if err != nil {
			e.logger.Warn("materialize failed", "ref", ref.String(), "error", err)
			src.Resolve(nil, &domain.EngineLoadError{Ref: ref, Cause: err})
			return
		}
		e.logger.Debug("dataset materialized", "ref", ref.String(), "rows", frame.Len(), "duration", time.Since(start))
		src.Resolve(frame, nil)
	}()

	return newView(ref, spec, map[string]domain.DataSource{domain.DefaultDataset: src}), nil
}

// Wait blocks until every background materialization has finished.
func (e *DuckDBEngine) Wait() {
	e.wg.Wait()
}

// Materialize runs the specification's aggregation query synchronously.
func (e *DuckDBEngine) Materialize(ctx context.Context, ref domain.SpecRef, spec *domain.ChartSpec) (*domain.Frame, error) {
	file, cleanup, err := e.stage(ctx, ref, spec.Data)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	query, err := BuildQuery(spec, file.relation())
	if err != nil {
		return nil, err
	}
	rows, err := e.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query dataset: %w", err)
	}
	defer rows.Close() //nolint:errcheck
	return scanFrame(rows)
}

// stagedFile is a local copy of a dataset that DuckDB can read.
type stagedFile struct {
	path   string
	format string
}

// stage writes the specification's data to a temporary file.
func (e *DuckDBEngine) stage(ctx context.Context, ref domain.SpecRef, data *domain.DataDef) (stagedFile, func(), error) {
	noop := func() {}
	if data == nil {
		return stagedFile{}, noop, domain.ErrValidation("specification has no data")
	}

	var payload []byte
	var format string
	switch {
	case len(data.Values) > 0:
		b, err := json.Marshal(data.Values)
		if err != nil {
			return stagedFile{}, noop, fmt.Errorf("encode inline values: %w", err)
		}
		payload, format = b, ddl.FormatJSON
	case data.URL != "":
		b, err := e.specs.FetchData(ctx, ref, data.URL)
		if err != nil {
			return stagedFile{}, noop, err
		}
		payload, format = b, ddl.NormalizeFormat(data.Format.Type, data.URL)
	default:
		return stagedFile{}, noop, domain.ErrValidation("specification data has neither values nor url")
	}

	f, err := os.CreateTemp("", "vis2table-*."+format)
	if err != nil {
		return stagedFile{}, noop, fmt.Errorf("stage dataset: %w", err)
	}
	cleanup := func() { _ = os.Remove(f.Name()) }
	if _, err := f.Write(payload); err != nil {
		_ = f.Close()
		cleanup()
		return stagedFile{}, noop, fmt.Errorf("stage dataset: %w", err)
	}
	if err := f.Close(); err != nil {
		cleanup()
		return stagedFile{}, noop, fmt.Errorf("stage dataset: %w", err)
	}
	return stagedFile{path: f.Name(), format: format}, cleanup, nil
}

func (s stagedFile) relation() string {
	return ddl.ReadRelation(s.format, s.path)
}

func scanFrame(rows *sql.Rows) (*domain.Frame, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	frame := &domain.Frame{Columns: cols, Rows: []domain.Row{}}
	for rows.Next() {
		vals := make([]interface{}, len(cols))
		ptrs := make([]interface{}, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(domain.Row, len(cols))
		for i, v := range vals {
			row[cols[i]] = cellValue(v)
		}
		frame.Rows = append(frame.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return frame, nil
}

// cellValue narrows driver values to the cell types rows carry: numbers
// become float64 the way decoded JSON numbers are.
func cellValue(v interface{}) interface{} {
	switch t := v.(type) {
	case nil, string, float64, bool, time.Time:
		return t
	case []byte:
		return string(t)
	case float32:
		return float64(t)
	case int:
		return float64(t)
	case int8:
		return float64(t)
	case int16:
		return float64(t)
	case int32:
		return float64(t)
	case int64:
		return float64(t)
	case uint8:
		return float64(t)
	case uint16:
		return float64(t)
	case uint32:
		return float64(t)
	case uint64:
		return float64(t)
	case *big.Int:
		f, _ := new(big.Float).SetInt(t).Float64()
		return f
	case interface{ Float64() float64 }:
		return t.Float64()
	default:
		return fmt.Sprint(t)
	}
}
