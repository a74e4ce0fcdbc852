package cli

import (
	"database/sql"
	"log/slog"

	"github.com/spf13/cobra"

	"vis2table/internal/config"
	"vis2table/internal/domain"
	"vis2table/internal/engine"
	"vis2table/internal/pipeline"
	"vis2table/internal/specstore"
)

// runtime is the engine stack behind one command invocation.
type runtime struct {
	logger *slog.Logger
	store  *specstore.Store
	engine domain.Engine
	pipe   *pipeline.Pipeline
	db     *sql.DB
}

// open builds the store, engine and pipeline described by s. Extra sinks
// receive every assembled table.
func (s *settings) open(cmd *cobra.Command, sinks ...domain.TableSink) (*runtime, error) {
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: config.ParseLevel(s.LogLevel),
	}))

	rt := &runtime{logger: logger, store: specstore.New(s.DataDir)}
	if s.Engine == "" || s.Engine == engine.KindDuckDB {
		db, err := engine.OpenDuckDB()
		if err != nil {
			return nil, err
		}
		rt.db = db
	}
	eng, err := engine.New(s.Engine, rt.db, rt.store, logger)
	if err != nil {
		rt.Close()
		return nil, err
	}
	rt.engine = eng
	rt.pipe = pipeline.New(pipeline.Options{
		PollInterval: s.PollInterval,
		ReadyTimeout: s.Timeout,
		Location:     s.location,
		Sinks:        sinks,
	}, logger)
	return rt, nil
}

// Close waits for background materializations and releases the database.
func (r *runtime) Close() {
	if d, ok := r.engine.(*engine.DuckDBEngine); ok {
		d.Wait()
	}
	if r.db != nil {
		_ = r.db.Close()
	}
}
