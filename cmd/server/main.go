// Package main is the entry point for the vis2table HTTP server.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"vis2table/internal/api"
	"vis2table/internal/config"
	"vis2table/internal/engine"
	"vis2table/internal/middleware"
	"vis2table/internal/pipeline"
	"vis2table/internal/service/reconstruct"
	"vis2table/internal/specstore"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load .env file (if present)
	if err := config.LoadDotEnv(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "warning: could not load .env: %v\n", err)
	}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)
	for _, w := range cfg.Warnings {
		logger.Warn("config", "warning", w)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	store := specstore.New(cfg.DataDir)
	var duckDB *sql.DB
	if cfg.Engine == engine.KindDuckDB {
		db, err := engine.OpenDuckDB()
		if err != nil {
			return err
		}
		defer db.Close() //nolint:errcheck
		duckDB = db
	}
	eng, err := engine.New(cfg.Engine, duckDB, store, logger)
	if err != nil {
		return err
	}

	pipe := pipeline.New(pipeline.Options{
		PollInterval: cfg.PollInterval,
		ReadyTimeout: cfg.ReadyTimeout,
		DatasetName:  cfg.DatasetName,
		Location:     cfg.Location,
	}, logger)
	tables := reconstruct.NewTableService(eng, pipe, store, cfg.BatchConcurrency, logger)

	if cfg.RefreshEnabled() {
		scheduler := reconstruct.NewScheduler(tables, logger)
		if err := scheduler.Start(cfg.RefreshSchedule, cfg.RefreshDatasets); err != nil {
			return err
		}
		defer scheduler.Stop()
	}

	limiter := middleware.NewRateLimiter(ctx, middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		Burst:             cfg.RateLimitBurst,
	})
	handler := api.NewHandler(tables, cfg.Engine, logger)

	srv := &http.Server{
		Addr: cfg.ListenAddr,
		Handler: handler.Router(api.RouterConfig{
			AllowedOrigins: cfg.CORSAllowedOrigins,
			RateLimiter:    limiter,
		}),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      cfg.ReadyTimeout + 30*time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Graceful shutdown
	go func() {
		<-ctx.Done()
		logger.Info("shutting down server")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("HTTP API listening", "addr", cfg.ListenAddr, "engine", cfg.Engine, "data_dir", cfg.DataDir)
	logger.Info("try: curl " + specsURL(cfg.ListenAddr, cfg.RefreshDatasets))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server: %w", err)
	}
	if d, ok := eng.(*engine.DuckDBEngine); ok {
		d.Wait()
	}
	return nil
}

// specsURL is the listing endpoint a local client can call once the server
// is up. Wildcard hosts become localhost and the first refreshed dataset, if
// any, fills in the path.
func specsURL(listenAddr string, datasets []string) string {
	host := strings.TrimSpace(listenAddr)
	if host == "" {
		host = ":8080"
	}
	if h, port, err := net.SplitHostPort(host); err == nil {
		switch h {
		case "", "0.0.0.0", "::":
			h = "localhost"
		}
		host = net.JoinHostPort(h, port)
	}
	dataset := "<dataset>"
	if len(datasets) > 0 && datasets[0] != "" {
		dataset = url.PathEscape(datasets[0])
	}
	return "http://" + host + "/v1/datasets/" + dataset + "/specs"
}
