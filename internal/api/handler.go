// Package api exposes table reconstruction over HTTP.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	gomponents "maragu.dev/gomponents"

	"vis2table/internal/domain"
	"vis2table/internal/encoding"
	"vis2table/internal/middleware"
	"vis2table/internal/pipeline"
)

// maxBodyBytes bounds POST /v1/reconstruct bodies.
const maxBodyBytes = 16 << 20

// TableService is what the handlers need from the reconstruction service.
type TableService interface {
	Table(ctx context.Context, ref domain.SpecRef, fresh bool) (*pipeline.Result, error)
	Mapping(ctx context.Context, ref domain.SpecRef) (*encoding.Result, error)
	List(ctx context.Context, dataset string) ([]domain.SpecRef, error)
	Reconstruct(ctx context.Context, spec *domain.ChartSpec, rows *domain.Frame) (*pipeline.Result, error)
	Invalidate(ref domain.SpecRef)
}

// Handler serves the reconstruction API.
type Handler struct {
	Tables     TableService
	EngineKind string
	Logger     *slog.Logger
	StartTime  time.Time
}

// NewHandler creates a Handler.
func NewHandler(tables TableService, engineKind string, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		Tables:     tables,
		EngineKind: engineKind,
		Logger:     logger,
		StartTime:  time.Now(),
	}
}

// RouterConfig carries the cross-cutting middleware settings.
type RouterConfig struct {
	AllowedOrigins []string
	RateLimiter    *middleware.RateLimiter
}

// Router mounts the API on a chi router.
func (h *Handler) Router(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID(h.Logger))
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	if len(cfg.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: cfg.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
			AllowedHeaders: []string{"Content-Type", middleware.RequestIDHeader},
			ExposedHeaders: []string{middleware.RequestIDHeader},
			MaxAge:         300,
		}))
	}

	r.Get("/healthz", h.health)

	r.Route("/v1", func(r chi.Router) {
		if cfg.RateLimiter != nil {
			r.Use(cfg.RateLimiter.Handler)
		}
		r.Get("/datasets/{dataset}/specs", h.listSpecs)
		r.Route("/datasets/{dataset}/specs/{filename}", func(r chi.Router) {
			r.Get("/table", h.getTable)
			r.Delete("/table", h.invalidateTable)
			r.Get("/mapping", h.getMapping)
		})
		r.Post("/reconstruct", h.reconstruct)
	})
	return r
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":         "ok",
		"engine":         h.EngineKind,
		"uptime_seconds": int(time.Since(h.StartTime).Seconds()),
	})
}

func (h *Handler) logger(r *http.Request) *slog.Logger {
	return middleware.LoggerFromContext(r.Context(), h.Logger)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func renderHTML(w http.ResponseWriter, status int, node gomponents.Node) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_ = node.Render(w)
}
