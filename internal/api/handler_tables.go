package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"vis2table/internal/domain"
	"vis2table/internal/encoding"
	"vis2table/internal/pipeline"
	"vis2table/internal/table"
)

// TableResponse is the JSON rendering of a reconstructed table.
type TableResponse struct {
	Ref        domain.SpecRef   `json:"ref"`
	Header     []string         `json:"header"`
	Rows       [][]any          `json:"rows"`
	Folded     bool             `json:"folded"`
	Warnings   []string         `json:"warnings"`
	Encoding   *encoding.Result `json:"encoding,omitempty"`
	DurationMS int64            `json:"duration_ms"`
}

// ListSpecsResponse lists a dataset's specifications.
type ListSpecsResponse struct {
	Dataset string           `json:"dataset"`
	Specs   []domain.SpecRef `json:"specs"`
}

// ReconstructRequest carries an inline specification and its rows.
type ReconstructRequest struct {
	Spec json.RawMessage `json:"spec"`
	Rows *domain.Frame   `json:"rows"`
}

func toTableResponse(res *pipeline.Result) TableResponse {
	return TableResponse{
		Ref:        res.Ref,
		Header:     res.Table.Header,
		Rows:       res.Table.Rows,
		Folded:     res.Folded,
		Warnings:   res.WarningMessages(),
		Encoding:   res.Encoding,
		DurationMS: res.Duration.Milliseconds(),
	}
}

func refFromRequest(r *http.Request) (domain.SpecRef, error) {
	ref := domain.SpecRef{
		Dataset:  chi.URLParam(r, "dataset"),
		Filename: chi.URLParam(r, "filename"),
		Name:     r.URL.Query().Get("name"),
	}
	return ref, ref.Validate()
}

func (h *Handler) listSpecs(w http.ResponseWriter, r *http.Request) {
	dataset := chi.URLParam(r, "dataset")
	refs, err := h.Tables.List(r.Context(), dataset)
	if err != nil {
		writeError(w, err)
		return
	}
	if refs == nil {
		refs = []domain.SpecRef{}
	}
	writeJSON(w, http.StatusOK, ListSpecsResponse{Dataset: dataset, Specs: refs})
}

func (h *Handler) getTable(w http.ResponseWriter, r *http.Request) {
	ref, err := refFromRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}
	fresh, _ := strconv.ParseBool(r.URL.Query().Get("refresh"))

	res, err := h.Tables.Table(r.Context(), ref, fresh)
	if err != nil {
		h.logger(r).Warn("table request failed", "ref", ref.String(), "error", err)
		writeError(w, err)
		return
	}
	h.writeResult(w, r, res)
}

func (h *Handler) invalidateTable(w http.ResponseWriter, r *http.Request) {
	ref, err := refFromRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}
	h.Tables.Invalidate(ref)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) getMapping(w http.ResponseWriter, r *http.Request) {
	ref, err := refFromRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}
	mapping, err := h.Tables.Mapping(r.Context(), ref)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mapping)
}

func (h *Handler) reconstruct(w http.ResponseWriter, r *http.Request) {
	var req ReconstructRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, Error{Code: http.StatusRequestEntityTooLarge, Message: "request body too large"})
			return
		}
		writeError(w, domain.ErrValidation("invalid request body: %v", err))
		return
	}
	if len(bytes.TrimSpace(req.Spec)) == 0 {
		writeError(w, domain.ErrValidation("spec is required"))
		return
	}
	spec, err := domain.ParseChartSpec(req.Spec)
	if err != nil {
		writeError(w, err)
		return
	}
	if spec.Mark == "" {
		writeError(w, domain.ErrValidation("spec has no mark"))
		return
	}

	res, err := h.Tables.Reconstruct(r.Context(), spec, req.Rows)
	if err != nil {
		h.logger(r).Warn("inline reconstruction failed", "error", err)
		writeError(w, err)
		return
	}
	h.writeResult(w, r, res)
}

// writeResult renders res in the format named by the format query
// parameter: json (default), csv or html.
func (h *Handler) writeResult(w http.ResponseWriter, r *http.Request, res *pipeline.Result) {
	q := r.URL.Query()
	switch q.Get("format") {
	case "", "json":
		writeJSON(w, http.StatusOK, toTableResponse(res))
	case "csv":
		dialect, err := table.ParseCSVDialect(q.Get("dialect"))
		if err != nil {
			writeError(w, err)
			return
		}
		var buf bytes.Buffer
		if err := table.Export(&buf, res.Table, dialect); err != nil {
			writeError(w, err)
			return
		}
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": res.Ref.DisplayName() + ".csv"}))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(buf.Bytes())
	case "html":
		renderHTML(w, http.StatusOK, table.HTMLPage(res.Ref.DisplayName(), res.Table))
	default:
		writeError(w, domain.ErrValidation("unknown format %q (want json, csv or html)", q.Get("format")))
	}
}
