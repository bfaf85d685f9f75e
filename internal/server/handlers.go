package server

import (
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/flowtower/pkg/buildinfo"
	"github.com/matzehuels/flowtower/pkg/errors"
	"github.com/matzehuels/flowtower/pkg/layout"
	"github.com/matzehuels/flowtower/pkg/pipeline"
	"github.com/matzehuels/flowtower/pkg/store"
)

// HeaderWarnings reports how many builder warnings the flow produced.
const HeaderWarnings = "X-Flowtower-Warnings"

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, struct {
		Status string `json:"status"`
		buildinfo.Info
	}{"ok", buildinfo.Get()})
}

// =============================================================================
// Stateless pipeline
// =============================================================================

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	opts, err := s.options(w, r, false)
	if err != nil {
		writeError(w, r, err)
		return
	}
	g, err := s.runner.Parse(r.Context(), opts)
	if err != nil {
		writeError(w, r, err)
		return
	}
	l, err := s.runner.Layout(r.Context(), g, opts)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set(HeaderWarnings, strconv.Itoa(len(g.Warnings)))
	writeJSON(w, http.StatusOK, l)
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	opts, err := s.options(w, r, true)
	if err != nil {
		writeError(w, r, err)
		return
	}
	res, err := s.runner.Execute(r.Context(), opts)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set(HeaderWarnings, strconv.Itoa(res.Stats.Warnings))
	writeArtifact(w, opts.Formats[0], res.Artifacts[opts.Formats[0]])
}

// =============================================================================
// Stored flows
// =============================================================================

func (s *Server) handleSaveFlow(w http.ResponseWriter, r *http.Request) {
	opts, err := s.options(w, r, false)
	if err != nil {
		writeError(w, r, err)
		return
	}
	g, err := s.runner.Parse(r.Context(), opts)
	if err != nil {
		writeError(w, r, err)
		return
	}
	rec := store.NewRecord(opts.Source, opts.XML, g)
	rec.GraphHash = pipeline.GraphHash(g)
	id, err := s.store.SaveFlow(r.Context(), rec)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Location", "/v1/flows/"+id)
	w.Header().Set(HeaderWarnings, strconv.Itoa(len(g.Warnings)))
	writeJSON(w, http.StatusCreated, rec.Summary())
}

func (s *Server) handleListFlows(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "invalid limit %q", v))
			return
		}
		limit = n
	}
	list, err := s.store.ListFlows(r.Context(), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Flows []store.Summary `json:"flows"`
	}{list})
}

func (s *Server) handleGetFlow(w http.ResponseWriter, r *http.Request) {
	rec, err := s.storedFlow(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleDeleteFlow(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := store.ValidateID(id); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.store.DeleteFlow(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleFlowLayout(w http.ResponseWriter, r *http.Request) {
	rec, err := s.storedFlow(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	opts, err := s.queryOptions(r, false)
	if err != nil {
		writeError(w, r, err)
		return
	}
	l, err := s.runner.Layout(r.Context(), rec.Graph, opts)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

func (s *Server) handleFlowRender(w http.ResponseWriter, r *http.Request) {
	rec, err := s.storedFlow(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	opts, err := s.queryOptions(r, true)
	if err != nil {
		writeError(w, r, err)
		return
	}
	l, err := s.runner.Layout(r.Context(), rec.Graph, opts)
	if err != nil {
		writeError(w, r, err)
		return
	}
	artifacts, err := s.runner.Render(r.Context(), l, opts)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeArtifact(w, opts.Formats[0], artifacts[opts.Formats[0]])
}

func (s *Server) storedFlow(r *http.Request) (*store.Record, error) {
	id := chi.URLParam(r, "id")
	if err := store.ValidateID(id); err != nil {
		return nil, err
	}
	rec, err := s.store.GetFlow(r.Context(), id)
	if err != nil {
		return nil, err
	}
	if rec.Graph == nil {
		return nil, errors.New(errors.ErrCodeInternal, "flow %s has no graph", id)
	}
	return rec, nil
}

// =============================================================================
// Request decoding
// =============================================================================

// options reads the XML body and query parameters.
func (s *Server) options(w http.ResponseWriter, r *http.Request, render bool) (pipeline.Options, error) {
	opts, err := s.queryOptions(r, render)
	if err != nil {
		return opts, err
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes))
	if err != nil {
		return opts, err
	}
	if len(body) == 0 {
		return opts, errors.New(errors.ErrCodeInvalidInput, "request body must contain Flow XML")
	}
	opts.XML = body
	opts.Source = r.URL.Query().Get("name")
	return opts, nil
}

// queryOptions builds pipeline options from the server defaults and the
// query string. Render requests take exactly one format.
func (s *Server) queryOptions(r *http.Request, render bool) (pipeline.Options, error) {
	q := r.URL.Query()
	opts := pipeline.Options{
		Layout:   s.layout,
		Labels:   s.render.Labels,
		Detailed: s.render.Detailed,
		Logger:   s.logger,
	}

	floats := []struct {
		name string
		dst  *float64
	}{
		{"column_width", &opts.Layout.ColumnWidth},
		{"row_height", &opts.Layout.RowHeight},
		{"origin_x", &opts.Layout.OriginX},
		{"origin_y", &opts.Layout.OriginY},
		{"fault_offset", &opts.Layout.FaultOffset},
		{"fallback_column", &opts.Layout.FallbackColumn},
	}
	for _, f := range floats {
		v := q.Get(f.name)
		if v == "" {
			continue
		}
		n, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return opts, errors.New(errors.ErrCodeInvalidInput, "invalid %s %q", f.name, v)
		}
		*f.dst = n
	}
	if opts.Layout.ColumnWidth < 0 || opts.Layout.RowHeight < 0 {
		return opts, errors.New(errors.ErrCodeInvalidInput, "spacing must not be negative")
	}
	opts.Layout = withDefaults(opts.Layout)

	if !render {
		return opts, nil
	}
	for _, b := range []struct {
		name string
		dst  *bool
	}{{"labels", &opts.Labels}, {"detailed", &opts.Detailed}} {
		if v := q.Get(b.name); v != "" {
			parsed, err := strconv.ParseBool(v)
			if err != nil {
				return opts, errors.New(errors.ErrCodeInvalidInput, "invalid %s %q", b.name, v)
			}
			*b.dst = parsed
		}
	}

	format := q.Get("format")
	if format == "" {
		format = pipeline.DefaultFormat
	}
	if err := pipeline.ValidateFormat(format); err != nil {
		return opts, err
	}
	opts.Formats = []string{format}
	return opts, nil
}

func withDefaults(o layout.Options) layout.Options {
	var out layout.Options
	layout.WithOptions(o)(&out)
	return out
}

func writeArtifact(w http.ResponseWriter, format string, data []byte) {
	w.Header().Set("Content-Type", pipeline.ContentTypes[format])
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
