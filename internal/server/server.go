// Package server exposes the flowtower pipeline over HTTP.
//
// Routes:
//
//	GET    /healthz                  liveness and build info
//	GET    /metrics                  Prometheus metrics, when enabled
//	POST   /v1/layout                Flow XML body -> layout JSON
//	POST   /v1/render?format=svg     Flow XML body -> rendered artifact
//	POST   /v1/flows                 store a flow, returns its summary
//	GET    /v1/flows                 list stored flows, newest first
//	GET    /v1/flows/{id}            stored record with graph
//	GET    /v1/flows/{id}/layout     layout of a stored flow
//	GET    /v1/flows/{id}/render     render a stored flow
//	DELETE /v1/flows/{id}            delete a stored flow
//
// Layout endpoints accept the spacing query parameters column_width,
// row_height, origin_x, origin_y, fault_offset and fallback_column. Render
// endpoints also accept labels and detailed. Errors are JSON objects of the
// form {"code": "PARSE_ERROR", "message": "..."}.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/flowtower/pkg/config"
	"github.com/matzehuels/flowtower/pkg/layout"
	"github.com/matzehuels/flowtower/pkg/pipeline"
	"github.com/matzehuels/flowtower/pkg/store"
)

// Server serves the HTTP API.
type Server struct {
	runner *pipeline.Runner
	store  store.Store
	logger *log.Logger
	cfg    config.ServerConfig
	layout layout.Options
	render config.RenderConfig

	metrics http.Handler
}

// Option configures a Server.
type Option func(*Server)

// WithConfig applies server, layout and render settings from cfg.
func WithConfig(cfg config.Config) Option {
	return func(s *Server) {
		s.cfg = cfg.Server
		s.layout = cfg.Layout
		s.render = cfg.Render
	}
}

// WithLogger sets the request logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics serves h on /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// New creates a server. A nil store means an in-memory store.
func New(runner *pipeline.Runner, st store.Store, opts ...Option) *Server {
	def := config.Default()
	if st == nil {
		st = store.NewMemoryStore()
	}
	if runner == nil {
		runner = pipeline.NewRunner(nil, nil, nil)
	}
	s := &Server{
		runner: runner,
		store:  st,
		logger: runner.Logger,
		cfg:    def.Server,
		layout: def.Layout,
		render: def.Render,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.cfg.MaxBodyBytes <= 0 {
		s.cfg.MaxBodyBytes = def.Server.MaxBodyBytes
	}
	return s
}

// Handler returns the router with all routes and middleware installed.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.RealIP)
	r.Use(s.observe)
	r.Use(middleware.Recoverer)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, notFoundError(r.URL.Path))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, methodError(r.Method, r.URL.Path))
	})

	r.Get("/healthz", s.handleHealth)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	r.Route("/v1", func(r chi.Router) {
		r.Post("/layout", s.handleLayout)
		r.Post("/render", s.handleRender)

		r.Post("/flows", s.handleSaveFlow)
		r.Get("/flows", s.handleListFlows)
		r.Get("/flows/{id}", s.handleGetFlow)
		r.Delete("/flows/{id}", s.handleDeleteFlow)
		r.Get("/flows/{id}/layout", s.handleFlowLayout)
		r.Get("/flows/{id}/render", s.handleFlowRender)
	})
	return r
}

// ListenAndServe serves on the configured address until ctx is canceled,
// then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.cfg.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
