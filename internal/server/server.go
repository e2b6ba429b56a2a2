// Package server exposes a coordinator over HTTP. Mutating endpoints go
// through the coordinator's operation queue, so concurrent requests are
// serialized the same way interactive operations are.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/flowscope/pkg/coordinator"
	"github.com/matzehuels/flowscope/pkg/state"
)

// DefaultAddr is the listen address when none is configured.
const DefaultAddr = "127.0.0.1:8423"

// shutdownGrace bounds how long in-flight requests may run during shutdown.
const shutdownGrace = 5 * time.Second

// Options configures a Server.
type Options struct {
	// Addr is the listen address. Defaults to DefaultAddr.
	Addr string

	// Snapshots is the view-state store backing the snapshot endpoints.
	// Nil disables them (requests return 404).
	Snapshots state.Store

	// Logger receives request and lifecycle logs. Defaults to the package
	// default logger.
	Logger *log.Logger
}

// Server serves the HTTP API for one coordinator.
type Server struct {
	coord     *coordinator.Coordinator
	snapshots state.Store
	logger    *log.Logger
	httpSrv   *http.Server
}

// New creates a server around a coordinator.
func New(coord *coordinator.Coordinator, opts Options) *Server {
	if opts.Addr == "" {
		opts.Addr = DefaultAddr
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	s := &Server{
		coord:     coord,
		snapshots: opts.Snapshots,
		logger:    opts.Logger,
	}
	s.httpSrv = &http.Server{
		Addr:              opts.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler builds the route tree. Exposed separately so tests can drive it
// with httptest without binding a port.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/frame", s.handleFrame)
		r.Post("/pipeline", s.handlePipeline)
		r.Get("/status", s.handleStatus)
		r.Delete("/queue", s.handleClearQueue)

		r.Get("/graph", s.handleExportGraph)
		r.Get("/search", s.handleSearch)
		r.Post("/focus/{id}", s.handleFocus)

		r.Route("/containers", func(r chi.Router) {
			r.Post("/collapse-all", s.handleCollapseAll)
			r.Post("/expand-all", s.handleExpandAll)
			r.Post("/{id}/collapse", s.handleCollapse)
			r.Post("/{id}/expand", s.handleExpand)
		})

		r.Put("/style", s.handleStyle)
		r.Put("/layout", s.handleLayout)

		r.Route("/snapshots", func(r chi.Router) {
			r.Get("/", s.handleListSnapshots)
			r.Get("/{name}", s.handleGetSnapshot)
			r.Put("/{name}", s.handleSaveSnapshot)
			r.Post("/{name}/apply", s.handleApplySnapshot)
			r.Delete("/{name}", s.handleDeleteSnapshot)
		})
	})

	return r
}

// Start listens until the context is cancelled, then drains gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", s.httpSrv.Addr)
		errCh <- s.httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		return s.httpSrv.Shutdown(shutdownCtx)
	}
}

// requestLogger logs each request with its duration and status.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", chimiddleware.GetReqID(r.Context()),
		)
	})
}
