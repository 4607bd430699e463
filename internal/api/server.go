// Package api serves the erlayout pipeline over HTTP.
//
// Routes:
//
//	GET  /healthz            liveness and build version
//	GET  /api/v1/tiers       tier presets and selection thresholds
//	POST /api/v1/validate    validate a document
//	POST /api/v1/layout      lay out a document
//
// Every response carries an X-Request-ID header. Errors use the envelope
// described in [httputil.ErrorBody].
package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/erlayout/pkg/httputil"
	"github.com/matzehuels/erlayout/pkg/observability"
	"github.com/matzehuels/erlayout/pkg/pipeline"
)

const (
	// DefaultRequestTimeout bounds a single layout request.
	DefaultRequestTimeout = 60 * time.Second

	shutdownTimeout = 10 * time.Second
)

// Server handles API requests with a shared pipeline runner.
type Server struct {
	runner   *pipeline.Runner
	settings *pipeline.Settings
	logger   *log.Logger
	timeout  time.Duration
	router   chi.Router
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithTimeout bounds the time spent on one request.
func WithTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// New creates a server. A nil runner gets an uncached one; nil settings
// mean built-in defaults.
func New(runner *pipeline.Runner, settings *pipeline.Settings, opts ...Option) *Server {
	if settings == nil {
		settings = pipeline.DefaultSettings()
	}
	s := &Server{
		settings: settings,
		logger:   log.New(io.Discard),
		timeout:  DefaultRequestTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	if runner == nil {
		runner = pipeline.NewRunner(nil, nil, s.logger)
	}
	s.runner = runner
	s.router = s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(httputil.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.observe)

	r.Get("/healthz", s.handleHealth)
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Timeout(s.timeout))
		r.Get("/tiers", s.handleTiers)
		r.Post("/validate", s.handleValidate)
		r.Post("/layout", s.handleLayout)
	})
	return r
}

// observe logs each request and reports it to the HTTP hooks.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hooks := observability.HTTP()
		hooks.OnRequest(r.Context(), r.Method, r.URL.Path)

		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		dur := time.Since(start)
		hooks.OnResponse(r.Context(), r.Method, r.URL.Path, status, dur)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"duration", dur,
			"request_id", httputil.GetRequestID(r.Context()))
	})
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.logger.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}
