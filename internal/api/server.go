// Package api provides the REST API server of the content sync service.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/stacklok/content-sync-server/internal/api/common"
	v1 "github.com/stacklok/content-sync-server/internal/api/v1"
	"github.com/stacklok/content-sync-server/internal/content"
	"github.com/stacklok/content-sync-server/internal/sync/scheduler"
	"github.com/stacklok/content-sync-server/internal/versions"
)

// ReadinessCheck reports whether a dependency of the server is reachable
type ReadinessCheck func(ctx context.Context) error

type namedCheck struct {
	name  string
	check ReadinessCheck
}

// ServerOption configures the API server
type ServerOption func(*serverConfig)

// serverConfig holds the server configuration
type serverConfig struct {
	middlewares []func(http.Handler) http.Handler
	readiness   []namedCheck
	metrics     http.Handler
}

// WithMiddlewares adds middleware to the server
func WithMiddlewares(mw ...func(http.Handler) http.Handler) ServerOption {
	return func(cfg *serverConfig) {
		cfg.middlewares = append(cfg.middlewares, mw...)
	}
}

// WithReadinessCheck adds a check to /readiness. Nil checks are ignored.
func WithReadinessCheck(name string, check ReadinessCheck) ServerOption {
	return func(cfg *serverConfig) {
		if check != nil {
			cfg.readiness = append(cfg.readiness, namedCheck{name: name, check: check})
		}
	}
}

// WithMetricsHandler serves h on /metrics
func WithMetricsHandler(h http.Handler) ServerOption {
	return func(cfg *serverConfig) {
		cfg.metrics = h
	}
}

// NewServer creates and configures the HTTP router
func NewServer(sched scheduler.Scheduler, contents content.Store, opts ...ServerOption) *chi.Mux {
	cfg := &serverConfig{
		middlewares: []func(http.Handler) http.Handler{},
	}
	for _, opt := range opts {
		opt(cfg)
	}

	r := chi.NewRouter()
	for _, mw := range cfg.middlewares {
		r.Use(mw)
	}

	r.Get("/health", healthHandler)
	r.Get("/readiness", readinessHandler(cfg.readiness))
	r.Get("/version", versionHandler)
	if cfg.metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.metrics)
	}

	r.Mount("/v1", v1.Router(sched, contents))

	return r
}

// LoggingMiddleware logs HTTP requests
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		slog.DebugContext(r.Context(), "HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	common.WriteJSONResponse(w, HealthResponse{Status: statusHealthy}, http.StatusOK)
}

// readinessHandler runs every check and answers 503 if any fails
func readinessHandler(checks []namedCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := HealthResponse{Status: statusReady}
		code := http.StatusOK
		if len(checks) > 0 {
			resp.Checks = make(map[string]string, len(checks))
		}
		for _, c := range checks {
			if err := c.check(r.Context()); err != nil {
				slog.WarnContext(r.Context(), "Readiness check failed", "check", c.name, "error", err)
				resp.Checks[c.name] = err.Error()
				resp.Status, code = statusNotReady, http.StatusServiceUnavailable
				continue
			}
			resp.Checks[c.name] = checkOK
		}
		common.WriteJSONResponse(w, resp, code)
	}
}

func versionHandler(w http.ResponseWriter, _ *http.Request) {
	common.WriteJSONResponse(w, versions.GetVersionInfo(), http.StatusOK)
}
