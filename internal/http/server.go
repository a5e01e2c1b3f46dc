package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"alkansya/internal/log"
	"alkansya/internal/metrics"
	"alkansya/internal/middleware/ratelimit"
	"alkansya/internal/middleware/security"
	"alkansya/internal/middleware/trace"
	"alkansya/internal/services"
)

// SnapshotSource is the refresh processor as the server sees it
type SnapshotSource interface {
	Latest() (services.Snapshot, bool)
	Trigger()
}

// Deps are the collaborators of the watch server
type Deps struct {
	Snapshots SnapshotSource
	// Loader serves /dashboard/{year}/{month}; nil disables the route
	Loader   services.DashboardLoader
	Gatherer prometheus.Gatherer
	Logger   *log.Logger
}

type Server struct {
	http.Server
	deps        Deps
	logger      *log.Logger
	rateLimiter *ratelimit.Limiter
	tracer      *trace.Middleware

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run http.Server.
func NewServer(addr string, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = log.Discard()
	}
	if deps.Gatherer == nil {
		deps.Gatherer = prometheus.DefaultGatherer
	}

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 10 * time.Second,
			WriteTimeout:      60 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		deps:        deps,
		logger:      logger.WithComponent(log.ComponentHTTP),
		rateLimiter: ratelimit.NewLimiter(ratelimit.DefaultConfig()),
		tracer:      trace.NewMiddleware(logger, clientIP),
	}
	s.Handler = s.routes()
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(s.tracer.Middleware)
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)

	r.Get("/healthz", handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Handle("/metrics", metrics.Handler(s.deps.Gatherer))

	r.Route("/dashboard", func(r chi.Router) {
		r.Get("/", s.handleLatest)

		r.Group(func(r chi.Router) {
			r.Use(s.rateLimiter.Middleware(clientIP, nil))
			r.Post("/refresh", s.handleRefresh)
			if s.deps.Loader != nil {
				r.Get("/{year}/{month}", s.handleLoad)
			}
		})
	})

	return r
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// Metrics reports request counters from the trace middleware
func (s *Server) Metrics() trace.Metrics {
	return s.tracer.GetMetrics()
}
