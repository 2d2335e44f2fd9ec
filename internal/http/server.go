// Package http exposes the aggregation engine as a JSON API.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"budgettracker/internal/engine"
	"budgettracker/internal/log"
	"budgettracker/internal/middleware/ratelimit"
	"budgettracker/internal/middleware/trace"
	"budgettracker/internal/palette"
)

// maxBodyBytes bounds every request body.
const maxBodyBytes = 8 << 20

// Server wraps http.Server with the engine and its middleware.
type Server struct {
	http.Server

	engine  *engine.Engine
	colors  *palette.Assigner
	ready   func(context.Context) error
	logger  *log.Logger
	limiter *ratelimit.Limiter
	tracer  *trace.Middleware
	timeout time.Duration

	stopped      chan struct{}
	shutdownOnce sync.Once
}

type Config struct {
	Addr               string
	Engine             *engine.Engine
	Colors             *palette.Assigner
	Ready              func(context.Context) error // nil means always ready
	Logger             *log.Logger
	RequestTimeout     time.Duration
	RateLimitPerMinute int
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentHTTP)
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 15 * time.Second
	}

	s := &Server{
		engine:  cfg.Engine,
		colors:  cfg.Colors,
		ready:   cfg.Ready,
		logger:  logger,
		limiter: ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: cfg.RateLimitPerMinute}),
		tracer:  trace.NewMiddleware(logger, trace.ClientIP),
		timeout: cfg.RequestTimeout,
		stopped: make(chan struct{}),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	api := s.limiter.Middleware(trace.ClientIP, s.writeRateLimited)
	mux.Handle("POST /api/v1/charts/{kind}", api(http.HandlerFunc(s.handleChart)))
	mux.Handle("POST /api/v1/summary", api(http.HandlerFunc(s.handleSummary)))
	mux.Handle("POST /api/v1/reports", api(http.HandlerFunc(s.handleReport)))
	mux.Handle("GET /api/v1/colors", api(http.HandlerFunc(s.handleColors)))

	s.Server = http.Server{
		Addr:              cfg.Addr,
		Handler:           s.tracer.Middleware(s.withTimeout(mux)),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.RequestTimeout,
		WriteTimeout:      cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// RunLimiterCleanup prunes idle rate limit entries until ctx is done or the
// server shuts down.
func (s *Server) RunLimiterCleanup(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-s.stopped:
			cancel()
		case <-ctx.Done():
		}
	}()
	return s.limiter.Run(ctx)
}

// Shutdown gracefully stops the server and its cleanup loop.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		close(s.stopped)
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func (s *Server) withTimeout(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
		defer cancel()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) writeRateLimited(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WithComponent(log.ComponentRateLimit).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, trace.ClientIP(r),
		log.FieldPath, r.URL.Path)
	writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
}

// eventsFor logs through the request-scoped logger installed by the trace
// middleware.
// loggerFor prefers the request-scoped logger carrying the request id.
func (s *Server) loggerFor(ctx context.Context) *log.Logger {
	if logger, ok := log.Lookup(ctx); ok {
		return logger
	}
	return s.logger
}

func (s *Server) eventsFor(ctx context.Context) *log.StructuredLogger {
	return log.NewStructuredLogger(s.loggerFor(ctx))
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		if err := s.ready(r.Context()); err != nil {
			s.eventsFor(r.Context()).LogError(r.Context(), "Readiness check failed", err, log.ComponentHTTP, log.OpReady, nil)
			writeError(w, http.StatusServiceUnavailable, "not ready")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
