package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"unichance/internal/common/logger"
	"unichance/internal/common/metrics"
	"unichance/internal/ratelimit"
	scoreadmissionchance "unichance/internal/workers/admission/score-admission-chance"
	smartsearch "unichance/internal/workers/admission/smart-search"
)

// ChanceScorer is satisfied by the score-admission-chance worker handler.
type ChanceScorer interface {
	Execute(ctx context.Context, input *scoreadmissionchance.Input) (*scoreadmissionchance.Output, error)
}

// SmartSearcher is satisfied by the smart-search worker handler.
type SmartSearcher interface {
	Execute(ctx context.Context, input *smartsearch.Input) (*smartsearch.Output, error)
}

// ReadinessCheck reports whether a dependency is reachable.
type ReadinessCheck func(ctx context.Context) error

type Options struct {
	Addr           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	RequestTimeout time.Duration
	CORSOrigins    []string
	Version        string

	Scorer   ChanceScorer
	Searcher SmartSearcher
	// SearchLimiter guards the scoring and search routes. Nil disables limiting.
	SearchLimiter *ratelimit.Limiter
	Readiness     map[string]ReadinessCheck
	Logger        logger.Logger
}

type Server struct {
	router *chi.Mux
	server *http.Server
	opts   Options
	log    logger.Logger
}

func New(opts Options) *Server {
	if opts.RequestTimeout == 0 {
		opts.RequestTimeout = 30 * time.Second
	}
	if len(opts.CORSOrigins) == 0 {
		opts.CORSOrigins = []string{"*"}
	}

	s := &Server{
		router: chi.NewRouter(),
		opts:   opts,
		log:    opts.Logger.WithFields(map[string]interface{}{"component": "api"}),
	}
	s.setupMiddleware()
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         opts.Addr,
		Handler:      s.router,
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Timeout(s.opts.RequestTimeout))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.opts.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
		MaxAge:         300,
	}))
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)
	s.router.Get("/ready", s.handleReady)
	s.router.Handle("/metrics", promhttp.Handler())

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if s.opts.SearchLimiter != nil {
				r.Use(ratelimit.Middleware(s.opts.SearchLimiter, ratelimit.KeyByIP, s.log))
			}
			r.Post("/score", s.handleScore)
			r.Post("/chances/calculate", s.handleChance)
			r.Post("/smart-search", s.handleSmartSearch)
		})
	})
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start() error {
	s.log.Info("starting HTTP server", map[string]interface{}{"addr": s.opts.Addr})
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("shutting down HTTP server", nil)
	return s.server.Shutdown(ctx)
}

// loggingMiddleware logs each request and records it under its route pattern.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		reqLog := s.log.WithFields(map[string]interface{}{"requestId": middleware.GetReqID(r.Context())})

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r.WithContext(logger.WithContext(r.Context(), reqLog)))

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := time.Since(start)

		metrics.HTTPRequests.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(route, r.Method).Observe(elapsed.Seconds())

		reqLog.Info("HTTP request", map[string]interface{}{
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     status,
			"bytes":      ww.BytesWritten(),
			"durationMs": elapsed.Milliseconds(),
		})
	})
}
