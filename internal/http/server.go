package http

import (
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"puntos/internal/core"
	applog "puntos/internal/log"
	"puntos/internal/metrics"
	"puntos/internal/middleware/ratelimit"
	"puntos/internal/middleware/security"
	"puntos/internal/middleware/trace"
	"puntos/internal/services"
	appweb "puntos/web"
)

// Deps are the collaborators the server needs. Service is required.
type Deps struct {
	Service *services.PointsService
	// Ready reports whether the backing store is reachable; nil means always ready.
	Ready     func(ctx context.Context) error
	Metrics   *metrics.Metrics
	Logger    *applog.Logger
	RateLimit ratelimit.Config
}

type Server struct {
	http.Server
	svc       *services.PointsService
	ready     func(ctx context.Context) error
	metrics   *metrics.Metrics
	logger    *applog.Logger
	templates *template.Template
	limiter   *ratelimit.Limiter
	detector  *security.Detector

	shutdownOnce sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run http.Server.
func NewServer(addr string, deps Deps) (*Server, error) {
	if deps.Service == nil {
		return nil, fmt.Errorf("%w: http server needs a points service", core.ErrConfiguration)
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.New()
	}
	if deps.Logger == nil {
		deps.Logger = applog.New(applog.DefaultConfig())
	}

	t, err := template.New("").Funcs(templateFuncs).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	s := &Server{
		svc:       deps.Service,
		ready:     deps.Ready,
		metrics:   deps.Metrics,
		logger:    deps.Logger.WithComponent(applog.ComponentHTTP),
		templates: t,
		detector:  security.NewDetector(),
	}
	s.detector.OnSuspicious(func(*http.Request) {
		s.metrics.SecurityEvents.WithLabelValues("suspicious").Inc()
	})

	rlCfg := deps.RateLimit
	rlCfg.OnLimit = func(string) {
		s.metrics.SecurityEvents.WithLabelValues("rate_limited").Inc()
	}
	s.limiter = ratelimit.NewLimiter(rlCfg)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s, nil
}

func (s *Server) routes() http.Handler {
	tracer := trace.NewMiddleware(s.logger, s.detector.ExtractClientIP, s.metrics.ObserveHTTP)
	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())

	r := chi.NewRouter()
	r.Use(tracer.Middleware)
	r.Use(s.recoverMiddleware)
	r.Use(headers.Middleware)
	r.Use(s.detector.Middleware)
	r.Use(s.limiter.Middleware(s.detector.ExtractClientIP, s.rateLimited))

	r.Get("/", s.handleIndex)
	r.Get("/healthz", handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		r.With(security.StaticAssetMiddleware(3600)).Handle("/static/*", static)
	} else {
		s.logger.Warn("Failed to mount embedded static FS", applog.FieldError, err)
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/catalog", s.handleCatalog)
		r.Post("/catalog/reload", s.handleCatalogReload)
		r.Get("/activities", s.handleListActivities)
		r.Post("/activities", s.handleLogActivity)
		r.Get("/redemptions", s.handleListRedemptions)
		r.Post("/redemptions", s.handleRedeem)
		r.Get("/balance", s.handleBalance)
		r.Get("/rollup", s.handleRollup)
		r.Get("/summary", s.handleSummary)
	})

	r.Route("/ui", func(r chi.Router) {
		r.Get("/summary", s.handleSummaryPartial)
		r.Post("/activities", s.handleLogActivityPartial)
		r.Post("/redemptions", s.handleRedeemPartial)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, errorPayload{Code: "NOT_FOUND", Message: "resource not found", RequestID: trace.GetRequestID(r.Context())})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, errorPayload{Code: "METHOD_NOT_ALLOWED", Message: "method not allowed", RequestID: trace.GetRequestID(r.Context())})
	})
	return r
}

func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				applog.FromContext(r.Context()).ErrorContext(r.Context(), "Handler panicked",
					"panic", fmt.Sprint(rec),
					applog.FieldPath, r.URL.Path,
				)
				writeError(w, http.StatusInternalServerError, errorPayload{Code: "INTERNAL_ERROR", Message: "internal server error"})
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) rateLimited(w http.ResponseWriter, r *http.Request) {
	applog.FromContext(r.Context()).WithComponent(applog.ComponentSecurity).WarnContext(r.Context(), "Rate limit exceeded",
		applog.FieldClientIP, s.detector.ExtractClientIP(r),
		applog.FieldMethod, r.Method,
		applog.FieldPath, r.URL.Path,
	)
	w.Header().Set("Retry-After", "60")
	writeError(w, http.StatusTooManyRequests, errorPayload{
		Code:      "RATE_LIMIT_EXCEEDED",
		Message:   "rate limit exceeded, try again later",
		RequestID: trace.GetRequestID(r.Context()),
	})
}

// Shutdown stops the rate limiter's janitor and drains connections.
func (s *Server) Shutdown(ctx context.Context) error {
	s.shutdownOnce.Do(s.limiter.Stop)
	return s.Server.Shutdown(ctx)
}

var templateFuncs = template.FuncMap{
	"points": formatPoints,
	"bar":    barHeight,
}
