// Package server renders the dashboard over HTTP: an HTML page with form
// actions, a JSON API, Prometheus metrics and health probes.
//
// All access to the controller goes through a dashboard.Session, so each
// request sees a view that was never taken mid-mutation.
package server

import (
	"context"
	"html/template"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"

	"github.com/exploopio/opsboard/pkg/audit"
	"github.com/exploopio/opsboard/pkg/clock"
	"github.com/exploopio/opsboard/pkg/dashboard"
	"github.com/exploopio/opsboard/pkg/errors"
	"github.com/exploopio/opsboard/pkg/health"
	"github.com/exploopio/opsboard/pkg/logging"
	"github.com/exploopio/opsboard/pkg/metrics"
)

// Config holds server settings.
type Config struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string

	// RateLimit is the sustained number of mutating requests per second.
	// Zero disables limiting.
	RateLimit float64

	// RateBurst is the token bucket size for mutating requests.
	RateBurst int

	ReadHeaderTimeout time.Duration
	ShutdownTimeout   time.Duration

	// Location is used to render dates on the HTML page.
	Location *time.Location
}

// DefaultConfig returns the default server configuration.
func DefaultConfig() Config {
	return Config{
		Addr:              ":8080",
		RateLimit:         5,
		RateBurst:         20,
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   10 * time.Second,
		Location:          time.Local,
	}
}

// Server serves one dashboard session.
type Server struct {
	cfg     Config
	session *dashboard.Session

	logger    logging.Logger
	audit     *audit.Logger
	collector metrics.Collector
	metricsH  http.Handler
	health    *health.Handler
	clock     clock.Clock
	limiter   *rate.Limiter
	page      *template.Template
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(s *Server) { s.logger = logging.OrNop(l) }
}

// WithAudit records rejected requests to the audit trail.
func WithAudit(a *audit.Logger) Option {
	return func(s *Server) { s.audit = a }
}

// WithMetrics records request metrics to c and mounts its handler on
// /metrics.
func WithMetrics(c metrics.Collector) Option {
	return func(s *Server) {
		if c != nil {
			s.collector = c
			s.metricsH = c.Handler()
		}
	}
}

// WithHealth mounts the health probes.
func WithHealth(h *health.Handler) Option {
	return func(s *Server) { s.health = h }
}

// WithClock sets the time source for page rendering.
func WithClock(c clock.Clock) Option {
	return func(s *Server) { s.clock = c }
}

// New creates a server for session.
func New(session *dashboard.Session, cfg Config, opts ...Option) *Server {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	s := &Server{
		cfg:       cfg,
		session:   session,
		logger:    logging.NopLogger{},
		collector: &metrics.NopCollector{},
		clock:     clock.Real(),
		page:      pageTemplate,
	}
	for _, opt := range opts {
		opt(s)
	}
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst <= 0 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}
	return s
}

// Router builds the HTTP handler.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.instrument)
	r.Use(compressResponses)

	r.Get("/", s.handlePage)
	r.Group(func(r chi.Router) {
		r.Use(s.limitMutations)
		r.Post("/tickets/{id}/{action}", s.handleTicketForm)
		r.Post("/filters/level", s.handleLevelForm)
		r.Post("/filters/platform", s.handlePlatformForm)
		r.Post("/filters/severity/{severity}", s.handleSeverityForm)
		r.Post("/vulnerabilities/{id}/select", s.handleSelectForm)
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/view", s.handleView)
		r.Get("/metrics", s.handleMetrics)
		r.Group(func(r chi.Router) {
			r.Use(s.limitMutations)
			r.Post("/tickets/{id}/{action}", s.handleTicketAction)
			r.Put("/filters/level", s.handleSetLevel)
			r.Put("/filters/platform", s.handleSetPlatform)
			r.Post("/filters/severity/{severity}/toggle", s.handleToggleSeverity)
			r.Put("/vulnerabilities/active/{id}", s.handleSelectVulnerability)
		})
	})

	if s.metricsH != nil {
		r.Method(http.MethodGet, "/metrics", s.metricsH)
	}
	if s.health != nil {
		health.RegisterRoutes(r, s.health)
	}

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return errors.E(errors.KindConfig, "server.Run", "listen on "+s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Router(),
		ReadHeaderTimeout: s.cfg.ReadHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening on %s", ln.Addr())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return errors.E(errors.KindInternal, "server.Serve", err)
	case <-ctx.Done():
	}

	if s.health != nil {
		s.health.SetReady(false)
	}
	timeout := s.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	s.logger.Info("Shutting down HTTP server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.E(errors.KindInternal, "server.Serve", "shutdown", err)
	}
	return nil
}
