// Package httpapi serves navigation intent resolution and live search over
// HTTP.
package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vango-dev/navintent/internal/config"
	"github.com/vango-dev/navintent/pkg/debounce"
	"github.com/vango-dev/navintent/pkg/deeplink"
	"github.com/vango-dev/navintent/pkg/middleware"
)

// MaxBatchSize is the largest number of URLs accepted by POST /v1/resolve.
const MaxBatchSize = 100

// Options configures a Server.
type Options struct {
	// Resolver maps URLs to routes. Default: deeplink.Default().
	Resolver *deeplink.Resolver

	// AppScheme prefixes /open redirects ("shop" gives shop:///product/55).
	// Empty redirects to the bare route.
	AppScheme string

	// Debounce is the live search delay used when a frame carries none.
	Debounce time.Duration

	// MaxDelay caps client-requested live search delays.
	MaxDelay time.Duration

	// MetricsPath serves Prometheus metrics. Empty disables the endpoint.
	MetricsPath string

	// Namespace is the Prometheus namespace.
	Namespace string

	// TracerName names the OpenTelemetry tracer.
	TracerName string

	// Registry receives the metrics. Default: prometheus.DefaultRegisterer.
	Registry prometheus.Registerer

	// Gatherer backs the metrics endpoint. Default: prometheus.DefaultGatherer.
	Gatherer prometheus.Gatherer

	// ShutdownTimeout bounds Run's graceful shutdown.
	ShutdownTimeout time.Duration

	// Logger receives request and session logs. Default: slog.Default().
	Logger *slog.Logger

	// Clock schedules live search settlements. Default: debounce.SystemClock.
	Clock debounce.Clock
}

// OptionsFromConfig converts a loaded configuration into server options.
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	resolver, err := cfg.NewResolver()
	if err != nil {
		return Options{}, err
	}
	return Options{
		Resolver:        resolver,
		AppScheme:       cfg.Server.AppScheme,
		Debounce:        cfg.DebounceDelay(),
		MaxDelay:        cfg.MaxDebounceDelay(),
		MetricsPath:     cfg.Telemetry.MetricsPath,
		Namespace:       cfg.Telemetry.Namespace,
		TracerName:      cfg.Telemetry.TracerName,
		ShutdownTimeout: cfg.ShutdownTimeout(),
	}, nil
}

// Server is the navintent HTTP service.
type Server struct {
	opts     Options
	logger   *slog.Logger
	router   chi.Router
	upgrader websocket.Upgrader

	mu         sync.Mutex
	sessions   map[*liveSession]struct{}
	httpServer *http.Server
}

// New creates a Server and builds its routes.
func New(opts Options) *Server {
	if opts.Resolver == nil {
		opts.Resolver = deeplink.Default()
	}
	if opts.MaxDelay <= 0 {
		opts.MaxDelay = 5 * time.Second
	}
	if opts.Debounce < 0 {
		opts.Debounce = 0
	}
	if opts.Debounce > opts.MaxDelay {
		opts.Debounce = opts.MaxDelay
	}
	if opts.Namespace == "" {
		opts.Namespace = config.DefaultNamespace
	}
	if opts.TracerName == "" {
		opts.TracerName = config.DefaultTracerName
	}
	if opts.Registry == nil {
		opts.Registry = prometheus.DefaultRegisterer
	}
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.DefaultGatherer
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 10 * time.Second
	}
	if opts.Clock == nil {
		opts.Clock = debounce.SystemClock{}
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		opts:   opts,
		logger: logger.With("component", "httpapi"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		sessions: make(map[*liveSession]struct{}),
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(s.logRequests)
	r.Use(chimw.Recoverer)
	r.Use(middleware.OpenTelemetry(middleware.WithTracerName(s.opts.TracerName)))
	r.Use(middleware.Prometheus(
		middleware.WithNamespace(s.opts.Namespace),
		middleware.WithRegistry(s.opts.Registry),
	))

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Get("/resolve", s.handleResolve)
		r.Post("/resolve", s.handleResolveBatch)
		r.Get("/search/live", s.handleLiveSearch)
	})
	r.Get("/open/*", s.handleOpen)

	if s.opts.MetricsPath != "" {
		r.Method(http.MethodGet, s.opts.MetricsPath, promhttp.HandlerFor(s.opts.Gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

// Handler returns the HTTP handler for the service.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is like Run but accepts connections on ln.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	s.mu.Lock()
	s.httpServer = srv
	s.mu.Unlock()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "address", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err

	case <-ctx.Done():
		s.logger.Info("shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
		defer cancel()
		return s.Shutdown(shutdownCtx)
	}
}

// Shutdown closes live search sessions and stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	sessions := make([]*liveSession, 0, len(s.sessions))
	for ls := range s.sessions {
		sessions = append(sessions, ls)
	}
	srv := s.httpServer
	s.mu.Unlock()

	for _, ls := range sessions {
		ls.closeGoingAway()
	}

	if srv != nil {
		if err := srv.Shutdown(ctx); err != nil {
			s.logger.Error("shutdown error", "error", err)
			return err
		}
	}

	s.logger.Info("server shutdown complete")
	return nil
}

// LiveSessions returns the number of open live search sessions.
func (s *Server) LiveSessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 && !websocket.IsWebSocketUpgrade(r) {
			status = http.StatusOK
		}
		level := slog.LevelDebug
		if status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		s.logger.Log(r.Context(), level, "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"duration", time.Since(start),
			"request_id", chimw.GetReqID(r.Context()),
		)
	})
}
