package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/feastflow/storefront/internal/domain/order"
)

// DefaultAddr keeps the status server local.
const DefaultAddr = "127.0.0.1:9464"

// Server is the status HTTP server.
type Server struct {
	registry      *prometheus.Registry
	addr          string
	logger        *slog.Logger
	healthChecker *HealthChecker
	orders        *order.View
	metrics       *Metrics

	server   *http.Server
	listener net.Listener
}

// Option is a functional option for configuring Server.
type Option func(*Server)

// WithAddr sets the listen address. Default is DefaultAddr.
func WithAddr(addr string) Option {
	return func(s *Server) {
		if addr != "" {
			s.addr = addr
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithHealthChecker sets the health checker for the /health endpoint.
func WithHealthChecker(hc *HealthChecker) Option {
	return func(s *Server) {
		s.healthChecker = hc
	}
}

// WithOrders exposes view at /orders.
func WithOrders(view *order.View) Option {
	return func(s *Server) {
		s.orders = view
	}
}

// NewServer creates a status server exposing reg. The server's own request
// metrics are registered on reg as well.
func NewServer(reg *prometheus.Registry, opts ...Option) *Server {
	s := &Server{
		registry: reg,
		addr:     DefaultAddr,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.healthChecker == nil {
		s.healthChecker = NewHealthChecker(nil, nil, s.orders, "")
	}
	s.metrics = NewMetrics(reg)
	return s
}

// Handler builds the router.
// Middleware order (outermost first): Recoverer, Metrics, RequestID.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(MetricsMiddleware(s.metrics))
	r.Use(RequestIDMiddleware(s.logger))

	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{
		Registry: s.registry,
	}))
	r.Method(http.MethodGet, "/health", s.healthChecker.Handler())
	r.Get("/orders", s.handleOrders)
	return r
}

func (s *Server) handleOrders(w http.ResponseWriter, r *http.Request) {
	if s.orders == nil {
		http.Error(w, "no orders are being watched", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.orders.Orders()); err != nil {
		LoggerFromContext(r.Context()).Warn("failed to write orders", "error", err)
	}
}

// Addr returns the bound address once Start is listening, else the
// configured one.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

// Listen binds the listen address. Start calls it when needed.
func (s *Server) Listen() error {
	if s.listener != nil {
		return nil
	}
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.listener = ln
	return nil
}

// Start serves until ctx is cancelled or the server fails.
func (s *Server) Start(ctx context.Context) error {
	if err := s.Listen(); err != nil {
		return err
	}

	s.server = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting status server", "addr", s.Addr())
		err := s.server.Serve(s.listener)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		return s.shutdown()
	case err := <-errCh:
		return err
	}
}

// shutdown performs graceful shutdown of the HTTP server.
func (s *Server) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		s.logger.Error("error during status server shutdown", "error", err)
		return err
	}
	s.logger.Info("status server shutdown complete")
	return nil
}
