package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"snippetcorpus/internal/application/common/slogger"
	"snippetcorpus/internal/config"
	"snippetcorpus/internal/port/inbound"
)

// Server represents the HTTP API server.
type Server struct {
	config        *config.Config
	httpServer    *http.Server
	routeRegistry *RouteRegistry
	listener      net.Listener
	isRunning     bool
	mu            sync.RWMutex
}

// ServerBuilder provides a fluent interface for building Server instances.
type ServerBuilder struct {
	config           *config.Config
	healthService    inbound.HealthService
	challengeService inbound.ChallengeService
	errorHandler     ErrorHandler
	middleware       []Middleware
}

// NewServerBuilder creates a new ServerBuilder.
func NewServerBuilder(config *config.Config) *ServerBuilder {
	return &ServerBuilder{config: config}
}

// WithHealthService sets the health service.
func (b *ServerBuilder) WithHealthService(service inbound.HealthService) *ServerBuilder {
	b.healthService = service
	return b
}

// WithChallengeService sets the challenge service.
func (b *ServerBuilder) WithChallengeService(service inbound.ChallengeService) *ServerBuilder {
	b.challengeService = service
	return b
}

// WithErrorHandler sets the error handler.
func (b *ServerBuilder) WithErrorHandler(handler ErrorHandler) *ServerBuilder {
	b.errorHandler = handler
	return b
}

// WithMiddleware adds middleware to the chain. The first added is outermost.
func (b *ServerBuilder) WithMiddleware(middleware Middleware) *ServerBuilder {
	b.middleware = append(b.middleware, middleware)
	return b
}

// WithDefaultMiddleware adds the standard middleware chain.
func (b *ServerBuilder) WithDefaultMiddleware() *ServerBuilder {
	timeout := time.Duration(0)
	if b.config != nil {
		timeout = b.config.API.RequestTimeout
	}
	return b.
		WithMiddleware(NewRecoveryMiddleware()).
		WithMiddleware(NewLoggingMiddleware()).
		WithMiddleware(NewCORSMiddleware()).
		WithMiddleware(NewTimeoutMiddleware(timeout))
}

// Build creates the Server instance.
func (b *ServerBuilder) Build() (*Server, error) {
	if err := b.validate(); err != nil {
		return nil, fmt.Errorf("server builder validation failed: %w", err)
	}
	if err := validateServerConfig(b.config); err != nil {
		return nil, err
	}

	registry := NewRouteRegistry()
	registry.RegisterAPIRoutes(
		NewHealthHandler(b.healthService, b.errorHandler),
		NewChallengeHandler(b.challengeService, b.errorHandler),
	)

	handler := NewMiddlewareChain(b.middleware...)(registry.BuildServeMux())

	return &Server{
		config: b.config,
		httpServer: &http.Server{
			Addr:              b.config.API.Address(),
			Handler:           handler,
			ReadTimeout:       b.config.API.ReadTimeout,
			ReadHeaderTimeout: b.config.API.ReadTimeout,
			WriteTimeout:      b.config.API.WriteTimeout,
		},
		routeRegistry: registry,
	}, nil
}

func (b *ServerBuilder) validate() error {
	if b.config == nil {
		return errors.New("config is required")
	}
	if b.healthService == nil {
		return errors.New("health service is required")
	}
	if b.challengeService == nil {
		return errors.New("challenge service is required")
	}
	if b.errorHandler == nil {
		return errors.New("error handler is required")
	}
	return nil
}

// NewServer creates a new API server with the default middleware chain.
func NewServer(
	config *config.Config,
	healthService inbound.HealthService,
	challengeService inbound.ChallengeService,
	errorHandler ErrorHandler,
) (*Server, error) {
	return NewServerBuilder(config).
		WithHealthService(healthService).
		WithChallengeService(challengeService).
		WithErrorHandler(errorHandler).
		WithDefaultMiddleware().
		Build()
}

// Start starts listening and serves in the background.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return errors.New("server is already running")
	}

	listener, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	s.listener = listener
	s.httpServer.Addr = listener.Addr().String()
	s.isRunning = true

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slogger.ErrorNoCtx("HTTP server stopped unexpectedly", slogger.Field("error", err.Error()))
			s.mu.Lock()
			s.isRunning = false
			s.mu.Unlock()
		}
	}()

	slogger.Info(ctx, "HTTP server listening", slogger.Field("address", s.httpServer.Addr))
	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return nil
	}
	s.isRunning = false
	return s.httpServer.Shutdown(ctx)
}

// Address returns the server's listening address.
func (s *Server) Address() string {
	return s.httpServer.Addr
}

// Handler returns the fully wrapped request handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// IsRunning returns whether the server is currently running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// HasRoute checks if a specific route is registered.
func (s *Server) HasRoute(pattern string) bool {
	return s.routeRegistry.HasRoute(pattern)
}

// RouteCount returns the number of registered routes.
func (s *Server) RouteCount() int {
	return s.routeRegistry.RouteCount()
}

func validateServerConfig(config *config.Config) error {
	if config.API.Port != "" && config.API.Port != "0" {
		if port, err := strconv.Atoi(config.API.Port); err != nil || port < 0 || port > 65535 {
			return errors.New("invalid port")
		}
	}
	if config.API.ReadTimeout < 0 || config.API.WriteTimeout < 0 {
		return errors.New("invalid timeout")
	}
	return nil
}
