// Package admin serves the management REST API: operator login, processor
// status and statistics, field table inspection and reload, network
// management triggers and a websocket event stream. Authentication is JWT
// over a static user list from the configuration file.
package admin

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/nilm987521/gofep/internal/admin/auth"
	"github.com/nilm987521/gofep/internal/logger"
)

// Config holds the admin server settings.
type Config struct {
	// Host is the interface to bind; empty means all.
	Host string

	// Port is the TCP port to listen on.
	Port int

	// JWTSecret signs access and refresh tokens. Must be at least 32
	// characters.
	JWTSecret string

	// AccessTokenDuration is the access token lifetime.
	AccessTokenDuration time.Duration

	// RefreshTokenDuration is the refresh token lifetime.
	RefreshTokenDuration time.Duration

	// ReadTimeout, WriteTimeout and IdleTimeout configure the HTTP server.
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// Users is the static operator list.
	Users []auth.UserSpec
}

func (c *Config) applyDefaults() {
	if c.Port == 0 {
		c.Port = 8080
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 10 * time.Second
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 10 * time.Second
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = 60 * time.Second
	}
}

// Server provides the management HTTP server.
//
// The server exposes health probes, Prometheus metrics and the
// authenticated management API. It supports graceful shutdown and is safe
// to stop more than once.
type Server struct {
	server       *http.Server
	config       Config
	runtime      *Runtime
	jwtService   *auth.JWTService
	users        *auth.StaticStore
	shutdownOnce sync.Once
}

// NewServer creates the admin HTTP server in a stopped state. Call Start to
// begin serving.
//
// The JWT service and the user store are created here from the config. The
// JWT secret must be at least 32 characters; `gofep config init` generates
// one, or it can be injected through the GOFEP_ADMIN_JWT_SECRET environment
// variable.
func NewServer(cfg Config, rt *Runtime) (*Server, error) {
	cfg.applyDefaults()

	if len(cfg.JWTSecret) < 32 {
		return nil, fmt.Errorf("admin JWT secret must be at least 32 characters; set admin.jwt_secret or the GOFEP_ADMIN_JWT_SECRET environment variable")
	}
	jwtService, err := auth.NewJWTService(auth.JWTConfig{
		Secret:               cfg.JWTSecret,
		Issuer:               "gofep",
		AccessTokenDuration:  cfg.AccessTokenDuration,
		RefreshTokenDuration: cfg.RefreshTokenDuration,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create JWT service: %w", err)
	}

	users, err := auth.NewStaticStore(cfg.Users)
	if err != nil {
		return nil, fmt.Errorf("invalid admin users: %w", err)
	}
	if users.Count() == 0 {
		logger.Warn("admin API has no users configured, nobody can log in",
			"hint", "add entries under admin.users")
	}

	if rt == nil {
		rt = &Runtime{}
	}
	if rt.StartedAt.IsZero() {
		rt.StartedAt = time.Now()
	}

	router := NewRouter(rt, jwtService, users)

	server := &http.Server{
		Addr:         net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &Server{
		server:     server,
		config:     cfg,
		runtime:    rt,
		jwtService: jwtService,
		users:      users,
	}, nil
}

// Start starts the admin HTTP server and blocks until the context is
// cancelled or an error occurs. Cancellation triggers graceful shutdown;
// Start returns nil in that case.
func (s *Server) Start(ctx context.Context) error {
	errChan := make(chan error, 1)
	go func() {
		logger.Info("admin API listening", "address", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			select {
			case errChan <- err:
			default:
			}
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("admin API shutdown signal received")
		// Fresh context: the cancelled one would abort the drain immediately.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.Stop(shutdownCtx)
	case err := <-errChan:
		return fmt.Errorf("admin API server failed: %w", err)
	}
}

// Stop initiates graceful shutdown. Safe to call multiple times and
// concurrently with Start.
func (s *Server) Stop(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		logger.Debug("admin API shutdown initiated")

		if err := s.server.Shutdown(ctx); err != nil {
			shutdownErr = fmt.Errorf("admin API shutdown error: %w", err)
			logger.Error("admin API shutdown error", "error", err)
		} else {
			logger.Info("admin API stopped gracefully")
		}
	})
	return shutdownErr
}

// Port returns the TCP port the server is configured with.
func (s *Server) Port() int {
	return s.config.Port
}

// Handler exposes the router, mainly for tests driving the API through
// httptest.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}
