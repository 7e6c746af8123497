package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/chidiebere/linkrotor/internal/admin"
	"github.com/chidiebere/linkrotor/internal/config"
	"github.com/chidiebere/linkrotor/internal/httpx"
	"github.com/chidiebere/linkrotor/internal/resolver"
)

// Server represents the HTTP server with all dependencies.
type Server struct {
	config    *config.Config
	logger    *slog.Logger
	redirects *resolver.Handler
	admin     *admin.Handler
	server    *http.Server
}

// New creates a new Server instance.
func New(cfg *config.Config, logger *slog.Logger, redirects *resolver.Handler, adminHandler *admin.Handler) *Server {
	return &Server{
		config:    cfg,
		logger:    logger,
		redirects: redirects,
		admin:     adminHandler,
	}
}

// Start starts the HTTP server and blocks until shutdown.
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%s", s.config.Server.Host, s.config.Server.Port),
		Handler:      s.Handler(),
		ReadTimeout:  s.config.Server.ReadTimeout,
		WriteTimeout: s.config.Server.WriteTimeout,
		IdleTimeout:  s.config.Server.IdleTimeout,
	}

	// Listen for errors from the server
	serverErrors := make(chan error, 1)

	// Start server in a goroutine
	go func() {
		s.logger.Info("starting http server",
			"addr", s.server.Addr,
			"env", s.config.App.Environment,
		)
		serverErrors <- s.server.ListenAndServe()
	}()

	// Listen for interrupt signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		s.logger.Info("received shutdown signal", "signal", sig.String())

		// Create context with timeout for shutdown
		ctx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout)
		defer cancel()

		// Attempt graceful shutdown
		if err := s.server.Shutdown(ctx); err != nil {
			// Force close if graceful shutdown fails
			if closeErr := s.server.Close(); closeErr != nil {
				return fmt.Errorf("failed to close server: %w", closeErr)
			}
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}

		s.logger.Info("server stopped gracefully")
		return nil
	}
}

// Handler returns the fully composed HTTP handler: routes plus the
// middleware stack. Exposed so tests can drive the server in-process.
func (s *Server) Handler() http.Handler {
	return s.applyMiddleware(s.setupRoutes())
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// Health check endpoint
	mux.HandleFunc("GET /x/health", s.healthCheckHandler)

	// Management API, behind basic auth
	auth := httpx.BasicAuth(
		s.config.Admin.Username,
		s.config.Admin.Password,
		s.config.Admin.Realm,
		s.logger,
	)
	mux.Handle("GET /api/accounts", auth(http.HandlerFunc(s.admin.ListAccounts)))
	mux.Handle("POST /api/accounts", auth(http.HandlerFunc(s.admin.CreateAccount)))
	mux.Handle("DELETE /api/accounts/{id}", auth(http.HandlerFunc(s.admin.DeleteAccount)))
	mux.Handle("POST /api/stats/reset", auth(http.HandlerFunc(s.admin.ResetStats)))
	mux.Handle("GET /api/accesslog", auth(http.HandlerFunc(s.admin.RecentAccesses)))

	// Public redirect surface. The root path rotates across accounts;
	// anything else is matched as an alias.
	mux.HandleFunc("GET /{$}", s.redirects.Redirect)
	mux.HandleFunc("GET /{alias}", s.redirects.Redirect)

	return mux
}

// applyMiddleware wraps the handler with middleware in the correct order.
func (s *Server) applyMiddleware(handler http.Handler) http.Handler {
	return httpx.Chain(
		httpx.Recovery(s.logger), // Outermost: catch panics
		httpx.RequestID,          // Add request ID
		httpx.Logger(s.logger),   // Log requests
		httpx.CORS(nil),          // CORS headers (allow all in dev)
	)(handler)
}

// healthCheckHandler handles health check requests.
func (s *Server) healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"env":    s.config.App.Environment,
	})
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}

	s.logger.Info("shutting down server")

	if err := s.server.Shutdown(ctx); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			s.logger.Warn("shutdown timeout exceeded, forcing close")
			return s.server.Close()
		}
		return err
	}

	return nil
}
