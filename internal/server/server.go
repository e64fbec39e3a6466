package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/foliodev/folio/internal/handler"
	"github.com/foliodev/folio/internal/mcp"
	"github.com/foliodev/folio/internal/server/middleware"
	"github.com/foliodev/folio/internal/service"
	"github.com/foliodev/folio/internal/storage"
	"github.com/foliodev/folio/internal/store"
)

// Config holds the HTTP server configuration.
type Config struct {
	Host            string
	Port            int
	ShutdownTimeout time.Duration
	CORSOrigins     []string
	MaxBodySize     int64 // bytes, JSON bodies only; uploads have their own limit
	PublicRateLimit int   // requests per minute per client on the public API, 0 disables
	SecureCookie    bool
	TrustCFHeader   bool   // key limits on CF-Connecting-IP; only safe behind Cloudflare
	BaseURL         string // advertised in /openapi.json
	Version         string
}

// DefaultConfig returns a Config with sensible production defaults.
func DefaultConfig() Config {
	return Config{
		Host:            "0.0.0.0",
		Port:            8080,
		ShutdownTimeout: 30 * time.Second,
		CORSOrigins:     []string{"*"},
		MaxBodySize:     1 << 20, // 1MB
		PublicRateLimit: 120,
		Version:         "dev",
	}
}

// Deps are the services the server routes requests to. Objects may be nil
// when object storage is not configured.
type Deps struct {
	Store   store.Store
	Auth    *service.AuthService
	Login   *service.LoginService
	Objects storage.ObjectStore
}

// Server is the top-level HTTP server for Folio. It owns the Chi router and
// the services the handlers share.
type Server struct {
	cfg        Config
	deps       Deps
	router     chi.Router
	httpServer *http.Server
	logger     *slog.Logger
}

// New creates a new Server, wires up all routes and middleware, and returns
// it ready to listen. Call ListenAndServe to start accepting connections.
func New(cfg Config, deps Deps, logger *slog.Logger) *Server {
	s := &Server{
		cfg:    cfg,
		deps:   deps,
		logger: logger,
	}
	s.setupRouter()
	return s
}

func (s *Server) setupRouter() {
	r := chi.NewRouter()

	// --- Global middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.ClientAddr(s.cfg.TrustCFHeader))
	r.Use(middleware.Logger(s.logger))
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With", "Mcp-Session-Id"},
		ExposedHeaders:   []string{"X-Request-ID", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(chimw.Compress(5))

	// --- Health checks (no auth required) ---
	r.Get("/healthz", s.handleHealthz)
	r.Get("/readyz", s.handleReadyz)

	r.Get("/openapi.json", handler.NewOpenAPIHandler(s.cfg.BaseURL, s.logger).ServeSpec)

	contentH := handler.NewContentHandler(s.deps.Store, s.logger)
	authH := handler.NewAuthHandler(s.deps.Login, s.deps.Store, s.cfg.SecureCookie, s.logger)
	projectH := handler.NewProjectHandler(s.deps.Store, s.logger)
	uploadH := handler.NewUploadHandler(s.deps.Objects, s.logger)
	mcpH := mcp.NewMCPServer(s.deps.Store, s.cfg.Version, s.logger).Handler()

	r.Route("/api", func(r chi.Router) {

		// Public portfolio content
		r.Group(func(r chi.Router) {
			if s.cfg.PublicRateLimit > 0 {
				r.Use(middleware.RateLimit(s.cfg.PublicRateLimit))
			}
			r.Get("/profile", contentH.Profile)
			r.Get("/projects", contentH.ListProjects)
			r.Get("/projects/{id}", contentH.GetProject)
			r.Get("/skills", contentH.Skills)
			r.Get("/contact", contentH.Contact)
		})

		r.Route("/admin", func(r chi.Router) {

			// Session endpoints are unauthenticated; login throttles itself
			r.Group(func(r chi.Router) {
				r.Use(limitBody(s.cfg.MaxBodySize))
				r.Post("/auth/login", authH.Login)
				r.Post("/auth/logout", authH.Logout)
			})

			// Everything else requires a valid session
			r.Group(func(r chi.Router) {
				r.Use(middleware.Authenticate(s.deps.Auth))

				r.Group(func(r chi.Router) {
					r.Use(limitBody(s.cfg.MaxBodySize))
					r.Get("/auth/me", authH.Me)

					r.Get("/projects", projectH.ListProjects)
					r.Post("/projects", projectH.CreateProject)
					r.Get("/projects/{id}", projectH.GetProject)
					r.Put("/projects/{id}", projectH.UpdateProject)
					r.Delete("/projects/{id}", projectH.DeleteProject)

					r.Post("/upload/delete", uploadH.DeleteImage)
					r.Post("/upload/fix-policy", uploadH.FixPolicy)
				})

				r.Post("/upload/image", uploadH.UploadImage)
				r.Handle("/mcp", mcpH)
			})
		})
	})

	s.router = r
}

// limitBody caps request bodies at n bytes. n <= 0 disables the limit.
func limitBody(n int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if n > 0 && r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, n)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// handleHealthz is a liveness probe. Returns 200 if the process is running.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

// handleReadyz is a readiness probe. Returns 200 when the store answers a
// ping, or 503 otherwise.
func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	httpStatus := http.StatusOK
	checks := map[string]string{"store": "ok"}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	if err := s.deps.Store.Ping(ctx); err != nil {
		s.logger.Warn("readiness check failed", "error", err)
		checks["store"] = "unreachable"
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}
	if s.deps.Objects == nil {
		checks["storage"] = "disabled"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status": status,
		"checks": checks,
	})
}

// ListenAndServe starts the HTTP server and blocks until a SIGINT or SIGTERM
// is received. It then performs a graceful shutdown, draining in-flight
// requests. Closing the store is left to the caller.
func (s *Server) ListenAndServe() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Listen for shutdown signals
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "addr", addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server listen: %w", err)
	case <-ctx.Done():
		s.logger.Info("shutdown signal received, draining connections...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	s.logger.Info("server stopped")
	return nil
}

// Router returns the underlying Chi router, useful for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// ServeHTTP implements http.Handler, delegating to the router.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
