// Package server is the composition root: it builds the services and
// handlers from injected infrastructure, mounts the routes and runs the
// HTTP server until a shutdown signal arrives.
//
//	main.go → storage.Open, redis, amqp ─┐
//	                                     ▼
//	server.New → services → handlers → chi router
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
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/sakif/bookmarks/internal/apperror"
	"github.com/sakif/bookmarks/internal/auth"
	"github.com/sakif/bookmarks/internal/cache"
	"github.com/sakif/bookmarks/internal/config"
	"github.com/sakif/bookmarks/internal/events"
	"github.com/sakif/bookmarks/internal/handler"
	"github.com/sakif/bookmarks/internal/middleware"
	"github.com/sakif/bookmarks/internal/repository"
	"github.com/sakif/bookmarks/internal/service"
)

// Deps is the infrastructure the server is built from. Only Store is
// required.
type Deps struct {
	Store repository.Store

	// Redis backs the structure cache and the rate limiter. Nil disables
	// both.
	Redis *redis.Client

	// Publisher receives change events. Nil logs them instead.
	Publisher events.Publisher

	// GitHub enables the OAuth sign-in routes when set.
	GitHub handler.GitHubProvider
}

// Server owns the router and, once started, every piece of infrastructure
// in Deps; Start closes them on the way out.
type Server struct {
	router *chi.Mux
	config config.Config
	deps   Deps
	logger *slog.Logger
}

func New(cfg config.Config, deps Deps, logger *slog.Logger) (*Server, error) {
	if deps.Store == nil {
		return nil, errors.New("server: store is required")
	}
	if deps.Publisher == nil {
		deps.Publisher = events.NewLogPublisher(logger)
	}

	tokens, err := auth.NewTokenService(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("creating token service: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		deps:   deps,
		logger: logger,
	}
	s.setupRoutes(tokens)
	return s, nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes wires services to handlers and mounts every route twice: at
// the root and under /v0.
//
//	GET    /healthz                → storage ping
//	GET    /users/{id}/structure   → folder tree (public)
//	POST   /register, /login       → accounts (rate limited)
//	GET    /auth/github/*          → optional GitHub sign-in
//	POST   /folders, /bookmarks    → create (bearer)
//	DELETE /folders/{id}, ...      → delete own records (bearer)
//	GET    /me, /export            → bearer
//	POST   /bookmarks/import       → bearer
//
// Middleware order: RequestID, RealIP, Logger, Recoverer, CORS. Recoverer
// sits inside Logger so a panic is still logged as a 500.
func (s *Server) setupRoutes(tokens *auth.TokenService) {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.CORS(s.config.CORSOrigins))

	// === Services ===
	store := s.deps.Store
	var structureCache service.StructureCache = service.NoCache{}
	var limiter middleware.Limiter
	if s.deps.Redis != nil {
		structureCache = cache.NewStructure(s.deps.Redis, s.config.CacheTTL)
		if s.config.RateLimit.Enabled {
			limiter = middleware.NewRedisLimiter(s.deps.Redis, s.config.RateLimit.Capacity, s.config.RateLimit.RefillInterval)
		}
	}
	publisher := s.deps.Publisher
	passwords := auth.NewPasswordService(s.config.BcryptCost)

	authService := service.NewAuthService(store, tokens, passwords, s.config.RegistrationEnabled, publisher, s.logger)
	folderService := service.NewFolderService(store, structureCache, publisher, s.logger)
	bookmarkService := service.NewBookmarkService(store, store, structureCache, publisher, s.logger)
	structureService := service.NewStructureService(store, store, structureCache, s.logger)
	transferService := service.NewTransferService(store, store, structureCache, publisher, s.logger)

	// === Handlers ===
	authHandler := handler.NewAuthHandler(authService, s.deps.GitHub, s.logger)
	folderHandler := handler.NewFolderHandler(folderService, s.logger)
	bookmarkHandler := handler.NewBookmarkHandler(bookmarkService, s.logger)
	structureHandler := handler.NewStructureHandler(structureService, s.logger)
	transferHandler := handler.NewTransferHandler(transferService, s.logger)
	healthHandler := handler.NewHealthHandler(store, s.logger)

	requireAuth := auth.RequireAuth(tokens, handler.WriteError)
	rateLimit := middleware.RateLimit(limiter, s.config.RateLimit.Capacity, s.logger, handler.WriteError)

	routes := func(r chi.Router) {
		r.Get("/healthz", healthHandler.HandleHealth)
		r.Get("/users/{id}/structure", structureHandler.HandleGet)

		r.Group(func(r chi.Router) {
			r.Use(rateLimit)
			r.Post("/register", authHandler.HandleRegister)
			r.Post("/login", authHandler.HandleLogin)
		})

		r.Get("/auth/github/login", authHandler.HandleGitHubLogin)
		r.Get("/auth/github/callback", authHandler.HandleGitHubCallback)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Use(middleware.TagUser)

			r.Get("/me", authHandler.HandleMe)
			r.Get("/export", transferHandler.HandleExport)

			r.Post("/folders", folderHandler.HandleCreate)
			r.Delete("/folders/{id}", folderHandler.HandleDelete)

			r.Post("/bookmarks", bookmarkHandler.HandleCreate)
			r.Post("/bookmarks/import", transferHandler.HandleImport)
			r.Delete("/bookmarks/{id}", bookmarkHandler.HandleDelete)
		})
	}

	s.router.Group(routes)
	s.router.Route("/v0", routes)

	s.router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		handler.WriteError(w, &apperror.AppError{Err: apperror.ErrNotFound, Message: "Route not found"})
	})
}

// Start serves until SIGINT or SIGTERM, then drains in-flight requests for
// up to 30 seconds and closes the infrastructure in Deps.
func (s *Server) Start() error {
	defer s.closeDeps()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("storage", s.config.Storage.Backend),
			slog.Bool("registration", s.config.RegistrationEnabled),
			slog.Bool("redis", s.deps.Redis != nil),
			slog.Bool("github", s.deps.GitHub != nil),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}

func (s *Server) closeDeps() {
	if err := s.deps.Publisher.Close(); err != nil {
		s.logger.Warn("closing event publisher", slog.String("error", err.Error()))
	}
	if s.deps.Redis != nil {
		if err := s.deps.Redis.Close(); err != nil {
			s.logger.Warn("closing redis", slog.String("error", err.Error()))
		}
	}
	if err := s.deps.Store.Close(); err != nil {
		s.logger.Warn("closing storage", slog.String("error", err.Error()))
	}
}
