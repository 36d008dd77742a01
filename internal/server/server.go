// Package server is the composition root: it opens the database, builds
// the services and handlers, mounts them on a chi router and runs the HTTP
// server with graceful shutdown.
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
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sakif/foodgram/internal/auth"
	"github.com/sakif/foodgram/internal/config"
	"github.com/sakif/foodgram/internal/handler"
	"github.com/sakif/foodgram/internal/middleware"
	sqliteRepo "github.com/sakif/foodgram/internal/repository/sqlite"
	"github.com/sakif/foodgram/internal/service"
)

// Server owns the router and the database connection; the connection is
// closed when Start returns.
type Server struct {
	router *chi.Mux
	config *config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB
	tokens *auth.TokenService
	clock  func() time.Time
}

// Option adjusts a Server before its routes are built.
type Option func(*Server)

// WithClock sets the clock that dates shopping list downloads.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.clock = now }
}

func New(cfg *config.Config, logger *slog.Logger, opts ...Option) (*Server, error) {
	tokens, err := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("creating token service: %w", err)
	}

	db, err := sqliteRepo.New(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
		tokens: tokens,
		clock:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.setupRoutes()
	return s, nil
}

// Handler returns the root handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes mounts every route. Middleware order: request id and real IP
// first so the logger and the rate limiter see them, then panic recovery,
// logging and metrics, then CORS and the per-IP limit.
func (s *Server) setupRoutes() {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(middleware.Metrics)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.config.CORS.Origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	s.router.Get("/healthz", handler.NewHealthHandler(s.db, s.logger).HandleHealth)
	s.router.Handle("/metrics", promhttp.Handler())

	userSvc := service.NewUserService(s.db, s.db, s.logger)
	recipeSvc := service.NewRecipeService(s.db, s.db, s.db, s.logger)
	relationSvc := service.NewRelationService(s.db, s.db, s.db, s.logger)
	shoppingSvc := service.NewShoppingService(s.db, s.logger)
	catalogSvc := service.NewCatalogService(s.db, s.logger)

	pager := handler.Pager{DefaultLimit: s.config.API.PageSize, MaxLimit: s.config.API.MaxPageSize}
	recipes := handler.NewRecipeHandler(recipeSvc, relationSvc, shoppingSvc, userSvc, pager, s.logger)
	recipes.Clock = s.clock
	users := handler.NewUserHandler(userSvc, relationSvc, pager, s.logger)
	catalog := handler.NewCatalogHandler(catalogSvc, s.logger)

	s.router.Route("/api", func(r chi.Router) {
		if s.config.RateLimit.Requests > 0 {
			r.Use(httprate.LimitByIP(s.config.RateLimit.Requests, s.config.RateLimit.Window))
		}

		// Readable by anyone; a valid token personalises the flags.
		r.Group(func(r chi.Router) {
			r.Use(auth.OptionalAuth(s.tokens))

			r.Get("/recipes", recipes.HandleList)
			r.Get("/recipes/{id}", recipes.HandleGet)
			r.Get("/users", users.HandleList)
			r.Get("/users/{id}", users.HandleGet)
			r.Get("/tags", catalog.HandleListTags)
			r.Get("/tags/{id}", catalog.HandleGetTag)
			r.Get("/ingredients", catalog.HandleListIngredients)
			r.Get("/ingredients/{id}", catalog.HandleGetIngredient)
		})

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(s.tokens))

			r.Post("/recipes", recipes.HandleCreate)
			r.Patch("/recipes/{id}", recipes.HandleUpdate)
			r.Delete("/recipes/{id}", recipes.HandleDelete)
			r.Post("/recipes/{id}/favorite", recipes.HandleFavorite)
			r.Delete("/recipes/{id}/favorite", recipes.HandleFavorite)
			r.Post("/recipes/{id}/shopping_cart", recipes.HandleShoppingCart)
			r.Delete("/recipes/{id}/shopping_cart", recipes.HandleShoppingCart)
			r.Get("/recipes/download_shopping_cart", recipes.HandleDownloadShoppingCart)

			r.Get("/users/me", users.HandleMe)
			r.Get("/users/subscriptions", users.HandleSubscriptions)
			r.Post("/users/{id}/subscribe", users.HandleSubscribe)
			r.Delete("/users/{id}/subscribe", users.HandleSubscribe)
		})
	})
}

// Start serves until SIGINT or SIGTERM, then drains in-flight requests for
// up to server.shutdown_timeout and closes the database.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Server.Port),
		Handler:      s.router,
		ReadTimeout:  s.config.Server.ReadTimeout,
		WriteTimeout: s.config.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Server.Port),
			slog.String("database", s.config.Database.Path),
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

		ctx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}

// Close releases the database without starting the server.
func (s *Server) Close() error {
	return s.db.Close()
}
