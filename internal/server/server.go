// Package server wires the application together and runs the HTTP server.
//
// New is the composition root:
//
//	sqlite.DB → UserService / EventService → handlers → chi routes
//
// Each layer only receives what it needs: services get the repository
// interfaces, handlers get the services.
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

	"github.com/sakif/event-board/internal/auth"
	"github.com/sakif/event-board/internal/config"
	"github.com/sakif/event-board/internal/handler"
	"github.com/sakif/event-board/internal/middleware"
	sqliteRepo "github.com/sakif/event-board/internal/repository/sqlite"
	"github.com/sakif/event-board/internal/service"
	"github.com/sakif/event-board/web"
)

// Server owns the router and the database connection.
type Server struct {
	router *chi.Mux
	config *config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New opens the database, builds every dependency and registers the routes.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// Handler returns the router, for tests and for embedding in another server.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the database. Start calls it on shutdown.
func (s *Server) Close() error {
	return s.db.Close()
}

// setupRoutes registers:
//
//	GET       /                     landing page
//	GET/POST  /nuevoEvento          event form (signed in)
//	GET       /myEvents             the user's events (signed in)
//	GET       /allEvents            every event (public)
//	GET/POST  /register             registration (POST rate limited)
//	GET/POST  /login                login (POST rate limited)
//	POST      /logout               ends the session, handled by auth.Logout
//	GET       /auth/github/*        GitHub sign-in, when configured
//	GET       /static/*             CSS
//
// Middleware order: request id, real ip, panic recovery, request log, session.
func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	passwords, err := auth.NewPasswordServiceWithCost(s.config.BcryptCost)
	if err != nil {
		return err
	}
	tokens, err := auth.NewTokenService(s.config.JWTSecret, s.config.SessionTTL)
	if err != nil {
		return err
	}
	s.router.Use(auth.LoadSession(tokens, s.logger))

	templates, static := web.Templates(), web.Static()
	if s.config.TemplateDir != "" {
		templates = os.DirFS(s.config.TemplateDir)
	}
	if s.config.StaticDir != "" {
		static = os.DirFS(s.config.StaticDir)
	}

	views, err := handler.NewViews(templates, s.config.GitHubEnabled(), s.logger)
	if err != nil {
		return err
	}

	userService := service.NewUserService(s.db, passwords, s.config.DefaultRoles, s.logger)
	eventService := service.NewEventService(s.db, s.db, s.logger)

	homeHandler := handler.NewHomeHandler(views)
	eventHandler := handler.NewEventHandler(eventService, views, s.logger)
	userHandler := handler.NewUserHandler(userService, tokens, views, s.config.SecureCookies, s.logger)

	limiter := middleware.NewRateLimiter(middleware.LimiterConfig{
		RPS:   s.config.LoginRateLimit,
		Burst: s.config.LoginRateBurst,
	}, s.logger)

	s.router.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(static))))

	s.router.Get("/", homeHandler.HandleHome)

	s.router.Get("/nuevoEvento", eventHandler.HandleNewEventForm)
	s.router.Post("/nuevoEvento", eventHandler.HandleCreateEvent)
	s.router.Get("/myEvents", eventHandler.HandleMyEvents)
	s.router.Get("/allEvents", eventHandler.HandleAllEvents)

	s.router.Get("/register", userHandler.HandleRegisterForm)
	s.router.With(limiter.Limit).Post("/register", userHandler.HandleRegister)
	s.router.Get("/login", userHandler.HandleLoginForm)
	s.router.With(limiter.Limit).Post("/login", userHandler.HandleLogin)
	s.router.Method(http.MethodPost, "/logout", auth.Logout("/"))

	if s.config.GitHubEnabled() {
		github := auth.NewGitHubProvider(
			s.config.GitHubClientID,
			s.config.GitHubClientSecret,
			s.config.GitHubCallbackURL,
		)
		authHandler := handler.NewAuthHandler(github, userService, tokens, views, s.config.SecureCookies, s.logger)
		s.router.Route("/auth/github", func(r chi.Router) {
			r.Get("/login", authHandler.HandleGitHubLogin)
			r.Get("/callback", authHandler.HandleGitHubCallback)
		})
		s.logger.Info("GitHub sign-in enabled", slog.String("callback", s.config.GitHubCallbackURL))
	}

	s.router.NotFound(views.NotFound)

	return nil
}

// Start serves until SIGINT or SIGTERM, then gives in-flight requests 30
// seconds to finish and closes the database.
func (s *Server) Start() error {
	defer s.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
			slog.String("database", s.config.DBPath),
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
