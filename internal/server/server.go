// Package server wires the application together: database, services,
// handlers, routes, and the HTTP server lifecycle. It is the composition
// root; nothing else in the codebase constructs cross-layer dependencies.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/goalraiders/goalraiders/internal/auth"
	"github.com/goalraiders/goalraiders/internal/config"
	"github.com/goalraiders/goalraiders/internal/handler"
	"github.com/goalraiders/goalraiders/internal/middleware"
	sqliteRepo "github.com/goalraiders/goalraiders/internal/repository/sqlite"
	"github.com/goalraiders/goalraiders/internal/service"
)

// Server owns the router, the configuration, and the database handle. The
// database is closed during graceful shutdown in Start.
type Server struct {
	router *chi.Mux
	config config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New builds the full dependency graph and the route tree.
//
// The wiring runs strictly bottom-up: database, repositories, services,
// handlers. Each layer receives only the layer below it, so a handler can
// never reach around its service into SQL.
func New(cfg config.Config, logger *slog.Logger) (*Server, error) {
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

// setupRoutes mounts middleware and every route.
//
// Route tree:
//
//	GET  /healthz                      → liveness probe
//	POST /auth/register                → create password account
//	POST /auth/login                   → password login
//	GET  /auth/google/login            → start Google OAuth (if configured)
//	GET  /auth/google/callback         → finish Google OAuth
//	/api/**                            → bearer-token protected:
//	  GET  /api/users/me               → profile (provisions on first call)
//	  PUT  /api/users/me               → update profile
//	  POST /api/users/me/experience    → grant XP
//	  GET  /api/config/game            → balance tables
//	  CRUD /api/goals, /api/goals/{id} → goal engine
//	  POST /api/goals/{id}/damage      → manual damage
//	  POST /api/goals/{id}/defeat      → manual defeat
//	  POST /api/goals/{id}/revive      → revive
//	  CRUD /api/tasks, /api/tasks/{id} → task engine
//	  POST /api/tasks/{id}/complete    → completion state machine
func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	tokens, err := auth.NewTokenService(s.config.JWTSecret)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	passwords := auth.NewPasswordService()

	var google *auth.GoogleProvider
	if s.config.GoogleClientID != "" && s.config.GoogleClientSecret != "" {
		callback := s.config.GoogleCallbackURL
		if callback == "" {
			callback = fmt.Sprintf("http://localhost:%d/auth/google/callback", s.config.Port)
		}
		google = auth.NewGoogleProvider(s.config.GoogleClientID, s.config.GoogleClientSecret, callback)
	} else {
		s.logger.Warn("Google OAuth not configured, /auth/google routes disabled")
	}

	users := service.NewUserService(s.db.Users(), s.logger)
	goals := service.NewGoalService(s.db.Goals(), s.db.Tasks(), users, s.config.Game, s.logger)
	tasks := service.NewTaskService(s.db.Tasks(), goals, users, s.logger)
	authService := service.NewAuthService(s.db.Users(), tokens, passwords, s.logger)

	userHandler := handler.NewUserHandler(users, s.logger)
	goalHandler := handler.NewGoalHandler(goals, s.logger)
	taskHandler := handler.NewTaskHandler(tasks, s.logger)
	authHandler := handler.NewAuthHandler(authService, google, s.logger)
	gameHandler := handler.NewGameConfigHandler(s.config.Game)

	s.router.Route("/auth", func(r chi.Router) {
		r.Post("/register", authHandler.HandleRegister)
		r.Post("/login", authHandler.HandleLogin)
		if authHandler.GoogleConfigured() {
			r.Get("/google/login", authHandler.HandleGoogleLogin)
			r.Get("/google/callback", authHandler.HandleGoogleCallback)
		}
	})

	s.router.Route("/api", func(r chi.Router) {
		r.Use(auth.RequireAuth(tokens))

		r.Get("/users/me", userHandler.HandleMe)
		r.Put("/users/me", userHandler.HandleUpdateMe)
		r.Post("/users/me/experience", userHandler.HandleAddExperience)

		r.Get("/config/game", gameHandler.HandleGet)

		r.Get("/goals", goalHandler.HandleList)
		r.Post("/goals", goalHandler.HandleCreate)
		r.Get("/goals/{id}", goalHandler.HandleGet)
		r.Put("/goals/{id}", goalHandler.HandleUpdate)
		r.Delete("/goals/{id}", goalHandler.HandleDelete)
		r.Post("/goals/{id}/damage", goalHandler.HandleDamage)
		r.Post("/goals/{id}/defeat", goalHandler.HandleDefeat)
		r.Post("/goals/{id}/revive", goalHandler.HandleRevive)

		r.Get("/tasks", taskHandler.HandleList)
		r.Post("/tasks", taskHandler.HandleCreate)
		r.Get("/tasks/{id}", taskHandler.HandleGet)
		r.Put("/tasks/{id}", taskHandler.HandleUpdate)
		r.Delete("/tasks/{id}", taskHandler.HandleDelete)
		r.Post("/tasks/{id}/complete", taskHandler.HandleComplete)
	})

	return nil
}

// Start runs the HTTP server until SIGINT/SIGTERM, then shuts down
// gracefully: stop accepting connections, give in-flight requests 30
// seconds, close the database.
func (s *Server) Start() error {
	defer s.db.Close()

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
			slog.String("database", s.config.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
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
