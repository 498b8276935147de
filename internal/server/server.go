// Package server wires storage, services, handlers, and background workers
// into a runnable HTTP server.
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
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/ThomasConrad/PlantTracker/internal/auth"
	"github.com/ThomasConrad/PlantTracker/internal/handler"
	"github.com/ThomasConrad/PlantTracker/internal/middleware"
	"github.com/ThomasConrad/PlantTracker/internal/repository/sqlite"
	"github.com/ThomasConrad/PlantTracker/internal/scheduler"
	"github.com/ThomasConrad/PlantTracker/internal/service"
	"github.com/ThomasConrad/PlantTracker/internal/thumbnail"
)

const shutdownTimeout = 10 * time.Second

// Config holds the server's runtime configuration.
type Config struct {
	Port             string
	DBPath           string
	BaseURL          string
	ThumbnailWorkers int
}

// Server is the assembled application.
type Server struct {
	cfg       Config
	logger    *slog.Logger
	db        *sqlite.DB
	router    chi.Router
	generator *thumbnail.Generator
	janitor   *scheduler.Janitor
}

// New opens the database and wires every layer together.
func New(cfg Config, logger *slog.Logger) (*Server, error) {
	db, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("server: opening database: %w", err)
	}

	generator := thumbnail.NewGenerator(db, logger, cfg.ThumbnailWorkers)
	janitor := scheduler.NewJanitor(db, logger)

	passwords := auth.NewPasswordService()
	authService := service.NewAuthService(db, db, passwords, logger)
	plantService := service.NewPlantService(db, db, logger)
	photoService := service.NewPhotoService(db, db, generator, logger)
	calendarService := service.NewCalendarService(db, db, cfg.BaseURL, logger)

	authHandler := handler.NewAuthHandler(authService, logger)
	plantHandler := handler.NewPlantHandler(plantService, logger)
	photoHandler := handler.NewPhotoHandler(photoService, logger)
	calendarHandler := handler.NewCalendarHandler(calendarService, logger)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(logger))
	r.Use(chimw.Recoverer)

	r.Route("/api/v1", func(r chi.Router) {
		// Public: account entry points and the feed, which calendar
		// clients fetch without cookies.
		r.Post("/auth/register", authHandler.HandleRegister)
		r.Post("/auth/login", authHandler.HandleLogin)
		r.Post("/auth/logout", authHandler.HandleLogout)
		r.Get("/calendar/{userID}.ics", calendarHandler.HandleFeed)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireSession(db, logger))

			r.Get("/auth/me", authHandler.HandleMe)

			r.Route("/plants", func(r chi.Router) {
				r.Get("/", plantHandler.HandleList)
				r.Post("/", plantHandler.HandleCreate)

				r.Route("/{plantID}", func(r chi.Router) {
					r.Get("/", plantHandler.HandleGet)
					r.Put("/", plantHandler.HandleUpdate)
					r.Patch("/", plantHandler.HandleUpdate)
					r.Delete("/", plantHandler.HandleDelete)
					r.Post("/water", plantHandler.HandleMarkWatered)
					r.Post("/fertilize", plantHandler.HandleMarkFertilized)
					r.Put("/thumbnail/{photoID}", plantHandler.HandleSetThumbnail)

					r.Route("/photos", func(r chi.Router) {
						r.Get("/", photoHandler.HandleList)
						r.Post("/", photoHandler.HandleUpload)
						r.Get("/{photoID}", photoHandler.HandleServe)
						r.Delete("/{photoID}", photoHandler.HandleDelete)
						r.Get("/{photoID}/thumbnail", photoHandler.HandleServeThumbnail)
					})
				})
			})

			r.Route("/calendar", func(r chi.Router) {
				r.Get("/subscription", calendarHandler.HandleSubscription)
				r.Post("/regenerate-token", calendarHandler.HandleRegenerateToken)
			})
		})
	})

	return &Server{
		cfg:       cfg,
		logger:    logger,
		db:        db,
		router:    r,
		generator: generator,
		janitor:   janitor,
	}, nil
}

// Router exposes the assembled handler, mainly for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start runs the background workers and serves HTTP until SIGINT/SIGTERM,
// then shuts everything down in order: HTTP first, then workers, then the
// database.
func (s *Server) Start() error {
	s.generator.Start()
	if err := s.janitor.Start(); err != nil {
		return fmt.Errorf("server: starting janitor: %w", err)
	}

	httpServer := &http.Server{
		Addr:         ":" + s.cfg.Port,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", slog.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server: listening: %w", err)
	case sig := <-quit:
		s.logger.Info("shutting down", slog.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("graceful shutdown failed", slog.String("error", err.Error()))
	}

	s.janitor.Stop()
	s.generator.Stop()

	if err := s.db.Close(); err != nil {
		return fmt.Errorf("server: closing database: %w", err)
	}

	s.logger.Info("server stopped")
	return nil
}
