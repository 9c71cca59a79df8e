package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"nutrition-tracker-backend/internal/config"
	"nutrition-tracker-backend/internal/handlers"
	"nutrition-tracker-backend/internal/middleware"
	"nutrition-tracker-backend/internal/repository"
	"nutrition-tracker-backend/internal/services"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func Run() {
	// Load configuration
	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Setup logger
	setupLogger(cfg.Log.Level)

	loc, err := cfg.App.Location()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid timezone")
	}

	// Connect to database
	db, err := pgxpool.New(context.Background(), cfg.Database.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	// Test database connection
	if err := db.Ping(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to ping database")
	}
	log.Info().Msg("Database connection established")

	if cfg.Database.Migrate {
		if err := repository.Migrate(context.Background(), db); err != nil {
			log.Fatal().Err(err).Msg("Failed to migrate database")
		}
		log.Info().Msg("Database schema up to date")
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	goalRepo := repository.NewGoalRepository(db)
	foodRepo := repository.NewFoodLogRepository(db)

	// Initialize services
	wsHub := services.NewWSHub()
	sessions := services.NewSessionManager(goalRepo, foodRepo, loc, wsHub.Publish)
	userService := services.NewUserService(userRepo, cfg.JWT.Secret, cfg.JWT.Expiry)
	analyzer := services.NewAnalysisSimulator(cfg.App.AnalysisDelay, nil)
	photoService, err := services.NewPhotoService(context.Background(), cfg.AWS)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create photo service")
	}

	scheduler := services.NewScheduler(sessions, loc, cfg.App.SessionIdleTTL)
	if err := scheduler.Start(); err != nil {
		log.Fatal().Err(err).Msg("Failed to start scheduler")
	}

	r := newRouter(routerDeps{
		users:    userService,
		sessions: sessions,
		hub:      wsHub,
		analyzer: analyzer,
		photos:   photoService,
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: r,
		// analysis requests hold the response for the simulated delay
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15*time.Second + cfg.App.AnalysisDelay,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("host", cfg.Server.Host).
			Int("port", cfg.Server.Port).
			Str("timezone", loc.String()).
			Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	// Shutdown HTTP server
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	scheduler.Stop()
	sessions.CloseAll()

	log.Info().Msg("Server exited")
}

type routerDeps struct {
	users    *services.UserService
	sessions *services.SessionManager
	hub      *services.WSHub
	analyzer services.Analyzer
	photos   handlers.UploadURLIssuer
}

// newRouter mounts the API under /api/v1 and the realtime socket at /ws
func newRouter(d routerDeps) http.Handler {
	userHandler := handlers.NewUserHandler(d.users)
	goalHandler := handlers.NewGoalHandler(d.sessions)
	foodHandler := handlers.NewFoodHandler(d.sessions)
	summaryHandler := handlers.NewSummaryHandler(d.sessions)
	analysisHandler := handlers.NewAnalysisHandler(d.analyzer)
	photoHandler := handlers.NewPhotoHandler(d.photos)
	sessionHandler := handlers.NewSessionHandler(d.sessions)
	wsHandler := handlers.NewWebSocketHandler(d.hub, d.users, d.sessions)

	r := chi.NewRouter()

	// Middleware
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	}).Handler)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/users", userHandler.CreateUser)

		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(d.users))
			r.Get("/goals", goalHandler.GetGoals)
			r.Put("/goals", goalHandler.UpdateGoals)
			r.Get("/goals/suggestion", goalHandler.GetSuggestion)
			r.Post("/goals/suggestion", goalHandler.GetSuggestion)
			r.Get("/foods", foodHandler.GetFoods)
			r.Post("/foods", foodHandler.AddFood)
			r.Post("/foods/refresh", foodHandler.RefreshFoods)
			r.Delete("/foods/{food_id}", foodHandler.DeleteFood)
			r.Get("/summary", summaryHandler.GetSummary)
			r.Post("/photos/upload", photoHandler.UploadPhoto)
			r.Post("/analyses", analysisHandler.Analyze)
			r.Delete("/session", sessionHandler.CloseSession)
		})
	})

	r.Get("/ws", wsHandler.HandleWebSocket)

	return r
}

// setupLogger configures zerolog logger
func setupLogger(level string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
