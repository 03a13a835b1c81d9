package cmd

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"roastme-backend/internal/config"
	"roastme-backend/internal/handlers"
	"roastme-backend/internal/middleware"
	"roastme-backend/internal/repository"
	"roastme-backend/internal/services"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/rs/zerolog/pkgerrors"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	limiterEvictEvery = time.Minute
	limiterMaxIdle    = 10 * time.Minute
)

func Run() {
	// A missing .env is fine, the environment may already carry everything
	_ = godotenv.Load()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", configPath).Msg("Failed to load configuration")
	}

	setupLogger(cfg.Log)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// Connect to database
	poolCfg, err := pgxpool.ParseConfig(cfg.Database.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid database configuration")
	}
	if cfg.Database.MaxConns > 0 {
		poolCfg.MaxConns = cfg.Database.MaxConns
	}

	db, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	if err := db.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to ping database")
	}
	if err := repository.Migrate(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply schema")
	}
	log.Info().Msg("Database connection established")

	// Initialize repositories
	roastRepo := repository.NewRoastRepository(db)
	storyRepo := repository.NewStoryRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)
	statsRepo := repository.NewStatsRepository(db)
	analyticsRepo := repository.NewAnalyticsRepository(db)

	// Initialize services
	hub := services.NewEngagementHub()
	adminService := services.NewAdminService(cfg.Admin.Username, cfg.Admin.PasswordHash, cfg.JWT.Secret, cfg.JWT.TTL)
	roastService := services.NewRoastService(roastRepo, hub)
	storyService := services.NewStoryService(storyRepo, hub)
	sweeper := services.NewSweeper(storyRepo, hub)
	moderationService := services.NewModerationService(adminService, roastRepo, storyRepo, hub)
	settingsService := services.NewSettingsService(settingsRepo, adminService)
	statsService := services.NewStatsService(statsRepo, adminService)
	analyticsService := services.NewAnalyticsService(analyticsRepo, adminService)

	var presigner handlers.Presigner
	if cfg.AWS.S3Bucket != "" {
		uploadService, err := services.NewUploadService(ctx, cfg.AWS)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create upload service")
		}
		presigner = uploadService
	} else {
		log.Warn().Msg("aws.s3_bucket not set, image uploads disabled")
	}

	limiter := middleware.NewFingerprintRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	analyticsLimiter := middleware.NewFingerprintRateLimiter(cfg.RateLimit.AnalyticsRPS, cfg.RateLimit.AnalyticsBurst)

	r := newRouter(cfg, routerDeps{
		admin:            adminService,
		settings:         settingsService,
		limiter:          limiter,
		analyticsLimiter: analyticsLimiter,
		roasts:           handlers.NewRoastHandler(roastService),
		stories:          handlers.NewStoryHandler(storyService),
		adminH:           handlers.NewAdminHandler(adminService, moderationService, statsService),
		settingsH:        handlers.NewSettingsHandler(settingsService),
		uploads:          handlers.NewUploadHandler(presigner),
		cron:             handlers.NewCronHandler(sweeper),
		analytics:        handlers.NewAnalyticsHandler(analyticsService),
		websockets:       handlers.NewWebSocketHandler(hub),
	})

	// Background workers
	if !cfg.Sweeper.Disabled {
		go sweeper.Run(ctx, cfg.Sweeper.Interval)
	}
	go evictIdleClients(ctx, limiter, analyticsLimiter)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().
			Str("host", cfg.Server.Host).
			Int("port", cfg.Server.Port).
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
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

func evictIdleClients(ctx context.Context, limiters ...*middleware.FingerprintRateLimiter) {
	ticker := time.NewTicker(limiterEvictEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, limiter := range limiters {
				if n := limiter.Evict(limiterMaxIdle); n > 0 {
					log.Debug().Int("count", n).Msg("Evicted idle rate limit entries")
				}
			}
		}
	}
}

// setupLogger configures the global zerolog logger
func setupLogger(cfg config.LogConfig) {
	zerolog.TimeFieldFormat = time.RFC3339
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack

	var out io.Writer = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.DateTime}
	if cfg.File != "" {
		out = zerolog.MultiLevelWriter(out, &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     28,
			Compress:   true,
		})
	}
	log.Logger = zerolog.New(out).With().Timestamp().Logger()

	switch cfg.Level {
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
