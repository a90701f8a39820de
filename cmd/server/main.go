package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/foxxcyber/pex/internal/config"
	"github.com/foxxcyber/pex/internal/database"
	"github.com/foxxcyber/pex/internal/handlers"
	"github.com/foxxcyber/pex/internal/inventory"
	"github.com/foxxcyber/pex/internal/logging"
	"github.com/foxxcyber/pex/internal/middleware"
	"github.com/foxxcyber/pex/internal/services"
)

func main() {
	// Load .env file if it exists
	godotenv.Load()

	cfg := config.Load()
	logger := logging.Init(cfg.IsDevelopment(), cfg.LogLevel)
	loc := cfg.Location()

	// Open the state backend
	kv, err := database.Open(cfg)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.StorageDriver).Msg("Failed to open storage")
	}
	defer kv.Close()

	store := inventory.NewStore(kv,
		inventory.WithClock(func() time.Time { return time.Now().In(loc) }),
		inventory.WithRejectPastExpiry(cfg.RejectPastExpiry),
		inventory.WithLogger(logger.With().Str("component", "inventory").Logger()),
	)
	if err := store.Load(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to load inventory")
	}

	// Advice cache is optional
	var adviceCache services.AdviceCache
	if cfg.RedisAddr != "" {
		cache, err := services.NewRedisCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.AdviceTTL)
		if err != nil {
			log.Warn().Err(err).Msg("Redis unavailable, advice will not be cached")
		} else {
			defer cache.Close()
			adviceCache = cache
		}
	}
	if cfg.GeminiAPIKey == "" {
		log.Warn().Msg("GEMINI_API_KEY not set, advice will use the fallback text")
	}
	advisor := services.NewAdvisorService(cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GeminiBaseURL, cfg.AdviceTimeout, adviceCache,
		logger.With().Str("component", "advisor").Logger())

	// Report archive is optional
	var storage *services.StorageService
	if cfg.StorageEnabled() {
		storage, err = services.NewStorageService(cfg.S3Endpoint, cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3Bucket, cfg.S3Region, cfg.S3UseSSL)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to initialize storage service")
			storage = nil
		} else if err := storage.EnsureBucket(context.Background()); err != nil {
			log.Warn().Err(err).Msg("Failed to ensure S3 bucket exists")
		}
	} else {
		log.Info().Msg("S3 credentials not configured, report archive disabled")
	}

	// Background jobs
	sched := services.NewScheduler(loc, logger.With().Str("component", "scheduler").Logger())
	if err := sched.Add("refresh", cfg.RefreshSchedule, func(ctx context.Context) error {
		_, err := store.Refresh(ctx)
		return err
	}); err != nil {
		log.Fatal().Err(err).Msg("Failed to schedule refresh")
	}
	if cfg.MailEnabled() {
		mailer := services.NewEmailService(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.SMTPFromAddr, cfg.SMTPFromName)
		digest := services.NewDigestService(store, mailer, cfg.DigestRecipients(),
			logger.With().Str("component", "digest").Logger())
		if err := sched.Add("digest", cfg.DigestSchedule, func(ctx context.Context) error {
			// Refresh first so the digest reflects today's statuses
			if _, err := store.Refresh(ctx); err != nil {
				return err
			}
			_, err := digest.Send(ctx)
			return err
		}); err != nil {
			log.Fatal().Err(err).Msg("Failed to schedule digest")
		}
	}
	sched.Start()

	// Initialize Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler:          handlers.ErrorHandler,
		BodyLimit:             8 * 1024 * 1024,
		DisableStartupMessage: cfg.IsProduction(),
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(middleware.RequestLogger(logger.With().Str("component", "http").Logger()))
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.AllowedOrigins,
		AllowHeaders: "Origin, Content-Type, Accept",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))

	h := handlers.New(store, advisor, storage, logger.With().Str("component", "handlers").Logger())
	h.RegisterRoutes(app)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit

		log.Info().Msg("Shutting down")
		sched.Stop()
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Error().Err(err).Msg("Server shutdown failed")
		}
	}()

	log.Info().Str("port", cfg.Port).Int("products", store.Len()).Msg("Server starting")
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Error().Err(err).Msg("Server stopped")
	}
}
