package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/hugh/go-contacts/internal/api"
	"github.com/hugh/go-contacts/internal/api/middleware"
	"github.com/hugh/go-contacts/internal/auth"
	"github.com/hugh/go-contacts/internal/avatars"
	"github.com/hugh/go-contacts/internal/contacts"
	"github.com/hugh/go-contacts/internal/database"
	"github.com/hugh/go-contacts/internal/mail"
	"github.com/hugh/go-contacts/internal/tasks"
	"github.com/hugh/go-contacts/pkg/config"
	"github.com/hugh/go-contacts/pkg/queue"
	"github.com/hugh/go-contacts/pkg/util"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

func main() {
	// Load .env file
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := util.NewLogger(cfg.Server.Env, cfg.Server.LogLevel)
	slog.SetDefault(logger)

	logger.Info("starting contacts server",
		"env", cfg.Server.Env,
		"addr", cfg.Server.Addr(),
	)

	// Connect to database
	db, err := database.Connect(&cfg.Database, logger, cfg.Server.IsDevelopment())
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(context.Background(), db, logger); err != nil {
			logger.Error("failed to run migrations", "error", err)
			os.Exit(1)
		}
	}

	// Connect to Redis
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
	})
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		logger.Warn("failed to connect to Redis, using in-process rate limits and inline mail", "error", err)
		redisClient.Close()
		redisClient = nil
	}

	// Rate limiters and the verification queue live in Redis when it is up
	var (
		globalLimiter middleware.Limiter
		meLimiter     middleware.Limiter
		asynqClient   *asynq.Client
		enqueuer      tasks.Enqueuer
	)
	if redisClient != nil {
		globalLimiter = middleware.NewRedisLimiter(redisClient, "ratelimit:ip", cfg.RateLimit.Requests, cfg.RateLimit.Window())
		meLimiter = middleware.NewRedisLimiter(redisClient, "ratelimit:me", cfg.RateLimit.MePerSecond, time.Second)
		asynqClient = queue.NewClient(&cfg.Redis)
		enqueuer = asynqClient
	} else {
		memGlobal := middleware.NewMemoryLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window())
		defer memGlobal.Stop()
		memMe := middleware.NewMemoryLimiter(cfg.RateLimit.MePerSecond, time.Second)
		defer memMe.Stop()
		globalLimiter, meLimiter = memGlobal, memMe
	}

	// Outbound mail
	var sender mail.Sender
	if cfg.Mail.Configured() {
		smtp, err := mail.NewSMTPSender(mail.SMTPConfig{
			Host:     cfg.Mail.Server,
			Port:     cfg.Mail.Port,
			Username: cfg.Mail.Username,
			Password: cfg.Mail.Password,
			From:     cfg.Mail.From,
			FromName: cfg.Mail.FromName,
		})
		if err != nil {
			logger.Error("failed to configure mail", "error", err)
			os.Exit(1)
		}
		sender = smtp
	} else {
		logger.Warn("MAIL_USERNAME not set, verification links will only be logged")
	}

	// Avatar storage
	var avatarStore avatars.Store
	store, err := avatars.New(context.Background(), cfg.Storage)
	if err != nil {
		logger.Warn("avatar storage unavailable", "provider", cfg.Storage.Provider, "error", err)
	} else {
		avatarStore = store
	}

	// Initialize services
	jwtService, err := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.Algorithm, cfg.JWT.Expiry())
	if err != nil {
		logger.Error("failed to create jwt service", "error", err)
		os.Exit(1)
	}
	notifier := tasks.NewNotifier(enqueuer, sender, cfg.Server.BaseURL, logger)
	authService := auth.NewService(db, jwtService, auth.NewPasswordHasher(cfg.Server.BcryptCost), notifier, logger)
	contactRepo := contacts.NewRepository(db, contacts.BirthdayOptions{
		WindowDays: cfg.Contacts.BirthdayWindowDays,
		MatchYear:  cfg.Contacts.BirthdayMatchYear,
	})

	// Create router
	router := api.NewRouter(api.RouterConfig{
		DB:             db,
		Redis:          redisClient,
		Logger:         logger,
		JWTService:     jwtService,
		AuthService:    authService,
		Contacts:       contactRepo,
		Avatars:        avatarStore,
		MaxAvatarBytes: cfg.Storage.MaxAvatarBytes,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		RateLimiter:    globalLimiter,
		MeRateLimiter:  meLimiter,
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("server listening", "addr", cfg.Server.Addr())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if closer, ok := avatarStore.(interface{ Close() error }); ok {
		closer.Close()
	}

	// Close Asynq client
	if asynqClient != nil {
		asynqClient.Close()
	}

	// Close Redis connection
	if redisClient != nil {
		redisClient.Close()
	}

	// Close database connection
	sqlDB, _ := db.DB()
	sqlDB.Close()

	logger.Info("server stopped")
}
