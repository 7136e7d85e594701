package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	_ "github.com/imagify/imagify-api/docs" // Swagger docs (generated)
	"github.com/imagify/imagify-api/internal/auth"
	"github.com/imagify/imagify-api/internal/billing"
	"github.com/imagify/imagify-api/internal/config"
	"github.com/imagify/imagify-api/internal/database"
	"github.com/imagify/imagify-api/internal/email"
	httpServer "github.com/imagify/imagify-api/internal/http"
	"github.com/imagify/imagify-api/internal/image"
	"github.com/imagify/imagify-api/internal/logging"
	"github.com/imagify/imagify-api/internal/ratelimit"
	"github.com/imagify/imagify-api/internal/user"
)

// @title           Imagify API
// @version         1.0
// @description     Text-to-image API with OTP signup, Google sign-in and prepaid credits.

// @contact.name   API Support
// @contact.email  support@example.com

// @license.name  MIT
// @license.url   https://opensource.org/licenses/MIT

// @host      localhost:4000
// @BasePath  /

// @securityDefinitions.apikey TokenAuth
// @in header
// @name token
// @description Session token returned by register, login or Google sign-in.

func main() {
	if err := run(); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	logger := logging.NewLogger(cfg.Server.IsDevelopment())
	logger.Info("starting application",
		"env", cfg.Server.Env,
		"port", cfg.Server.Port,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize database connection
	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			return err
		}
		logger.Info("database migrations applied")
	}

	// Initialize Redis connection
	redisClient, err := initRedis(ctx, cfg.Redis)
	if err != nil {
		return fmt.Errorf("failed to initialize Redis: %w", err)
	}
	defer redisClient.Close()

	// Initialize repositories
	userRepo := user.NewRepository(db)
	billingRepo := billing.NewRepository(db, userRepo)

	var otpStore auth.OTPStore
	switch cfg.Auth.OTPStore {
	case config.OTPStoreMemory:
		memStore := auth.NewMemoryOTPStore(cfg.Auth.OTPMaxAttempts)
		go memStore.Run(ctx, time.Minute)
		otpStore = memStore
	default:
		otpStore = auth.NewRedisOTPStore(redisClient, cfg.Auth.OTPMaxAttempts)
	}
	logger.Info("otp store ready", "store", cfg.Auth.OTPStore)

	// Initialize rate limiter
	rateLimiter := ratelimit.NewLimiter(redisClient)

	tokenService, err := newTokenService(cfg.Auth)
	if err != nil {
		return err
	}

	// Initialize email service
	emailService := email.NewService(
		cfg.Email.SMTPHost,
		cfg.Email.SMTPPort,
		cfg.Email.SMTPUser,
		cfg.Email.SMTPPassword,
		cfg.Email.FromAddress,
	)

	// Initialize services
	authService := auth.NewService(
		userRepo,
		otpStore,
		tokenService,
		emailService,
		logger,
		cfg.Auth.SessionTokenDuration,
		cfg.Auth.OTPTTL,
	)
	if cfg.Google.Enabled() {
		authService.EnableGoogle(
			auth.NewGoogleProvider(cfg.Google.ClientID, cfg.Google.ClientSecret, cfg.Google.RedirectURL),
			auth.NewRedisStateStore(redisClient),
		)
		logger.Info("google sign-in enabled")
	}

	gateway := billing.NewRazorpayGateway(cfg.Payment.RazorpayKeyID, cfg.Payment.RazorpayKeySecret)
	billingService := billing.NewService(billingRepo, gateway, cfg.Payment.RazorpayKeySecret, cfg.Payment.Currency, logger)

	var archive image.Archive
	if cfg.Storage.Enabled() {
		s3Archive, err := image.NewS3Archive(ctx, cfg.Storage)
		if err != nil {
			return fmt.Errorf("failed to initialize image archive: %w", err)
		}
		archive = s3Archive
		logger.Info("image archive enabled", "bucket", cfg.Storage.Bucket)
	}
	generator := image.NewClipdropClient(cfg.Image.APIURL, cfg.Image.APIKey, cfg.Image.RequestTimeout)
	imageService := image.NewService(userRepo, generator, archive, logger)

	// Initialize HTTP handlers
	handlers := httpServer.Handlers{
		Auth:    auth.NewHandler(authService, rateLimiter, cfg.Server.FrontendURL),
		Billing: billing.NewHandler(billingService, cfg.Payment.Currency),
		Image:   image.NewHandler(imageService),
	}
	authMiddleware := auth.NewMiddleware(tokenService)

	router := httpServer.NewRouter(cfg, handlers, authMiddleware, logger)

	server := httpServer.NewServer(
		":"+cfg.Server.Port,
		router,
		cfg.Server.ReadTimeout,
		cfg.Server.WriteTimeout,
		logger,
	)

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- server.Start()
	}()

	// Wait for interrupt signal or server error
	select {
	case err := <-serverErrors:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
		logger.Info("shutdown signal received")

		// Graceful shutdown with timeout
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

func newTokenService(cfg config.AuthConfig) (auth.TokenService, error) {
	if cfg.TokenFormat == config.TokenFormatJWT {
		svc, err := auth.NewJWTService(cfg.JWTSecret)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
		}
		return svc, nil
	}

	svc, err := auth.NewPasetoService(cfg.PasetoKey)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize PASETO service: %w", err)
	}
	return svc, nil
}

// initRedis initializes the Redis connection and returns a Redis client
func initRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Verify connection
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return client, nil
}
