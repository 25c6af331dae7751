package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/yatube/backend/internal/auth"
	"github.com/yatube/backend/internal/cache"
	"github.com/yatube/backend/internal/config"
	"github.com/yatube/backend/internal/database"
	"github.com/yatube/backend/internal/email"
	"github.com/yatube/backend/internal/handlers"
	"github.com/yatube/backend/internal/logger"
	"github.com/yatube/backend/internal/metrics"
	"github.com/yatube/backend/internal/middleware"
	"github.com/yatube/backend/internal/repository"
	"github.com/yatube/backend/internal/storage"
	"github.com/yatube/backend/internal/telemetry"
	"github.com/yatube/backend/internal/validation"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// logger is not up yet
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Initialize(cfg.Log.Level, cfg.Log.File); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Close()

	logger.Log.Info("=== Yatube server starting ===",
		zap.String("environment", cfg.Environment),
		zap.String("port", cfg.Port))

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Tracing is optional; a nil provider leaves the global no-op tracer in place
	tp, err := telemetry.InitTracer(telemetry.Config{
		ServiceName:  telemetry.ServiceName,
		Environment:  cfg.Environment,
		OTLPEndpoint: cfg.Telemetry.Endpoint,
		Enabled:      cfg.Telemetry.Enabled,
		SamplingRate: cfg.Telemetry.SamplingRate,
	})
	if err != nil {
		logger.WarnWithFields("Failed to initialize tracing, continuing without it", err)
	}

	// Initialize database
	if err := database.Initialize(cfg.Database, !cfg.IsProduction() && cfg.Log.Level == "debug"); err != nil {
		logger.FatalWithFields("Failed to initialize database", err)
	}
	defer database.Close()

	if cfg.Telemetry.Enabled {
		if err := database.DB.Use(telemetry.GORMPlugin()); err != nil {
			logger.WarnWithFields("Failed to register GORM tracing plugin", err)
		}
	}

	// Run migrations
	if err := database.Migrate(database.DB); err != nil {
		logger.FatalWithFields("Failed to run migrations", err)
	}

	metrics.Initialize()

	images := newImageStore(cfg.Storage)
	mailer := newMailer(cfg.Email)

	// The page cache and the rate limiters share Redis when it is configured.
	// counter stays a nil interface otherwise so RateLimit picks the in-memory limiter.
	var (
		pageCache   cache.Store
		counter     middleware.WindowCounter
		redisClient *cache.RedisClient
	)
	if cfg.Redis.Host != "" {
		redisClient, err = cache.NewRedisClient(cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password)
		if err != nil {
			logger.WarnWithFields("Redis unavailable, using in-process page cache", err)
			redisClient = nil
		} else {
			defer redisClient.Close()
			pageCache = redisClient
			counter = redisClient
		}
	}
	if pageCache == nil {
		pageCache = cache.NewMemoryStore()
	}

	services := validation.NewServiceValidator(cfg.RequiredServices)
	services.Register("database", func(ctx context.Context) error { return database.Health(database.DB) })
	if redisClient != nil {
		services.Register("redis", redisClient.Ping)
	}
	if s3Store, ok := images.(*storage.S3Store); ok {
		services.Register("s3", s3Store.CheckBucketAccess)
	}
	if sesSender, ok := mailer.(*email.SESSender); ok {
		services.Register("ses", sesSender.CheckQuota)
	}
	if err := services.ValidateServices(context.Background()); err != nil {
		logger.FatalWithFields("Required service check failed", err)
	}

	authService := auth.NewService(
		[]byte(cfg.SecretKey),
		cfg.SessionTTL,
		repository.NewUserRepository(database.DB),
		repository.NewPasswordResetRepository(database.DB),
	)

	h := handlers.NewHandlers(database.DB, authService, images, cfg.PostsPerPage)
	h.SetMailer(mailer)
	h.SetPageCache(pageCache, cfg.PageCacheTTL)
	h.SetBaseURL(cfg.BaseURL)
	h.SetSecureCookies(cfg.IsProduction())
	h.SetRateLimiters(
		middleware.RateLimit(counter, middleware.AuthRateLimitConfig()),
		middleware.RateLimit(counter, middleware.UploadRateLimitConfig()),
	)

	// Setup Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.GinLoggerMiddleware())
	r.Use(middleware.MetricsMiddleware())
	if cfg.Telemetry.Enabled {
		r.Use(middleware.TracingMiddleware(telemetry.ServiceName))
	}
	// promhttp compresses /metrics itself
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))
	r.Use(middleware.RateLimit(counter, middleware.DefaultRateLimitConfig()))

	if err := h.Mount(r); err != nil {
		logger.FatalWithFields("Failed to mount routes", err)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Log.Info("Yatube listening", zap.String("addr", srv.Addr), zap.String("base_url", cfg.BaseURL))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.FatalWithFields("Failed to start server", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	// Give outstanding requests 30 seconds to complete
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.ErrorWithFields("Server forced to shutdown", err)
	}

	if tp != nil {
		if err := tp.Shutdown(ctx); err != nil {
			logger.WarnWithFields("Tracer shutdown failed", err)
		}
	}

	logger.Log.Info("Server exited")
}

func newImageStore(cfg config.StorageConfig) storage.ImageStore {
	if cfg.Backend == "s3" {
		s3Store, err := storage.NewS3Store(cfg.AWSRegion, cfg.S3Bucket, cfg.CDNURL)
		if err != nil {
			logger.FatalWithFields("Failed to initialize S3 image store", err)
		}
		if err := s3Store.CheckBucketAccess(context.Background()); err != nil {
			logger.WarnWithFields("S3 bucket access failed, image uploads will fail", err)
		}
		return s3Store
	}

	local, err := storage.NewLocalStore(cfg.MediaRoot, cfg.MediaURL)
	if err != nil {
		logger.FatalWithFields("Failed to initialize media directory", err)
	}
	return local
}

func newMailer(cfg config.EmailConfig) email.Sender {
	if cfg.FromEmail == "" {
		logger.Log.Info("SES_FROM_EMAIL not set, outbound mail is logged only")
		return email.NewLogSender()
	}
	sender, err := email.NewSESSender(cfg.AWSRegion, cfg.FromEmail, cfg.FromName)
	if err != nil {
		logger.FatalWithFields("Failed to initialize SES sender", err)
	}
	return sender
}
