package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zubari-ai/studyaid/internal/auth"
	"github.com/zubari-ai/studyaid/internal/cache"
	"github.com/zubari-ai/studyaid/internal/config"
	"github.com/zubari-ai/studyaid/internal/database"
	"github.com/zubari-ai/studyaid/internal/generation"
	"github.com/zubari-ai/studyaid/internal/logging"
	"github.com/zubari-ai/studyaid/internal/metrics"
	"github.com/zubari-ai/studyaid/internal/middleware"
	"github.com/zubari-ai/studyaid/internal/payment"
	"github.com/zubari-ai/studyaid/internal/queue"
	"github.com/zubari-ai/studyaid/internal/quota"
	"github.com/zubari-ai/studyaid/internal/tracing"
)

func main() {
	// Load configuration; the yaml file is optional
	configPath := os.Getenv("CONFIG_PATH")

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	logger, err := logging.NewLogger(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	closer, err := tracing.Init(cfg.Tracing)
	if err != nil {
		logger.WithError(err).Warn("Tracing disabled")
	} else {
		defer closer.Close()
	}

	// Initialize database
	db, err := database.New(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Migrate(context.Background()); err != nil {
		logger.Fatalf("Failed to migrate database: %v", err)
	}
	repo := database.NewRepository(db)

	// Sessions live in Redis
	sessions, err := cache.NewCache(cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		logger.Fatalf("Failed to connect to redis: %v", err)
	}
	defer sessions.Close()

	var events queue.Publisher = queue.NoopPublisher{}
	if cfg.Queue.Enabled {
		q, err := queue.New(cfg.Queue)
		if err != nil {
			logger.Fatalf("Failed to connect to queue: %v", err)
		}
		defer q.Close()
		events = q
	}

	var gateway payment.Gateway
	switch cfg.Payment.Gateway {
	case "stripe":
		gateway = payment.NewStripeGateway(cfg.Payment.StripeSecretKey)
	default:
		gateway = payment.SimulatedGateway{}
		logger.Warn("Using simulated payment gateway; every payment verifies as successful")
	}

	policy := quota.NewPolicy(repo, cfg.Quota.FreeLimit)

	api := &API{
		auth:   auth.NewService(repo, sessions, cfg.Auth, logger),
		status: policy,
		generation: generation.NewService(
			generation.NewOpenAIClient(cfg.Generation.OpenAI, cfg.Generation.Timeout),
			generation.NewCohereClient(cfg.Generation.Cohere, cfg.Generation.Timeout),
			repo, policy, events, logger, cfg.Generation.Timeout,
		),
		flashcards: repo,
		events:     events,
		payments:   payment.NewService(repo, gateway, events, cfg.Payment, logger),
		health: []HealthCheck{
			{Name: "database", Check: repo.Health},
			{Name: "redis", Check: sessions.Ping},
		},
		cookie: CookieConfig{
			Name:   cfg.Auth.CookieName,
			TTL:    cfg.Auth.SessionTTL,
			Secure: cfg.Auth.CookieSecure,
		},
		logger: logger,
	}

	gin.SetMode(gin.ReleaseMode)

	rl := middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	done := make(chan struct{})
	defer close(done)
	go rl.Cleanup(time.Minute, done)

	router := setupRouter(api, rl, logger, cfg.Server.AllowedOrigins)

	var metricsServer *metrics.Server
	if cfg.Metrics.Enabled {
		metricsServer = metrics.NewServer(cfg.Metrics.Port, logger)
		go func() {
			if err := metricsServer.Start(); err != nil {
				logger.WithError(err).Error("Metrics server failed")
			}
		}()
	}

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Infof("Starting API server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}
	if metricsServer != nil {
		if err := metricsServer.Shutdown(ctx); err != nil {
			logger.WithError(err).Error("Metrics server forced to shutdown")
		}
	}

	logger.Info("Server stopped")
}
