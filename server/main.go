package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"roomly/api/routes"
	"roomly/internal/notifications"
	"roomly/internal/reservations"
	"roomly/internal/shared/config"
	"roomly/internal/shared/database"
	"roomly/pkg/logger"
	"roomly/pkg/ratelimit"

	"github.com/IBM/sarama"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	appLogger := logger.GetDefault()

	if err := godotenv.Load(); err != nil {
		if os.Getenv("GIN_MODE") == "release" || os.Getenv("DOCKER_CONTAINER") == "true" {
			appLogger.Info("Production environment: using container environment variables")
		} else {
			appLogger.Info("No .env file found, using system environment variables")
		}
	} else {
		appLogger.Info("Development environment: loaded .env file")
	}

	cfg := config.Load()

	gin.SetMode(cfg.GinMode)

	db, err := database.InitDB(cfg)
	if err != nil {
		appLogger.Error("failed to connect:", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	// Rate limiter
	var rateLimiter *ratelimit.RateLimiter
	if cfg.RateLimit.Enabled {
		rateLimiter = ratelimit.NewRateLimiter(db.GetRedisClient(), &ratelimit.Config{
			Enabled:                 cfg.RateLimit.Enabled,
			WindowDuration:          cfg.RateLimit.WindowDuration,
			DefaultRequests:         cfg.RateLimit.DefaultRequests,
			PublicRequests:          cfg.RateLimit.PublicRequests,
			BookingRequests:         cfg.RateLimit.BookingRequests,
			BookingCriticalRequests: cfg.RateLimit.BookingCriticalRequests,
			AdminRequests:           cfg.RateLimit.AdminRequests,
			WhitelistedIPs:          cfg.RateLimit.WhitelistedIPs,
		})
		appLogger.Info("Rate limiter initialized",
			slog.Duration("window", cfg.RateLimit.WindowDuration),
			slog.Int("default_requests", cfg.RateLimit.DefaultRequests),
		)
	} else {
		appLogger.Info("Rate limiting disabled")
	}

	// Kafka producer for reservation lifecycle events
	producer := setupEventProducer(cfg, appLogger)
	defer producer.Close()

	engine, appRouter := setupRouter(cfg, db, producer, rateLimiter)

	// Background jobs: expiry sweep and ledger refresh
	jobCtx, jobCancel := context.WithCancel(context.Background())
	defer jobCancel()

	// Notifications worker consuming the lifecycle topic
	if consumer := setupEventConsumer(cfg, appLogger); consumer != nil {
		if err := consumer.Start(jobCtx, 1); err != nil {
			appLogger.Error("Failed to start event consumer", slog.Any("error", err))
		} else {
			defer consumer.Stop()
		}
	}

	jobs := reservations.NewJobProcessor(
		appRouter.ReservationService(),
		appRouter.AvailabilityService(),
		&reservations.JobConfig{
			SweepInterval:         cfg.Booking.SweepInterval,
			LedgerRefreshInterval: cfg.Ledger.RefreshInterval,
		},
	)
	jobs.Start(jobCtx)
	defer jobs.Stop()

	srv := &http.Server{
		Addr:           cfg.GetServerAddress(),
		Handler:        engine,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		IdleTimeout:    cfg.IdleTimeout,
		MaxHeaderBytes: cfg.MaxHeaderBytes,
	}

	go func() {
		appLogger.Info("🚀 Server running",
			slog.String("address", cfg.GetServerAddress()),
			slog.String("health_check", fmt.Sprintf("http://localhost:%s/health", cfg.Port)),
			slog.String("version", cfg.APIVersion),
			slog.Bool("kafka_events", cfg.Kafka.Enabled),
			slog.Bool("rate_limiting", cfg.RateLimit.Enabled),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Error("Server failed", slog.Any("error", err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Error("Forced shutdown", slog.Any("error", err))
	}

	appLogger.Info("Server exited gracefully")
}

func setupEventProducer(cfg *config.Config, appLogger *logger.Logger) notifications.EventProducer {
	if !cfg.Kafka.Enabled {
		appLogger.Info("Kafka disabled, reservation events will not be published")
		return notifications.NewNoopEventProducer()
	}

	producer, err := notifications.NewKafkaEventProducer(&notifications.KafkaProducerConfig{
		Brokers:          cfg.Kafka.Brokers,
		Topic:            cfg.Kafka.Topic,
		RetryMax:         3,
		TimeoutMs:        10000,
		RequiredAcks:     sarama.WaitForAll,
		CompressionType:  sarama.CompressionSnappy,
		IdempotentWrites: true,
	})
	if err != nil {
		appLogger.Error("Failed to initialize Kafka producer, continuing without events", slog.Any("error", err))
		return notifications.NewNoopEventProducer()
	}

	appLogger.Info("Kafka event producer initialized",
		slog.String("topic", cfg.Kafka.Topic),
	)
	return producer
}

func setupEventConsumer(cfg *config.Config, appLogger *logger.Logger) notifications.EventConsumer {
	if !cfg.Kafka.Enabled {
		return nil
	}

	consumerCfg := notifications.DefaultConsumerConfig()
	consumerCfg.Brokers = cfg.Kafka.Brokers
	consumerCfg.GroupID = cfg.Kafka.GroupID
	consumerCfg.Topics = []string{cfg.Kafka.Topic}

	consumer, err := notifications.NewKafkaEventConsumer(consumerCfg, notifications.NewLoggingHandler())
	if err != nil {
		appLogger.Error("Failed to initialize Kafka consumer, continuing without notifications worker", slog.Any("error", err))
		return nil
	}

	appLogger.Info("Notifications consumer initialized",
		slog.String("topic", cfg.Kafka.Topic),
		slog.String("group", cfg.Kafka.GroupID),
	)
	return consumer
}

func setupRouter(cfg *config.Config, db *database.DB, producer notifications.EventProducer, rateLimiter *ratelimit.RateLimiter) (*gin.Engine, *routes.Router) {
	engine := gin.New()
	appLogger := logger.GetDefault()

	engine.Use(RequestLoggerMiddleware(appLogger), gin.Recovery())

	engine.Use(cors.New(cors.Config{
		AllowOriginFunc: func(origin string) bool {
			return true
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "X-RateLimit-*"},
		ExposeHeaders:    []string{"Content-Length", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	if rateLimiter != nil {
		engine.Use(ratelimit.Middleware(rateLimiter))
	}

	appRouter := routes.NewRouter(cfg, db, producer, rateLimiter)
	appRouter.SetupRoutes(engine)

	return engine, appRouter
}

func RequestLoggerMiddleware(l *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		duration := time.Since(start)
		l.LogHTTPRequest(c, duration)
	}
}
