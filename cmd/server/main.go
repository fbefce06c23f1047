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

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/vidshare/engagement-engine/internal/cache"
	"github.com/vidshare/engagement-engine/internal/config"
	"github.com/vidshare/engagement-engine/internal/db"
	"github.com/vidshare/engagement-engine/internal/db/repository"
	"github.com/vidshare/engagement-engine/internal/discovery"
	"github.com/vidshare/engagement-engine/internal/handler"
	"github.com/vidshare/engagement-engine/internal/middleware"
	"github.com/vidshare/engagement-engine/internal/service"
	"github.com/vidshare/engagement-engine/internal/validation"
	"github.com/vidshare/engagement-engine/pkg/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "server: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.File); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck // best effort on exit

	ctx := context.Background()

	pool, err := db.NewPool(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("initialize database: %w", err)
	}
	defer db.Close(pool)

	logger.Log.Info("Database connection established",
		zap.Int32("maxConns", pool.Config().MaxConns),
	)

	var (
		publisher service.EventPublisher = service.NopPublisher{}
		broker    handler.BrokerHealth
	)
	if cfg.RabbitMQ.Enabled {
		mp, err := service.NewMessagePublisher(&cfg.RabbitMQ)
		if err != nil {
			return fmt.Errorf("initialize rabbitmq publisher: %w", err)
		}
		defer mp.Close() //nolint:errcheck // best effort on exit
		publisher, broker = mp, mp
	} else {
		logger.Log.Info("RabbitMQ disabled, domain events will not be published")
	}

	var summaries service.SummaryCache = service.NopSummaryCache{}
	if cfg.Redis.URL != "" {
		redisClient, err := cache.NewClient(ctx, cfg.Redis.URL)
		if err != nil {
			logger.Log.Warn("Failed to connect to Redis, engagement summaries will not be cached", zap.Error(err))
		} else {
			defer closeRedis(redisClient)
			summaries = service.NewRedisSummaryCache(redisClient, cfg.Redis.SummaryTTL)
			logger.Log.Info("Engagement summary cache enabled", zap.Duration("ttl", cfg.Redis.SummaryTTL))
		}
	}

	likeRepo := repository.NewEngagementRepository(pool)
	subscriptionRepo := repository.NewSubscriptionRepository(pool)
	userRepo := repository.NewUserRepository(pool)
	videoRepo := repository.NewVideoRepository(pool, cfg.Discovery.QueryTimeout)
	commentRepo := repository.NewCommentRepository(pool, cfg.Discovery.QueryTimeout)
	watchRepo := repository.NewWatchRepository(pool)

	engagementService := service.NewEngagementService(likeRepo, summaries, publisher)
	subscriptionService := service.NewSubscriptionService(subscriptionRepo, userRepo, publisher)
	catalogService := service.NewCatalogService(videoRepo, commentRepo, userRepo, discovery.Options{
		SampleFactor: cfg.Discovery.SampleFactor,
		MaxPageSize:  cfg.Discovery.MaxPageSize,
	})
	watchService := service.NewWatchService(watchRepo, publisher, cfg.Watch.HistoryLimit)

	var auth gin.HandlerFunc
	if len(cfg.Server.APIKeys) > 0 {
		auth = middleware.NewAPIKeyAuth(cfg.Server.APIKeys).Middleware()
	} else {
		logger.Log.Warn("No API keys configured (APP_SERVER_APIKEYS), /api/v1 is not protected by the gateway key")
	}

	gin.SetMode(gin.ReleaseMode)
	router := handler.NewRouter(handler.Handlers{
		Health:        handler.NewHealthHandler(pool, broker),
		Engagement:    handler.NewEngagementHandler(engagementService),
		Subscriptions: handler.NewSubscriptionHandler(subscriptionService),
		Videos:        handler.NewVideoHandler(catalogService, watchService, validation.New(true)),
		Comments:      handler.NewCommentHandler(catalogService),
	}, auth)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Log.Info("Server starting", zap.Int("port", cfg.Server.Port))
		serverErrors <- server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
	case sig := <-shutdown:
		logger.Log.Info("Shutdown signal received", zap.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			logger.Log.Error("Graceful shutdown failed", zap.Error(err))
			if err := server.Close(); err != nil {
				logger.Log.Error("Failed to close server", zap.Error(err))
			}
			return err
		}

		logger.Log.Info("Server stopped gracefully")
	}

	return nil
}

func closeRedis(client *redis.Client) {
	if err := client.Close(); err != nil {
		logger.Log.Warn("Failed to close Redis client", zap.Error(err))
	}
}
