package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/fleethr/recruit-review/internal/config"
	"github.com/fleethr/recruit-review/internal/infra/postgresql"
	infraredis "github.com/fleethr/recruit-review/internal/infra/redis"
	"github.com/fleethr/recruit-review/internal/observability"
	"github.com/fleethr/recruit-review/internal/provider"
	"github.com/fleethr/recruit-review/internal/queue"
	"github.com/fleethr/recruit-review/internal/repository"
	"github.com/fleethr/recruit-review/internal/service"
	"go.uber.org/zap"
)

const consumerPrefetch = 10

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed to load config", zap.Error(err))
	}

	logger, err := observability.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatal("failed to initialize logger", zap.Error(err))
	}
	defer logger.Sync() //nolint:errcheck

	db, err := postgresql.NewPostgres(cfg.DatabaseDSN)
	if err != nil {
		logger.Fatal("postgres initialization failed", zap.Error(err))
	}

	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("postgres underlying db init failed", zap.Error(err))
	}
	defer sqlDB.Close()

	rdb, err := infraredis.NewRedis(cfg.RedisURL)
	if err != nil {
		logger.Fatal("redis initialization failed", zap.Error(err))
	}
	defer rdb.Close()

	rabbit, err := queue.NewRabbitMQ(cfg.RabbitMQURL)
	if err != nil {
		logger.Fatal("rabbitmq initialization failed", zap.Error(err))
	}
	defer rabbit.Close()

	consumer := queue.NewRabbitMQConsumer(rabbit, consumerPrefetch, logger)
	defer consumer.Close()

	rateLimiter, err := infraredis.NewRedisRateLimiter(rdb, cfg.WebhookRatePerSec)
	if err != nil {
		logger.Fatal("rate limiter initialization failed", zap.Error(err))
	}

	webhook, err := provider.NewWebhookProvider(cfg.NotifyWebhookURL)
	if err != nil {
		logger.Fatal("webhook provider initialization failed", zap.Error(err))
	}

	deliveryRepo := repository.NewGormDeliveryRepo(db)

	worker, err := service.NewNotifierWorker(
		deliveryRepo,
		consumer,
		webhook,
		rateLimiter,
		cfg.NotifierConcurrency,
		logger,
	)
	if err != nil {
		logger.Fatal("notifier worker initialization failed", zap.Error(err))
	}
	worker.SetMetrics(observability.NewMetrics())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("recruit-review notifier started",
		zap.Int("concurrency", cfg.NotifierConcurrency),
		zap.Int("webhookRatePerSec", cfg.WebhookRatePerSec),
	)

	if err := worker.Start(ctx); err != nil && ctx.Err() == nil {
		logger.Fatal("notifier worker terminated", zap.Error(err))
	}

	logger.Info("recruit-review notifier stopped")
}
