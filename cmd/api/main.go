package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/fleethr/recruit-review/internal/config"
	"github.com/fleethr/recruit-review/internal/handler"
	"github.com/fleethr/recruit-review/internal/infra/postgresql"
	"github.com/fleethr/recruit-review/internal/infra/postgresql/migrations"
	infraredis "github.com/fleethr/recruit-review/internal/infra/redis"
	"github.com/fleethr/recruit-review/internal/observability"
	"github.com/fleethr/recruit-review/internal/queue"
	"github.com/fleethr/recruit-review/internal/repository"
	"github.com/fleethr/recruit-review/internal/service"
	"github.com/fleethr/recruit-review/internal/transport"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

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

	if err := migrations.Migrate(db); err != nil {
		logger.Fatal("database migrations failed", zap.Error(err))
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

	publisher := queue.NewRabbitMQPublisher(rabbit)
	defer publisher.Close()

	confirms, err := infraredis.NewRedisConfirmStore(rdb, time.Duration(cfg.ConfirmStageTTLSec)*time.Second)
	if err != nil {
		logger.Fatal("confirm store initialization failed", zap.Error(err))
	}

	batchRepo := repository.NewGormBatchRepo(db)
	candidateRepo := repository.NewGormCandidateRepo(db)
	deliveryRepo := repository.NewGormDeliveryRepo(db)

	metrics := observability.NewMetrics()

	batchSvc, err := service.NewBatchService(batchRepo, publisher, logger)
	if err != nil {
		logger.Fatal("batch service initialization failed", zap.Error(err))
	}
	batchSvc.SetMetrics(metrics)

	candidateSvc, err := service.NewCandidateService(candidateRepo, publisher, logger)
	if err != nil {
		logger.Fatal("candidate service initialization failed", zap.Error(err))
	}
	candidateSvc.SetMetrics(metrics)

	reviewSvc, err := service.NewReviewService(batchRepo, candidateRepo, publisher, confirms, cfg.SubmitConcurrency, logger)
	if err != nil {
		logger.Fatal("review service initialization failed", zap.Error(err))
	}
	reviewSvc.SetMetrics(metrics)

	scanner, err := service.NewReminderScanner(
		batchRepo,
		publisher,
		time.Duration(cfg.ReminderIntervalSec)*time.Second,
		time.Duration(cfg.ReminderMaxAgeHours)*time.Hour,
		cfg.ReminderScanLimit,
		logger,
	)
	if err != nil {
		logger.Fatal("reminder scanner initialization failed", zap.Error(err))
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: transport.ErrorHandler(logger),
	})
	app.Use(observability.CorrelationMiddleware())
	app.Use(metrics.HTTPMiddleware())
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	handler.RegisterHealthRoutes(app, sqlDB, rdb)
	if err := handler.RegisterBatchRoutes(app, batchSvc, deliveryRepo); err != nil {
		logger.Fatal("batch route registration failed", zap.Error(err))
	}
	if err := handler.RegisterCandidateRoutes(app, candidateSvc); err != nil {
		logger.Fatal("candidate route registration failed", zap.Error(err))
	}
	if err := handler.RegisterReviewRoutes(app, reviewSvc); err != nil {
		logger.Fatal("review route registration failed", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("recruit-review api started", zap.Int("port", cfg.APIPort))
		return app.Listen(fmt.Sprintf(":%d", cfg.APIPort))
	})

	g.Go(func() error {
		return scanner.Start(gCtx)
	})

	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("shutting down api")
		return app.ShutdownWithTimeout(shutdownTimeout)
	})

	if err := g.Wait(); err != nil {
		logger.Error("api terminated", zap.Error(err))
	}
}
