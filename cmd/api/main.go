package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/aokihara/listing-engine/internal/config"
	"github.com/aokihara/listing-engine/internal/domain"
	"github.com/aokihara/listing-engine/internal/driver/rodriver"
	"github.com/aokihara/listing-engine/internal/handler"
	"github.com/aokihara/listing-engine/internal/infra/postgresql"
	"github.com/aokihara/listing-engine/internal/infra/postgresql/migrations"
	infraredis "github.com/aokihara/listing-engine/internal/infra/redis"
	"github.com/aokihara/listing-engine/internal/notify"
	"github.com/aokihara/listing-engine/internal/observability"
	"github.com/aokihara/listing-engine/internal/otp"
	"github.com/aokihara/listing-engine/internal/portal"
	"github.com/aokihara/listing-engine/internal/queue"
	"github.com/aokihara/listing-engine/internal/repository"
	"github.com/aokihara/listing-engine/internal/service"
	"github.com/aokihara/listing-engine/internal/transport"
)

const (
	serverShutdownTimeout = 10 * time.Second
	runShutdownTimeout    = 20 * time.Second
	watchdogScanInterval  = 5 * time.Second
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed to load config", zap.Error(err))
	}

	logger, err := observability.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatal("failed to initialize logger", zap.Error(err))
	}
	defer logger.Sync() //nolint:errcheck

	metrics := observability.NewMetrics()

	budgets := portal.Budgets{Step: cfg.StepTimeout(), Probe: cfg.ProbeTimeout()}

	auth, err := portal.NewAuthenticator(cfg.PortalBaseURL, cfg.PortalRegion, budgets, otp.NewTOTPGenerator(), logger)
	if err != nil {
		logger.Fatal("authenticator initialization failed", zap.Error(err))
	}
	classifier, err := portal.NewClassifier(cfg.PortalBaseURL, budgets, logger)
	if err != nil {
		logger.Fatal("classifier initialization failed", zap.Error(err))
	}
	submitter := portal.NewSubmitter(budgets, logger)

	runService, err := service.NewRunService(rodriver.NewOpener(), auth, classifier, submitter, logger)
	if err != nil {
		logger.Fatal("run service initialization failed", zap.Error(err))
	}
	runService.SetMetrics(metrics)

	// Optional infra switches on with configuration.
	var sqlDB *sql.DB
	if cfg.DatabaseDSN != "" {
		db, err := postgresql.NewPostgres(cfg.DatabaseDSN)
		if err != nil {
			logger.Fatal("postgres initialization failed", zap.Error(err))
		}
		if err := migrations.Migrate(db); err != nil {
			logger.Fatal("database migrations failed", zap.Error(err))
		}
		sqlDB, err = db.DB()
		if err != nil {
			logger.Fatal("postgres underlying db init failed", zap.Error(err))
		}
		defer sqlDB.Close()

		runService.SetRunRepository(repository.NewGormRunRepo(db))
		logger.Info("run history enabled")
	}

	var rdb *redis.Client
	if cfg.RedisURL != "" {
		rdb, err = infraredis.NewRedis(cfg.RedisURL)
		if err != nil {
			logger.Fatal("redis initialization failed", zap.Error(err))
		}
		defer rdb.Close()

		limiter, err := infraredis.NewRedisRateLimiter(rdb, cfg.SearchRatePerSec)
		if err != nil {
			logger.Fatal("rate limiter initialization failed", zap.Error(err))
		}
		runService.SetLimiter(limiter)
		logger.Info("search pacing enabled", zap.Int("perSec", cfg.SearchRatePerSec))
	}

	if cfg.RabbitMQURL != "" {
		mq, err := queue.NewRabbitMQ(cfg.RabbitMQURL)
		if err != nil {
			logger.Fatal("rabbitmq initialization failed", zap.Error(err))
		}
		defer mq.Close()

		runService.SetPublisher(queue.NewRabbitMQPublisher(mq))
		logger.Info("outcome events enabled")
	}

	if cfg.ResultWebhookURL != "" {
		notifier, err := notify.NewWebhookNotifier(cfg.ResultWebhookURL)
		if err != nil {
			logger.Fatal("webhook notifier initialization failed", zap.Error(err))
		}
		runService.SetNotifier(notifier)
		logger.Info("completion webhook enabled")
	}

	watchdog, err := service.NewRunWatchdog(runService, cfg.MaxRunDuration(), watchdogScanInterval, logger)
	if err != nil {
		logger.Fatal("watchdog initialization failed", zap.Error(err))
	}

	app := fiber.New(fiber.Config{
		ErrorHandler:          transport.ErrorHandler(logger),
		DisableStartupMessage: true,
	})
	app.Use(metrics.HTTPMiddleware())

	portalCfg := handler.PortalConfig{
		Credentials: domain.Credentials{
			Email:     cfg.PortalEmail,
			Password:  cfg.PortalPassword,
			OTPSecret: cfg.PortalOTPSecret,
		},
		AccountName: cfg.PortalAccountName,
		Headless:    cfg.Headless,
	}
	if err := handler.RegisterRunRoutes(app, runService, portalCfg); err != nil {
		logger.Fatal("route registration failed", zap.Error(err))
	}
	handler.RegisterHealthRoutes(app, sqlDB, rdb)
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, groupCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("listing-engine api started", zap.Int("port", cfg.APIPort))
		return app.Listen(fmt.Sprintf(":%d", cfg.APIPort))
	})

	g.Go(func() error {
		return watchdog.Start(groupCtx)
	})

	g.Go(func() error {
		<-groupCtx.Done()
		logger.Info("shutting down")

		if err := app.ShutdownWithTimeout(serverShutdownTimeout); err != nil {
			logger.Warn("http server shutdown failed", zap.Error(err))
		}

		stopCtx, cancel := context.WithTimeout(context.Background(), runShutdownTimeout)
		defer cancel()
		if err := runService.Shutdown(stopCtx); err != nil {
			logger.Warn("run shutdown failed", zap.Error(err))
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("api stopped with error", zap.Error(err))
	}
	logger.Info("listing-engine api stopped")
}
