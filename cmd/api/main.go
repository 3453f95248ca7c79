package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/kursadbilgin/photo-dispatch/internal/bootstrap"
	"github.com/kursadbilgin/photo-dispatch/internal/config"
	"github.com/kursadbilgin/photo-dispatch/internal/handler"
	"github.com/kursadbilgin/photo-dispatch/internal/observability"
	"github.com/kursadbilgin/photo-dispatch/internal/queue"
	"github.com/kursadbilgin/photo-dispatch/internal/service"
	"github.com/kursadbilgin/photo-dispatch/internal/transport"
	"go.uber.org/zap"
)

const (
	shutdownTimeout = 10 * time.Second
	bodyLimit       = 2 * 1024 * 1024
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed to load config: ", err)
	}

	logger, err := observability.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatal("failed to initialize logger: ", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics := observability.NewMetrics()

	pipeline, err := bootstrap.New(ctx, cfg, logger, metrics)
	if err != nil {
		logger.Fatal("pipeline initialization failed", zap.Error(err))
	}
	defer pipeline.Close() //nolint:errcheck

	routes := handler.NotifyRoutes{Pipeline: pipeline.Notify}
	if pipeline.Attempts != nil {
		routes.Attempts = pipeline.Attempts
	}

	if cfg.RabbitMQURL != "" {
		mq, err := queue.NewRabbitMQ(cfg.RabbitMQURL)
		if err != nil {
			logger.Fatal("rabbitmq initialization failed", zap.Error(err))
		}
		publisher := queue.NewRabbitMQPublisher(mq)
		defer publisher.Close() //nolint:errcheck

		intake, err := service.NewIntakeService(publisher, logger)
		if err != nil {
			logger.Fatal("intake initialization failed", zap.Error(err))
		}
		routes.Intake = intake
	}

	app := fiber.New(fiber.Config{
		AppName:               "photo-dispatch",
		BodyLimit:             bodyLimit,
		DisableStartupMessage: true,
		ErrorHandler:          transport.ErrorHandler(logger),
	})
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(metrics.HTTPMiddleware())

	handler.RegisterHealthRoutes(app, pipeline.SQLDB, pipeline.Redis)
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))
	if err := handler.RegisterNotifyRoutes(app, routes); err != nil {
		logger.Fatal("route registration failed", zap.Error(err))
	}

	go func() {
		<-ctx.Done()
		if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
			logger.Error("server shutdown failed", zap.Error(err))
		}
	}()

	logger.Info("photo-dispatch api started", zap.Int("port", cfg.APIPort))
	if err := app.Listen(fmt.Sprintf(":%d", cfg.APIPort)); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
	logger.Info("photo-dispatch api stopped")
}
