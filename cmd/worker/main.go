package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/kursadbilgin/photo-dispatch/internal/bootstrap"
	"github.com/kursadbilgin/photo-dispatch/internal/config"
	"github.com/kursadbilgin/photo-dispatch/internal/observability"
	"github.com/kursadbilgin/photo-dispatch/internal/queue"
	"github.com/kursadbilgin/photo-dispatch/internal/service"
	"go.uber.org/zap"
)

const metricsAddr = ":9090"

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

	if cfg.RabbitMQURL == "" {
		logger.Fatal("RABBITMQ_URL is required for the worker")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics := observability.NewMetrics()

	pipeline, err := bootstrap.New(ctx, cfg, logger, metrics)
	if err != nil {
		logger.Fatal("pipeline initialization failed", zap.Error(err))
	}
	defer pipeline.Close() //nolint:errcheck

	mq, err := queue.NewRabbitMQ(cfg.RabbitMQURL)
	if err != nil {
		logger.Fatal("rabbitmq initialization failed", zap.Error(err))
	}
	consumer := queue.NewRabbitMQConsumer(mq, cfg.WorkerConcurrency, logger)
	defer consumer.Close() //nolint:errcheck

	worker, err := service.NewWorkerService(consumer, pipeline.Notify, cfg.WorkerConcurrency, logger)
	if err != nil {
		logger.Fatal("worker initialization failed", zap.Error(err))
	}
	worker.SetMetrics(metrics)

	metricsServer := &http.Server{Addr: metricsAddr, Handler: metrics.Handler()}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server stopped", zap.Error(err))
		}
	}()
	defer metricsServer.Close() //nolint:errcheck

	logger.Info("photo-dispatch worker started", zap.Int("concurrency", cfg.WorkerConcurrency))
	if err := worker.Start(ctx); err != nil {
		logger.Error("worker stopped with error", zap.Error(err))
		return
	}
	logger.Info("photo-dispatch worker stopped")
}
