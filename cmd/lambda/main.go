package main

import (
	"context"
	"log"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/kursadbilgin/photo-dispatch/internal/bootstrap"
	"github.com/kursadbilgin/photo-dispatch/internal/config"
	"github.com/kursadbilgin/photo-dispatch/internal/handler"
	"github.com/kursadbilgin/photo-dispatch/internal/observability"
	"go.uber.org/zap"
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

	pipeline, err := bootstrap.New(context.Background(), cfg, logger, nil)
	if err != nil {
		logger.Fatal("pipeline initialization failed", zap.Error(err))
	}
	defer pipeline.Close() //nolint:errcheck

	lambda.Start(handler.NewLambdaHandler(pipeline.Notify, logger))
}
