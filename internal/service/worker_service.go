package service

import (
	"context"
	"fmt"

	"github.com/kursadbilgin/photo-dispatch/internal/domain"
	"github.com/kursadbilgin/photo-dispatch/internal/observability"
	"github.com/kursadbilgin/photo-dispatch/internal/queue"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const minWorkerConcurrency = 1

// WorkerService drains the photo notification queue through the pipeline.
type WorkerService struct {
	consumer    queue.Consumer
	pipeline    Pipeline
	logger      *zap.Logger
	metrics     *observability.Metrics
	concurrency int
}

func NewWorkerService(
	consumer queue.Consumer,
	pipeline Pipeline,
	concurrency int,
	logger *zap.Logger,
) (*WorkerService, error) {
	if consumer == nil {
		return nil, fmt.Errorf("%w: queue consumer is required", domain.ErrConfiguration)
	}
	if pipeline == nil {
		return nil, fmt.Errorf("%w: pipeline is required", domain.ErrConfiguration)
	}
	if concurrency < minWorkerConcurrency {
		concurrency = minWorkerConcurrency
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &WorkerService{
		consumer:    consumer,
		pipeline:    pipeline,
		logger:      logger,
		concurrency: concurrency,
	}, nil
}

// Start consumes work queues and processes messages until context cancellation.
func (s *WorkerService) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	queueNames := queue.WorkQueueNames()
	if len(queueNames) == 0 {
		return fmt.Errorf("no work queues configured")
	}

	g, groupCtx := errgroup.WithContext(ctx)
	for i := 0; i < s.concurrency; i++ {
		queueName := queueNames[i%len(queueNames)]
		workerID := i + 1

		g.Go(func() error {
			s.logger.Info("worker started",
				zap.Int("workerId", workerID),
				zap.String("queue", queueName),
			)

			err := s.consumer.Consume(groupCtx, queueName, func(ctx context.Context, msg queue.PhotoNotificationMessage) error {
				return s.processMessage(ctx, queueName, msg)
			})
			if err != nil {
				s.logger.Error("worker stopped with error",
					zap.Int("workerId", workerID),
					zap.String("queue", queueName),
					zap.Error(err),
				)
				return err
			}

			s.logger.Info("worker stopped",
				zap.Int("workerId", workerID),
				zap.String("queue", queueName),
			)
			return nil
		})
	}

	return g.Wait()
}

// processMessage runs one queued request. The outcome is logged and the
// message acknowledged either way; requests are never retried.
func (s *WorkerService) processMessage(ctx context.Context, queueName string, msg queue.PhotoNotificationMessage) error {
	s.metrics.IncWorkerInFlight(queueName)
	defer s.metrics.DecWorkerInFlight(queueName)

	ctx = observability.WithCorrelationID(ctx, msg.RequestID)
	result := s.pipeline.Handle(ctx, msg.Request())

	logger := observability.WithContextLogger(s.logger, ctx)
	if result.Success {
		logger.Debug("queued photo notification completed")
		return nil
	}

	logger.Info("queued photo notification failed",
		zap.String("category", result.Category.String()),
		zap.String("message", result.Message),
	)
	return nil
}

func (s *WorkerService) SetMetrics(metrics *observability.Metrics) {
	if s == nil {
		return
	}
	s.metrics = metrics
}
