package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/kursadbilgin/photo-dispatch/internal/domain"
	"github.com/kursadbilgin/photo-dispatch/internal/observability"
	"github.com/kursadbilgin/photo-dispatch/internal/queue"
	"go.uber.org/zap"
)

const MessagePhotosAccepted = "Photo notification accepted"

// IntakeService validates requests synchronously and hands them to the
// worker queue.
type IntakeService struct {
	publisher queue.Publisher
	logger    *zap.Logger
	newID     func() string
}

func NewIntakeService(publisher queue.Publisher, logger *zap.Logger) (*IntakeService, error) {
	if publisher == nil {
		return nil, fmt.Errorf("%w: queue publisher is required", domain.ErrConfiguration)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &IntakeService{
		publisher: publisher,
		logger:    logger,
		newID:     uuid.NewString,
	}, nil
}

// EnqueuePayload returns the request id assigned to an accepted request. The
// id is empty when the result is a failure.
func (s *IntakeService) EnqueuePayload(ctx context.Context, payload []byte) (string, domain.NotificationResult) {
	if ctx == nil {
		ctx = context.Background()
	}

	req, err := domain.ParseNotificationRequest(payload)
	if err == nil {
		err = req.Validate()
	}
	if err != nil {
		return "", domain.Failed(domain.CategoryValidation, trimSentinel(err, domain.ErrValidation), nil)
	}

	requestID := s.newID()
	if correlationID, ok := observability.CorrelationIDFromContext(ctx); ok {
		requestID = correlationID
	}

	logger := observability.WithContextLogger(s.logger, ctx).With(observability.SessionFields(req.SessionID, req.Email)...)
	msg := queue.NewPhotoNotificationMessage(requestID, req)
	if err := s.publisher.Publish(ctx, queue.PhotoNotificationQueue, msg); err != nil {
		logger.Error("failed to enqueue photo notification",
			zap.String("requestId", requestID),
			zap.Error(err),
		)
		return "", domain.Failed(domain.CategoryInternal, "failed to enqueue photo notification", nil)
	}

	logger.Info("photo notification enqueued", zap.String("requestId", requestID))
	return requestID, domain.Succeeded(MessagePhotosAccepted)
}
