package service

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kursadbilgin/photo-dispatch/internal/domain"
	"github.com/kursadbilgin/photo-dispatch/internal/observability"
	"github.com/kursadbilgin/photo-dispatch/internal/provider"
	"github.com/kursadbilgin/photo-dispatch/internal/ratelimit"
	"github.com/kursadbilgin/photo-dispatch/internal/recordstore"
	"github.com/kursadbilgin/photo-dispatch/internal/render"
	"github.com/kursadbilgin/photo-dispatch/internal/repository"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	defaultOutboundTimeout = 10 * time.Second

	msgMisconfigured  = "photo delivery is not configured correctly"
	msgDeliveryFailed = "failed to send photos"
	msgInternal       = "internal error"
)

// Pipeline runs one photo notification request to completion.
type Pipeline interface {
	Handle(ctx context.Context, req domain.NotificationRequest) domain.NotificationResult
}

type NotifyConfig struct {
	SenderEmail     string
	OutboundTimeout time.Duration
	// Diagnostic adds the category and raw error to failure results.
	Diagnostic bool
}

// NotifyService validates a request, resolves the session photos, emails them
// and marks the session delivered. It holds no per-request state.
type NotifyService struct {
	cfg         NotifyConfig
	store       recordstore.Store
	notifier    provider.Notifier
	attempts    repository.AttemptRepository
	rateLimiter ratelimit.RateLimiter
	logger      *zap.Logger
	metrics     *observability.Metrics
	now         func() time.Time
}

func NewNotifyService(
	cfg NotifyConfig,
	store recordstore.Store,
	notifier provider.Notifier,
	logger *zap.Logger,
) (*NotifyService, error) {
	if strings.TrimSpace(cfg.SenderEmail) == "" {
		return nil, fmt.Errorf("%w: sender email is required", domain.ErrConfiguration)
	}
	if store == nil {
		return nil, fmt.Errorf("%w: record store is required", domain.ErrConfiguration)
	}
	if notifier == nil {
		return nil, fmt.Errorf("%w: notifier is required", domain.ErrConfiguration)
	}
	if cfg.OutboundTimeout <= 0 {
		cfg.OutboundTimeout = defaultOutboundTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &NotifyService{
		cfg:      cfg,
		store:    store,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}, nil
}

func (s *NotifyService) SetMetrics(metrics *observability.Metrics) {
	if s == nil {
		return
	}
	s.metrics = metrics
}

func (s *NotifyService) SetRateLimiter(limiter ratelimit.RateLimiter) {
	if s == nil {
		return
	}
	s.rateLimiter = limiter
}

// SetAttemptRecorder enables the delivery audit trail.
func (s *NotifyService) SetAttemptRecorder(attempts repository.AttemptRepository) {
	if s == nil {
		return
	}
	s.attempts = attempts
}

// HandlePayload decodes a raw request body and runs the pipeline.
func (s *NotifyService) HandlePayload(ctx context.Context, payload []byte) domain.NotificationResult {
	if ctx == nil {
		ctx = context.Background()
	}

	req, err := domain.ParseNotificationRequest(payload)
	if err != nil {
		return s.fail(ctx, domain.NotificationRequest{}, err)
	}
	return s.Handle(ctx, req)
}

// Handle runs the pipeline. It never panics and never returns an error; every
// failure is folded into the result.
func (s *NotifyService) Handle(ctx context.Context, req domain.NotificationRequest) (result domain.NotificationResult) {
	if ctx == nil {
		ctx = context.Background()
	}

	defer func() {
		if r := recover(); r != nil {
			s.requestLogger(ctx, req).Error("photo notification panicked",
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()),
			)
			result = s.fail(ctx, req, fmt.Errorf("panic: %v", r))
		}
	}()

	if err := req.Validate(); err != nil {
		return s.fail(ctx, req, err)
	}

	photos, err := s.resolvePhotos(ctx, req)
	if err != nil {
		return s.fail(ctx, req, err)
	}

	msg := domain.Message{
		To:      req.Email,
		From:    s.cfg.SenderEmail,
		Subject: render.Subject,
		HTML:    render.PhotoEmail(photos),
	}
	if err := s.send(ctx, req, msg, len(photos)); err != nil {
		return s.fail(ctx, req, err)
	}

	s.markDelivered(ctx, req)

	s.requestLogger(ctx, req).Info("photos sent",
		zap.Int("photoCount", len(photos)),
		zap.String("provider", s.notifier.Name()),
	)
	return domain.Succeeded(domain.MessagePhotosSent)
}

// resolvePhotos prefers the request override and only reads the session
// document when there is none.
func (s *NotifyService) resolvePhotos(ctx context.Context, req domain.NotificationRequest) ([]string, error) {
	if override := domain.DeliverablePhotoURLs(req.PhotoURLs); len(override) > 0 {
		s.metrics.IncPhotoOverride()
		return override, nil
	}

	callCtx, cancel := context.WithTimeout(ctx, s.cfg.OutboundTimeout)
	defer cancel()

	session, err := s.store.Get(callCtx, req.SessionID)
	s.metrics.IncRecordStoreRequest("get", outcomeLabel(err))
	if err != nil {
		if domain.CategoryOf(err) == domain.CategoryInternal {
			return nil, fmt.Errorf("failed to load photo session: %w", err)
		}
		return nil, err
	}
	var photos []string
	if session != nil {
		photos = domain.DeliverablePhotoURLs(session.PhotoURLs)
	}
	if len(photos) == 0 {
		return nil, fmt.Errorf("%w: no photos found for session %q", domain.ErrNotFound, req.SessionID)
	}

	return photos, nil
}

func (s *NotifyService) send(ctx context.Context, req domain.NotificationRequest, msg domain.Message, photoCount int) error {
	providerName := s.notifier.Name()

	if err := s.waitForSendSlot(ctx, providerName); err != nil {
		return err
	}

	callCtx, cancel := context.WithTimeout(ctx, s.cfg.OutboundTimeout)
	defer cancel()

	start := s.now()
	resp, sendErr := s.notifier.Send(callCtx, msg)
	s.metrics.ObserveNotificationSendDuration(providerName, s.now().Sub(start))

	sendErr = classifySendError(sendErr)
	s.recordAttempt(ctx, req, photoCount, resp, sendErr)
	if sendErr != nil {
		return sendErr
	}

	s.metrics.IncNotificationSent(providerName)
	return nil
}

// waitForSendSlot applies the optional rate limit. A limiter backend failure
// lets the send through.
func (s *NotifyService) waitForSendSlot(ctx context.Context, scope string) error {
	if s.rateLimiter == nil {
		return nil
	}

	callCtx, cancel := context.WithTimeout(ctx, s.cfg.OutboundTimeout)
	defer cancel()

	err := s.rateLimiter.Wait(callCtx, scope)
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return fmt.Errorf("rate limiter wait canceled: %w", ctx.Err())
	}

	s.logger.Warn("rate limiter unavailable, sending without limit",
		zap.String("scope", scope),
		zap.Error(err),
	)
	return nil
}

// classifySendError maps a notifier failure onto the domain taxonomy. A
// permission or scope rejection is a configuration problem; anything else the
// provider or the message checks refused is a delivery failure. The request
// was already validated, so nothing raised here is the caller's fault.
func classifySendError(err error) error {
	if err == nil {
		return nil
	}
	if provider.IsPermissionDenied(err) {
		return fmt.Errorf("%w: %w", domain.ErrConfiguration, err)
	}
	switch domain.CategoryOf(err) {
	case domain.CategoryConfiguration:
		return err
	case domain.CategoryValidation:
		return fmt.Errorf("%w: %s", domain.ErrDelivery, trimSentinel(err, domain.ErrValidation))
	}
	return fmt.Errorf("%w: %w", domain.ErrDelivery, err)
}

// markDelivered records the delivery on the session document. The photos are
// already sent, so a failure here never changes the result.
func (s *NotifyService) markDelivered(ctx context.Context, req domain.NotificationRequest) {
	callCtx, cancel := context.WithTimeout(ctx, s.cfg.OutboundTimeout)
	defer cancel()

	_, err := s.store.Update(callCtx, req.SessionID, domain.DeliveredPatch(req.Email, s.now()))
	s.metrics.IncRecordStoreRequest("update", outcomeLabel(err))
	if err == nil {
		return
	}

	err = fmt.Errorf("%w: failed to mark session delivered: %w", domain.ErrBookkeeping, err)
	category := bookkeepingCategory(err)
	s.metrics.IncBookkeepingFailure(category.String())

	logger := s.requestLogger(ctx, req)
	if ce := logger.Check(bookkeepingLevel(category), "session status update failed after send"); ce != nil {
		ce.Write(
			zap.String("category", category.String()),
			zap.Error(err),
		)
	}
}

// bookkeepingCategory reports what went wrong underneath the bookkeeping
// wrapper, so a revoked store key shows up as a configuration problem.
func bookkeepingCategory(err error) domain.Category {
	if errors.Is(err, domain.ErrConfiguration) {
		return domain.CategoryConfiguration
	}
	return domain.CategoryBookkeeping
}

func bookkeepingLevel(category domain.Category) zapcore.Level {
	if category == domain.CategoryConfiguration {
		return zapcore.ErrorLevel
	}
	return zapcore.WarnLevel
}

func (s *NotifyService) recordAttempt(
	ctx context.Context,
	req domain.NotificationRequest,
	photoCount int,
	resp *provider.SendResponse,
	sendErr error,
) {
	if s.attempts == nil {
		return
	}

	attempt := &domain.DeliveryAttempt{
		ID:         uuid.NewString(),
		SessionID:  req.SessionID,
		Recipient:  req.Email,
		Provider:   s.notifier.Name(),
		PhotoCount: photoCount,
		Outcome:    domain.AttemptSent,
		CreatedAt:  s.now().UTC(),
	}
	if correlationID, ok := observability.CorrelationIDFromContext(ctx); ok {
		attempt.CorrelationID = correlationID
	}

	if resp != nil {
		if resp.StatusCode > 0 {
			value := resp.StatusCode
			attempt.StatusCode = &value
		}
		if id := strings.TrimSpace(resp.MessageID); id != "" {
			attempt.ProviderMessageID = &id
		}
	}

	if sendErr != nil {
		attempt.Outcome = domain.AttemptFailed
		attempt.Category = domain.CategoryOf(sendErr)
		value := sendErr.Error()
		attempt.Error = &value

		var providerErr *provider.ProviderError
		if errors.As(sendErr, &providerErr) && providerErr.StatusCode > 0 && attempt.StatusCode == nil {
			value := providerErr.StatusCode
			attempt.StatusCode = &value
		}
	}

	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.OutboundTimeout)
	defer cancel()

	if err := s.attempts.Create(callCtx, attempt); err != nil {
		s.requestLogger(ctx, req).Warn("failed to record delivery attempt",
			zap.String("attemptId", attempt.ID),
			zap.Error(err),
		)
	}
}

func (s *NotifyService) fail(ctx context.Context, req domain.NotificationRequest, err error) domain.NotificationResult {
	category := domain.CategoryOf(err)
	if category == domain.CategoryNone {
		category = domain.CategoryInternal
	}

	logger := s.requestLogger(ctx, req).With(zap.String("category", category.String()))
	switch category {
	case domain.CategoryValidation:
		logger.Info("photo notification rejected", zap.Error(err))
	case domain.CategoryNotFound:
		logger.Warn("photo notification has nothing to send", zap.Error(err))
	case domain.CategoryConfiguration:
		logger.Error("photo notification blocked by configuration",
			zap.String("severity", "operator"),
			zap.Error(err),
		)
	default:
		logger.Error("photo notification failed", zap.Error(err))
	}

	if category != domain.CategoryValidation {
		s.metrics.IncNotificationFailed(category.String())
	}

	var details any
	if s.cfg.Diagnostic {
		details = map[string]string{
			"category": category.String(),
			"error":    err.Error(),
		}
	}

	return domain.Failed(category, publicMessage(category, err), details)
}

func (s *NotifyService) requestLogger(ctx context.Context, req domain.NotificationRequest) *zap.Logger {
	return observability.WithContextLogger(s.logger, ctx).With(observability.SessionFields(req.SessionID, req.Email)...)
}

// publicMessage is the caller-facing cause. Client errors echo their reason;
// operator errors stay generic and delivery errors keep the provider detail.
func publicMessage(category domain.Category, err error) string {
	switch category {
	case domain.CategoryValidation:
		return trimSentinel(err, domain.ErrValidation)
	case domain.CategoryNotFound:
		return trimSentinel(err, domain.ErrNotFound)
	case domain.CategoryConfiguration:
		return msgMisconfigured
	case domain.CategoryDelivery:
		var providerErr *provider.ProviderError
		if errors.As(err, &providerErr) {
			if detail := strings.TrimSpace(providerErr.Message); detail != "" {
				return msgDeliveryFailed + ": " + detail
			}
		}
		return msgDeliveryFailed
	default:
		return msgInternal
	}
}

func trimSentinel(err error, sentinel error) string {
	text := err.Error()
	if idx := strings.Index(text, sentinel.Error()+": "); idx >= 0 {
		return text[idx+len(sentinel.Error())+2:]
	}
	return text
}

func outcomeLabel(err error) string {
	if err == nil {
		return "success"
	}
	return domain.CategoryOf(err).String()
}
