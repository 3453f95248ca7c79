package service

import (
	"context"
	"sync"

	"github.com/kursadbilgin/photo-dispatch/internal/domain"
	"github.com/kursadbilgin/photo-dispatch/internal/provider"
	"github.com/kursadbilgin/photo-dispatch/internal/queue"
	"github.com/kursadbilgin/photo-dispatch/internal/ratelimit"
	"github.com/kursadbilgin/photo-dispatch/internal/recordstore"
	"github.com/kursadbilgin/photo-dispatch/internal/repository"
)

type fakeStore struct {
	mu       sync.Mutex
	getCalls int
	updates  []domain.SessionPatch

	getFn    func(ctx context.Context, sessionID string) (*domain.PhotoSession, error)
	updateFn func(ctx context.Context, sessionID string, patch domain.SessionPatch) (*domain.PhotoSession, error)
}

func (f *fakeStore) Get(ctx context.Context, sessionID string) (*domain.PhotoSession, error) {
	f.mu.Lock()
	f.getCalls++
	f.mu.Unlock()

	if f.getFn != nil {
		return f.getFn(ctx, sessionID)
	}
	return &domain.PhotoSession{ID: sessionID}, nil
}

func (f *fakeStore) Update(ctx context.Context, sessionID string, patch domain.SessionPatch) (*domain.PhotoSession, error) {
	f.mu.Lock()
	f.updates = append(f.updates, patch)
	f.mu.Unlock()

	if f.updateFn != nil {
		return f.updateFn(ctx, sessionID, patch)
	}
	return &domain.PhotoSession{ID: sessionID, Status: patch.Status}, nil
}

func (f *fakeStore) calls() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.getCalls, len(f.updates)
}

var _ recordstore.Store = (*fakeStore)(nil)

type fakeNotifier struct {
	mu   sync.Mutex
	sent []domain.Message

	name   string
	sendFn func(ctx context.Context, msg domain.Message) (*provider.SendResponse, error)
}

func (f *fakeNotifier) Send(ctx context.Context, msg domain.Message) (*provider.SendResponse, error) {
	f.mu.Lock()
	f.sent = append(f.sent, msg)
	f.mu.Unlock()

	if f.sendFn != nil {
		return f.sendFn(ctx, msg)
	}
	return &provider.SendResponse{StatusCode: 202, MessageID: "msg-1"}, nil
}

func (f *fakeNotifier) Name() string {
	if f.name == "" {
		return "fake"
	}
	return f.name
}

func (f *fakeNotifier) messages() []domain.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Message, len(f.sent))
	copy(out, f.sent)
	return out
}

var _ provider.Notifier = (*fakeNotifier)(nil)

type fakeRateLimiter struct {
	allowFn func(ctx context.Context, scope string) (bool, error)
	waitFn  func(ctx context.Context, scope string) error
}

func (f *fakeRateLimiter) Allow(ctx context.Context, scope string) (bool, error) {
	if f.allowFn != nil {
		return f.allowFn(ctx, scope)
	}
	return true, nil
}

func (f *fakeRateLimiter) Wait(ctx context.Context, scope string) error {
	if f.waitFn != nil {
		return f.waitFn(ctx, scope)
	}
	return nil
}

var _ ratelimit.RateLimiter = (*fakeRateLimiter)(nil)

type fakeAttemptRepo struct {
	createFn        func(ctx context.Context, a *domain.DeliveryAttempt) error
	listBySessionFn func(ctx context.Context, sessionID string) ([]domain.DeliveryAttempt, error)
}

func (f *fakeAttemptRepo) Create(ctx context.Context, a *domain.DeliveryAttempt) error {
	if f.createFn != nil {
		return f.createFn(ctx, a)
	}
	return nil
}

func (f *fakeAttemptRepo) ListBySession(ctx context.Context, sessionID string) ([]domain.DeliveryAttempt, error) {
	if f.listBySessionFn != nil {
		return f.listBySessionFn(ctx, sessionID)
	}
	return nil, nil
}

var _ repository.AttemptRepository = (*fakeAttemptRepo)(nil)

type fakePublisher struct {
	publishFn func(ctx context.Context, queueName string, msg queue.PhotoNotificationMessage) error
	closeFn   func() error
}

func (f *fakePublisher) Publish(ctx context.Context, queueName string, msg queue.PhotoNotificationMessage) error {
	if f.publishFn != nil {
		return f.publishFn(ctx, queueName, msg)
	}
	return nil
}

func (f *fakePublisher) Close() error {
	if f.closeFn != nil {
		return f.closeFn()
	}
	return nil
}

type fakeConsumer struct {
	consumeFn func(ctx context.Context, queue string, handler queue.MessageHandler) error
	closeFn   func() error
}

func (f *fakeConsumer) Consume(ctx context.Context, queueName string, handler queue.MessageHandler) error {
	if f.consumeFn != nil {
		return f.consumeFn(ctx, queueName, handler)
	}
	return nil
}

func (f *fakeConsumer) Close() error {
	if f.closeFn != nil {
		return f.closeFn()
	}
	return nil
}

type fakePipeline struct {
	handleFn func(ctx context.Context, req domain.NotificationRequest) domain.NotificationResult
}

func (f *fakePipeline) Handle(ctx context.Context, req domain.NotificationRequest) domain.NotificationResult {
	if f.handleFn != nil {
		return f.handleFn(ctx, req)
	}
	return domain.Succeeded(domain.MessagePhotosSent)
}
