package service

import (
	"context"
	"errors"
	"testing"

	"github.com/kursadbilgin/photo-dispatch/internal/domain"
	"github.com/kursadbilgin/photo-dispatch/internal/observability"
	"github.com/kursadbilgin/photo-dispatch/internal/queue"
)

func TestIntakeServiceEnqueuePayload(t *testing.T) {
	t.Parallel()

	var gotQueue string
	var gotMsg queue.PhotoNotificationMessage
	publisher := &fakePublisher{
		publishFn: func(ctx context.Context, queueName string, msg queue.PhotoNotificationMessage) error {
			gotQueue = queueName
			gotMsg = msg
			return nil
		},
	}

	svc, err := NewIntakeService(publisher, nil)
	if err != nil {
		t.Fatalf("NewIntakeService() error = %v", err)
	}
	svc.newID = func() string { return "generated-id" }

	requestID, result := svc.EnqueuePayload(context.Background(), []byte(`{"email":"a@b.com","photoSessionId":"s1","photoUrls":["http://x/1.png"]}`))
	if !result.Success || result.Message != MessagePhotosAccepted {
		t.Fatalf("result = %+v, want accepted", result)
	}
	if requestID != "generated-id" {
		t.Fatalf("requestID = %q, want generated-id", requestID)
	}
	if gotQueue != queue.PhotoNotificationQueue {
		t.Fatalf("queue = %q, want %q", gotQueue, queue.PhotoNotificationQueue)
	}
	if gotMsg.RequestID != "generated-id" || gotMsg.Email != "a@b.com" || gotMsg.PhotoSessionID != "s1" {
		t.Fatalf("message = %+v", gotMsg)
	}
	if len(gotMsg.PhotoURLs) != 1 {
		t.Fatalf("PhotoURLs = %v, want override carried through", gotMsg.PhotoURLs)
	}
}

func TestIntakeServiceUsesCorrelationID(t *testing.T) {
	t.Parallel()

	svc, err := NewIntakeService(&fakePublisher{}, nil)
	if err != nil {
		t.Fatalf("NewIntakeService() error = %v", err)
	}

	ctx := observability.WithCorrelationID(context.Background(), "req-42")
	requestID, result := svc.EnqueuePayload(ctx, []byte(`{"email":"a@b.com","photoSessionId":"s1"}`))
	if !result.Success {
		t.Fatalf("result = %+v, want success", result)
	}
	if requestID != "req-42" {
		t.Fatalf("requestID = %q, want req-42", requestID)
	}
}

func TestIntakeServiceRejectsInvalidPayloadWithoutPublishing(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		payload     string
		wantMessage string
	}{
		{name: "empty", payload: "", wantMessage: "missing payload"},
		{name: "malformed", payload: "[1,2", wantMessage: "invalid format"},
		{name: "missing email", payload: `{"photoSessionId":"s1"}`, wantMessage: "missing required fields: email and photoSessionId"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			publisher := &fakePublisher{
				publishFn: func(ctx context.Context, queueName string, msg queue.PhotoNotificationMessage) error {
					t.Fatal("Publish should not be called for invalid payloads")
					return nil
				},
			}
			svc, err := NewIntakeService(publisher, nil)
			if err != nil {
				t.Fatalf("NewIntakeService() error = %v", err)
			}

			requestID, result := svc.EnqueuePayload(context.Background(), []byte(tt.payload))
			if result.Success || requestID != "" {
				t.Fatalf("result = %+v requestID = %q, want failure", result, requestID)
			}
			if result.Category != domain.CategoryValidation {
				t.Fatalf("category = %s, want VALIDATION", result.Category)
			}
			if result.Message != tt.wantMessage {
				t.Fatalf("message = %q, want %q", result.Message, tt.wantMessage)
			}
		})
	}
}

func TestIntakeServicePublishFailure(t *testing.T) {
	t.Parallel()

	publisher := &fakePublisher{
		publishFn: func(ctx context.Context, queueName string, msg queue.PhotoNotificationMessage) error {
			return errors.New("broker unavailable")
		},
	}
	svc, err := NewIntakeService(publisher, nil)
	if err != nil {
		t.Fatalf("NewIntakeService() error = %v", err)
	}

	requestID, result := svc.EnqueuePayload(context.Background(), []byte(`{"email":"a@b.com","photoSessionId":"s1"}`))
	if result.Success || requestID != "" {
		t.Fatalf("result = %+v requestID = %q, want failure", result, requestID)
	}
	if result.HTTPStatus() != 500 {
		t.Fatalf("status = %d, want 500", result.HTTPStatus())
	}
}

func TestNewIntakeServiceRequiresPublisher(t *testing.T) {
	t.Parallel()

	if _, err := NewIntakeService(nil, nil); !errors.Is(err, domain.ErrConfiguration) {
		t.Fatalf("error = %v, want ErrConfiguration", err)
	}
}
